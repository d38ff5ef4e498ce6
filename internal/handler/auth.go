package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/problemhub/problemhub/internal/model"
	"github.com/problemhub/problemhub/internal/service"
)

// ProfileStore is the slice of the profile layer the auth handler needs: the
// client mirrors a profile-existence flag from every auth response, so the
// handler checks whether the authenticated account has one.
type ProfileStore interface {
	Exists(ctx context.Context, userID string) (bool, error)
}

// AuthHandler bundles dependencies for the auth endpoints.
type AuthHandler struct {
	Identity *service.IdentityService
	Profiles ProfileStore
}

func NewAuthHandler(identity *service.IdentityService, profiles ProfileStore) *AuthHandler {
	return &AuthHandler{Identity: identity, Profiles: profiles}
}

// ----- DTOs -----

type signupReq struct {
	FullName    string `json:"fullName"`
	Email       string `json:"email"`
	PhoneNumber string `json:"phoneNumber"`
	Password    string `json:"password"`
}
type loginReq struct {
	Email       string `json:"email"`
	PhoneNumber string `json:"phoneNumber"`
	Password    string `json:"password"`
	OTP         string `json:"otp"`
}
type phoneReq struct {
	PhoneNumber string `json:"phoneNumber"`
}
type verifyOtpReq struct {
	PhoneNumber string `json:"phoneNumber"`
	OTP         string `json:"otp"`
}

type authResp struct {
	Message    string           `json:"message"`
	Token      string           `json:"token,omitempty"`
	User       model.PublicUser `json:"user"`
	HasProfile bool             `json:"hasProfile"`
}

// Signup handles POST /api/auth/signup. Email signups receive a session token
// immediately; phone signups get a pending ack and must verify the OTP first.
func (h *AuthHandler) Signup(c echo.Context) error {
	var req signupReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	res, err := h.Identity.Register(ctx, service.RegisterInput{
		FullName:    req.FullName,
		Email:       req.Email,
		PhoneNumber: req.PhoneNumber,
		Password:    req.Password,
	})
	if err != nil {
		return h.authError(c, err)
	}
	if res.PendingVerification {
		return c.JSON(http.StatusCreated, echo.Map{
			"message":     "otp sent to phone, verify your account",
			"phoneNumber": res.User.PhoneNumber,
		})
	}
	return c.JSON(http.StatusCreated, authResp{
		Message:    "user registered successfully",
		Token:      res.Token,
		User:       res.User.Public(),
		HasProfile: h.hasProfile(ctx, res.User.ID),
	})
}

// Login handles POST /api/auth/login for both email/password and phone/otp.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	res, err := h.Identity.Login(ctx, service.LoginInput{
		Email:       req.Email,
		PhoneNumber: req.PhoneNumber,
		Password:    req.Password,
		OTP:         req.OTP,
	})
	if err != nil {
		return h.authError(c, err)
	}
	return c.JSON(http.StatusOK, authResp{
		Message:    "login successful",
		Token:      res.Token,
		User:       res.User.Public(),
		HasProfile: h.hasProfile(ctx, res.User.ID),
	})
}

// SendOTP handles POST /api/auth/send-otp.
func (h *AuthHandler) SendOTP(c echo.Context) error {
	var req phoneReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Identity.SendOTP(ctx, req.PhoneNumber); err != nil {
		return h.authError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "otp sent successfully"})
}

// VerifyOTP handles POST /api/auth/verify-otp. A matching code verifies the
// account, clears the challenge and returns a session token.
func (h *AuthHandler) VerifyOTP(c echo.Context) error {
	var req verifyOtpReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	res, err := h.Identity.VerifyOTP(ctx, req.PhoneNumber, req.OTP)
	if err != nil {
		return h.authError(c, err)
	}
	return c.JSON(http.StatusOK, authResp{
		Message:    "phone number verified successfully",
		Token:      res.Token,
		User:       res.User.Public(),
		HasProfile: h.hasProfile(ctx, res.User.ID),
	})
}

// authError translates service sentinels to responses. Lookup misses and
// credential mismatches share one message; storage errors stay opaque.
func (h *AuthHandler) authError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, service.ErrValidation):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	case errors.Is(err, service.ErrConflict):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "user already exists with this email or phone number"})
	case errors.Is(err, service.ErrNotFound):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "user not found"})
	case errors.Is(err, service.ErrInvalidCredentials):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid credentials"})
	case errors.Is(err, service.ErrInvalidOTP):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid otp"})
	case errors.Is(err, service.ErrExpiredOTP):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "otp has expired, please request a new one"})
	default:
		c.Logger().Error(err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "server error"})
	}
}

// hasProfile reports whether the user already created a profile. Failures
// degrade to false: the flag is a client hint, not an authorization input.
func (h *AuthHandler) hasProfile(ctx context.Context, userID string) bool {
	if h.Profiles == nil {
		return false
	}
	ok, err := h.Profiles.Exists(ctx, userID)
	return err == nil && ok
}
