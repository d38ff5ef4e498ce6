// Package service contains the identity core: registration, dual-mode login,
// OTP issuance and verification. It composes the credential store, the
// password hasher, the token manager and the notifier into the user-facing
// operations and owns their precedence and failure rules.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/problemhub/problemhub/internal/model"
	"github.com/problemhub/problemhub/internal/repository"
	"github.com/problemhub/problemhub/internal/utils"
)

var (
	ErrValidation         = errors.New("invalid input")
	ErrConflict           = errors.New("user already exists")
	ErrNotFound           = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidOTP         = errors.New("invalid otp")
	ErrExpiredOTP         = errors.New("otp expired")
)

// otpValidity is the window during which an issued code can be verified.
const otpValidity = 5 * time.Minute

// UserStore is the credential store the identity service runs against. The
// production implementation is repository.UserRepo; tests substitute a fake.
type UserStore interface {
	Create(ctx context.Context, u *model.User) error
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	GetByPhone(ctx context.Context, phone string) (*model.User, error)
	GetByID(ctx context.Context, id string) (*model.User, error)
	SetOTP(ctx context.Context, phone, code string, expiresAt time.Time) error
	ConsumeOTP(ctx context.Context, phone, code string) (bool, error)
	MarkVerified(ctx context.Context, id string) error
}

// Notifier delivers a one-time code to a phone number. The service never
// talks to an SMS channel directly; delivery failures are logged and do not
// fail the operation that issued the code.
type Notifier interface {
	SendCode(ctx context.Context, phoneNumber, code string) error
}

// IdentityService orchestrates the credential/session workflow.
type IdentityService struct {
	users      UserStore
	tokens     *utils.TokenManager
	notifier   Notifier
	logger     *zap.Logger
	bcryptCost int
	now        func() time.Time
}

// Option tweaks service construction; used by tests to pin the clock.
type Option func(*IdentityService)

// WithClock replaces the service's time source.
func WithClock(now func() time.Time) Option {
	return func(s *IdentityService) { s.now = now }
}

func NewIdentityService(users UserStore, tokens *utils.TokenManager, notifier Notifier, logger *zap.Logger, bcryptCost int, opts ...Option) *IdentityService {
	s := &IdentityService{
		users:      users,
		tokens:     tokens,
		notifier:   notifier,
		logger:     logger,
		bcryptCost: bcryptCost,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RegisterInput carries a signup request. Email or PhoneNumber must be set.
type RegisterInput struct {
	FullName    string
	Email       string
	PhoneNumber string
	Password    string
}

// LoginInput carries a login request: email+password or phone+otp.
type LoginInput struct {
	Email       string
	PhoneNumber string
	Password    string
	OTP         string
}

// AuthResult is the outcome of a successful identity operation. Token is
// empty when PendingVerification is set (phone signup awaiting OTP).
type AuthResult struct {
	User                *model.User
	Token               string
	PendingVerification bool
}

// Register creates exactly one new identity record. Phone-first signups get a
// stored OTP and no token: the account stays pending until verify-otp (or a
// phone login) completes it. Email signups are hashed and receive a session
// token immediately.
func (s *IdentityService) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	fullName := strings.TrimSpace(in.FullName)
	email := strings.ToLower(strings.TrimSpace(in.Email))
	phone := strings.TrimSpace(in.PhoneNumber)

	if fullName == "" {
		return nil, fmt.Errorf("%w: full name is required", ErrValidation)
	}
	if email == "" && phone == "" {
		return nil, fmt.Errorf("%w: email or phone number is required", ErrValidation)
	}

	if err := s.checkTaken(ctx, email, phone); err != nil {
		return nil, err
	}

	user := &model.User{ID: uuid.NewString(), FullName: fullName}

	if phone != "" {
		code, err := utils.GenerateOTP()
		if err != nil {
			return nil, fmt.Errorf("generating otp: %w", err)
		}
		expires := s.now().UTC().Add(otpValidity)
		user.PhoneNumber = phone
		user.OTPCode = code
		user.OTPExpiresAt = &expires
		// An email supplied alongside the phone is kept on the record so the
		// account can later log in either way. Verification still goes
		// through the OTP.
		user.Email = email
		if in.Password != "" {
			hash, err := utils.HashPassword(in.Password, s.bcryptCost)
			if err != nil {
				return nil, fmt.Errorf("hashing password: %w", err)
			}
			user.PasswordHash = hash
		}
		if err := s.create(ctx, user); err != nil {
			return nil, err
		}
		s.deliverCode(ctx, phone, code)
		s.logger.Info("user registered, otp pending", zap.String("user_id", user.ID))
		return &AuthResult{User: user, PendingVerification: true}, nil
	}

	if in.Password == "" {
		return nil, fmt.Errorf("%w: password is required for email signup", ErrValidation)
	}
	hash, err := utils.HashPassword(in.Password, s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}
	user.Email = email
	user.PasswordHash = hash
	if err := s.create(ctx, user); err != nil {
		return nil, err
	}
	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, fmt.Errorf("issuing token: %w", err)
	}
	s.logger.Info("user registered", zap.String("user_id", user.ID))
	return &AuthResult{User: user, Token: token}, nil
}

// Login authenticates by email+password or phone+otp and issues a fresh
// session token. Lookup misses and credential mismatches are both reported as
// ErrInvalidCredentials so the caller cannot tell which half failed. A
// successful phone login implicitly verifies the account.
func (s *IdentityService) Login(ctx context.Context, in LoginInput) (*AuthResult, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	phone := strings.TrimSpace(in.PhoneNumber)

	var user *model.User
	switch {
	case email != "":
		u, err := s.users.GetByEmail(ctx, email)
		if err != nil {
			return nil, asAuthFailure(err)
		}
		if u.PasswordHash == "" || !utils.VerifyPassword(u.PasswordHash, in.Password) {
			return nil, ErrInvalidCredentials
		}
		user = u
	case phone != "":
		u, err := s.users.GetByPhone(ctx, phone)
		if err != nil {
			return nil, asAuthFailure(err)
		}
		// Exact string match, no normalization.
		if u.OTPCode == "" || u.OTPCode != in.OTP {
			return nil, ErrInvalidCredentials
		}
		if !u.IsVerified {
			if err := s.users.MarkVerified(ctx, u.ID); err != nil {
				return nil, fmt.Errorf("marking user verified: %w", err)
			}
			u.IsVerified = true
		}
		user = u
	default:
		return nil, fmt.Errorf("%w: email or phone number is required", ErrValidation)
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, fmt.Errorf("issuing token: %w", err)
	}
	s.logger.Info("user logged in", zap.String("user_id", user.ID))
	return &AuthResult{User: user, Token: token}, nil
}

// SendOTP issues a fresh code for an existing phone account, overwriting any
// outstanding one. Only the most recent code is ever valid.
func (s *IdentityService) SendOTP(ctx context.Context, phoneNumber string) error {
	phone := strings.TrimSpace(phoneNumber)
	if phone == "" {
		return fmt.Errorf("%w: phone number is required", ErrValidation)
	}
	code, err := utils.GenerateOTP()
	if err != nil {
		return fmt.Errorf("generating otp: %w", err)
	}
	if err := s.users.SetOTP(ctx, phone, code, s.now().UTC().Add(otpValidity)); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("storing otp: %w", err)
	}
	s.deliverCode(ctx, phone, code)
	return nil
}

// VerifyOTP checks a submitted code against the stored challenge. A code
// mismatch (or unknown phone) is ErrInvalidOTP; a matching but stale code is
// ErrExpiredOTP so the caller can prompt for a re-request instead of a
// re-entry. Success consumes the code: the clear step is a single conditional
// update, so a replay or a lost race reports ErrInvalidOTP.
func (s *IdentityService) VerifyOTP(ctx context.Context, phoneNumber, submittedCode string) (*AuthResult, error) {
	phone := strings.TrimSpace(phoneNumber)
	user, err := s.users.GetByPhone(ctx, phone)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidOTP
		}
		return nil, fmt.Errorf("looking up user: %w", err)
	}
	if user.OTPCode == "" || user.OTPCode != submittedCode {
		return nil, ErrInvalidOTP
	}
	if user.OTPExpiresAt != nil && s.now().After(*user.OTPExpiresAt) {
		return nil, ErrExpiredOTP
	}
	ok, err := s.users.ConsumeOTP(ctx, phone, submittedCode)
	if err != nil {
		return nil, fmt.Errorf("consuming otp: %w", err)
	}
	if !ok {
		return nil, ErrInvalidOTP
	}
	user.OTPCode = ""
	user.OTPExpiresAt = nil
	user.IsVerified = true

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, fmt.Errorf("issuing token: %w", err)
	}
	s.logger.Info("phone number verified", zap.String("user_id", user.ID))
	return &AuthResult{User: user, Token: token}, nil
}

// checkTaken rejects a signup when either identifier is already claimed. The
// store's unique indexes remain the arbiter under concurrency; this lookup
// only serves the common case with a cleaner error.
func (s *IdentityService) checkTaken(ctx context.Context, email, phone string) error {
	if email != "" {
		if _, err := s.users.GetByEmail(ctx, email); err == nil {
			return ErrConflict
		} else if !errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("looking up email: %w", err)
		}
	}
	if phone != "" {
		if _, err := s.users.GetByPhone(ctx, phone); err == nil {
			return ErrConflict
		} else if !errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("looking up phone: %w", err)
		}
	}
	return nil
}

func (s *IdentityService) create(ctx context.Context, u *model.User) error {
	if err := s.users.Create(ctx, u); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return ErrConflict
		}
		return fmt.Errorf("creating user: %w", err)
	}
	return nil
}

// deliverCode hands the code to the notifier. Delivery is best effort: a
// broken SMS channel must not fail signup or resend, the user can re-request.
func (s *IdentityService) deliverCode(ctx context.Context, phone, code string) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.SendCode(ctx, phone, code); err != nil {
		s.logger.Warn("otp delivery failed", zap.String("phone", phone), zap.Error(err))
	}
}

func asAuthFailure(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return ErrInvalidCredentials
	}
	return fmt.Errorf("looking up user: %w", err)
}
