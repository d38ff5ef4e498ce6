package handler

import (
	"context"
	"encoding/base64"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/problemhub/problemhub/internal/middleware"
	"github.com/problemhub/problemhub/internal/model"
	"github.com/problemhub/problemhub/internal/repository"
)

// dataImageRe matches an inline base64 image payload like
// "data:image/png;base64,...." and captures the extension and the data.
var dataImageRe = regexp.MustCompile(`^data:image/(\w+);base64,(.+)$`)

// ProfileHandler serves the authenticated profile endpoints. JWT middleware
// runs before every method, so the user ID is always bound from the token
// claim, never from the request body.
type ProfileHandler struct {
	Profiles  *repository.ProfileRepo
	UploadDir string
}

func NewProfileHandler(profiles *repository.ProfileRepo, uploadDir string) *ProfileHandler {
	return &ProfileHandler{Profiles: profiles, UploadDir: uploadDir}
}

type profileUpdateReq struct {
	FullName     string            `json:"fullName"`
	Username     string            `json:"username"`
	Bio          string            `json:"bio"`
	Profession   string            `json:"profession"`
	Skills       []string          `json:"skills"`
	Location     string            `json:"location"`
	SocialLinks  map[string]string `json:"socialLinks"`
	ProfilePhoto string            `json:"profilePhoto"`
}

// Me handles GET /api/profile/me.
func (h *ProfileHandler) Me(c echo.Context) error {
	userID, ok := middleware.UserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "not authenticated"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	profile, err := h.Profiles.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "profile not found"})
		}
		c.Logger().Error(err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "server error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"profile": profile})
}

// Update handles POST /api/profile/update: an upsert keyed by the user ID
// from the token. An inline base64 photo is decoded and written under the
// upload directory, which is served statically.
func (h *ProfileHandler) Update(c echo.Context) error {
	userID, ok := middleware.UserID(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "not authenticated"})
	}
	var req profileUpdateReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if req.FullName == "" || req.Username == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "fullName and username are required"})
	}

	photoPath := ""
	if req.ProfilePhoto != "" {
		p, err := h.savePhoto(userID, req.ProfilePhoto)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid profile photo format"})
		}
		photoPath = p
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	profile := &model.Profile{
		UserID:       userID,
		FullName:     req.FullName,
		Username:     req.Username,
		Bio:          req.Bio,
		Profession:   req.Profession,
		Skills:       req.Skills,
		Location:     req.Location,
		SocialLinks:  req.SocialLinks,
		ProfilePhoto: photoPath,
	}
	if err := h.Profiles.Upsert(ctx, profile); err != nil {
		c.Logger().Error(err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "profile update failed"})
	}

	saved, err := h.Profiles.Get(ctx, userID)
	if err != nil {
		c.Logger().Error(err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "server error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"profile": saved})
}

// savePhoto decodes an inline base64 image and stores it as
// <uploadDir>/profile_<userID>.<ext>, returning the public path.
func (h *ProfileHandler) savePhoto(userID, data string) (string, error) {
	matches := dataImageRe.FindStringSubmatch(data)
	if matches == nil {
		return "", errors.New("not a data:image payload")
	}
	ext, payload := matches[1], matches[2]
	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(h.UploadDir, 0o755); err != nil {
		return "", err
	}
	name := "profile_" + userID + "." + ext
	if err := os.WriteFile(filepath.Join(h.UploadDir, name), raw, 0o644); err != nil {
		return "", err
	}
	return "/uploads/" + name, nil
}
