package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/problemhub/problemhub/internal/utils"
)

func callProtected(t *testing.T, tokens *utils.TokenManager, authHeader string) (*httptest.ResponseRecorder, string) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	var gotID string
	h := JWTAuth(tokens)(func(c echo.Context) error {
		gotID, _ = UserID(c)
		return c.NoContent(http.StatusOK)
	})
	if err := h(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	return rec, gotID
}

func TestJWTAuth_ValidToken(t *testing.T) {
	t.Parallel()

	tokens := utils.NewTokenManager("test-secret", time.Hour)
	token, err := tokens.Issue("u-1")
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}

	rec, gotID := callProtected(t, tokens, "Bearer "+token)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if gotID != "u-1" {
		t.Fatalf("expected user_id u-1 in context, got %q", gotID)
	}
}

func TestJWTAuth_RejectionsLookIdentical(t *testing.T) {
	t.Parallel()

	tokens := utils.NewTokenManager("test-secret", time.Hour)
	other := utils.NewTokenManager("other-secret", time.Hour)
	forged, err := other.Issue("u-1")
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}
	past := time.Now().Add(-48 * time.Hour)
	expired, err := utils.NewTokenManagerAt("test-secret", time.Hour, func() time.Time { return past }).Issue("u-1")
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}

	headers := []string{"", "Token abc", "Bearer not-a-jwt", "Bearer " + forged, "Bearer " + expired}
	var bodies []string
	for _, h := range headers {
		rec, _ := callProtected(t, tokens, h)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("header %q: expected 401, got %d", h, rec.Code)
		}
		bodies = append(bodies, rec.Body.String())
	}
	for _, b := range bodies[1:] {
		if b != bodies[0] {
			t.Fatalf("rejection bodies differ: %q vs %q", bodies[0], b)
		}
	}
}
