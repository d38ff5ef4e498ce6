package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/problemhub/problemhub/internal/model"
	"github.com/problemhub/problemhub/internal/repository"
	"github.com/problemhub/problemhub/internal/service"
	"github.com/problemhub/problemhub/internal/utils"
)

// memStore is an in-memory service.UserStore for exercising the handlers
// end to end without a database.
type memStore struct {
	users map[string]*model.User
}

func newMemStore() *memStore { return &memStore{users: map[string]*model.User{}} }

func (m *memStore) Create(_ context.Context, u *model.User) error {
	for _, e := range m.users {
		if (u.Email != "" && e.Email == u.Email) || (u.PhoneNumber != "" && e.PhoneNumber == u.PhoneNumber) {
			return repository.ErrDuplicate
		}
	}
	cp := *u
	m.users[u.ID] = &cp
	return nil
}

func (m *memStore) GetByEmail(_ context.Context, email string) (*model.User, error) {
	for _, u := range m.users {
		if u.Email != "" && u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *memStore) GetByPhone(_ context.Context, phone string) (*model.User, error) {
	for _, u := range m.users {
		if u.PhoneNumber != "" && u.PhoneNumber == phone {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *memStore) GetByID(_ context.Context, id string) (*model.User, error) {
	if u, ok := m.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, repository.ErrNotFound
}

func (m *memStore) SetOTP(_ context.Context, phone, code string, expiresAt time.Time) error {
	for _, u := range m.users {
		if u.PhoneNumber == phone {
			u.OTPCode = code
			exp := expiresAt
			u.OTPExpiresAt = &exp
			return nil
		}
	}
	return repository.ErrNotFound
}

func (m *memStore) ConsumeOTP(_ context.Context, phone, code string) (bool, error) {
	for _, u := range m.users {
		if u.PhoneNumber == phone && code != "" && u.OTPCode == code {
			u.OTPCode = ""
			u.OTPExpiresAt = nil
			u.IsVerified = true
			return true, nil
		}
	}
	return false, nil
}

func (m *memStore) MarkVerified(_ context.Context, id string) error {
	if u, ok := m.users[id]; ok {
		u.IsVerified = true
		return nil
	}
	return repository.ErrNotFound
}

type captureNotifier struct{ lastCode string }

func (n *captureNotifier) SendCode(_ context.Context, _, code string) error {
	n.lastCode = code
	return nil
}

type fakeProfiles struct{ exists bool }

func (f *fakeProfiles) Exists(context.Context, string) (bool, error) { return f.exists, nil }

func newAuthTestHandler(store *memStore, notifier *captureNotifier, profiles ProfileStore) (*AuthHandler, *utils.TokenManager) {
	tokens := utils.NewTokenManager("test-secret", 7*24*time.Hour)
	identity := service.NewIdentityService(store, tokens, notifier, zap.NewNop(), 4)
	return NewAuthHandler(identity, profiles), tokens
}

func doJSON(t *testing.T, h echo.HandlerFunc, body string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	require.NoError(t, h(e.NewContext(req, rec)))
	return rec
}

func TestSignup_MissingIdentifier(t *testing.T) {
	h, _ := newAuthTestHandler(newMemStore(), &captureNotifier{}, &fakeProfiles{})

	rec := doJSON(t, h.Signup, `{"fullName":"Ana"}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Contains(t, body["error"], "email or phone number is required")
}

func TestSignup_EmailReturnsTokenAndUser(t *testing.T) {
	store := newMemStore()
	h, tokens := newAuthTestHandler(store, &captureNotifier{}, &fakeProfiles{})

	rec := doJSON(t, h.Signup, `{"fullName":"Bo","email":"bo@x.com","password":"secret"}`)

	require.Equal(t, http.StatusCreated, rec.Code)
	var body authResp
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.NotEmpty(t, body.Token)
	id, err := tokens.Verify(body.Token)
	require.NoError(t, err)
	assert.Equal(t, body.User.ID, id)
	assert.Equal(t, "bo@x.com", body.User.Email)
	assert.False(t, body.HasProfile)
	// The response never exposes credential material.
	assert.NotContains(t, rec.Body.String(), "passwordHash")
	assert.NotContains(t, rec.Body.String(), "otp")
}

func TestSignup_PhonePendingWithoutToken(t *testing.T) {
	store := newMemStore()
	notifier := &captureNotifier{}
	h, _ := newAuthTestHandler(store, notifier, &fakeProfiles{})

	rec := doJSON(t, h.Signup, `{"fullName":"Ana","phoneNumber":"5551234567"}`)

	require.Equal(t, http.StatusCreated, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "5551234567", body["phoneNumber"])
	assert.NotContains(t, body, "token")
	assert.NotEmpty(t, notifier.lastCode)
}

func TestSignup_DuplicateEmail(t *testing.T) {
	store := newMemStore()
	h, _ := newAuthTestHandler(store, &captureNotifier{}, &fakeProfiles{})

	rec := doJSON(t, h.Signup, `{"fullName":"Bo","email":"bo@x.com","password":"secret"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, h.Signup, `{"fullName":"Other","email":"bo@x.com","password":"hunter2"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "already exists")
}

func TestLogin_BadCredentials(t *testing.T) {
	store := newMemStore()
	h, _ := newAuthTestHandler(store, &captureNotifier{}, &fakeProfiles{})

	rec := doJSON(t, h.Signup, `{"fullName":"Bo","email":"bo@x.com","password":"secret"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	// Wrong password and unknown email produce the same response.
	for _, body := range []string{
		`{"email":"bo@x.com","password":"wrong"}`,
		`{"email":"ghost@x.com","password":"secret"}`,
	} {
		rec = doJSON(t, h.Login, body)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "invalid credentials")
	}
}

func TestLogin_EmailSuccessIncludesHasProfile(t *testing.T) {
	store := newMemStore()
	h, _ := newAuthTestHandler(store, &captureNotifier{}, &fakeProfiles{exists: true})

	rec := doJSON(t, h.Signup, `{"fullName":"Bo","email":"bo@x.com","password":"secret"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, h.Login, `{"email":"bo@x.com","password":"secret"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var body authResp
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.NotEmpty(t, body.Token)
	assert.True(t, body.HasProfile)
}

func TestSendOTP_UnknownPhone(t *testing.T) {
	h, _ := newAuthTestHandler(newMemStore(), &captureNotifier{}, &fakeProfiles{})

	rec := doJSON(t, h.SendOTP, `{"phoneNumber":"0000000000"}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "user not found")
}

func TestVerifyOTP_FullPhoneFlow(t *testing.T) {
	store := newMemStore()
	notifier := &captureNotifier{}
	h, tokens := newAuthTestHandler(store, notifier, &fakeProfiles{})

	rec := doJSON(t, h.Signup, `{"fullName":"Ana","phoneNumber":"5551234567"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, h.VerifyOTP, `{"phoneNumber":"5551234567","otp":"`+notifier.lastCode+`"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var body authResp
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.NotEmpty(t, body.Token)
	id, err := tokens.Verify(body.Token)
	require.NoError(t, err)
	assert.Equal(t, body.User.ID, id)
	assert.True(t, body.User.IsVerified)

	// The code was consumed; replaying it is rejected.
	rec = doJSON(t, h.VerifyOTP, `{"phoneNumber":"5551234567","otp":"`+notifier.lastCode+`"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid otp")
}

func TestVerifyOTP_WrongCode(t *testing.T) {
	store := newMemStore()
	notifier := &captureNotifier{}
	h, _ := newAuthTestHandler(store, notifier, &fakeProfiles{})

	rec := doJSON(t, h.Signup, `{"fullName":"Ana","phoneNumber":"5551234567"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, h.VerifyOTP, `{"phoneNumber":"5551234567","otp":"000000"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid otp")
}
