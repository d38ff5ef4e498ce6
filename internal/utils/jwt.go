package utils

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Token verification failure modes. Callers must collapse both into one
// "not authenticated" outcome toward the client.
var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("expired token")
)

// SessionClaims embeds the registered claims and adds the user identity.
type SessionClaims struct {
	jwt.RegisteredClaims
	UserID string `json:"userId"`
}

// TokenManager signs and verifies HS256 session tokens. The signing secret is
// injected once at construction; the server keeps no session table, so a
// token is valid purely as a function of signature and expiry.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenManager builds a TokenManager with the given secret and validity
// window.
func NewTokenManager(secret string, ttl time.Duration) *TokenManager {
	return NewTokenManagerAt(secret, ttl, time.Now)
}

// NewTokenManagerAt is NewTokenManager with an injectable clock, used by
// expiry tests.
func NewTokenManagerAt(secret string, ttl time.Duration, now func() time.Time) *TokenManager {
	return &TokenManager{secret: []byte(secret), ttl: ttl, now: now}
}

// Issue signs a token embedding userID that expires after the manager's TTL.
func (m *TokenManager) Issue(userID string) (string, error) {
	issued := m.now().UTC()
	claims := SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(issued),
			ExpiresAt: jwt.NewNumericDate(issued.Add(m.ttl)),
		},
		UserID: userID,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
}

// Verify checks signature and expiry and returns the embedded user ID.
// Expired tokens yield ErrExpiredToken; everything else wrong with the token
// yields ErrInvalidToken.
func (m *TokenManager) Verify(token string) (string, error) {
	claims := &SessionClaims{}
	tok, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return m.secret, nil
	}, jwt.WithTimeFunc(m.now))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", ErrExpiredToken
		}
		return "", ErrInvalidToken
	}
	if !tok.Valid || claims.UserID == "" {
		return "", ErrInvalidToken
	}
	return claims.UserID, nil
}
