package utils

import (
	"errors"
	"testing"
	"time"
)

func TestIssueAndVerify_Success(t *testing.T) {
	t.Parallel()

	tm := NewTokenManager("super-secret", 7*24*time.Hour)
	userID := "user-123"

	tok, err := tm.Issue(userID)
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}
	got, err := tm.Verify(tok)
	if err != nil {
		t.Fatalf("Verify error: %v", err)
	}
	if got != userID {
		t.Fatalf("userID mismatch: got %q want %q", got, userID)
	}
}

func TestVerify_ExpiredAfterWindow(t *testing.T) {
	t.Parallel()

	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	issuer := NewTokenManagerAt("k", 7*24*time.Hour, func() time.Time { return base })

	tok, err := issuer.Issue("u1")
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}

	// Still valid just inside the window.
	before := NewTokenManagerAt("k", 7*24*time.Hour, func() time.Time {
		return base.Add(7*24*time.Hour - time.Minute)
	})
	if _, err := before.Verify(tok); err != nil {
		t.Fatalf("expected token valid inside window, got %v", err)
	}

	// Expired past the window.
	after := NewTokenManagerAt("k", 7*24*time.Hour, func() time.Time {
		return base.Add(7*24*time.Hour + time.Minute)
	})
	if _, err := after.Verify(tok); !errors.Is(err, ErrExpiredToken) {
		t.Fatalf("expected ErrExpiredToken, got %v", err)
	}
}

func TestVerify_WrongSecret(t *testing.T) {
	t.Parallel()

	tok, err := NewTokenManager("right-secret", time.Hour).Issue("u2")
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}
	if _, err := NewTokenManager("wrong-secret", time.Hour).Verify(tok); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestVerify_Malformed(t *testing.T) {
	t.Parallel()

	if _, err := NewTokenManager("k", time.Hour).Verify("not.a.jwt"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}
