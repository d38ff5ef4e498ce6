package model

import "time"

// User mirrors the 'users' table. An account carries at least one of
// email/phone_number; both columns are nullable and unique so that absence
// never collides. Empty string fields map to NULL at the repository level.
type User struct {
	ID           string
	FullName     string
	Email        string
	PhoneNumber  string
	PasswordHash string
	OTPCode      string
	OTPExpiresAt *time.Time
	IsVerified   bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// PublicUser is the canonical projection of a User returned by every endpoint
// that echoes an account. It never carries the password hash or an OTP.
type PublicUser struct {
	ID          string `json:"id"`
	FullName    string `json:"fullName"`
	Email       string `json:"email,omitempty"`
	PhoneNumber string `json:"phoneNumber,omitempty"`
	IsVerified  bool   `json:"isVerified"`
}

// Public returns the response projection of the user.
func (u *User) Public() PublicUser {
	return PublicUser{
		ID:          u.ID,
		FullName:    u.FullName,
		Email:       u.Email,
		PhoneNumber: u.PhoneNumber,
		IsVerified:  u.IsVerified,
	}
}
