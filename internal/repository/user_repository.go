package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/problemhub/problemhub/internal/model"
)

// UserRepo provides data access to the users table. Uniqueness of email and
// phone_number is enforced by unique indexes; the OTP clear step relies on a
// conditional single-row UPDATE so that concurrent verifications cannot both
// consume the same code.
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

const userColumns = "id,full_name,email,phone_number,password_hash,otp_code,otp_expires_at,is_verified,created_at,updated_at"

// Create inserts a new user. Empty email/phone/password/otp fields are stored
// as NULL so the sparse unique indexes never collide on absence. A duplicate
// key error (MySQL 1062) is mapped to ErrDuplicate.
func (r *UserRepo) Create(ctx context.Context, u *model.User) error {
	_, err := r.DB.ExecContext(ctx,
		`INSERT INTO users (id, full_name, email, phone_number, password_hash, otp_code, otp_expires_at, is_verified)
		 VALUES (?,?,?,?,?,?,?,?)`,
		u.ID, u.FullName, nullable(u.Email), nullable(u.PhoneNumber),
		nullable(u.PasswordHash), nullable(u.OTPCode), u.OTPExpiresAt, u.IsVerified)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return ErrDuplicate
		}
		return err
	}
	return nil
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	return r.getOne(ctx, "SELECT "+userColumns+" FROM users WHERE email=? LIMIT 1", email)
}

// GetByPhone fetches a user by phone number.
func (r *UserRepo) GetByPhone(ctx context.Context, phone string) (*model.User, error) {
	return r.getOne(ctx, "SELECT "+userColumns+" FROM users WHERE phone_number=? LIMIT 1", phone)
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id string) (*model.User, error) {
	return r.getOne(ctx, "SELECT "+userColumns+" FROM users WHERE id=? LIMIT 1", id)
}

// SetOTP stores a fresh one-time code and its expiry on the record with the
// given phone number, overwriting any outstanding code. Returns ErrNotFound
// when no record has that phone number.
func (r *UserRepo) SetOTP(ctx context.Context, phone, code string, expiresAt time.Time) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE users SET otp_code=?, otp_expires_at=? WHERE phone_number=?",
		code, expiresAt.UTC(), phone)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// ConsumeOTP atomically clears the stored code and marks the user verified,
// but only while the supplied code is still the one on the record. It reports
// false when the row was not updated, i.e. the code was already consumed or
// replaced. Concurrent verifications race on this single UPDATE; at most one
// observes true.
func (r *UserRepo) ConsumeOTP(ctx context.Context, phone, code string) (bool, error) {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE users SET otp_code=NULL, otp_expires_at=NULL, is_verified=1
		 WHERE phone_number=? AND otp_code=?`,
		phone, code)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// MarkVerified flips is_verified on the record. Used by the phone/OTP login
// path, which verifies implicitly without consuming the code.
func (r *UserRepo) MarkVerified(ctx context.Context, id string) error {
	_, err := r.DB.ExecContext(ctx, "UPDATE users SET is_verified=1 WHERE id=?", id)
	return err
}

func (r *UserRepo) getOne(ctx context.Context, query string, arg any) (*model.User, error) {
	var (
		u          model.User
		email      sql.NullString
		phone      sql.NullString
		hash       sql.NullString
		otp        sql.NullString
		otpExpires sql.NullTime
	)
	err := r.DB.QueryRowContext(ctx, query, arg).Scan(
		&u.ID, &u.FullName, &email, &phone, &hash, &otp, &otpExpires,
		&u.IsVerified, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	u.Email = email.String
	u.PhoneNumber = phone.String
	u.PasswordHash = hash.String
	u.OTPCode = otp.String
	if otpExpires.Valid {
		t := otpExpires.Time
		u.OTPExpiresAt = &t
	}
	return &u, nil
}

// nullable converts an empty string to NULL so sparse unique columns stay sparse.
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
