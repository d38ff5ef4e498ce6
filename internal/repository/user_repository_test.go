package repository

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/problemhub/problemhub/internal/model"
)

func newUserRepoWithMock(t *testing.T) (*UserRepo, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewUserRepo(db), mock, db
}

const insertUserQ = `(?s)^INSERT\s+INTO\s+users\s*\(id,\s*full_name,\s*email,\s*phone_number,\s*password_hash,\s*otp_code,\s*otp_expires_at,\s*is_verified\)\s*VALUES\s*\(\?,\?,\?,\?,\?,\?,\?,\?\)\s*$`

func TestUserCreate_NullsOutEmptyFields(t *testing.T) {
	repo, mock, db := newUserRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(insertUserQ).
		WithArgs("u-1", "Ana", nil, "5551234567", nil, "123456", sqlmock.AnyArg(), false).
		WillReturnResult(sqlmock.NewResult(0, 1))

	exp := time.Now().Add(5 * time.Minute)
	u := &model.User{ID: "u-1", FullName: "Ana", PhoneNumber: "5551234567", OTPCode: "123456", OTPExpiresAt: &exp}
	if err := repo.Create(context.Background(), u); err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestUserCreate_DuplicateKey(t *testing.T) {
	repo, mock, db := newUserRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(insertUserQ).
		WillReturnError(errors.New("Error 1062 (23000): Duplicate entry 'bo@x.com' for key 'users.email'"))

	err := repo.Create(context.Background(), &model.User{ID: "u-1", FullName: "Bo", Email: "bo@x.com", PasswordHash: "h"})
	if !errors.Is(err, ErrDuplicate) {
		t.Fatalf("want ErrDuplicate, got %v", err)
	}
}

func TestUserGetByPhone_Found(t *testing.T) {
	repo, mock, db := newUserRepoWithMock(t)
	defer db.Close()

	q := `(?s)^SELECT\s+.+\s+FROM\s+users\s+WHERE\s+phone_number=\?\s+LIMIT\s+1\s*$`
	exp := time.Date(2025, 3, 1, 12, 5, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{
		"id", "full_name", "email", "phone_number", "password_hash",
		"otp_code", "otp_expires_at", "is_verified", "created_at", "updated_at",
	}).AddRow("u-1", "Ana", nil, "5551234567", nil, "123456", exp, false, exp, exp)
	mock.ExpectQuery(q).WithArgs("5551234567").WillReturnRows(rows)

	got, err := repo.GetByPhone(context.Background(), "5551234567")
	if err != nil {
		t.Fatalf("GetByPhone error: %v", err)
	}
	if got.ID != "u-1" || got.Email != "" || got.PasswordHash != "" {
		t.Fatalf("null columns must scan to empty strings: %+v", got)
	}
	if got.OTPCode != "123456" || got.OTPExpiresAt == nil || !got.OTPExpiresAt.Equal(exp) {
		t.Fatalf("unexpected otp fields: %+v", got)
	}
}

func TestUserGetByEmail_NormalizesAndMapsNoRows(t *testing.T) {
	repo, mock, db := newUserRepoWithMock(t)
	defer db.Close()

	q := `(?s)^SELECT\s+.+\s+FROM\s+users\s+WHERE\s+email=\?\s+LIMIT\s+1\s*$`
	mock.ExpectQuery(q).WithArgs("bo@x.com").WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByEmail(context.Background(), "  Bo@X.com ")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestUserSetOTP_UnknownPhone(t *testing.T) {
	repo, mock, db := newUserRepoWithMock(t)
	defer db.Close()

	q := `(?s)^UPDATE\s+users\s+SET\s+otp_code=\?,\s*otp_expires_at=\?\s+WHERE\s+phone_number=\?\s*$`
	mock.ExpectExec(q).
		WithArgs("123456", sqlmock.AnyArg(), "0000000000").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.SetOTP(context.Background(), "0000000000", "123456", time.Now().Add(5*time.Minute))
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestUserConsumeOTP(t *testing.T) {
	repo, mock, db := newUserRepoWithMock(t)
	defer db.Close()

	q := `(?s)^UPDATE\s+users\s+SET\s+otp_code=NULL,\s*otp_expires_at=NULL,\s*is_verified=1\s+WHERE\s+phone_number=\?\s+AND\s+otp_code=\?\s*$`

	mock.ExpectExec(q).
		WithArgs("5551234567", "123456").
		WillReturnResult(sqlmock.NewResult(0, 1))
	ok, err := repo.ConsumeOTP(context.Background(), "5551234567", "123456")
	if err != nil || !ok {
		t.Fatalf("first consume: ok=%v err=%v", ok, err)
	}

	// Replay: the conditional update no longer matches a row.
	mock.ExpectExec(q).
		WithArgs("5551234567", "123456").
		WillReturnResult(sqlmock.NewResult(0, 0))
	ok, err = repo.ConsumeOTP(context.Background(), "5551234567", "123456")
	if err != nil {
		t.Fatalf("second consume error: %v", err)
	}
	if ok {
		t.Fatalf("consumed code must not be consumable again")
	}
}
