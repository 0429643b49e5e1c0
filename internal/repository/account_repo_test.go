package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"credential_service/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var accountColumnNames = []string{
	"id", "role", "first_name", "last_name", "email", "phone", "password_hash", "gender",
	"otp", "otp_expires_at", "is_verified", "available_now", "is_profile_complete", "created_at", "updated_at",
}

func strPtr(s string) *string { return &s }

func timePtr(t time.Time) *time.Time { return &t }

func accountRow(id uuid.UUID, otp *string, otpExpiresAt *time.Time, verified bool) *pgxmock.Rows {
	created := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	return pgxmock.NewRows(accountColumnNames).AddRow(
		id, model.RoleUser, "Jane", "Doe", "jane@x.com", "12345678", strPtr("$2a$12$hash"), "female",
		otp, otpExpiresAt, verified, true, false, created, created,
	)
}

func newMockRepo(t *testing.T) (pgxmock.PgxPoolIface, AccountRepository) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err, "failed to create mock")
	t.Cleanup(mock.Close)
	return mock, NewAccountRepository(mock)
}

func TestAccountRepository_Create(t *testing.T) {
	tests := []struct {
		name      string
		setupMock func(mock pgxmock.PgxPoolIface)
		wantErr   error
	}{
		{
			name: "successful create",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				now := time.Now()
				mock.ExpectQuery(`INSERT INTO accounts`).
					WithArgs(pgxmock.AnyArg(), model.RoleUser, "Jane", "Doe", "jane@x.com", "12345678",
						pgxmock.AnyArg(), "", pgxmock.AnyArg(), pgxmock.AnyArg(), false, true, false).
					WillReturnRows(pgxmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))
			},
		},
		{
			name: "unique violation surfaces as duplicate key",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(`INSERT INTO accounts`).
					WillReturnError(&pgconn.PgError{Code: pgerrcode.UniqueViolation, ConstraintName: "accounts_email_key"})
			},
			wantErr: ErrDuplicateKey,
		},
		{
			name: "other failures surface as storage error",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(`INSERT INTO accounts`).
					WillReturnError(errors.New("connection refused"))
			},
			wantErr: ErrStorage,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock, repo := newMockRepo(t)
			tt.setupMock(mock)

			account := &model.Account{
				Role:         model.RoleUser,
				FirstName:    "Jane",
				LastName:     "Doe",
				Email:        "jane@x.com",
				Phone:        "12345678",
				PasswordHash: strPtr("$2a$12$hash"),
				AvailableNow: true,
			}
			err := repo.Create(context.Background(), account)

			if tt.wantErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
				assert.NotEqual(t, uuid.Nil, account.ID)
				assert.False(t, account.CreatedAt.IsZero())
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestAccountRepository_FindByEmail(t *testing.T) {
	id := uuid.New()
	expires := time.Date(2026, 3, 1, 10, 5, 0, 0, time.UTC)

	tests := []struct {
		name      string
		setupMock func(mock pgxmock.PgxPoolIface)
		wantNil   bool
		wantErr   error
	}{
		{
			name: "found with otp",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(`SELECT .* FROM accounts WHERE email = \$1`).
					WithArgs("jane@x.com").
					WillReturnRows(accountRow(id, strPtr("123456"), timePtr(expires), false))
			},
		},
		{
			name: "not found",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(`SELECT .* FROM accounts WHERE email = \$1`).
					WithArgs("jane@x.com").
					WillReturnError(pgx.ErrNoRows)
			},
			wantNil: true,
		},
		{
			name: "database error",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(`SELECT .* FROM accounts WHERE email = \$1`).
					WithArgs("jane@x.com").
					WillReturnError(errors.New("connection refused"))
			},
			wantNil: true,
			wantErr: ErrStorage,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock, repo := newMockRepo(t)
			tt.setupMock(mock)

			got, err := repo.FindByEmail(context.Background(), "jane@x.com")

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
			if tt.wantNil {
				assert.Nil(t, got)
			} else {
				require.NotNil(t, got)
				assert.Equal(t, id, got.ID)
				assert.Equal(t, "jane@x.com", got.Email)
				require.NotNil(t, got.OTP)
				assert.Equal(t, "123456", *got.OTP)
				assert.Equal(t, expires, *got.OTPExpiresAt)
				assert.False(t, got.IsVerified)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestAccountRepository_FindByEmailOrPhone(t *testing.T) {
	mock, repo := newMockRepo(t)
	id := uuid.New()

	mock.ExpectQuery(`SELECT .* FROM accounts\s+WHERE \(\$1 <> '' AND email = \$1\) OR \(\$2 <> '' AND phone = \$2\)`).
		WithArgs("", "12345678").
		WillReturnRows(accountRow(id, nil, nil, true))

	got, err := repo.FindByEmailOrPhone(context.Background(), "", "12345678")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, id, got.ID)
	assert.Nil(t, got.OTP)
	assert.Nil(t, got.OTPExpiresAt)
	assert.True(t, got.IsVerified)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAccountRepository_FindByOTP(t *testing.T) {
	mock, repo := newMockRepo(t)
	id := uuid.New()
	expires := time.Now().Add(time.Minute).UTC()

	mock.ExpectQuery(`SELECT .* FROM accounts\s+WHERE otp = \$1\s+ORDER BY otp_expires_at DESC`).
		WithArgs("654321").
		WillReturnRows(accountRow(id, strPtr("654321"), timePtr(expires), true))

	got, err := repo.FindByOTP(context.Background(), "654321")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "654321", *got.OTP)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAccountRepository_FindByID_NotFound(t *testing.T) {
	mock, repo := newMockRepo(t)
	id := uuid.New()

	mock.ExpectQuery(`SELECT .* FROM accounts WHERE id = \$1`).
		WithArgs(id).
		WillReturnError(pgx.ErrNoRows)

	got, err := repo.FindByID(context.Background(), id)
	assert.NoError(t, err)
	assert.Nil(t, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAccountRepository_Save(t *testing.T) {
	tests := []struct {
		name      string
		setupMock func(mock pgxmock.PgxPoolIface, id uuid.UUID)
		wantErr   error
	}{
		{
			name: "clears otp and marks verified",
			setupMock: func(mock pgxmock.PgxPoolIface, id uuid.UUID) {
				mock.ExpectQuery(`UPDATE accounts SET`).
					WithArgs(id, model.RoleUser, "Jane", "Doe", "jane@x.com", "12345678",
						pgxmock.AnyArg(), "", pgxmock.AnyArg(), pgxmock.AnyArg(), true, true, false).
					WillReturnRows(pgxmock.NewRows([]string{"updated_at"}).AddRow(time.Now()))
			},
		},
		{
			name: "missing row",
			setupMock: func(mock pgxmock.PgxPoolIface, id uuid.UUID) {
				mock.ExpectQuery(`UPDATE accounts SET`).WillReturnError(pgx.ErrNoRows)
			},
			wantErr: ErrStorage,
		},
		{
			name: "phone taken by another account",
			setupMock: func(mock pgxmock.PgxPoolIface, id uuid.UUID) {
				mock.ExpectQuery(`UPDATE accounts SET`).
					WillReturnError(&pgconn.PgError{Code: pgerrcode.UniqueViolation, ConstraintName: "accounts_phone_key"})
			},
			wantErr: ErrDuplicateKey,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock, repo := newMockRepo(t)
			id := uuid.New()
			tt.setupMock(mock, id)

			account := &model.Account{
				ID:           id,
				Role:         model.RoleUser,
				FirstName:    "Jane",
				LastName:     "Doe",
				Email:        "jane@x.com",
				Phone:        "12345678",
				PasswordHash: strPtr("$2a$12$hash"),
				IsVerified:   true,
				AvailableNow: true,
			}
			err := repo.Save(context.Background(), account)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
				assert.False(t, account.UpdatedAt.IsZero())
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}
