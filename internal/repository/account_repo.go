package repository

import (
	"context"
	"errors"
	"fmt"

	"credential_service/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrDuplicateKey is returned when a write violates the email or phone uniqueness constraint
	ErrDuplicateKey = errors.New("duplicate key")
	// ErrStorage wraps any other failure of the underlying database
	ErrStorage = errors.New("storage error")
)

// DBTX is the subset of pgxpool.Pool used by the repositories
type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// AccountRepository defines operations for account data.
// Lookups return (nil, nil) when no account matches.
type AccountRepository interface {
	Create(ctx context.Context, account *model.Account) error
	Save(ctx context.Context, account *model.Account) error
	FindByEmailOrPhone(ctx context.Context, email, phone string) (*model.Account, error)
	FindByEmail(ctx context.Context, email string) (*model.Account, error)
	FindByOTP(ctx context.Context, code string) (*model.Account, error)
	FindByID(ctx context.Context, id uuid.UUID) (*model.Account, error)
}

type accountRepository struct {
	db DBTX
}

// NewAccountRepository creates a new AccountRepository
func NewAccountRepository(db DBTX) AccountRepository {
	return &accountRepository{db: db}
}

const accountColumns = `id, role, first_name, last_name, email, phone, password_hash, gender,
	otp, otp_expires_at, is_verified, available_now, is_profile_complete, created_at, updated_at`

// Create inserts a new account. A fresh id is assigned when none is set.
func (r *accountRepository) Create(ctx context.Context, a *model.Account) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	sql := `INSERT INTO accounts (id, role, first_name, last_name, email, phone, password_hash, gender,
				otp, otp_expires_at, is_verified, available_now, is_profile_complete)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
			RETURNING created_at, updated_at`
	err := r.db.QueryRow(ctx, sql,
		a.ID, a.Role, a.FirstName, a.LastName, a.Email, a.Phone, a.PasswordHash, a.Gender,
		a.OTP, a.OTPExpiresAt, a.IsVerified, a.AvailableNow, a.IsProfileComplete,
	).Scan(&a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return wrapWriteError("create account", err)
	}
	return nil
}

// Save persists the mutable fields of an existing account
func (r *accountRepository) Save(ctx context.Context, a *model.Account) error {
	sql := `UPDATE accounts SET role = $2, first_name = $3, last_name = $4, email = $5, phone = $6,
				password_hash = $7, gender = $8, otp = $9, otp_expires_at = $10, is_verified = $11,
				available_now = $12, is_profile_complete = $13, updated_at = NOW()
			WHERE id = $1
			RETURNING updated_at`
	err := r.db.QueryRow(ctx, sql,
		a.ID, a.Role, a.FirstName, a.LastName, a.Email, a.Phone, a.PasswordHash, a.Gender,
		a.OTP, a.OTPExpiresAt, a.IsVerified, a.AvailableNow, a.IsProfileComplete,
	).Scan(&a.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("%w: save account %s: no such account", ErrStorage, a.ID)
		}
		return wrapWriteError("save account", err)
	}
	return nil
}

// FindByEmailOrPhone retrieves the account matching either identifier
func (r *accountRepository) FindByEmailOrPhone(ctx context.Context, email, phone string) (*model.Account, error) {
	sql := `SELECT ` + accountColumns + ` FROM accounts
			WHERE ($1 <> '' AND email = $1) OR ($2 <> '' AND phone = $2)
			LIMIT 1`
	return r.findOne(ctx, "find account by email or phone", sql, email, phone)
}

// FindByEmail retrieves an account by its email address
func (r *accountRepository) FindByEmail(ctx context.Context, email string) (*model.Account, error) {
	sql := `SELECT ` + accountColumns + ` FROM accounts WHERE email = $1`
	return r.findOne(ctx, "find account by email", sql, email)
}

// FindByOTP retrieves the account holding the given code. Codes are not
// unique, so the most recently issued one wins.
func (r *accountRepository) FindByOTP(ctx context.Context, code string) (*model.Account, error) {
	sql := `SELECT ` + accountColumns + ` FROM accounts
			WHERE otp = $1
			ORDER BY otp_expires_at DESC
			LIMIT 1`
	return r.findOne(ctx, "find account by otp", sql, code)
}

// FindByID retrieves an account by its ID
func (r *accountRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Account, error) {
	sql := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1`
	return r.findOne(ctx, "find account by id", sql, id)
}

func (r *accountRepository) findOne(ctx context.Context, op, sql string, args ...any) (*model.Account, error) {
	a := &model.Account{}
	err := r.db.QueryRow(ctx, sql, args...).Scan(
		&a.ID, &a.Role, &a.FirstName, &a.LastName, &a.Email, &a.Phone, &a.PasswordHash, &a.Gender,
		&a.OTP, &a.OTPExpiresAt, &a.IsVerified, &a.AvailableNow, &a.IsProfileComplete,
		&a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil // Not found is not an error for lookups, the service layer decides
		}
		return nil, fmt.Errorf("%w: %s: %w", ErrStorage, op, err)
	}
	return a, nil
}

func wrapWriteError(op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
		return fmt.Errorf("%w: %s: %s", ErrDuplicateKey, op, pgErr.ConstraintName)
	}
	return fmt.Errorf("%w: %s: %w", ErrStorage, op, err)
}
