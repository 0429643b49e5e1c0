package config

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sethvargo/go-retry"
	"go.uber.org/zap"
)

const (
	connectAttempts = 5
	connectInterval = 5 * time.Second
)

// ConnectDB establishes a connection to the PostgreSQL database, retrying
// while the server comes up.
func ConnectDB(ctx context.Context, cfg DBConfig, log *zap.Logger) (*pgxpool.Pool, error) {
	var pool *pgxpool.Pool
	attempt := 0

	backoff := retry.WithMaxRetries(connectAttempts-1, retry.NewConstant(connectInterval))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		p, err := pgxpool.New(ctx, cfg.DSN())
		if err == nil {
			if err = p.Ping(ctx); err == nil {
				pool = p
				return nil
			}
			p.Close()
		}
		log.Warn("failed to connect to database, retrying",
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", connectAttempts),
			zap.Error(err))
		return retry.RetryableError(err)
	})
	if err != nil {
		return nil, fmt.Errorf("unable to connect to database after %d attempts: %w", attempt, err)
	}

	log.Info("connected to PostgreSQL")
	return pool, nil
}

type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// migrationSQL creates the accounts table. It is safe to run repeatedly.
const migrationSQL = `
	CREATE TABLE IF NOT EXISTS accounts (
		id UUID PRIMARY KEY,
		role TEXT NOT NULL CHECK (role IN ('user', 'admin')) DEFAULT 'user',
		first_name TEXT NOT NULL,
		last_name TEXT NOT NULL,
		email TEXT NOT NULL,
		phone TEXT NOT NULL,
		password_hash TEXT,
		gender TEXT NOT NULL DEFAULT '',
		otp TEXT,
		otp_expires_at TIMESTAMP WITH TIME ZONE,
		is_verified BOOLEAN NOT NULL DEFAULT FALSE,
		available_now BOOLEAN NOT NULL DEFAULT TRUE,
		is_profile_complete BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT CURRENT_TIMESTAMP,
		CONSTRAINT accounts_email_key UNIQUE (email),
		CONSTRAINT accounts_phone_key UNIQUE (phone)
	);

	CREATE INDEX IF NOT EXISTS idx_accounts_otp ON accounts(otp) WHERE otp IS NOT NULL;

    CREATE OR REPLACE FUNCTION update_updated_at_column()
    RETURNS TRIGGER AS $$
    BEGIN
       NEW.updated_at = NOW();
       RETURN NEW;
    END;
    $$ language 'plpgsql';

    DO $$
    BEGIN
        IF NOT EXISTS (
            SELECT 1
            FROM pg_trigger
            WHERE tgname = 'set_accounts_updated_at' AND tgrelid = 'accounts'::regclass
        ) THEN
            CREATE TRIGGER set_accounts_updated_at
            BEFORE UPDATE ON accounts
            FOR EACH ROW
            EXECUTE FUNCTION update_updated_at_column();
        END IF;
    END
    $$;
`

// AutoMigrate creates tables if they don't exist
func AutoMigrate(ctx context.Context, db execer, log *zap.Logger) error {
	if _, err := db.Exec(ctx, migrationSQL); err != nil {
		return fmt.Errorf("unable to apply migrations: %w", err)
	}

	log.Info("AutoMigrate applied successfully")
	return nil
}
