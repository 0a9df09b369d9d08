package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"farmart/internal/model"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

type accountRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewAccountRepository creates a new PostgreSQL-backed credential repository.
func NewAccountRepository(pool *pgxpool.Pool, logger zerolog.Logger) AccountRepository {
	return &accountRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "account").Logger(),
	}
}

func (r *accountRepository) Create(ctx context.Context, a *model.Account) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO accounts (uid, email, password_hash, created_at) VALUES ($1, $2, $3, $4)`,
		a.UID, strings.ToLower(a.Email), a.PasswordHash, a.CreatedAt)
	if err != nil {
		if isUniqueViolation(err, "accounts_email_key") {
			return model.ErrEmailExists
		}
		r.logger.Error().Err(err).Str("uid", a.UID).Msg("failed to create account")
		return fmt.Errorf("failed to create account: %w", err)
	}
	return nil
}

func (r *accountRepository) GetByEmail(ctx context.Context, email string) (*model.Account, error) {
	var a model.Account
	err := r.pool.QueryRow(ctx,
		`SELECT uid, email, password_hash, created_at FROM accounts WHERE email = $1`,
		strings.ToLower(email),
	).Scan(&a.UID, &a.Email, &a.PasswordHash, &a.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error().Err(err).Msg("failed to query account")
		return nil, fmt.Errorf("failed to query account: %w", err)
	}
	return &a, nil
}

func (r *accountRepository) Delete(ctx context.Context, uid string) error {
	if _, err := r.pool.Exec(ctx, `DELETE FROM accounts WHERE uid = $1`, uid); err != nil {
		r.logger.Error().Err(err).Str("uid", uid).Msg("failed to delete account")
		return fmt.Errorf("failed to delete account: %w", err)
	}
	return nil
}
