package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/gatherhall/server/internal/domain/users"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// uniqueViolation is the Postgres error code for unique constraint breaches.
const uniqueViolation = "23505"

type UserRepository struct {
	pool *pgxpool.Pool
}

var _ users.Repository = (*UserRepository)(nil)

func (r *UserRepository) Create(ctx context.Context, user users.User) error {
	_, err := r.pool.Exec(ctx, `
INSERT INTO users (id, name, email, password_hash, role)
VALUES ($1, $2, $3, $4, $5)
`, user.ID, user.Name, user.Email, user.PasswordHash, user.Role)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return users.ErrEmailTaken
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*users.User, error) {
	var user users.User
	err := r.pool.QueryRow(ctx, `
SELECT id, name, email, password_hash, role, created_at
  FROM users
 WHERE email = $1
`, email).Scan(&user.ID, &user.Name, &user.Email, &user.PasswordHash, &user.Role, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, users.ErrNotFound
		}
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	return &user, nil
}

func (r *UserRepository) UpdatePasswordByEmail(ctx context.Context, email, passwordHash string) error {
	tag, err := r.pool.Exec(ctx, `
UPDATE users SET password_hash = $2 WHERE email = $1
`, email, passwordHash)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return users.ErrNotFound
	}
	return nil
}

func (r *UserRepository) SaveResetToken(ctx context.Context, token users.ResetToken) error {
	_, err := r.pool.Exec(ctx, `
INSERT INTO reset_tokens (token, email, expires_at)
VALUES ($1, $2, $3)
ON CONFLICT (token) DO UPDATE SET email = EXCLUDED.email, expires_at = EXCLUDED.expires_at
`, token.Token, token.Email, token.ExpiresAt)
	if err != nil {
		return fmt.Errorf("save reset token: %w", err)
	}
	return nil
}

func (r *UserRepository) GetResetToken(ctx context.Context, token string) (*users.ResetToken, error) {
	var record users.ResetToken
	err := r.pool.QueryRow(ctx, `
SELECT token, email, expires_at FROM reset_tokens WHERE token = $1
`, token).Scan(&record.Token, &record.Email, &record.ExpiresAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, users.ErrNotFound
		}
		return nil, fmt.Errorf("get reset token: %w", err)
	}
	return &record, nil
}

func (r *UserRepository) DeleteResetToken(ctx context.Context, token string) error {
	if _, err := r.pool.Exec(ctx, `DELETE FROM reset_tokens WHERE token = $1`, token); err != nil {
		return fmt.Errorf("delete reset token: %w", err)
	}
	return nil
}
