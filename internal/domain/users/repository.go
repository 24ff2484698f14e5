package users

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotFound           = errors.New("user not found")
	ErrEmailTaken         = errors.New("email is already taken")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidResetToken  = errors.New("invalid reset token")
	ErrResetTokenExpired  = errors.New("reset token expired")
)

type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Role         string
	CreatedAt    time.Time
}

// ResetToken proves control of an email address for password recovery.
// The token string itself is the primary key; saving a token replaces any
// previous token with the same value, and new requests simply mint new rows.
type ResetToken struct {
	Token     string
	Email     string
	ExpiresAt time.Time
}

type Repository interface {
	Create(ctx context.Context, user User) error
	GetByEmail(ctx context.Context, email string) (*User, error)
	UpdatePasswordByEmail(ctx context.Context, email, passwordHash string) error

	SaveResetToken(ctx context.Context, token ResetToken) error
	GetResetToken(ctx context.Context, token string) (*ResetToken, error)
	DeleteResetToken(ctx context.Context, token string) error
}
