package users

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/gatherhall/server/internal/auth"
	"github.com/gatherhall/server/internal/domain/ids"
	"github.com/rs/zerolog"
)

// Notifier delivers account emails. Implementations must be fire-and-forget:
// the methods never block on delivery and never report failure to the caller.
type Notifier interface {
	Welcome(ctx context.Context, to, name string)
	PasswordReset(ctx context.Context, to, name, link string)
}

// Service is the credential store: user records, password verification,
// session issuance, and the reset-token lifecycle.
type Service struct {
	repo        Repository
	tokens      *auth.JWTManager
	notifier    Notifier
	frontendURL string
	resetTTL    time.Duration
	logger      zerolog.Logger
}

func NewService(repo Repository, tokens *auth.JWTManager, notifier Notifier, frontendURL string, resetTTL time.Duration, logger zerolog.Logger) *Service {
	return &Service{
		repo:        repo,
		tokens:      tokens,
		notifier:    notifier,
		frontendURL: strings.TrimRight(frontendURL, "/"),
		resetTTL:    resetTTL,
		logger:      logger.With().Str("component", "users").Logger(),
	}
}

type RegisterParams struct {
	Name     string
	Email    string
	Password string
	Role     string
}

// Register creates a user with a bcrypt-hashed password. The plaintext is
// never stored. Duplicate emails fail with ErrEmailTaken.
func (s *Service) Register(ctx context.Context, params RegisterParams) (*User, error) {
	email, err := normalizeEmail(params.Email)
	if err != nil {
		return nil, err
	}

	if existing, err := s.repo.GetByEmail(ctx, email); err == nil && existing != nil {
		return nil, ErrEmailTaken
	} else if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("check email: %w", err)
	}

	hash, err := auth.HashPassword(params.Password)
	if err != nil {
		return nil, err
	}

	user := User{
		ID:           ids.New(),
		Name:         strings.TrimSpace(params.Name),
		Email:        email,
		PasswordHash: hash,
		Role:         string(auth.NormalizeRole(params.Role)),
	}
	if err := s.repo.Create(ctx, user); err != nil {
		if errors.Is(err, ErrEmailTaken) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	s.notifier.Welcome(ctx, user.Email, user.Name)
	return &user, nil
}

// Session is an authenticated user plus their signed bearer token.
type Session struct {
	Token string
	User  User
}

// Authenticate verifies the password for the given email and issues a signed
// session token carrying {id, email, name, role}.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*Session, error) {
	normalized, err := normalizeEmail(email)
	if err != nil {
		return nil, ErrInvalidCredentials
	}

	user, err := s.repo.GetByEmail(ctx, normalized)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	if err := auth.VerifyPassword(user.PasswordHash, password); err != nil {
		return nil, ErrInvalidCredentials
	}

	token, err := s.tokens.Generate(user.ID, user.Email, user.Name, user.Role)
	if err != nil {
		return nil, fmt.Errorf("issue session token: %w", err)
	}
	return &Session{Token: token, User: *user}, nil
}

// RequestPasswordReset mints a high-entropy single-use token with an absolute
// expiry and emails a reset link. The returned ErrNotFound lets callers decide
// whether to reveal account existence; the HTTP layer deliberately does not.
func (s *Service) RequestPasswordReset(ctx context.Context, email string) error {
	normalized, err := normalizeEmail(email)
	if err != nil {
		return ErrNotFound
	}

	user, err := s.repo.GetByEmail(ctx, normalized)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("lookup user: %w", err)
	}

	token, err := auth.NewResetToken()
	if err != nil {
		return err
	}

	record := ResetToken{
		Token:     token,
		Email:     user.Email,
		ExpiresAt: time.Now().Add(s.resetTTL),
	}
	if err := s.repo.SaveResetToken(ctx, record); err != nil {
		return fmt.Errorf("save reset token: %w", err)
	}

	link := fmt.Sprintf("%s/reset-password/%s", s.frontendURL, token)
	s.notifier.PasswordReset(ctx, user.Email, user.Name, link)
	return nil
}

// ResetPassword consumes a reset token. Expired tokens are deleted on sight;
// valid ones are deleted before success is reported, so a token never works
// twice.
func (s *Service) ResetPassword(ctx context.Context, token, newPassword string) error {
	record, err := s.repo.GetResetToken(ctx, token)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrInvalidResetToken
		}
		return fmt.Errorf("lookup reset token: %w", err)
	}

	if time.Now().After(record.ExpiresAt) {
		if err := s.repo.DeleteResetToken(ctx, token); err != nil {
			s.logger.Error().Err(err).Msg("failed to delete expired reset token")
		}
		return ErrResetTokenExpired
	}

	hash, err := auth.HashPassword(newPassword)
	if err != nil {
		return err
	}
	if err := s.repo.UpdatePasswordByEmail(ctx, record.Email, hash); err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	if err := s.repo.DeleteResetToken(ctx, token); err != nil {
		return fmt.Errorf("consume reset token: %w", err)
	}
	return nil
}

func normalizeEmail(email string) (string, error) {
	trimmed := strings.ToLower(strings.TrimSpace(email))
	if _, err := mail.ParseAddress(trimmed); err != nil {
		return "", fmt.Errorf("invalid email %q: %w", email, err)
	}
	return trimmed, nil
}
