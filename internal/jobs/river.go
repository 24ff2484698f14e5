package jobs

import (
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"
)

const (
	JobKindWelcomeEmail      = "welcome_email"
	JobKindPasswordReset     = "password_reset_email"
	JobKindRegistrationEmail = "registration_email"
)

// QueueNotifications carries all outbound email. Registration and login must
// never be retried into a duplicate send, so every kind runs at most once.
const QueueNotifications = "notifications"

const EmailMaxAttempts = 1

// InsertOptsForEmail returns insert options for notification jobs.
func InsertOptsForEmail() *river.InsertOpts {
	return &river.InsertOpts{
		Queue:       QueueNotifications,
		MaxAttempts: EmailMaxAttempts,
	}
}

// NewClientConfig builds a River client configuration for the notification queue.
func NewClientConfig(workers *river.Workers, logger *slog.Logger) *river.Config {
	config := &river.Config{
		Workers:     workers,
		MaxAttempts: EmailMaxAttempts,
		Queues: map[string]river.QueueConfig{
			river.QueueDefault: {MaxWorkers: 5},
			QueueNotifications: {MaxWorkers: 5},
		},
	}
	if logger != nil {
		config.Logger = logger
	}
	return config
}

// NewClient creates a River client using pgx v5.
func NewClient(pool *pgxpool.Pool, workers *river.Workers, logger *slog.Logger) (*river.Client[pgx.Tx], error) {
	return river.NewClient(riverpgxv5.New(pool), NewClientConfig(workers, logger))
}
