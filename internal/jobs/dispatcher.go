package jobs

import (
	"context"
	"time"

	"github.com/gatherhall/server/internal/domain/events"
	"github.com/gatherhall/server/internal/email"
	"github.com/jackc/pgx/v5"
	"github.com/riverqueue/river"
	"github.com/rs/zerolog"
)

// Dispatcher turns domain notifications into queued email jobs. It is
// fire-and-forget: enqueue failures are logged, never surfaced, so a broken
// queue cannot fail a registration or login. Without a River client it falls
// back to sending directly on a detached goroutine.
type Dispatcher struct {
	client *river.Client[pgx.Tx]
	emails *email.Service
	logger zerolog.Logger
}

const directSendTimeout = 30 * time.Second

func NewDispatcher(client *river.Client[pgx.Tx], emails *email.Service, logger zerolog.Logger) *Dispatcher {
	return &Dispatcher{
		client: client,
		emails: emails,
		logger: logger.With().Str("component", "dispatcher").Logger(),
	}
}

// Welcome queues the account welcome email.
func (d *Dispatcher) Welcome(ctx context.Context, to, name string) {
	args := WelcomeEmailArgs{To: to, Name: name}
	if d.client != nil {
		d.enqueue(ctx, args)
		return
	}
	d.sendDirect(to, args.Kind(), func(ctx context.Context) error {
		return d.emails.SendWelcome(ctx, to, name)
	})
}

// PasswordReset queues the reset link email.
func (d *Dispatcher) PasswordReset(ctx context.Context, to, name, link string) {
	args := PasswordResetEmailArgs{To: to, Name: name, ResetLink: link}
	if d.client != nil {
		d.enqueue(ctx, args)
		return
	}
	d.sendDirect(to, args.Kind(), func(ctx context.Context) error {
		return d.emails.SendPasswordReset(ctx, to, name, link)
	})
}

// RegistrationConfirmed queues the registration confirmation email.
func (d *Dispatcher) RegistrationConfirmed(ctx context.Context, to, name string, event events.Event) {
	args := RegistrationEmailArgs{
		To:         to,
		Name:       name,
		EventTitle: event.Title,
		EventDate:  event.StartsAt.Format("Monday, 2 January 2006 at 15:04 MST"),
		Location:   event.Location,
	}
	if d.client != nil {
		d.enqueue(ctx, args)
		return
	}
	d.sendDirect(to, args.Kind(), func(ctx context.Context) error {
		return d.emails.SendRegistrationConfirmation(ctx, to, name, args.EventTitle, args.EventDate, args.Location)
	})
}

func (d *Dispatcher) enqueue(ctx context.Context, args river.JobArgs) {
	if _, err := d.client.Insert(ctx, args, InsertOptsForEmail()); err != nil {
		d.logger.Error().Err(err).Str("kind", args.Kind()).Msg("failed to enqueue notification job")
	}
}

// sendDirect runs the send on its own goroutine with a fresh context so the
// caller's request lifecycle never gates delivery.
func (d *Dispatcher) sendDirect(to, kind string, send func(context.Context) error) {
	if d.emails == nil {
		d.logger.Warn().Str("kind", kind).Msg("no email service configured, dropping notification")
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), directSendTimeout)
		defer cancel()
		if err := send(ctx); err != nil {
			d.logger.Error().Err(err).Str("kind", kind).Str("to", to).Msg("failed to send notification email")
		}
	}()
}
