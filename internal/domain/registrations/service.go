package registrations

import (
	"context"
	"fmt"
	"time"

	"github.com/gatherhall/server/internal/domain/events"
	"github.com/gatherhall/server/internal/domain/ids"
	"github.com/rs/zerolog"
)

// Notifier sends the registration confirmation. Fire-and-forget: never blocks
// the caller, never reports failure.
type Notifier interface {
	RegistrationConfirmed(ctx context.Context, to, name string, event events.Event)
}

// Registrant identifies the authenticated user registering for an event.
type Registrant struct {
	ID    string
	Email string
	Name  string
}

// Service enforces the one-registration-per-user and capacity invariants.
type Service struct {
	store    Store
	notifier Notifier
	logger   zerolog.Logger
}

func NewService(store Store, notifier Notifier, logger zerolog.Logger) *Service {
	return &Service{
		store:    store,
		notifier: notifier,
		logger:   logger.With().Str("component", "registrations").Logger(),
	}
}

// Register signs a user up for an event. The duplicate check, capacity check,
// insert, and counter recompute all execute inside one transaction holding the
// event row, so two concurrent registrants can never both take the last slot
// and the stored registered count always equals the true row count. The
// confirmation email is dispatched only after the transaction commits.
func (s *Service) Register(ctx context.Context, eventID string, registrant Registrant, details Details) (*Registration, error) {
	var (
		registration Registration
		event        events.Event
	)

	err := s.store.RegisterTx(ctx, func(ctx context.Context, tx Tx) error {
		loaded, err := tx.EventForUpdate(ctx, eventID)
		if err != nil {
			return err
		}

		taken, err := tx.Exists(ctx, eventID, registrant.ID)
		if err != nil {
			return fmt.Errorf("check existing registration: %w", err)
		}
		if taken {
			return ErrAlreadyRegistered
		}

		if loaded.RegisteredCount >= loaded.Capacity {
			return ErrEventFull
		}

		registration = Registration{
			ID:           ids.New(),
			EventID:      eventID,
			UserID:       registrant.ID,
			RegisteredAt: time.Now().UTC(),
			Details:      details,
		}
		if err := tx.Insert(ctx, registration); err != nil {
			return fmt.Errorf("insert registration: %w", err)
		}

		count, err := tx.Recount(ctx, eventID)
		if err != nil {
			return fmt.Errorf("recount registrations: %w", err)
		}
		loaded.RegisteredCount = count
		event = *loaded
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("event_id", eventID).
		Str("user_id", registrant.ID).
		Int("registered", event.RegisteredCount).
		Msg("registration accepted")

	s.notifier.RegistrationConfirmed(ctx, registrant.Email, registrant.Name, event)
	return &registration, nil
}
