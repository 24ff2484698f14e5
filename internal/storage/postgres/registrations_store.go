package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/gatherhall/server/internal/domain/events"
	"github.com/gatherhall/server/internal/domain/registrations"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// RegistrationStore wraps the registration critical section in a transaction.
// EventForUpdate takes a row lock on the event, which serializes concurrent
// registrants for the same event for the lifetime of the transaction.
type RegistrationStore struct {
	pool *pgxpool.Pool
}

var _ registrations.Store = (*RegistrationStore)(nil)

func (s *RegistrationStore) RegisterTx(ctx context.Context, fn func(ctx context.Context, tx registrations.Tx) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	if err := fn(ctx, &registrationTx{tx: tx}); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

type registrationTx struct {
	tx pgx.Tx
}

var _ registrations.Tx = (*registrationTx)(nil)

func (t *registrationTx) EventForUpdate(ctx context.Context, eventID string) (*events.Event, error) {
	row := t.tx.QueryRow(ctx, `
SELECT `+eventColumns+`
  FROM events
 WHERE id = $1
   FOR UPDATE
`, eventID)
	event, err := scanEvent(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, events.ErrNotFound
		}
		return nil, fmt.Errorf("lock event: %w", err)
	}
	return event, nil
}

func (t *registrationTx) Exists(ctx context.Context, eventID, userID string) (bool, error) {
	var exists bool
	err := t.tx.QueryRow(ctx, `
SELECT EXISTS (SELECT 1 FROM registrations WHERE event_id = $1 AND user_id = $2)
`, eventID, userID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check registration: %w", err)
	}
	return exists, nil
}

func (t *registrationTx) Insert(ctx context.Context, reg registrations.Registration) error {
	_, err := t.tx.Exec(ctx, `
INSERT INTO registrations (id, event_id, user_id, registered_at, phone, details, usn, branch, semester)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
`, reg.ID, reg.EventID, reg.UserID, reg.RegisteredAt,
		reg.Details.Phone, reg.Details.Notes, reg.Details.USN, reg.Details.Branch, reg.Details.Semester)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			// The unique (event_id, user_id) constraint backs up the
			// explicit Exists check.
			return registrations.ErrAlreadyRegistered
		}
		return fmt.Errorf("insert registration: %w", err)
	}
	return nil
}

func (t *registrationTx) Recount(ctx context.Context, eventID string) (int, error) {
	var count int
	err := t.tx.QueryRow(ctx, `
UPDATE events
   SET registered_count = (SELECT count(*) FROM registrations WHERE event_id = $1)
 WHERE id = $1
RETURNING registered_count
`, eventID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("recount event registrations: %w", err)
	}
	return count, nil
}
