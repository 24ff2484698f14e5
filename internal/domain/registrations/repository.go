package registrations

import (
	"context"
	"errors"
	"time"

	"github.com/gatherhall/server/internal/domain/events"
)

var (
	ErrAlreadyRegistered = errors.New("already registered")
	ErrEventFull         = errors.New("event full")
)

type Registration struct {
	ID           string
	EventID      string
	UserID       string
	RegisteredAt time.Time
	Details      Details
}

// Details carries the free-form attendee fields captured at sign-up.
type Details struct {
	Phone    string
	Notes    string
	USN      string
	Branch   string
	Semester string
}

// Store runs the capacity-critical section. Implementations must execute fn
// atomically with respect to other registrants of the same event: the
// postgres store opens a transaction and EventForUpdate takes a row lock.
type Store interface {
	RegisterTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}

type Tx interface {
	// EventForUpdate loads the event and holds it against concurrent
	// registrations until the transaction ends.
	EventForUpdate(ctx context.Context, eventID string) (*events.Event, error)
	Exists(ctx context.Context, eventID, userID string) (bool, error)
	Insert(ctx context.Context, registration Registration) error
	// Recount recomputes the registration count from the authoritative set
	// and persists it onto the event record, returning the new count.
	Recount(ctx context.Context, eventID string) (int, error)
}
