package events

import (
	"context"
	"errors"
	"time"
)

var ErrNotFound = errors.New("event not found")

type Event struct {
	ID              string
	Title           string
	Description     string
	Location        string
	StartsAt        time.Time
	Capacity        int
	ImageURL        string
	CreatedBy       string
	RegisteredCount int
	CreatedAt       time.Time
}

type CreateParams struct {
	Title       string
	Description string
	Location    string
	StartsAt    time.Time
	Capacity    int
	ImageURL    string
	CreatedBy   string
}

type Repository interface {
	Create(ctx context.Context, event Event) error
	Get(ctx context.Context, id string) (*Event, error)
	// List returns every event, newest first (created_at DESC, id DESC).
	// The ordering is part of the contract: clients build their featured
	// view from the head of the list.
	List(ctx context.Context) ([]Event, error)
	Delete(ctx context.Context, id string) error
}
