package events

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gatherhall/server/internal/domain/ids"
	"github.com/microcosm-cc/bluemonday"
)

// DefaultCapacity is applied when a create request omits the capacity field.
const DefaultCapacity = 100

type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

type Service struct {
	repo      Repository
	sanitizer *bluemonday.Policy
}

func NewService(repo Repository) *Service {
	return &Service{
		repo:      repo,
		sanitizer: bluemonday.UGCPolicy(),
	}
}

// Create persists a new event. Missing capacity defaults to DefaultCapacity,
// a missing date defaults to now, a missing title to "Untitled". Descriptions
// are sanitized because they are rendered as HTML by clients.
func (s *Service) Create(ctx context.Context, params CreateParams) (*Event, error) {
	if params.Capacity == 0 {
		params.Capacity = DefaultCapacity
	}
	if params.Capacity < 0 {
		return nil, ValidationError{Field: "capacity", Message: "must be greater than zero"}
	}
	if params.CreatedBy == "" {
		return nil, ValidationError{Field: "createdBy", Message: "missing"}
	}

	title := strings.TrimSpace(params.Title)
	if title == "" {
		title = "Untitled"
	}

	startsAt := params.StartsAt
	if startsAt.IsZero() {
		startsAt = time.Now().UTC()
	}

	event := Event{
		ID:          ids.New(),
		Title:       title,
		Description: s.sanitizer.Sanitize(params.Description),
		Location:    strings.TrimSpace(params.Location),
		StartsAt:    startsAt,
		Capacity:    params.Capacity,
		ImageURL:    params.ImageURL,
		CreatedBy:   params.CreatedBy,
	}

	if err := s.repo.Create(ctx, event); err != nil {
		return nil, fmt.Errorf("create event: %w", err)
	}
	return &event, nil
}

func (s *Service) Get(ctx context.Context, id string) (*Event, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) List(ctx context.Context) ([]Event, error) {
	return s.repo.List(ctx)
}

// Delete removes an event. Its registrations go with it; the schema cascades
// rather than leaving orphaned rows behind.
func (s *Service) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}
