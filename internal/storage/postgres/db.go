package postgres

import (
	"fmt"

	"github.com/gatherhall/server/internal/domain/events"
	"github.com/gatherhall/server/internal/domain/registrations"
	"github.com/gatherhall/server/internal/domain/users"
	"github.com/gatherhall/server/internal/storage"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repository struct {
	pool *pgxpool.Pool
}

var _ storage.Repository = (*Repository)(nil)

func NewRepository(pool *pgxpool.Pool) (*Repository, error) {
	if pool == nil {
		return nil, fmt.Errorf("postgres repository: pool is nil")
	}
	return &Repository{pool: pool}, nil
}

func (r *Repository) Users() users.Repository {
	return &UserRepository{pool: r.pool}
}

func (r *Repository) Events() events.Repository {
	return &EventRepository{pool: r.pool}
}

func (r *Repository) Registrations() registrations.Store {
	return &RegistrationStore{pool: r.pool}
}
