// Package storage groups data access by domain.
package storage

import (
	"github.com/gatherhall/server/internal/domain/events"
	"github.com/gatherhall/server/internal/domain/registrations"
	"github.com/gatherhall/server/internal/domain/users"
)

type Repository interface {
	Users() users.Repository
	Events() events.Repository
	Registrations() registrations.Store
}
