package repository

import (
	"context"

	"github.com/jrjohn/tandem-cloud-go/internal/domain/entity"
)

// UserRepository defines the interface for user and counter operations
type UserRepository interface {
	// Create creates a new user
	Create(ctx context.Context, user *entity.User) error

	// GetByID retrieves a user by ID. Returns nil, nil if not found.
	GetByID(ctx context.Context, id string) (*entity.User, error)

	// ReserveCounter increments field by one only while it is below limit.
	ReserveCounter(ctx context.Context, id, field string, limit int) (bool, error)

	// IncrementCounter increments field by one.
	IncrementCounter(ctx context.Context, id, field string) error

	// DecrementCounter decrements field by one, never below zero. Reports
	// whether the counter changed.
	DecrementCounter(ctx context.Context, id, field string) (bool, error)

	// SetCounters overwrites all three counters.
	SetCounters(ctx context.Context, id string, counters entity.Counters) error

	// ListIDsAfter pages through user ids in ascending order.
	ListIDsAfter(ctx context.Context, afterID string, limit int) ([]string, error)
}
