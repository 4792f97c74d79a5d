package repository

import (
	"context"

	"github.com/jrjohn/tandem-cloud-go/internal/domain/entity"
)

// ConnectionRepository defines the interface for connection operations
type ConnectionRepository interface {
	// Create creates a new connection
	Create(ctx context.Context, conn *entity.Connection) error

	// GetByID retrieves a connection by ID. Returns nil, nil if not found.
	GetByID(ctx context.Context, id string) (*entity.Connection, error)

	// CompareAndSet applies fields only if every expect field still holds.
	CompareAndSet(ctx context.Context, id string, expect, fields map[string]any) (bool, error)

	// ListSent returns connections sent by userID in status, newest first.
	ListSent(ctx context.Context, userID string, status entity.ConnectionStatus) ([]*entity.Connection, error)

	// ListReceived returns connections received by userID in status, newest
	// first. visibleOnly hides invitations the receiver was never shown.
	ListReceived(ctx context.Context, userID string, status entity.ConnectionStatus, visibleOnly bool) ([]*entity.Connection, error)

	// ListChats returns chat_active connections where userID is a party.
	ListChats(ctx context.Context, userID string) ([]*entity.Connection, error)

	// ListCounterpartIDs returns every user with any connection to userID.
	ListCounterpartIDs(ctx context.Context, userID string) ([]string, error)

	// FindOpenBetween returns a pending or chat_active connection between the
	// pair in either direction, or nil.
	FindOpenBetween(ctx context.Context, a, b string) (*entity.Connection, error)

	// ReserveMessage increments message_count only while it is below limit.
	ReserveMessage(ctx context.Context, id string, limit int) (bool, error)

	// ReleaseMessage undoes a reservation.
	ReleaseMessage(ctx context.Context, id string) error

	// CountFor recomputes the counters userID should hold.
	CountFor(ctx context.Context, userID string) (entity.Counters, error)
}
