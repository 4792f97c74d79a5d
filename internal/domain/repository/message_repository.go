package repository

import (
	"context"

	"github.com/jrjohn/tandem-cloud-go/internal/domain/entity"
)

// MessageRepository defines the interface for chat messages and inbox rows
type MessageRepository interface {
	// Create creates a new message
	Create(ctx context.Context, msg *entity.Message) error

	// ListByConnection returns up to limit messages, oldest first.
	ListByConnection(ctx context.Context, connectionID string, limit int) ([]*entity.Message, error)

	// UpsertInbox creates the inbox row on first use, then overwrites it.
	UpsertInbox(ctx context.Context, inbox *entity.MessagesInbox) error

	// ListInboxes returns inbox rows keyed by connection id.
	ListInboxes(ctx context.Context, connectionIDs []string) (map[string]*entity.MessagesInbox, error)
}
