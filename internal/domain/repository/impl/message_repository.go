package impl

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/jrjohn/tandem-cloud-go/internal/domain/dao"
	"github.com/jrjohn/tandem-cloud-go/internal/domain/entity"
	"github.com/jrjohn/tandem-cloud-go/internal/domain/repository"
)

// messageRepository implements repository.MessageRepository.
type messageRepository struct {
	store dao.DocumentStore
}

// NewMessageRepository creates a new MessageRepository instance.
func NewMessageRepository(store dao.DocumentStore) repository.MessageRepository {
	return &messageRepository{store: store}
}

func (r *messageRepository) Create(ctx context.Context, msg *entity.Message) error {
	if msg.ID == "" {
		// v7 ids sort by creation time, breaking timestamp ties
		id, err := uuid.NewV7()
		if err != nil {
			return err
		}
		msg.ID = id.String()
	}
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now().UTC()
	}
	return r.store.Create(ctx, entity.CollectionMessages, msg)
}

func (r *messageRepository) ListByConnection(ctx context.Context, connectionID string, limit int) ([]*entity.Message, error) {
	var out []*entity.Message
	q := dao.NewQuery().
		Eq("connection_id", connectionID).
		OrderBy("timestamp", false).
		OrderBy("_id", false).
		WithLimit(limit)
	if err := r.store.List(ctx, entity.CollectionMessages, q, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *messageRepository) UpsertInbox(ctx context.Context, inbox *entity.MessagesInbox) error {
	if _, err := r.store.CreateIfAbsent(ctx, entity.CollectionMessagesInbox, dao.NewQuery().Eq("_id", inbox.ID), inbox); err != nil {
		return err
	}
	return r.store.Update(ctx, entity.CollectionMessagesInbox, inbox.ID, map[string]any{
		"sender_id":             inbox.SenderID,
		"receiver_id":           inbox.ReceiverID,
		"latest_message":        inbox.LatestMessage,
		"latest_message_type":   string(inbox.LatestMessageType),
		"latest_message_sender": inbox.LatestMessageSender,
		"latest_message_at":     inbox.LatestMessageAt,
		"is_read":               inbox.IsRead,
	})
}

func (r *messageRepository) ListInboxes(ctx context.Context, connectionIDs []string) (map[string]*entity.MessagesInbox, error) {
	out := make(map[string]*entity.MessagesInbox)
	if len(connectionIDs) == 0 {
		return out, nil
	}
	var rows []*entity.MessagesInbox
	if err := r.store.List(ctx, entity.CollectionMessagesInbox, dao.NewQuery().In("_id", connectionIDs), &rows); err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.ID] = row
	}
	return out, nil
}
