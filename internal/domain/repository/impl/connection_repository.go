package impl

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/jrjohn/tandem-cloud-go/internal/domain/dao"
	"github.com/jrjohn/tandem-cloud-go/internal/domain/entity"
	"github.com/jrjohn/tandem-cloud-go/internal/domain/repository"
)

var openStatuses = []string{string(entity.StatusPending), string(entity.StatusChatActive)}

// connectionRepository implements repository.ConnectionRepository.
type connectionRepository struct {
	store dao.DocumentStore
}

// NewConnectionRepository creates a new ConnectionRepository instance.
func NewConnectionRepository(store dao.DocumentStore) repository.ConnectionRepository {
	return &connectionRepository{store: store}
}

func (r *connectionRepository) Create(ctx context.Context, conn *entity.Connection) error {
	if conn.ID == "" {
		conn.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if conn.CreatedAt.IsZero() {
		conn.CreatedAt = now
	}
	conn.UpdatedAt = now
	if conn.DateProposalStatus == "" {
		conn.DateProposalStatus = entity.ProposalNone
	}
	return r.store.Create(ctx, entity.CollectionConnections, conn)
}

func (r *connectionRepository) GetByID(ctx context.Context, id string) (*entity.Connection, error) {
	var conn entity.Connection
	if err := r.store.Get(ctx, entity.CollectionConnections, id, &conn); err != nil {
		if errors.Is(err, dao.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &conn, nil
}

func (r *connectionRepository) CompareAndSet(ctx context.Context, id string, expect, fields map[string]any) (bool, error) {
	q := dao.NewQuery().Eq("_id", id)
	for field, value := range expect {
		q.Eq(field, value)
	}
	set := make(map[string]any, len(fields)+1)
	for k, v := range fields {
		set[k] = v
	}
	set["updated_at"] = time.Now().UTC()

	matched, err := r.store.UpdateWhere(ctx, entity.CollectionConnections, q, set)
	if err != nil {
		return false, err
	}
	return matched > 0, nil
}

func (r *connectionRepository) list(ctx context.Context, q *dao.Query) ([]*entity.Connection, error) {
	var out []*entity.Connection
	if err := r.store.List(ctx, entity.CollectionConnections, q, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *connectionRepository) ListSent(ctx context.Context, userID string, status entity.ConnectionStatus) ([]*entity.Connection, error) {
	return r.list(ctx, dao.NewQuery().
		Eq("sender_id", userID).
		Eq(entity.FieldStatus, string(status)).
		OrderBy("created_at", true))
}

func (r *connectionRepository) ListReceived(ctx context.Context, userID string, status entity.ConnectionStatus, visibleOnly bool) ([]*entity.Connection, error) {
	q := dao.NewQuery().
		Eq("receiver_id", userID).
		Eq(entity.FieldStatus, string(status)).
		OrderBy("created_at", true)
	if visibleOnly {
		q.Eq("visible_to_receiver", true)
	}
	return r.list(ctx, q)
}

func (r *connectionRepository) ListChats(ctx context.Context, userID string) ([]*entity.Connection, error) {
	sent, err := r.ListSent(ctx, userID, entity.StatusChatActive)
	if err != nil {
		return nil, err
	}
	received, err := r.ListReceived(ctx, userID, entity.StatusChatActive, false)
	if err != nil {
		return nil, err
	}
	return append(sent, received...), nil
}

func (r *connectionRepository) ListCounterpartIDs(ctx context.Context, userID string) ([]string, error) {
	sent, err := r.list(ctx, dao.NewQuery().Eq("sender_id", userID))
	if err != nil {
		return nil, err
	}
	received, err := r.list(ctx, dao.NewQuery().Eq("receiver_id", userID))
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(sent)+len(received))
	ids := make([]string, 0, len(sent)+len(received))
	for _, c := range append(sent, received...) {
		other := c.PartnerOf(userID)
		if other != "" && !seen[other] {
			seen[other] = true
			ids = append(ids, other)
		}
	}
	return ids, nil
}

func (r *connectionRepository) FindOpenBetween(ctx context.Context, a, b string) (*entity.Connection, error) {
	for _, pair := range [][2]string{{a, b}, {b, a}} {
		rows, err := r.list(ctx, dao.NewQuery().
			Eq("sender_id", pair[0]).
			Eq("receiver_id", pair[1]).
			In(entity.FieldStatus, openStatuses).
			WithLimit(1))
		if err != nil {
			return nil, err
		}
		if len(rows) > 0 {
			return rows[0], nil
		}
	}
	return nil, nil
}

func (r *connectionRepository) ReserveMessage(ctx context.Context, id string, limit int) (bool, error) {
	return r.store.Increment(ctx, entity.CollectionConnections, id, dao.CounterDelta{
		Field: entity.FieldMessageCount,
		By:    1,
		Below: limit,
	})
}

func (r *connectionRepository) ReleaseMessage(ctx context.Context, id string) error {
	_, err := r.store.Increment(ctx, entity.CollectionConnections, id, dao.CounterDelta{
		Field: entity.FieldMessageCount,
		By:    -1,
	})
	return err
}

func (r *connectionRepository) CountFor(ctx context.Context, userID string) (entity.Counters, error) {
	var c entity.Counters
	counts := []struct {
		q   *dao.Query
		dst *int
	}{
		{dao.NewQuery().Eq("sender_id", userID).Eq(entity.FieldStatus, string(entity.StatusPending)), &c.Sent},
		{dao.NewQuery().Eq("receiver_id", userID).Eq(entity.FieldStatus, string(entity.StatusPending)).Eq("visible_to_receiver", true), &c.Received},
	}
	for _, item := range counts {
		n, err := r.store.Count(ctx, entity.CollectionConnections, item.q)
		if err != nil {
			return c, err
		}
		*item.dst = int(n)
	}
	chats, err := r.ListChats(ctx, userID)
	if err != nil {
		return c, err
	}
	c.Chats = len(chats)
	return c, nil
}
