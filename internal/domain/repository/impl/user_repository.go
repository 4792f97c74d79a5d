// Package impl provides repository implementations over dao.DocumentStore.
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

// userRepository implements repository.UserRepository.
type userRepository struct {
	store dao.DocumentStore
}

// NewUserRepository creates a new UserRepository instance.
func NewUserRepository(store dao.DocumentStore) repository.UserRepository {
	return &userRepository{store: store}
}

func (r *userRepository) Create(ctx context.Context, user *entity.User) error {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now
	return r.store.Create(ctx, entity.CollectionUsers, user)
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*entity.User, error) {
	var user entity.User
	if err := r.store.Get(ctx, entity.CollectionUsers, id, &user); err != nil {
		if errors.Is(err, dao.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) ReserveCounter(ctx context.Context, id, field string, limit int) (bool, error) {
	return r.store.Increment(ctx, entity.CollectionUsers, id, dao.CounterDelta{Field: field, By: 1, Below: limit})
}

func (r *userRepository) IncrementCounter(ctx context.Context, id, field string) error {
	_, err := r.store.Increment(ctx, entity.CollectionUsers, id, dao.CounterDelta{Field: field, By: 1})
	return err
}

func (r *userRepository) DecrementCounter(ctx context.Context, id, field string) (bool, error) {
	return r.store.Increment(ctx, entity.CollectionUsers, id, dao.CounterDelta{Field: field, By: -1})
}

func (r *userRepository) SetCounters(ctx context.Context, id string, c entity.Counters) error {
	return r.store.Update(ctx, entity.CollectionUsers, id, map[string]any{
		entity.FieldActiveSentInvitations:     c.Sent,
		entity.FieldActiveReceivedInvitations: c.Received,
		entity.FieldActiveChats:               c.Chats,
		"updated_at":                          time.Now().UTC(),
	})
}

func (r *userRepository) ListIDsAfter(ctx context.Context, afterID string, limit int) ([]string, error) {
	q := dao.NewQuery().OrderBy("_id", false).WithLimit(limit)
	if afterID != "" {
		q.Where("_id", dao.OpGt, afterID)
	}
	var users []entity.User
	if err := r.store.List(ctx, entity.CollectionUsers, q, &users); err != nil {
		return nil, err
	}
	ids := make([]string, len(users))
	for i, u := range users {
		ids[i] = u.ID
	}
	return ids, nil
}
