package impl

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/jrjohn/tandem-cloud-go/internal/domain/dao"
	"github.com/jrjohn/tandem-cloud-go/internal/domain/entity"
	"github.com/jrjohn/tandem-cloud-go/internal/domain/repository"
)

// hasShownRepository implements repository.HasShownRepository.
type hasShownRepository struct {
	store dao.DocumentStore
}

// NewHasShownRepository creates a new HasShownRepository instance.
func NewHasShownRepository(store dao.DocumentStore) repository.HasShownRepository {
	return &hasShownRepository{store: store}
}

func pairQuery(userID, whoID string) *dao.Query {
	return dao.NewQuery().Eq("user", userID).Eq("who", whoID)
}

func (r *hasShownRepository) ListShownIDs(ctx context.Context, userID string) ([]string, error) {
	var rows []entity.HasShown
	if err := r.store.List(ctx, entity.CollectionHasShown, dao.NewQuery().Eq("user", userID), &rows); err != nil {
		return nil, err
	}
	ids := make([]string, len(rows))
	for i, row := range rows {
		ids[i] = row.WhoID
	}
	return ids, nil
}

func (r *hasShownRepository) MarkShown(ctx context.Context, userID, whoID string) (bool, error) {
	return r.store.CreateIfAbsent(ctx, entity.CollectionHasShown, pairQuery(userID, whoID), &entity.HasShown{
		ID:        uuid.NewString(),
		UserID:    userID,
		WhoID:     whoID,
		CreatedAt: time.Now().UTC(),
	})
}

func (r *hasShownRepository) MarkInterested(ctx context.Context, userID, whoID string) error {
	created, err := r.store.CreateIfAbsent(ctx, entity.CollectionHasShown, pairQuery(userID, whoID), &entity.HasShown{
		ID:           uuid.NewString(),
		UserID:       userID,
		WhoID:        whoID,
		IsInterested: true,
		CreatedAt:    time.Now().UTC(),
	})
	if err != nil || created {
		return err
	}
	return r.SetFlags(ctx, userID, whoID, false, true)
}

func (r *hasShownRepository) SetFlags(ctx context.Context, userID, whoID string, isIgnore, isInterested bool) error {
	_, err := r.store.UpdateWhere(ctx, entity.CollectionHasShown, pairQuery(userID, whoID), map[string]any{
		"is_ignore":     isIgnore,
		"is_interested": isInterested,
	})
	return err
}
