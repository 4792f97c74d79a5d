package impl

import (
	"context"

	"github.com/jrjohn/tandem-cloud-go/internal/domain/dao"
	"github.com/jrjohn/tandem-cloud-go/internal/domain/entity"
	"github.com/jrjohn/tandem-cloud-go/internal/domain/repository"
)

// profileRepository implements repository.ProfileRepository.
type profileRepository struct {
	store dao.DocumentStore
}

// NewProfileRepository creates a new ProfileRepository instance.
func NewProfileRepository(store dao.DocumentStore) repository.ProfileRepository {
	return &profileRepository{store: store}
}

// findByUser loads the single document of collection owned by userID, or nil.
func findByUser[T any](ctx context.Context, store dao.DocumentStore, collection, userID string) (*T, error) {
	var rows []*T
	q := dao.NewQuery().Eq("user", userID).WithLimit(1)
	if err := store.List(ctx, collection, q, &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

func (r *profileRepository) GetBiodata(ctx context.Context, userID string) (*entity.Biodata, error) {
	return findByUser[entity.Biodata](ctx, r.store, entity.CollectionBiodata, userID)
}

func (r *profileRepository) GetLocation(ctx context.Context, userID string) (*entity.Location, error) {
	return findByUser[entity.Location](ctx, r.store, entity.CollectionLocations, userID)
}

func (r *profileRepository) GetPreference(ctx context.Context, userID string) (*entity.Preference, error) {
	return findByUser[entity.Preference](ctx, r.store, entity.CollectionPreferences, userID)
}

func (r *profileRepository) ListLocationsExcept(ctx context.Context, userID string, limit int) ([]*entity.Location, error) {
	var out []*entity.Location
	q := dao.NewQuery().Ne("user", userID).WithLimit(limit)
	if err := r.store.List(ctx, entity.CollectionLocations, q, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *profileRepository) ListBiodataPage(ctx context.Context, userIDs []string, offset, limit int) ([]*entity.Biodata, error) {
	if len(userIDs) == 0 {
		return nil, nil
	}
	var out []*entity.Biodata
	q := dao.NewQuery().In("user", userIDs).OrderBy("user", false).WithOffset(offset).WithLimit(limit)
	if err := r.store.List(ctx, entity.CollectionBiodata, q, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *profileRepository) ListBiodataExcludingGender(ctx context.Context, userID, gender string, limit int) ([]*entity.Biodata, error) {
	var out []*entity.Biodata
	q := dao.NewQuery().Ne("user", userID).Ne("gender", gender).WithLimit(limit)
	if err := r.store.List(ctx, entity.CollectionBiodata, q, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *profileRepository) ListBiodata(ctx context.Context, userIDs []string) (map[string]*entity.Biodata, error) {
	var rows []*entity.Biodata
	if err := r.listByUsers(ctx, entity.CollectionBiodata, userIDs, &rows); err != nil {
		return nil, err
	}
	out := make(map[string]*entity.Biodata, len(rows))
	for _, b := range rows {
		out[b.UserID] = b
	}
	return out, nil
}

func (r *profileRepository) ListLocations(ctx context.Context, userIDs []string) (map[string]*entity.Location, error) {
	var rows []*entity.Location
	if err := r.listByUsers(ctx, entity.CollectionLocations, userIDs, &rows); err != nil {
		return nil, err
	}
	out := make(map[string]*entity.Location, len(rows))
	for _, l := range rows {
		out[l.UserID] = l
	}
	return out, nil
}

func (r *profileRepository) ListImages(ctx context.Context, userIDs []string) (map[string]*entity.Image, error) {
	var rows []*entity.Image
	if err := r.listByUsers(ctx, entity.CollectionImages, userIDs, &rows); err != nil {
		return nil, err
	}
	out := make(map[string]*entity.Image, len(rows))
	for _, img := range rows {
		out[img.UserID] = img
	}
	return out, nil
}

func (r *profileRepository) ListSettings(ctx context.Context, userIDs []string) (map[string]*entity.Settings, error) {
	var rows []*entity.Settings
	if err := r.listByUsers(ctx, entity.CollectionSettings, userIDs, &rows); err != nil {
		return nil, err
	}
	out := make(map[string]*entity.Settings, len(rows))
	for _, s := range rows {
		out[s.UserID] = s
	}
	return out, nil
}

func (r *profileRepository) ListPrompts(ctx context.Context, userIDs []string) (map[string]*entity.Prompt, error) {
	var rows []*entity.Prompt
	if err := r.listByUsers(ctx, entity.CollectionPrompts, userIDs, &rows); err != nil {
		return nil, err
	}
	out := make(map[string]*entity.Prompt, len(rows))
	for _, p := range rows {
		out[p.UserID] = p
	}
	return out, nil
}

func (r *profileRepository) ListIncognito(ctx context.Context, userIDs []string) (map[string]bool, error) {
	out := make(map[string]bool)
	if len(userIDs) == 0 {
		return out, nil
	}
	var rows []*entity.Settings
	q := dao.NewQuery().In("user", userIDs).Eq("is_incognito", true)
	if err := r.store.List(ctx, entity.CollectionSettings, q, &rows); err != nil {
		return nil, err
	}
	for _, s := range rows {
		out[s.UserID] = true
	}
	return out, nil
}

func (r *profileRepository) ListCompleted(ctx context.Context, userIDs []string) (map[string]bool, error) {
	out := make(map[string]bool)
	if len(userIDs) == 0 {
		return out, nil
	}
	var rows []*entity.CompletionStatus
	q := dao.NewQuery().In("user", userIDs).Eq("is_all_completed", true)
	if err := r.store.List(ctx, entity.CollectionCompletionStatus, q, &rows); err != nil {
		return nil, err
	}
	for _, c := range rows {
		out[c.UserID] = true
	}
	return out, nil
}

func (r *profileRepository) HobbyLabels(ctx context.Context, ids []string) (map[string]string, error) {
	var rows []*entity.Hobby
	if err := r.listByIDs(ctx, entity.CollectionHobbies, ids, &rows); err != nil {
		return nil, err
	}
	out := make(map[string]string, len(rows))
	for _, h := range rows {
		out[h.ID] = h.Label
	}
	return out, nil
}

func (r *profileRepository) LanguageLabels(ctx context.Context, ids []string) (map[string]string, error) {
	var rows []*entity.Language
	if err := r.listByIDs(ctx, entity.CollectionLanguages, ids, &rows); err != nil {
		return nil, err
	}
	out := make(map[string]string, len(rows))
	for _, l := range rows {
		out[l.ID] = l.Label
	}
	return out, nil
}

func (r *profileRepository) listByUsers(ctx context.Context, collection string, userIDs []string, out any) error {
	if len(userIDs) == 0 {
		return nil
	}
	return r.store.List(ctx, collection, dao.NewQuery().In("user", userIDs), out)
}

func (r *profileRepository) listByIDs(ctx context.Context, collection string, ids []string, out any) error {
	if len(ids) == 0 {
		return nil
	}
	return r.store.List(ctx, collection, dao.NewQuery().In("_id", ids), out)
}
