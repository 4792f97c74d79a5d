package repository

import (
	"context"

	"github.com/jrjohn/tandem-cloud-go/internal/domain/entity"
)

// ProfileRepository reads the per-user profile collections. Bulk methods
// return maps keyed by user id and skip the store for empty id sets.
type ProfileRepository interface {
	GetBiodata(ctx context.Context, userID string) (*entity.Biodata, error)
	GetLocation(ctx context.Context, userID string) (*entity.Location, error)
	GetPreference(ctx context.Context, userID string) (*entity.Preference, error)

	// ListLocationsExcept returns up to limit locations of users other than userID.
	ListLocationsExcept(ctx context.Context, userID string, limit int) ([]*entity.Location, error)

	// ListBiodataPage returns biodata for userIDs ordered by user, paginated.
	ListBiodataPage(ctx context.Context, userIDs []string, offset, limit int) ([]*entity.Biodata, error)

	// ListBiodataExcludingGender returns up to limit biodata of users other
	// than userID whose gender differs from gender.
	ListBiodataExcludingGender(ctx context.Context, userID, gender string, limit int) ([]*entity.Biodata, error)

	ListBiodata(ctx context.Context, userIDs []string) (map[string]*entity.Biodata, error)
	ListLocations(ctx context.Context, userIDs []string) (map[string]*entity.Location, error)
	ListImages(ctx context.Context, userIDs []string) (map[string]*entity.Image, error)
	ListSettings(ctx context.Context, userIDs []string) (map[string]*entity.Settings, error)
	ListPrompts(ctx context.Context, userIDs []string) (map[string]*entity.Prompt, error)

	// ListIncognito returns the subset of userIDs with incognito enabled.
	ListIncognito(ctx context.Context, userIDs []string) (map[string]bool, error)

	// ListCompleted returns the subset of userIDs whose onboarding is complete.
	ListCompleted(ctx context.Context, userIDs []string) (map[string]bool, error)

	// HobbyLabels and LanguageLabels resolve reference ids to labels.
	HobbyLabels(ctx context.Context, ids []string) (map[string]string, error)
	LanguageLabels(ctx context.Context, ids []string) (map[string]string, error)
}
