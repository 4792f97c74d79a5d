package impl

import (
	"context"
	"fmt"
	"math/rand/v2"

	"go.uber.org/zap"

	"github.com/jrjohn/tandem-cloud-go/internal/config"
	"github.com/jrjohn/tandem-cloud-go/internal/domain/entity"
	"github.com/jrjohn/tandem-cloud-go/internal/domain/repository"
	"github.com/jrjohn/tandem-cloud-go/internal/domain/service"
	"github.com/jrjohn/tandem-cloud-go/internal/dto/response"
	"github.com/jrjohn/tandem-cloud-go/internal/observability"
	"github.com/jrjohn/tandem-cloud-go/internal/utils"
	"github.com/jrjohn/tandem-cloud-go/pkg/geo"
	"github.com/jrjohn/tandem-cloud-go/pkg/logger"
)

// maxRandomLimit caps the limit of a randomized batch.
const maxRandomLimit = 100

// discoveryService implements service.DiscoveryService
type discoveryService struct {
	profiles    repository.ProfileRepository
	hasShown    repository.HasShownRepository
	connections repository.ConnectionRepository
	cfg         config.DiscoveryConfig
	metrics     *observability.MetricsProvider
	logger      *zap.Logger
	shuffle     func(n int, swap func(i, j int))
}

// NewDiscoveryService creates a new DiscoveryService instance
func NewDiscoveryService(
	profiles repository.ProfileRepository,
	hasShown repository.HasShownRepository,
	connections repository.ConnectionRepository,
	cfg config.DiscoveryConfig,
	metrics *observability.MetricsProvider,
	log *zap.Logger,
) service.DiscoveryService {
	return &discoveryService{
		profiles:    profiles,
		hasShown:    hasShown,
		connections: connections,
		cfg:         cfg,
		metrics:     metrics,
		logger:      log.Named("discovery"),
		shuffle:     rand.Shuffle,
	}
}

func (s *discoveryService) NextBatch(ctx context.Context, userID string, page int) ([]response.Profile, error) {
	ctx, span := observability.StartSpan(ctx, "discovery.NextBatch",
		observability.AttrUserID.String(userID),
		observability.AttrVariant.String(service.VariantPreference),
	)
	profiles, err := s.nextBatch(ctx, userID, page)
	observability.EndSpan(span, err)
	if err == nil {
		s.metrics.RecordDiscoveryBatch(ctx, service.VariantPreference, len(profiles))
	}
	return profiles, err
}

func (s *discoveryService) nextBatch(ctx context.Context, userID string, page int) ([]response.Profile, error) {
	shown, err := s.shownSet(ctx, userID)
	if err != nil {
		return nil, err
	}

	pref, err := s.profiles.GetPreference(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load preference: %w", err)
	}
	if pref == nil {
		s.logger.Info("No preference set, returning empty batch", logger.UserField(userID))
		return []response.Profile{}, nil
	}

	origin, err := s.profiles.GetLocation(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load location: %w", err)
	}
	if origin == nil {
		return nil, service.ErrLocationNotFound
	}

	locations, err := s.profiles.ListLocationsExcept(ctx, userID, s.cfg.CandidateCap)
	if err != nil {
		return nil, fmt.Errorf("list locations: %w", err)
	}

	from := geo.Point{Latitude: origin.Latitude, Longitude: origin.Longitude}
	distances := make(map[string]float64, len(locations))
	candidates := make([]string, 0, len(locations))
	for _, loc := range locations {
		if loc.UserID == userID || shown[loc.UserID] {
			continue
		}
		if _, dup := distances[loc.UserID]; dup {
			continue
		}
		d := geo.DistanceKm(from, geo.Point{Latitude: loc.Latitude, Longitude: loc.Longitude})
		if pref.MaxDistanceKm != nil && d > *pref.MaxDistanceKm {
			continue
		}
		distances[loc.UserID] = d
		candidates = append(candidates, loc.UserID)
	}

	candidates, err = s.dropIncognito(ctx, candidates)
	if err != nil {
		return nil, err
	}

	if page < 0 {
		page = 0
	}
	bios, err := s.profiles.ListBiodataPage(ctx, candidates, page*s.cfg.PageSize, s.cfg.PageSize*s.cfg.Overfetch)
	if err != nil {
		return nil, fmt.Errorf("list biodata: %w", err)
	}

	accepted := make([]*entity.Biodata, 0, s.cfg.PageSize)
	for _, bio := range bios {
		if len(accepted) >= s.cfg.PageSize {
			break
		}
		if matchesPreference(bio, pref) {
			accepted = append(accepted, bio)
		}
	}

	profiles, err := s.enrich(ctx, accepted, distances)
	if err != nil {
		return nil, err
	}
	if err := s.markShown(ctx, userID, profiles); err != nil {
		return nil, err
	}
	return profiles, nil
}

// matchesPreference applies the age, gender and hobby filters.
func matchesPreference(bio *entity.Biodata, pref *entity.Preference) bool {
	if pref.MinAge > 0 && bio.Age < pref.MinAge {
		return false
	}
	if pref.MaxAge > 0 && bio.Age > pref.MaxAge {
		return false
	}
	if !anyGender(pref.PreferredGender) && !utils.EqualFoldAny(bio.Gender, pref.PreferredGender) {
		return false
	}
	if len(pref.PreferredHobbies) > 0 && !utils.Intersects(pref.PreferredHobbies, bio.Hobbies) {
		return false
	}
	return true
}

func anyGender(g string) bool {
	return g == "" || utils.EqualFoldAny(g, "any", "everyone", "all")
}

func (s *discoveryService) RandomBatch(ctx context.Context, userID string, limit int) ([]response.Profile, error) {
	ctx, span := observability.StartSpan(ctx, "discovery.RandomBatch",
		observability.AttrUserID.String(userID),
		observability.AttrVariant.String(service.VariantRandom),
	)
	profiles, err := s.randomBatch(ctx, userID, limit)
	observability.EndSpan(span, err)
	if err == nil {
		s.metrics.RecordDiscoveryBatch(ctx, service.VariantRandom, len(profiles))
	}
	return profiles, err
}

func (s *discoveryService) randomBatch(ctx context.Context, userID string, limit int) ([]response.Profile, error) {
	switch {
	case limit <= 0:
		limit = s.cfg.RandomLimit
	case limit > maxRandomLimit:
		limit = maxRandomLimit
	}

	self, err := s.profiles.GetBiodata(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load biodata: %w", err)
	}
	if self == nil {
		s.logger.Info("No biodata, returning empty batch", logger.UserField(userID))
		return []response.Profile{}, nil
	}

	bios, err := s.profiles.ListBiodataExcludingGender(ctx, userID, self.Gender, s.cfg.CandidateCap)
	if err != nil {
		return nil, fmt.Errorf("list biodata: %w", err)
	}

	shown, err := s.shownSet(ctx, userID)
	if err != nil {
		return nil, err
	}
	counterparts, err := s.connections.ListCounterpartIDs(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list connections: %w", err)
	}
	connected := make(map[string]bool, len(counterparts))
	for _, id := range counterparts {
		connected[id] = true
	}

	byUser := make(map[string]*entity.Biodata, len(bios))
	ids := make([]string, 0, len(bios))
	for _, bio := range bios {
		if bio.UserID == userID || shown[bio.UserID] || connected[bio.UserID] {
			continue
		}
		// The store filter is exact; stored genders may differ in case.
		if utils.EqualFoldAny(bio.Gender, self.Gender) {
			continue
		}
		if _, dup := byUser[bio.UserID]; dup {
			continue
		}
		byUser[bio.UserID] = bio
		ids = append(ids, bio.UserID)
	}

	completed, err := s.profiles.ListCompleted(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("list completion: %w", err)
	}
	kept := ids[:0]
	for _, id := range ids {
		if completed[id] {
			kept = append(kept, id)
		}
	}

	kept, err = s.dropIncognito(ctx, kept)
	if err != nil {
		return nil, err
	}

	s.shuffle(len(kept), func(i, j int) { kept[i], kept[j] = kept[j], kept[i] })
	if len(kept) > limit {
		kept = kept[:limit]
	}

	picked := make([]*entity.Biodata, len(kept))
	for i, id := range kept {
		picked[i] = byUser[id]
	}

	profiles, err := s.enrich(ctx, picked, nil)
	if err != nil {
		return nil, err
	}
	if err := s.markShown(ctx, userID, profiles); err != nil {
		return nil, err
	}
	return profiles, nil
}

func (s *discoveryService) shownSet(ctx context.Context, userID string) (map[string]bool, error) {
	ids, err := s.hasShown.ListShownIDs(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list shown: %w", err)
	}
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set, nil
}

func (s *discoveryService) dropIncognito(ctx context.Context, ids []string) ([]string, error) {
	incognito, err := s.profiles.ListIncognito(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("list settings: %w", err)
	}
	if len(incognito) == 0 {
		return ids, nil
	}
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if !incognito[id] {
			out = append(out, id)
		}
	}
	return out, nil
}

// enrich joins images, labels, settings and prompts onto bios in bulk.
// distances may be nil.
func (s *discoveryService) enrich(ctx context.Context, bios []*entity.Biodata, distances map[string]float64) ([]response.Profile, error) {
	if len(bios) == 0 {
		return []response.Profile{}, nil
	}

	ids := make([]string, len(bios))
	var hobbyIDs, languageIDs []string
	for i, bio := range bios {
		ids[i] = bio.UserID
		hobbyIDs = append(hobbyIDs, bio.Hobbies...)
		languageIDs = append(languageIDs, bio.Languages...)
	}

	images, err := s.profiles.ListImages(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("list images: %w", err)
	}
	settings, err := s.profiles.ListSettings(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("list settings: %w", err)
	}
	prompts, err := s.profiles.ListPrompts(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("list prompts: %w", err)
	}
	hobbies, err := s.profiles.HobbyLabels(ctx, uniqueStrings(hobbyIDs))
	if err != nil {
		return nil, fmt.Errorf("resolve hobbies: %w", err)
	}
	languages, err := s.profiles.LanguageLabels(ctx, uniqueStrings(languageIDs))
	if err != nil {
		return nil, fmt.Errorf("resolve languages: %w", err)
	}

	out := make([]response.Profile, 0, len(bios))
	for _, bio := range bios {
		p := response.Profile{
			UserID:    bio.UserID,
			Age:       bio.Age,
			Gender:    bio.Gender,
			Bio:       bio.Bio,
			Images:    []string{},
			Hobbies:   labels(bio.Hobbies, hobbies),
			Languages: labels(bio.Languages, languages),
			Prompts:   s.promptSlate(prompts[bio.UserID]),
		}
		p.Name, p.IsNameHidden = displayName(bio.Name, settings[bio.UserID])
		if img := images[bio.UserID]; img != nil {
			p.Images = img.URLs()
			p.PrimaryImage = img.Image1
		}
		if d, ok := distances[bio.UserID]; ok {
			p.DistanceKm = &d
		}
		out = append(out, p)
	}
	return out, nil
}

func (s *discoveryService) promptSlate(prompt *entity.Prompt) []*string {
	slate := make([]*string, s.cfg.PromptSlots)
	if prompt != nil {
		copy(slate, prompt.Answers)
	}
	return slate
}

func labels(ids []string, resolved map[string]string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if label, ok := resolved[id]; ok {
			out = append(out, label)
		}
	}
	return out
}

func (s *discoveryService) markShown(ctx context.Context, userID string, profiles []response.Profile) error {
	for _, p := range profiles {
		if _, err := s.hasShown.MarkShown(ctx, userID, p.UserID); err != nil {
			return fmt.Errorf("mark shown: %w", err)
		}
	}
	return nil
}
