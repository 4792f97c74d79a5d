package impl

import (
	"context"
	"net/http"

	"github.com/jrjohn/tandem-cloud-go/internal/domain/entity"
	"github.com/jrjohn/tandem-cloud-go/internal/domain/repository"
	"github.com/jrjohn/tandem-cloud-go/internal/dto/response"
	"github.com/jrjohn/tandem-cloud-go/internal/observability"
	"github.com/jrjohn/tandem-cloud-go/internal/security"
	"github.com/jrjohn/tandem-cloud-go/internal/utils"
	apperrors "github.com/jrjohn/tandem-cloud-go/pkg/errors"
)

// fallbackName is used in notifications and system messages when neither
// the token nor the biodata carry a name.
const fallbackName = "Someone"

// displayName applies the hide-name setting.
func displayName(name string, settings *entity.Settings) (string, bool) {
	if settings != nil && settings.IsHideName {
		return utils.MaskName(name), true
	}
	return name, false
}

// summaries builds counterpart summaries for userIDs with three bulk reads.
func summaries(ctx context.Context, profiles repository.ProfileRepository, userIDs []string) (map[string]response.UserSummary, error) {
	bios, err := profiles.ListBiodata(ctx, userIDs)
	if err != nil {
		return nil, err
	}
	settings, err := profiles.ListSettings(ctx, userIDs)
	if err != nil {
		return nil, err
	}
	images, err := profiles.ListImages(ctx, userIDs)
	if err != nil {
		return nil, err
	}

	out := make(map[string]response.UserSummary, len(userIDs))
	for _, id := range userIDs {
		summary := response.UserSummary{UserID: id}
		if bio := bios[id]; bio != nil {
			summary.Name, summary.IsNameHidden = displayName(bio.Name, settings[id])
			summary.Age = bio.Age
		}
		if img := images[id]; img != nil {
			summary.PrimaryImage = img.Image1
		}
		out[id] = summary
	}
	return out, nil
}

// actorName resolves the name shown to the partner of caller.
func actorName(ctx context.Context, profiles repository.ProfileRepository, caller security.Identity) string {
	if caller.Name != "" {
		return caller.Name
	}
	bio, err := profiles.GetBiodata(ctx, caller.ID)
	if err == nil && bio != nil && bio.Name != "" {
		return bio.Name
	}
	return fallbackName
}

func uniqueStrings(groups ...[]string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, group := range groups {
		for _, v := range group {
			if _, ok := seen[v]; ok {
				continue
			}
			seen[v] = struct{}{}
			out = append(out, v)
		}
	}
	return out
}

// eventOutcome labels a domain event: business rule failures are rejected,
// everything else is an error.
func eventOutcome(err error) string {
	switch {
	case err == nil:
		return observability.OutcomeOK
	case apperrors.GetStatus(err) < http.StatusInternalServerError:
		return observability.OutcomeRejected
	default:
		return observability.OutcomeError
	}
}
