package service

import (
	"context"

	"github.com/jrjohn/tandem-cloud-go/internal/dto/response"
)

// Discovery batch variants, used as metric and span labels.
const (
	VariantPreference = "preference"
	VariantRandom     = "random"
)

// DiscoveryService produces batches of candidate profiles. Every profile it
// returns is recorded as shown to the requester.
type DiscoveryService interface {
	// NextBatch returns the preference-filtered page. A requester without a
	// preference gets an empty batch; one without a location gets
	// ErrLocationNotFound.
	NextBatch(ctx context.Context, userID string, page int) ([]response.Profile, error)

	// RandomBatch returns up to limit shuffled, unfiltered candidates of a
	// different gender. A requester without biodata gets an empty batch.
	RandomBatch(ctx context.Context, userID string, limit int) ([]response.Profile, error)
}
