package repository

import (
	"context"
)

// HasShownRepository tracks which profiles each user has been shown
type HasShownRepository interface {
	// ListShownIDs returns every who id shown to userID.
	ListShownIDs(ctx context.Context, userID string) ([]string, error)

	// MarkShown records (userID, whoID) with both flags false unless a row
	// already exists. Reports whether a row was created.
	MarkShown(ctx context.Context, userID, whoID string) (bool, error)

	// MarkInterested ensures a (userID, whoID) row exists with
	// is_interested=true and is_ignore=false.
	MarkInterested(ctx context.Context, userID, whoID string) error

	// SetFlags updates the flags on an existing (userID, whoID) row, if any.
	SetFlags(ctx context.Context, userID, whoID string, isIgnore, isInterested bool) error
}
