package service

import (
	"context"
)

// ReconcileReport summarizes a reconciliation pass
type ReconcileReport struct {
	Scanned   int `json:"scanned"`
	Corrected int `json:"corrected"`
}

// ReconcileService repairs drift between the stored quota counters and the
// connections they count.
type ReconcileService interface {
	// ReconcileUser recounts one user and reports whether anything changed.
	ReconcileUser(ctx context.Context, userID string) (bool, error)

	// ReconcileAll walks every user in id order.
	ReconcileAll(ctx context.Context) (*ReconcileReport, error)
}
