// Package dao defines the document store abstraction used by every
// repository. Implementations live in the mongo and memory subpackages.
package dao

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get when no document has the requested id.
var ErrNotFound = errors.New("document not found")

// CounterDelta describes an atomic change to a numeric field.
//
// A negative By only applies while the stored value is at least -By, so a
// counter never drops below zero. A positive Below makes the increment
// conditional on the stored value being strictly less than Below.
type CounterDelta struct {
	Field string
	By    int
	Below int
}

// DocumentStore is a collection-oriented document database.
type DocumentStore interface {
	// Get decodes the document with the given id into out.
	// Returns ErrNotFound if it does not exist.
	Get(ctx context.Context, collection, id string, out any) error

	// List decodes every document matching q into out, a pointer to a slice.
	List(ctx context.Context, collection string, q *Query, out any) error

	// Count returns the number of documents matching q.
	Count(ctx context.Context, collection string, q *Query) (int64, error)

	// Create inserts doc. The document must carry its own _id.
	Create(ctx context.Context, collection string, doc any) error

	// Update sets fields on the document with the given id.
	// Returns ErrNotFound if it does not exist.
	Update(ctx context.Context, collection, id string, fields map[string]any) error

	// UpdateWhere sets fields on every document matching q and returns how
	// many matched. Used as a compare-and-set when q pins the current state.
	UpdateWhere(ctx context.Context, collection string, q *Query, fields map[string]any) (int64, error)

	// CreateIfAbsent inserts doc unless a document matching q exists.
	// Returns true when doc was inserted.
	CreateIfAbsent(ctx context.Context, collection string, q *Query, doc any) (bool, error)

	// Increment applies delta atomically and reports whether it applied.
	Increment(ctx context.Context, collection, id string, delta CounterDelta) (bool, error)
}

// Pinger is implemented by stores that can report their health.
type Pinger interface {
	Ping(ctx context.Context) error
}
