package observability

import (
	"context"
	"errors"
	"time"

	"github.com/jrjohn/tandem-cloud-go/internal/domain/dao"
)

// InstrumentedStore wraps a DocumentStore with per-operation metrics.
// A missing document is not counted as a failure.
type InstrumentedStore struct {
	next    dao.DocumentStore
	metrics *MetricsProvider
}

var _ dao.DocumentStore = (*InstrumentedStore)(nil)

// InstrumentStore returns next wrapped with metrics. With a nil provider it
// returns next unchanged.
func InstrumentStore(next dao.DocumentStore, metrics *MetricsProvider) dao.DocumentStore {
	if !metrics.enabled() {
		return next
	}
	return &InstrumentedStore{next: next, metrics: metrics}
}

func (s *InstrumentedStore) observe(ctx context.Context, op, collection string, start time.Time, err error) {
	ok := err == nil || errors.Is(err, dao.ErrNotFound)
	s.metrics.RecordStoreOperation(ctx, op, collection, ok, time.Since(start))
}

func (s *InstrumentedStore) Get(ctx context.Context, collection, id string, out any) error {
	start := time.Now()
	err := s.next.Get(ctx, collection, id, out)
	s.observe(ctx, "get", collection, start, err)
	return err
}

func (s *InstrumentedStore) List(ctx context.Context, collection string, q *dao.Query, out any) error {
	start := time.Now()
	err := s.next.List(ctx, collection, q, out)
	s.observe(ctx, "list", collection, start, err)
	return err
}

func (s *InstrumentedStore) Count(ctx context.Context, collection string, q *dao.Query) (int64, error) {
	start := time.Now()
	n, err := s.next.Count(ctx, collection, q)
	s.observe(ctx, "count", collection, start, err)
	return n, err
}

func (s *InstrumentedStore) Create(ctx context.Context, collection string, doc any) error {
	start := time.Now()
	err := s.next.Create(ctx, collection, doc)
	s.observe(ctx, "create", collection, start, err)
	return err
}

func (s *InstrumentedStore) Update(ctx context.Context, collection, id string, fields map[string]any) error {
	start := time.Now()
	err := s.next.Update(ctx, collection, id, fields)
	s.observe(ctx, "update", collection, start, err)
	return err
}

func (s *InstrumentedStore) UpdateWhere(ctx context.Context, collection string, q *dao.Query, fields map[string]any) (int64, error) {
	start := time.Now()
	n, err := s.next.UpdateWhere(ctx, collection, q, fields)
	s.observe(ctx, "update_where", collection, start, err)
	return n, err
}

func (s *InstrumentedStore) CreateIfAbsent(ctx context.Context, collection string, q *dao.Query, doc any) (bool, error) {
	start := time.Now()
	created, err := s.next.CreateIfAbsent(ctx, collection, q, doc)
	s.observe(ctx, "create_if_absent", collection, start, err)
	return created, err
}

func (s *InstrumentedStore) Increment(ctx context.Context, collection, id string, delta dao.CounterDelta) (bool, error) {
	start := time.Now()
	applied, err := s.next.Increment(ctx, collection, id, delta)
	s.observe(ctx, "increment", collection, start, err)
	return applied, err
}

// Ping forwards to the wrapped store when it supports health checks.
func (s *InstrumentedStore) Ping(ctx context.Context) error {
	if p, ok := s.next.(dao.Pinger); ok {
		return p.Ping(ctx)
	}
	return nil
}
