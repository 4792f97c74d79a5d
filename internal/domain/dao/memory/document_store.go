// Package memory provides an in-process dao.DocumentStore with the same
// query semantics as the MongoDB store. Documents are held as decoded bson
// so reads and writes go through the same codecs as production.
package memory

import (
	"context"
	"fmt"
	"reflect"
	"sort"
	"sync"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/jrjohn/tandem-cloud-go/internal/domain/dao"
)

type collection struct {
	order []string
	docs  map[string]bson.M
}

// DocumentStore is a mutex-guarded map of collections.
type DocumentStore struct {
	mu          sync.RWMutex
	collections map[string]*collection
}

// NewDocumentStore creates an empty store.
func NewDocumentStore() *DocumentStore {
	return &DocumentStore{collections: make(map[string]*collection)}
}

var _ dao.DocumentStore = (*DocumentStore)(nil)

// Ping always succeeds.
func (s *DocumentStore) Ping(context.Context) error {
	return nil
}

func (s *DocumentStore) coll(name string) *collection {
	c, ok := s.collections[name]
	if !ok {
		c = &collection{docs: make(map[string]bson.M)}
		s.collections[name] = c
	}
	return c
}

// Get decodes the document with the given id.
func (s *DocumentStore) Get(ctx context.Context, name, id string, out any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, ok := s.coll(name).docs[id]
	if !ok {
		return dao.ErrNotFound
	}
	return decode(doc, out)
}

// List decodes matching documents into out, a pointer to a slice.
func (s *DocumentStore) List(ctx context.Context, name string, q *dao.Query, out any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	rv := reflect.ValueOf(out)
	if rv.Kind() != reflect.Ptr || rv.Elem().Kind() != reflect.Slice {
		return fmt.Errorf("list: out must be a pointer to a slice, got %T", out)
	}

	s.mu.RLock()
	matched := s.match(name, q)
	s.mu.RUnlock()

	sortDocs(matched, q)
	matched = paginate(matched, q)

	slice := rv.Elem()
	elemType := slice.Type().Elem()
	result := reflect.MakeSlice(slice.Type(), 0, len(matched))
	for _, doc := range matched {
		var target reflect.Value
		if elemType.Kind() == reflect.Ptr {
			target = reflect.New(elemType.Elem())
		} else {
			target = reflect.New(elemType)
		}
		if err := decode(doc, target.Interface()); err != nil {
			return err
		}
		if elemType.Kind() != reflect.Ptr {
			target = target.Elem()
		}
		result = reflect.Append(result, target)
	}
	slice.Set(result)
	return nil
}

// Count counts matching documents.
func (s *DocumentStore) Count(ctx context.Context, name string, q *dao.Query) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.match(name, q))), nil
}

// Create inserts doc; the _id must be a non-empty string not yet present.
func (s *DocumentStore) Create(ctx context.Context, name string, doc any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m, id, err := encode(doc)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.insert(name, id, m)
}

func (s *DocumentStore) insert(name, id string, m bson.M) error {
	c := s.coll(name)
	if _, exists := c.docs[id]; exists {
		return fmt.Errorf("duplicate _id %q in %s", id, name)
	}
	c.docs[id] = m
	c.order = append(c.order, id)
	return nil
}

// Update sets fields on one document.
func (s *DocumentStore) Update(ctx context.Context, name, id string, fields map[string]any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, ok := s.coll(name).docs[id]
	if !ok {
		return dao.ErrNotFound
	}
	apply(doc, fields)
	return nil
}

// UpdateWhere sets fields on every matching document.
func (s *DocumentStore) UpdateWhere(ctx context.Context, name string, q *dao.Query, fields map[string]any) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	matched := s.match(name, q)
	for _, doc := range matched {
		apply(doc, fields)
	}
	return int64(len(matched)), nil
}

// CreateIfAbsent inserts doc unless q matches an existing document.
func (s *DocumentStore) CreateIfAbsent(ctx context.Context, name string, q *dao.Query, doc any) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	m, id, err := encode(doc)
	if err != nil {
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.match(name, q)) > 0 {
		return false, nil
	}
	if err := s.insert(name, id, m); err != nil {
		return false, err
	}
	return true, nil
}

// Increment applies delta under the write lock.
func (s *DocumentStore) Increment(ctx context.Context, name, id string, delta dao.CounterDelta) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if delta.Field == "" {
		return false, fmt.Errorf("increment: field is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, ok := s.coll(name).docs[id]
	if !ok {
		return false, nil
	}
	raw, exists := doc[delta.Field]
	current, numeric := toFloat(raw)
	if exists && !numeric {
		return false, fmt.Errorf("increment: %s is not numeric", delta.Field)
	}
	if delta.By < 0 && (!exists || current < float64(-delta.By)) {
		return false, nil
	}
	if delta.Below > 0 && current >= float64(delta.Below) {
		return false, nil
	}
	doc[delta.Field] = int64(current) + int64(delta.By)
	return true, nil
}

// match returns the live documents matching q in insertion order. Callers
// must hold the lock.
func (s *DocumentStore) match(name string, q *dao.Query) []bson.M {
	if q.HasEmptyMembership() {
		return nil
	}
	c := s.coll(name)
	var conds []dao.Condition
	if q != nil {
		conds = normalizeConditions(q.Conditions)
	}

	out := make([]bson.M, 0)
	for _, id := range c.order {
		doc := c.docs[id]
		if matchesAll(doc, conds) {
			out = append(out, doc)
		}
	}
	return out
}

func sortDocs(docs []bson.M, q *dao.Query) {
	if q == nil || len(q.Sort) == 0 {
		return
	}
	sort.SliceStable(docs, func(i, j int) bool {
		for _, f := range q.Sort {
			c := compareValues(docs[i][f.Field], docs[j][f.Field])
			if c == 0 {
				continue
			}
			if f.Descending {
				return c > 0
			}
			return c < 0
		}
		return false
	})
}

func paginate(docs []bson.M, q *dao.Query) []bson.M {
	if q == nil {
		return docs
	}
	if q.Offset > 0 {
		if q.Offset >= len(docs) {
			return nil
		}
		docs = docs[q.Offset:]
	}
	if q.Limit > 0 && q.Limit < len(docs) {
		docs = docs[:q.Limit]
	}
	return docs
}

func apply(doc bson.M, fields map[string]any) {
	for k, v := range fields {
		doc[k] = normalize(v)
	}
}

func encode(doc any) (bson.M, string, error) {
	raw, err := bson.Marshal(doc)
	if err != nil {
		return nil, "", err
	}
	var m bson.M
	if err := bson.Unmarshal(raw, &m); err != nil {
		return nil, "", err
	}
	id, ok := m["_id"].(string)
	if !ok || id == "" {
		return nil, "", fmt.Errorf("document requires a string _id")
	}
	return m, id, nil
}

func decode(doc bson.M, out any) error {
	raw, err := bson.Marshal(doc)
	if err != nil {
		return err
	}
	return bson.Unmarshal(raw, out)
}
