// Package mongo provides the MongoDB implementation of dao.DocumentStore.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"reflect"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/jrjohn/tandem-cloud-go/internal/domain/dao"
)

// DocumentStore implements dao.DocumentStore on a MongoDB database.
type DocumentStore struct {
	db *mongo.Database
}

// NewDocumentStore creates a store over db.
func NewDocumentStore(db *mongo.Database) *DocumentStore {
	return &DocumentStore{db: db}
}

var _ dao.DocumentStore = (*DocumentStore)(nil)

func (s *DocumentStore) collection(name string) *mongo.Collection {
	return s.db.Collection(name)
}

// Ping checks the server is reachable.
func (s *DocumentStore) Ping(ctx context.Context) error {
	return s.db.Client().Ping(ctx, nil)
}

// Get finds a document by _id.
func (s *DocumentStore) Get(ctx context.Context, collection, id string, out any) error {
	err := s.collection(collection).FindOne(ctx, bson.M{"_id": id}).Decode(out)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return dao.ErrNotFound
	}
	return err
}

// List finds all documents matching q.
func (s *DocumentStore) List(ctx context.Context, collection string, q *dao.Query, out any) error {
	if q.HasEmptyMembership() {
		return decodeEmpty(out)
	}
	cursor, err := s.collection(collection).Find(ctx, buildFilter(q), buildFindOptions(q))
	if err != nil {
		return err
	}
	defer cursor.Close(ctx)
	return cursor.All(ctx, out)
}

// Count counts documents matching q.
func (s *DocumentStore) Count(ctx context.Context, collection string, q *dao.Query) (int64, error) {
	if q.HasEmptyMembership() {
		return 0, nil
	}
	return s.collection(collection).CountDocuments(ctx, buildFilter(q))
}

// Create inserts a single document.
func (s *DocumentStore) Create(ctx context.Context, collection string, doc any) error {
	_, err := s.collection(collection).InsertOne(ctx, doc)
	return err
}

// Update applies $set to the document with the given id.
func (s *DocumentStore) Update(ctx context.Context, collection, id string, fields map[string]any) error {
	res, err := s.collection(collection).UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M(fields)})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return dao.ErrNotFound
	}
	return nil
}

// UpdateWhere applies $set to every document matching q.
func (s *DocumentStore) UpdateWhere(ctx context.Context, collection string, q *dao.Query, fields map[string]any) (int64, error) {
	if q.HasEmptyMembership() {
		return 0, nil
	}
	res, err := s.collection(collection).UpdateMany(ctx, buildFilter(q), bson.M{"$set": bson.M(fields)})
	if err != nil {
		return 0, err
	}
	return res.MatchedCount, nil
}

// CreateIfAbsent upserts doc with $setOnInsert. A concurrent insert losing a
// unique index race counts as already present.
func (s *DocumentStore) CreateIfAbsent(ctx context.Context, collection string, q *dao.Query, doc any) (bool, error) {
	res, err := s.collection(collection).UpdateOne(ctx,
		buildFilter(q),
		bson.M{"$setOnInsert": doc},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return false, nil
		}
		return false, err
	}
	return res.UpsertedCount > 0, nil
}

// Increment applies $inc guarded by the delta's floor and ceiling.
func (s *DocumentStore) Increment(ctx context.Context, collection, id string, delta dao.CounterDelta) (bool, error) {
	if delta.Field == "" {
		return false, fmt.Errorf("increment: field is required")
	}
	res, err := s.collection(collection).UpdateOne(ctx,
		incrementFilter(id, delta),
		bson.M{"$inc": bson.M{delta.Field: delta.By}},
	)
	if err != nil {
		return false, err
	}
	return res.ModifiedCount > 0, nil
}

func incrementFilter(id string, delta dao.CounterDelta) bson.M {
	filter := bson.M{"_id": id}
	switch {
	case delta.By < 0 && delta.Below > 0:
		filter[delta.Field] = bson.M{"$gte": -delta.By, "$lt": delta.Below}
	case delta.By < 0:
		filter[delta.Field] = bson.M{"$gte": -delta.By}
	case delta.Below > 0:
		// a missing counter reads as zero
		filter["$or"] = bson.A{
			bson.M{delta.Field: bson.M{"$exists": false}},
			bson.M{delta.Field: bson.M{"$lt": delta.Below}},
		}
	}
	return filter
}

// buildFilter translates q into a bson filter. Conditions on the same field
// are merged into one operator document.
func buildFilter(q *dao.Query) bson.M {
	filter := bson.M{}
	if q == nil {
		return filter
	}
	for _, c := range q.Conditions {
		ops, ok := filter[c.Field].(bson.M)
		if !ok {
			ops = bson.M{}
			filter[c.Field] = ops
		}
		ops[string(c.Op)] = c.Value
	}
	return filter
}

func buildFindOptions(q *dao.Query) *options.FindOptions {
	opts := options.Find()
	if q == nil {
		return opts
	}
	if len(q.Sort) > 0 {
		sort := bson.D{}
		for _, f := range q.Sort {
			dir := 1
			if f.Descending {
				dir = -1
			}
			sort = append(sort, bson.E{Key: f.Field, Value: dir})
		}
		opts.SetSort(sort)
	}
	if q.Offset > 0 {
		opts.SetSkip(int64(q.Offset))
	}
	if q.Limit > 0 {
		opts.SetLimit(int64(q.Limit))
	}
	return opts
}

// decodeEmpty resets out to an empty slice without a round trip.
func decodeEmpty(out any) error {
	rv := reflect.ValueOf(out)
	if rv.Kind() != reflect.Ptr || rv.Elem().Kind() != reflect.Slice {
		return fmt.Errorf("list: out must be a pointer to a slice, got %T", out)
	}
	rv.Elem().Set(reflect.MakeSlice(rv.Elem().Type(), 0, 0))
	return nil
}
