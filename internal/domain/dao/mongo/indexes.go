package mongo

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/jrjohn/tandem-cloud-go/internal/domain/entity"
)

// userScoped lists collections holding at most one document per user.
var userScoped = []string{
	entity.CollectionBiodata,
	entity.CollectionLocations,
	entity.CollectionPreferences,
	entity.CollectionSettings,
	entity.CollectionImages,
	entity.CollectionPrompts,
	entity.CollectionCompletionStatus,
}

// EnsureIndexes creates the indexes the repositories rely on, including the
// unique (user, who) key that backs HasShown upserts.
func EnsureIndexes(ctx context.Context, db *mongo.Database, logger *zap.Logger) error {
	for _, name := range userScoped {
		models := []mongo.IndexModel{{
			Keys:    bson.D{{Key: "user", Value: 1}},
			Options: options.Index().SetUnique(true),
		}}
		if _, err := db.Collection(name).Indexes().CreateMany(ctx, models); err != nil {
			logger.Error("Failed to create indexes", zap.String("collection", name), zap.Error(err))
			return err
		}
	}

	plan := map[string][]mongo.IndexModel{
		entity.CollectionHasShown: {
			{
				Keys:    bson.D{{Key: "user", Value: 1}, {Key: "who", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
		},
		entity.CollectionConnections: {
			{Keys: bson.D{{Key: "sender_id", Value: 1}, {Key: "status", Value: 1}}},
			{Keys: bson.D{{Key: "receiver_id", Value: 1}, {Key: "status", Value: 1}}},
		},
		entity.CollectionMessages: {
			{Keys: bson.D{{Key: "connection_id", Value: 1}, {Key: "timestamp", Value: 1}}},
		},
		entity.CollectionBiodata: {
			{Keys: bson.D{{Key: "gender", Value: 1}}},
		},
	}
	for name, models := range plan {
		if _, err := db.Collection(name).Indexes().CreateMany(ctx, models); err != nil {
			logger.Error("Failed to create indexes", zap.String("collection", name), zap.Error(err))
			return err
		}
	}

	logger.Info("MongoDB indexes created successfully")
	return nil
}
