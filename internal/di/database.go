package di

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/jrjohn/tandem-cloud-go/internal/config"
	mongodao "github.com/jrjohn/tandem-cloud-go/internal/domain/dao/mongo"
)

// MongoDatabase wraps *mongo.Database for MongoDB.
// DB is nil when the memory driver is configured.
type MongoDatabase struct {
	DB     *mongo.Database
	Client *mongo.Client
}

// DatabaseModule provides database dependencies based on config
var DatabaseModule = fx.Module("database",
	fx.Provide(provideMongoDatabase),
	fx.Invoke(runIndexes),
)

// provideMongoDatabase creates a MongoDB database connection.
func provideMongoDatabase(lc fx.Lifecycle, cfg *config.DatabaseConfig, logger *zap.Logger) (*MongoDatabase, error) {
	if !cfg.IsMongoDB() {
		logger.Info("Memory store configured, skipping MongoDB")
		return &MongoDatabase{}, nil
	}

	logger.Info("Connecting to MongoDB",
		zap.String("host", cfg.Host),
		zap.Int("port", cfg.Port),
		zap.String("database", cfg.Name),
	)

	ctx, cancel := context.WithTimeout(context.Background(), dbTimeout(cfg))
	defer cancel()

	clientOpts := options.Client().ApplyURI(cfg.MongoURI()).SetTimeout(dbTimeout(cfg))
	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			logger.Info("Closing MongoDB connection")
			return client.Disconnect(ctx)
		},
	})

	return &MongoDatabase{DB: client.Database(cfg.Name), Client: client}, nil
}

// runIndexes creates the indexes the repositories rely on.
func runIndexes(mongoDB *MongoDatabase, cfg *config.DatabaseConfig, logger *zap.Logger) error {
	if mongoDB.DB == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), dbTimeout(cfg))
	defer cancel()
	return mongodao.EnsureIndexes(ctx, mongoDB.DB, logger)
}

func dbTimeout(cfg *config.DatabaseConfig) time.Duration {
	if cfg.Timeout <= 0 {
		return 10 * time.Second
	}
	return cfg.Timeout
}
