package di

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/jrjohn/tandem-cloud-go/internal/config"
)

// RedisModule provides the Redis client. The client is nil when
// redis.enabled is false.
var RedisModule = fx.Module("redis",
	fx.Provide(provideRedisClient),
)

func provideRedisClient(lc fx.Lifecycle, cfg *config.RedisConfig, logger *zap.Logger) (*redis.Client, error) {
	if !cfg.Enabled {
		logger.Info("Redis disabled, using in-process queue and locks")
		return nil, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logger.Info("Connected to Redis",
		zap.String("host", cfg.Host),
		zap.Int("port", cfg.Port),
	)

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			logger.Info("Closing Redis connection")
			return client.Close()
		},
	})

	return client, nil
}
