package di

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/jrjohn/tandem-cloud-go/internal/config"
	"github.com/jrjohn/tandem-cloud-go/internal/notification"
	"github.com/jrjohn/tandem-cloud-go/internal/observability"
)

// NotificationModule provides the outbox queue and the publisher services
// enqueue onto.
var NotificationModule = fx.Module("notification",
	fx.Provide(
		provideNotificationQueue,
		provideNotificationPublisher,
	),
)

func provideNotificationQueue(client *redis.Client, cfg *config.NotificationConfig, logger *zap.Logger) notification.Queue {
	if client == nil {
		logger.Info("Using in-process notification queue", zap.Int("buffer_size", cfg.BufferSize))
		return notification.NewMemoryQueue(cfg.BufferSize)
	}
	return notification.NewRedisQueue(client, cfg.QueueKey)
}

func provideNotificationPublisher(
	queue notification.Queue,
	cfg *config.NotificationConfig,
	metrics *observability.MetricsProvider,
	logger *zap.Logger,
) notification.Publisher {
	if !cfg.Enabled {
		logger.Info("Notifications disabled")
		return notification.NopPublisher{}
	}
	return notification.NewQueuePublisher(queue, logger, metrics, 0)
}

func provideNotificationSender(cfg *config.NotificationConfig, logger *zap.Logger) (notification.Sender, error) {
	switch config.NotificationDriver(cfg.Driver) {
	case config.NotifyFCM:
		return notification.NewFCMSender(context.Background(), cfg.CredentialsFile, cfg.CredentialsJSON, logger)
	case config.NotifyLog, "":
		return notification.NewLogSender(logger), nil
	default:
		return nil, fmt.Errorf("unsupported notification driver: %s", cfg.Driver)
	}
}

func provideDispatcher(
	queue notification.Queue,
	sender notification.Sender,
	workerCfg *config.WorkerConfig,
	cfg *config.NotificationConfig,
	metrics *observability.MetricsProvider,
	logger *zap.Logger,
) *notification.Dispatcher {
	dc := notification.DefaultDispatcherConfig()
	if workerCfg.Concurrency > 0 {
		dc.Concurrency = workerCfg.Concurrency
	}
	if workerCfg.PollInterval > 0 {
		dc.PollInterval = workerCfg.PollInterval
	}
	if workerCfg.ShutdownTimeout > 0 {
		dc.ShutdownTimeout = workerCfg.ShutdownTimeout
	}
	if cfg.SendTimeout > 0 {
		dc.SendTimeout = cfg.SendTimeout
	}
	if cfg.MaxAttempts > 0 {
		dc.MaxAttempts = cfg.MaxAttempts
	}
	return notification.NewDispatcher(queue, sender, logger, metrics, dc)
}
