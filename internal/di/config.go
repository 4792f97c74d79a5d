package di

import (
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/jrjohn/tandem-cloud-go/internal/config"
)

// ConfigModule provides configuration dependencies
var ConfigModule = fx.Module("config",
	fx.Provide(
		loadConfig,
		provideAppConfig,
		provideServerConfig,
		provideDatabaseConfig,
		provideRedisConfig,
		provideJWTConfig,
		provideDiscoveryConfig,
		provideNotificationConfig,
		provideWorkerConfig,
		provideReconcileConfig,
		provideRateLimitConfig,
		provideMetricsConfig,
		provideTracingConfig,
		provideLimits,
	),
	fx.Invoke(watchLimits),
)

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func provideAppConfig(cfg *config.Config) *config.AppConfig {
	return &cfg.App
}

func provideServerConfig(cfg *config.Config) *config.ServerConfig {
	return &cfg.Server
}

func provideDatabaseConfig(cfg *config.Config) *config.DatabaseConfig {
	return &cfg.Database
}

func provideRedisConfig(cfg *config.Config) *config.RedisConfig {
	return &cfg.Redis
}

func provideJWTConfig(cfg *config.Config) *config.JWTConfig {
	return &cfg.JWT
}

func provideDiscoveryConfig(cfg *config.Config) *config.DiscoveryConfig {
	return &cfg.Discovery
}

func provideNotificationConfig(cfg *config.Config) *config.NotificationConfig {
	return &cfg.Notification
}

func provideWorkerConfig(cfg *config.Config) *config.WorkerConfig {
	return &cfg.Worker
}

func provideReconcileConfig(cfg *config.Config) *config.ReconcileConfig {
	return &cfg.Reconcile
}

func provideRateLimitConfig(cfg *config.Config) *config.RateLimitConfig {
	return &cfg.RateLimit
}

func provideMetricsConfig(cfg *config.Config) *config.MetricsConfig {
	return &cfg.Metrics
}

func provideTracingConfig(cfg *config.Config) *config.TracingConfig {
	return &cfg.Tracing
}

func provideLimits(cfg *config.Config) *config.Limits {
	return config.NewLimits(cfg.Limits)
}

func watchLimits(cfg *config.Config, limits *config.Limits, logger *zap.Logger) {
	if cfg.Watch(limits, logger) {
		logger.Info("Watching config file for quota changes")
	}
}
