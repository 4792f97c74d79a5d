package di

import (
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/jrjohn/tandem-cloud-go/internal/config"
)

// CoreModule is everything both processes share: config, logging, storage,
// repositories, services and the notification outbox.
var CoreModule = fx.Options(
	ConfigModule,
	LoggerModule,
	ObservabilityModule,
	DatabaseModule,
	DAOModule,
	RedisModule,
	RepositoryModule,
	NotificationModule,
	ServiceModule,
)

// AppModule aggregates the API server modules. Background workers run in
// process when worker.enabled is set.
var AppModule = fx.Options(
	CoreModule,
	SecurityModule,
	MiddlewareModule,
	ControllerModule,
	HTTPServerModule,
	JobsModule,
)

// WorkerModule aggregates the standalone background process modules.
var WorkerModule = fx.Options(
	CoreModule,
	JobsModule,
	fx.Decorate(forceWorkers),
)

func forceWorkers(cfg *config.WorkerConfig) *config.WorkerConfig {
	forced := *cfg
	forced.Enabled = true
	return &forced
}

// PrintBanner prints the application startup banner
func PrintBanner(cfg *config.Config, logger *zap.Logger) {
	logger.Info("===========================================")
	logger.Info("       Tandem Cloud Go - Matchmaking       ")
	logger.Info("===========================================")
	logger.Info("Application Info",
		zap.String("name", cfg.App.Name),
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Environment),
	)
	logger.Info("Backends",
		zap.String("database", cfg.Database.Driver),
		zap.Bool("redis", cfg.Redis.Enabled),
		zap.String("notification", cfg.Notification.Driver),
		zap.Bool("workers", cfg.Worker.Enabled),
	)
	logger.Info("===========================================")
}
