package di

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/jrjohn/tandem-cloud-go/internal/config"
	"github.com/jrjohn/tandem-cloud-go/internal/domain/service"
	"github.com/jrjohn/tandem-cloud-go/internal/jobs/lock"
	"github.com/jrjohn/tandem-cloud-go/internal/jobs/scheduler"
	"github.com/jrjohn/tandem-cloud-go/internal/notification"
)

// JobsModule provides the background workers: notification delivery and
// the scheduled counter reconciliation.
var JobsModule = fx.Module("jobs",
	fx.Provide(
		provideNotificationSender,
		provideDispatcher,
		provideLocker,
		provideScheduler,
	),
	fx.Invoke(
		registerScheduledJobs,
		startJobWorkers,
	),
)

// provideLocker returns a Redis lease locker so only one process runs each
// job, or a process-local locker when Redis is disabled.
func provideLocker(client *redis.Client, cfg *config.ReconcileConfig, logger *zap.Logger) lock.Locker {
	if client == nil {
		return lock.NewLocalLocker()
	}
	lc := lock.DefaultConfig()
	if cfg.LockTTL > 0 {
		lc.TTL = cfg.LockTTL
	}
	locker := lock.NewRedisLocker(client, lc)
	logger.Info("Job locker initialized",
		zap.String("owner_id", locker.OwnerID()),
		zap.Duration("lock_ttl", lc.TTL),
	)
	return locker
}

func provideScheduler(locker lock.Locker, logger *zap.Logger) *scheduler.Scheduler {
	return scheduler.NewScheduler(locker, logger)
}

func registerScheduledJobs(sched *scheduler.Scheduler, cfg *config.ReconcileConfig, reconciler service.ReconcileService, logger *zap.Logger) error {
	if !cfg.Enabled {
		logger.Info("Counter reconciliation disabled")
		return nil
	}
	return sched.RegisterJob(scheduler.ReconcileJob(reconciler, cfg.Schedule, logger))
}

// startJobWorkers starts the dispatcher and scheduler when workers are enabled
func startJobWorkers(
	lc fx.Lifecycle,
	cfg *config.WorkerConfig,
	dispatcher *notification.Dispatcher,
	sched *scheduler.Scheduler,
	logger *zap.Logger,
) {
	if !cfg.Enabled {
		logger.Info("Background workers disabled in this process")
		return
	}

	// Workers outlive the fx start context.
	ctx, cancel := context.WithCancel(context.Background())

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			if err := dispatcher.Start(ctx); err != nil {
				cancel()
				return fmt.Errorf("failed to start dispatcher: %w", err)
			}

			logger.Info("Starting job scheduler")
			if err := sched.Start(); err != nil {
				cancel()
				return fmt.Errorf("failed to start scheduler: %w", err)
			}
			return nil
		},
		OnStop: func(ctx context.Context) error {
			defer cancel()

			logger.Info("Stopping job scheduler")
			if err := sched.Stop(ctx); err != nil {
				logger.Warn("Error stopping scheduler", zap.Error(err))
			}

			if err := dispatcher.Stop(ctx); err != nil {
				logger.Warn("Error stopping dispatcher", zap.Error(err))
			}
			return nil
		},
	})
}
