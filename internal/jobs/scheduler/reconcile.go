package scheduler

import (
	"context"

	"go.uber.org/zap"

	"github.com/jrjohn/tandem-cloud-go/internal/domain/service"
)

// ReconcileJobName is the lock and job name of the counter reconciliation.
const ReconcileJobName = "reconcile-counters"

// ReconcileJob wraps a full reconciliation pass as a scheduled job.
func ReconcileJob(svc service.ReconcileService, schedule string, logger *zap.Logger) Job {
	return Job{
		Name:     ReconcileJobName,
		Schedule: schedule,
		Run: func(ctx context.Context) error {
			report, err := svc.ReconcileAll(ctx)
			if err != nil {
				return err
			}
			if report.Corrected > 0 {
				logger.Warn("Counter drift repaired",
					zap.Int("scanned", report.Scanned),
					zap.Int("corrected", report.Corrected),
				)
			}
			return nil
		},
	}
}
