package impl

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/jrjohn/tandem-cloud-go/internal/domain/repository"
	"github.com/jrjohn/tandem-cloud-go/internal/domain/service"
	"github.com/jrjohn/tandem-cloud-go/internal/observability"
	"github.com/jrjohn/tandem-cloud-go/pkg/logger"
)

const defaultReconcileBatch = 500

// reconcileService implements service.ReconcileService
type reconcileService struct {
	users       repository.UserRepository
	connections repository.ConnectionRepository
	batchSize   int
	metrics     *observability.MetricsProvider
	logger      *zap.Logger
}

// NewReconcileService creates a new ReconcileService instance
func NewReconcileService(
	users repository.UserRepository,
	connections repository.ConnectionRepository,
	batchSize int,
	metrics *observability.MetricsProvider,
	log *zap.Logger,
) service.ReconcileService {
	if batchSize <= 0 {
		batchSize = defaultReconcileBatch
	}
	return &reconcileService{
		users:       users,
		connections: connections,
		batchSize:   batchSize,
		metrics:     metrics,
		logger:      log.Named("reconcile"),
	}
}

func (s *reconcileService) ReconcileUser(ctx context.Context, userID string) (bool, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return false, fmt.Errorf("load user: %w", err)
	}
	if user == nil {
		return false, service.ErrUserNotFound
	}

	want, err := s.connections.CountFor(ctx, userID)
	if err != nil {
		return false, fmt.Errorf("count connections: %w", err)
	}
	have := user.Counters()
	if want == have {
		return false, nil
	}

	if err := s.users.SetCounters(ctx, userID, want); err != nil {
		return false, fmt.Errorf("set counters: %w", err)
	}
	s.logger.Info("Counters corrected",
		logger.UserField(userID),
		zap.Int("sent_from", have.Sent), zap.Int("sent_to", want.Sent),
		zap.Int("received_from", have.Received), zap.Int("received_to", want.Received),
		zap.Int("chats_from", have.Chats), zap.Int("chats_to", want.Chats),
	)
	return true, nil
}

func (s *reconcileService) ReconcileAll(ctx context.Context) (*service.ReconcileReport, error) {
	ctx, span := observability.StartSpan(ctx, "reconcile.ReconcileAll")
	report, err := s.reconcileAll(ctx)
	observability.EndSpan(span, err)
	s.metrics.RecordCountersCorrected(ctx, report.Corrected)
	return report, err
}

func (s *reconcileService) reconcileAll(ctx context.Context) (*service.ReconcileReport, error) {
	report := &service.ReconcileReport{}
	after := ""
	for {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		ids, err := s.users.ListIDsAfter(ctx, after, s.batchSize)
		if err != nil {
			return report, fmt.Errorf("list users: %w", err)
		}
		for _, id := range ids {
			changed, err := s.ReconcileUser(ctx, id)
			if err != nil {
				// A user deleted mid-pass is not an error for the pass.
				if errors.Is(err, service.ErrUserNotFound) {
					continue
				}
				return report, err
			}
			report.Scanned++
			if changed {
				report.Corrected++
			}
		}
		if len(ids) < s.batchSize {
			break
		}
		after = ids[len(ids)-1]
	}

	s.logger.Info("Reconciliation finished",
		zap.Int("scanned", report.Scanned),
		zap.Int("corrected", report.Corrected),
	)
	return report, nil
}
