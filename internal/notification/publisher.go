package notification

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jrjohn/tandem-cloud-go/internal/observability"
)

const stageEnqueue = "enqueue"

// QueuePublisher enqueues onto a Queue and swallows every failure.
type QueuePublisher struct {
	queue   Queue
	logger  *zap.Logger
	metrics *observability.MetricsProvider
	timeout time.Duration
}

// NewQueuePublisher creates a publisher. timeout bounds each enqueue.
func NewQueuePublisher(queue Queue, logger *zap.Logger, metrics *observability.MetricsProvider, timeout time.Duration) *QueuePublisher {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &QueuePublisher{
		queue:   queue,
		logger:  logger.Named("notification"),
		metrics: metrics,
		timeout: timeout,
	}
}

var _ Publisher = (*QueuePublisher)(nil)

// Publish enqueues n. It detaches from the request's cancellation so a
// client disconnect after a committed state change still notifies.
func (p *QueuePublisher) Publish(ctx context.Context, n Notification) {
	if len(n.Targets()) == 0 {
		return
	}
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.timeout)
	defer cancel()

	if err := p.queue.Enqueue(ctx, &n); err != nil {
		p.logger.Warn("Dropping notification",
			zap.String("notification_id", n.ID),
			zap.String("kind", string(n.Kind)),
			zap.Strings("targets", n.Targets()),
			zap.Error(err),
		)
		p.metrics.RecordNotification(ctx, stageEnqueue, observability.OutcomeDropped)
		return
	}
	p.metrics.RecordNotification(ctx, stageEnqueue, observability.OutcomeOK)
}
