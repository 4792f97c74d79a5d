package notification

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/jrjohn/tandem-cloud-go/internal/observability"
	"github.com/jrjohn/tandem-cloud-go/internal/resilience"
)

const stageDeliver = "deliver"

// DispatcherConfig configures the delivery pool
type DispatcherConfig struct {
	Concurrency     int
	PollInterval    time.Duration
	ShutdownTimeout time.Duration
	SendTimeout     time.Duration
	// MaxAttempts is how many times a notification is taken off the queue
	// before it is dead-lettered.
	MaxAttempts int
	Retry       *resilience.RetryConfig
	Breaker     *resilience.CircuitBreakerConfig
}

// DefaultDispatcherConfig returns sensible defaults
func DefaultDispatcherConfig() DispatcherConfig {
	return DispatcherConfig{
		Concurrency:     4,
		PollInterval:    200 * time.Millisecond,
		ShutdownTimeout: 30 * time.Second,
		SendTimeout:     5 * time.Second,
		MaxAttempts:     5,
		Retry:           resilience.DefaultRetryConfig(),
		Breaker:         resilience.DefaultCircuitBreakerConfig("notification-sender"),
	}
}

// DispatcherStats is a snapshot of delivery counters
type DispatcherStats struct {
	Running      bool
	Delivered    int64
	Requeued     int64
	DeadLettered int64
	Concurrency  int
}

// Dispatcher drains a Queue through a Sender with a pool of workers.
type Dispatcher struct {
	config  DispatcherConfig
	queue   Queue
	sender  Sender
	breaker *resilience.CircuitBreaker
	logger  *zap.Logger
	metrics *observability.MetricsProvider

	running atomic.Bool
	wg      sync.WaitGroup
	stopCh  chan struct{}

	delivered    atomic.Int64
	requeued     atomic.Int64
	deadLettered atomic.Int64
}

// NewDispatcher creates a new dispatcher
func NewDispatcher(queue Queue, sender Sender, logger *zap.Logger, metrics *observability.MetricsProvider, config DispatcherConfig) *Dispatcher {
	if config.Concurrency <= 0 {
		config.Concurrency = 1
	}
	if config.Retry == nil {
		config.Retry = resilience.DefaultRetryConfig()
	}
	if config.Breaker == nil {
		config.Breaker = resilience.DefaultCircuitBreakerConfig("notification-sender")
	}
	logger = logger.Named("dispatcher")
	return &Dispatcher{
		config:  config,
		queue:   queue,
		sender:  sender,
		breaker: resilience.NewCircuitBreaker(config.Breaker, logger),
		logger:  logger,
		metrics: metrics,
		stopCh:  make(chan struct{}),
	}
}

// Start starts the workers
func (d *Dispatcher) Start(ctx context.Context) error {
	if d.running.Swap(true) {
		return fmt.Errorf("dispatcher already running")
	}

	d.logger.Info("Starting notification dispatcher",
		zap.Int("concurrency", d.config.Concurrency),
		zap.Duration("poll_interval", d.config.PollInterval),
		zap.Int("max_attempts", d.config.MaxAttempts),
	)

	for i := 0; i < d.config.Concurrency; i++ {
		d.wg.Add(1)
		go d.worker(ctx, i)
	}
	return nil
}

// Stop signals the workers and waits for in-flight deliveries
func (d *Dispatcher) Stop(ctx context.Context) error {
	if !d.running.Swap(false) {
		return nil
	}

	d.logger.Info("Stopping notification dispatcher")
	close(d.stopCh)

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		d.logger.Info("Notification dispatcher stopped gracefully")
	case <-time.After(d.config.ShutdownTimeout):
		d.logger.Warn("Notification dispatcher shutdown timed out")
	case <-ctx.Done():
		d.logger.Warn("Notification dispatcher shutdown cancelled")
	}
	return nil
}

func (d *Dispatcher) worker(ctx context.Context, id int) {
	defer d.wg.Done()

	logger := d.logger.With(zap.Int("worker_id", id))
	ticker := time.NewTicker(d.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-d.stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			// Drain what is waiting before sleeping again.
			for d.running.Load() && d.ProcessNext(ctx, logger) {
			}
		}
	}
}

// ProcessNext delivers one queued notification. It reports whether one was
// taken off the queue.
func (d *Dispatcher) ProcessNext(ctx context.Context, logger *zap.Logger) bool {
	n, err := d.queue.Dequeue(ctx)
	if errors.Is(err, ErrQueueEmpty) {
		return false
	}
	if err != nil {
		if d.running.Load() {
			logger.Error("Failed to dequeue notification", zap.Error(err))
		}
		return false
	}

	logger = logger.With(
		zap.String("notification_id", n.ID),
		zap.String("kind", string(n.Kind)),
		zap.Int("attempt", n.Attempts+1),
	)

	err = d.deliver(ctx, n, logger)
	if err == nil {
		d.delivered.Add(1)
		d.metrics.RecordNotification(ctx, stageDeliver, observability.OutcomeOK)
		logger.Debug("Notification delivered")
		return true
	}

	d.handleFailure(ctx, n, err, logger)
	return true
}

func (d *Dispatcher) deliver(ctx context.Context, n *Notification, logger *zap.Logger) error {
	return resilience.Retry(ctx, d.config.Retry, func(ctx context.Context) error {
		return d.breaker.Execute(ctx, func(ctx context.Context) error {
			sendCtx, cancel := context.WithTimeout(ctx, d.config.SendTimeout)
			defer cancel()
			return d.sender.Send(sendCtx, n)
		})
	}, func(err error, wait time.Duration) {
		logger.Debug("Retrying notification", zap.Error(err), zap.Duration("wait", wait))
	})
}

func (d *Dispatcher) handleFailure(ctx context.Context, n *Notification, err error, logger *zap.Logger) {
	n.LastError = err.Error()

	// An open circuit says nothing about this notification.
	if !errors.Is(err, resilience.ErrCircuitOpen) && !errors.Is(err, resilience.ErrTooManyRequests) {
		n.Attempts++
	}

	if resilience.IsPermanent(err) || n.Attempts >= d.config.MaxAttempts {
		if dlErr := d.queue.DeadLetter(ctx, n); dlErr != nil {
			logger.Error("Failed to dead-letter notification", zap.Error(dlErr))
		}
		d.deadLettered.Add(1)
		d.metrics.RecordNotification(ctx, stageDeliver, observability.OutcomeDead)
		logger.Warn("Notification dead-lettered", zap.Error(err))
		return
	}

	if qErr := d.queue.Enqueue(ctx, n); qErr != nil {
		logger.Error("Failed to requeue notification", zap.Error(qErr))
		d.metrics.RecordNotification(ctx, stageDeliver, observability.OutcomeDropped)
		return
	}
	d.requeued.Add(1)
	d.metrics.RecordNotification(ctx, stageDeliver, observability.OutcomeRetried)
	logger.Warn("Notification delivery failed, requeued", zap.Error(err))
}

// Stats returns dispatcher statistics
func (d *Dispatcher) Stats() DispatcherStats {
	return DispatcherStats{
		Running:      d.running.Load(),
		Delivered:    d.delivered.Load(),
		Requeued:     d.requeued.Load(),
		DeadLettered: d.deadLettered.Load(),
		Concurrency:  d.config.Concurrency,
	}
}

// Breaker exposes the sender's circuit breaker state.
func (d *Dispatcher) Breaker() *resilience.CircuitBreaker {
	return d.breaker
}
