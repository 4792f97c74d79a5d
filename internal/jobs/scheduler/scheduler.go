package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/jrjohn/tandem-cloud-go/internal/jobs/lock"
)

const (
	// Common cron expressions
	EveryMinute      = "* * * * *"
	EveryFiveMinutes = "*/5 * * * *"
	EveryHour        = "0 * * * *"
	DailyMidnight    = "0 0 * * *"
)

var ErrJobNotFound = errors.New("scheduled job not found")

// parser accepts standard five-field expressions and descriptors like @hourly.
var parser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// Job is a recurring task
type Job struct {
	Name     string
	Schedule string
	Run      func(ctx context.Context) error
	// Timeout bounds a single run. Zero means no bound.
	Timeout time.Duration
}

// JobInfo describes a registered job
type JobInfo struct {
	Name     string    `json:"name"`
	Schedule string    `json:"schedule"`
	NextRun  time.Time `json:"nextRun"`
	LastRun  time.Time `json:"lastRun,omitempty"`
	LastErr  string    `json:"lastError,omitempty"`
}

type entry struct {
	job      Job
	schedule cron.Schedule
	lastRun  time.Time
	lastErr  error
}

// Scheduler runs registered jobs on their cron schedules. Each run holds the
// job's lock, so with a shared Locker only one process runs it at a time.
type Scheduler struct {
	cron   *cron.Cron
	locker lock.Locker
	logger *zap.Logger

	mu      sync.RWMutex
	jobs    map[string]*entry
	running bool

	ctx    context.Context
	cancel context.CancelFunc
}

// NewScheduler creates a scheduler guarded by locker
func NewScheduler(locker lock.Locker, logger *zap.Logger) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron:   cron.New(cron.WithParser(parser)),
		locker: locker,
		logger: logger.Named("scheduler"),
		jobs:   make(map[string]*entry),
		ctx:    ctx,
		cancel: cancel,
	}
}

// RegisterJob registers a scheduled job
func (s *Scheduler) RegisterJob(job Job) error {
	if job.Run == nil {
		return fmt.Errorf("job %s has no Run func", job.Name)
	}
	schedule, err := parser.Parse(job.Schedule)
	if err != nil {
		return fmt.Errorf("invalid cron expression: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.jobs[job.Name]; exists {
		return fmt.Errorf("job %s already registered", job.Name)
	}
	if s.running {
		return fmt.Errorf("cannot register %s while running", job.Name)
	}

	s.jobs[job.Name] = &entry{job: job, schedule: schedule}
	s.logger.Info("Registered scheduled job",
		zap.String("name", job.Name),
		zap.String("schedule", job.Schedule),
	)
	return nil
}

// Start starts the cron loop
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("scheduler already running")
	}

	for name, e := range s.jobs {
		name := name
		s.cron.Schedule(e.schedule, cron.FuncJob(func() {
			_ = s.RunNow(s.ctx, name)
		}))
	}
	s.cron.Start()
	s.running = true
	s.logger.Info("Starting scheduler", zap.Int("jobs", len(s.jobs)))
	return nil
}

// Stop stops scheduling and waits for running jobs until ctx is done
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	s.mu.Unlock()

	s.logger.Info("Stopping scheduler")
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
		// Running jobs see cancellation and wind down on their own.
		s.cancel()
		return ctx.Err()
	}
	s.cancel()
	return nil
}

// RunNow runs the named job once under its lock. It returns
// lock.ErrLockNotAcquired when another run holds it.
func (s *Scheduler) RunNow(ctx context.Context, name string) error {
	s.mu.RLock()
	e, ok := s.jobs[name]
	s.mu.RUnlock()
	if !ok {
		return ErrJobNotFound
	}

	logger := s.logger.With(zap.String("job", name))

	held, err := s.locker.TryAcquire(ctx, name)
	if errors.Is(err, lock.ErrLockNotAcquired) {
		logger.Debug("Job already running elsewhere, skipping")
		return err
	}
	if err != nil {
		logger.Error("Failed to acquire job lock", zap.Error(err))
		return err
	}
	defer func() {
		if rerr := held.Release(context.WithoutCancel(ctx)); rerr != nil {
			logger.Warn("Failed to release job lock", zap.Error(rerr))
		}
	}()

	runCtx := ctx
	if e.job.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, e.job.Timeout)
		defer cancel()
	}

	start := time.Now()
	logger.Info("Running scheduled job")
	err = s.safeRun(runCtx, e.job)

	s.mu.Lock()
	e.lastRun = start
	e.lastErr = err
	s.mu.Unlock()

	if err != nil {
		logger.Error("Scheduled job failed", zap.Duration("duration", time.Since(start)), zap.Error(err))
		return err
	}
	logger.Info("Scheduled job finished", zap.Duration("duration", time.Since(start)))
	return nil
}

func (s *Scheduler) safeRun(ctx context.Context, job Job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("job %s panicked: %v", job.Name, r)
		}
	}()
	return job.Run(ctx)
}

// IsRunning reports whether the cron loop is active
func (s *Scheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

// ListJobs returns all registered jobs
func (s *Scheduler) ListJobs() []JobInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()

	now := time.Now()
	out := make([]JobInfo, 0, len(s.jobs))
	for _, e := range s.jobs {
		info := JobInfo{
			Name:     e.job.Name,
			Schedule: e.job.Schedule,
			NextRun:  e.schedule.Next(now),
			LastRun:  e.lastRun,
		}
		if e.lastErr != nil {
			info.LastErr = e.lastErr.Error()
		}
		out = append(out, info)
	}
	return out
}

// GetNextRun returns the next scheduled run time for a job
func (s *Scheduler) GetNextRun(name string) (time.Time, error) {
	s.mu.RLock()
	e, ok := s.jobs[name]
	s.mu.RUnlock()
	if !ok {
		return time.Time{}, ErrJobNotFound
	}
	return e.schedule.Next(time.Now()), nil
}
