package resilience

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// RetryConfig holds retry configuration
type RetryConfig struct {
	MaxAttempts         int           `mapstructure:"max_attempts"`
	InitialInterval     time.Duration `mapstructure:"initial_interval"`
	MaxInterval         time.Duration `mapstructure:"max_interval"`
	Multiplier          float64       `mapstructure:"multiplier"`
	RandomizationFactor float64       `mapstructure:"randomization_factor"`
}

// DefaultRetryConfig returns default retry configuration
func DefaultRetryConfig() *RetryConfig {
	return &RetryConfig{
		MaxAttempts:         3,
		InitialInterval:     100 * time.Millisecond,
		MaxInterval:         5 * time.Second,
		Multiplier:          2.0,
		RandomizationFactor: 0.5,
	}
}

// Permanent marks err as not worth retrying.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return backoff.Permanent(err)
}

// IsPermanent reports whether err was marked with Permanent.
func IsPermanent(err error) bool {
	var perm *backoff.PermanentError
	return errors.As(err, &perm)
}

// NewBackOff builds the exponential policy described by config.
func (c *RetryConfig) NewBackOff(ctx context.Context) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.InitialInterval
	b.MaxInterval = c.MaxInterval
	b.Multiplier = c.Multiplier
	b.RandomizationFactor = c.RandomizationFactor
	b.MaxElapsedTime = 0
	b.Reset()

	retries := c.MaxAttempts - 1
	if retries < 0 {
		retries = 0
	}
	return backoff.WithContext(backoff.WithMaxRetries(b, uint64(retries)), ctx)
}

// Retry calls fn until it succeeds, returns a Permanent error, the attempts
// run out or ctx is done. onRetry, if set, sees every failed attempt that
// will be retried.
func Retry(ctx context.Context, config *RetryConfig, fn func(context.Context) error, onRetry func(err error, wait time.Duration)) error {
	permanent := false
	op := func() error {
		err := fn(ctx)
		permanent = IsPermanent(err)
		return err
	}

	var notify backoff.Notify
	if onRetry != nil {
		notify = func(err error, wait time.Duration) { onRetry(err, wait) }
	}

	err := backoff.RetryNotify(op, config.NewBackOff(ctx), notify)
	if err != nil && permanent {
		// RetryNotify unwraps permanent errors; keep the mark for callers.
		return Permanent(err)
	}
	return err
}
