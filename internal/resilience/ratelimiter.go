package resilience

import (
	"errors"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

var ErrRateLimitExceeded = errors.New("rate limit exceeded")

// RateLimiterConfig holds rate limiter configuration
type RateLimiterConfig struct {
	RequestsPerSecond float64       `mapstructure:"requests_per_second"`
	Burst             int           `mapstructure:"burst"`
	IdleTTL           time.Duration `mapstructure:"idle_ttl"`
}

// DefaultRateLimiterConfig returns default configuration
func DefaultRateLimiterConfig() *RateLimiterConfig {
	return &RateLimiterConfig{
		RequestsPerSecond: 5,
		Burst:             20,
		IdleTTL:           10 * time.Minute,
	}
}

type keyedEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// KeyedLimiter keeps one token bucket per key, typically a user id.
// Buckets idle longer than IdleTTL are dropped on the next sweep.
type KeyedLimiter struct {
	config    *RateLimiterConfig
	mutex     sync.Mutex
	entries   map[string]*keyedEntry
	lastSweep time.Time
	now       func() time.Time
}

// NewKeyedLimiter creates a new per-key limiter
func NewKeyedLimiter(config *RateLimiterConfig) *KeyedLimiter {
	return &KeyedLimiter{
		config:  config,
		entries: make(map[string]*keyedEntry),
		now:     time.Now,
	}
}

// Allow reports whether key may proceed now.
func (l *KeyedLimiter) Allow(key string) bool {
	l.mutex.Lock()
	now := l.now()
	l.sweep(now)

	e, ok := l.entries[key]
	if !ok {
		e = &keyedEntry{limiter: rate.NewLimiter(rate.Limit(l.config.RequestsPerSecond), l.config.Burst)}
		l.entries[key] = e
	}
	e.lastSeen = now
	limiter := e.limiter
	l.mutex.Unlock()

	return limiter.AllowN(now, 1)
}

// Len returns the number of tracked keys.
func (l *KeyedLimiter) Len() int {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	return len(l.entries)
}

func (l *KeyedLimiter) sweep(now time.Time) {
	if l.config.IdleTTL <= 0 || now.Sub(l.lastSweep) < l.config.IdleTTL {
		return
	}
	for key, e := range l.entries {
		if now.Sub(e.lastSeen) > l.config.IdleTTL {
			delete(l.entries, key)
		}
	}
	l.lastSweep = now
}
