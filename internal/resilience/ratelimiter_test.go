package resilience

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestKeyedLimiter_BurstPerKey(t *testing.T) {
	l := NewKeyedLimiter(&RateLimiterConfig{RequestsPerSecond: 1, Burst: 2, IdleTTL: time.Minute})
	now := time.Unix(1_700_000_000, 0)
	l.now = func() time.Time { return now }

	assert.True(t, l.Allow("alice"))
	assert.True(t, l.Allow("alice"))
	assert.False(t, l.Allow("alice"))

	assert.True(t, l.Allow("bob"), "buckets are independent per key")

	now = now.Add(time.Second)
	assert.True(t, l.Allow("alice"), "one token refills per second")
}

func TestKeyedLimiter_SweepsIdleKeys(t *testing.T) {
	l := NewKeyedLimiter(&RateLimiterConfig{RequestsPerSecond: 1, Burst: 1, IdleTTL: time.Minute})
	now := time.Unix(1_700_000_000, 0)
	l.now = func() time.Time { return now }

	l.Allow("a")
	l.Allow("b")
	assert.Equal(t, 2, l.Len())

	now = now.Add(2 * time.Minute)
	l.Allow("c")
	assert.Equal(t, 1, l.Len())
}

func TestDefaultRateLimiterConfig(t *testing.T) {
	cfg := DefaultRateLimiterConfig()
	assert.Equal(t, 5.0, cfg.RequestsPerSecond)
	assert.Equal(t, 20, cfg.Burst)
}
