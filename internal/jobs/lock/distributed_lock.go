package lock

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	keyPrefixLock = "tandem:jobs:lock:"

	defaultLockTTL       = 5 * time.Minute
	defaultHeartbeatRate = 30 * time.Second
)

var (
	ErrLockNotAcquired = errors.New("lock held by another owner")
	ErrLockNotHeld     = errors.New("lock not held by this owner")
)

// Both scripts match on the owner prefix. string.find runs in plain mode so
// the hyphens of a uuid are not read as patterns.
var (
	releaseScript = redis.NewScript(`
		local val = redis.call("get", KEYS[1])
		if val and string.find(val, ARGV[1], 1, true) == 1 then
			return redis.call("del", KEYS[1])
		end
		return 0
	`)
	extendScript = redis.NewScript(`
		local val = redis.call("get", KEYS[1])
		if val and string.find(val, ARGV[1], 1, true) == 1 then
			return redis.call("pexpire", KEYS[1], ARGV[2])
		end
		return 0
	`)
)

// Lock is a held lease on a named resource.
type Lock interface {
	Name() string
	// Held reports whether the lease is still ours. A Redis lease can be
	// lost when a heartbeat fails to extend it.
	Held() bool
	Release(ctx context.Context) error
}

// Locker hands out exclusive leases. TryAcquire never waits and returns
// ErrLockNotAcquired when somebody else holds name.
type Locker interface {
	TryAcquire(ctx context.Context, name string) (Lock, error)
}

// Config holds lease timing
type Config struct {
	TTL           time.Duration
	HeartbeatRate time.Duration
}

// DefaultConfig returns default configuration
func DefaultConfig() Config {
	return Config{
		TTL:           defaultLockTTL,
		HeartbeatRate: defaultHeartbeatRate,
	}
}

// RedisLocker implements Locker with SET NX leases kept alive by a heartbeat,
// so only one worker process runs a given job at a time.
type RedisLocker struct {
	client    *redis.Client
	ownerID   string
	ttl       time.Duration
	heartbeat time.Duration
}

// NewRedisLocker creates a locker with a fresh owner id
func NewRedisLocker(client *redis.Client, config Config) *RedisLocker {
	if config.TTL <= 0 {
		config.TTL = defaultLockTTL
	}
	if config.HeartbeatRate <= 0 || config.HeartbeatRate >= config.TTL {
		config.HeartbeatRate = config.TTL / 3
	}
	return &RedisLocker{
		client:    client,
		ownerID:   uuid.New().String(),
		ttl:       config.TTL,
		heartbeat: config.HeartbeatRate,
	}
}

// OwnerID returns this process's lock owner id
func (l *RedisLocker) OwnerID() string {
	return l.ownerID
}

func (l *RedisLocker) TryAcquire(ctx context.Context, name string) (Lock, error) {
	key := keyPrefixLock + name
	value := fmt.Sprintf("%s:%d", l.ownerID, time.Now().UnixNano())

	acquired, err := l.client.SetNX(ctx, key, value, l.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to acquire lock: %w", err)
	}
	if !acquired {
		return nil, ErrLockNotAcquired
	}

	// The heartbeat outlives the caller's context; Release stops it.
	hbCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	lock := &redisLock{
		client: l.client,
		name:   name,
		key:    key,
		owner:  l.ownerID + ":",
		ttl:    l.ttl,
		held:   true,
		cancel: cancel,
	}
	go lock.keepAlive(hbCtx, l.heartbeat)
	return lock, nil
}

type redisLock struct {
	client *redis.Client
	name   string
	key    string
	owner  string
	ttl    time.Duration

	mu     sync.Mutex
	held   bool
	cancel context.CancelFunc
}

func (l *redisLock) Name() string {
	return l.name
}

func (l *redisLock) Held() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.held
}

func (l *redisLock) Release(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.cancel()
	if !l.held {
		return nil
	}
	l.held = false

	n, err := releaseScript.Run(ctx, l.client, []string{l.key}, l.owner).Int()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("failed to release lock: %w", err)
	}
	if n == 0 {
		return ErrLockNotHeld
	}
	return nil
}

// keepAlive extends the lease until released or lost
func (l *redisLock) keepAlive(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.mu.Lock()
			if !l.held {
				l.mu.Unlock()
				return
			}
			n, err := extendScript.Run(ctx, l.client, []string{l.key}, l.owner, l.ttl.Milliseconds()).Int()
			if err != nil || n == 0 {
				l.held = false
				l.mu.Unlock()
				return
			}
			l.mu.Unlock()
		}
	}
}

// LocalLocker is an in-process Locker for deployments without Redis.
type LocalLocker struct {
	mu   sync.Mutex
	held map[string]struct{}
}

// NewLocalLocker creates an in-process locker
func NewLocalLocker() *LocalLocker {
	return &LocalLocker{held: make(map[string]struct{})}
}

func (l *LocalLocker) TryAcquire(_ context.Context, name string) (Lock, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.held[name]; ok {
		return nil, ErrLockNotAcquired
	}
	l.held[name] = struct{}{}
	return &localLock{parent: l, name: name}, nil
}

type localLock struct {
	parent   *LocalLocker
	name     string
	released bool
}

func (l *localLock) Name() string {
	return l.name
}

func (l *localLock) Held() bool {
	l.parent.mu.Lock()
	defer l.parent.mu.Unlock()
	return !l.released
}

func (l *localLock) Release(context.Context) error {
	l.parent.mu.Lock()
	defer l.parent.mu.Unlock()
	if l.released {
		return nil
	}
	l.released = true
	delete(l.parent.held, l.name)
	return nil
}
