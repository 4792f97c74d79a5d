package notification

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
)

var (
	ErrQueueEmpty = errors.New("notification queue is empty")
	ErrQueueFull  = errors.New("notification queue is full")
)

// maxDeadLetters bounds the dead-letter list.
const maxDeadLetters = 10000

// Queue is the outbox between publishers and delivery workers.
type Queue interface {
	Enqueue(ctx context.Context, n *Notification) error
	// Dequeue returns ErrQueueEmpty when nothing is waiting.
	Dequeue(ctx context.Context) (*Notification, error)
	DeadLetter(ctx context.Context, n *Notification) error
	Len(ctx context.Context) (int64, error)
}

// RedisQueue is a FIFO list in Redis: LPUSH to enqueue, RPOP to dequeue.
type RedisQueue struct {
	client  *redis.Client
	key     string
	deadKey string
}

// NewRedisQueue creates a queue stored under key, with dead letters at key:dead.
func NewRedisQueue(client *redis.Client, key string) *RedisQueue {
	return &RedisQueue{client: client, key: key, deadKey: key + ":dead"}
}

func (q *RedisQueue) Enqueue(ctx context.Context, n *Notification) error {
	data, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("failed to serialize notification: %w", err)
	}
	if err := q.client.LPush(ctx, q.key, data).Err(); err != nil {
		return fmt.Errorf("failed to enqueue notification: %w", err)
	}
	return nil
}

func (q *RedisQueue) Dequeue(ctx context.Context) (*Notification, error) {
	// RPOP rather than BRPOP keeps shutdown responsive.
	data, err := q.client.RPop(ctx, q.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrQueueEmpty
	}
	if err != nil {
		return nil, fmt.Errorf("failed to dequeue notification: %w", err)
	}

	var n Notification
	if err := json.Unmarshal(data, &n); err != nil {
		return nil, fmt.Errorf("failed to deserialize notification: %w", err)
	}
	return &n, nil
}

func (q *RedisQueue) DeadLetter(ctx context.Context, n *Notification) error {
	data, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("failed to serialize notification: %w", err)
	}
	pipe := q.client.TxPipeline()
	pipe.LPush(ctx, q.deadKey, data)
	pipe.LTrim(ctx, q.deadKey, 0, maxDeadLetters-1)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to dead-letter notification: %w", err)
	}
	return nil
}

func (q *RedisQueue) Len(ctx context.Context) (int64, error) {
	return q.client.LLen(ctx, q.key).Result()
}

// DeadLetters returns up to limit dead notifications, newest first.
func (q *RedisQueue) DeadLetters(ctx context.Context, limit int64) ([]*Notification, error) {
	items, err := q.client.LRange(ctx, q.deadKey, 0, limit-1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read dead letters: %w", err)
	}
	out := make([]*Notification, 0, len(items))
	for _, item := range items {
		var n Notification
		if err := json.Unmarshal([]byte(item), &n); err != nil {
			continue
		}
		out = append(out, &n)
	}
	return out, nil
}

// MemoryQueue is a bounded in-process queue used when Redis is disabled.
// It is only shared within one process.
type MemoryQueue struct {
	ch   chan *Notification
	mu   sync.Mutex
	dead []*Notification
}

// NewMemoryQueue creates a queue holding up to size notifications.
func NewMemoryQueue(size int) *MemoryQueue {
	if size <= 0 {
		size = 1
	}
	return &MemoryQueue{ch: make(chan *Notification, size)}
}

func (q *MemoryQueue) Enqueue(ctx context.Context, n *Notification) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case q.ch <- n:
		return nil
	default:
		return ErrQueueFull
	}
}

func (q *MemoryQueue) Dequeue(ctx context.Context) (*Notification, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case n := <-q.ch:
		return n, nil
	default:
		return nil, ErrQueueEmpty
	}
}

func (q *MemoryQueue) DeadLetter(_ context.Context, n *Notification) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.dead) >= maxDeadLetters {
		q.dead = q.dead[1:]
	}
	q.dead = append(q.dead, n)
	return nil
}

func (q *MemoryQueue) Len(context.Context) (int64, error) {
	return int64(len(q.ch)), nil
}

// DeadLetters returns a copy of the dead notifications, oldest first.
func (q *MemoryQueue) DeadLetters() []*Notification {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]*Notification(nil), q.dead...)
}
