package notification

import (
	"context"
	"errors"
	"testing"

	"github.com/jrjohn/tandem-cloud-go/internal/testutil"
)

func setupRedisQueue(t *testing.T) (*RedisQueue, context.Context) {
	testutil.SkipIfNoRedis(t)
	client := testutil.NewTestRedisClient(t, testutil.DefaultTestConfig())
	return NewRedisQueue(client, "test:notifications"), context.Background()
}

func TestRedisQueue_FIFO(t *testing.T) {
	q, ctx := setupRedisQueue(t)

	for _, id := range []string{"a", "b"} {
		if err := q.Enqueue(ctx, &Notification{ID: id, Kind: KindNewMessage, UserIDs: []string{"u1"}}); err != nil {
			t.Fatalf("Enqueue() error = %v", err)
		}
	}

	n, err := q.Len(ctx)
	if err != nil {
		t.Fatalf("Len() error = %v", err)
	}
	if n != 2 {
		t.Errorf("Len() = %v, want 2", n)
	}

	first, err := q.Dequeue(ctx)
	if err != nil {
		t.Fatalf("Dequeue() error = %v", err)
	}
	if first.ID != "a" {
		t.Errorf("Dequeue() ID = %v, want a", first.ID)
	}
	if first.Kind != KindNewMessage {
		t.Errorf("Dequeue() Kind = %v, want %v", first.Kind, KindNewMessage)
	}

	if _, err := q.Dequeue(ctx); err != nil {
		t.Fatalf("Dequeue() error = %v", err)
	}
	if _, err := q.Dequeue(ctx); !errors.Is(err, ErrQueueEmpty) {
		t.Errorf("Dequeue() error = %v, want %v", err, ErrQueueEmpty)
	}
}

func TestRedisQueue_DeadLetter(t *testing.T) {
	q, ctx := setupRedisQueue(t)

	for _, id := range []string{"old", "new"} {
		if err := q.DeadLetter(ctx, &Notification{ID: id, LastError: "boom"}); err != nil {
			t.Fatalf("DeadLetter() error = %v", err)
		}
	}

	dead, err := q.DeadLetters(ctx, 10)
	if err != nil {
		t.Fatalf("DeadLetters() error = %v", err)
	}
	if len(dead) != 2 {
		t.Fatalf("DeadLetters() len = %v, want 2", len(dead))
	}
	if dead[0].ID != "new" {
		t.Errorf("DeadLetters()[0].ID = %v, want new", dead[0].ID)
	}
	if dead[1].LastError != "boom" {
		t.Errorf("DeadLetters()[1].LastError = %v, want boom", dead[1].LastError)
	}

	n, _ := q.Len(ctx)
	if n != 0 {
		t.Errorf("Len() = %v, want 0", n)
	}
}
