package notification

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"firebase.google.com/go/v4/messaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/jrjohn/tandem-cloud-go/internal/resilience"
	"github.com/jrjohn/tandem-cloud-go/internal/testutil"
)

func TestNotification_Targets(t *testing.T) {
	n := Notification{Topics: []string{"all"}, UserIDs: []string{"u1", "", "u2"}}
	assert.Equal(t, []string{"all", "user_u1", "user_u2"}, n.Targets())

	empty := Notification{}
	assert.Empty(t, empty.Targets())
}

func TestMemoryQueue(t *testing.T) {
	ctx := context.Background()
	q := NewMemoryQueue(2)

	_, err := q.Dequeue(ctx)
	if !errors.Is(err, ErrQueueEmpty) {
		t.Errorf("Dequeue() error = %v, want %v", err, ErrQueueEmpty)
	}

	require.NoError(t, q.Enqueue(ctx, &Notification{ID: "1"}))
	require.NoError(t, q.Enqueue(ctx, &Notification{ID: "2"}))
	if err := q.Enqueue(ctx, &Notification{ID: "3"}); !errors.Is(err, ErrQueueFull) {
		t.Errorf("Enqueue() error = %v, want %v", err, ErrQueueFull)
	}

	n, err := q.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	first, err := q.Dequeue(ctx)
	require.NoError(t, err)
	assert.Equal(t, "1", first.ID)

	require.NoError(t, q.DeadLetter(ctx, first))
	dead := q.DeadLetters()
	require.Len(t, dead, 1)
	assert.Equal(t, "1", dead[0].ID)
}

func TestQueuePublisher_Publish(t *testing.T) {
	q := NewMemoryQueue(1)
	p := NewQueuePublisher(q, testutil.NewTestLogger(t), nil, 0)

	// A cancelled request still publishes.
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	p.Publish(ctx, Notification{Kind: KindNewMessage, UserIDs: []string{"u1"}, Title: "Sam"})

	got, err := q.Dequeue(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, got.ID)
	assert.False(t, got.CreatedAt.IsZero())
	assert.Equal(t, KindNewMessage, got.Kind)

	p.Publish(context.Background(), Notification{Kind: KindNewMessage})
	n, _ := q.Len(context.Background())
	assert.Equal(t, int64(0), n, "notifications without targets are skipped")
}

func TestQueuePublisher_SwallowsFailures(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	q := NewMemoryQueue(1)
	p := NewQueuePublisher(q, zap.New(core), nil, time.Second)

	p.Publish(context.Background(), Notification{UserIDs: []string{"u1"}})
	p.Publish(context.Background(), Notification{UserIDs: []string{"u2"}})

	assert.Equal(t, 1, logs.FilterMessage("Dropping notification").Len())
}

// stubSender returns queued errors in order, then nil.
type stubSender struct {
	mu   sync.Mutex
	errs []error
	sent []*Notification
}

func (s *stubSender) Send(_ context.Context, n *Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.errs) > 0 {
		err := s.errs[0]
		s.errs = s.errs[1:]
		return err
	}
	s.sent = append(s.sent, n)
	return nil
}

func (s *stubSender) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sent)
}

func testDispatcherConfig() DispatcherConfig {
	cfg := DefaultDispatcherConfig()
	cfg.Concurrency = 2
	cfg.PollInterval = 5 * time.Millisecond
	cfg.ShutdownTimeout = time.Second
	cfg.MaxAttempts = 2
	cfg.Retry = &resilience.RetryConfig{MaxAttempts: 1, InitialInterval: time.Millisecond, MaxInterval: time.Millisecond, Multiplier: 1}
	cfg.Breaker = &resilience.CircuitBreakerConfig{Name: "test", FailureThreshold: 100, SuccessThreshold: 1, Timeout: time.Second, MaxHalfOpenRequests: 1}
	return cfg
}

func TestDispatcher_ProcessNext(t *testing.T) {
	ctx := context.Background()
	log := testutil.NewTestLogger(t)
	q := NewMemoryQueue(10)
	sender := &stubSender{errs: []error{errors.New("unavailable"), errors.New("unavailable")}}
	d := NewDispatcher(q, sender, log, nil, testDispatcherConfig())

	if d.ProcessNext(ctx, log) {
		t.Error("ProcessNext() on empty queue = true, want false")
	}

	require.NoError(t, q.Enqueue(ctx, &Notification{ID: "n1", UserIDs: []string{"u1"}}))

	// First failure requeues with the attempt recorded.
	assert.True(t, d.ProcessNext(ctx, log))
	requeued, err := q.Dequeue(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, requeued.Attempts)
	assert.Equal(t, "unavailable", requeued.LastError)
	require.NoError(t, q.Enqueue(ctx, requeued))

	// Second failure exhausts MaxAttempts.
	assert.True(t, d.ProcessNext(ctx, log))
	require.Len(t, q.DeadLetters(), 1)
	n, _ := q.Len(ctx)
	assert.Equal(t, int64(0), n)

	require.NoError(t, q.Enqueue(ctx, &Notification{ID: "n2", UserIDs: []string{"u1"}}))
	assert.True(t, d.ProcessNext(ctx, log))
	assert.Equal(t, 1, sender.count())

	stats := d.Stats()
	assert.Equal(t, int64(1), stats.Delivered)
	assert.Equal(t, int64(1), stats.Requeued)
	assert.Equal(t, int64(1), stats.DeadLettered)
}

func TestDispatcher_PermanentFailure(t *testing.T) {
	ctx := context.Background()
	log := testutil.NewTestLogger(t)
	q := NewMemoryQueue(10)
	sender := &stubSender{errs: []error{resilience.Permanent(errors.New("bad payload"))}}
	d := NewDispatcher(q, sender, log, nil, testDispatcherConfig())

	require.NoError(t, q.Enqueue(ctx, &Notification{ID: "n1", UserIDs: []string{"u1"}}))
	assert.True(t, d.ProcessNext(ctx, log))

	dead := q.DeadLetters()
	require.Len(t, dead, 1)
	assert.Equal(t, 1, dead[0].Attempts)
	assert.Equal(t, int64(0), d.Stats().Requeued)
}

func TestDispatcher_StartStop(t *testing.T) {
	ctx := context.Background()
	q := NewMemoryQueue(10)
	sender := &stubSender{}
	d := NewDispatcher(q, sender, testutil.NewTestLogger(t), nil, testDispatcherConfig())

	for i := 0; i < 3; i++ {
		require.NoError(t, q.Enqueue(ctx, &Notification{UserIDs: []string{"u1"}}))
	}

	require.NoError(t, d.Start(ctx))
	assert.Error(t, d.Start(ctx), "second Start should fail")

	testutil.WaitForCondition(t, 2*time.Second, func() bool { return sender.count() == 3 }, "notifications were not delivered")

	require.NoError(t, d.Stop(ctx))
	assert.False(t, d.Stats().Running)
	require.NoError(t, d.Stop(ctx))
}

type fakeMessaging struct {
	err  error
	sent []*messaging.Message
}

func (f *fakeMessaging) Send(_ context.Context, m *messaging.Message) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.sent = append(f.sent, m)
	return "msg-" + m.Topic, nil
}

func TestFCMSender_Send(t *testing.T) {
	client := &fakeMessaging{}
	s := &FCMSender{client: client, logger: zap.NewNop()}

	n := &Notification{
		ID:      "n1",
		Kind:    KindInvitationAccepted,
		UserIDs: []string{"u1", "u2"},
		Title:   "New chat",
		Body:    "Ria accepted your invitation. Say hello!",
		Data:    map[string]string{"connectionId": "c1"},
	}
	require.NoError(t, s.Send(context.Background(), n))
	require.Len(t, client.sent, 2)

	msg := client.sent[0]
	assert.Equal(t, "user_u1", msg.Topic)
	assert.Equal(t, "New chat", msg.Notification.Title)
	assert.Equal(t, "c1", msg.Data["connectionId"])
	assert.Equal(t, string(KindInvitationAccepted), msg.Data["kind"])
	assert.Equal(t, "n1", msg.Data["notification_id"])
	assert.Equal(t, "user_u2", client.sent[1].Topic)
}

func TestFCMSender_TransientError(t *testing.T) {
	s := &FCMSender{client: &fakeMessaging{err: errors.New("timeout")}, logger: zap.NewNop()}

	err := s.Send(context.Background(), &Notification{UserIDs: []string{"u1"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "user_u1")
	assert.False(t, resilience.IsPermanent(err))
}

func TestNewFCMSender_NoCredentials(t *testing.T) {
	_, err := NewFCMSender(context.Background(), "", "", zap.NewNop())
	if !errors.Is(err, ErrNoCredentials) {
		t.Errorf("NewFCMSender() error = %v, want %v", err, ErrNoCredentials)
	}
}

func TestLogSender_Send(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	s := NewLogSender(zap.New(core))

	require.NoError(t, s.Send(context.Background(), &Notification{ID: "n1", Kind: KindDateProposal, UserIDs: []string{"u1"}}))

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "n1", entries[0].ContextMap()["notification_id"])
}

func TestNopPublisher(t *testing.T) {
	var p Publisher = NopPublisher{}
	p.Publish(context.Background(), Notification{UserIDs: []string{"u1"}})
}
