package impl

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jrjohn/tandem-cloud-go/internal/domain/entity"
	"github.com/jrjohn/tandem-cloud-go/internal/domain/service"
	"github.com/jrjohn/tandem-cloud-go/internal/testutil"
)

func (e *testEnv) reconcileService(batch int) service.ReconcileService {
	return NewReconcileService(e.users, e.connections, batch, nil, testutil.NewTestLogger(e.t))
}

func TestReconcileService_ReconcileAll(t *testing.T) {
	env := newTestEnv(t)
	env.fx.UserWithCounters("a", entity.Counters{Sent: 3})
	env.fx.UserWithCounters("b", entity.Counters{Received: 1})
	env.fx.UserWithCounters("c", entity.Counters{})
	env.fx.UserWithCounters("d", entity.Counters{Sent: 1})

	env.fx.Connection("ab", "a", "b", entity.StatusPending)
	env.fx.Connection("ca", "c", "a", entity.StatusChatActive)
	env.fx.Connection("db", "d", "b", entity.StatusPending)
	env.fx.Connection("old", "a", "c", entity.StatusChatRemovedBySender)
	require.NoError(t, env.store.Update(env.ctx, entity.CollectionConnections, "db",
		map[string]any{entity.FieldVisibleToReceiver: false}))

	report, err := env.reconcileService(1).ReconcileAll(env.ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, report.Scanned)
	assert.Equal(t, 2, report.Corrected)

	assert.Equal(t, entity.Counters{Sent: 1, Chats: 1}, env.counters("a"))
	assert.Equal(t, entity.Counters{Received: 1}, env.counters("b"))
	assert.Equal(t, entity.Counters{Chats: 1}, env.counters("c"))
	assert.Equal(t, entity.Counters{Sent: 1}, env.counters("d"))

	// A second pass finds nothing to fix.
	report, err = env.reconcileService(0).ReconcileAll(env.ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, report.Scanned)
	assert.Equal(t, 0, report.Corrected)
}

func TestReconcileService_ReconcileUser(t *testing.T) {
	env := newTestEnv(t)
	svc := env.reconcileService(10)

	_, err := svc.ReconcileUser(env.ctx, "ghost")
	if !errors.Is(err, service.ErrUserNotFound) {
		t.Errorf("ReconcileUser() error = %v, want %v", err, service.ErrUserNotFound)
	}

	env.fx.UserWithCounters("a", entity.Counters{Chats: 2})
	changed, err := svc.ReconcileUser(env.ctx, "a")
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, entity.Counters{}, env.counters("a"))
}

func TestReconcileService_RepairsInvitationDrift(t *testing.T) {
	env := newTestEnv(t)
	seedPair(env)
	conns := env.connectionService()

	_, err := conns.SendInvitation(env.ctx, sam, "r")
	require.NoError(t, err)
	// Drift the receiver counter as a crash between steps would.
	_, err = env.users.DecrementCounter(env.ctx, "r", entity.FieldActiveReceivedInvitations)
	require.NoError(t, err)

	changed, err := env.reconcileService(10).ReconcileUser(env.ctx, "r")
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, 1, env.counters("r").Received)
}

func TestReconcileService_Cancelled(t *testing.T) {
	env := newTestEnv(t)
	env.fx.User("a", "Ann")

	ctx, cancel := context.WithCancel(env.ctx)
	cancel()
	_, err := env.reconcileService(10).ReconcileAll(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("ReconcileAll() error = %v, want %v", err, context.Canceled)
	}
}
