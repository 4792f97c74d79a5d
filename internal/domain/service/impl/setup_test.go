package impl

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jrjohn/tandem-cloud-go/internal/config"
	"github.com/jrjohn/tandem-cloud-go/internal/domain/dao"
	"github.com/jrjohn/tandem-cloud-go/internal/domain/dao/memory"
	"github.com/jrjohn/tandem-cloud-go/internal/domain/entity"
	"github.com/jrjohn/tandem-cloud-go/internal/domain/repository"
	repoimpl "github.com/jrjohn/tandem-cloud-go/internal/domain/repository/impl"
	"github.com/jrjohn/tandem-cloud-go/internal/domain/service"
	"github.com/jrjohn/tandem-cloud-go/internal/dto/response"
	"github.com/jrjohn/tandem-cloud-go/internal/notification"
	"github.com/jrjohn/tandem-cloud-go/internal/testutil"
)

// recordingPublisher captures published notifications
type recordingPublisher struct {
	mu   sync.Mutex
	sent []notification.Notification
}

func (p *recordingPublisher) Publish(_ context.Context, n notification.Notification) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sent = append(p.sent, n)
}

func (p *recordingPublisher) all() []notification.Notification {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]notification.Notification(nil), p.sent...)
}

// testEnv wires the real repositories over an in-memory store
type testEnv struct {
	t           *testing.T
	ctx         context.Context
	store       *memory.DocumentStore
	fx          *testutil.Fixtures
	users       repository.UserRepository
	connections repository.ConnectionRepository
	hasShown    repository.HasShownRepository
	profiles    repository.ProfileRepository
	messages    repository.MessageRepository
	limits      *config.Limits
	discovery   config.DiscoveryConfig
	publisher   *recordingPublisher
}

func newTestEnv(t *testing.T) *testEnv {
	store := memory.NewDocumentStore()
	return &testEnv{
		t:           t,
		ctx:         context.Background(),
		store:       store,
		fx:          testutil.NewFixtures(t, store),
		users:       repoimpl.NewUserRepository(store),
		connections: repoimpl.NewConnectionRepository(store),
		hasShown:    repoimpl.NewHasShownRepository(store),
		profiles:    repoimpl.NewProfileRepository(store),
		messages:    repoimpl.NewMessageRepository(store),
		limits:      config.NewLimits(config.DefaultLimitsConfig()),
		discovery:   config.DefaultDiscoveryConfig(),
		publisher:   &recordingPublisher{},
	}
}

func (e *testEnv) discoveryService() *discoveryService {
	return NewDiscoveryService(e.profiles, e.hasShown, e.connections, e.discovery, nil, testutil.NewTestLogger(e.t)).(*discoveryService)
}

func (e *testEnv) connectionService() service.ConnectionService {
	return NewConnectionService(e.users, e.connections, e.hasShown, e.profiles, e.messages, e.limits, e.publisher, nil, testutil.NewTestLogger(e.t))
}

func (e *testEnv) chatService() service.ChatService {
	return NewChatService(e.connections, e.messages, e.profiles, e.limits, e.publisher, nil, testutil.NewTestLogger(e.t))
}

func (e *testEnv) counters(userID string) entity.Counters {
	e.t.Helper()
	return testutil.Get[entity.User](e.t, e.store, entity.CollectionUsers, userID).Counters()
}

func (e *testEnv) connection(id string) *entity.Connection {
	e.t.Helper()
	return testutil.Get[entity.Connection](e.t, e.store, entity.CollectionConnections, id)
}

// shownRow returns the (userID, whoID) has_shown row, or nil.
func (e *testEnv) shownRow(userID, whoID string) *entity.HasShown {
	e.t.Helper()
	var rows []*entity.HasShown
	q := dao.NewQuery().Eq("user", userID).Eq("who", whoID)
	require.NoError(e.t, e.store.List(e.ctx, entity.CollectionHasShown, q, &rows))
	require.LessOrEqual(e.t, len(rows), 1, "duplicate has_shown rows")
	if len(rows) == 0 {
		return nil
	}
	return rows[0]
}

func (e *testEnv) count(collection string) int64 {
	e.t.Helper()
	n, err := e.store.Count(e.ctx, collection, nil)
	require.NoError(e.t, err)
	return n
}

func profileIDs(profiles []response.Profile) []string {
	ids := make([]string, len(profiles))
	for i, p := range profiles {
		ids[i] = p.UserID
	}
	return ids
}
