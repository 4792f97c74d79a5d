package impl

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jrjohn/tandem-cloud-go/internal/config"
	"github.com/jrjohn/tandem-cloud-go/internal/domain/entity"
	"github.com/jrjohn/tandem-cloud-go/internal/domain/repository"
	"github.com/jrjohn/tandem-cloud-go/internal/domain/service"
	"github.com/jrjohn/tandem-cloud-go/internal/dto/request"
	"github.com/jrjohn/tandem-cloud-go/internal/notification"
	"github.com/jrjohn/tandem-cloud-go/internal/security"
	"github.com/jrjohn/tandem-cloud-go/internal/testutil"
)

func seedChat(env *testEnv) {
	seedPair(env)
	env.fx.Connection("c1", "s", "r", entity.StatusChatActive)
}

func TestChatService_SendMessage(t *testing.T) {
	env := newTestEnv(t)
	seedChat(env)
	svc := env.chatService()

	msg, err := svc.SendMessage(env.ctx, sam, "c1", "  hello  ", "")
	require.NoError(t, err)
	assert.Equal(t, entity.MessageText, msg.MessageType)
	assert.Equal(t, "hello", msg.Message)
	assert.Nil(t, msg.ImageURL)
	assert.NotEmpty(t, msg.ID)

	img, err := svc.SendMessage(env.ctx, ria, "c1", "https://cdn/x.jpg", "image")
	require.NoError(t, err)
	assert.Equal(t, entity.ImagePlaceholder, img.Message)
	require.NotNil(t, img.ImageURL)
	assert.Equal(t, "https://cdn/x.jpg", *img.ImageURL)

	assert.Equal(t, 2, env.connection("c1").MessageCount)

	inboxes, err := env.messages.ListInboxes(env.ctx, []string{"c1"})
	require.NoError(t, err)
	require.Contains(t, inboxes, "c1")
	assert.Equal(t, entity.ImagePlaceholder, inboxes["c1"].LatestMessage)
	assert.Equal(t, "r", inboxes["c1"].LatestMessageSender)

	sent := env.publisher.all()
	require.Len(t, sent, 2)
	assert.Equal(t, notification.KindNewMessage, sent[0].Kind)
	assert.Equal(t, []string{"r"}, sent[0].UserIDs)
	assert.Equal(t, []string{"s"}, sent[1].UserIDs)

	msgs, err := svc.GetChatMessages(env.ctx, "r", "c1")
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, msg.ID, msgs[0].ID)
	assert.Equal(t, img.ID, msgs[1].ID)
}

func TestChatService_SendMessage_Rejections(t *testing.T) {
	env := newTestEnv(t)
	seedChat(env)
	env.fx.User("x", "Xan")
	env.fx.Connection("c2", "s", "r", entity.StatusPending)
	svc := env.chatService()

	tests := []struct {
		name    string
		connID  string
		content string
		kind    string
		want    error
	}{
		{"system type", "c1", "hi", "date_proposal", service.ErrInvalidMessageType},
		{"unknown type", "c1", "hi", "video", service.ErrInvalidMessageType},
		{"empty", "c1", "   ", "text", service.ErrEmptyContent},
		{"missing", "nope", "hi", "text", service.ErrConnectionNotFound},
		{"not active", "c2", "hi", "text", service.ErrChatNotActive},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.SendMessage(env.ctx, sam, tt.connID, tt.content, tt.kind)
			if !errors.Is(err, tt.want) {
				t.Errorf("SendMessage() error = %v, want %v", err, tt.want)
			}
		})
	}

	_, err := svc.SendMessage(env.ctx, security.Identity{ID: "x", Name: "Xan"}, "c1", "hi", "text")
	if !errors.Is(err, service.ErrNotParty) {
		t.Errorf("SendMessage() by stranger error = %v, want %v", err, service.ErrNotParty)
	}
	assert.Equal(t, int64(0), env.count(entity.CollectionMessages))
	assert.Equal(t, 0, env.connection("c1").MessageCount)
}

func TestChatService_MessageLimit(t *testing.T) {
	env := newTestEnv(t)
	limits := config.DefaultLimitsConfig()
	limits.MessageLimit = 2
	env.limits.Set(limits)
	seedChat(env)
	svc := env.chatService()

	for i := 0; i < 2; i++ {
		_, err := svc.SendMessage(env.ctx, sam, "c1", "hi", "text")
		require.NoError(t, err)
	}

	_, err := svc.SendMessage(env.ctx, sam, "c1", "one more", "text")
	if !errors.Is(err, service.ErrMessageLimit) {
		t.Errorf("SendMessage() error = %v, want %v", err, service.ErrMessageLimit)
	}
	_, err = svc.ProposeDate(env.ctx, sam, "c1", "2026-05-01T19:00:00Z", "Cafe")
	if !errors.Is(err, service.ErrMessageLimit) {
		t.Errorf("ProposeDate() error = %v, want %v", err, service.ErrMessageLimit)
	}

	conn := env.connection("c1")
	assert.Equal(t, 2, conn.MessageCount)
	assert.Equal(t, entity.ProposalNone, conn.DateProposalStatus)
	assert.Equal(t, int64(2), env.count(entity.CollectionMessages))

	state, err := svc.GetChatState(env.ctx, "s", "c1")
	require.NoError(t, err)
	assert.Equal(t, 0, state.RemainingMessages)
	assert.False(t, state.CanProposeDate)
}

func TestChatService_RespondAtMessageLimit(t *testing.T) {
	env := newTestEnv(t)
	seedChat(env)
	svc := env.chatService()

	_, err := svc.ProposeDate(env.ctx, sam, "c1", "Friday", "Cinema")
	require.NoError(t, err)

	limits := config.DefaultLimitsConfig()
	limits.MessageLimit = 1
	env.limits.Set(limits)

	for _, kind := range []string{service.ResponseAccept, service.ResponseReject, service.ResponseModify} {
		_, err := svc.RespondToDateProposal(env.ctx, ria, "c1", kind, &request.DateDetails{Date: "Sunday", Place: "Park"})
		if !errors.Is(err, service.ErrMessageLimit) {
			t.Errorf("RespondToDateProposal(%s) error = %v, want %v", kind, err, service.ErrMessageLimit)
		}
	}

	conn := env.connection("c1")
	assert.Equal(t, entity.ProposalProposed, conn.DateProposalStatus)
	assert.Equal(t, "Cinema", *conn.DateProposalPlace)
	assert.Equal(t, "Friday", *conn.DateProposalDate)
	assert.Equal(t, "s", *conn.DateProposalLastActionBy)
	assert.Equal(t, 1, conn.MessageCount)
	assert.Equal(t, int64(1), env.count(entity.CollectionMessages))
}

// staleConnections serves connections whose message count lags the store,
// as when another message lands between the read and the write.
type staleConnections struct {
	repository.ConnectionRepository
	lag int
}

func (r *staleConnections) GetByID(ctx context.Context, id string) (*entity.Connection, error) {
	conn, err := r.ConnectionRepository.GetByID(ctx, id)
	if conn != nil {
		conn.MessageCount = max(0, conn.MessageCount-r.lag)
	}
	return conn, err
}

func TestChatService_DateChangesNeedBudgetAtWriteTime(t *testing.T) {
	env := newTestEnv(t)
	seedChat(env)
	limits := config.DefaultLimitsConfig()
	limits.MessageLimit = 2
	env.limits.Set(limits)

	_, err := env.chatService().SendMessage(env.ctx, sam, "c1", "hi", "text")
	require.NoError(t, err)
	_, err = env.chatService().SendMessage(env.ctx, ria, "c1", "hey", "text")
	require.NoError(t, err)

	stale := NewChatService(&staleConnections{ConnectionRepository: env.connections, lag: 1},
		env.messages, env.profiles, env.limits, env.publisher, nil, testutil.NewTestLogger(t))

	_, err = stale.ProposeDate(env.ctx, sam, "c1", "Friday", "Cinema")
	if !errors.Is(err, service.ErrMessageLimit) {
		t.Errorf("ProposeDate() error = %v, want %v", err, service.ErrMessageLimit)
	}
	conn := env.connection("c1")
	assert.Equal(t, entity.ProposalNone, conn.DateProposalStatus)
	assert.Nil(t, conn.DateProposalPlace)
	assert.Equal(t, 2, conn.MessageCount)

	// Open a proposal with room to spare, then fill the budget behind a stale read.
	limits.MessageLimit = 3
	env.limits.Set(limits)
	_, err = env.chatService().ProposeDate(env.ctx, sam, "c1", "Friday", "Cinema")
	require.NoError(t, err)

	_, err = stale.RespondToDateProposal(env.ctx, ria, "c1", service.ResponseModify, &request.DateDetails{Date: "Sunday", Place: "Park"})
	if !errors.Is(err, service.ErrMessageLimit) {
		t.Errorf("RespondToDateProposal() error = %v, want %v", err, service.ErrMessageLimit)
	}
	conn = env.connection("c1")
	assert.Equal(t, entity.ProposalProposed, conn.DateProposalStatus)
	assert.Equal(t, "Cinema", *conn.DateProposalPlace)
	assert.Equal(t, "s", *conn.DateProposalLastActionBy)
	assert.Equal(t, 3, conn.MessageCount)
	assert.Equal(t, int64(3), env.count(entity.CollectionMessages))
}

func TestChatService_LostProposalRaceReleasesBudget(t *testing.T) {
	env := newTestEnv(t)
	seedChat(env)
	svc := env.chatService()

	_, err := svc.ProposeDate(env.ctx, sam, "c1", "Friday", "Cinema")
	require.NoError(t, err)

	// A stale "none" snapshot loses the compare-and-set against the live proposal.
	raced := NewChatService(&noProposalConnections{env.connections},
		env.messages, env.profiles, env.limits, env.publisher, nil, testutil.NewTestLogger(t))
	_, err = raced.ProposeDate(env.ctx, ria, "c1", "Sunday", "Park")
	if !errors.Is(err, service.ErrProposalInFlight) {
		t.Errorf("ProposeDate() error = %v, want %v", err, service.ErrProposalInFlight)
	}

	conn := env.connection("c1")
	assert.Equal(t, 1, conn.MessageCount)
	assert.Equal(t, "Cinema", *conn.DateProposalPlace)
}

// noProposalConnections hides any open proposal from the caller.
type noProposalConnections struct {
	repository.ConnectionRepository
}

func (r *noProposalConnections) GetByID(ctx context.Context, id string) (*entity.Connection, error) {
	conn, err := r.ConnectionRepository.GetByID(ctx, id)
	if conn != nil {
		conn.DateProposalStatus = entity.ProposalNone
	}
	return conn, err
}

func TestChatService_ProposeThenModify(t *testing.T) {
	env := newTestEnv(t)
	seedChat(env)
	svc := env.chatService()

	conn, err := svc.ProposeDate(env.ctx, sam, "c1", "2026-05-01T19:00:00Z", "Cafe Luna")
	require.NoError(t, err)
	assert.Equal(t, entity.ProposalProposed, conn.DateProposalStatus)
	assert.Equal(t, "s", *conn.DateProposalProposerID)
	assert.Equal(t, "s", *conn.DateProposalLastActionBy)
	assert.Equal(t, 1, conn.MessageCount)

	_, err = svc.ProposeDate(env.ctx, ria, "c1", "tomorrow", "Park")
	if !errors.Is(err, service.ErrProposalInFlight) {
		t.Errorf("ProposeDate() in flight error = %v, want %v", err, service.ErrProposalInFlight)
	}

	_, err = svc.RespondToDateProposal(env.ctx, sam, "c1", service.ResponseAccept, nil)
	if !errors.Is(err, service.ErrSelfResponse) {
		t.Errorf("RespondToDateProposal() self error = %v, want %v", err, service.ErrSelfResponse)
	}

	conn, err = svc.RespondToDateProposal(env.ctx, ria, "c1", service.ResponseModify, &request.DateDetails{Date: "Saturday", Place: "Park"})
	require.NoError(t, err)
	assert.Equal(t, entity.ProposalModified, conn.DateProposalStatus)
	assert.Equal(t, "Saturday", *conn.DateProposalDate)
	assert.Equal(t, "Park", *conn.DateProposalPlace)
	assert.Equal(t, "s", *conn.DateProposalProposerID)
	assert.Equal(t, "r", *conn.DateProposalLastActionBy)
	assert.Equal(t, 2, conn.MessageCount)

	state, err := svc.GetChatState(env.ctx, "s", "c1")
	require.NoError(t, err)
	assert.True(t, state.CanRespondToDate)
	assert.False(t, state.CanProposeDate)
	assert.Equal(t, "r", state.PartnerID)

	conn, err = svc.RespondToDateProposal(env.ctx, sam, "c1", "ACCEPT", nil)
	require.NoError(t, err)
	assert.Equal(t, entity.ProposalAccepted, conn.DateProposalStatus)
	assert.Equal(t, "Park", *conn.DateProposalPlace)

	msgs, err := svc.GetChatMessages(env.ctx, "s", "c1")
	require.NoError(t, err)
	require.Len(t, msgs, 3)
	assert.Equal(t, entity.MessageDateProposal, msgs[0].MessageType)
	assert.Equal(t, "Sam proposed a date at Cafe Luna on Fri, May 1 2026 at 7:00 PM", msgs[0].Message)
	assert.Equal(t, entity.MessageDateResponse, msgs[1].MessageType)
	assert.Equal(t, "Ria suggested a new plan: Park on Saturday", msgs[1].Message)
	assert.Equal(t, "Sam accepted the date at Park on Saturday", msgs[2].Message)

	kinds := []notification.Kind{}
	for _, n := range env.publisher.all() {
		kinds = append(kinds, n.Kind)
	}
	assert.Equal(t, []notification.Kind{notification.KindDateProposal, notification.KindDateResponse, notification.KindDateResponse}, kinds)
}

func TestChatService_RejectClearsProposal(t *testing.T) {
	env := newTestEnv(t)
	seedChat(env)
	svc := env.chatService()

	_, err := svc.ProposeDate(env.ctx, sam, "c1", "Friday", "Cinema")
	require.NoError(t, err)

	conn, err := svc.RespondToDateProposal(env.ctx, ria, "c1", service.ResponseReject, nil)
	require.NoError(t, err)
	assert.Equal(t, entity.ProposalRejected, conn.DateProposalStatus)
	assert.Nil(t, conn.DateProposalDate)
	assert.Nil(t, conn.DateProposalPlace)
	assert.Nil(t, conn.DateProposalProposerID)
	assert.Equal(t, "r", *conn.DateProposalLastActionBy)

	// A settled proposal can be followed by a new one.
	conn, err = svc.ProposeDate(env.ctx, ria, "c1", "Sunday", "Museum")
	require.NoError(t, err)
	assert.Equal(t, entity.ProposalProposed, conn.DateProposalStatus)
	assert.Equal(t, "r", *conn.DateProposalProposerID)
}

func TestChatService_RespondValidation(t *testing.T) {
	env := newTestEnv(t)
	seedChat(env)
	svc := env.chatService()

	_, err := svc.RespondToDateProposal(env.ctx, ria, "c1", service.ResponseAccept, nil)
	if !errors.Is(err, service.ErrNoActiveProposal) {
		t.Errorf("RespondToDateProposal() without proposal error = %v, want %v", err, service.ErrNoActiveProposal)
	}

	_, err = svc.RespondToDateProposal(env.ctx, ria, "c1", "maybe", nil)
	if !errors.Is(err, service.ErrInvalidResponseType) {
		t.Errorf("RespondToDateProposal() error = %v, want %v", err, service.ErrInvalidResponseType)
	}

	_, err = svc.RespondToDateProposal(env.ctx, ria, "c1", service.ResponseModify, &request.DateDetails{Date: "Sunday"})
	if !errors.Is(err, service.ErrModifyDetailsRequired) {
		t.Errorf("RespondToDateProposal() error = %v, want %v", err, service.ErrModifyDetailsRequired)
	}

	_, err = svc.ProposeDate(env.ctx, sam, "c1", "", "Cafe")
	if !errors.Is(err, service.ErrDateDetailsRequired) {
		t.Errorf("ProposeDate() error = %v, want %v", err, service.ErrDateDetailsRequired)
	}
	assert.Equal(t, 0, env.connection("c1").MessageCount)
}

func TestChatService_GetChatMessages_RequiresParty(t *testing.T) {
	env := newTestEnv(t)
	seedChat(env)

	_, err := env.chatService().GetChatMessages(env.ctx, "x", "c1")
	if !errors.Is(err, service.ErrNotParty) {
		t.Errorf("GetChatMessages() error = %v, want %v", err, service.ErrNotParty)
	}

	msgs, err := env.chatService().GetChatMessages(env.ctx, "s", "c1")
	require.NoError(t, err)
	assert.NotNil(t, msgs)
	assert.Empty(t, msgs)
}

func TestChatService_TranscriptCap(t *testing.T) {
	env := newTestEnv(t)
	limits := config.DefaultLimitsConfig()
	limits.TranscriptLimit = 3
	env.limits.Set(limits)
	seedChat(env)
	svc := env.chatService()

	for i := 0; i < 5; i++ {
		_, err := svc.SendMessage(env.ctx, sam, "c1", "hi", "text")
		require.NoError(t, err)
	}

	msgs, err := svc.GetChatMessages(env.ctx, "r", "c1")
	require.NoError(t, err)
	assert.Len(t, msgs, 3)
}

func TestFormatDate(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"2026-05-01T19:00:00Z", "Fri, May 1 2026 at 7:00 PM"},
		{"next Friday", "next Friday"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := formatDate(tt.in); got != tt.want {
			t.Errorf("formatDate(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
