package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/jrjohn/tandem-cloud-go/internal/config"
	"github.com/jrjohn/tandem-cloud-go/internal/domain/entity"
	"github.com/jrjohn/tandem-cloud-go/internal/domain/service"
	"github.com/jrjohn/tandem-cloud-go/internal/dto/request"
	"github.com/jrjohn/tandem-cloud-go/internal/dto/response"
	"github.com/jrjohn/tandem-cloud-go/internal/middleware"
	"github.com/jrjohn/tandem-cloud-go/internal/security"
	"github.com/jrjohn/tandem-cloud-go/internal/testutil/mocks"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testServer struct {
	router      *gin.Engine
	token       string
	discovery   *mocks.MockDiscoveryService
	connections *mocks.MockConnectionService
	chats       *mocks.MockChatService
	logs        *observer.ObservedLogs
}

func setupTestServer(t *testing.T) *testServer {
	t.Helper()

	provider := security.NewJWTProvider(&config.JWTConfig{
		Secret: "test-secret-key-for-testing-purposes-only",
		Issuer: "test",
	})
	token, err := provider.IssueToken(security.Identity{ID: "u1", Name: "Sam"}, time.Hour)
	require.NoError(t, err)

	core, logs := observer.New(zapcore.DebugLevel)
	logger := zap.New(core)

	s := &testServer{
		router:      gin.New(),
		token:       token,
		discovery:   mocks.NewMockDiscoveryService(),
		connections: mocks.NewMockConnectionService(),
		chats:       mocks.NewMockChatService(),
		logs:        logs,
	}

	auth := middleware.NewAuthMiddleware(security.NewSecurityService(provider))
	api := s.router.Group("", auth.Authenticate())
	NewDiscoveryController(s.discovery, logger).RegisterRoutes(api)
	NewInvitationController(s.connections, logger).RegisterRoutes(api)
	NewChatController(s.connections, s.chats, logger).RegisterRoutes(api)
	return s
}

func (s *testServer) do(method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	req.Header.Set("Authorization", "Bearer "+s.token)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func TestRoutes_RequireAuthentication(t *testing.T) {
	s := setupTestServer(t)

	routes := []struct{ method, path string }{
		{http.MethodGet, "/explore/next-batch"},
		{http.MethodGet, "/profiles/random-simple"},
		{http.MethodPost, "/notification/invitations/send"},
		{http.MethodGet, "/notification/invitations/active"},
		{http.MethodPost, "/notification/invitations/remove-sent"},
		{http.MethodGet, "/notification/invitations/received/active"},
		{http.MethodPost, "/notification/invitations/decline"},
		{http.MethodPost, "/notification/invitations/accept"},
		{http.MethodGet, "/chats/active"},
		{http.MethodPost, "/chats/remove"},
		{http.MethodGet, "/chats/c1/chat-state"},
		{http.MethodPost, "/chats/c1/messages"},
		{http.MethodGet, "/chats/c1/messages"},
		{http.MethodPost, "/chats/c1/propose-date"},
		{http.MethodPost, "/chats/c1/respond-date"},
	}
	for _, r := range routes {
		t.Run(r.method+" "+r.path, func(t *testing.T) {
			w := httptest.NewRecorder()
			s.router.ServeHTTP(w, httptest.NewRequest(r.method, r.path, nil))
			if w.Code != http.StatusUnauthorized {
				t.Errorf("Status = %v, want %v", w.Code, http.StatusUnauthorized)
			}
		})
	}
}

// Discovery Controller Tests
func TestDiscoveryController_NextBatch(t *testing.T) {
	s := setupTestServer(t)

	var gotUser string
	var gotPage int
	s.discovery.NextBatchFunc = func(_ context.Context, userID string, page int) ([]response.Profile, error) {
		gotUser, gotPage = userID, page
		return []response.Profile{{UserID: "u2", Name: "Ria"}}, nil
	}

	w := s.do(http.MethodGet, "/explore/next-batch?page=2", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "u1", gotUser)
	assert.Equal(t, 2, gotPage)

	body := decode[response.ProfilesResponse](t, w)
	require.Len(t, body.Profiles, 1)
	assert.Equal(t, "Ria", body.Profiles[0].Name)
}

func TestDiscoveryController_NextBatch_Errors(t *testing.T) {
	s := setupTestServer(t)

	w := s.do(http.MethodGet, "/explore/next-batch?page=abc", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"page must be an integer"}`, w.Body.String())

	s.discovery.NextBatchFunc = func(context.Context, string, int) ([]response.Profile, error) {
		return nil, service.ErrLocationNotFound
	}
	w = s.do(http.MethodGet, "/explore/next-batch", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"error":"user location not found"}`, w.Body.String())
}

func TestDiscoveryController_RandomBatch(t *testing.T) {
	s := setupTestServer(t)

	var gotLimit int
	s.discovery.RandomBatchFunc = func(_ context.Context, _ string, limit int) ([]response.Profile, error) {
		gotLimit = limit
		return nil, nil
	}

	w := s.do(http.MethodGet, "/profiles/random-simple?limit=7", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 7, gotLimit)
}

// Invitation Controller Tests
func TestInvitationController_Send(t *testing.T) {
	s := setupTestServer(t)

	var gotCaller security.Identity
	var gotReceiver string
	s.connections.SendInvitationFunc = func(_ context.Context, caller security.Identity, receiverID string) (*response.SendInvitationResponse, error) {
		gotCaller, gotReceiver = caller, receiverID
		return &response.SendInvitationResponse{
			Message:           "Invitation sent successfully",
			Success:           true,
			ConnectionID:      "c1",
			VisibleToReceiver: true,
		}, nil
	}

	w := s.do(http.MethodPost, "/notification/invitations/send", `{"receiverUserId":"u2"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, security.Identity{ID: "u1", Name: "Sam"}, gotCaller)
	assert.Equal(t, "u2", gotReceiver)

	body := decode[response.SendInvitationResponse](t, w)
	assert.True(t, body.Success)
	assert.True(t, body.VisibleToReceiver)
}

func TestInvitationController_Send_Errors(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		err        error
		wantStatus int
		wantBody   string
	}{
		{"missing receiver", `{}`, nil, http.StatusBadRequest, `{"error":"receiverUserId is required"}`},
		{"malformed json", `{`, nil, http.StatusBadRequest, `{"error":"invalid request body"}`},
		{"self", `{"receiverUserId":"u1"}`, service.ErrSelfInvitation, http.StatusBadRequest, `{"error":"cannot send an invitation to yourself"}`},
		{"quota", `{"receiverUserId":"u2"}`, service.ErrSentQuota, http.StatusForbidden, `{"error":"maximum active sent invitations reached"}`},
		{"duplicate", `{"receiverUserId":"u2"}`, service.ErrAlreadyConnected, http.StatusConflict, `{"error":"a connection with this user already exists"}`},
		{"unknown user", `{"receiverUserId":"u9"}`, service.ErrUserNotFound, http.StatusNotFound, `{"error":"user not found"}`},
		{"store failure", `{"receiverUserId":"u2"}`, errors.New("mongo: connection refused"), http.StatusInternalServerError, `{"error":"internal server error"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := setupTestServer(t)
			s.connections.SendInvitationFunc = func(context.Context, security.Identity, string) (*response.SendInvitationResponse, error) {
				return nil, tt.err
			}

			w := s.do(http.MethodPost, "/notification/invitations/send", tt.body)
			if w.Code != tt.wantStatus {
				t.Errorf("Send() status = %v, want %v", w.Code, tt.wantStatus)
			}
			assert.JSONEq(t, tt.wantBody, w.Body.String())
		})
	}
}

func TestInvitationController_InternalErrorsAreLogged(t *testing.T) {
	s := setupTestServer(t)
	s.connections.ListSentActiveFunc = func(context.Context, string) ([]response.Invitation, error) {
		return nil, errors.New("boom")
	}

	w := s.do(http.MethodGet, "/notification/invitations/active", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, 1, s.logs.FilterMessage("Request failed").Len())

	// Client errors are not logged as failures.
	s.connections.ListSentActiveFunc = func(context.Context, string) ([]response.Invitation, error) {
		return nil, service.ErrUserNotFound
	}
	s.do(http.MethodGet, "/notification/invitations/active", "")
	assert.Equal(t, 1, s.logs.FilterMessage("Request failed").Len())
}

func TestInvitationController_Lists(t *testing.T) {
	s := setupTestServer(t)
	s.connections.ListSentActiveFunc = func(context.Context, string) ([]response.Invitation, error) {
		return []response.Invitation{{ConnectionID: "c1", Status: entity.StatusPending}}, nil
	}
	s.connections.ListReceivedActiveFunc = func(context.Context, string) ([]response.Invitation, error) {
		return []response.Invitation{{ConnectionID: "c2"}, {ConnectionID: "c3"}}, nil
	}

	w := s.do(http.MethodGet, "/notification/invitations/active", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[response.InvitationsResponse](t, w).Invitations, 1)

	w = s.do(http.MethodGet, "/notification/invitations/received/active", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[response.InvitationsResponse](t, w).Invitations, 2)
}

func TestInvitationController_Actions(t *testing.T) {
	s := setupTestServer(t)

	var removed, declined string
	s.connections.RemoveSentInvitationFunc = func(_ context.Context, _ string, connectionID string) error {
		removed = connectionID
		return nil
	}
	s.connections.DeclineInvitationFunc = func(_ context.Context, userID, connectionID string) error {
		if userID != "u1" {
			return service.ErrNotParty
		}
		declined = connectionID
		return nil
	}

	w := s.do(http.MethodPost, "/notification/invitations/remove-sent", `{"connectionId":"c1"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message":"Invitation removed successfully","success":true}`, w.Body.String())
	assert.Equal(t, "c1", removed)

	w = s.do(http.MethodPost, "/notification/invitations/decline", `{"connectionId":"c2"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "c2", declined)

	w = s.do(http.MethodPost, "/notification/invitations/decline", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"connectionId is required"}`, w.Body.String())

	s.connections.RemoveSentInvitationFunc = func(context.Context, string, string) error {
		return service.ErrNotPending
	}
	w = s.do(http.MethodPost, "/notification/invitations/remove-sent", `{"connectionId":"c1"}`)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestInvitationController_Accept(t *testing.T) {
	s := setupTestServer(t)

	w := s.do(http.MethodPost, "/notification/invitations/accept", `{"connectionId":"c1"}`)
	require.Equal(t, http.StatusOK, w.Code)

	body := decode[response.AcceptResponse](t, w)
	assert.True(t, body.Success)
	require.NotNil(t, body.NewChat)
	assert.Equal(t, "c1", body.NewChat.ConnectionID)

	s.connections.AcceptInvitationFunc = func(context.Context, security.Identity, string) (*response.Chat, error) {
		return nil, service.ErrChatQuota
	}
	w = s.do(http.MethodPost, "/notification/invitations/accept", `{"connectionId":"c1"}`)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.JSONEq(t, `{"error":"maximum active chats reached"}`, w.Body.String())
}

// Chat Controller Tests
func TestChatController_ListAndRemove(t *testing.T) {
	s := setupTestServer(t)
	s.connections.ListActiveChatsFunc = func(context.Context, string) ([]response.Chat, error) {
		return []response.Chat{{ConnectionID: "c1", RemainingMessages: 100}}, nil
	}

	w := s.do(http.MethodGet, "/chats/active", "")
	require.Equal(t, http.StatusOK, w.Code)
	chats := decode[response.ChatsResponse](t, w).Chats
	require.Len(t, chats, 1)
	assert.Equal(t, 100, chats[0].RemainingMessages)

	w = s.do(http.MethodPost, "/chats/remove", `{"connectionId":"c1"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"message":"Chat removed successfully","success":true}`, w.Body.String())
}

func TestChatController_State(t *testing.T) {
	s := setupTestServer(t)

	w := s.do(http.MethodGet, "/chats/c1/chat-state", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "c1", decode[response.ChatState](t, w).ConnectionID)

	s.chats.GetChatStateFunc = func(context.Context, string, string) (*response.ChatState, error) {
		return nil, service.ErrConnectionNotFound
	}
	w = s.do(http.MethodGet, "/chats/missing/chat-state", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestChatController_SendMessage(t *testing.T) {
	s := setupTestServer(t)

	w := s.do(http.MethodPost, "/chats/c1/messages", `{"content":"hi","messageType":"text"}`)
	require.Equal(t, http.StatusOK, w.Code)

	body := decode[response.SendMessageResponse](t, w)
	assert.Equal(t, "Message sent successfully", body.Message)
	require.NotNil(t, body.MessageData)
	assert.Equal(t, "c1", body.MessageData.ConnectionID)
	assert.Equal(t, "u1", body.MessageData.SenderID)
	assert.Equal(t, "hi", body.MessageData.Message)

	w = s.do(http.MethodPost, "/chats/c1/messages", `{"messageType":"text"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"content is required"}`, w.Body.String())

	s.chats.SendMessageFunc = func(context.Context, security.Identity, string, string, string) (*entity.Message, error) {
		return nil, service.ErrMessageLimit
	}
	w = s.do(http.MethodPost, "/chats/c1/messages", `{"content":"hi"}`)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.JSONEq(t, `{"error":"message limit reached for this chat"}`, w.Body.String())
}

func TestChatController_Messages(t *testing.T) {
	s := setupTestServer(t)
	s.chats.GetChatMessagesFunc = func(_ context.Context, userID, connectionID string) ([]*entity.Message, error) {
		return []*entity.Message{
			{ID: "m1", ConnectionID: connectionID, SenderID: userID, Message: "first"},
			{ID: "m2", ConnectionID: connectionID, SenderID: "u2", Message: "second"},
		}, nil
	}

	w := s.do(http.MethodGet, "/chats/c1/messages", "")
	require.Equal(t, http.StatusOK, w.Code)
	messages := decode[response.MessagesResponse](t, w).Messages
	require.Len(t, messages, 2)
	assert.Equal(t, "first", messages[0].Message)
}

func TestChatController_ProposeDate(t *testing.T) {
	s := setupTestServer(t)

	w := s.do(http.MethodPost, "/chats/c1/propose-date", `{"date":"2026-05-01T19:00:00Z","place":"Cafe Luna"}`)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode[response.ConnectionResponse](t, w)
	require.NotNil(t, body.Connection)
	assert.Equal(t, entity.ProposalProposed, body.Connection.DateProposalStatus)

	w = s.do(http.MethodPost, "/chats/c1/propose-date", `{"date":"2026-05-01T19:00:00Z"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"place is required"}`, w.Body.String())

	s.chats.ProposeDateFunc = func(context.Context, security.Identity, string, string, string) (*entity.Connection, error) {
		return nil, service.ErrProposalInFlight
	}
	w = s.do(http.MethodPost, "/chats/c1/propose-date", `{"date":"tomorrow","place":"Park"}`)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestChatController_RespondDate(t *testing.T) {
	s := setupTestServer(t)

	var gotType string
	var gotDetails *request.DateDetails
	s.chats.RespondToDateProposalFunc = func(_ context.Context, _ security.Identity, connectionID, responseType string, details *request.DateDetails) (*entity.Connection, error) {
		gotType, gotDetails = responseType, details
		return &entity.Connection{ID: connectionID, DateProposalStatus: entity.ProposalModified}, nil
	}

	w := s.do(http.MethodPost, "/chats/c1/respond-date", `{"responseType":"modify","newDetails":{"date":"Saturday","place":"Park"}}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, service.ResponseModify, gotType)
	require.NotNil(t, gotDetails)
	assert.Equal(t, "Park", gotDetails.Place)

	w = s.do(http.MethodPost, "/chats/c1/respond-date", `{"responseType":"accept"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Nil(t, gotDetails)

	w = s.do(http.MethodPost, "/chats/c1/respond-date", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"responseType is required"}`, w.Body.String())
}

// Health Controller Tests
func TestHealthController_Health(t *testing.T) {
	router := gin.New()
	NewHealthController(nil, nil, "", zap.NewNop()).RegisterRoutes(router)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, w.Code)
	body := decode[response.HealthResponse](t, w)
	assert.Equal(t, "ok", body.Status)
	assert.WithinDuration(t, time.Now(), body.Timestamp, time.Minute)

	// No metrics provider means no metrics route.
	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHealthController_Ready(t *testing.T) {
	tests := []struct {
		name       string
		checks     map[string]Check
		wantStatus int
		wantChecks map[string]string
	}{
		{
			name:       "no checks",
			checks:     nil,
			wantStatus: http.StatusOK,
			wantChecks: map[string]string{},
		},
		{
			name: "all up",
			checks: map[string]Check{
				"store": func(context.Context) error { return nil },
				"redis": func(context.Context) error { return nil },
			},
			wantStatus: http.StatusOK,
			wantChecks: map[string]string{"store": "up", "redis": "up"},
		},
		{
			name: "redis down",
			checks: map[string]Check{
				"store": func(context.Context) error { return nil },
				"redis": func(context.Context) error { return errors.New("dial tcp: refused") },
			},
			wantStatus: http.StatusServiceUnavailable,
			wantChecks: map[string]string{"store": "up", "redis": "down"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := gin.New()
			NewHealthController(tt.checks, nil, "", zap.NewNop()).RegisterRoutes(router)

			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ready", nil))

			if w.Code != tt.wantStatus {
				t.Errorf("Ready() status = %v, want %v", w.Code, tt.wantStatus)
			}
			assert.Equal(t, tt.wantChecks, decode[response.ReadinessResponse](t, w).Checks)
		})
	}
}

func TestBindMessage(t *testing.T) {
	if got := bindMessage(errors.New("EOF")); got != "invalid request body" {
		t.Errorf("bindMessage() = %v, want invalid request body", got)
	}
}
