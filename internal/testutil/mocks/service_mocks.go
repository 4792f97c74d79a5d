package mocks

import (
	"context"
	"sync/atomic"

	"github.com/jrjohn/tandem-cloud-go/internal/domain/entity"
	"github.com/jrjohn/tandem-cloud-go/internal/domain/service"
	"github.com/jrjohn/tandem-cloud-go/internal/dto/request"
	"github.com/jrjohn/tandem-cloud-go/internal/dto/response"
	"github.com/jrjohn/tandem-cloud-go/internal/security"
)

// MockDiscoveryService is a mock implementation of DiscoveryService
type MockDiscoveryService struct {
	NextBatchFunc   func(ctx context.Context, userID string, page int) ([]response.Profile, error)
	RandomBatchFunc func(ctx context.Context, userID string, limit int) ([]response.Profile, error)
}

func NewMockDiscoveryService() *MockDiscoveryService {
	return &MockDiscoveryService{}
}

func (m *MockDiscoveryService) NextBatch(ctx context.Context, userID string, page int) ([]response.Profile, error) {
	if m.NextBatchFunc != nil {
		return m.NextBatchFunc(ctx, userID, page)
	}
	return []response.Profile{}, nil
}

func (m *MockDiscoveryService) RandomBatch(ctx context.Context, userID string, limit int) ([]response.Profile, error) {
	if m.RandomBatchFunc != nil {
		return m.RandomBatchFunc(ctx, userID, limit)
	}
	return []response.Profile{}, nil
}

// MockConnectionService is a mock implementation of ConnectionService
type MockConnectionService struct {
	SendInvitationFunc       func(ctx context.Context, caller security.Identity, receiverID string) (*response.SendInvitationResponse, error)
	ListSentActiveFunc       func(ctx context.Context, userID string) ([]response.Invitation, error)
	ListReceivedActiveFunc   func(ctx context.Context, userID string) ([]response.Invitation, error)
	RemoveSentInvitationFunc func(ctx context.Context, userID, connectionID string) error
	DeclineInvitationFunc    func(ctx context.Context, userID, connectionID string) error
	AcceptInvitationFunc     func(ctx context.Context, caller security.Identity, connectionID string) (*response.Chat, error)
	ListActiveChatsFunc      func(ctx context.Context, userID string) ([]response.Chat, error)
	RemoveChatFunc           func(ctx context.Context, userID, connectionID string) error
}

func NewMockConnectionService() *MockConnectionService {
	return &MockConnectionService{}
}

func (m *MockConnectionService) SendInvitation(ctx context.Context, caller security.Identity, receiverID string) (*response.SendInvitationResponse, error) {
	if m.SendInvitationFunc != nil {
		return m.SendInvitationFunc(ctx, caller, receiverID)
	}
	return &response.SendInvitationResponse{Message: "Invitation sent successfully", ConnectionID: "mock-connection"}, nil
}

func (m *MockConnectionService) ListSentActive(ctx context.Context, userID string) ([]response.Invitation, error) {
	if m.ListSentActiveFunc != nil {
		return m.ListSentActiveFunc(ctx, userID)
	}
	return []response.Invitation{}, nil
}

func (m *MockConnectionService) ListReceivedActive(ctx context.Context, userID string) ([]response.Invitation, error) {
	if m.ListReceivedActiveFunc != nil {
		return m.ListReceivedActiveFunc(ctx, userID)
	}
	return []response.Invitation{}, nil
}

func (m *MockConnectionService) RemoveSentInvitation(ctx context.Context, userID, connectionID string) error {
	if m.RemoveSentInvitationFunc != nil {
		return m.RemoveSentInvitationFunc(ctx, userID, connectionID)
	}
	return nil
}

func (m *MockConnectionService) DeclineInvitation(ctx context.Context, userID, connectionID string) error {
	if m.DeclineInvitationFunc != nil {
		return m.DeclineInvitationFunc(ctx, userID, connectionID)
	}
	return nil
}

func (m *MockConnectionService) AcceptInvitation(ctx context.Context, caller security.Identity, connectionID string) (*response.Chat, error) {
	if m.AcceptInvitationFunc != nil {
		return m.AcceptInvitationFunc(ctx, caller, connectionID)
	}
	return &response.Chat{ConnectionID: connectionID, DateProposalStatus: entity.ProposalNone}, nil
}

func (m *MockConnectionService) ListActiveChats(ctx context.Context, userID string) ([]response.Chat, error) {
	if m.ListActiveChatsFunc != nil {
		return m.ListActiveChatsFunc(ctx, userID)
	}
	return []response.Chat{}, nil
}

func (m *MockConnectionService) RemoveChat(ctx context.Context, userID, connectionID string) error {
	if m.RemoveChatFunc != nil {
		return m.RemoveChatFunc(ctx, userID, connectionID)
	}
	return nil
}

// MockChatService is a mock implementation of ChatService
type MockChatService struct {
	GetChatStateFunc          func(ctx context.Context, userID, connectionID string) (*response.ChatState, error)
	SendMessageFunc           func(ctx context.Context, caller security.Identity, connectionID, content, messageType string) (*entity.Message, error)
	ProposeDateFunc           func(ctx context.Context, caller security.Identity, connectionID, date, place string) (*entity.Connection, error)
	RespondToDateProposalFunc func(ctx context.Context, caller security.Identity, connectionID, responseType string, details *request.DateDetails) (*entity.Connection, error)
	GetChatMessagesFunc       func(ctx context.Context, userID, connectionID string) ([]*entity.Message, error)
}

func NewMockChatService() *MockChatService {
	return &MockChatService{}
}

func (m *MockChatService) GetChatState(ctx context.Context, userID, connectionID string) (*response.ChatState, error) {
	if m.GetChatStateFunc != nil {
		return m.GetChatStateFunc(ctx, userID, connectionID)
	}
	return &response.ChatState{ConnectionID: connectionID, Status: entity.StatusChatActive}, nil
}

func (m *MockChatService) SendMessage(ctx context.Context, caller security.Identity, connectionID, content, messageType string) (*entity.Message, error) {
	if m.SendMessageFunc != nil {
		return m.SendMessageFunc(ctx, caller, connectionID, content, messageType)
	}
	return &entity.Message{
		ID:           "mock-message",
		ConnectionID: connectionID,
		SenderID:     caller.ID,
		MessageType:  entity.MessageType(messageType),
		Message:      content,
	}, nil
}

func (m *MockChatService) ProposeDate(ctx context.Context, caller security.Identity, connectionID, date, place string) (*entity.Connection, error) {
	if m.ProposeDateFunc != nil {
		return m.ProposeDateFunc(ctx, caller, connectionID, date, place)
	}
	return &entity.Connection{
		ID:                       connectionID,
		Status:                   entity.StatusChatActive,
		DateProposalStatus:       entity.ProposalProposed,
		DateProposalDate:         &date,
		DateProposalPlace:        &place,
		DateProposalProposerID:   &caller.ID,
		DateProposalLastActionBy: &caller.ID,
	}, nil
}

func (m *MockChatService) RespondToDateProposal(ctx context.Context, caller security.Identity, connectionID, responseType string, details *request.DateDetails) (*entity.Connection, error) {
	if m.RespondToDateProposalFunc != nil {
		return m.RespondToDateProposalFunc(ctx, caller, connectionID, responseType, details)
	}
	return &entity.Connection{
		ID:                       connectionID,
		Status:                   entity.StatusChatActive,
		DateProposalStatus:       entity.ProposalAccepted,
		DateProposalLastActionBy: &caller.ID,
	}, nil
}

func (m *MockChatService) GetChatMessages(ctx context.Context, userID, connectionID string) ([]*entity.Message, error) {
	if m.GetChatMessagesFunc != nil {
		return m.GetChatMessagesFunc(ctx, userID, connectionID)
	}
	return []*entity.Message{}, nil
}

// MockReconcileService is a mock implementation of ReconcileService
type MockReconcileService struct {
	ReconcileUserFunc func(ctx context.Context, userID string) (bool, error)
	ReconcileAllFunc  func(ctx context.Context) (*service.ReconcileReport, error)

	calls atomic.Int64
}

func (m *MockReconcileService) ReconcileUser(ctx context.Context, userID string) (bool, error) {
	if m.ReconcileUserFunc != nil {
		return m.ReconcileUserFunc(ctx, userID)
	}
	return false, nil
}

func (m *MockReconcileService) ReconcileAll(ctx context.Context) (*service.ReconcileReport, error) {
	m.calls.Add(1)
	if m.ReconcileAllFunc != nil {
		return m.ReconcileAllFunc(ctx)
	}
	return &service.ReconcileReport{}, nil
}

// Calls returns how many times ReconcileAll ran.
func (m *MockReconcileService) Calls() int {
	return int(m.calls.Load())
}
