package service

import (
	"context"

	"github.com/jrjohn/tandem-cloud-go/internal/domain/entity"
	"github.com/jrjohn/tandem-cloud-go/internal/dto/request"
	"github.com/jrjohn/tandem-cloud-go/internal/dto/response"
	"github.com/jrjohn/tandem-cloud-go/internal/security"
)

// Date proposal response types
const (
	ResponseAccept = "accept"
	ResponseReject = "reject"
	ResponseModify = "modify"
)

// ChatService mediates messaging and date negotiation inside an active chat.
// Every message, including date system messages, consumes the chat's budget.
type ChatService interface {
	GetChatState(ctx context.Context, userID, connectionID string) (*response.ChatState, error)

	// SendMessage stores a text or image message. Image content is the URL.
	SendMessage(ctx context.Context, caller security.Identity, connectionID, content, messageType string) (*entity.Message, error)

	ProposeDate(ctx context.Context, caller security.Identity, connectionID, date, place string) (*entity.Connection, error)

	// RespondToDateProposal accepts, rejects or modifies the proposal the
	// partner made or last changed.
	RespondToDateProposal(ctx context.Context, caller security.Identity, connectionID, responseType string, details *request.DateDetails) (*entity.Connection, error)

	// GetChatMessages returns the transcript oldest first, capped.
	GetChatMessages(ctx context.Context, userID, connectionID string) ([]*entity.Message, error)
}
