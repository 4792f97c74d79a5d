package service

import (
	"context"

	"github.com/jrjohn/tandem-cloud-go/internal/dto/response"
	"github.com/jrjohn/tandem-cloud-go/internal/security"
)

// ConnectionService drives the invitation and chat lifecycle and keeps the
// per-user quota counters in step with it.
type ConnectionService interface {
	// SendInvitation creates a pending connection from caller to receiverID.
	SendInvitation(ctx context.Context, caller security.Identity, receiverID string) (*response.SendInvitationResponse, error)

	// ListSentActive returns the caller's pending sent invitations.
	ListSentActive(ctx context.Context, userID string) ([]response.Invitation, error)

	// ListReceivedActive returns pending invitations visible to the caller.
	ListReceivedActive(ctx context.Context, userID string) ([]response.Invitation, error)

	// RemoveSentInvitation cancels a pending invitation sent by userID.
	RemoveSentInvitation(ctx context.Context, userID, connectionID string) error

	// DeclineInvitation declines a pending invitation received by userID.
	DeclineInvitation(ctx context.Context, userID, connectionID string) error

	// AcceptInvitation turns a pending invitation received by caller into a chat.
	AcceptInvitation(ctx context.Context, caller security.Identity, connectionID string) (*response.Chat, error)

	// ListActiveChats returns the caller's active chats, newest activity first.
	ListActiveChats(ctx context.Context, userID string) ([]response.Chat, error)

	// RemoveChat ends an active chat on behalf of either party.
	RemoveChat(ctx context.Context, userID, connectionID string) error
}
