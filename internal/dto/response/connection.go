package response

import (
	"time"

	"github.com/jrjohn/tandem-cloud-go/internal/domain/entity"
)

// SendInvitationResponse reports whether the receiver will see the invitation
type SendInvitationResponse struct {
	Message           string `json:"message"`
	Success           bool   `json:"success"`
	ConnectionID      string `json:"connectionId"`
	VisibleToReceiver bool   `json:"visibleToReceiver"`
}

// Invitation is a pending connection seen from one side
type Invitation struct {
	ConnectionID string                  `json:"connectionId"`
	Status       entity.ConnectionStatus `json:"status"`
	CreatedAt    time.Time               `json:"createdAt"`
	User         UserSummary             `json:"user"`
}

// InvitationsResponse wraps invitation listings
type InvitationsResponse struct {
	Invitations []Invitation `json:"invitations"`
}

// LatestMessage is the inbox projection attached to a chat
type LatestMessage struct {
	Message     string             `json:"message"`
	MessageType entity.MessageType `json:"messageType"`
	SenderID    string             `json:"senderId"`
	Timestamp   time.Time          `json:"timestamp"`
	IsRead      bool               `json:"isRead"`
}

// Chat is an active connection seen from one side
type Chat struct {
	ConnectionID       string                    `json:"connectionId"`
	Partner            UserSummary               `json:"partner"`
	MessageCount       int                       `json:"messageCount"`
	RemainingMessages  int                       `json:"remainingMessages"`
	DateProposalStatus entity.DateProposalStatus `json:"dateProposalStatus"`
	LatestMessage      *LatestMessage            `json:"latestMessage,omitempty"`
	CreatedAt          time.Time                 `json:"createdAt"`
	UpdatedAt          time.Time                 `json:"updatedAt"`
}

// LastActivity returns the newest of the chat's update and latest message.
func (c *Chat) LastActivity() time.Time {
	if c.LatestMessage != nil && c.LatestMessage.Timestamp.After(c.UpdatedAt) {
		return c.LatestMessage.Timestamp
	}
	return c.UpdatedAt
}

// AcceptResponse carries the chat created by accepting an invitation
type AcceptResponse struct {
	Message string `json:"message"`
	Success bool   `json:"success"`
	NewChat *Chat  `json:"newChat"`
}

// ChatsResponse wraps the active chat listing
type ChatsResponse struct {
	Chats []Chat `json:"chats"`
}
