// Package notification is the fire-and-forget side-effect channel used by the
// lifecycle and chat services. Publishing enqueues onto an outbox and never
// fails the caller; Dispatcher workers deliver through a Sender.
package notification

import (
	"context"
	"time"
)

// Kind identifies what triggered a notification.
type Kind string

const (
	KindInvitationReceived Kind = "invitation_received"
	KindInvitationAccepted Kind = "invitation_accepted"
	KindNewMessage         Kind = "new_message"
	KindDateProposal       Kind = "date_proposal"
	KindDateResponse       Kind = "date_response"
)

// Notification is one outbound message to users or topics.
type Notification struct {
	ID        string            `json:"id"`
	Kind      Kind              `json:"kind"`
	UserIDs   []string          `json:"userIds,omitempty"`
	Topics    []string          `json:"topics,omitempty"`
	Title     string            `json:"title"`
	Body      string            `json:"body"`
	Data      map[string]string `json:"data,omitempty"`
	Attempts  int               `json:"attempts"`
	LastError string            `json:"lastError,omitempty"`
	CreatedAt time.Time         `json:"createdAt"`
}

// UserTopic is the per-user topic devices subscribe to.
func UserTopic(userID string) string {
	return "user_" + userID
}

// Targets returns the explicit topics followed by the per-user topics.
func (n *Notification) Targets() []string {
	targets := make([]string, 0, len(n.Topics)+len(n.UserIDs))
	targets = append(targets, n.Topics...)
	for _, id := range n.UserIDs {
		if id != "" {
			targets = append(targets, UserTopic(id))
		}
	}
	return targets
}

// Publisher accepts notifications without blocking the caller on delivery.
// Implementations log and drop on failure.
type Publisher interface {
	Publish(ctx context.Context, n Notification)
}

// Sender delivers a notification to every target.
type Sender interface {
	Send(ctx context.Context, n *Notification) error
}

// NopPublisher discards everything.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Notification) {}
