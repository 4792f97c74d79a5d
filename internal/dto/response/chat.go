package response

import (
	"github.com/jrjohn/tandem-cloud-go/internal/domain/entity"
)

// DateProposal is the negotiation sub-state of a chat
type DateProposal struct {
	Status       entity.DateProposalStatus `json:"status"`
	Date         *string                   `json:"date"`
	Place        *string                   `json:"place"`
	ProposerID   *string                   `json:"proposerId"`
	LastActionBy *string                   `json:"lastActionBy"`
}

// ChatState describes a chat from the caller's point of view
type ChatState struct {
	ConnectionID      string                  `json:"connectionId"`
	Status            entity.ConnectionStatus `json:"status"`
	MessageCount      int                     `json:"messageCount"`
	MessageLimit      int                     `json:"messageLimit"`
	RemainingMessages int                     `json:"remainingMessages"`
	PartnerID         string                  `json:"partnerId"`
	DateProposal      DateProposal            `json:"dateProposal"`
	CanProposeDate    bool                    `json:"canProposeDate"`
	CanRespondToDate  bool                    `json:"canRespondToDate"`
}

// SendMessageResponse returns the stored message
type SendMessageResponse struct {
	Message     string          `json:"message"`
	MessageData *entity.Message `json:"messageData"`
}

// ConnectionResponse returns the connection after a date action
type ConnectionResponse struct {
	Message    string             `json:"message"`
	Connection *entity.Connection `json:"connection"`
}

// MessagesResponse wraps a chat transcript
type MessagesResponse struct {
	Messages []*entity.Message `json:"messages"`
}
