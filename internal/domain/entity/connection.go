package entity

import "time"

// ConnectionStatus is the lifecycle state of a connection.
type ConnectionStatus string

const (
	StatusPending               ConnectionStatus = "pending"
	StatusDeclined              ConnectionStatus = "declined"
	StatusCancelled             ConnectionStatus = "cancelled"
	StatusChatActive            ConnectionStatus = "chat_active"
	StatusChatRemovedBySender   ConnectionStatus = "chat_removed_by_sender"
	StatusChatRemovedByReceiver ConnectionStatus = "chat_removed_by_receiver"
)

// IsTerminal reports whether no further transition is possible.
func (s ConnectionStatus) IsTerminal() bool {
	switch s {
	case StatusDeclined, StatusCancelled, StatusChatRemovedBySender, StatusChatRemovedByReceiver:
		return true
	}
	return false
}

// CanTransitionTo reports whether next is a legal successor of s.
func (s ConnectionStatus) CanTransitionTo(next ConnectionStatus) bool {
	switch s {
	case StatusPending:
		return next == StatusDeclined || next == StatusCancelled || next == StatusChatActive
	case StatusChatActive:
		return next == StatusChatRemovedBySender || next == StatusChatRemovedByReceiver
	}
	return false
}

// DateProposalStatus is the state of the date negotiation inside a chat.
type DateProposalStatus string

const (
	ProposalNone     DateProposalStatus = "none"
	ProposalProposed DateProposalStatus = "proposed"
	ProposalAccepted DateProposalStatus = "accepted"
	ProposalRejected DateProposalStatus = "rejected"
	ProposalModified DateProposalStatus = "modified"
)

// InFlight reports whether a proposal awaits a response.
func (s DateProposalStatus) InFlight() bool {
	return s == ProposalProposed || s == ProposalModified
}

// Connection field names used in conditional updates
const (
	FieldStatus                   = "status"
	FieldVisibleToReceiver        = "visible_to_receiver"
	FieldMessageCount             = "message_count"
	FieldDateProposalStatus       = "date_proposal_status"
	FieldDateProposalDate         = "date_proposal_date"
	FieldDateProposalPlace        = "date_proposal_place"
	FieldDateProposalProposerID   = "date_proposal_proposer_id"
	FieldDateProposalLastActionBy = "date_proposal_last_action_by"
)

// Connection links a sender and a receiver through invitation and chat.
type Connection struct {
	ID                       string             `bson:"_id" json:"id"`
	SenderID                 string             `bson:"sender_id" json:"senderId"`
	ReceiverID               string             `bson:"receiver_id" json:"receiverId"`
	Status                   ConnectionStatus   `bson:"status" json:"status"`
	VisibleToReceiver        bool               `bson:"visible_to_receiver" json:"visibleToReceiver"`
	MessageCount             int                `bson:"message_count" json:"messageCount"`
	DateProposalStatus       DateProposalStatus `bson:"date_proposal_status" json:"dateProposalStatus"`
	DateProposalDate         *string            `bson:"date_proposal_date" json:"dateProposalDate"`
	DateProposalPlace        *string            `bson:"date_proposal_place" json:"dateProposalPlace"`
	DateProposalProposerID   *string            `bson:"date_proposal_proposer_id" json:"dateProposalProposerId"`
	DateProposalLastActionBy *string            `bson:"date_proposal_last_action_by" json:"dateProposalLastActionBy"`
	CreatedAt                time.Time          `bson:"created_at" json:"createdAt"`
	UpdatedAt                time.Time          `bson:"updated_at" json:"updatedAt"`
}

// CollectionName returns the collection for Connection
func (Connection) CollectionName() string {
	return CollectionConnections
}

// IsParty reports whether userID is the sender or the receiver.
func (c *Connection) IsParty(userID string) bool {
	return userID != "" && (c.SenderID == userID || c.ReceiverID == userID)
}

// PartnerOf returns the other party's id, or "" if userID is not a party.
func (c *Connection) PartnerOf(userID string) string {
	switch userID {
	case c.SenderID:
		return c.ReceiverID
	case c.ReceiverID:
		return c.SenderID
	}
	return ""
}

// ProposalStatus returns the date proposal status, treating unset as none.
func (c *Connection) ProposalStatus() DateProposalStatus {
	if c.DateProposalStatus == "" {
		return ProposalNone
	}
	return c.DateProposalStatus
}

// LastActionBy returns the id of the last actor on the proposal, if any.
func (c *Connection) LastActionBy() string {
	if c.DateProposalLastActionBy == nil {
		return ""
	}
	return *c.DateProposalLastActionBy
}
