package entity

import "time"

// MessageType enumerates chat message kinds.
type MessageType string

const (
	MessageText         MessageType = "text"
	MessageImage        MessageType = "image"
	MessageDateProposal MessageType = "date_proposal"
	MessageDateResponse MessageType = "date_response"
)

// IsUserContent reports whether t may be sent directly by a user.
func (t MessageType) IsUserContent() bool {
	return t == MessageText || t == MessageImage
}

// ImagePlaceholder is the text stored for image messages.
const ImagePlaceholder = "📷 Image"

// Message is a single chat entry.
type Message struct {
	ID           string      `bson:"_id" json:"id"`
	ConnectionID string      `bson:"connection_id" json:"connectionId"`
	SenderID     string      `bson:"sender_id" json:"senderId"`
	MessageType  MessageType `bson:"message_type" json:"messageType"`
	Message      string      `bson:"message" json:"message"`
	ImageURL     *string     `bson:"image_url" json:"imageUrl"`
	Timestamp    time.Time   `bson:"timestamp" json:"timestamp"`
	IsRead       bool        `bson:"is_read" json:"isRead"`
}

// CollectionName returns the collection for Message
func (Message) CollectionName() string {
	return CollectionMessages
}

// MessagesInbox is the latest-message projection of a connection. ID is the
// connection id.
type MessagesInbox struct {
	ID                  string      `bson:"_id" json:"id"`
	SenderID            string      `bson:"sender_id" json:"senderId"`
	ReceiverID          string      `bson:"receiver_id" json:"receiverId"`
	LatestMessage       string      `bson:"latest_message" json:"latestMessage"`
	LatestMessageType   MessageType `bson:"latest_message_type" json:"latestMessageType"`
	LatestMessageSender string      `bson:"latest_message_sender" json:"latestMessageSender"`
	LatestMessageAt     time.Time   `bson:"latest_message_at" json:"latestMessageAt"`
	IsRead              bool        `bson:"is_read" json:"isRead"`
}
