package entity

import "time"

// Collection names
const (
	CollectionUsers            = "users"
	CollectionBiodata          = "biodata"
	CollectionLocations        = "locations"
	CollectionPreferences      = "preferences"
	CollectionSettings         = "settings"
	CollectionImages           = "images"
	CollectionHobbies          = "hobbies"
	CollectionLanguages        = "languages"
	CollectionPrompts          = "prompts"
	CollectionCompletionStatus = "completion_status"
	CollectionHasShown         = "has_shown"
	CollectionConnections      = "connections"
	CollectionMessages         = "messages"
	CollectionMessagesInbox    = "messages_inbox"
)

// Counter field names on the user document
const (
	FieldActiveSentInvitations     = "active_sent_invitation_count"
	FieldActiveReceivedInvitations = "active_received_invitation_count"
	FieldActiveChats               = "active_chat_count"
)

// User is the account record holding the per-user quota counters.
type User struct {
	ID                            string    `bson:"_id" json:"id"`
	Name                          string    `bson:"name" json:"name"`
	ActiveSentInvitationCount     int       `bson:"active_sent_invitation_count" json:"activeSentInvitationCount"`
	ActiveReceivedInvitationCount int       `bson:"active_received_invitation_count" json:"activeReceivedInvitationCount"`
	ActiveChatCount               int       `bson:"active_chat_count" json:"activeChatCount"`
	CreatedAt                     time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt                     time.Time `bson:"updated_at" json:"updatedAt"`
}

// CollectionName returns the collection for User
func (User) CollectionName() string {
	return CollectionUsers
}

// Counters is a snapshot of the three quota counters.
type Counters struct {
	Sent     int
	Received int
	Chats    int
}

// Counters returns the user's counters.
func (u *User) Counters() Counters {
	return Counters{
		Sent:     u.ActiveSentInvitationCount,
		Received: u.ActiveReceivedInvitationCount,
		Chats:    u.ActiveChatCount,
	}
}
