package request

// SendInvitationRequest represents an invitation to another user
type SendInvitationRequest struct {
	ReceiverUserID string `json:"receiverUserId" binding:"required"`
}

// ConnectionRequest identifies the connection an action applies to
type ConnectionRequest struct {
	ConnectionID string `json:"connectionId" binding:"required"`
}
