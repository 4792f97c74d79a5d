package request

// SendMessageRequest represents a chat message. MessageType defaults to text.
type SendMessageRequest struct {
	Content     string `json:"content" binding:"required"`
	MessageType string `json:"messageType"`
}

// ProposeDateRequest represents a date proposal
type ProposeDateRequest struct {
	Date  string `json:"date" binding:"required"`
	Place string `json:"place" binding:"required"`
}

// DateDetails carries the replacement plan of a modify response
type DateDetails struct {
	Date  string `json:"date"`
	Place string `json:"place"`
}

// RespondDateRequest represents a response to the active date proposal
type RespondDateRequest struct {
	ResponseType string       `json:"responseType" binding:"required"`
	NewDetails   *DateDetails `json:"newDetails,omitempty"`
}
