package response

import (
	"time"
)

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Error string `json:"error"`
}

// NewError creates an error response
func NewError(message string) ErrorResponse {
	return ErrorResponse{Error: message}
}

// ActionResponse acknowledges a state change
type ActionResponse struct {
	Message string `json:"message"`
	Success bool   `json:"success"`
}

// NewAction creates a successful action response
func NewAction(message string) ActionResponse {
	return ActionResponse{Message: message, Success: true}
}

// HealthResponse is the liveness probe body
type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

// ReadinessResponse reports dependency health
type ReadinessResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}
