package http

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/jrjohn/tandem-cloud-go/internal/domain/service"
	"github.com/jrjohn/tandem-cloud-go/internal/dto/request"
	"github.com/jrjohn/tandem-cloud-go/internal/dto/response"
)

const (
	msgInvitationRemoved  = "Invitation removed successfully"
	msgInvitationDeclined = "Invitation declined successfully"
	msgInvitationAccepted = "Invitation accepted successfully"
)

// InvitationController handles the invitation half of the connection lifecycle
type InvitationController struct {
	connections service.ConnectionService
	logger      *zap.Logger
}

// NewInvitationController creates a new InvitationController instance
func NewInvitationController(connections service.ConnectionService, logger *zap.Logger) *InvitationController {
	return &InvitationController{connections: connections, logger: logger}
}

// RegisterRoutes registers the invitation routes on an authenticated group
func (c *InvitationController) RegisterRoutes(router *gin.RouterGroup) {
	invitations := router.Group("/notification/invitations")
	{
		invitations.POST("/send", c.Send)
		invitations.GET("/active", c.ListSent)
		invitations.POST("/remove-sent", c.RemoveSent)
		invitations.GET("/received/active", c.ListReceived)
		invitations.POST("/decline", c.Decline)
		invitations.POST("/accept", c.Accept)
	}
}

// Send creates an invitation to another user
// @Summary Send an invitation
// @Tags Invitations
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body request.SendInvitationRequest true "Receiver"
// @Success 200 {object} response.SendInvitationResponse
// @Router /notification/invitations/send [post]
func (c *InvitationController) Send(ctx *gin.Context) {
	identity, ok := caller(ctx)
	if !ok {
		return
	}
	var req request.SendInvitationRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		renderBindError(ctx, err)
		return
	}

	resp, err := c.connections.SendInvitation(ctx.Request.Context(), identity, req.ReceiverUserID)
	if err != nil {
		renderError(ctx, c.logger, err)
		return
	}
	ctx.JSON(http.StatusOK, resp)
}

// ListSent lists the caller's pending sent invitations
// @Summary Sent invitations
// @Tags Invitations
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.InvitationsResponse
// @Router /notification/invitations/active [get]
func (c *InvitationController) ListSent(ctx *gin.Context) {
	identity, ok := caller(ctx)
	if !ok {
		return
	}
	invitations, err := c.connections.ListSentActive(ctx.Request.Context(), identity.ID)
	if err != nil {
		renderError(ctx, c.logger, err)
		return
	}
	ctx.JSON(http.StatusOK, response.InvitationsResponse{Invitations: invitations})
}

// ListReceived lists pending invitations visible to the caller
// @Summary Received invitations
// @Tags Invitations
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.InvitationsResponse
// @Router /notification/invitations/received/active [get]
func (c *InvitationController) ListReceived(ctx *gin.Context) {
	identity, ok := caller(ctx)
	if !ok {
		return
	}
	invitations, err := c.connections.ListReceivedActive(ctx.Request.Context(), identity.ID)
	if err != nil {
		renderError(ctx, c.logger, err)
		return
	}
	ctx.JSON(http.StatusOK, response.InvitationsResponse{Invitations: invitations})
}

// RemoveSent cancels a pending invitation the caller sent
// @Summary Cancel a sent invitation
// @Tags Invitations
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body request.ConnectionRequest true "Connection"
// @Success 200 {object} response.ActionResponse
// @Router /notification/invitations/remove-sent [post]
func (c *InvitationController) RemoveSent(ctx *gin.Context) {
	c.action(ctx, c.connections.RemoveSentInvitation, msgInvitationRemoved)
}

// Decline declines a pending invitation the caller received
// @Summary Decline an invitation
// @Tags Invitations
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body request.ConnectionRequest true "Connection"
// @Success 200 {object} response.ActionResponse
// @Router /notification/invitations/decline [post]
func (c *InvitationController) Decline(ctx *gin.Context) {
	c.action(ctx, c.connections.DeclineInvitation, msgInvitationDeclined)
}

// Accept turns a received invitation into a chat
// @Summary Accept an invitation
// @Tags Invitations
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body request.ConnectionRequest true "Connection"
// @Success 200 {object} response.AcceptResponse
// @Router /notification/invitations/accept [post]
func (c *InvitationController) Accept(ctx *gin.Context) {
	identity, ok := caller(ctx)
	if !ok {
		return
	}
	var req request.ConnectionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		renderBindError(ctx, err)
		return
	}

	chat, err := c.connections.AcceptInvitation(ctx.Request.Context(), identity, req.ConnectionID)
	if err != nil {
		renderError(ctx, c.logger, err)
		return
	}
	ctx.JSON(http.StatusOK, response.AcceptResponse{Message: msgInvitationAccepted, Success: true, NewChat: chat})
}

// action binds a ConnectionRequest and runs a state change without payload.
func (c *InvitationController) action(ctx *gin.Context, fn func(ctx context.Context, userID, connectionID string) error, message string) {
	identity, ok := caller(ctx)
	if !ok {
		return
	}
	var req request.ConnectionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		renderBindError(ctx, err)
		return
	}

	if err := fn(ctx.Request.Context(), identity.ID, req.ConnectionID); err != nil {
		renderError(ctx, c.logger, err)
		return
	}
	ctx.JSON(http.StatusOK, response.NewAction(message))
}
