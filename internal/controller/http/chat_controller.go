package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/jrjohn/tandem-cloud-go/internal/domain/service"
	"github.com/jrjohn/tandem-cloud-go/internal/dto/request"
	"github.com/jrjohn/tandem-cloud-go/internal/dto/response"
)

const (
	msgChatRemoved   = "Chat removed successfully"
	msgMessageSent   = "Message sent successfully"
	msgDateProposed  = "Date proposed successfully"
	msgDateResponded = "Date response recorded"
)

// ChatController handles active chats, messages and date negotiation
type ChatController struct {
	connections service.ConnectionService
	chats       service.ChatService
	logger      *zap.Logger
}

// NewChatController creates a new ChatController instance
func NewChatController(connections service.ConnectionService, chats service.ChatService, logger *zap.Logger) *ChatController {
	return &ChatController{connections: connections, chats: chats, logger: logger}
}

// RegisterRoutes registers the chat routes on an authenticated group
func (c *ChatController) RegisterRoutes(router *gin.RouterGroup) {
	chats := router.Group("/chats")
	{
		chats.GET("/active", c.ListActive)
		chats.POST("/remove", c.Remove)
		chats.GET("/:connectionId/chat-state", c.State)
		chats.POST("/:connectionId/messages", c.SendMessage)
		chats.GET("/:connectionId/messages", c.Messages)
		chats.POST("/:connectionId/propose-date", c.ProposeDate)
		chats.POST("/:connectionId/respond-date", c.RespondDate)
	}
}

// ListActive lists the caller's active chats
// @Summary Active chats
// @Tags Chats
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.ChatsResponse
// @Router /chats/active [get]
func (c *ChatController) ListActive(ctx *gin.Context) {
	identity, ok := caller(ctx)
	if !ok {
		return
	}
	chats, err := c.connections.ListActiveChats(ctx.Request.Context(), identity.ID)
	if err != nil {
		renderError(ctx, c.logger, err)
		return
	}
	ctx.JSON(http.StatusOK, response.ChatsResponse{Chats: chats})
}

// Remove terminates an active chat
// @Summary Remove a chat
// @Tags Chats
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body request.ConnectionRequest true "Connection"
// @Success 200 {object} response.ActionResponse
// @Router /chats/remove [post]
func (c *ChatController) Remove(ctx *gin.Context) {
	identity, ok := caller(ctx)
	if !ok {
		return
	}
	var req request.ConnectionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		renderBindError(ctx, err)
		return
	}

	if err := c.connections.RemoveChat(ctx.Request.Context(), identity.ID, req.ConnectionID); err != nil {
		renderError(ctx, c.logger, err)
		return
	}
	ctx.JSON(http.StatusOK, response.NewAction(msgChatRemoved))
}

// State returns the chat and proposal state as seen by the caller
// @Summary Chat state
// @Tags Chats
// @Produce json
// @Security BearerAuth
// @Param connectionId path string true "Connection ID"
// @Success 200 {object} response.ChatState
// @Router /chats/{connectionId}/chat-state [get]
func (c *ChatController) State(ctx *gin.Context) {
	identity, ok := caller(ctx)
	if !ok {
		return
	}
	state, err := c.chats.GetChatState(ctx.Request.Context(), identity.ID, ctx.Param("connectionId"))
	if err != nil {
		renderError(ctx, c.logger, err)
		return
	}
	ctx.JSON(http.StatusOK, state)
}

// SendMessage appends a message to the chat
// @Summary Send a message
// @Tags Chats
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param connectionId path string true "Connection ID"
// @Param request body request.SendMessageRequest true "Message"
// @Success 200 {object} response.SendMessageResponse
// @Router /chats/{connectionId}/messages [post]
func (c *ChatController) SendMessage(ctx *gin.Context) {
	identity, ok := caller(ctx)
	if !ok {
		return
	}
	var req request.SendMessageRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		renderBindError(ctx, err)
		return
	}

	msg, err := c.chats.SendMessage(ctx.Request.Context(), identity, ctx.Param("connectionId"), req.Content, req.MessageType)
	if err != nil {
		renderError(ctx, c.logger, err)
		return
	}
	ctx.JSON(http.StatusOK, response.SendMessageResponse{Message: msgMessageSent, MessageData: msg})
}

// Messages returns the chat transcript, oldest first
// @Summary Chat transcript
// @Tags Chats
// @Produce json
// @Security BearerAuth
// @Param connectionId path string true "Connection ID"
// @Success 200 {object} response.MessagesResponse
// @Router /chats/{connectionId}/messages [get]
func (c *ChatController) Messages(ctx *gin.Context) {
	identity, ok := caller(ctx)
	if !ok {
		return
	}
	messages, err := c.chats.GetChatMessages(ctx.Request.Context(), identity.ID, ctx.Param("connectionId"))
	if err != nil {
		renderError(ctx, c.logger, err)
		return
	}
	ctx.JSON(http.StatusOK, response.MessagesResponse{Messages: messages})
}

// ProposeDate opens a date proposal
// @Summary Propose a date
// @Tags Chats
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param connectionId path string true "Connection ID"
// @Param request body request.ProposeDateRequest true "Date and place"
// @Success 200 {object} response.ConnectionResponse
// @Router /chats/{connectionId}/propose-date [post]
func (c *ChatController) ProposeDate(ctx *gin.Context) {
	identity, ok := caller(ctx)
	if !ok {
		return
	}
	var req request.ProposeDateRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		renderBindError(ctx, err)
		return
	}

	conn, err := c.chats.ProposeDate(ctx.Request.Context(), identity, ctx.Param("connectionId"), req.Date, req.Place)
	if err != nil {
		renderError(ctx, c.logger, err)
		return
	}
	ctx.JSON(http.StatusOK, response.ConnectionResponse{Message: msgDateProposed, Connection: conn})
}

// RespondDate accepts, rejects or modifies the pending proposal
// @Summary Respond to a date proposal
// @Tags Chats
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param connectionId path string true "Connection ID"
// @Param request body request.RespondDateRequest true "Response"
// @Success 200 {object} response.ConnectionResponse
// @Router /chats/{connectionId}/respond-date [post]
func (c *ChatController) RespondDate(ctx *gin.Context) {
	identity, ok := caller(ctx)
	if !ok {
		return
	}
	var req request.RespondDateRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		renderBindError(ctx, err)
		return
	}

	conn, err := c.chats.RespondToDateProposal(ctx.Request.Context(), identity, ctx.Param("connectionId"), req.ResponseType, req.NewDetails)
	if err != nil {
		renderError(ctx, c.logger, err)
		return
	}
	ctx.JSON(http.StatusOK, response.ConnectionResponse{Message: msgDateResponded, Connection: conn})
}
