package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/jrjohn/tandem-cloud-go/internal/domain/service"
	"github.com/jrjohn/tandem-cloud-go/internal/dto/request"
	"github.com/jrjohn/tandem-cloud-go/internal/dto/response"
)

// DiscoveryController serves candidate batches
type DiscoveryController struct {
	discovery service.DiscoveryService
	logger    *zap.Logger
}

// NewDiscoveryController creates a new DiscoveryController instance
func NewDiscoveryController(discovery service.DiscoveryService, logger *zap.Logger) *DiscoveryController {
	return &DiscoveryController{discovery: discovery, logger: logger}
}

// RegisterRoutes registers the discovery routes on an authenticated group
func (c *DiscoveryController) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/explore/next-batch", c.NextBatch)
	router.GET("/profiles/random-simple", c.RandomBatch)
}

// NextBatch returns the preference-filtered batch
// @Summary Preference-filtered discovery batch
// @Tags Discovery
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number" default(0)
// @Success 200 {object} response.ProfilesResponse
// @Router /explore/next-batch [get]
func (c *DiscoveryController) NextBatch(ctx *gin.Context) {
	identity, ok := caller(ctx)
	if !ok {
		return
	}
	var q request.NextBatchQuery
	if err := ctx.ShouldBindQuery(&q); err != nil {
		ctx.JSON(http.StatusBadRequest, response.NewError("page must be an integer"))
		return
	}

	profiles, err := c.discovery.NextBatch(ctx.Request.Context(), identity.ID, q.Page)
	if err != nil {
		renderError(ctx, c.logger, err)
		return
	}
	ctx.JSON(http.StatusOK, response.ProfilesResponse{Profiles: profiles})
}

// RandomBatch returns a shuffled batch without preference filtering
// @Summary Random discovery batch
// @Tags Discovery
// @Produce json
// @Security BearerAuth
// @Param limit query int false "Batch size" default(25)
// @Success 200 {object} response.ProfilesResponse
// @Router /profiles/random-simple [get]
func (c *DiscoveryController) RandomBatch(ctx *gin.Context) {
	identity, ok := caller(ctx)
	if !ok {
		return
	}
	var q request.RandomBatchQuery
	if err := ctx.ShouldBindQuery(&q); err != nil {
		ctx.JSON(http.StatusBadRequest, response.NewError("limit must be an integer"))
		return
	}

	profiles, err := c.discovery.RandomBatch(ctx.Request.Context(), identity.ID, q.Limit)
	if err != nil {
		renderError(ctx, c.logger, err)
		return
	}
	ctx.JSON(http.StatusOK, response.ProfilesResponse{Profiles: profiles})
}
