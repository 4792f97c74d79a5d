package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/jrjohn/tandem-cloud-go/internal/dto/response"
	"github.com/jrjohn/tandem-cloud-go/internal/security"
)

// AuthMiddleware resolves bearer tokens to a caller identity
type AuthMiddleware struct {
	securityService *security.SecurityService
}

// NewAuthMiddleware creates a new AuthMiddleware instance
func NewAuthMiddleware(securityService *security.SecurityService) *AuthMiddleware {
	return &AuthMiddleware{securityService: securityService}
}

// Authenticate validates the bearer token and stores the identity in context
func (m *AuthMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abortUnauthorized(c, "authorization header required")
			return
		}

		// Extract token from "Bearer <token>"
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || strings.TrimSpace(parts[1]) == "" {
			abortUnauthorized(c, "invalid authorization header format")
			return
		}

		identity, err := m.securityService.Authenticate(strings.TrimSpace(parts[1]))
		if err != nil {
			if errors.Is(err, security.ErrExpiredToken) {
				abortUnauthorized(c, "token has expired")
			} else {
				abortUnauthorized(c, "invalid token")
			}
			return
		}

		m.securityService.SetCurrentIdentity(c, identity)
		c.Next()
	}
}

func abortUnauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, response.NewError(message))
}
