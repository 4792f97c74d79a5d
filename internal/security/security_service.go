package security

import (
	"github.com/gin-gonic/gin"
)

// ContextKeyIdentity is the gin context key holding the caller identity
const ContextKeyIdentity = "current_identity"

// SecurityService reads and writes the caller identity on a request
type SecurityService struct {
	authenticator Authenticator
}

// NewSecurityService creates a new SecurityService instance
func NewSecurityService(authenticator Authenticator) *SecurityService {
	return &SecurityService{authenticator: authenticator}
}

// Authenticate delegates to the configured Authenticator.
func (s *SecurityService) Authenticate(token string) (*Identity, error) {
	return s.authenticator.Authenticate(token)
}

// GetCurrentIdentity retrieves the caller from the context
func (s *SecurityService) GetCurrentIdentity(c *gin.Context) *Identity {
	return CurrentIdentity(c)
}

// SetCurrentIdentity stores the caller in the context
func (s *SecurityService) SetCurrentIdentity(c *gin.Context, identity *Identity) {
	c.Set(ContextKeyIdentity, identity)
}

// IsAuthenticated checks if the current request is authenticated
func (s *SecurityService) IsAuthenticated(c *gin.Context) bool {
	return CurrentIdentity(c) != nil
}

// CurrentIdentity returns the caller stored by the auth middleware, or nil.
func CurrentIdentity(c *gin.Context) *Identity {
	v, exists := c.Get(ContextKeyIdentity)
	if !exists {
		return nil
	}
	if id, ok := v.(*Identity); ok {
		return id
	}
	return nil
}
