package middleware

import (
	"math"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/jrjohn/tandem-cloud-go/internal/dto/response"
	"github.com/jrjohn/tandem-cloud-go/internal/resilience"
	"github.com/jrjohn/tandem-cloud-go/internal/security"
)

// RateLimit throttles mutating requests per caller. Reads pass through.
// Callers are keyed by identity, so it must run after Authenticate;
// anonymous requests fall back to the client IP.
func RateLimit(limiter *resilience.KeyedLimiter, requestsPerSecond float64) gin.HandlerFunc {
	retryAfter := "1"
	if requestsPerSecond > 0 {
		retryAfter = strconv.Itoa(int(math.Ceil(1 / requestsPerSecond)))
	}

	return func(c *gin.Context) {
		if c.Request.Method != http.MethodPost {
			c.Next()
			return
		}

		key := "ip:" + c.ClientIP()
		if identity := security.CurrentIdentity(c); identity != nil {
			key = "user:" + identity.ID
		}

		if !limiter.Allow(key) {
			c.Header("Retry-After", retryAfter)
			c.AbortWithStatusJSON(http.StatusTooManyRequests, response.NewError(resilience.ErrRateLimitExceeded.Error()))
			return
		}
		c.Next()
	}
}
