// Package ratelimit caps request rates per client key.
package ratelimit

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Limiter decides whether one more request for key is allowed.
type Limiter interface {
	Check(ctx context.Context, key string) (bool, error)
}

// LimitExceededMessage is the body of a rejected request.
const LimitExceededMessage = "Too many requests from this IP, please try again later."

// Middleware rejects requests over the limit with 429, keyed by client IP.
// Limiter errors are logged and the request is let through.
func Middleware(l Limiter, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.ClientIP()
		ok, err := l.Check(c.Request.Context(), key)
		if err != nil {
			logger.Warn("rate limiter unavailable", zap.String("key", key), zap.Error(err))
			c.Next()
			return
		}
		if !ok {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": LimitExceededMessage})
			return
		}
		c.Next()
	}
}
