package middleware

import (
	"fmt"
	"net/http"
	"time"

	"aegis/backend/internal/util"
	"aegis/backend/pkg/logger"
	"aegis/backend/pkg/redis"

	"github.com/gin-gonic/gin"
)

// RateLimiter counts requests per caller in fixed Redis windows
type RateLimiter struct {
	redis  *redis.Client
	limit  int
	window time.Duration
	action string
	log    *logger.Logger
}

// NewRateLimiter creates a limiter allowing limit requests per window for
// one action. Callers are identified by user id when authenticated, else IP.
func NewRateLimiter(redisClient *redis.Client, limit int, window time.Duration, action string, log *logger.Logger) *RateLimiter {
	return &RateLimiter{
		redis:  redisClient,
		limit:  limit,
		window: window,
		action: action,
		log:    log,
	}
}

// Limit returns a middleware that limits requests. Redis failures let the
// request through.
func (rl *RateLimiter) Limit() gin.HandlerFunc {
	return func(c *gin.Context) {
		identifier := c.ClientIP()
		if userID, exists := c.Get(ContextUserID); exists {
			identifier = fmt.Sprintf("user:%v", userID)
		}

		key := redis.RateLimitKey(identifier, rl.action)
		count, err := rl.redis.IncrWindow(c.Request.Context(), key, rl.window)
		if err != nil {
			rl.log.Warnf("Rate limit check for %s failed: %v", rl.action, err)
			c.Next()
			return
		}

		if count > int64(rl.limit) {
			if ttl, err := rl.redis.TTL(c.Request.Context(), key); err == nil && ttl > 0 {
				c.Header("Retry-After", fmt.Sprintf("%d", int(ttl.Seconds())))
			}
			util.AbortWithCustomError(c, http.StatusTooManyRequests,
				util.ErrCodeRateLimit, "Rate limit exceeded. Please try again later.")
			return
		}

		c.Next()
	}
}
