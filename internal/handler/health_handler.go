package handler

import (
	"context"
	"net/http"
	"time"

	"aegis/backend/internal/repository"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"
)

const healthTimeout = 2 * time.Second

// HealthHandler reports whether the ledger store and Redis are reachable
type HealthHandler struct {
	ledger repository.Pinger
	redis  repository.Pinger
}

func NewHealthHandler(ledger, redis repository.Pinger) *HealthHandler {
	return &HealthHandler{ledger: ledger, redis: redis}
}

func status(err error) string {
	if err != nil {
		return "unreachable"
	}
	return "connected"
}

// Health handles GET /health
func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
	defer cancel()

	var ledgerErr, redisErr error
	var g errgroup.Group
	g.Go(func() error {
		ledgerErr = h.ledger.Ping(ctx)
		return nil
	})
	g.Go(func() error {
		redisErr = h.redis.Ping(ctx)
		return nil
	})
	_ = g.Wait()

	body := gin.H{
		"status": "healthy",
		"ledger": status(ledgerErr),
		"redis":  status(redisErr),
	}
	if ledgerErr != nil || redisErr != nil {
		body["status"] = "unhealthy"
		c.JSON(http.StatusServiceUnavailable, body)
		return
	}
	c.JSON(http.StatusOK, body)
}

// Ping handles GET /api/v1/ping
func (h *HealthHandler) Ping(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "pong",
		"time":    time.Now().Unix(),
	})
}
