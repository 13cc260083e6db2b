package handler

import (
	"net/http"

	"aegis/backend/internal/middleware"
	"aegis/backend/internal/service"
	"aegis/backend/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// FeedHandler upgrades dashboard connections onto the position event feed
type FeedHandler struct {
	feed     *service.PositionFeed
	upgrader websocket.Upgrader
	log      *logger.Logger
}

// NewFeedHandler accepts upgrades from the origins the CORS middleware
// allows. Requests without an Origin header (non-browser clients) are always
// accepted.
func NewFeedHandler(feed *service.PositionFeed, allowedOrigins []string, log *logger.Logger) *FeedHandler {
	return &FeedHandler{
		feed: feed,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || middleware.OriginAllowed(allowedOrigins, origin)
			},
		},
		log: log,
	}
}

// Positions handles GET /api/v1/ws/positions?bot=
func (h *FeedHandler) Positions(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade has already written the error response
		h.log.Warnf("Feed upgrade failed: %v", err)
		return
	}

	h.feed.Attach(conn, middleware.CurrentUsername(c), c.Query("bot"))
}
