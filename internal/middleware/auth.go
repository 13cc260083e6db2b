package middleware

import (
	"context"
	"net/http"
	"strings"

	"aegis/backend/internal/model"
	"aegis/backend/internal/util"

	"github.com/gin-gonic/gin"
)

// Context keys set by AuthMiddleware
const (
	ContextUserID   = "user_id"
	ContextUsername = "username"
	ContextUserRole = "user_role"
	ContextUser     = "user"
)

// TokenValidator resolves an access token to the user it was issued to
type TokenValidator interface {
	ValidateToken(ctx context.Context, token string) (*model.User, error)
}

// BearerToken extracts the token from an "Authorization: Bearer <token>" header
func BearerToken(c *gin.Context) (string, bool) {
	parts := strings.Fields(c.GetHeader("Authorization"))
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	return parts[1], true
}

func websocketUpgrade(c *gin.Context) bool {
	return strings.EqualFold(c.GetHeader("Upgrade"), "websocket")
}

// AuthMiddleware creates authentication middleware
func AuthMiddleware(validator TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		var token string
		if c.GetHeader("Authorization") == "" {
			// browsers cannot set headers on a WebSocket upgrade
			token = c.Query("access_token")
			if token == "" || !websocketUpgrade(c) {
				util.AbortWithCustomError(c, http.StatusUnauthorized, util.ErrCodeUnauthorized, "Missing authorization header")
				return
			}
		} else {
			var ok bool
			token, ok = BearerToken(c)
			if !ok {
				util.AbortWithCustomError(c, http.StatusUnauthorized, util.ErrCodeUnauthorized, "Invalid authorization header format")
				return
			}
		}

		user, err := validator.ValidateToken(c.Request.Context(), token)
		if err != nil {
			util.AbortWithError(c, err)
			return
		}

		c.Set(ContextUserID, user.ID)
		c.Set(ContextUsername, user.Username)
		c.Set(ContextUserRole, user.Role)
		c.Set(ContextUser, user)

		c.Next()
	}
}

// CurrentUsername returns the authenticated caller's username
func CurrentUsername(c *gin.Context) string {
	return c.GetString(ContextUsername)
}

// CurrentUserID returns the authenticated caller's user id
func CurrentUserID(c *gin.Context) string {
	return c.GetString(ContextUserID)
}
