package handler

import (
	"aegis/backend/internal/middleware"
	"aegis/backend/internal/model"
	"aegis/backend/internal/service"
	"aegis/backend/internal/util"

	"github.com/gin-gonic/gin"
)

// AuthHandler serves account and token endpoints under /api/v1/auth
type AuthHandler struct {
	auth *service.AuthService
}

func NewAuthHandler(auth *service.AuthService) *AuthHandler {
	return &AuthHandler{auth: auth}
}

// Register handles POST /api/v1/auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req model.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.SendValidationError(c, err.Error())
		return
	}

	user, err := h.auth.Register(c.Request.Context(), &req)
	if err != nil {
		util.SendError(c, err)
		return
	}
	util.SendCreated(c, user, "User registered successfully")
}

// Login handles POST /api/v1/auth/login. The session records the caller's
// user agent and IP.
func (h *AuthHandler) Login(c *gin.Context) {
	var req model.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.SendValidationError(c, err.Error())
		return
	}

	tokens, err := h.auth.Login(c.Request.Context(), &req, c.Request.UserAgent(), c.ClientIP())
	if err != nil {
		util.SendError(c, err)
		return
	}
	util.SendSuccess(c, tokens)
}

// RefreshToken handles POST /api/v1/auth/refresh
func (h *AuthHandler) RefreshToken(c *gin.Context) {
	var req model.RefreshTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.SendValidationError(c, err.Error())
		return
	}

	tokens, err := h.auth.RefreshToken(c.Request.Context(), req.RefreshToken)
	if err != nil {
		util.SendError(c, err)
		return
	}
	util.SendSuccess(c, tokens)
}

// Logout handles POST /api/v1/auth/logout. Both the bearer token and the
// refresh token in the body are revoked.
func (h *AuthHandler) Logout(c *gin.Context) {
	var req model.RefreshTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.SendValidationError(c, err.Error())
		return
	}

	accessToken, _ := middleware.BearerToken(c)
	if err := h.auth.Logout(c.Request.Context(), accessToken, req.RefreshToken); err != nil {
		util.SendError(c, err)
		return
	}
	util.SendSuccessWithMessage(c, nil, "Logged out successfully")
}

// GetMe handles GET /api/v1/auth/me
func (h *AuthHandler) GetMe(c *gin.Context) {
	user, err := h.auth.GetUserByID(c.Request.Context(), middleware.CurrentUserID(c))
	if err != nil {
		util.SendError(c, err)
		return
	}
	util.SendSuccess(c, user)
}
