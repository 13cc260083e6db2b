package handler

import (
	"aegis/backend/internal/middleware"
	"aegis/backend/internal/model"
	"aegis/backend/internal/service"
	"aegis/backend/internal/util"

	"github.com/gin-gonic/gin"
)

// WalletHandler handles wallet endpoints. Every operation is scoped to the
// authenticated username.
type WalletHandler struct {
	walletService *service.WalletService
}

func NewWalletHandler(walletService *service.WalletService) *WalletHandler {
	return &WalletHandler{walletService: walletService}
}

// Create handles POST /api/v1/wallets
func (h *WalletHandler) Create(c *gin.Context) {
	var req model.CreateWalletRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.SendValidationError(c, err.Error())
		return
	}

	wallet, err := h.walletService.Create(c.Request.Context(), middleware.CurrentUsername(c), &req)
	if err != nil {
		util.SendError(c, err)
		return
	}

	util.SendCreated(c, wallet, "Wallet created successfully")
}

// List handles GET /api/v1/wallets
func (h *WalletHandler) List(c *gin.Context) {
	wallets, err := h.walletService.List(c.Request.Context(), middleware.CurrentUsername(c))
	if err != nil {
		util.SendError(c, err)
		return
	}

	util.SendSuccess(c, wallets)
}

// Get handles GET /api/v1/wallets/:name
func (h *WalletHandler) Get(c *gin.Context) {
	wallet, err := h.walletService.Get(c.Request.Context(), middleware.CurrentUsername(c), c.Param("name"))
	if err != nil {
		util.SendError(c, err)
		return
	}

	util.SendSuccess(c, wallet)
}

// Delete handles DELETE /api/v1/wallets/:name
func (h *WalletHandler) Delete(c *gin.Context) {
	if err := h.walletService.Delete(c.Request.Context(), middleware.CurrentUsername(c), c.Param("name")); err != nil {
		util.SendError(c, err)
		return
	}

	util.SendSuccessWithMessage(c, nil, "Wallet deleted successfully")
}

// GrantAccess handles POST /api/v1/wallets/access
func (h *WalletHandler) GrantAccess(c *gin.Context) {
	var req model.WalletAccessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.SendValidationError(c, err.Error())
		return
	}

	if err := h.walletService.GrantAccess(c.Request.Context(), middleware.CurrentUsername(c), &req); err != nil {
		util.SendError(c, err)
		return
	}

	util.SendCreated(c, req, "Access granted")
}

// RevokeAccess handles DELETE /api/v1/wallets/access/:user/:name
func (h *WalletHandler) RevokeAccess(c *gin.Context) {
	err := h.walletService.RevokeAccess(c.Request.Context(), middleware.CurrentUsername(c), c.Param("user"), c.Param("name"))
	if err != nil {
		util.SendError(c, err)
		return
	}

	util.SendSuccessWithMessage(c, nil, "Access revoked")
}
