package handler

import (
	"aegis/backend/internal/model"
	"aegis/backend/internal/service"
	"aegis/backend/internal/util"

	"github.com/gin-gonic/gin"
)

type FundHandler struct {
	fundService *service.FundService
}

func NewFundHandler(fundService *service.FundService) *FundHandler {
	return &FundHandler{fundService: fundService}
}

// Create handles POST /api/v1/funds
func (h *FundHandler) Create(c *gin.Context) {
	var req model.CreateFundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.SendValidationError(c, err.Error())
		return
	}

	snap, err := h.fundService.Create(c.Request.Context(), &req)
	if err != nil {
		util.SendError(c, err)
		return
	}

	util.SendCreated(c, snap, "Funds recorded")
}

// LatestAll handles GET /api/v1/funds
func (h *FundHandler) LatestAll(c *gin.Context) {
	snaps, err := h.fundService.LatestAll(c.Request.Context())
	if err != nil {
		util.SendError(c, err)
		return
	}

	util.SendSuccess(c, snaps)
}

// Latest handles GET /api/v1/funds/:bot
func (h *FundHandler) Latest(c *gin.Context) {
	snap, err := h.fundService.Latest(c.Request.Context(), c.Param("bot"))
	if err != nil {
		util.SendError(c, err)
		return
	}

	util.SendSuccess(c, snap)
}
