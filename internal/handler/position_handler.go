package handler

import (
	"strconv"

	"aegis/backend/internal/model"
	"aegis/backend/internal/service"
	"aegis/backend/internal/util"

	"github.com/gin-gonic/gin"
)

type PositionHandler struct {
	positionService *service.PositionService
}

func NewPositionHandler(positionService *service.PositionService) *PositionHandler {
	return &PositionHandler{positionService: positionService}
}

func positionID(c *gin.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, util.ErrValidation("Invalid position ID")
	}
	return id, nil
}

// Open handles POST /api/v1/positions
func (h *PositionHandler) Open(c *gin.Context) {
	var req model.OpenPositionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.SendValidationError(c, err.Error())
		return
	}

	resp, err := h.positionService.Open(c.Request.Context(), &req)
	if err != nil {
		util.SendError(c, err)
		return
	}

	util.SendCreated(c, resp, "Position opened")
}

// Close handles PUT /api/v1/positions/:id/sell
func (h *PositionHandler) Close(c *gin.Context) {
	id, err := positionID(c)
	if err != nil {
		util.SendError(c, err)
		return
	}

	var req model.ClosePositionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.SendValidationError(c, err.Error())
		return
	}

	pos, err := h.positionService.Close(c.Request.Context(), id, &req)
	if err != nil {
		util.SendError(c, err)
		return
	}

	util.SendSuccessWithMessage(c, pos, "Position closed")
}

// SetLogFlags handles PATCH /api/v1/positions/:id/log
func (h *PositionHandler) SetLogFlags(c *gin.Context) {
	id, err := positionID(c)
	if err != nil {
		util.SendError(c, err)
		return
	}

	var req model.PositionLogRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.SendValidationError(c, err.Error())
		return
	}

	if err := h.positionService.SetLogFlags(c.Request.Context(), id, &req); err != nil {
		util.SendError(c, err)
		return
	}

	util.SendSuccessWithMessage(c, nil, "Position log updated")
}

// List handles GET /api/v1/positions?bot_name=
func (h *PositionHandler) List(c *gin.Context) {
	positions, err := h.positionService.List(c.Request.Context(), c.Query("bot_name"))
	if err != nil {
		util.SendError(c, err)
		return
	}

	util.SendSuccess(c, positions)
}
