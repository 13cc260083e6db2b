package handler

import (
	"aegis/backend/internal/middleware"
	"aegis/backend/internal/model"
	"aegis/backend/internal/service"
	"aegis/backend/internal/util"

	"github.com/gin-gonic/gin"
)

type BotHandler struct {
	botService *service.BotService
}

func NewBotHandler(botService *service.BotService) *BotHandler {
	return &BotHandler{botService: botService}
}

// CreateBot handles POST /api/v1/bots
func (h *BotHandler) CreateBot(c *gin.Context) {
	var req model.CreateBotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.SendValidationError(c, err.Error())
		return
	}

	bot, err := h.botService.Create(c.Request.Context(), middleware.CurrentUsername(c), &req)
	if err != nil {
		util.SendError(c, err)
		return
	}

	util.SendCreated(c, bot, "Bot created successfully")
}

// ListBots handles GET /api/v1/bots
func (h *BotHandler) ListBots(c *gin.Context) {
	bots, err := h.botService.List(c.Request.Context())
	if err != nil {
		util.SendError(c, err)
		return
	}

	util.SendSuccess(c, bots)
}

// GetBot handles GET /api/v1/bots/:name
func (h *BotHandler) GetBot(c *gin.Context) {
	bot, err := h.botService.Get(c.Request.Context(), c.Param("name"))
	if err != nil {
		util.SendError(c, err)
		return
	}

	util.SendSuccess(c, bot)
}
