package handler

import (
	"strconv"

	"aegis/backend/internal/model"
	"aegis/backend/internal/service"
	"aegis/backend/internal/util"

	"github.com/gin-gonic/gin"
)

// DashboardHandler serves the read-only aggregation endpoints
type DashboardHandler struct {
	dashboardService *service.DashboardService
}

func NewDashboardHandler(dashboardService *service.DashboardService) *DashboardHandler {
	return &DashboardHandler{dashboardService: dashboardService}
}

func intQuery(c *gin.Context, key string, def int) (int, error) {
	raw, ok := c.GetQuery(key)
	if !ok || raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, util.ErrValidation("Query parameter " + key + " must be an integer")
	}
	return v, nil
}

// Overview handles GET /api/v1/dashboard/overview/:bot
func (h *DashboardHandler) Overview(c *gin.Context) {
	overview, err := h.dashboardService.Overview(c.Request.Context(), c.Param("bot"))
	if err != nil {
		util.SendError(c, err)
		return
	}

	util.SendSuccess(c, overview)
}

// Performance handles GET /api/v1/dashboard/performance/:bot?interval=
func (h *DashboardHandler) Performance(c *gin.Context) {
	interval := c.DefaultQuery("interval", model.IntervalDaily)

	perf, err := h.dashboardService.Performance(c.Request.Context(), c.Param("bot"), interval)
	if err != nil {
		util.SendError(c, err)
		return
	}

	util.SendSuccess(c, perf)
}

// RecentTrades handles GET /api/v1/dashboard/recent-trades/:bot?page=&limit=
func (h *DashboardHandler) RecentTrades(c *gin.Context) {
	page, err := intQuery(c, "page", util.DefaultPage)
	if err != nil {
		util.SendError(c, err)
		return
	}
	limit, err := intQuery(c, "limit", util.DefaultLimit)
	if err != nil {
		util.SendError(c, err)
		return
	}

	trades, err := h.dashboardService.RecentTrades(c.Request.Context(), c.Param("bot"), page, limit)
	if err != nil {
		util.SendError(c, err)
		return
	}

	util.SendSuccess(c, trades)
}

// TradeDetail handles GET /api/v1/dashboard/trades/:id
func (h *DashboardHandler) TradeDetail(c *gin.Context) {
	id, err := positionID(c)
	if err != nil {
		util.SendError(c, err)
		return
	}

	pos, err := h.dashboardService.TradeDetail(c.Request.Context(), id)
	if err != nil {
		util.SendError(c, err)
		return
	}

	util.SendSuccess(c, pos)
}
