package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/dineatlas/dineatlas/backend/internal/services"
	"github.com/dineatlas/dineatlas/backend/pkg/response"
)

type DashboardHandler struct {
	dashboardService *services.DashboardService
}

func NewDashboardHandler(dashboardService *services.DashboardService) *DashboardHandler {
	return &DashboardHandler{dashboardService: dashboardService}
}

// GetStats returns platform activity aggregates
// GET /api/admin/dashboard
func (h *DashboardHandler) GetStats(c *gin.Context) {
	var req services.DashboardStatsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	resp, err := h.dashboardService.GetStats(&req)
	if err != nil {
		response.ServerError(c, "failed to load dashboard")
		return
	}
	response.Success(c, resp)
}
