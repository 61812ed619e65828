package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/dineatlas/dineatlas/backend/internal/services"
	"github.com/dineatlas/dineatlas/backend/pkg/response"
)

type SystemConfigHandler struct {
	configService *services.SystemConfigService
}

func NewSystemConfigHandler(configService *services.SystemConfigService) *SystemConfigHandler {
	return &SystemConfigHandler{configService: configService}
}

// GetReservationSettings returns booking limits
// GET /api/admin/settings/reservation
func (h *SystemConfigHandler) GetReservationSettings(c *gin.Context) {
	response.Success(c, h.configService.GetReservationSettings())
}

// UpdateReservationSettings updates booking limits. Reauth-gated.
// PUT /api/admin/settings/reservation
func (h *SystemConfigHandler) UpdateReservationSettings(c *gin.Context) {
	var req services.UpdateReservationSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	if err := h.configService.UpdateReservationSettings(&req); err != nil {
		response.ServerError(c, "failed to update settings")
		return
	}
	response.Success(c, h.configService.GetReservationSettings())
}

// GetEmailSettings returns SMTP settings without the password
// GET /api/admin/settings/email
func (h *SystemConfigHandler) GetEmailSettings(c *gin.Context) {
	response.Success(c, h.configService.GetEmailSettings())
}

// UpdateEmailSettings updates SMTP settings. Reauth-gated.
// PUT /api/admin/settings/email
func (h *SystemConfigHandler) UpdateEmailSettings(c *gin.Context) {
	var req services.UpdateEmailSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	if err := h.configService.UpdateEmailSettings(&req); err != nil {
		response.ServerError(c, "failed to update settings")
		return
	}
	response.Success(c, h.configService.GetEmailSettings())
}
