package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/dineatlas/dineatlas/backend/internal/models"
	"github.com/dineatlas/dineatlas/backend/internal/services"
)

// HealthHandler provides health check endpoints.
type HealthHandler struct {
	sessionKV services.KVStore
}

func NewHealthHandler(sessionKV services.KVStore) *HealthHandler {
	return &HealthHandler{sessionKV: sessionKV}
}

// CheckHealth returns the health status of all subsystems.
func (h *HealthHandler) CheckHealth(c *gin.Context) {
	overall := "healthy"

	// Database check
	dbStatus := "ok"
	sqlDB, err := models.GetDB().DB()
	if err != nil {
		dbStatus = "error: " + err.Error()
		overall = "unhealthy"
	} else if err := sqlDB.Ping(); err != nil {
		dbStatus = "error: " + err.Error()
		overall = "unhealthy"
	}

	// Session store check. A degraded store is reported but does not flip
	// the service unhealthy; the in-memory fallback keeps sessions working.
	storeStatus := "ok"
	if redisKV, ok := h.sessionKV.(*services.RedisKV); ok {
		if err := redisKV.Ping(c.Request.Context()); err != nil {
			storeStatus = "degraded: " + err.Error()
		}
	} else {
		storeStatus = "in-memory"
	}

	// Queue mode
	taskQueue := services.GetTaskQueue()
	queueMode := "sync"
	if taskQueue != nil && taskQueue.IsAsync() {
		queueMode = "async (Redis)"
	}

	// Upcoming booked reservations
	var bookedCount int64
	models.GetDB().Model(&models.Reservation{}).
		Where("status = ?", models.ReservationBooked).
		Count(&bookedCount)

	c.JSON(200, gin.H{
		"status":  overall,
		"service": "dineatlas",
		"components": gin.H{
			"database":            dbStatus,
			"session_store":       storeStatus,
			"queue_mode":          queueMode,
			"booked_reservations": bookedCount,
		},
	})
}
