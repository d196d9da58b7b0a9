package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/upyoung/warroom/internal/models"
	"github.com/upyoung/warroom/internal/services"
)

type HealthHandler struct{}

func NewHealthHandler() *HealthHandler {
	return &HealthHandler{}
}

// CheckHealth reports the status of the database, queue and SSE hub.
func (h *HealthHandler) CheckHealth(c *gin.Context) {
	overall := "healthy"

	dbStatus := "ok"
	sqlDB, err := models.GetDB().DB()
	if err != nil {
		dbStatus = "error: " + err.Error()
		overall = "unhealthy"
	} else if err := sqlDB.Ping(); err != nil {
		dbStatus = "error: " + err.Error()
		overall = "unhealthy"
	}

	taskQueue := services.GetTaskQueue()
	queueMode := "sync"
	if taskQueue != nil && taskQueue.IsAsync() {
		queueMode = "async (Redis)"
	}

	var activeCount int64
	models.GetDB().Model(&models.SubProject{}).
		Where("status IN ?", []string{models.SubStatusSetup, models.SubStatusInProgress}).
		Count(&activeCount)

	c.JSON(200, gin.H{
		"status":  overall,
		"service": "warroom",
		"components": gin.H{
			"database":    dbStatus,
			"queue_mode":  queueMode,
			"sse_clients": services.GetSSEHub().ClientCount(),
			"active_subs": activeCount,
		},
	})
}
