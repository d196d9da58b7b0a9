package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/upyoung/warroom/internal/middleware"
	"github.com/upyoung/warroom/internal/services"
	"github.com/upyoung/warroom/pkg/response"
)

type NotificationHandler struct {
	notificationService *services.NotificationService
}

func NewNotificationHandler(svc *services.NotificationService) *NotificationHandler {
	return &NotificationHandler{notificationService: svc}
}

// GET /api/notifications
func (h *NotificationHandler) List(c *gin.Context) {
	items, err := h.notificationService.List(middleware.GetName(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, items)
}

// GET /api/notifications/unread-count
func (h *NotificationHandler) UnreadCount(c *gin.Context) {
	count, err := h.notificationService.UnreadCount(middleware.GetName(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"count": count})
}

// POST /api/notifications/:id/read
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "invalid notification ID")
		return
	}

	if err := h.notificationService.MarkRead(uint(id), middleware.GetName(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"read": true})
}

// DELETE /api/notifications
func (h *NotificationHandler) ClearAll(c *gin.Context) {
	if err := h.notificationService.ClearAll(middleware.GetName(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"cleared": true})
}
