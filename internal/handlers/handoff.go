package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/upyoung/warroom/internal/middleware"
	"github.com/upyoung/warroom/internal/models"
	"github.com/upyoung/warroom/internal/services"
	"github.com/upyoung/warroom/pkg/response"
)

// HandoffHandler exposes the work-log and state machine endpoints of a
// sub-project. It shares one HandoffService instance across requests so
// the pending delay-compensation stash survives between the record call
// and its resolve call.
type HandoffHandler struct {
	handoffService *services.HandoffService
}

func NewHandoffHandler(svc *services.HandoffService) *HandoffHandler {
	return &HandoffHandler{handoffService: svc}
}

// POST /api/sub-projects/:id/events
func (h *HandoffHandler) RecordEvent(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "invalid sub-project ID")
		return
	}

	var req services.RecordEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.handoffService.RecordEvent(uint(id), middleware.GetName(c), &req)
	if err != nil {
		response.Error(c, err)
		return
	}

	if result.Completed {
		services.LogInfo("handoff", "complete", "sub-project completed", nil, c.ClientIP(), c.Request.UserAgent(), nil)
	}
	response.Success(c, result)
}

// POST /api/sub-projects/:id/events/resolve-delay
func (h *HandoffHandler) ResolveDelay(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "invalid sub-project ID")
		return
	}

	var req services.ResolveDelayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	sub, err := h.handoffService.ResolveDelayCompletion(uint(id), middleware.GetName(c), &req)
	if err != nil {
		response.Error(c, err)
		return
	}

	services.LogInfo("handoff", "resolve_delay", "delayed completion resolved: "+sub.Title, nil, c.ClientIP(), c.Request.UserAgent(), req)
	response.Success(c, sub)
}

// POST /api/sub-projects/:id/abort
func (h *HandoffHandler) Abort(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "invalid sub-project ID")
		return
	}

	var req services.ResolveDelayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	sub, err := h.handoffService.Abort(uint(id), &req)
	if err != nil {
		response.Error(c, err)
		return
	}

	services.LogWarning("handoff", "abort", "sub-project aborted: "+sub.Title, nil, c.ClientIP(), c.Request.UserAgent(), req)
	response.Success(c, sub)
}

// POST /api/sub-projects/:id/manager-check/start
func (h *HandoffHandler) ManagerCheckStart(c *gin.Context) {
	h.managerCheck(c, h.handoffService.ManagerCheckStart)
}

// POST /api/sub-projects/:id/manager-check/finish
func (h *HandoffHandler) ManagerCheckFinish(c *gin.Context) {
	h.managerCheck(c, h.handoffService.ManagerCheckFinish)
}

func (h *HandoffHandler) managerCheck(c *gin.Context, fn func(uint, string) (*models.SubProject, error)) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "invalid sub-project ID")
		return
	}

	sub, err := fn(uint(id), middleware.GetName(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, sub)
}
