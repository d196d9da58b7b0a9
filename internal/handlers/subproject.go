package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/upyoung/warroom/internal/middleware"
	"github.com/upyoung/warroom/internal/services"
	"github.com/upyoung/warroom/pkg/response"
)

type SubProjectHandler struct {
	subProjectService *services.SubProjectService
}

func NewSubProjectHandler(db *gorm.DB, notifications *services.NotificationService) *SubProjectHandler {
	return &SubProjectHandler{
		subProjectService: services.NewSubProjectService(db, notifications),
	}
}

// GET /api/sub-projects
func (h *SubProjectHandler) List(c *gin.Context) {
	parentID, _ := strconv.ParseUint(c.Query("parent_id"), 10, 32)
	subs, err := h.subProjectService.ListActive(uint(parentID))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, subs)
}

// GET /api/sub-projects/history
func (h *SubProjectHandler) ListHistory(c *gin.Context) {
	subs, err := h.subProjectService.ListHistory()
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, subs)
}

// GET /api/sub-projects/history-parents
func (h *SubProjectHandler) ListHistoryParents(c *gin.Context) {
	parents, err := h.subProjectService.ListHistoryParents()
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, parents)
}

// GET /api/sub-projects/:id
func (h *SubProjectHandler) GetByID(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "invalid sub-project ID")
		return
	}

	sub, err := h.subProjectService.Get(uint(id))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, sub)
}

// POST /api/sub-projects
func (h *SubProjectHandler) Create(c *gin.Context) {
	var req services.CreateSubProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	sub, err := h.subProjectService.Create(&req, middleware.GetName(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	services.LogInfo("sub_project", "create", "sub-project created: "+sub.Title, nil, c.ClientIP(), c.Request.UserAgent(), nil)
	response.Created(c, sub)
}

// PUT /api/sub-projects/:id
func (h *SubProjectHandler) Update(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "invalid sub-project ID")
		return
	}

	var req services.UpdateSubProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	sub, err := h.subProjectService.Update(uint(id), &req, middleware.GetName(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, sub)
}

// POST /api/sub-projects/:id/setup
func (h *SubProjectHandler) ConfirmSetup(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "invalid sub-project ID")
		return
	}

	var req services.ConfirmSetupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	sub, err := h.subProjectService.ConfirmSetup(uint(id), middleware.GetName(c), &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, sub)
}

// POST /api/sub-projects/:id/comments
func (h *SubProjectHandler) AddComment(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "invalid sub-project ID")
		return
	}

	var req services.AddCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	sub, err := h.subProjectService.AddComment(uint(id), middleware.GetName(c), &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, sub)
}

// POST /api/sub-projects/:id/links
func (h *SubProjectHandler) AddLink(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "invalid sub-project ID")
		return
	}

	var req services.AddLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	sub, err := h.subProjectService.AddLink(uint(id), &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, sub)
}

type updateTagsRequest struct {
	Tags []string `json:"tags"`
}

// PUT /api/sub-projects/:id/tags
func (h *SubProjectHandler) UpdateTags(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "invalid sub-project ID")
		return
	}

	var req updateTagsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	sub, err := h.subProjectService.UpdateTags(uint(id), req.Tags)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, sub)
}
