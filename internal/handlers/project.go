package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/upyoung/warroom/internal/middleware"
	"github.com/upyoung/warroom/internal/models"
	"github.com/upyoung/warroom/internal/services"
	"github.com/upyoung/warroom/pkg/response"
)

type ProjectHandler struct {
	projectService *services.ProjectService
}

func NewProjectHandler(db *gorm.DB) *ProjectHandler {
	return &ProjectHandler{
		projectService: services.NewProjectService(db),
	}
}

// GET /api/projects
func (h *ProjectHandler) List(c *gin.Context) {
	brandID, _ := strconv.ParseUint(c.Query("brand_id"), 10, 32)
	projects, err := h.projectService.List(uint(brandID), c.Query("status"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, projects)
}

// GET /api/projects/:id
func (h *ProjectHandler) GetByID(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "invalid project ID")
		return
	}

	project, err := h.projectService.Get(uint(id))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, project)
}

// POST /api/projects
func (h *ProjectHandler) Create(c *gin.Context) {
	var req services.CreateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	project, err := h.projectService.Create(&req, middleware.GetName(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	services.LogInfo("project", "create", "project created: "+project.Title, nil, c.ClientIP(), c.Request.UserAgent(), nil)
	response.Created(c, project)
}

// PUT /api/projects/:id
func (h *ProjectHandler) Update(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "invalid project ID")
		return
	}

	var req services.UpdateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	project, err := h.projectService.Update(uint(id), &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, project)
}

// POST /api/projects/:id/archive
func (h *ProjectHandler) Archive(c *gin.Context) {
	h.transition(c, h.projectService.Archive)
}

// POST /api/projects/:id/complete
func (h *ProjectHandler) Complete(c *gin.Context) {
	h.transition(c, h.projectService.Complete)
}

// POST /api/projects/:id/abort
func (h *ProjectHandler) Abort(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "invalid project ID")
		return
	}

	var req services.AbortRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	project, err := h.projectService.Abort(uint(id), &req)
	if err != nil {
		response.Error(c, err)
		return
	}

	services.LogWarning("project", "abort", "project aborted: "+project.Title, nil, c.ClientIP(), c.Request.UserAgent(), req)
	response.Success(c, project)
}

func (h *ProjectHandler) transition(c *gin.Context, fn func(uint) (*models.Project, error)) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "invalid project ID")
		return
	}

	project, err := fn(uint(id))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, project)
}
