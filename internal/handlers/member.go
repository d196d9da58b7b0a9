package handlers

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/upyoung/warroom/internal/services"
	"github.com/upyoung/warroom/pkg/response"
)

type MemberHandler struct {
	dashboardService *services.DashboardService
}

func NewMemberHandler(db *gorm.DB, workdays *services.WorkdayService) *MemberHandler {
	return &MemberHandler{
		dashboardService: services.NewDashboardService(db, workdays),
	}
}

// GET /api/members
func (h *MemberHandler) List(c *gin.Context) {
	members, err := h.dashboardService.Members()
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, members)
}

// GET /api/members/detail
func (h *MemberHandler) GetDetail(c *gin.Context) {
	name := c.Query("name")
	if name == "" {
		response.BadRequest(c, "name is required")
		return
	}

	detail, err := h.dashboardService.MemberDetail(name)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, detail)
}

// GET /api/members/hours
func (h *MemberHandler) GetHours(c *gin.Context) {
	hours, err := h.dashboardService.MemberHoursStats(c.Query("period_start"), c.Query("period_end"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, hours)
}

// GET /api/members/department-hours
func (h *MemberHandler) GetDepartmentHours(c *gin.Context) {
	hours, err := h.dashboardService.DepartmentHoursStats(c.Query("period_start"), c.Query("period_end"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, hours)
}
