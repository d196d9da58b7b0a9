package handlers

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/upyoung/warroom/internal/middleware"
	"github.com/upyoung/warroom/internal/services"
	"github.com/upyoung/warroom/pkg/response"
)

type DashboardHandler struct {
	dashboardService *services.DashboardService
}

func NewDashboardHandler(db *gorm.DB, workdays *services.WorkdayService) *DashboardHandler {
	return &DashboardHandler{
		dashboardService: services.NewDashboardService(db, workdays),
	}
}

// GET /api/dashboard/monitor
func (h *DashboardHandler) Monitor(c *gin.Context) {
	brandID, _ := strconv.ParseUint(c.Query("brand_id"), 10, 32)
	items, err := h.dashboardService.Monitor(uint(brandID), c.Query("health"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, items)
}

// GET /api/dashboard/stats
func (h *DashboardHandler) GetStats(c *gin.Context) {
	brandID, _ := strconv.ParseUint(c.Query("brand_id"), 10, 32)
	stats, err := h.dashboardService.Stats(uint(brandID), c.Query("period_start"), c.Query("period_end"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, stats)
}

// GET /api/dashboard/parent-stats/:id
func (h *DashboardHandler) GetParentStats(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "invalid project ID")
		return
	}

	stats, err := h.dashboardService.ParentStats(uint(id))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, stats)
}

// GET /api/dashboard/calendar
func (h *DashboardHandler) GetCalendar(c *gin.Context) {
	now := time.Now()
	year, err := strconv.Atoi(c.DefaultQuery("year", strconv.Itoa(now.Year())))
	if err != nil {
		response.BadRequest(c, "invalid year")
		return
	}
	month, err := strconv.Atoi(c.DefaultQuery("month", strconv.Itoa(int(now.Month()))))
	if err != nil || month < 1 || month > 12 {
		response.BadRequest(c, "invalid month")
		return
	}

	user := c.Query("user")
	if user == "" {
		user = middleware.GetName(c)
	}

	days, err := h.dashboardService.Calendar(year, month, user)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, days)
}

// GET /api/dashboard/my-tasks
func (h *DashboardHandler) GetMyTasks(c *gin.Context) {
	tasks, err := h.dashboardService.MyTasks(middleware.GetName(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, tasks)
}
