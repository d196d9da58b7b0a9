package handlers

import (
	"fmt"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/upyoung/warroom/internal/services"
	"github.com/upyoung/warroom/pkg/response"
)

type ReportHandler struct {
	reportService *services.ReportService
}

func NewReportHandler(db *gorm.DB) *ReportHandler {
	return &ReportHandler{
		reportService: services.NewReportService(db),
	}
}

// GET /api/reports/history
func (h *ReportHandler) History(c *gin.Context) {
	brandID, _ := strconv.ParseUint(c.Query("brand_id"), 10, 32)
	report, err := h.reportService.History(uint(brandID), c.Query("period_start"), c.Query("period_end"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, report)
}

// GET /api/reports/history/export
func (h *ReportHandler) Export(c *gin.Context) {
	brandID, _ := strconv.ParseUint(c.Query("brand_id"), 10, 32)
	report, err := h.reportService.History(uint(brandID), c.Query("period_start"), c.Query("period_end"))
	if err != nil {
		response.Error(c, err)
		return
	}

	data, err := h.reportService.ExportCSV(report)
	if err != nil {
		response.Error(c, err)
		return
	}

	filename := fmt.Sprintf("history_report_%s.csv", time.Now().Format("2006-01-02"))
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(200, "text/csv; charset=utf-8", data)
}
