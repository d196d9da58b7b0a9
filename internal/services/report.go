package services

import (
	"bytes"
	"encoding/csv"
	"strconv"

	"gorm.io/gorm"

	"github.com/upyoung/warroom/internal/models"
	"github.com/upyoung/warroom/internal/tracking"
)

// ReportService builds the history report over closed sub-projects and its
// CSV export.
type ReportService struct {
	db *gorm.DB
}

func NewReportService(db *gorm.DB) *ReportService {
	return &ReportService{db: db}
}

// HistoryItem is one closed sub-project with its resolved context.
type HistoryItem struct {
	Brand  string             `json:"brand"`
	Parent *models.Project    `json:"parent"`
	Sub    *models.SubProject `json:"sub"`
	Hours  float64            `json:"hours"`
}

// HistoryResponse is the history report: the closed list plus its summary.
type HistoryResponse struct {
	TotalProjects  int           `json:"total_projects"`
	DelayRate      int           `json:"delay_rate"`
	TotalDelayDays int           `json:"total_delay_days"`
	Reasons        []ReasonCount `json:"reasons"`
	TotalHours     float64       `json:"total_hours"`
	Items          []HistoryItem `json:"items"`
}

// History collects completed and aborted sub-projects whose closing date
// falls in the period. The completed date wins over the planned end date
// when both exist. Empty period bounds are open.
func (s *ReportService) History(brandID uint, periodStart, periodEnd string) (*HistoryResponse, error) {
	var brands []models.Brand
	if err := s.db.Order("id").Find(&brands).Error; err != nil {
		return nil, err
	}
	var parents []*models.Project
	if err := s.db.Order("start_date").Find(&parents).Error; err != nil {
		return nil, err
	}
	var subs []*models.SubProject
	err := s.db.Where("status IN ?", []string{models.SubStatusCompleted, models.SubStatusAborted}).
		Order("end_date DESC").Limit(historySubLimit).Find(&subs).Error
	if err != nil {
		return nil, err
	}

	idx := tracking.BuildIndex(brands, parents, subs)
	resp := &HistoryResponse{Items: []HistoryItem{}}
	reasons := make(map[string]int)
	var hours float64

	for _, sp := range subs {
		parent := idx.ParentByID[sp.ParentID]
		if parent == nil {
			continue
		}
		if brandID != 0 && parent.BrandID != brandID {
			continue
		}
		closed := orDefault(sp.CompletedDate, sp.EndDate)
		if !dateInPeriod(closed, periodStart, periodEnd) {
			continue
		}

		item := HistoryItem{
			Brand:  idx.BrandName(parent.BrandID),
			Parent: parent,
			Sub:    sp,
			Hours:  tracking.TotalHours(sp),
		}
		resp.Items = append(resp.Items, item)
		resp.TotalProjects++
		hours += item.Hours

		if sp.FinalDelayDays > 0 && sp.Status != models.SubStatusAborted {
			resp.DelayRate++ // running count, converted to a rate below
			resp.TotalDelayDays += sp.FinalDelayDays
		}
		if sp.DelayReason != "" {
			reasons[sp.DelayReason]++
		}
	}

	if resp.TotalProjects > 0 {
		resp.DelayRate = roundPercent(resp.DelayRate, resp.TotalProjects)
	}
	resp.Reasons = reasonList(reasons, resp.TotalProjects)
	resp.TotalHours = tracking.RoundHours(hours)
	return resp, nil
}

// csvHeader is the fixed export schema; downstream spreadsheets depend on
// the column order.
var csvHeader = []string{
	"品牌", "母專案", "子專案", "負責人", "結案日期", "總工時", "最終狀態", "延遲天數", "延遲原因",
}

// ExportCSV renders the history report as UTF-8 CSV with a BOM so Excel
// opens it correctly.
func (s *ReportService) ExportCSV(report *HistoryResponse) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString("\uFEFF")

	w := csv.NewWriter(&buf)
	if err := w.Write(csvHeader); err != nil {
		return nil, err
	}
	for _, item := range report.Items {
		row := []string{
			item.Brand,
			item.Parent.Title,
			item.Sub.Title,
			item.Sub.Assignee,
			item.Sub.EndDate,
			strconv.FormatFloat(item.Hours, 'f', -1, 64),
			item.Sub.Status,
			strconv.Itoa(item.Sub.FinalDelayDays),
			item.Sub.DelayReason,
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
