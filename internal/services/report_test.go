package services

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"

	"github.com/upyoung/warroom/internal/models"
)

func TestHistory_PeriodScopingAndSummary(t *testing.T) {
	db := setupTestDB(t)
	svc := NewReportService(db)

	db.Create(&models.Brand{Name: "Acme"})
	parent := models.Project{BrandID: 1, Title: "Alpha", StartDate: "2024-01-01", Status: models.ParentStatusActive}
	db.Create(&parent)

	hours := 12.5
	db.Create(&models.SubProject{
		ParentID: parent.ID, Title: "Done Late", Assignee: "Alice",
		Status: models.SubStatusCompleted, EndDate: "2024-03-10", CompletedDate: "2024-03-13",
		FinalDelayDays: 3, DelayReason: "人力不足", TotalHours: &hours,
	})
	db.Create(&models.SubProject{
		ParentID: parent.ID, Title: "Killed", Assignee: "Bob",
		Status: models.SubStatusAborted, EndDate: "2024-03-20",
		DelayReason: "需求變更",
	})
	db.Create(&models.SubProject{
		ParentID: parent.ID, Title: "Out of Period", Assignee: "Alice",
		Status: models.SubStatusCompleted, EndDate: "2024-06-01", CompletedDate: "2024-06-01",
	})

	report, err := svc.History(0, "2024-03-01", "2024-03-31")
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	if report.TotalProjects != 2 {
		t.Fatalf("totalProjects = %d, expected 2", report.TotalProjects)
	}
	// One delayed completion out of two closed: 50%. The aborted item
	// carries no delay even though it has a reason.
	if report.DelayRate != 50 {
		t.Errorf("delayRate = %d, expected 50", report.DelayRate)
	}
	if report.TotalDelayDays != 3 {
		t.Errorf("totalDelayDays = %d, expected 3", report.TotalDelayDays)
	}
	if len(report.Reasons) != 2 {
		t.Errorf("reasons = %+v", report.Reasons)
	}
	if report.TotalHours != 12.5 {
		t.Errorf("totalHours = %v, expected cached 12.5", report.TotalHours)
	}
}

func TestExportCSV_SchemaAndBOM(t *testing.T) {
	db := setupTestDB(t)
	svc := NewReportService(db)

	db.Create(&models.Brand{Name: "Acme"})
	parent := models.Project{BrandID: 1, Title: "Alpha", StartDate: "2024-01-01", Status: models.ParentStatusActive}
	db.Create(&parent)
	db.Create(&models.SubProject{
		ParentID: parent.ID, Title: "Done Late", Assignee: "Alice",
		Status: models.SubStatusCompleted, EndDate: "2024-03-10", CompletedDate: "2024-03-13",
		FinalDelayDays: 3, DelayReason: "人力不足",
		Events: models.EventList{{ID: "e1", Date: "2024-03-05", Hours: 7.5, Worker: "Alice"}},
	})

	report, err := svc.History(0, "", "")
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	data, err := svc.ExportCSV(report)
	if err != nil {
		t.Fatalf("ExportCSV failed: %v", err)
	}

	if !bytes.HasPrefix(data, []byte("\uFEFF")) {
		t.Error("CSV must start with a UTF-8 BOM")
	}

	r := csv.NewReader(strings.NewReader(strings.TrimPrefix(string(data), "\uFEFF")))
	rows, err := r.ReadAll()
	if err != nil {
		t.Fatalf("parse CSV: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("rows = %d, expected header + 1", len(rows))
	}
	if len(rows[0]) != 9 {
		t.Fatalf("columns = %d, expected the fixed 9-column schema", len(rows[0]))
	}
	if rows[0][0] != "品牌" || rows[0][8] != "延遲原因" {
		t.Errorf("header = %v", rows[0])
	}

	want := []string{"Acme", "Alpha", "Done Late", "Alice", "2024-03-10", "7.5", "completed", "3", "人力不足"}
	for i, v := range want {
		if rows[1][i] != v {
			t.Errorf("column %d = %q, expected %q", i, rows[1][i], v)
		}
	}
}
