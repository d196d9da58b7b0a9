package services

import (
	"fmt"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/upyoung/warroom/internal/models"
	"github.com/upyoung/warroom/pkg/response"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	err = db.AutoMigrate(
		&models.User{},
		&models.Brand{},
		&models.Project{},
		&models.SubProject{},
		&models.Notification{},
		&models.SystemLog{},
	)
	if err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	return db
}

func newHandoffService(db *gorm.DB) *HandoffService {
	return NewHandoffService(db, NewNotificationService(db, nil, nil))
}

// seedInProgress creates a sub-project mid-flight: two milestones, the
// first already completed, one event on record, Alice holding the ball.
func seedInProgress(t *testing.T, db *gorm.DB) *models.SubProject {
	t.Helper()
	parent := models.Project{BrandID: 1, Title: "Spring Launch", StartDate: "2024-02-01", Status: models.ParentStatusActive}
	if err := db.Create(&parent).Error; err != nil {
		t.Fatalf("seed parent: %v", err)
	}
	sp := models.SubProject{
		ParentID:        parent.ID,
		Title:           "Landing Page",
		Assignee:        "Alice",
		CurrentHandler:  "Alice",
		Status:          models.SubStatusInProgress,
		StartDate:       "2024-03-01",
		EndDate:         "2024-03-10",
		LastHandoffDate: "2024-03-01",
		Milestones: models.MilestoneList{
			{ID: "m1", Title: "Draft", Date: "2024-03-05", IsCompleted: true, CompletedDate: "2024-03-04"},
			{ID: "m2", Title: "Ship", Date: "2024-03-10"},
		},
		Events: models.EventList{
			{ID: "ev1", Date: "2024-03-02", Hours: 2, Worker: "Alice", Description: "kickoff"},
		},
	}
	if err := db.Create(&sp).Error; err != nil {
		t.Fatalf("seed sub-project: %v", err)
	}
	return &sp
}

func reload(t *testing.T, db *gorm.DB, id uint) *models.SubProject {
	t.Helper()
	var sp models.SubProject
	if err := db.First(&sp, id).Error; err != nil {
		t.Fatalf("reload sub-project: %v", err)
	}
	return &sp
}

func TestRecordEvent_PermissionRejected(t *testing.T) {
	db := setupTestDB(t)
	svc := newHandoffService(db)
	sp := seedInProgress(t, db)

	_, err := svc.RecordEvent(sp.ID, "Bob", &RecordEventRequest{
		Date: "2024-03-06", Hours: 1, NextAssignee: "Bob",
	})
	if err == nil {
		t.Fatal("expected permission error")
	}
	appErr, ok := err.(*response.AppError)
	if !ok || appErr.HTTPStatus != 403 {
		t.Errorf("expected 403 AppError, got %v", err)
	}

	// Zero mutation
	after := reload(t, db, sp.ID)
	if len(after.Events) != 1 {
		t.Errorf("events = %d, expected untouched 1", len(after.Events))
	}
	if after.CurrentHandler != "Alice" {
		t.Errorf("currentHandler = %q, expected Alice", after.CurrentHandler)
	}
}

func TestRecordEvent_DateValidations(t *testing.T) {
	db := setupTestDB(t)
	svc := newHandoffService(db)
	sp := seedInProgress(t, db)

	tests := []struct {
		name string
		req  RecordEventRequest
	}{
		{"before start date", RecordEventRequest{Date: "2024-02-28", NextAssignee: "Alice"}},
		{"before last event", RecordEventRequest{Date: "2024-03-01", NextAssignee: "Alice"}},
		{"final milestone handoff", RecordEventRequest{Date: "2024-03-09", NextAssignee: "Bob", MatchedMilestoneID: "m2"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.RecordEvent(sp.ID, "Alice", &tt.req)
			if err == nil {
				t.Fatal("expected validation error")
			}
			appErr, ok := err.(*response.AppError)
			if !ok || appErr.HTTPStatus != 400 {
				t.Errorf("expected 400 AppError, got %v", err)
			}
			after := reload(t, db, sp.ID)
			if len(after.Events) != 1 {
				t.Errorf("events mutated on rejected call")
			}
		})
	}
}

func TestRecordEvent_HandoffCommits(t *testing.T) {
	db := setupTestDB(t)
	svc := newHandoffService(db)
	sp := seedInProgress(t, db)

	result, err := svc.RecordEvent(sp.ID, "Alice", &RecordEventRequest{
		Date: "2024-03-06", Hours: 3.5, Description: "copy review", NextAssignee: "Bob",
	})
	if err != nil {
		t.Fatalf("RecordEvent failed: %v", err)
	}
	if result.PendingDelay || result.Completed {
		t.Errorf("plain handoff should neither complete nor pend, got %+v", result)
	}

	after := reload(t, db, sp.ID)
	if len(after.Events) != 2 {
		t.Fatalf("events = %d, expected 2", len(after.Events))
	}
	if after.CurrentHandler != "Bob" {
		t.Errorf("currentHandler = %q, expected Bob", after.CurrentHandler)
	}
	if after.LastHandoffDate != "2024-03-06" {
		t.Errorf("lastHandoffDate = %q, expected 2024-03-06", after.LastHandoffDate)
	}
	if after.TotalHours == nil || *after.TotalHours != 5.5 {
		t.Errorf("totalHours cache = %v, expected 5.5", after.TotalHours)
	}
	if after.Events[1].HandoffTo != "Bob" {
		t.Errorf("handoffTo = %q, expected Bob", after.Events[1].HandoffTo)
	}

	var count int64
	db.Model(&models.Notification{}).Where("recipient = ? AND type = ?", "Bob", "handoff").Count(&count)
	if count != 1 {
		t.Errorf("handoff notifications = %d, expected 1", count)
	}
}

func TestRecordEvent_KeepingBallDoesNotTouchHandoffDate(t *testing.T) {
	db := setupTestDB(t)
	svc := newHandoffService(db)
	sp := seedInProgress(t, db)

	if _, err := svc.RecordEvent(sp.ID, "Alice", &RecordEventRequest{
		Date: "2024-03-06", Hours: 1, NextAssignee: "Alice",
	}); err != nil {
		t.Fatalf("RecordEvent failed: %v", err)
	}

	after := reload(t, db, sp.ID)
	if after.LastHandoffDate != "2024-03-01" {
		t.Errorf("lastHandoffDate = %q, expected unchanged 2024-03-01", after.LastHandoffDate)
	}
	if after.Events[1].HandoffTo != "" {
		t.Errorf("handoffTo should be empty when the handler keeps the ball")
	}
}

func TestRecordEvent_OnTimeClosure(t *testing.T) {
	db := setupTestDB(t)
	svc := newHandoffService(db)
	sp := seedInProgress(t, db)

	result, err := svc.RecordEvent(sp.ID, "Alice", &RecordEventRequest{
		Date: "2024-03-09", Hours: 2, NextAssignee: "Alice", MatchedMilestoneID: "m2",
	})
	if err != nil {
		t.Fatalf("RecordEvent failed: %v", err)
	}
	if !result.Completed {
		t.Fatal("expected on-time closure")
	}

	after := reload(t, db, sp.ID)
	if after.Status != models.SubStatusCompleted {
		t.Errorf("status = %q, expected completed", after.Status)
	}
	if after.FinalDelayDays != 0 {
		t.Errorf("finalDelayDays = %d, expected 0", after.FinalDelayDays)
	}
	if after.CompletedDate != "2024-03-09" {
		t.Errorf("completedDate = %q", after.CompletedDate)
	}
	ms := after.Milestones[1]
	if !ms.IsCompleted || ms.CompletedDate != "2024-03-09" {
		t.Errorf("final milestone not completed: %+v", ms)
	}
	if ms.DiffDays == nil || *ms.DiffDays != -1 {
		t.Errorf("diffDays = %v, expected -1 (one day early)", ms.DiffDays)
	}
}

func TestRecordEvent_LateClosureRollsBackAndResolves(t *testing.T) {
	db := setupTestDB(t)
	svc := newHandoffService(db)
	sp := seedInProgress(t, db)

	// endDate + 3 days
	result, err := svc.RecordEvent(sp.ID, "Alice", &RecordEventRequest{
		Date: "2024-03-13", Hours: 4, NextAssignee: "Alice", MatchedMilestoneID: "m2",
	})
	if err != nil {
		t.Fatalf("RecordEvent failed: %v", err)
	}
	if !result.PendingDelay {
		t.Fatal("expected pending delay state")
	}
	if result.FinalDelayDays != 3 {
		t.Errorf("finalDelayDays = %d, expected 3", result.FinalDelayDays)
	}

	// Full rollback: nothing persisted until the reason is supplied
	mid := reload(t, db, sp.ID)
	if len(mid.Events) != 1 {
		t.Errorf("events = %d, expected untouched 1", len(mid.Events))
	}
	if mid.CurrentHandler != "Alice" {
		t.Errorf("currentHandler = %q, expected Alice", mid.CurrentHandler)
	}
	if mid.Milestones[1].IsCompleted {
		t.Error("final milestone must stay incomplete while pending")
	}
	if mid.Status != models.SubStatusInProgress {
		t.Errorf("status = %q, expected in_progress", mid.Status)
	}

	if days, ok := svc.PendingDelay(sp.ID); !ok || days != 3 {
		t.Errorf("PendingDelay = (%d, %v), expected (3, true)", days, ok)
	}

	after, err := svc.ResolveDelayCompletion(sp.ID, "Alice", &ResolveDelayRequest{Reason: "人力不足"})
	if err != nil {
		t.Fatalf("ResolveDelayCompletion failed: %v", err)
	}
	if after.Status != models.SubStatusCompleted {
		t.Errorf("status = %q, expected completed", after.Status)
	}
	if after.FinalDelayDays != 3 {
		t.Errorf("finalDelayDays = %d, expected 3", after.FinalDelayDays)
	}
	if after.DelayReason != "人力不足" || after.DelayRemark != "" {
		t.Errorf("delay reason/remark = %q/%q", after.DelayReason, after.DelayRemark)
	}
	if after.CompletedDate != "2024-03-13" {
		t.Errorf("completedDate = %q", after.CompletedDate)
	}
	if len(after.Events) != 2 {
		t.Errorf("events = %d, expected 2 after replay", len(after.Events))
	}
	if !after.Milestones[1].IsCompleted {
		t.Error("final milestone should be completed after resolve")
	}

	if _, ok := svc.PendingDelay(sp.ID); ok {
		t.Error("stash should be cleared after resolve")
	}
}

func TestResolveDelayCompletion_StaleStash(t *testing.T) {
	db := setupTestDB(t)
	svc := newHandoffService(db)
	sp := seedInProgress(t, db)

	_, err := svc.ResolveDelayCompletion(sp.ID, "Alice", &ResolveDelayRequest{Reason: "人力不足"})
	if err == nil {
		t.Fatal("expected stale stash error")
	}
	appErr, ok := err.(*response.AppError)
	if !ok || appErr.HTTPStatus != 409 {
		t.Errorf("expected 409 AppError, got %v", err)
	}
}

func TestAbort_SetsReasonAndIsFinal(t *testing.T) {
	db := setupTestDB(t)
	svc := newHandoffService(db)
	sp := seedInProgress(t, db)

	after, err := svc.Abort(sp.ID, &ResolveDelayRequest{Reason: "需求變更", Remark: "client call"})
	if err != nil {
		t.Fatalf("Abort failed: %v", err)
	}
	if after.Status != models.SubStatusAborted {
		t.Errorf("status = %q, expected aborted", after.Status)
	}
	if after.DelayReason != "需求變更" {
		t.Errorf("delayReason = %q", after.DelayReason)
	}

	if _, err := svc.Abort(sp.ID, &ResolveDelayRequest{Reason: "again"}); err == nil {
		t.Error("aborting twice should fail")
	}
	if _, err := svc.RecordEvent(sp.ID, "Alice", &RecordEventRequest{Date: "2024-03-20", NextAssignee: "Alice"}); err == nil {
		t.Error("recording on an aborted sub-project should fail")
	}
}

func TestManagerCheck_StartAndFinish(t *testing.T) {
	db := setupTestDB(t)
	svc := newHandoffService(db)
	sp := seedInProgress(t, db)

	started, err := svc.ManagerCheckStart(sp.ID, "Alice")
	if err != nil {
		t.Fatalf("ManagerCheckStart failed: %v", err)
	}
	if !started.IsWaitingForManager {
		t.Error("expected waiting flag set")
	}
	if started.ManagerCheckStartDate == "" {
		t.Error("expected check start date recorded")
	}
	if len(started.Events) != 2 {
		t.Errorf("events = %d, expected log entry appended", len(started.Events))
	}
	if started.Events[1].Hours != 0 {
		t.Errorf("check log event must carry zero hours")
	}

	if _, err := svc.ManagerCheckStart(sp.ID, "Alice"); err == nil {
		t.Error("starting a second check should fail")
	}

	finished, err := svc.ManagerCheckFinish(sp.ID, "Alice")
	if err != nil {
		t.Fatalf("ManagerCheckFinish failed: %v", err)
	}
	if finished.IsWaitingForManager {
		t.Error("expected waiting flag cleared")
	}
	if finished.ManagerCheckStartDate != "" {
		t.Error("expected check start date cleared")
	}
	if len(finished.Events) != 3 {
		t.Errorf("events = %d, expected closing log entry", len(finished.Events))
	}

	if _, err := svc.ManagerCheckFinish(sp.ID, "Alice"); err == nil {
		t.Error("finishing without a pending check should fail")
	}
}
