package services

import (
	"testing"

	"gorm.io/gorm"

	"github.com/upyoung/warroom/internal/models"
	"github.com/upyoung/warroom/pkg/response"
)

func newSubProjectService(db *gorm.DB) *SubProjectService {
	return NewSubProjectService(db, NewNotificationService(db, nil, nil))
}

func seedParent(t *testing.T, db *gorm.DB, startDate string) *models.Project {
	t.Helper()
	p := models.Project{BrandID: 1, Title: "Campaign", StartDate: startDate, Status: models.ParentStatusActive}
	if err := db.Create(&p).Error; err != nil {
		t.Fatalf("seed parent: %v", err)
	}
	return &p
}

func TestCreateSubProject_DefaultsAndAssignmentNotification(t *testing.T) {
	db := setupTestDB(t)
	svc := newSubProjectService(db)
	parent := seedParent(t, db, "2020-01-01")

	sp, err := svc.Create(&CreateSubProjectRequest{
		ParentID: parent.ID,
		Title:    "Banner Ads",
		Assignee: "Bob",
		Tags:     []string{"數位廣告"},
	}, "Alice")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if sp.Status != models.SubStatusSetup {
		t.Errorf("status = %q, expected setup", sp.Status)
	}
	if sp.CurrentHandler != "Bob" {
		t.Errorf("currentHandler = %q, expected the assignee", sp.CurrentHandler)
	}
	if sp.StartDate == "" || sp.LastHandoffDate == "" {
		t.Error("start and last handoff dates should default to today")
	}

	var count int64
	db.Model(&models.Notification{}).Where("recipient = ? AND type = ?", "Bob", "task").Count(&count)
	if count != 1 {
		t.Errorf("assignment notifications = %d, expected 1", count)
	}
}

func TestCreateSubProject_SelfAssignmentSkipsNotification(t *testing.T) {
	db := setupTestDB(t)
	svc := newSubProjectService(db)
	parent := seedParent(t, db, "2020-01-01")

	if _, err := svc.Create(&CreateSubProjectRequest{
		ParentID: parent.ID, Title: "Solo", Assignee: "Alice",
	}, "Alice"); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	var count int64
	db.Model(&models.Notification{}).Count(&count)
	if count != 0 {
		t.Errorf("notifications = %d, expected none for self-assignment", count)
	}
}

func TestCreateSubProject_ClampsStartToParent(t *testing.T) {
	db := setupTestDB(t)
	svc := newSubProjectService(db)
	// Parent starts far in the future; the sub start must be pushed up
	parent := seedParent(t, db, "2999-06-01")

	sp, err := svc.Create(&CreateSubProjectRequest{
		ParentID: parent.ID, Title: "Teaser", Assignee: "Alice",
	}, "Alice")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if sp.StartDate != "2999-06-01" {
		t.Errorf("startDate = %q, expected clamped to parent start", sp.StartDate)
	}
}

func TestConfirmSetup(t *testing.T) {
	db := setupTestDB(t)
	svc := newSubProjectService(db)
	parent := seedParent(t, db, "2024-01-01")

	sp, err := svc.Create(&CreateSubProjectRequest{
		ParentID: parent.ID, Title: "Site Revamp", Assignee: "Alice",
	}, "Alice")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	// Wrong caller
	_, err = svc.ConfirmSetup(sp.ID, "Bob", &ConfirmSetupRequest{
		StartDate:  "2024-03-01",
		Milestones: []models.Milestone{{Title: "Draft", Date: "2024-03-10"}},
	})
	if appErr, ok := err.(*response.AppError); !ok || appErr.HTTPStatus != 403 {
		t.Errorf("expected 403 for non-assignee, got %v", err)
	}

	// No milestones
	_, err = svc.ConfirmSetup(sp.ID, "Alice", &ConfirmSetupRequest{StartDate: "2024-03-01", Milestones: nil})
	if appErr, ok := err.(*response.AppError); !ok || appErr.HTTPStatus != 400 {
		t.Errorf("expected 400 for empty milestones, got %v", err)
	}

	// Valid confirmation: max milestone date becomes the deadline
	confirmed, err := svc.ConfirmSetup(sp.ID, "Alice", &ConfirmSetupRequest{
		StartDate: "2024-03-01",
		Milestones: []models.Milestone{
			{Title: "Ship", Date: "2024-04-15"},
			{Title: "Draft", Date: "2024-03-10"},
		},
	})
	if err != nil {
		t.Fatalf("ConfirmSetup failed: %v", err)
	}
	if confirmed.Status != models.SubStatusInProgress {
		t.Errorf("status = %q, expected in_progress", confirmed.Status)
	}
	if confirmed.EndDate != "2024-04-15" {
		t.Errorf("endDate = %q, expected max milestone date", confirmed.EndDate)
	}
	if confirmed.Milestones[0].Date != "2024-03-10" {
		t.Error("milestones should be stored date-ascending")
	}
	if confirmed.Milestones[0].ID == "" {
		t.Error("milestones should receive generated ids")
	}

	// Confirming twice fails
	if _, err := svc.ConfirmSetup(sp.ID, "Alice", &ConfirmSetupRequest{
		StartDate:  "2024-03-01",
		Milestones: []models.Milestone{{Title: "x", Date: "2024-05-01"}},
	}); err == nil {
		t.Error("expected error confirming a non-setup sub-project")
	}
}

func TestAddComment_MentionNotifications(t *testing.T) {
	db := setupTestDB(t)
	svc := newSubProjectService(db)
	parent := seedParent(t, db, "2024-01-01")
	db.Create(&models.User{Email: "bob@upyoung.com", Name: "Bob", Team: "digital", Role: "member", IsActive: true})

	sp, err := svc.Create(&CreateSubProjectRequest{
		ParentID: parent.ID, Title: "EDM", Assignee: "Alice",
	}, "Alice")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	updated, err := svc.AddComment(sp.ID, "Alice", &AddCommentRequest{Content: "請 @Bob 確認素材 @Nobody @Bob"})
	if err != nil {
		t.Fatalf("AddComment failed: %v", err)
	}
	if len(updated.Comments) != 1 {
		t.Fatalf("comments = %d, expected 1", len(updated.Comments))
	}

	var count int64
	db.Model(&models.Notification{}).Where("recipient = ?", "Bob").Count(&count)
	if count != 1 {
		t.Errorf("mention notifications = %d, expected 1 (deduped, unknown names skipped)", count)
	}
}

func TestAddLinkAndTags(t *testing.T) {
	db := setupTestDB(t)
	svc := newSubProjectService(db)
	parent := seedParent(t, db, "2024-01-01")

	sp, err := svc.Create(&CreateSubProjectRequest{
		ParentID: parent.ID, Title: "Assets", Assignee: "Alice",
	}, "Alice")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	withLink, err := svc.AddLink(sp.ID, &AddLinkRequest{Title: "Figma", URL: "https://figma.com/x"})
	if err != nil {
		t.Fatalf("AddLink failed: %v", err)
	}
	if len(withLink.Links) != 1 || withLink.Links[0].Title != "Figma" {
		t.Errorf("links = %+v", withLink.Links)
	}

	withTags, err := svc.UpdateTags(sp.ID, []string{"官網", "數位廣告"})
	if err != nil {
		t.Fatalf("UpdateTags failed: %v", err)
	}
	if len(withTags.Tags) != 2 {
		t.Errorf("tags = %+v", withTags.Tags)
	}
}
