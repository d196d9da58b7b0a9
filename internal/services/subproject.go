package services

import (
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/upyoung/warroom/internal/models"
	"github.com/upyoung/warroom/internal/tracking"
	"github.com/upyoung/warroom/pkg/response"
)

// History loads are capped the same way the original lazy loader capped its
// queries, newest first.
const (
	historyParentLimit = 100
	historySubLimit    = 300
)

type SubProjectService struct {
	db            *gorm.DB
	notifications *NotificationService
}

func NewSubProjectService(db *gorm.DB, notifications *NotificationService) *SubProjectService {
	return &SubProjectService{db: db, notifications: notifications}
}

type CreateSubProjectRequest struct {
	ParentID uint     `json:"parent_id" binding:"required"`
	Title    string   `json:"title" binding:"required"`
	Assignee string   `json:"assignee" binding:"required"`
	Tags     []string `json:"tags"`
}

type UpdateSubProjectRequest struct {
	Title     string   `json:"title"`
	Assignee  string   `json:"assignee"`
	StartDate string   `json:"start_date"`
	EndDate   string   `json:"end_date"`
	Tags      []string `json:"tags"`
}

type ConfirmSetupRequest struct {
	StartDate  string            `json:"start_date" binding:"required"`
	Milestones []models.Milestone `json:"milestones" binding:"required"`
}

type AddCommentRequest struct {
	Content string `json:"content" binding:"required"`
}

type AddLinkRequest struct {
	Title string `json:"title" binding:"required"`
	URL   string `json:"url" binding:"required"`
}

// Get loads a single sub-project.
func (s *SubProjectService) Get(id uint) (*models.SubProject, error) {
	var sp models.SubProject
	if err := s.db.First(&sp, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, response.NewNotFound("sub-project not found")
		}
		return nil, err
	}
	return &sp, nil
}

// ListActive returns setup/in_progress sub-projects, optionally scoped to a
// parent.
func (s *SubProjectService) ListActive(parentID uint) ([]*models.SubProject, error) {
	query := s.db.Where("status IN ?", []string{models.SubStatusSetup, models.SubStatusInProgress})
	if parentID != 0 {
		query = query.Where("parent_id = ?", parentID)
	}
	var subs []*models.SubProject
	if err := query.Order("created_at").Find(&subs).Error; err != nil {
		return nil, err
	}
	return subs, nil
}

// ListHistory returns closed sub-projects, newest end date first, capped.
func (s *SubProjectService) ListHistory() ([]*models.SubProject, error) {
	var subs []*models.SubProject
	err := s.db.
		Where("status IN ?", []string{models.SubStatusCompleted, models.SubStatusAborted}).
		Order("end_date DESC").
		Limit(historySubLimit).
		Find(&subs).Error
	if err != nil {
		return nil, err
	}
	return subs, nil
}

// ListHistoryParents returns closed parent projects, newest start date
// first, capped.
func (s *SubProjectService) ListHistoryParents() ([]*models.Project, error) {
	var parents []*models.Project
	err := s.db.
		Where("status IN ?", []string{models.ParentStatusCompleted, models.ParentStatusAborted, models.ParentStatusArchived}).
		Order("start_date DESC").
		Limit(historyParentLimit).
		Find(&parents).Error
	if err != nil {
		return nil, err
	}
	return parents, nil
}

// Create opens a sub-project in setup state. The creator's choice of start
// date is today, clamped so it never precedes the parent's start date. The
// assignee gets a task notification unless they created it themselves.
func (s *SubProjectService) Create(req *CreateSubProjectRequest, creator string) (*models.SubProject, error) {
	var parent models.Project
	if err := s.db.First(&parent, req.ParentID).Error; err != nil {
		return nil, response.NewBadRequest("parent project does not exist")
	}
	if parent.IsTerminal() {
		return nil, response.NewConflict("parent project is closed")
	}

	today := tracking.FormatDay(tracking.Today())
	startDate := today
	if parent.StartDate != "" && startDate < parent.StartDate {
		startDate = parent.StartDate
	}

	sp := models.SubProject{
		ParentID:        req.ParentID,
		Title:           req.Title,
		Assignee:        req.Assignee,
		CurrentHandler:  req.Assignee,
		Status:          models.SubStatusSetup,
		StartDate:       startDate,
		LastHandoffDate: today,
		Milestones:      models.MilestoneList{},
		Events:          models.EventList{},
		Links:           models.LinkList{},
		Comments:        models.CommentList{},
		Tags:            models.StringList(req.Tags),
	}
	if sp.Tags == nil {
		sp.Tags = models.StringList{}
	}

	if err := s.db.Create(&sp).Error; err != nil {
		return nil, err
	}

	if req.Assignee != creator {
		s.notifications.Send(req.Assignee, "task",
			fmt.Sprintf("您被指派負責新專案: %s", sp.Title),
			sp.ParentID, sp.ID, creator)
	}
	return &sp, nil
}

// Update edits a sub-project's base fields. The start date may never precede
// the parent's start date. Reassignment notifies the new assignee.
func (s *SubProjectService) Update(id uint, req *UpdateSubProjectRequest, caller string) (*models.SubProject, error) {
	sp, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	if sp.IsClosed() {
		return nil, response.NewConflict("sub-project is closed and cannot be edited")
	}

	var parent models.Project
	if err := s.db.First(&parent, sp.ParentID).Error; err != nil {
		return nil, err
	}
	if req.StartDate != "" && parent.StartDate != "" && req.StartDate < parent.StartDate {
		return nil, response.NewBadRequest(
			fmt.Sprintf("sub-project start date (%s) cannot precede parent start date (%s)", req.StartDate, parent.StartDate))
	}

	oldAssignee := sp.Assignee
	updates := map[string]interface{}{}
	if req.Title != "" {
		updates["title"] = req.Title
	}
	if req.Assignee != "" {
		updates["assignee"] = req.Assignee
	}
	if req.StartDate != "" {
		updates["start_date"] = req.StartDate
	}
	if req.EndDate != "" {
		updates["end_date"] = req.EndDate
	}
	if req.Tags != nil {
		updates["tags"] = models.StringList(req.Tags)
	}
	if len(updates) == 0 {
		return sp, nil
	}

	if err := s.db.Model(sp).Updates(updates).Error; err != nil {
		return nil, err
	}

	if req.Assignee != "" && req.Assignee != oldAssignee {
		title := sp.Title
		if req.Title != "" {
			title = req.Title
		}
		s.notifications.Send(req.Assignee, "task",
			fmt.Sprintf("您被指派負責專案: %s", title),
			sp.ParentID, sp.ID, caller)
	}
	return s.Get(id)
}

// ConfirmSetup moves a sub-project from setup to in_progress. Only the
// assignee may confirm, a start date and at least one milestone are
// required, and the latest milestone date becomes the end date.
func (s *SubProjectService) ConfirmSetup(id uint, caller string, req *ConfirmSetupRequest) (*models.SubProject, error) {
	sp, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	if sp.Assignee != caller {
		return nil, response.NewForbidden("only the assignee can confirm setup")
	}
	if sp.Status != models.SubStatusSetup {
		return nil, response.NewConflict("sub-project is not in setup")
	}
	if req.StartDate == "" {
		return nil, response.NewBadRequest("start date is required")
	}
	if len(req.Milestones) == 0 {
		return nil, response.NewBadRequest("at least one milestone is required")
	}

	var parent models.Project
	if err := s.db.First(&parent, sp.ParentID).Error; err != nil {
		return nil, err
	}
	if parent.StartDate != "" && req.StartDate < parent.StartDate {
		return nil, response.NewBadRequest(
			fmt.Sprintf("sub-project start date cannot precede parent start date (%s)", parent.StartDate))
	}

	milestones := make(models.MilestoneList, len(req.Milestones))
	copy(milestones, req.Milestones)
	for i := range milestones {
		if milestones[i].ID == "" {
			milestones[i].ID = "ms" + uuid.NewString()
		}
		if milestones[i].Date == "" {
			return nil, response.NewBadRequest("every milestone needs a planned date")
		}
	}
	sorted := tracking.SortedMilestones(milestones)
	endDate := sorted[len(sorted)-1].Date

	updates := map[string]interface{}{
		"start_date": req.StartDate,
		"end_date":   endDate,
		"milestones": models.MilestoneList(sorted),
		"status":     models.SubStatusInProgress,
	}
	if err := s.db.Model(sp).Updates(updates).Error; err != nil {
		return nil, err
	}
	return s.Get(id)
}

var mentionPattern = regexp.MustCompile(`@(\S+)`)

// AddComment appends a comment and notifies every @mentioned member.
func (s *SubProjectService) AddComment(id uint, caller string, req *AddCommentRequest) (*models.SubProject, error) {
	sp, err := s.Get(id)
	if err != nil {
		return nil, err
	}

	comment := models.Comment{
		ID:      "c" + uuid.NewString(),
		User:    caller,
		Content: req.Content,
		Time:    time.Now().Format("2006-01-02 15:04:05"),
	}
	comments := append(models.CommentList{}, sp.Comments...)
	comments = append(comments, comment)

	if err := s.db.Model(sp).Update("comments", comments).Error; err != nil {
		return nil, err
	}
	sp.Comments = comments

	s.notifyMentions(sp, caller, req.Content)
	return sp, nil
}

// notifyMentions resolves @name references against registered members and
// sends each one a notification, skipping self-mentions.
func (s *SubProjectService) notifyMentions(sp *models.SubProject, caller, content string) {
	matches := mentionPattern.FindAllStringSubmatch(content, -1)
	if len(matches) == 0 {
		return
	}
	seen := make(map[string]bool)
	for _, m := range matches {
		name := m[1]
		if seen[name] || name == caller {
			continue
		}
		seen[name] = true

		var user models.User
		if err := s.db.Where("name = ?", name).First(&user).Error; err != nil {
			continue
		}
		s.notifications.Send(user.Name, "task",
			fmt.Sprintf("%s 在留言中提及了您: %s", caller, content),
			sp.ParentID, sp.ID, caller)
	}
}

// AddLink appends a resource link.
func (s *SubProjectService) AddLink(id uint, req *AddLinkRequest) (*models.SubProject, error) {
	sp, err := s.Get(id)
	if err != nil {
		return nil, err
	}

	links := append(models.LinkList{}, sp.Links...)
	links = append(links, models.Link{Title: req.Title, URL: req.URL})

	if err := s.db.Model(sp).Update("links", links).Error; err != nil {
		return nil, err
	}
	sp.Links = links
	return sp, nil
}

// UpdateTags replaces the tag list.
func (s *SubProjectService) UpdateTags(id uint, tags []string) (*models.SubProject, error) {
	sp, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	list := models.StringList(tags)
	if list == nil {
		list = models.StringList{}
	}
	if err := s.db.Model(sp).Update("tags", list).Error; err != nil {
		return nil, err
	}
	sp.Tags = list
	return sp, nil
}
