package services

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/upyoung/warroom/internal/models"
	"github.com/upyoung/warroom/internal/tracking"
	"github.com/upyoung/warroom/pkg/response"
)

type ProjectService struct {
	db *gorm.DB
}

func NewProjectService(db *gorm.DB) *ProjectService {
	return &ProjectService{db: db}
}

type CreateProjectRequest struct {
	BrandID   uint   `json:"brand_id" binding:"required"`
	Title     string `json:"title" binding:"required"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

type UpdateProjectRequest struct {
	Title     string `json:"title"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	Owner     string `json:"owner"`
}

type AbortRequest struct {
	Reason string `json:"reason" binding:"required"`
	Remark string `json:"remark"`
}

// List returns parent projects, optionally filtered by brand and status.
func (s *ProjectService) List(brandID uint, status string) ([]models.Project, error) {
	query := s.db.Model(&models.Project{})
	if brandID != 0 {
		query = query.Where("brand_id = ?", brandID)
	}
	if status != "" {
		query = query.Where("status = ?", status)
	}
	var projects []models.Project
	if err := query.Order("start_date").Find(&projects).Error; err != nil {
		return nil, err
	}
	return projects, nil
}

// Get loads a single parent project.
func (s *ProjectService) Get(id uint) (*models.Project, error) {
	var p models.Project
	if err := s.db.First(&p, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, response.NewNotFound("project not found")
		}
		return nil, err
	}
	return &p, nil
}

// Create opens a new parent project. The title carries the start date as a
// prefix so list views sort readably, matching the house convention.
func (s *ProjectService) Create(req *CreateProjectRequest, owner string) (*models.Project, error) {
	var brand models.Brand
	if err := s.db.First(&brand, req.BrandID).Error; err != nil {
		return nil, response.NewBadRequest("brand does not exist")
	}

	startDate := req.StartDate
	if startDate == "" {
		startDate = tracking.FormatDay(tracking.Today())
	}

	p := models.Project{
		BrandID:   req.BrandID,
		Title:     fmt.Sprintf("【%s】%s", startDate, req.Title),
		StartDate: startDate,
		EndDate:   req.EndDate,
		Owner:     owner,
		Status:    models.ParentStatusActive,
	}
	if err := s.db.Create(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

// Update edits the mutable fields of an active parent project.
func (s *ProjectService) Update(id uint, req *UpdateProjectRequest) (*models.Project, error) {
	p, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	if p.IsTerminal() {
		return nil, response.NewConflict("project is closed and cannot be edited")
	}

	updates := map[string]interface{}{}
	if req.Title != "" {
		updates["title"] = req.Title
	}
	if req.StartDate != "" {
		updates["start_date"] = req.StartDate
	}
	if req.EndDate != "" {
		updates["end_date"] = req.EndDate
	}
	if req.Owner != "" {
		updates["owner"] = req.Owner
	}
	if len(updates) == 0 {
		return p, nil
	}

	if err := s.db.Model(p).Updates(updates).Error; err != nil {
		return nil, err
	}
	return s.Get(id)
}

// Archive moves an active parent to the archived terminal state.
func (s *ProjectService) Archive(id uint) (*models.Project, error) {
	return s.transition(id, models.ParentStatusArchived, nil)
}

// Complete closes an active parent as completed.
func (s *ProjectService) Complete(id uint) (*models.Project, error) {
	return s.transition(id, models.ParentStatusCompleted, nil)
}

// Abort closes an active parent as aborted with a reason. Children keep
// their own status; aborting never cascades.
func (s *ProjectService) Abort(id uint, req *AbortRequest) (*models.Project, error) {
	return s.transition(id, models.ParentStatusAborted, map[string]interface{}{
		"delay_reason": req.Reason,
		"delay_remark": req.Remark,
	})
}

// transition applies a one-directional status change. Terminal states admit
// no further transition.
func (s *ProjectService) transition(id uint, target string, extra map[string]interface{}) (*models.Project, error) {
	p, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	if p.IsTerminal() {
		return nil, response.NewConflict("project is already " + p.Status)
	}

	updates := map[string]interface{}{"status": target}
	for k, v := range extra {
		updates[k] = v
	}
	if err := s.db.Model(p).Updates(updates).Error; err != nil {
		return nil, err
	}
	return s.Get(id)
}
