package services

import (
	"strings"

	"gorm.io/gorm"

	"github.com/upyoung/warroom/internal/models"
	"github.com/upyoung/warroom/pkg/response"
)

type BrandService struct {
	db *gorm.DB
}

func NewBrandService(db *gorm.DB) *BrandService {
	return &BrandService{db: db}
}

type CreateBrandRequest struct {
	Name string `json:"name" binding:"required"`
}

// List returns all brands.
func (s *BrandService) List() ([]models.Brand, error) {
	var brands []models.Brand
	if err := s.db.Order("id").Find(&brands).Error; err != nil {
		return nil, err
	}
	return brands, nil
}

// Create adds a new brand. Brands are never deleted.
func (s *BrandService) Create(req *CreateBrandRequest) (*models.Brand, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, response.NewBadRequest("brand name is required")
	}

	brand := models.Brand{Name: name}
	if err := s.db.Create(&brand).Error; err != nil {
		return nil, err
	}
	return &brand, nil
}

// Rename updates a brand name, the only mutable field.
func (s *BrandService) Rename(id uint, name string) (*models.Brand, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, response.NewBadRequest("brand name is required")
	}

	var brand models.Brand
	if err := s.db.First(&brand, id).Error; err != nil {
		return nil, response.NewNotFound("brand not found")
	}

	if err := s.db.Model(&brand).Update("name", name).Error; err != nil {
		return nil, err
	}
	brand.Name = name
	return &brand, nil
}
