package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/upyoung/warroom/internal/services"
	"github.com/upyoung/warroom/pkg/response"
)

type BrandHandler struct {
	brandService *services.BrandService
}

func NewBrandHandler(db *gorm.DB) *BrandHandler {
	return &BrandHandler{
		brandService: services.NewBrandService(db),
	}
}

// GET /api/brands
func (h *BrandHandler) List(c *gin.Context) {
	brands, err := h.brandService.List()
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, brands)
}

// POST /api/brands
func (h *BrandHandler) Create(c *gin.Context) {
	var req services.CreateBrandRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	brand, err := h.brandService.Create(&req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, brand)
}

// PUT /api/brands/:id
func (h *BrandHandler) Rename(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "invalid brand ID")
		return
	}

	var req services.CreateBrandRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	brand, err := h.brandService.Rename(uint(id), req.Name)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, brand)
}
