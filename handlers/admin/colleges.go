package admin

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/ethicsfolio/portfolio-api/model"
	"github.com/ethicsfolio/portfolio-api/utils/response"
	"github.com/ethicsfolio/portfolio-api/utils/validation"
)

// CreateCollegeRequest represents a college creation request
type CreateCollegeRequest struct {
	Name     string `json:"name" validate:"required,min=2,max=255"`
	Location string `json:"location" validate:"omitempty,max=255"`
}

// CreateCollege creates a new college
func (h *AdminHandler) CreateCollege(c *fiber.Ctx) error {
	var req CreateCollegeRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	req.Name = validation.SanitizeString(req.Name)

	var existing model.College
	if err := h.db.Where("name = ?", req.Name).First(&existing).Error; err == nil {
		return response.Conflict(c, "A college with this name already exists")
	}

	college := model.College{
		Name:     req.Name,
		Location: validation.SanitizeString(req.Location),
	}
	if err := h.db.Create(&college).Error; err != nil {
		return response.InternalServerError(c, "Failed to create college")
	}

	return response.Created(c, college)
}

// ListColleges returns all colleges sorted by name
func (h *AdminHandler) ListColleges(c *fiber.Ctx) error {
	var colleges []model.College
	err := h.db.Preload("LeadFaculty").Order("name ASC").Find(&colleges).Error
	if err != nil {
		return response.InternalServerError(c, "Failed to load colleges")
	}
	return response.Success(c, colleges)
}

// GetCollege returns one college with its lead faculty
func (h *AdminHandler) GetCollege(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid college id")
	}

	var college model.College
	if err := h.db.Preload("LeadFaculty").First(&college, uint(id)).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return response.NotFound(c, "College not found")
		}
		return response.InternalServerError(c, "Failed to load college")
	}
	return response.Success(c, college)
}

// DeleteCollege removes a college and detaches its members
func (h *AdminHandler) DeleteCollege(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid college id")
	}

	if err := h.succession.RemoveCollege(c.Context(), uint(id)); err != nil {
		return response.AppError(c, err)
	}
	return response.SuccessWithMessage(c, "College deleted", nil)
}

// TransferLeadershipRequest names the incoming primary lead
type TransferLeadershipRequest struct {
	NewLeadID uint `json:"new_lead_id" validate:"required"`
}

// TransferLeadership hands a college's primary leadership to another member
func (h *AdminHandler) TransferLeadership(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid college id")
	}

	var req TransferLeadershipRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if req.NewLeadID == 0 {
		return response.BadRequest(c, "new_lead_id is required")
	}

	if err := h.succession.TransferLeadership(c.Context(), uint(id), req.NewLeadID); err != nil {
		return response.AppError(c, err)
	}

	var college model.College
	if err := h.db.Preload("LeadFaculty").First(&college, uint(id)).Error; err != nil {
		return response.InternalServerError(c, "Failed to load college")
	}
	return response.SuccessWithMessage(c, "Leadership transferred", college)
}
