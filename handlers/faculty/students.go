package faculty

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/ethicsfolio/portfolio-api/model"
	"github.com/ethicsfolio/portfolio-api/services"
	"github.com/ethicsfolio/portfolio-api/utils/middleware"
	"github.com/ethicsfolio/portfolio-api/utils/response"
	"github.com/ethicsfolio/portfolio-api/utils/validation"
)

// FacultyHandler serves the reviewer-facing endpoints: assigned student
// listings, portfolio fetches, and review decisions.
type FacultyHandler struct {
	db        *gorm.DB
	authz     *services.AuthzService
	portfolio *services.PortfolioService
	validator *validation.Validator
}

// NewFacultyHandler creates a new faculty handler
func NewFacultyHandler(db *gorm.DB, authz *services.AuthzService, portfolio *services.PortfolioService) *FacultyHandler {
	return &FacultyHandler{
		db:        db,
		authz:     authz,
		portfolio: portfolio,
		validator: validation.NewValidator(),
	}
}

// ListAssignedStudents returns the students within the caller's review scope
func (h *FacultyHandler) ListAssignedStudents(c *fiber.Ctx) error {
	actor, ok := middleware.GetUser(c)
	if !ok {
		return response.Unauthorized(c, "")
	}

	var students []model.User
	err := h.authz.AssignedStudentsQuery(c.Context(), actor).
		Order("id ASC").
		Find(&students).Error
	if err != nil {
		return response.InternalServerError(c, "Failed to load students")
	}
	return response.Success(c, students)
}

// GetStudentPortfolio returns a student's full portfolio, gated by the
// authorization predicate
func (h *FacultyHandler) GetStudentPortfolio(c *fiber.Ctx) error {
	actor, ok := middleware.GetUser(c)
	if !ok {
		return response.Unauthorized(c, "")
	}

	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid student id")
	}

	var student model.User
	if err := h.db.First(&student, uint(id)).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return response.NotFound(c, "Student not found")
		}
		return response.InternalServerError(c, "Failed to load student")
	}

	allowed, err := h.authz.CanAccessStudent(c.Context(), actor, &student)
	if err != nil {
		return response.InternalServerError(c, "Failed to check access")
	}
	if !allowed {
		return response.Forbidden(c, "Student is outside your review scope")
	}

	items, err := h.portfolio.ListAll(c.Context(), student.ID)
	if err != nil {
		return response.InternalServerError(c, "Failed to load portfolio")
	}

	return response.Success(c, fiber.Map{
		"student": student,
		"items":   items,
	})
}

// ReviewRequest represents a review decision. ItemID is omitted when
// reviewing the profile.
type ReviewRequest struct {
	StudentID uint   `json:"student_id" validate:"required"`
	Section   string `json:"section" validate:"required"`
	ItemID    *uint  `json:"item_id"`
	Status    string `json:"status" validate:"required"`
	Feedback  string `json:"feedback"`
}

// ReviewPortfolioItem applies a review decision to a portfolio item or the
// student's profile and returns the student with the updated points counter
func (h *FacultyHandler) ReviewPortfolioItem(c *fiber.Ctx) error {
	actor, ok := middleware.GetUser(c)
	if !ok {
		return response.Unauthorized(c, "")
	}

	var req ReviewRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	student, err := h.portfolio.Review(c.Context(), actor, services.ReviewRequest{
		StudentID: req.StudentID,
		Section:   model.Section(req.Section),
		ItemID:    req.ItemID,
		Status:    model.ReviewStatus(req.Status),
		Feedback:  validation.SanitizeString(req.Feedback),
	})
	if err != nil {
		return response.AppError(c, err)
	}

	return response.SuccessWithMessage(c, "Review recorded", student)
}
