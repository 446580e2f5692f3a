package auth

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/ethicsfolio/portfolio-api/model"
	"github.com/ethicsfolio/portfolio-api/utils/middleware"
	"github.com/ethicsfolio/portfolio-api/utils/response"
	"github.com/ethicsfolio/portfolio-api/utils/validation"
)

// GetProfile returns the caller's account with profile and points
func (h *AuthHandler) GetProfile(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok {
		return response.Unauthorized(c, "")
	}
	return response.Success(c, ToUserResponse(user))
}

// UpdateProfileRequest carries the editable profile fields
type UpdateProfileRequest struct {
	FirstName        string     `json:"first_name" validate:"omitempty,max=100"`
	MiddleName       string     `json:"middle_name" validate:"omitempty,max=100"`
	LastName         string     `json:"last_name" validate:"omitempty,max=100"`
	DateOfBirth      *time.Time `json:"date_of_birth"`
	Sex              string     `json:"sex" validate:"omitempty,max=20"`
	PhoneNumber      string     `json:"phone_number" validate:"omitempty,max=30"`
	FieldOfStudy     string     `json:"field_of_study" validate:"omitempty,max=50"`
	LevelOfEducation string     `json:"level_of_education" validate:"omitempty,max=10"`
	YearOfStudy      string     `json:"year_of_study" validate:"omitempty,max=20"`
	Institution      string     `json:"institution" validate:"omitempty,max=255"`
	Country          string     `json:"country" validate:"omitempty,max=100"`
	About            string     `json:"about"`
	Vision           string     `json:"vision"`
}

// UpdateProfile updates the caller's profile fields. A student editing a
// rejected profile re-enters the review queue as resubmitted.
func (h *AuthHandler) UpdateProfile(c *fiber.Ctx) error {
	user, ok := middleware.GetUser(c)
	if !ok {
		return response.Unauthorized(c, "")
	}

	var req UpdateProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	updates := map[string]interface{}{
		"profile_first_name":         validation.SanitizeString(req.FirstName),
		"profile_middle_name":        validation.SanitizeString(req.MiddleName),
		"profile_last_name":          validation.SanitizeString(req.LastName),
		"profile_date_of_birth":      req.DateOfBirth,
		"profile_sex":                validation.SanitizeString(req.Sex),
		"profile_phone_number":       validation.SanitizeString(req.PhoneNumber),
		"profile_field_of_study":     validation.SanitizeString(req.FieldOfStudy),
		"profile_level_of_education": validation.SanitizeString(req.LevelOfEducation),
		"profile_year_of_study":      validation.SanitizeString(req.YearOfStudy),
		"profile_institution":        validation.SanitizeString(req.Institution),
		"profile_country":            validation.SanitizeString(req.Country),
		"profile_about":              validation.SanitizeString(req.About),
		"profile_vision":             validation.SanitizeString(req.Vision),
	}

	if user.IsStudent() && user.Profile.Status == model.StatusRejected {
		updates["profile_status"] = model.StatusResubmitted
	}

	if err := h.db.Model(&model.User{}).Where("id = ?", user.ID).Updates(updates).Error; err != nil {
		return response.InternalServerError(c, "Failed to update profile")
	}

	var updated model.User
	if err := h.db.First(&updated, user.ID).Error; err != nil {
		return response.InternalServerError(c, "Failed to load profile")
	}

	return response.Success(c, ToUserResponse(&updated))
}
