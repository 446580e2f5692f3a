package auth

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/ethicsfolio/portfolio-api/model"
	"github.com/ethicsfolio/portfolio-api/services"
	authutil "github.com/ethicsfolio/portfolio-api/utils/auth"
	"github.com/ethicsfolio/portfolio-api/utils/middleware"
	"github.com/ethicsfolio/portfolio-api/utils/validation"
)

// AuthHandler handles authentication-related requests
type AuthHandler struct {
	db                   *gorm.DB
	jwtManager           *authutil.JWTManager
	blacklistService     *authutil.BlacklistService
	bruteForceProtection *middleware.BruteForceProtection
	emailService         *services.EmailService
	validator            *validation.Validator
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(db *gorm.DB, jwtManager *authutil.JWTManager, bruteForceProtection *middleware.BruteForceProtection, emailService *services.EmailService) *AuthHandler {
	return &AuthHandler{
		db:                   db,
		jwtManager:           jwtManager,
		blacklistService:     authutil.NewBlacklistService(db),
		bruteForceProtection: bruteForceProtection,
		emailService:         emailService,
		validator:            validation.NewValidator(),
	}
}

// recordFailedAttempt counts a failed credential check toward the caller's
// lockout when Redis-backed protection is available.
func (h *AuthHandler) recordFailedAttempt(c *fiber.Ctx, email string) {
	if h.bruteForceProtection != nil {
		h.bruteForceProtection.RecordFailedAttempt(c, c.IP(), email)
	}
}

// UserResponse represents user data in responses
type UserResponse struct {
	ID           uint          `json:"id"`
	Email        string        `json:"email"`
	Name         string        `json:"name"`
	Role         string        `json:"role"`
	CollegeID    *uint         `json:"college_id,omitempty"`
	FacultyID    *uint         `json:"faculty_id,omitempty"`
	LeadID       *uint         `json:"lead_faculty_id,omitempty"`
	Points       int           `json:"points"`
	IsFirstLogin bool          `json:"is_first_login"`
	Profile      model.Profile `json:"profile"`
	CreatedAt    time.Time     `json:"created_at"`
}

// ToUserResponse converts a user model to its response form
func ToUserResponse(u *model.User) UserResponse {
	return UserResponse{
		ID:           u.ID,
		Email:        u.Email,
		Name:         u.Name,
		Role:         u.Role,
		CollegeID:    u.CollegeID,
		FacultyID:    u.FacultyID,
		LeadID:       u.LeadFacultyID,
		Points:       u.Points,
		IsFirstLogin: u.IsFirstLogin,
		Profile:      u.Profile,
		CreatedAt:    u.CreatedAt,
	}
}
