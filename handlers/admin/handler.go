package admin

import (
	"gorm.io/gorm"

	"github.com/ethicsfolio/portfolio-api/services"
	"github.com/ethicsfolio/portfolio-api/utils/validation"
)

// AdminHandler handles super admin management endpoints
type AdminHandler struct {
	db           *gorm.DB
	succession   *services.SuccessionService
	assignment   *services.AssignmentService
	hierarchy    *services.HierarchyService
	emailService *services.EmailService
	validator    *validation.Validator
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(db *gorm.DB, emailService *services.EmailService) *AdminHandler {
	return &AdminHandler{
		db:           db,
		succession:   services.NewSuccessionService(db),
		assignment:   services.NewAssignmentService(db),
		hierarchy:    services.NewHierarchyService(db),
		emailService: emailService,
		validator:    validation.NewValidator(),
	}
}
