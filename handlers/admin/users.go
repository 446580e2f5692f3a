package admin

import (
	"log"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/ethicsfolio/portfolio-api/model"
	authutil "github.com/ethicsfolio/portfolio-api/utils/auth"
	"github.com/ethicsfolio/portfolio-api/utils/response"
	"github.com/ethicsfolio/portfolio-api/utils/validation"
)

// CreateUserRequest represents an account creation request. CollegeID is
// required for lead faculty and students; LeadFacultyID for faculty.
type CreateUserRequest struct {
	Name          string `json:"name" validate:"required,min=2,max=255"`
	Email         string `json:"email" validate:"required,email"`
	CollegeID     uint   `json:"college_id"`
	LeadFacultyID uint   `json:"lead_faculty_id"`
}

// CreatedUserResponse echoes the new account plus delivery details
type CreatedUserResponse struct {
	User            model.User  `json:"user"`
	AssignedFaculty *model.User `json:"assigned_faculty,omitempty"`
	EmailSent       bool        `json:"email_sent"`
}

// splitName breaks a display name into profile name parts.
func splitName(name string) (first, middle, last string) {
	parts := strings.Fields(name)
	switch len(parts) {
	case 0:
		return "", "", ""
	case 1:
		return parts[0], "", ""
	case 2:
		return parts[0], "", parts[1]
	default:
		return parts[0], strings.Join(parts[1:len(parts)-1], " "), parts[len(parts)-1]
	}
}

// newAccount builds a user with a generated temporary password and an
// initialized profile. Returns the clear-text password for the credentials
// email.
func (h *AdminHandler) newAccount(req CreateUserRequest, role string, college *model.College) (*model.User, string, error) {
	tempPassword, err := authutil.GenerateTempPassword()
	if err != nil {
		return nil, "", err
	}
	hash, err := authutil.HashPassword(tempPassword)
	if err != nil {
		return nil, "", err
	}

	first, middle, last := splitName(req.Name)
	user := &model.User{
		Name:         validation.SanitizeString(req.Name),
		Email:        validation.SanitizeString(req.Email),
		PasswordHash: hash,
		Role:         role,
		IsFirstLogin: true,
		Profile: model.Profile{
			FirstName:  first,
			MiddleName: middle,
			LastName:   last,
			Status:     model.StatusPending,
		},
	}
	if college != nil {
		user.CollegeID = &college.ID
		user.Profile.Institution = college.Name
	}
	return user, tempPassword, nil
}

func (h *AdminHandler) emailExists(email string) bool {
	var existing model.User
	return h.db.Where("email = ?", email).First(&existing).Error == nil
}

func (h *AdminHandler) loadCollege(id uint) (*model.College, error) {
	var college model.College
	err := h.db.First(&college, id).Error
	return &college, err
}

// CreateLeadFaculty creates a lead faculty for a college. The new account
// takes the college's primary lead slot; a prior holder keeps their lead role
// until a leadership transfer or deletion repairs the graph.
func (h *AdminHandler) CreateLeadFaculty(c *fiber.Ctx) error {
	var req CreateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}
	if req.CollegeID == 0 {
		return response.BadRequest(c, "college_id is required")
	}
	if h.emailExists(req.Email) {
		return response.Conflict(c, "A user with this email already exists")
	}

	college, err := h.loadCollege(req.CollegeID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return response.NotFound(c, "College not found")
		}
		return response.InternalServerError(c, "Failed to load college")
	}

	adminID, _ := c.Locals("user_id").(uint)
	user, tempPassword, err := h.newAccount(req, model.RoleLeadFaculty, college)
	if err != nil {
		return response.InternalServerError(c, "Failed to create account")
	}
	if adminID != 0 {
		user.AssignedByID = &adminID
	}

	err = h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(user).Error; err != nil {
			return err
		}
		return tx.Model(&model.College{}).
			Where("id = ?", college.ID).
			Update("lead_faculty_id", user.ID).Error
	})
	if err != nil {
		return response.InternalServerError(c, "Failed to create account")
	}

	emailSent := true
	if err := h.emailService.SendCredentials(user.Email, user.Name, tempPassword, user.Role); err != nil {
		log.Printf("Failed to send credentials to %s: %v", user.Email, err)
		emailSent = false
	}

	return response.Created(c, CreatedUserResponse{User: *user, EmailSent: emailSent})
}

// CreateFaculty creates a faculty member under a lead faculty
func (h *AdminHandler) CreateFaculty(c *fiber.Ctx) error {
	var req CreateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}
	if req.LeadFacultyID == 0 {
		return response.BadRequest(c, "lead_faculty_id is required")
	}
	if h.emailExists(req.Email) {
		return response.Conflict(c, "A user with this email already exists")
	}

	lead, err := h.assignment.ResolveLead(c.Context(), req.LeadFacultyID)
	if err != nil {
		return response.AppError(c, err)
	}

	var college *model.College
	if lead.CollegeID != nil {
		college, err = h.loadCollege(*lead.CollegeID)
		if err != nil {
			return response.InternalServerError(c, "Failed to load college")
		}
	}

	adminID, _ := c.Locals("user_id").(uint)
	user, tempPassword, err := h.newAccount(req, model.RoleFaculty, college)
	if err != nil {
		return response.InternalServerError(c, "Failed to create account")
	}
	user.LeadFacultyID = &lead.ID
	if adminID != 0 {
		user.AssignedByID = &adminID
	}

	if err := h.db.Create(user).Error; err != nil {
		return response.InternalServerError(c, "Failed to create account")
	}

	emailSent := true
	if err := h.emailService.SendCredentials(user.Email, user.Name, tempPassword, user.Role); err != nil {
		log.Printf("Failed to send credentials to %s: %v", user.Email, err)
		emailSent = false
	}

	return response.Created(c, CreatedUserResponse{User: *user, EmailSent: emailSent})
}

// CreateStudent creates a student in a college, assigned to the least-loaded
// faculty member
func (h *AdminHandler) CreateStudent(c *fiber.Ctx) error {
	var req CreateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}
	if req.CollegeID == 0 {
		return response.BadRequest(c, "college_id is required")
	}
	if h.emailExists(req.Email) {
		return response.Conflict(c, "A user with this email already exists")
	}

	college, err := h.loadCollege(req.CollegeID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return response.NotFound(c, "College not found")
		}
		return response.InternalServerError(c, "Failed to load college")
	}

	adminID, _ := c.Locals("user_id").(uint)
	user, tempPassword, err := h.newAccount(req, model.RoleStudent, college)
	if err != nil {
		return response.InternalServerError(c, "Failed to create account")
	}
	if adminID != 0 {
		user.AssignedByID = &adminID
	}

	var assignedFaculty *model.User
	err = h.db.Transaction(func(tx *gorm.DB) error {
		faculty, err := h.assignment.PickFacultyForStudent(c.Context(), tx, college.ID)
		if err != nil {
			return err
		}
		assignedFaculty = faculty

		// Snapshot the chain at assignment time.
		user.FacultyID = &faculty.ID
		user.LeadFacultyID = faculty.LeadFacultyID
		if user.LeadFacultyID == nil {
			user.LeadFacultyID = college.LeadFacultyID
		}

		return tx.Create(user).Error
	})
	if err != nil {
		return response.AppError(c, err)
	}

	emailSent := true
	if err := h.emailService.SendCredentials(user.Email, user.Name, tempPassword, user.Role); err != nil {
		log.Printf("Failed to send credentials to %s: %v", user.Email, err)
		emailSent = false
	}

	return response.Created(c, CreatedUserResponse{
		User:            *user,
		AssignedFaculty: assignedFaculty,
		EmailSent:       emailSent,
	})
}

// ListUsers returns users, optionally filtered by role, college, lead, or
// faculty
func (h *AdminHandler) ListUsers(c *fiber.Ctx) error {
	q := h.db.Model(&model.User{})

	if role := c.Query("role"); role != "" {
		if !model.ValidRole(role) {
			return response.BadRequest(c, "Invalid role filter")
		}
		q = q.Where("role = ?", role)
	}
	if collegeID := c.QueryInt("college_id"); collegeID > 0 {
		q = q.Where("college_id = ?", collegeID)
	}
	if leadID := c.QueryInt("lead_faculty_id"); leadID > 0 {
		q = q.Where("lead_faculty_id = ?", leadID)
	}
	if facultyID := c.QueryInt("faculty_id"); facultyID > 0 {
		q = q.Where("faculty_id = ?", facultyID)
	}

	var users []model.User
	if err := q.Order("id ASC").Find(&users).Error; err != nil {
		return response.InternalServerError(c, "Failed to load users")
	}
	return response.Success(c, users)
}

// ListFacultiesByLead returns the faculty members reporting to a lead
func (h *AdminHandler) ListFacultiesByLead(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid lead faculty id")
	}

	faculties, err := h.hierarchy.SubordinateFaculties(c.Context(), uint(id))
	if err != nil {
		return response.InternalServerError(c, "Failed to load faculties")
	}
	return response.Success(c, faculties)
}

// ListStudentsByFaculty returns the students assigned to a faculty member
func (h *AdminHandler) ListStudentsByFaculty(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid faculty id")
	}

	students, err := h.hierarchy.SubordinateStudents(c.Context(), uint(id))
	if err != nil {
		return response.InternalServerError(c, "Failed to load students")
	}
	return response.Success(c, students)
}

// DeleteUser removes a user, running succession when the user leads others
func (h *AdminHandler) DeleteUser(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid user id")
	}

	if err := h.succession.RemoveUser(c.Context(), uint(id)); err != nil {
		return response.AppError(c, err)
	}
	return response.SuccessWithMessage(c, "User deleted", nil)
}

// ReassignLeadRequest names the faculty's new lead
type ReassignLeadRequest struct {
	LeadFacultyID uint `json:"lead_faculty_id" validate:"required"`
}

// ReassignFacultyLead moves a faculty member under a different lead
func (h *AdminHandler) ReassignFacultyLead(c *fiber.Ctx) error {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return response.BadRequest(c, "Invalid user id")
	}

	var req ReassignLeadRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if req.LeadFacultyID == 0 {
		return response.BadRequest(c, "lead_faculty_id is required")
	}

	if err := h.succession.ReassignFacultyLead(c.Context(), uint(id), req.LeadFacultyID); err != nil {
		return response.AppError(c, err)
	}

	var faculty model.User
	if err := h.db.First(&faculty, uint(id)).Error; err != nil {
		return response.InternalServerError(c, "Failed to load user")
	}
	return response.SuccessWithMessage(c, "Faculty reassigned", faculty)
}
