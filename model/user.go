package model

import (
	"time"

	"gorm.io/gorm"
)

// User roles, ordered from highest to lowest authority.
const (
	RoleSuperAdmin  = "super_admin"
	RoleLeadFaculty = "lead_faculty"
	RoleFaculty     = "faculty"
	RoleStudent     = "student"
)

// ValidRole reports whether role is one of the four known roles.
func ValidRole(role string) bool {
	switch role {
	case RoleSuperAdmin, RoleLeadFaculty, RoleFaculty, RoleStudent:
		return true
	}
	return false
}

// User represents an account in the reporting hierarchy. The weak reference
// columns (CollegeID, LeadFacultyID, FacultyID, AssignedByID) carry the
// denormalized reporting edges: a Student snapshots its chain at assignment
// time, and every succession path is responsible for keeping the snapshots
// fresh.
type User struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
	Name         string         `gorm:"not null" json:"name"`
	Email        string         `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string         `gorm:"not null" json:"-"`
	Role         string         `gorm:"type:varchar(20);not null;index" json:"role"`

	// Hierarchy edges. AssignedByID records who assigned the user; leadership
	// transfer hands it over alongside the faculty edge, but the authorization
	// predicate never consults it.
	CollegeID     *uint `gorm:"index" json:"college_id,omitempty"`
	AssignedByID  *uint `json:"assigned_by_id,omitempty"`
	LeadFacultyID *uint `gorm:"index" json:"lead_faculty_id,omitempty"`
	FacultyID     *uint `gorm:"index" json:"faculty_id,omitempty"`

	// Points caches the approved-item count plus one for an approved profile.
	// Recomputable at any time; see services.ScoringService.Recompute.
	Points int `gorm:"default:0" json:"points"`

	IsFirstLogin bool `gorm:"default:true" json:"is_first_login"`
	TokenVersion int  `gorm:"default:0" json:"-"`

	// Password reset OTP is stored as a sha256 hex digest, never in clear.
	ResetPasswordOTP       string     `gorm:"type:varchar(64)" json:"-"`
	ResetPasswordOTPExpiry *time.Time `json:"-"`

	Profile Profile `gorm:"embedded;embeddedPrefix:profile_" json:"profile"`

	// Relationships
	College        *College            `gorm:"foreignKey:CollegeID" json:"college,omitempty"`
	PortfolioItems []PortfolioItem     `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"portfolio_items,omitempty"`
	TokenBlacklist []JWTTokenBlacklist `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

// Profile is the reviewable profile section. It behaves as a thirteenth
// portfolio section for review purposes, except it cannot be deleted.
type Profile struct {
	FirstName        string       `gorm:"type:varchar(100)" json:"first_name"`
	MiddleName       string       `gorm:"type:varchar(100)" json:"middle_name"`
	LastName         string       `gorm:"type:varchar(100)" json:"last_name"`
	DateOfBirth      *time.Time   `json:"date_of_birth,omitempty"`
	Sex              string       `gorm:"type:varchar(20)" json:"sex"`
	PhoneNumber      string       `gorm:"type:varchar(30)" json:"phone_number"`
	FieldOfStudy     string       `gorm:"type:varchar(50)" json:"field_of_study"`
	LevelOfEducation string       `gorm:"type:varchar(10)" json:"level_of_education"`
	YearOfStudy      string       `gorm:"type:varchar(20)" json:"year_of_study"`
	Institution      string       `gorm:"type:varchar(255)" json:"institution"`
	Country          string       `gorm:"type:varchar(100)" json:"country"`
	About            string       `gorm:"type:text" json:"about"`
	Vision           string       `gorm:"type:text" json:"vision"`
	Status           ReviewStatus `gorm:"type:varchar(20);default:'pending'" json:"status"`
	Feedback         string       `gorm:"type:text" json:"feedback"`
	ReviewedByID     *uint        `json:"reviewed_by_id,omitempty"`
	ReviewedAt       *time.Time   `json:"reviewed_at,omitempty"`
}

// IsStudent reports whether the user holds the Student role.
func (u *User) IsStudent() bool { return u.Role == RoleStudent }

// IsFaculty reports whether the user holds the Faculty role.
func (u *User) IsFaculty() bool { return u.Role == RoleFaculty }

// IsLeadFaculty reports whether the user holds the Lead Faculty role.
func (u *User) IsLeadFaculty() bool { return u.Role == RoleLeadFaculty }

// IsSuperAdmin reports whether the user holds the Super Admin role.
func (u *User) IsSuperAdmin() bool { return u.Role == RoleSuperAdmin }
