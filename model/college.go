package model

import (
	"time"

	"gorm.io/gorm"
)

// College is an institutional tenant. LeadFacultyID is a weak reference to
// the single primary Lead Faculty of the college; succession keeps it pointing
// at exactly one lead-faculty-role user (or null when the college is
// leaderless).
type College struct {
	ID            uint           `gorm:"primaryKey" json:"id"`
	Name          string         `gorm:"not null;uniqueIndex" json:"name"`
	Location      string         `gorm:"type:varchar(255)" json:"location"`
	LeadFacultyID *uint          `gorm:"index" json:"lead_faculty_id,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`

	// Relationships
	LeadFaculty *User `gorm:"foreignKey:LeadFacultyID" json:"lead_faculty,omitempty"`
}
