package services

import (
	"context"

	"gorm.io/gorm"

	"github.com/ethicsfolio/portfolio-api/model"
)

// HierarchyService provides read-only views over the reporting graph. All
// mutations of the graph go through SuccessionService.
type HierarchyService struct {
	db *gorm.DB
}

// NewHierarchyService creates a new hierarchy service
func NewHierarchyService(db *gorm.DB) *HierarchyService {
	return &HierarchyService{db: db}
}

// ReportsTo returns the user's direct superior in the reporting graph: a
// student's assigned faculty (or lead, when no faculty is assigned), a
// faculty's lead. Returns nil for users with nobody above them.
func (s *HierarchyService) ReportsTo(ctx context.Context, user *model.User) (*model.User, error) {
	var superiorID *uint
	switch user.Role {
	case model.RoleStudent:
		superiorID = user.FacultyID
		if superiorID == nil {
			superiorID = user.LeadFacultyID
		}
	case model.RoleFaculty:
		superiorID = user.LeadFacultyID
	}
	if superiorID == nil {
		return nil, nil
	}

	var superior model.User
	err := s.db.WithContext(ctx).First(&superior, *superiorID).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &superior, nil
}

// SubordinateFaculties returns the faculty members reporting to a lead
// faculty, ordered by ID.
func (s *HierarchyService) SubordinateFaculties(ctx context.Context, leadID uint) ([]model.User, error) {
	var faculties []model.User
	err := s.db.WithContext(ctx).
		Where("role = ? AND lead_faculty_id = ?", model.RoleFaculty, leadID).
		Order("id ASC").
		Find(&faculties).Error
	return faculties, err
}

// SubordinateStudents returns the students assigned to a faculty member,
// ordered by ID.
func (s *HierarchyService) SubordinateStudents(ctx context.Context, facultyID uint) ([]model.User, error) {
	var students []model.User
	err := s.db.WithContext(ctx).
		Where("role = ? AND faculty_id = ?", model.RoleStudent, facultyID).
		Order("id ASC").
		Find(&students).Error
	return students, err
}

// CollegeMembers returns every user attached to a college, ordered by role
// then ID.
func (s *HierarchyService) CollegeMembers(ctx context.Context, collegeID uint) ([]model.User, error) {
	var members []model.User
	err := s.db.WithContext(ctx).
		Where("college_id = ?", collegeID).
		Order("role ASC, id ASC").
		Find(&members).Error
	return members, err
}

// StudentCount returns how many students a faculty member currently has.
func (s *HierarchyService) StudentCount(ctx context.Context, facultyID uint) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).
		Model(&model.User{}).
		Where("role = ? AND faculty_id = ?", model.RoleStudent, facultyID).
		Count(&count).Error
	return count, err
}
