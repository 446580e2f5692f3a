package services

import (
	"context"

	"gorm.io/gorm"

	"github.com/ethicsfolio/portfolio-api/model"
	"github.com/ethicsfolio/portfolio-api/utils/apperror"
)

// AssignmentService places newly created users into the reporting graph.
type AssignmentService struct {
	db *gorm.DB
}

// NewAssignmentService creates a new assignment service
func NewAssignmentService(db *gorm.DB) *AssignmentService {
	return &AssignmentService{db: db}
}

// PickFacultyForStudent selects the least-loaded faculty member of a college
// for a new student. Ties keep the first faculty encountered in ID order, so
// repeated calls against an unchanged college are deterministic. Returns
// NoCapacity when the college has no faculty at all.
func (s *AssignmentService) PickFacultyForStudent(ctx context.Context, tx *gorm.DB, collegeID uint) (*model.User, error) {
	if tx == nil {
		tx = s.db
	}

	var faculties []model.User
	err := tx.WithContext(ctx).
		Where("role = ? AND college_id = ?", model.RoleFaculty, collegeID).
		Order("id ASC").
		Find(&faculties).Error
	if err != nil {
		return nil, err
	}
	if len(faculties) == 0 {
		return nil, apperror.NoCapacity("college has no faculty to assign the student to")
	}

	var best *model.User
	var bestCount int64
	for i := range faculties {
		var count int64
		err := tx.WithContext(ctx).
			Model(&model.User{}).
			Where("role = ? AND faculty_id = ?", model.RoleStudent, faculties[i].ID).
			Count(&count).Error
		if err != nil {
			return nil, err
		}
		// Strict less keeps the earliest faculty on ties.
		if best == nil || count < bestCount {
			best = &faculties[i]
			bestCount = count
		}
	}

	return best, nil
}

// ResolveLead returns the lead faculty a new faculty member should report to,
// verifying the reference points at an actual lead faculty.
func (s *AssignmentService) ResolveLead(ctx context.Context, leadFacultyID uint) (*model.User, error) {
	var lead model.User
	err := s.db.WithContext(ctx).First(&lead, leadFacultyID).Error
	if err == gorm.ErrRecordNotFound {
		return nil, apperror.NotFound("lead faculty %d not found", leadFacultyID)
	}
	if err != nil {
		return nil, err
	}
	if !lead.IsLeadFaculty() {
		return nil, apperror.InvalidReference("user %d is not a lead faculty", leadFacultyID)
	}
	return &lead, nil
}
