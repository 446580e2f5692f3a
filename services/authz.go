package services

import (
	"context"

	"gorm.io/gorm"

	"github.com/ethicsfolio/portfolio-api/model"
)

// AuthzService decides whether an actor may view or review a student. The
// predicate is a union of edges, checked cheapest first:
//
//   - super admins reach every student;
//   - faculty reach students whose faculty edge points at them;
//   - lead faculty reach students through any of a direct lead edge, an edge
//     through a subordinate faculty, or a shared college.
//
// Students never reach other students.
type AuthzService struct {
	db *gorm.DB
}

// NewAuthzService creates a new authorization service
func NewAuthzService(db *gorm.DB) *AuthzService {
	return &AuthzService{db: db}
}

// CanAccessStudent reports whether actor may access student.
func (s *AuthzService) CanAccessStudent(ctx context.Context, actor, student *model.User) (bool, error) {
	if !student.IsStudent() {
		return false, nil
	}

	switch actor.Role {
	case model.RoleSuperAdmin:
		return true, nil

	case model.RoleFaculty:
		return student.FacultyID != nil && *student.FacultyID == actor.ID, nil

	case model.RoleLeadFaculty:
		if student.LeadFacultyID != nil && *student.LeadFacultyID == actor.ID {
			return true, nil
		}
		// Edge through the student's assigned faculty. Covers students whose
		// denormalized lead edge is stale or unset.
		if student.FacultyID != nil {
			var faculty model.User
			err := s.db.WithContext(ctx).
				Select("id", "lead_faculty_id").
				First(&faculty, *student.FacultyID).Error
			if err == nil && faculty.LeadFacultyID != nil && *faculty.LeadFacultyID == actor.ID {
				return true, nil
			}
			if err != nil && err != gorm.ErrRecordNotFound {
				return false, err
			}
		}
		// Shared college.
		if actor.CollegeID != nil && student.CollegeID != nil && *actor.CollegeID == *student.CollegeID {
			return true, nil
		}
		return false, nil

	default:
		return false, nil
	}
}

// AssignedStudentsQuery returns a query selecting exactly the students the
// actor may access. Listing through this query and checking CanAccessStudent
// per row agree on every student.
func (s *AuthzService) AssignedStudentsQuery(ctx context.Context, actor *model.User) *gorm.DB {
	q := s.db.WithContext(ctx).
		Model(&model.User{}).
		Where("role = ?", model.RoleStudent)

	switch actor.Role {
	case model.RoleSuperAdmin:
		return q

	case model.RoleFaculty:
		return q.Where("faculty_id = ?", actor.ID)

	case model.RoleLeadFaculty:
		sub := s.db.Model(&model.User{}).
			Select("id").
			Where("role = ? AND lead_faculty_id = ?", model.RoleFaculty, actor.ID)
		if actor.CollegeID != nil {
			return q.Where("lead_faculty_id = ? OR faculty_id IN (?) OR college_id = ?",
				actor.ID, sub, *actor.CollegeID)
		}
		return q.Where("lead_faculty_id = ? OR faculty_id IN (?)", actor.ID, sub)

	default:
		// Matches nothing.
		return q.Where("1 = 0")
	}
}
