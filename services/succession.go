package services

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/ethicsfolio/portfolio-api/model"
	"github.com/ethicsfolio/portfolio-api/utils/apperror"
)

// SuccessionService repairs the reporting graph when leadership moves or
// users and colleges are removed. Every mutation runs inside one database
// transaction keyed on the college row, so two overlapping successions for
// the same college serialize.
type SuccessionService struct {
	db *gorm.DB
}

// NewSuccessionService creates a new succession service
func NewSuccessionService(db *gorm.DB) *SuccessionService {
	return &SuccessionService{db: db}
}

// lockCollege loads the college row under FOR UPDATE where the dialect
// supports it. SQLite serializes writers on its own.
func lockCollege(tx *gorm.DB, collegeID uint) (*model.College, error) {
	var college model.College
	q := tx
	if tx.Dialector.Name() == "postgres" {
		q = tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	err := q.First(&college, collegeID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperror.NotFound("college %d not found", collegeID)
	}
	if err != nil {
		return nil, err
	}
	return &college, nil
}

// repointSubtree moves a faculty member under a new lead and refreshes the
// denormalized lead edge on every student assigned to that faculty.
func repointSubtree(tx *gorm.DB, facultyID uint, newLeadID *uint) error {
	err := tx.Model(&model.User{}).
		Where("id = ?", facultyID).
		Update("lead_faculty_id", newLeadID).Error
	if err != nil {
		return err
	}
	return tx.Model(&model.User{}).
		Where("role = ? AND faculty_id = ?", model.RoleStudent, facultyID).
		Update("lead_faculty_id", newLeadID).Error
}

// TransferLeadership makes newLeadID the primary lead of the college:
// the new lead is promoted, the old primary is demoted to faculty under the
// new lead, the new lead's former students move to the old primary, and every
// remaining lead edge in the college is swept onto the new lead. Calling it
// again with the same arguments is a no-op.
func (s *SuccessionService) TransferLeadership(ctx context.Context, collegeID, newLeadID uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		college, err := lockCollege(tx, collegeID)
		if err != nil {
			return err
		}

		var newLead model.User
		if err := tx.First(&newLead, newLeadID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperror.NotFound("user %d not found", newLeadID)
			}
			return err
		}
		if newLead.Role != model.RoleFaculty && newLead.Role != model.RoleLeadFaculty {
			return apperror.InvalidReference("user %d cannot lead a college", newLeadID)
		}
		if newLead.CollegeID == nil || *newLead.CollegeID != collegeID {
			return apperror.InvalidReference("user %d does not belong to college %d", newLeadID, collegeID)
		}

		// Already the primary lead: only repair stray co-leads and stop.
		if college.LeadFacultyID != nil && *college.LeadFacultyID == newLead.ID {
			return tx.Model(&model.User{}).
				Where("role = ? AND college_id = ? AND id <> ?", model.RoleLeadFaculty, collegeID, newLead.ID).
				Updates(map[string]interface{}{
					"role":            model.RoleFaculty,
					"lead_faculty_id": newLead.ID,
				}).Error
		}

		oldLeadID := college.LeadFacultyID

		// Promote the new lead. A lead reports to nobody.
		err = tx.Model(&model.User{}).
			Where("id = ?", newLead.ID).
			Updates(map[string]interface{}{
				"role":            model.RoleLeadFaculty,
				"lead_faculty_id": nil,
				"faculty_id":      nil,
			}).Error
		if err != nil {
			return err
		}

		// Hand the new lead's former students to the outgoing primary, under
		// the new lead. Students reach the new lead through the faculty edge
		// or the assignment snapshot; both hand over. Without an outgoing
		// primary they keep no faculty edge and report to the new lead
		// directly.
		handover := map[string]interface{}{
			"faculty_id":      oldLeadID,
			"lead_faculty_id": newLead.ID,
		}
		formerStudents := tx.Model(&model.User{}).
			Where("role = ? AND faculty_id = ?", model.RoleStudent, newLead.ID)
		if oldLeadID != nil {
			handover["assigned_by_id"] = oldLeadID
			formerStudents = tx.Model(&model.User{}).
				Where("role = ? AND (faculty_id = ? OR assigned_by_id = ?)",
					model.RoleStudent, newLead.ID, newLead.ID)
		}
		if err := formerStudents.Updates(handover).Error; err != nil {
			return err
		}

		// Demote every other lead of the college, the outgoing primary
		// included, to faculty under the new lead.
		err = tx.Model(&model.User{}).
			Where("role = ? AND college_id = ? AND id <> ?", model.RoleLeadFaculty, collegeID, newLead.ID).
			Updates(map[string]interface{}{
				"role":            model.RoleFaculty,
				"lead_faculty_id": newLead.ID,
			}).Error
		if err != nil {
			return err
		}

		// Sweep remaining lead edges in the college onto the new lead.
		err = tx.Model(&model.User{}).
			Where("role = ? AND college_id = ? AND id <> ?", model.RoleFaculty, collegeID, newLead.ID).
			Update("lead_faculty_id", newLead.ID).Error
		if err != nil {
			return err
		}
		err = tx.Model(&model.User{}).
			Where("role = ? AND college_id = ?", model.RoleStudent, collegeID).
			Update("lead_faculty_id", newLead.ID).Error
		if err != nil {
			return err
		}

		return tx.Model(&model.College{}).
			Where("id = ?", collegeID).
			Update("lead_faculty_id", newLead.ID).Error
	})
}

// RemoveUser deletes a user and repairs the graph around the hole:
//
//   - deleting a student removes the student and their portfolio only;
//   - deleting a faculty orphans their students (faculty edge cleared, lead
//     edge kept);
//   - deleting the college's primary lead promotes the earliest same-college
//     faculty to lead and repoints the college and every dangling edge at the
//     successor; with no candidate the college goes leaderless and the edges
//     are cleared. A lead who is not the primary disappears without a
//     succession; their reports' edges are cleared.
//
// Super admin accounts cannot be deleted.
func (s *SuccessionService) RemoveUser(ctx context.Context, userID uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user model.User
		if err := tx.First(&user, userID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperror.NotFound("user %d not found", userID)
			}
			return err
		}

		switch user.Role {
		case model.RoleSuperAdmin:
			return apperror.Conflict("super admin accounts cannot be deleted")

		case model.RoleStudent:
			// Portfolio rows go with the student.
			if err := tx.Where("user_id = ?", user.ID).Delete(&model.PortfolioItem{}).Error; err != nil {
				return err
			}

		case model.RoleFaculty:
			err := tx.Model(&model.User{}).
				Where("role = ? AND faculty_id = ?", model.RoleStudent, user.ID).
				Update("faculty_id", nil).Error
			if err != nil {
				return err
			}

		case model.RoleLeadFaculty:
			if err := s.removeLead(tx, &user); err != nil {
				return err
			}
		}

		return tx.Delete(&user).Error
	})
}

// removeLead handles the lead-faculty deletion path inside the caller's
// transaction.
func (s *SuccessionService) removeLead(tx *gorm.DB, lead *model.User) error {
	var successorID *uint

	if lead.CollegeID != nil {
		college, err := lockCollege(tx, *lead.CollegeID)
		if err != nil {
			return err
		}

		// Succession runs only when the primary lead leaves. A non-primary
		// lead-role user disappears without touching the college slot.
		if college.LeadFacultyID != nil && *college.LeadFacultyID == lead.ID {
			var successor model.User
			err = tx.Where("role = ? AND college_id = ? AND id <> ?",
				model.RoleFaculty, *lead.CollegeID, lead.ID).
				Order("id ASC").
				First(&successor).Error
			switch {
			case err == nil:
				successorID = &successor.ID
				err = tx.Model(&model.User{}).
					Where("id = ?", successor.ID).
					Updates(map[string]interface{}{
						"role":            model.RoleLeadFaculty,
						"lead_faculty_id": nil,
					}).Error
				if err != nil {
					return err
				}
			case errors.Is(err, gorm.ErrRecordNotFound):
				// Leaderless fallback.
			default:
				return err
			}

			err = tx.Model(&model.College{}).
				Where("id = ?", college.ID).
				Update("lead_faculty_id", successorID).Error
			if err != nil {
				return err
			}
		}
	}

	// Repoint everyone who reported to the removed lead, directly or as a
	// snapshot edge.
	err := tx.Model(&model.User{}).
		Where("lead_faculty_id = ?", lead.ID).
		Update("lead_faculty_id", successorID).Error
	if err != nil {
		return err
	}
	return tx.Model(&model.User{}).
		Where("role = ? AND faculty_id = ?", model.RoleStudent, lead.ID).
		Update("faculty_id", successorID).Error
}

// RemoveCollege deletes a college and detaches every member from it. Members
// keep their accounts and reporting edges; only the college edge is cleared.
func (s *SuccessionService) RemoveCollege(ctx context.Context, collegeID uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := lockCollege(tx, collegeID); err != nil {
			return err
		}

		err := tx.Model(&model.User{}).
			Where("college_id = ?", collegeID).
			Update("college_id", nil).Error
		if err != nil {
			return err
		}

		return tx.Delete(&model.College{}, collegeID).Error
	})
}

// ReassignFacultyLead moves a faculty member under a different lead faculty
// and refreshes the lead snapshot on all of the faculty's students.
func (s *SuccessionService) ReassignFacultyLead(ctx context.Context, facultyID, newLeadID uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var faculty model.User
		if err := tx.First(&faculty, facultyID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperror.NotFound("faculty %d not found", facultyID)
			}
			return err
		}
		if !faculty.IsFaculty() {
			return apperror.InvalidReference("user %d is not a faculty", facultyID)
		}

		var newLead model.User
		if err := tx.First(&newLead, newLeadID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperror.NotFound("lead faculty %d not found", newLeadID)
			}
			return err
		}
		if !newLead.IsLeadFaculty() {
			return apperror.InvalidReference("user %d is not a lead faculty", newLeadID)
		}

		return repointSubtree(tx, faculty.ID, &newLead.ID)
	})
}
