package services

import (
	"context"

	"gorm.io/gorm"

	"github.com/ethicsfolio/portfolio-api/model"
)

// ScoringService maintains the cached points counter on student rows. One
// point per approved portfolio item, plus one for an approved profile. The
// counter moves by deltas inside review transactions and can always be
// recomputed from scratch.
type ScoringService struct {
	db *gorm.DB
}

// NewScoringService creates a new scoring service
func NewScoringService(db *gorm.DB) *ScoringService {
	return &ScoringService{db: db}
}

// ApplyReviewDelta adjusts a student's points for a status change. Runs in
// the caller's transaction so the counter moves with the review itself.
func (s *ScoringService) ApplyReviewDelta(tx *gorm.DB, studentID uint, oldStatus, newStatus model.ReviewStatus) error {
	entered := oldStatus != model.StatusApproved && newStatus == model.StatusApproved
	left := oldStatus == model.StatusApproved && newStatus != model.StatusApproved

	switch {
	case entered:
		return tx.Model(&model.User{}).
			Where("id = ?", studentID).
			UpdateColumn("points", gorm.Expr("points + 1")).Error
	case left:
		return tx.Model(&model.User{}).
			Where("id = ?", studentID).
			UpdateColumn("points", gorm.Expr("CASE WHEN points > 0 THEN points - 1 ELSE 0 END")).Error
	default:
		return nil
	}
}

// ApplyDeletion decrements the counter when an approved item is removed.
// Must run in the same transaction as the delete, before it.
func (s *ScoringService) ApplyDeletion(tx *gorm.DB, studentID uint, status model.ReviewStatus) error {
	if status != model.StatusApproved {
		return nil
	}
	return tx.Model(&model.User{}).
		Where("id = ?", studentID).
		UpdateColumn("points", gorm.Expr("CASE WHEN points > 0 THEN points - 1 ELSE 0 END")).Error
}

// Recompute derives a student's points from the ground truth: the count of
// approved portfolio items plus one for an approved profile.
func (s *ScoringService) Recompute(ctx context.Context, studentID uint) (int, error) {
	var itemCount int64
	err := s.db.WithContext(ctx).
		Model(&model.PortfolioItem{}).
		Where("user_id = ? AND status = ?", studentID, model.StatusApproved).
		Count(&itemCount).Error
	if err != nil {
		return 0, err
	}

	var student model.User
	err = s.db.WithContext(ctx).
		Select("id", "profile_status").
		First(&student, studentID).Error
	if err != nil {
		return 0, err
	}

	points := int(itemCount)
	if student.Profile.Status == model.StatusApproved {
		points++
	}
	return points, nil
}

// Reconcile recomputes every student's counter and overwrites any that
// drifted. Returns the number of corrected rows. Also run periodically by
// cron as a backstop.
func (s *ScoringService) Reconcile(ctx context.Context) (int, error) {
	var students []model.User
	err := s.db.WithContext(ctx).
		Select("id", "points", "profile_status").
		Where("role = ?", model.RoleStudent).
		Find(&students).Error
	if err != nil {
		return 0, err
	}

	corrected := 0
	for i := range students {
		expected, err := s.Recompute(ctx, students[i].ID)
		if err != nil {
			return corrected, err
		}
		if expected == students[i].Points {
			continue
		}
		err = s.db.WithContext(ctx).
			Model(&model.User{}).
			Where("id = ?", students[i].ID).
			UpdateColumn("points", expected).Error
		if err != nil {
			return corrected, err
		}
		corrected++
	}
	return corrected, nil
}
