package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/ethicsfolio/portfolio-api/model"
	"github.com/ethicsfolio/portfolio-api/utils/apperror"
	"github.com/ethicsfolio/portfolio-api/utils/validation"
)

// PortfolioService handles the per-section item lifecycle and the review
// flow, keeping the points counter in step through ScoringService.
type PortfolioService struct {
	db        *gorm.DB
	validator *validation.Validator
	authz     *AuthzService
	scoring   *ScoringService
}

// NewPortfolioService creates a new portfolio service
func NewPortfolioService(db *gorm.DB, v *validation.Validator, authz *AuthzService, scoring *ScoringService) *PortfolioService {
	return &PortfolioService{db: db, validator: v, authz: authz, scoring: scoring}
}

// decodeContent decodes raw JSON into the section's typed content struct,
// rejecting unknown fields, and validates it.
func (s *PortfolioService) decodeContent(section model.Section, raw json.RawMessage) (any, error) {
	content, ok := section.NewContent()
	if !ok {
		return nil, apperror.InvalidReference("unknown portfolio section %q", section)
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(content); err != nil {
		return nil, apperror.InvalidReference("invalid %s content: %v", section, err)
	}

	if err := s.validator.ValidateStruct(content); err != nil {
		return nil, apperror.Wrap(apperror.KindInvalidReference, err, "invalid %s content", section)
	}

	return content, nil
}

// AddItem creates a new item in a section for the student. New items always
// start pending.
func (s *PortfolioService) AddItem(ctx context.Context, student *model.User, section model.Section, raw json.RawMessage) (*model.PortfolioItem, error) {
	content, err := s.decodeContent(section, raw)
	if err != nil {
		return nil, err
	}

	encoded, err := json.Marshal(content)
	if err != nil {
		return nil, err
	}

	item := model.PortfolioItem{
		UserID:  student.ID,
		Section: section,
		Content: datatypes.JSON(encoded),
		Status:  model.StatusPending,
	}

	if err := s.db.WithContext(ctx).Create(&item).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

// UpdateItem replaces an item's content. Editing a rejected item re-enters
// the review queue under the section's transition status and keeps the
// reviewer feedback visible until the next review.
func (s *PortfolioService) UpdateItem(ctx context.Context, student *model.User, section model.Section, itemID uint, raw json.RawMessage) (*model.PortfolioItem, error) {
	content, err := s.decodeContent(section, raw)
	if err != nil {
		return nil, err
	}

	var item model.PortfolioItem
	err = s.db.WithContext(ctx).
		Where("id = ? AND user_id = ? AND section = ?", itemID, student.ID, section).
		First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperror.NotFound("portfolio item %d not found in %s", itemID, section)
	}
	if err != nil {
		return nil, err
	}

	encoded, err := json.Marshal(content)
	if err != nil {
		return nil, err
	}

	item.Content = datatypes.JSON(encoded)
	if item.Status == model.StatusRejected {
		item.Status = section.RejectedEditStatus()
	}

	if err := s.db.WithContext(ctx).Save(&item).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

// DeleteItem removes an item. An approved item gives its point back before
// the row goes away, in the same transaction.
func (s *PortfolioService) DeleteItem(ctx context.Context, student *model.User, section model.Section, itemID uint) error {
	if !section.Valid() {
		return apperror.InvalidReference("unknown portfolio section %q", section)
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var item model.PortfolioItem
		err := tx.Where("id = ? AND user_id = ? AND section = ?", itemID, student.ID, section).
			First(&item).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperror.NotFound("portfolio item %d not found in %s", itemID, section)
		}
		if err != nil {
			return err
		}

		if err := s.scoring.ApplyDeletion(tx, student.ID, item.Status); err != nil {
			return err
		}
		return tx.Delete(&item).Error
	})
}

// ListItems returns a student's items in a section, newest first.
func (s *PortfolioService) ListItems(ctx context.Context, studentID uint, section model.Section) ([]model.PortfolioItem, error) {
	if !section.Valid() {
		return nil, apperror.InvalidReference("unknown portfolio section %q", section)
	}
	var items []model.PortfolioItem
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND section = ?", studentID, section).
		Order("created_at DESC").
		Find(&items).Error
	return items, err
}

// ListAll returns a student's full portfolio grouped by section.
func (s *PortfolioService) ListAll(ctx context.Context, studentID uint) (map[model.Section][]model.PortfolioItem, error) {
	var items []model.PortfolioItem
	err := s.db.WithContext(ctx).
		Where("user_id = ?", studentID).
		Order("section ASC, created_at DESC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}

	grouped := make(map[model.Section][]model.PortfolioItem, len(model.AllSections()))
	for _, section := range model.AllSections() {
		grouped[section] = []model.PortfolioItem{}
	}
	for _, item := range items {
		grouped[item.Section] = append(grouped[item.Section], item)
	}
	return grouped, nil
}

// ReviewRequest carries one review decision. ItemID is nil when Section is
// the profile pseudo-section.
type ReviewRequest struct {
	StudentID uint
	Section   model.Section
	ItemID    *uint
	Status    model.ReviewStatus
	Feedback  string
}

// Review applies a reviewer's decision to an item or to the student's
// profile. The authorization predicate gates the call; the points counter
// moves in the same transaction as the status change. Returns the student
// with the refreshed counter.
func (s *PortfolioService) Review(ctx context.Context, reviewer *model.User, req ReviewRequest) (*model.User, error) {
	var student model.User
	err := s.db.WithContext(ctx).First(&student, req.StudentID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperror.NotFound("student %d not found", req.StudentID)
	}
	if err != nil {
		return nil, err
	}
	if !student.IsStudent() {
		return nil, apperror.InvalidReference("user %d is not a student", req.StudentID)
	}

	allowed, err := s.authz.CanAccessStudent(ctx, reviewer, &student)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, apperror.Unauthorized("student %d is outside your review scope", req.StudentID)
	}

	if !req.Section.AllowsStatus(req.Status) {
		return nil, apperror.InvalidReference("status %q is not valid for section %q", req.Status, req.Section)
	}

	now := time.Now()

	if req.Section == model.SectionProfile {
		err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := s.scoring.ApplyReviewDelta(tx, student.ID, student.Profile.Status, req.Status); err != nil {
				return err
			}
			return tx.Model(&model.User{}).
				Where("id = ?", student.ID).
				Updates(map[string]interface{}{
					"profile_status":         req.Status,
					"profile_feedback":       req.Feedback,
					"profile_reviewed_by_id": reviewer.ID,
					"profile_reviewed_at":    now,
				}).Error
		})
		if err != nil {
			return nil, err
		}
	} else {
		if req.ItemID == nil {
			return nil, apperror.InvalidReference("item id is required for section %q", req.Section)
		}

		err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			var item model.PortfolioItem
			err := tx.Where("id = ? AND user_id = ? AND section = ?", *req.ItemID, student.ID, req.Section).
				First(&item).Error
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperror.NotFound("portfolio item %d not found in %s", *req.ItemID, req.Section)
			}
			if err != nil {
				return err
			}

			if err := s.scoring.ApplyReviewDelta(tx, student.ID, item.Status, req.Status); err != nil {
				return err
			}

			return tx.Model(&item).
				Updates(map[string]interface{}{
					"status":         req.Status,
					"feedback":       req.Feedback,
					"reviewed_by_id": reviewer.ID,
					"reviewed_at":    now,
				}).Error
		})
		if err != nil {
			return nil, err
		}
	}

	if err := s.db.WithContext(ctx).First(&student, req.StudentID).Error; err != nil {
		return nil, err
	}
	return &student, nil
}
