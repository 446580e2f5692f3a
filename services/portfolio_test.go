package services

import (
	"context"
	"encoding/json"
	"testing"

	"gorm.io/gorm"

	"github.com/ethicsfolio/portfolio-api/model"
	"github.com/ethicsfolio/portfolio-api/utils/apperror"
	"github.com/ethicsfolio/portfolio-api/utils/validation"
)

func newPortfolioService(db *gorm.DB) *PortfolioService {
	return NewPortfolioService(db, validation.NewValidator(), NewAuthzService(db), NewScoringService(db))
}

func beTheChangeContent() json.RawMessage {
	return json.RawMessage(`{"year":"2026","reflect_on_impact":"Organised a river cleanup with the first-year cohort."}`)
}

func ethicsThroughArtContent() json.RawMessage {
	return json.RawMessage(`{"work_about":"Consent in clinical trials","why_this_topic":"Saw it mishandled during rotation","how_expressed":"Charcoal series","why_this_format":"Stark contrast fits the subject"}`)
}

func TestAddItem(t *testing.T) {
	db := newTestDB(t)
	svc := newPortfolioService(db)
	ctx := context.Background()

	college := createCollege(t, db, "Item College")
	lead := createLead(t, db, "lead@item.edu", college)
	student := createStudent(t, db, "s@item.edu", college, nil, lead)

	item, err := svc.AddItem(ctx, student, model.SectionBeTheChange, beTheChangeContent())
	if err != nil {
		t.Fatalf("AddItem failed: %v", err)
	}
	if item.Status != model.StatusPending {
		t.Errorf("new item status = %q, want pending", item.Status)
	}
	if item.UserID != student.ID {
		t.Errorf("new item owner = %d, want %d", item.UserID, student.ID)
	}
}

func TestAddItemRejectsBadInput(t *testing.T) {
	db := newTestDB(t)
	svc := newPortfolioService(db)
	ctx := context.Background()

	college := createCollege(t, db, "Bad College")
	lead := createLead(t, db, "lead@bad.edu", college)
	student := createStudent(t, db, "s@bad.edu", college, nil, lead)

	cases := []struct {
		name    string
		section model.Section
		raw     json.RawMessage
	}{
		{"unknown section", "basket_weaving", beTheChangeContent()},
		{"profile is not item-bearing", model.SectionProfile, beTheChangeContent()},
		{"unknown field", model.SectionBeTheChange, json.RawMessage(`{"year":"2026","reflect_on_impact":"x","extra":"nope"}`)},
		{"missing required field", model.SectionBeTheChange, json.RawMessage(`{"year":"2026"}`)},
		{"malformed json", model.SectionBeTheChange, json.RawMessage(`{"year":`)},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.AddItem(ctx, student, tc.section, tc.raw)
			if apperror.KindOf(err) != apperror.KindInvalidReference {
				t.Errorf("error = %v, want InvalidReference", err)
			}
		})
	}
}

func TestUpdateItemRejectedTransitions(t *testing.T) {
	db := newTestDB(t)
	svc := newPortfolioService(db)
	ctx := context.Background()

	college := createCollege(t, db, "Edit College")
	lead := createLead(t, db, "lead@edit.edu", college)
	student := createStudent(t, db, "s@edit.edu", college, nil, lead)

	// Editing a rejected item re-enters review. Most sections resubmit;
	// ethics-through-art goes back to pending.
	standard := createItem(t, db, student, model.SectionBeTheChange, model.StatusRejected)
	updated, err := svc.UpdateItem(ctx, student, model.SectionBeTheChange, standard.ID, beTheChangeContent())
	if err != nil {
		t.Fatalf("UpdateItem failed: %v", err)
	}
	if updated.Status != model.StatusResubmitted {
		t.Errorf("rejected edit status = %q, want resubmitted", updated.Status)
	}

	art := createItem(t, db, student, model.SectionEthicsThroughArt, model.StatusRejected)
	updated, err = svc.UpdateItem(ctx, student, model.SectionEthicsThroughArt, art.ID, ethicsThroughArtContent())
	if err != nil {
		t.Fatalf("UpdateItem failed: %v", err)
	}
	if updated.Status != model.StatusPending {
		t.Errorf("rejected art edit status = %q, want pending", updated.Status)
	}

	// A non-rejected item keeps its status.
	approved := createItem(t, db, student, model.SectionBeTheChange, model.StatusApproved)
	updated, err = svc.UpdateItem(ctx, student, model.SectionBeTheChange, approved.ID, beTheChangeContent())
	if err != nil {
		t.Fatalf("UpdateItem failed: %v", err)
	}
	if updated.Status != model.StatusApproved {
		t.Errorf("approved edit status = %q, want approved", updated.Status)
	}
}

func TestUpdateItemScopedToOwnerAndSection(t *testing.T) {
	db := newTestDB(t)
	svc := newPortfolioService(db)
	ctx := context.Background()

	college := createCollege(t, db, "Scope College")
	lead := createLead(t, db, "lead@scope.edu", college)
	owner := createStudent(t, db, "owner@scope.edu", college, nil, lead)
	other := createStudent(t, db, "other@scope.edu", college, nil, lead)

	item := createItem(t, db, owner, model.SectionBeTheChange, model.StatusPending)

	_, err := svc.UpdateItem(ctx, other, model.SectionBeTheChange, item.ID, beTheChangeContent())
	if apperror.KindOf(err) != apperror.KindNotFound {
		t.Errorf("cross-owner edit error = %v, want NotFound", err)
	}

	_, err = svc.UpdateItem(ctx, owner, model.SectionEthicsThroughArt, item.ID, ethicsThroughArtContent())
	if apperror.KindOf(err) != apperror.KindNotFound {
		t.Errorf("cross-section edit error = %v, want NotFound", err)
	}
}

func TestDeleteItemReturnsPoint(t *testing.T) {
	db := newTestDB(t)
	svc := newPortfolioService(db)
	ctx := context.Background()

	college := createCollege(t, db, "Delete College")
	lead := createLead(t, db, "lead@del2.edu", college)
	student := createStudent(t, db, "s@del2.edu", college, nil, lead)

	approved := createItem(t, db, student, model.SectionBeTheChange, model.StatusApproved)
	pending := createItem(t, db, student, model.SectionBeTheChange, model.StatusPending)
	if err := db.Model(student).UpdateColumn("points", 1).Error; err != nil {
		t.Fatalf("failed to set points: %v", err)
	}

	if err := svc.DeleteItem(ctx, student, model.SectionBeTheChange, approved.ID); err != nil {
		t.Fatalf("DeleteItem failed: %v", err)
	}
	if got := reload(t, db, student.ID).Points; got != 0 {
		t.Errorf("points after approved deletion = %d, want 0", got)
	}

	if err := svc.DeleteItem(ctx, student, model.SectionBeTheChange, pending.ID); err != nil {
		t.Fatalf("DeleteItem failed: %v", err)
	}
	if got := reload(t, db, student.ID).Points; got != 0 {
		t.Errorf("points after pending deletion = %d, want 0", got)
	}

	items, err := svc.ListItems(ctx, student.ID, model.SectionBeTheChange)
	if err != nil {
		t.Fatalf("ListItems failed: %v", err)
	}
	if len(items) != 0 {
		t.Errorf("remaining items = %d, want 0", len(items))
	}
}

func TestListAllSeedsEverySection(t *testing.T) {
	db := newTestDB(t)
	svc := newPortfolioService(db)
	ctx := context.Background()

	college := createCollege(t, db, "List College")
	lead := createLead(t, db, "lead@list.edu", college)
	student := createStudent(t, db, "s@list.edu", college, nil, lead)
	createItem(t, db, student, model.SectionBeTheChange, model.StatusPending)

	grouped, err := svc.ListAll(ctx, student.ID)
	if err != nil {
		t.Fatalf("ListAll failed: %v", err)
	}
	if len(grouped) != len(model.AllSections()) {
		t.Errorf("grouped sections = %d, want %d", len(grouped), len(model.AllSections()))
	}
	if len(grouped[model.SectionBeTheChange]) != 1 {
		t.Errorf("be_the_change items = %d, want 1", len(grouped[model.SectionBeTheChange]))
	}
	if grouped[model.SectionCourseReflections] == nil {
		t.Error("empty section should be present with an empty slice")
	}
}

func TestReviewItem(t *testing.T) {
	db := newTestDB(t)
	svc := newPortfolioService(db)
	ctx := context.Background()

	college := createCollege(t, db, "Review College")
	lead := createLead(t, db, "lead@rev.edu", college)
	faculty := createFaculty(t, db, "f@rev.edu", college, lead)
	student := createStudent(t, db, "s@rev.edu", college, faculty, lead)
	item := createItem(t, db, student, model.SectionBeTheChange, model.StatusPending)

	updated, err := svc.Review(ctx, faculty, ReviewRequest{
		StudentID: student.ID,
		Section:   model.SectionBeTheChange,
		ItemID:    &item.ID,
		Status:    model.StatusApproved,
		Feedback:  "Well documented.",
	})
	if err != nil {
		t.Fatalf("Review failed: %v", err)
	}
	if updated.Points != 1 {
		t.Errorf("student points after approval = %d, want 1", updated.Points)
	}

	var reviewed model.PortfolioItem
	if err := db.First(&reviewed, item.ID).Error; err != nil {
		t.Fatalf("failed to reload item: %v", err)
	}
	if reviewed.Status != model.StatusApproved {
		t.Errorf("item status = %q, want approved", reviewed.Status)
	}
	if reviewed.Feedback != "Well documented." {
		t.Errorf("item feedback = %q", reviewed.Feedback)
	}
	if reviewed.ReviewedByID == nil || *reviewed.ReviewedByID != faculty.ID {
		t.Errorf("item reviewer = %v, want %d", reviewed.ReviewedByID, faculty.ID)
	}

	// Flipping the decision takes the point back.
	updated, err = svc.Review(ctx, faculty, ReviewRequest{
		StudentID: student.ID,
		Section:   model.SectionBeTheChange,
		ItemID:    &item.ID,
		Status:    model.StatusRejected,
		Feedback:  "On second look, the dates do not line up.",
	})
	if err != nil {
		t.Fatalf("Review failed: %v", err)
	}
	if updated.Points != 0 {
		t.Errorf("student points after rejection = %d, want 0", updated.Points)
	}
}

func TestReviewProfile(t *testing.T) {
	db := newTestDB(t)
	svc := newPortfolioService(db)
	ctx := context.Background()

	college := createCollege(t, db, "Profile College")
	lead := createLead(t, db, "lead@prof.edu", college)
	student := createStudent(t, db, "s@prof.edu", college, nil, lead)

	updated, err := svc.Review(ctx, lead, ReviewRequest{
		StudentID: student.ID,
		Section:   model.SectionProfile,
		Status:    model.StatusApproved,
	})
	if err != nil {
		t.Fatalf("Review failed: %v", err)
	}
	if updated.Profile.Status != model.StatusApproved {
		t.Errorf("profile status = %q, want approved", updated.Profile.Status)
	}
	if updated.Points != 1 {
		t.Errorf("student points after profile approval = %d, want 1", updated.Points)
	}
}

func TestReviewValidation(t *testing.T) {
	db := newTestDB(t)
	svc := newPortfolioService(db)
	ctx := context.Background()

	college := createCollege(t, db, "Guard College")
	lead := createLead(t, db, "lead@guard.edu", college)
	faculty := createFaculty(t, db, "f@guard.edu", college, lead)
	student := createStudent(t, db, "s@guard.edu", college, faculty, lead)
	item := createItem(t, db, student, model.SectionBeTheChange, model.StatusPending)

	otherCollege := createCollege(t, db, "Other College")
	otherLead := createLead(t, db, "lead@other.edu", otherCollege)
	outsider := createFaculty(t, db, "f@other.edu", otherCollege, otherLead)

	_, err := svc.Review(ctx, outsider, ReviewRequest{
		StudentID: student.ID, Section: model.SectionBeTheChange, ItemID: &item.ID, Status: model.StatusApproved,
	})
	if apperror.KindOf(err) != apperror.KindUnauthorized {
		t.Errorf("out-of-scope review error = %v, want Unauthorized", err)
	}

	_, err = svc.Review(ctx, faculty, ReviewRequest{
		StudentID: student.ID, Section: model.SectionBeTheChange, Status: model.StatusApproved,
	})
	if apperror.KindOf(err) != apperror.KindInvalidReference {
		t.Errorf("missing item id error = %v, want InvalidReference", err)
	}

	_, err = svc.Review(ctx, faculty, ReviewRequest{
		StudentID: student.ID, Section: model.SectionBeTheChange, ItemID: &item.ID, Status: model.StatusInProgress,
	})
	if apperror.KindOf(err) != apperror.KindInvalidReference {
		t.Errorf("disallowed status error = %v, want InvalidReference", err)
	}

	_, err = svc.Review(ctx, faculty, ReviewRequest{
		StudentID: faculty.ID, Section: model.SectionProfile, Status: model.StatusApproved,
	})
	if apperror.KindOf(err) != apperror.KindInvalidReference {
		t.Errorf("non-student target error = %v, want InvalidReference", err)
	}

	_, err = svc.Review(ctx, faculty, ReviewRequest{
		StudentID: 99999, Section: model.SectionProfile, Status: model.StatusApproved,
	})
	if apperror.KindOf(err) != apperror.KindNotFound {
		t.Errorf("missing student error = %v, want NotFound", err)
	}
}

func TestReviewThoughtsProgress(t *testing.T) {
	db := newTestDB(t)
	svc := newPortfolioService(db)
	ctx := context.Background()

	college := createCollege(t, db, "Goal College")
	lead := createLead(t, db, "lead@goal.edu", college)
	faculty := createFaculty(t, db, "f@goal.edu", college, lead)
	student := createStudent(t, db, "s@goal.edu", college, faculty, lead)
	item := createItem(t, db, student, model.SectionThoughtsToActions, model.StatusPending)

	for _, status := range []model.ReviewStatus{model.StatusInProgress, model.StatusAchieved} {
		_, err := svc.Review(ctx, faculty, ReviewRequest{
			StudentID: student.ID, Section: model.SectionThoughtsToActions, ItemID: &item.ID, Status: status,
		})
		if err != nil {
			t.Fatalf("Review with %s failed: %v", status, err)
		}
	}

	// Progress states never touch the counter.
	if got := reload(t, db, student.ID).Points; got != 0 {
		t.Errorf("student points = %d, want 0", got)
	}

	_, err := svc.Review(ctx, faculty, ReviewRequest{
		StudentID: student.ID, Section: model.SectionThoughtsToActions, ItemID: &item.ID, Status: model.StatusResubmitted,
	})
	if apperror.KindOf(err) != apperror.KindInvalidReference {
		t.Errorf("resubmitted on goals error = %v, want InvalidReference", err)
	}
}
