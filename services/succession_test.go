package services

import (
	"context"
	"testing"

	"github.com/ethicsfolio/portfolio-api/model"
	"github.com/ethicsfolio/portfolio-api/utils/apperror"
)

func TestTransferLeadership(t *testing.T) {
	db := newTestDB(t)
	svc := NewSuccessionService(db)
	ctx := context.Background()

	college := createCollege(t, db, "Alpha Medical College")
	oldLead := createLead(t, db, "oldlead@alpha.edu", college)
	f1 := createFaculty(t, db, "f1@alpha.edu", college, oldLead)
	f2 := createFaculty(t, db, "f2@alpha.edu", college, oldLead)
	s1 := createStudent(t, db, "s1@alpha.edu", college, f1, oldLead)
	s2 := createStudent(t, db, "s2@alpha.edu", college, f2, oldLead)

	if err := svc.TransferLeadership(ctx, college.ID, f1.ID); err != nil {
		t.Fatalf("TransferLeadership failed: %v", err)
	}

	newLead := reload(t, db, f1.ID)
	if newLead.Role != model.RoleLeadFaculty {
		t.Errorf("new lead role = %q, want lead_faculty", newLead.Role)
	}
	if newLead.LeadFacultyID != nil {
		t.Errorf("new lead still reports to %d", *newLead.LeadFacultyID)
	}

	demoted := reload(t, db, oldLead.ID)
	if demoted.Role != model.RoleFaculty {
		t.Errorf("old lead role = %q, want faculty", demoted.Role)
	}
	if demoted.LeadFacultyID == nil || *demoted.LeadFacultyID != f1.ID {
		t.Errorf("old lead not reporting to new lead")
	}

	// f1's former students hand over to the demoted primary.
	movedStudent := reload(t, db, s1.ID)
	if movedStudent.FacultyID == nil || *movedStudent.FacultyID != oldLead.ID {
		t.Errorf("former student of new lead not handed to old primary")
	}
	if movedStudent.LeadFacultyID == nil || *movedStudent.LeadFacultyID != f1.ID {
		t.Errorf("former student's lead edge not repointed")
	}

	// Everyone else's lead edges sweep onto the new lead.
	for _, id := range []uint{f2.ID, s2.ID} {
		u := reload(t, db, id)
		if u.LeadFacultyID == nil || *u.LeadFacultyID != f1.ID {
			t.Errorf("user %d lead edge not swept to new lead", id)
		}
	}

	got := reloadCollege(t, db, college.ID)
	if got.LeadFacultyID == nil || *got.LeadFacultyID != f1.ID {
		t.Errorf("college primary lead not updated")
	}

	// Exactly one lead faculty remains in the college.
	var leadCount int64
	db.Model(&model.User{}).
		Where("role = ? AND college_id = ?", model.RoleLeadFaculty, college.ID).
		Count(&leadCount)
	if leadCount != 1 {
		t.Errorf("lead faculty count = %d, want 1", leadCount)
	}
}

func TestTransferLeadershipIdempotent(t *testing.T) {
	db := newTestDB(t)
	svc := NewSuccessionService(db)
	ctx := context.Background()

	college := createCollege(t, db, "Beta College")
	oldLead := createLead(t, db, "lead@beta.edu", college)
	f1 := createFaculty(t, db, "f1@beta.edu", college, oldLead)
	createStudent(t, db, "s1@beta.edu", college, f1, oldLead)

	if err := svc.TransferLeadership(ctx, college.ID, f1.ID); err != nil {
		t.Fatalf("first transfer failed: %v", err)
	}

	var before []model.User
	db.Order("id ASC").Find(&before)

	if err := svc.TransferLeadership(ctx, college.ID, f1.ID); err != nil {
		t.Fatalf("repeated transfer failed: %v", err)
	}

	var after []model.User
	db.Order("id ASC").Find(&after)

	if len(before) != len(after) {
		t.Fatalf("user count changed on repeat transfer")
	}
	for i := range before {
		if before[i].Role != after[i].Role {
			t.Errorf("user %d role changed on repeat transfer", before[i].ID)
		}
		if !ptrEqual(before[i].LeadFacultyID, after[i].LeadFacultyID) {
			t.Errorf("user %d lead edge changed on repeat transfer", before[i].ID)
		}
		if !ptrEqual(before[i].FacultyID, after[i].FacultyID) {
			t.Errorf("user %d faculty edge changed on repeat transfer", before[i].ID)
		}
	}
}

func TestTransferLeadershipHandsOverAssignedStudents(t *testing.T) {
	db := newTestDB(t)
	svc := NewSuccessionService(db)
	ctx := context.Background()

	college := createCollege(t, db, "Lambda College")
	oldLead := createLead(t, db, "lead@lambda.edu", college)
	f1 := createFaculty(t, db, "f1@lambda.edu", college, oldLead)
	f2 := createFaculty(t, db, "f2@lambda.edu", college, oldLead)
	s1 := createStudent(t, db, "s1@lambda.edu", college, f2, oldLead)

	// s1 reports to f2 but was assigned by f1.
	if err := db.Model(&model.User{}).Where("id = ?", s1.ID).
		Update("assigned_by_id", f1.ID).Error; err != nil {
		t.Fatalf("failed to set assignment: %v", err)
	}

	if err := svc.TransferLeadership(ctx, college.ID, f1.ID); err != nil {
		t.Fatalf("TransferLeadership failed: %v", err)
	}

	// Students assigned by the new lead hand over to the old primary too.
	student := reload(t, db, s1.ID)
	if student.FacultyID == nil || *student.FacultyID != oldLead.ID {
		t.Errorf("assigned student not handed to old primary")
	}
	if student.AssignedByID == nil || *student.AssignedByID != oldLead.ID {
		t.Errorf("assignment edge not handed to old primary")
	}
	if student.LeadFacultyID == nil || *student.LeadFacultyID != f1.ID {
		t.Errorf("assigned student's lead edge not repointed")
	}
}

func TestTransferToPrimaryRepairsStrayLeads(t *testing.T) {
	db := newTestDB(t)
	svc := NewSuccessionService(db)
	ctx := context.Background()

	college := createCollege(t, db, "Mu College")
	primary := createLead(t, db, "lead@mu.edu", college)
	stray := createUser(t, db, "stray@mu.edu", model.RoleLeadFaculty, &college.ID)

	if err := svc.TransferLeadership(ctx, college.ID, primary.ID); err != nil {
		t.Fatalf("TransferLeadership failed: %v", err)
	}

	// A second lead-role user gets demoted even when the primary is unchanged.
	demoted := reload(t, db, stray.ID)
	if demoted.Role != model.RoleFaculty {
		t.Errorf("stray lead role = %q, want faculty", demoted.Role)
	}
	if demoted.LeadFacultyID == nil || *demoted.LeadFacultyID != primary.ID {
		t.Errorf("stray lead not reporting to primary")
	}

	got := reloadCollege(t, db, college.ID)
	if got.LeadFacultyID == nil || *got.LeadFacultyID != primary.ID {
		t.Errorf("college primary changed")
	}
}

func TestTransferLeadershipRejectsOutsiders(t *testing.T) {
	db := newTestDB(t)
	svc := NewSuccessionService(db)
	ctx := context.Background()

	college := createCollege(t, db, "Gamma College")
	createLead(t, db, "lead@gamma.edu", college)
	other := createCollege(t, db, "Delta College")
	outsider := createFaculty(t, db, "f@delta.edu", other, nil)
	student := createStudent(t, db, "s@gamma.edu", college, nil, nil)

	if err := svc.TransferLeadership(ctx, college.ID, outsider.ID); apperror.KindOf(err) != apperror.KindInvalidReference {
		t.Errorf("outsider transfer error = %v, want InvalidReference", err)
	}
	if err := svc.TransferLeadership(ctx, college.ID, student.ID); apperror.KindOf(err) != apperror.KindInvalidReference {
		t.Errorf("student transfer error = %v, want InvalidReference", err)
	}
	if err := svc.TransferLeadership(ctx, college.ID, 99999); apperror.KindOf(err) != apperror.KindNotFound {
		t.Errorf("missing user transfer error = %v, want NotFound", err)
	}
}

func TestRemoveLeadPromotesSuccessor(t *testing.T) {
	db := newTestDB(t)
	svc := NewSuccessionService(db)
	ctx := context.Background()

	college := createCollege(t, db, "Epsilon College")
	lead := createLead(t, db, "lead@eps.edu", college)
	f1 := createFaculty(t, db, "f1@eps.edu", college, lead)
	f2 := createFaculty(t, db, "f2@eps.edu", college, lead)
	s1 := createStudent(t, db, "s1@eps.edu", college, f1, lead)

	if err := svc.RemoveUser(ctx, lead.ID); err != nil {
		t.Fatalf("RemoveUser failed: %v", err)
	}

	// The earliest faculty takes over.
	successor := reload(t, db, f1.ID)
	if successor.Role != model.RoleLeadFaculty {
		t.Errorf("successor role = %q, want lead_faculty", successor.Role)
	}

	got := reloadCollege(t, db, college.ID)
	if got.LeadFacultyID == nil || *got.LeadFacultyID != f1.ID {
		t.Errorf("college not repointed at successor")
	}

	other := reload(t, db, f2.ID)
	if other.LeadFacultyID == nil || *other.LeadFacultyID != f1.ID {
		t.Errorf("remaining faculty not repointed at successor")
	}

	student := reload(t, db, s1.ID)
	if student.LeadFacultyID == nil || *student.LeadFacultyID != f1.ID {
		t.Errorf("student lead edge not repointed at successor")
	}

	var gone model.User
	if err := db.First(&gone, lead.ID).Error; err == nil {
		t.Errorf("deleted lead still visible")
	}
}

func TestRemoveLeadLeaderlessFallback(t *testing.T) {
	db := newTestDB(t)
	svc := NewSuccessionService(db)
	ctx := context.Background()

	college := createCollege(t, db, "Zeta College")
	lead := createLead(t, db, "lead@zeta.edu", college)
	s1 := createStudent(t, db, "s1@zeta.edu", college, nil, lead)

	if err := svc.RemoveUser(ctx, lead.ID); err != nil {
		t.Fatalf("RemoveUser failed: %v", err)
	}

	got := reloadCollege(t, db, college.ID)
	if got.LeadFacultyID != nil {
		t.Errorf("college lead = %d, want leaderless", *got.LeadFacultyID)
	}

	student := reload(t, db, s1.ID)
	if student.LeadFacultyID != nil {
		t.Errorf("student lead edge not cleared")
	}
}

func TestRemoveNonPrimaryLeadKeepsCollegePrimary(t *testing.T) {
	db := newTestDB(t)
	svc := NewSuccessionService(db)
	ctx := context.Background()

	college := createCollege(t, db, "Nu College")
	primary := createLead(t, db, "lead@nu.edu", college)
	stray := createUser(t, db, "stray@nu.edu", model.RoleLeadFaculty, &college.ID)
	f1 := createFaculty(t, db, "f1@nu.edu", college, stray)

	if err := svc.RemoveUser(ctx, stray.ID); err != nil {
		t.Fatalf("RemoveUser failed: %v", err)
	}

	// No succession runs for a lead who is not the college's primary.
	got := reloadCollege(t, db, college.ID)
	if got.LeadFacultyID == nil || *got.LeadFacultyID != primary.ID {
		t.Errorf("college primary changed on non-primary lead removal")
	}

	faculty := reload(t, db, f1.ID)
	if faculty.Role != model.RoleFaculty {
		t.Errorf("faculty role = %q, want faculty", faculty.Role)
	}
	if faculty.LeadFacultyID != nil {
		t.Errorf("faculty still reports to removed lead")
	}
}

func TestRemoveFacultyOrphansStudents(t *testing.T) {
	db := newTestDB(t)
	svc := NewSuccessionService(db)
	ctx := context.Background()

	college := createCollege(t, db, "Eta College")
	lead := createLead(t, db, "lead@eta.edu", college)
	f1 := createFaculty(t, db, "f1@eta.edu", college, lead)
	s1 := createStudent(t, db, "s1@eta.edu", college, f1, lead)

	if err := svc.RemoveUser(ctx, f1.ID); err != nil {
		t.Fatalf("RemoveUser failed: %v", err)
	}

	student := reload(t, db, s1.ID)
	if student.FacultyID != nil {
		t.Errorf("student faculty edge not cleared")
	}
	// The lead snapshot survives a faculty removal.
	if student.LeadFacultyID == nil || *student.LeadFacultyID != lead.ID {
		t.Errorf("student lead edge lost on faculty removal")
	}
}

func TestRemoveStudentDeletesPortfolio(t *testing.T) {
	db := newTestDB(t)
	svc := NewSuccessionService(db)
	ctx := context.Background()

	college := createCollege(t, db, "Theta College")
	s1 := createStudent(t, db, "s1@theta.edu", college, nil, nil)
	item := model.PortfolioItem{
		UserID:  s1.ID,
		Section: model.SectionBeTheChange,
		Content: []byte(`{"year":"2026","reflect_on_impact":"x"}`),
		Status:  model.StatusPending,
	}
	if err := db.Create(&item).Error; err != nil {
		t.Fatalf("failed to create item: %v", err)
	}

	if err := svc.RemoveUser(ctx, s1.ID); err != nil {
		t.Fatalf("RemoveUser failed: %v", err)
	}

	var count int64
	db.Model(&model.PortfolioItem{}).Where("user_id = ?", s1.ID).Count(&count)
	if count != 0 {
		t.Errorf("portfolio items survived student removal")
	}
}

func TestRemoveSuperAdminRefused(t *testing.T) {
	db := newTestDB(t)
	svc := NewSuccessionService(db)

	admin := createUser(t, db, "admin@hq.edu", model.RoleSuperAdmin, nil)

	err := svc.RemoveUser(context.Background(), admin.ID)
	if apperror.KindOf(err) != apperror.KindConflict {
		t.Errorf("super admin removal error = %v, want Conflict", err)
	}
}

func TestRemoveCollegeDetachesMembers(t *testing.T) {
	db := newTestDB(t)
	svc := NewSuccessionService(db)
	ctx := context.Background()

	college := createCollege(t, db, "Iota College")
	lead := createLead(t, db, "lead@iota.edu", college)
	f1 := createFaculty(t, db, "f1@iota.edu", college, lead)
	s1 := createStudent(t, db, "s1@iota.edu", college, f1, lead)

	if err := svc.RemoveCollege(ctx, college.ID); err != nil {
		t.Fatalf("RemoveCollege failed: %v", err)
	}

	for _, id := range []uint{lead.ID, f1.ID, s1.ID} {
		u := reload(t, db, id)
		if u.CollegeID != nil {
			t.Errorf("user %d still attached to removed college", id)
		}
	}

	// Reporting edges survive; only the college edge is cleared.
	student := reload(t, db, s1.ID)
	if student.FacultyID == nil || *student.FacultyID != f1.ID {
		t.Errorf("student faculty edge lost on college removal")
	}
	if student.LeadFacultyID == nil || *student.LeadFacultyID != lead.ID {
		t.Errorf("student lead edge lost on college removal")
	}

	var gone model.College
	if err := db.First(&gone, college.ID).Error; err == nil {
		t.Errorf("deleted college still visible")
	}
}

func TestReassignFacultyLead(t *testing.T) {
	db := newTestDB(t)
	svc := NewSuccessionService(db)
	ctx := context.Background()

	college := createCollege(t, db, "Kappa College")
	lead1 := createLead(t, db, "lead1@kappa.edu", college)
	lead2 := createUser(t, db, "lead2@kappa.edu", model.RoleLeadFaculty, &college.ID)
	f1 := createFaculty(t, db, "f1@kappa.edu", college, lead1)
	s1 := createStudent(t, db, "s1@kappa.edu", college, f1, lead1)

	if err := svc.ReassignFacultyLead(ctx, f1.ID, lead2.ID); err != nil {
		t.Fatalf("ReassignFacultyLead failed: %v", err)
	}

	faculty := reload(t, db, f1.ID)
	if faculty.LeadFacultyID == nil || *faculty.LeadFacultyID != lead2.ID {
		t.Errorf("faculty lead edge not moved")
	}

	student := reload(t, db, s1.ID)
	if student.LeadFacultyID == nil || *student.LeadFacultyID != lead2.ID {
		t.Errorf("student lead snapshot not refreshed")
	}

	if err := svc.ReassignFacultyLead(ctx, f1.ID, s1.ID); apperror.KindOf(err) != apperror.KindInvalidReference {
		t.Errorf("reassign to student error = %v, want InvalidReference", err)
	}
}

func ptrEqual(a, b *uint) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
