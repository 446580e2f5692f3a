package services

import (
	"context"
	"testing"

	"github.com/ethicsfolio/portfolio-api/model"
)

func TestCanAccessStudent(t *testing.T) {
	db := newTestDB(t)
	svc := NewAuthzService(db)
	ctx := context.Background()

	admin := createUser(t, db, "admin@hq.edu", model.RoleSuperAdmin, nil)

	collegeA := createCollege(t, db, "College A")
	leadA := createLead(t, db, "leada@a.edu", collegeA)
	facultyA := createFaculty(t, db, "fa@a.edu", collegeA, leadA)
	studentA := createStudent(t, db, "sa@a.edu", collegeA, facultyA, leadA)

	collegeB := createCollege(t, db, "College B")
	leadB := createLead(t, db, "leadb@b.edu", collegeB)
	facultyB := createFaculty(t, db, "fb@b.edu", collegeB, leadB)
	studentB := createStudent(t, db, "sb@b.edu", collegeB, facultyB, leadB)

	// Student with a stale lead snapshot: only the faculty edge links them
	// to leadA.
	staleStudent := createStudent(t, db, "stale@a.edu", collegeA, facultyA, nil)
	if err := db.Model(staleStudent).Update("college_id", nil).Error; err != nil {
		t.Fatalf("failed to clear college: %v", err)
	}
	staleStudent.CollegeID = nil

	// College-only member: no faculty, no lead edge.
	collegeOnly := createStudent(t, db, "loose@a.edu", collegeA, nil, nil)

	cases := []struct {
		name    string
		actor   *model.User
		student *model.User
		want    bool
	}{
		{"super admin reaches any student", admin, studentB, true},
		{"faculty reaches own student", facultyA, studentA, true},
		{"faculty cannot reach other college", facultyA, studentB, false},
		{"lead reaches direct student", leadA, studentA, true},
		{"lead reaches student via subordinate faculty", leadA, staleStudent, true},
		{"lead reaches college member without edges", leadA, collegeOnly, true},
		{"lead cannot reach other college", leadA, studentB, false},
		{"student reaches nobody", studentA, studentB, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := svc.CanAccessStudent(ctx, tc.actor, tc.student)
			if err != nil {
				t.Fatalf("CanAccessStudent failed: %v", err)
			}
			if got != tc.want {
				t.Errorf("CanAccessStudent = %v, want %v", got, tc.want)
			}
		})
	}
}

// The listing query and the per-row predicate must agree on every student.
func TestAssignedStudentsQueryMatchesPredicate(t *testing.T) {
	db := newTestDB(t)
	svc := NewAuthzService(db)
	ctx := context.Background()

	collegeA := createCollege(t, db, "College A")
	leadA := createLead(t, db, "leada@a.edu", collegeA)
	facultyA := createFaculty(t, db, "fa@a.edu", collegeA, leadA)
	createStudent(t, db, "s1@a.edu", collegeA, facultyA, leadA)
	createStudent(t, db, "s2@a.edu", collegeA, nil, leadA)
	createStudent(t, db, "s3@a.edu", collegeA, nil, nil)

	collegeB := createCollege(t, db, "College B")
	leadB := createLead(t, db, "leadb@b.edu", collegeB)
	facultyB := createFaculty(t, db, "fb@b.edu", collegeB, leadB)
	createStudent(t, db, "s4@b.edu", collegeB, facultyB, leadB)

	var allStudents []model.User
	if err := db.Where("role = ?", model.RoleStudent).Find(&allStudents).Error; err != nil {
		t.Fatalf("failed to load students: %v", err)
	}

	for _, actor := range []*model.User{leadA, facultyA, facultyB} {
		var listed []model.User
		if err := svc.AssignedStudentsQuery(ctx, actor).Find(&listed).Error; err != nil {
			t.Fatalf("listing query failed: %v", err)
		}

		listedSet := make(map[uint]bool, len(listed))
		for _, s := range listed {
			listedSet[s.ID] = true
		}

		for i := range allStudents {
			allowed, err := svc.CanAccessStudent(ctx, actor, &allStudents[i])
			if err != nil {
				t.Fatalf("CanAccessStudent failed: %v", err)
			}
			if allowed != listedSet[allStudents[i].ID] {
				t.Errorf("actor %s: predicate=%v listed=%v for student %d",
					actor.Email, allowed, listedSet[allStudents[i].ID], allStudents[i].ID)
			}
		}
	}
}
