package services

import (
	"testing"

	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/ethicsfolio/portfolio-api/model"
)

// newTestDB opens a fresh in-memory database with the full schema.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	// A single connection keeps the in-memory database alive and visible.
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	err = db.AutoMigrate(
		&model.College{},
		&model.User{},
		&model.PortfolioItem{},
		&model.JWTTokenBlacklist{},
		&model.AdminAuditLog{},
		&model.CronJobLog{},
	)
	if err != nil {
		t.Fatalf("failed to migrate test schema: %v", err)
	}

	return db
}

func createCollege(t *testing.T, db *gorm.DB, name string) *model.College {
	t.Helper()
	college := &model.College{Name: name}
	if err := db.Create(college).Error; err != nil {
		t.Fatalf("failed to create college: %v", err)
	}
	return college
}

func createUser(t *testing.T, db *gorm.DB, email, role string, collegeID *uint) *model.User {
	t.Helper()
	user := &model.User{
		Name:         email,
		Email:        email,
		PasswordHash: "x",
		Role:         role,
		CollegeID:    collegeID,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create user %s: %v", email, err)
	}
	return user
}

// createLead creates a lead faculty and points the college's primary slot at
// them when it is empty.
func createLead(t *testing.T, db *gorm.DB, email string, college *model.College) *model.User {
	t.Helper()
	lead := createUser(t, db, email, model.RoleLeadFaculty, &college.ID)
	if college.LeadFacultyID == nil {
		if err := db.Model(college).Update("lead_faculty_id", lead.ID).Error; err != nil {
			t.Fatalf("failed to set college lead: %v", err)
		}
		college.LeadFacultyID = &lead.ID
	}
	return lead
}

func createFaculty(t *testing.T, db *gorm.DB, email string, college *model.College, lead *model.User) *model.User {
	t.Helper()
	faculty := createUser(t, db, email, model.RoleFaculty, &college.ID)
	if lead != nil {
		if err := db.Model(faculty).Update("lead_faculty_id", lead.ID).Error; err != nil {
			t.Fatalf("failed to set faculty lead: %v", err)
		}
		faculty.LeadFacultyID = &lead.ID
	}
	return faculty
}

func createStudent(t *testing.T, db *gorm.DB, email string, college *model.College, faculty, lead *model.User) *model.User {
	t.Helper()
	student := createUser(t, db, email, model.RoleStudent, &college.ID)
	updates := map[string]interface{}{}
	if faculty != nil {
		updates["faculty_id"] = faculty.ID
		student.FacultyID = &faculty.ID
	}
	if lead != nil {
		updates["lead_faculty_id"] = lead.ID
		student.LeadFacultyID = &lead.ID
	}
	if len(updates) > 0 {
		if err := db.Model(student).Updates(updates).Error; err != nil {
			t.Fatalf("failed to set student edges: %v", err)
		}
	}
	return student
}

func createItem(t *testing.T, db *gorm.DB, student *model.User, section model.Section, status model.ReviewStatus) *model.PortfolioItem {
	t.Helper()
	item := &model.PortfolioItem{
		UserID:  student.ID,
		Section: section,
		Content: datatypes.JSON(`{}`),
		Status:  status,
	}
	if err := db.Create(item).Error; err != nil {
		t.Fatalf("failed to create portfolio item: %v", err)
	}
	return item
}

func reload(t *testing.T, db *gorm.DB, id uint) *model.User {
	t.Helper()
	var user model.User
	if err := db.First(&user, id).Error; err != nil {
		t.Fatalf("failed to reload user %d: %v", id, err)
	}
	return &user
}

func reloadCollege(t *testing.T, db *gorm.DB, id uint) *model.College {
	t.Helper()
	var college model.College
	if err := db.First(&college, id).Error; err != nil {
		t.Fatalf("failed to reload college %d: %v", id, err)
	}
	return &college
}
