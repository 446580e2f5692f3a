package database

import (
	"errors"
	"log"

	"gorm.io/gorm"

	"github.com/ethicsfolio/portfolio-api/config"
	"github.com/ethicsfolio/portfolio-api/model"
	"github.com/ethicsfolio/portfolio-api/utils/auth"
)

// SeedSuperAdmin creates the super admin account from ADMIN_EMAIL and
// ADMIN_PASSWORD when no super admin exists yet. Safe to run on every boot.
func SeedSuperAdmin(db *gorm.DB) error {
	env, err := config.Get()
	if err != nil {
		return err
	}

	if env.ADMIN_EMAIL == "" || env.ADMIN_PASSWORD == "" {
		log.Println("ADMIN_EMAIL/ADMIN_PASSWORD not set, skipping super admin seed")
		return nil
	}

	var existing model.User
	err = db.Where("role = ?", model.RoleSuperAdmin).First(&existing).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	hash, err := auth.HashPassword(env.ADMIN_PASSWORD)
	if err != nil {
		return err
	}

	admin := model.User{
		Name:         "Super Admin",
		Email:        env.ADMIN_EMAIL,
		PasswordHash: hash,
		Role:         model.RoleSuperAdmin,
		IsFirstLogin: false,
	}

	if err := db.Create(&admin).Error; err != nil {
		return err
	}

	log.Printf("Seeded super admin account %s", env.ADMIN_EMAIL)
	return nil
}
