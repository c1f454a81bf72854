package database

import (
	"errors"
	"log"

	"inventory-ledger/internal/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// EnsureAdmin creates the bootstrap admin account when no admin exists yet.
// Safe to call on every start; it reports whether an account was created.
func EnsureAdmin(db *gorm.DB, username, password string) (bool, error) {
	if username == "" || password == "" {
		return false, errors.New("admin username and password are required")
	}

	var count int64
	if err := db.Model(&models.User{}).Where("role = ?", models.RoleAdmin).Count(&count).Error; err != nil {
		return false, err
	}
	if count > 0 {
		return false, nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return false, err
	}

	admin := models.User{
		Username:     username,
		PasswordHash: string(hash),
		Role:         models.RoleAdmin,
	}
	if err := db.Create(&admin).Error; err != nil {
		return false, err
	}

	log.Printf("✅ Default admin user created (username: %s)", username)
	return true, nil
}
