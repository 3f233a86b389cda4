package migrations

import (
	"errors"
	"log"

	"tarp_ops/internal/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Seed creates the default admin user when the users table is empty.
// Schema creation itself happens in database.Initialize.
func Seed(db *gorm.DB) error {
	var count int64
	if err := db.Model(&models.User{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte("admin"), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	admin := &models.User{
		Name:         "Administrator",
		Email:        "admin@localhost",
		Role:         string(models.RoleAdmin),
		Status:       string(models.UserActive),
		PasswordHash: string(hashed),
	}
	if err := db.Create(admin).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil
		}
		return err
	}

	log.Println("Seeded default admin user")
	return nil
}
