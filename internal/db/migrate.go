package db

import (
	"errors"
	"os"

	"github.com/ikkim/restaurant-pos/internal/app/model"
	"github.com/ikkim/restaurant-pos/pkg/logger"
	"github.com/ikkim/restaurant-pos/pkg/util"
	"gorm.io/gorm"
)

// Models lists every persisted type in dependency order.
func Models() []interface{} {
	return []interface{}{
		&model.User{},
		&model.Customer{},
		&model.Employee{},
		&model.Product{},
		&model.Ingredient{},
		&model.Cart{},
		&model.CartItem{},
		&model.Order{},
		&model.OrderItem{},
		&model.Payment{},
		&model.Notification{},
	}
}

// Migrate runs database migrations and seeds the bootstrap admin.
func Migrate(db *gorm.DB) error {
	logger.Info("Running database migrations...")

	models := Models()
	if err := db.AutoMigrate(models...); err != nil {
		logger.Error("Failed to run migrations", err)
		return err
	}

	if err := seedAdmin(db); err != nil {
		logger.Error("Failed to seed initial data during migration", err)
		return err
	}

	logger.Info("Database migrations completed successfully", map[string]interface{}{
		"models_count": len(models),
	})
	return nil
}

// seedAdmin creates the first admin account when the users table is empty.
// Credentials come from ADMIN_USERNAME / ADMIN_PASSWORD.
func seedAdmin(db *gorm.DB) error {
	var count int64
	if err := db.Model(&model.User{}).Where("role = ?", model.RoleAdmin).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		logger.Info("Admin already exists, skipping seed", map[string]interface{}{
			"existing_count": count,
		})
		return nil
	}

	username := os.Getenv("ADMIN_USERNAME")
	password := os.Getenv("ADMIN_PASSWORD")
	if username == "" || password == "" {
		logger.Warn("ADMIN_USERNAME/ADMIN_PASSWORD not set, no admin seeded")
		return nil
	}
	if err := util.ValidatePassword(password); err != nil {
		return errors.New("ADMIN_PASSWORD does not meet the password policy: " + err.Error())
	}

	hash, err := util.HashPassword(password)
	if err != nil {
		return err
	}
	admin := &model.User{
		Username:     username,
		PasswordHash: hash,
		FullName:     "Administrator",
		Role:         model.RoleAdmin,
		Active:       true,
	}
	if err := db.Create(admin).Error; err != nil {
		return err
	}

	logger.Info("Admin account seeded", map[string]interface{}{
		"username": username,
	})
	return nil
}
