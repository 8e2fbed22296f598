package db

import (
	"expense_tracker/internal/domain" // Importing domain models
	"fmt"                             // Error wrapping

	"gorm.io/gorm" // GORM ORM library
)

// Migrate performs automatic migration for the database schema
func Migrate(db *gorm.DB) error {
	// AutoMigrate will create tables, missing foreign keys, constraints, columns and indexes
	if err := db.AutoMigrate(&domain.User{}, &domain.Category{}, &domain.Expense{}); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}
