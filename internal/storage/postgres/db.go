// Package postgres implements domain.Store on PostgreSQL via GORM.
package postgres

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/futevolei/futevolei-booking/internal/domain"
)

// Open connects to PostgreSQL and runs the schema migration.
func Open(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN:                  dsn,
		PreferSimpleProtocol: true,
	}), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.AutoMigrate(
		&domain.Class{},
		&domain.Enrollment{},
		&domain.Payment{},
		&domain.Attendance{},
	); err != nil {
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}
	return db, nil
}
