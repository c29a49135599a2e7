package database

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/avelasquez/biblioteca-virtual/internal/config"
)

// Connect opens a Postgres-backed gorm handle from explicit configuration.
// The handle is returned to the caller and injected into repositories;
// nothing here is global. TranslateError lets unique-constraint violations
// surface as gorm.ErrDuplicatedKey so services can map them to conflicts.
func Connect(cfg *config.Config) (*gorm.DB, error) {
	dsn := fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		cfg.DBHost,
		cfg.DBUser,
		cfg.DBPass,
		cfg.DBName,
		cfg.DBPort,
	)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}

	return db, nil
}
