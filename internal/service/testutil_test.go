package service

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/avelasquez/biblioteca-virtual/internal/config"
	"github.com/avelasquez/biblioteca-virtual/internal/model"
)

func setupTestDB(t *testing.T) (*gorm.DB, func()) {
	dbPath := "./test_" + t.Name() + ".db"

	// Foreign keys enforced, same as postgres.
	db, err := gorm.Open(sqlite.Open(dbPath+"?_fk=1"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&model.Category{},
		&model.User{},
		&model.PasswordReset{},
		&model.Book{},
		&model.Loan{},
	)
	require.NoError(t, err)

	cleanup := func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
		os.Remove(dbPath)
	}

	return db, cleanup
}

func testConfig() *config.Config {
	return &config.Config{
		JWTSecret:       "test-secret",
		JWTTTL:          time.Hour,
		CoverExtensions: []string{"jpg", "jpeg", "png"},
		DocExtensions:   []string{"pdf"},
		ItemsPerPage:    12,
		MaxItemsPerPage: 100,
		ResetTokenTTL:   time.Hour,
		LoanDays:        14,
		MaxActiveLoans:  3,
		FinePerDay:      2.0,
	}
}

func seedCategory(t *testing.T, db *gorm.DB, nombre string) *model.Category {
	cat := &model.Category{Nombre: nombre, Icono: "📚", Color: "#2563eb", Activo: true}
	require.NoError(t, db.Create(cat).Error)
	return cat
}

func seedUser(t *testing.T, db *gorm.DB, email, rol string) *model.User {
	user := &model.User{
		Nombre:       "Ana Pérez",
		Email:        email,
		PasswordHash: "hash",
		Rol:          rol,
		Activo:       true,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func seedBook(t *testing.T, db *gorm.DB, cat *model.Category, mutate func(*model.Book)) *model.Book {
	book := &model.Book{
		Titulo:          "El Quijote",
		Autor:           "Miguel de Cervantes",
		CategoriaID:     cat.ID,
		AnioPublicacion: 2005,
		Idioma:          "Español",
		Disponible:      true,
		Stock:           1,
	}
	if mutate != nil {
		mutate(book)
	}
	require.NoError(t, db.Create(book).Error)
	return book
}
