package bootstrap

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/avelasquez/biblioteca-virtual/internal/dto"
	"github.com/avelasquez/biblioteca-virtual/internal/model"
	"github.com/avelasquez/biblioteca-virtual/internal/repository"
)

func setupTestDB(t *testing.T) (*gorm.DB, func()) {
	dbPath := "./test_" + t.Name() + ".db"

	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, Migrate(db))

	cleanup := func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
		os.Remove(dbPath)
	}
	return db, cleanup
}

func TestSeedCategories_VisibleInCatalog(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	require.NoError(t, SeedCategories(db))

	// The public listing filters to active categories by default; the
	// seeded shelf must show up there.
	repo := repository.NewCategoryRepository(db)
	cats, err := repo.FindAll(context.Background(), dto.CategoryFilter{})
	require.NoError(t, err)
	require.Len(t, cats, 5)
	for _, cat := range cats {
		assert.True(t, cat.Activo, cat.Nombre)
	}
}

func TestSeedCategories_Idempotent(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	require.NoError(t, SeedCategories(db))
	require.NoError(t, SeedCategories(db))

	var count int64
	require.NoError(t, db.Model(&model.Category{}).Count(&count).Error)
	assert.EqualValues(t, 5, count)
}

func TestSeedAdminUser(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	require.NoError(t, SeedAdminUser(db))

	var admin model.User
	require.NoError(t, db.Where("email = ?", "admin@biblioteca.local").First(&admin).Error)
	assert.Equal(t, model.RolAdmin, admin.Rol)
	assert.True(t, admin.Activo)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte("admin12345")))

	// A second run leaves the existing account alone.
	require.NoError(t, SeedAdminUser(db))
	var count int64
	require.NoError(t, db.Model(&model.User{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}
