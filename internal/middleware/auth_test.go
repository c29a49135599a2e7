package middleware

import (
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/avelasquez/biblioteca-virtual/internal/model"
	"github.com/avelasquez/biblioteca-virtual/internal/repository"
)

const testSecret = "test-secret"

func setupAuthTest(t *testing.T) (*gin.Engine, *gorm.DB, func()) {
	gin.SetMode(gin.TestMode)

	dbPath := "./test_" + t.Name() + ".db"
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&model.User{}))

	mw := NewAuthMiddleware(repository.NewUserRepository(db), testSecret)

	router := gin.New()
	router.GET("/protegido", mw.RequireAuth(), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	router.GET("/solo-admin", mw.RequireAuth(), mw.RequireAdmin(), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	cleanup := func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
		os.Remove(dbPath)
	}
	return router, db, cleanup
}

func seedUser(t *testing.T, db *gorm.DB, rol string, activo bool) *model.User {
	user := &model.User{
		Nombre:       "Ana",
		Email:        rol + "@example.com",
		PasswordHash: "hash",
		Rol:          rol,
		Activo:       activo,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func signToken(t *testing.T, userID string, ttl time.Duration) string {
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return signed
}

func get(router *gin.Engine, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestRequireAuth_ValidToken(t *testing.T) {
	router, db, cleanup := setupAuthTest(t)
	defer cleanup()

	user := seedUser(t, db, model.RolUsuario, true)
	token := signToken(t, user.ID.String(), time.Hour)

	rec := get(router, "/protegido", token)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequireAuth_MissingOrMalformedHeader(t *testing.T) {
	router, _, cleanup := setupAuthTest(t)
	defer cleanup()

	rec := get(router, "/protegido", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/protegido", nil)
	req.Header.Set("Authorization", "Basic abc123")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireAuth_ExpiredToken(t *testing.T) {
	router, db, cleanup := setupAuthTest(t)
	defer cleanup()

	user := seedUser(t, db, model.RolUsuario, true)
	token := signToken(t, user.ID.String(), -time.Minute)

	rec := get(router, "/protegido", token)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireAuth_WrongSignature(t *testing.T) {
	router, db, cleanup := setupAuthTest(t)
	defer cleanup()

	user := seedUser(t, db, model.RolUsuario, true)

	claims := jwt.RegisteredClaims{
		Subject:   user.ID.String(),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}
	forged, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("otro-secreto"))
	require.NoError(t, err)

	rec := get(router, "/protegido", forged)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireAuth_DeactivatedUser(t *testing.T) {
	router, db, cleanup := setupAuthTest(t)
	defer cleanup()

	// The token itself is valid; the account behind it is not.
	user := seedUser(t, db, model.RolUsuario, false)
	token := signToken(t, user.ID.String(), time.Hour)

	rec := get(router, "/protegido", token)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireAdmin(t *testing.T) {
	router, db, cleanup := setupAuthTest(t)
	defer cleanup()

	regular := seedUser(t, db, model.RolUsuario, true)
	admin := seedUser(t, db, model.RolAdmin, true)

	rec := get(router, "/solo-admin", signToken(t, regular.ID.String(), time.Hour))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = get(router, "/solo-admin", signToken(t, admin.ID.String(), time.Hour))
	assert.Equal(t, http.StatusOK, rec.Code)
}
