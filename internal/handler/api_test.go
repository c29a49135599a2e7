package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/avelasquez/biblioteca-virtual/internal/config"
	"github.com/avelasquez/biblioteca-virtual/internal/middleware"
	"github.com/avelasquez/biblioteca-virtual/internal/model"
	"github.com/avelasquez/biblioteca-virtual/internal/repository"
	"github.com/avelasquez/biblioteca-virtual/internal/service"
	"github.com/avelasquez/biblioteca-virtual/pkg/storage"
)

type envelope struct {
	Success bool              `json:"success"`
	Status  int               `json:"status"`
	Data    json.RawMessage   `json:"data"`
	Message string            `json:"message"`
	Errors  map[string]string `json:"errors"`
}

type testServer struct {
	router *gin.Engine
	db     *gorm.DB
	cfg    *config.Config
}

func setupTestServer(t *testing.T) (*testServer, func()) {
	gin.SetMode(gin.TestMode)

	dbPath := "./test_" + t.Name() + ".db"
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
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

	cfg := &config.Config{
		JWTSecret:       "test-secret",
		JWTTTL:          time.Hour,
		CoverExtensions: []string{"jpg", "png"},
		DocExtensions:   []string{"pdf"},
		ItemsPerPage:    12,
		MaxItemsPerPage: 100,
		ResetTokenTTL:   time.Hour,
		LoanDays:        14,
		MaxActiveLoans:  3,
		FinePerDay:      2.0,
	}

	files, err := storage.NewLocalStore(t.TempDir())
	require.NoError(t, err)

	userRepo := repository.NewUserRepository(db)
	categoryRepo := repository.NewCategoryRepository(db)
	bookRepo := repository.NewBookRepository(db)
	loanRepo := repository.NewLoanRepository(db)

	authHandler := NewAuthHandler(service.NewAuthService(db, userRepo, nil, cfg))
	userHandler := NewUserHandler(service.NewUserService(userRepo))
	categoryHandler := NewCategoryHandler(service.NewCategoryService(categoryRepo, bookRepo))
	bookHandler := NewBookHandler(service.NewBookService(db, bookRepo, categoryRepo, loanRepo, files, cfg))
	loanHandler := NewLoanHandler(service.NewLoanService(db, loanRepo, cfg))

	authMiddleware := middleware.NewAuthMiddleware(userRepo, cfg.JWTSecret)

	router := gin.New()
	api := router.Group("/api")

	api.POST("/usuarios/registro", authHandler.Register)
	api.POST("/usuarios/login", authHandler.Login)
	api.POST("/usuarios/recuperar-password", authHandler.RecoverPassword)
	api.POST("/usuarios/reset-password", authHandler.ResetPassword)

	api.GET("/libros", bookHandler.List)
	api.GET("/libros/:id", bookHandler.Get)
	api.GET("/libros/:id/disponibilidad", bookHandler.Disponibilidad)
	api.GET("/libros/:id/archivo", bookHandler.StreamPDF)
	api.GET("/categorias", categoryHandler.List)
	api.GET("/categorias/populares", categoryHandler.Populares)

	authed := api.Group("")
	authed.Use(authMiddleware.RequireAuth())
	{
		authed.POST("/prestamos", loanHandler.Create)
		authed.PUT("/prestamos/:id/devolver", loanHandler.Return)
		authed.GET("/prestamos/mios", loanHandler.Mine)
	}

	staff := api.Group("")
	staff.Use(authMiddleware.RequireAuth(), authMiddleware.RequireRoles(model.RolAdmin, model.RolBibliotecario))
	{
		staff.POST("/libros", bookHandler.Create)
		staff.PUT("/libros/:id", bookHandler.Update)
		staff.DELETE("/libros/:id", bookHandler.Delete)
		staff.POST("/categorias", categoryHandler.Create)
		staff.PUT("/categorias/:id", categoryHandler.Update)
		staff.DELETE("/categorias/:id", categoryHandler.Delete)
	}

	admin := api.Group("/usuarios")
	admin.Use(authMiddleware.RequireAuth(), authMiddleware.RequireAdmin())
	{
		admin.GET("", userHandler.List)
		admin.POST("", userHandler.Create)
	}

	cleanup := func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
		os.Remove(dbPath)
	}

	return &testServer{router: router, db: db, cfg: cfg}, cleanup
}

func (ts *testServer) request(t *testing.T, method, path, token string, body any) (*httptest.ResponseRecorder, envelope) {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)

	var env envelope
	if rec.Body.Len() > 0 && strings.Contains(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	}
	return rec, env
}

func (ts *testServer) seedStaff(t *testing.T, email, rol string) string {
	hash, err := bcrypt.GenerateFromPassword([]byte("secreto123"), bcrypt.DefaultCost)
	require.NoError(t, err)
	require.NoError(t, ts.db.Create(&model.User{
		Nombre:       "Staff",
		Email:        email,
		PasswordHash: string(hash),
		Rol:          rol,
		Activo:       true,
	}).Error)

	rec, env := ts.request(t, http.MethodPost, "/api/usuarios/login", "", gin.H{
		"email":    email,
		"password": "secreto123",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var auth struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &auth))
	return auth.Token
}

func TestAPI_RegisterAndLogin(t *testing.T) {
	ts, cleanup := setupTestServer(t)
	defer cleanup()

	rec, env := ts.request(t, http.MethodPost, "/api/usuarios/registro", "", gin.H{
		"nombre":   "Ana Pérez",
		"email":    "ana@example.com",
		"password": "secreto123",
	})

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.True(t, env.Success)

	rec, env = ts.request(t, http.MethodPost, "/api/usuarios/login", "", gin.H{
		"email":    "ana@example.com",
		"password": "secreto123",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var auth struct {
		Token     string `json:"token"`
		TokenType string `json:"token_type"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &auth))
	assert.NotEmpty(t, auth.Token)
	assert.Equal(t, "Bearer", auth.TokenType)
}

func TestAPI_Register_ValidationEnvelope(t *testing.T) {
	ts, cleanup := setupTestServer(t)
	defer cleanup()

	rec, env := ts.request(t, http.MethodPost, "/api/usuarios/registro", "", gin.H{
		"nombre":   "Ana",
		"email":    "no-es-un-email",
		"password": "corta",
	})

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.False(t, env.Success)
	assert.Contains(t, env.Errors, "email")
	assert.Contains(t, env.Errors, "password")
}

func TestAPI_Register_DuplicateEmail(t *testing.T) {
	ts, cleanup := setupTestServer(t)
	defer cleanup()

	body := gin.H{"nombre": "Ana", "email": "ana@example.com", "password": "secreto123"}

	rec, _ := ts.request(t, http.MethodPost, "/api/usuarios/registro", "", body)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec, env := ts.request(t, http.MethodPost, "/api/usuarios/registro", "", body)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.False(t, env.Success)
}

func TestAPI_CatalogCRUD(t *testing.T) {
	ts, cleanup := setupTestServer(t)
	defer cleanup()
	adminToken := ts.seedStaff(t, "admin@example.com", model.RolAdmin)

	// Create a category.
	rec, env := ts.request(t, http.MethodPost, "/api/categorias", adminToken, gin.H{
		"nombre": "Ficción",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var cat model.Category
	require.NoError(t, json.Unmarshal(env.Data, &cat))

	// Create a book in it.
	rec, env = ts.request(t, http.MethodPost, "/api/libros", adminToken, gin.H{
		"titulo":           "Cien Años de Soledad",
		"autor":            "Gabriel García Márquez",
		"categoria_id":     cat.ID.String(),
		"anio_publicacion": 1967,
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var book model.Book
	require.NoError(t, json.Unmarshal(env.Data, &book))
	assert.Equal(t, "Cien Años de Soledad", book.Titulo)

	// Search finds it case-insensitively.
	rec, env = ts.request(t, http.MethodGet, "/api/libros?q=soledad", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var page struct {
		Items []model.Book `json:"items"`
		Meta  struct {
			Total int64 `json:"total"`
		} `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &page))
	assert.EqualValues(t, 1, page.Meta.Total)

	// The category now refuses deletion.
	rec, env = ts.request(t, http.MethodDelete, "/api/categorias/"+cat.ID.String(), adminToken, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.False(t, env.Success)

	// Delete the book, then the category goes.
	rec, _ = ts.request(t, http.MethodDelete, "/api/libros/"+book.ID.String()+"?permanente=true", adminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec, _ = ts.request(t, http.MethodDelete, "/api/categorias/"+cat.ID.String(), adminToken, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAPI_CreateBook_RequiresStaff(t *testing.T) {
	ts, cleanup := setupTestServer(t)
	defer cleanup()

	rec, _ := ts.request(t, http.MethodPost, "/api/libros", "", gin.H{"titulo": "X"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	_, env := ts.request(t, http.MethodPost, "/api/usuarios/registro", "", gin.H{
		"nombre":   "Ana",
		"email":    "ana@example.com",
		"password": "secreto123",
	})
	var auth struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &auth))

	rec, _ = ts.request(t, http.MethodPost, "/api/libros", auth.Token, gin.H{"titulo": "X"})
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestAPI_CreateBookMultipart(t *testing.T) {
	ts, cleanup := setupTestServer(t)
	defer cleanup()
	staffToken := ts.seedStaff(t, "staff@example.com", model.RolBibliotecario)

	_, env := ts.request(t, http.MethodPost, "/api/categorias", staffToken, gin.H{"nombre": "Ficción"})
	var cat model.Category
	require.NoError(t, json.Unmarshal(env.Data, &cat))

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	require.NoError(t, writer.WriteField("titulo", "El Aleph"))
	require.NoError(t, writer.WriteField("autor", "Jorge Luis Borges"))
	require.NoError(t, writer.WriteField("categoria_id", cat.ID.String()))
	require.NoError(t, writer.WriteField("anio_publicacion", "1949"))

	part, err := writer.CreateFormFile("portada", "portada.jpg")
	require.NoError(t, err)
	_, err = part.Write([]byte("fake image bytes"))
	require.NoError(t, err)

	part, err = writer.CreateFormFile("archivo_pdf_file", "aleph.pdf")
	require.NoError(t, err)
	_, err = part.Write([]byte("%PDF-1.4 fake content"))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/libros", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+staffToken)

	rec := httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var createEnv envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &createEnv))
	var book model.Book
	require.NoError(t, json.Unmarshal(createEnv.Data, &book))
	assert.NotEmpty(t, book.PortadaURL)
	assert.NotEmpty(t, book.ArchivoPDF)

	// The document streams back inline as PDF.
	streamRec, _ := ts.request(t, http.MethodGet, "/api/libros/"+book.ID.String()+"/archivo", "", nil)
	require.Equal(t, http.StatusOK, streamRec.Code)
	assert.Equal(t, "application/pdf", streamRec.Header().Get("Content-Type"))
	assert.Contains(t, streamRec.Header().Get("Content-Disposition"), "inline")
	assert.Equal(t, "%PDF-1.4 fake content", streamRec.Body.String())
}

func TestAPI_LoanFlow(t *testing.T) {
	ts, cleanup := setupTestServer(t)
	defer cleanup()
	adminToken := ts.seedStaff(t, "admin@example.com", model.RolAdmin)

	_, env := ts.request(t, http.MethodPost, "/api/categorias", adminToken, gin.H{"nombre": "Ficción"})
	var cat model.Category
	require.NoError(t, json.Unmarshal(env.Data, &cat))

	_, env = ts.request(t, http.MethodPost, "/api/libros", adminToken, gin.H{
		"titulo":           "Rayuela",
		"autor":            "Julio Cortázar",
		"categoria_id":     cat.ID.String(),
		"anio_publicacion": 1963,
	})
	var book model.Book
	require.NoError(t, json.Unmarshal(env.Data, &book))

	_, env = ts.request(t, http.MethodPost, "/api/usuarios/registro", "", gin.H{
		"nombre":   "Ana",
		"email":    "ana@example.com",
		"password": "secreto123",
	})
	var auth struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &auth))

	// Borrow it.
	rec, env := ts.request(t, http.MethodPost, "/api/prestamos", auth.Token, gin.H{
		"libro_id": book.ID.String(),
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var loan model.Loan
	require.NoError(t, json.Unmarshal(env.Data, &loan))
	assert.Equal(t, model.LoanEstadoActivo, loan.Estado)

	// The single copy is gone.
	rec, env = ts.request(t, http.MethodGet, "/api/libros/"+book.ID.String()+"/disponibilidad", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var avail struct {
		Disponible bool `json:"disponible"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &avail))
	assert.False(t, avail.Disponible)

	// Listed under the borrower's loans.
	rec, env = ts.request(t, http.MethodGet, "/api/prestamos/mios", auth.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var loans []model.Loan
	require.NoError(t, json.Unmarshal(env.Data, &loans))
	require.Len(t, loans, 1)

	// Return it.
	rec, env = ts.request(t, http.MethodPut, fmt.Sprintf("/api/prestamos/%s/devolver", loan.ID), auth.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var returned model.Loan
	require.NoError(t, json.Unmarshal(env.Data, &returned))
	assert.Equal(t, model.LoanEstadoDevuelto, returned.Estado)
}

func TestAPI_Loan_InvalidBookID(t *testing.T) {
	ts, cleanup := setupTestServer(t)
	defer cleanup()

	_, env := ts.request(t, http.MethodPost, "/api/usuarios/registro", "", gin.H{
		"nombre":   "Ana",
		"email":    "ana@example.com",
		"password": "secreto123",
	})
	var auth struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &auth))

	rec, env := ts.request(t, http.MethodPost, "/api/prestamos", auth.Token, gin.H{
		"libro_id": "no-es-un-uuid",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.False(t, env.Success)
}

func TestAPI_UsersAdminOnly(t *testing.T) {
	ts, cleanup := setupTestServer(t)
	defer cleanup()

	staffToken := ts.seedStaff(t, "staff@example.com", model.RolBibliotecario)
	adminToken := ts.seedStaff(t, "admin@example.com", model.RolAdmin)

	rec, _ := ts.request(t, http.MethodGet, "/api/usuarios", staffToken, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, _ = ts.request(t, http.MethodGet, "/api/usuarios", adminToken, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, env := ts.request(t, http.MethodPost, "/api/usuarios", adminToken, gin.H{
		"nombre":   "Nuevo Bibliotecario",
		"email":    "nuevo@example.com",
		"password": "secreto123",
		"rol":      model.RolBibliotecario,
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var user model.User
	require.NoError(t, json.Unmarshal(env.Data, &user))
	assert.Equal(t, model.RolBibliotecario, user.Rol)
}

func TestAPI_PasswordRecoveryFlow(t *testing.T) {
	ts, cleanup := setupTestServer(t)
	defer cleanup()

	_, _ = ts.request(t, http.MethodPost, "/api/usuarios/registro", "", gin.H{
		"nombre":   "Ana",
		"email":    "ana@example.com",
		"password": "secreto123",
	})

	rec, env := ts.request(t, http.MethodPost, "/api/usuarios/recuperar-password", "", gin.H{
		"email": "ana@example.com",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var recovery struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &recovery))
	require.NotEmpty(t, recovery.Token)

	rec, _ = ts.request(t, http.MethodPost, "/api/usuarios/reset-password", "", gin.H{
		"token":    recovery.Token,
		"password": "nuevosecreto",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec, _ = ts.request(t, http.MethodPost, "/api/usuarios/login", "", gin.H{
		"email":    "ana@example.com",
		"password": "nuevosecreto",
	})
	assert.Equal(t, http.StatusOK, rec.Code)
}
