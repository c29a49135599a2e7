package main

import (
	"context"
	"log"
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"

	"github.com/avelasquez/biblioteca-virtual/internal/bootstrap"
	"github.com/avelasquez/biblioteca-virtual/internal/config"
	"github.com/avelasquez/biblioteca-virtual/internal/handler"
	"github.com/avelasquez/biblioteca-virtual/internal/middleware"
	"github.com/avelasquez/biblioteca-virtual/internal/model"
	"github.com/avelasquez/biblioteca-virtual/internal/repository"
	"github.com/avelasquez/biblioteca-virtual/internal/service"
	"github.com/avelasquez/biblioteca-virtual/pkg/database"
	"github.com/avelasquez/biblioteca-virtual/pkg/storage"
)

const version = "1.0.0"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("[ERROR] loading configuration: %v", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("[ERROR] connecting to database: %v", err)
	}
	if err := bootstrap.Migrate(db); err != nil {
		log.Fatalf("[ERROR] migration failed: %v", err)
	}
	if err := bootstrap.SeedCategories(db); err != nil {
		log.Fatalf("[ERROR] failed to seed categories: %v", err)
	}
	if cfg.AppEnv == "development" {
		if err := bootstrap.SeedAdminUser(db); err != nil {
			log.Fatalf("[ERROR] failed to seed admin user: %v", err)
		}
	}

	rdb := connectRedis(cfg)

	files, err := storage.NewLocalStore(cfg.UploadDir)
	if err != nil {
		log.Fatalf("[ERROR] failed to initialize file store: %v", err)
	}

	userRepo := repository.NewUserRepository(db)
	categoryRepo := repository.NewCategoryRepository(db)
	bookRepo := repository.NewBookRepository(db)
	loanRepo := repository.NewLoanRepository(db)

	authService := service.NewAuthService(db, userRepo, rdb, cfg)
	authHandler := handler.NewAuthHandler(authService)

	userService := service.NewUserService(userRepo)
	userHandler := handler.NewUserHandler(userService)

	categoryService := service.NewCategoryService(categoryRepo, bookRepo)
	categoryHandler := handler.NewCategoryHandler(categoryService)

	bookService := service.NewBookService(db, bookRepo, categoryRepo, loanRepo, files, cfg)
	bookHandler := handler.NewBookHandler(bookService)

	loanService := service.NewLoanService(db, loanRepo, cfg)
	loanHandler := handler.NewLoanHandler(loanService)

	healthHandler := handler.NewHealthHandler(db, version)

	authMiddleware := middleware.NewAuthMiddleware(userRepo, cfg.JWTSecret)

	router := gin.Default()
	router.MaxMultipartMemory = cfg.MaxUploadSize
	router.Use(cors.New(corsConfig(cfg)))
	router.Static("/uploads", cfg.UploadDir)

	api := router.Group("/api")

	api.GET("", healthHandler.Banner)
	api.GET("/health", healthHandler.Health)

	// Public routes
	api.POST("/usuarios/registro", authHandler.Register)
	api.POST("/usuarios/login", authHandler.Login)
	api.POST("/usuarios/recuperar-password", authHandler.RecoverPassword)
	api.POST("/usuarios/reset-password", authHandler.ResetPassword)

	api.GET("/libros", bookHandler.List)
	api.GET("/libros/mas-prestados", bookHandler.TopPrestados)
	api.GET("/libros/mejor-calificados", bookHandler.TopCalificados)
	api.GET("/libros/recientes", bookHandler.Recientes)
	api.GET("/libros/:id", bookHandler.Get)
	api.GET("/libros/:id/disponibilidad", bookHandler.Disponibilidad)
	api.GET("/libros/:id/archivo", bookHandler.StreamPDF)

	api.GET("/categorias", categoryHandler.List)
	api.GET("/categorias/populares", categoryHandler.Populares)
	api.GET("/categorias/:id", categoryHandler.Get)

	// Authenticated routes
	authed := api.Group("")
	authed.Use(authMiddleware.RequireAuth())
	{
		authed.POST("/prestamos", loanHandler.Create)
		authed.PUT("/prestamos/:id/devolver", loanHandler.Return)
		authed.GET("/prestamos/mios", loanHandler.Mine)
	}

	// Staff routes (admin y bibliotecario)
	staff := api.Group("")
	staff.Use(authMiddleware.RequireAuth(), authMiddleware.RequireRoles(model.RolAdmin, model.RolBibliotecario))
	{
		staff.POST("/libros", bookHandler.Create)
		staff.PUT("/libros/:id", bookHandler.Update)
		staff.DELETE("/libros/:id", bookHandler.Delete)
		staff.GET("/libros/:id/prestamos", loanHandler.ByBook)

		staff.POST("/categorias", categoryHandler.Create)
		staff.PUT("/categorias/:id", categoryHandler.Update)
		staff.DELETE("/categorias/:id", categoryHandler.Delete)
	}

	// Admin-only routes
	admin := api.Group("/usuarios")
	admin.Use(authMiddleware.RequireAuth(), authMiddleware.RequireAdmin())
	{
		admin.GET("", userHandler.List)
		admin.GET("/:id", userHandler.Get)
		admin.POST("", userHandler.Create)
		admin.PUT("/:id", userHandler.Update)
		admin.DELETE("/:id", userHandler.Delete)
	}

	startSweeper(authService)

	log.Printf("[INFO] starting server on port %s", cfg.Port)
	if err := router.Run(":" + cfg.Port); err != nil {
		log.Fatalf("[ERROR] server exited: %v", err)
	}
}

func connectRedis(cfg *config.Config) *redis.Client {
	if cfg.RedisURL == "" {
		log.Println("[WARN] REDIS_URL not set, rate limiting disabled")
		return nil
	}

	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		log.Fatalf("[ERROR] invalid REDIS_URL: %v", err)
	}

	rdb := redis.NewClient(opts)
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		log.Printf("[WARN] redis unreachable, rate limiting degraded: %v", err)
	}
	return rdb
}

func corsConfig(cfg *config.Config) cors.Config {
	corsCfg := cors.DefaultConfig()
	corsCfg.AllowOrigins = splitOrigins(cfg.AllowedOrigins)
	corsCfg.AllowHeaders = append(corsCfg.AllowHeaders, "Authorization")
	return corsCfg
}

func splitOrigins(raw string) []string {
	var out []string
	for _, origin := range strings.Split(raw, ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			out = append(out, origin)
		}
	}
	return out
}

// startSweeper clears expired password reset tokens every hour.
func startSweeper(authService service.AuthService) {
	c := cron.New()
	_, err := c.AddFunc("@hourly", func() {
		if err := authService.SweepExpiredResets(context.Background()); err != nil {
			log.Printf("[ERROR] sweeping expired reset tokens: %v", err)
		}
	})
	if err != nil {
		log.Fatalf("[ERROR] scheduling reset token sweep: %v", err)
	}
	c.Start()
}
