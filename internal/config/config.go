package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	AppEnv         string
	Port           string
	AllowedOrigins string

	DBHost string
	DBPort string
	DBUser string
	DBPass string
	DBName string

	RedisURL string

	JWTSecret string
	JWTTTL    time.Duration

	UploadDir       string
	MaxUploadSize   int64
	CoverExtensions []string
	DocExtensions   []string

	ItemsPerPage    int
	MaxItemsPerPage int

	ResetTokenTTL time.Duration

	LoanDays       int
	MaxActiveLoans int
	FinePerDay     float64

	LoginRateLimit    time.Duration
	RecoveryRateLimit time.Duration
}

func Load() (*Config, error) {
	// Don't fail if .env doesn't exist (might be prod env vars)
	_ = godotenv.Load()

	cfg := &Config{
		AppEnv:         getEnv("APP_ENV", "development"),
		Port:           getEnv("PORT", "8080"),
		AllowedOrigins: getEnv("ALLOWED_ORIGINS", "http://localhost:3000"),

		DBHost: getEnv("DB_HOST", "localhost"),
		DBPort: getEnv("DB_PORT", "5432"),
		DBUser: getEnv("DB_USER", "postgres"),
		DBPass: os.Getenv("DB_PASS"),
		DBName: getEnv("DB_NAME", "biblioteca_virtual"),

		RedisURL: os.Getenv("REDIS_URL"),

		JWTSecret: getEnv("JWT_SECRET", "change-me"),

		UploadDir:       getEnv("UPLOAD_DIR", "./uploads"),
		CoverExtensions: splitList(getEnv("COVER_EXTENSIONS", "jpg,jpeg,png,gif,webp")),
		DocExtensions:   splitList(getEnv("DOC_EXTENSIONS", "pdf")),
	}

	var err error
	if cfg.JWTTTL, err = minutesEnv("JWT_TTL_MINUTES", 60); err != nil {
		return nil, err
	}
	if cfg.MaxUploadSize, err = int64Env("MAX_UPLOAD_SIZE", 5<<20); err != nil {
		return nil, err
	}
	if cfg.ItemsPerPage, err = intEnv("ITEMS_PER_PAGE", 12); err != nil {
		return nil, err
	}
	if cfg.MaxItemsPerPage, err = intEnv("MAX_ITEMS_PER_PAGE", 100); err != nil {
		return nil, err
	}
	if cfg.ResetTokenTTL, err = durationEnv("RESET_TOKEN_TTL", time.Hour); err != nil {
		return nil, err
	}
	if cfg.LoanDays, err = intEnv("DIAS_PRESTAMO", 14); err != nil {
		return nil, err
	}
	if cfg.MaxActiveLoans, err = intEnv("MAX_PRESTAMOS_SIMULTANEOS", 3); err != nil {
		return nil, err
	}
	if cfg.FinePerDay, err = floatEnv("MULTA_POR_DIA", 2.0); err != nil {
		return nil, err
	}
	if cfg.LoginRateLimit, err = durationEnv("RATE_LIMIT_LOGIN", 3*time.Second); err != nil {
		return nil, err
	}
	if cfg.RecoveryRateLimit, err = durationEnv("RATE_LIMIT_RECOVERY", 5*time.Minute); err != nil {
		return nil, err
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func splitList(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, strings.ToLower(p))
		}
	}
	return out
}

func intEnv(key string, fallback int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return v, nil
}

func int64Env(key string, fallback int64) (int64, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return v, nil
}

func floatEnv(key string, fallback float64) (float64, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return v, nil
}

func minutesEnv(key string, fallbackMinutes int) (time.Duration, error) {
	v, err := intEnv(key, fallbackMinutes)
	if err != nil {
		return 0, err
	}
	return time.Duration(v) * time.Minute, nil
}

func durationEnv(key string, fallback time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return v, nil
}
