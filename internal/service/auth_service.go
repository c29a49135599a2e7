package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/avelasquez/biblioteca-virtual/internal/config"
	"github.com/avelasquez/biblioteca-virtual/internal/dto"
	"github.com/avelasquez/biblioteca-virtual/internal/model"
	"github.com/avelasquez/biblioteca-virtual/internal/repository"
	"github.com/avelasquez/biblioteca-virtual/pkg/apperror"
)

type AuthService interface {
	Register(ctx context.Context, input dto.RegisterInput) (*dto.AuthResponse, error)
	Login(ctx context.Context, input dto.LoginInput) (*dto.AuthResponse, error)
	RecoverPassword(ctx context.Context, input dto.RecoverPasswordInput) (*dto.RecoverPasswordResponse, error)
	ResetPassword(ctx context.Context, input dto.ResetPasswordInput) error
	SweepExpiredResets(ctx context.Context) error
}

type authService struct {
	db   *gorm.DB
	repo repository.UserRepository
	rdb  *redis.Client
	cfg  *config.Config
}

func NewAuthService(db *gorm.DB, repo repository.UserRepository, rdb *redis.Client, cfg *config.Config) AuthService {
	return &authService{db: db, repo: repo, rdb: rdb, cfg: cfg}
}

func (s *authService) Register(ctx context.Context, input dto.RegisterInput) (*dto.AuthResponse, error) {
	user := &model.User{
		Nombre:   sanitize(input.Nombre),
		Email:    input.Email,
		Telefono: sanitizePtr(input.Telefono),
		Rol:      model.RolUsuario,
		Activo:   true,
	}
	if user.Nombre == "" {
		return nil, apperror.NewValidation(map[string]string{"nombre": "este campo es requerido"})
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	user.PasswordHash = string(hashed)

	// The pre-check gives a friendly error in the common case; the unique
	// index on email is what actually guarantees the invariant under
	// concurrent registration.
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if _, err := repo.FindByEmail(ctx, input.Email); err == nil {
			return apperror.New(http.StatusConflict, "el email ya está registrado", apperror.ErrConflict)
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		return repo.Create(ctx, user)
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperror.New(http.StatusConflict, "el email ya está registrado", apperror.ErrConflict)
		}
		return nil, err
	}

	return s.buildAuthResponse(user)
}

func (s *authService) Login(ctx context.Context, input dto.LoginInput) (*dto.AuthResponse, error) {
	allowed, err := checkAndSetRateLimit(ctx, s.rdb, "login", input.Email, s.cfg.LoginRateLimit)
	if err != nil {
		log.Printf("[WARN] rate limit check failed, allowing login: %v", err)
	} else if !allowed {
		return nil, apperror.ErrRateLimited
	}

	invalid := apperror.New(http.StatusUnauthorized, "credenciales inválidas", apperror.ErrUnauthorized)

	user, err := s.repo.FindByEmail(ctx, input.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, invalid
		}
		return nil, err
	}
	if !user.Activo {
		return nil, invalid
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		return nil, invalid
	}

	if err := s.repo.TouchLastLogin(ctx, user.ID); err != nil {
		log.Printf("[WARN] failed to record last login for %s: %v", user.Email, err)
	}
	// A successful login lifts the throttle for the account.
	if err := clearRateLimit(ctx, s.rdb, "login", input.Email); err != nil {
		log.Printf("[WARN] failed to clear login rate limit for %s: %v", input.Email, err)
	}

	return s.buildAuthResponse(user)
}

func (s *authService) RecoverPassword(ctx context.Context, input dto.RecoverPasswordInput) (*dto.RecoverPasswordResponse, error) {
	allowed, err := checkAndSetRateLimit(ctx, s.rdb, "recovery", input.Email, s.cfg.RecoveryRateLimit)
	if err != nil {
		log.Printf("[WARN] rate limit check failed, allowing recovery: %v", err)
	} else if !allowed {
		return nil, apperror.ErrRateLimited
	}

	if _, err := s.repo.FindByEmail(ctx, input.Email); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.New(http.StatusNotFound, "email no registrado", apperror.ErrNotFound)
		}
		return nil, err
	}

	token, err := randomToken(40)
	if err != nil {
		return nil, err
	}

	reset := &model.PasswordReset{
		Email:     input.Email,
		Token:     token,
		ExpiresAt: time.Now().Add(s.cfg.ResetTokenTTL),
	}
	if err := s.repo.CreateReset(ctx, reset); err != nil {
		return nil, err
	}

	return &dto.RecoverPasswordResponse{
		Token:     token,
		ExpiresAt: reset.ExpiresAt.Format(time.RFC3339),
	}, nil
}

func (s *authService) ResetPassword(ctx context.Context, input dto.ResetPasswordInput) error {
	hashed, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	// Redeeming is delete-on-use: the hash update and token removal either
	// both happen or neither does.
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		reset, err := repo.FindResetByToken(ctx, input.Token)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperror.New(http.StatusBadRequest, "token inválido o expirado", apperror.ErrBadRequest)
			}
			return err
		}

		if err := repo.UpdatePasswordByEmail(ctx, reset.Email, string(hashed)); err != nil {
			return err
		}
		return repo.DeleteReset(ctx, reset.Token)
	})
}

func (s *authService) SweepExpiredResets(ctx context.Context) error {
	removed, err := s.repo.DeleteExpiredResets(ctx)
	if err != nil {
		return err
	}
	if removed > 0 {
		log.Printf("[INFO] swept %d expired password reset tokens", removed)
	}
	return nil
}

func (s *authService) buildAuthResponse(user *model.User) (*dto.AuthResponse, error) {
	token, expiresAt, err := s.generateToken(user)
	if err != nil {
		return nil, err
	}

	return &dto.AuthResponse{
		Token:     token,
		TokenType: "Bearer",
		ExpiresIn: expiresAt,
		Usuario:   user,
	}, nil
}

func (s *authService) generateToken(user *model.User) (string, int64, error) {
	expiresAt := time.Now().Add(s.cfg.JWTTTL)

	claims := jwt.RegisteredClaims{
		Subject:   user.ID.String(),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.cfg.JWTSecret))
	if err != nil {
		return "", 0, err
	}

	return signed, expiresAt.Unix(), nil
}

func randomToken(n int) (string, error) {
	bytes := make([]byte, n)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}
