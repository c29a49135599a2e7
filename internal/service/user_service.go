package service

import (
	"context"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/avelasquez/biblioteca-virtual/internal/dto"
	"github.com/avelasquez/biblioteca-virtual/internal/model"
	"github.com/avelasquez/biblioteca-virtual/internal/repository"
	"github.com/avelasquez/biblioteca-virtual/pkg/apperror"
)

// UserService covers the admin-facing user management; self-service
// registration and credentials live in AuthService.
type UserService interface {
	Create(ctx context.Context, input dto.CreateUserInput) (*model.User, error)
	Update(ctx context.Context, id uuid.UUID, input dto.UpdateUserInput) (*model.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	GetAll(ctx context.Context) ([]*model.User, error)
	Deactivate(ctx context.Context, id uuid.UUID) error
}

type userService struct {
	repo repository.UserRepository
}

func NewUserService(repo repository.UserRepository) UserService {
	return &userService{repo: repo}
}

func (s *userService) Create(ctx context.Context, input dto.CreateUserInput) (*model.User, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		Nombre:       sanitize(input.Nombre),
		Email:        input.Email,
		Telefono:     sanitizePtr(input.Telefono),
		PasswordHash: string(hashed),
		Rol:          input.Rol,
		Activo:       true,
	}
	if user.Nombre == "" {
		return nil, apperror.NewValidation(map[string]string{"nombre": "este campo es requerido"})
	}

	if err := s.repo.Create(ctx, user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperror.New(http.StatusConflict, "el email ya está registrado", apperror.ErrConflict)
		}
		return nil, err
	}

	return user, nil
}

func (s *userService) Update(ctx context.Context, id uuid.UUID, input dto.UpdateUserInput) (*model.User, error) {
	user, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Nombre != nil {
		user.Nombre = sanitize(*input.Nombre)
	}
	if input.Telefono != nil {
		user.Telefono = sanitizePtr(input.Telefono)
	}
	if input.Rol != nil {
		user.Rol = *input.Rol
	}
	if input.Activo != nil {
		user.Activo = *input.Activo
	}

	if err := s.repo.Update(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}

func (s *userService) GetByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.New(http.StatusNotFound, "usuario no encontrado", apperror.ErrNotFound)
		}
		return nil, err
	}
	return user, nil
}

func (s *userService) GetAll(ctx context.Context) ([]*model.User, error) {
	return s.repo.FindAll(ctx)
}

// Deactivate is the delete operation: rows stay for loan history, the
// account just can no longer authenticate.
func (s *userService) Deactivate(ctx context.Context, id uuid.UUID) error {
	user, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}
	user.Activo = false
	return s.repo.Update(ctx, user)
}
