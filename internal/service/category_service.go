package service

import (
	"context"
	"errors"
	"net/http"
	"regexp"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/avelasquez/biblioteca-virtual/internal/dto"
	"github.com/avelasquez/biblioteca-virtual/internal/model"
	"github.com/avelasquez/biblioteca-virtual/internal/repository"
	"github.com/avelasquez/biblioteca-virtual/pkg/apperror"
)

var hexColor = regexp.MustCompile(`^#[a-fA-F0-9]{6}$`)

type CategoryService interface {
	Create(ctx context.Context, input dto.CreateCategoryInput) (*model.Category, error)
	Update(ctx context.Context, id uuid.UUID, input dto.UpdateCategoryInput) (*model.Category, error)
	GetByID(ctx context.Context, id uuid.UUID) (*model.Category, error)
	GetAll(ctx context.Context, filter dto.CategoryFilter) ([]*model.Category, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Populares(ctx context.Context) ([]*dto.PopularCategory, error)
}

type categoryService struct {
	repo     repository.CategoryRepository
	bookRepo repository.BookRepository
}

func NewCategoryService(repo repository.CategoryRepository, bookRepo repository.BookRepository) CategoryService {
	return &categoryService{repo: repo, bookRepo: bookRepo}
}

func (s *categoryService) Create(ctx context.Context, input dto.CreateCategoryInput) (*model.Category, error) {
	category := &model.Category{
		Nombre:      sanitize(input.Nombre),
		Descripcion: sanitize(input.Descripcion),
		Icono:       "📚",
		Color:       "#2563eb",
		Activo:      true,
	}
	if input.Icono != nil && *input.Icono != "" {
		category.Icono = sanitize(*input.Icono)
	}
	if input.Color != nil && *input.Color != "" {
		category.Color = *input.Color
	}

	if fields := s.validate(category); len(fields) > 0 {
		return nil, apperror.NewValidation(fields)
	}

	if _, err := s.repo.FindByNombre(ctx, category.Nombre); err == nil {
		return nil, apperror.New(http.StatusConflict, "ya existe una categoría con ese nombre", apperror.ErrConflict)
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	if err := s.repo.Create(ctx, category); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperror.New(http.StatusConflict, "ya existe una categoría con ese nombre", apperror.ErrConflict)
		}
		return nil, err
	}

	return category, nil
}

func (s *categoryService) Update(ctx context.Context, id uuid.UUID, input dto.UpdateCategoryInput) (*model.Category, error) {
	category, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Nombre != nil {
		category.Nombre = sanitize(*input.Nombre)
	}
	if input.Descripcion != nil {
		category.Descripcion = sanitize(*input.Descripcion)
	}
	if input.Icono != nil {
		category.Icono = sanitize(*input.Icono)
	}
	if input.Color != nil {
		category.Color = *input.Color
	}
	if input.Activo != nil {
		category.Activo = *input.Activo
	}

	if fields := s.validate(category); len(fields) > 0 {
		return nil, apperror.NewValidation(fields)
	}

	if input.Nombre != nil {
		if existing, err := s.repo.FindByNombre(ctx, category.Nombre); err == nil && existing.ID != id {
			return nil, apperror.New(http.StatusConflict, "ya existe una categoría con ese nombre", apperror.ErrConflict)
		} else if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}

	if err := s.repo.Update(ctx, category); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperror.New(http.StatusConflict, "ya existe una categoría con ese nombre", apperror.ErrConflict)
		}
		return nil, err
	}

	return category, nil
}

func (s *categoryService) GetByID(ctx context.Context, id uuid.UUID) (*model.Category, error) {
	category, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.New(http.StatusNotFound, "categoría no encontrada", apperror.ErrNotFound)
		}
		return nil, err
	}
	return category, nil
}

func (s *categoryService) GetAll(ctx context.Context, filter dto.CategoryFilter) ([]*model.Category, error) {
	return s.repo.FindAll(ctx, filter)
}

// Delete removes the row for real, but only while no book references it.
func (s *categoryService) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.GetByID(ctx, id); err != nil {
		return err
	}

	count, err := s.bookRepo.CountByCategory(ctx, id)
	if err != nil {
		return err
	}
	if count > 0 {
		return apperror.New(http.StatusConflict, "la categoría tiene libros asociados", apperror.ErrConflict)
	}

	return s.repo.Delete(ctx, id)
}

func (s *categoryService) Populares(ctx context.Context) ([]*dto.PopularCategory, error) {
	return s.repo.Populares(ctx, 5)
}

func (s *categoryService) validate(category *model.Category) map[string]string {
	fields := map[string]string{}

	if category.Nombre == "" {
		fields["nombre"] = "el nombre es requerido"
	} else if len(category.Nombre) > 100 {
		fields["nombre"] = "el nombre no puede exceder 100 caracteres"
	}
	if category.Color != "" && !hexColor.MatchString(category.Color) {
		fields["color"] = "formato de color inválido (debe ser hexadecimal #RRGGBB)"
	}

	return fields
}
