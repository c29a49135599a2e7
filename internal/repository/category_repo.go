package repository

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/avelasquez/biblioteca-virtual/internal/dto"
	"github.com/avelasquez/biblioteca-virtual/internal/model"
)

type CategoryRepository interface {
	Create(ctx context.Context, category *model.Category) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Category, error)
	FindByNombre(ctx context.Context, nombre string) (*model.Category, error)
	FindAll(ctx context.Context, filter dto.CategoryFilter) ([]*model.Category, error)
	Update(ctx context.Context, category *model.Category) error
	Delete(ctx context.Context, id uuid.UUID) error
	Populares(ctx context.Context, limit int) ([]*dto.PopularCategory, error)
}

type categoryRepository struct {
	db *gorm.DB
}

func NewCategoryRepository(db *gorm.DB) CategoryRepository {
	return &categoryRepository{db: db}
}

func (r *categoryRepository) Create(ctx context.Context, category *model.Category) error {
	return r.db.WithContext(ctx).Create(category).Error
}

func (r *categoryRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Category, error) {
	var category model.Category
	if err := r.db.WithContext(ctx).First(&category, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &category, nil
}

func (r *categoryRepository) FindByNombre(ctx context.Context, nombre string) (*model.Category, error) {
	var category model.Category
	if err := r.db.WithContext(ctx).Where("nombre = ?", nombre).First(&category).Error; err != nil {
		return nil, err
	}
	return &category, nil
}

func (r *categoryRepository) FindAll(ctx context.Context, filter dto.CategoryFilter) ([]*model.Category, error) {
	var categories []*model.Category
	query := r.db.WithContext(ctx)

	// Active-only unless the caller asks otherwise.
	if filter.Activas == nil || *filter.Activas {
		query = query.Where("activo = ?", true)
	}
	if filter.Q != "" {
		query = query.Where("LOWER(nombre) LIKE ?", "%"+strings.ToLower(filter.Q)+"%")
	}

	if err := query.Order("nombre ASC").Find(&categories).Error; err != nil {
		return nil, err
	}
	return categories, nil
}

func (r *categoryRepository) Update(ctx context.Context, category *model.Category) error {
	return r.db.WithContext(ctx).Save(category).Error
}

func (r *categoryRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&model.Category{}, "id = ?", id).Error
}

func (r *categoryRepository) Populares(ctx context.Context, limit int) ([]*dto.PopularCategory, error) {
	var rows []*dto.PopularCategory
	err := r.db.WithContext(ctx).
		Model(&model.Category{}).
		Select("categories.*, COUNT(books.id) AS total_libros").
		Joins("LEFT JOIN books ON books.categoria_id = categories.id").
		Where("categories.activo = ?", true).
		Group("categories.id").
		Order("total_libros DESC").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
