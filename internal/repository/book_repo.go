package repository

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/avelasquez/biblioteca-virtual/internal/dto"
	"github.com/avelasquez/biblioteca-virtual/internal/model"
)

type BookRepository interface {
	// WithTx returns a copy of the repository bound to the given
	// transaction handle.
	WithTx(tx *gorm.DB) BookRepository

	Create(ctx context.Context, book *model.Book) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Book, error)
	Search(ctx context.Context, filter dto.BookFilter) ([]*model.Book, int64, error)
	Update(ctx context.Context, book *model.Book) error
	SoftDelete(ctx context.Context, id uuid.UUID) error
	HardDelete(ctx context.Context, id uuid.UUID) error
	CountByCategory(ctx context.Context, categoryID uuid.UUID) (int64, error)
	TopPrestados(ctx context.Context, limit int) ([]*model.Book, error)
	TopCalificados(ctx context.Context, limit int) ([]*model.Book, error)
	Recientes(ctx context.Context, limit int) ([]*model.Book, error)
}

type bookRepository struct {
	db *gorm.DB
}

func NewBookRepository(db *gorm.DB) BookRepository {
	return &bookRepository{db: db}
}

func (r *bookRepository) WithTx(tx *gorm.DB) BookRepository {
	return &bookRepository{db: tx}
}

func (r *bookRepository) Create(ctx context.Context, book *model.Book) error {
	return r.db.WithContext(ctx).Create(book).Error
}

func (r *bookRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Book, error) {
	var book model.Book
	if err := r.db.WithContext(ctx).
		Preload("Categoria").
		First(&book, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &book, nil
}

// Search applies the catalog filters and returns a page of books plus the
// unpaginated total. Text matches are case-insensitive substrings over
// titulo, autor and descripcion.
func (r *bookRepository) Search(ctx context.Context, filter dto.BookFilter) ([]*model.Book, int64, error) {
	var books []*model.Book
	var total int64

	query := r.db.WithContext(ctx).Model(&model.Book{}).Preload("Categoria")

	if filter.Q != "" {
		needle := "%" + strings.ToLower(filter.Q) + "%"
		query = query.Where(
			"LOWER(titulo) LIKE ? OR LOWER(autor) LIKE ? OR LOWER(descripcion) LIKE ?",
			needle, needle, needle,
		)
	}
	if filter.CategoriaID != "" {
		query = query.Where("categoria_id = ?", filter.CategoriaID)
	}
	if filter.Disponible != nil {
		query = query.Where("disponible = ?", *filter.Disponible)
	}
	if filter.Anio != 0 {
		query = query.Where("anio_publicacion = ?", filter.Anio)
	}
	if filter.Autor != "" {
		query = query.Where("LOWER(autor) LIKE ?", "%"+strings.ToLower(filter.Autor)+"%")
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	switch filter.Orden {
	case dto.OrdenAutor:
		query = query.Order("autor ASC")
	case dto.OrdenAnio:
		query = query.Order("anio_publicacion DESC")
	case dto.OrdenCalificacion:
		query = query.Order("calificacion DESC")
	case dto.OrdenMasPrestados:
		query = query.Order("veces_prestado DESC")
	default:
		query = query.Order("titulo ASC")
	}

	if err := query.Offset(filter.Offset).Limit(filter.Limit).Find(&books).Error; err != nil {
		return nil, 0, err
	}

	return books, total, nil
}

func (r *bookRepository) Update(ctx context.Context, book *model.Book) error {
	return r.db.WithContext(ctx).Save(book).Error
}

func (r *bookRepository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&model.Book{}).
		Where("id = ?", id).
		Update("disponible", false).Error
}

func (r *bookRepository) HardDelete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&model.Book{}, "id = ?", id).Error
}

func (r *bookRepository) CountByCategory(ctx context.Context, categoryID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.Book{}).
		Where("categoria_id = ?", categoryID).
		Count(&count).Error
	return count, err
}

func (r *bookRepository) TopPrestados(ctx context.Context, limit int) ([]*model.Book, error) {
	return r.topBy(ctx, "veces_prestado DESC", limit, nil)
}

func (r *bookRepository) TopCalificados(ctx context.Context, limit int) ([]*model.Book, error) {
	cond := r.db.Where("calificacion > 0")
	return r.topBy(ctx, "calificacion DESC", limit, cond)
}

func (r *bookRepository) Recientes(ctx context.Context, limit int) ([]*model.Book, error) {
	return r.topBy(ctx, "created_at DESC", limit, nil)
}

func (r *bookRepository) topBy(ctx context.Context, order string, limit int, cond *gorm.DB) ([]*model.Book, error) {
	var books []*model.Book
	query := r.db.WithContext(ctx).Preload("Categoria")
	if cond != nil {
		query = query.Where(cond)
	}
	if err := query.Order(order).Limit(limit).Find(&books).Error; err != nil {
		return nil, err
	}
	return books, nil
}
