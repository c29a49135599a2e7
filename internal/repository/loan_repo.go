package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/avelasquez/biblioteca-virtual/internal/model"
)

type LoanRepository interface {
	WithTx(tx *gorm.DB) LoanRepository

	Create(ctx context.Context, loan *model.Loan) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Loan, error)
	Update(ctx context.Context, loan *model.Loan) error
	FindByUser(ctx context.Context, userID uuid.UUID) ([]*model.Loan, error)
	FindByBook(ctx context.Context, bookID uuid.UUID) ([]*model.Loan, error)
	CountActiveByUser(ctx context.Context, userID uuid.UUID) (int64, error)
	CountActiveByBook(ctx context.Context, bookID uuid.UUID) (int64, error)
	DeleteByBook(ctx context.Context, bookID uuid.UUID) error
}

type loanRepository struct {
	db *gorm.DB
}

func NewLoanRepository(db *gorm.DB) LoanRepository {
	return &loanRepository{db: db}
}

func (r *loanRepository) WithTx(tx *gorm.DB) LoanRepository {
	return &loanRepository{db: tx}
}

func (r *loanRepository) Create(ctx context.Context, loan *model.Loan) error {
	return r.db.WithContext(ctx).Create(loan).Error
}

func (r *loanRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Loan, error) {
	var loan model.Loan
	if err := r.db.WithContext(ctx).
		Preload("Libro").
		First(&loan, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &loan, nil
}

func (r *loanRepository) Update(ctx context.Context, loan *model.Loan) error {
	return r.db.WithContext(ctx).Save(loan).Error
}

func (r *loanRepository) FindByUser(ctx context.Context, userID uuid.UUID) ([]*model.Loan, error) {
	var loans []*model.Loan
	err := r.db.WithContext(ctx).
		Preload("Libro").
		Where("usuario_id = ?", userID).
		Order("fecha_prestamo DESC").
		Find(&loans).Error
	return loans, err
}

func (r *loanRepository) FindByBook(ctx context.Context, bookID uuid.UUID) ([]*model.Loan, error) {
	var loans []*model.Loan
	err := r.db.WithContext(ctx).
		Preload("Usuario").
		Where("libro_id = ?", bookID).
		Order("fecha_prestamo DESC").
		Find(&loans).Error
	return loans, err
}

func (r *loanRepository) CountActiveByUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.Loan{}).
		Where("usuario_id = ? AND estado = ?", userID, model.LoanEstadoActivo).
		Count(&count).Error
	return count, err
}

// DeleteByBook removes every loan row referencing the book. The loans
// table holds a foreign key to books, so this must run before a book is
// hard-deleted.
func (r *loanRepository) DeleteByBook(ctx context.Context, bookID uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&model.Loan{}, "libro_id = ?", bookID).Error
}

func (r *loanRepository) CountActiveByBook(ctx context.Context, bookID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.Loan{}).
		Where("libro_id = ? AND estado = ?", bookID, model.LoanEstadoActivo).
		Count(&count).Error
	return count, err
}
