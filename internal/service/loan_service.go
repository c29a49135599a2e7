package service

import (
	"context"
	"errors"
	"math"
	"net/http"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/avelasquez/biblioteca-virtual/internal/config"
	"github.com/avelasquez/biblioteca-virtual/internal/model"
	"github.com/avelasquez/biblioteca-virtual/internal/repository"
	"github.com/avelasquez/biblioteca-virtual/pkg/apperror"
)

type LoanService interface {
	Borrow(ctx context.Context, userID, bookID uuid.UUID) (*model.Loan, error)
	Return(ctx context.Context, loanID, userID uuid.UUID, isStaff bool) (*model.Loan, error)
	ByUser(ctx context.Context, userID uuid.UUID) ([]*model.Loan, error)
	ByBook(ctx context.Context, bookID uuid.UUID) ([]*model.Loan, error)
}

type loanService struct {
	db   *gorm.DB
	repo repository.LoanRepository
	cfg  *config.Config
}

func NewLoanService(db *gorm.DB, repo repository.LoanRepository, cfg *config.Config) LoanService {
	return &loanService{db: db, repo: repo, cfg: cfg}
}

// Borrow decrements stock and creates the loan atomically. The book row
// is locked for the duration so two concurrent borrows cannot both take
// the last copy.
func (s *loanService) Borrow(ctx context.Context, userID, bookID uuid.UUID) (*model.Loan, error) {
	var loan *model.Loan

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var book model.Book
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&book, "id = ?", bookID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperror.New(http.StatusNotFound, "libro no encontrado", apperror.ErrNotFound)
			}
			return err
		}

		if !book.Disponible || book.Stock <= 0 {
			return apperror.New(http.StatusConflict, "el libro no está disponible", apperror.ErrConflict)
		}

		active, err := s.repo.WithTx(tx).CountActiveByUser(ctx, userID)
		if err != nil {
			return err
		}
		if active >= int64(s.cfg.MaxActiveLoans) {
			return apperror.New(http.StatusConflict, "límite de préstamos simultáneos alcanzado", apperror.ErrConflict)
		}

		book.Stock--
		book.VecesPrestado++
		if err := tx.Model(&model.Book{}).Where("id = ?", book.ID).
			Updates(map[string]any{
				"stock":          book.Stock,
				"veces_prestado": book.VecesPrestado,
			}).Error; err != nil {
			return err
		}

		now := time.Now()
		loan = &model.Loan{
			LibroID:          book.ID,
			UsuarioID:        userID,
			Estado:           model.LoanEstadoActivo,
			FechaPrestamo:    now,
			FechaVencimiento: now.AddDate(0, 0, s.cfg.LoanDays),
		}
		return s.repo.WithTx(tx).Create(ctx, loan)
	})
	if err != nil {
		return nil, err
	}

	return s.repo.FindByID(ctx, loan.ID)
}

func (s *loanService) Return(ctx context.Context, loanID, userID uuid.UUID, isStaff bool) (*model.Loan, error) {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var loan model.Loan
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&loan, "id = ?", loanID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperror.New(http.StatusNotFound, "préstamo no encontrado", apperror.ErrNotFound)
			}
			return err
		}

		if !isStaff && loan.UsuarioID != userID {
			return apperror.ErrForbidden
		}
		if loan.Estado == model.LoanEstadoDevuelto {
			return apperror.New(http.StatusConflict, "el préstamo ya fue devuelto", apperror.ErrConflict)
		}

		now := time.Now()
		loan.Estado = model.LoanEstadoDevuelto
		loan.FechaDevolucion = &now
		loan.Multa = s.fineFor(loan.FechaVencimiento, now)

		if err := s.repo.WithTx(tx).Update(ctx, &loan); err != nil {
			return err
		}

		return tx.Model(&model.Book{}).
			Where("id = ?", loan.LibroID).
			Update("stock", gorm.Expr("stock + 1")).Error
	})
	if err != nil {
		return nil, err
	}

	return s.repo.FindByID(ctx, loanID)
}

func (s *loanService) ByUser(ctx context.Context, userID uuid.UUID) ([]*model.Loan, error) {
	return s.repo.FindByUser(ctx, userID)
}

func (s *loanService) ByBook(ctx context.Context, bookID uuid.UUID) ([]*model.Loan, error) {
	return s.repo.FindByBook(ctx, bookID)
}

// fineFor charges per started day overdue; returns before the due date
// owe nothing.
func (s *loanService) fineFor(due, returned time.Time) float64 {
	if !returned.After(due) {
		return 0
	}
	days := math.Ceil(returned.Sub(due).Hours() / 24)
	return days * s.cfg.FinePerDay
}
