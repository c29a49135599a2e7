package service

import (
	"context"
	"errors"
	"io"
	"log"
	"net/http"
	"regexp"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/avelasquez/biblioteca-virtual/internal/config"
	"github.com/avelasquez/biblioteca-virtual/internal/dto"
	"github.com/avelasquez/biblioteca-virtual/internal/model"
	"github.com/avelasquez/biblioteca-virtual/internal/repository"
	"github.com/avelasquez/biblioteca-virtual/pkg/apperror"
	"github.com/avelasquez/biblioteca-virtual/pkg/storage"
)

const minPublicationYear = 1900

var isbnDigits = regexp.MustCompile(`[^0-9X]`)

// Upload is a file part extracted from a multipart request.
type Upload struct {
	Reader   io.Reader
	FileName string
}

type BookService interface {
	Create(ctx context.Context, input dto.CreateBookInput, portada, pdf *Upload) (*model.Book, error)
	Update(ctx context.Context, id uuid.UUID, input dto.UpdateBookInput, portada, pdf *Upload) (*model.Book, error)
	GetByID(ctx context.Context, id uuid.UUID) (*model.Book, error)
	Search(ctx context.Context, filter dto.BookFilter) (*dto.Paginated[*model.Book], error)
	Delete(ctx context.Context, id uuid.UUID, permanente bool) error
	TopPrestados(ctx context.Context) ([]*model.Book, error)
	TopCalificados(ctx context.Context) ([]*model.Book, error)
	Recientes(ctx context.Context) ([]*model.Book, error)
	Disponibilidad(ctx context.Context, id uuid.UUID) (*dto.AvailabilityResponse, error)
	ResolvePDF(ctx context.Context, id uuid.UUID) (absPath, titulo string, err error)
}

type bookService struct {
	db       *gorm.DB
	repo     repository.BookRepository
	catRepo  repository.CategoryRepository
	loanRepo repository.LoanRepository
	files    storage.FileStore
	cfg      *config.Config
}

func NewBookService(
	db *gorm.DB,
	repo repository.BookRepository,
	catRepo repository.CategoryRepository,
	loanRepo repository.LoanRepository,
	files storage.FileStore,
	cfg *config.Config,
) BookService {
	return &bookService{
		db:       db,
		repo:     repo,
		catRepo:  catRepo,
		loanRepo: loanRepo,
		files:    files,
		cfg:      cfg,
	}
}

func (s *bookService) Create(ctx context.Context, input dto.CreateBookInput, portada, pdf *Upload) (*model.Book, error) {
	book := &model.Book{
		Titulo:          sanitize(input.Titulo),
		Autor:           sanitize(input.Autor),
		AnioPublicacion: input.AnioPublicacion,
		ISBN:            normalizeISBN(input.ISBN),
		Editorial:       sanitizePtr(input.Editorial),
		Descripcion:     sanitize(input.Descripcion),
		Paginas:         input.Paginas,
		Idioma:          "Español",
		Disponible:      true,
		Stock:           1,
	}
	if input.Idioma != nil && *input.Idioma != "" {
		book.Idioma = sanitize(*input.Idioma)
	}
	if input.Stock != nil {
		book.Stock = *input.Stock
	}
	if input.Disponible != nil {
		book.Disponible = *input.Disponible
	}

	fields := s.validateBook(book, input.ISBN)

	categoryID, err := uuid.Parse(input.CategoriaID)
	if err != nil {
		fields["categoria_id"] = "debe ser un identificador válido"
	} else if _, err := s.catRepo.FindByID(ctx, categoryID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			fields["categoria_id"] = "la categoría no existe"
		} else {
			return nil, err
		}
	}
	if len(fields) > 0 {
		return nil, apperror.NewValidation(fields)
	}
	book.CategoriaID = categoryID

	if err := s.attachFiles(ctx, book, portada, pdf); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, book); err != nil {
		s.removeBlobs(ctx, book.PortadaURL, book.ArchivoPDF)
		return nil, err
	}

	return s.repo.FindByID(ctx, book.ID)
}

func (s *bookService) Update(ctx context.Context, id uuid.UUID, input dto.UpdateBookInput, portada, pdf *Upload) (*model.Book, error) {
	book, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Titulo != nil {
		book.Titulo = sanitize(*input.Titulo)
	}
	if input.Autor != nil {
		book.Autor = sanitize(*input.Autor)
	}
	if input.AnioPublicacion != nil {
		book.AnioPublicacion = *input.AnioPublicacion
	}
	if input.ISBN != nil {
		book.ISBN = normalizeISBN(input.ISBN)
	}
	if input.Editorial != nil {
		book.Editorial = sanitizePtr(input.Editorial)
	}
	if input.Descripcion != nil {
		book.Descripcion = sanitize(*input.Descripcion)
	}
	if input.Paginas != nil {
		book.Paginas = input.Paginas
	}
	if input.Idioma != nil {
		book.Idioma = sanitize(*input.Idioma)
	}
	if input.Stock != nil {
		book.Stock = *input.Stock
	}
	if input.Disponible != nil {
		book.Disponible = *input.Disponible
	}

	fields := s.validateBook(book, input.ISBN)
	if input.CategoriaID != nil {
		categoryID, err := uuid.Parse(*input.CategoriaID)
		if err != nil {
			fields["categoria_id"] = "debe ser un identificador válido"
		} else if _, err := s.catRepo.FindByID(ctx, categoryID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				fields["categoria_id"] = "la categoría no existe"
			} else {
				return nil, err
			}
		} else {
			book.CategoriaID = categoryID
		}
	}
	if len(fields) > 0 {
		return nil, apperror.NewValidation(fields)
	}

	oldPortada, oldPDF := book.PortadaURL, book.ArchivoPDF
	if err := s.attachFiles(ctx, book, portada, pdf); err != nil {
		return nil, err
	}

	book.Categoria = nil
	if err := s.repo.Update(ctx, book); err != nil {
		// Keep the old blobs; drop whatever we just wrote.
		if book.PortadaURL != oldPortada {
			s.removeBlobs(ctx, book.PortadaURL)
		}
		if book.ArchivoPDF != oldPDF {
			s.removeBlobs(ctx, book.ArchivoPDF)
		}
		return nil, err
	}

	// The previous blob is deleted only after the replacement is durable.
	if book.PortadaURL != oldPortada {
		s.removeBlobs(ctx, oldPortada)
	}
	if book.ArchivoPDF != oldPDF {
		s.removeBlobs(ctx, oldPDF)
	}

	return s.repo.FindByID(ctx, book.ID)
}

func (s *bookService) GetByID(ctx context.Context, id uuid.UUID) (*model.Book, error) {
	book, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.New(http.StatusNotFound, "libro no encontrado", apperror.ErrNotFound)
		}
		return nil, err
	}
	return book, nil
}

func (s *bookService) Search(ctx context.Context, filter dto.BookFilter) (*dto.Paginated[*model.Book], error) {
	if filter.Limit <= 0 {
		filter.Limit = s.cfg.ItemsPerPage
	}
	if filter.Limit > s.cfg.MaxItemsPerPage {
		filter.Limit = s.cfg.MaxItemsPerPage
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}

	books, total, err := s.repo.Search(ctx, filter)
	if err != nil {
		return nil, err
	}

	return &dto.Paginated[*model.Book]{
		Items: books,
		Meta: dto.PaginationMeta{
			Total:  total,
			Limit:  filter.Limit,
			Offset: filter.Offset,
		},
	}, nil
}

// Delete soft-deletes by default, which preserves loan history. The
// permanent path refuses while active loans reference the book and
// removes the stored blobs afterwards.
func (s *bookService) Delete(ctx context.Context, id uuid.UUID, permanente bool) error {
	book, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if !permanente {
		return s.repo.SoftDelete(ctx, id)
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		loans := s.loanRepo.WithTx(tx)

		active, err := loans.CountActiveByBook(ctx, id)
		if err != nil {
			return err
		}
		if active > 0 {
			return apperror.New(http.StatusConflict, "el libro tiene préstamos activos", apperror.ErrConflict)
		}

		// Returned loans still hold a foreign key to the book; the
		// history goes with it.
		if err := loans.DeleteByBook(ctx, id); err != nil {
			return err
		}
		return s.repo.WithTx(tx).HardDelete(ctx, id)
	})
	if err != nil {
		return err
	}

	s.removeBlobs(ctx, book.PortadaURL, book.ArchivoPDF)
	return nil
}

func (s *bookService) TopPrestados(ctx context.Context) ([]*model.Book, error) {
	return s.repo.TopPrestados(ctx, 10)
}

func (s *bookService) TopCalificados(ctx context.Context) ([]*model.Book, error) {
	return s.repo.TopCalificados(ctx, 10)
}

func (s *bookService) Recientes(ctx context.Context) ([]*model.Book, error) {
	return s.repo.Recientes(ctx, 10)
}

func (s *bookService) Disponibilidad(ctx context.Context, id uuid.UUID) (*dto.AvailabilityResponse, error) {
	book, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return &dto.AvailabilityResponse{
		LibroID:    id.String(),
		Disponible: book.Disponible && book.Stock > 0,
	}, nil
}

func (s *bookService) ResolvePDF(ctx context.Context, id uuid.UUID) (string, string, error) {
	book, err := s.GetByID(ctx, id)
	if err != nil {
		return "", "", err
	}
	if book.ArchivoPDF == "" {
		return "", "", apperror.New(http.StatusNotFound, "el libro no tiene documento", apperror.ErrNotFound)
	}
	abs, err := s.files.Resolve(book.ArchivoPDF)
	if err != nil {
		return "", "", err
	}
	return abs, book.Titulo, nil
}

// attachFiles stores uploads and points the book at the new paths. A
// disallowed extension is silently ignored, keeping the previous
// reference (quirk preserved from the original upload flow).
func (s *bookService) attachFiles(ctx context.Context, book *model.Book, portada, pdf *Upload) error {
	if portada != nil && portada.Reader != nil {
		path, err := s.files.Save(ctx, portada.Reader, portada.FileName, "covers", s.cfg.CoverExtensions)
		if err != nil {
			if !errors.Is(err, storage.ErrExtensionNotAllowed) {
				return err
			}
			log.Printf("[WARN] cover rejected for %q: %v", portada.FileName, err)
		} else if path != "" {
			book.PortadaURL = path
		}
	}

	if pdf != nil && pdf.Reader != nil {
		path, err := s.files.Save(ctx, pdf.Reader, pdf.FileName, "pdfs", s.cfg.DocExtensions)
		if err != nil {
			if !errors.Is(err, storage.ErrExtensionNotAllowed) {
				return err
			}
			log.Printf("[WARN] document rejected for %q: %v", pdf.FileName, err)
		} else if path != "" {
			book.ArchivoPDF = path
		}
	}

	return nil
}

func (s *bookService) removeBlobs(ctx context.Context, paths ...string) {
	for _, p := range paths {
		if p == "" {
			continue
		}
		if err := s.files.Delete(ctx, p); err != nil {
			log.Printf("[WARN] failed to delete blob %s: %v", p, err)
		}
	}
}

func (s *bookService) validateBook(book *model.Book, rawISBN *string) map[string]string {
	fields := map[string]string{}

	if book.Titulo == "" {
		fields["titulo"] = "el título es requerido"
	} else if len(book.Titulo) > 255 {
		fields["titulo"] = "el título no puede exceder 255 caracteres"
	}
	if book.Autor == "" {
		fields["autor"] = "el autor es requerido"
	} else if len(book.Autor) > 255 {
		fields["autor"] = "el autor no puede exceder 255 caracteres"
	}
	if book.AnioPublicacion < minPublicationYear || book.AnioPublicacion > time.Now().Year() {
		fields["anio_publicacion"] = "año de publicación inválido"
	}
	if rawISBN != nil && *rawISBN != "" && book.ISBN == nil {
		fields["isbn"] = "formato de ISBN inválido"
	}
	if book.Stock < 0 {
		fields["stock"] = "el stock no puede ser negativo"
	}

	return fields
}

// normalizeISBN strips separators and accepts only ISBN-10/13 shapes.
// Anything else normalizes to nil; the caller decides whether that is an
// error.
func normalizeISBN(raw *string) *string {
	if raw == nil || *raw == "" {
		return nil
	}
	clean := isbnDigits.ReplaceAllString(*raw, "")
	if len(clean) != 10 && len(clean) != 13 {
		return nil
	}
	return &clean
}
