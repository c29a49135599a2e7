package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/avelasquez/biblioteca-virtual/internal/dto"
	"github.com/avelasquez/biblioteca-virtual/internal/service"
	"github.com/avelasquez/biblioteca-virtual/pkg/response"
)

type BookHandler struct {
	bookService service.BookService
}

func NewBookHandler(bookService service.BookService) *BookHandler {
	return &BookHandler{bookService: bookService}
}

func (h *BookHandler) List(c *gin.Context) {
	var filter dto.BookFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		bindingError(c, err)
		return
	}

	res, err := h.bookService.Search(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, http.StatusOK, res)
}

func (h *BookHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	book, err := h.bookService.GetByID(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, http.StatusOK, book)
}

func (h *BookHandler) Create(c *gin.Context) {
	var input dto.CreateBookInput
	if err := c.ShouldBind(&input); err != nil {
		bindingError(c, err)
		return
	}

	portada, closePortada, err := formUpload(c, "portada")
	if err != nil {
		response.Error(c, err)
		return
	}
	if closePortada != nil {
		defer closePortada()
	}

	pdf, closePDF, err := formUpload(c, "archivo_pdf_file")
	if err != nil {
		response.Error(c, err)
		return
	}
	if closePDF != nil {
		defer closePDF()
	}

	book, err := h.bookService.Create(c.Request.Context(), input, portada, pdf)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, http.StatusCreated, book)
}

func (h *BookHandler) Update(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	var input dto.UpdateBookInput
	if err := c.ShouldBind(&input); err != nil {
		bindingError(c, err)
		return
	}

	portada, closePortada, err := formUpload(c, "portada")
	if err != nil {
		response.Error(c, err)
		return
	}
	if closePortada != nil {
		defer closePortada()
	}

	pdf, closePDF, err := formUpload(c, "archivo_pdf_file")
	if err != nil {
		response.Error(c, err)
		return
	}
	if closePDF != nil {
		defer closePDF()
	}

	book, err := h.bookService.Update(c.Request.Context(), id, input, portada, pdf)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, http.StatusOK, book)
}

// Delete soft-deletes unless ?permanente=true.
func (h *BookHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	permanente := c.Query("permanente") == "true"

	if err := h.bookService.Delete(c.Request.Context(), id, permanente); err != nil {
		response.Error(c, err)
		return
	}

	response.Message(c, http.StatusOK, "libro eliminado")
}

func (h *BookHandler) TopPrestados(c *gin.Context) {
	books, err := h.bookService.TopPrestados(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, http.StatusOK, books)
}

func (h *BookHandler) TopCalificados(c *gin.Context) {
	books, err := h.bookService.TopCalificados(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, http.StatusOK, books)
}

func (h *BookHandler) Recientes(c *gin.Context) {
	books, err := h.bookService.Recientes(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, http.StatusOK, books)
}

func (h *BookHandler) Disponibilidad(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	res, err := h.bookService.Disponibilidad(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, http.StatusOK, res)
}

// StreamPDF serves the stored document inline so browsers open it in the
// built-in viewer.
func (h *BookHandler) StreamPDF(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	absPath, titulo, err := h.bookService.ResolvePDF(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Header("Content-Disposition", `inline; filename="`+titulo+`.pdf"`)
	c.Header("Content-Type", "application/pdf")
	c.File(absPath)
}
