package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/avelasquez/biblioteca-virtual/internal/dto"
	"github.com/avelasquez/biblioteca-virtual/internal/model"
	"github.com/avelasquez/biblioteca-virtual/internal/service"
	"github.com/avelasquez/biblioteca-virtual/pkg/apperror"
	"github.com/avelasquez/biblioteca-virtual/pkg/response"
)

type LoanHandler struct {
	loanService service.LoanService
}

func NewLoanHandler(loanService service.LoanService) *LoanHandler {
	return &LoanHandler{loanService: loanService}
}

func (h *LoanHandler) Create(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	var input dto.CreateLoanInput
	if err := c.ShouldBindJSON(&input); err != nil {
		bindingError(c, err)
		return
	}
	bookID, err := uuid.Parse(input.LibroID)
	if err != nil {
		response.Error(c, apperror.New(http.StatusBadRequest, "identificador inválido", apperror.ErrBadRequest))
		return
	}

	loan, err := h.loanService.Borrow(c.Request.Context(), userID, bookID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, http.StatusCreated, loan)
}

func (h *LoanHandler) Return(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	loanID, ok := pathID(c, "id")
	if !ok {
		return
	}

	loan, err := h.loanService.Return(c.Request.Context(), loanID, userID, isStaff(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, http.StatusOK, loan)
}

func (h *LoanHandler) Mine(c *gin.Context) {
	userID, err := response.GetUserID(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	loans, err := h.loanService.ByUser(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, http.StatusOK, loans)
}

func (h *LoanHandler) ByBook(c *gin.Context) {
	bookID, ok := pathID(c, "id")
	if !ok {
		return
	}

	loans, err := h.loanService.ByBook(c.Request.Context(), bookID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, http.StatusOK, loans)
}

func isStaff(c *gin.Context) bool {
	value, exists := c.Get("user")
	if !exists {
		return false
	}
	user := value.(*model.User)
	return user.Rol == model.RolAdmin || user.Rol == model.RolBibliotecario
}
