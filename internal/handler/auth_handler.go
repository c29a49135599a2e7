package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/avelasquez/biblioteca-virtual/internal/dto"
	"github.com/avelasquez/biblioteca-virtual/internal/service"
	"github.com/avelasquez/biblioteca-virtual/pkg/response"
)

type AuthHandler struct {
	authService service.AuthService
}

func NewAuthHandler(authService service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

func (h *AuthHandler) Register(c *gin.Context) {
	var input dto.RegisterInput
	if err := c.ShouldBindJSON(&input); err != nil {
		bindingError(c, err)
		return
	}

	res, err := h.authService.Register(c.Request.Context(), input)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, http.StatusCreated, res)
}

func (h *AuthHandler) Login(c *gin.Context) {
	var input dto.LoginInput
	if err := c.ShouldBindJSON(&input); err != nil {
		bindingError(c, err)
		return
	}

	res, err := h.authService.Login(c.Request.Context(), input)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, http.StatusOK, res)
}

func (h *AuthHandler) RecoverPassword(c *gin.Context) {
	var input dto.RecoverPasswordInput
	if err := c.ShouldBindJSON(&input); err != nil {
		bindingError(c, err)
		return
	}

	res, err := h.authService.RecoverPassword(c.Request.Context(), input)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.OK(c, http.StatusOK, res)
}

func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var input dto.ResetPasswordInput
	if err := c.ShouldBindJSON(&input); err != nil {
		bindingError(c, err)
		return
	}

	if err := h.authService.ResetPassword(c.Request.Context(), input); err != nil {
		response.Error(c, err)
		return
	}

	response.Message(c, http.StatusOK, "contraseña actualizada")
}
