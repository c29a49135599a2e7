package dto

import "github.com/avelasquez/biblioteca-virtual/internal/model"

type RegisterInput struct {
	Nombre   string  `json:"nombre" binding:"required,max=100"`
	Email    string  `json:"email" binding:"required,email,max=100"`
	Password string  `json:"password" binding:"required,min=8"`
	Telefono *string `json:"telefono" binding:"omitempty,max=20"`
}

type LoginInput struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type AuthResponse struct {
	Token     string      `json:"token"`
	TokenType string      `json:"token_type"`
	ExpiresIn int64       `json:"expires_in"`
	Usuario   *model.User `json:"usuario"`
}

type CreateUserInput struct {
	Nombre   string  `json:"nombre" binding:"required,max=100"`
	Email    string  `json:"email" binding:"required,email,max=100"`
	Password string  `json:"password" binding:"required,min=8"`
	Telefono *string `json:"telefono" binding:"omitempty,max=20"`
	Rol      string  `json:"rol" binding:"required,oneof=admin bibliotecario usuario"`
}

type UpdateUserInput struct {
	Nombre   *string `json:"nombre" binding:"omitempty,max=100"`
	Telefono *string `json:"telefono" binding:"omitempty,max=20"`
	Rol      *string `json:"rol" binding:"omitempty,oneof=admin bibliotecario usuario"`
	Activo   *bool   `json:"activo"`
}

type RecoverPasswordInput struct {
	Email string `json:"email" binding:"required,email"`
}

type ResetPasswordInput struct {
	Token    string `json:"token" binding:"required"`
	Password string `json:"password" binding:"required,min=8"`
}

// RecoverPasswordResponse returns the reset link material directly; there
// is no mail delivery in this deployment.
type RecoverPasswordResponse struct {
	Token     string `json:"token"`
	ExpiresAt string `json:"expira"`
}
