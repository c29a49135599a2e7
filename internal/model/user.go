package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	RolAdmin         = "admin"
	RolBibliotecario = "bibliotecario"
	RolUsuario       = "usuario"
)

type User struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Nombre       string     `gorm:"size:100;not null" json:"nombre"`
	Email        string     `gorm:"size:100;uniqueIndex;not null" json:"email"`
	Telefono     *string    `gorm:"size:20" json:"telefono,omitempty"`
	PasswordHash string     `gorm:"size:255;not null" json:"-"`
	Rol          string     `gorm:"size:20;not null;default:'usuario'" json:"rol"`
	Activo       bool       `gorm:"not null" json:"activo"`
	LastLogin    *time.Time `json:"last_login,omitempty"`
	CreatedAt    time.Time  `gorm:"autoCreateTime" json:"created_at"`
}

func (u *User) BeforeCreate(tx *gorm.DB) (err error) {
	if u.ID == uuid.Nil {
		u.ID, err = uuid.NewV7()
	}
	return
}

// PasswordReset is a single-use recovery token. Rows are deleted on
// redemption and swept hourly once expired.
type PasswordReset struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Email     string    `gorm:"size:100;not null;index" json:"email"`
	Token     string    `gorm:"size:100;uniqueIndex;not null" json:"token"`
	ExpiresAt time.Time `gorm:"not null" json:"expires_at"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}
