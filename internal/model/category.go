package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Category groups books. Activo is a soft-delete flag; rows are only
// removed for real when no book references them.
type Category struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Nombre      string    `gorm:"size:100;uniqueIndex;not null" json:"nombre"`
	Descripcion string    `gorm:"type:text" json:"descripcion"`
	Icono       string    `gorm:"size:20;not null;default:'📚'" json:"icono"`
	Color       string    `gorm:"size:7;not null;default:'#2563eb'" json:"color"`
	Activo      bool      `gorm:"not null" json:"activo"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (c *Category) BeforeCreate(tx *gorm.DB) (err error) {
	if c.ID == uuid.Nil {
		c.ID, err = uuid.NewV7()
	}
	return
}
