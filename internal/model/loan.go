package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	LoanEstadoActivo   = "activo"
	LoanEstadoDevuelto = "devuelto"
)

type Loan struct {
	ID               uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	LibroID          uuid.UUID  `gorm:"type:uuid;not null;index" json:"libro_id"`
	Libro            *Book      `gorm:"foreignKey:LibroID" json:"libro,omitempty"`
	UsuarioID        uuid.UUID  `gorm:"type:uuid;not null;index" json:"usuario_id"`
	Usuario          *User      `gorm:"foreignKey:UsuarioID" json:"usuario,omitempty"`
	Estado           string     `gorm:"size:20;not null;default:'activo';index" json:"estado"`
	FechaPrestamo    time.Time  `gorm:"not null" json:"fecha_prestamo"`
	FechaVencimiento time.Time  `gorm:"not null" json:"fecha_vencimiento"`
	FechaDevolucion  *time.Time `json:"fecha_devolucion,omitempty"`
	Multa            float64    `gorm:"not null;default:0" json:"multa"`
	CreatedAt        time.Time  `gorm:"autoCreateTime" json:"created_at"`
}

func (l *Loan) BeforeCreate(tx *gorm.DB) (err error) {
	if l.ID == uuid.Nil {
		l.ID, err = uuid.NewV7()
	}
	return
}
