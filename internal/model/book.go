package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Book is a catalog entry. Calificacion and VecesPrestado are derived
// counters maintained by the rating/loan paths, kept denormalized so the
// catalog sorts don't need joins.
type Book struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Titulo          string    `gorm:"size:255;not null" json:"titulo"`
	Autor           string    `gorm:"size:255;not null" json:"autor"`
	CategoriaID     uuid.UUID `gorm:"type:uuid;not null;index" json:"categoria_id"`
	Categoria       *Category `gorm:"foreignKey:CategoriaID;constraint:OnDelete:RESTRICT" json:"categoria,omitempty"`
	AnioPublicacion int       `gorm:"not null" json:"anio_publicacion"`
	ISBN            *string   `gorm:"size:20" json:"isbn,omitempty"`
	Editorial       *string   `gorm:"size:255" json:"editorial,omitempty"`
	Descripcion     string    `gorm:"type:text" json:"descripcion"`
	Paginas         *int      `json:"paginas,omitempty"`
	Idioma          string    `gorm:"size:50;not null;default:'Español'" json:"idioma"`
	Calificacion    float64   `gorm:"not null;default:0" json:"calificacion"`
	VecesPrestado   int       `gorm:"not null;default:0" json:"veces_prestado"`
	PortadaURL      string    `gorm:"type:text" json:"portada_url"`
	ArchivoPDF      string    `gorm:"type:text" json:"archivo_pdf"`
	Disponible      bool      `gorm:"not null" json:"disponible"`
	Stock           int       `gorm:"not null" json:"stock"`
	CreatedAt       time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (b *Book) BeforeCreate(tx *gorm.DB) (err error) {
	if b.ID == uuid.Nil {
		b.ID, err = uuid.NewV7()
	}
	return
}
