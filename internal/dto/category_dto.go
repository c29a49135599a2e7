package dto

import "github.com/avelasquez/biblioteca-virtual/internal/model"

type CreateCategoryInput struct {
	Nombre      string  `json:"nombre" binding:"required,max=100"`
	Descripcion string  `json:"descripcion"`
	Icono       *string `json:"icono"`
	Color       *string `json:"color"`
}

type UpdateCategoryInput struct {
	Nombre      *string `json:"nombre" binding:"omitempty,max=100"`
	Descripcion *string `json:"descripcion"`
	Icono       *string `json:"icono"`
	Color       *string `json:"color"`
	Activo      *bool   `json:"activo"`
}

type CategoryFilter struct {
	// Activas defaults to true: inactive categories only show up when
	// explicitly requested, mirroring the public catalog behavior.
	Activas *bool  `form:"activas"`
	Q       string `form:"q"`
}

// PopularCategory pairs a category with how many books reference it.
type PopularCategory struct {
	model.Category
	TotalLibros int64 `json:"total_libros"`
}
