package dto

// Sort keys accepted by the catalog search.
const (
	OrdenTitulo       = "titulo"
	OrdenAutor        = "autor"
	OrdenAnio         = "anio"
	OrdenCalificacion = "calificacion"
	OrdenMasPrestados = "mas_prestados"
)

type BookFilter struct {
	Q           string `form:"q"`
	CategoriaID string `form:"categoria_id"`
	Disponible  *bool  `form:"disponible"`
	Anio        int    `form:"anio"`
	Autor       string `form:"autor"`
	Orden       string `form:"orden"`
	Limit       int    `form:"limit"`
	Offset      int    `form:"offset"`
}

// CreateBookInput binds from JSON or multipart form; file parts (portada,
// archivo_pdf_file) are read separately by the handler.
type CreateBookInput struct {
	Titulo          string  `json:"titulo" form:"titulo" binding:"required,max=255"`
	Autor           string  `json:"autor" form:"autor" binding:"required,max=255"`
	CategoriaID     string  `json:"categoria_id" form:"categoria_id" binding:"required,uuid"`
	AnioPublicacion int     `json:"anio_publicacion" form:"anio_publicacion" binding:"required"`
	ISBN            *string `json:"isbn" form:"isbn"`
	Editorial       *string `json:"editorial" form:"editorial"`
	Descripcion     string  `json:"descripcion" form:"descripcion"`
	Paginas         *int    `json:"paginas" form:"paginas"`
	Idioma          *string `json:"idioma" form:"idioma"`
	Stock           *int    `json:"stock" form:"stock"`
	Disponible      *bool   `json:"disponible" form:"disponible"`
}

type UpdateBookInput struct {
	Titulo          *string `json:"titulo" form:"titulo" binding:"omitempty,max=255"`
	Autor           *string `json:"autor" form:"autor" binding:"omitempty,max=255"`
	CategoriaID     *string `json:"categoria_id" form:"categoria_id" binding:"omitempty,uuid"`
	AnioPublicacion *int    `json:"anio_publicacion" form:"anio_publicacion"`
	ISBN            *string `json:"isbn" form:"isbn"`
	Editorial       *string `json:"editorial" form:"editorial"`
	Descripcion     *string `json:"descripcion" form:"descripcion"`
	Paginas         *int    `json:"paginas" form:"paginas"`
	Idioma          *string `json:"idioma" form:"idioma"`
	Stock           *int    `json:"stock" form:"stock"`
	Disponible      *bool   `json:"disponible" form:"disponible"`
}

type AvailabilityResponse struct {
	LibroID    string `json:"libro_id"`
	Disponible bool   `json:"disponible"`
}
