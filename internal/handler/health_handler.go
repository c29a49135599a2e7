package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/avelasquez/biblioteca-virtual/pkg/apperror"
	"github.com/avelasquez/biblioteca-virtual/pkg/response"
)

type HealthHandler struct {
	db      *gorm.DB
	version string
}

func NewHealthHandler(db *gorm.DB, version string) *HealthHandler {
	return &HealthHandler{db: db, version: version}
}

// Banner is the API root: a short description of the service and its
// main route groups.
func (h *HealthHandler) Banner(c *gin.Context) {
	response.OK(c, http.StatusOK, gin.H{
		"nombre":  "Biblioteca Virtual API",
		"version": h.version,
		"endpoints": gin.H{
			"auth":       "/api/usuarios/registro, /api/usuarios/login, /api/usuarios/recuperar-password, /api/usuarios/reset-password",
			"libros":     "/api/libros",
			"categorias": "/api/categorias",
			"prestamos":  "/api/prestamos",
		},
	})
}

func (h *HealthHandler) Health(c *gin.Context) {
	sqlDB, err := h.db.DB()
	if err == nil {
		err = sqlDB.PingContext(c.Request.Context())
	}
	if err != nil {
		response.Error(c, apperror.New(http.StatusServiceUnavailable, "base de datos no disponible", err))
		return
	}

	response.OK(c, http.StatusOK, gin.H{"status": "ok"})
}
