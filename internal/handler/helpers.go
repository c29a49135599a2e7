package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/avelasquez/biblioteca-virtual/internal/service"
	"github.com/avelasquez/biblioteca-virtual/pkg/apperror"
	"github.com/avelasquez/biblioteca-virtual/pkg/response"
	"github.com/avelasquez/biblioteca-virtual/pkg/validator"
)

// bindingError turns gin binding failures into the field-error envelope.
func bindingError(c *gin.Context, err error) {
	response.Error(c, apperror.NewValidation(validator.FieldErrors(err)))
}

// pathID parses the :id route parameter; on failure it writes the 400
// envelope and reports false.
func pathID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		response.Error(c, apperror.New(http.StatusBadRequest, "identificador inválido", apperror.ErrBadRequest))
		return uuid.Nil, false
	}
	return id, true
}

// formUpload opens an optional multipart file part. The returned closer is
// non-nil exactly when the upload is.
func formUpload(c *gin.Context, field string) (*service.Upload, func(), error) {
	fileHeader, err := c.FormFile(field)
	if err != nil || fileHeader == nil {
		return nil, nil, nil
	}

	file, err := fileHeader.Open()
	if err != nil {
		return nil, nil, err
	}

	return &service.Upload{Reader: file, FileName: fileHeader.Filename},
		func() { file.Close() },
		nil
}
