package response

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/avelasquez/biblioteca-virtual/pkg/apperror"
)

// Envelope is the wire shape every endpoint answers with, success or not,
// so clients can branch uniformly on `success`.
type Envelope struct {
	Success bool              `json:"success"`
	Status  int               `json:"status"`
	Data    any               `json:"data,omitempty"`
	Message string            `json:"message,omitempty"`
	Errors  map[string]string `json:"errors,omitempty"`
}

// OK writes a success envelope with the given status and payload.
func OK(c *gin.Context, status int, data any) {
	c.JSON(status, Envelope{Success: true, Status: status, Data: data})
}

// Message writes a success envelope carrying only a human message.
func Message(c *gin.Context, status int, message string) {
	c.JSON(status, Envelope{Success: true, Status: status, Message: message})
}

// Error maps err to an HTTP status and writes the failure envelope.
// Internal errors are logged here and surfaced as a generic message.
func Error(c *gin.Context, err error) {
	code := apperror.MapErrorToStatus(err)

	env := Envelope{Success: false, Status: code, Message: err.Error()}

	var valErr *apperror.ValidationError
	if errors.As(err, &valErr) {
		env.Errors = valErr.Fields
	}

	if code == http.StatusInternalServerError {
		log.Printf("[ERROR] %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
		env.Message = apperror.ErrInternal.Error()
	}

	c.JSON(code, env)
}

// GetUserID retrieves the authenticated user ID from the context
func GetUserID(c *gin.Context) (uuid.UUID, error) {
	userIDStr, exists := c.Get("user_id")
	if !exists {
		return uuid.Nil, apperror.ErrUnauthorized
	}

	userID, err := uuid.Parse(userIDStr.(string))
	if err != nil {
		return uuid.Nil, apperror.ErrUnauthorized
	}

	return userID, nil
}
