package validator

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// FieldErrors converts binding failures into the per-field error mapping
// used in the response envelope. Non-validator errors map to a single
// generic entry so the envelope shape stays stable.
func FieldErrors(err error) map[string]string {
	fields := map[string]string{}

	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		fields["body"] = "cuerpo de la solicitud inválido"
		return fields
	}

	for _, fieldError := range validationErrors {
		name := strings.ToLower(fieldError.Field())
		fields[name] = fieldErrorMessage(fieldError)
	}
	return fields
}

func fieldErrorMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "este campo es requerido"
	case "email":
		return "debe ser un email válido"
	case "min":
		if fe.Type().String() == "string" {
			return fmt.Sprintf("mínimo %s caracteres", fe.Param())
		}
		return fmt.Sprintf("mínimo %s", fe.Param())
	case "max":
		if fe.Type().String() == "string" {
			return fmt.Sprintf("máximo %s caracteres", fe.Param())
		}
		return fmt.Sprintf("máximo %s", fe.Param())
	case "uuid":
		return "debe ser un identificador válido"
	case "oneof":
		return fmt.Sprintf("debe ser uno de: %s", fe.Param())
	default:
		return "valor inválido"
	}
}
