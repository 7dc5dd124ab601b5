package http

import (
	"errors"
	"reflect"
	"strings"

	"municipal-portal/internal/domain/request"
	"municipal-portal/pkg/rut"

	"github.com/go-playground/validator/v10"
)

// Reusable error payload
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}
type ErrorResponse struct {
	Error   string       `json:"error"`
	Details []FieldError `json:"details,omitempty"`
}

type CustomValidator struct{ v *validator.Validate }

func NewValidator() *CustomValidator {
	v := validator.New()

	// report form field names, not Go field names
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("form"), ",")
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	// Chilean RUT with a correct check digit, dots optional
	_ = v.RegisterValidation("rut", func(fl validator.FieldLevel) bool {
		return rut.Valid(fl.Field().String())
	})
	// a status a response may set
	_ = v.RegisterValidation("status", func(fl validator.FieldLevel) bool {
		st, ok := request.ParseStatus(fl.Field().String())
		return ok && st.Terminal()
	})

	return &CustomValidator{v: v}
}

func (cv *CustomValidator) Validate(i any) error { return cv.v.Struct(i) }

// Map validator.ValidationErrors → []FieldError with readable messages.
func ToFieldErrors(err error) []FieldError {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return []FieldError{{Field: "_", Message: err.Error()}}
	}
	out := make([]FieldError, 0, len(ve))
	for _, e := range ve {
		field := e.Field()
		switch e.Tag() {
		case "required":
			out = append(out, FieldError{Field: field, Message: "is required"})
		case "rut":
			out = append(out, FieldError{Field: field, Message: "must be a valid RUT"})
		case "status":
			out = append(out, FieldError{Field: field, Message: "must be Aprobada or Rechazada"})
		case "email":
			out = append(out, FieldError{Field: field, Message: "must be a valid email address"})
		case "number", "numeric":
			out = append(out, FieldError{Field: field, Message: "must be a number"})
		case "max":
			out = append(out, FieldError{Field: field, Message: "must be at most " + e.Param() + " characters"})
		default:
			out = append(out, FieldError{Field: field, Message: e.Tag() + " validation failed"})
		}
	}
	return out
}
