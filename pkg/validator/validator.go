// Package validator wraps go-playground/validator for the request structs
// the engine accepts over HTTP.
package validator

import (
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// ErrorResponse reports one failed rule on one field.
type ErrorResponse struct {
	FailedField string
	Tag         string
	Value       string
}

var validate = newValidate()

func newValidate() *validator.Validate {
	v := validator.New()

	// Reference fields (product, person, payment type) arrive as uuid.UUID.
	// The zero UUID BodyParser leaves behind on a missing field passes the
	// builtin "required" rule, so references use uuid_required instead.
	v.RegisterValidation("uuid_required", func(fl validator.FieldLevel) bool {
		id, ok := fl.Field().Interface().(uuid.UUID)
		return ok && id != uuid.Nil
	})

	return v
}

// ValidateStruct runs the struct's validate tags and returns one entry per
// violated rule; an empty slice means the struct is acceptable.
func ValidateStruct(data interface{}) []*ErrorResponse {
	var errs []*ErrorResponse
	if err := validate.Struct(data); err != nil {
		for _, fe := range err.(validator.ValidationErrors) {
			errs = append(errs, &ErrorResponse{
				FailedField: fe.StructNamespace(),
				Tag:         fe.Tag(),
				Value:       fe.Param(),
			})
		}
	}
	return errs
}
