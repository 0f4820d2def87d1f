package serverutils

import (
	"errors"
	"reflect"
	"strings"

	"rag-notes-be/internal/pkg/apperror"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Report json names so messages match the request body ("Missing text").
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	return v
}

// ValidateRequest checks validate tags and returns an apperror.Validation for the
// first failing field.
func ValidateRequest(req interface{}) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return apperror.Validation("Invalid request")
	}

	fe := fieldErrs[0]
	if fe.Tag() == "required" {
		return apperror.Validation("Missing " + fe.Field())
	}
	return apperror.Validation("Invalid " + fe.Field())
}
