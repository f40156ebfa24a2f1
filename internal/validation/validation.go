// Package validation wraps go-playground/validator so that error keys use the
// JSON field names clients send.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// New returns a validator that reports fields by their json tag.
func New() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return fld.Name
		}
		return name
	})
	return v
}

// Fields converts a validation error into a map of field path to message,
// e.g. "supplier.rating" -> "Field 'supplier.rating' failed on the 'max' tag".
// It returns nil when err is not a validator.ValidationErrors.
func Fields(err error) map[string]string {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return nil
	}

	fields := make(map[string]string, len(validationErrors))
	for _, e := range validationErrors {
		field := e.Namespace()
		// Drop the top-level struct name.
		if i := strings.Index(field, "."); i >= 0 {
			field = field[i+1:]
		}
		fields[field] = message(field, e)
	}
	return fields
}

func message(field string, e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return fmt.Sprintf("Field '%s' is required", field)
	case "oneof":
		return fmt.Sprintf("Field '%s' must be one of [%s]", field, e.Param())
	case "min", "gte":
		return fmt.Sprintf("Field '%s' must be at least %s", field, e.Param())
	case "max", "lte":
		return fmt.Sprintf("Field '%s' must be at most %s", field, e.Param())
	}
	return fmt.Sprintf("Field '%s' failed on the '%s' tag", field, e.Tag())
}
