package services

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

func newValidator() *validator.Validate {
	v := validator.New()
	// Report JSON field names so messages match the request body
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return strings.ToLower(f.Name)
		}
		return name
	})
	return v
}

// validateStruct runs v over req and turns the first failure into an
// ErrValidation error with a readable message.
func validateStruct(v *validator.Validate, req interface{}) error {
	err := v.Struct(req)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return validationf("invalid request: %v", err)
	}

	fe := verrs[0]
	switch fe.Tag() {
	case "required", "required_if":
		return validationf("%s is required", fe.Field())
	case "oneof":
		return validationf("%s must be one of: %s", fe.Field(), fe.Param())
	case "gte":
		return validationf("%s must be at least %s", fe.Field(), fe.Param())
	case "min":
		return validationf("%s must be at least %s characters", fe.Field(), fe.Param())
	case "max":
		return validationf("%s must be at most %s characters", fe.Field(), fe.Param())
	case "alpha":
		return validationf("%s must contain letters only", fe.Field())
	}
	return validationf("%s is invalid", fe.Field())
}
