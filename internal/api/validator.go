package api

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	app_errors "medchat/internal/errors"

	"github.com/go-playground/validator/v10"
)

var (
	validate *validator.Validate
	once     sync.Once
)

// getInstance returns the shared validator. Failed fields are reported by
// their JSON names so messages match what the page sent.
func getInstance() *validator.Validate {
	once.Do(func() {
		validate = validator.New()
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "" || name == "-" {
				return fld.Name
			}
			return name
		})
	})
	return validate
}

// validateRequest checks payload against its `validate` tags and returns a
// wrapped app_errors.ErrValidation describing every failed field.
func validateRequest(payload interface{}) error {
	err := getInstance().Struct(payload)
	if err == nil {
		return nil
	}

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return fmt.Errorf("%w: %s", app_errors.ErrValidation, err.Error())
	}

	problems := make([]string, 0, len(validationErrors))
	for _, fieldErr := range validationErrors {
		problems = append(problems, describeFieldError(fieldErr))
	}
	return fmt.Errorf("%w: %s", app_errors.ErrValidation, strings.Join(problems, "; "))
}

func describeFieldError(fieldErr validator.FieldError) string {
	switch fieldErr.Tag() {
	case "required":
		return fmt.Sprintf("'%s' is required", fieldErr.Field())
	case "max":
		return fmt.Sprintf("'%s' must be at most %s characters", fieldErr.Field(), fieldErr.Param())
	default:
		return fmt.Sprintf("'%s' is not valid (%s)", fieldErr.Field(), fieldErr.Tag())
	}
}
