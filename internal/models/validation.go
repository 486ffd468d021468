package models

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

// ErrValidation is wrapped by every error returned from ValidateStruct.
var ErrValidation = errors.New("validation failed")

// recordIDPattern matches identifiers that are safe to place inside an
// encoded record-system query.
var recordIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// ValidationService provides model validation functionality
type ValidationService struct {
	validator *validator.Validate
}

// NewValidationService creates a new validation service
func NewValidationService() *ValidationService {
	v := validator.New()

	// Report json names so messages match request bodies
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	_ = v.RegisterValidation("record_id", func(fl validator.FieldLevel) bool {
		return recordIDPattern.MatchString(fl.Field().String())
	})

	return &ValidationService{validator: v}
}

// ValidateVar validates a single value against tag, naming it field in the
// returned error.
func (vs *ValidationService) ValidateVar(field string, value interface{}, tag string) error {
	err := vs.validator.Var(value, tag)
	if err == nil {
		return nil
	}

	var fieldErrors validator.ValidationErrors
	if !errors.As(err, &fieldErrors) || len(fieldErrors) == 0 {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	return fmt.Errorf("%w: field '%s' failed validation: %s", ErrValidation, field, vs.getErrorMessage(fieldErrors[0]))
}

// ValidateStruct validates a struct and returns detailed error information
func (vs *ValidationService) ValidateStruct(s interface{}) error {
	err := vs.validator.Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrors validator.ValidationErrors
	if !errors.As(err, &fieldErrors) {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}

	var messages []string
	for _, fe := range fieldErrors {
		messages = append(messages, fmt.Sprintf(
			"field '%s' failed validation: %s",
			fe.Field(),
			vs.getErrorMessage(fe),
		))
	}

	return fmt.Errorf("%w: %s", ErrValidation, strings.Join(messages, "; "))
}

// getErrorMessage returns a human-readable error message for validation errors
func (vs *ValidationService) getErrorMessage(err validator.FieldError) string {
	switch err.Tag() {
	case "required":
		return "this field is required"
	case "min":
		return fmt.Sprintf("must be at least %s", err.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", err.Param())
	case "oneof":
		return fmt.Sprintf("must be one of: %s", err.Param())
	case "hexcolor":
		return "must be a hex color such as #00ADEE"
	case "record_id":
		return "may contain only letters, digits, '_' and '-'"
	case "hostname_rfc1123|url":
		return "must be a host name or URL"
	default:
		return fmt.Sprintf("failed %s validation", err.Tag())
	}
}
