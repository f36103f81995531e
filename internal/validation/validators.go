package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
)

const (
	// MaxFileNameLength bounds user-supplied file names
	MaxFileNameLength = 255
	// MaxModelIDLength bounds requested model identifiers
	MaxModelIDLength = 64
)

var (
	// Validate is a shared validator instance
	Validate *validator.Validate
)

func init() {
	Validate = validator.New()

	// Report json field names in validation errors
	Validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	if err := Validate.RegisterValidation("model_id", validateModelID); err != nil {
		panic(fmt.Sprintf("failed to register model_id validator: %v", err))
	}
	if err := Validate.RegisterValidation("file_name", validateFileName); err != nil {
		panic(fmt.Sprintf("failed to register file_name validator: %v", err))
	}
}

// validateModelID accepts identifiers like "gpt-4o" or "gpt-3.5-turbo". The
// catalog decides whether the model is known; unknown ids fall back to the default.
func validateModelID(fl validator.FieldLevel) bool {
	return ValidateModelID(fl.Field().String()) == nil
}

func validateFileName(fl validator.FieldLevel) bool {
	return ValidateFileName(fl.Field().String()) == nil
}

// ValidateModelID validates a requested model identifier
func ValidateModelID(value string) error {
	if value == "" {
		return nil
	}
	if len(value) > MaxModelIDLength {
		return fmt.Errorf("invalid model: longer than %d characters", MaxModelIDLength)
	}
	for _, r := range value {
		if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r == '-' || r == '.' || r == '_' || r == ':') {
			return fmt.Errorf("invalid model: %q contains unsupported characters", value)
		}
	}
	return nil
}

// ValidateFileName validates a display file name. Empty names are allowed and
// replaced with a default downstream.
func ValidateFileName(value string) error {
	if value == "" {
		return nil
	}
	if len(value) > MaxFileNameLength {
		return fmt.Errorf("invalid file_name: longer than %d characters", MaxFileNameLength)
	}
	if strings.ContainsAny(value, `/\`) {
		return errors.New("invalid file_name: must not contain path separators")
	}
	for _, r := range value {
		if unicode.IsControl(r) {
			return errors.New("invalid file_name: must not contain control characters")
		}
	}
	return nil
}

// SanitizeText sanitizes text input by trimming whitespace and removing control characters
func SanitizeText(text string) string {
	text = strings.TrimSpace(text)

	var sanitized strings.Builder
	for _, r := range text {
		if unicode.IsControl(r) && r != '\n' && r != '\t' {
			continue
		}
		sanitized.WriteRune(r)
	}

	return sanitized.String()
}

// Message returns a client-facing description of the first validation failure
func Message(err error) string {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) && len(validationErrors) > 0 {
		fe := validationErrors[0]
		switch fe.Tag() {
		case "required":
			return fmt.Sprintf("Validation failed: %s is required", fe.Field())
		case "url", "http_url":
			return fmt.Sprintf("Validation failed: %s must be a valid URL", fe.Field())
		case "max":
			return fmt.Sprintf("Validation failed: %s must be at most %s characters", fe.Field(), fe.Param())
		default:
			return fmt.Sprintf("Validation failed: %s is invalid", fe.Field())
		}
	}
	return fmt.Sprintf("Validation failed: %v", err)
}
