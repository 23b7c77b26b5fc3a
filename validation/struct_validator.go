package validation

import (
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	goerrors "github.com/kbukum/monometrics/errors"
)

var (
	validate *validator.Validate
	once     sync.Once
)

// FieldError describes one failed field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// getValidator returns the singleton validator instance.
func getValidator() *validator.Validate {
	once.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())

		// Report config keys rather than Go field names.
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("mapstructure"), ",", 2)[0]
			if name == "-" || name == "" {
				return toSnakeCase(fld.Name)
			}
			return name
		})
		_ = validate.RegisterValidation("increasing", strictlyIncreasing)
	})
	return validate
}

// strictlyIncreasing is the "increasing" tag: every element of a numeric
// slice is greater than the one before it.
func strictlyIncreasing(fl validator.FieldLevel) bool {
	v := fl.Field()
	if v.Kind() != reflect.Slice && v.Kind() != reflect.Array {
		return false
	}
	for i := 1; i < v.Len(); i++ {
		prev, cur := v.Index(i-1), v.Index(i)
		switch cur.Kind() {
		case reflect.Float32, reflect.Float64:
			if cur.Float() <= prev.Float() {
				return false
			}
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			if cur.Int() <= prev.Int() {
				return false
			}
		default:
			return false
		}
	}
	return true
}

// Validate validates a struct using its `validate` tags. It returns nil or
// an INVALID_CONFIG AppError listing every failed field.
func Validate(s any) error {
	err := getValidator().Struct(s)
	if err == nil {
		return nil
	}

	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return goerrors.InvalidConfig("", err.Error())
	}

	fieldErrors := make([]FieldError, 0, len(validationErrors))
	messages := make([]string, 0, len(validationErrors))
	for _, e := range validationErrors {
		field := fieldPath(e.Namespace())
		message := formatValidationError(e)
		fieldErrors = append(fieldErrors, FieldError{Field: field, Message: message})
		messages = append(messages, field+": "+message)
	}

	appErr := goerrors.InvalidConfig(fieldErrors[0].Field, strings.Join(messages, "; "))
	return appErr.WithDetail("fields", fieldErrors)
}

// fieldPath drops the root struct name from a validator namespace.
func fieldPath(namespace string) string {
	if _, rest, found := strings.Cut(namespace, "."); found {
		return rest
	}
	return namespace
}

func formatValidationError(e validator.FieldError) string {
	switch e.Tag() {
	case "required", "required_if":
		return "is required"
	case "oneof":
		return fmt.Sprintf("must be one of [%s]", e.Param())
	case "min", "gte":
		return fmt.Sprintf("must be at least %s", e.Param())
	case "max", "lte":
		return fmt.Sprintf("must be at most %s", e.Param())
	case "hostname_port":
		return "must be a host:port address"
	case "increasing":
		return "must be strictly increasing"
	case "dive":
		return "contains an invalid element"
	default:
		return fmt.Sprintf("failed %q validation", e.Tag())
	}
}

func toSnakeCase(s string) string {
	var result strings.Builder
	for i, r := range s {
		if i > 0 && r >= 'A' && r <= 'Z' {
			result.WriteByte('_')
		}
		result.WriteRune(r)
	}
	return strings.ToLower(result.String())
}
