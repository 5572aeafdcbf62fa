package validator

import (
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	domainErrors "github.com/your-org/iam-service/internal/domain/errors"
)

var validate *validator.Validate

func init() {
	validate = validator.New()

	// Report field names from json tags rather than Go names.
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}

// Validate checks a request DTO and aggregates every violated tag into one
// ValidationError instead of failing on the first.
func Validate(s interface{}) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	if _, ok := err.(*validator.InvalidValidationError); ok {
		return domainErrors.NewInternalError("invalid validation target", err)
	}

	var violations []string
	for _, fieldErr := range err.(validator.ValidationErrors) {
		violations = append(violations, describe(fieldErr))
	}
	return domainErrors.NewValidationError("request", violations)
}

func describe(fieldErr validator.FieldError) string {
	field := fieldErr.Field()
	switch fieldErr.Tag() {
	case "required":
		return "field '" + field + "' is required"
	case "uuid":
		return "field '" + field + "' must be a valid UUID"
	case "min":
		return "field '" + field + "' must be at least " + fieldErr.Param() + " characters long"
	case "max":
		return "field '" + field + "' must be at most " + fieldErr.Param() + " characters long"
	case "oneof":
		return "field '" + field + "' must be one of: " + fieldErr.Param()
	default:
		return "field '" + field + "' failed validation tag '" + fieldErr.Tag() + "'"
	}
}
