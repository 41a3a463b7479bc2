package validation

import (
	"fmt"
	"math"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	apierrors "sizingcli/internal/errors"
)

var (
	defaultValidator     *Validator
	defaultValidatorOnce sync.Once
)

// Validator validates parameter structs using struct tags
type Validator struct {
	validate *validator.Validate
}

// New creates a validator with the custom tags used by the experiments registered
func New() *Validator {
	v := validator.New()

	// Register custom validators
	v.RegisterValidation("weights", isWeightVector)
	v.RegisterValidation("finite", isFinite)

	// Use JSON tag names in error messages
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return &Validator{validate: v}
}

// Default returns the shared validator instance
func Default() *Validator {
	defaultValidatorOnce.Do(func() {
		defaultValidator = New()
	})
	return defaultValidator
}

// Struct validates s and converts failures to field-level validation errors
func (v *Validator) Struct(s interface{}) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}

	fieldErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return apierrors.Wrap(apierrors.CodeInternal, "validate parameters", err)
	}

	errs := make([]apierrors.ValidationError, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		errs = append(errs, apierrors.ValidationError{
			Field:   fe.Field(),
			Message: formatFieldError(fe),
			Value:   fe.Value(),
		})
	}
	return apierrors.NewValidationErrors(errs)
}

// Struct validates s with the shared validator
func Struct(s interface{}) error {
	return Default().Struct(s)
}

// formatFieldError formats validation error messages
func formatFieldError(fe validator.FieldError) string {
	param := fe.Param()

	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return fmt.Sprintf("must have at least %s entries", param)
	case "max":
		return fmt.Sprintf("must have at most %s entries", param)
	case "oneof":
		return fmt.Sprintf("must be one of: %s", strings.ReplaceAll(param, " ", ", "))
	case "gte":
		return fmt.Sprintf("must be greater than or equal to %s", param)
	case "lte":
		return fmt.Sprintf("must be less than or equal to %s", param)
	case "gt":
		return fmt.Sprintf("must be greater than %s", param)
	case "lt":
		return fmt.Sprintf("must be less than %s", param)
	case "gtfield":
		return fmt.Sprintf("must be greater than %s", strings.ToLower(param))
	case "eqfield":
		return fmt.Sprintf("must match %s", param)
	case "weights":
		return "must be non-negative with at least one positive weight"
	case "finite":
		return "must be a finite number"
	default:
		return fmt.Sprintf("failed %s validation", fe.Tag())
	}
}

// Custom validators

// isWeightVector accepts a []float64 of finite non-negative entries with a positive sum
func isWeightVector(fl validator.FieldLevel) bool {
	field := fl.Field()
	if field.Kind() != reflect.Slice {
		return false
	}

	sum := 0.0
	for i := 0; i < field.Len(); i++ {
		w := field.Index(i).Float()
		if w < 0 || math.IsNaN(w) || math.IsInf(w, 0) {
			return false
		}
		sum += w
	}
	return sum > 0
}

// isFinite rejects NaN and infinities on float fields and slices of floats
func isFinite(fl validator.FieldLevel) bool {
	field := fl.Field()
	check := func(f float64) bool {
		return f == f && f-f == 0
	}

	switch field.Kind() {
	case reflect.Float32, reflect.Float64:
		return check(field.Float())
	case reflect.Slice, reflect.Array:
		for i := 0; i < field.Len(); i++ {
			if !check(field.Index(i).Float()) {
				return false
			}
		}
		return true
	default:
		return false
	}
}
