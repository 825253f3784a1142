package services

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/custodia-labs/labinv/internal/core/domain"
)

// newValidator returns a validator that reports fields by their wire names
// and knows the inventory specific tags.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		for _, tag := range []string{"schema", "json"} {
			name := strings.SplitN(fld.Tag.Get(tag), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name != "" {
				return name
			}
		}
		return fld.Name
	})
	_ = v.RegisterValidation("globalid", globalIDValidator)
	_ = v.RegisterValidation("sortkey", sortKeyValidator)
	return v
}

func globalIDValidator(fl validator.FieldLevel) bool {
	return domain.GlobalID(fl.Field().String()).IsValid()
}

func sortKeyValidator(fl validator.FieldLevel) bool {
	return domain.IsSortKey(fl.Field().String())
}

// formatValidationError renders a single field error for humans.
func formatValidationError(err validator.FieldError) string {
	field := err.Field()

	switch err.Tag() {
	case "required":
		return fmt.Sprintf("%q is required", field)
	case "email":
		return fmt.Sprintf("%q is not a valid email", field)
	case "oneof":
		return fmt.Sprintf("%q must be one of [%s]", field, strings.Join(strings.Fields(err.Param()), ", "))
	case "min":
		return fmt.Sprintf("%q must be at least %s", field, err.Param())
	case "max":
		if err.Kind() == reflect.String {
			return fmt.Sprintf("%q must be at most %s characters", field, err.Param())
		}
		return fmt.Sprintf("%q must be at most %s", field, err.Param())
	case "globalid":
		return fmt.Sprintf("%q is not a valid global id", field)
	case "sortkey":
		return fmt.Sprintf("%q is not a sortable property", field)
	default:
		return fmt.Sprintf("%q failed on the %q rule", field, err.Tag())
	}
}

// fieldErrors converts validator output into domain field errors for row.
func fieldErrors(row string, err error) domain.ValidationErrors {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return domain.ValidationErrors{{Row: row, Field: "", Message: err.Error()}}
	}
	out := make(domain.ValidationErrors, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, domain.FieldError{Row: row, Field: fe.Field(), Message: formatValidationError(fe)})
	}
	return out
}

// wrapOp names the failed operation unless err already carries one.
func wrapOp(op string, err error) error {
	var opErr *domain.OperationError
	if errors.As(err, &opErr) {
		return err
	}
	return &domain.OperationError{Op: op, Err: err}
}
