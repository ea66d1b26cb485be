package domain

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate

	phonePattern = regexp.MustCompile(`^[0-9+()\-\s]+$`)
)

func validatorInstance() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return fld.Name
			}
			return name
		})
		_ = validate.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
			return phonePattern.MatchString(fl.Field().String())
		})
	})
	return validate
}

// validateStruct runs the struct tags and converts failures into a
// ValidationError keyed by JSON field names.
func validateStruct(v interface{}) *ValidationError {
	verr := &ValidationError{}
	err := validatorInstance().Struct(v)
	if err == nil {
		return verr
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		verr.add("body", err.Error())
		return verr
	}
	for _, fe := range fieldErrs {
		verr.add(fe.Field(), fieldMessage(fe))
	}
	return verr
}

// IsValidEmail applies the same rule the request structs use.
func IsValidEmail(email string) bool {
	return validatorInstance().Var(email, "required,email,max=254") == nil
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return fmt.Sprintf("must be at least %s characters", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "oneof":
		return "must be one of: " + fe.Param()
	case "phone":
		return "may only contain digits, spaces, +, -, ( and )"
	default:
		return "is invalid"
	}
}
