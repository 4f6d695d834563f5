package api

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
)

// validate is the shared validator instance. Struct tags carry the rules;
// the two custom tags below cover the constraints the builtin tags can't.
var validate = validator.New()

var nameRe = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

func init() {
	// username: 3-15 chars from a restricted charset. The length bounds live
	// here rather than in min/max tags so one tag owns the whole rule.
	validate.RegisterValidation("username", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		return len(s) >= 3 && len(s) <= 15 && nameRe.MatchString(s)
	})

	// password: 8-64 chars with at least one upper, lower, digit and special.
	validate.RegisterValidation("password", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		if len(s) < 8 || len(s) > 64 {
			return false
		}
		var hasLower, hasUpper, hasDigit, hasSpecial bool
		for _, c := range s {
			switch {
			case unicode.IsLower(c):
				hasLower = true
			case unicode.IsUpper(c):
				hasUpper = true
			case unicode.IsDigit(c):
				hasDigit = true
			default:
				hasSpecial = true
			}
		}
		return hasLower && hasUpper && hasDigit && hasSpecial
	})
}

// validateStruct runs the tag rules and flattens any failures into a single
// human-readable error for the 422 response body.
func validateStruct(v interface{}) error {
	errs := validate.Struct(v)
	if errs == nil {
		return nil
	}

	var details strings.Builder
	var vErrs validator.ValidationErrors
	if !errors.As(errs, &vErrs) {
		return errs
	}
	for _, err := range vErrs {
		if details.Len() > 0 {
			details.WriteString("; ")
		}
		field := strings.ToLower(err.Field())
		switch err.Tag() {
		case "required":
			fmt.Fprintf(&details, "%s is required", field)
		case "email":
			fmt.Fprintf(&details, "%s is not a valid email address", field)
		case "username":
			fmt.Fprintf(&details, "%s must be 3-15 characters of letters, digits, '-' or '_'", field)
		case "password":
			fmt.Fprintf(&details, "%s must be 8-64 characters with at least 1 upper, 1 lower, 1 number and 1 special character", field)
		case "oneof":
			fmt.Fprintf(&details, "%s must be one of [%s]", field, err.Param())
		default:
			fmt.Fprintf(&details, "%s failed %s validation", field, err.Tag())
		}
	}
	return errors.New(details.String())
}
