// Package validation provides custom validation rules for the application.
package validation

import (
	"strings"
	"unicode"

	validation "github.com/jellydator/validation"

	apperrors "github.com/allisson/seedvault/internal/errors"
)

// WrapValidationError wraps validation errors as domain ErrInvalidInput
func WrapValidationError(err error) error {
	if err == nil {
		return nil
	}
	return apperrors.Wrap(apperrors.ErrInvalidInput, err.Error())
}

// NoWhitespace validates that string doesn't contain leading/trailing whitespace
var NoWhitespace = validation.NewStringRuleWithError(
	func(s string) bool {
		return s == strings.TrimSpace(s)
	},
	validation.NewError("validation_no_whitespace", "must not contain leading or trailing whitespace"),
)

// NotBlank validates that a string is not empty after trimming whitespace
var NotBlank = validation.NewStringRuleWithError(
	func(s string) bool {
		return strings.TrimSpace(s) != ""
	},
	validation.NewError("validation_not_blank", "must not be blank"),
)

// NoControlChars rejects strings containing control characters.
var NoControlChars = validation.NewStringRuleWithError(
	func(s string) bool {
		return strings.IndexFunc(s, unicode.IsControl) < 0
	},
	validation.NewError("validation_no_control_chars", "must not contain control characters"),
)

// DecimalDigits validates that a string holds only ASCII digits, as one-time codes do.
var DecimalDigits = validation.NewStringRuleWithError(
	func(s string) bool {
		for i := 0; i < len(s); i++ {
			if s[i] < '0' || s[i] > '9' {
				return false
			}
		}
		return true
	},
	validation.NewError("validation_decimal_digits", "must contain only digits"),
)
