package domain

import (
	"fmt"
	"unicode"
)

// MaxPrincipalLength bounds principal identifiers, matching the storage column size.
const MaxPrincipalLength = 255

// ValidatePrincipal rejects empty, oversized, and control-character principals.
func ValidatePrincipal(principal string) error {
	if principal == "" {
		return fmt.Errorf("%w: empty", ErrInvalidPrincipal)
	}
	if len(principal) > MaxPrincipalLength {
		return fmt.Errorf("%w: longer than %d bytes", ErrInvalidPrincipal, MaxPrincipalLength)
	}
	for _, r := range principal {
		if unicode.IsControl(r) {
			return fmt.Errorf("%w: contains control characters", ErrInvalidPrincipal)
		}
	}
	return nil
}
