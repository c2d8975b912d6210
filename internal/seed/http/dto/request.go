// Package dto provides data transfer objects for HTTP request and response handling.
package dto

import (
	validation "github.com/jellydator/validation"

	otpDomain "github.com/allisson/seedvault/internal/otp/domain"
	seedDomain "github.com/allisson/seedvault/internal/seed/domain"
	customValidation "github.com/allisson/seedvault/internal/validation"
)

// EnrollRequest contains the optional parameters of an enrollment.
// The principal is extracted from the URL parameter, not the request body.
type EnrollRequest struct {
	// AccountLabel is shown by authenticator apps. Defaults to the principal.
	AccountLabel string `json:"account_label"`
}

// Validate checks if the enroll request is valid.
func (r *EnrollRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.AccountLabel,
			validation.Length(0, seedDomain.MaxPrincipalLength),
			customValidation.NoControlChars,
			customValidation.NoWhitespace,
		),
	)
}

// VerifyRequest contains the candidate one-time code.
type VerifyRequest struct {
	Code string `json:"code" binding:"required"`
}

// Validate checks if the verify request is valid.
func (r *VerifyRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Code,
			validation.Required,
			validation.Length(otpDomain.MinDigits, otpDomain.MaxDigits),
			customValidation.DecimalDigits,
		),
	)
}
