package domain

import (
	"github.com/allisson/seedvault/internal/errors"
)

// OTP error definitions.
var (
	// ErrInvalidSeedEncoding indicates a seed text representation is empty, odd-length,
	// not hexadecimal, or decodes to the wrong number of bytes.
	ErrInvalidSeedEncoding = errors.Wrap(errors.ErrInvalidInput, "invalid seed encoding")

	// ErrEntropyUnavailable indicates the system random source failed. It is fatal for the
	// operation in progress and must not be retried in a loop.
	ErrEntropyUnavailable = errors.New("entropy source unavailable")

	// ErrInvalidDigits indicates a code length outside the supported range.
	ErrInvalidDigits = errors.Wrap(errors.ErrInvalidInput, "invalid number of digits")

	// ErrInvalidPeriod indicates a non-positive time step.
	ErrInvalidPeriod = errors.Wrap(errors.ErrInvalidInput, "invalid period")

	// ErrInvalidTime indicates an instant before the Unix epoch.
	ErrInvalidTime = errors.Wrap(errors.ErrInvalidInput, "time before unix epoch")

	// ErrInvalidProvisioningURI indicates a string that is not an otpauth://totp URI.
	ErrInvalidProvisioningURI = errors.Wrap(errors.ErrInvalidInput, "invalid provisioning uri")
)
