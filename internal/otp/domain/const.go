package domain

import "time"

const (
	// DefaultSeedLength is the seed size in bytes.
	DefaultSeedLength = 64
	// MaxSeedLength keeps provisioning URIs well within QR code capacity.
	MaxSeedLength = 128
	// DefaultDigits is the length of a generated code.
	DefaultDigits = 6
	// DefaultPeriod is the TOTP time step.
	DefaultPeriod = 30 * time.Second
	// DefaultWindow is the number of adjacent time steps accepted on each side of the current one.
	DefaultWindow = 1

	// MinDigits and MaxDigits bound the code length. A 31-bit truncated value has at most 10 digits.
	MinDigits = 1
	MaxDigits = 10
)
