// Package domain defines the one-time password primitives: seeds, codes and their errors.
//
// A Seed is the shared HMAC key between the server and the authenticator app. It only
// ever lives in memory; the persisted form is an opaque ciphertext produced by an
// external key-management service.
package domain

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// Seed is the raw HMAC key of a principal. Callers must Zero it once done.
type Seed []byte

// Hex returns the upper-case hexadecimal representation of the seed.
func (s Seed) Hex() string {
	return strings.ToUpper(hex.EncodeToString(s))
}

// Zero overwrites the seed bytes in place.
func (s Seed) Zero() {
	for i := range s {
		s[i] = 0
	}
}

// String hides the seed from accidental formatting in logs and errors.
func (s Seed) String() string {
	return fmt.Sprintf("Seed(%d bytes)", len(s))
}

// SeedFromHex decodes a hexadecimal seed of exactly length bytes. Both letter cases are
// accepted. Empty, odd-length, non-hex and wrong-length inputs fail with
// ErrInvalidSeedEncoding.
func SeedFromHex(text string, length int) (Seed, error) {
	if text == "" {
		return nil, fmt.Errorf("%w: empty input", ErrInvalidSeedEncoding)
	}
	if len(text)%2 != 0 {
		return nil, fmt.Errorf("%w: odd length %d", ErrInvalidSeedEncoding, len(text))
	}
	if len(text) != length*2 {
		return nil, fmt.Errorf(
			"%w: expected %d hex characters, got %d",
			ErrInvalidSeedEncoding,
			length*2,
			len(text),
		)
	}

	decoded, err := hex.DecodeString(text)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSeedEncoding, err)
	}

	return Seed(decoded), nil
}
