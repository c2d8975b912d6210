package domain

import (
	"github.com/allisson/seedvault/internal/errors"
)

// Seed lifecycle error definitions.
var (
	// ErrEncryptedSeedNotFound indicates no seed is stored for the principal.
	ErrEncryptedSeedNotFound = errors.Wrap(errors.ErrNotFound, "encrypted seed not found")

	// ErrSecretUnavailable indicates a stored seed exists but cannot be decrypted
	// (malformed ciphertext or a key rotated away). Never reported as "not found".
	ErrSecretUnavailable = errors.Wrap(errors.ErrUnavailable, "secret unavailable")

	// ErrStoreConflict indicates the store lost a record it had just reported as present.
	ErrStoreConflict = errors.Wrap(errors.ErrConflict, "encrypted seed conflict")

	// ErrPortTimeout indicates the secret store or the encryptor exceeded its deadline.
	ErrPortTimeout = errors.Wrap(errors.ErrTimeout, "port timeout")

	// ErrMalformedCiphertext indicates an encryptor token that cannot be parsed or opened.
	ErrMalformedCiphertext = errors.New("malformed ciphertext")

	// ErrKeyUnavailable indicates the key named by a token is not configured or unreachable.
	ErrKeyUnavailable = errors.New("encryption key unavailable")

	// ErrInvalidPrincipal indicates an empty or malformed principal.
	ErrInvalidPrincipal = errors.Wrap(errors.ErrInvalidInput, "invalid principal")
)
