// Package usecase implements the seed lifecycle: fetch-or-create of a principal's seed
// under envelope encryption, and verification of one-time codes against it.
//
// The lifecycle talks to its collaborators only through the ports declared here, so
// storage backends and key-management services can be swapped without touching it.
package usecase

import (
	"context"

	otpDomain "github.com/allisson/seedvault/internal/otp/domain"
	seedDomain "github.com/allisson/seedvault/internal/seed/domain"
)

// SecretStore persists encrypted seeds keyed by principal.
type SecretStore interface {
	// Get returns the stored record or seedDomain.ErrEncryptedSeedNotFound.
	Get(ctx context.Context, principal string) (*seedDomain.EncryptedSeed, error)
	// PutIfAbsent stores the record only when the principal has none. It must be atomic
	// with respect to concurrent callers: exactly one of them observes Inserted.
	PutIfAbsent(ctx context.Context, seed *seedDomain.EncryptedSeed) (seedDomain.InsertOutcome, error)
	// Delete removes the principal's record or returns seedDomain.ErrEncryptedSeedNotFound.
	Delete(ctx context.Context, principal string) error
}

// Encryptor wraps and unwraps seeds with an external key-management service.
// Tokens are opaque to callers.
type Encryptor interface {
	Encrypt(ctx context.Context, plaintext []byte) (string, error)
	// Decrypt fails with seedDomain.ErrMalformedCiphertext or seedDomain.ErrKeyUnavailable
	// when the token cannot be opened.
	Decrypt(ctx context.Context, token string) ([]byte, error)
}

// SeedCatalog enumerates stored seeds and replaces their ciphertext. Stores implement it
// next to SecretStore so seeds can be moved to a new key.
type SeedCatalog interface {
	// List returns up to limit seeds ordered by principal, starting after afterPrincipal.
	List(ctx context.Context, afterPrincipal string, limit int) ([]*seedDomain.EncryptedSeed, error)
	// SwapCiphertext replaces the ciphertext only if it still equals oldCiphertext.
	SwapCiphertext(ctx context.Context, principal, oldCiphertext, newCiphertext string) (bool, error)
}

// Rewrapper re-encrypts a token under the active key without handing out the plaintext.
type Rewrapper interface {
	// Rewrap returns the new token and true, or the same token and false when it is
	// already under the active key.
	Rewrap(ctx context.Context, token string) (string, bool, error)
}

// OtpEngine generates seeds and checks candidate codes.
type OtpEngine interface {
	GenerateSeed() (otpDomain.Seed, error)
	Verify(seed otpDomain.Seed, candidate string) (bool, error)
}

// SeedUseCase defines the seed lifecycle operations.
type SeedUseCase interface {
	// GetOrCreate returns the principal's seed, generating, encrypting and storing a new one
	// when none exists. justCreated is true only for the caller whose insert won.
	//
	// Security Note: callers MUST call Zero on the returned seed once done.
	GetOrCreate(ctx context.Context, principal string) (seed otpDomain.Seed, justCreated bool, err error)
	// VerifyToken checks candidate against the principal's seed.
	VerifyToken(ctx context.Context, principal, candidate string) (seedDomain.VerifyResult, error)
	// Enroll provisions the principal and, on first creation only, returns the provisioning
	// URI and its QR image.
	Enroll(ctx context.Context, principal, accountLabel string) (*seedDomain.Enrollment, error)
	// Reset deletes the principal's stored seed so the next enrollment creates a new one.
	Reset(ctx context.Context, principal string) error
}

// RewrapUseCase moves stored seeds to the active encryption key.
type RewrapUseCase interface {
	// RewrapAll visits every stored seed. Seeds that cannot be decrypted are counted and left
	// untouched.
	RewrapAll(ctx context.Context, batchSize int) (*seedDomain.RewrapReport, error)
}
