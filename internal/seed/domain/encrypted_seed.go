// Package domain defines the seed lifecycle models: the persisted encrypted seed, the
// outcome of a conditional insert, verification results and enrollments.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// EncryptedSeed is the only persisted form of a seed. Ciphertext is an opaque token
// produced by the Encryptor and is never inspected by the lifecycle.
type EncryptedSeed struct {
	// ID is the unique identifier of the stored record.
	ID uuid.UUID
	// Principal is the identity the seed belongs to. At most one record exists per principal.
	Principal string
	// Ciphertext is the encryptor token wrapping the seed.
	Ciphertext string
	// CreatedAt is the UTC timestamp of the first provisioning.
	CreatedAt time.Time
}

// InsertOutcome reports what a conditional insert did.
type InsertOutcome int

const (
	// Inserted means the record was stored by this call.
	Inserted InsertOutcome = iota + 1
	// AlreadyExists means another record for the principal was already stored; nothing was written.
	AlreadyExists
)

// String returns the outcome name.
func (o InsertOutcome) String() string {
	switch o {
	case Inserted:
		return "inserted"
	case AlreadyExists:
		return "already_exists"
	default:
		return "unknown"
	}
}
