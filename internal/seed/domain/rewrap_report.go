package domain

// DefaultRewrapBatchSize is the number of seeds read per rewrap batch.
const DefaultRewrapBatchSize = 100

// RewrapReport summarizes a pass that re-encrypts stored seeds under the active key.
type RewrapReport struct {
	// Scanned counts every stored seed visited.
	Scanned int
	// Rewrapped counts seeds whose ciphertext was replaced.
	Rewrapped int
	// Current counts seeds already encrypted under the active key.
	Current int
	// Unreadable counts seeds that could not be decrypted and were left untouched.
	Unreadable int
	// Raced counts seeds changed or removed by another writer during the pass.
	Raced int
}
