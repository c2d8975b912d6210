package repository

import (
	"context"
	"slices"
	"sync"

	seedDomain "github.com/allisson/seedvault/internal/seed/domain"
)

// MemorySeedRepository keeps encrypted seeds in process memory. Intended for development
// and tests; contents are lost on restart.
type MemorySeedRepository struct {
	mu    sync.RWMutex
	seeds map[string]seedDomain.EncryptedSeed
}

// Get retrieves a copy of the encrypted seed of a principal.
func (m *MemorySeedRepository) Get(ctx context.Context, principal string) (*seedDomain.EncryptedSeed, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	seed, ok := m.seeds[principal]
	if !ok {
		return nil, seedDomain.ErrEncryptedSeedNotFound
	}
	return &seed, nil
}

// PutIfAbsent stores a copy of the seed unless the principal already has one.
func (m *MemorySeedRepository) PutIfAbsent(
	ctx context.Context,
	seed *seedDomain.EncryptedSeed,
) (seedDomain.InsertOutcome, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.seeds[seed.Principal]; ok {
		return seedDomain.AlreadyExists, nil
	}
	m.seeds[seed.Principal] = *seed
	return seedDomain.Inserted, nil
}

// Delete removes the encrypted seed of a principal.
func (m *MemorySeedRepository) Delete(ctx context.Context, principal string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.seeds[principal]; !ok {
		return seedDomain.ErrEncryptedSeedNotFound
	}
	delete(m.seeds, principal)
	return nil
}

// List returns up to limit seeds ordered by principal, starting after afterPrincipal.
func (m *MemorySeedRepository) List(
	ctx context.Context,
	afterPrincipal string,
	limit int,
) ([]*seedDomain.EncryptedSeed, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	principals := make([]string, 0, len(m.seeds))
	for principal := range m.seeds {
		if principal > afterPrincipal {
			principals = append(principals, principal)
		}
	}
	slices.Sort(principals)
	if len(principals) > limit {
		principals = principals[:limit]
	}

	seeds := make([]*seedDomain.EncryptedSeed, 0, len(principals))
	for _, principal := range principals {
		seed := m.seeds[principal]
		seeds = append(seeds, &seed)
	}
	return seeds, nil
}

// SwapCiphertext replaces the ciphertext only if it still equals oldCiphertext.
func (m *MemorySeedRepository) SwapCiphertext(
	ctx context.Context,
	principal, oldCiphertext, newCiphertext string,
) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	seed, ok := m.seeds[principal]
	if !ok || seed.Ciphertext != oldCiphertext {
		return false, nil
	}
	seed.Ciphertext = newCiphertext
	m.seeds[principal] = seed
	return true, nil
}

// Ping always succeeds.
func (m *MemorySeedRepository) Ping(ctx context.Context) error {
	return nil
}

// Len returns the number of stored seeds.
func (m *MemorySeedRepository) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.seeds)
}

// NewMemorySeedRepository creates an empty in-memory EncryptedSeed repository.
func NewMemorySeedRepository() *MemorySeedRepository {
	return &MemorySeedRepository{seeds: make(map[string]seedDomain.EncryptedSeed)}
}
