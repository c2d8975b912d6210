// Package service provides the envelope Encryptor backed by external key-management
// services through gocloud.dev/secrets.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gocloud.dev/secrets"

	// Register all KMS provider drivers
	_ "gocloud.dev/secrets/awskms"
	_ "gocloud.dev/secrets/azurekeyvault"
	_ "gocloud.dev/secrets/gcpkms"
	_ "gocloud.dev/secrets/hashivault"
	_ "gocloud.dev/secrets/localsecrets"
)

// Keeper chain configuration errors.
var (
	ErrKeepersNotSet        = errors.New("KMS_KEYS not set")
	ErrActiveKeeperIDNotSet = errors.New("KMS_ACTIVE_KEY_ID not set")
	ErrInvalidKeepersFormat = errors.New("invalid KMS_KEYS format")
	ErrActiveKeeperNotFound = errors.New("active KMS key not found in KMS_KEYS")
)

// Keeper is the subset of *secrets.Keeper used by the encryptor.
type Keeper interface {
	Encrypt(ctx context.Context, plaintext []byte) ([]byte, error)
	Decrypt(ctx context.Context, ciphertext []byte) ([]byte, error)
	Close() error
}

// KeeperChain holds named keepers and the id of the one used for new encryptions.
// Older keepers stay in the chain so seeds encrypted before a rotation still decrypt.
// The chain is immutable after construction.
type KeeperChain struct {
	activeID string
	keepers  map[string]Keeper
}

// NewKeeperChain builds a chain from already opened keepers.
func NewKeeperChain(activeID string, keepers map[string]Keeper) (*KeeperChain, error) {
	if activeID == "" {
		return nil, ErrActiveKeeperIDNotSet
	}
	if _, ok := keepers[activeID]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrActiveKeeperNotFound, activeID)
	}
	for id := range keepers {
		if err := validateKeeperID(id); err != nil {
			return nil, err
		}
	}

	chain := &KeeperChain{activeID: activeID, keepers: make(map[string]Keeper, len(keepers))}
	for id, keeper := range keepers {
		chain.keepers[id] = keeper
	}
	return chain, nil
}

// OpenKeeperChain opens every keeper listed in raw, formatted as "id=uri;id=uri".
// Supported URIs: hashivault://, awskms://, gcpkms://, azurekeyvault://, base64key://.
// Keepers opened before a failure are closed.
func OpenKeeperChain(ctx context.Context, raw, activeID string) (*KeeperChain, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, ErrKeepersNotSet
	}
	if activeID == "" {
		return nil, ErrActiveKeeperIDNotSet
	}

	keepers := make(map[string]Keeper)
	closeAll := func() {
		for _, keeper := range keepers {
			_ = keeper.Close()
		}
	}

	for part := range strings.SplitSeq(raw, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		id, uri, ok := strings.Cut(part, "=")
		id = strings.TrimSpace(id)
		uri = strings.TrimSpace(uri)
		if !ok || uri == "" {
			closeAll()
			return nil, fmt.Errorf("%w: %q", ErrInvalidKeepersFormat, id)
		}
		if err := validateKeeperID(id); err != nil {
			closeAll()
			return nil, err
		}
		if _, exists := keepers[id]; exists {
			closeAll()
			return nil, fmt.Errorf("%w: duplicate key id %q", ErrInvalidKeepersFormat, id)
		}

		keeper, err := secrets.OpenKeeper(ctx, uri)
		if err != nil {
			closeAll()
			return nil, fmt.Errorf("failed to open KMS keeper %s: %w", id, err)
		}
		keepers[id] = keeper
	}

	chain, err := NewKeeperChain(activeID, keepers)
	if err != nil {
		closeAll()
		return nil, err
	}
	return chain, nil
}

// ActiveID returns the id of the keeper used for new encryptions.
func (c *KeeperChain) ActiveID() string {
	return c.activeID
}

// Get returns the keeper registered under id.
func (c *KeeperChain) Get(id string) (Keeper, bool) {
	keeper, ok := c.keepers[id]
	return keeper, ok
}

// Close releases every keeper in the chain.
func (c *KeeperChain) Close() error {
	var errs []error
	for id, keeper := range c.keepers {
		if err := keeper.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close keeper %s: %w", id, err))
		}
	}
	return errors.Join(errs...)
}

func validateKeeperID(id string) error {
	if id == "" || strings.ContainsAny(id, ":;= \t") {
		return fmt.Errorf("%w: invalid key id %q", ErrInvalidKeepersFormat, id)
	}
	return nil
}
