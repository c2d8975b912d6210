package service

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"gocloud.dev/gcerrors"

	seedDomain "github.com/allisson/seedvault/internal/seed/domain"
)

// KMSEncryptor implements the seed Encryptor with a KeeperChain.
//
// Tokens have the form "{keyID}:{base64(ciphertext)}" so a seed encrypted under a
// rotated-out key is still routed to the keeper that can open it.
type KMSEncryptor struct {
	chain *KeeperChain
}

// NewKMSEncryptor creates an encryptor over chain.
func NewKMSEncryptor(chain *KeeperChain) *KMSEncryptor {
	return &KMSEncryptor{chain: chain}
}

// Encrypt wraps plaintext with the active keeper.
func (e *KMSEncryptor) Encrypt(ctx context.Context, plaintext []byte) (string, error) {
	keyID := e.chain.ActiveID()
	keeper, ok := e.chain.Get(keyID)
	if !ok {
		return "", fmt.Errorf("%w: %s", seedDomain.ErrKeyUnavailable, keyID)
	}

	ciphertext, err := keeper.Encrypt(ctx, plaintext)
	if err != nil {
		return "", fmt.Errorf("failed to encrypt with key %s: %w", keyID, err)
	}

	return formatToken(keyID, ciphertext), nil
}

// Decrypt unwraps a token produced by Encrypt.
func (e *KMSEncryptor) Decrypt(ctx context.Context, token string) ([]byte, error) {
	keyID, ciphertext, err := parseToken(token)
	if err != nil {
		return nil, err
	}

	keeper, ok := e.chain.Get(keyID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", seedDomain.ErrKeyUnavailable, keyID)
	}

	plaintext, err := keeper.Decrypt(ctx, ciphertext)
	if err != nil {
		return nil, classifyDecryptError(ctx, keyID, err)
	}
	return plaintext, nil
}

// classifyDecryptError separates rejected ciphertexts from keys that cannot be used.
// Keepers report authentication failures of a ciphertext as Unknown or InvalidArgument.
func classifyDecryptError(ctx context.Context, keyID string, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("failed to decrypt with key %s: %w", keyID, ctxErr)
	}

	switch gcerrors.Code(err) {
	case gcerrors.Canceled, gcerrors.DeadlineExceeded:
		return fmt.Errorf("failed to decrypt with key %s: %w", keyID, err)
	case gcerrors.Unknown, gcerrors.InvalidArgument:
		return fmt.Errorf("%w: key %s: %w", seedDomain.ErrMalformedCiphertext, keyID, err)
	default:
		return fmt.Errorf("%w: key %s: %w", seedDomain.ErrKeyUnavailable, keyID, err)
	}
}

// Rewrap re-encrypts token under the active key. The plaintext is zeroed before returning.
func (e *KMSEncryptor) Rewrap(ctx context.Context, token string) (string, bool, error) {
	keyID, _, err := parseToken(token)
	if err != nil {
		return "", false, err
	}
	if keyID == e.chain.ActiveID() {
		return token, false, nil
	}

	plaintext, err := e.Decrypt(ctx, token)
	if err != nil {
		return "", false, err
	}
	defer clear(plaintext)

	rewrapped, err := e.Encrypt(ctx, plaintext)
	if err != nil {
		return "", false, err
	}
	return rewrapped, true, nil
}

func formatToken(keyID string, ciphertext []byte) string {
	return keyID + ":" + base64.StdEncoding.EncodeToString(ciphertext)
}

func parseToken(token string) (string, []byte, error) {
	keyID, encoded, ok := strings.Cut(token, ":")
	if !ok || keyID == "" || encoded == "" {
		return "", nil, fmt.Errorf("%w: expected keyID:base64", seedDomain.ErrMalformedCiphertext)
	}

	ciphertext, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %v", seedDomain.ErrMalformedCiphertext, err)
	}
	return keyID, ciphertext, nil
}
