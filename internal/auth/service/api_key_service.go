// Package service provides API key generation and Argon2id verification for the HTTP API.
package service

import (
	"crypto/rand"
	"encoding/base64"

	"github.com/allisson/go-pwdhash"

	apperrors "github.com/allisson/seedvault/internal/errors"
)

// apiKeyLength is the number of random bytes behind a generated key.
const apiKeyLength = 32

// APIKeyService issues API keys and checks presented keys against their stored hash.
type APIKeyService interface {
	// GenerateAPIKey returns a new random key and its Argon2id hash in PHC format.
	GenerateAPIKey() (plainKey string, hashedKey string, err error)
	// HashAPIKey hashes a plain key using Argon2id.
	HashAPIKey(plainKey string) (string, error)
	// CompareAPIKey reports whether plainKey matches hashedKey. Malformed hashes never match.
	CompareAPIKey(plainKey, hashedKey string) bool
}

type apiKeyService struct {
	hasher *pwdhash.PasswordHasher
}

// GenerateAPIKey creates a 32-byte random key encoded with URL-safe base64.
func (s *apiKeyService) GenerateAPIKey() (string, string, error) {
	randomBytes := make([]byte, apiKeyLength)
	if _, err := rand.Read(randomBytes); err != nil {
		return "", "", apperrors.Wrap(err, "failed to generate api key")
	}

	plainKey := base64.URLEncoding.EncodeToString(randomBytes)
	clear(randomBytes)

	hashedKey, err := s.HashAPIKey(plainKey)
	if err != nil {
		return "", "", err
	}
	return plainKey, hashedKey, nil
}

// HashAPIKey hashes a plain key using Argon2id.
func (s *apiKeyService) HashAPIKey(plainKey string) (string, error) {
	hashedKey, err := s.hasher.Hash([]byte(plainKey))
	if err != nil {
		return "", apperrors.Wrap(err, "failed to hash api key")
	}
	return hashedKey, nil
}

// CompareAPIKey performs a constant-time comparison between a plain key and its hash.
func (s *apiKeyService) CompareAPIKey(plainKey, hashedKey string) bool {
	ok, err := s.hasher.Verify([]byte(plainKey), hashedKey)
	if err != nil {
		return false
	}
	return ok
}

// NewAPIKeyService creates an APIKeyService using the Moderate Argon2id policy.
func NewAPIKeyService() APIKeyService {
	hasher, err := pwdhash.New(
		pwdhash.WithPolicy(pwdhash.PolicyModerate),
	)
	if err != nil {
		// unreachable with a built-in policy
		panic(err)
	}

	return &apiKeyService{
		hasher: hasher,
	}
}
