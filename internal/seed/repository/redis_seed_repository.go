package repository

import (
	"context"
	"encoding/json"
	"errors"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	apperrors "github.com/allisson/seedvault/internal/errors"
	seedDomain "github.com/allisson/seedvault/internal/seed/domain"
)

// DefaultRedisKeyPrefix namespaces seed keys.
const DefaultRedisKeyPrefix = "seedvault:otp_seed:"

// redisSeedRecord is the JSON value stored under each principal key.
type redisSeedRecord struct {
	ID         uuid.UUID `json:"id"`
	Principal  string    `json:"principal"`
	Ciphertext string    `json:"ciphertext"`
	CreatedAt  time.Time `json:"created_at"`
}

// RedisSeedRepository implements EncryptedSeed persistence on Redis. Records never expire.
type RedisSeedRepository struct {
	client    redis.UniversalClient
	keyPrefix string
}

// Get retrieves the encrypted seed of a principal.
func (r *RedisSeedRepository) Get(ctx context.Context, principal string) (*seedDomain.EncryptedSeed, error) {
	payload, err := r.client.Get(ctx, r.key(principal)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, seedDomain.ErrEncryptedSeedNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get encrypted seed")
	}

	var record redisSeedRecord
	if err := json.Unmarshal(payload, &record); err != nil {
		return nil, apperrors.Wrap(err, "failed to decode encrypted seed")
	}

	return &seedDomain.EncryptedSeed{
		ID:         record.ID,
		Principal:  record.Principal,
		Ciphertext: record.Ciphertext,
		CreatedAt:  record.CreatedAt,
	}, nil
}

// PutIfAbsent stores the seed with SETNX so only the first writer succeeds.
func (r *RedisSeedRepository) PutIfAbsent(
	ctx context.Context,
	seed *seedDomain.EncryptedSeed,
) (seedDomain.InsertOutcome, error) {
	payload, err := json.Marshal(redisSeedRecord{
		ID:         seed.ID,
		Principal:  seed.Principal,
		Ciphertext: seed.Ciphertext,
		CreatedAt:  seed.CreatedAt,
	})
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to encode encrypted seed")
	}

	stored, err := r.client.SetNX(ctx, r.key(seed.Principal), payload, 0).Result()
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to insert encrypted seed")
	}
	if !stored {
		return seedDomain.AlreadyExists, nil
	}
	return seedDomain.Inserted, nil
}

// Delete removes the encrypted seed of a principal.
func (r *RedisSeedRepository) Delete(ctx context.Context, principal string) error {
	deleted, err := r.client.Del(ctx, r.key(principal)).Result()
	if err != nil {
		return apperrors.Wrap(err, "failed to delete encrypted seed")
	}
	if deleted == 0 {
		return seedDomain.ErrEncryptedSeedNotFound
	}
	return nil
}

// List returns up to limit seeds ordered by principal, starting after afterPrincipal.
// Keys are collected with SCAN, so every call walks the whole prefix.
func (r *RedisSeedRepository) List(
	ctx context.Context,
	afterPrincipal string,
	limit int,
) ([]*seedDomain.EncryptedSeed, error) {
	var principals []string
	iter := r.client.Scan(ctx, 0, r.keyPrefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		principal := strings.TrimPrefix(iter.Val(), r.keyPrefix)
		if principal > afterPrincipal {
			principals = append(principals, principal)
		}
	}
	if err := iter.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to scan encrypted seeds")
	}

	slices.Sort(principals)
	principals = slices.Compact(principals)
	if len(principals) > limit {
		principals = principals[:limit]
	}

	seeds := make([]*seedDomain.EncryptedSeed, 0, len(principals))
	for _, principal := range principals {
		seed, err := r.Get(ctx, principal)
		if errors.Is(err, seedDomain.ErrEncryptedSeedNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		seeds = append(seeds, seed)
	}
	return seeds, nil
}

// SwapCiphertext replaces the ciphertext only if it still equals oldCiphertext. The key is
// WATCHed so a concurrent write aborts the swap.
func (r *RedisSeedRepository) SwapCiphertext(
	ctx context.Context,
	principal, oldCiphertext, newCiphertext string,
) (bool, error) {
	key := r.key(principal)
	swapped := false

	err := r.client.Watch(ctx, func(tx *redis.Tx) error {
		payload, err := tx.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			return nil
		}
		if err != nil {
			return err
		}

		var record redisSeedRecord
		if err := json.Unmarshal(payload, &record); err != nil {
			return err
		}
		if record.Ciphertext != oldCiphertext {
			return nil
		}

		record.Ciphertext = newCiphertext
		updated, err := json.Marshal(record)
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, updated, 0)
			return nil
		})
		if err != nil {
			return err
		}
		swapped = true
		return nil
	}, key)
	if errors.Is(err, redis.TxFailedErr) {
		return false, nil
	}
	if err != nil {
		return false, apperrors.Wrap(err, "failed to swap ciphertext")
	}
	return swapped, nil
}

// Ping checks the Redis connection.
func (r *RedisSeedRepository) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *RedisSeedRepository) key(principal string) string {
	return r.keyPrefix + principal
}

// NewRedisSeedRepository creates a new Redis EncryptedSeed repository. An empty keyPrefix
// selects DefaultRedisKeyPrefix.
func NewRedisSeedRepository(client redis.UniversalClient, keyPrefix string) *RedisSeedRepository {
	if keyPrefix == "" {
		keyPrefix = DefaultRedisKeyPrefix
	}
	return &RedisSeedRepository{client: client, keyPrefix: keyPrefix}
}
