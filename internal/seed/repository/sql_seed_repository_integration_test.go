package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	seedDomain "github.com/allisson/seedvault/internal/seed/domain"
	"github.com/allisson/seedvault/internal/testutil"
)

type seedStore interface {
	Get(ctx context.Context, principal string) (*seedDomain.EncryptedSeed, error)
	PutIfAbsent(ctx context.Context, seed *seedDomain.EncryptedSeed) (seedDomain.InsertOutcome, error)
	Delete(ctx context.Context, principal string) error
}

func exerciseSeedStore(t *testing.T, repo seedStore) {
	t.Helper()
	ctx := context.Background()

	seed := newTestEncryptedSeed("alice@example.com")
	outcome, err := repo.PutIfAbsent(ctx, seed)
	require.NoError(t, err)
	assert.Equal(t, seedDomain.Inserted, outcome)

	outcome, err = repo.PutIfAbsent(ctx, newTestEncryptedSeed("alice@example.com"))
	require.NoError(t, err)
	assert.Equal(t, seedDomain.AlreadyExists, outcome)

	stored, err := repo.Get(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, seed.ID, stored.ID)
	assert.Equal(t, seed.Ciphertext, stored.Ciphertext)

	require.NoError(t, repo.Delete(ctx, "alice@example.com"))
	_, err = repo.Get(ctx, "alice@example.com")
	assert.ErrorIs(t, err, seedDomain.ErrEncryptedSeedNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, "alice@example.com"), seedDomain.ErrEncryptedSeedNotFound)
}

func TestPostgreSQLSeedRepository_Integration(t *testing.T) {
	db := testutil.SetupPostgresDB(t)
	defer testutil.TeardownDB(t, db)
	defer testutil.CleanupPostgresDB(t, db)

	repo := NewPostgreSQLSeedRepository(db)
	require.NoError(t, repo.Ping(context.Background()))
	exerciseSeedStore(t, repo)
}

func TestMySQLSeedRepository_Integration(t *testing.T) {
	db := testutil.SetupMySQLDB(t)
	defer testutil.TeardownDB(t, db)
	defer testutil.CleanupMySQLDB(t, db)

	repo := NewMySQLSeedRepository(db)
	require.NoError(t, repo.Ping(context.Background()))
	exerciseSeedStore(t, repo)
}

