package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	seedDomain "github.com/allisson/seedvault/internal/seed/domain"
)

func newTestEncryptedSeed(principal string) *seedDomain.EncryptedSeed {
	return &seedDomain.EncryptedSeed{
		ID:         uuid.Must(uuid.NewV7()),
		Principal:  principal,
		Ciphertext: "k1:Y2lwaGVydGV4dA==",
		CreatedAt:  time.Now().UTC().Truncate(time.Microsecond),
	}
}

func TestPostgreSQLSeedRepository_Get(t *testing.T) {
	ctx := context.Background()
	query := regexp.QuoteMeta(`SELECT id, principal, ciphertext, created_at FROM otp_seeds WHERE principal = $1`)

	t.Run("Success", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		expected := newTestEncryptedSeed("alice")
		mock.ExpectQuery(query).
			WithArgs("alice").
			WillReturnRows(sqlmock.NewRows([]string{"id", "principal", "ciphertext", "created_at"}).
				AddRow(expected.ID.String(), expected.Principal, expected.Ciphertext, expected.CreatedAt))

		seed, err := NewPostgreSQLSeedRepository(db).Get(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, expected, seed)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Error_NotFound", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery(query).
			WithArgs("nobody").
			WillReturnRows(sqlmock.NewRows([]string{"id", "principal", "ciphertext", "created_at"}))

		seed, err := NewPostgreSQLSeedRepository(db).Get(ctx, "nobody")
		assert.Nil(t, seed)
		assert.ErrorIs(t, err, seedDomain.ErrEncryptedSeedNotFound)
	})

	t.Run("Error_Database", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery(query).WithArgs("alice").WillReturnError(errors.New("connection reset"))

		seed, err := NewPostgreSQLSeedRepository(db).Get(ctx, "alice")
		assert.Nil(t, seed)
		require.Error(t, err)
		assert.NotErrorIs(t, err, seedDomain.ErrEncryptedSeedNotFound)
		assert.Contains(t, err.Error(), "failed to get encrypted seed")
	})
}

func TestPostgreSQLSeedRepository_PutIfAbsent(t *testing.T) {
	ctx := context.Background()
	query := regexp.QuoteMeta(`INSERT INTO otp_seeds (id, principal, ciphertext, created_at)`)

	t.Run("Success_Inserted", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		seed := newTestEncryptedSeed("alice")
		mock.ExpectExec(query).
			WithArgs(seed.ID, seed.Principal, seed.Ciphertext, seed.CreatedAt).
			WillReturnResult(sqlmock.NewResult(0, 1))

		outcome, err := NewPostgreSQLSeedRepository(db).PutIfAbsent(ctx, seed)
		require.NoError(t, err)
		assert.Equal(t, seedDomain.Inserted, outcome)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Success_AlreadyExists", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		seed := newTestEncryptedSeed("alice")
		mock.ExpectExec(query).WillReturnResult(sqlmock.NewResult(0, 0))

		outcome, err := NewPostgreSQLSeedRepository(db).PutIfAbsent(ctx, seed)
		require.NoError(t, err)
		assert.Equal(t, seedDomain.AlreadyExists, outcome)
	})

	t.Run("Error_Database", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectExec(query).WillReturnError(errors.New("connection reset"))

		_, err = NewPostgreSQLSeedRepository(db).PutIfAbsent(ctx, newTestEncryptedSeed("alice"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to insert encrypted seed")
	})
}

func TestPostgreSQLSeedRepository_Delete(t *testing.T) {
	ctx := context.Background()
	query := regexp.QuoteMeta(`DELETE FROM otp_seeds WHERE principal = $1`)

	t.Run("Success", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectExec(query).WithArgs("alice").WillReturnResult(sqlmock.NewResult(0, 1))

		err = NewPostgreSQLSeedRepository(db).Delete(ctx, "alice")
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Error_NotFound", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectExec(query).WithArgs("nobody").WillReturnResult(sqlmock.NewResult(0, 0))

		err = NewPostgreSQLSeedRepository(db).Delete(ctx, "nobody")
		assert.ErrorIs(t, err, seedDomain.ErrEncryptedSeedNotFound)
	})
}

func TestPostgreSQLSeedRepository_List(t *testing.T) {
	ctx := context.Background()
	query := regexp.QuoteMeta(`SELECT id, principal, ciphertext, created_at
			  FROM otp_seeds
			  WHERE principal > $1`)

	t.Run("Success", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		alice := newTestEncryptedSeed("alice")
		bob := newTestEncryptedSeed("bob")
		mock.ExpectQuery(query).
			WithArgs("", 2).
			WillReturnRows(sqlmock.NewRows([]string{"id", "principal", "ciphertext", "created_at"}).
				AddRow(alice.ID.String(), alice.Principal, alice.Ciphertext, alice.CreatedAt).
				AddRow(bob.ID.String(), bob.Principal, bob.Ciphertext, bob.CreatedAt))

		seeds, err := NewPostgreSQLSeedRepository(db).List(ctx, "", 2)
		require.NoError(t, err)
		assert.Equal(t, []*seedDomain.EncryptedSeed{alice, bob}, seeds)
	})

	t.Run("Error_Database", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery(query).WillReturnError(errors.New("connection reset"))

		seeds, err := NewPostgreSQLSeedRepository(db).List(ctx, "", 10)
		assert.Nil(t, seeds)
		assert.Error(t, err)
	})
}

func TestPostgreSQLSeedRepository_SwapCiphertext(t *testing.T) {
	ctx := context.Background()
	query := regexp.QuoteMeta(`UPDATE otp_seeds SET ciphertext = $1 WHERE principal = $2 AND ciphertext = $3`)

	t.Run("Success_Swapped", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectExec(query).WithArgs("new", "alice", "old").WillReturnResult(sqlmock.NewResult(0, 1))

		swapped, err := NewPostgreSQLSeedRepository(db).SwapCiphertext(ctx, "alice", "old", "new")
		require.NoError(t, err)
		assert.True(t, swapped)
	})

	t.Run("Success_Stale", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectExec(query).WithArgs("new", "alice", "old").WillReturnResult(sqlmock.NewResult(0, 0))

		swapped, err := NewPostgreSQLSeedRepository(db).SwapCiphertext(ctx, "alice", "old", "new")
		require.NoError(t, err)
		assert.False(t, swapped)
	})
}
