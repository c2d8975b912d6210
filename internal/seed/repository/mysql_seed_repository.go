package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/allisson/seedvault/internal/database"
	apperrors "github.com/allisson/seedvault/internal/errors"
	seedDomain "github.com/allisson/seedvault/internal/seed/domain"
)

// MySQLSeedRepository implements EncryptedSeed persistence for MySQL databases.
// IDs are stored as BINARY(16).
type MySQLSeedRepository struct {
	db *sql.DB
}

// Get retrieves the encrypted seed of a principal.
func (m *MySQLSeedRepository) Get(ctx context.Context, principal string) (*seedDomain.EncryptedSeed, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT id, principal, ciphertext, created_at FROM otp_seeds WHERE principal = ?`

	var (
		seed seedDomain.EncryptedSeed
		id   []byte
	)
	err := querier.QueryRowContext(ctx, query, principal).Scan(
		&id,
		&seed.Principal,
		&seed.Ciphertext,
		&seed.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, seedDomain.ErrEncryptedSeedNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get encrypted seed")
	}

	if err := seed.ID.UnmarshalBinary(id); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal encrypted seed id")
	}

	return &seed, nil
}

// PutIfAbsent inserts the seed unless the principal already has one. A duplicate entry
// on the principal index means another writer got there first.
func (m *MySQLSeedRepository) PutIfAbsent(
	ctx context.Context,
	seed *seedDomain.EncryptedSeed,
) (seedDomain.InsertOutcome, error) {
	querier := database.GetTx(ctx, m.db)

	id, err := seed.ID.MarshalBinary()
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to marshal encrypted seed id")
	}

	query := `INSERT INTO otp_seeds (id, principal, ciphertext, created_at) VALUES (?, ?, ?, ?)`

	_, err = querier.ExecContext(ctx, query, id, seed.Principal, seed.Ciphertext, seed.CreatedAt)
	if err != nil {
		if isMySQLUniqueViolation(err) {
			return seedDomain.AlreadyExists, nil
		}
		return 0, apperrors.Wrap(err, "failed to insert encrypted seed")
	}
	return seedDomain.Inserted, nil
}

// Delete removes the encrypted seed of a principal.
func (m *MySQLSeedRepository) Delete(ctx context.Context, principal string) error {
	querier := database.GetTx(ctx, m.db)

	result, err := querier.ExecContext(ctx, `DELETE FROM otp_seeds WHERE principal = ?`, principal)
	if err != nil {
		return apperrors.Wrap(err, "failed to delete encrypted seed")
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return apperrors.Wrap(err, "failed to get rows affected")
	}
	if rows == 0 {
		return seedDomain.ErrEncryptedSeedNotFound
	}
	return nil
}

// List returns up to limit seeds ordered by principal, starting after afterPrincipal.
func (m *MySQLSeedRepository) List(
	ctx context.Context,
	afterPrincipal string,
	limit int,
) ([]*seedDomain.EncryptedSeed, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT id, principal, ciphertext, created_at
			  FROM otp_seeds
			  WHERE principal > ?
			  ORDER BY principal ASC
			  LIMIT ?`

	rows, err := querier.QueryContext(ctx, query, afterPrincipal, limit)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list encrypted seeds")
	}
	defer func() {
		_ = rows.Close()
	}()

	seeds := make([]*seedDomain.EncryptedSeed, 0, limit)
	for rows.Next() {
		var (
			seed seedDomain.EncryptedSeed
			id   []byte
		)
		if err := rows.Scan(&id, &seed.Principal, &seed.Ciphertext, &seed.CreatedAt); err != nil {
			return nil, apperrors.Wrap(err, "failed to scan encrypted seed")
		}
		if err := seed.ID.UnmarshalBinary(id); err != nil {
			return nil, apperrors.Wrap(err, "failed to unmarshal encrypted seed id")
		}
		seeds = append(seeds, &seed)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate encrypted seeds")
	}

	return seeds, nil
}

// SwapCiphertext replaces the ciphertext only if it still equals oldCiphertext.
func (m *MySQLSeedRepository) SwapCiphertext(
	ctx context.Context,
	principal, oldCiphertext, newCiphertext string,
) (bool, error) {
	querier := database.GetTx(ctx, m.db)

	query := `UPDATE otp_seeds SET ciphertext = ? WHERE principal = ? AND ciphertext = ?`

	result, err := querier.ExecContext(ctx, query, newCiphertext, principal, oldCiphertext)
	if err != nil {
		return false, apperrors.Wrap(err, "failed to swap ciphertext")
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, apperrors.Wrap(err, "failed to get rows affected")
	}
	return rows == 1, nil
}

// Ping checks the database connection.
func (m *MySQLSeedRepository) Ping(ctx context.Context) error {
	return m.db.PingContext(ctx)
}

// isMySQLUniqueViolation checks if the error is a MySQL unique constraint violation
func isMySQLUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	errMsg := strings.ToLower(err.Error())
	// MySQL: "Error 1062: Duplicate entry"
	return strings.Contains(errMsg, "duplicate entry") || strings.Contains(errMsg, "1062")
}

// NewMySQLSeedRepository creates a new MySQL EncryptedSeed repository.
func NewMySQLSeedRepository(db *sql.DB) *MySQLSeedRepository {
	return &MySQLSeedRepository{db: db}
}

