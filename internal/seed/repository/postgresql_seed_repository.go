// Package repository implements encrypted seed persistence. Every adapter stores at most
// one record per principal and resolves concurrent first inserts atomically.
package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/allisson/seedvault/internal/database"
	apperrors "github.com/allisson/seedvault/internal/errors"
	seedDomain "github.com/allisson/seedvault/internal/seed/domain"
)

// PostgreSQLSeedRepository implements EncryptedSeed persistence for PostgreSQL databases.
type PostgreSQLSeedRepository struct {
	db *sql.DB
}

// Get retrieves the encrypted seed of a principal.
func (p *PostgreSQLSeedRepository) Get(ctx context.Context, principal string) (*seedDomain.EncryptedSeed, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT id, principal, ciphertext, created_at FROM otp_seeds WHERE principal = $1`

	var seed seedDomain.EncryptedSeed
	err := querier.QueryRowContext(ctx, query, principal).Scan(
		&seed.ID,
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

	return &seed, nil
}

// PutIfAbsent inserts the seed unless the principal already has one. The unique index on
// principal arbitrates concurrent inserts.
func (p *PostgreSQLSeedRepository) PutIfAbsent(
	ctx context.Context,
	seed *seedDomain.EncryptedSeed,
) (seedDomain.InsertOutcome, error) {
	querier := database.GetTx(ctx, p.db)

	query := `INSERT INTO otp_seeds (id, principal, ciphertext, created_at)
			  VALUES ($1, $2, $3, $4)
			  ON CONFLICT (principal) DO NOTHING`

	result, err := querier.ExecContext(ctx, query, seed.ID, seed.Principal, seed.Ciphertext, seed.CreatedAt)
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to insert encrypted seed")
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to get rows affected")
	}
	if rows == 0 {
		return seedDomain.AlreadyExists, nil
	}
	return seedDomain.Inserted, nil
}

// Delete removes the encrypted seed of a principal.
func (p *PostgreSQLSeedRepository) Delete(ctx context.Context, principal string) error {
	querier := database.GetTx(ctx, p.db)

	result, err := querier.ExecContext(ctx, `DELETE FROM otp_seeds WHERE principal = $1`, principal)
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
func (p *PostgreSQLSeedRepository) List(
	ctx context.Context,
	afterPrincipal string,
	limit int,
) ([]*seedDomain.EncryptedSeed, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT id, principal, ciphertext, created_at
			  FROM otp_seeds
			  WHERE principal > $1
			  ORDER BY principal ASC
			  LIMIT $2`

	rows, err := querier.QueryContext(ctx, query, afterPrincipal, limit)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list encrypted seeds")
	}
	defer func() {
		_ = rows.Close()
	}()

	seeds := make([]*seedDomain.EncryptedSeed, 0, limit)
	for rows.Next() {
		var seed seedDomain.EncryptedSeed
		if err := rows.Scan(&seed.ID, &seed.Principal, &seed.Ciphertext, &seed.CreatedAt); err != nil {
			return nil, apperrors.Wrap(err, "failed to scan encrypted seed")
		}
		seeds = append(seeds, &seed)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate encrypted seeds")
	}

	return seeds, nil
}

// SwapCiphertext replaces the ciphertext only if it still equals oldCiphertext.
func (p *PostgreSQLSeedRepository) SwapCiphertext(
	ctx context.Context,
	principal, oldCiphertext, newCiphertext string,
) (bool, error) {
	querier := database.GetTx(ctx, p.db)

	query := `UPDATE otp_seeds SET ciphertext = $1 WHERE principal = $2 AND ciphertext = $3`

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
func (p *PostgreSQLSeedRepository) Ping(ctx context.Context) error {
	return p.db.PingContext(ctx)
}

// NewPostgreSQLSeedRepository creates a new PostgreSQL EncryptedSeed repository.
func NewPostgreSQLSeedRepository(db *sql.DB) *PostgreSQLSeedRepository {
	return &PostgreSQLSeedRepository{db: db}
}
