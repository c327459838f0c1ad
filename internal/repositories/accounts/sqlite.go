// Package accounts implements the durable account record store: primary
// key on id, unique secondary index on the hashed identifier.
package accounts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/flowday-app/flowday/internal/common"
	"github.com/flowday-app/flowday/internal/dbx"
	"github.com/flowday-app/flowday/internal/models"
)

// SQLiteRepository implements Repository using a DBTX (either *sql.DB or *sql.Tx).
type SQLiteRepository struct {
	db dbx.DBTX
}

// NewSQLiteRepository returns a new SQLiteRepository bound to the given DBTX.
func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// FindByIdentifierHash returns the account whose identifier_hash matches.
func (r *SQLiteRepository) FindByIdentifierHash(ctx context.Context, hash string) (*models.Account, error) {
	query := `SELECT id, identifier_hash, payload, created_at, updated_at
		FROM accounts WHERE identifier_hash = ?`
	return r.scanOne(r.db.QueryRowContext(ctx, query, hash))
}

// Get returns the account with the given id.
func (r *SQLiteRepository) Get(ctx context.Context, id string) (*models.Account, error) {
	query := `SELECT id, identifier_hash, payload, created_at, updated_at
		FROM accounts WHERE id = ?`
	return r.scanOne(r.db.QueryRowContext(ctx, query, id))
}

func (r *SQLiteRepository) scanOne(row *sql.Row) (*models.Account, error) {
	a := &models.Account{}
	err := row.Scan(&a.ID, &a.IdentifierHash, &a.Payload, &a.CreatedAt, &a.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan account: %w", err)
	}
	return a, nil
}

// Put upserts an account by id. The unique index on identifier_hash is
// enforced by the database; a violation surfaces as ErrDuplicateIdentifier.
func (r *SQLiteRepository) Put(ctx context.Context, account *models.Account) error {
	query := `INSERT INTO accounts (id, identifier_hash, payload, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET identifier_hash = excluded.identifier_hash,
			payload = excluded.payload,
			created_at = excluded.created_at,
			updated_at = excluded.updated_at`
	_, err := r.db.ExecContext(ctx, query,
		account.ID, account.IdentifierHash, account.Payload, account.CreatedAt, account.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return common.ErrDuplicateIdentifier
		}
		return fmt.Errorf("failed to upsert account: %w", err)
	}
	return nil
}

// Delete removes the account with the given id, if present.
func (r *SQLiteRepository) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM accounts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete account: %w", err)
	}
	return nil
}

// isUniqueViolation reports whether err is a SQLite unique-constraint
// failure. modernc.org/sqlite does not export a typed constraint error,
// so the driver message is inspected.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
