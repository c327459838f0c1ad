package accounts

import (
	"context"

	"github.com/flowday-app/flowday/internal/models"
)

// Repository describes the durable account store. Implementations are
// backed by a local SQLite database.
type Repository interface {
	// FindByIdentifierHash looks an account up through the unique secondary
	// index. Returns common.ErrNotFound if no account matches.
	FindByIdentifierHash(ctx context.Context, hash string) (*models.Account, error)

	// Get returns an account by primary key, or common.ErrNotFound.
	Get(ctx context.Context, id string) (*models.Account, error)

	// Put upserts an account by id. A put that would give two accounts the
	// same identifier hash fails with common.ErrDuplicateIdentifier and
	// leaves the store unchanged.
	Put(ctx context.Context, account *models.Account) error

	// Delete removes an account. Deleting an absent id is not an error.
	Delete(ctx context.Context, id string) error
}
