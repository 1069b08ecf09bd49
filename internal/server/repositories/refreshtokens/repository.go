// Package refreshtokens declares the refresh-token store contract and its
// PostgreSQL and Redis implementations. Stores are keyed by the token hash;
// plaintext values never reach storage.
package refreshtokens

import (
	"context"

	"github.com/dmitrijs2005/workly/internal/server/models"
)

// Repository persists refresh-token records.
type Repository interface {
	// Create stores token. The user must exist; a missing user yields
	// common.ErrorNotFound where the store can detect it.
	Create(ctx context.Context, token *models.RefreshToken) error

	// Consume atomically removes the record for tokenHash and returns it.
	// Of several concurrent callers at most one receives the record; the
	// others get common.ErrorNotFound.
	Consume(ctx context.Context, tokenHash string) (*models.RefreshToken, error)

	// Delete removes the record for tokenHash. Absent tokens are not an error.
	Delete(ctx context.Context, tokenHash string) error

	// DeleteAllForUser removes every record of userID and reports how many.
	DeleteAllForUser(ctx context.Context, userID string) (int64, error)
}
