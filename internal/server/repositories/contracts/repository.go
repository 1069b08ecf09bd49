// Package contracts persists the job applications users track.
package contracts

import (
	"context"

	"github.com/dmitrijs2005/workly/internal/server/models"
)

// Repository stores contracts. A second contract for the same user and
// link hash yields common.ErrorConflict; absent contracts yield
// common.ErrorNotFound.
type Repository interface {
	Create(ctx context.Context, c *models.Contract) (*models.Contract, error)
	ListByUser(ctx context.Context, userID string) ([]models.Contract, error)
	FindByLinkForUpdate(ctx context.Context, userID, linkHash string) (*models.Contract, error)
	UpdateStatus(ctx context.Context, id string, status models.ContractStatus) (*models.Contract, error)
}
