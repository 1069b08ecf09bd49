package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/workly/internal/common"
	"github.com/dmitrijs2005/workly/internal/dbx"
	"github.com/dmitrijs2005/workly/internal/server/models"
	"github.com/dmitrijs2005/workly/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

// ContractService tracks the job postings a user applied to.
type ContractService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
}

func NewContractService(db *sql.DB, m repomanager.RepositoryManager) *ContractService {
	return &ContractService{db: db, repomanager: m}
}

// Add starts tracking linkHash for the user in PENDING status.
func (s *ContractService) Add(ctx context.Context, userID, linkHash string) (*models.Contract, error) {
	linkHash, err := validateLinkHash(linkHash)
	if err != nil {
		return nil, err
	}

	c, err := s.repomanager.Contracts(s.db).Create(ctx, &models.Contract{
		ID:       uuid.NewString(),
		UserID:   userID,
		LinkHash: linkHash,
		Status:   models.ContractPending,
	})
	if err != nil {
		if errors.Is(err, common.ErrorConflict) {
			return nil, common.ErrContractExists
		}
		return nil, fmt.Errorf("error creating contract: %w", err)
	}
	return c, nil
}

func (s *ContractService) List(ctx context.Context, userID string) ([]models.Contract, error) {
	list, err := s.repomanager.Contracts(s.db).ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("error listing contracts: %w", err)
	}
	return list, nil
}

// UpdateStatus moves the user's contract for linkHash to status, enforcing
// the allowed transitions.
func (s *ContractService) UpdateStatus(ctx context.Context, userID, linkHash, status string) (*models.Contract, error) {
	linkHash, err := validateLinkHash(linkHash)
	if err != nil {
		return nil, err
	}
	next, err := models.ParseContractStatus(status)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrValidation, err)
	}

	var result *models.Contract
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Contracts(tx)

		current, err := repo.FindByLinkForUpdate(ctx, userID, linkHash)
		if err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return common.ErrContractNotFound
			}
			return fmt.Errorf("error searching contract: %w", err)
		}

		if current.Status == next {
			result = current
			return nil
		}
		if !current.Status.CanTransition(next) {
			return fmt.Errorf("%w: %s -> %s", common.ErrInvalidTransition, current.Status, next)
		}

		result, err = repo.UpdateStatus(ctx, current.ID, next)
		if err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return common.ErrContractNotFound
			}
			return fmt.Errorf("error updating contract: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func validateLinkHash(linkHash string) (string, error) {
	linkHash = strings.TrimSpace(linkHash)
	if linkHash == "" {
		return "", fmt.Errorf("%w: link hash is required", common.ErrValidation)
	}
	if len(linkHash) > models.MaxLinkHashLength {
		return "", fmt.Errorf("%w: link hash longer than %d characters", common.ErrValidation, models.MaxLinkHashLength)
	}
	return linkHash, nil
}
