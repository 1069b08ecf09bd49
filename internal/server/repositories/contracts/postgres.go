package contracts

import (
	"context"
	"database/sql"
	"errors"

	"github.com/dmitrijs2005/workly/internal/common"
	"github.com/dmitrijs2005/workly/internal/dbx"
	"github.com/dmitrijs2005/workly/internal/server/models"
	"github.com/jackc/pgx/v5/pgconn"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, c *models.Contract) (*models.Contract, error) {
	query := `
		INSERT INTO user_contracts (id, user_id, link_hash, status)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at, updated_at
	`
	err := r.db.QueryRowContext(ctx, query, c.ID, c.UserID, c.LinkHash, string(c.Status)).Scan(&c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, common.ErrorConflict
		}
		return nil, common.StorageError("contracts.create", err)
	}
	return c, nil
}

// ListByUser returns the user's contracts, newest first.
func (r *PostgresRepository) ListByUser(ctx context.Context, userID string) ([]models.Contract, error) {
	query := `
		SELECT id, user_id, link_hash, status, created_at, updated_at
		FROM user_contracts
		WHERE user_id = $1
		ORDER BY created_at DESC
	`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, common.StorageError("contracts.list", err)
	}
	defer rows.Close()

	result := make([]models.Contract, 0)
	for rows.Next() {
		var c models.Contract
		var status string
		if err := rows.Scan(&c.ID, &c.UserID, &c.LinkHash, &status, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, common.StorageError("contracts.list", err)
		}
		c.Status = models.ContractStatus(status)
		result = append(result, c)
	}
	if err := rows.Err(); err != nil {
		return nil, common.StorageError("contracts.list", err)
	}
	return result, nil
}

// FindByLinkForUpdate locks the matching row for the rest of the transaction.
func (r *PostgresRepository) FindByLinkForUpdate(ctx context.Context, userID, linkHash string) (*models.Contract, error) {
	query := `
		SELECT id, user_id, link_hash, status, created_at, updated_at
		FROM user_contracts
		WHERE user_id = $1 AND link_hash = $2
		FOR UPDATE
	`
	c := &models.Contract{}
	var status string
	err := r.db.QueryRowContext(ctx, query, userID, linkHash).Scan(&c.ID, &c.UserID, &c.LinkHash, &status, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, common.StorageError("contracts.find", err)
	}
	c.Status = models.ContractStatus(status)
	return c, nil
}

func (r *PostgresRepository) UpdateStatus(ctx context.Context, id string, status models.ContractStatus) (*models.Contract, error) {
	query := `
		UPDATE user_contracts
		SET status = $2, updated_at = now()
		WHERE id = $1
		RETURNING id, user_id, link_hash, status, created_at, updated_at
	`
	c := &models.Contract{}
	var st string
	err := r.db.QueryRowContext(ctx, query, id, string(status)).Scan(&c.ID, &c.UserID, &c.LinkHash, &st, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, common.StorageError("contracts.update_status", err)
	}
	c.Status = models.ContractStatus(st)
	return c, nil
}
