package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"marketplace-service/internal/models"

	"github.com/jmoiron/sqlx"
)

// ContractStore owns contract rows. Contracts are append-only except for the
// status/claimed transitions.
type ContractStore interface {
	Create(ctx context.Context, contract *models.Contract) error
	GetByID(ctx context.Context, id int64) (*models.Contract, error)
	Update(ctx context.Context, contract *models.Contract) error
	ListByParty(ctx context.Context, party string) ([]models.Contract, error)
	ListExpirable(ctx context.Context, now int64) ([]models.Contract, error)
}

type ContractRepository struct {
	db *sqlx.DB
}

func NewContractRepository(db *sqlx.DB) *ContractRepository {
	return &ContractRepository{db: db}
}

func (r *ContractRepository) Create(ctx context.Context, contract *models.Contract) error {
	query := `
		INSERT INTO contract (proposal_id, bid_id, proposer, insurer, premium,
		                      coverage, terms, start_date, end_date, status, claimed)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id
	`

	err := r.db.QueryRowContext(ctx, query,
		contract.ProposalID, contract.BidID, contract.Proposer, contract.Insurer,
		contract.Premium, contract.Coverage, contract.Terms, contract.StartDate,
		contract.EndDate, contract.Status, contract.Claimed).Scan(&contract.ID)
	if err != nil {
		return fmt.Errorf("failed to create contract: %w", err)
	}

	return nil
}

// GetByID retrieves a contract by its ID
func (r *ContractRepository) GetByID(ctx context.Context, id int64) (*models.Contract, error) {
	var contract models.Contract
	query := `
		SELECT id, proposal_id, bid_id, proposer, insurer, premium, coverage,
		       terms, start_date, end_date, status, claimed
		FROM contract
		WHERE id = $1
	`

	err := r.db.GetContext(ctx, &contract, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("contract %d: %w", id, models.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get contract by id: %w", err)
	}

	return &contract, nil
}

func (r *ContractRepository) Update(ctx context.Context, contract *models.Contract) error {
	query := `
		UPDATE contract
		SET status = $2, claimed = $3
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query, contract.ID, contract.Status, contract.Claimed)
	if err != nil {
		return fmt.Errorf("failed to update contract: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("contract %d: %w", contract.ID, models.ErrNotFound)
	}

	return nil
}

// ListByParty retrieves contracts where the identity is proposer or insurer
func (r *ContractRepository) ListByParty(ctx context.Context, party string) ([]models.Contract, error) {
	var contracts []models.Contract
	query := `
		SELECT id, proposal_id, bid_id, proposer, insurer, premium, coverage,
		       terms, start_date, end_date, status, claimed
		FROM contract
		WHERE proposer = $1 OR insurer = $1
		ORDER BY start_date DESC
	`

	err := r.db.SelectContext(ctx, &contracts, query, party)
	if err != nil {
		return nil, fmt.Errorf("failed to list contracts by party: %w", err)
	}

	return contracts, nil
}

// ListExpirable retrieves active contracts whose coverage window has passed,
// for the expiration sweep.
func (r *ContractRepository) ListExpirable(ctx context.Context, now int64) ([]models.Contract, error) {
	var contracts []models.Contract
	query := `
		SELECT id, proposal_id, bid_id, proposer, insurer, premium, coverage,
		       terms, start_date, end_date, status, claimed
		FROM contract
		WHERE status = $1 AND end_date < $2
		ORDER BY end_date ASC
	`

	err := r.db.SelectContext(ctx, &contracts, query, models.ContractActive, now)
	if err != nil {
		return nil, fmt.Errorf("failed to list expirable contracts: %w", err)
	}

	return contracts, nil
}
