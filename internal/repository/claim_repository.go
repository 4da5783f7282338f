package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"marketplace-service/internal/models"

	"github.com/jmoiron/sqlx"
)

// ClaimStore owns claim rows. A contract has at most one unresolved claim;
// GetLatestByContract returns the most recent one either way.
type ClaimStore interface {
	Create(ctx context.Context, claim *models.Claim) error
	GetByID(ctx context.Context, id int64) (*models.Claim, error)
	GetLatestByContract(ctx context.Context, contractID int64) (*models.Claim, error)
	Update(ctx context.Context, claim *models.Claim) error
}

type ClaimRepository struct {
	db *sqlx.DB
}

func NewClaimRepository(db *sqlx.DB) *ClaimRepository {
	return &ClaimRepository{db: db}
}

func (r *ClaimRepository) Create(ctx context.Context, claim *models.Claim) error {
	query := `
		INSERT INTO claim (contract_id, claimant, amount, description, evidence,
		                   submitted_at, verification_deadline, oracles, votes,
		                   verification_count, rejection_count, processed,
		                   approved, auto_rejected, payout_amount)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		RETURNING id
	`

	err := r.db.QueryRowContext(ctx, query,
		claim.ContractID, claim.Claimant, claim.Amount, claim.Description,
		claim.Evidence, claim.SubmittedAt, claim.VerificationDeadline,
		claim.Oracles, claim.Votes, claim.VerificationCount, claim.RejectionCount,
		claim.Processed, claim.Approved, claim.AutoRejected, claim.PayoutAmount).Scan(&claim.ID)
	if err != nil {
		return fmt.Errorf("failed to create claim: %w", err)
	}

	return nil
}

// GetByID retrieves a claim by its ID
func (r *ClaimRepository) GetByID(ctx context.Context, id int64) (*models.Claim, error) {
	var claim models.Claim
	query := `
		SELECT id, contract_id, claimant, amount, description, evidence,
		       submitted_at, verification_deadline, oracles, votes,
		       verification_count, rejection_count, processed, approved,
		       auto_rejected, payout_amount
		FROM claim
		WHERE id = $1
	`

	err := r.db.GetContext(ctx, &claim, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("claim %d: %w", id, models.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get claim by id: %w", err)
	}

	return &claim, nil
}

// GetLatestByContract retrieves the most recent claim for a contract
func (r *ClaimRepository) GetLatestByContract(ctx context.Context, contractID int64) (*models.Claim, error) {
	var claim models.Claim
	query := `
		SELECT id, contract_id, claimant, amount, description, evidence,
		       submitted_at, verification_deadline, oracles, votes,
		       verification_count, rejection_count, processed, approved,
		       auto_rejected, payout_amount
		FROM claim
		WHERE contract_id = $1
		ORDER BY id DESC
		LIMIT 1
	`

	err := r.db.GetContext(ctx, &claim, query, contractID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("claim for contract %d: %w", contractID, models.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get claim by contract: %w", err)
	}

	return &claim, nil
}

func (r *ClaimRepository) Update(ctx context.Context, claim *models.Claim) error {
	query := `
		UPDATE claim
		SET evidence = $2, oracles = $3, votes = $4, verification_count = $5,
		    rejection_count = $6, processed = $7, approved = $8,
		    auto_rejected = $9, payout_amount = $10
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query,
		claim.ID, claim.Evidence, claim.Oracles, claim.Votes,
		claim.VerificationCount, claim.RejectionCount, claim.Processed,
		claim.Approved, claim.AutoRejected, claim.PayoutAmount)
	if err != nil {
		return fmt.Errorf("failed to update claim: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("claim %d: %w", claim.ID, models.ErrNotFound)
	}

	return nil
}
