package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"marketplace-service/internal/models"

	"github.com/jmoiron/sqlx"
)

// BidStore owns bid rows keyed by a monotonic id.
type BidStore interface {
	Create(ctx context.Context, bid *models.Bid) error
	GetByID(ctx context.Context, id int64) (*models.Bid, error)
	Update(ctx context.Context, bid *models.Bid) error
	ListByProposal(ctx context.Context, proposalID int64) ([]models.Bid, error)
	ListByInsurer(ctx context.Context, insurer string) ([]models.Bid, error)
	CountActiveByProposal(ctx context.Context, proposalID int64) (int, error)
}

type BidRepository struct {
	db *sqlx.DB
}

func NewBidRepository(db *sqlx.DB) *BidRepository {
	return &BidRepository{db: db}
}

func (r *BidRepository) Create(ctx context.Context, bid *models.Bid) error {
	query := `
		INSERT INTO bid (proposal_id, insurer, premium, coverage, terms,
		                 bid_duration, created_at, bid_deadline, active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id
	`

	err := r.db.QueryRowContext(ctx, query,
		bid.ProposalID, bid.Insurer, bid.Premium, bid.Coverage, bid.Terms,
		bid.BidDuration, bid.CreatedAt, bid.BidDeadline, bid.Active).Scan(&bid.ID)
	if err != nil {
		return fmt.Errorf("failed to create bid: %w", err)
	}

	return nil
}

// GetByID retrieves a bid by its ID
func (r *BidRepository) GetByID(ctx context.Context, id int64) (*models.Bid, error) {
	var bid models.Bid
	query := `
		SELECT id, proposal_id, insurer, premium, coverage, terms, bid_duration,
		       created_at, bid_deadline, active
		FROM bid
		WHERE id = $1
	`

	err := r.db.GetContext(ctx, &bid, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("bid %d: %w", id, models.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get bid by id: %w", err)
	}

	return &bid, nil
}

func (r *BidRepository) Update(ctx context.Context, bid *models.Bid) error {
	query := `
		UPDATE bid
		SET premium = $2, coverage = $3, terms = $4, active = $5
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query,
		bid.ID, bid.Premium, bid.Coverage, bid.Terms, bid.Active)
	if err != nil {
		return fmt.Errorf("failed to update bid: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("bid %d: %w", bid.ID, models.ErrNotFound)
	}

	return nil
}

// ListByProposal retrieves all bids placed against a proposal
func (r *BidRepository) ListByProposal(ctx context.Context, proposalID int64) ([]models.Bid, error) {
	var bids []models.Bid
	query := `
		SELECT id, proposal_id, insurer, premium, coverage, terms, bid_duration,
		       created_at, bid_deadline, active
		FROM bid
		WHERE proposal_id = $1
		ORDER BY created_at DESC
	`

	err := r.db.SelectContext(ctx, &bids, query, proposalID)
	if err != nil {
		return nil, fmt.Errorf("failed to list bids by proposal: %w", err)
	}

	return bids, nil
}

// ListByInsurer retrieves all bids placed by an insurer
func (r *BidRepository) ListByInsurer(ctx context.Context, insurer string) ([]models.Bid, error) {
	var bids []models.Bid
	query := `
		SELECT id, proposal_id, insurer, premium, coverage, terms, bid_duration,
		       created_at, bid_deadline, active
		FROM bid
		WHERE insurer = $1
		ORDER BY created_at DESC
	`

	err := r.db.SelectContext(ctx, &bids, query, insurer)
	if err != nil {
		return nil, fmt.Errorf("failed to list bids by insurer: %w", err)
	}

	return bids, nil
}

// CountActiveByProposal counts the live bids on a proposal. Cancellation of a
// proposal is only permitted while this is zero.
func (r *BidRepository) CountActiveByProposal(ctx context.Context, proposalID int64) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM bid WHERE proposal_id = $1 AND active = TRUE`

	err := r.db.GetContext(ctx, &count, query, proposalID)
	if err != nil {
		return 0, fmt.Errorf("failed to count active bids: %w", err)
	}

	return count, nil
}
