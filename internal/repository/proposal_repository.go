package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"marketplace-service/internal/models"

	"github.com/jmoiron/sqlx"
)

// ProposalStore owns proposal rows. Implementations assign the monotonic id
// on Create.
type ProposalStore interface {
	Create(ctx context.Context, proposal *models.Proposal) error
	GetByID(ctx context.Context, id int64) (*models.Proposal, error)
	Update(ctx context.Context, proposal *models.Proposal) error
	List(ctx context.Context, activeOnly bool) ([]models.Proposal, error)
	ListByProposer(ctx context.Context, proposer string) ([]models.Proposal, error)
}

type ProposalRepository struct {
	db *sqlx.DB
}

func NewProposalRepository(db *sqlx.DB) *ProposalRepository {
	return &ProposalRepository{db: db}
}

func (r *ProposalRepository) Create(ctx context.Context, proposal *models.Proposal) error {
	query := `
		INSERT INTO proposal (proposer, title, description, premium, coverage,
		                      duration, created_at, deadline, active, finalized)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id
	`

	err := r.db.QueryRowContext(ctx, query,
		proposal.Proposer, proposal.Title, proposal.Description, proposal.Premium,
		proposal.Coverage, proposal.Duration, proposal.CreatedAt, proposal.Deadline,
		proposal.Active, proposal.Finalized).Scan(&proposal.ID)
	if err != nil {
		return fmt.Errorf("failed to create proposal: %w", err)
	}

	return nil
}

// GetByID retrieves a proposal by its ID
func (r *ProposalRepository) GetByID(ctx context.Context, id int64) (*models.Proposal, error) {
	var proposal models.Proposal
	query := `
		SELECT id, proposer, title, description, premium, coverage, duration,
		       created_at, deadline, active, finalized
		FROM proposal
		WHERE id = $1
	`

	err := r.db.GetContext(ctx, &proposal, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("proposal %d: %w", id, models.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get proposal by id: %w", err)
	}

	return &proposal, nil
}

func (r *ProposalRepository) Update(ctx context.Context, proposal *models.Proposal) error {
	query := `
		UPDATE proposal
		SET title = $2, description = $3, premium = $4, coverage = $5,
		    duration = $6, deadline = $7, active = $8, finalized = $9
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query,
		proposal.ID, proposal.Title, proposal.Description, proposal.Premium,
		proposal.Coverage, proposal.Duration, proposal.Deadline, proposal.Active,
		proposal.Finalized)
	if err != nil {
		return fmt.Errorf("failed to update proposal: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("proposal %d: %w", proposal.ID, models.ErrNotFound)
	}

	return nil
}

// List retrieves proposals, optionally only the ones still open for bidding
func (r *ProposalRepository) List(ctx context.Context, activeOnly bool) ([]models.Proposal, error) {
	var proposals []models.Proposal
	query := `
		SELECT id, proposer, title, description, premium, coverage, duration,
		       created_at, deadline, active, finalized
		FROM proposal
	`
	if activeOnly {
		query += " WHERE active = TRUE AND finalized = FALSE"
	}
	query += " ORDER BY created_at DESC"

	err := r.db.SelectContext(ctx, &proposals, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list proposals: %w", err)
	}

	return proposals, nil
}

// ListByProposer retrieves proposals created by the given identity
func (r *ProposalRepository) ListByProposer(ctx context.Context, proposer string) ([]models.Proposal, error) {
	var proposals []models.Proposal
	query := `
		SELECT id, proposer, title, description, premium, coverage, duration,
		       created_at, deadline, active, finalized
		FROM proposal
		WHERE proposer = $1
		ORDER BY created_at DESC
	`

	err := r.db.SelectContext(ctx, &proposals, query, proposer)
	if err != nil {
		return nil, fmt.Errorf("failed to list proposals by proposer: %w", err)
	}

	return proposals, nil
}
