package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"marketplace-service/internal/models"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// ReviewStore owns review rows keyed by contract id.
type ReviewStore interface {
	Create(ctx context.Context, review *models.Review) error
	GetByContract(ctx context.Context, contractID int64) (*models.Review, error)
	Update(ctx context.Context, review *models.Review) error
}

type ReviewRepository struct {
	db *sqlx.DB
}

func NewReviewRepository(db *sqlx.DB) *ReviewRepository {
	return &ReviewRepository{db: db}
}

func (r *ReviewRepository) Create(ctx context.Context, review *models.Review) error {
	query := `
		INSERT INTO review (contract_id, reviewer, content, rating, additional_info,
		                    under_review, report_reason, reported_by, deleted,
		                    created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := r.db.ExecContext(ctx, query,
		review.ContractID, review.Reviewer, review.Content, review.Rating,
		review.AdditionalInfo, review.UnderReview, review.ReportReason,
		review.ReportedBy, review.Deleted, review.CreatedAt, review.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("review for contract %d already exists: %w", review.ContractID, models.ErrDuplicate)
		}
		return fmt.Errorf("failed to create review: %w", err)
	}

	return nil
}

// isUniqueViolation reports whether err is a postgres unique-key violation.
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

// GetByContract retrieves the review for a contract
func (r *ReviewRepository) GetByContract(ctx context.Context, contractID int64) (*models.Review, error) {
	var review models.Review
	query := `
		SELECT contract_id, reviewer, content, rating, additional_info,
		       under_review, report_reason, reported_by, deleted, created_at,
		       updated_at
		FROM review
		WHERE contract_id = $1
	`

	err := r.db.GetContext(ctx, &review, query, contractID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("review for contract %d: %w", contractID, models.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get review by contract: %w", err)
	}

	return &review, nil
}

func (r *ReviewRepository) Update(ctx context.Context, review *models.Review) error {
	query := `
		UPDATE review
		SET content = $2, rating = $3, additional_info = $4, under_review = $5,
		    report_reason = $6, reported_by = $7, deleted = $8, updated_at = $9
		WHERE contract_id = $1
	`

	result, err := r.db.ExecContext(ctx, query,
		review.ContractID, review.Content, review.Rating, review.AdditionalInfo,
		review.UnderReview, review.ReportReason, review.ReportedBy,
		review.Deleted, review.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to update review: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("review for contract %d: %w", review.ContractID, models.ErrNotFound)
	}

	return nil
}
