package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"marketplace-service/internal/models"

	"github.com/jmoiron/sqlx"
)

// RewardStore owns per-identity reward accounts.
type RewardStore interface {
	Get(ctx context.Context, partyID string) (*models.RewardAccount, error)
	Upsert(ctx context.Context, account *models.RewardAccount) error
}

type RewardRepository struct {
	db *sqlx.DB
}

func NewRewardRepository(db *sqlx.DB) *RewardRepository {
	return &RewardRepository{db: db}
}

// Get retrieves the reward account for an identity
func (r *RewardRepository) Get(ctx context.Context, partyID string) (*models.RewardAccount, error) {
	var account models.RewardAccount
	query := `
		SELECT party_id, balance, review_score, info_score, review_count, updated_at
		FROM reward_account
		WHERE party_id = $1
	`

	err := r.db.GetContext(ctx, &account, query, partyID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("reward account %s: %w", partyID, models.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get reward account: %w", err)
	}

	return &account, nil
}

func (r *RewardRepository) Upsert(ctx context.Context, account *models.RewardAccount) error {
	query := `
		INSERT INTO reward_account (party_id, balance, review_score, info_score, review_count, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (party_id) DO UPDATE
		SET balance = EXCLUDED.balance, review_score = EXCLUDED.review_score,
		    info_score = EXCLUDED.info_score, review_count = EXCLUDED.review_count,
		    updated_at = EXCLUDED.updated_at
	`

	_, err := r.db.ExecContext(ctx, query,
		account.PartyID, account.Balance, account.ReviewScore, account.InfoScore,
		account.ReviewCount, account.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert reward account: %w", err)
	}

	return nil
}
