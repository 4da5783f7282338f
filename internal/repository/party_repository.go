package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"marketplace-service/internal/models"

	"github.com/jmoiron/sqlx"
)

// PartyStore owns the registered insurer and oracle identities. Rows are
// never deleted.
type PartyStore interface {
	Upsert(ctx context.Context, party *models.Party) error
	Get(ctx context.Context, id string) (*models.Party, error)
	HasRole(ctx context.Context, id string, role models.PartyRole) (bool, error)
	ListByRole(ctx context.Context, role models.PartyRole) ([]models.Party, error)
}

type PartyRepository struct {
	db *sqlx.DB
}

func NewPartyRepository(db *sqlx.DB) *PartyRepository {
	return &PartyRepository{db: db}
}

func (r *PartyRepository) Upsert(ctx context.Context, party *models.Party) error {
	query := `
		INSERT INTO party (id, role, registered_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET role = EXCLUDED.role
	`

	_, err := r.db.ExecContext(ctx, query, party.ID, party.Role, party.RegisteredAt)
	if err != nil {
		return fmt.Errorf("failed to upsert party: %w", err)
	}

	return nil
}

// Get retrieves a party by identity
func (r *PartyRepository) Get(ctx context.Context, id string) (*models.Party, error) {
	var party models.Party
	query := `SELECT id, role, registered_at FROM party WHERE id = $1`

	err := r.db.GetContext(ctx, &party, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("party %s: %w", id, models.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get party: %w", err)
	}

	return &party, nil
}

// HasRole checks whether the identity is registered with the given role
func (r *PartyRepository) HasRole(ctx context.Context, id string, role models.PartyRole) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM party WHERE id = $1 AND role = $2)`

	err := r.db.GetContext(ctx, &exists, query, id, role)
	if err != nil {
		return false, fmt.Errorf("failed to check party role: %w", err)
	}

	return exists, nil
}

// ListByRole retrieves all parties registered with the given role
func (r *PartyRepository) ListByRole(ctx context.Context, role models.PartyRole) ([]models.Party, error) {
	var parties []models.Party
	query := `SELECT id, role, registered_at FROM party WHERE role = $1 ORDER BY registered_at ASC`

	err := r.db.SelectContext(ctx, &parties, query, role)
	if err != nil {
		return nil, fmt.Errorf("failed to list parties by role: %w", err)
	}

	return parties, nil
}
