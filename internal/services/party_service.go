package services

import (
	"context"
	"fmt"
	"log/slog"
	"marketplace-service/internal/models"
	"marketplace-service/internal/repository"
	"strings"
)

// PartyService manages the insurer and oracle registries. Insurers register
// themselves; oracles are registered by the administrator.
type PartyService struct {
	partyRepo repository.PartyStore
	publisher Publisher
	clock     Clock
	adminID   string
}

func NewPartyService(partyRepo repository.PartyStore, publisher Publisher, clock Clock, adminID string) *PartyService {
	if clock == nil {
		clock = SystemClock
	}
	return &PartyService{
		partyRepo: partyRepo,
		publisher: publisher,
		clock:     clock,
		adminID:   adminID,
	}
}

// RegisterInsurer registers the caller as an insurance company. Bidding
// requires this registration; a party registers at most once.
func (s *PartyService) RegisterInsurer(ctx context.Context, actorID string) (*models.Party, error) {
	if strings.TrimSpace(actorID) == "" {
		return nil, fmt.Errorf("party id is required: %w", models.ErrValidation)
	}

	if _, err := s.partyRepo.Get(ctx, actorID); err == nil {
		return nil, fmt.Errorf("party %s already registered: %w", actorID, models.ErrDuplicate)
	}

	party := &models.Party{
		ID:           actorID,
		Role:         models.RoleInsurer,
		RegisteredAt: s.clock(),
	}
	if err := s.partyRepo.Upsert(ctx, party); err != nil {
		return nil, fmt.Errorf("failed to register insurer: %w", err)
	}

	event := models.NewEvent(models.EventInsurerRegistered, actorID, s.clock())
	emit(ctx, s.publisher, event)

	slog.Info("Insurer registered", "party_id", actorID)
	return party, nil
}

// RegisterOracle registers an oracle identity. Administrator only.
func (s *PartyService) RegisterOracle(ctx context.Context, actorID, oracleID string) (*models.Party, error) {
	if actorID != s.adminID {
		return nil, fmt.Errorf("only the administrator can register oracles: %w", models.ErrUnauthorized)
	}
	if strings.TrimSpace(oracleID) == "" {
		return nil, fmt.Errorf("oracle id is required: %w", models.ErrValidation)
	}

	if _, err := s.partyRepo.Get(ctx, oracleID); err == nil {
		return nil, fmt.Errorf("party %s already registered: %w", oracleID, models.ErrDuplicate)
	}

	party := &models.Party{
		ID:           oracleID,
		Role:         models.RoleOracle,
		RegisteredAt: s.clock(),
	}
	if err := s.partyRepo.Upsert(ctx, party); err != nil {
		return nil, fmt.Errorf("failed to register oracle: %w", err)
	}

	event := models.NewEvent(models.EventOracleRegistered, actorID, s.clock())
	event.Data = map[string]any{"oracle_id": oracleID}
	emit(ctx, s.publisher, event)

	slog.Info("Oracle registered", "oracle_id", oracleID, "registered_by", actorID)
	return party, nil
}

func (s *PartyService) GetParty(ctx context.Context, id string) (*models.Party, error) {
	return s.partyRepo.Get(ctx, id)
}

func (s *PartyService) ListOracles(ctx context.Context) ([]models.Party, error) {
	return s.partyRepo.ListByRole(ctx, models.RoleOracle)
}

func (s *PartyService) ListInsurers(ctx context.Context) ([]models.Party, error) {
	return s.partyRepo.ListByRole(ctx, models.RoleInsurer)
}
