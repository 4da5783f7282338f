package services

import (
	"context"
	"fmt"
	"log/slog"
	"marketplace-service/internal/config"
	"marketplace-service/internal/models"
	"marketplace-service/internal/repository"
	"strings"
)

// ProposalService owns the coverage-request side of the marketplace.
type ProposalService struct {
	proposalRepo repository.ProposalStore
	bidRepo      repository.BidStore
	publisher    Publisher
	clock        Clock
	locks        *KeyedMutex
	cfg          config.MarketplaceConfig
}

func NewProposalService(
	proposalRepo repository.ProposalStore,
	bidRepo repository.BidStore,
	publisher Publisher,
	clock Clock,
	locks *KeyedMutex,
	cfg config.MarketplaceConfig,
) *ProposalService {
	if clock == nil {
		clock = SystemClock
	}
	if locks == nil {
		locks = NewKeyedMutex()
	}
	return &ProposalService{
		proposalRepo: proposalRepo,
		bidRepo:      bidRepo,
		publisher:    publisher,
		clock:        clock,
		locks:        locks,
		cfg:          cfg,
	}
}

// CreateProposal posts a new coverage request open for bidding until its
// deadline.
func (s *ProposalService) CreateProposal(ctx context.Context, proposer string, req models.CreateProposalRequest) (*models.Proposal, error) {
	if strings.TrimSpace(req.Title) == "" {
		return nil, fmt.Errorf("title is required: %w", models.ErrValidation)
	}
	if strings.TrimSpace(req.Description) == "" {
		return nil, fmt.Errorf("description is required: %w", models.ErrValidation)
	}
	if req.Premium <= 0 {
		return nil, fmt.Errorf("premium must be positive: %w", models.ErrValidation)
	}
	if req.Coverage < req.Premium {
		return nil, fmt.Errorf("coverage must be at least the premium: %w", models.ErrValidation)
	}
	if s.cfg.MaxCoverageLimit > 0 && req.Coverage > s.cfg.MaxCoverageLimit {
		return nil, fmt.Errorf("coverage exceeds limit %d: %w", s.cfg.MaxCoverageLimit, models.ErrValidation)
	}
	if req.Duration <= 0 || req.Duration > s.cfg.MaxProposalDuration {
		return nil, fmt.Errorf("duration must be within (0, %d] seconds: %w", s.cfg.MaxProposalDuration, models.ErrValidation)
	}

	now := s.clock()
	proposal := &models.Proposal{
		Proposer:    proposer,
		Title:       req.Title,
		Description: req.Description,
		Premium:     req.Premium,
		Coverage:    req.Coverage,
		Duration:    req.Duration,
		CreatedAt:   now,
		Deadline:    now + req.Duration,
		Active:      true,
	}
	if err := s.proposalRepo.Create(ctx, proposal); err != nil {
		return nil, fmt.Errorf("failed to create proposal: %w", err)
	}

	event := models.NewEvent(models.EventProposalCreated, proposer, now)
	event.ProposalID = proposal.ID
	event.Premium = proposal.Premium
	event.Coverage = proposal.Coverage
	emit(ctx, s.publisher, event)

	slog.Info("Proposal created", "proposal_id", proposal.ID, "proposer", proposer)
	return proposal, nil
}

// CancelProposal withdraws a proposal. Only the proposer may cancel, only
// while the proposal is open, and only if no active bids exist against it.
func (s *ProposalService) CancelProposal(ctx context.Context, proposer string, proposalID int64) (*models.Proposal, error) {
	unlock := s.locks.Lock(proposalKey(proposalID))
	defer unlock()

	proposal, err := s.proposalRepo.GetByID(ctx, proposalID)
	if err != nil {
		return nil, err
	}
	if proposal.Proposer != proposer {
		return nil, fmt.Errorf("only the proposer can cancel: %w", models.ErrUnauthorized)
	}
	if !proposal.Active || proposal.Finalized {
		return nil, fmt.Errorf("proposal %d is not open: %w", proposalID, models.ErrInvalidState)
	}
	if s.clock() > proposal.Deadline {
		return nil, fmt.Errorf("proposal %d bidding window closed: %w", proposalID, models.ErrExpired)
	}

	activeBids, err := s.bidRepo.CountActiveByProposal(ctx, proposalID)
	if err != nil {
		return nil, fmt.Errorf("failed to count bids: %w", err)
	}
	if activeBids > 0 {
		return nil, fmt.Errorf("proposal %d has %d active bids: %w", proposalID, activeBids, models.ErrInvalidState)
	}

	proposal.Active = false
	if err := s.proposalRepo.Update(ctx, proposal); err != nil {
		return nil, fmt.Errorf("failed to cancel proposal: %w", err)
	}

	event := models.NewEvent(models.EventProposalCancelled, proposer, s.clock())
	event.ProposalID = proposalID
	emit(ctx, s.publisher, event)

	slog.Info("Proposal cancelled", "proposal_id", proposalID)
	return proposal, nil
}

func (s *ProposalService) GetProposal(ctx context.Context, proposalID int64) (*models.Proposal, error) {
	return s.proposalRepo.GetByID(ctx, proposalID)
}

func (s *ProposalService) ListProposals(ctx context.Context, activeOnly bool) ([]models.Proposal, error) {
	return s.proposalRepo.List(ctx, activeOnly)
}

func (s *ProposalService) ListByProposer(ctx context.Context, proposer string) ([]models.Proposal, error) {
	return s.proposalRepo.ListByProposer(ctx, proposer)
}
