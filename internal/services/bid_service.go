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

// BidService owns the insurer side of the marketplace: placing, modifying,
// and cancelling offers against open proposals.
type BidService struct {
	bidRepo      repository.BidStore
	proposalRepo repository.ProposalStore
	partyRepo    repository.PartyStore
	publisher    Publisher
	clock        Clock
	locks        *KeyedMutex
	cfg          config.MarketplaceConfig
}

func NewBidService(
	bidRepo repository.BidStore,
	proposalRepo repository.ProposalStore,
	partyRepo repository.PartyStore,
	publisher Publisher,
	clock Clock,
	locks *KeyedMutex,
	cfg config.MarketplaceConfig,
) *BidService {
	if clock == nil {
		clock = SystemClock
	}
	if locks == nil {
		locks = NewKeyedMutex()
	}
	return &BidService{
		bidRepo:      bidRepo,
		proposalRepo: proposalRepo,
		partyRepo:    partyRepo,
		publisher:    publisher,
		clock:        clock,
		locks:        locks,
		cfg:          cfg,
	}
}

// PlaceBid submits an offer against an open proposal. The caller must be a
// registered insurance company.
func (s *BidService) PlaceBid(ctx context.Context, insurer string, req models.PlaceBidRequest) (*models.Bid, error) {
	isInsurer, err := s.partyRepo.HasRole(ctx, insurer, models.RoleInsurer)
	if err != nil {
		return nil, fmt.Errorf("failed to check insurer registration: %w", err)
	}
	if !isInsurer {
		return nil, fmt.Errorf("party %s is not a registered insurance company: %w", insurer, models.ErrUnauthorized)
	}

	if err := validateBidTerms(req.Premium, req.Coverage, req.Terms); err != nil {
		return nil, err
	}
	if req.BidDuration < s.cfg.MinBidDuration || req.BidDuration > s.cfg.MaxBidDuration {
		return nil, fmt.Errorf("bid duration must be within [%d, %d] seconds: %w",
			s.cfg.MinBidDuration, s.cfg.MaxBidDuration, models.ErrValidation)
	}

	unlock := s.locks.Lock(proposalKey(req.ProposalID))
	defer unlock()

	proposal, err := s.proposalRepo.GetByID(ctx, req.ProposalID)
	if err != nil {
		return nil, err
	}
	now := s.clock()
	if !proposal.Active || proposal.Finalized {
		return nil, fmt.Errorf("proposal %d is not open for bidding: %w", req.ProposalID, models.ErrInvalidState)
	}
	if now > proposal.Deadline {
		return nil, fmt.Errorf("proposal %d bidding window closed: %w", req.ProposalID, models.ErrExpired)
	}
	if req.Coverage < proposal.Premium {
		return nil, fmt.Errorf("offered coverage below requested premium: %w", models.ErrValidation)
	}

	bid := &models.Bid{
		ProposalID:  req.ProposalID,
		Insurer:     insurer,
		Premium:     req.Premium,
		Coverage:    req.Coverage,
		Terms:       req.Terms,
		BidDuration: req.BidDuration,
		CreatedAt:   now,
		BidDeadline: now + req.BidDuration,
		Active:      true,
	}
	if err := s.bidRepo.Create(ctx, bid); err != nil {
		return nil, fmt.Errorf("failed to place bid: %w", err)
	}

	event := models.NewEvent(models.EventBidSubmitted, insurer, now)
	event.ProposalID = req.ProposalID
	event.BidID = bid.ID
	event.Premium = bid.Premium
	event.Coverage = bid.Coverage
	emit(ctx, s.publisher, event)

	slog.Info("Bid placed", "bid_id", bid.ID, "proposal_id", req.ProposalID, "insurer", insurer)
	return bid, nil
}

// ModifyBid updates the terms of an active bid before its deadline.
func (s *BidService) ModifyBid(ctx context.Context, insurer string, bidID int64, req models.ModifyBidRequest) (*models.Bid, error) {
	if err := validateBidTerms(req.Premium, req.Coverage, req.Terms); err != nil {
		return nil, err
	}

	bid, err := s.bidRepo.GetByID(ctx, bidID)
	if err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(proposalKey(bid.ProposalID))
	defer unlock()

	// Re-read under the lock; a cancel or acceptance may have committed
	// while this call waited.
	bid, err = s.bidRepo.GetByID(ctx, bidID)
	if err != nil {
		return nil, err
	}
	if bid.Insurer != insurer {
		return nil, fmt.Errorf("only the bidding insurer can modify: %w", models.ErrUnauthorized)
	}
	if err := s.ensureBidMutable(ctx, bid); err != nil {
		return nil, err
	}

	bid.Premium = req.Premium
	bid.Coverage = req.Coverage
	bid.Terms = req.Terms
	if err := s.bidRepo.Update(ctx, bid); err != nil {
		return nil, fmt.Errorf("failed to modify bid: %w", err)
	}

	event := models.NewEvent(models.EventBidUpdated, insurer, s.clock())
	event.ProposalID = bid.ProposalID
	event.BidID = bid.ID
	event.Premium = bid.Premium
	event.Coverage = bid.Coverage
	emit(ctx, s.publisher, event)

	slog.Info("Bid modified", "bid_id", bidID, "insurer", insurer)
	return bid, nil
}

// CancelBid withdraws an active bid before its deadline.
func (s *BidService) CancelBid(ctx context.Context, insurer string, bidID int64) (*models.Bid, error) {
	bid, err := s.bidRepo.GetByID(ctx, bidID)
	if err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(proposalKey(bid.ProposalID))
	defer unlock()

	bid, err = s.bidRepo.GetByID(ctx, bidID)
	if err != nil {
		return nil, err
	}
	if bid.Insurer != insurer {
		return nil, fmt.Errorf("only the bidding insurer can cancel: %w", models.ErrUnauthorized)
	}
	if err := s.ensureBidMutable(ctx, bid); err != nil {
		return nil, err
	}

	bid.Active = false
	if err := s.bidRepo.Update(ctx, bid); err != nil {
		return nil, fmt.Errorf("failed to cancel bid: %w", err)
	}

	event := models.NewEvent(models.EventBidCancelled, insurer, s.clock())
	event.ProposalID = bid.ProposalID
	event.BidID = bid.ID
	emit(ctx, s.publisher, event)

	slog.Info("Bid cancelled", "bid_id", bidID, "insurer", insurer)
	return bid, nil
}

// ensureBidMutable re-checks bid and proposal state under the proposal lock.
func (s *BidService) ensureBidMutable(ctx context.Context, bid *models.Bid) error {
	if !bid.Active {
		return fmt.Errorf("bid %d is no longer active: %w", bid.ID, models.ErrInvalidState)
	}
	if s.clock() > bid.BidDeadline {
		return fmt.Errorf("bid %d deadline passed: %w", bid.ID, models.ErrExpired)
	}

	proposal, err := s.proposalRepo.GetByID(ctx, bid.ProposalID)
	if err != nil {
		return err
	}
	if proposal.Finalized {
		return fmt.Errorf("proposal %d already finalized: %w", bid.ProposalID, models.ErrInvalidState)
	}
	return nil
}

func (s *BidService) GetBid(ctx context.Context, bidID int64) (*models.Bid, error) {
	return s.bidRepo.GetByID(ctx, bidID)
}

func (s *BidService) ListByProposal(ctx context.Context, proposalID int64) ([]models.Bid, error) {
	return s.bidRepo.ListByProposal(ctx, proposalID)
}

func (s *BidService) ListByInsurer(ctx context.Context, insurer string) ([]models.Bid, error) {
	return s.bidRepo.ListByInsurer(ctx, insurer)
}

func validateBidTerms(premium, coverage int64, terms string) error {
	if premium <= 0 {
		return fmt.Errorf("premium must be positive: %w", models.ErrValidation)
	}
	if coverage < premium {
		return fmt.Errorf("coverage must be at least the premium: %w", models.ErrValidation)
	}
	if strings.TrimSpace(terms) == "" {
		return fmt.Errorf("terms are required: %w", models.ErrValidation)
	}
	return nil
}
