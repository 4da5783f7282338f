package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"marketplace-service/internal/config"
	"marketplace-service/internal/models"
	"marketplace-service/internal/repository"
)

// ContractService turns accepted bids into binding contracts and runs the
// expiration sweep.
type ContractService struct {
	contractRepo repository.ContractStore
	proposalRepo repository.ProposalStore
	bidRepo      repository.BidStore
	claimRepo    repository.ClaimStore
	publisher    Publisher
	clock        Clock
	locks        *KeyedMutex
	cfg          config.MarketplaceConfig
}

func NewContractService(
	contractRepo repository.ContractStore,
	proposalRepo repository.ProposalStore,
	bidRepo repository.BidStore,
	claimRepo repository.ClaimStore,
	publisher Publisher,
	clock Clock,
	locks *KeyedMutex,
	cfg config.MarketplaceConfig,
) *ContractService {
	if clock == nil {
		clock = SystemClock
	}
	if locks == nil {
		locks = NewKeyedMutex()
	}
	return &ContractService{
		contractRepo: contractRepo,
		proposalRepo: proposalRepo,
		bidRepo:      bidRepo,
		claimRepo:    claimRepo,
		publisher:    publisher,
		clock:        clock,
		locks:        locks,
		cfg:          cfg,
	}
}

// AcceptBid finalizes a proposal against one of its bids and creates the
// contract. Only the proposer may accept, the bid must belong to the
// proposal, and both must still be live. The accepted bid is deactivated
// and the proposal finalized so no further bids or acceptances can land.
func (s *ContractService) AcceptBid(ctx context.Context, proposer string, req models.AcceptBidRequest) (*models.Contract, error) {
	unlock := s.locks.Lock(proposalKey(req.ProposalID))
	defer unlock()

	proposal, err := s.proposalRepo.GetByID(ctx, req.ProposalID)
	if err != nil {
		return nil, err
	}
	if proposal.Proposer != proposer {
		return nil, fmt.Errorf("only the proposer can accept a bid: %w", models.ErrUnauthorized)
	}
	if !proposal.Active || proposal.Finalized {
		return nil, fmt.Errorf("proposal %d is not open: %w", req.ProposalID, models.ErrInvalidState)
	}

	bid, err := s.bidRepo.GetByID(ctx, req.BidID)
	if err != nil {
		return nil, err
	}
	if bid.ProposalID != req.ProposalID {
		return nil, fmt.Errorf("bid %d does not belong to proposal %d: %w", req.BidID, req.ProposalID, models.ErrValidation)
	}
	if !bid.Active {
		return nil, fmt.Errorf("bid %d is no longer active: %w", req.BidID, models.ErrInvalidState)
	}

	now := s.clock()
	if now > bid.BidDeadline {
		return nil, fmt.Errorf("bid %d deadline passed: %w", req.BidID, models.ErrExpired)
	}

	duration := req.ContractDuration
	if duration <= 0 {
		duration = proposal.Duration
	}
	if duration > s.cfg.MaxProposalDuration {
		return nil, fmt.Errorf("contract duration exceeds %d seconds: %w", s.cfg.MaxProposalDuration, models.ErrValidation)
	}

	contract := &models.Contract{
		ProposalID: proposal.ID,
		BidID:      bid.ID,
		Proposer:   proposal.Proposer,
		Insurer:    bid.Insurer,
		Premium:    bid.Premium,
		Coverage:   bid.Coverage,
		Terms:      bid.Terms,
		StartDate:  now,
		EndDate:    now + duration,
		Status:     models.ContractActive,
	}
	if err := s.contractRepo.Create(ctx, contract); err != nil {
		return nil, fmt.Errorf("failed to create contract: %w", err)
	}

	proposal.Finalized = true
	if err := s.proposalRepo.Update(ctx, proposal); err != nil {
		return nil, fmt.Errorf("failed to finalize proposal: %w", err)
	}
	bid.Active = false
	if err := s.bidRepo.Update(ctx, bid); err != nil {
		return nil, fmt.Errorf("failed to deactivate accepted bid: %w", err)
	}

	event := models.NewEvent(models.EventContractCreated, proposer, now)
	event.ProposalID = proposal.ID
	event.BidID = bid.ID
	event.ContractID = contract.ID
	event.Premium = contract.Premium
	event.Coverage = contract.Coverage
	emit(ctx, s.publisher, event)

	slog.Info("Contract created", "contract_id", contract.ID, "proposal_id", proposal.ID, "bid_id", bid.ID)
	return contract, nil
}

func (s *ContractService) GetContract(ctx context.Context, contractID int64) (*models.Contract, error) {
	return s.contractRepo.GetByID(ctx, contractID)
}

func (s *ContractService) ListByParty(ctx context.Context, party string) ([]models.Contract, error) {
	return s.contractRepo.ListByParty(ctx, party)
}

// ExpireContracts moves active contracts past their end date to expired.
// Contracts with a claim still under verification are skipped; the claim
// lifecycle decides their final state. Returns the number expired.
func (s *ContractService) ExpireContracts(ctx context.Context) (int, error) {
	now := s.clock()
	candidates, err := s.contractRepo.ListExpirable(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("failed to list expirable contracts: %w", err)
	}

	expired := 0
	for _, candidate := range candidates {
		unlock := s.locks.Lock(contractKey(candidate.ID))

		contract, err := s.contractRepo.GetByID(ctx, candidate.ID)
		if err != nil {
			unlock()
			slog.Error("Expiration sweep: failed to reload contract", "contract_id", candidate.ID, "error", err)
			continue
		}
		if contract.Status != models.ContractActive || contract.EndDate >= now {
			unlock()
			continue
		}

		claim, err := s.claimRepo.GetLatestByContract(ctx, contract.ID)
		if err != nil && !errors.Is(err, models.ErrNotFound) {
			unlock()
			slog.Error("Expiration sweep: failed to load claim", "contract_id", contract.ID, "error", err)
			continue
		}
		if claim != nil && claim.Open() {
			unlock()
			continue
		}

		contract.Status = models.ContractExpired
		if err := s.contractRepo.Update(ctx, contract); err != nil {
			unlock()
			slog.Error("Expiration sweep: failed to expire contract", "contract_id", contract.ID, "error", err)
			continue
		}
		unlock()

		event := models.NewEvent(models.EventContractExpired, "system", now)
		event.ContractID = contract.ID
		emit(ctx, s.publisher, event)
		expired++
	}

	if expired > 0 {
		slog.Info("Expiration sweep completed", "expired", expired)
	}
	return expired, nil
}
