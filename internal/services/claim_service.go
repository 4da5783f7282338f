package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"marketplace-service/internal/config"
	"marketplace-service/internal/models"
	"marketplace-service/internal/repository"
	"strings"
	"time"
)

const settledClaimCacheTTL = 10 * time.Minute

// ClaimService adjudicates payout requests through an oracle panel. Every
// transition on a claim runs under the owning contract's lock, the same lock
// claim submission and the expiration sweep take, so vote tallies, the
// timeout transition, and contract settlement never interleave.
type ClaimService struct {
	claimRepo    repository.ClaimStore
	contractRepo repository.ContractStore
	partyRepo    repository.PartyStore
	publisher    Publisher
	cache        Cache
	clock        Clock
	locks        *KeyedMutex
	cfg          config.MarketplaceConfig
	adminID      string
}

func NewClaimService(
	claimRepo repository.ClaimStore,
	contractRepo repository.ContractStore,
	partyRepo repository.PartyStore,
	publisher Publisher,
	cache Cache,
	clock Clock,
	locks *KeyedMutex,
	cfg config.MarketplaceConfig,
	adminID string,
) *ClaimService {
	if clock == nil {
		clock = SystemClock
	}
	if locks == nil {
		locks = NewKeyedMutex()
	}
	return &ClaimService{
		claimRepo:    claimRepo,
		contractRepo: contractRepo,
		partyRepo:    partyRepo,
		publisher:    publisher,
		cache:        cache,
		clock:        clock,
		locks:        locks,
		cfg:          cfg,
		adminID:      adminID,
	}
}

// SubmitClaim files a payout request against an active contract. Only the
// contract holder may claim, the requested amount is capped by the coverage,
// and at most one claim per contract can be under verification at a time.
func (s *ClaimService) SubmitClaim(ctx context.Context, claimant string, contractID int64, req models.SubmitClaimRequest) (*models.Claim, error) {
	if strings.TrimSpace(req.Description) == "" {
		return nil, fmt.Errorf("claim description is required: %w", models.ErrValidation)
	}

	unlock := s.locks.Lock(contractKey(contractID))
	defer unlock()

	contract, err := s.contractRepo.GetByID(ctx, contractID)
	if err != nil {
		return nil, err
	}
	if contract.Proposer != claimant {
		return nil, fmt.Errorf("only the contract holder can submit a claim: %w", models.ErrUnauthorized)
	}
	if contract.Status != models.ContractActive {
		return nil, fmt.Errorf("contract %d is %s: %w", contractID, contract.Status, models.ErrInvalidState)
	}

	now := s.clock()
	if now > contract.EndDate {
		return nil, fmt.Errorf("contract %d coverage period ended: %w", contractID, models.ErrExpired)
	}
	if req.Amount <= 0 || req.Amount > contract.Coverage {
		return nil, fmt.Errorf("claim amount must be within (0, %d]: %w", contract.Coverage, models.ErrValidation)
	}

	if prior, err := s.claimRepo.GetLatestByContract(ctx, contractID); err == nil {
		if prior.Open() && !s.autoRejectIfTimedOut(ctx, prior, now) {
			return nil, fmt.Errorf("contract %d already has a claim under verification: %w", contractID, models.ErrInvalidState)
		}
	} else if !errors.Is(err, models.ErrNotFound) {
		return nil, fmt.Errorf("failed to check prior claims: %w", err)
	}

	claim := &models.Claim{
		ContractID:           contractID,
		Claimant:             claimant,
		Amount:               req.Amount,
		Description:          req.Description,
		Evidence:             append(models.StringList(nil), req.Evidence...),
		SubmittedAt:          now,
		VerificationDeadline: now + s.cfg.ClaimVerificationWindow,
		Oracles:              models.StringList{},
		Votes:                models.VoteMap{},
	}
	if err := s.claimRepo.Create(ctx, claim); err != nil {
		return nil, fmt.Errorf("failed to submit claim: %w", err)
	}

	event := models.NewEvent(models.EventClaimSubmitted, claimant, now)
	event.ContractID = contractID
	event.ClaimID = claim.ID
	event.Amount = claim.Amount
	emit(ctx, s.publisher, event)

	slog.Info("Claim submitted", "claim_id", claim.ID, "contract_id", contractID, "amount", claim.Amount)
	return claim, nil
}

// AssignOracles sets the verification panel for a claim. Administrator only,
// every member must be a registered oracle, and the panel is frozen once the
// first vote lands.
func (s *ClaimService) AssignOracles(ctx context.Context, actor string, claimID int64, oracles []string) (*models.Claim, error) {
	if actor != s.adminID {
		return nil, fmt.Errorf("only the administrator can assign oracles: %w", models.ErrUnauthorized)
	}
	if len(oracles) == 0 {
		return nil, fmt.Errorf("at least one oracle is required: %w", models.ErrValidation)
	}

	seen := make(map[string]struct{}, len(oracles))
	for _, oracle := range oracles {
		if _, dup := seen[oracle]; dup {
			return nil, fmt.Errorf("oracle %s listed twice: %w", oracle, models.ErrValidation)
		}
		seen[oracle] = struct{}{}

		isOracle, err := s.partyRepo.HasRole(ctx, oracle, models.RoleOracle)
		if err != nil {
			return nil, fmt.Errorf("failed to check oracle registration: %w", err)
		}
		if !isOracle {
			return nil, fmt.Errorf("%s is not a registered oracle: %w", oracle, models.ErrValidation)
		}
	}

	claim, unlock, err := s.lockForClaim(ctx, claimID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	now := s.clock()
	if claim.Open() && s.autoRejectIfTimedOut(ctx, claim, now) {
		return nil, fmt.Errorf("claim %d verification window closed: %w", claimID, models.ErrExpired)
	}
	if !claim.Open() {
		return nil, fmt.Errorf("claim %d already processed: %w", claimID, models.ErrInvalidState)
	}
	if len(claim.Votes) > 0 {
		return nil, fmt.Errorf("claim %d panel is frozen after the first vote: %w", claimID, models.ErrInvalidState)
	}

	claim.Oracles = append(models.StringList(nil), oracles...)
	if err := s.claimRepo.Update(ctx, claim); err != nil {
		return nil, fmt.Errorf("failed to assign oracles: %w", err)
	}

	event := models.NewEvent(models.EventOraclesAssigned, actor, now)
	event.ClaimID = claimID
	event.ContractID = claim.ContractID
	event.Data = map[string]any{"oracles": oracles}
	emit(ctx, s.publisher, event)

	slog.Info("Oracles assigned", "claim_id", claimID, "panel_size", len(oracles))
	return claim, nil
}

// SubmitVerification records one oracle's vote and settles the claim when a
// strict majority is reached. A vote after the verification deadline
// auto-rejects the claim and fails with the expiration error.
func (s *ClaimService) SubmitVerification(ctx context.Context, oracle string, claimID int64, req models.OracleVoteRequest) (*models.Claim, error) {
	claim, unlock, err := s.lockForClaim(ctx, claimID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	if !claim.Oracles.Contains(oracle) {
		return nil, fmt.Errorf("%s is not on the verification panel: %w", oracle, models.ErrUnauthorized)
	}
	if !claim.Open() {
		return nil, fmt.Errorf("claim %d already processed: %w", claimID, models.ErrInvalidState)
	}

	now := s.clock()
	if s.autoRejectIfTimedOut(ctx, claim, now) {
		return nil, fmt.Errorf("claim %d verification window closed: %w", claimID, models.ErrExpired)
	}
	if claim.HasVoted(oracle) {
		return nil, fmt.Errorf("oracle %s already voted on claim %d: %w", oracle, claimID, models.ErrDuplicate)
	}

	claim.Votes[oracle] = req.Approve
	if req.Approve {
		claim.VerificationCount++
	} else {
		claim.RejectionCount++
	}
	if evidence := strings.TrimSpace(req.Evidence); evidence != "" {
		claim.Evidence = append(claim.Evidence, evidence)
	}

	s.settleIfDecided(claim)

	if err := s.claimRepo.Update(ctx, claim); err != nil {
		return nil, fmt.Errorf("failed to record verification: %w", err)
	}

	event := models.NewEvent(models.EventOracleVerification, oracle, now)
	event.ClaimID = claimID
	event.ContractID = claim.ContractID
	event.Data = map[string]any{"approve": req.Approve}
	emit(ctx, s.publisher, event)

	if claim.Processed {
		s.finishSettlement(ctx, claim, now)
	}

	slog.Info("Verification recorded", "claim_id", claimID, "oracle", oracle, "approve", req.Approve)
	return claim, nil
}

// GetClaimInfo returns the claim, applying the lazy timeout first so a read
// past the deadline observes the auto-rejected state. Restricted to the
// parties of the contract, the panel, and the administrator.
func (s *ClaimService) GetClaimInfo(ctx context.Context, actor string, claimID int64) (*models.Claim, error) {
	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, settledClaimCacheKey(claimID)); err == nil {
			var claim models.Claim
			if err := json.Unmarshal([]byte(cached), &claim); err == nil {
				if err := s.authorizeClaimRead(ctx, actor, &claim); err != nil {
					return nil, err
				}
				return &claim, nil
			}
		}
	}

	claim, unlock, err := s.lockForClaim(ctx, claimID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	if err := s.authorizeClaimRead(ctx, actor, claim); err != nil {
		return nil, err
	}

	if claim.Open() {
		s.autoRejectIfTimedOut(ctx, claim, s.clock())
	}

	if claim.Processed && s.cache != nil {
		if payload, err := json.Marshal(claim); err == nil {
			if err := s.cache.Set(ctx, settledClaimCacheKey(claimID), string(payload), settledClaimCacheTTL); err != nil {
				slog.Warn("Failed to cache settled claim", "claim_id", claimID, "error", err)
			}
		}
	}
	return claim, nil
}

// AppendEvidence attaches additional evidence URLs to an open claim.
func (s *ClaimService) AppendEvidence(ctx context.Context, claimant string, claimID int64, urls []string) (*models.Claim, error) {
	if len(urls) == 0 {
		return nil, fmt.Errorf("no evidence provided: %w", models.ErrValidation)
	}

	claim, unlock, err := s.lockForClaim(ctx, claimID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	if claim.Claimant != claimant {
		return nil, fmt.Errorf("only the claimant can add evidence: %w", models.ErrUnauthorized)
	}
	if !claim.Open() {
		return nil, fmt.Errorf("claim %d already processed: %w", claimID, models.ErrInvalidState)
	}

	now := s.clock()
	if s.autoRejectIfTimedOut(ctx, claim, now) {
		return nil, fmt.Errorf("claim %d verification window closed: %w", claimID, models.ErrExpired)
	}

	claim.Evidence = append(claim.Evidence, urls...)
	if err := s.claimRepo.Update(ctx, claim); err != nil {
		return nil, fmt.Errorf("failed to append evidence: %w", err)
	}

	event := models.NewEvent(models.EventClaimEvidenceAdded, claimant, now)
	event.ClaimID = claimID
	event.ContractID = claim.ContractID
	event.Data = map[string]any{"count": len(urls)}
	emit(ctx, s.publisher, event)

	return claim, nil
}

func (s *ClaimService) GetLatestByContract(ctx context.Context, actor string, contractID int64) (*models.Claim, error) {
	claim, err := s.claimRepo.GetLatestByContract(ctx, contractID)
	if err != nil {
		return nil, err
	}
	return s.GetClaimInfo(ctx, actor, claim.ID)
}

// lockForClaim serializes a claim mutation on the owning contract's lock and
// returns a fresh read of the claim. A claim never changes contracts, so the
// unlocked read only resolves the lock key.
func (s *ClaimService) lockForClaim(ctx context.Context, claimID int64) (*models.Claim, func(), error) {
	claim, err := s.claimRepo.GetByID(ctx, claimID)
	if err != nil {
		return nil, nil, err
	}

	unlock := s.locks.Lock(contractKey(claim.ContractID))
	claim, err = s.claimRepo.GetByID(ctx, claimID)
	if err != nil {
		unlock()
		return nil, nil, err
	}
	return claim, unlock, nil
}

func (s *ClaimService) authorizeClaimRead(ctx context.Context, actor string, claim *models.Claim) error {
	if actor == s.adminID || actor == claim.Claimant || claim.Oracles.Contains(actor) {
		return nil
	}
	contract, err := s.contractRepo.GetByID(ctx, claim.ContractID)
	if err != nil {
		return err
	}
	if actor == contract.Insurer {
		return nil
	}
	return fmt.Errorf("claim %d is not visible to %s: %w", claim.ID, actor, models.ErrUnauthorized)
}

// settleIfDecided applies the strict-majority thresholds: with a panel of n
// oracles a side wins at floor(n*fraction)+1 votes. A deadlocked panel (all
// votes in, neither threshold reached) stays open; the verification deadline
// resolves it via the timeout transition.
func (s *ClaimService) settleIfDecided(claim *models.Claim) {
	n := len(claim.Oracles)
	if n == 0 {
		return
	}
	approvalsNeeded := int(float64(n)*s.cfg.ApprovalThresholdFraction) + 1
	rejectionsNeeded := int(float64(n)*s.cfg.RejectionThresholdFraction) + 1

	switch {
	case claim.VerificationCount >= approvalsNeeded:
		claim.Processed = true
		claim.Approved = true
		payout := claim.Amount
		claim.PayoutAmount = &payout
	case claim.RejectionCount >= rejectionsNeeded:
		claim.Processed = true
		claim.Approved = false
	}
}

// finishSettlement applies the contract-side effects of a processed claim
// and emits the settlement event. Runs under the contract lock, so the
// status write cannot race the expiration sweep.
func (s *ClaimService) finishSettlement(ctx context.Context, claim *models.Claim, now int64) {
	if claim.Approved {
		contract, err := s.contractRepo.GetByID(ctx, claim.ContractID)
		if err != nil {
			slog.Error("Failed to load contract for payout", "contract_id", claim.ContractID, "error", err)
		} else {
			contract.Claimed = true
			contract.Status = models.ContractClaimed
			if err := s.contractRepo.Update(ctx, contract); err != nil {
				slog.Error("Failed to mark contract claimed", "contract_id", contract.ID, "error", err)
			}
		}
	}

	event := models.NewEvent(models.EventClaimProcessed, "system", now)
	event.ClaimID = claim.ID
	event.ContractID = claim.ContractID
	event.Data = map[string]any{"approved": claim.Approved}
	if claim.PayoutAmount != nil {
		event.Amount = *claim.PayoutAmount
	}
	emit(ctx, s.publisher, event)

	slog.Info("Claim settled", "claim_id", claim.ID, "approved", claim.Approved)
}

// autoRejectIfTimedOut applies the lazy timeout transition: an open claim
// past its verification deadline is rejected in place. Returns true when the
// transition fired. Callers hold the contract lock.
func (s *ClaimService) autoRejectIfTimedOut(ctx context.Context, claim *models.Claim, now int64) bool {
	if !claim.Open() || now <= claim.VerificationDeadline {
		return false
	}

	claim.Processed = true
	claim.Approved = false
	claim.AutoRejected = true
	if err := s.claimRepo.Update(ctx, claim); err != nil {
		slog.Error("Failed to auto-reject claim", "claim_id", claim.ID, "error", err)
		return false
	}

	event := models.NewEvent(models.EventClaimAutoRejected, "system", now)
	event.ClaimID = claim.ID
	event.ContractID = claim.ContractID
	emit(ctx, s.publisher, event)

	slog.Info("Claim auto-rejected past verification deadline", "claim_id", claim.ID)
	return true
}

func settledClaimCacheKey(claimID int64) string {
	return fmt.Sprintf("claim:settled:%d", claimID)
}
