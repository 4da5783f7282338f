package services

import (
	"context"
	"marketplace-service/internal/config"
	"marketplace-service/internal/models"
	"marketplace-service/internal/repository"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ============================================================================
// TEST HELPERS
// ============================================================================

const (
	testAdmin    = "admin"
	testProposer = "farmer-1"
	testInsurer  = "insurer-1"

	dayS = int64(24 * 3600)
)

// fakeClock is a settable unix clock for deadline tests.
type fakeClock struct {
	now int64
}

func (f *fakeClock) Now() int64 {
	return f.now
}

func (f *fakeClock) Advance(seconds int64) {
	f.now += seconds
}

// recorderPublisher captures emitted events for assertions.
type recorderPublisher struct {
	mu     sync.Mutex
	events []models.MarketplaceEvent
}

func (r *recorderPublisher) Publish(_ context.Context, event models.MarketplaceEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

func (r *recorderPublisher) countOf(eventType string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	count := 0
	for _, event := range r.events {
		if event.Type == eventType {
			count++
		}
	}
	return count
}

func (r *recorderPublisher) lastType() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.events) == 0 {
		return ""
	}
	return r.events[len(r.events)-1].Type
}

// fixture wires every service over the in-memory stores with a fake clock.
// The locks and the raw stores are exposed so tests can stage concurrent
// transitions deterministically.
type fixture struct {
	clock  *fakeClock
	events *recorderPublisher
	cfg    config.MarketplaceConfig
	locks  *KeyedMutex

	bidStore   *repository.MemoryBidStore
	claimStore *repository.MemoryClaimStore

	parties   *PartyService
	proposals *ProposalService
	bids      *BidService
	contracts *ContractService
	claims    *ClaimService
	reviews   *ReviewService
	rewards   *RewardService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	clock := &fakeClock{now: 1_700_000_000}
	events := &recorderPublisher{}
	cfg := config.MarketplaceConfig{
		MinBidDuration:             3600,
		MaxBidDuration:             30 * dayS,
		MaxProposalDuration:        90 * dayS,
		ClaimVerificationWindow:    7 * dayS,
		ApprovalThresholdFraction:  0.5,
		RejectionThresholdFraction: 0.5,
	}

	proposalStore := repository.NewMemoryProposalStore()
	bidStore := repository.NewMemoryBidStore()
	contractStore := repository.NewMemoryContractStore()
	claimStore := repository.NewMemoryClaimStore()
	reviewStore := repository.NewMemoryReviewStore()
	rewardStore := repository.NewMemoryRewardStore()
	partyStore := repository.NewMemoryPartyStore()

	locks := NewKeyedMutex()
	rewards := NewRewardService(rewardStore, nil, events, clock.Now, locks)

	return &fixture{
		clock:      clock,
		events:     events,
		cfg:        cfg,
		locks:      locks,
		bidStore:   bidStore,
		claimStore: claimStore,
		parties:    NewPartyService(partyStore, events, clock.Now, testAdmin),
		proposals:  NewProposalService(proposalStore, bidStore, events, clock.Now, locks, cfg),
		bids:       NewBidService(bidStore, proposalStore, partyStore, events, clock.Now, locks, cfg),
		contracts:  NewContractService(contractStore, proposalStore, bidStore, claimStore, events, clock.Now, locks, cfg),
		claims:     NewClaimService(claimStore, contractStore, partyStore, events, nil, clock.Now, locks, cfg, testAdmin),
		reviews:    NewReviewService(reviewStore, contractStore, rewards, events, clock.Now, locks, testAdmin),
		rewards:    rewards,
	}
}

func (f *fixture) registerInsurer(t *testing.T, id string) {
	t.Helper()
	if _, err := f.parties.RegisterInsurer(context.Background(), id); err != nil {
		require.ErrorIs(t, err, models.ErrDuplicate)
	}
}

func (f *fixture) registerOracle(t *testing.T, id string) {
	t.Helper()
	if _, err := f.parties.RegisterOracle(context.Background(), testAdmin, id); err != nil {
		require.ErrorIs(t, err, models.ErrDuplicate)
	}
}

func (f *fixture) createProposal(t *testing.T, proposer string) *models.Proposal {
	t.Helper()
	proposal, err := f.proposals.CreateProposal(context.Background(), proposer, models.CreateProposalRequest{
		Title:       "Rice field flood cover",
		Description: "Coverage for monsoon flooding",
		Premium:     100,
		Coverage:    1000,
		Duration:    30 * dayS,
	})
	require.NoError(t, err)
	return proposal
}

func (f *fixture) placeBid(t *testing.T, insurer string, proposalID int64) *models.Bid {
	t.Helper()
	bid, err := f.bids.PlaceBid(context.Background(), insurer, models.PlaceBidRequest{
		ProposalID:  proposalID,
		Premium:     90,
		Coverage:    1000,
		Terms:       "standard terms",
		BidDuration: 7 * dayS,
	})
	require.NoError(t, err)
	return bid
}

// newContract runs the happy path from proposal to contract.
func (f *fixture) newContract(t *testing.T) *models.Contract {
	t.Helper()
	f.registerInsurer(t, testInsurer)
	proposal := f.createProposal(t, testProposer)
	bid := f.placeBid(t, testInsurer, proposal.ID)

	contract, err := f.contracts.AcceptBid(context.Background(), testProposer, models.AcceptBidRequest{
		ProposalID: proposal.ID,
		BidID:      bid.ID,
	})
	require.NoError(t, err)
	return contract
}

func (f *fixture) submitClaim(t *testing.T, contractID, amount int64) *models.Claim {
	t.Helper()
	claim, err := f.claims.SubmitClaim(context.Background(), testProposer, contractID, models.SubmitClaimRequest{
		Description: "flood damaged the harvest",
		Amount:      amount,
		Evidence:    []string{"https://files.local/photo-1.jpg"},
	})
	require.NoError(t, err)
	return claim
}

// newClaimWithPanel files a claim and assigns the given oracle panel.
func (f *fixture) newClaimWithPanel(t *testing.T, oracles ...string) (*models.Contract, *models.Claim) {
	t.Helper()
	contract := f.newContract(t)
	claim := f.submitClaim(t, contract.ID, 500)

	for _, oracle := range oracles {
		f.registerOracle(t, oracle)
	}
	claim, err := f.claims.AssignOracles(context.Background(), testAdmin, claim.ID, oracles)
	require.NoError(t, err)
	return contract, claim
}

// settledContract produces a contract in the claimed state via an approved
// claim adjudicated by a two-oracle panel.
func (f *fixture) settledContract(t *testing.T) *models.Contract {
	t.Helper()
	contract, claim := f.newClaimWithPanel(t, "oracle-a", "oracle-b")

	_, err := f.claims.SubmitVerification(context.Background(), "oracle-a", claim.ID, models.OracleVoteRequest{Approve: true})
	require.NoError(t, err)
	_, err = f.claims.SubmitVerification(context.Background(), "oracle-b", claim.ID, models.OracleVoteRequest{Approve: true})
	require.NoError(t, err)

	contract, err = f.contracts.GetContract(context.Background(), contract.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ContractClaimed, contract.Status)
	return contract
}
