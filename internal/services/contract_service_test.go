package services

import (
	"context"
	"marketplace-service/internal/models"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ============================================================================
// TEST SUITE: BID ACCEPTANCE
// ============================================================================

func TestAcceptBid_Success(t *testing.T) {
	f := newFixture(t)
	contract := f.newContract(t)

	assert.Equal(t, models.ContractActive, contract.Status)
	assert.Equal(t, testProposer, contract.Proposer)
	assert.Equal(t, testInsurer, contract.Insurer)
	assert.Equal(t, int64(90), contract.Premium)
	assert.Equal(t, int64(1000), contract.Coverage)
	// Contract duration falls back to the proposal duration.
	assert.Equal(t, contract.StartDate+30*dayS, contract.EndDate)

	proposal, err := f.proposals.GetProposal(context.Background(), contract.ProposalID)
	require.NoError(t, err)
	assert.True(t, proposal.Finalized)

	bid, err := f.bids.GetBid(context.Background(), contract.BidID)
	require.NoError(t, err)
	assert.False(t, bid.Active)
}

func TestAcceptBid_OnlyProposer(t *testing.T) {
	f := newFixture(t)
	f.registerInsurer(t, testInsurer)
	proposal := f.createProposal(t, testProposer)
	bid := f.placeBid(t, testInsurer, proposal.ID)

	_, err := f.contracts.AcceptBid(context.Background(), testInsurer, models.AcceptBidRequest{
		ProposalID: proposal.ID,
		BidID:      bid.ID,
	})
	assert.ErrorIs(t, err, models.ErrUnauthorized)
}

func TestAcceptBid_WrongProposal(t *testing.T) {
	f := newFixture(t)
	f.registerInsurer(t, testInsurer)
	first := f.createProposal(t, testProposer)
	second := f.createProposal(t, testProposer)
	bid := f.placeBid(t, testInsurer, first.ID)

	_, err := f.contracts.AcceptBid(context.Background(), testProposer, models.AcceptBidRequest{
		ProposalID: second.ID,
		BidID:      bid.ID,
	})
	assert.ErrorIs(t, err, models.ErrValidation)
}

func TestAcceptBid_CancelledBid(t *testing.T) {
	f := newFixture(t)
	f.registerInsurer(t, testInsurer)
	proposal := f.createProposal(t, testProposer)
	bid := f.placeBid(t, testInsurer, proposal.ID)
	_, err := f.bids.CancelBid(context.Background(), testInsurer, bid.ID)
	require.NoError(t, err)

	_, err = f.contracts.AcceptBid(context.Background(), testProposer, models.AcceptBidRequest{
		ProposalID: proposal.ID,
		BidID:      bid.ID,
	})
	assert.ErrorIs(t, err, models.ErrInvalidState)
}

func TestAcceptBid_ExpiredBid(t *testing.T) {
	f := newFixture(t)
	f.registerInsurer(t, testInsurer)
	proposal := f.createProposal(t, testProposer)
	bid := f.placeBid(t, testInsurer, proposal.ID)

	f.clock.Advance(7*dayS + 1)

	_, err := f.contracts.AcceptBid(context.Background(), testProposer, models.AcceptBidRequest{
		ProposalID: proposal.ID,
		BidID:      bid.ID,
	})
	assert.ErrorIs(t, err, models.ErrExpired)
}

func TestAcceptBid_SecondAcceptance(t *testing.T) {
	f := newFixture(t)
	f.registerInsurer(t, testInsurer)
	f.registerInsurer(t, "insurer-2")
	proposal := f.createProposal(t, testProposer)
	first := f.placeBid(t, testInsurer, proposal.ID)
	second := f.placeBid(t, "insurer-2", proposal.ID)

	_, err := f.contracts.AcceptBid(context.Background(), testProposer, models.AcceptBidRequest{
		ProposalID: proposal.ID,
		BidID:      first.ID,
	})
	require.NoError(t, err)

	_, err = f.contracts.AcceptBid(context.Background(), testProposer, models.AcceptBidRequest{
		ProposalID: proposal.ID,
		BidID:      second.ID,
	})
	assert.ErrorIs(t, err, models.ErrInvalidState)
}

// ============================================================================
// TEST SUITE: EXPIRATION SWEEP
// ============================================================================

func TestExpireContracts_Sweep(t *testing.T) {
	f := newFixture(t)
	contract := f.newContract(t)

	// Nothing to do while the coverage period runs.
	expired, err := f.contracts.ExpireContracts(context.Background())
	require.NoError(t, err)
	assert.Zero(t, expired)

	f.clock.Advance(30*dayS + 1)

	expired, err = f.contracts.ExpireContracts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, expired)
	assert.Equal(t, 1, f.events.countOf(models.EventContractExpired))

	reloaded, err := f.contracts.GetContract(context.Background(), contract.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ContractExpired, reloaded.Status)

	// Sweep is idempotent.
	expired, err = f.contracts.ExpireContracts(context.Background())
	require.NoError(t, err)
	assert.Zero(t, expired)
}

func TestExpireContracts_SkipsOpenClaim(t *testing.T) {
	f := newFixture(t)
	contract, _ := f.newClaimWithPanel(t, "oracle-a")

	f.clock.Advance(30*dayS + 1)

	expired, err := f.contracts.ExpireContracts(context.Background())
	require.NoError(t, err)
	assert.Zero(t, expired, "contract with a claim under verification must not expire")

	reloaded, err := f.contracts.GetContract(context.Background(), contract.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ContractActive, reloaded.Status)
}

func TestExpireContracts_IgnoresClaimed(t *testing.T) {
	f := newFixture(t)
	contract := f.settledContract(t)

	f.clock.Advance(60 * dayS)

	expired, err := f.contracts.ExpireContracts(context.Background())
	require.NoError(t, err)
	assert.Zero(t, expired)

	reloaded, err := f.contracts.GetContract(context.Background(), contract.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ContractClaimed, reloaded.Status)
}
