package services

import (
	"context"
	"marketplace-service/internal/models"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ============================================================================
// TEST SUITE: PLACING BIDS
// ============================================================================

func TestPlaceBid_Success(t *testing.T) {
	f := newFixture(t)
	f.registerInsurer(t, testInsurer)
	proposal := f.createProposal(t, testProposer)

	bid := f.placeBid(t, testInsurer, proposal.ID)

	assert.True(t, bid.Active)
	assert.Equal(t, f.clock.Now()+7*dayS, bid.BidDeadline)
	assert.Equal(t, models.EventBidSubmitted, f.events.lastType())
}

func TestPlaceBid_RequiresRegistration(t *testing.T) {
	f := newFixture(t)
	proposal := f.createProposal(t, testProposer)

	_, err := f.bids.PlaceBid(context.Background(), "unregistered", models.PlaceBidRequest{
		ProposalID:  proposal.ID,
		Premium:     90,
		Coverage:    1000,
		Terms:       "standard terms",
		BidDuration: 7 * dayS,
	})
	assert.ErrorIs(t, err, models.ErrUnauthorized)
}

func TestPlaceBid_OraclesCannotBid(t *testing.T) {
	f := newFixture(t)
	f.registerOracle(t, "oracle-x")
	proposal := f.createProposal(t, testProposer)

	_, err := f.bids.PlaceBid(context.Background(), "oracle-x", models.PlaceBidRequest{
		ProposalID:  proposal.ID,
		Premium:     90,
		Coverage:    1000,
		Terms:       "standard terms",
		BidDuration: 7 * dayS,
	})
	assert.ErrorIs(t, err, models.ErrUnauthorized)
}

func TestPlaceBid_DurationBounds(t *testing.T) {
	f := newFixture(t)
	f.registerInsurer(t, testInsurer)
	proposal := f.createProposal(t, testProposer)

	for _, duration := range []int64{60, 31 * dayS} {
		_, err := f.bids.PlaceBid(context.Background(), testInsurer, models.PlaceBidRequest{
			ProposalID:  proposal.ID,
			Premium:     90,
			Coverage:    1000,
			Terms:       "standard terms",
			BidDuration: duration,
		})
		assert.ErrorIs(t, err, models.ErrValidation, "duration %d should be rejected", duration)
	}
}

func TestPlaceBid_ClosedProposal(t *testing.T) {
	f := newFixture(t)
	f.registerInsurer(t, testInsurer)
	proposal := f.createProposal(t, testProposer)

	f.clock.Advance(30*dayS + 1)

	_, err := f.bids.PlaceBid(context.Background(), testInsurer, models.PlaceBidRequest{
		ProposalID:  proposal.ID,
		Premium:     90,
		Coverage:    1000,
		Terms:       "standard terms",
		BidDuration: 7 * dayS,
	})
	assert.ErrorIs(t, err, models.ErrExpired)
}

func TestPlaceBid_CancelledProposal(t *testing.T) {
	f := newFixture(t)
	f.registerInsurer(t, testInsurer)
	proposal := f.createProposal(t, testProposer)
	_, err := f.proposals.CancelProposal(context.Background(), testProposer, proposal.ID)
	require.NoError(t, err)

	_, err = f.bids.PlaceBid(context.Background(), testInsurer, models.PlaceBidRequest{
		ProposalID:  proposal.ID,
		Premium:     90,
		Coverage:    1000,
		Terms:       "standard terms",
		BidDuration: 7 * dayS,
	})
	assert.ErrorIs(t, err, models.ErrInvalidState)
}

// ============================================================================
// TEST SUITE: MODIFYING AND CANCELLING BIDS
// ============================================================================

func TestModifyBid_Success(t *testing.T) {
	f := newFixture(t)
	f.registerInsurer(t, testInsurer)
	proposal := f.createProposal(t, testProposer)
	bid := f.placeBid(t, testInsurer, proposal.ID)

	updated, err := f.bids.ModifyBid(context.Background(), testInsurer, bid.ID, models.ModifyBidRequest{
		Premium:  80,
		Coverage: 1200,
		Terms:    "sweetened terms",
	})

	require.NoError(t, err)
	assert.Equal(t, int64(80), updated.Premium)
	assert.Equal(t, int64(1200), updated.Coverage)
	assert.Equal(t, models.EventBidUpdated, f.events.lastType())
}

func TestModifyBid_OnlyOwner(t *testing.T) {
	f := newFixture(t)
	f.registerInsurer(t, testInsurer)
	f.registerInsurer(t, "insurer-2")
	proposal := f.createProposal(t, testProposer)
	bid := f.placeBid(t, testInsurer, proposal.ID)

	_, err := f.bids.ModifyBid(context.Background(), "insurer-2", bid.ID, models.ModifyBidRequest{
		Premium:  80,
		Coverage: 1200,
		Terms:    "hijack",
	})
	assert.ErrorIs(t, err, models.ErrUnauthorized)
}

func TestModifyBid_AfterDeadline(t *testing.T) {
	f := newFixture(t)
	f.registerInsurer(t, testInsurer)
	proposal := f.createProposal(t, testProposer)
	bid := f.placeBid(t, testInsurer, proposal.ID)

	f.clock.Advance(7*dayS + 1)

	_, err := f.bids.ModifyBid(context.Background(), testInsurer, bid.ID, models.ModifyBidRequest{
		Premium:  80,
		Coverage: 1200,
		Terms:    "late change",
	})
	assert.ErrorIs(t, err, models.ErrExpired)
}

func TestModifyBid_AfterAcceptance(t *testing.T) {
	f := newFixture(t)
	contract := f.newContract(t)

	_, err := f.bids.ModifyBid(context.Background(), testInsurer, contract.BidID, models.ModifyBidRequest{
		Premium:  80,
		Coverage: 1200,
		Terms:    "too late",
	})
	assert.ErrorIs(t, err, models.ErrInvalidState)
}

func TestModifyBid_CancelCommittedWhileWaiting(t *testing.T) {
	f := newFixture(t)
	f.registerInsurer(t, testInsurer)
	proposal := f.createProposal(t, testProposer)
	bid := f.placeBid(t, testInsurer, proposal.ID)

	// Hold the proposal lock and commit a cancel to the store, the way a
	// CancelBid that won the lock first would.
	unlock := f.locks.Lock(proposalKey(proposal.ID))

	done := make(chan error, 1)
	go func() {
		_, err := f.bids.ModifyBid(context.Background(), testInsurer, bid.ID, models.ModifyBidRequest{
			Premium:  80,
			Coverage: 1200,
			Terms:    "sweetened terms",
		})
		done <- err
	}()

	time.Sleep(20 * time.Millisecond)
	cancelled := *bid
	cancelled.Active = false
	require.NoError(t, f.bidStore.Update(context.Background(), &cancelled))
	unlock()

	assert.ErrorIs(t, <-done, models.ErrInvalidState)

	after, err := f.bids.GetBid(context.Background(), bid.ID)
	require.NoError(t, err)
	assert.False(t, after.Active, "cancelled bid must stay cancelled")
}

func TestCancelBid_ThenModify(t *testing.T) {
	f := newFixture(t)
	f.registerInsurer(t, testInsurer)
	proposal := f.createProposal(t, testProposer)
	bid := f.placeBid(t, testInsurer, proposal.ID)

	_, err := f.bids.CancelBid(context.Background(), testInsurer, bid.ID)
	require.NoError(t, err)

	_, err = f.bids.ModifyBid(context.Background(), testInsurer, bid.ID, models.ModifyBidRequest{
		Premium:  80,
		Coverage: 1200,
		Terms:    "resurrect",
	})
	assert.ErrorIs(t, err, models.ErrInvalidState)
}
