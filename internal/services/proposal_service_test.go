package services

import (
	"context"
	"marketplace-service/internal/models"
	"marketplace-service/internal/repository"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ============================================================================
// TEST SUITE: PROPOSAL CREATION
// ============================================================================

func TestCreateProposal_Success(t *testing.T) {
	f := newFixture(t)

	proposal := f.createProposal(t, testProposer)

	assert.Equal(t, int64(1), proposal.ID)
	assert.True(t, proposal.Active)
	assert.False(t, proposal.Finalized)
	assert.Equal(t, f.clock.Now()+30*dayS, proposal.Deadline)
	assert.Equal(t, models.EventProposalCreated, f.events.lastType())
}

func TestCreateProposal_Validation(t *testing.T) {
	f := newFixture(t)
	valid := models.CreateProposalRequest{
		Title:       "Cover",
		Description: "Desc",
		Premium:     100,
		Coverage:    1000,
		Duration:    dayS,
	}

	cases := []struct {
		name   string
		mutate func(*models.CreateProposalRequest)
	}{
		{"empty title", func(r *models.CreateProposalRequest) { r.Title = "  " }},
		{"empty description", func(r *models.CreateProposalRequest) { r.Description = "" }},
		{"zero premium", func(r *models.CreateProposalRequest) { r.Premium = 0 }},
		{"coverage below premium", func(r *models.CreateProposalRequest) { r.Coverage = 50 }},
		{"zero duration", func(r *models.CreateProposalRequest) { r.Duration = 0 }},
		{"duration over limit", func(r *models.CreateProposalRequest) { r.Duration = 91 * dayS }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := valid
			tc.mutate(&req)
			_, err := f.proposals.CreateProposal(context.Background(), testProposer, req)
			assert.ErrorIs(t, err, models.ErrValidation)
		})
	}
}

func TestCreateProposal_CoverageLimit(t *testing.T) {
	f := newFixture(t)
	cfg := f.cfg
	cfg.MaxCoverageLimit = 500
	svc := NewProposalService(repository.NewMemoryProposalStore(), repository.NewMemoryBidStore(), f.events, f.clock.Now, nil, cfg)

	_, err := svc.CreateProposal(context.Background(), testProposer, models.CreateProposalRequest{
		Title:       "Cover",
		Description: "Desc",
		Premium:     100,
		Coverage:    1000,
		Duration:    dayS,
	})
	assert.ErrorIs(t, err, models.ErrValidation)
}

// ============================================================================
// TEST SUITE: PROPOSAL CANCELLATION
// ============================================================================

func TestCancelProposal_Success(t *testing.T) {
	f := newFixture(t)
	proposal := f.createProposal(t, testProposer)

	cancelled, err := f.proposals.CancelProposal(context.Background(), testProposer, proposal.ID)

	require.NoError(t, err)
	assert.False(t, cancelled.Active)
	assert.Equal(t, models.EventProposalCancelled, f.events.lastType())
}

func TestCancelProposal_OnlyProposer(t *testing.T) {
	f := newFixture(t)
	proposal := f.createProposal(t, testProposer)

	_, err := f.proposals.CancelProposal(context.Background(), "someone-else", proposal.ID)

	assert.ErrorIs(t, err, models.ErrUnauthorized)
}

func TestCancelProposal_BlockedByActiveBid(t *testing.T) {
	f := newFixture(t)
	f.registerInsurer(t, testInsurer)
	proposal := f.createProposal(t, testProposer)
	bid := f.placeBid(t, testInsurer, proposal.ID)

	_, err := f.proposals.CancelProposal(context.Background(), testProposer, proposal.ID)
	assert.ErrorIs(t, err, models.ErrInvalidState)

	// Once the bid is withdrawn the proposal can go.
	_, err = f.bids.CancelBid(context.Background(), testInsurer, bid.ID)
	require.NoError(t, err)
	_, err = f.proposals.CancelProposal(context.Background(), testProposer, proposal.ID)
	assert.NoError(t, err)
}

func TestCancelProposal_AfterDeadline(t *testing.T) {
	f := newFixture(t)
	proposal := f.createProposal(t, testProposer)

	f.clock.Advance(30*dayS + 1)

	_, err := f.proposals.CancelProposal(context.Background(), testProposer, proposal.ID)
	assert.ErrorIs(t, err, models.ErrExpired)
}

func TestCancelProposal_Twice(t *testing.T) {
	f := newFixture(t)
	proposal := f.createProposal(t, testProposer)

	_, err := f.proposals.CancelProposal(context.Background(), testProposer, proposal.ID)
	require.NoError(t, err)
	_, err = f.proposals.CancelProposal(context.Background(), testProposer, proposal.ID)
	assert.ErrorIs(t, err, models.ErrInvalidState)
}

func TestListProposals_ActiveOnly(t *testing.T) {
	f := newFixture(t)
	first := f.createProposal(t, testProposer)
	f.createProposal(t, testProposer)
	_, err := f.proposals.CancelProposal(context.Background(), testProposer, first.ID)
	require.NoError(t, err)

	all, err := f.proposals.ListProposals(context.Background(), false)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	active, err := f.proposals.ListProposals(context.Background(), true)
	require.NoError(t, err)
	assert.Len(t, active, 1)
}
