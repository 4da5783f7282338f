package services

import (
	"context"
	"marketplace-service/internal/models"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ============================================================================
// TEST SUITE: REVIEW SUBMISSION
// ============================================================================

func TestSubmitReview_Success(t *testing.T) {
	f := newFixture(t)
	contract := f.settledContract(t)

	review, err := f.reviews.SubmitReview(context.Background(), testProposer, contract.ID, models.SubmitReviewRequest{
		Content: "Fast payout, clear terms.",
		Rating:  5,
	})

	require.NoError(t, err)
	assert.Equal(t, contract.ID, review.ContractID)
	assert.Equal(t, 5, review.Rating)
	assert.False(t, review.UnderReview)
	assert.Equal(t, 1, f.events.countOf(models.EventReviewSubmitted))
}

func TestSubmitReview_OnePerContract(t *testing.T) {
	f := newFixture(t)
	contract := f.settledContract(t)

	_, err := f.reviews.SubmitReview(context.Background(), testProposer, contract.ID, models.SubmitReviewRequest{
		Content: "first",
		Rating:  4,
	})
	require.NoError(t, err)

	_, err = f.reviews.SubmitReview(context.Background(), testProposer, contract.ID, models.SubmitReviewRequest{
		Content: "second",
		Rating:  1,
	})
	assert.ErrorIs(t, err, models.ErrDuplicate)
}

func TestSubmitReview_OnlyContractHolder(t *testing.T) {
	f := newFixture(t)
	contract := f.settledContract(t)

	_, err := f.reviews.SubmitReview(context.Background(), testInsurer, contract.ID, models.SubmitReviewRequest{
		Content: "reviewing myself",
		Rating:  5,
	})
	assert.ErrorIs(t, err, models.ErrUnauthorized)
}

func TestSubmitReview_ActiveContract(t *testing.T) {
	f := newFixture(t)
	contract := f.newContract(t)

	review, err := f.reviews.SubmitReview(context.Background(), testProposer, contract.ID, models.SubmitReviewRequest{
		Content: "smooth onboarding so far",
		Rating:  4,
	})
	require.NoError(t, err)
	assert.Equal(t, contract.ID, review.ContractID)
}

func TestSubmitReview_AfterRejectedClaim(t *testing.T) {
	f := newFixture(t)
	contract, claim := f.newClaimWithPanel(t, "oracle-a", "oracle-b", "oracle-c")

	for _, oracle := range []string{"oracle-a", "oracle-b"} {
		_, err := f.claims.SubmitVerification(context.Background(), oracle, claim.ID, models.OracleVoteRequest{Approve: false})
		require.NoError(t, err)
	}

	// The rejection leaves the contract active; the holder can still review.
	contract, err := f.contracts.GetContract(context.Background(), contract.ID)
	require.NoError(t, err)
	require.Equal(t, models.ContractActive, contract.Status)

	review, err := f.reviews.SubmitReview(context.Background(), testProposer, contract.ID, models.SubmitReviewRequest{
		Content: "claim handling was slow and the panel rejected a valid loss",
		Rating:  2,
	})
	require.NoError(t, err)
	assert.Equal(t, 2, review.Rating)
}

func TestSubmitReview_RatingBounds(t *testing.T) {
	f := newFixture(t)
	contract := f.settledContract(t)

	for _, rating := range []int{0, 6, -1} {
		_, err := f.reviews.SubmitReview(context.Background(), testProposer, contract.ID, models.SubmitReviewRequest{
			Content: "bad rating",
			Rating:  rating,
		})
		assert.ErrorIs(t, err, models.ErrValidation, "rating %d should be rejected", rating)
	}
}

// ============================================================================
// TEST SUITE: MODIFY AND DELETE
// ============================================================================

func TestModifyReview_RoundTrip(t *testing.T) {
	f := newFixture(t)
	contract := f.settledContract(t)
	_, err := f.reviews.SubmitReview(context.Background(), testProposer, contract.ID, models.SubmitReviewRequest{
		Content: "initial impression",
		Rating:  3,
	})
	require.NoError(t, err)

	updated, err := f.reviews.ModifyReview(context.Background(), testProposer, contract.ID, models.ModifyReviewRequest{
		Content: "revised after reflection",
		Rating:  4,
	})
	require.NoError(t, err)
	assert.Equal(t, "revised after reflection", updated.Content)
	assert.Equal(t, 4, updated.Rating)

	_, err = f.reviews.ModifyReview(context.Background(), testInsurer, contract.ID, models.ModifyReviewRequest{
		Content: "hijack",
		Rating:  1,
	})
	assert.ErrorIs(t, err, models.ErrUnauthorized)
}

func TestDeleteReview_Tombstone(t *testing.T) {
	f := newFixture(t)
	contract := f.settledContract(t)
	_, err := f.reviews.SubmitReview(context.Background(), testProposer, contract.ID, models.SubmitReviewRequest{
		Content: "to be removed",
		Rating:  2,
	})
	require.NoError(t, err)

	require.NoError(t, f.reviews.DeleteReview(context.Background(), testProposer, contract.ID))

	review, err := f.reviews.GetReview(context.Background(), contract.ID)
	require.NoError(t, err)
	assert.True(t, review.Deleted)
	assert.Empty(t, review.Content)

	_, err = f.reviews.ModifyReview(context.Background(), testProposer, contract.ID, models.ModifyReviewRequest{
		Content: "undelete",
		Rating:  5,
	})
	assert.ErrorIs(t, err, models.ErrInvalidState)
}

func TestAttachSupplement_AppendsURL(t *testing.T) {
	f := newFixture(t)
	contract := f.settledContract(t)
	_, err := f.reviews.SubmitReview(context.Background(), testProposer, contract.ID, models.SubmitReviewRequest{
		Content:        "with receipts",
		Rating:         4,
		AdditionalInfo: "policy scan attached",
	})
	require.NoError(t, err)

	review, err := f.reviews.AttachSupplement(context.Background(), testProposer, contract.ID,
		"https://files.local/review-evidence/doc-1.pdf")
	require.NoError(t, err)
	require.NotNil(t, review.AdditionalInfo)
	assert.Contains(t, *review.AdditionalInfo, "policy scan attached")
	assert.Contains(t, *review.AdditionalInfo, "doc-1.pdf")

	_, err = f.reviews.AttachSupplement(context.Background(), testInsurer, contract.ID,
		"https://files.local/review-evidence/doc-2.pdf")
	assert.ErrorIs(t, err, models.ErrUnauthorized)
}

// ============================================================================
// TEST SUITE: REPORT AND MODERATION
// ============================================================================

func TestReportReview_FreezesReview(t *testing.T) {
	f := newFixture(t)
	contract := f.settledContract(t)
	_, err := f.reviews.SubmitReview(context.Background(), testProposer, contract.ID, models.SubmitReviewRequest{
		Content: "offensive nonsense",
		Rating:  1,
	})
	require.NoError(t, err)

	review, err := f.reviews.ReportReview(context.Background(), testInsurer, contract.ID, "abusive language")
	require.NoError(t, err)
	assert.True(t, review.UnderReview)

	// Frozen against edits and second reports.
	_, err = f.reviews.ModifyReview(context.Background(), testProposer, contract.ID, models.ModifyReviewRequest{
		Content: "quick edit",
		Rating:  1,
	})
	assert.ErrorIs(t, err, models.ErrInvalidState)
	assert.ErrorIs(t, f.reviews.DeleteReview(context.Background(), testProposer, contract.ID), models.ErrInvalidState)
	_, err = f.reviews.ReportReview(context.Background(), testInsurer, contract.ID, "again")
	assert.ErrorIs(t, err, models.ErrInvalidState)
}

func TestReportReview_NotOwnReview(t *testing.T) {
	f := newFixture(t)
	contract := f.settledContract(t)
	_, err := f.reviews.SubmitReview(context.Background(), testProposer, contract.ID, models.SubmitReviewRequest{
		Content: "fine review",
		Rating:  4,
	})
	require.NoError(t, err)

	_, err = f.reviews.ReportReview(context.Background(), testProposer, contract.ID, "reporting myself")
	assert.ErrorIs(t, err, models.ErrValidation)
}

func TestResolveReport_Upheld(t *testing.T) {
	f := newFixture(t)
	contract := f.settledContract(t)
	_, err := f.reviews.SubmitReview(context.Background(), testProposer, contract.ID, models.SubmitReviewRequest{
		Content: "offensive nonsense",
		Rating:  1,
	})
	require.NoError(t, err)
	_, err = f.reviews.ReportReview(context.Background(), testInsurer, contract.ID, "abusive language")
	require.NoError(t, err)

	_, err = f.reviews.ResolveReport(context.Background(), testProposer, contract.ID, true)
	assert.ErrorIs(t, err, models.ErrUnauthorized)

	review, err := f.reviews.ResolveReport(context.Background(), testAdmin, contract.ID, true)
	require.NoError(t, err)
	assert.True(t, review.Deleted)
	assert.Empty(t, review.Content)
	assert.False(t, review.UnderReview)
}

func TestResolveReport_Dismissed(t *testing.T) {
	f := newFixture(t)
	contract := f.settledContract(t)
	_, err := f.reviews.SubmitReview(context.Background(), testProposer, contract.ID, models.SubmitReviewRequest{
		Content: "honest criticism",
		Rating:  2,
	})
	require.NoError(t, err)
	_, err = f.reviews.ReportReview(context.Background(), testInsurer, contract.ID, "I disagree")
	require.NoError(t, err)

	review, err := f.reviews.ResolveReport(context.Background(), testAdmin, contract.ID, false)
	require.NoError(t, err)
	assert.False(t, review.UnderReview)
	assert.False(t, review.Deleted)
	assert.Equal(t, "honest criticism", review.Content)
	assert.Nil(t, review.ReportReason)

	// Unfrozen: the reviewer can edit again.
	_, err = f.reviews.ModifyReview(context.Background(), testProposer, contract.ID, models.ModifyReviewRequest{
		Content: "still honest",
		Rating:  2,
	})
	assert.NoError(t, err)
}

// ============================================================================
// TEST SUITE: REWARDS
// ============================================================================

func TestRewards_RatingScaled(t *testing.T) {
	f := newFixture(t)
	contract := f.settledContract(t)

	_, err := f.reviews.SubmitReview(context.Background(), testProposer, contract.ID, models.SubmitReviewRequest{
		Content: "solid experience",
		Rating:  5,
	})
	require.NoError(t, err)

	account, err := f.rewards.GetAccount(context.Background(), testProposer)
	require.NoError(t, err)
	assert.Equal(t, int64(5*ratingRewardUnit), account.Balance)
	assert.Equal(t, int64(1), account.ReviewCount)
	assert.Equal(t, int64(5), account.ReviewScore, "the rating feeds the cumulative score")
	assert.Zero(t, account.InfoScore, "no supplemental info, no info bonus")
	assert.Equal(t, 1, f.events.countOf(models.EventRewardAccrued))
}

func TestRewards_ScoreAccumulatesWithoutInfo(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.rewards.AccrueForReview(context.Background(), testProposer, 5, nil))
	require.NoError(t, f.rewards.AccrueForReview(context.Background(), testProposer, 4, nil))

	account, err := f.rewards.GetAccount(context.Background(), testProposer)
	require.NoError(t, err)
	assert.Equal(t, int64(9), account.ReviewScore)
	assert.Greater(t, account.ReviewScore, int64(0))
}

func TestRewards_InfoBonusOnce(t *testing.T) {
	f := newFixture(t)
	info := strings.Repeat("x", 100) // scores 3 + 100/32 = 6

	require.NoError(t, f.rewards.AccrueForReview(context.Background(), testProposer, 4, &info))

	account, err := f.rewards.GetAccount(context.Background(), testProposer)
	require.NoError(t, err)
	assert.Equal(t, int64(6), account.InfoScore)
	assert.Equal(t, int64(4), account.ReviewScore)
	assert.Equal(t, int64(4*ratingRewardUnit+6*infoBonusUnit), account.Balance)

	// A second accrual with info earns no second bonus.
	require.NoError(t, f.rewards.AccrueForReview(context.Background(), testProposer, 2, &info))

	account, err = f.rewards.GetAccount(context.Background(), testProposer)
	require.NoError(t, err)
	assert.Equal(t, int64(6), account.InfoScore)
	assert.Equal(t, int64(6), account.ReviewScore)
	assert.Equal(t, int64(4*ratingRewardUnit+6*infoBonusUnit+2*ratingRewardUnit), account.Balance)
	assert.Equal(t, int64(2), account.ReviewCount)
}

func TestRewards_InfoScoreBounds(t *testing.T) {
	long := strings.Repeat("y", 1000)
	short := "z"

	assert.Equal(t, int64(maxInfoScore), scoreAdditionalInfo(&long))
	assert.Equal(t, int64(minInfoScore), scoreAdditionalInfo(&short))
	assert.Zero(t, scoreAdditionalInfo(nil))
}

func TestRewards_BalanceMonotonic(t *testing.T) {
	f := newFixture(t)

	var previous int64
	for rating := 1; rating <= 5; rating++ {
		require.NoError(t, f.rewards.AccrueForReview(context.Background(), testProposer, rating, nil))
		account, err := f.rewards.GetAccount(context.Background(), testProposer)
		require.NoError(t, err)
		assert.Greater(t, account.Balance, previous)
		previous = account.Balance
	}
}

func TestRewards_UnknownPartyZeroAccount(t *testing.T) {
	f := newFixture(t)

	account, err := f.rewards.GetAccount(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Zero(t, account.Balance)
	assert.Zero(t, account.ReviewCount)
}
