package services

import (
	"context"
	"fmt"
	"log/slog"
	"marketplace-service/internal/models"
	"marketplace-service/internal/repository"
	"strings"
)

// ReviewService manages the single review a contract holder can leave per
// contract, including the report/moderation flow.
type ReviewService struct {
	reviewRepo   repository.ReviewStore
	contractRepo repository.ContractStore
	rewards      *RewardService
	publisher    Publisher
	clock        Clock
	locks        *KeyedMutex
	adminID      string
}

func NewReviewService(
	reviewRepo repository.ReviewStore,
	contractRepo repository.ContractStore,
	rewards *RewardService,
	publisher Publisher,
	clock Clock,
	locks *KeyedMutex,
	adminID string,
) *ReviewService {
	if clock == nil {
		clock = SystemClock
	}
	if locks == nil {
		locks = NewKeyedMutex()
	}
	return &ReviewService{
		reviewRepo:   reviewRepo,
		contractRepo: contractRepo,
		rewards:      rewards,
		publisher:    publisher,
		clock:        clock,
		locks:        locks,
		adminID:      adminID,
	}
}

// SubmitReview records the contract holder's review. One review per
// contract, at any point in the contract's life regardless of claim outcome;
// submission accrues the reviewer's reward.
func (s *ReviewService) SubmitReview(ctx context.Context, reviewer string, contractID int64, req models.SubmitReviewRequest) (*models.Review, error) {
	if strings.TrimSpace(req.Content) == "" {
		return nil, fmt.Errorf("review content is required: %w", models.ErrValidation)
	}
	if req.Rating < models.MinRating || req.Rating > models.MaxRating {
		return nil, fmt.Errorf("rating must be within [%d, %d]: %w", models.MinRating, models.MaxRating, models.ErrValidation)
	}

	contract, err := s.contractRepo.GetByID(ctx, contractID)
	if err != nil {
		return nil, err
	}
	if contract.Proposer != reviewer {
		return nil, fmt.Errorf("only the contract holder can review: %w", models.ErrUnauthorized)
	}

	unlock := s.locks.Lock(reviewKey(contractID))
	defer unlock()

	now := s.clock()
	review := &models.Review{
		ContractID: contractID,
		Reviewer:   reviewer,
		Content:    req.Content,
		Rating:     req.Rating,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if info := strings.TrimSpace(req.AdditionalInfo); info != "" {
		review.AdditionalInfo = &info
	}
	if err := s.reviewRepo.Create(ctx, review); err != nil {
		return nil, err
	}

	event := models.NewEvent(models.EventReviewSubmitted, reviewer, now)
	event.ContractID = contractID
	event.Data = map[string]any{"rating": req.Rating}
	emit(ctx, s.publisher, event)

	if s.rewards != nil {
		if err := s.rewards.AccrueForReview(ctx, reviewer, req.Rating, review.AdditionalInfo); err != nil {
			slog.Error("Failed to accrue review reward", "reviewer", reviewer, "contract_id", contractID, "error", err)
		}
	}

	slog.Info("Review submitted", "contract_id", contractID, "rating", req.Rating)
	return review, nil
}

// AttachSupplement appends an attachment URL to the review's supplemental
// information. Reviewer only; the review must still be editable. Attachments
// do not re-accrue rewards.
func (s *ReviewService) AttachSupplement(ctx context.Context, reviewer string, contractID int64, url string) (*models.Review, error) {
	if strings.TrimSpace(url) == "" {
		return nil, fmt.Errorf("attachment url is required: %w", models.ErrValidation)
	}

	unlock := s.locks.Lock(reviewKey(contractID))
	defer unlock()

	review, err := s.mutableReview(ctx, reviewer, contractID)
	if err != nil {
		return nil, err
	}

	info := url
	if review.AdditionalInfo != nil && *review.AdditionalInfo != "" {
		info = *review.AdditionalInfo + "\n" + url
	}
	review.AdditionalInfo = &info
	review.UpdatedAt = s.clock()
	if err := s.reviewRepo.Update(ctx, review); err != nil {
		return nil, fmt.Errorf("failed to attach review supplement: %w", err)
	}

	event := models.NewEvent(models.EventReviewModified, reviewer, review.UpdatedAt)
	event.ContractID = contractID
	emit(ctx, s.publisher, event)

	slog.Info("Review supplement attached", "contract_id", contractID)
	return review, nil
}

// ModifyReview updates the reviewer's own review. Blocked while the review
// is under report and after deletion. Rewards do not re-accrue.
func (s *ReviewService) ModifyReview(ctx context.Context, reviewer string, contractID int64, req models.ModifyReviewRequest) (*models.Review, error) {
	if strings.TrimSpace(req.Content) == "" {
		return nil, fmt.Errorf("review content is required: %w", models.ErrValidation)
	}
	if req.Rating < models.MinRating || req.Rating > models.MaxRating {
		return nil, fmt.Errorf("rating must be within [%d, %d]: %w", models.MinRating, models.MaxRating, models.ErrValidation)
	}

	unlock := s.locks.Lock(reviewKey(contractID))
	defer unlock()

	review, err := s.mutableReview(ctx, reviewer, contractID)
	if err != nil {
		return nil, err
	}

	review.Content = req.Content
	review.Rating = req.Rating
	review.UpdatedAt = s.clock()
	if err := s.reviewRepo.Update(ctx, review); err != nil {
		return nil, fmt.Errorf("failed to modify review: %w", err)
	}

	event := models.NewEvent(models.EventReviewModified, reviewer, review.UpdatedAt)
	event.ContractID = contractID
	emit(ctx, s.publisher, event)

	return review, nil
}

// DeleteReview tombstones the reviewer's own review, clearing its content.
func (s *ReviewService) DeleteReview(ctx context.Context, reviewer string, contractID int64) error {
	unlock := s.locks.Lock(reviewKey(contractID))
	defer unlock()

	review, err := s.mutableReview(ctx, reviewer, contractID)
	if err != nil {
		return err
	}

	review.Deleted = true
	review.Content = ""
	review.AdditionalInfo = nil
	review.UpdatedAt = s.clock()
	if err := s.reviewRepo.Update(ctx, review); err != nil {
		return fmt.Errorf("failed to delete review: %w", err)
	}

	event := models.NewEvent(models.EventReviewDeleted, reviewer, review.UpdatedAt)
	event.ContractID = contractID
	emit(ctx, s.publisher, event)

	slog.Info("Review deleted", "contract_id", contractID)
	return nil
}

// ReportReview flags a review for moderation, freezing it until the
// administrator resolves the report.
func (s *ReviewService) ReportReview(ctx context.Context, reporter string, contractID int64, reason string) (*models.Review, error) {
	if strings.TrimSpace(reason) == "" {
		return nil, fmt.Errorf("report reason is required: %w", models.ErrValidation)
	}

	unlock := s.locks.Lock(reviewKey(contractID))
	defer unlock()

	review, err := s.reviewRepo.GetByContract(ctx, contractID)
	if err != nil {
		return nil, err
	}
	if review.Reviewer == reporter {
		return nil, fmt.Errorf("reviewers cannot report their own review: %w", models.ErrValidation)
	}
	if review.Deleted {
		return nil, fmt.Errorf("review for contract %d is deleted: %w", contractID, models.ErrInvalidState)
	}
	if review.UnderReview {
		return nil, fmt.Errorf("review for contract %d is already reported: %w", contractID, models.ErrInvalidState)
	}

	review.UnderReview = true
	review.ReportReason = &reason
	review.ReportedBy = &reporter
	review.UpdatedAt = s.clock()
	if err := s.reviewRepo.Update(ctx, review); err != nil {
		return nil, fmt.Errorf("failed to report review: %w", err)
	}

	event := models.NewEvent(models.EventReviewReported, reporter, review.UpdatedAt)
	event.ContractID = contractID
	emit(ctx, s.publisher, event)

	slog.Info("Review reported", "contract_id", contractID, "reported_by", reporter)
	return review, nil
}

// ResolveReport closes a report. Upholding it wipes the review content
// permanently; dismissing it unfreezes the review. Administrator only.
func (s *ReviewService) ResolveReport(ctx context.Context, actor string, contractID int64, uphold bool) (*models.Review, error) {
	if actor != s.adminID {
		return nil, fmt.Errorf("only the administrator can resolve reports: %w", models.ErrUnauthorized)
	}

	unlock := s.locks.Lock(reviewKey(contractID))
	defer unlock()

	review, err := s.reviewRepo.GetByContract(ctx, contractID)
	if err != nil {
		return nil, err
	}
	if !review.UnderReview {
		return nil, fmt.Errorf("review for contract %d has no open report: %w", contractID, models.ErrInvalidState)
	}

	review.UnderReview = false
	if uphold {
		review.Deleted = true
		review.Content = ""
		review.AdditionalInfo = nil
	} else {
		review.ReportReason = nil
		review.ReportedBy = nil
	}
	review.UpdatedAt = s.clock()
	if err := s.reviewRepo.Update(ctx, review); err != nil {
		return nil, fmt.Errorf("failed to resolve report: %w", err)
	}

	event := models.NewEvent(models.EventReviewResolved, actor, review.UpdatedAt)
	event.ContractID = contractID
	event.Data = map[string]any{"upheld": uphold}
	emit(ctx, s.publisher, event)

	slog.Info("Review report resolved", "contract_id", contractID, "upheld", uphold)
	return review, nil
}

func (s *ReviewService) GetReview(ctx context.Context, contractID int64) (*models.Review, error) {
	return s.reviewRepo.GetByContract(ctx, contractID)
}

// mutableReview loads a review and checks the reviewer may change it.
func (s *ReviewService) mutableReview(ctx context.Context, reviewer string, contractID int64) (*models.Review, error) {
	review, err := s.reviewRepo.GetByContract(ctx, contractID)
	if err != nil {
		return nil, err
	}
	if review.Reviewer != reviewer {
		return nil, fmt.Errorf("only the reviewer can change the review: %w", models.ErrUnauthorized)
	}
	if review.Deleted {
		return nil, fmt.Errorf("review for contract %d is deleted: %w", contractID, models.ErrInvalidState)
	}
	if review.UnderReview {
		return nil, fmt.Errorf("review for contract %d is frozen pending moderation: %w", contractID, models.ErrInvalidState)
	}
	return review, nil
}
