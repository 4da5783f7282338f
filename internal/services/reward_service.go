package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"marketplace-service/internal/models"
	"marketplace-service/internal/repository"
	"time"
)

const (
	// Reward units per rating point and per supplemental-info score point.
	ratingRewardUnit = 10
	infoBonusUnit    = 5

	// Supplemental-info score bounds. The score grows with the length of
	// the extra information and is granted once per reviewer.
	minInfoScore      = 3
	maxInfoScore      = 10
	infoScoreCharStep = 32

	rewardAccountCacheTTL = 5 * time.Minute
)

// RewardService keeps the per-party reward ledger fed by review activity.
// Balances only grow; there is no spend path in this service.
type RewardService struct {
	rewardRepo repository.RewardStore
	cache      Cache
	publisher  Publisher
	clock      Clock
	locks      *KeyedMutex
}

func NewRewardService(rewardRepo repository.RewardStore, cache Cache, publisher Publisher, clock Clock, locks *KeyedMutex) *RewardService {
	if clock == nil {
		clock = SystemClock
	}
	if locks == nil {
		locks = NewKeyedMutex()
	}
	return &RewardService{
		rewardRepo: rewardRepo,
		cache:      cache,
		publisher:  publisher,
		clock:      clock,
		locks:      locks,
	}
}

// AccrueForReview credits the reviewer for a submitted review: the rating
// scales the base reward and accumulates into the review score, and the
// first review carrying supplemental info earns a one-time bonus scored by
// its length.
func (s *RewardService) AccrueForReview(ctx context.Context, partyID string, rating int, additionalInfo *string) error {
	unlock := s.locks.Lock(rewardKey(partyID))
	defer unlock()

	account, err := s.rewardRepo.Get(ctx, partyID)
	if errors.Is(err, models.ErrNotFound) {
		account = &models.RewardAccount{PartyID: partyID}
	} else if err != nil {
		return fmt.Errorf("failed to load reward account: %w", err)
	}

	delta := int64(rating) * ratingRewardUnit
	if account.InfoScore == 0 {
		if score := scoreAdditionalInfo(additionalInfo); score > 0 {
			account.InfoScore = score
			delta += score * infoBonusUnit
		}
	}

	account.Balance += delta
	account.ReviewScore += int64(rating)
	account.ReviewCount++
	account.UpdatedAt = s.clock()
	if err := s.rewardRepo.Upsert(ctx, account); err != nil {
		return fmt.Errorf("failed to persist reward accrual: %w", err)
	}

	s.invalidate(ctx, partyID)

	event := models.NewEvent(models.EventRewardAccrued, partyID, account.UpdatedAt)
	event.Amount = delta
	event.Data = map[string]any{"balance": account.Balance}
	emit(ctx, s.publisher, event)

	slog.Info("Reward accrued", "party_id", partyID, "amount", delta, "balance", account.Balance)
	return nil
}

// GetAccount returns the party's reward account, reading through the cache.
// Parties with no accruals yet get a zero-valued account.
func (s *RewardService) GetAccount(ctx context.Context, partyID string) (*models.RewardAccount, error) {
	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, rewardAccountCacheKey(partyID)); err == nil {
			var account models.RewardAccount
			if err := json.Unmarshal([]byte(cached), &account); err == nil {
				return &account, nil
			}
		}
	}

	account, err := s.rewardRepo.Get(ctx, partyID)
	if errors.Is(err, models.ErrNotFound) {
		account = &models.RewardAccount{PartyID: partyID}
	} else if err != nil {
		return nil, fmt.Errorf("failed to load reward account: %w", err)
	}

	if s.cache != nil {
		if payload, err := json.Marshal(account); err == nil {
			if err := s.cache.Set(ctx, rewardAccountCacheKey(partyID), string(payload), rewardAccountCacheTTL); err != nil {
				slog.Warn("Failed to cache reward account", "party_id", partyID, "error", err)
			}
		}
	}
	return account, nil
}

func (s *RewardService) invalidate(ctx context.Context, partyID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, rewardAccountCacheKey(partyID)); err != nil {
		slog.Warn("Failed to invalidate reward cache", "party_id", partyID, "error", err)
	}
}

// scoreAdditionalInfo maps supplemental text to a score in
// [minInfoScore, maxInfoScore], one point per infoScoreCharStep characters
// above the base. Empty info scores zero.
func scoreAdditionalInfo(additionalInfo *string) int64 {
	if additionalInfo == nil || *additionalInfo == "" {
		return 0
	}
	score := int64(minInfoScore) + int64(len(*additionalInfo))/infoScoreCharStep
	if score > maxInfoScore {
		score = maxInfoScore
	}
	return score
}

func rewardAccountCacheKey(partyID string) string {
	return "reward:account:" + partyID
}
