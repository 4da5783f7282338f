package repository

import (
	"context"
	"fmt"
	"marketplace-service/internal/models"
	"sort"
	"sync"
)

// In-memory arena implementations of the entity stores. Entities live in
// maps keyed by opaque int64 handles allocated from a per-type monotonic
// counter; values are copied on the way in and out so callers never share
// mutable state with the arena. Used by the unit tests and by deployments
// that run without postgres.

type MemoryProposalStore struct {
	mu     sync.RWMutex
	nextID int64
	items  map[int64]models.Proposal
}

func NewMemoryProposalStore() *MemoryProposalStore {
	return &MemoryProposalStore{items: make(map[int64]models.Proposal)}
}

func (s *MemoryProposalStore) Create(_ context.Context, proposal *models.Proposal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	proposal.ID = s.nextID
	s.items[proposal.ID] = *proposal
	return nil
}

func (s *MemoryProposalStore) GetByID(_ context.Context, id int64) (*models.Proposal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	item, ok := s.items[id]
	if !ok {
		return nil, fmt.Errorf("proposal %d: %w", id, models.ErrNotFound)
	}
	return &item, nil
}

func (s *MemoryProposalStore) Update(_ context.Context, proposal *models.Proposal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.items[proposal.ID]; !ok {
		return fmt.Errorf("proposal %d: %w", proposal.ID, models.ErrNotFound)
	}
	s.items[proposal.ID] = *proposal
	return nil
}

func (s *MemoryProposalStore) List(_ context.Context, activeOnly bool) ([]models.Proposal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var proposals []models.Proposal
	for _, item := range s.items {
		if activeOnly && !(item.Active && !item.Finalized) {
			continue
		}
		proposals = append(proposals, item)
	}
	sortByID(proposals, func(p models.Proposal) int64 { return p.ID })
	return proposals, nil
}

func (s *MemoryProposalStore) ListByProposer(_ context.Context, proposer string) ([]models.Proposal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var proposals []models.Proposal
	for _, item := range s.items {
		if item.Proposer == proposer {
			proposals = append(proposals, item)
		}
	}
	sortByID(proposals, func(p models.Proposal) int64 { return p.ID })
	return proposals, nil
}

type MemoryBidStore struct {
	mu     sync.RWMutex
	nextID int64
	items  map[int64]models.Bid
}

func NewMemoryBidStore() *MemoryBidStore {
	return &MemoryBidStore{items: make(map[int64]models.Bid)}
}

func (s *MemoryBidStore) Create(_ context.Context, bid *models.Bid) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	bid.ID = s.nextID
	s.items[bid.ID] = *bid
	return nil
}

func (s *MemoryBidStore) GetByID(_ context.Context, id int64) (*models.Bid, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	item, ok := s.items[id]
	if !ok {
		return nil, fmt.Errorf("bid %d: %w", id, models.ErrNotFound)
	}
	return &item, nil
}

func (s *MemoryBidStore) Update(_ context.Context, bid *models.Bid) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.items[bid.ID]; !ok {
		return fmt.Errorf("bid %d: %w", bid.ID, models.ErrNotFound)
	}
	s.items[bid.ID] = *bid
	return nil
}

func (s *MemoryBidStore) ListByProposal(_ context.Context, proposalID int64) ([]models.Bid, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var bids []models.Bid
	for _, item := range s.items {
		if item.ProposalID == proposalID {
			bids = append(bids, item)
		}
	}
	sortByID(bids, func(b models.Bid) int64 { return b.ID })
	return bids, nil
}

func (s *MemoryBidStore) ListByInsurer(_ context.Context, insurer string) ([]models.Bid, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var bids []models.Bid
	for _, item := range s.items {
		if item.Insurer == insurer {
			bids = append(bids, item)
		}
	}
	sortByID(bids, func(b models.Bid) int64 { return b.ID })
	return bids, nil
}

func (s *MemoryBidStore) CountActiveByProposal(_ context.Context, proposalID int64) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, item := range s.items {
		if item.ProposalID == proposalID && item.Active {
			count++
		}
	}
	return count, nil
}

type MemoryContractStore struct {
	mu     sync.RWMutex
	nextID int64
	items  map[int64]models.Contract
}

func NewMemoryContractStore() *MemoryContractStore {
	return &MemoryContractStore{items: make(map[int64]models.Contract)}
}

func (s *MemoryContractStore) Create(_ context.Context, contract *models.Contract) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	contract.ID = s.nextID
	s.items[contract.ID] = *contract
	return nil
}

func (s *MemoryContractStore) GetByID(_ context.Context, id int64) (*models.Contract, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	item, ok := s.items[id]
	if !ok {
		return nil, fmt.Errorf("contract %d: %w", id, models.ErrNotFound)
	}
	return &item, nil
}

func (s *MemoryContractStore) Update(_ context.Context, contract *models.Contract) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.items[contract.ID]; !ok {
		return fmt.Errorf("contract %d: %w", contract.ID, models.ErrNotFound)
	}
	s.items[contract.ID] = *contract
	return nil
}

func (s *MemoryContractStore) ListByParty(_ context.Context, party string) ([]models.Contract, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var contracts []models.Contract
	for _, item := range s.items {
		if item.Proposer == party || item.Insurer == party {
			contracts = append(contracts, item)
		}
	}
	sortByID(contracts, func(c models.Contract) int64 { return c.ID })
	return contracts, nil
}

func (s *MemoryContractStore) ListExpirable(_ context.Context, now int64) ([]models.Contract, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var contracts []models.Contract
	for _, item := range s.items {
		if item.Status == models.ContractActive && item.EndDate < now {
			contracts = append(contracts, item)
		}
	}
	sortByID(contracts, func(c models.Contract) int64 { return c.ID })
	return contracts, nil
}

type MemoryClaimStore struct {
	mu     sync.RWMutex
	nextID int64
	items  map[int64]models.Claim
}

func NewMemoryClaimStore() *MemoryClaimStore {
	return &MemoryClaimStore{items: make(map[int64]models.Claim)}
}

func (s *MemoryClaimStore) Create(_ context.Context, claim *models.Claim) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	claim.ID = s.nextID
	s.items[claim.ID] = copyClaim(*claim)
	return nil
}

func (s *MemoryClaimStore) GetByID(_ context.Context, id int64) (*models.Claim, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	item, ok := s.items[id]
	if !ok {
		return nil, fmt.Errorf("claim %d: %w", id, models.ErrNotFound)
	}
	out := copyClaim(item)
	return &out, nil
}

func (s *MemoryClaimStore) GetLatestByContract(_ context.Context, contractID int64) (*models.Claim, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var latest *models.Claim
	for id := range s.items {
		item := s.items[id]
		if item.ContractID != contractID {
			continue
		}
		if latest == nil || item.ID > latest.ID {
			c := copyClaim(item)
			latest = &c
		}
	}
	if latest == nil {
		return nil, fmt.Errorf("claim for contract %d: %w", contractID, models.ErrNotFound)
	}
	return latest, nil
}

func (s *MemoryClaimStore) Update(_ context.Context, claim *models.Claim) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.items[claim.ID]; !ok {
		return fmt.Errorf("claim %d: %w", claim.ID, models.ErrNotFound)
	}
	s.items[claim.ID] = copyClaim(*claim)
	return nil
}

// copyClaim deep-copies the slice/map fields so arena state never aliases
// caller state.
func copyClaim(claim models.Claim) models.Claim {
	claim.Evidence = append(models.StringList(nil), claim.Evidence...)
	claim.Oracles = append(models.StringList(nil), claim.Oracles...)
	votes := make(models.VoteMap, len(claim.Votes))
	for oracle, approve := range claim.Votes {
		votes[oracle] = approve
	}
	claim.Votes = votes
	return claim
}

type MemoryReviewStore struct {
	mu    sync.RWMutex
	items map[int64]models.Review
}

func NewMemoryReviewStore() *MemoryReviewStore {
	return &MemoryReviewStore{items: make(map[int64]models.Review)}
}

func (s *MemoryReviewStore) Create(_ context.Context, review *models.Review) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.items[review.ContractID]; ok {
		return fmt.Errorf("review for contract %d: %w", review.ContractID, models.ErrDuplicate)
	}
	s.items[review.ContractID] = *review
	return nil
}

func (s *MemoryReviewStore) GetByContract(_ context.Context, contractID int64) (*models.Review, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	item, ok := s.items[contractID]
	if !ok {
		return nil, fmt.Errorf("review for contract %d: %w", contractID, models.ErrNotFound)
	}
	return &item, nil
}

func (s *MemoryReviewStore) Update(_ context.Context, review *models.Review) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.items[review.ContractID]; !ok {
		return fmt.Errorf("review for contract %d: %w", review.ContractID, models.ErrNotFound)
	}
	s.items[review.ContractID] = *review
	return nil
}

type MemoryRewardStore struct {
	mu    sync.RWMutex
	items map[string]models.RewardAccount
}

func NewMemoryRewardStore() *MemoryRewardStore {
	return &MemoryRewardStore{items: make(map[string]models.RewardAccount)}
}

func (s *MemoryRewardStore) Get(_ context.Context, partyID string) (*models.RewardAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	item, ok := s.items[partyID]
	if !ok {
		return nil, fmt.Errorf("reward account %s: %w", partyID, models.ErrNotFound)
	}
	return &item, nil
}

func (s *MemoryRewardStore) Upsert(_ context.Context, account *models.RewardAccount) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items[account.PartyID] = *account
	return nil
}

type MemoryPartyStore struct {
	mu    sync.RWMutex
	items map[string]models.Party
}

func NewMemoryPartyStore() *MemoryPartyStore {
	return &MemoryPartyStore{items: make(map[string]models.Party)}
}

func (s *MemoryPartyStore) Upsert(_ context.Context, party *models.Party) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items[party.ID] = *party
	return nil
}

func (s *MemoryPartyStore) Get(_ context.Context, id string) (*models.Party, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	item, ok := s.items[id]
	if !ok {
		return nil, fmt.Errorf("party %s: %w", id, models.ErrNotFound)
	}
	return &item, nil
}

func (s *MemoryPartyStore) HasRole(_ context.Context, id string, role models.PartyRole) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	item, ok := s.items[id]
	return ok && item.Role == role, nil
}

func (s *MemoryPartyStore) ListByRole(_ context.Context, role models.PartyRole) ([]models.Party, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var parties []models.Party
	for _, item := range s.items {
		if item.Role == role {
			parties = append(parties, item)
		}
	}
	sort.Slice(parties, func(i, j int) bool { return parties[i].ID < parties[j].ID })
	return parties, nil
}

func sortByID[T any](items []T, id func(T) int64) {
	sort.Slice(items, func(i, j int) bool { return id(items[i]) < id(items[j]) })
}

var (
	_ ProposalStore = (*MemoryProposalStore)(nil)
	_ BidStore      = (*MemoryBidStore)(nil)
	_ ContractStore = (*MemoryContractStore)(nil)
	_ ClaimStore    = (*MemoryClaimStore)(nil)
	_ ReviewStore   = (*MemoryReviewStore)(nil)
	_ RewardStore   = (*MemoryRewardStore)(nil)
	_ PartyStore    = (*MemoryPartyStore)(nil)
)
