package models

import "github.com/google/uuid"

// Event types emitted on the marketplace stream, exactly one per successful
// state transition.
const (
	EventProposalCreated    = "proposal.created"
	EventProposalCancelled  = "proposal.cancelled"
	EventBidSubmitted       = "bid.submitted"
	EventBidUpdated         = "bid.updated"
	EventBidCancelled       = "bid.cancelled"
	EventContractCreated    = "contract.created"
	EventContractExpired    = "contract.expired"
	EventClaimSubmitted     = "claim.submitted"
	EventClaimEvidenceAdded = "claim.evidence_added"
	EventOraclesAssigned    = "claim.oracles_assigned"
	EventOracleVerification = "claim.verification_submitted"
	EventClaimProcessed     = "claim.processed"
	EventClaimAutoRejected  = "claim.auto_rejected"
	EventReviewSubmitted    = "review.submitted"
	EventReviewModified     = "review.modified"
	EventReviewDeleted      = "review.deleted"
	EventReviewReported     = "review.reported"
	EventReviewResolved     = "review.resolved"
	EventInsurerRegistered  = "party.insurer_registered"
	EventOracleRegistered   = "party.oracle_registered"
	EventRewardAccrued      = "reward.accrued"
)

// MarketplaceEvent is the envelope appended to the event stream for every
// successful mutation. Consumers (indexers, notification fan-out) subscribe
// to the queue; the core only guarantees one emit per transition.
type MarketplaceEvent struct {
	ID         uuid.UUID      `json:"id"`
	Type       string         `json:"type"`
	Actor      string         `json:"actor"`
	ProposalID int64          `json:"proposal_id,omitempty"`
	BidID      int64          `json:"bid_id,omitempty"`
	ContractID int64          `json:"contract_id,omitempty"`
	ClaimID    int64          `json:"claim_id,omitempty"`
	Amount     int64          `json:"amount,omitempty"`
	Premium    int64          `json:"premium,omitempty"`
	Coverage   int64          `json:"coverage,omitempty"`
	Data       map[string]any `json:"data,omitempty"`
	EmittedAt  int64          `json:"emitted_at"`
}

func NewEvent(eventType, actor string, emittedAt int64) MarketplaceEvent {
	return MarketplaceEvent{
		ID:        uuid.New(),
		Type:      eventType,
		Actor:     actor,
		EmittedAt: emittedAt,
	}
}
