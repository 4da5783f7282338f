package models

// ============================================================================
// CONTRACT (BINDING AGREEMENT FROM AN ACCEPTED BID)
// ============================================================================

// Contract is immutable once created except for the status/claimed
// transitions driven by claims and the expiration sweep.
type Contract struct {
	ID         int64          `json:"id" db:"id"`
	ProposalID int64          `json:"proposal_id" db:"proposal_id"`
	BidID      int64          `json:"bid_id" db:"bid_id"`
	Proposer   string         `json:"proposer" db:"proposer"`
	Insurer    string         `json:"insurer" db:"insurer"`
	Premium    int64          `json:"premium" db:"premium"`
	Coverage   int64          `json:"coverage" db:"coverage"`
	Terms      string         `json:"terms" db:"terms"`
	StartDate  int64          `json:"start_date" db:"start_date"`
	EndDate    int64          `json:"end_date" db:"end_date"`
	Status     ContractStatus `json:"status" db:"status"`
	Claimed    bool           `json:"claimed" db:"claimed"`
}
