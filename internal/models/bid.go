package models

// ============================================================================
// BID (INSURER OFFER AGAINST A PROPOSAL)
// ============================================================================

type Bid struct {
	ID          int64  `json:"id" db:"id"`
	ProposalID  int64  `json:"proposal_id" db:"proposal_id"`
	Insurer     string `json:"insurer" db:"insurer"`
	Premium     int64  `json:"premium" db:"premium"`
	Coverage    int64  `json:"coverage" db:"coverage"`
	Terms       string `json:"terms" db:"terms"`
	BidDuration int64  `json:"bid_duration" db:"bid_duration"`
	CreatedAt   int64  `json:"created_at" db:"created_at"`
	BidDeadline int64  `json:"bid_deadline" db:"bid_deadline"`
	Active      bool   `json:"active" db:"active"`
}

// Acceptable reports whether the bid can still be modified, cancelled, or
// accepted at the given time.
func (b *Bid) Acceptable(now int64) bool {
	return b.Active && now <= b.BidDeadline
}
