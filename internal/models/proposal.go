package models

// ============================================================================
// PROPOSAL (COVERAGE REQUEST POSTED BY A USER)
// ============================================================================

type Proposal struct {
	ID          int64  `json:"id" db:"id"`
	Proposer    string `json:"proposer" db:"proposer"`
	Title       string `json:"title" db:"title"`
	Description string `json:"description" db:"description"`
	Premium     int64  `json:"premium" db:"premium"`
	Coverage    int64  `json:"coverage" db:"coverage"`
	Duration    int64  `json:"duration" db:"duration"`
	CreatedAt   int64  `json:"created_at" db:"created_at"`
	Deadline    int64  `json:"deadline" db:"deadline"`
	Active      bool   `json:"active" db:"active"`
	Finalized   bool   `json:"finalized" db:"finalized"`
}

// OpenForBidding reports whether the proposal still accepts bids at the
// given time.
func (p *Proposal) OpenForBidding(now int64) bool {
	return p.Active && !p.Finalized && now <= p.Deadline
}
