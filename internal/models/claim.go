package models

// ============================================================================
// CLAIM (PAYOUT REQUEST, ADJUDICATED BY AN ORACLE PANEL)
// ============================================================================

type Claim struct {
	ID                   int64      `json:"id" db:"id"`
	ContractID           int64      `json:"contract_id" db:"contract_id"`
	Claimant             string     `json:"claimant" db:"claimant"`
	Amount               int64      `json:"amount" db:"amount"`
	Description          string     `json:"description" db:"description"`
	Evidence             StringList `json:"evidence" db:"evidence"`
	SubmittedAt          int64      `json:"submitted_at" db:"submitted_at"`
	VerificationDeadline int64      `json:"verification_deadline" db:"verification_deadline"`
	Oracles              StringList `json:"oracles" db:"oracles"`
	Votes                VoteMap    `json:"votes" db:"votes"`
	VerificationCount    int        `json:"verification_count" db:"verification_count"`
	RejectionCount       int        `json:"rejection_count" db:"rejection_count"`
	Processed            bool       `json:"processed" db:"processed"`
	Approved             bool       `json:"approved" db:"approved"`
	AutoRejected         bool       `json:"auto_rejected" db:"auto_rejected"`
	PayoutAmount         *int64     `json:"payout_amount,omitempty" db:"payout_amount"`
}

// Open reports whether the claim still accepts oracle votes, ignoring the
// verification deadline. Deadline checks belong to the service so the lazy
// auto-rejection transition stays in one place.
func (c *Claim) Open() bool {
	return !c.Processed
}

// HasVoted reports whether the oracle already voted on this claim.
func (c *Claim) HasVoted(oracle string) bool {
	_, ok := c.Votes[oracle]
	return ok
}
