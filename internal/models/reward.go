package models

// ============================================================================
// REWARD ACCOUNT (PER-IDENTITY REVIEW REWARD LEDGER)
// ============================================================================

// RewardAccount balances only grow through accrual; there is no debit path
// outside administrator correction, which this service does not expose.
// ReviewScore accumulates the ratings of every submitted review; InfoScore
// records the one-time supplemental-information bonus.
type RewardAccount struct {
	PartyID     string `json:"party_id" db:"party_id"`
	Balance     int64  `json:"balance" db:"balance"`
	ReviewScore int64  `json:"review_score" db:"review_score"`
	InfoScore   int64  `json:"info_score" db:"info_score"`
	ReviewCount int64  `json:"review_count" db:"review_count"`
	UpdatedAt   int64  `json:"updated_at" db:"updated_at"`
}

type Party struct {
	ID           string    `json:"id" db:"id"`
	Role         PartyRole `json:"role" db:"role"`
	RegisteredAt int64     `json:"registered_at" db:"registered_at"`
}
