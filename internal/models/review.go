package models

// ============================================================================
// REVIEW (POST-SETTLEMENT FEEDBACK FROM THE CONTRACT HOLDER)
// ============================================================================

// Review is keyed by contract id: at most one review per contract. Deleted
// reviews keep a tombstone row with cleared content.
type Review struct {
	ContractID     int64   `json:"contract_id" db:"contract_id"`
	Reviewer       string  `json:"reviewer" db:"reviewer"`
	Content        string  `json:"content" db:"content"`
	Rating         int     `json:"rating" db:"rating"`
	AdditionalInfo *string `json:"additional_info,omitempty" db:"additional_info"`
	UnderReview    bool    `json:"under_review" db:"under_review"`
	ReportReason   *string `json:"report_reason,omitempty" db:"report_reason"`
	ReportedBy     *string `json:"reported_by,omitempty" db:"reported_by"`
	Deleted        bool    `json:"deleted" db:"deleted"`
	CreatedAt      int64   `json:"created_at" db:"created_at"`
	UpdatedAt      int64   `json:"updated_at" db:"updated_at"`
}

const (
	MinRating = 1
	MaxRating = 5
)
