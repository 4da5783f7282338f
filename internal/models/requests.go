package models

// Request DTOs for the mutating operations. Validation lives in the
// services so every rule is enforced regardless of transport.

type CreateProposalRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Premium     int64  `json:"premium"`
	Coverage    int64  `json:"coverage"`
	Duration    int64  `json:"duration"`
}

type PlaceBidRequest struct {
	ProposalID  int64  `json:"proposal_id"`
	Premium     int64  `json:"premium"`
	Coverage    int64  `json:"coverage"`
	Terms       string `json:"terms"`
	BidDuration int64  `json:"bid_duration"`
}

type ModifyBidRequest struct {
	Premium  int64  `json:"premium"`
	Coverage int64  `json:"coverage"`
	Terms    string `json:"terms"`
}

type AcceptBidRequest struct {
	ProposalID       int64 `json:"proposal_id"`
	BidID            int64 `json:"bid_id"`
	ContractDuration int64 `json:"contract_duration"`
}

type SubmitClaimRequest struct {
	Description string   `json:"description"`
	Amount      int64    `json:"amount"`
	Evidence    []string `json:"evidence"`
}

type AssignOraclesRequest struct {
	Oracles []string `json:"oracles"`
}

type OracleVoteRequest struct {
	Approve  bool   `json:"approve"`
	Evidence string `json:"evidence"`
}

type SubmitReviewRequest struct {
	Content        string `json:"content"`
	Rating         int    `json:"rating"`
	AdditionalInfo string `json:"additional_info,omitempty"`
}

type ModifyReviewRequest struct {
	Content string `json:"content"`
	Rating  int    `json:"rating"`
}

type ReportReviewRequest struct {
	Reason string `json:"reason"`
}

type ResolveReportRequest struct {
	Uphold bool `json:"uphold"`
}

type RegisterOracleRequest struct {
	OracleID string `json:"oracle_id"`
}
