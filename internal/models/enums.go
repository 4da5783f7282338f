package models

type ContractStatus string

const (
	ContractActive    ContractStatus = "active"
	ContractClaimed   ContractStatus = "claimed"
	ContractExpired   ContractStatus = "expired"
	ContractCancelled ContractStatus = "cancelled"
)

type PartyRole string

const (
	RoleInsurer PartyRole = "insurer"
	RoleOracle  PartyRole = "oracle"
)

func IsValidContractStatus(status ContractStatus) bool {
	switch status {
	case ContractActive, ContractClaimed, ContractExpired, ContractCancelled:
		return true
	default:
		return false
	}
}

func IsValidPartyRole(role PartyRole) bool {
	switch role {
	case RoleInsurer, RoleOracle:
		return true
	default:
		return false
	}
}
