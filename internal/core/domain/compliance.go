package domain

import "time"

// ComplianceActionType names an entry in the compliance action log.
type ComplianceActionType string

const (
	ComplianceActionBlacklist   ComplianceActionType = "BLACKLIST"
	ComplianceActionUnblacklist ComplianceActionType = "UNBLACKLIST"
	ComplianceActionFreeze      ComplianceActionType = "FREEZE"
	ComplianceActionUnfreeze    ComplianceActionType = "UNFREEZE"
	ComplianceActionWipe        ComplianceActionType = "WIPE"
	ComplianceActionPause       ComplianceActionType = "PAUSE"
	ComplianceActionUnpause     ComplianceActionType = "UNPAUSE"
)

// ComplianceAction records who did what to which account, and why.
// Account is empty for global actions (pause, unpause).
type ComplianceAction struct {
	Type    ComplianceActionType `json:"type"`
	Actor   Address              `json:"actor"`
	Account Address              `json:"account,omitempty"`
	Reason  string               `json:"reason,omitempty"` // Incident reason or case id
	Amount  string               `json:"amount,omitempty"` // Wiped amount, base units
	At      time.Time            `json:"at"`
}
