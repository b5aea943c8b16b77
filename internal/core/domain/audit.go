package domain

import (
	"time"

	"github.com/google/uuid"
)

// AuditAction represents the type of audited action.
type AuditAction string

const (
	AuditActionMint       AuditAction = "MINT"
	AuditActionBurn       AuditAction = "BURN"
	AuditActionTransfer   AuditAction = "TRANSFER"
	AuditActionRoles      AuditAction = "ROLES"
	AuditActionMinters    AuditAction = "MINTERS"
	AuditActionCompliance AuditAction = "COMPLIANCE"
	AuditActionOracle     AuditAction = "ORACLE"
	AuditActionSupply     AuditAction = "SUPPLY"
)

// AuditLog records a single audited action in the system.
type AuditLog struct {
	ID           uuid.UUID   `json:"id"`
	Actor        *Address    `json:"actor,omitempty"`
	Action       AuditAction `json:"action"`
	ResourceType string      `json:"resource_type"`
	ResourceID   string      `json:"resource_id,omitempty"`
	Details      string      `json:"details,omitempty"` // JSON string
	IPAddress    string      `json:"ip_address"`
	CreatedAt    time.Time   `json:"created_at"`
}

// AuditLogFromComplianceAction converts a compliance action into a
// persistent audit entry.
func AuditLogFromComplianceAction(a ComplianceAction, details string) *AuditLog {
	actor := a.Actor
	return &AuditLog{
		ID:           uuid.New(),
		Actor:        &actor,
		Action:       AuditActionCompliance,
		ResourceType: string(a.Type),
		ResourceID:   a.Account.String(),
		Details:      details,
		CreatedAt:    a.At,
	}
}
