package models

import (
	"time"

	"github.com/jmoiron/sqlx/types"
)

// Audit actions recorded by the workflow.
const (
	AuditActionLogin     = "LOGIN"
	AuditActionLogout    = "LOGOUT"
	AuditActionSubmit    = "SUBMIT"
	AuditActionApproveL1 = "APPROVE_L1"
	AuditActionApproveL2 = "APPROVE_L2"
	AuditActionReject    = "REJECT"
)

// AuditLog records who did what to which request. Writes are best-effort; a
// failed audit insert never fails the triggering operation.
type AuditLog struct {
	ID         string         `db:"id" json:"id"`
	ActorEmail string         `db:"actor_email" json:"actor_email"`
	Action     string         `db:"action" json:"action"`
	ResourceID *string        `db:"resource_id" json:"resource_id,omitempty"`
	Payload    types.JSONText `db:"payload" json:"payload,omitempty"`
	IPAddress  string         `db:"ip_address" json:"ip_address,omitempty"`
	UserAgent  string         `db:"user_agent" json:"user_agent,omitempty"`
	CreatedAt  time.Time      `db:"created_at" json:"created_at"`
}
