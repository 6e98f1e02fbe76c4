package models

import "time"

// AuditAction constants represent actions to be logged.
const (
	AuditActionCertificateIssue      = "CERTIFICATE_ISSUE"
	AuditActionCertificateRevoke     = "CERTIFICATE_REVOKE"
	AuditActionCertificateRegenerate = "CERTIFICATE_REGENERATE"
)

// AuditResourceCertificate names the audited resource type.
const AuditResourceCertificate = "certificate"

// AuditLog represents an append-only audit trail record.
type AuditLog struct {
	ID         string    `db:"id" json:"id"`
	UserID     *string   `db:"user_id" json:"user_id,omitempty"`
	Action     string    `db:"action" json:"action"`
	Resource   string    `db:"resource" json:"resource"`
	ResourceID *string   `db:"resource_id" json:"resource_id,omitempty"`
	OldValues  []byte    `db:"old_values" json:"old_values,omitempty"`
	NewValues  []byte    `db:"new_values" json:"new_values,omitempty"`
	IPAddress  string    `db:"ip_address" json:"ip_address"`
	UserAgent  string    `db:"user_agent" json:"user_agent"`
	RequestID  string    `db:"request_id" json:"request_id"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// RequestMeta carries caller details recorded in audit entries.
type RequestMeta struct {
	IPAddress string
	UserAgent string
	RequestID string
}
