package auth

import "time"

// AuditEventType names what happened in a login audit record.
type AuditEventType string

const (
	AuditLoginSucceeded AuditEventType = "login.succeeded"
	AuditLoginFailed    AuditEventType = "login.failed"
	AuditLoginThrottled AuditEventType = "login.throttled"
	AuditLogout         AuditEventType = "logout"
)

// AuditEvent is a single entry in the staff login audit trail.
// It never contains submitted secrets.
type AuditEvent struct {
	ID         string         `json:"id"`
	Type       AuditEventType `json:"type"`
	Subject    string         `json:"subject,omitempty"`
	Mode       Mode           `json:"mode,omitempty"`
	ClientIP   string         `json:"client_ip,omitempty"`
	UserAgent  string         `json:"user_agent,omitempty"`
	Reason     string         `json:"reason,omitempty"`
	OccurredAt time.Time      `json:"occurred_at"`
}

// ClientInfo describes the caller of a login or logout request.
type ClientInfo struct {
	IP        string
	UserAgent string
}
