package data

import "errors"

// Shared sentinel errors for data-layer repositories.
var (
	// ErrAuditEventTypeRequired is returned when recording an audit event without a type.
	ErrAuditEventTypeRequired = errors.New("audit event type is required")
	// ErrAuditCutoffRequired is returned when pruning with a zero cutoff time.
	ErrAuditCutoffRequired = errors.New("audit prune cutoff is required")
)
