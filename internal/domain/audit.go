package domain

import "time"

// CommitAudit records one commit attempt for later review.
type CommitAudit struct {
	ID           string
	PendingID    string
	EntryDate    Date
	Account      string
	Payee        string
	Narration    string
	JournalFile  string
	RequestID    string
	Status       AuditStatus
	ErrorMessage string
	CreatedAt    time.Time
}

// AuditStatus represents the outcome of an audited commit.
type AuditStatus string

const (
	AuditStatusSuccess   AuditStatus = "success"
	AuditStatusRejected  AuditStatus = "rejected"
	AuditStatusInvariant AuditStatus = "invariant"
	AuditStatusError     AuditStatus = "error"
)

// AuditFilter narrows audit queries.
type AuditFilter struct {
	PendingID string
	Status    AuditStatus
	Limit     int
}
