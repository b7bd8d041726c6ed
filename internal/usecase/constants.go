package usecase

import "time"

const (
	// DefaultAuditTimeout bounds the audit write that follows a commit.
	DefaultAuditTimeout = 5 * time.Second

	// DefaultDraftTimeout bounds each batch of draft store calls.
	DefaultDraftTimeout = 2 * time.Second

	// IdempotencyKeyTTL is how long idempotency keys are cached
	IdempotencyKeyTTL = 24 * time.Hour
)
