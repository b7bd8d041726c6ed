package usecase

import (
	"context"
	"time"

	"github.com/jakobhellermann/beancount-staging/internal/domain"
)

// Snapshot is everything one source produced on a single read.
type Snapshot struct {
	Directives []*domain.Directive
	// Files lists the on-disk files that contributed, for watching.
	Files []string
}

// EntrySource reads one side of the reconciliation.
type EntrySource interface {
	Load(ctx context.Context) (*Snapshot, error)
}

// JournalWriter appends committed entries to a journal file.
type JournalWriter interface {
	Append(ctx context.Context, path string, entry *domain.Directive) error
}

// AuditRepository defines data access for commit audit records.
type AuditRepository interface {
	Create(ctx context.Context, audit *domain.CommitAudit) error
	List(ctx context.Context, filter domain.AuditFilter) ([]*domain.CommitAudit, error)
}

// ChangeNotifier fans change events out to subscribers. Publish must not
// block.
type ChangeNotifier interface {
	Publish(event domain.ChangeEvent)
}

// IDGenerator generates unique IDs.
type IDGenerator interface {
	Generate() string
}

// IdempotencyInFlight is the value stored under an idempotency key while its
// first request is still running.
const IdempotencyInFlight = "processing"

// IdempotencyStore handles idempotency key storage.
type IdempotencyStore interface {
	// CheckAndSet atomically checks if key exists, sets if not.
	// Returns (exists, existingValue, error).
	CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error)
	// Update updates an existing key with the final response.
	Update(ctx context.Context, key string, response []byte, ttl time.Duration) error
	// Release drops a key whose request did not complete, so a retry runs
	// again instead of waiting out the TTL.
	Release(ctx context.Context, key string) error
}

// DraftStore persists in-progress account selections across restarts.
type DraftStore interface {
	Load(ctx context.Context) (map[string]string, error)
	Save(ctx context.Context, id, account string) error
	Delete(ctx context.Context, ids ...string) error
}
