package mocks

import (
	"context"
	"slices"
	"strconv"
	"sync"

	"github.com/jakobhellermann/beancount-staging/internal/domain"
	"github.com/jakobhellermann/beancount-staging/internal/usecase"
)

// StaticSource is an EntrySource that returns a fixed snapshot.
type StaticSource struct {
	mu       sync.Mutex
	snapshot *usecase.Snapshot

	LoadFunc func(ctx context.Context) (*usecase.Snapshot, error)
}

// NewStaticSource creates a new StaticSource.
func NewStaticSource(directives []*domain.Directive, files ...string) *StaticSource {
	return &StaticSource{snapshot: &usecase.Snapshot{Directives: directives, Files: files}}
}

// Set replaces the snapshot returned by later loads.
func (s *StaticSource) Set(directives []*domain.Directive, files ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot = &usecase.Snapshot{Directives: directives, Files: files}
}

func (s *StaticSource) Load(ctx context.Context) (*usecase.Snapshot, error) {
	if s.LoadFunc != nil {
		return s.LoadFunc(ctx)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return &usecase.Snapshot{
		Directives: slices.Clone(s.snapshot.Directives),
		Files:      slices.Clone(s.snapshot.Files),
	}, nil
}

// MemoryJournalWriter records appended entries per path.
type MemoryJournalWriter struct {
	mu      sync.Mutex
	entries map[string][]*domain.Directive

	AppendFunc func(ctx context.Context, path string, entry *domain.Directive) error
}

// NewMemoryJournalWriter creates a new MemoryJournalWriter.
func NewMemoryJournalWriter() *MemoryJournalWriter {
	return &MemoryJournalWriter{entries: make(map[string][]*domain.Directive)}
}

func (w *MemoryJournalWriter) Append(ctx context.Context, path string, entry *domain.Directive) error {
	if w.AppendFunc != nil {
		return w.AppendFunc(ctx, path, entry)
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.entries[path] = append(w.entries[path], entry)
	return nil
}

// Entries returns what was appended to path.
func (w *MemoryJournalWriter) Entries(path string) []*domain.Directive {
	w.mu.Lock()
	defer w.mu.Unlock()
	return slices.Clone(w.entries[path])
}

// MemoryAuditRepository keeps audit records in memory.
type MemoryAuditRepository struct {
	mu      sync.RWMutex
	records []*domain.CommitAudit

	CreateFunc func(ctx context.Context, audit *domain.CommitAudit) error
}

// NewMemoryAuditRepository creates a new MemoryAuditRepository.
func NewMemoryAuditRepository() *MemoryAuditRepository {
	return &MemoryAuditRepository{}
}

func (r *MemoryAuditRepository) Create(ctx context.Context, audit *domain.CommitAudit) error {
	if r.CreateFunc != nil {
		return r.CreateFunc(ctx, audit)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, audit)
	return nil
}

func (r *MemoryAuditRepository) List(_ context.Context, filter domain.AuditFilter) ([]*domain.CommitAudit, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*domain.CommitAudit
	for i := len(r.records) - 1; i >= 0; i-- {
		rec := r.records[i]
		if filter.PendingID != "" && rec.PendingID != filter.PendingID {
			continue
		}
		if filter.Status != "" && rec.Status != filter.Status {
			continue
		}
		out = append(out, rec)
		if filter.Limit > 0 && len(out) == filter.Limit {
			break
		}
	}
	return out, nil
}

// SequenceIDGenerator hands out "id-1", "id-2", ...
type SequenceIDGenerator struct {
	mu sync.Mutex
	n  int
}

func (g *SequenceIDGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return "id-" + strconv.Itoa(g.n)
}

// RecordingNotifier keeps every published event.
type RecordingNotifier struct {
	mu     sync.Mutex
	events []domain.ChangeEvent
}

func (n *RecordingNotifier) Publish(event domain.ChangeEvent) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event)
}

// Events returns the published events in order.
func (n *RecordingNotifier) Events() []domain.ChangeEvent {
	n.mu.Lock()
	defer n.mu.Unlock()
	return slices.Clone(n.events)
}

// MemoryDraftStore keeps drafts in a map.
type MemoryDraftStore struct {
	mu     sync.Mutex
	drafts map[string]string

	LoadFunc func(ctx context.Context) (map[string]string, error)
	SaveFunc func(ctx context.Context, id, account string) error
}

// NewMemoryDraftStore creates a new MemoryDraftStore holding initial.
func NewMemoryDraftStore(initial map[string]string) *MemoryDraftStore {
	drafts := make(map[string]string, len(initial))
	for k, v := range initial {
		drafts[k] = v
	}
	return &MemoryDraftStore{drafts: drafts}
}

func (s *MemoryDraftStore) Load(ctx context.Context) (map[string]string, error) {
	if s.LoadFunc != nil {
		return s.LoadFunc(ctx)
	}
	return s.Snapshot(), nil
}

func (s *MemoryDraftStore) Save(ctx context.Context, id, account string) error {
	if s.SaveFunc != nil {
		return s.SaveFunc(ctx, id, account)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.drafts[id] = account
	return nil
}

func (s *MemoryDraftStore) Delete(_ context.Context, ids ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range ids {
		delete(s.drafts, id)
	}
	return nil
}

// Snapshot returns a copy of the stored drafts.
func (s *MemoryDraftStore) Snapshot() map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]string, len(s.drafts))
	for k, v := range s.drafts {
		out[k] = v
	}
	return out
}
