package usecase

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/jakobhellermann/beancount-staging/internal/domain"
	"github.com/jakobhellermann/beancount-staging/internal/infrastructure/metrics"
	"github.com/jakobhellermann/beancount-staging/internal/reconcile"
)

// PendingItem is a staging entry awaiting a decision.
type PendingItem struct {
	ID        string
	Directive *domain.Directive
}

// ReviewConfig wires a ReviewUseCase. Audit, IDGen, Notifier, Drafts and
// Metrics are optional.
type ReviewConfig struct {
	Journal EntrySource
	Staging EntrySource
	// JournalFiles are the configured journal roots; commits go to the
	// first one.
	JournalFiles []string
	Writer       JournalWriter
	Audit        AuditRepository
	IDGen        IDGenerator
	Notifier     ChangeNotifier
	Drafts       DraftStore
	Metrics      *metrics.Metrics
	Logger       zerolog.Logger
}

// ReviewUseCase holds the live reconciliation state. One lock guards it.
// Reloads and the journal append of a commit run under the lock; audit and
// draft store writes run after it is released.
type ReviewUseCase struct {
	journal      EntrySource
	staging      EntrySource
	journalFiles []string
	writer       JournalWriter
	audit        AuditRepository
	idGen        IDGenerator
	notifier     ChangeNotifier
	draftStore   DraftStore
	metrics      *metrics.Metrics
	logger       zerolog.Logger
	now          func() time.Time

	mu       sync.Mutex
	loaded   bool
	pending  []PendingItem
	index    map[string]int
	accounts []string
	files    []string
	drafts   map[string]string
}

// NewReviewUseCase creates a new ReviewUseCase with empty state. Call Reload
// to populate it.
func NewReviewUseCase(cfg ReviewConfig) *ReviewUseCase {
	return &ReviewUseCase{
		journal:      cfg.Journal,
		staging:      cfg.Staging,
		journalFiles: cfg.JournalFiles,
		writer:       cfg.Writer,
		audit:        cfg.Audit,
		idGen:        cfg.IDGen,
		notifier:     cfg.Notifier,
		draftStore:   cfg.Drafts,
		metrics:      cfg.Metrics,
		logger:       cfg.Logger,
		now:          time.Now,
		index:        make(map[string]int),
		drafts:       make(map[string]string),
	}
}

// Reload rereads both sources and replaces the whole state. On error the
// previous state is kept.
func (uc *ReviewUseCase) Reload(ctx context.Context) error {
	start := time.Now()

	uc.mu.Lock()
	summary, err := uc.reloadLocked(ctx)
	uc.mu.Unlock()

	if uc.metrics != nil {
		result := metrics.ReloadSuccess
		if err != nil {
			result = metrics.ReloadError
		}
		uc.metrics.Reloads.WithLabelValues(result).Inc()
		uc.metrics.ReloadDuration.Observe(time.Since(start).Seconds())
	}

	if err != nil {
		return err
	}

	if uc.metrics != nil {
		uc.metrics.PendingItems.Set(float64(summary.pending))
		uc.metrics.WatchedFiles.Set(float64(summary.files))
	}
	uc.syncDrafts(ctx, summary.drafts)

	uc.logger.Info().
		Int("pending", summary.pending).
		Int("accounts", summary.accounts).
		Int("files", summary.files).
		Dur("duration", time.Since(start)).
		Msg("reconciliation reloaded")

	return nil
}

type reloadSummary struct {
	pending  int
	accounts int
	files    int
	drafts   draftChanges
}

// draftChanges are draft store writes deferred until the lock is released.
type draftChanges struct {
	saved   map[string]string
	deleted []string
}

func (uc *ReviewUseCase) reloadLocked(ctx context.Context) (reloadSummary, error) {
	journal, err := uc.journal.Load(ctx)
	if err != nil {
		return reloadSummary{}, fmt.Errorf("load journal: %w", err)
	}

	staging, err := uc.staging.Load(ctx)
	if err != nil {
		return reloadSummary{}, fmt.Errorf("load staging: %w", err)
	}

	items := reconcile.ReconcileDirectives(journal.Directives, staging.Directives)
	pending, index := buildPending(items)

	uc.pending = pending
	uc.index = index
	uc.accounts = collectAccounts(journal.Directives)
	uc.files = mergeFiles(journal.Files, staging.Files)

	if !uc.loaded {
		uc.loaded = true
		uc.restoreDrafts(ctx)
	}

	return reloadSummary{
		pending:  len(uc.pending),
		accounts: len(uc.accounts),
		files:    len(uc.files),
		drafts:   uc.reassignDraftsLocked(),
	}, nil
}

// restoreDrafts merges persisted drafts into memory on the first load.
func (uc *ReviewUseCase) restoreDrafts(ctx context.Context) {
	if uc.draftStore == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), DefaultDraftTimeout)
	defer cancel()

	stored, err := uc.draftStore.Load(ctx)
	if err != nil {
		uc.logger.Warn().Err(err).Msg("failed to restore drafts")
		return
	}
	for id, account := range stored {
		if _, ok := uc.drafts[id]; !ok {
			uc.drafts[id] = account
		}
	}
}

// reassignDraftsLocked drops drafts whose item is gone. Committing one of
// several identical entries renumbers the rest, so when exactly one item
// with the same content remains and has no draft yet, the draft moves to it.
func (uc *ReviewUseCase) reassignDraftsLocked() draftChanges {
	var stale []string
	for id := range uc.drafts {
		if _, ok := uc.index[id]; !ok {
			stale = append(stale, id)
		}
	}
	if len(stale) == 0 {
		return draftChanges{}
	}
	slices.Sort(stale)

	siblings := make(map[string][]string)
	for id := range uc.index {
		key := contentKeyOf(id)
		siblings[key] = append(siblings[key], id)
	}

	changes := draftChanges{saved: make(map[string]string)}
	for _, id := range stale {
		account := uc.drafts[id]
		delete(uc.drafts, id)
		changes.deleted = append(changes.deleted, id)

		survivors := siblings[contentKeyOf(id)]
		if len(survivors) != 1 {
			continue
		}
		if _, taken := uc.drafts[survivors[0]]; taken {
			continue
		}
		uc.drafts[survivors[0]] = account
		changes.saved[survivors[0]] = account
	}
	return changes
}

// syncDrafts applies draft changes to the store. Failures are logged; the
// in-memory drafts stay authoritative.
func (uc *ReviewUseCase) syncDrafts(ctx context.Context, changes draftChanges) {
	if uc.draftStore == nil || (len(changes.saved) == 0 && len(changes.deleted) == 0) {
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), DefaultDraftTimeout)
	defer cancel()

	if len(changes.deleted) > 0 {
		if err := uc.draftStore.Delete(ctx, changes.deleted...); err != nil {
			uc.logger.Warn().Err(err).Strs("pending_ids", changes.deleted).Msg("failed to delete drafts")
		}
	}
	for id, account := range changes.saved {
		if err := uc.draftStore.Save(ctx, id, account); err != nil {
			uc.logger.Warn().Err(err).Str("pending_id", id).Msg("failed to persist draft")
		}
	}
}

// buildPending keeps the staging-only items, in reconciliation order, and
// gives each a content-derived ID. Repeated content gets a -2, -3, ...
// suffix by occurrence.
func buildPending(items []reconcile.Item) ([]PendingItem, map[string]int) {
	var pending []PendingItem
	index := make(map[string]int)
	seen := make(map[string]int)

	for _, it := range items {
		if it.Origin != reconcile.OnlyInStaging {
			continue
		}

		key := domain.ContentKey(it.Directive)
		seen[key]++
		id := key
		if n := seen[key]; n > 1 {
			id = fmt.Sprintf("%s-%d", key, n)
		}

		index[id] = len(pending)
		pending = append(pending, PendingItem{ID: id, Directive: it.Directive})
	}

	return pending, index
}

// contentKeyOf strips the occurrence suffix from a pending item ID.
func contentKeyOf(id string) string {
	if i := strings.IndexByte(id, '-'); i >= 0 {
		return id[:i]
	}
	return id
}

func collectAccounts(directives []*domain.Directive) []string {
	set := make(map[string]struct{})
	for _, d := range directives {
		if open, ok := d.Content.(*domain.Open); ok {
			set[string(open.Account)] = struct{}{}
		}
	}
	return slices.Sorted(maps.Keys(set))
}

func mergeFiles(lists ...[]string) []string {
	var out []string
	for _, list := range lists {
		for _, f := range list {
			if !slices.Contains(out, f) {
				out = append(out, f)
			}
		}
	}
	return out
}

// List returns every pending item in order.
func (uc *ReviewUseCase) List() []PendingItem {
	uc.mu.Lock()
	defer uc.mu.Unlock()

	return slices.Clone(uc.pending)
}

// PendingDetail is one pending item with its position and draft, read
// together.
type PendingDetail struct {
	Item  PendingItem
	Index int
	Draft string
}

// Get returns one pending item.
func (uc *ReviewUseCase) Get(id string) (PendingDetail, error) {
	uc.mu.Lock()
	defer uc.mu.Unlock()

	i, ok := uc.index[id]
	if !ok {
		return PendingDetail{}, fmt.Errorf("%w: %s", domain.ErrPendingNotFound, id)
	}
	return PendingDetail{Item: uc.pending[i], Index: i, Draft: uc.drafts[id]}, nil
}

// Remove drops a pending item without writing anything. Viewers are told
// the list changed.
func (uc *ReviewUseCase) Remove(ctx context.Context, id string) error {
	uc.mu.Lock()
	hadDraft, err := uc.removeLocked(id)
	remaining := len(uc.pending)
	uc.mu.Unlock()

	if err != nil {
		return err
	}
	if hadDraft {
		uc.syncDrafts(ctx, draftChanges{deleted: []string{id}})
	}

	uc.logger.Info().Str("pending_id", id).Int("remaining", remaining).Msg("entry dismissed")
	uc.publish(domain.EventTypeDismissed, remaining)
	return nil
}

// removeLocked drops the item and its in-memory draft. It reports whether a
// draft existed, so the caller can delete it from the store after unlocking.
func (uc *ReviewUseCase) removeLocked(id string) (bool, error) {
	i, ok := uc.index[id]
	if !ok {
		return false, fmt.Errorf("%w: %s", domain.ErrPendingNotFound, id)
	}

	uc.pending = slices.Delete(uc.pending, i, i+1)
	delete(uc.index, id)
	for j := i; j < len(uc.pending); j++ {
		uc.index[uc.pending[j].ID] = j
	}
	_, hadDraft := uc.drafts[id]
	delete(uc.drafts, id)

	if uc.metrics != nil {
		uc.metrics.PendingItems.Set(float64(len(uc.pending)))
	}
	return hadDraft, nil
}

func (uc *ReviewUseCase) publish(eventType string, remaining int) {
	if uc.notifier == nil {
		return
	}
	uc.notifier.Publish(domain.ChangeEvent{
		Type:    eventType,
		Pending: remaining,
		At:      uc.now(),
	})
}

// Count returns the number of pending items.
func (uc *ReviewUseCase) Count() int {
	uc.mu.Lock()
	defer uc.mu.Unlock()

	return len(uc.pending)
}

// Accounts returns the accounts opened in the journal, sorted.
func (uc *ReviewUseCase) Accounts() []string {
	uc.mu.Lock()
	defer uc.mu.Unlock()

	return slices.Clone(uc.accounts)
}

// WatchedFiles returns the files that contributed entries on the last
// successful reload.
func (uc *ReviewUseCase) WatchedFiles() []string {
	uc.mu.Lock()
	defer uc.mu.Unlock()

	return slices.Clone(uc.files)
}

// SaveAccount remembers an in-progress account choice for a pending item.
// An empty account clears it. Drafts are dropped when their item goes away.
// A failing draft store is logged; the in-memory draft is kept regardless.
func (uc *ReviewUseCase) SaveAccount(ctx context.Context, id, account string) error {
	uc.mu.Lock()
	if _, ok := uc.index[id]; !ok {
		uc.mu.Unlock()
		return fmt.Errorf("%w: %s", domain.ErrPendingNotFound, id)
	}
	if account == "" {
		delete(uc.drafts, id)
	} else {
		uc.drafts[id] = account
	}
	uc.mu.Unlock()

	if account == "" {
		uc.syncDrafts(ctx, draftChanges{deleted: []string{id}})
	} else {
		uc.syncDrafts(ctx, draftChanges{saved: map[string]string{id: account}})
	}
	return nil
}

// Drafts returns the saved account choices by item ID.
func (uc *ReviewUseCase) Drafts() map[string]string {
	uc.mu.Lock()
	defer uc.mu.Unlock()

	return maps.Clone(uc.drafts)
}

// CommitInput represents input for committing a pending item.
type CommitInput struct {
	ID        string
	Account   string
	Payee     *string
	Narration *string
	// RequestID is recorded in the audit log when set.
	RequestID string
}

// CommitResult is the outcome of a successful commit.
type CommitResult struct {
	Entry     *domain.Directive
	Remaining int
}

// Commit writes a pending item to the first journal file and removes it
// from the state. A failed commit changes neither the journal nor the state.
// The audit record and draft cleanup are written once the lock is released.
func (uc *ReviewUseCase) Commit(ctx context.Context, in CommitInput) (*CommitResult, error) {
	start := time.Now()
	if uc.metrics != nil {
		defer func() { uc.metrics.CommitDuration.Observe(time.Since(start).Seconds()) }()
	}

	out := uc.commitLocked(ctx, in)
	if !out.found {
		uc.countCommit(metrics.CommitRejected)
		return nil, out.err
	}

	uc.finishCommit(ctx, out)
	if out.err != nil {
		return nil, out.err
	}
	return out.result, nil
}

// commitOutcome carries what a commit did under the lock to the work that
// follows it.
type commitOutcome struct {
	in       CommitInput
	item     PendingItem
	found    bool
	target   string
	hadDraft bool
	result   *CommitResult
	err      error
}

func (uc *ReviewUseCase) commitLocked(ctx context.Context, in CommitInput) commitOutcome {
	uc.mu.Lock()
	defer uc.mu.Unlock()

	out := commitOutcome{in: in}
	i, ok := uc.index[in.ID]
	if !ok {
		out.err = fmt.Errorf("%w: %s", domain.ErrPendingNotFound, in.ID)
		return out
	}
	out.item = uc.pending[i]
	out.found = true

	if len(uc.journalFiles) == 0 {
		out.err = domain.ErrNoJournalFile
		return out
	}
	out.target = uc.journalFiles[0]

	entry, err := domain.PrepareCommit(out.item.Directive, domain.CommitInput{
		Account:   in.Account,
		Payee:     in.Payee,
		Narration: in.Narration,
	})
	if err != nil {
		out.err = err
		return out
	}

	if err := uc.writer.Append(ctx, out.target, entry); err != nil {
		out.err = fmt.Errorf("append to journal: %w", err)
		return out
	}

	// The item was looked up under the lock, so it is still present.
	out.hadDraft, _ = uc.removeLocked(in.ID)
	out.result = &CommitResult{Entry: entry, Remaining: len(uc.pending)}
	return out
}

// commitStatus classifies a commit outcome for metrics and the audit log.
func commitStatus(err error) domain.AuditStatus {
	switch {
	case err == nil:
		return domain.AuditStatusSuccess
	case domain.IsInvariant(err):
		return domain.AuditStatusInvariant
	case errors.Is(err, domain.ErrInvalidAccount),
		errors.Is(err, domain.ErrNotTransaction),
		errors.Is(err, domain.ErrNoPostings),
		errors.Is(err, domain.ErrNoJournalFile):
		return domain.AuditStatusRejected
	default:
		return domain.AuditStatusError
	}
}

func (uc *ReviewUseCase) countCommit(result string) {
	if uc.metrics != nil {
		uc.metrics.Commits.WithLabelValues(result).Inc()
	}
}

func (uc *ReviewUseCase) finishCommit(ctx context.Context, out commitOutcome) {
	status := commitStatus(out.err)
	uc.countCommit(string(status))

	item, in := out.item, out.in
	switch status {
	case domain.AuditStatusSuccess:
		uc.logger.Info().
			Str("pending_id", item.ID).
			Str("account", in.Account).
			Str("journal", out.target).
			Int("remaining", out.result.Remaining).
			Msg("entry committed")
	case domain.AuditStatusInvariant:
		if uc.metrics != nil {
			uc.metrics.InvariantViolations.Inc()
		}
		uc.logger.Error().
			Bool("invariant", true).
			Str("pending_id", item.ID).
			Str("location", fmt.Sprintf("%s:%d", item.Directive.Location.File, item.Directive.Location.Line)).
			Err(out.err).
			Msg("commit aborted: internal invariant violated")
	case domain.AuditStatusRejected:
		uc.logger.Warn().Str("pending_id", item.ID).Str("account", in.Account).Err(out.err).Msg("commit rejected")
	default:
		uc.logger.Error().Str("pending_id", item.ID).Err(out.err).Msg("commit failed")
	}

	if out.err == nil {
		uc.publish(domain.EventTypeCommitted, out.result.Remaining)
		if out.hadDraft {
			uc.syncDrafts(ctx, draftChanges{deleted: []string{item.ID}})
		}
	}

	uc.recordAudit(ctx, item, in, out.target, status, out.err)
}

func (uc *ReviewUseCase) recordAudit(ctx context.Context, item PendingItem, in CommitInput, target string, status domain.AuditStatus, cause error) {
	if uc.audit == nil || uc.idGen == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), DefaultAuditTimeout)
	defer cancel()

	record := &domain.CommitAudit{
		ID:          uc.idGen.Generate(),
		PendingID:   item.ID,
		EntryDate:   item.Directive.Date,
		Account:     in.Account,
		JournalFile: target,
		RequestID:   in.RequestID,
		Status:      status,
		CreatedAt:   uc.now().UTC(),
	}
	if txn := item.Directive.Transaction(); txn != nil {
		record.Payee = txn.Payee
		record.Narration = txn.Narration
	}
	if cause != nil {
		record.ErrorMessage = cause.Error()
	}

	if err := uc.audit.Create(ctx, record); err != nil {
		uc.logger.Warn().Err(err).Str("pending_id", item.ID).Msg("failed to write commit audit record")
		return
	}
	if uc.metrics != nil {
		uc.metrics.AuditRecords.WithLabelValues(string(status)).Inc()
	}
}

// History returns recorded commit attempts, newest first. Without an audit
// repository it returns nothing.
func (uc *ReviewUseCase) History(ctx context.Context, filter domain.AuditFilter) ([]*domain.CommitAudit, error) {
	if uc.audit == nil {
		return nil, nil
	}
	return uc.audit.List(ctx, filter)
}
