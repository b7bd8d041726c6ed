package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/jakobhellermann/beancount-staging/internal/domain"
)

// DBTX is the subset of a pgx pool or transaction the repository needs.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// AuditRepository implements usecase.AuditRepository on the commit_audit
// table.
type AuditRepository struct {
	db      DBTX
	retrier *Retrier
}

// NewAuditRepository creates a new audit repository
func NewAuditRepository(db DBTX, retrier *Retrier) *AuditRepository {
	if retrier == nil {
		retrier = NewRetrier()
	}
	return &AuditRepository{db: db, retrier: retrier}
}

const insertCommitAudit = `
	INSERT INTO commit_audit (
		id, pending_id, entry_date, account, payee, narration,
		journal_file, request_id, status, error_message, created_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
`

// Create inserts one audit record. A unique violation on a retried attempt
// means an earlier attempt was stored before its connection failed.
func (r *AuditRepository) Create(ctx context.Context, audit *domain.CommitAudit) error {
	return r.retrier.Retry(ctx, func(attempt int) error {
		_, err := r.db.Exec(ctx, insertCommitAudit,
			audit.ID,
			audit.PendingID,
			dateToTime(audit.EntryDate),
			audit.Account,
			audit.Payee,
			audit.Narration,
			audit.JournalFile,
			audit.RequestID,
			string(audit.Status),
			audit.ErrorMessage,
			audit.CreatedAt,
		)
		if attempt > 1 && isUniqueViolation(err) {
			return nil
		}
		return err
	})
}

// List retrieves audit records, newest first.
func (r *AuditRepository) List(ctx context.Context, filter domain.AuditFilter) ([]*domain.CommitAudit, error) {
	query, args := buildListQuery(filter)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.CommitAudit
	for rows.Next() {
		var (
			rec       domain.CommitAudit
			entryDate time.Time
			status    string
		)
		err := rows.Scan(
			&rec.ID,
			&rec.PendingID,
			&entryDate,
			&rec.Account,
			&rec.Payee,
			&rec.Narration,
			&rec.JournalFile,
			&rec.RequestID,
			&status,
			&rec.ErrorMessage,
			&rec.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		rec.EntryDate = domain.NewDate(entryDate.Year(), entryDate.Month(), entryDate.Day())
		rec.Status = domain.AuditStatus(status)
		out = append(out, &rec)
	}

	return out, rows.Err()
}

func buildListQuery(filter domain.AuditFilter) (string, []any) {
	var b strings.Builder
	b.WriteString(`SELECT id, pending_id, entry_date, account, payee, narration,
       journal_file, request_id, status, error_message, created_at
FROM commit_audit`)

	var (
		conds []string
		args  []any
	)
	if filter.PendingID != "" {
		args = append(args, filter.PendingID)
		conds = append(conds, fmt.Sprintf("pending_id = $%d", len(args)))
	}
	if filter.Status != "" {
		args = append(args, string(filter.Status))
		conds = append(conds, fmt.Sprintf("status = $%d", len(args)))
	}
	if len(conds) > 0 {
		b.WriteString("\nWHERE ")
		b.WriteString(strings.Join(conds, " AND "))
	}

	b.WriteString("\nORDER BY created_at DESC, id DESC")

	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		fmt.Fprintf(&b, "\nLIMIT $%d", len(args))
	}

	return b.String(), args
}

func dateToTime(d domain.Date) time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

// NullAuditRepository discards records. It is used when no database is
// configured.
type NullAuditRepository struct{}

// NewNullAuditRepository creates a new NullAuditRepository.
func NewNullAuditRepository() *NullAuditRepository {
	return &NullAuditRepository{}
}

func (r *NullAuditRepository) Create(ctx context.Context, audit *domain.CommitAudit) error {
	return nil
}

func (r *NullAuditRepository) List(ctx context.Context, filter domain.AuditFilter) ([]*domain.CommitAudit, error) {
	return nil, nil
}
