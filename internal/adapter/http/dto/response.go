package dto

import (
	"strings"
	"time"

	"github.com/jakobhellermann/beancount-staging/internal/domain"
	"github.com/jakobhellermann/beancount-staging/internal/infrastructure/beancount"
	"github.com/jakobhellermann/beancount-staging/internal/usecase"
)

// PendingItemResponse represents a pending staging entry in API responses.
type PendingItemResponse struct {
	ID        string `json:"id"`
	Index     int    `json:"index"`
	Date      string `json:"date"`
	Kind      string `json:"kind"`
	Payee     string `json:"payee,omitempty"`
	Narration string `json:"narration,omitempty"`
	Content   string `json:"content"`
}

// PendingItemFromUseCase converts a pending item to a response. index is its
// position in the current list.
func PendingItemFromUseCase(item usecase.PendingItem, index int) *PendingItemResponse {
	resp := &PendingItemResponse{
		ID:      item.ID,
		Index:   index,
		Date:    item.Directive.Date.String(),
		Kind:    item.Directive.Kind().String(),
		Content: RenderContent(item.Directive),
	}
	if txn := item.Directive.Transaction(); txn != nil {
		resp.Payee = txn.Payee
		resp.Narration = txn.Narration
	}
	return resp
}

// PendingItemsFromUseCase converts pending items to responses.
func PendingItemsFromUseCase(items []usecase.PendingItem) []*PendingItemResponse {
	result := make([]*PendingItemResponse, len(items))
	for i, item := range items {
		result[i] = PendingItemFromUseCase(item, i)
	}
	return result
}

// RenderContent formats a directive for display. Tabs become four spaces so
// amounts line up in a browser.
func RenderContent(d *domain.Directive) string {
	text := strings.ReplaceAll(beancount.Format(d), "\t", "    ")
	return strings.TrimRight(text, "\n")
}

// InitResponse is the full review state sent when a client connects.
type InitResponse struct {
	Items             []*PendingItemResponse `json:"items"`
	CurrentIndex      int                    `json:"current_index"`
	AvailableAccounts []string               `json:"available_accounts"`
	Drafts            map[string]string      `json:"drafts"`
}

// TransactionResponse is one pending item plus its saved draft account.
type TransactionResponse struct {
	*PendingItemResponse
	Draft string `json:"draft,omitempty"`
}

// CommitResponse is returned after a successful commit.
type CommitResponse struct {
	OK             bool   `json:"ok"`
	RemainingCount int    `json:"remaining_count"`
	Content        string `json:"content"`
}

// CommitFromUseCase converts a commit result to a response.
func CommitFromUseCase(r *usecase.CommitResult) *CommitResponse {
	return &CommitResponse{
		OK:             true,
		RemainingCount: r.Remaining,
		Content:        RenderContent(r.Entry),
	}
}

// AuditRecordResponse represents a commit audit record in API responses.
type AuditRecordResponse struct {
	ID           string    `json:"id"`
	PendingID    string    `json:"pending_id"`
	EntryDate    string    `json:"entry_date"`
	Account      string    `json:"account"`
	Payee        string    `json:"payee,omitempty"`
	Narration    string    `json:"narration,omitempty"`
	JournalFile  string    `json:"journal_file,omitempty"`
	RequestID    string    `json:"request_id,omitempty"`
	Status       string    `json:"status"`
	ErrorMessage string    `json:"error_message,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// AuditRecordFromDomain converts a domain audit record to a response.
func AuditRecordFromDomain(a *domain.CommitAudit) *AuditRecordResponse {
	return &AuditRecordResponse{
		ID:           a.ID,
		PendingID:    a.PendingID,
		EntryDate:    a.EntryDate.String(),
		Account:      a.Account,
		Payee:        a.Payee,
		Narration:    a.Narration,
		JournalFile:  a.JournalFile,
		RequestID:    a.RequestID,
		Status:       string(a.Status),
		ErrorMessage: a.ErrorMessage,
		CreatedAt:    a.CreatedAt,
	}
}

// AuditRecordsFromDomain converts domain audit records to responses.
func AuditRecordsFromDomain(records []*domain.CommitAudit) []*AuditRecordResponse {
	result := make([]*AuditRecordResponse, len(records))
	for i, r := range records {
		result[i] = AuditRecordFromDomain(r)
	}
	return result
}

// ErrorResponse represents an error in API responses.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
