package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/jakobhellermann/beancount-staging/internal/adapter/http/dto"
	"github.com/jakobhellermann/beancount-staging/internal/domain"
	"github.com/jakobhellermann/beancount-staging/internal/usecase"
)

const defaultHistoryLimit = 50

// ReviewService defines the behavior needed by ReviewHandler.
type ReviewService interface {
	List() []usecase.PendingItem
	Get(id string) (usecase.PendingDetail, error)
	Remove(ctx context.Context, id string) error
	Accounts() []string
	Drafts() map[string]string
	SaveAccount(ctx context.Context, id, account string) error
	Commit(ctx context.Context, in usecase.CommitInput) (*usecase.CommitResult, error)
	History(ctx context.Context, filter domain.AuditFilter) ([]*domain.CommitAudit, error)
}

// ReviewHandler handles review-related HTTP requests.
type ReviewHandler struct {
	reviewUC ReviewService
}

// NewReviewHandler creates a new ReviewHandler.
func NewReviewHandler(reviewUC ReviewService) *ReviewHandler {
	return &ReviewHandler{reviewUC: reviewUC}
}

// Init returns everything a client needs to start reviewing.
func (h *ReviewHandler) Init(w http.ResponseWriter, r *http.Request) {
	accounts := h.reviewUC.Accounts()
	if accounts == nil {
		accounts = []string{}
	}
	drafts := h.reviewUC.Drafts()
	if drafts == nil {
		drafts = map[string]string{}
	}

	writeJSON(w, http.StatusOK, dto.InitResponse{
		Items:             dto.PendingItemsFromUseCase(h.reviewUC.List()),
		CurrentIndex:      0,
		AvailableAccounts: accounts,
		Drafts:            drafts,
	})
}

// GetTransaction retrieves one pending item by ID.
func (h *ReviewHandler) GetTransaction(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing transaction ID", "")
		return
	}

	detail, err := h.reviewUC.Get(id)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to get transaction", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.TransactionResponse{
		PendingItemResponse: dto.PendingItemFromUseCase(detail.Item, detail.Index),
		Draft:               detail.Draft,
	})
}

// SaveAccount stores the draft account selection for a pending item.
func (h *ReviewHandler) SaveAccount(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req dto.SaveAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	if err := h.reviewUC.SaveAccount(r.Context(), id, req.Account); err != nil {
		writeError(w, mapDomainError(err), "failed to save account", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// Commit writes a pending item to the journal.
func (h *ReviewHandler) Commit(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req dto.CommitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	input, err := req.ToUseCaseInput(id, chimiddleware.GetReqID(r.Context()))
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "invalid request", err.Error())
		return
	}

	result, err := h.reviewUC.Commit(r.Context(), input)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to commit transaction", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.CommitFromUseCase(result))
}

// Dismiss removes a pending item until the next reload.
func (h *ReviewHandler) Dismiss(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.reviewUC.Remove(r.Context(), id); err != nil {
		writeError(w, mapDomainError(err), "failed to dismiss transaction", err.Error())
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// History lists recorded commit attempts, newest first.
func (h *ReviewHandler) History(w http.ResponseWriter, r *http.Request) {
	filter := domain.AuditFilter{
		PendingID: r.URL.Query().Get("pending_id"),
		Status:    domain.AuditStatus(r.URL.Query().Get("status")),
		Limit:     parseIntQuery(r, "limit", defaultHistoryLimit),
	}
	if filter.Limit <= 0 {
		writeError(w, http.StatusBadRequest, "invalid limit", "limit must be positive")
		return
	}

	records, err := h.reviewUC.History(r.Context(), filter)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to list history", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.AuditRecordsFromDomain(records))
}
