package dto

import (
	"errors"
	"strings"

	"github.com/jakobhellermann/beancount-staging/internal/usecase"
)

// ErrMissingAccount is returned when a commit names no target account.
var ErrMissingAccount = errors.New("expense_account is required")

// SaveAccountRequest represents a draft account selection.
type SaveAccountRequest struct {
	Account string `json:"account"`
}

// CommitRequest represents a request to commit a pending entry.
type CommitRequest struct {
	ExpenseAccount string  `json:"expense_account"`
	Payee          *string `json:"payee,omitempty"`
	Narration      *string `json:"narration,omitempty"`
}

// ToUseCaseInput converts to use case input.
func (r *CommitRequest) ToUseCaseInput(id, requestID string) (usecase.CommitInput, error) {
	account := strings.TrimSpace(r.ExpenseAccount)
	if account == "" {
		return usecase.CommitInput{}, ErrMissingAccount
	}

	return usecase.CommitInput{
		ID:        id,
		Account:   account,
		Payee:     r.Payee,
		Narration: r.Narration,
		RequestID: requestID,
	}, nil
}
