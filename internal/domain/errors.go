package domain

import (
	"errors"
	"fmt"
)

var (
	// Review errors
	ErrPendingNotFound  = errors.New("pending entry not found")
	ErrInvalidAccount   = errors.New("invalid account")
	ErrNotTransaction   = errors.New("only transactions can be committed")
	ErrNoPostings       = errors.New("transaction has no postings")
	ErrCommitInvariant  = errors.New("committed entry no longer matches its staging entry")
	ErrNoJournalFile    = errors.New("no journal file configured")
	ErrStagingSourceSet = errors.New("staging source must be either files or a command")
)

// InvariantError signals an internal contract violation rather than bad
// user input. It always wraps ErrCommitInvariant.
type InvariantError struct {
	Entry  string
	Detail string
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("%s: %s", ErrCommitInvariant.Error(), e.Detail)
}

func (e *InvariantError) Unwrap() error { return ErrCommitInvariant }

// IsInvariant reports whether err is an internal invariant violation.
func IsInvariant(err error) bool {
	var ie *InvariantError
	return errors.As(err, &ie)
}
