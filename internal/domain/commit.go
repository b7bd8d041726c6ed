package domain

import "fmt"

// CommitInput describes how a staging entry is promoted into the journal.
type CommitInput struct {
	Account   string
	Payee     *string
	Narration *string
}

// PrepareCommit builds the journal entry for staged without touching it.
//
// The copy is marked posted, gets the optional payee and narration edits and
// a trailing posting to the target account with no amount. When an edit
// changes a value, the staging-side value is kept on the first posting under
// source_payee or source_desc. The result must still match staged; if it does
// not, an *InvariantError is returned and nothing may be written.
func PrepareCommit(staged *Directive, in CommitInput) (*Directive, error) {
	if staged.Kind() != KindTransaction {
		return nil, fmt.Errorf("%w: got %s", ErrNotTransaction, staged.Kind())
	}

	account, err := ParseAccount(in.Account)
	if err != nil {
		return nil, err
	}

	out := staged.Clone()
	txn := out.Transaction()
	if len(txn.Postings) == 0 {
		return nil, ErrNoPostings
	}

	txn.Flag = FlagPosted

	first := &txn.Postings[0]
	if in.Payee != nil && *in.Payee != txn.Payee {
		if !first.Metadata.Has(MetaSourcePayee) {
			first.Metadata.SetString(MetaSourcePayee, txn.Payee)
		}
		txn.Payee = *in.Payee
	}
	if in.Narration != nil && *in.Narration != txn.Narration {
		if !first.Metadata.Has(MetaSourceDesc) {
			first.Metadata.SetString(MetaSourceDesc, txn.Narration)
		}
		txn.Narration = *in.Narration
	}

	txn.Postings = append(txn.Postings, Posting{Account: account})

	if !JournalMatchesStaging(out, staged) {
		return nil, &InvariantError{
			Entry:  fmt.Sprintf("%s %q %q", staged.Date, staged.Transaction().Payee, staged.Transaction().Narration),
			Detail: fmt.Sprintf("entry from %s:%d", staged.Location.File, staged.Location.Line),
		}
	}

	return out, nil
}
