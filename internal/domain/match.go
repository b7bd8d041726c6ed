package domain

// JournalMatchesStaging reports whether a journal entry already records the
// given staging entry.
//
// Entries of different kinds never match. Non-transaction entries match when
// their bodies are equal; metadata is not compared. Transactions are compared
// by the single staging posting against the first journal posting, and by
// payee and narration, where provenance metadata on the journal's first
// posting takes precedence over its live payee and narration. Flags, tags and
// links are never compared.
func JournalMatchesStaging(journal, staging *Directive) bool {
	if journal.Kind() != staging.Kind() {
		return false
	}

	if j, ok := journal.Content.(*Transaction); ok {
		return transactionMatches(j, staging.Content.(*Transaction))
	}

	return journal.Content.sameContent(staging.Content)
}

func transactionMatches(journal, staging *Transaction) bool {
	if len(staging.Postings) != 1 || len(journal.Postings) == 0 {
		return false
	}

	s := staging.Postings[0]
	j := journal.Postings[0]
	if s.Account != j.Account ||
		!amountPtrEqual(s.Amount, j.Amount) ||
		!s.Cost.Equal(j.Cost) ||
		!s.Price.Equal(j.Price) {
		return false
	}

	payee := journal.Payee
	if v, ok := j.Metadata.Get(MetaSourcePayee); ok {
		payee = v
	}
	narration := journal.Narration
	if v, ok := j.Metadata.Get(MetaSourceDesc); ok {
		narration = v
	}

	return payee == staging.Payee && narration == staging.Narration
}
