package domain_test

import (
	"testing"

	"github.com/jakobhellermann/beancount-staging/internal/domain"
)

func TestJournalMatchesStaging(t *testing.T) {
	tests := []struct {
		name    string
		journal string
		staging string
		want    bool
	}{
		{
			name: "simple match",
			journal: `2025-01-01 * "Payee" "Narration"
  Assets:Checking  -100.00 EUR
  Expenses:Food
`,
			staging: `2025-01-01 ! "Payee" "Narration"
  Assets:Checking  -100.00 EUR
`,
			want: true,
		},
		{
			name: "ignores flags tags and links",
			journal: `2025-01-01 * "Payee" "Narration" #trip ^invoice-1
  Assets:Checking  -100.00 EUR
  Expenses:Food
`,
			staging: `2025-01-01 ! "Payee" "Narration" #other
  Assets:Checking  -100.00 EUR
`,
			want: true,
		},
		{
			name: "numeric amount equality",
			journal: `2025-01-01 * "Payee" "Narration"
  Assets:Checking  -100 EUR
  Expenses:Food
`,
			staging: `2025-01-01 ! "Payee" "Narration"
  Assets:Checking  -100.00 EUR
`,
			want: true,
		},
		{
			name: "different payee",
			journal: `2025-01-01 * "Other" "Narration"
  Assets:Checking  -100.00 EUR
  Expenses:Food
`,
			staging: `2025-01-01 ! "Payee" "Narration"
  Assets:Checking  -100.00 EUR
`,
		},
		{
			name: "different narration",
			journal: `2025-01-01 * "Payee" "Other"
  Assets:Checking  -100.00 EUR
  Expenses:Food
`,
			staging: `2025-01-01 ! "Payee" "Narration"
  Assets:Checking  -100.00 EUR
`,
		},
		{
			name: "different account",
			journal: `2025-01-01 * "Payee" "Narration"
  Assets:Savings  -100.00 EUR
  Expenses:Food
`,
			staging: `2025-01-01 ! "Payee" "Narration"
  Assets:Checking  -100.00 EUR
`,
		},
		{
			name: "different amount",
			journal: `2025-01-01 * "Payee" "Narration"
  Assets:Checking  -99.00 EUR
  Expenses:Food
`,
			staging: `2025-01-01 ! "Payee" "Narration"
  Assets:Checking  -100.00 EUR
`,
		},
		{
			name: "different currency",
			journal: `2025-01-01 * "Payee" "Narration"
  Assets:Checking  -100.00 USD
  Expenses:Food
`,
			staging: `2025-01-01 ! "Payee" "Narration"
  Assets:Checking  -100.00 EUR
`,
		},
		{
			name: "different cost",
			journal: `2025-01-01 * "Broker" "Buy"
  Assets:Stocks  10 ACME {101.00 EUR}
  Assets:Cash
`,
			staging: `2025-01-01 ! "Broker" "Buy"
  Assets:Stocks  10 ACME {100.00 EUR}
`,
		},
		{
			name: "different price",
			journal: `2025-01-01 * "Bank" "Exchange"
  Assets:Checking  -100.00 EUR @ 1.10 USD
  Assets:Dollars
`,
			staging: `2025-01-01 ! "Bank" "Exchange"
  Assets:Checking  -100.00 EUR @ 1.20 USD
`,
		},
		{
			name: "same price",
			journal: `2025-01-01 * "Bank" "Exchange"
  Assets:Checking  -100.00 EUR @ 1.10 USD
  Assets:Dollars
`,
			staging: `2025-01-01 ! "Bank" "Exchange"
  Assets:Checking  -100.00 EUR @ 1.10 USD
`,
			want: true,
		},
		{
			name: "empty payee does not match a payee",
			journal: `2025-01-01 * "" "Narration"
  Assets:Checking  -100.00 EUR
  Expenses:Food
`,
			staging: `2025-01-01 ! "Payee" "Narration"
  Assets:Checking  -100.00 EUR
`,
		},
		{
			name: "provenance metadata wins over edited text",
			journal: `2025-01-01 * "Cleaned Payee" "Cleaned narration"
  Assets:Checking  -100.00 EUR
    source_payee: "RAW PAYEE"
    source_desc: "raw narration"
  Expenses:Food
`,
			staging: `2025-01-01 ! "RAW PAYEE" "raw narration"
  Assets:Checking  -100.00 EUR
`,
			want: true,
		},
		{
			name: "staging with two postings never matches",
			journal: `2025-01-01 * "Payee" "Narration"
  Assets:Checking  -100.00 EUR
  Expenses:Food  100.00 EUR
`,
			staging: `2025-01-01 ! "Payee" "Narration"
  Assets:Checking  -100.00 EUR
  Expenses:Food  100.00 EUR
`,
		},
		{
			name:    "balance match",
			journal: "2025-01-01 balance Assets:Checking 1500.00 EUR\n",
			staging: "2025-01-01 balance Assets:Checking 1500.00 EUR\n",
			want:    true,
		},
		{
			name:    "balance with different amount",
			journal: "2025-01-01 balance Assets:Checking 1500.00 EUR\n",
			staging: "2025-01-01 balance Assets:Checking 1400.00 EUR\n",
		},
		{
			name: "balance ignores metadata",
			journal: `2025-01-01 balance Assets:Checking 1500.00 EUR
  imported: TRUE
`,
			staging: "2025-01-01 balance Assets:Checking 1500.00 EUR\n",
			want:    true,
		},
		{
			name: "different kinds",
			journal: `2025-01-01 * "Payee" "Narration"
  Assets:Checking  -100.00 EUR
`,
			staging: "2025-01-01 balance Assets:Checking 1500.00 EUR\n",
		},
		{
			name:    "open match",
			journal: "2025-01-01 open Assets:Checking EUR\n",
			staging: "2025-01-01 open Assets:Checking EUR\n",
			want:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			journal := parseOne(t, tt.journal)
			staging := parseOne(t, tt.staging)

			if got := domain.JournalMatchesStaging(journal, staging); got != tt.want {
				t.Errorf("JournalMatchesStaging() = %v, want %v", got, tt.want)
			}
		})
	}
}
