package domain_test

import (
	"testing"

	"github.com/jakobhellermann/beancount-staging/internal/domain"
)

func TestSortDedup_KindPriority(t *testing.T) {
	entries := parseAll(t, `2025-01-01 event "location" "Berlin"
2025-01-01 close Assets:Old
2025-01-01 price EUR 1.10 USD
2025-01-01 balance Assets:Checking 10 EUR
2025-01-01 * "Payee" "Narration"
  Assets:Checking  -1 EUR
2025-01-01 commodity EUR
2025-01-01 pad Assets:Checking Equity:Opening
2025-01-01 open Assets:Checking EUR
`)

	sorted := domain.SortDedup(entries)

	want := []domain.Kind{
		domain.KindOpen, domain.KindPad, domain.KindCommodity, domain.KindTransaction,
		domain.KindBalance, domain.KindPrice, domain.KindClose, domain.KindEvent,
	}
	if len(sorted) != len(want) {
		t.Fatalf("expected %d entries, got %d", len(want), len(sorted))
	}
	for i, d := range sorted {
		if d.Kind() != want[i] {
			t.Errorf("position %d: got %s, want %s", i, d.Kind(), want[i])
		}
	}
}

func TestSortDedup_DateFirstAndStable(t *testing.T) {
	entries := parseAll(t, `2025-01-02 * "Second day" ""
  Assets:Checking  -1 EUR
2025-01-01 * "A" ""
  Assets:Checking  -1 EUR
2025-01-01 * "B" ""
  Assets:Checking  -2 EUR
`)

	sorted := domain.SortDedup(entries)

	var payees []string
	for _, d := range sorted {
		payees = append(payees, d.Transaction().Payee)
	}
	want := []string{"A", "B", "Second day"}
	for i := range want {
		if payees[i] != want[i] {
			t.Fatalf("got order %v, want %v", payees, want)
		}
	}
}

func TestSortDedup_Balances(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want int
	}{
		{
			name: "adjacent identical balances collapse",
			src: `2025-01-01 balance Assets:Checking 10 EUR
2025-01-01 balance Assets:Checking 10 EUR
2025-01-01 balance Assets:Checking 10 EUR
`,
			want: 1,
		},
		{
			name: "different balances stay",
			src: `2025-01-01 balance Assets:Checking 10 EUR
2025-01-01 balance Assets:Checking 11 EUR
`,
			want: 2,
		},
		{
			name: "balances differing in metadata stay",
			src: `2025-01-01 balance Assets:Checking 10 EUR
  source: "bank"
2025-01-01 balance Assets:Checking 10 EUR
`,
			want: 2,
		},
		{
			name: "identical transactions are never deduplicated",
			src: `2025-01-01 * "Payee" "Narration"
  Assets:Checking  -1 EUR
2025-01-01 * "Payee" "Narration"
  Assets:Checking  -1 EUR
`,
			want: 2,
		},
		{
			name: "balances separated by another balance stay",
			src: `2025-01-01 balance Assets:Checking 10 EUR
2025-01-01 balance Assets:Savings 5 EUR
2025-01-01 balance Assets:Checking 10 EUR
`,
			want: 3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := domain.SortDedup(parseAll(t, tt.src))
			if len(got) != tt.want {
				t.Errorf("expected %d entries, got %d", tt.want, len(got))
			}
		})
	}
}
