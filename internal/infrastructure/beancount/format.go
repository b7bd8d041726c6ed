package beancount

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/jakobhellermann/beancount-staging/internal/domain"
)

// Format renders a directive in beancount syntax, terminated by a newline.
// Postings separate the account from the amount with a tab. Output parses
// back to an identical directive.
func Format(d *domain.Directive) string {
	var b strings.Builder
	b.WriteString(d.Date.String())
	b.WriteByte(' ')

	switch c := d.Content.(type) {
	case *domain.Transaction:
		formatTransactionHeader(&b, c)
	case *domain.Open:
		b.WriteString("open ")
		b.WriteString(string(c.Account))
		if len(c.Currencies) > 0 {
			b.WriteByte(' ')
			b.WriteString(strings.Join(c.Currencies, ","))
		}
		if c.BookingMethod != "" {
			b.WriteByte(' ')
			b.WriteString(quote(c.BookingMethod))
		}
	case *domain.Close:
		b.WriteString("close ")
		b.WriteString(string(c.Account))
	case *domain.Balance:
		b.WriteString("balance ")
		b.WriteString(string(c.Account))
		b.WriteByte(' ')
		b.WriteString(FormatNumber(c.Amount.Number))
		if c.Tolerance != nil {
			b.WriteString(" ~ ")
			b.WriteString(FormatNumber(*c.Tolerance))
		}
		b.WriteByte(' ')
		b.WriteString(c.Amount.Currency)
	case *domain.Pad:
		b.WriteString("pad ")
		b.WriteString(string(c.Account))
		b.WriteByte(' ')
		b.WriteString(string(c.Source))
	case *domain.Commodity:
		b.WriteString("commodity ")
		b.WriteString(c.Currency)
	case *domain.Price:
		b.WriteString("price ")
		b.WriteString(c.Currency)
		b.WriteByte(' ')
		b.WriteString(formatAmount(c.Amount))
	case *domain.Event:
		b.WriteString("event ")
		b.WriteString(quote(c.Name))
		b.WriteByte(' ')
		b.WriteString(quote(c.Value))
	}
	b.WriteByte('\n')

	writeMetadata(&b, d.Metadata, "  ")
	if txn := d.Transaction(); txn != nil {
		for _, posting := range txn.Postings {
			formatPosting(&b, posting)
		}
	}
	return b.String()
}

func formatTransactionHeader(b *strings.Builder, txn *domain.Transaction) {
	b.WriteString(txn.Flag)
	switch {
	case txn.Payee != "":
		b.WriteByte(' ')
		b.WriteString(quote(txn.Payee))
		b.WriteByte(' ')
		b.WriteString(quote(txn.Narration))
	case txn.Narration != "":
		b.WriteByte(' ')
		b.WriteString(quote(txn.Narration))
	}
	for _, tag := range txn.Tags {
		b.WriteString(" #")
		b.WriteString(tag)
	}
	for _, link := range txn.Links {
		b.WriteString(" ^")
		b.WriteString(link)
	}
}

func formatPosting(b *strings.Builder, p domain.Posting) {
	b.WriteString("  ")
	if p.Flag != "" {
		b.WriteString(p.Flag)
		b.WriteByte(' ')
	}
	b.WriteString(string(p.Account))
	if p.Amount != nil {
		b.WriteByte('\t')
		b.WriteString(formatAmount(*p.Amount))
	}
	if p.Cost != nil {
		b.WriteByte(' ')
		b.WriteString(formatCost(p.Cost))
	}
	if p.Price != nil {
		if p.Price.Total {
			b.WriteString(" @@ ")
		} else {
			b.WriteString(" @ ")
		}
		b.WriteString(formatAmount(p.Price.Amount))
	}
	b.WriteByte('\n')
	writeMetadata(b, p.Metadata, "    ")
}

func formatCost(c *domain.Cost) string {
	var parts []string
	if c.Number != nil {
		n := FormatNumber(*c.Number)
		if c.Currency != "" {
			n += " " + c.Currency
		}
		parts = append(parts, n)
	} else if c.Currency != "" {
		parts = append(parts, c.Currency)
	}
	if c.Date != nil {
		parts = append(parts, c.Date.String())
	}
	if c.Label != "" {
		parts = append(parts, quote(c.Label))
	}
	body := strings.Join(parts, ", ")
	if c.Total {
		return "{{" + body + "}}"
	}
	return "{" + body + "}"
}

func writeMetadata(b *strings.Builder, meta domain.Metadata, indent string) {
	for _, e := range meta {
		b.WriteString(indent)
		b.WriteString(e.Key)
		b.WriteByte(':')
		if e.Value.Quoted {
			b.WriteByte(' ')
			b.WriteString(quote(e.Value.Raw))
		} else if e.Value.Raw != "" {
			b.WriteByte(' ')
			b.WriteString(e.Value.Raw)
		}
		b.WriteByte('\n')
	}
}

func formatAmount(a domain.Amount) string {
	return FormatNumber(a.Number) + " " + a.Currency
}

// FormatNumber prints a decimal with the precision it was written with, so
// 100.00 stays 100.00.
func FormatNumber(n decimal.Decimal) string {
	if exp := n.Exponent(); exp < 0 {
		return n.StringFixed(-exp)
	}
	return n.String()
}

var quoteReplacer = strings.NewReplacer(`\`, `\\`, `"`, `\"`)

func quote(s string) string {
	return `"` + quoteReplacer.Replace(s) + `"`
}
