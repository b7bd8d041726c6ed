package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// ContentKey hashes the parts of a directive that identify it for review:
// date, payee, narration and each posting's account, number and currency.
// Non-transaction entries hash their kind-specific fields. Flags, tags, links
// and metadata are left out, so the key is stable across edits to those.
func ContentKey(d *Directive) string {
	var b strings.Builder
	b.WriteString(d.Date.String())
	b.WriteByte(0)
	b.WriteString(d.Kind().String())

	field := func(s string) {
		b.WriteByte(0)
		b.WriteString(s)
	}

	switch c := d.Content.(type) {
	case *Transaction:
		field(c.Payee)
		field(c.Narration)
		for _, p := range c.Postings {
			field(string(p.Account))
			if p.Amount != nil {
				field(p.Amount.Number.String())
				field(p.Amount.Currency)
			} else {
				field("")
				field("")
			}
		}
	case *Open:
		field(string(c.Account))
		field(strings.Join(c.Currencies, ","))
	case *Close:
		field(string(c.Account))
	case *Balance:
		field(string(c.Account))
		field(c.Amount.Number.String())
		field(c.Amount.Currency)
	case *Pad:
		field(string(c.Account))
		field(string(c.Source))
	case *Commodity:
		field(c.Currency)
	case *Price:
		field(c.Currency)
		field(c.Amount.Number.String())
		field(c.Amount.Currency)
	case *Event:
		field(c.Name)
		field(c.Value)
	}

	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:8])
}
