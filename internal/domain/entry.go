package domain

import (
	"slices"

	"github.com/shopspring/decimal"
)

// Kind identifies the directive variant. The declaration order is the
// intra-day sort priority.
type Kind int

const (
	KindOpen Kind = iota
	KindPad
	KindCommodity
	KindTransaction
	KindBalance
	KindPrice
	KindClose
	KindEvent
)

var kindNames = [...]string{
	KindOpen:        "open",
	KindPad:         "pad",
	KindCommodity:   "commodity",
	KindTransaction: "transaction",
	KindBalance:     "balance",
	KindPrice:       "price",
	KindClose:       "close",
	KindEvent:       "event",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return "unknown"
	}
	return kindNames[k]
}

// Content is the closed set of directive bodies. Every variant must say how
// it compares to another body of the same kind, so adding a variant without
// a matching rule does not compile.
type Content interface {
	Kind() Kind
	sameContent(other Content) bool
	cloneContent() Content
}

// Location points at the source line a directive was read from.
type Location struct {
	File string
	Line int
}

// Directive is one dated ledger entry.
type Directive struct {
	Date     Date
	Content  Content
	Metadata Metadata
	Location Location
}

// Kind returns the kind of the directive body.
func (d *Directive) Kind() Kind { return d.Content.Kind() }

// Transaction returns the transaction body, or nil for other kinds.
func (d *Directive) Transaction() *Transaction {
	txn, _ := d.Content.(*Transaction)
	return txn
}

// Clone returns a deep copy.
func (d *Directive) Clone() *Directive {
	return &Directive{
		Date:     d.Date,
		Content:  d.Content.cloneContent(),
		Metadata: d.Metadata.Clone(),
		Location: d.Location,
	}
}

// Identical reports whether two directives are the same in date, metadata
// and content. Source location is ignored.
func Identical(a, b *Directive) bool {
	return a.Date == b.Date &&
		a.Metadata.Equal(b.Metadata) &&
		a.Kind() == b.Kind() &&
		a.Content.sameContent(b.Content)
}

// Amount is an exact number with a currency.
type Amount struct {
	Number   decimal.Decimal
	Currency string
}

// Equal compares numerically; 1.0 equals 1.00.
func (a Amount) Equal(other Amount) bool {
	return a.Currency == other.Currency && a.Number.Equal(other.Number)
}

// Cost is a posting's cost basis, per unit or total.
type Cost struct {
	Number   *decimal.Decimal
	Currency string
	Date     *Date
	Label    string
	Total    bool
}

// Equal compares two cost specs.
func (c *Cost) Equal(other *Cost) bool {
	if c == nil || other == nil {
		return c == nil && other == nil
	}
	return c.Currency == other.Currency &&
		c.Label == other.Label &&
		c.Total == other.Total &&
		decimalPtrEqual(c.Number, other.Number) &&
		datePtrEqual(c.Date, other.Date)
}

func (c *Cost) clone() *Cost {
	if c == nil {
		return nil
	}
	out := *c
	if c.Number != nil {
		n := *c.Number
		out.Number = &n
	}
	if c.Date != nil {
		d := *c.Date
		out.Date = &d
	}
	return &out
}

// PriceAnnotation is the "@ x CUR" or "@@ x CUR" part of a posting.
type PriceAnnotation struct {
	Amount Amount
	Total  bool
}

// Equal compares two price annotations.
func (p *PriceAnnotation) Equal(other *PriceAnnotation) bool {
	if p == nil || other == nil {
		return p == nil && other == nil
	}
	return p.Total == other.Total && p.Amount.Equal(other.Amount)
}

// Posting is one account leg of a transaction. A nil Amount is left for the
// ledger to infer.
type Posting struct {
	Flag     string
	Account  Account
	Amount   *Amount
	Cost     *Cost
	Price    *PriceAnnotation
	Metadata Metadata
}

func (p Posting) equal(other Posting) bool {
	return p.Flag == other.Flag &&
		p.Account == other.Account &&
		amountPtrEqual(p.Amount, other.Amount) &&
		p.Cost.Equal(other.Cost) &&
		p.Price.Equal(other.Price) &&
		p.Metadata.Equal(other.Metadata)
}

func (p Posting) clone() Posting {
	out := p
	if p.Amount != nil {
		a := *p.Amount
		out.Amount = &a
	}
	out.Cost = p.Cost.clone()
	if p.Price != nil {
		pr := *p.Price
		out.Price = &pr
	}
	out.Metadata = p.Metadata.Clone()
	return out
}

// FlagPosted marks a transaction as reviewed.
const FlagPosted = "*"

// Transaction is a balanced movement between accounts.
type Transaction struct {
	Flag      string
	Payee     string
	Narration string
	Tags      []string
	Links     []string
	Postings  []Posting
}

func (*Transaction) Kind() Kind { return KindTransaction }

func (t *Transaction) sameContent(other Content) bool {
	o, ok := other.(*Transaction)
	if !ok {
		return false
	}
	return t.Flag == o.Flag &&
		t.Payee == o.Payee &&
		t.Narration == o.Narration &&
		slices.Equal(t.Tags, o.Tags) &&
		slices.Equal(t.Links, o.Links) &&
		slices.EqualFunc(t.Postings, o.Postings, Posting.equal)
}

func (t *Transaction) cloneContent() Content {
	out := *t
	out.Tags = slices.Clone(t.Tags)
	out.Links = slices.Clone(t.Links)
	out.Postings = make([]Posting, len(t.Postings))
	for i, p := range t.Postings {
		out.Postings[i] = p.clone()
	}
	return &out
}

// Open declares an account.
type Open struct {
	Account       Account
	Currencies    []string
	BookingMethod string
}

func (*Open) Kind() Kind { return KindOpen }

func (o *Open) sameContent(other Content) bool {
	x, ok := other.(*Open)
	return ok && o.Account == x.Account && o.BookingMethod == x.BookingMethod && slices.Equal(o.Currencies, x.Currencies)
}

func (o *Open) cloneContent() Content {
	out := *o
	out.Currencies = slices.Clone(o.Currencies)
	return &out
}

// Close retires an account.
type Close struct {
	Account Account
}

func (*Close) Kind() Kind { return KindClose }

func (c *Close) sameContent(other Content) bool {
	x, ok := other.(*Close)
	return ok && c.Account == x.Account
}

func (c *Close) cloneContent() Content {
	out := *c
	return &out
}

// Balance asserts an account balance at the start of the day.
type Balance struct {
	Account   Account
	Amount    Amount
	Tolerance *decimal.Decimal
}

func (*Balance) Kind() Kind { return KindBalance }

func (b *Balance) sameContent(other Content) bool {
	x, ok := other.(*Balance)
	return ok && b.Account == x.Account && b.Amount.Equal(x.Amount) && decimalPtrEqual(b.Tolerance, x.Tolerance)
}

func (b *Balance) cloneContent() Content {
	out := *b
	if b.Tolerance != nil {
		t := *b.Tolerance
		out.Tolerance = &t
	}
	return &out
}

// Pad fills Account from Source up to the next balance assertion.
type Pad struct {
	Account Account
	Source  Account
}

func (*Pad) Kind() Kind { return KindPad }

func (p *Pad) sameContent(other Content) bool {
	x, ok := other.(*Pad)
	return ok && p.Account == x.Account && p.Source == x.Source
}

func (p *Pad) cloneContent() Content {
	out := *p
	return &out
}

// Commodity declares a currency or commodity.
type Commodity struct {
	Currency string
}

func (*Commodity) Kind() Kind { return KindCommodity }

func (c *Commodity) sameContent(other Content) bool {
	x, ok := other.(*Commodity)
	return ok && c.Currency == x.Currency
}

func (c *Commodity) cloneContent() Content {
	out := *c
	return &out
}

// Price records the price of a commodity.
type Price struct {
	Currency string
	Amount   Amount
}

func (*Price) Kind() Kind { return KindPrice }

func (p *Price) sameContent(other Content) bool {
	x, ok := other.(*Price)
	return ok && p.Currency == x.Currency && p.Amount.Equal(x.Amount)
}

func (p *Price) cloneContent() Content {
	out := *p
	return &out
}

// Event records the value of a named variable from a date on.
type Event struct {
	Name  string
	Value string
}

func (*Event) Kind() Kind { return KindEvent }

func (e *Event) sameContent(other Content) bool {
	x, ok := other.(*Event)
	return ok && e.Name == x.Name && e.Value == x.Value
}

func (e *Event) cloneContent() Content {
	out := *e
	return &out
}

func decimalPtrEqual(a, b *decimal.Decimal) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}

func datePtrEqual(a, b *Date) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func amountPtrEqual(a, b *Amount) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}
