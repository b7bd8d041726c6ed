// Package beancount reads and writes the subset of the beancount plain-text
// ledger format the staging workflow needs: the eight dated directive kinds
// with their metadata, includes, and tag stacks.
package beancount

import (
	"fmt"
	"slices"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/jakobhellermann/beancount-staging/internal/domain"
)

// ParseError is a syntax or structure error at a source line.
type ParseError struct {
	File string
	Line int
	Msg  string
}

func (e *ParseError) Error() string {
	if e.File == "" {
		return fmt.Sprintf("line %d: %s", e.Line, e.Msg)
	}
	return fmt.Sprintf("%s:%d: %s", e.File, e.Line, e.Msg)
}

// Result is the outcome of parsing one source.
type Result struct {
	Directives []*domain.Directive
	// Includes holds include paths exactly as written.
	Includes []string
}

// Parse parses one source. file is only used for locations and errors.
func Parse(file string, src []byte) (*Result, error) {
	toks, err := lex(file, string(src))
	if err != nil {
		return nil, err
	}

	p := &parser{file: file, toks: toks, res: &Result{}}
	if err := p.run(); err != nil {
		return nil, err
	}
	return p.res, nil
}

type parser struct {
	file string
	toks []token
	pos  int
	tags []string
	res  *Result
}

func (p *parser) peek() token { return p.toks[p.pos] }

func (p *parser) peekAt(offset int) token {
	if p.pos+offset < len(p.toks) {
		return p.toks[p.pos+offset]
	}
	return p.toks[len(p.toks)-1]
}

func (p *parser) next() token {
	t := p.toks[p.pos]
	if t.kind != tokEOF {
		p.pos++
	}
	return t
}

func (p *parser) errorf(line int, format string, args ...any) error {
	return &ParseError{File: p.file, Line: line, Msg: fmt.Sprintf(format, args...)}
}

func (p *parser) expect(kind tokenKind) (token, error) {
	t := p.next()
	if t.kind != kind {
		return t, p.errorf(t.line, "expected %s, got %s", kind, describe(t))
	}
	return t, nil
}

func (p *parser) expectEOL() error {
	t := p.peek()
	switch t.kind {
	case tokEOL:
		p.next()
		return nil
	case tokEOF:
		return nil
	default:
		return p.errorf(t.line, "unexpected %s", describe(t))
	}
}

func describe(t token) string {
	if t.text == "" {
		return t.kind.String()
	}
	return fmt.Sprintf("%s %q", t.kind, t.text)
}

func (p *parser) run() error {
	for {
		t := p.peek()
		switch t.kind {
		case tokEOF:
			return nil
		case tokEOL:
			p.next()
		case tokDate:
			if err := p.parseDated(); err != nil {
				return err
			}
		case tokKeyword:
			if err := p.parseKeywordLine(); err != nil {
				return err
			}
		case tokIndent:
			return p.errorf(t.line, "unexpected indentation")
		default:
			return p.errorf(t.line, "unexpected %s at start of line", describe(t))
		}
	}
}

func (p *parser) parseKeywordLine() error {
	kw := p.next()
	switch kw.text {
	case "include":
		path, err := p.expect(tokString)
		if err != nil {
			return err
		}
		p.res.Includes = append(p.res.Includes, path.text)
		return p.expectEOL()
	case "pushtag":
		tag, err := p.expect(tokTag)
		if err != nil {
			return err
		}
		p.tags = append(p.tags, tag.text)
		return p.expectEOL()
	case "poptag":
		tag, err := p.expect(tokTag)
		if err != nil {
			return err
		}
		i := slices.Index(p.tags, tag.text)
		if i < 0 {
			return p.errorf(tag.line, "poptag of tag %q that was never pushed", tag.text)
		}
		p.tags = slices.Delete(p.tags, i, i+1)
		return p.expectEOL()
	case "option", "plugin", "pushmeta", "popmeta":
		p.skipEntry()
		return nil
	default:
		return p.errorf(kw.line, "unknown directive %q", kw.text)
	}
}

// skipEntry drops the rest of the line and any indented lines that follow.
func (p *parser) skipEntry() {
	for p.peek().kind != tokEOL && p.peek().kind != tokEOF {
		p.next()
	}
	p.next()
	for p.peek().kind == tokIndent {
		for p.peek().kind != tokEOL && p.peek().kind != tokEOF {
			p.next()
		}
		p.next()
	}
}

func (p *parser) parseDated() error {
	dt := p.next()
	date, err := domain.ParseDate(dt.text)
	if err != nil {
		return p.errorf(dt.line, "invalid date %q", dt.text)
	}
	loc := domain.Location{File: p.file, Line: dt.line}

	t := p.peek()
	var content domain.Content
	switch {
	case t.kind == tokFlag:
		p.next()
		content, err = p.parseTransactionHeader(t.text)
	case t.kind == tokCurrency && len(t.text) == 1:
		p.next()
		content, err = p.parseTransactionHeader(t.text)
	case t.kind == tokKeyword:
		p.next()
		switch t.text {
		case "txn":
			content, err = p.parseTransactionHeader(domain.FlagPosted)
		case "open":
			content, err = p.parseOpen()
		case "close":
			content, err = p.parseClose()
		case "balance":
			content, err = p.parseBalance()
		case "pad":
			content, err = p.parsePad()
		case "commodity":
			content, err = p.parseCommodity()
		case "price":
			content, err = p.parsePrice()
		case "event":
			content, err = p.parseEvent()
		case "note", "document", "custom", "query":
			p.skipEntry()
			return nil
		default:
			return p.errorf(t.line, "unknown directive %q", t.text)
		}
	default:
		return p.errorf(t.line, "unexpected %s after date", describe(t))
	}
	if err != nil {
		return err
	}
	if err := p.expectEOL(); err != nil {
		return err
	}

	d := &domain.Directive{Date: date, Content: content, Location: loc}
	if err := p.parseBody(d); err != nil {
		return err
	}
	p.res.Directives = append(p.res.Directives, d)
	return nil
}

func (p *parser) parseTransactionHeader(flag string) (domain.Content, error) {
	txn := &domain.Transaction{Flag: flag}

	var texts []token
	for p.peek().kind == tokString {
		texts = append(texts, p.next())
	}
	switch len(texts) {
	case 0:
	case 1:
		txn.Narration = texts[0].text
	case 2:
		txn.Payee = texts[0].text
		txn.Narration = texts[1].text
	default:
		return nil, p.errorf(texts[2].line, "too many strings in transaction header")
	}

	for {
		t := p.peek()
		if t.kind == tokTag {
			txn.Tags = appendUnique(txn.Tags, p.next().text)
		} else if t.kind == tokLink {
			txn.Links = appendUnique(txn.Links, p.next().text)
		} else {
			break
		}
	}
	for _, tag := range p.tags {
		txn.Tags = appendUnique(txn.Tags, tag)
	}
	return txn, nil
}

func appendUnique(list []string, s string) []string {
	if slices.Contains(list, s) {
		return list
	}
	return append(list, s)
}

// parseBody consumes the indented lines of a directive: metadata and, for
// transactions, postings with their own metadata.
func (p *parser) parseBody(d *domain.Directive) error {
	txn := d.Transaction()
	postingWidth := -1

	for p.peek().kind == tokIndent {
		indent := p.next()
		t := p.peek()

		switch {
		case t.kind == tokKey:
			entry, err := p.parseMetaEntry()
			if err != nil {
				return err
			}
			if txn != nil && postingWidth >= 0 && indent.width > postingWidth {
				last := &txn.Postings[len(txn.Postings)-1]
				last.Metadata = append(last.Metadata, entry)
			} else {
				d.Metadata = append(d.Metadata, entry)
			}
		case txn != nil && (t.kind == tokAccount || (t.kind == tokFlag && p.peekAt(1).kind == tokAccount)):
			posting, err := p.parsePosting()
			if err != nil {
				return err
			}
			txn.Postings = append(txn.Postings, posting)
			postingWidth = indent.width
		case txn != nil && (t.kind == tokTag || t.kind == tokLink):
			for p.peek().kind == tokTag || p.peek().kind == tokLink {
				if tl := p.next(); tl.kind == tokTag {
					txn.Tags = appendUnique(txn.Tags, tl.text)
				} else {
					txn.Links = appendUnique(txn.Links, tl.text)
				}
			}
			if err := p.expectEOL(); err != nil {
				return err
			}
		default:
			return p.errorf(t.line, "unexpected %s in entry body", describe(t))
		}
	}
	return nil
}

func (p *parser) parseMetaEntry() (domain.MetaEntry, error) {
	key := p.next()
	if err := domain.ValidateMetadataKey(key.text); err != nil {
		return domain.MetaEntry{}, p.errorf(key.line, "%v", err)
	}

	var parts []token
	for p.peek().kind != tokEOL && p.peek().kind != tokEOF {
		parts = append(parts, p.next())
	}
	if err := p.expectEOL(); err != nil {
		return domain.MetaEntry{}, err
	}

	entry := domain.MetaEntry{Key: key.text}
	if len(parts) == 1 && parts[0].kind == tokString {
		entry.Value = domain.MetaValue{Raw: parts[0].text, Quoted: true}
		return entry, nil
	}
	raw := make([]string, 0, len(parts))
	for _, part := range parts {
		switch part.kind {
		case tokTag:
			raw = append(raw, "#"+part.text)
		case tokLink:
			raw = append(raw, "^"+part.text)
		case tokString:
			raw = append(raw, quote(part.text))
		default:
			raw = append(raw, part.text)
		}
	}
	entry.Value = domain.MetaValue{Raw: strings.Join(raw, " ")}
	return entry, nil
}

func (p *parser) parsePosting() (domain.Posting, error) {
	var posting domain.Posting
	if p.peek().kind == tokFlag {
		posting.Flag = p.next().text
	}
	acct := p.next()
	posting.Account = domain.Account(acct.text)

	if p.peek().kind == tokNumber {
		amount, err := p.parseAmount()
		if err != nil {
			return posting, err
		}
		posting.Amount = &amount
	}

	if k := p.peek().kind; k == tokLBrace || k == tokLLBrace {
		cost, err := p.parseCost()
		if err != nil {
			return posting, err
		}
		posting.Cost = cost
	}

	if k := p.peek().kind; k == tokAt || k == tokAtAt {
		p.next()
		amount, err := p.parseAmount()
		if err != nil {
			return posting, err
		}
		posting.Price = &domain.PriceAnnotation{Amount: amount, Total: k == tokAtAt}
	}

	return posting, p.expectEOL()
}

func (p *parser) parseNumber() (decimal.Decimal, error) {
	t, err := p.expect(tokNumber)
	if err != nil {
		return decimal.Decimal{}, err
	}
	n, err := decimal.NewFromString(t.text)
	if err != nil {
		return decimal.Decimal{}, p.errorf(t.line, "invalid number %q", t.text)
	}
	return n, nil
}

func (p *parser) parseCurrency() (string, error) {
	t, err := p.expect(tokCurrency)
	if err != nil {
		return "", err
	}
	if err := domain.ValidateCurrency(t.text); err != nil {
		return "", p.errorf(t.line, "%v", err)
	}
	return t.text, nil
}

func (p *parser) parseAmount() (domain.Amount, error) {
	n, err := p.parseNumber()
	if err != nil {
		return domain.Amount{}, err
	}
	cur, err := p.parseCurrency()
	if err != nil {
		return domain.Amount{}, err
	}
	return domain.Amount{Number: n, Currency: cur}, nil
}

func (p *parser) parseCost() (*domain.Cost, error) {
	open := p.next()
	closing := tokRBrace
	if open.kind == tokLLBrace {
		closing = tokRRBrace
	}
	cost := &domain.Cost{Total: open.kind == tokLLBrace}

	for p.peek().kind != closing {
		t := p.peek()
		switch t.kind {
		case tokNumber:
			n, err := p.parseNumber()
			if err != nil {
				return nil, err
			}
			cost.Number = &n
			if p.peek().kind == tokCurrency {
				if cost.Currency, err = p.parseCurrency(); err != nil {
					return nil, err
				}
			}
		case tokCurrency:
			cur, err := p.parseCurrency()
			if err != nil {
				return nil, err
			}
			cost.Currency = cur
		case tokDate:
			p.next()
			d, err := domain.ParseDate(t.text)
			if err != nil {
				return nil, p.errorf(t.line, "invalid date %q", t.text)
			}
			cost.Date = &d
		case tokString:
			cost.Label = p.next().text
		case tokComma:
			p.next()
		default:
			return nil, p.errorf(t.line, "unexpected %s in cost", describe(t))
		}
	}
	p.next()
	return cost, nil
}

func (p *parser) parseAccount() (domain.Account, error) {
	t, err := p.expect(tokAccount)
	if err != nil {
		return "", err
	}
	return domain.Account(t.text), nil
}

func (p *parser) parseOpen() (domain.Content, error) {
	acct, err := p.parseAccount()
	if err != nil {
		return nil, err
	}
	open := &domain.Open{Account: acct}
	for p.peek().kind == tokCurrency {
		cur, err := p.parseCurrency()
		if err != nil {
			return nil, err
		}
		open.Currencies = append(open.Currencies, cur)
		if p.peek().kind == tokComma {
			p.next()
		}
	}
	if p.peek().kind == tokString {
		open.BookingMethod = p.next().text
	}
	return open, nil
}

func (p *parser) parseClose() (domain.Content, error) {
	acct, err := p.parseAccount()
	if err != nil {
		return nil, err
	}
	return &domain.Close{Account: acct}, nil
}

func (p *parser) parseBalance() (domain.Content, error) {
	acct, err := p.parseAccount()
	if err != nil {
		return nil, err
	}
	n, err := p.parseNumber()
	if err != nil {
		return nil, err
	}
	bal := &domain.Balance{Account: acct}
	if p.peek().kind == tokTilde {
		p.next()
		tol, err := p.parseNumber()
		if err != nil {
			return nil, err
		}
		bal.Tolerance = &tol
	}
	cur, err := p.parseCurrency()
	if err != nil {
		return nil, err
	}
	bal.Amount = domain.Amount{Number: n, Currency: cur}
	return bal, nil
}

func (p *parser) parsePad() (domain.Content, error) {
	acct, err := p.parseAccount()
	if err != nil {
		return nil, err
	}
	src, err := p.parseAccount()
	if err != nil {
		return nil, err
	}
	return &domain.Pad{Account: acct, Source: src}, nil
}

func (p *parser) parseCommodity() (domain.Content, error) {
	cur, err := p.parseCurrency()
	if err != nil {
		return nil, err
	}
	return &domain.Commodity{Currency: cur}, nil
}

func (p *parser) parsePrice() (domain.Content, error) {
	cur, err := p.parseCurrency()
	if err != nil {
		return nil, err
	}
	amount, err := p.parseAmount()
	if err != nil {
		return nil, err
	}
	return &domain.Price{Currency: cur, Amount: amount}, nil
}

func (p *parser) parseEvent() (domain.Content, error) {
	name, err := p.expect(tokString)
	if err != nil {
		return nil, err
	}
	value, err := p.expect(tokString)
	if err != nil {
		return nil, err
	}
	return &domain.Event{Name: name.text, Value: value.text}, nil
}
