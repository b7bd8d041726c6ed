package beancount

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokEOL
	tokIndent
	tokDate
	tokNumber
	tokString
	tokAccount
	tokCurrency
	tokKeyword
	tokKey
	tokTag
	tokLink
	tokFlag
	tokLBrace
	tokRBrace
	tokLLBrace
	tokRRBrace
	tokAt
	tokAtAt
	tokComma
	tokTilde
)

var tokenNames = map[tokenKind]string{
	tokEOF:      "end of file",
	tokEOL:      "end of line",
	tokIndent:   "indentation",
	tokDate:     "date",
	tokNumber:   "number",
	tokString:   "string",
	tokAccount:  "account",
	tokCurrency: "currency",
	tokKeyword:  "keyword",
	tokKey:      "metadata key",
	tokTag:      "tag",
	tokLink:     "link",
	tokFlag:     "flag",
	tokLBrace:   "'{'",
	tokRBrace:   "'}'",
	tokLLBrace:  "'{{'",
	tokRRBrace:  "'}}'",
	tokAt:       "'@'",
	tokAtAt:     "'@@'",
	tokComma:    "','",
	tokTilde:    "'~'",
}

func (k tokenKind) String() string { return tokenNames[k] }

type token struct {
	kind tokenKind
	text string
	line int
	// width of the indentation, for tokIndent
	width int
}

type lexer struct {
	file   string
	src    string
	pos    int
	line   int
	tokens []token
}

// lex splits src into tokens. Blank and comment-only lines produce nothing,
// indented lines start with a tokIndent, and every other line ends with a
// tokEOL.
func lex(file, src string) ([]token, error) {
	l := &lexer{file: file, src: src, line: 1}
	if err := l.run(); err != nil {
		return nil, err
	}
	return l.tokens, nil
}

func (l *lexer) emit(kind tokenKind, text string, line int) {
	l.tokens = append(l.tokens, token{kind: kind, text: text, line: line})
}

func (l *lexer) errorf(format string, args ...any) error {
	return &ParseError{File: l.file, Line: l.line, Msg: fmt.Sprintf(format, args...)}
}

func (l *lexer) run() error {
	lineStart := true
	for l.pos < len(l.src) {
		if lineStart {
			lineStart = false
			if l.startLine() {
				lineStart = true
			}
			continue
		}

		c := l.src[l.pos]
		switch {
		case c == '\n':
			l.emit(tokEOL, "", l.line)
			l.line++
			l.pos++
			lineStart = true
		case c == '\r' || c == ' ' || c == '\t':
			l.pos++
		case c == ';':
			l.skipToNewline()
		case c == '"':
			if err := l.lexString(); err != nil {
				return err
			}
		case isDigit(c) || ((c == '-' || c == '+' || c == '.') && l.pos+1 < len(l.src) && (isDigit(l.src[l.pos+1]) || l.src[l.pos+1] == '.')):
			l.lexNumberOrDate()
		case c == '#' || c == '^':
			l.lexTagOrLink(c)
		case c == '{' || c == '}':
			l.lexBrace(c)
		case c == '@':
			if l.peekByte(1) == '@' {
				l.emit(tokAtAt, "@@", l.line)
				l.pos += 2
			} else {
				l.emit(tokAt, "@", l.line)
				l.pos++
			}
		case c == ',':
			l.emit(tokComma, ",", l.line)
			l.pos++
		case c == '~':
			l.emit(tokTilde, "~", l.line)
			l.pos++
		case c == '*' || c == '!' || c == '&' || c == '?' || c == '%':
			l.emit(tokFlag, string(c), l.line)
			l.pos++
		default:
			r, _ := utf8.DecodeRuneInString(l.src[l.pos:])
			if !unicode.IsLetter(r) {
				return l.errorf("unexpected character %q", r)
			}
			l.lexWord()
		}
	}

	if n := len(l.tokens); n > 0 && l.tokens[n-1].kind != tokEOL {
		l.emit(tokEOL, "", l.line)
	}
	l.emit(tokEOF, "", l.line)
	return nil
}

// startLine handles the beginning of a line. It reports true when the whole
// line was skipped.
func (l *lexer) startLine() bool {
	j := l.pos
	width := 0
	for j < len(l.src) && (l.src[j] == ' ' || l.src[j] == '\t') {
		j++
		width++
	}

	skip := j >= len(l.src) || l.src[j] == '\n' || l.src[j] == '\r' || l.src[j] == ';'
	// Org-mode headings and hash comments at column zero.
	if width == 0 && j < len(l.src) && (l.src[j] == '*' || l.src[j] == '#') {
		skip = true
	}
	if skip {
		l.pos = j
		l.skipToNewline()
		if l.pos < len(l.src) {
			l.pos++
			l.line++
		}
		return true
	}

	if width > 0 {
		l.tokens = append(l.tokens, token{kind: tokIndent, line: l.line, width: width})
	}
	l.pos = j
	return false
}

func (l *lexer) skipToNewline() {
	for l.pos < len(l.src) && l.src[l.pos] != '\n' {
		l.pos++
	}
}

func (l *lexer) peekByte(offset int) byte {
	if l.pos+offset < len(l.src) {
		return l.src[l.pos+offset]
	}
	return 0
}

func (l *lexer) lexString() error {
	startLine := l.line
	var sb strings.Builder
	j := l.pos + 1
	for j < len(l.src) {
		ch := l.src[j]
		if ch == '\\' && j+1 < len(l.src) {
			switch next := l.src[j+1]; next {
			case 'n':
				sb.WriteByte('\n')
			case 't':
				sb.WriteByte('\t')
			default:
				sb.WriteByte(next)
			}
			j += 2
			continue
		}
		if ch == '"' {
			l.emit(tokString, sb.String(), startLine)
			l.pos = j + 1
			return nil
		}
		if ch == '\n' {
			l.line++
		}
		sb.WriteByte(ch)
		j++
	}
	l.line = startLine
	return l.errorf("unterminated string")
}

func (l *lexer) lexNumberOrDate() {
	if n := dateLength(l.src[l.pos:]); n > 0 {
		l.emit(tokDate, strings.ReplaceAll(l.src[l.pos:l.pos+n], "/", "-"), l.line)
		l.pos += n
		return
	}

	j := l.pos
	if l.src[j] == '-' || l.src[j] == '+' {
		j++
	}
	for j < len(l.src) && (isDigit(l.src[j]) || l.src[j] == '.' || l.src[j] == ',') {
		// A comma followed by a space separates list items, not thousands.
		if l.src[j] == ',' && (j+1 >= len(l.src) || !isDigit(l.src[j+1])) {
			break
		}
		j++
	}
	l.emit(tokNumber, strings.ReplaceAll(l.src[l.pos:j], ",", ""), l.line)
	l.pos = j
}

// dateLength returns the length of a YYYY-MM-DD (or YYYY/MM/DD) prefix of s,
// or zero.
func dateLength(s string) int {
	if len(s) < 10 {
		return 0
	}
	for i := 0; i < 10; i++ {
		switch i {
		case 4, 7:
			if s[i] != '-' && s[i] != '/' {
				return 0
			}
		default:
			if !isDigit(s[i]) {
				return 0
			}
		}
	}
	if len(s) > 10 && (isDigit(s[10]) || s[10] == '.') {
		return 0
	}
	return 10
}

func (l *lexer) lexTagOrLink(c byte) {
	j := l.pos + 1
	for j < len(l.src) {
		r, size := utf8.DecodeRuneInString(l.src[j:])
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && !strings.ContainsRune("-_/.", r) {
			break
		}
		j += size
	}
	kind := tokTag
	if c == '^' {
		kind = tokLink
	}
	l.emit(kind, l.src[l.pos+1:j], l.line)
	l.pos = j
}

func (l *lexer) lexBrace(c byte) {
	double := l.peekByte(1) == c
	switch {
	case c == '{' && double:
		l.emit(tokLLBrace, "{{", l.line)
	case c == '{':
		l.emit(tokLBrace, "{", l.line)
	case double:
		l.emit(tokRRBrace, "}}", l.line)
	default:
		l.emit(tokRBrace, "}", l.line)
	}
	if double {
		l.pos += 2
	} else {
		l.pos++
	}
}

func (l *lexer) lexWord() {
	j := l.pos
	for j < len(l.src) {
		r, size := utf8.DecodeRuneInString(l.src[j:])
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && !strings.ContainsRune(":-_.'/", r) {
			break
		}
		j += size
	}
	word := l.src[l.pos:j]
	l.pos = j

	first, _ := utf8.DecodeRuneInString(word)
	switch {
	case strings.HasSuffix(word, ":") && unicode.IsLower(first):
		l.emit(tokKey, strings.TrimSuffix(word, ":"), l.line)
	case unicode.IsUpper(first) && strings.Contains(word, ":"):
		l.emit(tokAccount, word, l.line)
	case unicode.IsUpper(first):
		l.emit(tokCurrency, word, l.line)
	default:
		l.emit(tokKeyword, word, l.line)
	}
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }
