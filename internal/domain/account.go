package domain

import (
	"fmt"
	"strings"
	"unicode"
)

// Account is a colon-separated ledger account name such as
// "Expenses:Food:Groceries".
type Account string

// Account root types accepted by the ledger.
var accountRoots = map[string]bool{
	"Assets":      true,
	"Liabilities": true,
	"Equity":      true,
	"Income":      true,
	"Expenses":    true,
}

// ParseAccount validates s against the account grammar: a root type followed
// by one or more components, each starting with an uppercase letter or digit
// and continuing with letters, digits or dashes.
func ParseAccount(s string) (Account, error) {
	if s == "" {
		return "", fmt.Errorf("%w: account cannot be empty", ErrInvalidAccount)
	}

	parts := strings.Split(s, ":")
	if !accountRoots[parts[0]] {
		return "", fmt.Errorf("%w: %q must start with one of Assets, Liabilities, Equity, Income, Expenses", ErrInvalidAccount, s)
	}
	if len(parts) < 2 {
		return "", fmt.Errorf("%w: %q needs at least one component after the root", ErrInvalidAccount, s)
	}

	for _, part := range parts[1:] {
		if !validAccountComponent(part) {
			return "", fmt.Errorf("%w: invalid component %q in %q", ErrInvalidAccount, part, s)
		}
	}

	return Account(s), nil
}

func validAccountComponent(part string) bool {
	for i, r := range part {
		if i == 0 {
			if !unicode.IsUpper(r) && !unicode.IsDigit(r) {
				return false
			}
			continue
		}
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '-' {
			return false
		}
	}
	return part != ""
}

func (a Account) String() string { return string(a) }
