package domain

import (
	"errors"
	"fmt"
	"regexp"
)

// Validation errors
var (
	ErrInvalidCurrency    = errors.New("invalid currency")
	ErrInvalidMetadataKey = errors.New("invalid metadata key")
)

// Validation constants
const (
	MaxCurrencyLength = 24
)

var (
	currencyRegex    = regexp.MustCompile(`^[A-Z][A-Z0-9'._-]*[A-Z0-9]$|^[A-Z]$`)
	metadataKeyRegex = regexp.MustCompile(`^[a-z][a-zA-Z0-9_-]*$`)
)

// ValidateCurrency checks a commodity symbol such as "EUR" or "VBMPX".
func ValidateCurrency(currency string) error {
	if len(currency) > MaxCurrencyLength {
		return fmt.Errorf("%w: %q exceeds %d characters", ErrInvalidCurrency, currency, MaxCurrencyLength)
	}
	if !currencyRegex.MatchString(currency) {
		return fmt.Errorf("%w: %q", ErrInvalidCurrency, currency)
	}
	return nil
}

// ValidateMetadataKey checks a metadata key such as "source_desc".
func ValidateMetadataKey(key string) error {
	if !metadataKeyRegex.MatchString(key) {
		return fmt.Errorf("%w: %q", ErrInvalidMetadataKey, key)
	}
	return nil
}
