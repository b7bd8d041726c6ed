package domain_test

import (
	"testing"

	"github.com/jakobhellermann/beancount-staging/internal/domain"
	"github.com/jakobhellermann/beancount-staging/internal/infrastructure/beancount"
)

func parseOne(t *testing.T, src string) *domain.Directive {
	t.Helper()

	all := parseAll(t, src)
	if len(all) != 1 {
		t.Fatalf("expected 1 directive, got %d", len(all))
	}
	return all[0]
}

func parseAll(t *testing.T, src string) []*domain.Directive {
	t.Helper()

	res, err := beancount.Parse("test.beancount", []byte(src))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	return res.Directives
}

func strPtr(s string) *string { return &s }
