package domain

import "slices"

// SortDedup orders directives by date and kind priority, keeping arrival
// order among equals, then drops a balance assertion that is identical to
// the one right before it. No other kind is deduplicated.
func SortDedup(directives []*Directive) []*Directive {
	slices.SortStableFunc(directives, func(a, b *Directive) int {
		if c := a.Date.Compare(b.Date); c != 0 {
			return c
		}
		return cmpInt(int(a.Kind()), int(b.Kind()))
	})

	return slices.CompactFunc(directives, func(a, b *Directive) bool {
		return a.Kind() == KindBalance && b.Kind() == KindBalance && Identical(a, b)
	})
}
