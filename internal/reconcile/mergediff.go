package reconcile

import "iter"

// Side says where a merged key was found.
type Side int

const (
	OnlyInFirst Side = iota
	OnlyInSecond
	InBoth
)

func (s Side) String() string {
	switch s {
	case OnlyInFirst:
		return "only-in-first"
	case OnlyInSecond:
		return "only-in-second"
	default:
		return "in-both"
	}
}

// Join is one step of a merge. First is set for OnlyInFirst and InBoth,
// Second for OnlyInSecond and InBoth.
type Join[T any] struct {
	Side   Side
	First  T
	Second T
}

// MergeDiff walks two sequences sorted ascending under cmp and yields, in
// order, the elements present in only one of them and the pairs whose keys
// compare equal. cmp only ever sees the two elements being aligned; it must
// compare keys and nothing else. Runs in O(len(first)+len(second)).
func MergeDiff[T any](first, second []T, cmp func(a, b T) int) iter.Seq[Join[T]] {
	return func(yield func(Join[T]) bool) {
		i, j := 0, 0
		for i < len(first) && j < len(second) {
			var step Join[T]
			switch c := cmp(first[i], second[j]); {
			case c < 0:
				step = Join[T]{Side: OnlyInFirst, First: first[i]}
				i++
			case c > 0:
				step = Join[T]{Side: OnlyInSecond, Second: second[j]}
				j++
			default:
				step = Join[T]{Side: InBoth, First: first[i], Second: second[j]}
				i++
				j++
			}
			if !yield(step) {
				return
			}
		}
		for ; i < len(first); i++ {
			if !yield(Join[T]{Side: OnlyInFirst, First: first[i]}) {
				return
			}
		}
		for ; j < len(second); j++ {
			if !yield(Join[T]{Side: OnlyInSecond, Second: second[j]}) {
				return
			}
		}
	}
}
