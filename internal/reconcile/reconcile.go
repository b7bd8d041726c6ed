// Package reconcile pairs journal entries with staging entries day by day
// and reports what is left over on either side.
package reconcile

import (
	"slices"

	"github.com/jakobhellermann/beancount-staging/internal/domain"
)

// Origin says which source an unmatched directive came from.
type Origin int

const (
	OnlyInJournal Origin = iota
	OnlyInStaging
)

func (o Origin) String() string {
	if o == OnlyInJournal {
		return "only-in-journal"
	}
	return "only-in-staging"
}

// Item is one unmatched directive.
type Item struct {
	Origin    Origin
	Directive *domain.Directive
}

// Reconcile compares two bucketed sources. Matched pairs are dropped; every
// other directive is returned exactly once, in date order.
func Reconcile(journal, staging []Bucket) []Item {
	var items []Item

	for step := range MergeDiff(journal, staging, compareBuckets) {
		switch step.Side {
		case OnlyInFirst:
			items = appendAll(items, OnlyInJournal, step.First.Entries)
		case OnlyInSecond:
			items = appendAll(items, OnlyInStaging, step.Second.Entries)
		case InBoth:
			items = reconcileBucket(items, step.First.Entries, step.Second.Entries)
		}
	}

	return items
}

// ReconcileDirectives buckets both sources and reconciles them.
func ReconcileDirectives(journal, staging []*domain.Directive) []Item {
	return Reconcile(BucketByDate(journal), BucketByDate(staging))
}

// reconcileBucket matches one day. Staging entries are taken from the back;
// each consumes the first journal entry, in bucket order, that records it.
// PERF: O(journal*staging), fine for a single day.
func reconcileBucket(items []Item, journal, staging []*domain.Directive) []Item {
	journal = slices.Clone(journal)
	staging = slices.Clone(staging)

	for len(staging) > 0 {
		entry := staging[len(staging)-1]
		staging = staging[:len(staging)-1]

		at := slices.IndexFunc(journal, func(j *domain.Directive) bool {
			return domain.JournalMatchesStaging(j, entry)
		})
		if at >= 0 {
			journal = slices.Delete(journal, at, at+1)
			continue
		}
		items = append(items, Item{Origin: OnlyInStaging, Directive: entry})
	}

	return appendAll(items, OnlyInJournal, journal)
}

func appendAll(items []Item, origin Origin, directives []*domain.Directive) []Item {
	for _, d := range directives {
		items = append(items, Item{Origin: origin, Directive: d})
	}
	return items
}

// Count returns how many items came from each side.
func Count(items []Item) (journal, staging int) {
	for _, it := range items {
		if it.Origin == OnlyInJournal {
			journal++
		} else {
			staging++
		}
	}
	return journal, staging
}
