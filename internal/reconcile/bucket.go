package reconcile

import (
	"slices"

	"github.com/jakobhellermann/beancount-staging/internal/domain"
)

// Bucket holds every directive of one source for one day, in canonical
// order.
type Bucket struct {
	Date    domain.Date
	Entries []*domain.Directive
}

// BucketByDate groups directives by date into buckets sorted ascending by
// date. Inside a bucket directives keep arrival order within the same kind,
// kinds follow the priority order, and adjacent identical balance
// assertions are dropped.
func BucketByDate(directives []*domain.Directive) []Bucket {
	index := make(map[domain.Date]int)
	var buckets []Bucket
	for _, d := range directives {
		i, ok := index[d.Date]
		if !ok {
			i = len(buckets)
			index[d.Date] = i
			buckets = append(buckets, Bucket{Date: d.Date})
		}
		buckets[i].Entries = append(buckets[i].Entries, d)
	}

	slices.SortFunc(buckets, compareBuckets)
	for i := range buckets {
		buckets[i].Entries = domain.SortDedup(buckets[i].Entries)
	}
	return buckets
}

func compareBuckets(a, b Bucket) int {
	return a.Date.Compare(b.Date)
}
