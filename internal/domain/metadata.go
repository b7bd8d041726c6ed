package domain

import "slices"

// Reserved metadata keys that keep the staging-side payee and narration of
// an entry whose text was edited at commit time.
const (
	MetaSourcePayee = "source_payee"
	MetaSourceDesc  = "source_desc"
)

// MetaValue is a metadata value as written. Quoted values are strings;
// anything else (numbers, dates, accounts, booleans) is kept verbatim.
type MetaValue struct {
	Raw    string
	Quoted bool
}

// MetaEntry is one key/value pair.
type MetaEntry struct {
	Key   string
	Value MetaValue
}

// Metadata keeps key/value pairs in source order.
type Metadata []MetaEntry

// Get returns the raw value for key.
func (m Metadata) Get(key string) (string, bool) {
	for _, e := range m {
		if e.Key == key {
			return e.Value.Raw, true
		}
	}
	return "", false
}

// Has reports whether key is present.
func (m Metadata) Has(key string) bool {
	_, ok := m.Get(key)
	return ok
}

// SetString adds or replaces a string value.
func (m *Metadata) SetString(key, value string) {
	for i, e := range *m {
		if e.Key == key {
			(*m)[i].Value = MetaValue{Raw: value, Quoted: true}
			return
		}
	}
	*m = append(*m, MetaEntry{Key: key, Value: MetaValue{Raw: value, Quoted: true}})
}

// Equal compares keys, values and order.
func (m Metadata) Equal(other Metadata) bool {
	return slices.Equal(m, other)
}

// Clone returns an independent copy.
func (m Metadata) Clone() Metadata {
	return slices.Clone(m)
}
