// Package headers provides a case-insensitive, multi-valued header
// container with deterministic insertion-order iteration, used to
// normalize adapter-supplied request headers before they reach a rule.
package headers

import "strings"

// entry is one (lowercased name, original name, value) triple in
// insertion order.
type entry struct {
	lower    string
	original string
	value    string
}

// Map is a case-insensitive, ordered, multi-valued header container.
type Map struct {
	entries []entry
	// index maps a lowercased header name to the positions in entries
	// that carry it, preserving insertion order for that name.
	index map[string][]int
}

// New builds a Map from another Map, a map[string]string, or a
// map[string][]string. Missing/empty interface values are skipped.
// A nil source yields an empty Map.
func New(source any) *Map {
	m := &Map{index: make(map[string][]int)}
	switch src := source.(type) {
	case nil:
	case *Map:
		if src != nil {
			for _, e := range src.entries {
				m.add(e.original, e.value)
			}
		}
	case Map:
		for _, e := range src.entries {
			m.add(e.original, e.value)
		}
	case map[string]string:
		for k, v := range src {
			m.add(k, v)
		}
	case map[string][]string:
		for k, vs := range src {
			for _, v := range vs {
				m.add(k, v)
			}
		}
	case map[string]any:
		for k, v := range src {
			switch val := v.(type) {
			case nil:
				continue
			case string:
				m.add(k, val)
			case []string:
				for _, s := range val {
					m.add(k, s)
				}
			}
		}
	}
	return m
}

// add appends a value unconditionally. Nil values from a
// map[string]any source are skipped by New before they reach add.
// Empty strings are valid header values and are kept.
func (m *Map) add(name, value string) {
	lower := strings.ToLower(name)
	m.entries = append(m.entries, entry{lower: lower, original: name, value: value})
	m.index[lower] = append(m.index[lower], len(m.entries)-1)
}

// Has reports whether name (case-insensitive) has at least one value.
func (m *Map) Has(name string) bool {
	if m == nil {
		return false
	}
	_, ok := m.index[strings.ToLower(name)]
	return ok
}

// Get returns the first value stored for name, if any.
func (m *Map) Get(name string) (string, bool) {
	if m == nil {
		return "", false
	}
	idx, ok := m.index[strings.ToLower(name)]
	if !ok || len(idx) == 0 {
		return "", false
	}
	return m.entries[idx[0]].value, true
}

// Values returns every value stored for name, in insertion order.
func (m *Map) Values(name string) []string {
	if m == nil {
		return nil
	}
	idx, ok := m.index[strings.ToLower(name)]
	if !ok {
		return nil
	}
	out := make([]string, len(idx))
	for i, pos := range idx {
		out[i] = m.entries[pos].value
	}
	return out
}

// Pair is one (lowercased name, value) pair yielded by Entries.
type Pair struct {
	Name  string
	Value string
}

// Entries returns every (lowercased name, value) pair in insertion
// order. A multi-valued header appears once per value.
func (m *Map) Entries() []Pair {
	if m == nil {
		return nil
	}
	out := make([]Pair, len(m.entries))
	for i, e := range m.entries {
		out[i] = Pair{Name: e.lower, Value: e.value}
	}
	return out
}

// Flatten collapses the map to a string->string mapping using the
// first value seen for each name, as required when an Analyzer
// normalizes a request before computing a fingerprint.
func (m *Map) Flatten() map[string]string {
	out := make(map[string]string)
	if m == nil {
		return out
	}
	for lower, idx := range m.index {
		if len(idx) == 0 {
			continue
		}
		out[lower] = m.entries[idx[0]].value
	}
	return out
}

// Len returns the number of (name, value) pairs, counting every value
// of a multi-valued header.
func (m *Map) Len() int {
	if m == nil {
		return 0
	}
	return len(m.entries)
}
