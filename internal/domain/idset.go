package domain

import (
	"encoding/json"
	"sort"
)

// IDSet is a set of milestone ids. It marshals as a sorted JSON array, and
// re-adding an existing id is a no-op.
type IDSet map[string]struct{}

// NewIDSet creates a set holding ids
func NewIDSet(ids ...string) IDSet {
	s := make(IDSet, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

// Has reports whether id is in the set
func (s IDSet) Has(id string) bool {
	_, ok := s[id]
	return ok
}

// Add inserts id and reports whether the set changed
func (s IDSet) Add(id string) bool {
	if s.Has(id) {
		return false
	}
	s[id] = struct{}{}
	return true
}

// Remove deletes id and reports whether the set changed
func (s IDSet) Remove(id string) bool {
	if !s.Has(id) {
		return false
	}
	delete(s, id)
	return true
}

// Len returns the cardinality of the set
func (s IDSet) Len() int {
	return len(s)
}

// Sorted returns the members in lexical order
func (s IDSet) Sorted() []string {
	ids := make([]string, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Clone returns an independent copy
func (s IDSet) Clone() IDSet {
	out := make(IDSet, len(s))
	for id := range s {
		out[id] = struct{}{}
	}
	return out
}

// MarshalJSON encodes the set as a sorted array
func (s IDSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Sorted())
}

// UnmarshalJSON decodes an array of ids; null decodes to an empty set
func (s *IDSet) UnmarshalJSON(data []byte) error {
	var ids []string
	if err := json.Unmarshal(data, &ids); err != nil {
		return err
	}
	*s = NewIDSet(ids...)
	return nil
}
