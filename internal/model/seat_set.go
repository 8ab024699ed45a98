package model

import (
	"encoding/json"
	"sort"
)

// SeatSet is a set of seat identifiers, used for availability snapshots.
// Treat a snapshot as stale as soon as it has been read.
type SeatSet map[string]struct{}

// NewSeatSet builds a set from the given seat identifiers.
func NewSeatSet(seats ...string) SeatSet {
	s := make(SeatSet, len(seats))
	for _, id := range seats {
		s[id] = struct{}{}
	}
	return s
}

// Has reports whether seat is in the set.  A nil set contains nothing.
func (s SeatSet) Has(seat string) bool {
	_, ok := s[seat]
	return ok
}

// Add inserts seat into the set.
func (s SeatSet) Add(seat string) { s[seat] = struct{}{} }

// Sorted returns the members in lexical order.
func (s SeatSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for id := range s {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Clone returns an independent copy.
func (s SeatSet) Clone() SeatSet {
	out := make(SeatSet, len(s))
	for id := range s {
		out[id] = struct{}{}
	}
	return out
}

// MarshalJSON encodes the set as a sorted array.
func (s SeatSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Sorted())
}

// UnmarshalJSON decodes an array of seat identifiers.
func (s *SeatSet) UnmarshalJSON(b []byte) error {
	var ids []string
	if err := json.Unmarshal(b, &ids); err != nil {
		return err
	}
	*s = NewSeatSet(ids...)
	return nil
}
