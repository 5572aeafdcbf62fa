package models

import (
	"encoding/json"
	"sort"
)

// IDSet is a set of string identifiers with O(1) membership checks. It
// serializes as a sorted JSON array, which is also the persisted column shape.
type IDSet struct {
	members map[string]struct{}
}

// NewIDSet builds a set from the given ids.
func NewIDSet(ids ...string) IDSet {
	s := IDSet{}
	for _, id := range ids {
		s.Add(id)
	}
	return s
}

// Add inserts id and reports whether the set changed.
func (s *IDSet) Add(id string) bool {
	if s.members == nil {
		s.members = make(map[string]struct{})
	}
	if _, ok := s.members[id]; ok {
		return false
	}
	s.members[id] = struct{}{}
	return true
}

// Remove deletes id and reports whether the set changed.
func (s *IDSet) Remove(id string) bool {
	if _, ok := s.members[id]; !ok {
		return false
	}
	delete(s.members, id)
	return true
}

// Contains reports whether id is a member.
func (s IDSet) Contains(id string) bool {
	_, ok := s.members[id]
	return ok
}

// Len returns the number of members.
func (s IDSet) Len() int { return len(s.members) }

// Values returns the members in sorted order.
func (s IDSet) Values() []string {
	values := make([]string, 0, len(s.members))
	for id := range s.members {
		values = append(values, id)
	}
	sort.Strings(values)
	return values
}

// Clone returns an independent copy of the set.
func (s IDSet) Clone() IDSet {
	return NewIDSet(s.Values()...)
}

func (s IDSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Values())
}

func (s *IDSet) UnmarshalJSON(data []byte) error {
	var values []string
	if err := json.Unmarshal(data, &values); err != nil {
		return err
	}
	*s = NewIDSet(values...)
	return nil
}
