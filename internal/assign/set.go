package assign

import "strings"

// TrackingSet accumulates scanned tracking codes for one assignment
// session: insertion-ordered, duplicate-free by construction. Repeated
// scans of the same label are routine (operators re-trigger while
// aiming) and are dropped silently.
type TrackingSet struct {
	order []string
	seen  map[string]struct{}
}

// NewTrackingSet returns an empty session set.
func NewTrackingSet() *TrackingSet {
	return &TrackingSet{seen: make(map[string]struct{})}
}

// Add inserts a trimmed tracking code, reporting whether it was new.
func (s *TrackingSet) Add(value string) bool {
	value = strings.TrimSpace(value)
	if value == "" {
		return false
	}
	if _, dup := s.seen[value]; dup {
		return false
	}
	s.seen[value] = struct{}{}
	s.order = append(s.order, value)
	return true
}

// Remove drops one code from the set.
func (s *TrackingSet) Remove(value string) {
	if _, ok := s.seen[value]; !ok {
		return
	}
	delete(s.seen, value)
	for i, v := range s.order {
		if v == value {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

// Values returns the codes in scan order.
func (s *TrackingSet) Values() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// Len reports the number of distinct codes.
func (s *TrackingSet) Len() int {
	return len(s.order)
}

// Clear empties the set for a fresh session.
func (s *TrackingSet) Clear() {
	s.order = nil
	s.seen = make(map[string]struct{})
}
