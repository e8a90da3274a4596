package search

// orderedSet dedupes string values while preserving first-insertion order.
// The aggregate views expose sets as ordered sequences, so iteration order
// must be deterministic.
type orderedSet struct {
	values []string
	seen   map[string]struct{}
}

func newOrderedSet() *orderedSet {
	return &orderedSet{seen: make(map[string]struct{})}
}

// Add inserts v if absent and reports whether it was newly added.
func (s *orderedSet) Add(v string) bool {
	if _, ok := s.seen[v]; ok {
		return false
	}
	s.seen[v] = struct{}{}
	s.values = append(s.values, v)
	return true
}

func (s *orderedSet) Has(v string) bool {
	_, ok := s.seen[v]
	return ok
}

func (s *orderedSet) Len() int {
	return len(s.values)
}

// Values returns the members in insertion order. The returned slice is a copy.
func (s *orderedSet) Values() []string {
	out := make([]string, len(s.values))
	copy(out, s.values)
	return out
}
