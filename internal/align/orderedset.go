package align

// orderedSet keeps strings in insertion order and rejects repeats.
type orderedSet struct {
	items []string
	index map[string]struct{}
}

func newOrderedSet() *orderedSet {
	return &orderedSet{index: make(map[string]struct{})}
}

func (s *orderedSet) Has(v string) bool {
	_, ok := s.index[v]
	return ok
}

// Add appends v and reports whether it was new.
func (s *orderedSet) Add(v string) bool {
	if s.Has(v) {
		return false
	}
	s.index[v] = struct{}{}
	s.items = append(s.items, v)
	return true
}

func (s *orderedSet) Len() int { return len(s.items) }

func (s *orderedSet) Items() []string { return s.items }
