package selection

import "xselect/internal/domain"

// NewSet creates a set holding any number of options
func NewSet() *Set {
	return &Set{index: make(map[domain.ID]int)}
}

// NewSingle creates a set that holds at most one option
func NewSingle() *Set {
	s := NewSet()
	s.limit = 1
	return s
}

// Single reports whether the set holds at most one option
func (s *Set) Single() bool {
	return s.limit == 1
}

// Toggle adds the option if its id is absent, otherwise removes it
func (s *Set) Toggle(opt domain.Option) Change {
	if s.Contains(opt.ID) {
		removed, _ := s.remove(opt.ID)
		return Change{Removed: []domain.Option{removed}}
	}
	return s.Add(opt)
}

// Add appends the option unless its id is already present.
// A single set drops its current option first.
func (s *Set) Add(opt domain.Option) Change {
	if s.Contains(opt.ID) {
		return Change{}
	}
	var change Change
	if s.limit > 0 && len(s.items) >= s.limit {
		change.Removed = s.Clear().Removed
	}
	s.index[opt.ID] = len(s.items)
	s.items = append(s.items, opt)
	change.Added = []domain.Option{opt}
	return change
}

// Replace makes opt the only member
func (s *Set) Replace(opt domain.Option) Change {
	change := s.Clear()
	s.index[opt.ID] = 0
	s.items = append(s.items, opt)
	change.Added = []domain.Option{opt}
	return change
}

// Clear removes every option
func (s *Set) Clear() Change {
	change := Change{Removed: s.items}
	s.items = nil
	s.index = make(map[domain.ID]int)
	return change
}

// Contains checks if an id is selected
func (s *Set) Contains(id domain.ID) bool {
	_, ok := s.index[id]
	return ok
}

// Items returns a copy of the options in selection order
func (s *Set) Items() []domain.Option {
	return append([]domain.Option(nil), s.items...)
}

// Len returns the number of selected options
func (s *Set) Len() int {
	return len(s.items)
}

func (s *Set) remove(id domain.ID) (domain.Option, bool) {
	i, ok := s.index[id]
	if !ok {
		return domain.Option{}, false
	}
	removed := s.items[i]
	s.items = append(s.items[:i:i], s.items[i+1:]...)
	delete(s.index, id)
	for j := i; j < len(s.items); j++ {
		s.index[s.items[j].ID] = j
	}
	return removed, true
}
