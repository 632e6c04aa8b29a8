package selection

import "xselect/internal/domain"

// Set is an ordered set of options keyed by id.
// Iteration order is the order in which options were added.
type Set struct {
	items []domain.Option
	index map[domain.ID]int // id -> position in items
	limit int               // 0 means unlimited
}

// Change describes what a mutation did to the set
type Change struct {
	Added   []domain.Option
	Removed []domain.Option
}

// Empty reports whether the change did nothing
func (c Change) Empty() bool {
	return len(c.Added) == 0 && len(c.Removed) == 0
}
