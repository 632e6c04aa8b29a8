package search

import (
	"strings"
	"sync"

	"xselect/internal/domain"
	"xselect/internal/ui/state"
)

// StaticSource filters an in-memory dataset synchronously
type StaticSource struct {
	mu    sync.RWMutex
	state *state.SelectionState
	data  []domain.Option
	keys  []string
}

// NewStaticSource creates a source over data, matching on keys
func NewStaticSource(st *state.SelectionState, data []domain.Option, keys []string) *StaticSource {
	return &StaticSource{
		state: st,
		data:  data,
		keys:  keys,
	}
}

// Query filters the dataset and stores the matches as the result list
func (s *StaticSource) Query(text string) {
	s.mu.RLock()
	matches := Filter(s.data, text, s.keys)
	s.mu.RUnlock()

	s.state.Supersede(func(f *state.Fields) {
		f.Succeed(matches)
	})
}

// Update replaces the dataset; the result list becomes the full new set
func (s *StaticSource) Update(opts []domain.Option) {
	s.mu.Lock()
	s.data = opts
	s.mu.Unlock()

	s.state.Supersede(func(f *state.Fields) {
		f.Succeed(opts)
	})
}

// Data returns the full dataset
func (s *StaticSource) Data() []domain.Option {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.Option(nil), s.data...)
}

func (s *StaticSource) Close() {}

// Filter returns the options where any key contains text, case-insensitively.
// Empty text matches everything; order is preserved.
func Filter(data []domain.Option, text string, keys []string) []domain.Option {
	if text == "" {
		return append([]domain.Option(nil), data...)
	}
	var matches []domain.Option
	for _, o := range data {
		if Matches(o, text, keys) {
			matches = append(matches, o)
		}
	}
	return matches
}

// Matches checks a single option against text
func Matches(o domain.Option, text string, keys []string) bool {
	needle := strings.ToLower(text)
	for _, k := range keys {
		v, ok := o.Field(k)
		if !ok {
			continue
		}
		if strings.Contains(strings.ToLower(v), needle) {
			return true
		}
	}
	return false
}
