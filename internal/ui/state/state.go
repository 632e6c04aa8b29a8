package state

import (
	"sync"

	"xselect/internal/domain"
	"xselect/internal/ui/services/selection"
)

// Token identifies the most recently issued query.
// A result may only be committed while its token is still current.
type Token uint64

// Fields is the mutable part of the state, handed to update functions under the lock
type Fields struct {
	Open         bool
	Selection    *selection.Set
	Search       string
	FilteredData []domain.Option
	Loading      bool
	Error        bool
}

// BeginLoading marks a fetch as started. Error is cleared before Loading is set.
func (f *Fields) BeginLoading() {
	f.Error = false
	f.Loading = true
	f.FilteredData = nil
}

// Succeed commits a result list
func (f *Fields) Succeed(opts []domain.Option) {
	f.FilteredData = opts
	f.Loading = false
	f.Error = false
}

// Fail commits a failed fetch
func (f *Fields) Fail() {
	f.FilteredData = nil
	f.Error = true
	f.Loading = false
}

// Idle clears the result list and any previous error; no fetch is pending
func (f *Fields) Idle() {
	f.FilteredData = nil
	f.Loading = false
	f.Error = false
}

// Snapshot is a read-only copy of the state for renderers
type Snapshot struct {
	Open         bool
	Multiple     bool
	Selected     []domain.Option // selection order
	Search       string
	FilteredData []domain.Option
	Loading      bool
	Error        bool
}

// Single returns the selected option in single mode
func (s Snapshot) Single() (domain.Option, bool) {
	if len(s.Selected) == 0 {
		return domain.Option{}, false
	}
	return s.Selected[0], true
}

// HasSelection returns true if anything is selected
func (s Snapshot) HasSelection() bool {
	return len(s.Selected) > 0
}

// IsSelected checks if an option id is selected
func (s Snapshot) IsSelected(id domain.ID) bool {
	for _, o := range s.Selected {
		if o.ID == id {
			return true
		}
	}
	return false
}

// SelectionState is the single mutable record shared by the controller and its data source
type SelectionState struct {
	mu     sync.RWMutex
	fields Fields
	token  Token
}

// New creates the state for a widget. initial is the starting result list.
func New(multiple bool, initial []domain.Option) *SelectionState {
	sel := selection.NewSingle()
	if multiple {
		sel = selection.NewSet()
	}
	return &SelectionState{
		fields: Fields{
			Selection:    sel,
			FilteredData: initial,
		},
	}
}

// Snapshot returns a copy of the current state
func (s *SelectionState) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return Snapshot{
		Open:         s.fields.Open,
		Multiple:     !s.fields.Selection.Single(),
		Selected:     s.fields.Selection.Items(),
		Search:       s.fields.Search,
		FilteredData: append([]domain.Option(nil), s.fields.FilteredData...),
		Loading:      s.fields.Loading,
		Error:        s.fields.Error,
	}
}

// Update applies fn under the lock
func (s *SelectionState) Update(fn func(*Fields)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(&s.fields)
}

// Supersede invalidates the current token, applies fn and returns the new token
func (s *SelectionState) Supersede(fn func(*Fields)) Token {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token++
	if fn != nil {
		fn(&s.fields)
	}
	return s.token
}

// UpdateIfCurrent applies fn only while tok is the latest token.
// The check and the mutation happen atomically.
func (s *SelectionState) UpdateIfCurrent(tok Token, fn func(*Fields)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if tok != s.token {
		return false
	}
	fn(&s.fields)
	return true
}

// IsCurrent reports whether tok is the latest token
func (s *SelectionState) IsCurrent(tok Token) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return tok == s.token
}

// Search returns the current query text
func (s *SelectionState) Search() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.fields.Search
}
