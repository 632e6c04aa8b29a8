package domain

// EventType represents the type of domain event
type EventType string

// Event types
const (
	EventSelectionChanged EventType = "SelectionChanged"
	EventStateChanged     EventType = "StateChanged"
	EventDropdownToggled  EventType = "DropdownToggled"
	EventFetchFailed      EventType = "FetchFailed"
	EventDataReplaced     EventType = "DataReplaced"
)

// DomainEvent is the interface for all domain events
type DomainEvent interface {
	Type() EventType
}

// SelectionChangedEvent is emitted once per operation that alters the selection
type SelectionChangedEvent struct {
	Selected []Option // selection order; at most one entry in single mode
	Multiple bool
}

func (e SelectionChangedEvent) Type() EventType { return EventSelectionChanged }

// Value returns the single-mode selection, if any
func (e SelectionChangedEvent) Value() (Option, bool) {
	if len(e.Selected) == 0 {
		return Option{}, false
	}
	return e.Selected[0], true
}

// StateChangedEvent is emitted when a data source commits results asynchronously
type StateChangedEvent struct {
	Query string
}

func (e StateChangedEvent) Type() EventType { return EventStateChanged }

// DropdownToggledEvent is emitted when the dropdown opens or closes.
// Renderers focus the search input when Open is true.
type DropdownToggledEvent struct {
	Open bool
}

func (e DropdownToggledEvent) Type() EventType { return EventDropdownToggled }

// FetchFailedEvent is emitted when a remote query fails
type FetchFailedEvent struct {
	Query string
	Err   error
}

func (e FetchFailedEvent) Type() EventType { return EventFetchFailed }

// DataReplacedEvent is emitted after the dataset was replaced from outside
type DataReplacedEvent struct {
	Count int
}

func (e DataReplacedEvent) Type() EventType { return EventDataReplaced }
