package domain

import "errors"

// Error kinds reported by the select widget. Callers match them with errors.Is.
var (
	// ErrConfiguration marks malformed options or data given at construction.
	ErrConfiguration = errors.New("configuration error")
	// ErrValidation marks malformed data passed to a bulk update.
	ErrValidation = errors.New("validation error")
	// ErrLookup marks an id that is not part of the dataset.
	ErrLookup = errors.New("lookup error")
	// ErrFetch marks a failed remote query. It is reported through state, never returned by an operation.
	ErrFetch = errors.New("fetch error")
	// ErrRequired is returned when clearing a widget that requires a value.
	ErrRequired = errors.New("selection is required")
)
