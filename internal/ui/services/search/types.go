package search

import "xselect/internal/domain"

// Source produces the result list for a query and writes it into the widget state
type Source interface {
	// Query runs a search for text. Results land in the state, possibly later.
	Query(text string)
	// Update replaces the result list directly, bypassing the query pipeline.
	Update(opts []domain.Option)
	// Close releases timers and in-flight work.
	Close()
}
