// Package session holds the per-client practice state between
// requests.
package session

import (
	"sync"

	"github.com/quickdeck/quickdeck/pkg/deck/store"
)

// Data is one client's practice state. Handlers load it, mutate it,
// and store it back whole within a single request.
//
// FilterCategories and FilterSubcategories carry three states: nil is
// "no filter", a non-empty slice is a whitelist, and an empty non-nil
// FilterCategories slice means image-only cards. The empty-set case is
// semantically distinct from nil and must survive a store/load cycle.
type Data struct {
	// SeenIDs are the cards already shown in the current practice run,
	// in order. Cleared when the filtered subset is exhausted or the
	// filters change.
	SeenIDs []int64

	FilterKeywords      []string
	FilterCategories    []string
	FilterSubcategories []string
	FilterIncludeImages bool

	// FilteredCardCount caches the last count for the active filter.
	FilteredCardCount *int64

	// ErrorMessage is single-shot: rendered on the next landing page
	// and then cleared.
	ErrorMessage string
}

// Default returns the state of a fresh client: no filters, images
// included.
func Default() Data {
	return Data{FilterIncludeImages: true}
}

// HasActiveFilters reports whether any filter differs from the
// default.
func (d Data) HasActiveFilters() bool {
	return len(d.FilterKeywords) > 0 ||
		d.FilterCategories != nil ||
		d.FilterSubcategories != nil ||
		!d.FilterIncludeImages
}

// AllCategories reports whether the category filter is unset, as
// opposed to an empty whitelist.
func (d Data) AllCategories() bool { return d.FilterCategories == nil }

// AllSubcategories reports whether the subcategory filter is unset.
func (d Data) AllSubcategories() bool { return d.FilterSubcategories == nil }

// Criteria converts the persisted filter state into query criteria.
func (d Data) Criteria() store.FilterCriteria {
	return store.FilterCriteria{
		Keywords:      d.FilterKeywords,
		Categories:    d.FilterCategories,
		Subcategories: d.FilterSubcategories,
		IncludeImages: d.FilterIncludeImages,
	}
}

// Store is the interface for session storage backends.
type Store interface {
	// Load returns the client's record, or the default when none
	// exists.
	Load(clientID string) Data
	// Store overwrites the client's record.
	Store(clientID string, d Data)
	// Flush deletes the client's record.
	Flush(clientID string)
}

// MemoryStore keeps whole session records in process. Records are
// copied on load and replaced on store, so a half-applied mutation
// never reaches the map.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string]Data
}

// NewMemoryStore creates an empty in-process session store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string]Data)}
}

func (s *MemoryStore) Load(clientID string) Data {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if d, ok := s.data[clientID]; ok {
		return d
	}
	return Default()
}

func (s *MemoryStore) Store(clientID string, d Data) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[clientID] = d
}

func (s *MemoryStore) Flush(clientID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, clientID)
}
