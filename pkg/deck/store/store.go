// Package store defines the persistent model for a flashcard deck and
// the interface its consumers use to reach it.
package store

import "context"

// ImageOnlyMarker is the question HTML synthesized for image-only
// cards. The include-images filter predicate and the practice page's
// image-only detection both key off this literal, so all three sites
// must agree on one spelling per build.
const ImageOnlyMarker = "<h3>Question:</h3>\n"

// LegacyImageOnlyMarker is the spelling older decks were built with.
// It is tolerated during detection but never emitted.
const LegacyImageOnlyMarker = "<h3>Question :</h3>\n"

// Card is one flashcard row. Category and Subcategory are nil for
// image-only cards; Subcategory is only ever set when Category is.
type Card struct {
	ID           int64
	Category     *string
	Subcategory  *string
	QuestionHTML string
	AnswerHTML   string
}

// Subcategory pairs a subcategory with its parent category so the
// filter form can narrow the list client-side without a round trip.
// The same subcategory name may appear once per parent.
type Subcategory struct {
	Name     string
	Category string
}

// FilterCriteria selects a subset of the deck.
//
// Categories and Subcategories are three-valued: a nil slice applies no
// filter, a non-empty slice is a whitelist, and an empty non-nil
// Categories slice selects only cards without a category (image-only
// cards). An empty non-nil Subcategories slice behaves like nil.
type FilterCriteria struct {
	// Keywords are AND-combined through the full-text index.
	Keywords      []string
	Categories    []string
	Subcategories []string
	// IncludeImages admits image-only cards when true.
	IncludeImages bool
}

// Store is the interface for persisting and querying a deck.
type Store interface {
	Close() error

	// Ingestion. Individual inserts do not sync the FTS shadow table;
	// PopulateFTS rebuilds it once after all inserts complete.
	InsertCard(ctx context.Context, c Card) (int64, error)
	Wipe(ctx context.Context) error
	PopulateFTS(ctx context.Context) error

	TotalCount(ctx context.Context) (int64, error)
	IsEmpty(ctx context.Context) (bool, error)

	// Taxonomy. DistinctCategories is sorted ascending.
	// DistinctSubcategories is sorted by subcategory name; a non-nil
	// restrict set limits results to pairs whose parent is in it.
	DistinctCategories(ctx context.Context) ([]string, error)
	DistinctSubcategories(ctx context.Context, restrict []string) ([]Subcategory, error)

	// Filtered queries. RandomFiltered samples uniformly among the
	// matching cards not in exclude; the second return is false when
	// nothing matches.
	CountFiltered(ctx context.Context, f FilterCriteria) (int64, error)
	RandomFiltered(ctx context.Context, exclude []int64, f FilterCriteria) (Card, bool, error)
}
