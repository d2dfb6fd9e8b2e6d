package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	d := Default()

	assert.True(t, d.FilterIncludeImages)
	assert.Nil(t, d.FilterKeywords)
	assert.Nil(t, d.FilterCategories)
	assert.Nil(t, d.FilterSubcategories)
	assert.Nil(t, d.SeenIDs)
	assert.Nil(t, d.FilteredCardCount)
	assert.False(t, d.HasActiveFilters())
}

func TestHasActiveFilters(t *testing.T) {
	d := Default()
	d.FilterCategories = []string{}
	assert.True(t, d.HasActiveFilters(), "empty non-nil category set is a filter")

	d = Default()
	d.FilterIncludeImages = false
	assert.True(t, d.HasActiveFilters())

	d = Default()
	d.FilterKeywords = []string{"gravity"}
	assert.True(t, d.HasActiveFilters())
}

func TestCriteria(t *testing.T) {
	d := Default()
	d.FilterKeywords = []string{"a", "b"}
	d.FilterCategories = []string{}
	d.FilterIncludeImages = false

	c := d.Criteria()
	assert.Equal(t, []string{"a", "b"}, c.Keywords)
	require.NotNil(t, c.Categories)
	assert.Empty(t, c.Categories)
	assert.Nil(t, c.Subcategories)
	assert.False(t, c.IncludeImages)
}

func TestMemoryStoreLoadMissing(t *testing.T) {
	s := NewMemoryStore()

	d := s.Load("nobody")
	assert.Equal(t, Default(), d, "unknown client gets the default record")
}

func TestMemoryStoreRoundTrip(t *testing.T) {
	s := NewMemoryStore()

	d := Default()
	d.SeenIDs = []int64{3, 1, 4}
	d.FilterCategories = []string{}
	d.FilterSubcategories = []string{"Physics"}
	n := int64(7)
	d.FilteredCardCount = &n
	s.Store("alice", d)

	got := s.Load("alice")
	assert.Equal(t, []int64{3, 1, 4}, got.SeenIDs)
	require.NotNil(t, got.FilterCategories, "empty-set filter must survive a round trip as non-nil")
	assert.Empty(t, got.FilterCategories)
	assert.Equal(t, []string{"Physics"}, got.FilterSubcategories)
	require.NotNil(t, got.FilteredCardCount)
	assert.Equal(t, int64(7), *got.FilteredCardCount)

	other := s.Load("bob")
	assert.Equal(t, Default(), other, "records are per client")
}

func TestMemoryStoreFlush(t *testing.T) {
	s := NewMemoryStore()

	d := Default()
	d.SeenIDs = []int64{1}
	s.Store("alice", d)
	s.Flush("alice")

	assert.Equal(t, Default(), s.Load("alice"))
}
