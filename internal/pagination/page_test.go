package pagination

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePage(t *testing.T) {
	t.Run("defaults when no parameters given", func(t *testing.T) {
		page, err := ParsePage(url.Values{})
		require.NoError(t, err)
		assert.Equal(t, 0, page.Offset)
		assert.Equal(t, DefaultLimit, page.Limit)
	})

	t.Run("parses explicit values", func(t *testing.T) {
		page, err := ParsePage(url.Values{"offset": {"40"}, "limit": {"10"}})
		require.NoError(t, err)
		assert.Equal(t, 40, page.Offset)
		assert.Equal(t, 10, page.Limit)
	})

	t.Run("clamps limit to the maximum", func(t *testing.T) {
		page, err := ParsePage(url.Values{"limit": {"5000"}})
		require.NoError(t, err)
		assert.Equal(t, MaxLimit, page.Limit)
	})

	t.Run("negative offset is rejected", func(t *testing.T) {
		_, err := ParsePage(url.Values{"offset": {"-1"}})
		assert.ErrorIs(t, err, ErrInvalidOffset)
	})

	t.Run("non-numeric offset is rejected", func(t *testing.T) {
		_, err := ParsePage(url.Values{"offset": {"abc"}})
		assert.ErrorIs(t, err, ErrInvalidOffset)
	})

	t.Run("zero limit is rejected", func(t *testing.T) {
		_, err := ParsePage(url.Values{"limit": {"0"}})
		assert.ErrorIs(t, err, ErrInvalidLimit)
	})

	t.Run("non-numeric limit is rejected", func(t *testing.T) {
		_, err := ParsePage(url.Values{"limit": {"ten"}})
		assert.ErrorIs(t, err, ErrInvalidLimit)
	})
}

func TestNewPageResult(t *testing.T) {
	t.Run("middle page has more", func(t *testing.T) {
		result := NewPageResult([]string{"a", "b"}, 10, Page{Offset: 2, Limit: 2})
		assert.True(t, result.HasMore)
		assert.Equal(t, 10, result.Total)
		assert.Equal(t, 2, result.Offset)
	})

	t.Run("final full page has no more", func(t *testing.T) {
		result := NewPageResult([]string{"a", "b"}, 4, Page{Offset: 2, Limit: 2})
		assert.False(t, result.HasMore)
	})

	t.Run("short final page has no more", func(t *testing.T) {
		result := NewPageResult([]string{"a"}, 5, Page{Offset: 4, Limit: 2})
		assert.False(t, result.HasMore)
	})

	t.Run("empty result has no more", func(t *testing.T) {
		result := NewPageResult([]string{}, 0, Page{Offset: 0, Limit: 20})
		assert.False(t, result.HasMore)
		assert.Empty(t, result.Items)
	})
}
