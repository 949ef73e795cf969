package normalize

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/storefront-reviews/internal/reviews"
)

const sampleEntries = `[
  {
    "author": {"name": {"label": "jane"}, "uri": {"label": "https://itunes.apple.com/us/reviews/id1"}},
    "updated": {"label": "2024-03-05T08:15:00-07:00"},
    "im:rating": {"label": "4"},
    "im:version": {"label": "2.1.0"},
    "id": {"label": "111"},
    "title": {"label": "Solid"},
    "content": {"label": "Works well", "attributes": {"type": "text"}}
  },
  {
    "author": {"name": {}},
    "title": {"label": "No rating here"}
  },
  {
    "updated": {"label": "yesterday"},
    "im:rating": {"label": "five"},
    "im:version": "2.0"
  }
]`

func decodeEntries(t *testing.T, raw string) []RawEntry {
	t.Helper()
	var entries []RawEntry
	require.NoError(t, json.Unmarshal([]byte(raw), &entries))
	return entries
}

func TestEntriesNormalizesInOrder(t *testing.T) {
	t.Parallel()

	got := Entries(decodeEntries(t, sampleEntries))
	require.Len(t, got, 3)

	first := got[0]
	want := time.Date(2024, 3, 5, 15, 15, 0, 0, time.UTC)
	require.True(t, first.SubmittedAt.Equal(want), "got %v", first.SubmittedAt)
	require.Equal(t, 4, first.Rating)
	require.Equal(t, "2.1.0", first.Version)
	require.Equal(t, "jane", first.Author)
	require.Equal(t, "Solid", first.Title)
	require.Equal(t, "Works well", first.Body)

	second := got[1]
	require.Equal(t, 0, second.Rating)
	require.Equal(t, reviews.UnknownVersion, second.Version)
	require.Equal(t, reviews.AnonymousAuthor, second.Author)
	require.Equal(t, "No rating here", second.Title)
	require.Empty(t, second.Body)
	require.False(t, second.DateKnown())

	third := got[2]
	require.Equal(t, 0, third.Rating)
	require.Equal(t, reviews.UnknownVersion, third.Version, "version without label object degrades")
	require.False(t, third.DateKnown())
}

func TestEntryEmpty(t *testing.T) {
	t.Parallel()

	got := Entry(RawEntry{})
	require.Equal(t, reviews.Review{
		Version: reviews.UnknownVersion,
		Author:  reviews.AnonymousAuthor,
	}, got)

	require.Equal(t, reviews.AnonymousAuthor, Entry(nil).Author)
}

func TestNumericLabels(t *testing.T) {
	t.Parallel()

	got := Entry(RawEntry{
		"im:rating":  map[string]any{"label": float64(3)},
		"im:version": map[string]any{"label": 1.5},
	})
	require.Equal(t, 3, got.Rating)
	require.Equal(t, "1.5", got.Version)
}

func TestParseRating(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		in   string
		want int
	}{
		{"5", 5},
		{" 3 ", 3},
		{"4.0", 4},
		{"2abc", 2},
		{"0", 0},
		{"", 0},
		{"abc", 0},
		{"6", 0},
		{"-1", 0},
		{"+2", 2},
		{"99999999999999999999", 0},
	}
	for _, tc := range testCases {
		require.Equal(t, tc.want, parseRating(tc.in), "parseRating(%q)", tc.in)
	}
}

func TestParseDate(t *testing.T) {
	t.Parallel()

	require.True(t, parseDate("").IsZero())
	require.True(t, parseDate("not a date").IsZero())
	require.Equal(t, 2024, parseDate("2024-01-01").Year())
	require.Equal(t, time.January, parseDate("2024-01-01T10:00:00Z").Month())
}
