// Package normalize converts loosely typed feed entries into reviews.
package normalize

import (
	"strconv"
	"strings"
	"time"

	"github.com/JakeFAU/storefront-reviews/internal/reviews"
)

// RawEntry is one decoded feed entry before normalization.
type RawEntry map[string]any

// Timestamp layouts accepted for the entry's update label, most specific first.
var dateLayouts = []string{
	time.RFC3339,
	time.RFC1123Z,
	time.RFC1123,
	"2006-01-02",
}

// Entries normalizes raw in order. Missing or malformed fields degrade to
// sentinels; no entry can fail the batch.
func Entries(raw []RawEntry) []reviews.Review {
	out := make([]reviews.Review, 0, len(raw))
	for _, entry := range raw {
		out = append(out, Entry(entry))
	}
	return out
}

// Entry normalizes a single raw entry.
func Entry(entry RawEntry) reviews.Review {
	version, ok := label(entry, "im:version")
	if !ok || version == "" {
		version = reviews.UnknownVersion
	}
	author, ok := label(entry, "author", "name")
	if !ok || author == "" {
		author = reviews.AnonymousAuthor
	}
	title, _ := label(entry, "title")
	body, _ := label(entry, "content")
	ratingText, _ := label(entry, "im:rating")
	updated, _ := label(entry, "updated")

	return reviews.Review{
		SubmittedAt: parseDate(updated),
		Rating:      parseRating(ratingText),
		Version:     version,
		Author:      author,
		Title:       title,
		Body:        body,
	}
}

// label walks path through nested objects and returns the final object's
// "label" value as text.
func label(entry RawEntry, path ...string) (string, bool) {
	var node any = map[string]any(entry)
	for _, key := range path {
		obj, ok := node.(map[string]any)
		if !ok {
			return "", false
		}
		node, ok = obj[key]
		if !ok {
			return "", false
		}
	}
	obj, ok := node.(map[string]any)
	if !ok {
		return "", false
	}
	switch v := obj["label"].(type) {
	case string:
		return v, true
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), true
	case bool:
		return strconv.FormatBool(v), true
	default:
		return "", false
	}
}

// parseRating reads the leading integer of s. Anything unparseable or outside
// [0,5] yields 0.
func parseRating(s string) int {
	s = strings.TrimSpace(s)
	end := 0
	if end < len(s) && (s[end] == '+' || s[end] == '-') {
		end++
	}
	digitsStart := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digitsStart {
		return 0
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil || n < 0 || n > 5 {
		return 0
	}
	return n
}

// parseDate returns the zero time when s is empty or unparseable.
func parseDate(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
