// Package feed retrieves a storefront's customer-review feed through an
// ordered chain of intermediaries and decodes its entries.
package feed

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/JakeFAU/storefront-reviews/internal/normalize"
	"github.com/JakeFAU/storefront-reviews/internal/reviews"
)

// DefaultBaseURL is the storefront feed host.
const DefaultBaseURL = "https://itunes.apple.com"

// Fetcher retrieves raw feed entries for a target.
type Fetcher struct {
	chain   *Chain
	baseURL string
	logger  *zap.Logger
}

// NewFetcher constructs a Fetcher. An empty baseURL uses DefaultBaseURL.
func NewFetcher(chain *Chain, baseURL string, logger *zap.Logger) *Fetcher {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Fetcher{
		chain:   chain,
		baseURL: strings.TrimRight(baseURL, "/"),
		logger:  logger,
	}
}

// URL returns the canonical most-recent-first feed URL for target. The feed
// serves its native page maximum; no pagination is requested.
func (f *Fetcher) URL(target reviews.Target) string {
	return fmt.Sprintf("%s/%s/rss/customerreviews/id=%s/sortBy=mostRecent/json", f.baseURL, target.Region, target.AppID)
}

// Fetch returns the raw entries for target in feed order.
func (f *Fetcher) Fetch(ctx context.Context, target reviews.Target) ([]normalize.RawEntry, error) {
	resp, err := f.chain.Get(ctx, f.URL(target))
	if err != nil {
		return nil, fmt.Errorf("fetch feed: %w", err)
	}
	entries, err := Decode(resp.Body, target.Region)
	if err != nil {
		return nil, err
	}
	f.logger.Debug("feed decoded", zap.Int("entries", len(entries)))
	return entries, nil
}

type payload struct {
	Feed *struct {
		Entry json.RawMessage `json:"entry"`
	} `json:"feed"`
}

// Decode parses a feed body. The entry collection may be a single object or
// an array; both come back as a slice. A feed without entries yields
// *reviews.EmptyResultError for region.
func Decode(body []byte, region string) ([]normalize.RawEntry, error) {
	var p payload
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, fmt.Errorf("decode feed: %w: %v", reviews.ErrDataFormat, err)
	}
	if p.Feed == nil {
		return nil, &reviews.EmptyResultError{Region: region}
	}
	raw := bytes.TrimSpace(p.Feed.Entry)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, &reviews.EmptyResultError{Region: region}
	}

	switch raw[0] {
	case '{':
		var entry normalize.RawEntry
		if err := json.Unmarshal(raw, &entry); err != nil {
			return nil, fmt.Errorf("decode feed entry: %w: %v", reviews.ErrDataFormat, err)
		}
		return []normalize.RawEntry{entry}, nil
	case '[':
		var items []json.RawMessage
		if err := json.Unmarshal(raw, &items); err != nil {
			return nil, fmt.Errorf("decode feed entries: %w: %v", reviews.ErrDataFormat, err)
		}
		if len(items) == 0 {
			return nil, &reviews.EmptyResultError{Region: region}
		}
		entries := make([]normalize.RawEntry, 0, len(items))
		for _, item := range items {
			var entry normalize.RawEntry
			// Non-object items degrade to an empty entry.
			if err := json.Unmarshal(item, &entry); err != nil {
				entry = normalize.RawEntry{}
			}
			entries = append(entries, entry)
		}
		return entries, nil
	default:
		return nil, fmt.Errorf("decode feed: %w: entry is neither object nor array", reviews.ErrDataFormat)
	}
}
