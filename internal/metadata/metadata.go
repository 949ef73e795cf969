// Package metadata performs the best-effort application lookup used for
// display names and export file names.
package metadata

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/JakeFAU/storefront-reviews/internal/metrics"
	"github.com/JakeFAU/storefront-reviews/internal/reviews"
)

// DefaultBaseURL is the storefront lookup host.
const DefaultBaseURL = "https://itunes.apple.com"

var (
	// Unicode space separators and the BOM count as whitespace too.
	whitespaceRun = regexp.MustCompile(`[\s\v\p{Z}\x{FEFF}]+`)
	unsafeChars   = regexp.MustCompile(`[^a-zA-Z0-9_\-\x{00C0}-\x{FFFF}]`)
)

// Relay rewrites the lookup URL, e.g. through the primary intermediary.
type Relay interface {
	Wrap(target string) string
}

// Fetcher looks up application metadata. It never fails the pipeline.
type Fetcher struct {
	fetcher reviews.Fetcher
	relay   Relay
	baseURL string
	logger  *zap.Logger
}

// NewFetcher constructs a Fetcher. relay may be nil to request the lookup
// endpoint directly.
func NewFetcher(fetcher reviews.Fetcher, relay Relay, baseURL string, logger *zap.Logger) *Fetcher {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Fetcher{
		fetcher: fetcher,
		relay:   relay,
		baseURL: strings.TrimRight(baseURL, "/"),
		logger:  logger,
	}
}

// URL returns the lookup URL for target; "auto" regions fall back to "us".
func (f *Fetcher) URL(target reviews.Target) string {
	return fmt.Sprintf("%s/%s/lookup?id=%s", f.baseURL, target.LookupRegion(), url.QueryEscape(target.AppID))
}

type lookupResponse struct {
	Results []struct {
		TrackName    string `json:"trackName"`
		ArtworkURL60 string `json:"artworkUrl60"`
	} `json:"results"`
}

// Lookup returns the metadata for target, or false when none could be
// obtained for any reason. Failures are logged, never returned.
func (f *Fetcher) Lookup(ctx context.Context, target reviews.Target) (reviews.Metadata, bool) {
	md, err := f.lookup(ctx, target)
	if err != nil {
		f.logger.Warn("could not fetch app metadata",
			zap.String("app_id", target.AppID),
			zap.Error(err),
		)
		metrics.ObserveMetadataLookup(false)
		return reviews.Metadata{}, false
	}
	metrics.ObserveMetadataLookup(true)
	return md, true
}

func (f *Fetcher) lookup(ctx context.Context, target reviews.Target) (reviews.Metadata, error) {
	lookupURL := f.URL(target)
	if f.relay != nil {
		lookupURL = f.relay.Wrap(lookupURL)
	}
	resp, err := f.fetcher.Fetch(ctx, reviews.FetchRequest{URL: lookupURL})
	if err != nil {
		return reviews.Metadata{}, fmt.Errorf("lookup request: %w", err)
	}
	var parsed lookupResponse
	if err := json.Unmarshal(resp.Body, &parsed); err != nil {
		return reviews.Metadata{}, fmt.Errorf("decode lookup: %w", err)
	}
	if len(parsed.Results) == 0 {
		return reviews.Metadata{}, fmt.Errorf("lookup returned no results")
	}
	first := parsed.Results[0]
	if strings.TrimSpace(first.TrackName) == "" {
		return reviews.Metadata{}, fmt.Errorf("lookup result has no name")
	}
	stem := SanitizeName(first.TrackName)
	if stem == "" {
		stem = reviews.DefaultFileStem
	}
	return reviews.Metadata{
		Name:     first.TrackName,
		IconURL:  first.ArtworkURL60,
		FileStem: stem,
	}, nil
}

// SanitizeName turns a display name into a filename stem: whitespace runs
// become underscores and anything outside [A-Za-z0-9_-] or U+00C0..U+FFFF is
// dropped.
func SanitizeName(name string) string {
	return unsafeChars.ReplaceAllString(whitespaceRun.ReplaceAllString(name, "_"), "")
}
