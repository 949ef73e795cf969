// Package reviews defines the core types shared across the review pipeline.
package reviews

import (
	"net/http"
	"time"
)

// Sentinels substituted for absent feed fields.
const (
	UnknownVersion  = "unknown"
	AnonymousAuthor = "anonymous"
	// DefaultFileStem names exports when no application metadata was found.
	DefaultFileStem = "app_reviews"
	// AutoRegion asks the resolver to read the region from the storefront URL.
	AutoRegion = "auto"
	// DefaultRegion is used when auto detection finds nothing.
	DefaultRegion = "us"
)

// Region is a selectable storefront region.
type Region struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// SupportedRegions lists the regions offered to users. Auto-detected codes are
// not checked against it.
var SupportedRegions = []Region{
	{Code: AutoRegion, Name: "Auto (URL)"},
	{Code: "au", Name: "Australia"},
	{Code: "br", Name: "Brazil"},
	{Code: "ca", Name: "Canada"},
	{Code: "cn", Name: "China"},
	{Code: "fr", Name: "France"},
	{Code: "de", Name: "Germany"},
	{Code: "it", Name: "Italy"},
	{Code: "jp", Name: "Japan"},
	{Code: "pl", Name: "Poland"},
	{Code: "es", Name: "Spain"},
	{Code: "gb", Name: "United Kingdom"},
	{Code: "us", Name: "United States"},
}

// Target identifies the application and storefront region to fetch.
type Target struct {
	AppID  string `json:"app_id"`
	Region string `json:"region"`
}

// LookupRegion returns the region used for metadata lookups.
func (t Target) LookupRegion() string {
	if t.Region == "" || t.Region == AutoRegion {
		return DefaultRegion
	}
	return t.Region
}

// Review is one normalized feed entry. Values are never mutated after
// construction.
type Review struct {
	SubmittedAt time.Time `json:"submitted_at"`
	Rating      int       `json:"rating"`
	Version     string    `json:"version"`
	Author      string    `json:"author"`
	Title       string    `json:"title"`
	Body        string    `json:"body"`
}

// DateKnown reports whether the feed carried a usable timestamp.
func (r Review) DateKnown() bool {
	return !r.SubmittedAt.IsZero()
}

// Metadata is the best-effort display information for an application.
type Metadata struct {
	Name     string `json:"name"`
	IconURL  string `json:"icon_url,omitempty"`
	FileStem string `json:"file_stem"`
}

// FetchRequest captures everything needed to GET a URL.
type FetchRequest struct {
	URL     string
	Headers http.Header
}

// FetchResponse is the result returned by a Fetcher implementation.
type FetchResponse struct {
	URL        string
	StatusCode int
	Headers    http.Header
	Body       []byte
	Duration   time.Duration
}
