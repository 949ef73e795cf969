// Package resolver extracts the application identifier and storefront region
// from a user-supplied URL.
package resolver

import (
	"regexp"
	"strings"

	"github.com/JakeFAU/storefront-reviews/internal/reviews"
)

var (
	appIDPattern  = regexp.MustCompile(`id(\d+)`)
	regionPattern = regexp.MustCompile(`apps\.apple\.com/([a-z]{2})/`)
)

// Resolve returns the target described by rawURL. regionPref is either
// reviews.AutoRegion (or empty), which reads the region from the URL, or an
// explicit code that is used verbatim.
func Resolve(rawURL, regionPref string) (reviews.Target, error) {
	input := strings.TrimSpace(rawURL)
	if input == "" {
		return reviews.Target{}, &reviews.InvalidInputError{Reason: "please enter a valid storefront URL"}
	}
	match := appIDPattern.FindStringSubmatch(input)
	if match == nil {
		return reviews.Target{}, &reviews.InvalidInputError{Reason: "no identifier present"}
	}
	return reviews.Target{
		AppID:  match[1],
		Region: resolveRegion(input, regionPref),
	}, nil
}

func resolveRegion(input, pref string) string {
	pref = strings.ToLower(strings.TrimSpace(pref))
	if pref != "" && pref != reviews.AutoRegion {
		return pref
	}
	if m := regionPattern.FindStringSubmatch(input); m != nil {
		return m[1]
	}
	return reviews.DefaultRegion
}
