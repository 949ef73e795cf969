package feed

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/JakeFAU/storefront-reviews/internal/config"
	"github.com/JakeFAU/storefront-reviews/internal/metrics"
	"github.com/JakeFAU/storefront-reviews/internal/reviews"
)

// Intermediary rewrites a canonical URL so the request is relayed through a
// third party.
type Intermediary interface {
	Name() string
	Wrap(target string) string
}

// QueryParam relays via `{base}?url={escaped target}`.
type QueryParam struct {
	Label   string
	BaseURL string
}

// Name implements Intermediary.
func (q QueryParam) Name() string { return q.Label }

// Wrap implements Intermediary.
func (q QueryParam) Wrap(target string) string {
	return q.BaseURL + querySeparator(q.BaseURL) + "url=" + url.QueryEscape(target)
}

// RawQuery relays via `{base}?{escaped target}`.
type RawQuery struct {
	Label   string
	BaseURL string
}

// Name implements Intermediary.
func (r RawQuery) Name() string { return r.Label }

// Wrap implements Intermediary.
func (r RawQuery) Wrap(target string) string {
	return r.BaseURL + querySeparator(r.BaseURL) + url.QueryEscape(target)
}

// Direct requests the canonical URL itself.
type Direct struct {
	Label string
}

// Name implements Intermediary.
func (d Direct) Name() string {
	if d.Label == "" {
		return "direct"
	}
	return d.Label
}

// Wrap implements Intermediary.
func (Direct) Wrap(target string) string { return target }

func querySeparator(base string) string {
	if strings.Contains(base, "?") {
		return "&"
	}
	return "?"
}

// IntermediariesFromConfig builds the ordered relay list.
func IntermediariesFromConfig(cfgs []config.IntermediaryConfig) ([]Intermediary, error) {
	out := make([]Intermediary, 0, len(cfgs))
	for _, c := range cfgs {
		switch c.Scheme {
		case config.SchemeQueryParam:
			out = append(out, QueryParam{Label: c.Name, BaseURL: c.BaseURL})
		case config.SchemeRawQuery:
			out = append(out, RawQuery{Label: c.Name, BaseURL: c.BaseURL})
		case config.SchemeDirect:
			out = append(out, Direct{Label: c.Name})
		default:
			return nil, fmt.Errorf("intermediary %q: unsupported scheme %q", c.Name, c.Scheme)
		}
	}
	return out, nil
}

// Chain tries each intermediary in order and returns the first successful
// response.
type Chain struct {
	fetcher reviews.Fetcher
	steps   []Intermediary
	logger  *zap.Logger
}

// NewChain constructs a Chain.
func NewChain(fetcher reviews.Fetcher, steps []Intermediary, logger *zap.Logger) *Chain {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Chain{fetcher: fetcher, steps: steps, logger: logger}
}

// Primary returns the first intermediary, or nil for an empty chain.
func (c *Chain) Primary() Intermediary {
	if len(c.steps) == 0 {
		return nil
	}
	return c.steps[0]
}

// Get fetches target through the chain. When every step fails it returns a
// *reviews.NetworkError carrying each attempt.
func (c *Chain) Get(ctx context.Context, target string) (reviews.FetchResponse, error) {
	netErr := &reviews.NetworkError{}
	for _, step := range c.steps {
		resp, err := c.fetcher.Fetch(ctx, reviews.FetchRequest{URL: step.Wrap(target)})
		metrics.ObserveIntermediaryAttempt(step.Name(), err == nil)
		if err == nil {
			c.logger.Debug("intermediary succeeded",
				zap.String("intermediary", step.Name()),
				zap.Int("status", resp.StatusCode),
				zap.Duration("duration", resp.Duration),
			)
			return resp, nil
		}
		c.logger.Warn("intermediary failed, trying next",
			zap.String("intermediary", step.Name()),
			zap.Error(err),
		)
		netErr.Attempts = append(netErr.Attempts, reviews.AttemptError{Intermediary: step.Name(), Err: err})
		if ctx.Err() != nil {
			break
		}
	}
	return reviews.FetchResponse{}, netErr
}
