// Package app_test contains unit tests for the app package.
package app_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/JakeFAU/storefront-reviews/internal/app"
	"github.com/JakeFAU/storefront-reviews/internal/config"
	"github.com/JakeFAU/storefront-reviews/internal/reviews"
)

// MockFetcher mocks the reviews.Fetcher interface.
type MockFetcher struct {
	mock.Mock
}

// Fetch satisfies the reviews.Fetcher interface for the mock.
func (m *MockFetcher) Fetch(ctx context.Context, req reviews.FetchRequest) (reviews.FetchResponse, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(reviews.FetchResponse), args.Error(1)
}

func urlPrefix(prefix string) any {
	return mock.MatchedBy(func(req reviews.FetchRequest) bool {
		return strings.HasPrefix(req.URL, prefix)
	})
}

func testConfig() config.Config {
	return config.Config{
		Server: config.ServerConfig{Port: 8080, HandlerTimeoutSeconds: 5},
		HTTP:   config.HTTPConfig{TimeoutSeconds: 5},
		Feed: config.FeedConfig{
			BaseURL: "https://itunes.apple.com",
			Intermediaries: []config.IntermediaryConfig{
				{Name: "relay", Scheme: config.SchemeQueryParam, BaseURL: "http://relay.test/raw"},
				{Name: "direct", Scheme: config.SchemeDirect},
			},
		},
		Metadata: config.MetadataConfig{BaseURL: "https://itunes.apple.com"},
		Table:    config.TableConfig{DefaultWindow: 50},
	}
}

const feedBody = `{"feed":{"entry":{"im:rating":{"label":"4"},"author":{"name":{"label":"ann"}},"title":{"label":"Solid"}}}}`

func TestAppSessionFallsBackToDirect(t *testing.T) {
	t.Parallel()

	transport := new(MockFetcher)
	transport.On("Fetch", mock.Anything, urlPrefix("http://relay.test/raw?url=")).
		Return(reviews.FetchResponse{}, errors.New("status 503"))
	transport.On("Fetch", mock.Anything, urlPrefix("https://itunes.apple.com/gb/rss/customerreviews/id=5/")).
		Return(reviews.FetchResponse{StatusCode: 200, Body: []byte(feedBody)}, nil).
		Once()

	a, err := app.NewWithFetcher(testConfig(), transport, zap.NewNop())
	require.NoError(t, err)
	defer a.Close()

	s := a.NewSession()
	res, err := s.Fetch(context.Background(), "https://apps.apple.com/gb/app/x/id5", "auto")
	require.NoError(t, err)
	assert.Equal(t, 1, res.Total)
	assert.False(t, res.MetadataFound)
	assert.Equal(t, "app_reviews_reviews.csv", s.ExportFilename())
	assert.Equal(t, "(1/1) reviews", s.Table().Summary())

	// Feed via relay, lookup via relay, then the direct feed.
	transport.AssertNumberOfCalls(t, "Fetch", 3)
	transport.AssertExpectations(t)
}

func TestAppMetadataUsesPrimaryRelay(t *testing.T) {
	t.Parallel()

	transport := new(MockFetcher)
	transport.On("Fetch", mock.Anything, urlPrefix("http://relay.test/raw?url=https%3A%2F%2Fitunes.apple.com%2Fus%2Flookup")).
		Return(reviews.FetchResponse{StatusCode: 200, Body: []byte(`{"results":[{"trackName":"Relay App"}]}`)}, nil)
	transport.On("Fetch", mock.Anything, urlPrefix("http://relay.test/raw?url=https%3A%2F%2Fitunes.apple.com%2Fus%2Frss")).
		Return(reviews.FetchResponse{StatusCode: 200, Body: []byte(feedBody)}, nil)

	a, err := app.NewWithFetcher(testConfig(), transport, nil)
	require.NoError(t, err)

	s := a.NewSession()
	res, err := s.Fetch(context.Background(), "https://apps.apple.com/app/x/id7", "auto")
	require.NoError(t, err)
	assert.True(t, res.MetadataFound)
	assert.Equal(t, "Relay_App_reviews.csv", s.ExportFilename())
	transport.AssertExpectations(t)
}

func TestNewRejectsBadIntermediaries(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	cfg.Feed.Intermediaries = []config.IntermediaryConfig{{Name: "x", Scheme: "socks"}}
	_, err := app.New(cfg, nil)
	require.Error(t, err)

	cfg.Feed.Intermediaries = nil
	_, err = app.NewWithFetcher(cfg, new(MockFetcher), nil)
	require.Error(t, err)
}

func TestRegistryCreatesSessions(t *testing.T) {
	t.Parallel()

	a, err := app.New(testConfig(), zap.NewNop())
	require.NoError(t, err)

	reg := a.NewRegistry()
	id, s, err := reg.Create()
	require.NoError(t, err)
	require.NotNil(t, s)
	got, err := reg.Get(id)
	require.NoError(t, err)
	require.Same(t, s, got)
	require.Equal(t, testConfig().Table.DefaultWindow, a.Config().Table.DefaultWindow)
	require.NotNil(t, a.Logger())
}
