package metadata

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	collyfetcher "github.com/JakeFAU/storefront-reviews/internal/fetcher/colly"
	"github.com/JakeFAU/storefront-reviews/internal/reviews"
)

func TestSanitizeName(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		in   string
		want string
	}{
		{"Angry Birds 2", "Angry_Birds_2"},
		{"  Spaced   Out  ", "_Spaced_Out_"},
		{"Notes: Pro/Edition!", "Notes_ProEdition"},
		{"Café Crème", "Café_Crème"},
		{"日本語アプリ", "日本語アプリ"},
		{"emoji 🚀 app", "emoji__app"},
		{"dash-and_underscore", "dash-and_underscore"},
		{"My\u00a0App", "My_App"},
		{"My\u3000App", "My_App"},
		{"Tab\tand\vfeed\u2028line", "Tab_and_feed_line"},
		{"\ufeffBOM\u202fNarrow", "_BOM_Narrow"},
	}
	for _, tc := range testCases {
		require.Equal(t, tc.want, SanitizeName(tc.in), "SanitizeName(%q)", tc.in)
	}
}

func TestLookupURL(t *testing.T) {
	t.Parallel()

	f := NewFetcher(&stubFetcher{}, nil, "", nil)
	require.Equal(t, "https://itunes.apple.com/us/lookup?id=42", f.URL(reviews.Target{AppID: "42", Region: "auto"}))
	require.Equal(t, "https://itunes.apple.com/jp/lookup?id=42", f.URL(reviews.Target{AppID: "42", Region: "jp"}))
}

func TestLookupSuccess(t *testing.T) {
	t.Parallel()

	stub := &stubFetcher{body: `{"resultCount":1,"results":[{"trackName":"My Great App","artworkUrl60":"https://img.example/60.png"}]}`}
	f := NewFetcher(stub, relayFunc(func(s string) string { return "https://relay.example/raw?url=" + s }), "", zap.NewNop())

	md, ok := f.Lookup(context.Background(), reviews.Target{AppID: "7", Region: "gb"})
	require.True(t, ok)
	require.Equal(t, reviews.Metadata{
		Name:     "My Great App",
		IconURL:  "https://img.example/60.png",
		FileStem: "My_Great_App",
	}, md)
	require.Equal(t, "https://relay.example/raw?url=https://itunes.apple.com/gb/lookup?id=7", stub.lastURL)
}

func TestLookupFailuresAreSwallowed(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name string
		stub *stubFetcher
	}{
		{"transport error", &stubFetcher{err: errors.New("dial tcp: refused")}},
		{"malformed json", &stubFetcher{body: `<html>`}},
		{"empty results", &stubFetcher{body: `{"resultCount":0,"results":[]}`}},
		{"nameless result", &stubFetcher{body: `{"results":[{"trackName":"  "}]}`}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			core, logs := observer.New(zap.WarnLevel)
			f := NewFetcher(tc.stub, nil, "", zap.New(core))

			md, ok := f.Lookup(context.Background(), reviews.Target{AppID: "1", Region: "us"})
			require.False(t, ok)
			require.Equal(t, reviews.Metadata{}, md)
			require.Equal(t, 1, logs.Len())
		})
	}
}

func TestLookupSymbolOnlyNameFallsBackToDefaultStem(t *testing.T) {
	t.Parallel()

	f := NewFetcher(&stubFetcher{body: `{"results":[{"trackName":"!!!"}]}`}, nil, "", nil)
	md, ok := f.Lookup(context.Background(), reviews.Target{AppID: "1", Region: "us"})
	require.True(t, ok)
	require.Equal(t, reviews.DefaultFileStem, md.FileStem)
}

func TestLookupOverHTTP(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/ca/lookup" || r.URL.Query().Get("id") != "99" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte(`{"results":[{"trackName":"Maple Notes"}]}`))
	}))
	t.Cleanup(srv.Close)

	f := NewFetcher(collyfetcher.New(collyfetcher.Config{Timeout: 2 * time.Second}, nil), nil, srv.URL, zap.NewNop())
	md, ok := f.Lookup(context.Background(), reviews.Target{AppID: "99", Region: "ca"})
	require.True(t, ok)
	require.Equal(t, "Maple_Notes", md.FileStem)

	_, ok = f.Lookup(context.Background(), reviews.Target{AppID: "100", Region: "ca"})
	require.False(t, ok)
}

type relayFunc func(string) string

func (f relayFunc) Wrap(target string) string { return f(target) }

type stubFetcher struct {
	body    string
	err     error
	lastURL string
}

func (s *stubFetcher) Fetch(_ context.Context, req reviews.FetchRequest) (reviews.FetchResponse, error) {
	s.lastURL = req.URL
	if s.err != nil {
		return reviews.FetchResponse{}, s.err
	}
	return reviews.FetchResponse{URL: req.URL, StatusCode: http.StatusOK, Body: []byte(s.body)}, nil
}
