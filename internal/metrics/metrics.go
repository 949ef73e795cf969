// Package metrics exposes Prometheus collectors for the review service.
package metrics

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	upstreamRequestsTotal          *prometheus.CounterVec
	upstreamBytesTotal             *prometheus.CounterVec
	intermediaryAttemptsTotal      *prometheus.CounterVec
	feedFetchesTotal               *prometheus.CounterVec
	metadataLookupsTotal           *prometheus.CounterVec
	exportsTotal                   *prometheus.CounterVec
	httpRequestsTotal              *prometheus.CounterVec
	httpRequestDurationSeconds     *prometheus.HistogramVec
	upstreamRateLimitDelaysSeconds *prometheus.HistogramVec

	once sync.Once
)

// Init initializes the Prometheus metrics collectors.
// It is safe to call this function multiple times.
func Init() {
	once.Do(func() {
		upstreamRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "reviews_upstream_requests_total",
				Help: "Total number of upstream GET requests, labeled by host and status.",
			},
			[]string{"host", "status"},
		)

		upstreamBytesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "reviews_upstream_bytes_total",
				Help: "Total number of bytes fetched from upstreams, labeled by host.",
			},
			[]string{"host"},
		)

		intermediaryAttemptsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "reviews_intermediary_attempts_total",
				Help: "Feed fetch attempts per intermediary, labeled by outcome.",
			},
			[]string{"intermediary", "outcome"},
		)

		feedFetchesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "reviews_feed_fetches_total",
				Help: "Completed pipeline runs, labeled by result kind.",
			},
			[]string{"kind"},
		)

		metadataLookupsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "reviews_metadata_lookups_total",
				Help: "Metadata lookups, labeled by whether metadata was found.",
			},
			[]string{"found"},
		)

		exportsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "reviews_exports_total",
				Help: "Table exports, labeled by format and result.",
			},
			[]string{"format", "result"},
		)

		httpRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests, labeled by method and code.",
			},
			[]string{"method", "code"},
		)

		httpRequestDurationSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "Histogram of HTTP request latencies, labeled by method and route.",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
			},
			[]string{"method", "route"},
		)

		upstreamRateLimitDelaysSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "reviews_rate_limit_delays_seconds",
				Help:    "Histogram of rate limit wait durations.",
				Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30},
			},
			[]string{"host"},
		)
	})
}

// SanitizeSite sanitizes a URL to extract a lowercase hostname.
// It returns "unknown" if the URL is invalid.
func SanitizeSite(rawURL string) string {
	if !strings.HasPrefix(rawURL, "http") {
		rawURL = "http://" + rawURL
	}
	u, err := url.Parse(rawURL)
	if err != nil || u.Hostname() == "" {
		return "unknown"
	}
	return strings.ToLower(u.Hostname())
}

// Handler returns an http.Handler for exposing Prometheus metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveUpstream records one upstream GET.
func ObserveUpstream(rawURL string, status string, bytesFetched int) {
	Init()
	host := SanitizeSite(rawURL)
	upstreamRequestsTotal.WithLabelValues(host, status).Inc()
	if bytesFetched > 0 {
		upstreamBytesTotal.WithLabelValues(host).Add(float64(bytesFetched))
	}
}

// ObserveIntermediaryAttempt records the outcome of one intermediary in the chain.
func ObserveIntermediaryAttempt(name string, success bool) {
	Init()
	outcome := "failure"
	if success {
		outcome = "success"
	}
	intermediaryAttemptsTotal.WithLabelValues(name, outcome).Inc()
}

// ObserveFetch records a finished pipeline run by result kind.
func ObserveFetch(kind string) {
	Init()
	feedFetchesTotal.WithLabelValues(kind).Inc()
}

// ObserveMetadataLookup records whether metadata was found.
func ObserveMetadataLookup(found bool) {
	Init()
	metadataLookupsTotal.WithLabelValues(strconv.FormatBool(found)).Inc()
}

// ObserveExport records an export attempt.
func ObserveExport(format string, err error) {
	Init()
	result := "ok"
	if err != nil {
		result = "error"
	}
	exportsTotal.WithLabelValues(format, result).Inc()
}

// ObserveHTTPRequest increments the HTTP request metrics.
func ObserveHTTPRequest(method, route string, code int, duration time.Duration) {
	Init()
	httpRequestsTotal.WithLabelValues(method, strconv.Itoa(code)).Inc()
	httpRequestDurationSeconds.WithLabelValues(method, route).Observe(duration.Seconds())
}

// ObserveRateLimitDelay records the duration of a rate limit wait.
func ObserveRateLimitDelay(host string, duration time.Duration) {
	Init()
	upstreamRateLimitDelaysSeconds.WithLabelValues(host).Observe(duration.Seconds())
}
