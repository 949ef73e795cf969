// Package main hosts the storefront review extractor.
//
// Architecture overview:
//   - Resolver: internal/resolver turns a storefront URL plus region choice into an app ID and region with no
//     network access.
//   - Fetch stack: internal/fetcher/colly performs single GETs behind a per-host golang.org/x/time/rate limiter;
//     internal/feed routes the canonical feed URL through an ordered chain of intermediaries (allorigins, then
//     corsproxy by default) and stops at the first success. internal/metadata looks the app up through the primary
//     intermediary and never fails a fetch.
//   - Pipeline: internal/pipeline.Session clears its table, resolves, runs metadata and feed concurrently with errgroup,
//     normalizes entries (internal/normalize), and loads internal/table. A second fetch while one runs is rejected.
//   - Surfaces: `reviews serve` exposes sessions over chi (internal/api); `reviews fetch` runs one session and prints a
//     lipgloss table (internal/render) before writing the CSV export.
//
// Operational notes:
//   - No automatic retries: a failed fetch leaves the table empty and sets the session message; the user retries.
//   - Observability: zap logs carry app_id and region; Prometheus counters track intermediary attempts, fetch
//     outcomes by kind, lookups, exports, and HTTP traffic on /metrics.
//
// Quick checklist:
//   - Configure env vars: REVIEWS_SERVER_PORT, REVIEWS_HTTP_TIMEOUT_SECONDS, REVIEWS_HTTP_RATE_PER_SECOND,
//     REVIEWS_TABLE_DEFAULT_WINDOW, REVIEWS_LOGGING_DEVELOPMENT.
//     Intermediaries are set in the config file under feed.intermediaries.
//   - Run locally: go run ./cmd/reviews serve --config config.yaml, or
//     go run ./cmd/reviews fetch https://apps.apple.com/us/app/example/id123 --limit 20 --sort rating.
package main
