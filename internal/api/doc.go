// Package api hosts the HTTP server, middleware, and REST handlers that front
// review sessions. Notable routes:
//   - GET /healthz / readyz for Kubernetes probes.
//   - GET /metrics for Prometheus scraping.
//   - POST /v1/sessions to open a session, then /v1/sessions/{id}/... to
//     fetch, window, sort, export, and copy its reviews.
package api
