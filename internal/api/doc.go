// Package api hosts the debug HTTP server for a crawl run. Notable routes:
//   - GET /healthz and /readyz for liveness probes.
//   - GET /metrics for Prometheus scraping.
//
// The listener is optional; an empty debug address disables it entirely.
package api
