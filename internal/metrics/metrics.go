// Package metrics exposes Prometheus collectors for the crawl pipeline.
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
	crawlPagesTotal            *prometheus.CounterVec
	crawlItemsTotal            *prometheus.CounterVec
	crawlAssetsTotal           *prometheus.CounterVec
	crawlAssetBytesTotal       prometheus.Counter
	crawlPaceWaitSeconds       prometheus.Histogram
	httpRequestsTotal          *prometheus.CounterVec
	httpRequestDurationSeconds *prometheus.HistogramVec

	once sync.Once
)

// Init initializes the Prometheus metrics collectors.
// It is safe to call this function multiple times.
func Init() {
	once.Do(func() {
		crawlPagesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "crawl_pages_total",
				Help: "Total number of pages fetched, labeled by site and outcome.",
			},
			[]string{"site", "outcome"},
		)

		crawlItemsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "crawl_items_total",
				Help: "Total number of listing items handled, labeled by outcome.",
			},
			[]string{"outcome"},
		)

		crawlAssetsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "crawl_assets_total",
				Help: "Total number of image downloads, labeled by outcome.",
			},
			[]string{"outcome"},
		)

		crawlAssetBytesTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "crawl_asset_bytes_total",
				Help: "Total number of image bytes stored.",
			},
		)

		crawlPaceWaitSeconds = promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "crawl_pace_wait_seconds",
				Help:    "Histogram of politeness delays between fetches.",
				Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10},
			},
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

// ObservePage records one page fetch.
func ObservePage(site, outcome string) {
	crawlPagesTotal.WithLabelValues(SanitizeSite(site), outcome).Inc()
}

// ObservePages records a batch of page fetches sharing one outcome.
func ObservePages(site, outcome string, count int) {
	if count <= 0 {
		return
	}
	crawlPagesTotal.WithLabelValues(SanitizeSite(site), outcome).Add(float64(count))
}

// ObserveItem records one listing item reaching a terminal outcome.
func ObserveItem(outcome string) {
	crawlItemsTotal.WithLabelValues(outcome).Inc()
}

// ObserveAsset records one image download and the bytes it stored.
func ObserveAsset(outcome string, bytesStored int) {
	crawlAssetsTotal.WithLabelValues(outcome).Inc()
	if bytesStored > 0 {
		crawlAssetBytesTotal.Add(float64(bytesStored))
	}
}

// ObservePaceWait records the duration of a politeness delay.
func ObservePaceWait(duration time.Duration) {
	crawlPaceWaitSeconds.Observe(duration.Seconds())
}

// ObserveHTTPRequest increments the HTTP request metrics.
func ObserveHTTPRequest(method, route string, code int, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, strconv.Itoa(code)).Inc()
	httpRequestDurationSeconds.WithLabelValues(method, route).Observe(duration.Seconds())
}
