// Package collyfetcher implements the plain page fetcher on the Colly
// collector. It is the probe half of the auto fetcher and the whole fetcher
// for static pages.
package collyfetcher

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/gocolly/colly/v2"

	"github.com/gallerytools/artcrawl/internal/catalog"
)

// Config controls collector behavior.
type Config struct {
	UserAgent    string
	Timeout      time.Duration
	MaxBodyBytes int
}

// Fetcher is the plain HTTP page fetcher.
type Fetcher struct {
	cfg           Config
	baseCollector *colly.Collector
}

// New builds a Fetcher. Robots enforcement is left to the gate wrapper, so
// the collector itself never consults robots.txt.
func New(cfg Config) *Fetcher {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	c := colly.NewCollector(colly.Async(false))
	c.IgnoreRobotsTxt = true
	c.AllowURLRevisit = true
	if cfg.MaxBodyBytes > 0 {
		c.MaxBodySize = cfg.MaxBodyBytes
	}
	c.WithTransport(newHTTPTransport())
	return &Fetcher{cfg: cfg, baseCollector: c}
}

// Fetch implements catalog.PageFetcher.
func (f *Fetcher) Fetch(ctx context.Context, url string) (string, error) {
	var (
		body     []byte
		fetchErr error
	)
	collector := f.baseCollector.Clone()
	if f.cfg.UserAgent != "" {
		collector.UserAgent = f.cfg.UserAgent
	}
	collector.SetRequestTimeout(f.cfg.Timeout)

	collector.OnResponse(func(r *colly.Response) {
		body = append([]byte(nil), r.Body...)
	})
	collector.OnError(func(r *colly.Response, err error) {
		if r != nil && r.StatusCode >= 400 {
			fetchErr = catalog.NewHTTPError(url, r.StatusCode)
			return
		}
		fetchErr = catalog.NewNetworkError(url, err)
	})

	done := make(chan error, 1)
	go func() {
		done <- collector.Visit(url)
	}()

	select {
	case <-ctx.Done():
		return "", catalog.NewNetworkError(url, ctx.Err())
	case err := <-done:
		if fetchErr != nil {
			return "", fetchErr
		}
		if err != nil {
			return "", catalog.NewNetworkError(url, err)
		}
	}

	if len(body) == 0 {
		return "", &catalog.FetchError{URL: url, Kind: catalog.FetchPermanent, Err: errors.New("empty response body")}
	}
	return string(body), nil
}

func newHTTPTransport() *http.Transport {
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   15 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
	}
}
