// Package headless renders pages in a browser before handing the DOM to the
// parser. The browser session is a scoped resource: one allocator per
// fetcher, acquired at construction and released by Close on every exit
// path.
package headless

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"

	"github.com/gallerytools/artcrawl/internal/catalog"
)

// Config controls the rendering fetcher.
type Config struct {
	UserAgent         string
	NavigationTimeout time.Duration
	// ReadySelector is waited for after navigation; empty falls back to
	// the document body.
	ReadySelector string
}

// Fetcher implements catalog.PageFetcher with a headless browser.
type Fetcher struct {
	cfg         Config
	allocator   context.Context
	allocCancel context.CancelFunc
}

// New creates a rendering fetcher backed by chromedp.
func New(cfg Config) (*Fetcher, error) {
	if cfg.NavigationTimeout <= 0 {
		cfg.NavigationTimeout = 45 * time.Second
	}
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", "new"),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("hide-scrollbars", true),
		chromedp.Flag("enable-automation", false),
	)
	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)

	return &Fetcher{
		cfg:         cfg,
		allocator:   allocCtx,
		allocCancel: allocCancel,
	}, nil
}

// Close releases the browser allocator.
func (f *Fetcher) Close() {
	f.allocCancel()
}

// Fetch implements catalog.PageFetcher: it navigates, waits for the ready
// selector, and returns the rendered DOM.
func (f *Fetcher) Fetch(ctx context.Context, url string) (string, error) {
	taskCtx, taskCancel := chromedp.NewContext(f.allocator)
	defer taskCancel()

	taskCtx, cancel := context.WithTimeout(taskCtx, f.cfg.NavigationTimeout)
	defer cancel()

	// Bridge the caller's cancellation into the browser context.
	stop := propagateCancel(ctx, taskCancel)
	defer stop()

	meta := newResponseMeta()
	chromedp.ListenTarget(taskCtx, meta.captureEvent)

	var html string
	actions := []chromedp.Action{
		f.setupAction(),
		chromedp.Navigate(url),
		chromedp.WaitReady(f.readySelector(), chromedp.ByQuery),
		chromedp.Sleep(500 * time.Millisecond),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	}
	if err := chromedp.Run(taskCtx, actions...); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", catalog.NewNetworkError(url, ctxErr)
		}
		return "", catalog.NewNetworkError(url, fmt.Errorf("chromedp run: %w", err))
	}

	if status := meta.status(); status >= 400 {
		return "", catalog.NewHTTPError(url, status)
	}
	return html, nil
}

func (f *Fetcher) readySelector() string {
	if f.cfg.ReadySelector != "" {
		return f.cfg.ReadySelector
	}
	return "body"
}

func (f *Fetcher) setupAction() chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		if err := network.Enable().Do(ctx); err != nil {
			return fmt.Errorf("enable network domain: %w", err)
		}
		if f.cfg.UserAgent != "" {
			if err := emulation.SetUserAgentOverride(f.cfg.UserAgent).Do(ctx); err != nil {
				return fmt.Errorf("set user-agent: %w", err)
			}
		}
		return nil
	})
}

// propagateCancel cancels the browser task when the caller's context ends.
// The returned stop func must be deferred to avoid leaking the goroutine.
func propagateCancel(ctx context.Context, cancel context.CancelFunc) func() {
	done := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			cancel()
		case <-done:
		}
	}()
	return func() { close(done) }
}

// responseMeta records the status of the document response.
type responseMeta struct {
	mu   sync.RWMutex
	code int
}

func newResponseMeta() *responseMeta {
	return &responseMeta{}
}

func (m *responseMeta) captureEvent(ev any) {
	resp, ok := ev.(*network.EventResponseReceived)
	if !ok || resp.Type != network.ResourceTypeDocument || resp.Response == nil {
		return
	}
	m.mu.Lock()
	m.code = int(resp.Response.Status)
	m.mu.Unlock()
}

func (m *responseMeta) status() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.code
}
