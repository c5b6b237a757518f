// Package auto probes pages with a plain HTTP fetch and promotes to a
// rendering fetch when the document looks script-driven.
package auto

import (
	"context"

	"go.uber.org/zap"

	"github.com/gallerytools/artcrawl/internal/catalog"
)

// RenderingFetcher is a page fetcher that holds a browser session.
type RenderingFetcher interface {
	catalog.PageFetcher
	Close()
}

// Fetcher implements catalog.PageFetcher by delegating to a plain fetcher
// first and a rendering fetcher when promotion fires.
type Fetcher struct {
	plain     catalog.PageFetcher
	rendering RenderingFetcher
	heuristic *Heuristic
	log       *zap.Logger
}

// New wires the two fetchers together. Both must be non-nil; use
// headless.NewNoop when rendering is unavailable.
func New(plain catalog.PageFetcher, rendering RenderingFetcher, heuristic *Heuristic, log *zap.Logger) *Fetcher {
	if heuristic == nil {
		heuristic = NewHeuristic(0)
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Fetcher{
		plain:     plain,
		rendering: rendering,
		heuristic: heuristic,
		log:       log,
	}
}

// Fetch probes with the plain fetcher and refetches through the browser
// when the heuristic promotes the page.
func (f *Fetcher) Fetch(ctx context.Context, url string) (string, error) {
	html, err := f.plain.Fetch(ctx, url)
	if err != nil {
		return "", err
	}
	if !f.heuristic.ShouldPromote(html) {
		return html, nil
	}
	f.log.Debug("promoting to rendered fetch", zap.String("url", url))
	return f.rendering.Fetch(ctx, url)
}

// Close releases the rendering fetcher's browser session.
func (f *Fetcher) Close() {
	if f.rendering != nil {
		f.rendering.Close()
	}
}
