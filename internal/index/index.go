// Package index walks listing pagination and collects detail-page URLs.
package index

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/gallerytools/artcrawl/internal/catalog"
)

// DefaultProductPathPrefix matches the storefront's detail-page convention.
const DefaultProductPathPrefix = "/product/"

// nextSelectors locate the next-page affordance, tried in order.
var nextSelectors = []string{
	"a[rel='next']",
	"link[rel='next']",
	"a.next",
	"li.next a",
	".pagination-next a",
}

// Config controls the pagination walk.
type Config struct {
	ProductPathPrefix string
}

// Indexer discovers detail-page URLs by walking listing pagination. Links
// are deduplicated by normalized URL within and across pages, first-seen
// order preserved.
type Indexer struct {
	cfg     Config
	fetcher catalog.PageFetcher
	pacer   catalog.Pacer
	logger  *zap.Logger
}

// New creates an Indexer. A nil pacer disables inter-page delays.
func New(cfg Config, fetcher catalog.PageFetcher, pacer catalog.Pacer, logger *zap.Logger) *Indexer {
	if cfg.ProductPathPrefix == "" {
		cfg.ProductPathPrefix = DefaultProductPathPrefix
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Indexer{cfg: cfg, fetcher: fetcher, pacer: pacer, logger: logger}
}

// Index implements catalog.Indexer. The root page failing is fatal; a later
// pagination page failing ends the walk with the URLs collected so far and
// the failure noted in the report.
func (ix *Indexer) Index(ctx context.Context, rootURL string) ([]string, catalog.IndexReport, error) {
	var (
		report  catalog.IndexReport
		ordered []string
	)
	seen := make(map[string]struct{})
	visited := map[string]struct{}{pageKey(rootURL): {}}

	pageURL := rootURL
	for {
		first := report.PagesVisited == 0

		base, err := url.Parse(pageURL)
		var doc *goquery.Document
		if err == nil {
			var html string
			html, err = ix.fetchPage(ctx, pageURL)
			if err == nil {
				doc, err = goquery.NewDocumentFromReader(strings.NewReader(html))
			}
		}
		if err != nil {
			if first {
				return nil, report, fmt.Errorf("listing root %s: %w", pageURL, err)
			}
			ix.logger.Warn("pagination page failed; returning partial index",
				zap.String("url", pageURL), zap.Error(err))
			report.FailedPage = pageURL
			report.FailedErr = err
			return ordered, report, nil
		}
		report.PagesVisited++

		newLinks := 0
		doc.Find(ix.anchorSelector()).Each(func(_ int, sel *goquery.Selection) {
			href, ok := sel.Attr("href")
			if !ok {
				return
			}
			normalized, ok := catalog.NormalizeDetailURL(base, href, ix.cfg.ProductPathPrefix)
			if !ok {
				return
			}
			if _, dup := seen[normalized]; dup {
				return
			}
			seen[normalized] = struct{}{}
			ordered = append(ordered, normalized)
			newLinks++
		})
		ix.logger.Debug("listing page indexed",
			zap.String("url", pageURL),
			zap.Int("new_links", newLinks),
			zap.Int("total", len(ordered)))

		next, ok := nextPage(doc, base)
		if !ok {
			break
		}
		key := pageKey(next)
		if _, cycled := visited[key]; cycled {
			ix.logger.Debug("pagination cycle detected", zap.String("url", next))
			break
		}
		visited[key] = struct{}{}
		pageURL = next
	}
	return ordered, report, nil
}

func (ix *Indexer) fetchPage(ctx context.Context, pageURL string) (string, error) {
	if ix.pacer != nil {
		if err := ix.pacer.Wait(ctx); err != nil {
			return "", err
		}
	}
	return ix.fetcher.Fetch(ctx, pageURL)
}

func (ix *Indexer) anchorSelector() string {
	return fmt.Sprintf("a[href*='%s']", ix.cfg.ProductPathPrefix)
}

// nextPage resolves the first usable next-page href against the current
// page URL. Fragments are dropped; queries are kept since pagination often
// lives there.
func nextPage(doc *goquery.Document, base *url.URL) (string, bool) {
	for _, selector := range nextSelectors {
		href, ok := doc.Find(selector).First().Attr("href")
		if !ok {
			continue
		}
		href = strings.TrimSpace(href)
		if href == "" {
			continue
		}
		ref, err := url.Parse(href)
		if err != nil {
			continue
		}
		abs := base.ResolveReference(ref)
		if abs.Scheme != "http" && abs.Scheme != "https" {
			continue
		}
		abs.Fragment = ""
		return abs.String(), true
	}
	return "", false
}

func pageKey(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	u.Fragment = ""
	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	return u.String()
}
