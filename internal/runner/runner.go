// Package runner drives a crawl end to end: walk the listing index, then
// fetch, parse, extract, download, and persist each discovered item.
package runner

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/gallerytools/artcrawl/internal/catalog"
	"github.com/gallerytools/artcrawl/internal/clock/system"
	"github.com/gallerytools/artcrawl/internal/extract"
	"github.com/gallerytools/artcrawl/internal/id/uuid"
	"github.com/gallerytools/artcrawl/internal/metrics"
)

// Config bounds a single run.
type Config struct {
	// ListingURL is the listing root the index walk starts from.
	ListingURL string
	// MaxItems caps processed items per run. Zero means no cap. Items
	// skipped as already archived do not count against the cap.
	MaxItems int
	// SkipDownloads persists records without fetching their images.
	SkipDownloads bool
}

// Deps are the collaborators a run composes. Clock, IDGen, and Logger fall
// back to defaults when nil; a nil Pacer disables politeness delays.
type Deps struct {
	Indexer  catalog.Indexer
	Fetcher  catalog.PageFetcher
	Parser   catalog.PageParser
	Assets   catalog.AssetFetcher
	Archive  catalog.Archive
	Exporter catalog.Exporter
	Pacer    catalog.Pacer
	Clock    catalog.Clock
	IDGen    catalog.IDGenerator
	Logger   *zap.Logger
}

// Runner executes the crawl pipeline sequentially. The archive doubles as
// resume state: slugs already present are skipped before any fetch.
type Runner struct {
	cfg  Config
	deps Deps
	log  *zap.Logger
}

// New creates a Runner, substituting defaults for nil optional deps.
func New(cfg Config, deps Deps) *Runner {
	if deps.Clock == nil {
		deps.Clock = system.New()
	}
	if deps.IDGen == nil {
		deps.IDGen = uuid.New()
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	return &Runner{cfg: cfg, deps: deps, log: deps.Logger}
}

// Run walks the listing and processes every discovered item. The returned
// Summary is populated even when err is non-nil; err is reserved for fatal
// conditions, which here means an unreachable listing root. Cancellation is
// cooperative: the context is checked between items and between stages, and
// an in-flight write always completes.
func (r *Runner) Run(ctx context.Context) (catalog.Summary, error) {
	summary := catalog.Summary{
		State:     catalog.RunStateInit,
		StartedAt: r.deps.Clock.Now(),
	}
	runID, err := r.deps.IDGen.NewID()
	if err != nil {
		summary.FinishedAt = r.deps.Clock.Now()
		return summary, fmt.Errorf("generate run id: %w", err)
	}
	summary.RunID = runID
	log := r.log.With(zap.String("run_id", runID))

	summary.State = catalog.RunStateIndexing
	log.Info("walking listing index", zap.String("url", r.cfg.ListingURL))
	urls, report, err := r.deps.Indexer.Index(ctx, r.cfg.ListingURL)
	metrics.ObservePages(r.cfg.ListingURL, "ok", report.PagesVisited)
	if err != nil {
		metrics.ObservePage(r.cfg.ListingURL, "error")
		summary.FinishedAt = r.deps.Clock.Now()
		return summary, fmt.Errorf("index listing: %w", err)
	}
	if report.FailedPage != "" {
		metrics.ObservePage(report.FailedPage, "error")
		summary.Errors = append(summary.Errors, catalog.ItemError{
			SourceURL: report.FailedPage,
			Stage:     catalog.StageIndex,
			Err:       report.FailedErr,
		})
		log.Warn("index walk ended early",
			zap.String("page", report.FailedPage), zap.Error(report.FailedErr))
	}
	summary.Discovered = len(urls)
	log.Info("index walk complete",
		zap.Int("discovered", len(urls)), zap.Int("pages", report.PagesVisited))

	for _, url := range urls {
		if ctx.Err() != nil {
			log.Info("run canceled", zap.Int("processed", summary.Processed))
			break
		}
		if r.cfg.MaxItems > 0 && summary.Processed >= r.cfg.MaxItems {
			log.Info("item cap reached", zap.Int("max_items", r.cfg.MaxItems))
			break
		}
		if slug := catalog.Slug(url); slug != "" && r.deps.Archive.Contains(slug) {
			summary.Skipped++
			log.Debug("already archived", zap.String("slug", slug))
			continue
		}
		summary.State = catalog.RunStateProcessing
		summary.Processed++
		errs, ok := r.processItem(ctx, log, url)
		summary.Errors = append(summary.Errors, errs...)
		if ok {
			summary.Succeeded++
			metrics.ObserveItem("ok")
		} else {
			summary.Failed++
			metrics.ObserveItem("error")
		}
	}

	summary.State = catalog.RunStateDone
	summary.FinishedAt = r.deps.Clock.Now()
	log.Info("run complete",
		zap.Int("discovered", summary.Discovered),
		zap.Int("skipped", summary.Skipped),
		zap.Int("processed", summary.Processed),
		zap.Int("succeeded", summary.Succeeded),
		zap.Int("failed", summary.Failed),
	)
	return summary, nil
}

// processItem carries one detail page through fetch, parse, extract,
// download, and persistence. It returns every stage failure plus whether
// the record reached the archive. A failed image download or workbook
// append is reported but does not void the item; a failed archive append
// does.
func (r *Runner) processItem(ctx context.Context, log *zap.Logger, url string) ([]catalog.ItemError, bool) {
	var errs []catalog.ItemError
	fail := func(stage catalog.Stage, err error) ([]catalog.ItemError, bool) {
		log.Warn("item failed",
			zap.String("url", url), zap.String("stage", string(stage)), zap.Error(err))
		return append(errs, catalog.ItemError{SourceURL: url, Stage: stage, Err: err}), false
	}

	if r.deps.Pacer != nil {
		start := r.deps.Clock.Now()
		if err := r.deps.Pacer.Wait(ctx); err != nil {
			return fail(catalog.StageFetch, err)
		}
		metrics.ObservePaceWait(r.deps.Clock.Now().Sub(start))
	}

	html, err := r.deps.Fetcher.Fetch(ctx, url)
	if err != nil {
		metrics.ObservePage(url, "error")
		return fail(catalog.StageFetch, err)
	}
	metrics.ObservePage(url, "ok")

	raw, err := r.deps.Parser.Parse(html)
	if err != nil {
		return fail(catalog.StageParse, err)
	}

	rec, err := extract.Extract(raw, url, r.deps.Clock.Now())
	if err != nil {
		return fail(catalog.StageExtract, err)
	}

	if !r.cfg.SkipDownloads && r.deps.Assets != nil && rec.ImageURL != nil {
		path, err := r.deps.Assets.Fetch(ctx, *rec.ImageURL, rec.Slug)
		if err != nil {
			errs = append(errs, catalog.ItemError{SourceURL: url, Stage: catalog.StageDownload, Err: err})
			log.Warn("image download failed, keeping record",
				zap.String("url", url), zap.Error(err))
		} else {
			rec.ImagePath = &path
		}
	}

	added, err := r.deps.Archive.Append(rec)
	if err != nil {
		return fail(catalog.StagePersist, err)
	}
	if !added {
		log.Debug("record already archived", zap.String("slug", rec.Slug))
		return errs, true
	}

	if r.deps.Exporter != nil {
		if _, err := r.deps.Exporter.Append(rec); err != nil {
			errs = append(errs, catalog.ItemError{SourceURL: url, Stage: catalog.StageExport, Err: err})
			log.Warn("workbook append failed, record archived",
				zap.String("url", url), zap.Error(err))
		}
	}

	log.Info("item archived",
		zap.String("slug", rec.Slug), zap.Bool("image", rec.ImagePath != nil))
	return errs, true
}
