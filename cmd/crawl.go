package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/gallerytools/artcrawl/internal/api"
	"github.com/gallerytools/artcrawl/internal/assets"
	"github.com/gallerytools/artcrawl/internal/catalog"
	"github.com/gallerytools/artcrawl/internal/config"
	"github.com/gallerytools/artcrawl/internal/fetcher/auto"
	collyfetcher "github.com/gallerytools/artcrawl/internal/fetcher/colly"
	"github.com/gallerytools/artcrawl/internal/fetcher/headless"
	"github.com/gallerytools/artcrawl/internal/index"
	"github.com/gallerytools/artcrawl/internal/logging"
	"github.com/gallerytools/artcrawl/internal/metrics"
	"github.com/gallerytools/artcrawl/internal/pace"
	"github.com/gallerytools/artcrawl/internal/parse"
	"github.com/gallerytools/artcrawl/internal/robots"
	"github.com/gallerytools/artcrawl/internal/runner"
	"github.com/gallerytools/artcrawl/internal/store/archive"
	"github.com/gallerytools/artcrawl/internal/store/workbook"
)

// newCrawlCmd creates and configures the 'crawl' subcommand, which runs the
// full pipeline: index the listing, process every new detail page, and
// append the results to the archive and the workbook.
func newCrawlCmd() *cobra.Command {
	var (
		listingURL    string
		maxItems      int
		skipDownloads bool
	)

	cmd := &cobra.Command{
		Use:   "crawl",
		Short: "Crawl the storefront listing and archive every new artwork",
		Long: `Walks the listing pagination, visits each detail page not yet present in
the archive, and appends one record per artwork to the JSONL archive and
the xlsx catalog. Reruns skip everything already archived, so the command
is safe to interrupt and repeat.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.LoadPartial(cfgFile)
			if err != nil {
				return err
			}
			if listingURL != "" {
				cfg.Crawler.ListingURL = listingURL
			}
			if cmd.Flags().Changed("max-items") {
				cfg.Crawler.MaxItems = maxItems
			}
			if skipDownloads {
				cfg.Assets.Skip = true
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid config: %w", err)
			}
			return runCrawl(cmd.Context(), cmd.OutOrStdout(), cfg)
		},
	}

	cmd.Flags().StringVar(&listingURL, "listing-url", "", "listing root URL (overrides crawler.listing_url)")
	cmd.Flags().IntVar(&maxItems, "max-items", 0, "cap on items processed this run, 0 for no cap")
	cmd.Flags().BoolVar(&skipDownloads, "skip-downloads", false, "persist records without fetching images")

	return cmd
}

func runCrawl(ctx context.Context, out io.Writer, cfg config.Config) error {
	logger, err := logging.New(cfg.Log.Development, cfg.Log.Level)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	metrics.Init()
	if cfg.Debug.Addr != "" {
		srv := api.NewServer(logger)
		go func() {
			if serr := srv.Run(ctx, cfg.Debug.Addr); serr != nil {
				logger.Warn("Debug listener stopped", zap.Error(serr))
			}
		}()
	}

	fetcher, closeFetcher, err := buildFetcher(cfg, logger)
	if err != nil {
		return err
	}
	defer closeFetcher()

	arch, err := archive.Open(cfg.Store.ArchivePath, logger)
	if err != nil {
		return fmt.Errorf("open archive: %w", err)
	}
	logger.Info("archive loaded",
		zap.String("path", cfg.Store.ArchivePath), zap.Int("known_slugs", arch.Len()))

	pacer := pace.New(cfg.MinDelay(), cfg.MaxJitter())
	downloader := assets.New(
		assets.Config{
			Dir:       cfg.Assets.Dir,
			UserAgent: cfg.Crawler.UserAgent,
			MaxBytes:  cfg.Assets.MaxBytes,
			Timeout:   cfg.AssetTimeout(),
		},
		assets.NewRetryPolicy(cfg.Assets.MaxAttempts, cfg.AssetBaseDelay(), cfg.AssetMaxDelay()),
		logger,
	)

	r := runner.New(
		runner.Config{
			ListingURL:    cfg.Crawler.ListingURL,
			MaxItems:      cfg.Crawler.MaxItems,
			SkipDownloads: cfg.Assets.Skip,
		},
		runner.Deps{
			Indexer: index.New(
				index.Config{ProductPathPrefix: cfg.Crawler.ProductPathPrefix},
				fetcher, pacer, logger,
			),
			Fetcher:  fetcher,
			Parser:   parse.New(parse.Config{Artist: cfg.Crawler.Artist}),
			Assets:   downloader,
			Archive:  arch,
			Exporter: workbook.New(workbook.Config{Path: cfg.Store.WorkbookPath, Sheet: cfg.Store.Sheet}, logger),
			Pacer:    pacer,
			Logger:   logger,
		},
	)

	summary, runErr := r.Run(ctx)
	printSummary(out, summary)
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		return runErr
	}
	return nil
}

// buildFetcher assembles the configured page fetcher, wrapped in the robots
// gate when enabled. The returned closer releases any browser session and
// is safe to call on every exit path.
func buildFetcher(cfg config.Config, logger *zap.Logger) (catalog.PageFetcher, func(), error) {
	plain := collyfetcher.New(collyfetcher.Config{
		UserAgent:    cfg.Crawler.UserAgent,
		Timeout:      cfg.FetchTimeout(),
		MaxBodyBytes: int(cfg.Fetch.MaxBodyBytes),
	})

	var (
		fetcher catalog.PageFetcher
		closer  = func() {}
	)
	switch cfg.Fetch.Mode {
	case config.FetchModePlain:
		fetcher = plain
	case config.FetchModeRendered:
		rendering, err := headless.New(headless.Config{
			UserAgent:         cfg.Crawler.UserAgent,
			NavigationTimeout: cfg.NavTimeout(),
			ReadySelector:     cfg.Fetch.ReadySelector,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("init rendering fetcher: %w", err)
		}
		fetcher = rendering
		closer = rendering.Close
	case config.FetchModeAuto:
		var rendering auto.RenderingFetcher
		browser, err := headless.New(headless.Config{
			UserAgent:         cfg.Crawler.UserAgent,
			NavigationTimeout: cfg.NavTimeout(),
			ReadySelector:     cfg.Fetch.ReadySelector,
		})
		if err != nil {
			logger.Warn("Browser unavailable; auto mode degrades to plain fetches", zap.Error(err))
			rendering = headless.NewNoop()
		} else {
			rendering = browser
			closer = browser.Close
		}
		fetcher = auto.New(plain, rendering, nil, logger)
	default:
		return nil, nil, fmt.Errorf("unknown fetch mode %q", cfg.Fetch.Mode)
	}

	policy := robots.New(cfg.Crawler.RespectRobots, cfg.Crawler.UserAgent, logger)
	return robots.NewGate(policy, fetcher), closer, nil
}

// printSummary writes the run's counts and recoverable failures. It runs
// even when every item failed: zero successes is a reported outcome, not a
// crash.
func printSummary(out io.Writer, s catalog.Summary) {
	fmt.Fprintf(out, "run %s finished in %s\n", s.RunID, s.FinishedAt.Sub(s.StartedAt).Round(10*time.Millisecond))
	fmt.Fprintf(out, "  discovered: %d\n", s.Discovered)
	fmt.Fprintf(out, "  skipped:    %d (already archived)\n", s.Skipped)
	fmt.Fprintf(out, "  processed:  %d\n", s.Processed)
	fmt.Fprintf(out, "  succeeded:  %d\n", s.Succeeded)
	fmt.Fprintf(out, "  failed:     %d\n", s.Failed)
	if len(s.Errors) == 0 {
		return
	}
	fmt.Fprintf(out, "errors (%d):\n", len(s.Errors))
	for _, e := range s.Errors {
		fmt.Fprintf(out, "  [%s] %s: %v\n", e.Stage, e.SourceURL, e.Err)
	}
}
