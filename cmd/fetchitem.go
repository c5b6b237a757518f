package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/gallerytools/artcrawl/internal/clock/system"
	"github.com/gallerytools/artcrawl/internal/config"
	"github.com/gallerytools/artcrawl/internal/extract"
	"github.com/gallerytools/artcrawl/internal/logging"
	"github.com/gallerytools/artcrawl/internal/parse"
)

// newFetchItemCmd creates the 'fetch-item' subcommand: process one detail
// page through fetch, parse, and extract without the indexer and without
// touching the archive or the workbook. Useful for checking what a page
// yields before committing to a full run.
func newFetchItemCmd() *cobra.Command {
	var outPath string

	cmd := &cobra.Command{
		Use:   "fetch-item URL",
		Short: "Extract a single detail page and print the record as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadPartial(cfgFile)
			if err != nil {
				return err
			}

			logger, err := logging.New(cfg.Log.Development, cfg.Log.Level)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			fetcher, closeFetcher, err := buildFetcher(cfg, logger)
			if err != nil {
				return err
			}
			defer closeFetcher()

			url := args[0]
			html, err := fetcher.Fetch(cmd.Context(), url)
			if err != nil {
				return fmt.Errorf("fetch %s: %w", url, err)
			}

			raw, err := parse.New(parse.Config{Artist: cfg.Crawler.Artist}).Parse(html)
			if err != nil {
				return fmt.Errorf("parse %s: %w", url, err)
			}

			rec, err := extract.Extract(raw, url, system.New().Now())
			if err != nil {
				return fmt.Errorf("extract %s: %w", url, err)
			}

			payload, err := json.MarshalIndent(rec, "", "  ")
			if err != nil {
				return fmt.Errorf("marshal record: %w", err)
			}
			payload = append(payload, '\n')

			if outPath != "" {
				if err := os.WriteFile(outPath, payload, 0o600); err != nil {
					return fmt.Errorf("write %s: %w", outPath, err)
				}
				return nil
			}
			_, err = cmd.OutOrStdout().Write(payload)
			return err
		},
	}

	cmd.Flags().StringVar(&outPath, "out", "", "write the record JSON to a file instead of stdout")

	return cmd
}
