// Package cmd defines and implements the CLI commands for the artcrawl
// executable.
package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var cfgFile string

// newRootCmd creates and configures the root command.
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "artcrawl",
		Short: "Archive an artist's storefront into a JSONL archive and an xlsx catalog.",
		Long: `artcrawl walks a storefront's listing pagination, extracts every artwork
detail page into a validated record, downloads the artwork images, and
appends the results to a JSONL archive plus a spreadsheet catalog with
embedded thumbnails. Runs are resumable: the archive doubles as the
record of what has already been collected.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		"config file (default searches ., $HOME/.artcrawl, /etc/artcrawl)")

	cmd.AddCommand(newCrawlCmd())
	cmd.AddCommand(newFetchItemCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// Execute is the main entry point. SIGINT and SIGTERM cancel the command
// context so a run can finish its in-flight item and report a summary.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
