// Package catalog defines the core types shared across the crawl pipeline:
// the Record model, the raw parser output, run summaries, and the
// collaborator interfaces the orchestrator composes.
package catalog
