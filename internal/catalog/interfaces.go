package catalog

import (
	"context"
	"time"
)

// PageFetcher returns rendered HTML for a URL. Implementations classify
// failures as transient or permanent via *FetchError so the orchestrator
// and indexer can respect the distinction.
type PageFetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// PageParser produces a RawItem from detail-page HTML. Missing fields are
// represented as nil, never as an error.
type PageParser interface {
	Parse(html string) (RawItem, error)
}

// Indexer walks listing pagination from a root URL and returns the
// deduplicated, ordered detail-page URLs together with a walk report.
type Indexer interface {
	Index(ctx context.Context, rootURL string) ([]string, IndexReport, error)
}

// AssetFetcher downloads and validates the image for a record, returning
// the path of the stored file.
type AssetFetcher interface {
	Fetch(ctx context.Context, imageURL, slug string) (string, error)
}

// Archive is the append-only record store and the sole source of resume
// state. Append reports false when the slug was already present.
type Archive interface {
	Contains(slug string) bool
	Append(rec Record) (bool, error)
}

// Exporter appends rows to the human-facing tabular catalog. Append reports
// false when a row with the same slug or title already exists.
type Exporter interface {
	Append(rec Record) (bool, error)
}

// Pacer enforces the politeness delay between successive fetches.
type Pacer interface {
	Wait(ctx context.Context) error
}

// Clock returns the current time (useful for testing).
type Clock interface {
	Now() time.Time
}

// IDGenerator produces run identifiers.
type IDGenerator interface {
	NewID() (string, error)
}
