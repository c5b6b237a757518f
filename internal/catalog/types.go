package catalog

import (
	"time"

	"github.com/shopspring/decimal"
)

// Status is the sale state derived for a record.
type Status string

// Status values persisted in the archive.
const (
	StatusForSale Status = "for_sale"
	StatusSold    Status = "sold"
)

// Display returns the human-facing form used in the workbook.
func (s Status) Display() string {
	if s == StatusSold {
		return "sold"
	}
	return "for sale"
}

// Record is one catalog entry. It is constructed once by the extractor and
// immutable afterwards within a run, except that the orchestrator sets
// ImagePath after a successful asset download.
type Record struct {
	Title       string           `json:"title"`
	Description string           `json:"description"`
	Price       *decimal.Decimal `json:"price"`
	SizeRaw     *string          `json:"size_raw"`
	Width       *float64         `json:"width"`
	Height      *float64         `json:"height"`
	Depth       *float64         `json:"depth"`
	Status      Status           `json:"status"`
	Medium      *string          `json:"medium"`
	Materials   *string          `json:"materials"`
	ImageURL    *string          `json:"image_url"`
	ImagePath   *string          `json:"image_path"`
	SourceURL   string           `json:"source_url"`
	Slug        string           `json:"slug"`
	ScrapedAt   time.Time        `json:"scraped_at"`
}

// RawItem is the closed set of nullable fields a page parser may produce.
// Absent fields are nil, never an error; the extractor is the single point
// where these become a validated Record.
type RawItem struct {
	Title           *string
	Description     *string
	PriceText       *string
	SizeText        *string
	Medium          *string
	Materials       *string
	MetaImageURL    *string
	GalleryImageURL *string
	BodyImageURL    *string
	SoldMarker      bool
	HasPurchase     bool
	SoldBadge       bool
}

// Stage names one step of per-item processing.
type Stage string

// Stages an item passes through, plus the pagination walk itself.
const (
	StageIndex    Stage = "index"
	StageFetch    Stage = "fetch"
	StageParse    Stage = "parse"
	StageExtract  Stage = "extract"
	StageDownload Stage = "download"
	StagePersist  Stage = "persist"
	StageExport   Stage = "export"
)

// RunState tracks the orchestrator's state machine.
type RunState string

// Run states in transition order.
const (
	RunStateInit       RunState = "init"
	RunStateIndexing   RunState = "indexing"
	RunStateProcessing RunState = "processing_item"
	RunStateDone       RunState = "done"
)

// ItemError is a recoverable failure scoped to one listing entry.
type ItemError struct {
	SourceURL string
	Stage     Stage
	Err       error
}

// Error implements the error interface.
func (e ItemError) Error() string {
	return string(e.Stage) + " failed for " + e.SourceURL + ": " + e.Err.Error()
}

// Unwrap exposes the underlying cause.
func (e ItemError) Unwrap() error {
	return e.Err
}

// IndexReport describes how the pagination walk went. FailedPage is empty
// when every listing page was fetched.
type IndexReport struct {
	PagesVisited int
	FailedPage   string
	FailedErr    error
}

// Summary is the run's primary observable contract, independent of exit
// status. Processed equals Succeeded plus Failed; Errors may additionally
// carry non-voiding failures (asset download, export write) for items that
// still reached the archive.
type Summary struct {
	RunID      string
	State      RunState
	Discovered int
	Skipped    int
	Processed  int
	Succeeded  int
	Failed     int
	Errors     []ItemError
	StartedAt  time.Time
	FinishedAt time.Time
}
