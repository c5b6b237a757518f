package extract

import (
	"strings"
	"time"

	"github.com/gallerytools/artcrawl/internal/catalog"
)

// Extract converts a raw item into a validated Record. Title and source URL
// are required; their absence is a *catalog.ExtractionError carrying the
// missing field names. Every other normalization is lossy-tolerant:
// unparsable values become nil fields, never a failed record.
func Extract(raw catalog.RawItem, sourceURL string, now time.Time) (catalog.Record, error) {
	title := deref(raw.Title)
	slug := catalog.Slug(sourceURL)

	var missing []string
	if title == "" {
		missing = append(missing, "title")
	}
	if strings.TrimSpace(sourceURL) == "" {
		missing = append(missing, "source_url")
	} else if slug == "" {
		missing = append(missing, "slug")
	}
	if len(missing) > 0 {
		return catalog.Record{}, &catalog.ExtractionError{SourceURL: sourceURL, Missing: missing}
	}

	sizeRaw := trimmed(raw.SizeText)
	width, height, depth := ParseSize(sizeRaw)

	return catalog.Record{
		Title:       title,
		Description: deref(raw.Description),
		Price:       ParsePrice(raw.PriceText),
		SizeRaw:     sizeRaw,
		Width:       width,
		Height:      height,
		Depth:       depth,
		Status:      deriveStatus(raw),
		Medium:      trimmed(raw.Medium),
		Materials:   trimmed(raw.Materials),
		ImageURL:    selectImage(raw),
		SourceURL:   sourceURL,
		Slug:        slug,
		ScrapedAt:   now.UTC(),
	}, nil
}

// deriveStatus evaluates the sold signals as an OR; any single one marks
// the record sold and the signals are not required to agree.
func deriveStatus(raw catalog.RawItem) catalog.Status {
	if raw.SoldMarker || raw.SoldBadge || !raw.HasPurchase {
		return catalog.StatusSold
	}
	return catalog.StatusForSale
}

// selectImage applies the representative-image precedence: page-level
// metadata, then the first gallery image, then the first in-body image.
func selectImage(raw catalog.RawItem) *string {
	for _, candidate := range []*string{raw.MetaImageURL, raw.GalleryImageURL, raw.BodyImageURL} {
		if u := trimmed(candidate); u != nil {
			return u
		}
	}
	return nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	t := strings.TrimSpace(*s)
	if t == "" {
		return nil
	}
	return &t
}
