// Package extract_test tests record extraction and normalization.
package extract_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gallerytools/artcrawl/internal/catalog"
	"github.com/gallerytools/artcrawl/internal/extract"
)

func str(s string) *string { return &s }

func baseRaw() catalog.RawItem {
	return catalog.RawItem{
		Title:       str("Blue Harbour"),
		Description: str("Oil on canvas, framed."),
		PriceText:   str("£2,200"),
		SizeText:    str("46 x 46 x 2cm (unframed)"),
		HasPurchase: true,
	}
}

func TestExtractValidRecord(t *testing.T) {
	now := time.Date(2026, 8, 12, 10, 30, 0, 0, time.UTC)
	rec, err := extract.Extract(baseRaw(), "https://example.com/product/blue-harbour/", now)
	require.NoError(t, err)

	assert.Equal(t, "Blue Harbour", rec.Title)
	assert.Equal(t, "blue-harbour", rec.Slug)
	assert.Equal(t, "https://example.com/product/blue-harbour/", rec.SourceURL)
	assert.Equal(t, catalog.StatusForSale, rec.Status)
	assert.Equal(t, now, rec.ScrapedAt)
	require.NotNil(t, rec.Price)
	assert.True(t, rec.Price.Equal(decimal.NewFromInt(2200)), "price should be 2200, got %s", rec.Price)
}

func TestExtractMissingTitle(t *testing.T) {
	raw := baseRaw()
	raw.Title = nil
	_, err := extract.Extract(raw, "https://example.com/product/blue-harbour/", time.Now())

	var exErr *catalog.ExtractionError
	require.ErrorAs(t, err, &exErr)
	assert.Contains(t, exErr.Missing, "title")
	assert.Equal(t, "https://example.com/product/blue-harbour/", exErr.SourceURL)

	raw.Title = str("   ")
	_, err = extract.Extract(raw, "https://example.com/product/blue-harbour/", time.Now())
	require.ErrorAs(t, err, &exErr, "whitespace-only title counts as missing")
}

func TestExtractMissingSourceURL(t *testing.T) {
	_, err := extract.Extract(baseRaw(), "", time.Now())

	var exErr *catalog.ExtractionError
	require.ErrorAs(t, err, &exErr)
	assert.Contains(t, exErr.Missing, "source_url")
}

func TestExtractSlugRequiresPathSegment(t *testing.T) {
	_, err := extract.Extract(baseRaw(), "https://example.com/", time.Now())

	var exErr *catalog.ExtractionError
	require.ErrorAs(t, err, &exErr)
	assert.Contains(t, exErr.Missing, "slug")
}

func TestSlugInvariantToQueryFragment(t *testing.T) {
	now := time.Now()
	plain, err := extract.Extract(baseRaw(), "https://example.com/product/blue-harbour/", now)
	require.NoError(t, err)
	decorated, err := extract.Extract(baseRaw(), "https://example.com/product/blue-harbour/?utm=x#gallery", now)
	require.NoError(t, err)
	assert.Equal(t, plain.Slug, decorated.Slug)
}

func TestParsePrice(t *testing.T) {
	t.Run("CurrencyAndThousands", func(t *testing.T) {
		p := extract.ParsePrice(str("£2,200"))
		require.NotNil(t, p)
		assert.True(t, p.Equal(decimal.RequireFromString("2200")))
	})

	t.Run("DecimalAmount", func(t *testing.T) {
		p := extract.ParsePrice(str("£1,234.50"))
		require.NotNil(t, p)
		assert.True(t, p.Equal(decimal.RequireFromString("1234.5")))
	})

	t.Run("PriceOnRequest", func(t *testing.T) {
		assert.Nil(t, extract.ParsePrice(str("Price on request")))
	})

	t.Run("AbsentOrEmpty", func(t *testing.T) {
		assert.Nil(t, extract.ParsePrice(nil))
		assert.Nil(t, extract.ParsePrice(str("   ")))
	})
}

func TestParseSize(t *testing.T) {
	t.Run("Triple", func(t *testing.T) {
		w, h, d := extract.ParseSize(str("46 x 46 x 2cm (unframed)"))
		require.NotNil(t, w)
		require.NotNil(t, h)
		require.NotNil(t, d)
		assert.Equal(t, 46.0, *w)
		assert.Equal(t, 46.0, *h)
		assert.Equal(t, 2.0, *d)
	})

	t.Run("PairLeavesDepthNil", func(t *testing.T) {
		w, h, d := extract.ParseSize(str("30 x 40cm"))
		require.NotNil(t, w)
		require.NotNil(t, h)
		assert.Equal(t, 30.0, *w)
		assert.Equal(t, 40.0, *h)
		assert.Nil(t, d)
	})

	t.Run("NoMatchLeavesAllNil", func(t *testing.T) {
		w, h, d := extract.ParseSize(str("no size given"))
		assert.Nil(t, w)
		assert.Nil(t, h)
		assert.Nil(t, d)
	})

	t.Run("InchesConvertToCentimeters", func(t *testing.T) {
		w, h, d := extract.ParseSize(str("12 x 16 in"))
		require.NotNil(t, w)
		require.NotNil(t, h)
		assert.Equal(t, 30.48, *w)
		assert.Equal(t, 40.64, *h)
		assert.Nil(t, d)
	})

	t.Run("MillimetersConvert", func(t *testing.T) {
		w, _, _ := extract.ParseSize(str("300 x 400mm"))
		require.NotNil(t, w)
		assert.Equal(t, 30.0, *w)
	})

	t.Run("UnitPrefixOfWordIgnored", func(t *testing.T) {
		w, h, d := extract.ParseSize(str("30 x 40 metres of canvas"))
		assert.Nil(t, w)
		assert.Nil(t, h)
		assert.Nil(t, d)
	})

	t.Run("MultiplicationSign", func(t *testing.T) {
		w, h, _ := extract.ParseSize(str("30 × 40cm"))
		require.NotNil(t, w)
		require.NotNil(t, h)
		assert.Equal(t, 30.0, *w)
		assert.Equal(t, 40.0, *h)
	})
}

func TestSizeRawPreservedWhenUnparsed(t *testing.T) {
	raw := baseRaw()
	raw.SizeText = str("no size given")
	rec, err := extract.Extract(raw, "https://example.com/product/blue-harbour/", time.Now())
	require.NoError(t, err)

	require.NotNil(t, rec.SizeRaw)
	assert.Equal(t, "no size given", *rec.SizeRaw)
	assert.Nil(t, rec.Width)
	assert.Nil(t, rec.Height)
	assert.Nil(t, rec.Depth)
}

func TestDeriveStatus(t *testing.T) {
	t.Run("SoldBadgeWithoutPurchase", func(t *testing.T) {
		raw := baseRaw()
		raw.SoldBadge = true
		raw.HasPurchase = false
		rec, err := extract.Extract(raw, "https://example.com/product/blue-harbour/", time.Now())
		require.NoError(t, err)
		assert.Equal(t, catalog.StatusSold, rec.Status)
	})

	t.Run("PurchaseWithoutBadge", func(t *testing.T) {
		raw := baseRaw()
		raw.HasPurchase = true
		rec, err := extract.Extract(raw, "https://example.com/product/blue-harbour/", time.Now())
		require.NoError(t, err)
		assert.Equal(t, catalog.StatusForSale, rec.Status)
	})

	t.Run("AnySignalSuffices", func(t *testing.T) {
		marker := baseRaw()
		marker.SoldMarker = true
		rec, err := extract.Extract(marker, "https://example.com/product/blue-harbour/", time.Now())
		require.NoError(t, err)
		assert.Equal(t, catalog.StatusSold, rec.Status, "sold marker alone marks the record sold")

		noPurchase := baseRaw()
		noPurchase.HasPurchase = false
		rec, err = extract.Extract(noPurchase, "https://example.com/product/blue-harbour/", time.Now())
		require.NoError(t, err)
		assert.Equal(t, catalog.StatusSold, rec.Status, "absent purchase affordance alone marks the record sold")
	})
}

func TestSelectImagePrecedence(t *testing.T) {
	raw := baseRaw()
	raw.MetaImageURL = str("https://cdn.example.com/meta.jpg")
	raw.GalleryImageURL = str("https://cdn.example.com/gallery.jpg")
	raw.BodyImageURL = str("https://cdn.example.com/body.jpg")

	rec, err := extract.Extract(raw, "https://example.com/product/blue-harbour/", time.Now())
	require.NoError(t, err)
	require.NotNil(t, rec.ImageURL)
	assert.Equal(t, "https://cdn.example.com/meta.jpg", *rec.ImageURL)

	raw.MetaImageURL = nil
	rec, err = extract.Extract(raw, "https://example.com/product/blue-harbour/", time.Now())
	require.NoError(t, err)
	require.NotNil(t, rec.ImageURL)
	assert.Equal(t, "https://cdn.example.com/gallery.jpg", *rec.ImageURL)

	raw.GalleryImageURL = str("  ")
	rec, err = extract.Extract(raw, "https://example.com/product/blue-harbour/", time.Now())
	require.NoError(t, err)
	require.NotNil(t, rec.ImageURL)
	assert.Equal(t, "https://cdn.example.com/body.jpg", *rec.ImageURL)

	raw.BodyImageURL = nil
	rec, err = extract.Extract(raw, "https://example.com/product/blue-harbour/", time.Now())
	require.NoError(t, err)
	assert.Nil(t, rec.ImageURL, "no candidates leaves the image URL nil")
}
