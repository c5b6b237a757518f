package workbook_test

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/gallerytools/artcrawl/internal/catalog"
	"github.com/gallerytools/artcrawl/internal/store/workbook"
)

func strPtr(s string) *string { return &s }

func sampleRecord(slug, title string) catalog.Record {
	price := decimal.NewFromInt(2200)
	return catalog.Record{
		Title:       title,
		Description: "A quiet stretch of coastline.\nOil on canvas.",
		Price:       &price,
		SizeRaw:     strPtr("46 x 46 x 2cm (unframed)"),
		Status:      catalog.StatusForSale,
		Medium:      strPtr("Painting"),
		Materials:   strPtr("Oil on canvas"),
		SourceURL:   "https://gallery.test/product/" + slug + "/",
		Slug:        slug,
		ScrapedAt:   time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
}

func writeTestPNG(t *testing.T, path string, w, h int) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 128, A: 255})
		}
	}
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, img))
	require.NoError(t, f.Close())
}

func TestAppendCreatesWorkbookWithHeader(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "catalog.xlsx")
	e := workbook.New(workbook.Config{Path: path}, nil)

	added, err := e.Append(sampleRecord("blue-coast", "Blue Coast"))
	require.NoError(t, err)
	require.True(t, added)

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	rows, err := f.GetRows(workbook.DefaultSheet)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{
		"image", "title", "size", "medium", "materials used",
		"price", "description", "status", "art finder link",
	}, rows[0])

	row := rows[1]
	require.GreaterOrEqual(t, len(row), 9)
	assert.Equal(t, "Blue Coast", row[1])
	assert.Equal(t, "46 x 46 x 2cm (unframed)", row[2])
	assert.Equal(t, "Painting", row[3])
	assert.Equal(t, "Oil on canvas", row[4])
	assert.Equal(t, "£2200", row[5])
	assert.Equal(t, "for sale", row[7])
	assert.Equal(t, "https://gallery.test/product/blue-coast/", row[8])
}

func TestAppendSkipsDuplicateSlug(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "catalog.xlsx")
	e := workbook.New(workbook.Config{Path: path}, nil)

	added, err := e.Append(sampleRecord("blue-coast", "Blue Coast"))
	require.NoError(t, err)
	require.True(t, added)

	added, err = e.Append(sampleRecord("blue-coast", "A Different Title"))
	require.NoError(t, err)
	assert.False(t, added)

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()
	rows, err := f.GetRows(workbook.DefaultSheet)
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}

func TestAppendSkipsDuplicateTitleCaseInsensitive(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "catalog.xlsx")
	e := workbook.New(workbook.Config{Path: path}, nil)

	added, err := e.Append(sampleRecord("blue-coast", "Blue Coast"))
	require.NoError(t, err)
	require.True(t, added)

	added, err = e.Append(sampleRecord("blue-coast-ii", "BLUE COAST"))
	require.NoError(t, err)
	assert.False(t, added, "title match alone is sufficient for a duplicate")
}

func TestAppendAddsRowsAcrossReopens(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "catalog.xlsx")

	e := workbook.New(workbook.Config{Path: path}, nil)
	added, err := e.Append(sampleRecord("blue-coast", "Blue Coast"))
	require.NoError(t, err)
	require.True(t, added)

	// A fresh exporter sees the prior rows through the file alone.
	e2 := workbook.New(workbook.Config{Path: path}, nil)
	added, err = e2.Append(sampleRecord("red-field", "Red Field"))
	require.NoError(t, err)
	require.True(t, added)

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()
	rows, err := f.GetRows(workbook.DefaultSheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "Blue Coast", rows[1][1])
	assert.Equal(t, "Red Field", rows[2][1])
}

func TestAppendEmbedsThumbnailAndSizesRow(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	imagePath := filepath.Join(dir, "blue-coast.png")
	writeTestPNG(t, imagePath, 640, 480)

	path := filepath.Join(dir, "catalog.xlsx")
	e := workbook.New(workbook.Config{Path: path}, nil)

	rec := sampleRecord("blue-coast", "Blue Coast")
	rec.ImagePath = &imagePath
	added, err := e.Append(rec)
	require.NoError(t, err)
	require.True(t, added)

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	pics, err := f.GetPictures(workbook.DefaultSheet, "A2")
	require.NoError(t, err)
	require.Len(t, pics, 1)

	// 640x480 scaled to a 320 edge is 320x240; rows are sized in points.
	height, err := f.GetRowHeight(workbook.DefaultSheet, 2)
	require.NoError(t, err)
	assert.InDelta(t, 180.0, height, 1.0)
}

func TestAppendKeepsRowWhenImageUnreadable(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "catalog.xlsx")
	e := workbook.New(workbook.Config{Path: path}, nil)

	missing := filepath.Join(dir, "nope.png")
	rec := sampleRecord("blue-coast", "Blue Coast")
	rec.ImagePath = &missing

	added, err := e.Append(rec)
	require.NoError(t, err)
	assert.True(t, added)

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()
	rows, err := f.GetRows(workbook.DefaultSheet)
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}

func TestAppendNilPriceLeavesCellEmpty(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "catalog.xlsx")
	e := workbook.New(workbook.Config{Path: path}, nil)

	rec := sampleRecord("blue-coast", "Blue Coast")
	rec.Price = nil
	added, err := e.Append(rec)
	require.NoError(t, err)
	require.True(t, added)

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()
	value, err := f.GetCellValue(workbook.DefaultSheet, "F2")
	require.NoError(t, err)
	assert.Empty(t, value)
}
