// Package workbook maintains the human-facing xlsx catalog with embedded
// thumbnails.
package workbook

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/gallerytools/artcrawl/internal/catalog"
)

// DefaultSheet is the one fixed-name worksheet the catalog lives in.
const DefaultSheet = "Artworks"

// DefaultMaxThumbEdge bounds the longest edge of embedded thumbnails.
const DefaultMaxThumbEdge = 320

var columns = []string{
	"image",
	"title",
	"size",
	"medium",
	"materials used",
	"price",
	"description",
	"status",
	"art finder link",
}

// Config controls the exporter.
type Config struct {
	Path         string
	Sheet        string
	MaxThumbEdge int
}

// Exporter implements catalog.Exporter over an xlsx workbook. Every append
// loads the file, checks the existing identifiers, and writes one row, so
// a crashed run never leaves the workbook ahead of the archive.
type Exporter struct {
	cfg    Config
	logger *zap.Logger
}

// New creates an Exporter.
func New(cfg Config, logger *zap.Logger) *Exporter {
	if cfg.Sheet == "" {
		cfg.Sheet = DefaultSheet
	}
	if cfg.MaxThumbEdge == 0 {
		cfg.MaxThumbEdge = DefaultMaxThumbEdge
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Exporter{cfg: cfg, logger: logger}
}

// Append implements catalog.Exporter. A row whose slug OR title is already
// present is skipped; the check is deliberately broader than the archive's
// slug-only one to catch slug-derivation drift.
func (e *Exporter) Append(rec catalog.Record) (bool, error) {
	if err := os.MkdirAll(filepath.Dir(e.cfg.Path), 0o750); err != nil {
		return false, fmt.Errorf("create workbook dir: %w", err)
	}

	f, err := e.openOrCreate()
	if err != nil {
		return false, err
	}
	defer func() {
		if cerr := f.Close(); cerr != nil {
			e.logger.Debug("Failed to close workbook", zap.Error(cerr))
		}
	}()

	if err := e.ensureSheet(f); err != nil {
		return false, err
	}

	rows, err := f.GetRows(e.cfg.Sheet)
	if err != nil {
		return false, fmt.Errorf("read sheet %s: %w", e.cfg.Sheet, err)
	}
	slugs, titles := existingIdentifiers(rows)
	if _, dup := slugs[strings.ToLower(rec.Slug)]; dup {
		return false, nil
	}
	if _, dup := titles[strings.ToLower(rec.Title)]; dup {
		return false, nil
	}

	rowIndex := len(rows) + 1
	if err := e.writeRow(f, rowIndex, rec); err != nil {
		return false, err
	}
	if err := f.SaveAs(e.cfg.Path); err != nil {
		return false, fmt.Errorf("save workbook %s: %w", e.cfg.Path, err)
	}
	return true, nil
}

func (e *Exporter) openOrCreate() (*excelize.File, error) {
	if _, err := os.Stat(e.cfg.Path); err == nil {
		f, err := excelize.OpenFile(e.cfg.Path)
		if err != nil {
			return nil, fmt.Errorf("open workbook %s: %w", e.cfg.Path, err)
		}
		return f, nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("stat workbook %s: %w", e.cfg.Path, err)
	}

	f := excelize.NewFile()
	if e.cfg.Sheet != "Sheet1" {
		if err := f.SetSheetName("Sheet1", e.cfg.Sheet); err != nil {
			return nil, fmt.Errorf("name sheet %s: %w", e.cfg.Sheet, err)
		}
	}
	return f, nil
}

// ensureSheet makes the sheet exist with the fixed header row, column A
// sized for thumbnails, and panes frozen below the header.
func (e *Exporter) ensureSheet(f *excelize.File) error {
	idx, err := f.GetSheetIndex(e.cfg.Sheet)
	if err != nil {
		return fmt.Errorf("sheet index: %w", err)
	}
	if idx < 0 {
		if _, err := f.NewSheet(e.cfg.Sheet); err != nil {
			return fmt.Errorf("create sheet %s: %w", e.cfg.Sheet, err)
		}
	}

	rows, err := f.GetRows(e.cfg.Sheet)
	if err != nil {
		return fmt.Errorf("read sheet %s: %w", e.cfg.Sheet, err)
	}
	if len(rows) == 0 || !headerMatches(rows[0]) {
		if err := e.writeHeader(f); err != nil {
			return err
		}
	}

	if err := f.SetColWidth(e.cfg.Sheet, "A", "A", 36); err != nil {
		return fmt.Errorf("set image column width: %w", err)
	}
	if err := f.SetPanes(e.cfg.Sheet, &excelize.Panes{
		Freeze:      true,
		XSplit:      1,
		YSplit:      1,
		TopLeftCell: "B2",
		ActivePane:  "bottomRight",
	}); err != nil {
		return fmt.Errorf("freeze panes: %w", err)
	}
	return nil
}

func (e *Exporter) writeHeader(f *excelize.File) error {
	for i, header := range columns {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return fmt.Errorf("header cell: %w", err)
		}
		if err := f.SetCellValue(e.cfg.Sheet, cell, header); err != nil {
			return fmt.Errorf("write header %s: %w", header, err)
		}
	}
	style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("header style: %w", err)
	}
	last, err := excelize.CoordinatesToCellName(len(columns), 1)
	if err != nil {
		return fmt.Errorf("header cell: %w", err)
	}
	if err := f.SetCellStyle(e.cfg.Sheet, "A1", last, style); err != nil {
		return fmt.Errorf("style header: %w", err)
	}
	return nil
}

func (e *Exporter) writeRow(f *excelize.File, row int, rec catalog.Record) error {
	description := strings.ReplaceAll(rec.Description, "\r\n", "\n")
	values := []any{
		nil,
		rec.Title,
		deref(rec.SizeRaw),
		deref(rec.Medium),
		deref(rec.Materials),
		formatPrice(rec),
		description,
		rec.Status.Display(),
		rec.SourceURL,
	}
	for i, value := range values {
		if value == nil {
			continue
		}
		cell, err := excelize.CoordinatesToCellName(i+1, row)
		if err != nil {
			return fmt.Errorf("row cell: %w", err)
		}
		if err := f.SetCellValue(e.cfg.Sheet, cell, value); err != nil {
			return fmt.Errorf("write cell %s: %w", cell, err)
		}
	}

	if err := e.linkCell(f, row, rec.SourceURL); err != nil {
		return err
	}
	if strings.Contains(description, "\n") {
		if err := e.wrapCell(f, row); err != nil {
			return err
		}
	}
	if rec.ImagePath != nil {
		e.embedThumb(f, row, *rec.ImagePath, rec.Title)
	}
	return nil
}

func (e *Exporter) linkCell(f *excelize.File, row int, link string) error {
	cell, err := excelize.CoordinatesToCellName(len(columns), row)
	if err != nil {
		return fmt.Errorf("link cell: %w", err)
	}
	if err := f.SetCellHyperLink(e.cfg.Sheet, cell, link, "External"); err != nil {
		return fmt.Errorf("set hyperlink: %w", err)
	}
	style, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Color: "1265BE", Underline: "single"},
	})
	if err != nil {
		return fmt.Errorf("hyperlink style: %w", err)
	}
	if err := f.SetCellStyle(e.cfg.Sheet, cell, cell, style); err != nil {
		return fmt.Errorf("style hyperlink: %w", err)
	}
	return nil
}

func (e *Exporter) wrapCell(f *excelize.File, row int) error {
	cell, err := excelize.CoordinatesToCellName(7, row)
	if err != nil {
		return fmt.Errorf("description cell: %w", err)
	}
	style, err := f.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{WrapText: true, Vertical: "top"},
	})
	if err != nil {
		return fmt.Errorf("wrap style: %w", err)
	}
	if err := f.SetCellStyle(e.cfg.Sheet, cell, cell, style); err != nil {
		return fmt.Errorf("style description: %w", err)
	}
	return nil
}

// embedThumb scales the stored image and anchors it in column A. A broken
// or unreadable image drops the thumbnail, never the row.
func (e *Exporter) embedThumb(f *excelize.File, row int, imagePath, title string) {
	thumb, height, err := renderThumb(imagePath, e.cfg.MaxThumbEdge)
	if err != nil {
		e.logger.Warn("skipping thumbnail embed",
			zap.String("image", imagePath), zap.Error(err))
		return
	}

	anchor := fmt.Sprintf("A%d", row)
	err = f.AddPictureFromBytes(e.cfg.Sheet, anchor, &excelize.Picture{
		Extension: ".png",
		File:      thumb,
		Format:    &excelize.GraphicOptions{AltText: title, LockAspectRatio: true},
	})
	if err != nil {
		e.logger.Warn("skipping thumbnail embed",
			zap.String("image", imagePath), zap.Error(err))
		return
	}
	if err := f.SetRowHeight(e.cfg.Sheet, row, float64(height)*0.75); err != nil {
		e.logger.Warn("failed to size thumbnail row",
			zap.Int("row", row), zap.Error(err))
	}
}

// headerMatches reports whether a first row already carries the
// expected column headers.
func headerMatches(row []string) bool {
	if len(row) < len(columns) {
		return false
	}
	for i, header := range columns {
		if row[i] != header {
			return false
		}
	}
	return true
}

// existingIdentifiers collects the slug and title sets already in the
// sheet. Slugs come from the link column so they survive workbooks whose
// rows predate this tool.
func existingIdentifiers(rows [][]string) (slugs, titles map[string]struct{}) {
	slugs = make(map[string]struct{})
	titles = make(map[string]struct{})
	for i, row := range rows {
		if i == 0 {
			continue
		}
		if len(row) > 1 && row[1] != "" {
			titles[strings.ToLower(row[1])] = struct{}{}
		}
		if len(row) > 8 && row[8] != "" {
			if slug := slugFromLink(row[8]); slug != "" {
				slugs[strings.ToLower(slug)] = struct{}{}
			}
		}
	}
	return slugs, titles
}

// slugFromLink prefers the segment after "product", falling back to the
// last path segment.
func slugFromLink(link string) string {
	u, err := url.Parse(strings.TrimSpace(link))
	if err != nil {
		return ""
	}
	var segments []string
	for _, segment := range strings.Split(u.Path, "/") {
		if segment != "" {
			segments = append(segments, segment)
		}
	}
	if len(segments) == 0 {
		return ""
	}
	for i, segment := range segments {
		if segment == "product" && i+1 < len(segments) {
			return segments[i+1]
		}
	}
	return segments[len(segments)-1]
}

func formatPrice(rec catalog.Record) any {
	if rec.Price == nil {
		return nil
	}
	return "£" + rec.Price.String()
}

func deref(value *string) any {
	if value == nil {
		return nil
	}
	return *value
}
