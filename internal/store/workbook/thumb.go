package workbook

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"os"

	// The downloader only ever stores signature-validated JPEG or PNG.
	_ "image/jpeg"

	"golang.org/x/image/draw"
)

// renderThumb loads an image file and scales it so its longest edge fits
// maxEdge. It returns PNG bytes plus the scaled pixel height, which drives
// the spreadsheet row height.
func renderThumb(path string, maxEdge int) ([]byte, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("open image %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	src, _, err := image.Decode(f)
	if err != nil {
		return nil, 0, fmt.Errorf("decode image %s: %w", path, err)
	}

	bounds := src.Bounds()
	width, height := fitWithin(bounds.Dx(), bounds.Dy(), maxEdge)
	if width != bounds.Dx() || height != bounds.Dy() {
		dst := image.NewRGBA(image.Rect(0, 0, width, height))
		draw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, draw.Over, nil)
		src = dst
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, src); err != nil {
		return nil, 0, fmt.Errorf("encode thumbnail: %w", err)
	}
	return buf.Bytes(), height, nil
}

// fitWithin shrinks (never grows) dimensions so both fit inside maxEdge,
// preserving aspect ratio.
func fitWithin(width, height, maxEdge int) (int, int) {
	if maxEdge <= 0 || (width <= maxEdge && height <= maxEdge) {
		return width, height
	}
	if width >= height {
		scaled := height * maxEdge / width
		if scaled < 1 {
			scaled = 1
		}
		return maxEdge, scaled
	}
	scaled := width * maxEdge / height
	if scaled < 1 {
		scaled = 1
	}
	return scaled, maxEdge
}
