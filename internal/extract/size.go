package extract

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// sizePattern matches "W x H" or "W x H x D" followed by a unit. Longest
// unit alternatives come first; Go regexps use leftmost-first alternation.
var sizePattern = regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*[x×]\s*(\d+(?:\.\d+)?)(?:\s*[x×]\s*(\d+(?:\.\d+)?))?\s*(inches|inch|in|cm|mm|m|")`)

// ParseSize applies the dimension pattern over the first matching substring
// of raw and converts the values to centimeters. When only a pair is
// present depth is nil; when nothing matches all three are nil and the
// caller keeps the raw text verbatim.
func ParseSize(raw *string) (width, height, depth *float64) {
	if raw == nil {
		return nil, nil, nil
	}
	text := *raw
	offset := 0
	for {
		m := sizePattern.FindStringSubmatchIndex(text[offset:])
		if m == nil {
			return nil, nil, nil
		}
		end := offset + m[1]
		// A unit immediately followed by a letter is a word prefix
		// ("40 metres"), not a dimension unit; look past it.
		if end < len(text) && isASCIILetter(text[end]) {
			offset += m[1]
			continue
		}
		w := toCentimeters(text[offset+m[2]:offset+m[3]], text[offset+m[8]:offset+m[9]])
		h := toCentimeters(text[offset+m[4]:offset+m[5]], text[offset+m[8]:offset+m[9]])
		var d *float64
		if m[6] >= 0 {
			d = toCentimeters(text[offset+m[6]:offset+m[7]], text[offset+m[8]:offset+m[9]])
		}
		return w, h, d
	}
}

func toCentimeters(value, unit string) *float64 {
	v, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil
	}
	switch {
	case strings.EqualFold(unit, "mm"):
		v /= 10
	case strings.EqualFold(unit, "m"):
		v *= 100
	case strings.EqualFold(unit, "in"), strings.EqualFold(unit, "inch"), strings.EqualFold(unit, "inches"), unit == `"`:
		v *= 2.54
	}
	rounded := math.Round(v*100) / 100
	return &rounded
}

func isASCIILetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}
