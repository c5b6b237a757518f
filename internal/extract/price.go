package extract

import (
	"strings"

	"github.com/shopspring/decimal"
)

// priceCleaner strips the currency glyph, thousands separators, and the
// whitespace variants that appear between them.
var priceCleaner = strings.NewReplacer("£", "", ",", "", " ", "", " ", "")

// ParsePrice normalizes a price string to a decimal amount. Unparsable or
// absent text ("Price on request", empty) yields nil rather than an error;
// the record survives with a null price.
func ParsePrice(text *string) *decimal.Decimal {
	if text == nil {
		return nil
	}
	cleaned := priceCleaner.Replace(strings.TrimSpace(*text))
	if cleaned == "" {
		return nil
	}
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return nil
	}
	return &d
}
