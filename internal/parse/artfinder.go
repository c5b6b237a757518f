// Package parse implements the storefront page parser that turns rendered
// detail-page HTML into the raw field bag the extractor consumes.
package parse

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/gallerytools/artcrawl/internal/catalog"
)

const (
	descriptionHeading = "original artwork description"
	purchaseText       = "add to basket"
)

var soldIndicators = []string{"this artwork is sold", "sold out", "sold"}

var (
	whitespaceRun  = regexp.MustCompile(`\s+`)
	yearParens     = regexp.MustCompile(`\(\s*\d{4}\s*\)`)
	trailingMedium = regexp.MustCompile(`(?i)\b(?:oil|acrylic|mixed media|ink|watercolour|watercolor|gouache|charcoal|pastel|print|painting|drawing|photograph|sculpture)\b.*$`)
	currencyAmount = regexp.MustCompile(`£[\s\x{00A0}]*[0-9][0-9,]*(?:\.[0-9]+)?`)
)

// Config controls the site-specific selection rules.
type Config struct {
	// Artist, when set, restricts title headers to those naming the
	// artist. Empty accepts the first h1 or h2 on the page.
	Artist string
}

// Parser extracts raw fields from storefront detail pages.
type Parser struct {
	cfg Config
}

// New builds a Parser.
func New(cfg Config) *Parser {
	return &Parser{cfg: cfg}
}

// Parse implements catalog.PageParser. Absent fields come back nil; only a
// document that cannot be parsed at all is an error.
func (p *Parser) Parse(html string) (catalog.RawItem, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return catalog.RawItem{}, fmt.Errorf("parse document: %w", err)
	}

	title := p.title(doc)
	pageText := strings.ToLower(normalize(doc.Text()))

	item := catalog.RawItem{
		Title:           title,
		Description:     description(doc),
		PriceText:       priceText(doc),
		SizeText:        attributeValue(doc, "size"),
		Medium:          attributeValue(doc, "medium"),
		Materials:       attributeValue(doc, "materials"),
		MetaImageURL:    metaImage(doc),
		GalleryImageURL: galleryImage(doc, title),
		BodyImageURL:    bodyImage(doc),
		SoldMarker:      containsAny(pageText, soldIndicators),
		HasPurchase:     strings.Contains(pageText, purchaseText),
		SoldBadge:       soldBadge(doc),
	}
	return item, nil
}

// title picks the first h1/h2 header, preferring one naming the configured
// artist, and strips the "by <artist>" suffix, year parentheticals, and
// trailing medium keywords the storefront appends.
func (p *Parser) title(doc *goquery.Document) *string {
	artist := strings.ToLower(p.cfg.Artist)
	var picked string
	doc.Find("h1, h2").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		text := normalize(sel.Text())
		if text == "" {
			return true
		}
		if artist != "" && !strings.Contains(strings.ToLower(text), artist) {
			return true
		}
		picked = text
		return false
	})
	if picked == "" {
		return nil
	}
	cleaned, _, _ := strings.Cut(picked, " by ")
	cleaned = yearParens.ReplaceAllString(cleaned, "")
	cleaned = trailingMedium.ReplaceAllString(cleaned, "")
	cleaned = normalize(cleaned)
	if cleaned == "" {
		return nil
	}
	return &cleaned
}

// description walks the siblings after the description heading, stopping at
// the next section header or the specifications panel.
func description(doc *goquery.Document) *string {
	var heading *goquery.Selection
	doc.Find("h1, h2, h3, h4, h5, h6, strong, b, span, p, div").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		text := strings.ToLower(normalize(sel.Text()))
		if strings.Contains(text, descriptionHeading) && len(text) < len(descriptionHeading)+20 {
			heading = sel
			return false
		}
		return true
	})
	if heading == nil {
		return nil
	}

	var parts []string
	heading.NextUntil("h1, h2, h3").EachWithBreak(func(_ int, sib *goquery.Selection) bool {
		if strings.Contains(strings.ToLower(sib.Text()), "specifications") {
			return false
		}
		paragraphs := sib.Find("p")
		if paragraphs.Length() == 0 {
			if text := normalize(sib.Text()); text != "" {
				parts = append(parts, text)
			}
			return true
		}
		paragraphs.Each(func(_ int, para *goquery.Selection) {
			if text := normalize(para.Text()); text != "" {
				parts = append(parts, text)
			}
		})
		return true
	})
	if len(parts) == 0 {
		return nil
	}
	combined := strings.Join(parts, " ")
	return &combined
}

// priceText returns the first currency expression on the page, spaces
// removed, e.g. "£2,200".
func priceText(doc *goquery.Document) *string {
	match := currencyAmount.FindString(doc.Text())
	if match == "" {
		return nil
	}
	cleaned := strings.NewReplacer(" ", "", " ", "").Replace(match)
	return &cleaned
}

// attributeValue reads a labeled value from the product attribute panel.
// The value may live in sibling nodes ("<span>Size</span> 30 x 40cm") or
// inside the labeled span itself ("Size: 30 x 40cm").
func attributeValue(doc *goquery.Document, label string) *string {
	var value string
	doc.Find(".product-attributes span").EachWithBreak(func(_ int, span *goquery.Selection) bool {
		spanText := normalize(span.Text())
		if !strings.HasPrefix(strings.ToLower(spanText), label) {
			return true
		}
		parentText := normalize(span.Parent().Text())
		candidate := strings.TrimSpace(strings.TrimPrefix(parentText, spanText))
		if candidate == "" {
			candidate = spanText
		}
		candidate = stripLabel(candidate, label)
		if candidate != "" {
			value = candidate
			return false
		}
		return true
	})
	if value == "" {
		return nil
	}
	return &value
}

func stripLabel(text, label string) string {
	lower := strings.ToLower(text)
	if strings.HasPrefix(lower, label) {
		text = text[len(label):]
	}
	text = strings.TrimLeft(text, " :")
	return strings.TrimSpace(text)
}

func metaImage(doc *goquery.Document) *string {
	content, exists := doc.Find(`meta[property="og:image"]`).First().Attr("content")
	if !exists {
		return nil
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return nil
	}
	return &content
}

// galleryImage finds the first image whose alt text names the title.
func galleryImage(doc *goquery.Document, title *string) *string {
	if title == nil {
		return nil
	}
	want := strings.ToLower(*title)
	var src string
	doc.Find("img[src]").EachWithBreak(func(_ int, img *goquery.Selection) bool {
		alt, _ := img.Attr("alt")
		if !strings.Contains(strings.ToLower(alt), want) {
			return true
		}
		src, _ = img.Attr("src")
		src = strings.TrimSpace(src)
		return src == ""
	})
	if src == "" {
		return nil
	}
	return &src
}

func bodyImage(doc *goquery.Document) *string {
	src, exists := doc.Find("img[src]").First().Attr("src")
	if !exists {
		return nil
	}
	src = strings.TrimSpace(src)
	if src == "" {
		return nil
	}
	return &src
}

// soldBadge looks for a short badge element reading exactly "sold".
func soldBadge(doc *goquery.Document) bool {
	found := false
	doc.Find(".badge, .tag, .label, .product-badge").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		if strings.EqualFold(normalize(sel.Text()), "sold") {
			found = true
			return false
		}
		return true
	})
	return found
}

func containsAny(haystack string, needles []string) bool {
	for _, needle := range needles {
		if strings.Contains(haystack, needle) {
			return true
		}
	}
	return false
}

func normalize(text string) string {
	return strings.TrimSpace(whitespaceRun.ReplaceAllString(text, " "))
}
