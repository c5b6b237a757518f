package robots

import (
	"context"
	"errors"

	"github.com/gallerytools/artcrawl/internal/catalog"
)

// ErrDisallowed marks URLs the site's robots.txt excludes.
var ErrDisallowed = errors.New("robots.txt disallows URL")

// Gate wraps a page fetcher with a robots check. Disallowed URLs fail
// permanently before any page request is made.
type Gate struct {
	policy Policy
	next   catalog.PageFetcher
}

// NewGate builds the wrapper.
func NewGate(policy Policy, next catalog.PageFetcher) *Gate {
	return &Gate{policy: policy, next: next}
}

// Fetch implements catalog.PageFetcher.
func (g *Gate) Fetch(ctx context.Context, url string) (string, error) {
	if !g.policy.Allowed(ctx, url) {
		return "", &catalog.FetchError{
			URL:  url,
			Kind: catalog.FetchPermanent,
			Err:  ErrDisallowed,
		}
	}
	return g.next.Fetch(ctx, url)
}
