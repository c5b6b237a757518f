package headless

import (
	"context"
	"errors"
)

// Noop implements catalog.PageFetcher but always returns an error, for
// builds or configurations where a browser is not available.
type Noop struct{}

// NewNoop creates a new Noop fetcher.
func NewNoop() *Noop {
	return &Noop{}
}

// Fetch returns an error since this is a stub implementation.
func (Noop) Fetch(_ context.Context, _ string) (string, error) {
	return "", errors.New("headless fetcher not configured")
}

// Close is a no-op.
func (Noop) Close() {}
