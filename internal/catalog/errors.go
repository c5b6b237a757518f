package catalog

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
)

// FetchErrorKind classifies a failed request for retry decisions.
type FetchErrorKind string

// Fetch failure classes.
const (
	FetchTransient FetchErrorKind = "transient"
	FetchPermanent FetchErrorKind = "permanent"
)

// FetchError describes a failed page or asset request. StatusCode is zero
// for network-level failures.
type FetchError struct {
	URL        string
	StatusCode int
	Kind       FetchErrorKind
	Err        error
}

// Error implements the error interface.
func (e *FetchError) Error() string {
	var b strings.Builder
	b.WriteString("fetch ")
	b.WriteString(e.URL)
	if e.StatusCode != 0 {
		fmt.Fprintf(&b, ": status %d", e.StatusCode)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

// Unwrap exposes the underlying cause.
func (e *FetchError) Unwrap() error {
	return e.Err
}

// Transient reports whether the failure is worth retrying.
func (e *FetchError) Transient() bool {
	return e.Kind == FetchTransient
}

// ClassifyStatus maps an HTTP status to a fetch error kind. 429 counts as
// transient alongside the 5xx range; every other 4xx is permanent.
func ClassifyStatus(code int) FetchErrorKind {
	switch {
	case code == 429:
		return FetchTransient
	case code >= 500:
		return FetchTransient
	default:
		return FetchPermanent
	}
}

// NewHTTPError builds a FetchError for a non-2xx response.
func NewHTTPError(url string, status int) *FetchError {
	return &FetchError{
		URL:        url,
		StatusCode: status,
		Kind:       ClassifyStatus(status),
		Err:        fmt.Errorf("unexpected status %d", status),
	}
}

// NewNetworkError builds a FetchError for a request that never produced a
// response. Timeouts and temporary conditions classify as transient.
func NewNetworkError(url string, err error) *FetchError {
	kind := FetchTransient
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		kind = FetchPermanent
	}
	return &FetchError{URL: url, Kind: kind, Err: err}
}

// Transient reports whether err should be retried. Context cancellation is
// never retried; FetchError carries its own class; bare network timeouts
// are retried.
func Transient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe.Transient()
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return netErr.Timeout()
	}
	return false
}

// ExtractionError reports required fields missing from a detail page. It is
// a per-item, recoverable failure.
type ExtractionError struct {
	SourceURL string
	Missing   []string
}

// Error implements the error interface.
func (e *ExtractionError) Error() string {
	return fmt.Sprintf("extract %s: missing required %s", e.SourceURL, strings.Join(e.Missing, ", "))
}
