// Package assets downloads, validates, and stores record imagery.
package assets

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/gallerytools/artcrawl/internal/catalog"
	"github.com/gallerytools/artcrawl/internal/metrics"
)

// Image signatures accepted for storage. The stored extension comes from
// the matched signature, never from the URL or the Content-Type header.
var (
	jpegMagic = []byte{0xFF, 0xD8, 0xFF}
	pngMagic  = []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}
)

var allowedContentTypes = map[string]struct{}{
	"image/jpeg": {},
	"image/png":  {},
	"image/webp": {},
	"image/gif":  {},
}

// Config controls the downloader.
type Config struct {
	Dir       string
	UserAgent string
	MaxBytes  int64
	Timeout   time.Duration
}

// Downloader implements catalog.AssetFetcher over plain HTTP with jittered
// retry for transient failures.
type Downloader struct {
	cfg    Config
	client *http.Client
	policy *RetryPolicy
	logger *zap.Logger
}

// New creates a Downloader. A nil policy gets the default retry behavior.
func New(cfg Config, policy *RetryPolicy, logger *zap.Logger) *Downloader {
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = 10 << 20
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if policy == nil {
		policy = NewRetryPolicy(0, 0, 0)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Downloader{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		policy: policy,
		logger: logger,
	}
}

// Fetch implements catalog.AssetFetcher. It returns the path of the stored
// file, named `<slug>.<ext>` under the configured directory.
func (d *Downloader) Fetch(ctx context.Context, imageURL, slug string) (string, error) {
	attempt := 0
	for {
		path, size, err := d.download(ctx, imageURL, slug)
		if err == nil {
			metrics.ObserveAsset("ok", size)
			return path, nil
		}
		attempt++
		if !d.policy.ShouldRetry(err, attempt) {
			metrics.ObserveAsset("error", 0)
			return "", err
		}
		delay := d.policy.Backoff(attempt - 1)
		d.logger.Debug("retrying asset download",
			zap.String("url", imageURL),
			zap.Int("attempt", attempt),
			zap.Duration("backoff", delay),
			zap.Error(err))
		if err := d.pause(ctx, delay); err != nil {
			metrics.ObserveAsset("error", 0)
			return "", err
		}
	}
}

func (d *Downloader) download(ctx context.Context, imageURL, slug string) (string, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return "", 0, &catalog.FetchError{
			URL:  imageURL,
			Kind: catalog.FetchPermanent,
			Err:  fmt.Errorf("new request: %w", err),
		}
	}
	if d.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", d.cfg.UserAgent)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return "", 0, catalog.NewNetworkError(imageURL, err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			d.logger.Debug("Failed to close asset response body", zap.Error(cerr))
		}
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", 0, catalog.NewHTTPError(imageURL, resp.StatusCode)
	}
	if err := validateContentType(imageURL, resp.Header.Get("Content-Type")); err != nil {
		return "", 0, err
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, d.cfg.MaxBytes+1))
	if err != nil {
		return "", 0, catalog.NewNetworkError(imageURL, fmt.Errorf("read body: %w", err))
	}
	if int64(len(data)) > d.cfg.MaxBytes {
		return "", 0, &catalog.FetchError{
			URL:  imageURL,
			Kind: catalog.FetchPermanent,
			Err:  fmt.Errorf("image exceeds %d byte ceiling", d.cfg.MaxBytes),
		}
	}
	if len(data) == 0 {
		return "", 0, &catalog.FetchError{
			URL:  imageURL,
			Kind: catalog.FetchPermanent,
			Err:  errors.New("empty image response"),
		}
	}

	ext, err := signatureExtension(imageURL, data)
	if err != nil {
		return "", 0, err
	}

	if err := os.MkdirAll(d.cfg.Dir, 0o750); err != nil {
		return "", 0, fmt.Errorf("create asset dir: %w", err)
	}
	path := filepath.Join(d.cfg.Dir, slug+ext)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", 0, fmt.Errorf("write asset %s: %w", path, err)
	}
	return path, len(data), nil
}

func (d *Downloader) pause(ctx context.Context, delay time.Duration) error {
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func validateContentType(imageURL, header string) error {
	if header == "" {
		return &catalog.FetchError{
			URL:  imageURL,
			Kind: catalog.FetchPermanent,
			Err:  errors.New("missing content-type header"),
		}
	}
	mediaType := strings.ToLower(strings.TrimSpace(strings.SplitN(header, ";", 2)[0]))
	if _, ok := allowedContentTypes[mediaType]; !ok {
		return &catalog.FetchError{
			URL:  imageURL,
			Kind: catalog.FetchPermanent,
			Err:  fmt.Errorf("content type %q not allowed", mediaType),
		}
	}
	return nil
}

func signatureExtension(imageURL string, data []byte) (string, error) {
	switch {
	case bytes.HasPrefix(data, jpegMagic):
		return ".jpg", nil
	case bytes.HasPrefix(data, pngMagic):
		return ".png", nil
	default:
		return "", &catalog.FetchError{
			URL:  imageURL,
			Kind: catalog.FetchPermanent,
			Err:  errors.New("unrecognized image signature"),
		}
	}
}
