// Package archive persists records as JSON lines and reloads the slug
// identity set that makes reruns idempotent.
package archive

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/gallerytools/artcrawl/internal/catalog"
)

// Archive is an append-only JSONL record store. The file is the sole
// source of resume state: opening reads every line's slug into memory.
type Archive struct {
	path   string
	slugs  map[string]struct{}
	logger *zap.Logger
}

// Open loads the identity set from path. A missing file is an empty
// archive. Unparsable lines are tolerated and counted, never fatal, so a
// half-written line from a crashed run cannot block the next one.
func Open(path string, logger *zap.Logger) (*Archive, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	a := &Archive{path: path, slugs: make(map[string]struct{}), logger: logger}

	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return a, nil
		}
		return nil, fmt.Errorf("open archive %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil {
			logger.Debug("Failed to close archive", zap.Error(cerr))
		}
	}()

	var badLines int
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var rec struct {
			Slug string `json:"slug"`
		}
		if err := json.Unmarshal(line, &rec); err != nil || rec.Slug == "" {
			badLines++
			continue
		}
		a.slugs[rec.Slug] = struct{}{}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read archive %s: %w", path, err)
	}
	if badLines > 0 {
		logger.Warn("archive contains unparsable lines",
			zap.String("path", path), zap.Int("lines", badLines))
	}
	return a, nil
}

// Contains implements catalog.Archive.
func (a *Archive) Contains(slug string) bool {
	_, ok := a.slugs[slug]
	return ok
}

// Len returns the number of known slugs.
func (a *Archive) Len() int {
	return len(a.slugs)
}

// Append implements catalog.Archive: marshal one line, append, sync.
// Appending a known slug is a silent no-op returning false.
func (a *Archive) Append(rec catalog.Record) (bool, error) {
	if rec.Slug == "" {
		return false, errors.New("record has no slug")
	}
	if _, known := a.slugs[rec.Slug]; known {
		return false, nil
	}

	payload, err := json.Marshal(rec)
	if err != nil {
		return false, fmt.Errorf("marshal record %s: %w", rec.Slug, err)
	}
	payload = append(payload, '\n')

	if err := os.MkdirAll(filepath.Dir(a.path), 0o750); err != nil {
		return false, fmt.Errorf("create archive dir: %w", err)
	}
	f, err := os.OpenFile(a.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return false, fmt.Errorf("open archive %s: %w", a.path, err)
	}
	if _, err := f.Write(payload); err != nil {
		_ = f.Close()
		return false, fmt.Errorf("append record %s: %w", rec.Slug, err)
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return false, fmt.Errorf("sync archive: %w", err)
	}
	if err := f.Close(); err != nil {
		return false, fmt.Errorf("close archive: %w", err)
	}

	a.slugs[rec.Slug] = struct{}{}
	return true, nil
}
