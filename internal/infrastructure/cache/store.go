package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"LocalNewsMapper/internal/ports"
)

// ErrNoContent is returned when there is nothing to write or read.
var ErrNoContent = errors.New("no content")

// Purpose names what a cached file holds for a site.
type Purpose int

const (
	PurposeRoot Purpose = iota
	PurposeBusiness
	PurposePolitics
	PurposeCivic
	PurposeGeocode
)

var purposeFormats = map[Purpose]string{
	PurposeRoot:     "%s.txt",
	PurposeBusiness: "%s9.txt",
	PurposePolitics: "politics_%s.txt",
	PurposeCivic:    "civic_%s.txt",
	PurposeGeocode:  "locale_%s.txt",
}

// Store keeps one file per (site, purpose) under a fixed directory.
type Store struct {
	dir     string
	fetcher ports.Fetcher
	logger  *slog.Logger
}

var _ ports.PageSource = (*Store)(nil)

// NewStore wires the cache directory with a fetcher used on cache misses.
func NewStore(dir string, fetcher ports.Fetcher, logger *slog.Logger) *Store {
	return &Store{dir: dir, fetcher: fetcher, logger: logger}
}

// Path returns the cache file for a site slug and purpose.
func (s *Store) Path(slug string, purpose Purpose) string {
	format, ok := purposeFormats[purpose]
	if !ok {
		format = "%s.txt"
	}
	return filepath.Join(s.dir, fmt.Sprintf(format, slug))
}

// Exists reports whether a cache file is present.
func (s *Store) Exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// Write persists content at path. Empty content writes nothing and returns ErrNoContent.
func (s *Store) Write(path string, content []byte) error {
	if len(content) == 0 {
		return ErrNoContent
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}
	if err := os.WriteFile(path, content, 0o644); err != nil {
		return fmt.Errorf("write cache file %s: %w", path, err)
	}
	return nil
}

// Read returns the cached content at path.
func (s *Store) Read(path string) ([]byte, error) {
	content, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNoContent, path)
	}
	if err != nil {
		return nil, fmt.Errorf("read cache file %s: %w", path, err)
	}
	return content, nil
}

// ReadOrFetch serves path from disk when preferLocal is set and the file exists;
// otherwise it fetches url, writes the result to path and returns it.
func (s *Store) ReadOrFetch(ctx context.Context, path, url string, preferLocal bool) ([]byte, error) {
	if preferLocal && s.Exists(path) {
		s.debug("cache hit", "path", path)
		return s.Read(path)
	}
	if s.fetcher == nil {
		return nil, fmt.Errorf("fetch %s: no fetcher configured", url)
	}

	content, err := s.fetcher.Fetch(ctx, url)
	if err != nil {
		return nil, err
	}
	if err := s.Write(path, content); err != nil {
		return nil, err
	}
	s.debug("cached page", "path", path, "url", url, "bytes", len(content))
	return content, nil
}

func (s *Store) debug(msg string, args ...interface{}) {
	if s.logger != nil {
		s.logger.Debug(msg, args...)
	}
}
