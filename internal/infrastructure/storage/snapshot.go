package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"LocalNewsMapper/internal/domain"
	"LocalNewsMapper/internal/ports"
)

// Run modes recorded in snapshot headers.
const (
	ModeFull  = "full"
	ModeGrade = "grade"
)

// Header identifies the run that produced a snapshot or export.
type Header struct {
	RunID     string    `json:"run_id"`
	CreatedAt time.Time `json:"created_at"`
	Mode      string    `json:"mode"`
}

// NewHeader stamps a fresh run id.
func NewHeader(mode string, now time.Time) Header {
	return Header{
		RunID:     uuid.NewString(),
		CreatedAt: now.UTC(),
		Mode:      mode,
	}
}

// Snapshot is the on-disk form of a finished run.
type Snapshot struct {
	Header
	Registry *domain.Registry `json:"registry"`
}

// SnapshotFile writes the registry as a single JSON document.
type SnapshotFile struct {
	path   string
	header Header
	logger *slog.Logger
}

var _ ports.SnapshotStore = (*SnapshotFile)(nil)

// NewSnapshotFile builds a snapshot writer for path.
func NewSnapshotFile(path string, header Header, logger *slog.Logger) *SnapshotFile {
	return &SnapshotFile{path: path, header: header, logger: logger}
}

// Path returns the snapshot location.
func (s *SnapshotFile) Path() string {
	return s.path
}

// Save replaces the snapshot file with the current registry. The file is written
// to a temporary sibling first so an interrupted run leaves the previous
// snapshot intact.
func (s *SnapshotFile) Save(ctx context.Context, reg *domain.Registry) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.MarshalIndent(Snapshot{Header: s.header, Registry: reg}, "", "  ")
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create snapshot dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp snapshot: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close snapshot: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replace snapshot: %w", err)
	}

	if s.logger != nil {
		s.logger.Info("snapshot saved", "path", s.path, "run_id", s.header.RunID, "bytes", len(data))
	}
	return nil
}

// LoadSnapshot reads a snapshot written by Save. Nil sets in the file come back
// as empty sets.
func LoadSnapshot(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}

	snap := Snapshot{Registry: domain.NewRegistry()}
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("decode snapshot %s: %w", path, err)
	}
	if snap.Registry == nil {
		snap.Registry = domain.NewRegistry()
	}
	fillSets(snap.Registry)
	return &snap, nil
}

func fillSets(reg *domain.Registry) {
	for _, site := range reg.Sites {
		for _, set := range []*domain.Set{
			&site.ArticleSet, &site.LocalArticles, &site.LocalWrittenArticles,
			&site.LocalRecentPolitics, &site.Officials,
		} {
			if *set == nil {
				*set = domain.NewSet()
			}
		}
	}
	for _, article := range reg.Articles {
		if article.SiteSet == nil {
			article.SiteSet = domain.NewSet()
		}
	}
	for _, author := range reg.Authors {
		if author.ArticleSet == nil {
			author.ArticleSet = domain.NewSet()
		}
	}
}
