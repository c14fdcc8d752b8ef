package ops

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"

	"github.com/hpungsan/lemon/internal/config"
	"github.com/hpungsan/lemon/internal/menu"
)

// maxSnapshotLineBytes bounds a single JSONL record.
const maxSnapshotLineBytes = 1 << 20

// SnapshotSource is a Fetcher that reads a snapshot written by Export.
// It lets a fresh store be seeded offline; like the remote client it
// reports every failure as an empty list.
type SnapshotSource struct {
	path       string
	exportsDir string
	cfg        *config.Config
	logger     *slog.Logger
}

// NewSnapshotSource creates a SnapshotSource for path. The path is checked
// with ValidatePath when FetchAll runs.
func NewSnapshotSource(path, exportsDir string, cfg *config.Config, logger *slog.Logger) *SnapshotSource {
	if logger == nil {
		logger = slog.Default()
	}
	return &SnapshotSource{
		path:       path,
		exportsDir: exportsDir,
		cfg:        cfg,
		logger:     logger.With(slog.String("component", "ops.SnapshotSource")),
	}
}

// URL names the snapshot as a file URL for seed-run records.
func (s *SnapshotSource) URL() string {
	abs, err := filepath.Abs(s.path)
	if err != nil {
		abs = s.path
	}
	return "file://" + filepath.ToSlash(abs)
}

// FetchAll reads every item in the snapshot. Any error yields an empty list.
func (s *SnapshotSource) FetchAll(ctx context.Context) []menu.Item {
	items, err := s.read(ctx)
	if err != nil {
		s.logger.Warn("snapshot read failed", slog.String("path", s.path), slog.Any("error", err))
		return []menu.Item{}
	}
	s.logger.Info("snapshot read", slog.String("path", s.path), slog.Int("items", len(items)))
	return items
}

func (s *SnapshotSource) read(ctx context.Context) ([]menu.Item, error) {
	if err := ValidatePath(s.path, PathCheckRead, s.exportsDir, s.cfg); err != nil {
		return nil, err
	}

	file, err := openFileNoFollowRead(s.path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return parseSnapshot(ctx, file)
}

// parseSnapshot decodes a snapshot stream. The header line is optional;
// when present its count must match the number of items read.
func parseSnapshot(ctx context.Context, r io.Reader) ([]menu.Item, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxSnapshotLineBytes)

	var (
		items  = make([]menu.Item, 0)
		header *SnapshotHeader
		line   int
	)
	for scanner.Scan() {
		line++
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		raw := scanner.Bytes()
		if len(raw) == 0 {
			continue
		}

		var probe struct {
			LemonSnapshot bool `json:"_lemon_snapshot"`
		}
		if err := json.Unmarshal(raw, &probe); err != nil {
			return nil, fmt.Errorf("line %d: invalid JSON: %w", line, err)
		}
		if probe.LemonSnapshot {
			if header != nil || len(items) > 0 {
				return nil, fmt.Errorf("line %d: unexpected header", line)
			}
			header = &SnapshotHeader{}
			if err := json.Unmarshal(raw, header); err != nil {
				return nil, fmt.Errorf("line %d: invalid header: %w", line, err)
			}
			continue
		}

		var it menu.Item
		if err := json.Unmarshal(raw, &it); err != nil {
			return nil, fmt.Errorf("line %d: invalid item: %w", line, err)
		}
		items = append(items, it)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	if header != nil && header.Count != len(items) {
		return nil, fmt.Errorf("snapshot header declares %d items, found %d", header.Count, len(items))
	}
	return items, nil
}
