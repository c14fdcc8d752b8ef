package ops

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hpungsan/lemon/internal/config"
	"github.com/hpungsan/lemon/internal/db"
	"github.com/hpungsan/lemon/internal/errors"
	"github.com/hpungsan/lemon/internal/menu"
)

func readLines(t *testing.T, path string) []string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	require.NoError(t, scanner.Err())
	return lines
}

func TestExport_HappyPath(t *testing.T) {
	ctx := context.Background()
	database := setupDB(t)
	_, err := db.InsertAll(ctx, database, sampleMenu(), "test")
	require.NoError(t, err)

	exportsDir := t.TempDir()
	path := filepath.Join(exportsDir, "menu.jsonl")

	out, err := Export(ctx, database, config.DefaultConfig(), exportsDir, ExportInput{Path: path})
	require.NoError(t, err)
	assert.Equal(t, path, out.Path)
	assert.Equal(t, 20, out.Count)
	assert.NotZero(t, out.ExportedAt)

	lines := readLines(t, path)
	require.Len(t, lines, 21)

	var header SnapshotHeader
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &header))
	assert.True(t, header.LemonSnapshot)
	assert.Equal(t, SnapshotSchemaVersion, header.SchemaVersion)
	assert.Equal(t, 20, header.Count)

	var first menu.Item
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &first))
	assert.Equal(t, sampleMenu()[0], first)
	assert.NotContains(t, lines[1], `"id"`)
}

func TestExport_DefaultPath(t *testing.T) {
	database := setupDB(t)
	exportsDir := filepath.Join(t.TempDir(), "exports")

	out, err := Export(context.Background(), database, config.DefaultConfig(), exportsDir, ExportInput{})
	require.NoError(t, err)
	assert.Equal(t, exportsDir, filepath.Dir(out.Path))
	assert.True(t, strings.HasPrefix(filepath.Base(out.Path), "menu-"))
	assert.Zero(t, out.Count)

	info, err := os.Stat(out.Path)
	require.NoError(t, err)
	if info.Mode().Perm() != 0600 {
		t.Errorf("file mode = %v, want 0600", info.Mode().Perm())
	}
}

func TestExport_NoTempFilesLeft(t *testing.T) {
	database := setupDB(t)
	exportsDir := t.TempDir()

	_, err := Export(context.Background(), database, config.DefaultConfig(), exportsDir,
		ExportInput{Path: filepath.Join(exportsDir, "menu.jsonl")})
	require.NoError(t, err)

	entries, err := os.ReadDir(exportsDir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "menu.jsonl", entries[0].Name())
}

func TestExport_PathRejected(t *testing.T) {
	database := setupDB(t)
	exportsDir := t.TempDir()

	for _, p := range []string{"../menu.jsonl", filepath.Join(exportsDir, "menu.json"), filepath.Join(t.TempDir(), "menu.jsonl")} {
		_, err := Export(context.Background(), database, config.DefaultConfig(), exportsDir, ExportInput{Path: p})
		assert.True(t, errors.Is(err, errors.ErrInvalidRequest), p)
	}
}
