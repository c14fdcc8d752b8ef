package ops

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/hpungsan/lemon/internal/config"
	"github.com/hpungsan/lemon/internal/errors"
)

func TestValidatePath_TraversalRejected(t *testing.T) {
	cfg := config.DefaultConfig()
	exportsDir := t.TempDir()

	tests := []struct {
		name string
		path string
	}{
		{"parent traversal", "../menu.jsonl"},
		{"deep traversal", "../../etc/menu.jsonl"},
		{"mid-path traversal", filepath.Join(exportsDir, "..", "menu.jsonl")},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidatePath(tc.path, PathCheckWrite, exportsDir, cfg)
			if !errors.Is(err, errors.ErrInvalidRequest) {
				t.Errorf("expected ErrInvalidRequest, got: %v", err)
			}
		})
	}
}

func TestValidatePath_ExtensionRequired(t *testing.T) {
	cfg := config.DefaultConfig()
	exportsDir := t.TempDir()

	for _, name := range []string{"menu", "menu.json", "menu.txt"} {
		t.Run(name, func(t *testing.T) {
			err := ValidatePath(filepath.Join(exportsDir, name), PathCheckWrite, exportsDir, cfg)
			if !errors.Is(err, errors.ErrInvalidRequest) {
				t.Errorf("expected ErrInvalidRequest, got: %v", err)
			}
		})
	}
}

func TestValidatePath_ExportsDirAllowed(t *testing.T) {
	cfg := config.DefaultConfig()
	exportsDir := t.TempDir()

	if err := ValidatePath(filepath.Join(exportsDir, "menu.jsonl"), PathCheckWrite, exportsDir, cfg); err != nil {
		t.Errorf("expected success, got: %v", err)
	}
}

func TestValidatePath_DirectoryRestriction(t *testing.T) {
	cfg := config.DefaultConfig()
	exportsDir := t.TempDir()
	other := t.TempDir()

	err := ValidatePath(filepath.Join(other, "menu.jsonl"), PathCheckWrite, exportsDir, cfg)
	if !errors.Is(err, errors.ErrInvalidRequest) {
		t.Errorf("expected ErrInvalidRequest, got: %v", err)
	}
}

func TestValidatePath_AllowUnsafePaths(t *testing.T) {
	tmpDir := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.AllowUnsafePaths = true

	testFile := filepath.Join(tmpDir, "menu.jsonl")
	if err := os.WriteFile(testFile, []byte("{}"), 0600); err != nil {
		t.Fatalf("failed to create test file: %v", err)
	}

	if err := ValidatePath(testFile, PathCheckRead, t.TempDir(), cfg); err != nil {
		t.Errorf("expected success with AllowUnsafePaths=true, got: %v", err)
	}
	if err := ValidatePath(filepath.Join(tmpDir, "out.jsonl"), PathCheckWrite, t.TempDir(), cfg); err != nil {
		t.Errorf("expected success for write with AllowUnsafePaths=true, got: %v", err)
	}
}

func TestValidatePath_AllowedPaths(t *testing.T) {
	allowed := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.AllowedPaths = []string{allowed}

	testFile := filepath.Join(allowed, "menu.jsonl")
	if err := os.WriteFile(testFile, []byte("{}"), 0600); err != nil {
		t.Fatalf("failed to create test file: %v", err)
	}

	if err := ValidatePath(testFile, PathCheckRead, t.TempDir(), cfg); err != nil {
		t.Errorf("expected success for path in AllowedPaths, got: %v", err)
	}
}

func TestValidatePath_FileNotFound_ReadMode(t *testing.T) {
	exportsDir := t.TempDir()

	err := ValidatePath(filepath.Join(exportsDir, "missing.jsonl"), PathCheckRead, exportsDir, config.DefaultConfig())
	if !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got: %v", err)
	}
}

func TestValidatePath_NestedPathRejected(t *testing.T) {
	exportsDir := t.TempDir()
	subDir := filepath.Join(exportsDir, "nested")
	if err := os.MkdirAll(subDir, 0755); err != nil {
		t.Fatalf("failed to create subdir: %v", err)
	}

	err := ValidatePath(filepath.Join(subDir, "menu.jsonl"), PathCheckWrite, exportsDir, config.DefaultConfig())
	if !errors.Is(err, errors.ErrInvalidRequest) {
		t.Errorf("expected ErrInvalidRequest, got: %v", err)
	}
}

func TestValidatePath_SymlinkRejected_EvenWithUnsafePaths(t *testing.T) {
	tmpDir := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.AllowUnsafePaths = true

	target := filepath.Join(tmpDir, "target.jsonl")
	if err := os.WriteFile(target, []byte("{}"), 0600); err != nil {
		t.Fatalf("failed to create target file: %v", err)
	}
	link := filepath.Join(tmpDir, "link.jsonl")
	if err := os.Symlink(target, link); err != nil {
		t.Skipf("cannot create symlink: %v", err)
	}

	for _, mode := range []PathCheckMode{PathCheckRead, PathCheckWrite} {
		err := ValidatePath(link, mode, tmpDir, cfg)
		if !errors.Is(err, errors.ErrInvalidRequest) {
			t.Errorf("mode %d: expected ErrInvalidRequest, got: %v", mode, err)
		}
	}
}

func TestContainsTraversal(t *testing.T) {
	tests := []struct {
		path     string
		contains bool
	}{
		{"/home/user/menu.jsonl", false},
		{"../menu.jsonl", true},
		{"/home/../etc/passwd", true},
		{"./menu.jsonl", false},
		{"menu..v2.jsonl", false},
	}

	for _, tc := range tests {
		t.Run(tc.path, func(t *testing.T) {
			if got := containsTraversal(tc.path); got != tc.contains {
				t.Errorf("containsTraversal(%q) = %v, want %v", tc.path, got, tc.contains)
			}
		})
	}
}
