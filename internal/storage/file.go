package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	homedir "github.com/mitchellh/go-homedir"
)

const (
	StateFileName    = "gerris_state.json"
	TrackerDirName   = "GerrisErfolgsTracker"
	LocalFallbackDir = ".data"
)

// oneDriveEnvKeys are checked in order after GERRIS_ONEDRIVE_DIR.
var oneDriveEnvKeys = []string{"ONEDRIVE", "OneDriveCommercial", "OneDriveConsumer"}

// ResolveStatePath finds the sync folder the state file should live in.
// An explicit GERRIS_ONEDRIVE_DIR wins, then the OneDrive environment
// variables Windows sets, then ~/OneDrive when it exists. Without any of
// them the file goes to .data/ in the working directory.
func ResolveStatePath(getenv func(string) string) string {
	if base := oneDriveBase(getenv); base != "" {
		if filepath.Base(filepath.Clean(base)) != TrackerDirName {
			base = filepath.Join(base, TrackerDirName)
		}
		return filepath.Join(base, StateFileName)
	}
	return filepath.Join(LocalFallbackDir, StateFileName)
}

func oneDriveBase(getenv func(string) string) string {
	if v := strings.TrimSpace(getenv("GERRIS_ONEDRIVE_DIR")); v != "" {
		return expand(v)
	}
	for _, key := range oneDriveEnvKeys {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			return expand(v)
		}
	}
	home, err := homedir.Dir()
	if err != nil {
		return ""
	}
	candidate := filepath.Join(home, "OneDrive")
	if info, err := os.Stat(candidate); err == nil && info.IsDir() {
		return candidate
	}
	return ""
}

func expand(path string) string {
	if out, err := homedir.Expand(path); err == nil {
		return out
	}
	return path
}

// FileBackend keeps the state document in a single JSON file, replaced
// atomically on every save.
type FileBackend struct {
	path string
}

func NewFileBackend(path string) *FileBackend {
	return &FileBackend{path: expand(path)}
}

func (b *FileBackend) Path() string { return b.path }

func (b *FileBackend) Describe() string { return "file:" + b.path }

func (b *FileBackend) Load(context.Context) ([]byte, error) {
	data, err := os.ReadFile(b.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read state file: %w", err)
	}
	return data, nil
}

func (b *FileBackend) Save(_ context.Context, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(b.path), 0o755); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(b.path), "."+filepath.Base(b.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp state file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write temp state file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close temp state file: %w", err)
	}
	if err := os.Rename(tmpName, b.path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("replace state file: %w", err)
	}
	return nil
}

func (b *FileBackend) Close() error { return nil }
