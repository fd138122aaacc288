package storage

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	homedir "github.com/mitchellh/go-homedir"
)

const sampleDoc = `{"version":1,"todos":[{"id":"a","title":"Write"}],"stats":{"done_total":2},"coach":{"messages":[]}}`

func assertSameJSON(t *testing.T, got []byte, want string) {
	t.Helper()
	var g, w any
	if err := json.Unmarshal(got, &g); err != nil {
		t.Fatalf("decode got: %v (%s)", err, got)
	}
	if err := json.Unmarshal([]byte(want), &w); err != nil {
		t.Fatalf("decode want: %v", err)
	}
	if !reflect.DeepEqual(g, w) {
		t.Fatalf("documents differ:\n got: %s\nwant: %s", got, want)
	}
}

func TestBackendsRoundTrip(t *testing.T) {
	for _, kind := range []Kind{KindFile, KindSQLite, KindDiskv} {
		t.Run(string(kind), func(t *testing.T) {
			backend, err := Open(kind, filepath.Join(t.TempDir(), "state", StateFileName))
			if err != nil {
				t.Fatalf("open %s: %v", kind, err)
			}
			t.Cleanup(func() { _ = backend.Close() })

			empty, err := backend.Load(testContext(t))
			if err != nil {
				t.Fatalf("load empty: %v", err)
			}
			if empty != nil {
				t.Fatalf("expected nil document before first save, got %s", empty)
			}

			if err := backend.Save(testContext(t), []byte(sampleDoc)); err != nil {
				t.Fatalf("save: %v", err)
			}
			got, err := backend.Load(testContext(t))
			if err != nil {
				t.Fatalf("load: %v", err)
			}
			assertSameJSON(t, got, sampleDoc)

			smaller := `{"version":1,"todos":[]}`
			if err := backend.Save(testContext(t), []byte(smaller)); err != nil {
				t.Fatalf("save smaller: %v", err)
			}
			got, err = backend.Load(testContext(t))
			if err != nil {
				t.Fatalf("reload: %v", err)
			}
			assertSameJSON(t, got, smaller)
		})
	}
}

func TestSectionedBackendsRejectNonObject(t *testing.T) {
	for _, kind := range []Kind{KindSQLite, KindDiskv} {
		backend, err := Open(kind, filepath.Join(t.TempDir(), StateFileName))
		if err != nil {
			t.Fatalf("open %s: %v", kind, err)
		}
		if err := backend.Save(testContext(t), []byte(`[1,2]`)); !errors.Is(err, ErrNotObject) {
			t.Fatalf("%s: expected ErrNotObject, got %v", kind, err)
		}
		_ = backend.Close()
	}
}

func TestParseKind(t *testing.T) {
	if k, err := ParseKind(" SQLite "); err != nil || k != KindSQLite {
		t.Fatalf("unexpected parse: %q %v", k, err)
	}
	if k, err := ParseKind(""); err != nil || k != KindFile {
		t.Fatalf("expected file default, got %q %v", k, err)
	}
	if _, err := ParseKind("s3"); !errors.Is(err, ErrUnknownKind) {
		t.Fatalf("expected ErrUnknownKind, got %v", err)
	}
}

func TestFileBackendSaveLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	backend := NewFileBackend(filepath.Join(dir, StateFileName))
	for i := 0; i < 3; i++ {
		if err := backend.Save(testContext(t), []byte(sampleDoc)); err != nil {
			t.Fatalf("save %d: %v", i, err)
		}
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != 1 || entries[0].Name() != StateFileName {
		t.Fatalf("unexpected directory contents: %v", entries)
	}
}

func TestResolveStatePath(t *testing.T) {
	homedir.DisableCache = true
	t.Cleanup(func() { homedir.DisableCache = false })
	home := t.TempDir()
	t.Setenv("HOME", home)

	env := map[string]string{}
	getenv := func(k string) string { return env[k] }

	if got := ResolveStatePath(getenv); got != filepath.Join(LocalFallbackDir, StateFileName) {
		t.Fatalf("expected local fallback, got %q", got)
	}

	if err := os.Mkdir(filepath.Join(home, "OneDrive"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	want := filepath.Join(home, "OneDrive", TrackerDirName, StateFileName)
	if got := ResolveStatePath(getenv); got != want {
		t.Fatalf("expected home OneDrive path %q, got %q", want, got)
	}

	env["OneDriveCommercial"] = "/mnt/work"
	if got := ResolveStatePath(getenv); got != filepath.Join("/mnt/work", TrackerDirName, StateFileName) {
		t.Fatalf("expected commercial OneDrive path, got %q", got)
	}

	env["GERRIS_ONEDRIVE_DIR"] = filepath.Join("/sync", TrackerDirName)
	if got := ResolveStatePath(getenv); got != filepath.Join("/sync", TrackerDirName, StateFileName) {
		t.Fatalf("tracker folder must not be doubled, got %q", got)
	}
}

func TestSQLiteSectionsAndSaveLog(t *testing.T) {
	backend, err := OpenSQLite(filepath.Join(t.TempDir(), "gerris.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = backend.Close() })
	tick := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	backend.now = func() time.Time {
		tick = tick.Add(time.Minute)
		return tick
	}

	if err := backend.Save(testContext(t), []byte(sampleDoc)); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := backend.Save(testContext(t), []byte(sampleDoc)); err != nil {
		t.Fatalf("identical save: %v", err)
	}
	changed := `{"version":1,"todos":[],"stats":{"done_total":2},"coach":{"messages":[]}}`
	if err := backend.Save(testContext(t), []byte(changed)); err != nil {
		t.Fatalf("save changed: %v", err)
	}

	log, err := backend.SaveLog(testContext(t), 10)
	if err != nil {
		t.Fatalf("save log: %v", err)
	}
	if len(log) != 2 {
		t.Fatalf("identical save must not be logged, got %d entries", len(log))
	}
	if !reflect.DeepEqual(log[0].Changed, []string{"todos"}) {
		t.Fatalf("expected only todos changed in latest save, got %v", log[0].Changed)
	}

	info, err := backend.Section(testContext(t), "todos")
	if err != nil {
		t.Fatalf("section: %v", err)
	}
	if info.Size != len("[]") {
		t.Fatalf("unexpected section size: %d", info.Size)
	}
	if _, err := backend.Section(testContext(t), "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	sections, err := backend.ListSections(testContext(t))
	if err != nil {
		t.Fatalf("list sections: %v", err)
	}
	if len(sections) != 4 || sections[0].Name != "coach" {
		t.Fatalf("unexpected sections: %+v", sections)
	}
}

func TestFileBackendWatchSignalsExternalWrites(t *testing.T) {
	dir := t.TempDir()
	backend := NewFileBackend(filepath.Join(dir, StateFileName))
	changes, err := backend.Watch(testContext(t))
	if err != nil {
		t.Fatalf("watch: %v", err)
	}

	if err := os.WriteFile(filepath.Join(dir, "unrelated.txt"), []byte("x"), 0o644); err != nil {
		t.Fatalf("write unrelated: %v", err)
	}
	if err := backend.Save(testContext(t), []byte(sampleDoc)); err != nil {
		t.Fatalf("save: %v", err)
	}

	select {
	case _, ok := <-changes:
		if !ok {
			t.Fatalf("channel closed early")
		}
	case <-time.After(3 * time.Second):
		t.Fatalf("timeout waiting for change signal")
	}
}
