package storage

import (
	"database/sql"
	"path/filepath"
	"testing"
)

func TestMigrateRoundTripCompatibility(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "migrate-roundtrip.db")
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer db.Close()

	if err := MigrateUp(db); err != nil {
		t.Fatalf("first migrate up failed: %v", err)
	}
	if err := MigrateUp(db); err != nil {
		t.Fatalf("repeated migrate up must be a no-op: %v", err)
	}

	if err := MigrateDown(db); err != nil {
		t.Fatalf("migrate down failed: %v", err)
	}
	var count int
	if err := db.QueryRow(`SELECT count(*) FROM schema_migrations`).Scan(&count); err != nil {
		t.Fatalf("count migrations: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected no applied migrations after down, got %d", count)
	}

	if err := MigrateUp(db); err != nil {
		t.Fatalf("second migrate up failed: %v", err)
	}

	backend, err := NewSQLiteBackend(db)
	if err != nil {
		t.Fatalf("new backend: %v", err)
	}
	if err := backend.Save(testContext(t), []byte(`{"todos":[]}`)); err != nil {
		t.Fatalf("save after roundtrip failed: %v", err)
	}
	got, err := backend.Load(testContext(t))
	if err != nil {
		t.Fatalf("load after roundtrip failed: %v", err)
	}
	if string(got) != `{"todos":[]}` {
		t.Fatalf("unexpected document after roundtrip: %s", got)
	}
}
