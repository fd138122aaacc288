package storage

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const sqliteTimeLayout = time.RFC3339Nano

// SQLiteBackend stores each top-level section of the state document as its
// own row so a save only rewrites the sections that changed.
type SQLiteBackend struct {
	db   *sql.DB
	path string
	now  func() time.Time
}

func NewSQLiteBackend(db *sql.DB) (*SQLiteBackend, error) {
	if db == nil {
		return nil, errors.New("storage: nil db")
	}
	if err := MigrateUp(db); err != nil {
		return nil, err
	}
	return &SQLiteBackend{db: db, now: time.Now}, nil
}

func OpenSQLite(path string) (*SQLiteBackend, error) {
	path = expand(path)
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create sqlite dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	backend, err := NewSQLiteBackend(db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	backend.path = path
	return backend, nil
}

func (b *SQLiteBackend) Describe() string { return "sqlite:" + b.path }

func (b *SQLiteBackend) Close() error {
	return b.db.Close()
}

func (b *SQLiteBackend) Load(ctx context.Context) ([]byte, error) {
	rows, err := b.db.QueryContext(ctx, `SELECT name, body FROM state_sections ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sections []Section
	for rows.Next() {
		var s Section
		var body string
		if err := rows.Scan(&s.Name, &body); err != nil {
			return nil, err
		}
		s.Body = []byte(body)
		sections = append(sections, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return joinSections(sections)
}

// Save upserts changed sections and deletes sections missing from data, in
// one transaction, and appends a save_log row when anything changed.
func (b *SQLiteBackend) Save(ctx context.Context, data []byte) error {
	sections, err := splitSections(data)
	if err != nil {
		return err
	}
	current, err := b.sectionBodies(ctx)
	if err != nil {
		return err
	}

	now := b.now().UTC().Format(sqliteTimeLayout)
	var changed, removed []string
	keep := make(map[string]bool, len(sections))

	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	for _, s := range sections {
		keep[s.Name] = true
		if old, ok := current[s.Name]; ok && bytes.Equal(old, s.Body) {
			continue
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO state_sections (name, body, updated_at) VALUES (?, ?, ?)
			ON CONFLICT(name) DO UPDATE SET body = excluded.body, updated_at = excluded.updated_at`,
			s.Name, string(s.Body), now,
		); err != nil {
			return fmt.Errorf("upsert section %s: %w", s.Name, err)
		}
		changed = append(changed, s.Name)
	}
	for name := range current {
		if keep[name] {
			continue
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM state_sections WHERE name = ?`, name); err != nil {
			return fmt.Errorf("delete section %s: %w", name, err)
		}
		removed = append(removed, name)
	}
	if len(changed) == 0 && len(removed) == 0 {
		return nil
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO save_log (saved_at, changed, removed) VALUES (?, ?, ?)`,
		now, strings.Join(changed, ","), strings.Join(removed, ","),
	); err != nil {
		return fmt.Errorf("append save log: %w", err)
	}
	return tx.Commit()
}

func (b *SQLiteBackend) sectionBodies(ctx context.Context) (map[string][]byte, error) {
	rows, err := b.db.QueryContext(ctx, `SELECT name, body FROM state_sections`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make(map[string][]byte)
	for rows.Next() {
		var name, body string
		if err := rows.Scan(&name, &body); err != nil {
			return nil, err
		}
		out[name] = []byte(body)
	}
	return out, rows.Err()
}

type SectionInfo struct {
	Name      string
	Size      int
	UpdatedAt time.Time
}

func (b *SQLiteBackend) Section(ctx context.Context, name string) (SectionInfo, error) {
	row := b.db.QueryRowContext(ctx, `SELECT name, length(body), updated_at FROM state_sections WHERE name = ?`, name)
	info, err := scanSectionInfo(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return SectionInfo{}, ErrNotFound
		}
		return SectionInfo{}, err
	}
	return info, nil
}

func (b *SQLiteBackend) ListSections(ctx context.Context) ([]SectionInfo, error) {
	rows, err := b.db.QueryContext(ctx, `SELECT name, length(body), updated_at FROM state_sections ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]SectionInfo, 0)
	for rows.Next() {
		info, err := scanSectionInfo(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, info)
	}
	return out, rows.Err()
}

type SaveRecord struct {
	SavedAt time.Time
	Changed []string
	Removed []string
}

// SaveLog returns the most recent saves, newest first.
func (b *SQLiteBackend) SaveLog(ctx context.Context, limit int) ([]SaveRecord, error) {
	query := `SELECT saved_at, changed, removed FROM save_log ORDER BY id DESC`
	args := make([]any, 0, 1)
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := b.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]SaveRecord, 0)
	for rows.Next() {
		var saved, changed, removed string
		if err := rows.Scan(&saved, &changed, &removed); err != nil {
			return nil, err
		}
		at, err := time.Parse(sqliteTimeLayout, saved)
		if err != nil {
			return nil, err
		}
		out = append(out, SaveRecord{SavedAt: at, Changed: splitList(changed), Removed: splitList(removed)})
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSectionInfo(s scanner) (SectionInfo, error) {
	var out SectionInfo
	var updated string
	if err := s.Scan(&out.Name, &out.Size, &updated); err != nil {
		return SectionInfo{}, err
	}
	at, err := time.Parse(sqliteTimeLayout, updated)
	if err != nil {
		return SectionInfo{}, err
	}
	out.UpdatedAt = at
	return out, nil
}

func splitList(raw string) []string {
	if raw == "" {
		return nil
	}
	return strings.Split(raw, ",")
}
