package storage

import (
	"context"
	"fmt"
	"os"
	"sort"

	"github.com/peterbourgon/diskv/v3"
)

// DiskvBackend keeps one file per top-level section under a directory.
type DiskvBackend struct {
	d        *diskv.Diskv
	basePath string
}

func NewDiskvBackend(basePath string) (*DiskvBackend, error) {
	basePath = expand(basePath)
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("create diskv dir: %w", err)
	}
	return &DiskvBackend{
		d: diskv.New(diskv.Options{
			BasePath:     basePath,
			Transform:    func(string) []string { return []string{} },
			CacheSizeMax: 1024 * 1024,
		}),
		basePath: basePath,
	}, nil
}

func (b *DiskvBackend) Describe() string { return "diskv:" + b.basePath }

func (b *DiskvBackend) Close() error { return nil }

func (b *DiskvBackend) keys() []string {
	cancel := make(chan struct{})
	defer close(cancel)
	var out []string
	for key := range b.d.Keys(cancel) {
		out = append(out, key)
	}
	sort.Strings(out)
	return out
}

func (b *DiskvBackend) Load(ctx context.Context) ([]byte, error) {
	var sections []Section
	for _, key := range b.keys() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		body, err := b.d.Read(key)
		if err != nil {
			return nil, fmt.Errorf("read section %s: %w", key, err)
		}
		sections = append(sections, Section{Name: key, Body: body})
	}
	return joinSections(sections)
}

func (b *DiskvBackend) Save(ctx context.Context, data []byte) error {
	sections, err := splitSections(data)
	if err != nil {
		return err
	}
	keep := make(map[string]bool, len(sections))
	for _, s := range sections {
		if err := ctx.Err(); err != nil {
			return err
		}
		keep[s.Name] = true
		if err := b.d.Write(s.Name, s.Body); err != nil {
			return fmt.Errorf("write section %s: %w", s.Name, err)
		}
	}
	for _, key := range b.keys() {
		if keep[key] {
			continue
		}
		if err := b.d.Erase(key); err != nil {
			return fmt.Errorf("erase section %s: %w", key, err)
		}
	}
	return nil
}
