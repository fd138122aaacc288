// Package storage persists the serialized session document. Backends store
// opaque JSON bytes; decoding and defaults live in the state package.
package storage

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

var (
	ErrNotFound    = errors.New("storage: not found")
	ErrUnknownKind = errors.New("storage: unknown backend kind")
)

// Backend loads and saves the whole state document. Load returns nil data
// and no error when nothing has been stored yet.
type Backend interface {
	Load(ctx context.Context) ([]byte, error)
	Save(ctx context.Context, data []byte) error
	Describe() string
	Close() error
}

type Kind string

const (
	KindFile   Kind = "file"
	KindSQLite Kind = "sqlite"
	KindDiskv  Kind = "diskv"
)

func (k Kind) IsValid() bool {
	switch k {
	case KindFile, KindSQLite, KindDiskv:
		return true
	default:
		return false
	}
}

func ParseKind(raw string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(raw)))
	if k == "" {
		return KindFile, nil
	}
	if !k.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownKind, raw)
	}
	return k, nil
}

// Open builds a backend rooted next to statePath. The file backend uses the
// path as is; SQLite swaps the extension for .db and diskv uses a sibling
// directory.
func Open(kind Kind, statePath string) (Backend, error) {
	switch kind {
	case KindFile, "":
		return NewFileBackend(statePath), nil
	case KindSQLite:
		return OpenSQLite(withExt(statePath, ".db"))
	case KindDiskv:
		return NewDiskvBackend(withExt(statePath, ".d"))
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
}

func withExt(path, ext string) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + ext
}
