package state

import (
	"context"
	"crypto/sha256"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/sandeepkv93/gerris/internal/storage"
)

type Options struct {
	Logger *slog.Logger
	Now    func() time.Time
}

// Session owns the in-memory snapshot and writes it through to a backend.
// Persist skips the write when the encoded document is unchanged since the
// last successful save or load.
type Session struct {
	mu          sync.Mutex
	backend     storage.Backend
	logger      *slog.Logger
	now         func() time.Time
	snap        *Snapshot
	fingerprint [sha256.Size]byte
	saves       int
	warning     error
}

// Open loads and decodes the stored document. A backend read failure is not
// fatal: the session starts from defaults and Warning reports the failure.
// An unknown quadrant in stored data is returned as an error.
func Open(ctx context.Context, backend storage.Backend, opts Options) (*Session, error) {
	s := &Session{backend: backend, logger: opts.Logger, now: opts.Now}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.now == nil {
		s.now = time.Now
	}

	data, err := backend.Load(ctx)
	if err != nil {
		s.logger.Warn("load state failed, starting from defaults", "backend", backend.Describe(), "error", err)
		s.warning = fmt.Errorf("load state: %w", err)
		data = nil
	}
	snap, err := Decode(data, s.logger, s.now())
	if err != nil {
		return nil, err
	}
	s.snap = &snap
	if data != nil {
		if encoded, encErr := Encode(snap); encErr == nil {
			s.fingerprint = sha256.Sum256(encoded)
		}
	}
	return s, nil
}

// Snapshot returns the live snapshot. Its address is stable for the life of
// the session, including across Reload.
func (s *Session) Snapshot() *Snapshot {
	return s.snap
}

func (s *Session) Backend() storage.Backend { return s.backend }

// Persist writes the snapshot if it changed. Failures are logged, kept as
// the session warning and returned; the in-memory state stays usable.
func (s *Session) Persist(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	encoded, err := Encode(*s.snap)
	if err != nil {
		return s.fail("encode state", err)
	}
	sum := sha256.Sum256(encoded)
	if sum == s.fingerprint {
		return nil
	}
	if err := s.backend.Save(ctx, encoded); err != nil {
		return s.fail("save state", err)
	}
	s.fingerprint = sum
	s.saves++
	s.warning = nil
	return nil
}

func (s *Session) fail(op string, err error) error {
	wrapped := fmt.Errorf("%s: %w", op, err)
	s.logger.Warn("persist failed", "backend", s.backend.Describe(), "error", err)
	s.warning = wrapped
	return wrapped
}

// Reload replaces the snapshot with the stored document when the stored
// document differs from what this session last saw. It reports whether the
// snapshot changed.
func (s *Session) Reload(ctx context.Context) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.backend.Load(ctx)
	if err != nil {
		return false, s.fail("reload state", err)
	}
	if data == nil {
		return false, nil
	}
	next, err := Decode(data, s.logger, s.now())
	if err != nil {
		return false, err
	}
	encoded, err := Encode(next)
	if err != nil {
		return false, s.fail("encode state", err)
	}
	sum := sha256.Sum256(encoded)
	if sum == s.fingerprint {
		return false, nil
	}
	*s.snap = next
	s.fingerprint = sum
	return true, nil
}

// Warning is the last persistence failure, cleared by the next successful
// save.
func (s *Session) Warning() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.warning
}

// Saves counts the backend writes this session made; skipped unchanged
// documents are not counted.
func (s *Session) Saves() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves
}
