package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

const watchThrottle = 100 * time.Millisecond

// Watch signals on the returned channel whenever the state file changes on
// disk, for example after a OneDrive sync. Bursts are coalesced into one
// signal. The directory is watched rather than the file because saves
// replace the file by rename. The channel closes when ctx is done.
func (b *FileBackend) Watch(ctx context.Context) (<-chan struct{}, error) {
	dir := filepath.Dir(b.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("storage: ensure state dir: %w", err)
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("storage: create watcher: %w", err)
	}
	var closeOnce sync.Once
	closeWatcher := func() {
		closeOnce.Do(func() { _ = watcher.Close() })
	}
	if err := watcher.Add(dir); err != nil {
		closeWatcher()
		return nil, fmt.Errorf("storage: watch %s: %w", dir, err)
	}

	changes := make(chan struct{}, 1)
	send := func() {
		select {
		case changes <- struct{}{}:
		default:
		}
	}
	target := filepath.Base(b.path)

	go func() {
		defer close(changes)
		defer closeWatcher()

		var (
			mu     sync.Mutex
			timer  *time.Timer
			closed bool
		)
		defer func() {
			mu.Lock()
			closed = true
			if timer != nil {
				timer.Stop()
			}
			mu.Unlock()
		}()
		enqueue := func() {
			mu.Lock()
			defer mu.Unlock()
			if timer != nil {
				return
			}
			timer = time.AfterFunc(watchThrottle, func() {
				mu.Lock()
				defer mu.Unlock()
				timer = nil
				if !closed {
					send()
				}
			})
		}

		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-watcher.Errors:
				if !ok {
					return
				}
				enqueue()
			case evt, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Base(evt.Name) != target {
					continue
				}
				if evt.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
					continue
				}
				enqueue()
			}
		}
	}()
	return changes, nil
}
