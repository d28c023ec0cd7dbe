package finder

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/fsnotify/fsnotify"
)

// Watcher reloads a Service when its dataset file changes on disk. Bursts of
// events are debounced and a reload only happens when the file content differs
// from the last loaded version.
type Watcher struct {
	svc      *Service
	path     string
	debounce time.Duration
	logger   *log.Logger

	// OnReload, when set, is called after every reload attempt.
	OnReload func(err error)
}

// NewWatcher watches path on behalf of svc.
func NewWatcher(svc *Service, path string, debounce time.Duration, logger *log.Logger) *Watcher {
	if debounce <= 0 {
		debounce = defaultWatchDebounceMs * time.Millisecond
	}
	return &Watcher{svc: svc, path: path, debounce: debounce, logger: logger}
}

// Run blocks until ctx is cancelled. It returns an error only when the watch
// cannot be set up.
func (w *Watcher) Run(ctx context.Context) error {
	abs, err := filepath.Abs(w.path)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", w.path, err)
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer fsw.Close()
	// Editors often replace the file, so the directory is watched instead.
	if err := fsw.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}

	last, _ := fileDigest(abs)
	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != abs {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			timer.Reset(w.debounce)
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.logf("Dataset watcher error: %v", err)
		case <-timer.C:
			sum, err := fileDigest(abs)
			if err != nil {
				w.logf("Dataset fingerprint failed: %v", err)
				continue
			}
			if sum == last {
				continue
			}
			err = w.svc.LoadFile(abs)
			if err == nil {
				last = sum
				w.logf("Dataset %s reloaded", filepath.Base(abs))
			} else {
				w.logf("Dataset reload failed: %v", err)
			}
			if w.OnReload != nil {
				w.OnReload(err)
			}
		}
	}
}

func (w *Watcher) logf(format string, args ...any) {
	if w.logger != nil {
		w.logger.Printf(format, args...)
	}
}

func fileDigest(path string) (uint64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	h := xxhash.New()
	if _, err := io.Copy(h, f); err != nil {
		return 0, err
	}
	return h.Sum64(), nil
}
