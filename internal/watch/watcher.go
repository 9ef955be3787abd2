// Package watch re-runs extraction when the state database or log files
// change on disk.
package watch

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// rerunDebounce is the delay before re-extracting after a change. The IDE
// writes the database in bursts, so a generous window avoids thrashing.
const rerunDebounce = 1500 * time.Millisecond

// Watcher monitors the storage paths and invokes the callback after a
// debounced change.
type Watcher struct {
	dbPath  string
	logsDir string
	run     func(context.Context)

	fsw    *fsnotify.Watcher
	cancel context.CancelFunc
	wg     sync.WaitGroup

	// debounce state
	mu      sync.Mutex
	timer   *time.Timer
	pending bool
}

// New creates a watcher over the given storage paths. Either path may be
// empty; run fires after each debounced burst of changes.
func New(dbPath, logsDir string, run func(context.Context)) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Watcher{
		dbPath:  dbPath,
		logsDir: logsDir,
		run:     run,
		fsw:     fsw,
	}, nil
}

// Start begins watching. The database is watched through its parent
// directory because SQLite replaces the file on checkpoint.
func (w *Watcher) Start(ctx context.Context) error {
	watched := 0
	if w.dbPath != "" {
		if err := w.fsw.Add(filepath.Dir(w.dbPath)); err != nil {
			slog.Warn("watcher: cannot watch db dir", "path", filepath.Dir(w.dbPath), "error", err)
		} else {
			watched++
		}
	}
	if w.logsDir != "" {
		if err := w.fsw.Add(w.logsDir); err != nil {
			if !os.IsNotExist(err) {
				slog.Warn("watcher: cannot watch logs dir", "path", w.logsDir, "error", err)
			}
		} else {
			watched++
		}
		// Watch existing subdirectories too; the IDE nests logs per session.
		entries, err := os.ReadDir(w.logsDir)
		if err == nil {
			for _, e := range entries {
				if !e.IsDir() {
					continue
				}
				if err := w.fsw.Add(filepath.Join(w.logsDir, e.Name())); err == nil {
					watched++
				}
			}
		}
	}

	ctx, w.cancel = context.WithCancel(ctx)
	w.wg.Add(1)
	go w.loop(ctx)

	slog.Info("watcher started", "watched", watched)
	return nil
}

// Stop shuts down the watcher and waits for the loop to exit.
func (w *Watcher) Stop() {
	if w.cancel != nil {
		w.cancel()
	}
	w.wg.Wait()
	w.fsw.Close()

	w.mu.Lock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.mu.Unlock()
}

func (w *Watcher) loop(ctx context.Context) {
	defer w.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handleEvent(ctx, event)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			slog.Warn("watcher error", "error", err)
		}
	}
}

func (w *Watcher) handleEvent(ctx context.Context, event fsnotify.Event) {
	path := event.Name

	// New session directory under the logs root → start watching it.
	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			_ = w.fsw.Add(path)
			slog.Debug("watcher: watching new dir", "path", path)
		}
	}

	if !w.relevant(path) {
		return
	}
	w.schedule(ctx)
}

// relevant filters out the noise the db directory produces: only the
// database itself (and its WAL sidecars) or log files trigger a rerun.
func (w *Watcher) relevant(path string) bool {
	if w.dbPath != "" && strings.HasPrefix(path, w.dbPath) {
		return true
	}
	if w.logsDir != "" && strings.HasSuffix(path, ".log") {
		return true
	}
	return false
}

func (w *Watcher) schedule(ctx context.Context) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.pending = true

	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(rerunDebounce, func() {
		w.flush(ctx)
	})
}

func (w *Watcher) flush(ctx context.Context) {
	w.mu.Lock()
	if !w.pending {
		w.mu.Unlock()
		return
	}
	w.pending = false
	w.mu.Unlock()

	if ctx.Err() != nil {
		return
	}
	slog.Info("storage changed, re-extracting")
	w.run(ctx)
}
