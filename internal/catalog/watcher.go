package catalog

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/spherical-ai/spherical/libs/inventory-engine/internal/domain"
	"github.com/spherical-ai/spherical/libs/inventory-engine/internal/observability"
)

// Watcher reloads a Store whenever its backing file changes on disk.
// The parent directory is watched so editors that save via rename are seen.
type Watcher struct {
	mu          sync.Mutex
	watcher     *fsnotify.Watcher
	store       *Store
	target      string
	debounceDur time.Duration
	pendingAt   time.Time
	onReload    func(*Snapshot, error)
	logger      *observability.Logger
	stopCh      chan struct{}
	doneCh      chan struct{}
	running     bool
}

// NewWatcher creates a watcher for the store's backing file.
func NewWatcher(store *Store, debounce time.Duration, logger *observability.Logger) (*Watcher, error) {
	if store.Path() == "" {
		return nil, domain.ConfigError("catalog watcher requires a file-backed store", nil)
	}
	if debounce <= 0 {
		debounce = 500 * time.Millisecond
	}
	if logger == nil {
		logger = observability.NopLogger()
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, domain.IOError("create file watcher", err)
	}

	target, err := filepath.Abs(store.Path())
	if err != nil {
		_ = fw.Close()
		return nil, domain.IOError("resolve catalog path", err)
	}

	return &Watcher{
		watcher:     fw,
		store:       store,
		target:      target,
		debounceDur: debounce,
		logger:      logger,
		stopCh:      make(chan struct{}),
		doneCh:      make(chan struct{}),
	}, nil
}

// OnReload registers a callback invoked after every reload attempt.
func (w *Watcher) OnReload(fn func(*Snapshot, error)) {
	w.mu.Lock()
	w.onReload = fn
	w.mu.Unlock()
}

// Start begins watching. It is non-blocking.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.mu.Unlock()

	if err := w.watcher.Add(filepath.Dir(w.target)); err != nil {
		w.mu.Lock()
		w.running = false
		w.mu.Unlock()
		return domain.IOError("watch catalog directory", err)
	}

	w.logger.Info().Str("path", w.target).Msg("Watching catalog for changes")
	go w.run(ctx)
	return nil
}

// Stop stops the watcher and waits for its goroutine to exit.
func (w *Watcher) Stop() {
	w.mu.Lock()
	running := w.running
	w.running = false
	w.mu.Unlock()

	if running {
		close(w.stopCh)
		<-w.doneCh
	}

	if err := w.watcher.Close(); err != nil {
		w.logger.Warn().Err(err).Msg("Closing catalog watcher failed")
	}
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.doneCh)

	interval := w.debounceDur / 5
	if interval < 10*time.Millisecond {
		interval = 10 * time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case <-w.stopCh:
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn().Err(err).Msg("Catalog watcher error")

		case <-ticker.C:
			w.processPending()
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	name, err := filepath.Abs(event.Name)
	if err != nil || name != w.target {
		return
	}
	if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
		return
	}

	w.mu.Lock()
	w.pendingAt = time.Now()
	w.mu.Unlock()
}

func (w *Watcher) processPending() {
	w.mu.Lock()
	if w.pendingAt.IsZero() || time.Since(w.pendingAt) < w.debounceDur {
		w.mu.Unlock()
		return
	}
	w.pendingAt = time.Time{}
	onReload := w.onReload
	w.mu.Unlock()

	snap, err := w.store.Reload()
	if err != nil {
		w.logger.Warn().Err(err).Msg("Catalog reload failed; keeping previous snapshot")
	}
	if onReload != nil {
		onReload(snap, err)
	}
}
