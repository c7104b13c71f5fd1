package resolver

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounceInterval is the quiet period required after a burst of
// filesystem events before a reload is triggered.
const DefaultDebounceInterval = 100 * time.Millisecond

// errAlreadyWatching is returned by Manager.Watch when a watcher is active.
var errAlreadyWatching = fmt.Errorf("configuration watcher already running")

// fileWatcher watches a single configuration file for changes and triggers
// debounced reloads. The parent directory is watched rather than the file
// itself, because editors and atomic writers replace the file by rename,
// which would otherwise detach a file-level watch.
type fileWatcher struct {
	watcher  *fsnotify.Watcher
	logger   *slog.Logger
	path     string
	debounce *debouncer

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

func newFileWatcher(path string, interval time.Duration, logger *slog.Logger) (*fileWatcher, error) {
	if path == "" {
		return nil, fmt.Errorf("cannot watch without a configuration file path")
	}
	if interval <= 0 {
		interval = DefaultDebounceInterval
	}
	if logger == nil {
		logger = slog.Default()
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	return &fileWatcher{
		watcher:  watcher,
		logger:   logger,
		path:     filepath.Clean(path),
		debounce: newDebouncer(interval),
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}, nil
}

// watch blocks processing filesystem events until the context is cancelled
// or stop is called. Each burst of events on the watched file collapses into
// a single onChange call after the debounce interval.
func (fw *fileWatcher) watch(ctx context.Context, onChange func()) error {
	fw.mu.Lock()
	if fw.running {
		fw.mu.Unlock()
		return fmt.Errorf("watcher already running")
	}
	fw.running = true
	fw.mu.Unlock()

	defer func() {
		// Wait out any in-flight debounced callback before releasing the
		// fsnotify handle, so a caller observing doneCh knows no reload
		// started by this watcher is still running.
		fw.debounce.stop()
		if err := fw.watcher.Close(); err != nil {
			fw.logger.Error("failed to close fsnotify watcher", "error", err)
		}
		fw.mu.Lock()
		fw.running = false
		fw.mu.Unlock()
		close(fw.doneCh)
	}()

	dir := filepath.Dir(fw.path)
	if err := fw.watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %q: %w", dir, err)
	}

	fw.logger.Info("configuration watcher started",
		"path", fw.path,
		"debounce_ms", fw.debounce.interval.Milliseconds(),
	)

	for {
		select {
		case <-ctx.Done():
			fw.logger.Info("configuration watcher stopped", "reason", "context cancelled")
			return nil

		case <-fw.stopCh:
			fw.logger.Info("configuration watcher stopped")
			return nil

		case event, ok := <-fw.watcher.Events:
			if !ok {
				return fmt.Errorf("watcher events channel closed")
			}
			if !fw.relevant(event) {
				continue
			}
			fw.logger.Debug("configuration file event",
				"path", event.Name,
				"op", event.Op.String(),
			)
			fw.debounce.trigger(onChange)

		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return fmt.Errorf("watcher errors channel closed")
			}
			// Keep watching despite transient errors.
			fw.logger.Error("configuration watcher error", "error", err)
		}
	}
}

// relevant filters directory events down to writes, creates, renames, and
// removals of the watched file. Chmod-only events never carry new content.
func (fw *fileWatcher) relevant(event fsnotify.Event) bool {
	if filepath.Clean(event.Name) != fw.path {
		return false
	}
	return event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) != 0
}

// stop stops the watcher and waits for the event loop and any in-flight
// debounced callback to finish. The event loop cleans up after itself, so
// stop only needs to release resources when watch never ran.
func (fw *fileWatcher) stop() error {
	fw.mu.Lock()
	if !fw.running {
		fw.mu.Unlock()
		fw.debounce.stop()
		return fw.watcher.Close()
	}
	fw.mu.Unlock()

	close(fw.stopCh)
	<-fw.doneCh
	return nil
}

// debouncer collapses rapid event bursts into a single callback after a
// quiet period.
type debouncer struct {
	interval time.Duration

	mu       sync.Mutex
	wg       sync.WaitGroup
	timer    *time.Timer
	callback func()
	stopped  bool
}

func newDebouncer(interval time.Duration) *debouncer {
	return &debouncer{interval: interval}
}

// trigger arms (or re-arms) the quiet-period timer. The callback fires once
// the interval passes without another trigger.
func (d *debouncer) trigger(callback func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}
	d.callback = callback

	if d.timer != nil && d.timer.Stop() {
		d.wg.Done()
	}
	d.wg.Add(1)
	d.timer = time.AfterFunc(d.interval, func() {
		defer d.wg.Done()

		d.mu.Lock()
		cb := d.callback
		stopped := d.stopped
		d.mu.Unlock()

		if cb != nil && !stopped {
			cb()
		}
	})
}

// stop cancels any pending callback and waits for a running one to finish,
// so callers can tear down resources the callback touches.
func (d *debouncer) stop() {
	d.mu.Lock()
	d.stopped = true
	if d.timer != nil {
		if d.timer.Stop() {
			d.wg.Done()
		}
		d.timer = nil
	}
	d.callback = nil
	d.mu.Unlock()

	d.wg.Wait()
}
