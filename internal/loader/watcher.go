package loader

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/goliatone/go-lingo/internal/bundle"
	"github.com/goliatone/go-lingo/internal/logging"
	"github.com/goliatone/go-lingo/pkg/interfaces"
)

// DefaultDebounce collapses bursts of editor writes into one invalidation.
const DefaultDebounce = 100 * time.Millisecond

// Invalidator drops cached state for a (language, namespace) pair.
type Invalidator interface {
	Invalidate(language, namespace string)
}

// InvalidatorFunc adapts a function to Invalidator.
type InvalidatorFunc func(language, namespace string)

func (f InvalidatorFunc) Invalidate(language, namespace string) { f(language, namespace) }

// WatcherOption configures a Watcher.
type WatcherOption func(*Watcher)

// WithDebounce coalesces bursts of file events per bundle.
func WithDebounce(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithWatcherLogger sets the watcher logger.
func WithWatcherLogger(logger interfaces.Logger) WatcherOption {
	return func(w *Watcher) {
		w.logger = logging.Ensure(logger)
	}
}

// Watcher observes a bundle directory laid out as {namespace}/{language}.{ext}
// and invalidates the matching pair when a document changes.
type Watcher struct {
	root     string
	targets  []Invalidator
	debounce time.Duration
	logger   interfaces.Logger
	ready    chan struct{}

	mu     sync.Mutex
	timers map[string]*time.Timer
}

// NewWatcher watches root and notifies every target on change.
func NewWatcher(root string, targets []Invalidator, opts ...WatcherOption) *Watcher {
	w := &Watcher{
		root:     filepath.Clean(root),
		targets:  targets,
		debounce: DefaultDebounce,
		logger:   logging.NoOp(),
		ready:    make(chan struct{}),
		timers:   map[string]*time.Timer{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(w)
		}
	}
	return w
}

// Ready is closed once the root and namespace directories are being watched.
func (w *Watcher) Ready() <-chan struct{} { return w.ready }

// Run blocks until ctx is done or the watcher fails to start.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fw.Close()
	defer w.stopTimers()

	if err := w.addTree(fw); err != nil {
		return err
	}
	close(w.ready)
	w.logger.Info("loader.watch.start", "root", w.root)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("loader.watch.stop", "root", w.root)
			return nil
		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			w.handle(fw, event)
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("loader.watch.error", "error", err)
		}
	}
}

// addTree registers the root and each namespace directory; fsnotify does
// not recurse.
func (w *Watcher) addTree(fw *fsnotify.Watcher) error {
	if err := fw.Add(w.root); err != nil {
		return err
	}
	entries, err := os.ReadDir(w.root)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if entry.IsDir() && !strings.HasPrefix(entry.Name(), ".") {
			if err := fw.Add(filepath.Join(w.root, entry.Name())); err != nil {
				return err
			}
		}
	}
	return nil
}

func (w *Watcher) handle(fw *fsnotify.Watcher, event fsnotify.Event) {
	rel, err := filepath.Rel(w.root, event.Name)
	if err != nil {
		return
	}
	parts := strings.Split(filepath.ToSlash(rel), "/")

	if len(parts) == 1 {
		// a new namespace directory
		if event.Has(fsnotify.Create) {
			if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
				if err := fw.Add(event.Name); err != nil {
					w.logger.Warn("loader.watch.add_failed", "path", event.Name, "error", err)
				}
			}
		}
		return
	}
	if len(parts) != 2 {
		return
	}
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
		!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return
	}
	language, _, ok := bundle.SplitFileName(parts[1])
	if !ok {
		return
	}
	w.schedule(rel, language, parts[0])
}

func (w *Watcher) schedule(id, language, namespace string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if timer, ok := w.timers[id]; ok {
		timer.Reset(w.debounce)
		return
	}
	w.timers[id] = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		delete(w.timers, id)
		w.mu.Unlock()
		w.fire(language, namespace)
	})
}

func (w *Watcher) fire(language, namespace string) {
	w.logger.Info("loader.watch.invalidate", "language", language, "namespace", namespace)
	for _, target := range w.targets {
		if target != nil {
			target.Invalidate(language, namespace)
		}
	}
}

func (w *Watcher) stopTimers() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for id, timer := range w.timers {
		timer.Stop()
		delete(w.timers, id)
	}
}
