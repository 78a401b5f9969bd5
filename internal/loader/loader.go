// Package loader fetches translation bundles per (language, namespace) with
// request coalescing and a single fallback hop to the default language.
package loader

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"golang.org/x/sync/singleflight"

	"github.com/goliatone/go-lingo/internal/bundle"
	"github.com/goliatone/go-lingo/internal/logging"
	"github.com/goliatone/go-lingo/pkg/interfaces"
)

// TextCodeLoadFailed tags terminal load failures.
const TextCodeLoadFailed = "BUNDLE_LOAD_FAILED"

var (
	// ErrLoadFailure is the terminal error when neither the requested nor the
	// default language bundle could be fetched.
	ErrLoadFailure = errors.New("loader: bundle load failed")
	// ErrEmptyBundle is returned when a fetcher yields no tree and no error.
	ErrEmptyBundle = errors.New("loader: fetcher returned no bundle")
)

// Fetcher retrieves one bundle document.
type Fetcher interface {
	Fetch(ctx context.Context, language, namespace string) (*bundle.Node, error)
}

// FetcherFunc adapts a function to Fetcher.
type FetcherFunc func(ctx context.Context, language, namespace string) (*bundle.Node, error)

func (f FetcherFunc) Fetch(ctx context.Context, language, namespace string) (*bundle.Node, error) {
	return f(ctx, language, namespace)
}

// FailureRecorder receives failed fetch attempts. Attempts are recorded with
// the namespace as key. The metrics collector satisfies it.
type FailureRecorder interface {
	RecordTranslation(key, language string, duration time.Duration, success bool, err error)
}

// Option configures a Loader.
type Option func(*Loader)

// WithDefaultLanguage sets the fallback language. Defaults to "en".
func WithDefaultLanguage(language string) Option {
	return func(l *Loader) {
		if language = strings.TrimSpace(language); language != "" {
			l.defaultLanguage = language
		}
	}
}

// WithLogger sets the logger for fetch, fallback and clear events.
func WithLogger(logger interfaces.Logger) Option {
	return func(l *Loader) {
		l.logger = logging.Ensure(logger)
	}
}

// WithTracer emits a span per fetch.
func WithTracer(tracer trace.Tracer) Option {
	return func(l *Loader) {
		if tracer != nil {
			l.tracer = tracer
		}
	}
}

// WithMetrics records every failed fetch attempt.
func WithMetrics(recorder FailureRecorder) Option {
	return func(l *Loader) {
		l.metrics = recorder
	}
}

// WithClock overrides time.Now for attempt durations.
func WithClock(clock func() time.Time) Option {
	return func(l *Loader) {
		if clock != nil {
			l.now = clock
		}
	}
}

// Loader caches completed bundles in memory. Concurrent loads of the same
// (language, namespace) share one fetch.
type Loader struct {
	fetcher         Fetcher
	defaultLanguage string
	logger          interfaces.Logger
	tracer          trace.Tracer
	metrics         FailureRecorder
	now             func() time.Time

	group singleflight.Group

	mu     sync.RWMutex
	loaded map[string]loadedBundle
	epoch  uint64
}

// loadedBundle marks trees stored under a pair whose own fetch failed, so
// clearing the default language also drops them.
type loadedBundle struct {
	tree     *bundle.Node
	fallback bool
}

// New constructs a Loader around fetcher.
func New(fetcher Fetcher, opts ...Option) *Loader {
	l := &Loader{
		fetcher:         fetcher,
		defaultLanguage: "en",
		logger:          logging.NoOp(),
		tracer:          noop.NewTracerProvider().Tracer(""),
		now:             time.Now,
		loaded:          make(map[string]loadedBundle),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(l)
		}
	}
	return l
}

// DefaultLanguage returns the fallback language.
func (l *Loader) DefaultLanguage() string { return l.defaultLanguage }

func loadKey(language, namespace string) string {
	return language + "/" + namespace
}

func splitLoadKey(key string) (language, namespace string) {
	language, namespace, _ = strings.Cut(key, "/")
	return language, namespace
}

// Load returns the bundle for (language, namespace). A failed fetch for a
// non-default language falls back to the default language and the result is
// stored under the requested pair. A caller whose ctx ends stops waiting but
// the shared fetch runs to completion.
func (l *Loader) Load(ctx context.Context, language, namespace string) (*bundle.Node, error) {
	tree, _, err := l.LoadInfo(ctx, language, namespace)
	return tree, err
}

// LoadInfo behaves like Load and also reports whether the tree was served
// from the default language because the requested pair failed to load.
func (l *Loader) LoadInfo(ctx context.Context, language, namespace string) (*bundle.Node, bool, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	key := loadKey(language, namespace)
	if entry, ok := l.entry(key); ok {
		return entry.tree, entry.fallback, nil
	}

	detached := context.WithoutCancel(ctx)
	ch := l.group.DoChan(key, func() (any, error) {
		return l.fetchAndStore(detached, language, namespace)
	})

	select {
	case <-ctx.Done():
		return nil, false, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, false, res.Err
		}
		entry := res.Val.(loadedBundle)
		return entry.tree, entry.fallback, nil
	}
}

func (l *Loader) entry(key string) (loadedBundle, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	entry, ok := l.loaded[key]
	return entry, ok
}

func (l *Loader) fetchAndStore(ctx context.Context, language, namespace string) (loadedBundle, error) {
	key := loadKey(language, namespace)

	l.mu.RLock()
	cached, ok := l.loaded[key]
	epoch := l.epoch
	l.mu.RUnlock()
	if ok {
		return cached, nil
	}

	logger := logging.WithTranslation(l.logger, language, namespace)

	fallback := false
	tree, err := l.fetch(ctx, language, namespace)
	if err != nil {
		logger.Warn("loader.fetch.failed", "error", err)
		if language == l.defaultLanguage {
			return loadedBundle{}, l.terminal(language, namespace, err)
		}

		logger.Info("loader.fallback", "fallback_language", l.defaultLanguage)
		tree, err = l.Load(ctx, l.defaultLanguage, namespace)
		if err != nil {
			return loadedBundle{}, err
		}
		fallback = true
	}

	entry := loadedBundle{tree: tree, fallback: fallback}
	l.mu.Lock()
	if l.epoch == epoch {
		l.loaded[key] = entry
	}
	l.mu.Unlock()

	logger.Debug("loader.fetch.success")
	return entry, nil
}

func (l *Loader) fetch(ctx context.Context, language, namespace string) (*bundle.Node, error) {
	ctx, span := l.tracer.Start(ctx, "lingo.loader.fetch", trace.WithAttributes(
		attribute.String("lingo.language", language),
		attribute.String("lingo.namespace", namespace),
	))
	defer span.End()

	start := l.now()
	var (
		tree *bundle.Node
		err  error
	)
	if l.fetcher == nil {
		err = ErrEmptyBundle
	} else {
		tree, err = l.fetcher.Fetch(ctx, language, namespace)
		if err == nil && tree == nil {
			err = ErrEmptyBundle
		}
	}

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		if l.metrics != nil {
			l.metrics.RecordTranslation(namespace, language, l.now().Sub(start), false, err)
		}
		return nil, err
	}
	return tree, nil
}

func (l *Loader) terminal(language, namespace string, cause error) error {
	l.logger.Error("loader.load.failed", "language", language, "namespace", namespace, "error", cause)
	// built with New so a categorised cause (decode errors) does not
	// replace the external category
	err := goerrors.New(fmt.Sprintf("load bundle %s/%s", namespace, language), goerrors.CategoryExternal).
		WithTextCode(TextCodeLoadFailed).
		WithMetadata(map[string]any{
			"language":  language,
			"namespace": namespace,
		})
	err.Source = fmt.Errorf("%w: %w", ErrLoadFailure, cause)
	return err
}

// Loaded reports whether a completed bundle is held for the pair.
func (l *Loader) Loaded(language, namespace string) bool {
	_, ok := l.entry(loadKey(language, namespace))
	return ok
}

// Fallback reports whether the pair is currently served by the default
// language's bundle.
func (l *Loader) Fallback(language, namespace string) bool {
	entry, ok := l.entry(loadKey(language, namespace))
	return ok && entry.fallback
}

// ClearCache forgets completed bundles matching the filters. Empty filters
// match anything; both empty clears everything. Clearing the default
// language also clears pairs that fell back to it. Fetches in flight when the
// cache is cleared do not store their result.
func (l *Loader) ClearCache(language, namespace string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.epoch++
	removed := 0
	for key, entry := range l.loaded {
		lang, ns := splitLoadKey(key)
		langMatch := language == "" || lang == language ||
			(language == l.defaultLanguage && entry.fallback)
		if langMatch && (namespace == "" || ns == namespace) {
			delete(l.loaded, key)
			removed++
		}
	}
	l.logger.Info("loader.cache.clear", "language", language, "namespace", namespace, "removed", removed)
}

// Invalidate satisfies the invalidation contract used by watchers.
func (l *Loader) Invalidate(language, namespace string) {
	l.ClearCache(language, namespace)
}

// Preload loads the cross product of languages and namespaces concurrently
// and returns once every load has settled. Failures are logged only.
func (l *Loader) Preload(ctx context.Context, languages, namespaces []string) {
	var wg sync.WaitGroup
	for _, language := range languages {
		for _, namespace := range namespaces {
			wg.Add(1)
			go func(language, namespace string) {
				defer wg.Done()
				if _, err := l.Load(ctx, language, namespace); err != nil {
					logging.WithTranslation(l.logger, language, namespace).
						Warn("loader.preload.failed", "error", err)
				}
			}(language, namespace)
		}
	}
	wg.Wait()
}
