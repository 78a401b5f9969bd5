// Package resolver turns (language, dotted key) pairs into display strings.
// It checks the cache, loads bundles on a miss, interpolates {{name}}
// placeholders and records metrics and debug events. Resolution never fails:
// a missing translation yields the key itself.
package resolver

import (
	"context"
	"errors"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-lingo/internal/bundle"
	"github.com/goliatone/go-lingo/internal/debug"
	"github.com/goliatone/go-lingo/internal/logging"
	"github.com/goliatone/go-lingo/pkg/interfaces"
)

// TextCodeNotFound tags lookups whose key has no translation.
const TextCodeNotFound = "TRANSLATION_NOT_FOUND"

// ErrNotFound is the failure reason recorded for keys that do not resolve.
var ErrNotFound = errors.New("not found")

// Languages normalizes requested codes to supported ones.
type Languages interface {
	Normalize(code string) string
	DefaultCode() string
}

// Cache stores resolved strings per (key, language).
type Cache interface {
	Get(key, language string) (string, bool)
	Set(key, language, value string)
	Invalidate(language, namespace string)
}

// Loader provides bundle trees per (language, namespace).
type Loader interface {
	LoadInfo(ctx context.Context, language, namespace string) (*bundle.Node, bool, error)
	Fallback(language, namespace string) bool
	Invalidate(language, namespace string)
}

// Recorder receives one record per resolution that reached the loader.
type Recorder interface {
	RecordTranslation(key, language string, duration time.Duration, success bool, err error)
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithDebug logs every resolution to recorder.
func WithDebug(recorder *debug.Recorder) Option {
	return func(r *Resolver) {
		r.debug = recorder
	}
}

// WithLogger sets the logger for load failures.
func WithLogger(logger interfaces.Logger) Option {
	return func(r *Resolver) {
		r.logger = logging.Ensure(logger)
	}
}

// WithClock overrides time.Now for resolution durations.
func WithClock(clock func() time.Time) Option {
	return func(r *Resolver) {
		if clock != nil {
			r.now = clock
		}
	}
}

// Resolver orchestrates cache, loader, metrics and debug.
type Resolver struct {
	languages Languages
	cache     Cache
	loader    Loader
	metrics   Recorder
	debug     *debug.Recorder
	logger    interfaces.Logger
	now       func() time.Time
}

var (
	_ interfaces.Resolver               = (*Resolver)(nil)
	_ interfaces.Translator             = (*Resolver)(nil)
	_ interfaces.TranslatorWithMetadata = (*Resolver)(nil)
)

// New wires a resolver. metrics may be nil.
func New(languages Languages, cache Cache, loader Loader, metrics Recorder, opts ...Option) *Resolver {
	r := &Resolver{
		languages: languages,
		cache:     cache,
		loader:    loader,
		metrics:   metrics,
		logger:    logging.NoOp(),
		now:       time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

// outcome describes one resolution.
type outcome struct {
	value     string
	language  string
	namespace string
	source    debug.Source
	found     bool
	// fallback is set when the default language's bundle served the value.
	fallback bool
	err      error
}

// Resolve returns the translation for key in language, interpolated with
// values. Unsupported languages resolve in the default language. An empty
// key yields "" and an unresolvable key yields the key.
func (r *Resolver) Resolve(ctx context.Context, language, key string, values map[string]any) string {
	return r.resolve(ctx, language, key, values).value
}

// Lookup behaves like Resolve but also reports why a key did not resolve.
// The returned string is the same one Resolve would return.
func (r *Resolver) Lookup(ctx context.Context, language, key string, values map[string]any) (string, error) {
	out := r.resolve(ctx, language, key, values)
	return out.value, out.err
}

func (r *Resolver) resolve(ctx context.Context, language, key string, values map[string]any) outcome {
	if ctx == nil {
		ctx = context.Background()
	}
	start := r.now()
	language = r.languages.Normalize(language)
	if key == "" {
		return outcome{language: language, found: true}
	}

	namespace, path := splitKey(key)

	if cached, ok := r.cache.Get(key, language); ok {
		value := Interpolate(cached, values)
		r.logDebug(key, language, namespace, &value, debug.SourceCache, r.now().Sub(start), true, values)
		return outcome{
			value:     value,
			language:  language,
			namespace: namespace,
			source:    debug.SourceCache,
			found:     true,
			fallback:  r.loader.Fallback(language, namespace),
		}
	}

	if namespace == "" || len(path) == 0 || hasEmpty(path) {
		return r.miss(key, language, namespace, start, values, notFound(key, language))
	}

	tree, fallback, err := r.loader.LoadInfo(ctx, language, namespace)
	if err != nil {
		logging.WithTranslation(r.logger, language, namespace).
			Error("resolver.load.failed", "key", key, "error", err)
		return r.miss(key, language, namespace, start, values, err)
	}

	value, ok := tree.LookupString(path...)
	if !ok {
		return r.miss(key, language, namespace, start, values, notFound(key, language))
	}

	r.cache.Set(key, language, value)
	elapsed := r.now().Sub(start)
	r.record(key, language, elapsed, true, nil)

	value = Interpolate(value, values)
	r.logDebug(key, language, namespace, &value, debug.SourceLoader, elapsed, false, values)
	return outcome{
		value:     value,
		language:  language,
		namespace: namespace,
		source:    debug.SourceLoader,
		found:     true,
		fallback:  fallback,
	}
}

func (r *Resolver) miss(key, language, namespace string, start time.Time, values map[string]any, err error) outcome {
	elapsed := r.now().Sub(start)
	reason := err
	if errors.Is(err, ErrNotFound) {
		reason = ErrNotFound
	}
	r.record(key, language, elapsed, false, reason)
	r.logDebug(key, language, namespace, nil, debug.SourceFallback, elapsed, false, values)
	return outcome{
		value:     key,
		language:  language,
		namespace: namespace,
		source:    debug.SourceFallback,
		err:       err,
	}
}

func (r *Resolver) record(key, language string, elapsed time.Duration, success bool, err error) {
	if r.metrics != nil {
		r.metrics.RecordTranslation(key, language, elapsed, success, err)
	}
}

func (r *Resolver) logDebug(key, language, namespace string, value *string, source debug.Source, elapsed time.Duration, cacheHit bool, values map[string]any) {
	if r.debug == nil {
		return
	}
	r.debug.LogTranslation(debug.Event{
		Key:      key,
		Language: language,
		Value:    value,
		Source:   source,
		Performance: debug.Performance{
			LoadTime: elapsed,
			CacheHit: cacheHit,
		},
		Context: debug.Context{
			Interpolation: values,
			Namespace:     namespace,
		},
	})
}

// Invalidate drops cached state for a namespace. A change to the default
// language also drops every language's cached strings for the namespace,
// since other languages may have fallen back to it.
func (r *Resolver) Invalidate(language, namespace string) {
	r.loader.Invalidate(language, namespace)
	if language == r.languages.DefaultCode() {
		r.cache.Invalidate("", namespace)
		return
	}
	r.cache.Invalidate(language, namespace)
}

func splitKey(key string) (namespace string, path []string) {
	parts := strings.Split(key, ".")
	return parts[0], parts[1:]
}

func hasEmpty(parts []string) bool {
	for _, part := range parts {
		if part == "" {
			return true
		}
	}
	return false
}

func notFound(key, language string) error {
	err := goerrors.New("translation not found", goerrors.CategoryNotFound).
		WithTextCode(TextCodeNotFound).
		WithMetadata(map[string]any{
			"key":      key,
			"language": language,
		})
	err.Source = errors.Join(ErrNotFound, interfaces.ErrTranslationMissing)
	return err
}
