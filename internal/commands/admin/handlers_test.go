package admincmd

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/goliatone/go-command/dispatcher"
	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-lingo/internal/cache"
	"github.com/goliatone/go-lingo/internal/debug"
	"github.com/goliatone/go-lingo/internal/metrics"
)

type fakePreloader struct {
	languages, namespaces []string
}

func (p *fakePreloader) Preload(_ context.Context, languages, namespaces []string) {
	p.languages, p.namespaces = languages, namespaces
}

type fakeInvalidator struct {
	mu    sync.Mutex
	calls [][2]string
}

func (f *fakeInvalidator) Invalidate(language, namespace string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, [2]string{language, namespace})
}

type fixture struct {
	handlers    *Handlers
	cache       *cache.Cache
	metrics     *metrics.Collector
	debug       *debug.Recorder
	preloader   *fakePreloader
	invalidator *fakeInvalidator
}

func newFixture() fixture {
	fx := fixture{
		cache:       cache.New(),
		metrics:     metrics.NewCollector(),
		debug:       debug.NewRecorder(),
		preloader:   &fakePreloader{},
		invalidator: &fakeInvalidator{},
	}
	fx.handlers = NewHandlers(Dependencies{
		Cache:       fx.cache,
		Metrics:     fx.metrics,
		Debug:       fx.debug,
		Preloader:   fx.preloader,
		Invalidator: fx.invalidator,
		Languages:   []string{"en", "fr"},
	})
	return fx
}

func TestClearCacheCommand(t *testing.T) {
	fx := newFixture()
	fx.cache.Set("common.save", "en", "Save")
	fx.cache.Set("common.save", "fr", "Enregistrer")
	ctx := context.Background()

	if err := fx.handlers.ClearCache.Execute(ctx, ClearCacheCommand{Language: "fr"}); err != nil {
		t.Fatalf("clear fr: %v", err)
	}
	if fx.cache.Len() != 1 {
		t.Fatalf("expected en entry to remain, got %d", fx.cache.Len())
	}

	err := fx.handlers.ClearCache.Execute(ctx, ClearCacheCommand{Language: "tlh"})
	if !goerrors.IsCategory(err, goerrors.CategoryValidation) {
		t.Fatalf("expected validation error for unknown language, got %v", err)
	}

	if err := fx.handlers.ClearCache.Execute(ctx, ClearCacheCommand{}); err != nil {
		t.Fatalf("clear all: %v", err)
	}
	if fx.cache.Len() != 0 {
		t.Fatalf("expected empty cache")
	}
}

func TestDebugCommands(t *testing.T) {
	fx := newFixture()
	ctx := context.Background()

	if err := fx.handlers.SetDebugMode.Execute(ctx, SetDebugModeCommand{Enabled: true}); err != nil {
		t.Fatalf("enable: %v", err)
	}
	if !fx.debug.Enabled() {
		t.Fatalf("expected recorder enabled")
	}
	fx.debug.LogTranslation(debug.Event{Key: "common.save", Language: "en", Source: debug.SourceLoader})

	var buf bytes.Buffer
	if err := fx.handlers.ExportDebug.Execute(ctx, ExportDebugCommand{Writer: &buf}); err != nil {
		t.Fatalf("export: %v", err)
	}
	if !bytes.Contains(buf.Bytes(), []byte(`"common.save"`)) {
		t.Fatalf("expected export to contain the logged key, got %s", buf.String())
	}

	if err := fx.handlers.ExportDebug.Execute(ctx, ExportDebugCommand{}); !goerrors.IsCategory(err, goerrors.CategoryValidation) {
		t.Fatalf("expected validation error without writer, got %v", err)
	}

	if err := fx.handlers.SetDebugMode.Execute(ctx, SetDebugModeCommand{Enabled: false}); err != nil {
		t.Fatalf("disable: %v", err)
	}
	if fx.debug.Enabled() || len(fx.debug.Entries()) != 0 {
		t.Fatalf("expected recorder disabled and cleared")
	}
}

func TestResetMetricsCommand(t *testing.T) {
	fx := newFixture()
	fx.metrics.RecordTranslation("common.save", "en", 0, false, errors.New("not found"))

	if err := fx.handlers.ResetMetrics.Execute(context.Background(), ResetMetricsCommand{}); err != nil {
		t.Fatalf("reset: %v", err)
	}
	if got := len(fx.metrics.Records()); got != 0 {
		t.Fatalf("expected no records, got %d", got)
	}
}

func TestPreloadAndInvalidateCommands(t *testing.T) {
	fx := newFixture()
	ctx := context.Background()

	err := fx.handlers.PreloadBundles.Execute(ctx, PreloadBundlesCommand{Languages: []string{"en"}})
	if !goerrors.IsCategory(err, goerrors.CategoryValidation) {
		t.Fatalf("expected validation error without namespaces, got %v", err)
	}
	if err := fx.handlers.PreloadBundles.Execute(ctx, PreloadBundlesCommand{
		Languages:  []string{"en", "fr"},
		Namespaces: []string{"common"},
	}); err != nil {
		t.Fatalf("preload: %v", err)
	}
	if len(fx.preloader.languages) != 2 || fx.preloader.namespaces[0] != "common" {
		t.Fatalf("unexpected preload call %+v", fx.preloader)
	}

	if err := fx.handlers.InvalidateBundles.Execute(ctx, InvalidateBundlesCommand{}); !goerrors.IsCategory(err, goerrors.CategoryValidation) {
		t.Fatalf("expected validation error without namespace, got %v", err)
	}
	if err := fx.handlers.InvalidateBundles.Execute(ctx, InvalidateBundlesCommand{Namespace: "common"}); err != nil {
		t.Fatalf("invalidate: %v", err)
	}
	if err := fx.handlers.InvalidateBundles.Execute(ctx, InvalidateBundlesCommand{Language: "fr", Namespace: "errors"}); err != nil {
		t.Fatalf("invalidate fr: %v", err)
	}
	want := [][2]string{{"en", "common"}, {"fr", "common"}, {"fr", "errors"}}
	if len(fx.invalidator.calls) != len(want) {
		t.Fatalf("expected %v, got %v", want, fx.invalidator.calls)
	}
	for i := range want {
		if fx.invalidator.calls[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, fx.invalidator.calls)
		}
	}
}

func TestRegisterRoutesThroughDispatcher(t *testing.T) {
	fx := newFixture()
	unregister := fx.handlers.Register()
	t.Cleanup(unregister)

	if err := dispatcher.Dispatch(context.Background(), SetDebugModeCommand{Enabled: true}); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if !fx.debug.Enabled() {
		t.Fatalf("expected dispatcher to reach the handler")
	}
}
