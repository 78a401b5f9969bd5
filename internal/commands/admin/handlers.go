package admincmd

import (
	"context"
	"fmt"
	"time"

	command "github.com/goliatone/go-command"
	"github.com/goliatone/go-command/dispatcher"

	"github.com/goliatone/go-lingo/internal/commands"
	"github.com/goliatone/go-lingo/internal/logging"
	"github.com/goliatone/go-lingo/pkg/interfaces"
)

// CacheClearer empties the resolved-string cache.
type CacheClearer interface {
	Clear(language string)
}

// MetricsResetter drops collected metrics.
type MetricsResetter interface {
	Reset()
}

// DebugController toggles and exports the debug recorder.
type DebugController interface {
	Enable()
	Disable()
	ExportDebugData() ([]byte, error)
}

// Preloader warms bundles.
type Preloader interface {
	Preload(ctx context.Context, languages, namespaces []string)
}

// Invalidator drops loaded and cached state for a namespace.
type Invalidator interface {
	Invalidate(language, namespace string)
}

// Dependencies are the runtime services the admin handlers drive.
type Dependencies struct {
	Cache       CacheClearer
	Metrics     MetricsResetter
	Debug       DebugController
	Preloader   Preloader
	Invalidator Invalidator
	// Languages lists every supported code; used when an invalidation names
	// no language.
	Languages []string
	// Timeout bounds each command; zero keeps the package default.
	Timeout time.Duration
	Logger  interfaces.Logger
}

// Handlers groups the admin command handlers.
type Handlers struct {
	ClearCache        *commands.Handler[ClearCacheCommand]
	ResetMetrics      *commands.Handler[ResetMetricsCommand]
	SetDebugMode      *commands.Handler[SetDebugModeCommand]
	ExportDebug       *commands.Handler[ExportDebugCommand]
	PreloadBundles    *commands.Handler[PreloadBundlesCommand]
	InvalidateBundles *commands.Handler[InvalidateBundlesCommand]
}

func options[T command.Message](deps Dependencies, operation string) []commands.HandlerOption[T] {
	logger := logging.Ensure(deps.Logger)
	opts := []commands.HandlerOption[T]{
		commands.WithLogger[T](logger),
		commands.WithOperation[T](operation),
		commands.WithTelemetry[T](commands.DefaultTelemetry[T](logger)),
	}
	if deps.Timeout > 0 {
		opts = append(opts, commands.WithTimeout[T](deps.Timeout))
	}
	return opts
}

// NewHandlers builds handlers over deps.
func NewHandlers(deps Dependencies) *Handlers {
	return &Handlers{
		ClearCache: commands.NewHandler(func(_ context.Context, msg ClearCacheCommand) error {
			if deps.Cache == nil {
				return fmt.Errorf("admincmd: cache not configured")
			}
			deps.Cache.Clear(msg.Language)
			return nil
		}, options[ClearCacheCommand](deps, "cache.clear")...),

		ResetMetrics: commands.NewHandler(func(context.Context, ResetMetricsCommand) error {
			if deps.Metrics == nil {
				return fmt.Errorf("admincmd: metrics not configured")
			}
			deps.Metrics.Reset()
			return nil
		}, options[ResetMetricsCommand](deps, "metrics.reset")...),

		SetDebugMode: commands.NewHandler(func(_ context.Context, msg SetDebugModeCommand) error {
			if deps.Debug == nil {
				return fmt.Errorf("admincmd: debug recorder not configured")
			}
			if msg.Enabled {
				deps.Debug.Enable()
			} else {
				deps.Debug.Disable()
			}
			return nil
		}, options[SetDebugModeCommand](deps, "debug.set_mode")...),

		ExportDebug: commands.NewHandler(func(_ context.Context, msg ExportDebugCommand) error {
			if deps.Debug == nil {
				return fmt.Errorf("admincmd: debug recorder not configured")
			}
			data, err := deps.Debug.ExportDebugData()
			if err != nil {
				return err
			}
			_, err = msg.Writer.Write(data)
			return err
		}, options[ExportDebugCommand](deps, "debug.export")...),

		PreloadBundles: commands.NewHandler(func(ctx context.Context, msg PreloadBundlesCommand) error {
			if deps.Preloader == nil {
				return fmt.Errorf("admincmd: loader not configured")
			}
			deps.Preloader.Preload(ctx, msg.Languages, msg.Namespaces)
			return nil
		}, options[PreloadBundlesCommand](deps, "bundles.preload")...),

		InvalidateBundles: commands.NewHandler(func(_ context.Context, msg InvalidateBundlesCommand) error {
			if deps.Invalidator == nil {
				return fmt.Errorf("admincmd: invalidator not configured")
			}
			targets := deps.Languages
			if msg.Language != "" {
				targets = []string{msg.Language}
			}
			for _, language := range targets {
				deps.Invalidator.Invalidate(language, msg.Namespace)
			}
			return nil
		}, options[InvalidateBundlesCommand](deps, "bundles.invalidate")...),
	}
}

// Register subscribes every handler to the go-command dispatcher and returns
// a function that removes the subscriptions.
func (h *Handlers) Register() (unregister func()) {
	clearCache := dispatcher.SubscribeCommand(h.ClearCache)
	resetMetrics := dispatcher.SubscribeCommand(h.ResetMetrics)
	setDebugMode := dispatcher.SubscribeCommand(h.SetDebugMode)
	exportDebug := dispatcher.SubscribeCommand(h.ExportDebug)
	preload := dispatcher.SubscribeCommand(h.PreloadBundles)
	invalidate := dispatcher.SubscribeCommand(h.InvalidateBundles)

	return func() {
		clearCache.Unsubscribe()
		resetMetrics.Unsubscribe()
		setDebugMode.Unsubscribe()
		exportDebug.Unsubscribe()
		preload.Unsubscribe()
		invalidate.Unsubscribe()
	}
}
