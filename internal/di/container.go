package di

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"sync"
	"time"

	repocache "github.com/goliatone/go-repository-cache/cache"
	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/goliatone/go-lingo/internal/cache"
	"github.com/goliatone/go-lingo/internal/catalog"
	admincmd "github.com/goliatone/go-lingo/internal/commands/admin"
	"github.com/goliatone/go-lingo/internal/debug"
	"github.com/goliatone/go-lingo/internal/i18n"
	"github.com/goliatone/go-lingo/internal/languages"
	"github.com/goliatone/go-lingo/internal/loader"
	"github.com/goliatone/go-lingo/internal/logging"
	"github.com/goliatone/go-lingo/internal/metrics"
	"github.com/goliatone/go-lingo/internal/resolver"
	"github.com/goliatone/go-lingo/internal/runtimeconfig"
	"github.com/goliatone/go-lingo/internal/validator"
	"github.com/goliatone/go-lingo/pkg/interfaces"
)

const instrumentationName = "github.com/goliatone/go-lingo"

// ErrFetcherRequired is returned for the custom source when no fetcher was supplied.
var ErrFetcherRequired = errors.New("di: custom loader source requires WithFetcher")

// Container wires module dependencies.
type Container struct {
	Config runtimeconfig.Config

	loggerProvider interfaces.LoggerProvider
	logger         interfaces.Logger
	clock          func() time.Time
	meter          metric.Meter
	tracer         trace.Tracer

	fsys          fs.FS
	fetcher       loader.Fetcher
	bunDB         *bun.DB
	ownsDB        bool
	migrations    fs.FS
	cacheService  repocache.CacheService
	keySerializer repocache.KeySerializer
	catalogRepo   catalog.Repository

	registry   *languages.Registry
	collector  *metrics.Collector
	cache      *cache.Cache
	recorder   *debug.Recorder
	loader     *loader.Loader
	resolver   *resolver.Resolver
	validator  *validator.Validator
	i18nSvc    i18n.Service
	handlers   *admincmd.Handlers
	unregister func()
	watcher    *loader.Watcher

	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
	closed bool
}

// Option mutates the container before it is finalised.
type Option func(*Container)

// WithLoggerProvider overrides the provider selected by Config.Logging.
func WithLoggerProvider(provider interfaces.LoggerProvider) Option {
	return func(c *Container) {
		c.loggerProvider = provider
	}
}

// WithClock overrides the time source shared by every component.
func WithClock(clock func() time.Time) Option {
	return func(c *Container) {
		if clock != nil {
			c.clock = clock
		}
	}
}

// WithMeter supplies the meter used when Config.Metrics.OTel is set.
func WithMeter(meter metric.Meter) Option {
	return func(c *Container) {
		c.meter = meter
	}
}

// WithTracer supplies the tracer used for loader fetch spans.
func WithTracer(tracer trace.Tracer) Option {
	return func(c *Container) {
		c.tracer = tracer
	}
}

// WithFS serves the fs source from fsys instead of Config.Loader.Dir.
func WithFS(fsys fs.FS) Option {
	return func(c *Container) {
		c.fsys = fsys
	}
}

// WithFetcher overrides the bundle source regardless of Config.Loader.Source.
func WithFetcher(fetcher loader.Fetcher) Option {
	return func(c *Container) {
		c.fetcher = fetcher
	}
}

// WithBunDB injects the database used by the catalog source. The container
// does not close injected databases.
func WithBunDB(db *bun.DB) Option {
	return func(c *Container) {
		c.bunDB = db
	}
}

// WithCatalogRepository injects the catalog used by the catalog source.
func WithCatalogRepository(repo catalog.Repository) Option {
	return func(c *Container) {
		c.catalogRepo = repo
	}
}

// WithCache overrides the repository read cache used by the catalog.
func WithCache(service repocache.CacheService, serializer repocache.KeySerializer) Option {
	return func(c *Container) {
		c.cacheService = service
		c.keySerializer = serializer
	}
}

// WithMigrations sets the SQL files applied when Config.Catalog.Migrate is on.
func WithMigrations(migrations fs.FS) Option {
	return func(c *Container) {
		c.migrations = migrations
	}
}

// NewContainer creates a container with the provided configuration.
func NewContainer(cfg runtimeconfig.Config, opts ...Option) (*Container, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	c := &Container{
		Config: cfg,
		clock:  time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}

	if err := c.configureLoggerProvider(); err != nil {
		return nil, err
	}
	c.logger = logging.ModuleLogger(c.loggerProvider, logging.RootModule)

	registry, err := languages.NewRegistry(cfg.DefaultLanguage, cfg.Languages...)
	if err != nil {
		return nil, err
	}
	c.registry = registry

	if err := c.configureMetrics(); err != nil {
		return nil, err
	}
	c.configureCache()
	c.configureDebug()

	if err := c.configureFetcher(context.Background()); err != nil {
		c.closeStorage()
		return nil, err
	}
	c.configureLoader()

	c.resolver = resolver.New(c.registry, c.cache, c.loader, c.collector,
		resolver.WithDebug(c.recorder),
		resolver.WithLogger(logging.ModuleLogger(c.loggerProvider, logging.ResolverModule)),
		resolver.WithClock(c.clock),
	)
	c.i18nSvc = i18n.NewService(c.resolver, c.registry.DefaultCode())

	base := cfg.Validator.BaseLanguage
	if base == "" {
		base = c.registry.DefaultCode()
	}
	c.validator = validator.New(
		validator.WithBaseLanguage(base),
		validator.WithLanguages(c.registry.Codes()...),
		validator.WithLengthRatio(cfg.Validator.LengthRatio),
	)

	c.configureCommands()

	c.logger.Info("container.configured",
		"source", runtimeconfig.NormalizeSource(cfg.Loader.Source),
		"default_language", c.registry.DefaultCode(),
		"languages", c.registry.Codes(),
	)
	return c, nil
}

func (c *Container) configureMetrics() error {
	opts := []metrics.Option{
		metrics.WithRetention(c.Config.Metrics.Retention),
		metrics.WithClock(c.clock),
	}
	if c.Config.Metrics.OTel {
		meter := c.meter
		if meter == nil {
			meter = otel.Meter(instrumentationName)
		}
		sink, err := metrics.NewOTelSink(meter)
		if err != nil {
			return err
		}
		opts = append(opts, metrics.WithSink(sink))
	}
	c.collector = metrics.NewCollector(opts...)
	return nil
}

func (c *Container) configureCache() {
	c.cache = cache.New(
		cache.WithMaxSize(c.Config.Cache.MaxSize),
		cache.WithDefaultTTL(c.Config.Cache.DefaultTTL),
		cache.WithClock(c.clock),
		cache.WithMetrics(c.collector),
		cache.WithLogger(logging.ModuleLogger(c.loggerProvider, logging.CacheModule)),
	)
}

func (c *Container) configureDebug() {
	c.recorder = debug.NewRecorder(
		debug.WithMaxLogSize(c.Config.Debug.MaxLogSize),
		debug.WithSlowThreshold(c.Config.Debug.SlowThreshold),
		debug.WithEnabled(c.Config.Debug.Enabled),
		debug.WithClock(c.clock),
		debug.WithLogger(logging.ModuleLogger(c.loggerProvider, logging.DebugModule)),
	)
}

func (c *Container) configureFetcher(ctx context.Context) error {
	source := runtimeconfig.NormalizeSource(c.Config.Loader.Source)
	if source == runtimeconfig.SourceCatalog || c.catalogRepo != nil {
		if err := c.configureCatalog(ctx); err != nil {
			return err
		}
	}
	if c.fetcher != nil {
		return nil
	}

	switch source {
	case runtimeconfig.SourceFS:
		if c.fsys == nil {
			c.fsys = os.DirFS(c.Config.Loader.Dir)
		}
		c.fetcher = loader.NewFSFetcher(c.fsys)
	case runtimeconfig.SourceCatalog:
		c.fetcher = catalog.NewFetcher(c.catalogRepo)
	default:
		return ErrFetcherRequired
	}
	return nil
}

func (c *Container) configureLoader() {
	opts := []loader.Option{
		loader.WithDefaultLanguage(c.registry.DefaultCode()),
		loader.WithLogger(logging.ModuleLogger(c.loggerProvider, logging.LoaderModule)),
		loader.WithMetrics(c.collector),
		loader.WithClock(c.clock),
	}
	tracer := c.tracer
	if tracer == nil && c.Config.Metrics.OTel {
		tracer = otel.Tracer(instrumentationName + "/loader")
	}
	if tracer != nil {
		opts = append(opts, loader.WithTracer(tracer))
	}
	c.loader = loader.New(c.fetcher, opts...)
}

func (c *Container) configureCommands() {
	if !c.Config.Commands.Enabled {
		return
	}
	c.handlers = admincmd.NewHandlers(admincmd.Dependencies{
		Cache:       c.cache,
		Metrics:     c.collector,
		Debug:       c.recorder,
		Preloader:   c.loader,
		Invalidator: c.resolver,
		Languages:   c.registry.Codes(),
		Timeout:     c.Config.Commands.Timeout,
		Logger:      logging.ModuleLogger(c.loggerProvider, logging.CommandsModule),
	})
	if c.Config.Commands.AutoRegisterDispatcher {
		c.unregister = c.handlers.Register()
	}
}

// Start preloads configured namespaces and launches the directory watcher
// and catalog invalidator. Background work stops on Close or when ctx ends.
func (c *Container) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return errors.New("di: container closed")
	}
	if c.cancel != nil {
		c.mu.Unlock()
		return nil
	}
	runCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.mu.Unlock()

	if namespaces := c.Config.Loader.Preload; len(namespaces) > 0 {
		c.loader.Preload(runCtx, c.registry.Codes(), namespaces)
		c.logger.Info("container.preloaded", "namespaces", namespaces)
	}

	if c.Config.Loader.Watch && runtimeconfig.NormalizeSource(c.Config.Loader.Source) == runtimeconfig.SourceFS {
		c.watcher = loader.NewWatcher(c.Config.Loader.Dir, []loader.Invalidator{c.resolver},
			loader.WithDebounce(c.Config.Loader.Debounce),
			loader.WithWatcherLogger(logging.ModuleLogger(c.loggerProvider, logging.LoaderModule)),
		)
		c.run(runCtx, "loader.watch", c.watcher.Run)
	}

	if c.catalogRepo != nil {
		invalidator := catalog.NewInvalidator(c.catalogRepo,
			logging.ModuleLogger(c.loggerProvider, logging.CatalogModule),
			c.resolver,
		)
		c.run(runCtx, "catalog.invalidator", invalidator.Run)
	}
	return nil
}

func (c *Container) run(ctx context.Context, name string, fn func(context.Context) error) {
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		if err := fn(ctx); err != nil {
			c.logger.Error("container.background.failed", "task", name, "error", err)
		}
	}()
}

// Close stops background work, removes dispatcher subscriptions and closes
// storage the container opened itself.
func (c *Container) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	cancel := c.cancel
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	c.wg.Wait()
	if c.unregister != nil {
		c.unregister()
	}
	return c.closeStorage()
}

func (c *Container) closeStorage() error {
	if closer, ok := c.catalogRepo.(interface{ Close() }); ok {
		closer.Close()
	}
	if c.ownsDB && c.bunDB != nil {
		return c.bunDB.Close()
	}
	return nil
}

func (c *Container) LoggerProvider() interfaces.LoggerProvider { return c.loggerProvider }

func (c *Container) Languages() *languages.Registry { return c.registry }

func (c *Container) Metrics() *metrics.Collector { return c.collector }

func (c *Container) Cache() *cache.Cache { return c.cache }

func (c *Container) Debug() *debug.Recorder { return c.recorder }

func (c *Container) Loader() *loader.Loader { return c.loader }

func (c *Container) Resolver() *resolver.Resolver { return c.resolver }

func (c *Container) Validator() *validator.Validator { return c.validator }

func (c *Container) I18nService() i18n.Service { return c.i18nSvc }

// Commands returns nil unless Config.Commands.Enabled is set.
func (c *Container) Commands() *admincmd.Handlers { return c.handlers }

// CatalogRepository returns nil unless the catalog source is configured.
func (c *Container) CatalogRepository() catalog.Repository { return c.catalogRepo }

// Watcher returns the directory watcher once Start launched it.
func (c *Container) Watcher() *loader.Watcher { return c.watcher }
