package lingo

import (
	"context"
	"errors"
	"io/fs"

	"github.com/goliatone/go-lingo/internal/bundle"
	"github.com/goliatone/go-lingo/internal/cache"
	"github.com/goliatone/go-lingo/internal/catalog"
	admincmd "github.com/goliatone/go-lingo/internal/commands/admin"
	"github.com/goliatone/go-lingo/internal/debug"
	"github.com/goliatone/go-lingo/internal/di"
	"github.com/goliatone/go-lingo/internal/i18n"
	"github.com/goliatone/go-lingo/internal/languages"
	"github.com/goliatone/go-lingo/internal/loader"
	"github.com/goliatone/go-lingo/internal/metrics"
	"github.com/goliatone/go-lingo/internal/validator"
	"github.com/goliatone/go-lingo/pkg/interfaces"
)

// Cache exports the resolved-string cache.
type Cache = cache.Cache

// MetricsCollector exports the translation metrics collector.
type MetricsCollector = metrics.Collector

// DebugRecorder exports the resolution ring buffer.
type DebugRecorder = debug.Recorder

// Loader exports the bundle loader.
type Loader = loader.Loader

// Validator exports the bundle validator.
type Validator = validator.Validator

// ValidationResult exports the validator report.
type ValidationResult = validator.Result

// Languages exports the language registry.
type Languages = languages.Registry

// BundleSet maps a language code to a tree whose children are namespaces.
type BundleSet = bundle.Set

// CatalogRepository exports the persisted bundle store contract.
type CatalogRepository = catalog.Repository

// AdminCommands exports the admin command handlers.
type AdminCommands = admincmd.Handlers

// Translator translates keys and can report how each one was resolved.
type Translator interface {
	interfaces.Translator
	interfaces.TranslatorWithMetadata
}

// I18nService exports the presentation-layer translation service.
type I18nService = i18n.Service

// Module represents the top level translation runtime façade.
type Module struct {
	container *di.Container
}

// New constructs a module using the provided configuration and optional DI
// overrides. Embedded migrations are applied when cfg.Catalog.Migrate is set.
func New(cfg Config, opts ...di.Option) (*Module, error) {
	all := make([]di.Option, 0, len(opts)+1)
	if cfg.Catalog.Migrate {
		all = append(all, di.WithMigrations(GetMigrationsFS()))
	}
	all = append(all, opts...)

	container, err := di.NewContainer(cfg, all...)
	if err != nil {
		return nil, err
	}
	return &Module{container: container}, nil
}

// Container exposes the underlying DI container for advanced integrations.
func (m *Module) Container() *di.Container {
	return m.container
}

// Start launches preload, directory watching and catalog invalidation.
func (m *Module) Start(ctx context.Context) error {
	return m.container.Start(ctx)
}

// Resolve returns the translation for key in language. It never fails: an
// empty key yields "" and an unresolvable key yields the key itself.
func (m *Module) Resolve(ctx context.Context, language, key string, values map[string]any) string {
	return m.container.Resolver().Resolve(ctx, language, key, values)
}

// Translator exposes the resolver through the narrow presentation contract.
func (m *Module) Translator() Translator {
	return m.container.Resolver()
}

// I18n returns the template-facing translation service.
func (m *Module) I18n() I18nService {
	return m.container.I18nService()
}

// Invalidate drops loaded and cached state for a namespace.
func (m *Module) Invalidate(language, namespace string) {
	m.container.Resolver().Invalidate(language, namespace)
}

func (m *Module) Cache() *Cache { return m.container.Cache() }

func (m *Module) Metrics() *MetricsCollector { return m.container.Metrics() }

func (m *Module) Debug() *DebugRecorder { return m.container.Debug() }

func (m *Module) Loader() *Loader { return m.container.Loader() }

func (m *Module) Validator() *Validator { return m.container.Validator() }

func (m *Module) Languages() *Languages { return m.container.Languages() }

// Commands returns nil unless Config.Commands.Enabled is set.
func (m *Module) Commands() *AdminCommands { return m.container.Commands() }

// Catalog returns nil unless the catalog source is configured.
func (m *Module) Catalog() CatalogRepository { return m.container.CatalogRepository() }

// Validate checks set against the configured languages.
func (m *Module) Validate(set BundleSet) ValidationResult {
	return m.container.Validator().Validate(set)
}

// ErrCatalogUnavailable is returned by Import when the module has no catalog.
var ErrCatalogUnavailable = errors.New("lingo: catalog source not configured")

// Import writes every bundle of set to the catalog and returns how many
// documents were stored. Change events reach a started module's resolver.
func (m *Module) Import(ctx context.Context, set BundleSet) (int, error) {
	repo := m.container.CatalogRepository()
	if repo == nil {
		return 0, ErrCatalogUnavailable
	}
	return catalog.Import(ctx, repo, set)
}

// LoadBundles reads every {namespace}/{language}.{ext} document under fsys.
func LoadBundles(fsys fs.FS) (BundleSet, error) {
	return bundle.LoadSet(fsys)
}

// Close stops background work and releases storage the module opened.
func (m *Module) Close() error {
	return m.container.Close()
}
