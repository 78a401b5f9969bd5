package runtimeconfig

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	goerrors "github.com/goliatone/go-errors"
	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-lingo/internal/languages"
)

// TextCodeInvalid tags every error returned by Validate.
const TextCodeInvalid = "CONFIG_INVALID"

// EnvPrefix is prepended to every environment variable read by ApplyEnv.
const EnvPrefix = "LINGO_"

// Bundle sources understood by the composition root.
const (
	SourceFS      = "fs"
	SourceCatalog = "catalog"
	// SourceCustom expects the host to supply a fetcher.
	SourceCustom = "custom"
)

var ErrDefaultLanguageNotListed = errors.New("lingo config: default language must be listed in languages")
var ErrLoaderSourceUnknown = errors.New("lingo config: loader source is invalid")
var ErrLoaderDirRequired = errors.New("lingo config: loader directory is required for the fs source")
var ErrWatchRequiresFS = errors.New("lingo config: watching requires the fs source")
var ErrCatalogDriverUnknown = errors.New("lingo config: catalog driver is invalid")
var ErrCatalogDSNRequired = errors.New("lingo config: catalog dsn is required for the catalog source")
var ErrLoggingProviderRequired = errors.New("lingo config: logging provider is required")
var ErrLoggingProviderUnknown = errors.New("lingo config: logging provider is invalid")
var ErrLoggingLevelInvalid = errors.New("lingo config: logging level is invalid")
var ErrLoggingFormatInvalid = errors.New("lingo config: logging format is invalid")

// ErrConfigFormatUnsupported is returned by LoadFile for unknown extensions.
var ErrConfigFormatUnsupported = errors.New("lingo config: unsupported config file format")

// Config aggregates the runtime knobs of the translation module.
type Config struct {
	DefaultLanguage string          `yaml:"default_language" toml:"default_language" env:"DEFAULT_LANGUAGE"`
	Languages       []string        `yaml:"languages" toml:"languages" env:"LANGUAGES" envSeparator:","`
	Cache           CacheConfig     `yaml:"cache" toml:"cache" envPrefix:"CACHE_"`
	Metrics         MetricsConfig   `yaml:"metrics" toml:"metrics" envPrefix:"METRICS_"`
	Debug           DebugConfig     `yaml:"debug" toml:"debug" envPrefix:"DEBUG_"`
	Loader          LoaderConfig    `yaml:"loader" toml:"loader" envPrefix:"LOADER_"`
	Catalog         CatalogConfig   `yaml:"catalog" toml:"catalog" envPrefix:"CATALOG_"`
	Validator       ValidatorConfig `yaml:"validator" toml:"validator" envPrefix:"VALIDATOR_"`
	Logging         LoggingConfig   `yaml:"logging" toml:"logging" envPrefix:"LOGGING_"`
	Commands        CommandsConfig  `yaml:"commands" toml:"commands" envPrefix:"COMMANDS_"`
}

// CacheConfig bounds the resolved-string cache.
type CacheConfig struct {
	MaxSize    int           `yaml:"max_size" toml:"max_size" env:"MAX_SIZE"`
	DefaultTTL time.Duration `yaml:"default_ttl" toml:"default_ttl" env:"DEFAULT_TTL"`
}

// MetricsConfig controls the in-memory collector and its OpenTelemetry mirror.
type MetricsConfig struct {
	Retention time.Duration `yaml:"retention" toml:"retention" env:"RETENTION"`
	OTel      bool          `yaml:"otel" toml:"otel" env:"OTEL"`
}

// DebugConfig controls the resolution ring buffer.
type DebugConfig struct {
	Enabled       bool          `yaml:"enabled" toml:"enabled" env:"ENABLED"`
	MaxLogSize    int           `yaml:"max_log_size" toml:"max_log_size" env:"MAX_LOG_SIZE"`
	SlowThreshold time.Duration `yaml:"slow_threshold" toml:"slow_threshold" env:"SLOW_THRESHOLD"`
}

// LoaderConfig selects where bundles come from.
type LoaderConfig struct {
	Source   string        `yaml:"source" toml:"source" env:"SOURCE"`
	Dir      string        `yaml:"dir" toml:"dir" env:"DIR"`
	Watch    bool          `yaml:"watch" toml:"watch" env:"WATCH"`
	Debounce time.Duration `yaml:"debounce" toml:"debounce" env:"DEBOUNCE"`
	Preload  []string      `yaml:"preload" toml:"preload" env:"PRELOAD" envSeparator:","`
}

// CatalogConfig describes the database backing the catalog source.
// CacheTTL of zero disables the repository read cache.
type CatalogConfig struct {
	Driver   string        `yaml:"driver" toml:"driver" env:"DRIVER"`
	DSN      string        `yaml:"dsn" toml:"dsn" env:"DSN"`
	CacheTTL time.Duration `yaml:"cache_ttl" toml:"cache_ttl" env:"CACHE_TTL"`
	Migrate  bool          `yaml:"migrate" toml:"migrate" env:"MIGRATE"`
}

// ValidatorConfig tunes bundle validation.
type ValidatorConfig struct {
	BaseLanguage string  `yaml:"base_language" toml:"base_language" env:"BASE_LANGUAGE"`
	LengthRatio  float64 `yaml:"length_ratio" toml:"length_ratio" env:"LENGTH_RATIO"`
}

// LoggingConfig captures provider-specific options for runtime logging.
type LoggingConfig struct {
	Provider  string   `yaml:"provider" toml:"provider" env:"PROVIDER"`
	Level     string   `yaml:"level" toml:"level" env:"LEVEL"`
	Format    string   `yaml:"format" toml:"format" env:"FORMAT"`
	AddSource bool     `yaml:"add_source" toml:"add_source" env:"ADD_SOURCE"`
	Focus     []string `yaml:"focus" toml:"focus" env:"FOCUS" envSeparator:","`
}

// CommandsConfig captures optional command-layer behaviour.
type CommandsConfig struct {
	Enabled                bool          `yaml:"enabled" toml:"enabled" env:"ENABLED"`
	AutoRegisterDispatcher bool          `yaml:"auto_register_dispatcher" toml:"auto_register_dispatcher" env:"AUTO_REGISTER_DISPATCHER"`
	Timeout                time.Duration `yaml:"timeout" toml:"timeout" env:"TIMEOUT"`
}

// DefaultConfig returns defaults matching the documented component behaviour.
func DefaultConfig() Config {
	return Config{
		DefaultLanguage: languages.DefaultCode,
		Languages:       slices.Clone(languages.DefaultCodes),
		Cache: CacheConfig{
			MaxSize:    1000,
			DefaultTTL: time.Hour,
		},
		Metrics: MetricsConfig{
			Retention: 24 * time.Hour,
		},
		Debug: DebugConfig{
			MaxLogSize:    1000,
			SlowThreshold: 100 * time.Millisecond,
		},
		Loader: LoaderConfig{
			Source:   SourceFS,
			Dir:      "locales",
			Debounce: 100 * time.Millisecond,
		},
		Catalog: CatalogConfig{
			Driver: "sqlite",
		},
		Validator: ValidatorConfig{
			BaseLanguage: languages.DefaultCode,
			LengthRatio:  2,
		},
		Logging: LoggingConfig{
			Provider: "console",
			Level:    "info",
		},
		Commands: CommandsConfig{
			Timeout: 30 * time.Second,
		},
	}
}

// Validate checks field ranges and cross-field consistency. Errors carry
// the validation category and the CONFIG_INVALID text code.
func (cfg Config) Validate() error {
	if err := cfg.validateFields(); err != nil {
		wrapped := goerrors.FromOzzoValidation(err, "invalid configuration").WithTextCode(TextCodeInvalid)
		wrapped.Source = err
		return wrapped
	}
	if err := cfg.validateConsistency(); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryValidation, "invalid configuration").WithTextCode(TextCodeInvalid)
	}
	return nil
}

func (cfg Config) validateFields() error {
	return validation.ValidateStruct(&cfg,
		validation.Field(&cfg.DefaultLanguage, validation.Required, validation.By(knownLanguage)),
		validation.Field(&cfg.Languages, validation.Required, validation.Each(validation.By(knownLanguage))),
		validation.Field(&cfg.Cache),
		validation.Field(&cfg.Metrics),
		validation.Field(&cfg.Debug),
		validation.Field(&cfg.Loader),
		validation.Field(&cfg.Validator),
		validation.Field(&cfg.Commands),
	)
}

// Validate implements validation.Validatable.
func (c CacheConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.MaxSize, validation.Required, validation.Min(1)),
		validation.Field(&c.DefaultTTL, validation.Min(time.Duration(0))),
	)
}

// Validate implements validation.Validatable.
func (c MetricsConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Retention, validation.Min(time.Duration(0))),
	)
}

// Validate implements validation.Validatable.
func (c DebugConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.MaxLogSize, validation.Required, validation.Min(1)),
		validation.Field(&c.SlowThreshold, validation.Min(time.Duration(0))),
	)
}

// Validate implements validation.Validatable.
func (c LoaderConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Debounce, validation.Min(time.Duration(0))),
		validation.Field(&c.Preload, validation.Each(validation.Required)),
	)
}

// Validate implements validation.Validatable.
func (c ValidatorConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.BaseLanguage, validation.By(knownLanguage)),
		validation.Field(&c.LengthRatio, validation.Min(0.0)),
	)
}

// Validate implements validation.Validatable.
func (c CommandsConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Timeout, validation.Min(time.Duration(0))),
	)
}

func knownLanguage(value any) error {
	code, _ := value.(string)
	if code == "" {
		return nil
	}
	if !languages.Known(code) {
		return validation.NewError("validation_language_unknown", fmt.Sprintf("unknown language %q", code))
	}
	return nil
}

func (cfg Config) validateConsistency() error {
	if !containsFold(cfg.Languages, cfg.DefaultLanguage) {
		return fmt.Errorf("%w: %s", ErrDefaultLanguageNotListed, cfg.DefaultLanguage)
	}

	source := NormalizeSource(cfg.Loader.Source)
	switch source {
	case SourceFS:
		if strings.TrimSpace(cfg.Loader.Dir) == "" {
			return ErrLoaderDirRequired
		}
	case SourceCatalog:
		if strings.TrimSpace(cfg.Catalog.DSN) == "" {
			return ErrCatalogDSNRequired
		}
	case SourceCustom:
	default:
		return fmt.Errorf("%w: %s", ErrLoaderSourceUnknown, source)
	}
	if cfg.Loader.Watch && source != SourceFS {
		return ErrWatchRequiresFS
	}
	if source == SourceCatalog || cfg.Catalog.Migrate {
		if driver := NormalizeDriver(cfg.Catalog.Driver); !isSupportedDriver(driver) {
			return fmt.Errorf("%w: %s", ErrCatalogDriverUnknown, driver)
		}
	}

	provider := normalizeProvider(cfg.Logging.Provider)
	if provider == "" {
		return ErrLoggingProviderRequired
	}
	if !isSupportedProvider(provider) {
		return fmt.Errorf("%w: %s", ErrLoggingProviderUnknown, provider)
	}
	if level := strings.TrimSpace(cfg.Logging.Level); level != "" && !isSupportedLevel(level) {
		return fmt.Errorf("%w: %s", ErrLoggingLevelInvalid, level)
	}
	if provider == "gologger" {
		if format := strings.TrimSpace(cfg.Logging.Format); format != "" && !isSupportedFormat(format) {
			return fmt.Errorf("%w: %s", ErrLoggingFormatInvalid, format)
		}
	}
	return nil
}

// LoadFile reads a YAML or TOML document over DefaultConfig. Keys missing
// from the document keep their default values.
func LoadFile(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("lingo config: read %s: %w", path, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &cfg)
	case ".toml":
		err = toml.Unmarshal(data, &cfg)
	default:
		return cfg, fmt.Errorf("%w: %s", ErrConfigFormatUnsupported, filepath.Ext(path))
	}
	if err != nil {
		return cfg, goerrors.Wrap(err, goerrors.CategoryBadInput, "decode config "+path).WithTextCode(TextCodeInvalid)
	}
	return cfg, nil
}

// ApplyEnv overlays LINGO_* environment variables onto cfg. Unset
// variables leave the current values untouched.
func ApplyEnv(cfg *Config) error {
	return ApplyEnvWith(cfg, nil)
}

// ApplyEnvWith is ApplyEnv with an explicit environment, used by tests and
// hosts that keep configuration outside the process environment.
func ApplyEnvWith(cfg *Config, environment map[string]string) error {
	if cfg == nil {
		return nil
	}
	opts := env.Options{Prefix: EnvPrefix}
	if environment != nil {
		opts.Environment = environment
	}
	if err := env.ParseWithOptions(cfg, opts); err != nil {
		return fmt.Errorf("lingo config: parse env: %w", err)
	}
	return nil
}

// NormalizeSource lowercases a loader source, defaulting to fs.
func NormalizeSource(source string) string {
	source = strings.ToLower(strings.TrimSpace(source))
	if source == "" {
		return SourceFS
	}
	return source
}

// NormalizeDriver maps driver aliases onto sqlite or postgres.
func NormalizeDriver(driver string) string {
	switch d := strings.ToLower(strings.TrimSpace(driver)); d {
	case "", "sqlite", "sqlite3":
		return "sqlite"
	case "postgres", "postgresql", "pg":
		return "postgres"
	default:
		return d
	}
}

func isSupportedDriver(driver string) bool {
	return driver == "sqlite" || driver == "postgres"
}

func containsFold(values []string, target string) bool {
	for _, value := range values {
		if strings.EqualFold(strings.TrimSpace(value), strings.TrimSpace(target)) {
			return true
		}
	}
	return false
}

func normalizeProvider(provider string) string {
	return strings.ToLower(strings.TrimSpace(provider))
}

func isSupportedProvider(provider string) bool {
	switch provider {
	case "console", "gologger":
		return true
	default:
		return false
	}
}

func isSupportedLevel(level string) bool {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace", "debug", "info", "warn", "warning", "error", "fatal":
		return true
	default:
		return false
	}
}

func isSupportedFormat(format string) bool {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "json", "console", "pretty":
		return true
	default:
		return false
	}
}
