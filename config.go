package lingo

import "github.com/goliatone/go-lingo/internal/runtimeconfig"

var (
	ErrDefaultLanguageNotListed = runtimeconfig.ErrDefaultLanguageNotListed
	ErrLoaderSourceUnknown      = runtimeconfig.ErrLoaderSourceUnknown
	ErrLoaderDirRequired        = runtimeconfig.ErrLoaderDirRequired
	ErrWatchRequiresFS          = runtimeconfig.ErrWatchRequiresFS
	ErrCatalogDriverUnknown     = runtimeconfig.ErrCatalogDriverUnknown
	ErrCatalogDSNRequired       = runtimeconfig.ErrCatalogDSNRequired
	ErrLoggingProviderRequired  = runtimeconfig.ErrLoggingProviderRequired
	ErrLoggingProviderUnknown   = runtimeconfig.ErrLoggingProviderUnknown
	ErrLoggingLevelInvalid      = runtimeconfig.ErrLoggingLevelInvalid
	ErrLoggingFormatInvalid     = runtimeconfig.ErrLoggingFormatInvalid
)

type (
	Config          = runtimeconfig.Config
	CacheConfig     = runtimeconfig.CacheConfig
	MetricsConfig   = runtimeconfig.MetricsConfig
	DebugConfig     = runtimeconfig.DebugConfig
	LoaderConfig    = runtimeconfig.LoaderConfig
	CatalogConfig   = runtimeconfig.CatalogConfig
	ValidatorConfig = runtimeconfig.ValidatorConfig
	LoggingConfig   = runtimeconfig.LoggingConfig
	CommandsConfig  = runtimeconfig.CommandsConfig
)

// Loader sources.
const (
	SourceFS      = runtimeconfig.SourceFS
	SourceCatalog = runtimeconfig.SourceCatalog
	SourceCustom  = runtimeconfig.SourceCustom
)

func DefaultConfig() Config {
	return runtimeconfig.DefaultConfig()
}

// LoadConfig reads a YAML or TOML file and overlays LINGO_* environment
// variables.
func LoadConfig(path string) (Config, error) {
	cfg, err := runtimeconfig.LoadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := runtimeconfig.ApplyEnv(&cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}
