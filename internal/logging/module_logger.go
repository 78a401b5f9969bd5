package logging

import (
	"context"

	"github.com/goliatone/go-lingo/pkg/interfaces"
)

// Module names handed to the logger provider.
const (
	RootModule     = "lingo"
	CacheModule    = "lingo.cache"
	LoaderModule   = "lingo.loader"
	ResolverModule = "lingo.resolver"
	DebugModule    = "lingo.debug"
	CatalogModule  = "lingo.catalog"
	CommandsModule = "lingo.commands"
)

// ModuleLogger returns a module-scoped logger, defaulting to a no-op
// implementation when no provider is supplied. The module identifier is
// attached as a structured field so entries can be filtered per component.
func ModuleLogger(provider interfaces.LoggerProvider, module string) interfaces.Logger {
	if module == "" {
		module = RootModule
	}

	logger := NoOp()
	if provider != nil {
		if provided := provider.GetLogger(module); provided != nil {
			logger = provided
		}
	}

	return WithFields(logger, map[string]any{
		"module": module,
	})
}

// WithTranslation enriches a logger with the language/namespace pair a
// component is working on. Empty values are skipped.
func WithTranslation(logger interfaces.Logger, language, namespace string) interfaces.Logger {
	fields := map[string]any{}
	if language != "" {
		fields["language"] = language
	}
	if namespace != "" {
		fields["namespace"] = namespace
	}
	return WithFields(logger, fields)
}

// NoOp returns a logger that drops every entry.
func NoOp() interfaces.Logger {
	return noopLogger{}
}

// Ensure returns logger, or a no-op logger when nil.
func Ensure(logger interfaces.Logger) interfaces.Logger {
	if logger == nil {
		return NoOp()
	}
	return logger
}

type noopLogger struct{}

var _ interfaces.Logger = noopLogger{}

func (noopLogger) Trace(string, ...any) {}
func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}
func (noopLogger) Fatal(string, ...any) {}

func (n noopLogger) WithFields(map[string]any) interfaces.Logger {
	return n
}

func (n noopLogger) WithContext(context.Context) interfaces.Logger {
	return n
}
