// Package admincmd exposes the runtime's administrative operations as
// go-command messages.
package admincmd

import (
	"io"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/goliatone/go-lingo/internal/languages"
)

const (
	clearCacheMessageType        = "lingo.cache.clear"
	resetMetricsMessageType      = "lingo.metrics.reset"
	setDebugModeMessageType      = "lingo.debug.set_mode"
	exportDebugMessageType       = "lingo.debug.export"
	preloadBundlesMessageType    = "lingo.bundles.preload"
	invalidateBundlesMessageType = "lingo.bundles.invalidate"
)

var knownLanguage = validation.By(func(value any) error {
	code, _ := value.(string)
	if code == "" || languages.Known(code) {
		return nil
	}
	return validation.NewError("lingo.language.unknown", "unknown language code")
})

// ClearCacheCommand empties the resolved-string cache, or one language's
// partition when Language is set.
type ClearCacheCommand struct {
	Language string `json:"language,omitempty"`
}

func (ClearCacheCommand) Type() string { return clearCacheMessageType }

func (m ClearCacheCommand) Validate() error {
	return validation.ValidateStruct(&m,
		validation.Field(&m.Language, knownLanguage),
	)
}

// ResetMetricsCommand drops every metric record and counter.
type ResetMetricsCommand struct{}

func (ResetMetricsCommand) Type() string { return resetMetricsMessageType }

func (ResetMetricsCommand) Validate() error { return nil }

// SetDebugModeCommand toggles the debug recorder. Disabling clears it.
type SetDebugModeCommand struct {
	Enabled bool `json:"enabled"`
}

func (SetDebugModeCommand) Type() string { return setDebugModeMessageType }

func (SetDebugModeCommand) Validate() error { return nil }

// ExportDebugCommand writes the debug snapshot as JSON to Writer.
type ExportDebugCommand struct {
	Writer io.Writer `json:"-"`
}

func (ExportDebugCommand) Type() string { return exportDebugMessageType }

func (m ExportDebugCommand) Validate() error {
	if m.Writer == nil {
		return validation.Errors{
			"writer": validation.NewError("lingo.debug.export.writer_required", "writer is required"),
		}
	}
	return nil
}

// PreloadBundlesCommand warms the loader for every language/namespace pair.
type PreloadBundlesCommand struct {
	Languages  []string `json:"languages"`
	Namespaces []string `json:"namespaces"`
}

func (PreloadBundlesCommand) Type() string { return preloadBundlesMessageType }

func (m PreloadBundlesCommand) Validate() error {
	return validation.ValidateStruct(&m,
		validation.Field(&m.Languages, validation.Required, validation.Each(validation.Required, knownLanguage)),
		validation.Field(&m.Namespaces, validation.Required, validation.Each(validation.Required)),
	)
}

// InvalidateBundlesCommand drops loaded bundles and cached strings for a
// namespace. An empty Language targets every language.
type InvalidateBundlesCommand struct {
	Language  string `json:"language,omitempty"`
	Namespace string `json:"namespace"`
}

func (InvalidateBundlesCommand) Type() string { return invalidateBundlesMessageType }

func (m InvalidateBundlesCommand) Validate() error {
	errs := validation.Errors{}
	if strings.TrimSpace(m.Namespace) == "" {
		errs["namespace"] = validation.NewError("lingo.bundles.invalidate.namespace_required", "namespace is required")
	}
	if err := knownLanguage.Validate(m.Language); err != nil {
		errs["language"] = err
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}
