package resolver

import (
	"context"
	"strings"

	"github.com/goliatone/go-lingo/internal/debug"
	"github.com/goliatone/go-lingo/pkg/interfaces"
)

// Translate satisfies interfaces.Translator. args are either one map or
// alternating name/value pairs. A missing translation returns the key along
// with an error matching interfaces.ErrTranslationMissing.
func (r *Resolver) Translate(locale, key string, args ...any) (string, error) {
	return r.Lookup(context.Background(), locale, key, Values(args...))
}

// TranslateWithMetadata also reports how the key was resolved.
func (r *Resolver) TranslateWithMetadata(locale, key string, args ...any) (string, map[string]any, error) {
	out := r.resolve(context.Background(), locale, key, Values(args...))
	requested := strings.ToLower(strings.TrimSpace(locale))
	meta := interfaces.TranslationMeta{
		RequestedLocale: locale,
		ResolvedLocale:  out.language,
		Namespace:       out.namespace,
		Source:          string(out.source),
		Missing:         !out.found,
		FallbackUsed:    requested != out.language,
	}
	if out.fallback {
		meta.ResolvedLocale = r.languages.DefaultCode()
		meta.Source = string(debug.SourceFallback)
		meta.FallbackUsed = true
	}
	return out.value, meta.Map(), out.err
}
