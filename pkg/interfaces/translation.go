package interfaces

import "errors"

// ErrTranslationMissing is returned when a requested key has no translation.
var ErrTranslationMissing = errors.New("translation missing")

// TranslationMeta describes how a key was resolved.
type TranslationMeta struct {
	RequestedLocale string `json:"requested_locale"`
	ResolvedLocale  string `json:"resolved_locale"`
	Namespace       string `json:"namespace"`
	Source          string `json:"source"`
	Missing         bool   `json:"missing"`
	FallbackUsed    bool   `json:"fallback_used"`
}

// Map renders the metadata with its JSON field names as keys.
func (m TranslationMeta) Map() map[string]any {
	return map[string]any{
		"requested_locale": m.RequestedLocale,
		"resolved_locale":  m.ResolvedLocale,
		"namespace":        m.Namespace,
		"source":           m.Source,
		"missing":          m.Missing,
		"fallback_used":    m.FallbackUsed,
	}
}
