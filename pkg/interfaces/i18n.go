package interfaces

import "context"

// Translator is the narrow contract presentation layers consume.
type Translator interface {
	Translate(locale, key string, args ...any) (string, error)
}

// TranslatorWithMetadata exposes how a key was resolved alongside the value.
type TranslatorWithMetadata interface {
	TranslateWithMetadata(locale, key string, args ...any) (string, map[string]any, error)
}

// Resolver resolves a dotted key for a language. Implementations never fail:
// missing translations degrade to the key itself.
type Resolver interface {
	Resolve(ctx context.Context, language, key string, values map[string]any) string
}

type MissingTranslationHandler func(locale, key string, args []any, err error) string

// LanguageNegotiator picks a supported language from an Accept-Language style header.
type LanguageNegotiator interface {
	Match(acceptLanguage string) string
	DefaultCode() string
}
