package i18n

import (
	"strings"

	"github.com/goliatone/go-lingo/pkg/interfaces"
)

// Service exposes translation to presentation layers.
type Service interface {
	Translator() interfaces.Translator
	TemplateHelpers(cfg HelperConfig) map[string]any
	DefaultLocale() string
}

// HelperConfig controls the template helper map. Empty names fall back to
// "translate" and "match_language".
type HelperConfig struct {
	TranslateName string
	MatchName     string
	// OnMissing renders missing keys. The key itself is used when nil.
	OnMissing  interfaces.MissingTranslationHandler
	Negotiator interfaces.LanguageNegotiator
}

type service struct {
	translator    interfaces.Translator
	defaultLocale string
}

// NewService wraps translator. Calls with an empty locale use defaultLocale.
func NewService(translator interfaces.Translator, defaultLocale string) Service {
	if translator == nil {
		return NewNoOpService()
	}
	return &service{translator: translator, defaultLocale: defaultLocale}
}

func (s *service) Translator() interfaces.Translator {
	return defaultingTranslator{inner: s.translator, locale: s.defaultLocale}
}

func (s *service) DefaultLocale() string { return s.defaultLocale }

func (s *service) TemplateHelpers(cfg HelperConfig) map[string]any {
	return helpers(s.Translator(), s.defaultLocale, cfg)
}

type defaultingTranslator struct {
	inner  interfaces.Translator
	locale string
}

func (t defaultingTranslator) Translate(locale, key string, args ...any) (string, error) {
	if strings.TrimSpace(locale) == "" {
		locale = t.locale
	}
	return t.inner.Translate(locale, key, args...)
}

func helpers(translator interfaces.Translator, defaultLocale string, cfg HelperConfig) map[string]any {
	translateName := cfg.TranslateName
	if translateName == "" {
		translateName = "translate"
	}
	matchName := cfg.MatchName
	if matchName == "" {
		matchName = "match_language"
	}

	out := map[string]any{
		translateName: func(locale, key string, args ...any) string {
			value, err := translator.Translate(locale, key, args...)
			if err != nil && cfg.OnMissing != nil {
				return cfg.OnMissing(locale, key, args, err)
			}
			return value
		},
	}
	out[matchName] = func(header string) string {
		if cfg.Negotiator == nil {
			return defaultLocale
		}
		return cfg.Negotiator.Match(header)
	}
	return out
}

// NoOpService echoes keys back.
type NoOpService struct{}

// NewNoOpService returns a service whose translator echoes keys.
func NewNoOpService() Service {
	return NoOpService{}
}

func (NoOpService) Translator() interfaces.Translator {
	return noopTranslator{}
}

func (NoOpService) TemplateHelpers(cfg HelperConfig) map[string]any {
	return helpers(noopTranslator{}, "", cfg)
}

func (NoOpService) DefaultLocale() string {
	return ""
}

type noopTranslator struct{}

func (noopTranslator) Translate(_ string, key string, _ ...any) (string, error) {
	return key, nil
}
