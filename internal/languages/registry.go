// Package languages holds the static table of supported languages and
// normalizes, matches and describes language codes against it.
package languages

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"golang.org/x/text/language"
)

// Direction is the writing direction of a language.
type Direction string

const (
	LTR Direction = "ltr"
	RTL Direction = "rtl"
)

// DefaultCode is the fallback language when none is configured.
const DefaultCode = "en"

// DefaultCodes lists the languages supported out of the box.
var DefaultCodes = []string{"en", "fr", "es", "de", "it", "ja", "ko", "zh"}

var (
	ErrUnknownLanguage    = errors.New("languages: unknown language code")
	ErrDefaultUnsupported = errors.New("languages: default language must be one of the supported codes")
)

// Language carries display metadata for a language code.
type Language struct {
	Code       string       `json:"code"`
	Name       string       `json:"name"`
	NativeName string       `json:"nativeName"`
	Region     string       `json:"region"`
	Direction  Direction    `json:"direction"`
	Flag       string       `json:"flag"`
	Tag        language.Tag `json:"-"`
}

var table = map[string]Language{
	"en": {Code: "en", Name: "English", NativeName: "English", Region: "US", Direction: LTR, Flag: "🇺🇸"},
	"fr": {Code: "fr", Name: "French", NativeName: "Français", Region: "FR", Direction: LTR, Flag: "🇫🇷"},
	"es": {Code: "es", Name: "Spanish", NativeName: "Español", Region: "ES", Direction: LTR, Flag: "🇪🇸"},
	"de": {Code: "de", Name: "German", NativeName: "Deutsch", Region: "DE", Direction: LTR, Flag: "🇩🇪"},
	"it": {Code: "it", Name: "Italian", NativeName: "Italiano", Region: "IT", Direction: LTR, Flag: "🇮🇹"},
	"ja": {Code: "ja", Name: "Japanese", NativeName: "日本語", Region: "JP", Direction: LTR, Flag: "🇯🇵"},
	"ko": {Code: "ko", Name: "Korean", NativeName: "한국어", Region: "KR", Direction: LTR, Flag: "🇰🇷"},
	"zh": {Code: "zh", Name: "Chinese", NativeName: "中文", Region: "CN", Direction: LTR, Flag: "🇨🇳"},
	"pt": {Code: "pt", Name: "Portuguese", NativeName: "Português", Region: "PT", Direction: LTR, Flag: "🇵🇹"},
	"nl": {Code: "nl", Name: "Dutch", NativeName: "Nederlands", Region: "NL", Direction: LTR, Flag: "🇳🇱"},
	"ar": {Code: "ar", Name: "Arabic", NativeName: "العربية", Region: "SA", Direction: RTL, Flag: "🇸🇦"},
	"he": {Code: "he", Name: "Hebrew", NativeName: "עברית", Region: "IL", Direction: RTL, Flag: "🇮🇱"},
}

// Known reports whether code has an entry in the built-in metadata table.
func Known(code string) bool {
	_, ok := table[canonical(code)]
	return ok
}

// Registry is the closed set of languages a runtime accepts. It is immutable
// after construction and safe for concurrent use.
type Registry struct {
	defaultCode string
	codes       []string
	byCode      map[string]Language
	tags        []language.Tag
	matcher     language.Matcher
}

// NewRegistry builds a registry for codes with defaultCode as the fallback.
// Codes must appear in the built-in table; duplicates are ignored.
func NewRegistry(defaultCode string, codes ...string) (*Registry, error) {
	defaultCode = canonical(defaultCode)
	if defaultCode == "" {
		defaultCode = DefaultCode
	}
	if len(codes) == 0 {
		codes = DefaultCodes
	}

	r := &Registry{
		defaultCode: defaultCode,
		byCode:      make(map[string]Language, len(codes)),
	}
	for _, raw := range codes {
		code := canonical(raw)
		meta, ok := table[code]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownLanguage, raw)
		}
		if _, seen := r.byCode[code]; seen {
			continue
		}
		meta.Tag = language.Make(code)
		r.byCode[code] = meta
		r.codes = append(r.codes, code)
	}
	if _, ok := r.byCode[defaultCode]; !ok {
		return nil, fmt.Errorf("%w: %q", ErrDefaultUnsupported, defaultCode)
	}

	// the default goes first so the matcher falls back to it
	r.tags = append(r.tags, r.byCode[defaultCode].Tag)
	for _, code := range r.codes {
		if code != defaultCode {
			r.tags = append(r.tags, r.byCode[code].Tag)
		}
	}
	r.matcher = language.NewMatcher(r.tags)
	return r, nil
}

// Default returns the registry for DefaultCodes with English as the fallback.
func Default() *Registry {
	r, err := NewRegistry(DefaultCode, DefaultCodes...)
	if err != nil {
		panic(err)
	}
	return r
}

// DefaultCode returns the fallback language.
func (r *Registry) DefaultCode() string { return r.defaultCode }

// Codes returns the supported codes in configuration order.
func (r *Registry) Codes() []string { return slices.Clone(r.codes) }

// Supported reports whether code is in the registry. Matching is exact after
// trimming and lowercasing.
func (r *Registry) Supported(code string) bool {
	_, ok := r.byCode[canonical(code)]
	return ok
}

// Normalize returns code when supported and the default language otherwise.
func (r *Registry) Normalize(code string) string {
	code = canonical(code)
	if _, ok := r.byCode[code]; ok {
		return code
	}
	return r.defaultCode
}

// Lookup returns the metadata for a supported code.
func (r *Registry) Lookup(code string) (Language, bool) {
	meta, ok := r.byCode[canonical(code)]
	return meta, ok
}

// Languages returns metadata for every supported code in configuration order.
func (r *Registry) Languages() []Language {
	out := make([]Language, 0, len(r.codes))
	for _, code := range r.codes {
		out = append(out, r.byCode[code])
	}
	return out
}

// Direction returns the writing direction of code, or of the default
// language when code is unsupported.
func (r *Registry) Direction(code string) Direction {
	return r.byCode[r.Normalize(code)].Direction
}

// Match picks the best supported code for an Accept-Language header value.
// Unparseable or unmatched headers yield the default language.
func (r *Registry) Match(acceptLanguage string) string {
	acceptLanguage = strings.TrimSpace(acceptLanguage)
	if acceptLanguage == "" {
		return r.defaultCode
	}
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return r.defaultCode
	}
	_, index, confidence := r.matcher.Match(tags...)
	if confidence == language.No || index < 0 || index >= len(r.tags) {
		return r.defaultCode
	}
	base, _ := r.tags[index].Base()
	return r.Normalize(base.String())
}

func canonical(code string) string {
	return strings.ToLower(strings.TrimSpace(code))
}
