// Package validator checks translation bundles for structural drift against
// a base language and lints individual translated strings.
package validator

import (
	"fmt"
	"slices"
	"strings"

	"github.com/goliatone/go-lingo/internal/bundle"
	"github.com/goliatone/go-lingo/internal/languages"
)

// IssueType classifies a finding.
type IssueType string

const (
	MissingKey              IssueType = "missing_key"
	ExtraKey                IssueType = "extra_key"
	UnusedKey               IssueType = "unused_key"
	StructureMismatch       IssueType = "structure_mismatch"
	InconsistentPlaceholder IssueType = "inconsistent_placeholder"
	DuplicateValue          IssueType = "duplicate_value"
	InconsistentTag         IssueType = "inconsistent_tag"
	LengthMismatch          IssueType = "length_mismatch"
)

// PresenceKey marks issues about a whole language rather than one key.
const PresenceKey = "*"

// Issue is one error or warning. Key is a dotted path, or several paths
// joined by spaces for duplicate values.
type Issue struct {
	Key      string    `json:"key"`
	Language string    `json:"language,omitempty"`
	Type     IssueType `json:"type"`
	Message  string    `json:"message"`
}

// Result is a validation report. IsValid is true when Errors is empty.
type Result struct {
	IsValid  bool    `json:"isValid"`
	Errors   []Issue `json:"errors"`
	Warnings []Issue `json:"warnings"`
}

// Option configures a Validator.
type Option func(*Validator)

// WithBaseLanguage sets the language every other one is compared against.
func WithBaseLanguage(code string) Option {
	return func(v *Validator) {
		if code = strings.TrimSpace(code); code != "" {
			v.base = code
		}
	}
}

// WithLanguages sets the languages that must be present, in report order.
func WithLanguages(codes ...string) Option {
	return func(v *Validator) {
		v.languages = nil
		for _, code := range codes {
			if code = strings.TrimSpace(code); code != "" && !slices.Contains(v.languages, code) {
				v.languages = append(v.languages, code)
			}
		}
	}
}

// WithLengthRatio sets how many times longer than its source a translation
// may be before the string lint warns. Values below 1 are ignored.
func WithLengthRatio(ratio float64) Option {
	return func(v *Validator) {
		if ratio >= 1 {
			v.lengthRatio = ratio
		}
	}
}

// Validator holds no mutable state and is safe for concurrent use.
type Validator struct {
	base        string
	languages   []string
	lengthRatio float64
}

// New builds a validator. Without WithLanguages the default language table
// is required.
func New(opts ...Option) *Validator {
	v := &Validator{
		base:        languages.DefaultCode,
		languages:   slices.Clone(languages.DefaultCodes),
		lengthRatio: 2,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(v)
		}
	}
	return v
}

// BaseLanguage returns the comparison base.
func (v *Validator) BaseLanguage() string { return v.base }

// Languages returns the required languages with the base first.
func (v *Validator) Languages() []string {
	out := []string{v.base}
	for _, code := range v.languages {
		if code != v.base {
			out = append(out, code)
		}
	}
	return out
}

type report struct {
	errors   []Issue
	warnings []Issue
}

func (r *report) err(issue Issue)  { r.errors = append(r.errors, issue) }
func (r *report) warn(issue Issue) { r.warnings = append(r.warnings, issue) }

func (r *report) result() Result {
	res := Result{Errors: r.errors, Warnings: r.warnings}
	if res.Errors == nil {
		res.Errors = []Issue{}
	}
	if res.Warnings == nil {
		res.Warnings = []Issue{}
	}
	res.IsValid = len(res.Errors) == 0
	return res
}

// Validate compares every required language of set against the base
// language. A missing language is reported and stops the remaining checks.
// Output order is deterministic: languages in configured order, keys
// depth-first in document order.
func (v *Validator) Validate(set bundle.Set) Result {
	var rep report
	codes := v.Languages()

	for _, code := range codes {
		if root, ok := set[code]; !ok || !root.IsTree() {
			rep.err(Issue{
				Key:      PresenceKey,
				Language: code,
				Type:     MissingKey,
				Message:  fmt.Sprintf("missing translations for language %q", code),
			})
		}
	}
	if len(rep.errors) > 0 {
		return rep.result()
	}

	base := set[v.base]
	for _, code := range codes {
		tree := set[code]
		if code != v.base {
			diffTrees(&rep, code, base, tree, nil)
		}
		duplicates(&rep, code, tree)
		if code != v.base {
			comparePlaceholders(&rep, code, base, tree)
		}
	}
	return rep.result()
}

func joinPath(parent []string, name string) []string {
	path := make([]string, len(parent), len(parent)+1)
	copy(path, parent)
	return append(path, name)
}

func diffTrees(rep *report, code string, base, other *bundle.Node, parent []string) {
	for _, name := range base.Keys() {
		path := joinPath(parent, name)
		key := strings.Join(path, ".")
		baseChild, _ := base.Child(name)
		otherChild, ok := other.Child(name)
		switch {
		case !ok:
			rep.err(Issue{Key: key, Language: code, Type: MissingKey,
				Message: fmt.Sprintf("missing key %q", key)})
		case baseChild.Kind() != otherChild.Kind():
			rep.err(Issue{Key: key, Language: code, Type: StructureMismatch,
				Message: fmt.Sprintf("expected %s at %q, found %s", baseChild.Kind(), key, otherChild.Kind())})
		case baseChild.IsTree():
			diffTrees(rep, code, baseChild, otherChild, path)
		}
	}
	for _, name := range other.Keys() {
		if _, ok := base.Child(name); ok {
			continue
		}
		key := strings.Join(joinPath(parent, name), ".")
		rep.err(Issue{Key: key, Language: code, Type: ExtraKey,
			Message: fmt.Sprintf("extra key %q not present in base language", key)})
	}
}

func duplicates(rep *report, code string, tree *bundle.Node) {
	paths := map[string][]string{}
	var order []string
	tree.Walk(func(path []string, value string) {
		if _, seen := paths[value]; !seen {
			order = append(order, value)
		}
		paths[value] = append(paths[value], strings.Join(path, "."))
	})
	for _, value := range order {
		keys := paths[value]
		if len(keys) < 2 {
			continue
		}
		rep.warn(Issue{
			Key:      strings.Join(keys, " "),
			Language: code,
			Type:     DuplicateValue,
			Message:  fmt.Sprintf("value %q is used by %d keys", value, len(keys)),
		})
	}
}

func comparePlaceholders(rep *report, code string, base, other *bundle.Node) {
	base.Walk(func(path []string, source string) {
		translation, ok := other.LookupString(path...)
		if !ok {
			return
		}
		key := strings.Join(path, ".")
		for _, issue := range diffTokens(placeholders(source), placeholders(translation), InconsistentPlaceholder, "placeholder") {
			issue.Key = key
			issue.Language = code
			rep.warn(issue)
		}
	})
}
