package validator

import (
	"fmt"
	"regexp"
	"slices"
	"unicode/utf8"
)

var (
	placeholderPattern = regexp.MustCompile(`\{([^{}\s]+)\}`)
	tagPattern         = regexp.MustCompile(`</?([A-Za-z][A-Za-z0-9-]*)[^<>]*>`)
)

func uniqueMatches(pattern *regexp.Regexp, value string) []string {
	var out []string
	for _, match := range pattern.FindAllStringSubmatch(value, -1) {
		if !slices.Contains(out, match[1]) {
			out = append(out, match[1])
		}
	}
	return out
}

// placeholders returns the distinct {name} tokens in order of appearance.
func placeholders(value string) []string {
	return uniqueMatches(placeholderPattern, value)
}

// tags returns the distinct element names of <tag> and </tag> tokens.
func tags(value string) []string {
	return uniqueMatches(tagPattern, value)
}

func diffTokens(source, translation []string, kind IssueType, noun string) []Issue {
	var issues []Issue
	format := "{%s}"
	if kind == InconsistentTag {
		format = "<%s>"
	}
	for _, token := range source {
		if !slices.Contains(translation, token) {
			issues = append(issues, Issue{Type: kind,
				Message: fmt.Sprintf("missing %s "+format, noun, token)})
		}
	}
	for _, token := range translation {
		if !slices.Contains(source, token) {
			issues = append(issues, Issue{Type: kind,
				Message: fmt.Sprintf("extra %s "+format, noun, token)})
		}
	}
	return issues
}

// ValidateString lints one translated string against its source: placeholder
// and tag consistency, plus a warning when the translation is longer than
// the configured ratio of the source length. Every issue is advisory.
func (v *Validator) ValidateString(source, translation string) []Issue {
	issues := diffTokens(placeholders(source), placeholders(translation), InconsistentPlaceholder, "placeholder")
	issues = append(issues, diffTokens(tags(source), tags(translation), InconsistentTag, "tag")...)

	sourceLen := utf8.RuneCountInString(source)
	translationLen := utf8.RuneCountInString(translation)
	if sourceLen > 0 && float64(translationLen) > v.lengthRatio*float64(sourceLen) {
		issues = append(issues, Issue{
			Type: LengthMismatch,
			Message: fmt.Sprintf("translation is %d characters, more than %g times the source (%d)",
				translationLen, v.lengthRatio, sourceLen),
		})
	}
	if issues == nil {
		issues = []Issue{}
	}
	return issues
}
