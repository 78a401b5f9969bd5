package resolver

import (
	"fmt"
	"regexp"
)

var placeholderPattern = regexp.MustCompile(`\{\{([^{}]*)\}\}`)

// Interpolate replaces every {{name}} in value with values[name]. Names are
// matched verbatim, whitespace included. Placeholders without a value (or
// with a nil value) are left in place so gaps stay visible.
func Interpolate(value string, values map[string]any) string {
	if len(values) == 0 {
		return value
	}
	return placeholderPattern.ReplaceAllStringFunc(value, func(match string) string {
		name := match[2 : len(match)-2]
		v, ok := values[name]
		if !ok || v == nil {
			return match
		}
		return fmt.Sprint(v)
	})
}

// Values builds an interpolation map from translator arguments: either a
// single map[string]any / map[string]string, or alternating name/value
// pairs. A trailing name without a value is ignored.
func Values(args ...any) map[string]any {
	if len(args) == 0 {
		return nil
	}
	if len(args) == 1 {
		switch m := args[0].(type) {
		case map[string]any:
			return m
		case map[string]string:
			out := make(map[string]any, len(m))
			for k, v := range m {
				out[k] = v
			}
			return out
		}
	}
	out := make(map[string]any, len(args)/2)
	for i := 0; i+1 < len(args); i += 2 {
		name, ok := args[i].(string)
		if !ok {
			name = fmt.Sprint(args[i])
		}
		out[name] = args[i+1]
	}
	return out
}
