package resolver

import "testing"

func TestInterpolate(t *testing.T) {
	cases := []struct {
		name   string
		value  string
		values map[string]any
		want   string
	}{
		{"single", "Hello {{name}}", map[string]any{"name": "World"}, "Hello World"},
		{"repeated", "{{a}}-{{a}}", map[string]any{"a": 1}, "1-1"},
		{"missing left literal", "Hi {{name}} {{other}}", map[string]any{"name": "Bo"}, "Hi Bo {{other}}"},
		{"nil value left literal", "Hi {{name}}", map[string]any{"name": nil}, "Hi {{name}}"},
		{"whitespace is part of the name", "Hi {{ name }}", map[string]any{"name": "Bo"}, "Hi {{ name }}"},
		{"single braces untouched", "Hi {name}", map[string]any{"name": "Bo"}, "Hi {name}"},
		{"no values", "Hi {{name}}", nil, "Hi {{name}}"},
		{"number", "{{count}} items", map[string]any{"count": 3.5}, "3.5 items"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Interpolate(tc.value, tc.values); got != tc.want {
				t.Fatalf("expected %q, got %q", tc.want, got)
			}
		})
	}
}

func TestValues(t *testing.T) {
	if got := Values(); got != nil {
		t.Fatalf("expected nil, got %v", got)
	}
	got := Values(map[string]string{"a": "b"})
	if got["a"] != "b" {
		t.Fatalf("unexpected map conversion %v", got)
	}
	got = Values("a", 1, "b", 2, "dangling")
	if len(got) != 2 || got["a"] != 1 || got["b"] != 2 {
		t.Fatalf("unexpected pairs %v", got)
	}
}
