package validator

import (
	"testing"
)

func TestValidateString(t *testing.T) {
	v := New()
	cases := []struct {
		name        string
		source      string
		translation string
		want        []string
	}{
		{"clean", "Hello {name}", "Bonjour {name}", nil},
		{"missing placeholder", "Hello {name}", "Bonjour", []string{"inconsistent_placeholder: missing placeholder {name}"}},
		{"extra placeholder", "Hello there", "Hallo {who}", []string{"inconsistent_placeholder: extra placeholder {who}"}},
		{"missing tag", "Click <b>here</b>", "Cliquez ici", []string{"inconsistent_tag: missing tag <b>"}},
		{"extra tag", "Click here to continue", "Cliquez <a href=\"#\">ici</a>", []string{"inconsistent_tag: extra tag <a>"}},
		{"too long", "Save", "Sauvegarder", []string{"length_mismatch: translation is 11 characters, more than 2 times the source (4)"}},
		{"exactly double is fine", "Save", "Speicher", nil},
		{"runes not bytes", "日本", "日本語版", nil},
		{"empty source skips length", "", "anything", nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			issues := v.ValidateString(tc.source, tc.translation)
			if issues == nil {
				t.Fatalf("expected non-nil slice")
			}
			var got []string
			for _, issue := range issues {
				got = append(got, string(issue.Type)+": "+issue.Message)
			}
			if len(got) != len(tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, got)
			}
			for i := range got {
				if got[i] != tc.want[i] {
					t.Fatalf("expected %v, got %v", tc.want, got)
				}
			}
		})
	}
}

func TestValidateStringLengthRatio(t *testing.T) {
	v := New(WithLengthRatio(3))
	if issues := v.ValidateString("Save", "Sauvegarder"); len(issues) != 0 {
		t.Fatalf("expected no issues with ratio 3, got %+v", issues)
	}
}
