package validator

import (
	"encoding/json"
	"reflect"
	"testing"

	"github.com/goliatone/go-lingo/internal/bundle"
)

func mustSet(t *testing.T, docs map[string]map[string]string) bundle.Set {
	t.Helper()
	set := bundle.Set{}
	for language, namespaces := range docs {
		for namespace, doc := range namespaces {
			tree, err := bundle.Decode(bundle.FormatJSON, []byte(doc))
			if err != nil {
				t.Fatalf("decode %s/%s: %v", namespace, language, err)
			}
			set.Put(language, namespace, tree)
		}
	}
	return set
}

func TestValidateMissingKey(t *testing.T) {
	set := mustSet(t, map[string]map[string]string{
		"en": {"common": `{"save": "Save", "cancel": "Cancel"}`},
		"fr": {"common": `{"save": "Enregistrer"}`},
	})
	v := New(WithBaseLanguage("en"), WithLanguages("en", "fr"))

	res := v.Validate(set)
	if res.IsValid {
		t.Fatalf("expected invalid result")
	}
	want := []Issue{{
		Key:      "common.cancel",
		Language: "fr",
		Type:     MissingKey,
		Message:  `missing key "common.cancel"`,
	}}
	if !reflect.DeepEqual(res.Errors, want) {
		t.Fatalf("unexpected errors %+v", res.Errors)
	}
}

func TestValidatePlaceholderMismatchIsWarning(t *testing.T) {
	set := mustSet(t, map[string]map[string]string{
		"en": {"common": `{"welcome": "Welcome to {site}"}`},
		"fr": {"common": `{"welcome": "Bienvenue"}`},
	})
	res := New(WithLanguages("en", "fr")).Validate(set)

	if !res.IsValid {
		t.Fatalf("placeholder drift must not invalidate, got %+v", res.Errors)
	}
	if len(res.Warnings) != 1 {
		t.Fatalf("expected one warning, got %+v", res.Warnings)
	}
	w := res.Warnings[0]
	if w.Type != InconsistentPlaceholder || w.Key != "common.welcome" || w.Message != "missing placeholder {site}" {
		t.Fatalf("unexpected warning %+v", w)
	}
}

func TestValidateExtraPlaceholder(t *testing.T) {
	set := mustSet(t, map[string]map[string]string{
		"en": {"common": `{"hi": "Hi"}`},
		"fr": {"common": `{"hi": "Salut {name}"}`},
	})
	res := New(WithLanguages("en", "fr")).Validate(set)
	if len(res.Warnings) != 1 || res.Warnings[0].Message != "extra placeholder {name}" {
		t.Fatalf("unexpected warnings %+v", res.Warnings)
	}
}

func TestValidateMissingLanguageShortCircuits(t *testing.T) {
	set := mustSet(t, map[string]map[string]string{
		"en": {"common": `{"save": "Save", "again": "Save"}`},
	})
	res := New(WithLanguages("en", "fr", "de")).Validate(set)

	if res.IsValid || len(res.Errors) != 2 {
		t.Fatalf("expected two presence errors, got %+v", res.Errors)
	}
	for i, code := range []string{"fr", "de"} {
		if res.Errors[i].Key != PresenceKey || res.Errors[i].Language != code || res.Errors[i].Type != MissingKey {
			t.Fatalf("unexpected presence error %+v", res.Errors[i])
		}
	}
	if len(res.Warnings) != 0 {
		t.Fatalf("expected checks to stop before duplicates, got %+v", res.Warnings)
	}
}

func TestValidateStructure(t *testing.T) {
	set := mustSet(t, map[string]map[string]string{
		"en": {"common": `{"nav": {"home": "Home", "about": "About"}, "title": "Title"}`},
		"fr": {"common": `{"nav": "Navigation", "title": {"main": "Titre"}, "bonus": "Bonus"}`},
	})
	res := New(WithLanguages("en", "fr")).Validate(set)

	var got []string
	for _, issue := range res.Errors {
		got = append(got, string(issue.Type)+" "+issue.Key)
	}
	want := []string{
		"structure_mismatch common.nav",
		"structure_mismatch common.title",
		"extra_key common.bonus",
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestValidateNestedRecursion(t *testing.T) {
	set := mustSet(t, map[string]map[string]string{
		"en": {
			"common": `{"nav": {"home": "Home", "about": "About"}}`,
			"errors": `{"notFound": "Not found"}`,
		},
		"fr": {"common": `{"nav": {"home": "Accueil", "contact": "Contact"}}`},
	})
	res := New(WithLanguages("en", "fr")).Validate(set)

	var got []string
	for _, issue := range res.Errors {
		got = append(got, string(issue.Type)+" "+issue.Key)
	}
	want := []string{
		"missing_key common.nav.about",
		"extra_key common.nav.contact",
		"missing_key errors",
	}
	// namespaces come from the set in insertion order, which depends on map
	// iteration above; compare as a set of lines
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for _, line := range want {
		found := false
		for _, g := range got {
			if g == line {
				found = true
			}
		}
		if !found {
			t.Fatalf("missing %q in %v", line, got)
		}
	}
}

func TestValidateDuplicateValues(t *testing.T) {
	set := mustSet(t, map[string]map[string]string{
		"en": {"common": `{"save": "Save", "submit": "Save", "store": "Save", "ok": "OK", "confirm": "OK", "cancel": "Cancel"}`},
	})
	res := New(WithLanguages("en")).Validate(set)

	if !res.IsValid {
		t.Fatalf("duplicates are warnings, got errors %+v", res.Errors)
	}
	want := []Issue{
		{Key: "common.save common.submit common.store", Language: "en", Type: DuplicateValue, Message: `value "Save" is used by 3 keys`},
		{Key: "common.ok common.confirm", Language: "en", Type: DuplicateValue, Message: `value "OK" is used by 2 keys`},
	}
	if !reflect.DeepEqual(res.Warnings, want) {
		t.Fatalf("unexpected warnings %+v", res.Warnings)
	}
}

func TestValidateIsIdempotent(t *testing.T) {
	set := mustSet(t, map[string]map[string]string{
		"en": {"common": `{"a": "A {x}", "b": "B", "c": "B", "nav": {"home": "Home"}}`},
		"fr": {"common": `{"a": "A", "b": "B", "extra": "E", "nav": {}}`},
		"de": {"common": `{"a": "A {y}", "b": "B", "c": "C", "nav": {"home": "Start"}}`},
	})
	v := New(WithLanguages("en", "fr", "de"))

	first, _ := json.Marshal(v.Validate(set))
	for range 5 {
		next, _ := json.Marshal(v.Validate(set))
		if string(first) != string(next) {
			t.Fatalf("non-deterministic output:\n%s\n%s", first, next)
		}
	}
}

func TestResultJSONShape(t *testing.T) {
	set := mustSet(t, map[string]map[string]string{
		"en": {"common": `{"a": "A"}`},
	})
	data, err := json.Marshal(New(WithLanguages("en")).Validate(set))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(data) != `{"isValid":true,"errors":[],"warnings":[]}` {
		t.Fatalf("unexpected json %s", data)
	}
}

func TestLanguagesPutsBaseFirst(t *testing.T) {
	v := New(WithBaseLanguage("fr"), WithLanguages("en", "fr", "en", " de "))
	if got := v.Languages(); !reflect.DeepEqual(got, []string{"fr", "en", "de"}) {
		t.Fatalf("unexpected languages %v", got)
	}
}
