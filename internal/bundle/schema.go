package bundle

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"
)

// documentSchema accepts an object tree whose leaves are strings, numbers or
// booleans. Nulls and arrays are rejected, as are empty key names.
var documentSchema = map[string]any{
	"$defs": map[string]any{
		"entry": map[string]any{
			"type":                 []any{"string", "number", "boolean", "object"},
			"propertyNames":        map[string]any{"minLength": 1},
			"additionalProperties": map[string]any{"$ref": "#/$defs/entry"},
		},
	},
	"type":                 "object",
	"propertyNames":        map[string]any{"minLength": 1},
	"additionalProperties": map[string]any{"$ref": "#/$defs/entry"},
}

var compiledSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	encoded, err := json.Marshal(documentSchema)
	if err != nil {
		return nil, err
	}
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020
	if err := compiler.AddResource("bundle.json", bytes.NewReader(encoded)); err != nil {
		return nil, err
	}
	return compiler.Compile("bundle.json")
})

// Issue is a single schema violation inside a bundle document.
type Issue struct {
	Location string
	Message  string
}

// SchemaError lists the schema violations found in a document.
type SchemaError struct {
	Issues []Issue
	Cause  error
}

func (e *SchemaError) Error() string {
	if len(e.Issues) == 0 {
		if e.Cause != nil {
			return e.Cause.Error()
		}
		return ErrInvalidDocument.Error()
	}
	parts := make([]string, 0, len(e.Issues))
	for _, issue := range e.Issues {
		location := issue.Location
		if location == "" {
			location = "#"
		} else if !strings.HasPrefix(location, "#") {
			location = "#" + location
		}
		parts = append(parts, fmt.Sprintf("%s: %s", location, issue.Message))
	}
	return strings.Join(parts, "; ")
}

func (e *SchemaError) Unwrap() error { return ErrInvalidDocument }

// Issues extracts schema issues from err, if any.
func Issues(err error) []Issue {
	var schemaErr *SchemaError
	if errors.As(err, &schemaErr) {
		return schemaErr.Issues
	}
	return nil
}

func validateDocument(value any) error {
	schema, err := compiledSchema()
	if err != nil {
		return fmt.Errorf("bundle: compile document schema: %w", err)
	}
	if err := schema.Validate(value); err != nil {
		var validationErr *jsonschema.ValidationError
		if errors.As(err, &validationErr) {
			return &SchemaError{Issues: collectIssues(validationErr), Cause: err}
		}
		return &SchemaError{Cause: err}
	}
	return nil
}

func collectIssues(err *jsonschema.ValidationError) []Issue {
	var issues []Issue
	var walk func(*jsonschema.ValidationError)
	walk = func(node *jsonschema.ValidationError) {
		if node == nil {
			return
		}
		if len(node.Causes) == 0 {
			issues = append(issues, Issue{
				Location: strings.TrimSpace(node.InstanceLocation),
				Message:  strings.TrimSpace(node.Message),
			})
			return
		}
		for _, cause := range node.Causes {
			walk(cause)
		}
	}
	walk(err)
	return issues
}
