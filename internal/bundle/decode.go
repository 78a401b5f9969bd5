package bundle

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"slices"
	"strings"

	"github.com/BurntSushi/toml"
	goerrors "github.com/goliatone/go-errors"
	"gopkg.in/yaml.v3"
)

// Format names a bundle document encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
)

// TextCodeDecodeFailed tags decode errors returned by Decode.
const TextCodeDecodeFailed = "BUNDLE_DECODE_FAILED"

var (
	ErrUnsupportedFormat = errors.New("bundle: unsupported format")
	ErrInvalidDocument   = errors.New("bundle: invalid document")
)

// Extensions lists the file extensions recognised by FormatFromPath, in
// lookup priority order.
var Extensions = []string{".json", ".yaml", ".yml", ".toml"}

// FormatFromPath infers the format from a file extension.
func FormatFromPath(name string) (Format, error) {
	switch strings.ToLower(path.Ext(name)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".toml":
		return FormatTOML, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, name)
}

// Decode parses a bundle document. The root must be an object whose values
// are strings, numbers, booleans or nested objects; numbers and booleans are
// kept as their textual form. Failures are go-errors with category bad_input
// and text code BUNDLE_DECODE_FAILED.
func Decode(format Format, data []byte) (*Node, error) {
	node, err := decode(format, data)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryBadInput, "bundle decode failed").
			WithTextCode(TextCodeDecodeFailed).
			WithMetadata(map[string]any{"format": string(format)})
	}
	return node, nil
}

func decode(format Format, data []byte) (*Node, error) {
	var (
		value any
		order keyOrder
		err   error
	)
	switch format {
	case FormatJSON:
		value, order, err = decodeJSON(data)
	case FormatYAML:
		value, order, err = decodeYAML(data)
	case FormatTOML:
		value, order, err = decodeTOML(data)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	if err != nil {
		return nil, err
	}
	if err := validateDocument(value); err != nil {
		return nil, err
	}
	return build(value, order, nil)
}

// keyOrder maps a parent path to its child names in document order.
type keyOrder map[string][]string

const pathSep = "\x1f"

func (o keyOrder) add(parent []string, name string) {
	key := strings.Join(parent, pathSep)
	if !slices.Contains(o[key], name) {
		o[key] = append(o[key], name)
	}
}

func (o keyOrder) children(parent []string) []string {
	return o[strings.Join(parent, pathSep)]
}

func decodeJSON(data []byte) (any, keyOrder, error) {
	var value any
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&value); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}

	order := keyOrder{}
	tokens := json.NewDecoder(bytes.NewReader(data))
	tokens.UseNumber()
	if err := walkJSON(tokens, nil, order); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	return value, order, nil
}

// walkJSON consumes one JSON value from dec and records object key order.
func walkJSON(dec *json.Decoder, parent []string, order keyOrder) error {
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	delim, ok := tok.(json.Delim)
	if !ok {
		return nil
	}
	switch delim {
	case '{':
		for dec.More() {
			keyTok, err := dec.Token()
			if err != nil {
				return err
			}
			key, ok := keyTok.(string)
			if !ok {
				return fmt.Errorf("expected object key, got %v", keyTok)
			}
			order.add(parent, key)
			if err := walkJSON(dec, append(slices.Clone(parent), key), order); err != nil {
				return err
			}
		}
	case '[':
		for dec.More() {
			if err := walkJSON(dec, parent, order); err != nil {
				return err
			}
		}
	}
	_, err = dec.Token()
	return err
}

func decodeYAML(data []byte) (any, keyOrder, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return map[string]any{}, keyOrder{}, nil
	}
	order := keyOrder{}
	value, err := yamlValue(doc.Content[0], nil, order)
	if err != nil {
		return nil, nil, err
	}
	return value, order, nil
}

// yamlValue converts a YAML node into JSON-shaped values. Mapping keys keep
// their literal text so keys such as 404 or yes stay strings.
func yamlValue(node *yaml.Node, parent []string, order keyOrder) (any, error) {
	switch node.Kind {
	case yaml.AliasNode:
		return yamlValue(node.Alias, parent, order)
	case yaml.MappingNode:
		out := make(map[string]any, len(node.Content)/2)
		for i := 0; i+1 < len(node.Content); i += 2 {
			keyNode, valueNode := node.Content[i], node.Content[i+1]
			if keyNode.Tag == "!!merge" {
				return nil, fmt.Errorf("%w: merge keys are not supported (line %d)", ErrInvalidDocument, keyNode.Line)
			}
			name := keyNode.Value
			order.add(parent, name)
			value, err := yamlValue(valueNode, append(slices.Clone(parent), name), order)
			if err != nil {
				return nil, err
			}
			out[name] = value
		}
		return out, nil
	case yaml.SequenceNode:
		out := make([]any, 0, len(node.Content))
		for _, item := range node.Content {
			value, err := yamlValue(item, parent, order)
			if err != nil {
				return nil, err
			}
			out = append(out, value)
		}
		return out, nil
	case yaml.ScalarNode:
		if node.ShortTag() == "!!null" {
			return nil, nil
		}
		return node.Value, nil
	default:
		return nil, fmt.Errorf("%w: unexpected yaml node at line %d", ErrInvalidDocument, node.Line)
	}
}

func decodeTOML(data []byte) (any, keyOrder, error) {
	raw := map[string]any{}
	meta, err := toml.Decode(string(data), &raw)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}

	order := keyOrder{}
	for _, key := range meta.Keys() {
		if len(key) == 0 {
			continue
		}
		order.add(key[:len(key)-1], key[len(key)-1])
	}

	// round trip through JSON so dates and integer types become JSON values
	encoded, err := json.Marshal(raw)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	var value any
	dec := json.NewDecoder(bytes.NewReader(encoded))
	dec.UseNumber()
	if err := dec.Decode(&value); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	return value, order, nil
}

// build turns a schema-checked value into a Node tree. Keys missing from the
// recorded order are appended sorted.
func build(value any, order keyOrder, parent []string) (*Node, error) {
	switch v := value.(type) {
	case string:
		return Leaf(v), nil
	case json.Number:
		return Leaf(v.String()), nil
	case bool:
		if v {
			return Leaf("true"), nil
		}
		return Leaf("false"), nil
	case map[string]any:
		tree := Tree()
		names := make([]string, 0, len(v))
		for _, name := range order.children(parent) {
			if _, ok := v[name]; ok {
				names = append(names, name)
			}
		}
		if len(names) < len(v) {
			var rest []string
			for name := range v {
				if !slices.Contains(names, name) {
					rest = append(rest, name)
				}
			}
			slices.Sort(rest)
			names = append(names, rest...)
		}
		for _, name := range names {
			child, err := build(v[name], order, append(slices.Clone(parent), name))
			if err != nil {
				return nil, err
			}
			tree.Set(name, child)
		}
		return tree, nil
	default:
		return nil, fmt.Errorf("%w: unsupported value %T at %q", ErrInvalidDocument, value, strings.Join(parent, "."))
	}
}
