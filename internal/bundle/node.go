// Package bundle models translation bundles as ordered trees of string leaves.
package bundle

import (
	"bytes"
	"encoding/json"
	"slices"
	"strings"
)

// Kind tags a Node as a string leaf or a nested tree.
type Kind uint8

const (
	KindLeaf Kind = iota + 1
	KindTree
)

func (k Kind) String() string {
	switch k {
	case KindLeaf:
		return "leaf"
	case KindTree:
		return "tree"
	default:
		return "invalid"
	}
}

// Node is either a leaf holding a string or a tree of named children. Tree
// children keep the order they were added in, which for decoded documents is
// the document order.
type Node struct {
	kind     Kind
	value    string
	keys     []string
	children map[string]*Node
}

// Leaf returns a leaf node holding value.
func Leaf(value string) *Node {
	return &Node{kind: KindLeaf, value: value}
}

// Tree returns an empty tree node.
func Tree() *Node {
	return &Node{kind: KindTree, children: map[string]*Node{}}
}

// FromMap builds a tree from nested map[string]any / string values. Child
// order is sorted by name since Go maps carry no order. Values other than
// strings and maps are ignored.
func FromMap(values map[string]any) *Node {
	root := Tree()
	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		switch v := values[name].(type) {
		case string:
			root.Set(name, Leaf(v))
		case map[string]any:
			root.Set(name, FromMap(v))
		case *Node:
			root.Set(name, v)
		}
	}
	return root
}

// Set adds or replaces a child. Replacing keeps the original position. Set on
// a leaf is a no-op. It returns n for chaining.
func (n *Node) Set(name string, child *Node) *Node {
	if n == nil || n.kind != KindTree || child == nil {
		return n
	}
	if _, exists := n.children[name]; !exists {
		n.keys = append(n.keys, name)
	}
	n.children[name] = child
	return n
}

// Kind reports the node kind. A nil node has no valid kind.
func (n *Node) Kind() Kind {
	if n == nil {
		return 0
	}
	return n.kind
}

func (n *Node) IsLeaf() bool { return n.Kind() == KindLeaf }
func (n *Node) IsTree() bool { return n.Kind() == KindTree }

// Value returns the leaf string.
func (n *Node) Value() (string, bool) {
	if !n.IsLeaf() {
		return "", false
	}
	return n.value, true
}

// Keys returns child names in order.
func (n *Node) Keys() []string {
	if !n.IsTree() {
		return nil
	}
	return slices.Clone(n.keys)
}

// Child returns the named child of a tree.
func (n *Node) Child(name string) (*Node, bool) {
	if !n.IsTree() {
		return nil, false
	}
	child, ok := n.children[name]
	return child, ok
}

// Len returns the number of children of a tree, zero for leaves.
func (n *Node) Len() int {
	if !n.IsTree() {
		return 0
	}
	return len(n.keys)
}

// Lookup descends through path. An empty path returns n itself.
func (n *Node) Lookup(path ...string) (*Node, bool) {
	current := n
	for _, segment := range path {
		child, ok := current.Child(segment)
		if !ok {
			return nil, false
		}
		current = child
	}
	return current, current != nil
}

// LookupString descends through path and returns the leaf value found there.
// Missing segments and non-leaf terminals report false.
func (n *Node) LookupString(path ...string) (string, bool) {
	node, ok := n.Lookup(path...)
	if !ok {
		return "", false
	}
	return node.Value()
}

// Walk visits every leaf depth-first in child order. The path slice is
// reused between calls; clone it to retain it.
func (n *Node) Walk(fn func(path []string, value string)) {
	n.walk(nil, fn)
}

func (n *Node) walk(path []string, fn func([]string, string)) {
	switch n.Kind() {
	case KindLeaf:
		fn(path, n.value)
	case KindTree:
		for _, name := range n.keys {
			n.children[name].walk(append(path, name), fn)
		}
	}
}

// Paths returns the dotted path of every leaf in walk order.
func (n *Node) Paths() []string {
	var out []string
	n.Walk(func(path []string, _ string) {
		out = append(out, strings.Join(path, "."))
	})
	return out
}

// Clone returns a deep copy.
func (n *Node) Clone() *Node {
	switch n.Kind() {
	case KindLeaf:
		return Leaf(n.value)
	case KindTree:
		out := Tree()
		for _, name := range n.keys {
			out.Set(name, n.children[name].Clone())
		}
		return out
	default:
		return nil
	}
}

// Equal reports whether a and b have the same shape, order and values.
func Equal(a, b *Node) bool {
	if a.Kind() != b.Kind() {
		return false
	}
	switch a.Kind() {
	case KindLeaf:
		return a.value == b.value
	case KindTree:
		if !slices.Equal(a.keys, b.keys) {
			return false
		}
		for _, name := range a.keys {
			if !Equal(a.children[name], b.children[name]) {
				return false
			}
		}
	}
	return true
}

// MarshalJSON writes the node as a JSON string or object, keeping child order.
func (n *Node) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	if err := n.encode(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (n *Node) encode(buf *bytes.Buffer) error {
	switch n.Kind() {
	case KindLeaf:
		encoded, err := json.Marshal(n.value)
		if err != nil {
			return err
		}
		buf.Write(encoded)
	case KindTree:
		buf.WriteByte('{')
		for i, name := range n.keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			encoded, err := json.Marshal(name)
			if err != nil {
				return err
			}
			buf.Write(encoded)
			buf.WriteByte(':')
			if err := n.children[name].encode(buf); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	default:
		buf.WriteString("null")
	}
	return nil
}

// UnmarshalJSON decodes a JSON bundle document into n, keeping key order.
func (n *Node) UnmarshalJSON(data []byte) error {
	decoded, err := Decode(FormatJSON, data)
	if err != nil {
		return err
	}
	*n = *decoded
	return nil
}
