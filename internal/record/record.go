// Package record implements the dotted-key view over a nested YAML
// record, deep-merge, template materialization, and faux-serial
// generation (C4 in the inventory engine design).
//
// A Record wraps a yaml.Node mapping so that key order and any
// existing comments survive a read -> modify -> write round trip,
// per the spec's requirement that Records preserve YAML formatting.
package record

import (
	"bytes"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/psyinfra/onyo-go/internal/onyoerr"
)

// Record is an ordered mapping from string keys to scalar, mapping, or
// sequence values, backed by a yaml.Node for round-trip fidelity.
type Record struct {
	node *yaml.Node
}

// Empty returns a new Record with no keys.
func Empty() *Record {
	return &Record{node: newMappingNode()}
}

func newMappingNode() *yaml.Node {
	return &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
}

// Parse reads a Record from YAML bytes. An empty input (as used for a
// just-created empty asset) parses as an empty Record rather than an
// error, matching onyo's write_asset behavior for `contents == {}`.
func Parse(data []byte) (*Record, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return Empty(), nil
	}
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w", err)
	}
	if doc.Kind == 0 {
		return Empty(), nil
	}
	content := &doc
	if doc.Kind == yaml.DocumentNode {
		if len(doc.Content) == 0 {
			return Empty(), nil
		}
		content = doc.Content[0]
	}
	if content.Kind == yaml.ScalarNode && content.Tag == "!!null" {
		return Empty(), nil
	}
	if content.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("record root must be a mapping, got kind %d", content.Kind)
	}
	return &Record{node: content}, nil
}

// Marshal renders the record back to YAML, preserving key order. A
// Record with no keys marshals to an empty byte slice, matching
// write_asset's handling of `contents == {}`.
func (r *Record) Marshal() ([]byte, error) {
	if r == nil || len(r.node.Content) == 0 {
		return []byte{}, nil
	}
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(r.node); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Clone returns a deep copy so callers can mutate without aliasing the
// original (used before applying template overrides, for instance).
func (r *Record) Clone() *Record {
	if r == nil {
		return Empty()
	}
	return &Record{node: deepCopyNode(r.node)}
}

func deepCopyNode(n *yaml.Node) *yaml.Node {
	if n == nil {
		return nil
	}
	cp := *n
	cp.Content = make([]*yaml.Node, len(n.Content))
	for i, c := range n.Content {
		cp.Content[i] = deepCopyNode(c)
	}
	return &cp
}

// Len returns the number of top-level keys.
func (r *Record) Len() int {
	if r == nil {
		return 0
	}
	return len(r.node.Content) / 2
}

// IsEmpty reports whether the record has no keys.
func (r *Record) IsEmpty() bool { return r.Len() == 0 }

// Keys returns the top-level keys in their on-disk order.
func (r *Record) Keys() []string {
	if r == nil {
		return nil
	}
	keys := make([]string, 0, r.Len())
	for i := 0; i < len(r.node.Content); i += 2 {
		keys = append(keys, r.node.Content[i].Value)
	}
	return keys
}

// valueToNode converts v to a yaml.Node: an already-built *yaml.Node is
// deep-copied, and any other Go value goes through Node's own Encode.
func valueToNode(v any) (*yaml.Node, error) {
	if n, ok := v.(*yaml.Node); ok {
		return deepCopyNode(n), nil
	}
	var n yaml.Node
	if err := n.Encode(v); err != nil {
		return nil, err
	}
	return &n, nil
}

func nodeToValue(n *yaml.Node) (any, error) {
	var v any
	if err := n.Decode(&v); err != nil {
		return nil, err
	}
	return v, nil
}

// ValidateNoReservedKeys fails with *onyoerr.ReservedKeyError if the
// record carries any of the reserved keys that must never be
// persisted to disk.
func (r *Record) ValidateNoReservedKeys(isReserved func(string) bool) error {
	for _, k := range r.Keys() {
		if isReserved(k) {
			return &onyoerr.ReservedKeyError{Key: k}
		}
	}
	return nil
}

// NameValues extracts the required name-key values as plain strings,
// failing if any is missing, empty, or non-scalar.
func (r *Record) NameValues(nameKeys []string) (map[string]string, error) {
	out := make(map[string]string, len(nameKeys))
	for _, key := range nameKeys {
		n, ok := r.GetNode(key)
		if !ok {
			return nil, &onyoerr.MissingNameKeyError{Key: key}
		}
		if n.Kind != yaml.ScalarNode {
			return nil, &onyoerr.EmptyNameKeyError{Key: key}
		}
		if n.Value == "" {
			return nil, &onyoerr.EmptyNameKeyError{Key: key}
		}
		out[key] = n.Value
	}
	return out, nil
}
