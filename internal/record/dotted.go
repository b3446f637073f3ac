package record

import (
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/psyinfra/onyo-go/internal/onyoerr"
)

func splitDotted(path string) []string {
	return strings.Split(path, ".")
}

func findInMapping(m *yaml.Node, key string) (*yaml.Node, int) {
	for i := 0; i < len(m.Content); i += 2 {
		if m.Content[i].Value == key {
			return m.Content[i+1], i + 1
		}
	}
	return nil, -1
}

// GetNode resolves a dotted path to the raw yaml.Node holding the
// value, without decoding it into a Go value.
func (r *Record) GetNode(path string) (*yaml.Node, bool) {
	if r == nil {
		return nil, false
	}
	cur := r.node
	parts := splitDotted(path)
	for i, part := range parts {
		if cur.Kind != yaml.MappingNode {
			return nil, false
		}
		v, _ := findInMapping(cur, part)
		if v == nil {
			return nil, false
		}
		if i == len(parts)-1 {
			return v, true
		}
		cur = v
	}
	return nil, false
}

// Get resolves a dotted path and decodes the resulting node into a
// plain Go value (string/int/float64/bool/nil/map[string]any/[]any).
func (r *Record) Get(path string) (any, bool) {
	n, ok := r.GetNode(path)
	if !ok {
		return nil, false
	}
	v, err := nodeToValue(n)
	if err != nil {
		return nil, false
	}
	return v, true
}

// Has reports whether path resolves to a present value.
func (r *Record) Has(path string) bool {
	_, ok := r.GetNode(path)
	return ok
}

// Set assigns value at the dotted path, creating intermediate mapping
// keys as needed. Traversing through an existing scalar fails with
// *onyoerr.NotAMappingError{Prefix}.
func (r *Record) Set(path string, value any) error {
	if r.node == nil {
		r.node = newMappingNode()
	}
	parts := splitDotted(path)
	cur := r.node
	for i, part := range parts {
		last := i == len(parts)-1
		existing, idx := findInMapping(cur, part)
		if last {
			node, err := valueToNode(value)
			if err != nil {
				return err
			}
			if idx == -1 {
				keyNode := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: part}
				cur.Content = append(cur.Content, keyNode, node)
			} else {
				cur.Content[idx] = node
			}
			return nil
		}
		if existing == nil {
			child := newMappingNode()
			keyNode := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: part}
			cur.Content = append(cur.Content, keyNode, child)
			cur = child
			continue
		}
		if existing.Kind != yaml.MappingNode {
			return &onyoerr.NotAMappingError{Prefix: strings.Join(parts[:i+1], ".")}
		}
		cur = existing
	}
	return nil
}

// Delete removes the value at path, returning whether it was present.
func (r *Record) Delete(path string) bool {
	if r == nil || r.node == nil {
		return false
	}
	parts := splitDotted(path)
	cur := r.node
	for i, part := range parts {
		last := i == len(parts)-1
		if cur.Kind != yaml.MappingNode {
			return false
		}
		_, idx := findInMapping(cur, part)
		if idx == -1 {
			return false
		}
		if last {
			cur.Content = append(cur.Content[:idx-1], cur.Content[idx+1:]...)
			return true
		}
		cur = cur.Content[idx]
	}
	return false
}

// DeepMerge merges override onto base: scalar values in override win,
// mappings merge key-by-key recursively, and sequences in override
// fully replace the base sequence. The inputs are not mutated; a new
// Record is returned.
func DeepMerge(base, override *Record) *Record {
	if base == nil {
		base = Empty()
	}
	if override == nil {
		return base.Clone()
	}
	merged := deepMergeNode(base.node, override.node)
	return &Record{node: merged}
}

func deepMergeNode(base, override *yaml.Node) *yaml.Node {
	if override == nil {
		return deepCopyNode(base)
	}
	if base == nil || base.Kind != yaml.MappingNode || override.Kind != yaml.MappingNode {
		return deepCopyNode(override)
	}
	result := newMappingNode()
	result.Content = append(result.Content, deepCopyNode(base).Content...)

	for i := 0; i < len(override.Content); i += 2 {
		key := override.Content[i]
		val := override.Content[i+1]
		existing, idx := findInMapping(result, key.Value)
		if idx == -1 {
			result.Content = append(result.Content, deepCopyNode(key), deepCopyNode(val))
			continue
		}
		if existing.Kind == yaml.MappingNode && val.Kind == yaml.MappingNode {
			result.Content[idx] = deepMergeNode(existing, val)
		} else {
			result.Content[idx] = deepCopyNode(val)
		}
	}
	return result
}
