package record

import "gopkg.in/yaml.v3"

// Unset is the literal rendering of a missing key in query projection.
const Unset = "<unset>"

// DictMarker/ListMarker are the two spellings accepted for an empty
// mapping/sequence on input, and the canonical spelling used on output.
const (
	DictMarkerBraces = "{}"
	DictMarker       = "<dict>"
	ListMarkerBraces = "[]"
	ListMarker       = "<list>"
)

// ParseLiteralMarker recognizes the literal value markers on input:
// "{}"/"<dict>" become an empty mapping, "[]"/"<list>" become an empty
// sequence. Any other string is not a marker and ok is false.
func ParseLiteralMarker(s string) (value any, ok bool) {
	switch s {
	case DictMarkerBraces, DictMarker:
		return map[string]any{}, true
	case ListMarkerBraces, ListMarker:
		return []any{}, true
	default:
		return nil, false
	}
}

// FormatValue renders a Go value (as produced by Record.Get, or the
// zero value for a missing key) using the literal markers recognized
// on input: <unset> for absence, <dict>/<list> for empty
// mapping/sequence, and fmt-default formatting otherwise.
func FormatValue(v any, present bool) string {
	if !present {
		return Unset
	}
	switch t := v.(type) {
	case map[string]any:
		if len(t) == 0 {
			return DictMarker
		}
	case []any:
		if len(t) == 0 {
			return ListMarker
		}
	case nil:
		return "null"
	}
	return scalarString(v)
}

func scalarString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case bool:
		if t {
			return "true"
		}
		return "false"
	default:
		n, err := valueToNode(v)
		if err != nil {
			return ""
		}
		return nodeScalarString(n)
	}
}

func nodeScalarString(n *yaml.Node) string {
	if n.Kind == yaml.ScalarNode {
		return n.Value
	}
	out, err := yaml.Marshal(n)
	if err != nil {
		return ""
	}
	return string(out)
}

// IsEmptyMapping reports whether v (as produced by Get) is a mapping
// with no entries.
func IsEmptyMapping(v any) bool {
	m, ok := v.(map[string]any)
	return ok && len(m) == 0
}

// IsEmptySequence reports whether v (as produced by Get) is a sequence
// with no entries.
func IsEmptySequence(v any) bool {
	s, ok := v.([]any)
	return ok && len(s) == 0
}
