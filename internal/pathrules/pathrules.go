// Package pathrules classifies paths and parses/formats asset leaf
// names. Every function here is pure.
package pathrules

import (
	"path/filepath"
	"regexp"
	"strings"

	"github.com/psyinfra/onyo-go/internal/onyoerr"
)

// Class is the result of classifying a path within a repository.
type Class int

const (
	Absent Class = iota
	Protected
	AnchorOfRoot
	Template
	AssetFile
	AssetDir
	InventoryDir
	Regular
)

// AnchorFile is the name of the file that pins an otherwise-empty
// directory into the VCS.
const AnchorFile = ".anchor"

// AssetDirSidecar is the name of the record file inside an asset
// directory.
const AssetDirSidecar = ".asset"

// protectedComponents is the fixed set of path components that make a
// path untouchable by any operation.
var protectedComponents = map[string]bool{
	AnchorFile: true,
	".git":     true,
	".onyo":    true,
}

// IsProtected reports whether any component of path is in the
// protected set ({.anchor, .git, .onyo}).
func IsProtected(path string) bool {
	clean := filepath.ToSlash(filepath.Clean(path))
	for _, part := range strings.Split(clean, "/") {
		if protectedComponents[part] {
			return true
		}
	}
	return false
}

// leafPattern is ported from the Python source's valid_name regex:
// non-greedy type/make/model captures separated by underscores, then a
// dot, then the serial which absorbs everything remaining (including
// further dots).
var leafPattern = regexp.MustCompile(`^([^._]+?)_([^._]+?)_([^._]+?)\.(.+)$`)

// DefaultNameKeys is the default ordered list of required name keys. Callers
// may configure a different list via onyo.assets.name-format; pathrules
// functions take the list explicitly rather than hard-coding it so the
// option is honored everywhere.
var DefaultNameKeys = []string{"type", "make", "model", "serial"}

// Leaf holds the parsed components of an asset leaf name.
type Leaf struct {
	Type   string
	Make   string
	Model  string
	Serial string
}

// IsValidAssetLeaf reports whether name matches the
// `<type>_<make>_<model>.<serial>` grammar with all four captures
// non-empty.
func IsValidAssetLeaf(name string) bool {
	_, err := ParseAssetLeaf(name)
	return err == nil
}

// ParseAssetLeaf parses name into its four components, failing with an
// *onyoerr.InvalidAssetNameError if name does not match the grammar.
func ParseAssetLeaf(name string) (Leaf, error) {
	m := leafPattern.FindStringSubmatch(name)
	if m == nil {
		return Leaf{}, &onyoerr.InvalidAssetNameError{Name: name}
	}
	if m[1] == "" || m[2] == "" || m[3] == "" || m[4] == "" {
		return Leaf{}, &onyoerr.InvalidAssetNameError{Name: name}
	}
	return Leaf{Type: m[1], Make: m[2], Model: m[3], Serial: m[4]}, nil
}

// SplitNameFormat parses a configured onyo.assets.name-format value
// (e.g. "type,make,model,serial") into an ordered key list. Falls back
// to DefaultNameKeys if v has no comma-separated content.
func SplitNameFormat(v string) []string {
	fields := strings.Split(v, ",")
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.TrimSpace(f)
		if f != "" {
			out = append(out, f)
		}
	}
	if len(out) == 0 {
		return DefaultNameKeys
	}
	return out
}

// FormatName assembles a leaf name from the given name-key values, in
// the configured key order, failing if a key is missing or empty.
func FormatName(values map[string]string, nameKeys []string) (string, error) {
	if len(nameKeys) == 0 {
		nameKeys = DefaultNameKeys
	}
	parts := make([]string, 0, len(nameKeys))
	for i, key := range nameKeys {
		v, ok := values[key]
		if !ok {
			return "", &onyoerr.MissingNameKeyError{Key: key}
		}
		if strings.TrimSpace(v) == "" {
			return "", &onyoerr.EmptyNameKeyError{Key: key}
		}
		if i == len(nameKeys)-1 {
			parts = append(parts, "."+v)
		} else if i == len(nameKeys)-2 {
			parts = append(parts, v)
		} else {
			parts = append(parts, v+"_")
		}
	}
	return strings.Join(parts, ""), nil
}

// Stat describes what is actually on disk at a path, as input to
// Classify. Exists/IsDir describe the path itself; HasSidecar and
// HasAnchor are only meaningful when IsDir is true; UnderTemplate
// reports whether the path lives under .onyo/templates.
type Stat struct {
	Exists        bool
	IsDir         bool
	HasSidecar    bool // only meaningful if IsDir
	HasAnchor     bool // only meaningful if IsDir
	UnderTemplate bool
}

// Classify returns the classification of path given its on-disk Stat
// and its leaf name.
func Classify(path string, leaf string, st Stat) Class {
	if st.UnderTemplate && st.Exists && leaf != AnchorFile {
		return Template
	}
	if IsProtected(path) {
		return Protected
	}
	if !st.Exists {
		return Absent
	}
	if !st.IsDir {
		if IsValidAssetLeaf(leaf) {
			return AssetFile
		}
		return Regular
	}
	if st.HasSidecar && IsValidAssetLeaf(leaf) {
		return AssetDir
	}
	if st.HasAnchor {
		return InventoryDir
	}
	return Regular
}

// PseudoKeys is the ordered list of keys synthesized from a path and
// never stored on disk.
var PseudoKeys = []string{"onyo.path.absolute", "onyo.path.parent"}

// IsReservedKey reports whether key is one of the transport-only keys
// that must never be persisted to an asset record.
func IsReservedKey(key string) bool {
	switch key {
	case "directory", "is_asset_directory", "template":
		return true
	}
	return false
}
