// Package assetstore reads and writes YAML asset records and enumerates
// assets, inventory directories, and templates (C3 in the inventory
// engine design). Listing is always derived from the VCS's tracked-file
// enumeration, intersected with path classification, per spec: there is
// no separate "onyo ignore" mechanism.
package assetstore

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/psyinfra/onyo-go/internal/cache"
	"github.com/psyinfra/onyo-go/internal/onyoerr"
	"github.com/psyinfra/onyo-go/internal/pathrules"
	"github.com/psyinfra/onyo-go/internal/record"
	"github.com/psyinfra/onyo-go/internal/vcs"
)

// Store provides filesystem access to a repository's assets,
// directories, and templates, rooted at a VCS-bound repository.
type Store struct {
	root string
	vcs  *vcs.Adapter

	listCache *cache.Cache[[]string]
}

// New binds a Store to the given VCS adapter.
func New(v *vcs.Adapter) *Store {
	return &Store{
		root:      v.Root(),
		vcs:       v,
		listCache: cache.New[[]string](),
	}
}

// InvalidateListings drops cached enumeration results; called by the
// transaction after every commit (and on rollback) since a write may
// have changed the answer.
func (s *Store) InvalidateListings() {
	s.listCache.Clear()
}

// AbsPath joins the store's root with a repository-relative path.
func (s *Store) AbsPath(rel string) string {
	return filepath.Join(s.root, filepath.FromSlash(rel))
}

// RelPath converts an absolute path under the repository root to a
// repository-relative, slash-separated path.
func (s *Store) RelPath(abs string) (string, error) {
	rel, err := filepath.Rel(s.root, abs)
	if err != nil {
		return "", err
	}
	return filepath.ToSlash(rel), nil
}

// Stat classifies a repository-relative path.
func (s *Store) Stat(rel string) (pathrules.Class, error) {
	abs := s.AbsPath(rel)
	leaf := filepath.Base(rel)

	st := pathrules.Stat{
		UnderTemplate: strings.HasPrefix(filepath.ToSlash(rel), ".onyo/templates/"),
	}

	info, err := os.Lstat(abs)
	if os.IsNotExist(err) {
		return pathrules.Classify(rel, leaf, st), nil
	}
	if err != nil {
		return 0, err
	}
	st.Exists = true
	st.IsDir = info.IsDir()
	if st.IsDir {
		if _, err := os.Stat(filepath.Join(abs, pathrules.AssetDirSidecar)); err == nil {
			st.HasSidecar = true
		}
		if _, err := os.Stat(filepath.Join(abs, pathrules.AnchorFile)); err == nil {
			st.HasAnchor = true
		}
	}
	return pathrules.Classify(rel, leaf, st), nil
}

// ReadAsset reads the record at a repository-relative asset path,
// whether it is an asset file or an asset directory (in which case the
// sidecar .asset is read).
func (s *Store) ReadAsset(rel string) (*record.Record, error) {
	class, err := s.Stat(rel)
	if err != nil {
		return nil, err
	}
	var target string
	switch class {
	case pathrules.AssetFile:
		target = s.AbsPath(rel)
	case pathrules.AssetDir:
		target = filepath.Join(s.AbsPath(rel), pathrules.AssetDirSidecar)
	default:
		return nil, &onyoerr.InvalidPathError{Path: rel, Reason: "not an asset"}
	}

	data, err := os.ReadFile(target)
	if err != nil {
		return nil, err
	}
	r, err := record.Parse(data)
	if err != nil {
		return nil, &onyoerr.InvalidYamlError{Path: rel, Detail: err.Error()}
	}
	return r, nil
}

// WriteAsset writes contents to a repository-relative asset path,
// creating parent directories as needed. For an asset-directory target
// the sidecar file is written; for an asset-file target the file
// itself is written. An empty record writes an empty file.
func (s *Store) WriteAsset(rel string, contents *record.Record) error {
	class, err := s.Stat(rel)
	if err != nil {
		return err
	}

	abs := s.AbsPath(rel)
	var target string
	switch class {
	case pathrules.AssetDir:
		target = filepath.Join(abs, pathrules.AssetDirSidecar)
	case pathrules.Absent, pathrules.AssetFile, pathrules.Regular:
		target = abs
	default:
		return &onyoerr.InvalidPathError{Path: rel, Reason: "not a writable asset location"}
	}

	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}

	data, err := contents.Marshal()
	if err != nil {
		return err
	}
	if err := os.WriteFile(target, data, 0o644); err != nil {
		return err
	}
	s.InvalidateListings()
	return nil
}

// CreateAnchor idempotently creates the .anchor file in dir (a
// repository-relative path).
func (s *Store) CreateAnchor(dir string) error {
	abs := s.AbsPath(dir)
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return err
	}
	anchor := filepath.Join(abs, pathrules.AnchorFile)
	if _, err := os.Stat(anchor); err == nil {
		return nil
	}
	if err := os.WriteFile(anchor, nil, 0o644); err != nil {
		return err
	}
	s.InvalidateListings()
	return nil
}

// PromoteToAssetDir converts an asset file into an asset directory:
// the content moves into a new directory's sidecar and the directory
// gets an anchor.
func (s *Store) PromoteToAssetDir(rel string, contents *record.Record) error {
	abs := s.AbsPath(rel)
	tmp := abs + ".onyo-promote-tmp"
	if err := os.Rename(abs, tmp); err != nil {
		return err
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return err
	}
	data, err := contents.Marshal()
	if err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(abs, pathrules.AssetDirSidecar), data, 0o644); err != nil {
		return err
	}
	if err := os.Remove(tmp); err != nil {
		return err
	}
	if err := s.CreateAnchor(rel); err != nil {
		return err
	}
	s.InvalidateListings()
	return nil
}

// DemoteToAssetFile converts an asset directory back into a plain asset
// file; it fails if the directory contains anything beyond the sidecar
// and anchor.
func (s *Store) DemoteToAssetFile(rel string, contents *record.Record) error {
	abs := s.AbsPath(rel)
	entries, err := os.ReadDir(abs)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if e.Name() != pathrules.AssetDirSidecar && e.Name() != pathrules.AnchorFile {
			return &onyoerr.InvalidPathError{Path: rel, Reason: "asset directory is not empty"}
		}
	}
	data, err := contents.Marshal()
	if err != nil {
		return err
	}
	tmp := abs + ".onyo-demote-tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	if err := os.RemoveAll(abs); err != nil {
		return err
	}
	if err := os.Rename(tmp, abs); err != nil {
		return err
	}
	s.InvalidateListings()
	return nil
}

// EnumerateAssets returns every repository-relative asset path (files
// and asset directories) tracked in the repository.
func (s *Store) EnumerateAssets() ([]string, error) {
	if cached, ok := s.listCache.Get("assets"); ok {
		return cached, nil
	}
	tracked, err := s.vcs.FilesTracked()
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool)
	var out []string
	for _, f := range tracked {
		if pathrules.IsProtected(f) {
			continue
		}
		leaf := filepath.Base(f)
		if !pathrules.IsValidAssetLeaf(leaf) {
			// Could be the sidecar of an asset directory: map it to the
			// directory leaf instead.
			if leaf == pathrules.AssetDirSidecar {
				dir := filepath.ToSlash(filepath.Dir(f))
				if pathrules.IsValidAssetLeaf(filepath.Base(dir)) && !seen[dir] {
					seen[dir] = true
					out = append(out, dir)
				}
			}
			continue
		}
		if !seen[f] {
			seen[f] = true
			out = append(out, f)
		}
	}
	sort.Strings(out)
	s.listCache.Set("assets", out)
	return out, nil
}

// EnumerateInventoryDirs returns every repository-relative inventory
// directory path (anchored, non-asset, non-protected directories).
func (s *Store) EnumerateInventoryDirs() ([]string, error) {
	if cached, ok := s.listCache.Get("dirs"); ok {
		return cached, nil
	}
	tracked, err := s.vcs.FilesTracked()
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool)
	var out []string
	for _, f := range tracked {
		if filepath.Base(f) != pathrules.AnchorFile {
			continue
		}
		dir := filepath.ToSlash(filepath.Dir(f))
		if dir == "." {
			continue
		}
		if pathrules.IsProtected(dir) {
			continue
		}
		if pathrules.IsValidAssetLeaf(filepath.Base(dir)) {
			continue // asset directory, not an inventory directory
		}
		if !seen[dir] {
			seen[dir] = true
			out = append(out, dir)
		}
	}
	sort.Strings(out)
	s.listCache.Set("dirs", out)
	return out, nil
}

// EnumerateTemplates returns a mapping from template name to
// repository-relative path, for every regular file directly under
// .onyo/templates/ other than .anchor.
func (s *Store) EnumerateTemplates() (map[string]string, error) {
	dir := s.AbsPath(".onyo/templates")
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, err
	}
	out := make(map[string]string)
	for _, e := range entries {
		if e.IsDir() || e.Name() == pathrules.AnchorFile {
			continue
		}
		out[e.Name()] = ".onyo/templates/" + e.Name()
	}
	return out, nil
}
