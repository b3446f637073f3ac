package assetstore

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/psyinfra/onyo-go/internal/record"
	"github.com/psyinfra/onyo-go/internal/vcs"
)

func requireGit(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not available on PATH")
	}
}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	requireGit(t)
	dir := t.TempDir()
	if err := vcs.Init(dir); err != nil {
		t.Fatal(err)
	}
	a := vcs.Open(dir)
	return New(a)
}

func writeAndTrack(t *testing.T, s *Store, rel string, contents []byte) {
	t.Helper()
	abs := s.AbsPath(rel)
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(abs, contents, 0o644); err != nil {
		t.Fatal(err)
	}
	if err := s.vcs.Stage(abs); err != nil {
		t.Fatal(err)
	}
}

func TestWriteAndReadAssetFile(t *testing.T) {
	s := newTestStore(t)
	rel := "shelf/laptop_apple_macbookpro.1"

	r := record.Empty()
	r.Set("type", "laptop")

	if err := s.WriteAsset(rel, r); err != nil {
		t.Fatalf("WriteAsset() error = %v", err)
	}

	got, err := s.ReadAsset(rel)
	if err != nil {
		t.Fatalf("ReadAsset() error = %v", err)
	}
	v, ok := got.Get("type")
	if !ok || v != "laptop" {
		t.Errorf("Get(type) = %v, %v", v, ok)
	}
}

func TestWriteEmptyAssetIsEmptyFile(t *testing.T) {
	s := newTestStore(t)
	rel := "shelf/laptop_apple_macbookpro.1"
	if err := s.WriteAsset(rel, record.Empty()); err != nil {
		t.Fatalf("WriteAsset() error = %v", err)
	}
	data, err := os.ReadFile(s.AbsPath(rel))
	if err != nil {
		t.Fatal(err)
	}
	if len(data) != 0 {
		t.Errorf("expected empty file, got %q", data)
	}
}

func TestCreateAnchorIdempotent(t *testing.T) {
	s := newTestStore(t)
	if err := s.CreateAnchor("shelf"); err != nil {
		t.Fatalf("CreateAnchor() error = %v", err)
	}
	if err := s.CreateAnchor("shelf"); err != nil {
		t.Fatalf("CreateAnchor() second call error = %v", err)
	}
	if _, err := os.Stat(s.AbsPath("shelf/.anchor")); err != nil {
		t.Fatalf(".anchor should exist: %v", err)
	}
}

func TestEnumerateAssetsAndDirs(t *testing.T) {
	s := newTestStore(t)

	writeAndTrack(t, s, "shelf/.anchor", nil)
	writeAndTrack(t, s, "shelf/laptop_apple_macbookpro.1", []byte("type: laptop\n"))
	writeAndTrack(t, s, "shelf/README.md", []byte("not an asset\n"))

	assets, err := s.EnumerateAssets()
	if err != nil {
		t.Fatalf("EnumerateAssets() error = %v", err)
	}
	if len(assets) != 1 || assets[0] != "shelf/laptop_apple_macbookpro.1" {
		t.Errorf("EnumerateAssets() = %v", assets)
	}

	dirs, err := s.EnumerateInventoryDirs()
	if err != nil {
		t.Fatalf("EnumerateInventoryDirs() error = %v", err)
	}
	if len(dirs) != 1 || dirs[0] != "shelf" {
		t.Errorf("EnumerateInventoryDirs() = %v", dirs)
	}
}

func TestEnumerateAssetsCachesUntilInvalidated(t *testing.T) {
	s := newTestStore(t)
	writeAndTrack(t, s, "shelf/.anchor", nil)

	if _, err := s.EnumerateAssets(); err != nil {
		t.Fatal(err)
	}

	writeAndTrack(t, s, "shelf/laptop_apple_macbookpro.1", []byte(""))

	cached, err := s.EnumerateAssets()
	if err != nil {
		t.Fatal(err)
	}
	if len(cached) != 0 {
		t.Fatalf("expected stale cached result to still be empty, got %v", cached)
	}

	s.InvalidateListings()
	fresh, err := s.EnumerateAssets()
	if err != nil {
		t.Fatal(err)
	}
	if len(fresh) != 1 {
		t.Errorf("expected fresh result after invalidation, got %v", fresh)
	}
}

func TestEnumerateTemplatesExcludesAnchor(t *testing.T) {
	s := newTestStore(t)
	writeAndTrack(t, s, ".onyo/templates/.anchor", nil)
	writeAndTrack(t, s, ".onyo/templates/empty", []byte(""))

	templates, err := s.EnumerateTemplates()
	if err != nil {
		t.Fatalf("EnumerateTemplates() error = %v", err)
	}
	if _, ok := templates[".anchor"]; ok {
		t.Error("EnumerateTemplates() should exclude .anchor")
	}
	if _, ok := templates["empty"]; !ok {
		t.Error("EnumerateTemplates() should include empty")
	}
}

func TestPromoteAndDemoteAssetDir(t *testing.T) {
	s := newTestStore(t)
	rel := "shelf/laptop_apple_macbookpro.1"
	r := record.Empty()
	r.Set("type", "laptop")
	if err := s.WriteAsset(rel, r); err != nil {
		t.Fatal(err)
	}

	if err := s.PromoteToAssetDir(rel, r); err != nil {
		t.Fatalf("PromoteToAssetDir() error = %v", err)
	}
	info, err := os.Stat(s.AbsPath(rel))
	if err != nil || !info.IsDir() {
		t.Fatalf("expected %s to be a directory after promotion", rel)
	}
	if _, err := os.Stat(s.AbsPath(rel + "/.asset")); err != nil {
		t.Fatalf(".asset sidecar missing: %v", err)
	}

	got, err := s.ReadAsset(rel)
	if err != nil {
		t.Fatalf("ReadAsset() on asset dir error = %v", err)
	}
	if v, _ := got.Get("type"); v != "laptop" {
		t.Errorf("content lost during promotion: %v", v)
	}

	if err := s.DemoteToAssetFile(rel, got); err != nil {
		t.Fatalf("DemoteToAssetFile() error = %v", err)
	}
	info, err = os.Stat(s.AbsPath(rel))
	if err != nil || info.IsDir() {
		t.Fatalf("expected %s to be a plain file after demotion", rel)
	}
}
