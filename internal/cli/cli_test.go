package cli

import (
	"bytes"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/psyinfra/onyo-go/internal/ui"
)

func requireGit(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not available on PATH")
	}
}

// chdir switches into dir for the duration of the test, restoring the
// original working directory on cleanup; CLI commands resolve the
// repository from os.Getwd().
func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Chdir(wd) })
}

// newRepoDir initializes a fresh onyo repository in a temp directory,
// chdir's into it, and returns its path. Every CLI _test.go uses this
// instead of cobra's argument parser, calling runXxx functions directly
// with package-level flag vars set explicitly, to avoid pflag's
// slice-accumulation gotcha across repeated Execute() calls.
func newRepoDir(t *testing.T) string {
	t.Helper()
	requireGit(t)
	dir := t.TempDir()
	chdir(t, dir)
	term = &ui.Terminal{Out: &bytes.Buffer{}, Err: &bytes.Buffer{}, AssumeYes: true}
	if err := runInit(nil, nil); err != nil {
		t.Fatalf("runInit() error = %v", err)
	}
	return dir
}

func resetNewFlags() {
	newMessages, newTemplate, newClone, newTsvPath, newKeys, newDirectory, newEdit = nil, "", "", "", nil, "", false
}

func resetSetFlags() {
	setMessages, setRename, setKeys, setAssets = nil, false, nil, nil
}

func resetGetFlags() {
	getKeys, getPaths, getFilters = nil, nil, nil
	getDepth = 0
	getSortAscending, getSortDescending, getMachineReadable = false, false, false
}

func TestInitCreatesAnchoredRepo(t *testing.T) {
	dir := newRepoDir(t)
	for _, p := range []string{".onyo/.anchor", ".onyo/templates/.anchor", ".onyo/validation/.anchor", ".onyo/config"} {
		if _, err := os.Stat(filepath.Join(dir, filepath.FromSlash(p))); err != nil {
			t.Errorf("expected %s to exist: %v", p, err)
		}
	}
}

func TestInitRejectsExistingRepo(t *testing.T) {
	newRepoDir(t)
	if err := runInit(nil, nil); err == nil {
		t.Fatal("runInit() on an already-initialized repo: want error, got nil")
	}
}

func TestMkdirCreatesAnchoredDirectory(t *testing.T) {
	dir := newRepoDir(t)
	mkdirMessages = nil
	if err := runMkdir(nil, []string{"shelf"}); err != nil {
		t.Fatalf("runMkdir() error = %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "shelf", ".anchor")); err != nil {
		t.Fatalf("expected shelf/.anchor to exist: %v", err)
	}
}

func TestNewWithKeysCreatesAsset(t *testing.T) {
	dir := newRepoDir(t)
	mkdirMessages = nil
	if err := runMkdir(nil, []string{"shelf"}); err != nil {
		t.Fatalf("runMkdir() error = %v", err)
	}

	resetNewFlags()
	newKeys = []string{"type=laptop", "make=apple", "model=macbookpro", "serial=1"}
	newDirectory = "shelf"
	if err := runNew(nil, nil); err != nil {
		t.Fatalf("runNew() error = %v", err)
	}

	want := filepath.Join(dir, "shelf", "laptop_apple_macbookpro.1")
	if _, err := os.Stat(want); err != nil {
		t.Fatalf("expected asset at %s: %v", want, err)
	}
}

func TestNewFauxSerialGeneratesUniqueValues(t *testing.T) {
	newRepoDir(t)
	mkdirMessages = nil
	if err := runMkdir(nil, []string{"shelf"}); err != nil {
		t.Fatalf("runMkdir() error = %v", err)
	}

	resetNewFlags()
	newKeys = []string{"type=laptop", "make=apple", "model=macbookpro", "serial=faux"}
	newDirectory = "shelf"
	if err := runNew(nil, nil); err != nil {
		t.Fatalf("runNew() error = %v", err)
	}

	entries, err := os.ReadDir("shelf")
	if err != nil {
		t.Fatal(err)
	}
	var leaf string
	for _, e := range entries {
		if e.Name() != ".anchor" {
			leaf = e.Name()
		}
	}
	if !strings.HasPrefix(leaf, "laptop_apple_macbookpro.faux") {
		t.Fatalf("leaf = %q, want a faux serial suffix", leaf)
	}
}

func TestSetModifiesAssetKey(t *testing.T) {
	dir := newRepoDir(t)
	mkdirMessages = nil
	runMkdir(nil, []string{"shelf"})
	resetNewFlags()
	newKeys = []string{"type=laptop", "make=apple", "model=macbookpro", "serial=1"}
	newDirectory = "shelf"
	if err := runNew(nil, nil); err != nil {
		t.Fatal(err)
	}

	assetPath := "shelf/laptop_apple_macbookpro.1"
	resetSetFlags()
	setKeys = []string{"color=silver"}
	setAssets = []string{assetPath}
	if err := runSet(nil, nil); err != nil {
		t.Fatalf("runSet() error = %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(assetPath)))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "color: silver") {
		t.Fatalf("asset contents = %q, want a color key", string(data))
	}
}

func TestGetReturnsNameKeys(t *testing.T) {
	var out bytes.Buffer
	newRepoDir(t)
	term = &ui.Terminal{Out: &out, Err: &bytes.Buffer{}, AssumeYes: true}
	runMkdir(nil, []string{"shelf"})
	resetNewFlags()
	newKeys = []string{"type=laptop", "make=apple", "model=macbookpro", "serial=1"}
	newDirectory = "shelf"
	if err := runNew(nil, nil); err != nil {
		t.Fatal(err)
	}

	resetGetFlags()
	getPaths = []string{"shelf"}
	if err := runGet(nil, nil); err != nil {
		t.Fatalf("runGet() error = %v", err)
	}
	if !strings.Contains(out.String(), "laptop\tapple\tmacbookpro\t1") {
		t.Fatalf("get output = %q, want the four name keys", out.String())
	}
}

func TestGetSortAscendingAndDescending(t *testing.T) {
	var out bytes.Buffer
	newRepoDir(t)
	term = &ui.Terminal{Out: &out, Err: &bytes.Buffer{}, AssumeYes: true}
	runMkdir(nil, []string{"shelf"})

	resetNewFlags()
	newKeys = []string{"type=laptop", "make=apple", "model=macbookpro", "serial=1", "build-date=2025"}
	newDirectory = "shelf"
	if err := runNew(nil, nil); err != nil {
		t.Fatal(err)
	}
	resetNewFlags()
	newKeys = []string{"type=laptop", "make=dell", "model=latitude", "serial=2", "build-date=2015"}
	newDirectory = "shelf"
	if err := runNew(nil, nil); err != nil {
		t.Fatal(err)
	}

	resetGetFlags()
	getKeys = []string{"build-date"}
	getMachineReadable = true
	getSortAscending = true
	out.Reset()
	if err := runGet(nil, nil); err != nil {
		t.Fatalf("runGet() ascending error = %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 2 || lines[0] != "2015" || lines[1] != "2025" {
		t.Fatalf("get --sort-ascending output = %q, want [2015 2025]", lines)
	}

	resetGetFlags()
	getKeys = []string{"build-date"}
	getMachineReadable = true
	getSortDescending = true
	out.Reset()
	if err := runGet(nil, nil); err != nil {
		t.Fatalf("runGet() descending error = %v", err)
	}
	lines = strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 2 || lines[0] != "2025" || lines[1] != "2015" {
		t.Fatalf("get --sort-descending output = %q, want [2025 2015]", lines)
	}
}

func TestRmRemovesAsset(t *testing.T) {
	dir := newRepoDir(t)
	runMkdir(nil, []string{"shelf"})
	resetNewFlags()
	newKeys = []string{"type=laptop", "make=apple", "model=macbookpro", "serial=1"}
	newDirectory = "shelf"
	if err := runNew(nil, nil); err != nil {
		t.Fatal(err)
	}

	assetPath := "shelf/laptop_apple_macbookpro.1"
	rmMessages, rmAssets, rmDirs, rmRecursive = nil, false, false, false
	if err := runRm(nil, []string{assetPath}); err != nil {
		t.Fatalf("runRm() error = %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, filepath.FromSlash(assetPath))); !os.IsNotExist(err) {
		t.Fatalf("expected %s to be removed, stat err = %v", assetPath, err)
	}
}

func TestRmNonEmptyDirectoryRequiresRecursive(t *testing.T) {
	dir := newRepoDir(t)
	runMkdir(nil, []string{"shelf"})
	resetNewFlags()
	newKeys = []string{"type=laptop", "make=apple", "model=macbookpro", "serial=1"}
	newDirectory = "shelf"
	if err := runNew(nil, nil); err != nil {
		t.Fatal(err)
	}

	rmMessages, rmAssets, rmDirs, rmRecursive = nil, false, false, false
	if err := runRm(nil, []string{"shelf"}); err == nil {
		t.Fatal("runRm() on a non-empty directory without --recursive: want error, got nil")
	}
	if _, err := os.Stat(filepath.Join(dir, "shelf", ".anchor")); err != nil {
		t.Fatalf("expected shelf to survive a refused removal: %v", err)
	}

	rmMessages, rmAssets, rmDirs, rmRecursive = nil, false, false, true
	if err := runRm(nil, []string{"shelf"}); err != nil {
		t.Fatalf("runRm() with --recursive error = %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "shelf")); !os.IsNotExist(err) {
		t.Fatalf("expected shelf to be removed, stat err = %v", err)
	}
}

func TestFsckPassesOnCleanRepo(t *testing.T) {
	newRepoDir(t)
	runMkdir(nil, []string{"shelf"})
	if err := runFsck(nil, nil); err != nil {
		t.Fatalf("runFsck() error = %v", err)
	}
}

func TestMvRenamesDirectory(t *testing.T) {
	dir := newRepoDir(t)
	runMkdir(nil, []string{"shelf"})

	mvMessages, mvNoAutoMsg = nil, false
	if err := runMv(nil, []string{"shelf", "office"}); err != nil {
		t.Fatalf("runMv() error = %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "office", ".anchor")); err != nil {
		t.Fatalf("expected office/.anchor to exist after rename: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "shelf")); !os.IsNotExist(err) {
		t.Fatalf("expected shelf to be gone after rename, stat err = %v", err)
	}
}

func TestUnsetRemovesKeyButNotNameKeys(t *testing.T) {
	dir := newRepoDir(t)
	runMkdir(nil, []string{"shelf"})
	resetNewFlags()
	newKeys = []string{"type=laptop", "make=apple", "model=macbookpro", "serial=1", "color=silver"}
	newDirectory = "shelf"
	if err := runNew(nil, nil); err != nil {
		t.Fatal(err)
	}

	assetPath := "shelf/laptop_apple_macbookpro.1"
	unsetMessages, unsetKeys, unsetAssets = nil, []string{"color"}, []string{assetPath}
	if err := runUnset(nil, nil); err != nil {
		t.Fatalf("runUnset() error = %v", err)
	}
	data, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(assetPath)))
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(data), "color") {
		t.Fatalf("asset contents = %q, want color key removed", string(data))
	}

	unsetKeys, unsetAssets = []string{"serial"}, []string{assetPath}
	if err := runUnset(nil, nil); err == nil {
		t.Fatal("runUnset() on a name key: want error, got nil")
	}
}

func TestConfigSetAndGet(t *testing.T) {
	var out bytes.Buffer
	newRepoDir(t)
	term = &ui.Terminal{Out: &out, Err: &bytes.Buffer{}, AssumeYes: true}

	configGet, configUnset = false, false
	if err := runConfig(nil, []string{"onyo.assets.name-format", "type,make,model,serial"}); err != nil {
		t.Fatalf("runConfig() set error = %v", err)
	}

	configGet = true
	if err := runConfig(nil, []string{"onyo.assets.name-format"}); err != nil {
		t.Fatalf("runConfig() get error = %v", err)
	}
	if strings.TrimSpace(out.String()) != "type,make,model,serial" {
		t.Fatalf("config --get output = %q", out.String())
	}
}
