package vcs

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"
)

func requireGit(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not available on PATH")
	}
}

func newTestRepo(t *testing.T) *Adapter {
	t.Helper()
	requireGit(t)
	dir := t.TempDir()
	if err := Init(dir); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	a := Open(dir)
	if _, err := a.run("config", "user.email", "test@example.com"); err != nil {
		t.Fatalf("config user.email: %v", err)
	}
	if _, err := a.run("config", "user.name", "test"); err != nil {
		t.Fatalf("config user.name: %v", err)
	}
	return a
}

func TestIsCleanWorktree(t *testing.T) {
	a := newTestRepo(t)

	clean, err := a.IsCleanWorktree()
	if err != nil {
		t.Fatalf("IsCleanWorktree() error = %v", err)
	}
	if !clean {
		t.Error("fresh repo should be clean")
	}

	if err := os.WriteFile(filepath.Join(a.Root(), "untracked.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	clean, err = a.IsCleanWorktree()
	if err != nil {
		t.Fatalf("IsCleanWorktree() error = %v", err)
	}
	if clean {
		t.Error("repo with untracked file should not be clean")
	}
}

func TestStageCommitAndFilesTracked(t *testing.T) {
	a := newTestRepo(t)

	path := filepath.Join(a.Root(), "laptop_apple_macbookpro.1")
	if err := os.WriteFile(path, []byte(""), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := a.Stage(path); err != nil {
		t.Fatalf("Stage() error = %v", err)
	}

	staged, err := a.FilesStaged()
	if err != nil {
		t.Fatalf("FilesStaged() error = %v", err)
	}
	if len(staged) != 1 || staged[0] != "laptop_apple_macbookpro.1" {
		t.Errorf("FilesStaged() = %v", staged)
	}

	if err := a.Commit("new [1]: 'laptop_apple_macbookpro.1'"); err != nil {
		t.Fatalf("Commit() error = %v", err)
	}

	clean, err := a.IsCleanWorktree()
	if err != nil {
		t.Fatalf("IsCleanWorktree() error = %v", err)
	}
	if !clean {
		t.Error("worktree should be clean immediately after commit")
	}

	tracked, err := a.FilesTracked()
	if err != nil {
		t.Fatalf("FilesTracked() error = %v", err)
	}
	if len(tracked) != 1 || tracked[0] != "laptop_apple_macbookpro.1" {
		t.Errorf("FilesTracked() = %v", tracked)
	}
}

func TestRenameAndRestore(t *testing.T) {
	a := newTestRepo(t)

	src := filepath.Join(a.Root(), "old_apple_macbookpro.1")
	if err := os.WriteFile(src, []byte("type: laptop\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := a.Stage(src); err != nil {
		t.Fatal(err)
	}
	if err := a.Commit("seed"); err != nil {
		t.Fatal(err)
	}

	dst := filepath.Join(a.Root(), "new_apple_macbookpro.1")
	if err := a.Rename(src, dst); err != nil {
		t.Fatalf("Rename() error = %v", err)
	}

	if _, err := os.Stat(dst); err != nil {
		t.Fatalf("renamed file should exist: %v", err)
	}
	if _, err := os.Stat(src); err == nil {
		t.Fatal("original file should no longer exist")
	}

	if err := a.UnstageAndRestore("old_apple_macbookpro.1", "new_apple_macbookpro.1"); err != nil {
		t.Fatalf("UnstageAndRestore() error = %v", err)
	}

	if _, err := os.Stat(src); err != nil {
		t.Fatalf("restore should bring back original file: %v", err)
	}
}

func TestConfigGetSetUnset(t *testing.T) {
	a := newTestRepo(t)

	if err := os.MkdirAll(filepath.Join(a.Root(), ".onyo"), 0o755); err != nil {
		t.Fatal(err)
	}

	if err := a.ConfigSet("onyo.new.template", "empty", ".onyo/config"); err != nil {
		t.Fatalf("ConfigSet() error = %v", err)
	}

	val, err := a.ConfigGet("onyo.new.template", ".onyo/config")
	if err != nil {
		t.Fatalf("ConfigGet() error = %v", err)
	}
	if val != "empty" {
		t.Errorf("ConfigGet() = %q, want %q", val, "empty")
	}

	if err := a.ConfigUnset("onyo.new.template", ".onyo/config"); err != nil {
		t.Fatalf("ConfigUnset() error = %v", err)
	}

	if _, err := a.ConfigGet("onyo.new.template", ".onyo/config"); err == nil {
		t.Error("ConfigGet() after unset should fail")
	}
}

func TestRootOfFailsOutsideRepo(t *testing.T) {
	requireGit(t)
	dir := t.TempDir()
	if _, err := RootOf(dir); err == nil {
		t.Error("RootOf() outside a repo should fail")
	}
}
