// Package vcs is a thin wrapper over the git binary: stage, commit,
// rename-tracked move, status, config get/set, log. No long-lived
// library state is kept here; every call shells out.
package vcs

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"

	"github.com/psyinfra/onyo-go/internal/onyoerr"
)

// Adapter is bound to one repository root and runs git with that
// directory as its working directory.
type Adapter struct {
	root string
}

// RootOf resolves the repository root containing path by asking git,
// failing with onyoerr.ErrNotARepo when path is outside any repository.
func RootOf(path string) (*Adapter, error) {
	out, err := runIn(path, "rev-parse", "--show-toplevel")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", onyoerr.ErrNotARepo, err)
	}
	root := strings.TrimSpace(out)
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	return &Adapter{root: abs}, nil
}

// Open binds an Adapter directly to a known repository root without
// re-discovering it, used once the caller already holds a validated root.
func Open(root string) *Adapter {
	return &Adapter{root: root}
}

// Root returns the bound repository root.
func (a *Adapter) Root() string { return a.root }

func (a *Adapter) run(args ...string) (string, error) {
	return runIn(a.root, args...)
}

func runIn(dir string, args ...string) (string, error) {
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	if err != nil {
		code := -1
		if ee, ok := err.(*exec.ExitError); ok {
			code = ee.ExitCode()
		}
		return stdout.String(), &onyoerr.VcsError{Code: code, Stderr: strings.TrimSpace(stderr.String())}
	}
	return stdout.String(), nil
}

// IsCleanWorktree is true iff there is nothing staged, nothing unstaged,
// and nothing untracked (respecting ignore rules).
func (a *Adapter) IsCleanWorktree() (bool, error) {
	out, err := a.run("status", "--porcelain")
	if err != nil {
		return false, err
	}
	return strings.TrimSpace(out) == "", nil
}

// Stage adds paths to the index.
func (a *Adapter) Stage(paths ...string) error {
	if len(paths) == 0 {
		return nil
	}
	_, err := a.run(append([]string{"add", "--"}, paths...)...)
	return err
}

// StageRemove stages the removal of paths (files or whole directories)
// already deleted from disk.
func (a *Adapter) StageRemove(paths ...string) error {
	if len(paths) == 0 {
		return nil
	}
	_, err := a.run(append([]string{"rm", "-r", "--cached", "--ignore-unmatch", "--"}, paths...)...)
	return err
}

// UnstageAndRestore undoes staged and worktree changes to paths, used
// to roll back a transaction after an executor failure.
func (a *Adapter) UnstageAndRestore(paths ...string) error {
	if len(paths) == 0 {
		return nil
	}
	args := append([]string{"restore", "--source=HEAD", "--staged", "--worktree", "--"}, paths...)
	_, err := a.run(args...)
	return err
}

// Rename moves src to dst via `git mv`, preserving rename detection in
// subsequent history queries.
func (a *Adapter) Rename(src, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	_, err := a.run("mv", src, dst)
	return err
}

// Commit performs a single atomic commit with the given message.
func (a *Adapter) Commit(message string) error {
	_, err := a.run("commit", "--quiet", "-m", message)
	return err
}

// FilesStaged returns repository-relative paths with staged changes.
func (a *Adapter) FilesStaged() ([]string, error) {
	out, err := a.run("diff", "--cached", "--name-only")
	if err != nil {
		return nil, err
	}
	return splitLines(out), nil
}

// FilesChanged returns repository-relative paths with unstaged changes.
func (a *Adapter) FilesChanged() ([]string, error) {
	out, err := a.run("diff", "--name-only")
	if err != nil {
		return nil, err
	}
	return splitLines(out), nil
}

// FilesUntracked returns untracked repository-relative paths (honoring
// ignore rules).
func (a *Adapter) FilesUntracked() ([]string, error) {
	out, err := a.run("ls-files", "--others", "--exclude-standard")
	if err != nil {
		return nil, err
	}
	return splitLines(out), nil
}

// FilesTracked returns every path git tracks in the repository, the
// authoritative enumeration rule used by the asset store (respects
// .gitignore; there is no separate "onyo ignore" mechanism).
func (a *Adapter) FilesTracked() ([]string, error) {
	out, err := a.run("ls-files")
	if err != nil {
		return nil, err
	}
	lines := splitLines(out)
	sort.Strings(lines)
	return lines, nil
}

func splitLines(s string) []string {
	s = strings.TrimRight(s, "\n")
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}

// ConfigGet reads a config value, optionally from a specific file
// (relative to the repo root) rather than the normal config chain.
func (a *Adapter) ConfigGet(name string, file string) (string, error) {
	args := []string{"config"}
	if file != "" {
		args = append(args, "-f", file)
	}
	args = append(args, "--get", name)
	out, err := a.run(args...)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// ConfigSet writes a config value, optionally to a specific file.
func (a *Adapter) ConfigSet(name, value, file string) error {
	args := []string{"config"}
	if file != "" {
		args = append(args, "-f", file)
	}
	args = append(args, name, value)
	_, err := a.run(args...)
	return err
}

// ConfigUnset removes a config value, optionally from a specific file.
// git config --unset exits 5 when the key is missing; that exit code is
// bubbled up unchanged via onyoerr.VcsError, per spec.
func (a *Adapter) ConfigUnset(name string, file string) error {
	args := []string{"config"}
	if file != "" {
		args = append(args, "-f", file)
	}
	args = append(args, "--unset", name)
	_, err := a.run(args...)
	return err
}

// Log spawns the configured non-interactive history command for path
// and returns its standard output verbatim; exit codes pass through
// unchanged via onyoerr.VcsError.
func (a *Adapter) Log(command []string, path string, follow bool) (string, error) {
	args := append([]string{}, command...)
	if follow {
		args = append(args, "--follow")
	}
	if path != "" {
		args = append(args, "--", path)
	}
	name, rest := args[0], args[1:]
	cmd := exec.Command(name, rest...)
	cmd.Dir = a.root
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	if err != nil {
		code := -1
		if ee, ok := err.(*exec.ExitError); ok {
			code = ee.ExitCode()
		}
		return stdout.String(), &onyoerr.VcsError{Code: code, Stderr: strings.TrimSpace(stderr.String())}
	}
	return stdout.String(), nil
}

// LogInteractive spawns the configured interactive history command for
// path with stdio connected directly to the terminal (e.g. `tig
// --follow`), the same "outboard symbiont" shape reposurgeon uses for
// its external pager: the command owns the terminal until it exits.
func (a *Adapter) LogInteractive(command []string, path string) error {
	args := append([]string{}, command...)
	if path != "" {
		args = append(args, "--", path)
	}
	name, rest := args[0], args[1:]
	cmd := exec.Command(name, rest...)
	cmd.Dir = a.root
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	err := cmd.Run()
	if err != nil {
		code := -1
		if ee, ok := err.(*exec.ExitError); ok {
			code = ee.ExitCode()
		}
		return &onyoerr.VcsError{Code: code, Stderr: ""}
	}
	return nil
}

// Init runs `git init` in dir, used by `onyo init`.
func Init(dir string) error {
	_, err := runIn(dir, "init", "--quiet")
	return err
}
