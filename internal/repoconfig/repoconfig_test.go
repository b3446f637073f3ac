package repoconfig

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/psyinfra/onyo-go/internal/vcs"
)

func requireGit(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not available on PATH")
	}
}

func noEnv(string) string { return "" }

func TestOpenDefaultsWithoutConfigFile(t *testing.T) {
	requireGit(t)
	dir := t.TempDir()
	if err := vcs.Init(dir); err != nil {
		t.Fatal(err)
	}
	repo, err := Open(dir, noEnv)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if repo.Config.Editor != "nano" {
		t.Errorf("Config.Editor = %q, want default nano", repo.Config.Editor)
	}
	if repo.Config.NewTemplate != "empty" {
		t.Errorf("Config.NewTemplate = %q, want default empty", repo.Config.NewTemplate)
	}
	if len(repo.Config.NameKeys) != 4 {
		t.Errorf("Config.NameKeys = %v, want the 4 default name keys", repo.Config.NameKeys)
	}
}

func TestOpenReadsReservedConfigOptions(t *testing.T) {
	requireGit(t)
	dir := t.TempDir()
	if err := vcs.Init(dir); err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(filepath.Join(dir, ".onyo"), 0o755); err != nil {
		t.Fatal(err)
	}
	a := vcs.Open(dir)
	if err := a.ConfigSet("onyo.core.editor", "vim", ConfigFile); err != nil {
		t.Fatal(err)
	}
	if err := a.ConfigSet("onyo.new.template", "laptop", ConfigFile); err != nil {
		t.Fatal(err)
	}
	if err := a.ConfigSet("onyo.assets.name-format", "type,make,model,serial,owner", ConfigFile); err != nil {
		t.Fatal(err)
	}

	repo, err := Open(dir, noEnv)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if repo.Config.Editor != "vim" {
		t.Errorf("Config.Editor = %q, want vim", repo.Config.Editor)
	}
	if repo.Config.NewTemplate != "laptop" {
		t.Errorf("Config.NewTemplate = %q, want laptop", repo.Config.NewTemplate)
	}
	want := []string{"type", "make", "model", "serial", "owner"}
	if len(repo.Config.NameKeys) != len(want) {
		t.Fatalf("Config.NameKeys = %v, want %v", repo.Config.NameKeys, want)
	}
	for i, k := range want {
		if repo.Config.NameKeys[i] != k {
			t.Errorf("Config.NameKeys[%d] = %q, want %q", i, repo.Config.NameKeys[i], k)
		}
	}
}

func TestOpenFallsBackToEditorEnv(t *testing.T) {
	requireGit(t)
	dir := t.TempDir()
	if err := vcs.Init(dir); err != nil {
		t.Fatal(err)
	}
	repo, err := Open(dir, func(k string) string {
		if k == "EDITOR" {
			return "emacs"
		}
		return ""
	})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if repo.Config.Editor != "emacs" {
		t.Errorf("Config.Editor = %q, want emacs from $EDITOR", repo.Config.Editor)
	}
}
