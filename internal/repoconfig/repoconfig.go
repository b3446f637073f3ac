// Package repoconfig resolves the reserved onyo.* config options from
// .onyo/config and wires together the engine's components (vcs,
// assetstore, pathrules name keys) for a single repository. Grounded on
// internal/config.LoadWithEnv's dependency-injected environment lookup,
// adapted here to read from the repository's own git-config-style file
// instead of a user config directory.
package repoconfig

import (
	"os"

	"github.com/psyinfra/onyo-go/internal/assetstore"
	"github.com/psyinfra/onyo-go/internal/pathrules"
	"github.com/psyinfra/onyo-go/internal/vcs"
)

// ConfigFile is the path, relative to the repository root, of onyo's
// reserved git-config-style settings file.
const ConfigFile = ".onyo/config"

// Config holds the resolved reserved options from spec.md §6.
type Config struct {
	NameKeys             []string
	Editor               string
	HistoryInteractive   string
	HistoryNonInteractive string
	NewTemplate          string
	RepoVersion          string
}

// Default mirrors the hard-coded fallbacks from spec.md §6.
func Default() Config {
	return Config{
		NameKeys:              pathrules.DefaultNameKeys,
		Editor:                "nano",
		HistoryInteractive:    "tig --follow",
		HistoryNonInteractive: "git --no-pager log --follow",
		NewTemplate:           "empty",
	}
}

// Repo bundles a repository's resolved config together with its vcs
// adapter and asset store, the unit of dependency injection that
// internal/cli hands to the transaction and query engines.
type Repo struct {
	Vcs    *vcs.Adapter
	Store  *assetstore.Store
	Config Config
}

// Open resolves repo's reserved options and builds a Repo. getenv is
// injected so tests can supply an isolated EDITOR value instead of the
// real process environment.
func Open(root string, getenv func(string) string) (*Repo, error) {
	a, err := vcs.RootOf(root)
	if err != nil {
		return nil, err
	}
	store := assetstore.New(a)
	cfg := Default()

	if v, err := a.ConfigGet("onyo.assets.name-format", ConfigFile); err == nil && v != "" {
		cfg.NameKeys = pathrules.SplitNameFormat(v)
	}
	if v, err := a.ConfigGet("onyo.core.editor", ConfigFile); err == nil && v != "" {
		cfg.Editor = v
	} else if e := getenv("EDITOR"); e != "" {
		cfg.Editor = e
	}
	if v, err := a.ConfigGet("onyo.history.interactive", ConfigFile); err == nil && v != "" {
		cfg.HistoryInteractive = v
	}
	if v, err := a.ConfigGet("onyo.history.non-interactive", ConfigFile); err == nil && v != "" {
		cfg.HistoryNonInteractive = v
	}
	if v, err := a.ConfigGet("onyo.new.template", ConfigFile); err == nil && v != "" {
		cfg.NewTemplate = v
	}
	if v, err := a.ConfigGet("onyo.repo.version", ConfigFile); err == nil && v != "" {
		cfg.RepoVersion = v
	}

	return &Repo{Vcs: a, Store: store, Config: cfg}, nil
}

// OpenWithEnv is a thin alias kept for call sites that prefer a name
// symmetric with internal/config.LoadWithEnv.
func OpenWithEnv(root string, getenv func(string) string) (*Repo, error) {
	return Open(root, getenv)
}

// Load resolves the repository rooted at the current working directory
// using the real process environment.
func Load() (*Repo, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	return Open(wd, os.Getenv)
}
