package cli

import (
	"fmt"
	"path/filepath"

	"github.com/psyinfra/onyo-go/internal/onyoerr"
	"github.com/psyinfra/onyo-go/internal/pathrules"
	"github.com/psyinfra/onyo-go/internal/repoconfig"

	"github.com/spf13/cobra"
)

var fsckCmd = &cobra.Command{
	Use:   "fsck",
	Short: "Run repository integrity checks",
	Args:  cobra.NoArgs,
	RunE:  runFsck,
}

func init() {
	rootCmd.AddCommand(fsckCmd)
}

// fsckChecks is the default, ordered set of checks. Checks run in
// order; the first failure raises InvalidRepoError{Which}.
var fsckChecks = []struct {
	name string
	run  func(repo *repoconfig.Repo) error
}{
	{"clean-tree", checkCleanTree},
	{"anchors", checkAnchors},
	{"asset-unique", checkAssetUnique},
	{"asset-yaml", checkAssetYaml},
	{"asset-validity", checkAssetValidity},
	{"pseudo-keys", checkPseudoKeys},
}

func runFsck(cmd *cobra.Command, args []string) error {
	repo, err := openRepo()
	if err != nil {
		return err
	}
	for _, c := range fsckChecks {
		if err := c.run(repo); err != nil {
			return &onyoerr.InvalidRepoError{Which: c.name, Msg: err.Error()}
		}
		term.Printf("%s: ok\n", c.name)
	}
	return nil
}

func checkCleanTree(repo *repoconfig.Repo) error {
	clean, err := repo.Vcs.IsCleanWorktree()
	if err != nil {
		return err
	}
	if !clean {
		return fmt.Errorf("working tree has uncommitted changes")
	}
	return nil
}

func checkAnchors(repo *repoconfig.Repo) error {
	dirs, err := repo.Store.EnumerateInventoryDirs()
	if err != nil {
		return err
	}
	for _, d := range dirs {
		if _, err := repo.Store.Stat(filepath.Join(d, pathrules.AnchorFile)); err != nil {
			return err
		}
	}
	return nil
}

func checkAssetUnique(repo *repoconfig.Repo) error {
	assets, err := repo.Store.EnumerateAssets()
	if err != nil {
		return err
	}
	seen := make(map[string]string, len(assets))
	for _, a := range assets {
		leaf := filepath.Base(a)
		if prior, ok := seen[leaf]; ok {
			return fmt.Errorf("duplicate asset name %q at %q and %q", leaf, prior, a)
		}
		seen[leaf] = a
	}
	return nil
}

func checkAssetYaml(repo *repoconfig.Repo) error {
	assets, err := repo.Store.EnumerateAssets()
	if err != nil {
		return err
	}
	for _, a := range assets {
		if _, err := repo.Store.ReadAsset(a); err != nil {
			return fmt.Errorf("%s: %w", a, err)
		}
	}
	return nil
}

// checkAssetValidity is a pluggable hook for user-defined validation
// rules under .onyo/validation/; no rules are defined yet.
func checkAssetValidity(repo *repoconfig.Repo) error {
	return nil
}

func checkPseudoKeys(repo *repoconfig.Repo) error {
	assets, err := repo.Store.EnumerateAssets()
	if err != nil {
		return err
	}
	for _, a := range assets {
		rec, err := repo.Store.ReadAsset(a)
		if err != nil {
			return fmt.Errorf("%s: %w", a, err)
		}
		for _, k := range rec.Keys() {
			for _, p := range pathrules.PseudoKeys {
				if k == p {
					return fmt.Errorf("%s: record stores pseudo-key %q", a, k)
				}
			}
		}
	}
	return nil
}
