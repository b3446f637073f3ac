package cli

import (
	"fmt"

	"github.com/psyinfra/onyo-go/internal/commitmsg"
	"github.com/psyinfra/onyo-go/internal/onyoerr"
	"github.com/psyinfra/onyo-go/internal/pathrules"
	"github.com/psyinfra/onyo-go/internal/transaction"

	"github.com/spf13/cobra"
)

var (
	rmMessages  []string
	rmAssets    bool
	rmDirs      bool
	rmRecursive bool
)

var rmCmd = &cobra.Command{
	Use:   "rm PATH...",
	Short: "Delete assets and/or directories",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runRm,
}

func init() {
	rmCmd.Flags().StringArrayVarP(&rmMessages, "message", "m", nil, "commit message (repeatable)")
	rmCmd.Flags().BoolVarP(&rmAssets, "asset", "a", false, "operate only on assets")
	rmCmd.Flags().BoolVarP(&rmDirs, "dir", "d", false, "operate only on directories")
	rmCmd.Flags().BoolVarP(&rmRecursive, "recursive", "r", false, "remove non-empty directories")
	rootCmd.AddCommand(rmCmd)
}

func runRm(cmd *cobra.Command, paths []string) error {
	if rmAssets && rmDirs {
		return onyoerr.ErrFlagConflict.With("--asset and --dir are mutually exclusive")
	}
	repo, err := openRepo()
	if err != nil {
		return err
	}
	tx := transaction.New(repo.Store, repo.Vcs, repo.Config.NameKeys)
	for _, p := range paths {
		class, err := repo.Store.Stat(p)
		if err != nil {
			return fmt.Errorf("onyo rm: %w", err)
		}
		isAsset := class == pathrules.AssetFile || class == pathrules.AssetDir
		if rmAssets && !isAsset {
			return fmt.Errorf("onyo rm: %q is not an asset", p)
		}
		if rmDirs && isAsset {
			return fmt.Errorf("onyo rm: %q is not a directory", p)
		}
		if isAsset {
			if err := tx.RemoveAsset(p); err != nil {
				return fmt.Errorf("onyo rm: %w", err)
			}
			continue
		}
		if err := tx.RemoveDirectory(p, rmRecursive); err != nil {
			return fmt.Errorf("onyo rm: %w", err)
		}
	}
	msg := commitmsg.Synthesize(tx, commitmsg.SubjectInput{Command: "rm", Paths: paths}, joinMessages(rmMessages))
	return previewAndCommit(tx, msg)
}
