package cli

import (
	"fmt"

	"github.com/psyinfra/onyo-go/internal/commitmsg"
	"github.com/psyinfra/onyo-go/internal/transaction"

	"github.com/spf13/cobra"
)

var (
	unsetMessages []string
	unsetKeys     []string
	unsetAssets   []string
)

var unsetCmd = &cobra.Command{
	Use:   "unset",
	Short: "Remove keys from assets",
	Long:  `Remove KEYs from assets. Keys used in the asset name cannot be unset.`,
	RunE:  runUnset,
}

func init() {
	unsetCmd.Flags().StringArrayVarP(&unsetMessages, "message", "m", nil, "commit message (repeatable)")
	unsetCmd.Flags().StringArrayVarP(&unsetKeys, "keys", "k", nil, "keys to unset")
	unsetCmd.Flags().StringArrayVarP(&unsetAssets, "asset", "a", nil, "assets to modify")
	unsetCmd.MarkFlagRequired("keys")
	unsetCmd.MarkFlagRequired("asset")
	rootCmd.AddCommand(unsetCmd)
}

func runUnset(cmd *cobra.Command, args []string) error {
	nameKeySet := map[string]bool{}
	repo, err := openRepo()
	if err != nil {
		return err
	}
	for _, k := range repo.Config.NameKeys {
		nameKeySet[k] = true
	}
	for _, k := range unsetKeys {
		if nameKeySet[k] {
			return fmt.Errorf("onyo unset: %q is part of the asset name and cannot be unset", k)
		}
	}

	tx := transaction.New(repo.Store, repo.Vcs, repo.Config.NameKeys)
	for _, asset := range unsetAssets {
		rec, err := repo.Store.ReadAsset(asset)
		if err != nil {
			return fmt.Errorf("onyo unset: %w", err)
		}
		updated := rec.Clone()
		for _, k := range unsetKeys {
			updated.Delete(k)
		}
		if err := tx.ModifyAsset(asset, updated, false); err != nil {
			return fmt.Errorf("onyo unset: %w", err)
		}
	}

	msg := commitmsg.Synthesize(tx, commitmsg.SubjectInput{Command: "unset", Paths: unsetAssets, Keys: unsetKeys}, joinMessages(unsetMessages))
	return previewAndCommit(tx, msg)
}
