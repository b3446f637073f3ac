package cli

import (
	"fmt"

	"github.com/psyinfra/onyo-go/internal/commitmsg"
	"github.com/psyinfra/onyo-go/internal/pathrules"
	"github.com/psyinfra/onyo-go/internal/transaction"

	"github.com/spf13/cobra"
)

var (
	mvMessages     []string
	mvNoAutoMsg    bool
)

var mvCmd = &cobra.Command{
	Use:   "mv SOURCE... DEST",
	Short: "Move assets or directories into DEST, or rename a directory",
	Args:  cobra.MinimumNArgs(2),
	RunE:  runMv,
}

func init() {
	mvCmd.Flags().StringArrayVarP(&mvMessages, "message", "m", nil, "commit message (repeatable)")
	mvCmd.Flags().BoolVar(&mvNoAutoMsg, "no-auto-message", false, "require an explicit --message instead of synthesizing one")
	rootCmd.AddCommand(mvCmd)
}

func runMv(cmd *cobra.Command, args []string) error {
	sources := args[:len(args)-1]
	dest := args[len(args)-1]

	repo, err := openRepo()
	if err != nil {
		return err
	}

	destClass, err := repo.Store.Stat(dest)
	if err != nil {
		return fmt.Errorf("onyo mv: %w", err)
	}

	tx := transaction.New(repo.Store, repo.Vcs, repo.Config.NameKeys)

	// A single source with a destination that does not yet exist (and
	// whose parent does) is a rename of an inventory directory; onyo mv
	// never renames assets (their names derive from their contents).
	if len(sources) == 1 && destClass == pathrules.Absent {
		srcClass, err := repo.Store.Stat(sources[0])
		if err != nil {
			return fmt.Errorf("onyo mv: %w", err)
		}
		if srcClass == pathrules.InventoryDir {
			if err := tx.RenameDirectory(sources[0], dest); err != nil {
				return fmt.Errorf("onyo mv: %w", err)
			}
			return commitMv(tx, sources, dest)
		}
	}

	for _, src := range sources {
		class, err := repo.Store.Stat(src)
		if err != nil {
			return fmt.Errorf("onyo mv: %w", err)
		}
		switch class {
		case pathrules.AssetFile, pathrules.AssetDir:
			if err := tx.MoveAsset(src, dest); err != nil {
				return fmt.Errorf("onyo mv: %w", err)
			}
		case pathrules.InventoryDir:
			if err := tx.MoveDirectory(src, dest); err != nil {
				return fmt.Errorf("onyo mv: %w", err)
			}
		default:
			return fmt.Errorf("onyo mv: %q is neither an asset nor a directory", src)
		}
	}
	return commitMv(tx, sources, dest)
}

func commitMv(tx *transaction.Transaction, sources []string, dest string) error {
	userMsg := joinMessages(mvMessages)
	if userMsg == "" && mvNoAutoMessage() {
		return fmt.Errorf("onyo mv: --no-auto-message requires --message")
	}
	msg := commitmsg.Synthesize(tx, commitmsg.SubjectInput{Command: "mv", Paths: sources, Dst: dest}, userMsg)
	return previewAndCommit(tx, msg)
}

func mvNoAutoMessage() bool { return mvNoAutoMsg }
