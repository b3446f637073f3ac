package cli

import (
	"fmt"
	"strings"

	"github.com/psyinfra/onyo-go/internal/commitmsg"
	"github.com/psyinfra/onyo-go/internal/transaction"

	"github.com/spf13/cobra"
)

var mkdirMessages []string

var mkdirCmd = &cobra.Command{
	Use:   "mkdir DIR...",
	Short: "Create inventory directories",
	Long:  `Create one or more inventory directories, including intermediate directories, each anchored so git tracks it even when empty.`,
	Args:  cobra.MinimumNArgs(1),
	RunE:  runMkdir,
}

func init() {
	mkdirCmd.Flags().StringArrayVarP(&mkdirMessages, "message", "m", nil, "commit message (repeatable; joined as paragraphs)")
	rootCmd.AddCommand(mkdirCmd)
}

func runMkdir(cmd *cobra.Command, dirs []string) error {
	repo, err := openRepo()
	if err != nil {
		return err
	}
	tx := transaction.New(repo.Store, repo.Vcs, repo.Config.NameKeys)
	for _, d := range dirs {
		if err := tx.AddDirectory(strings.TrimSuffix(d, "/")); err != nil {
			return fmt.Errorf("onyo mkdir: %w", err)
		}
	}
	msg := commitmsg.Synthesize(tx, commitmsg.SubjectInput{Command: "mkdir", Paths: dirs}, joinMessages(mkdirMessages))
	return previewAndCommit(tx, msg)
}
