package cli

import (
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/google/uuid"

	"github.com/psyinfra/onyo-go/internal/commitmsg"
	"github.com/psyinfra/onyo-go/internal/record"
	"github.com/psyinfra/onyo-go/internal/transaction"

	"github.com/spf13/cobra"
)

var editMessages []string

var editCmd = &cobra.Command{
	Use:   "edit ASSET...",
	Short: "Open assets in an editor",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runEdit,
}

func init() {
	editCmd.Flags().StringArrayVarP(&editMessages, "message", "m", nil, "commit message (repeatable)")
	rootCmd.AddCommand(editCmd)
}

func runEdit(cmd *cobra.Command, assets []string) error {
	repo, err := openRepo()
	if err != nil {
		return err
	}
	tx := transaction.New(repo.Store, repo.Vcs, repo.Config.NameKeys)
	for _, asset := range assets {
		rec, err := repo.Store.ReadAsset(asset)
		if err != nil {
			return fmt.Errorf("onyo edit: %w", err)
		}
		edited, cancelled, err := editRecord(repo.Config.Editor, rec)
		if err != nil {
			return fmt.Errorf("onyo edit: %w", err)
		}
		if cancelled {
			continue
		}
		if err := tx.ModifyAsset(asset, edited, false); err != nil {
			return fmt.Errorf("onyo edit: %w", err)
		}
	}
	msg := commitmsg.Synthesize(tx, commitmsg.SubjectInput{Command: "edit", Paths: assets}, joinMessages(editMessages))
	return previewAndCommit(tx, msg)
}

// editRecord writes rec to a scratch file, spawns editorCmd synchronously,
// then reads and YAML-parses the result. On a parse error it prompts to
// reopen or discard; declining the reopen leaves rec unmodified and
// cancelled is true.
func editRecord(editorCmd string, rec *record.Record) (edited *record.Record, cancelled bool, err error) {
	data, err := rec.Marshal()
	if err != nil {
		return nil, false, err
	}
	scratch := os.TempDir() + "/onyo-edit-" + uuid.NewString() + ".yaml"
	if err := os.WriteFile(scratch, data, 0o644); err != nil {
		return nil, false, err
	}
	defer os.Remove(scratch)

	for {
		if err := spawnEditor(editorCmd, scratch); err != nil {
			return nil, false, err
		}
		contents, err := os.ReadFile(scratch)
		if err != nil {
			return nil, false, err
		}
		parsed, parseErr := record.Parse(contents)
		if parseErr == nil {
			return parsed, false, nil
		}
		term.Errorf("invalid YAML: %v\n", parseErr)
		reopen, err := term.Confirm("Reopen the editor? (no discards the edit)")
		if err != nil {
			return nil, false, err
		}
		if !reopen {
			return rec, true, nil
		}
	}
}

func spawnEditor(editorCmd, path string) error {
	fields := strings.Fields(editorCmd)
	if len(fields) == 0 {
		return fmt.Errorf("no editor configured")
	}
	args := append(append([]string{}, fields[1:]...), path)
	c := exec.Command(fields[0], args...)
	c.Stdin = os.Stdin
	c.Stdout = os.Stdout
	c.Stderr = os.Stderr
	return c.Run()
}
