// Package cli implements the thin command-line orchestrators (§6) over
// the engine packages: ops, transaction, query, commitmsg. Grounded on
// cmd/linear-fuse/commands/root.go and internal/cmd/root.go's cobra
// wiring shape (persistent flags on root, one file per subcommand,
// RunE returning wrapped errors).
package cli

import (
	"os"

	"github.com/psyinfra/onyo-go/internal/onyoerr"
	"github.com/psyinfra/onyo-go/internal/repoconfig"
	"github.com/psyinfra/onyo-go/internal/ui"

	"github.com/spf13/cobra"
)

var (
	assumeYes bool
	quiet     bool
	debug     bool

	term *ui.Terminal
)

var rootCmd = &cobra.Command{
	Use:           "onyo",
	Short:         "Text-based inventory system",
	Long:          `Onyo tracks inventory as plain-text YAML records inside a git repository, using the filesystem itself as the database.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		t, err := ui.NewTerminal(assumeYes, quiet)
		if err != nil {
			return err
		}
		term = t
		return nil
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&assumeYes, "yes", "y", false, "assume yes for all confirmation prompts")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress non-error output (requires --yes)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "accepted; error output is the same with or without it")
}

// openRepo resolves the onyo repository containing the current working
// directory; outside any repository it returns vcs.RootOf's error,
// which wraps onyoerr.ErrNotARepo.
func openRepo() (*repoconfig.Repo, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	return repoconfig.Open(wd, os.Getenv)
}

// previewAndCommit renders tx's diff, asks for confirmation unless
// --yes was given, and commits with message on approval. Returns
// onyoerr.ErrUserCancelled (via tx.Abort) if the user declines.
func previewAndCommit(tx interface {
	Diff() []string
	Commit(string) error
	Abort() error
}, message string) error {
	diff := tx.Diff()
	for _, line := range diff {
		term.Printf("%s\n", line)
	}
	ok, err := term.Confirm("Commit these changes?")
	if err != nil {
		return err
	}
	if !ok {
		_ = tx.Abort()
		return onyoerr.ErrUserCancelled.With("no changes applied")
	}
	return tx.Commit(message)
}

func joinMessages(messages []string) string {
	out := ""
	for i, m := range messages {
		if i > 0 {
			out += "\n\n"
		}
		out += m
	}
	return out
}
