package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/mattn/go-isatty"

	"github.com/spf13/cobra"
)

var historyNonInteractive bool

var historyCmd = &cobra.Command{
	Use:   "history [PATH]",
	Short: "Display the history of PATH",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runHistory,
}

func init() {
	historyCmd.Flags().BoolVarP(&historyNonInteractive, "non-interactive", "I", false, "use the non-interactive history command")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	repo, err := openRepo()
	if err != nil {
		return err
	}
	path := "."
	if len(args) == 1 {
		path = args[0]
	}

	interactive := !historyNonInteractive && isatty.IsTerminal(os.Stdout.Fd())
	if interactive {
		command := strings.Fields(repo.Config.HistoryInteractive)
		return repo.Vcs.LogInteractive(command, path)
	}
	command := strings.Fields(repo.Config.HistoryNonInteractive)
	out, err := repo.Vcs.Log(command, path, true)
	if err != nil {
		return fmt.Errorf("onyo history: %w", err)
	}
	term.Printf("%s", out)
	return nil
}
