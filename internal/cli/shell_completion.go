package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var shellCompletionCmd = &cobra.Command{
	Use:       "shell-completion SHELL",
	Short:     "Print a shell completion script",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"bash", "zsh", "fish"},
	RunE:      runShellCompletion,
}

func init() {
	rootCmd.AddCommand(shellCompletionCmd)
}

func runShellCompletion(cmd *cobra.Command, args []string) error {
	root := cmd.Root()
	switch args[0] {
	case "bash":
		return root.GenBashCompletion(term.Out)
	case "zsh":
		return root.GenZshCompletion(term.Out)
	case "fish":
		return root.GenFishCompletion(term.Out, true)
	default:
		return fmt.Errorf("onyo shell-completion: unsupported shell %q", args[0])
	}
}
