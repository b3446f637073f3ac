package cli

import (
	"fmt"

	"github.com/psyinfra/onyo-go/internal/onyoerr"
	"github.com/psyinfra/onyo-go/internal/repoconfig"

	"github.com/spf13/cobra"
)

var configGet bool
var configUnset bool

var configCmd = &cobra.Command{
	Use:   "config ARGS...",
	Short: "Get, set, or unset onyo repository configuration options",
	Long:  `A thin wrapper around git-config scoped to .onyo/config. Reserved options: onyo.assets.name-format, onyo.core.editor, onyo.history.interactive, onyo.history.non-interactive, onyo.new.template, onyo.repo.version.`,
	Args:  cobra.MinimumNArgs(1),
	RunE:  runConfig,
}

func init() {
	configCmd.Flags().BoolVar(&configGet, "get", false, "query a configuration option")
	configCmd.Flags().BoolVar(&configUnset, "unset", false, "remove a configuration option")
	rootCmd.AddCommand(configCmd)
}

func runConfig(cmd *cobra.Command, args []string) error {
	if configGet && configUnset {
		return onyoerr.ErrFlagConflict.With("--get and --unset are mutually exclusive")
	}
	repo, err := openRepo()
	if err != nil {
		return err
	}

	switch {
	case configGet:
		v, err := repo.Vcs.ConfigGet(args[0], repoconfig.ConfigFile)
		if err != nil {
			return err
		}
		term.Printf("%s\n", v)
	case configUnset:
		if err := repo.Vcs.ConfigUnset(args[0], repoconfig.ConfigFile); err != nil {
			return err
		}
	default:
		if len(args) < 2 {
			return fmt.Errorf("onyo config: setting a value requires NAME and VALUE")
		}
		if err := repo.Vcs.ConfigSet(args[0], args[1], repoconfig.ConfigFile); err != nil {
			return err
		}
	}
	return nil
}
