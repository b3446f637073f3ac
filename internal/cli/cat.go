package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/psyinfra/onyo-go/internal/pathrules"

	"github.com/spf13/cobra"
)

var catCmd = &cobra.Command{
	Use:   "cat ASSET...",
	Short: "Print the contents of assets to stdout",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runCat,
}

func init() {
	rootCmd.AddCommand(catCmd)
}

func runCat(cmd *cobra.Command, assets []string) error {
	repo, err := openRepo()
	if err != nil {
		return err
	}
	var buffers [][]byte
	for _, a := range assets {
		class, err := repo.Store.Stat(a)
		if err != nil {
			return fmt.Errorf("onyo cat: %w", err)
		}
		var target string
		switch class {
		case pathrules.AssetFile:
			target = repo.Store.AbsPath(a)
		case pathrules.AssetDir:
			target = filepath.Join(repo.Store.AbsPath(a), pathrules.AssetDirSidecar)
		default:
			return fmt.Errorf("onyo cat: %q is not an asset", a)
		}
		data, err := os.ReadFile(target)
		if err != nil {
			return fmt.Errorf("onyo cat: %w", err)
		}
		buffers = append(buffers, data)
	}
	for _, b := range buffers {
		fmt.Fprint(term.Out, string(b))
	}
	return nil
}
