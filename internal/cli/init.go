package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/psyinfra/onyo-go/internal/assetstore"
	"github.com/psyinfra/onyo-go/internal/onyoerr"
	"github.com/psyinfra/onyo-go/internal/vcs"

	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:   "init [DIR]",
	Short: "Initialize an onyo repository",
	Long:  `Initialize the current working directory (or DIR) as an onyo repository: create it as a git repository if needed, populate .onyo/, and commit.`,
	Args:  cobra.MaximumNArgs(1),
	RunE:  runInit,
}

func init() {
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	target := "."
	if len(args) == 1 {
		target = args[0]
	}
	abs, err := filepath.Abs(target)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return fmt.Errorf("onyo init: %w", err)
	}

	if a, err := vcs.RootOf(abs); err == nil {
		if _, statErr := os.Stat(filepath.Join(a.Root(), ".onyo")); statErr == nil {
			return onyoerr.ErrPathExists.With(fmt.Sprintf("%q is already an onyo repository", a.Root()))
		}
	}

	if _, err := os.Stat(filepath.Join(abs, ".git")); os.IsNotExist(err) {
		if err := vcs.Init(abs); err != nil {
			return fmt.Errorf("onyo init: %w", err)
		}
	}

	a := vcs.Open(abs)
	store := assetstore.New(a)
	for _, dir := range []string{".onyo", ".onyo/templates", ".onyo/validation"} {
		if err := store.CreateAnchor(dir); err != nil {
			return fmt.Errorf("onyo init: %w", err)
		}
	}
	configPath := filepath.Join(abs, ".onyo", "config")
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		if err := os.WriteFile(configPath, nil, 0o644); err != nil {
			return fmt.Errorf("onyo init: %w", err)
		}
	}

	if err := a.Stage(".onyo"); err != nil {
		return fmt.Errorf("onyo init: %w", err)
	}
	if err := a.Commit("Initialize onyo repository"); err != nil {
		return fmt.Errorf("onyo init: %w", err)
	}

	term.Printf("Initialized empty onyo repository in %s\n", abs)
	return nil
}
