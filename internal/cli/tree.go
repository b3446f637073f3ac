package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/spf13/cobra"
)

var treeDirsOnly bool

var treeCmd = &cobra.Command{
	Use:   "tree [DIRECTORY...]",
	Short: "List assets and directories in a tree-like format",
	RunE:  runTree,
}

func init() {
	treeCmd.Flags().BoolVarP(&treeDirsOnly, "dirs-only", "d", false, "print only directories")
	rootCmd.AddCommand(treeCmd)
}

func runTree(cmd *cobra.Command, dirs []string) error {
	if len(dirs) == 0 {
		dirs = []string{"."}
	}
	repo, err := openRepo()
	if err != nil {
		return err
	}
	assets, err := repo.Store.EnumerateAssets()
	if err != nil {
		return fmt.Errorf("onyo tree: %w", err)
	}
	invDirs, err := repo.Store.EnumerateInventoryDirs()
	if err != nil {
		return fmt.Errorf("onyo tree: %w", err)
	}

	for _, root := range dirs {
		if _, err := repo.Store.Stat(root); err != nil {
			return fmt.Errorf("onyo tree: %w", err)
		}
		term.Printf("%s\n", root)
		var entries []string
		for _, d := range invDirs {
			if under(root, d) {
				entries = append(entries, d)
			}
		}
		if !treeDirsOnly {
			for _, a := range assets {
				if under(root, a) {
					entries = append(entries, a)
				}
			}
		}
		sort.Strings(entries)
		for _, e := range entries {
			depth := strings.Count(strings.TrimPrefix(e, root+"/"), "/")
			term.Printf("%s%s\n", strings.Repeat("  ", depth+1), e)
		}
		summary := humanize.Comma(int64(len(entries)))
		noun := "entries"
		if len(entries) == 1 {
			noun = "entry"
		}
		term.Printf("\n%s %s\n", summary, noun)
	}
	return nil
}

func under(root, p string) bool {
	if root == "." {
		return true
	}
	return p == root || strings.HasPrefix(p, root+"/")
}
