package cli

import (
	"fmt"
	"strings"

	"github.com/psyinfra/onyo-go/internal/query"

	"github.com/spf13/cobra"
)

var (
	getKeys            []string
	getPaths           []string
	getFilters         []string
	getDepth           int
	getSortAscending   bool
	getSortDescending  bool
	getMachineReadable bool
)

var getCmd = &cobra.Command{
	Use:   "get",
	Short: "Query assets and print matching keys",
	Long:  `Print matching assets and the requested keys, or the four name keys if none are given.`,
	RunE:  runGet,
}

func init() {
	getCmd.Flags().StringArrayVarP(&getKeys, "keys", "k", nil, "keys (or pseudo-keys) to print")
	getCmd.Flags().StringArrayVarP(&getPaths, "path", "p", nil, "assets or directories to search through")
	getCmd.Flags().StringArrayVar(&getFilters, "match", nil, "key=value filter (value may be a regex); repeatable")
	getCmd.Flags().IntVar(&getDepth, "depth", 0, "maximum directory depth below each scope (0 = unlimited)")
	getCmd.Flags().BoolVarP(&getSortAscending, "sort-ascending", "s", false, "sort ascending (excludes --sort-descending)")
	getCmd.Flags().BoolVarP(&getSortDescending, "sort-descending", "S", false, "sort descending (excludes --sort-ascending)")
	getCmd.Flags().BoolVarP(&getMachineReadable, "machine-readable", "H", false, "print only the tab-separated values, without the asset path")
	rootCmd.AddCommand(getCmd)
}

func runGet(cmd *cobra.Command, args []string) error {
	repo, err := openRepo()
	if err != nil {
		return err
	}
	rows, err := query.Run(repo.Store, repo.Config.NameKeys, query.Request{
		Scopes:     getPaths,
		Depth:      getDepth,
		Keys:       getKeys,
		Filters:    getFilters,
		Ascending:  getSortAscending,
		Descending: getSortDescending,
	})
	if err != nil {
		return fmt.Errorf("onyo get: %w", err)
	}

	keys := getKeys
	if len(keys) == 0 {
		keys = repo.Config.NameKeys
	}

	if getMachineReadable {
		for _, row := range rows {
			vals := make([]string, len(keys))
			for i, k := range keys {
				vals[i] = row.Values[k]
			}
			term.Printf("%s\n", strings.Join(vals, "\t"))
		}
		return nil
	}

	for _, row := range rows {
		vals := make([]string, len(keys))
		for i, k := range keys {
			vals[i] = row.Values[k]
		}
		term.Printf("%s\t%s\n", row.Path, strings.Join(vals, "\t"))
	}
	return nil
}
