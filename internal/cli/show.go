package cli

import (
	"fmt"
	"path"
	"strings"

	"github.com/psyinfra/onyo-go/internal/pathrules"

	"github.com/spf13/cobra"
)

var showBase string

var showCmd = &cobra.Command{
	Use:   "show PATH...",
	Short: "Serialize assets and directories into a multi-document YAML stream",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runShow,
}

func init() {
	showCmd.Flags().StringVarP(&showBase, "base-path", "b", "", "base path that pseudo-key paths are relative to (default: repository root)")
	rootCmd.AddCommand(showCmd)
}

func runShow(cmd *cobra.Command, paths []string) error {
	repo, err := openRepo()
	if err != nil {
		return err
	}

	var assetPaths []string
	for _, p := range paths {
		class, err := repo.Store.Stat(p)
		if err != nil {
			return fmt.Errorf("onyo show: %w", err)
		}
		switch class {
		case pathrules.AssetFile, pathrules.AssetDir:
			assetPaths = append(assetPaths, p)
		case pathrules.InventoryDir:
			all, err := repo.Store.EnumerateAssets()
			if err != nil {
				return fmt.Errorf("onyo show: %w", err)
			}
			for _, a := range all {
				if a == p || strings.HasPrefix(a, p+"/") {
					assetPaths = append(assetPaths, a)
				}
			}
		default:
			return fmt.Errorf("onyo show: %q is neither an asset nor a directory", p)
		}
	}

	for i, p := range assetPaths {
		rec, err := repo.Store.ReadAsset(p)
		if err != nil {
			return fmt.Errorf("onyo show: %w", err)
		}
		doc := rec.Clone()
		rel := p
		if showBase != "" {
			rel = stripBase(p, showBase)
		}
		_ = doc.Set("onyo.path.absolute", "/"+p)
		_ = doc.Set("onyo.path.parent", path.Dir(rel))
		data, err := doc.Marshal()
		if err != nil {
			return fmt.Errorf("onyo show: %w", err)
		}
		if i > 0 {
			term.Printf("---\n")
		}
		term.Printf("%s", string(data))
	}
	return nil
}

func stripBase(p, base string) string {
	rel := strings.TrimPrefix(p, base)
	return strings.TrimPrefix(rel, "/")
}
