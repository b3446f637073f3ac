package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/psyinfra/onyo-go/internal/commitmsg"
	"github.com/psyinfra/onyo-go/internal/transaction"

	"github.com/spf13/cobra"
)

var (
	setMessages []string
	setRename   bool
	setKeys     []string
	setAssets   []string
)

var setCmd = &cobra.Command{
	Use:   "set",
	Short: "Set key-value pairs in assets",
	Long:  `Set KEYs to VALUEs for assets. Setting a key used in the asset name requires --rename.`,
	RunE:  runSet,
}

func init() {
	setCmd.Flags().StringArrayVarP(&setMessages, "message", "m", nil, "commit message (repeatable)")
	setCmd.Flags().BoolVarP(&setRename, "rename", "r", false, "allow setting keys that are part of the asset name")
	setCmd.Flags().StringArrayVarP(&setKeys, "keys", "k", nil, "key=value pairs to set")
	setCmd.Flags().StringArrayVarP(&setAssets, "asset", "a", nil, "assets to modify")
	setCmd.MarkFlagRequired("keys")
	setCmd.MarkFlagRequired("asset")
	rootCmd.AddCommand(setCmd)
}

func parseKeyValues(pairs []string) (map[string]any, error) {
	out := make(map[string]any, len(pairs))
	for _, kv := range pairs {
		idx := strings.Index(kv, "=")
		if idx < 0 {
			return nil, fmt.Errorf("invalid key=value pair %q", kv)
		}
		key, raw := kv[:idx], kv[idx+1:]
		out[key] = convertScalar(raw)
	}
	return out, nil
}

// convertScalar mirrors the reference implementation's StoreKeyValuePairs
// coercion: try int, then float, else keep the raw string.
func convertScalar(raw string) any {
	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return f
	}
	if raw == "true" || raw == "false" {
		return raw == "true"
	}
	return raw
}

func runSet(cmd *cobra.Command, args []string) error {
	pairs, err := parseKeyValues(setKeys)
	if err != nil {
		return fmt.Errorf("onyo set: %w", err)
	}

	repo, err := openRepo()
	if err != nil {
		return err
	}
	tx := transaction.New(repo.Store, repo.Vcs, repo.Config.NameKeys)

	for _, asset := range setAssets {
		rec, err := repo.Store.ReadAsset(asset)
		if err != nil {
			return fmt.Errorf("onyo set: %w", err)
		}
		updated := rec.Clone()
		for k, v := range pairs {
			if err := updated.Set(k, v); err != nil {
				return fmt.Errorf("onyo set: %w", err)
			}
		}
		if err := tx.ModifyAsset(asset, updated, setRename); err != nil {
			return fmt.Errorf("onyo set: %w", err)
		}
	}

	msg := commitmsg.Synthesize(tx, commitmsg.SubjectInput{Command: "set", Paths: setAssets, Keys: setKeys}, joinMessages(setMessages))
	return previewAndCommit(tx, msg)
}
