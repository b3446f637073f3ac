package cli

import (
	"encoding/csv"
	"fmt"
	"os"
	"strings"

	"github.com/psyinfra/onyo-go/internal/commitmsg"
	"github.com/psyinfra/onyo-go/internal/onyoerr"
	"github.com/psyinfra/onyo-go/internal/ops"
	"github.com/psyinfra/onyo-go/internal/record"
	"github.com/psyinfra/onyo-go/internal/repoconfig"
	"github.com/psyinfra/onyo-go/internal/transaction"

	"github.com/spf13/cobra"
)

// fauxSerialLength matches the reference implementation's default
// faux_serials(length=6).
const fauxSerialLength = 6

var (
	newMessages  []string
	newTemplate  string
	newClone     string
	newTsvPath   string
	newKeys      []string
	newDirectory string
	newEdit      bool
)

var newCmd = &cobra.Command{
	Use:   "new",
	Short: "Create new assets",
	Long:  `Create new assets, populated in waterfall order from --clone/--template, --tsv, and --keys.`,
	RunE:  runNew,
}

func init() {
	newCmd.Flags().StringArrayVarP(&newMessages, "message", "m", nil, "commit message (repeatable)")
	newCmd.Flags().StringVarP(&newTemplate, "template", "t", "", "template name to populate new assets from")
	newCmd.Flags().StringVarP(&newClone, "clone", "c", "", "path of an existing asset to clone")
	newCmd.Flags().StringVar(&newTsvPath, "tsv", "", "path to a TSV file describing new assets")
	newCmd.Flags().StringArrayVarP(&newKeys, "keys", "k", nil, "key=value pairs populating new assets")
	newCmd.Flags().StringVarP(&newDirectory, "directory", "d", "", "directory to create new assets in")
	newCmd.Flags().BoolVarP(&newEdit, "edit", "e", false, "open new assets in an editor before committing")
	rootCmd.AddCommand(newCmd)
}

// keyValueRows expands --keys into one row per asset: a key given once
// broadcasts to every row; a key given N>1 times requires every
// multiply-given key to share the same N.
func keyValueRows(pairs []string) ([]map[string]string, error) {
	register := map[string][]string{}
	order := []string{}
	for _, kv := range pairs {
		idx := strings.Index(kv, "=")
		if idx < 0 {
			return nil, fmt.Errorf("invalid key=value pair %q", kv)
		}
		key, val := kv[:idx], kv[idx+1:]
		if _, ok := register[key]; !ok {
			order = append(order, key)
		}
		register[key] = append(register[key], val)
	}
	n := 1
	for _, vs := range register {
		if len(vs) > 1 {
			if n > 1 && n != len(vs) {
				return nil, fmt.Errorf("--keys: all keys given multiple times must be given the same number of times")
			}
			n = len(vs)
		}
	}
	rows := make([]map[string]string, n)
	for i := range rows {
		row := make(map[string]string, len(order))
		for _, k := range order {
			vs := register[k]
			if len(vs) == 1 {
				row[k] = vs[0]
			} else {
				row[k] = vs[i]
			}
		}
		rows[i] = row
	}
	return rows, nil
}

func readTsvRows(path string) ([]map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	r := csv.NewReader(f)
	r.Comma = '\t'
	r.LazyQuotes = true
	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("tsv file %q has no header row", path)
	}
	header := records[0]
	rows := make([]map[string]string, 0, len(records)-1)
	for _, line := range records[1:] {
		row := make(map[string]string, len(header))
		for i, col := range header {
			if i < len(line) {
				row[col] = line[i]
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func mergeRows(base, overrides []map[string]string) ([]map[string]string, error) {
	switch {
	case len(base) == 0:
		return overrides, nil
	case len(overrides) == 0:
		return base, nil
	case len(overrides) == 1:
		merged := make([]map[string]string, len(base))
		for i, row := range base {
			out := map[string]string{}
			for k, v := range row {
				out[k] = v
			}
			for k, v := range overrides[0] {
				out[k] = v
			}
			merged[i] = out
		}
		return merged, nil
	case len(base) == len(overrides):
		merged := make([]map[string]string, len(base))
		for i := range base {
			out := map[string]string{}
			for k, v := range base[i] {
				out[k] = v
			}
			for k, v := range overrides[i] {
				out[k] = v
			}
			merged[i] = out
		}
		return merged, nil
	default:
		return nil, onyoerr.ErrFlagConflict.With("--tsv row count does not match --keys row count")
	}
}

func runNew(cmd *cobra.Command, args []string) error {
	if newClone != "" && newTemplate != "" {
		return onyoerr.ErrFlagConflict.With("--clone and --template are mutually exclusive")
	}
	if !newEdit && newTsvPath == "" && len(newKeys) == 0 && newClone == "" && newTemplate == "" {
		return fmt.Errorf("onyo new: one of --clone, --template, --tsv, --keys, or --edit is required")
	}

	repo, err := openRepo()
	if err != nil {
		return err
	}

	var base *record.Record
	switch {
	case newClone != "":
		base, err = repo.Store.ReadAsset(newClone)
		if err != nil {
			return fmt.Errorf("onyo new: %w", err)
		}
		base = base.WithoutKeys("directory", "template", "is_asset_directory")
	case newTemplate != "":
		templates, err := repo.Store.EnumerateTemplates()
		if err != nil {
			return fmt.Errorf("onyo new: %w", err)
		}
		rel, ok := templates[newTemplate]
		if !ok {
			return &onyoerr.NoTemplateError{Name: newTemplate}
		}
		base, err = repo.Store.ReadAsset(rel)
		if err != nil {
			data, readErr := os.ReadFile(repo.Store.AbsPath(rel))
			if readErr != nil {
				return fmt.Errorf("onyo new: %w", readErr)
			}
			base, err = record.Parse(data)
			if err != nil {
				return fmt.Errorf("onyo new: %w", err)
			}
		}
	default:
		base = record.Empty()
	}

	var tsvRows, keyRows []map[string]string
	if newTsvPath != "" {
		tsvRows, err = readTsvRows(newTsvPath)
		if err != nil {
			return fmt.Errorf("onyo new: %w", err)
		}
	}
	if len(newKeys) > 0 {
		keyRows, err = keyValueRows(newKeys)
		if err != nil {
			return fmt.Errorf("onyo new: %w", err)
		}
	}
	rows, err := mergeRows(tsvRows, keyRows)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		rows = []map[string]string{{}}
	}

	fauxSerials, err := fauxSerialBatch(repo, rows)
	if err != nil {
		return fmt.Errorf("onyo new: %w", err)
	}

	tx := transaction.New(repo.Store, repo.Vcs, repo.Config.NameKeys)
	var created []string
	for _, row := range rows {
		dir := newDirectory
		rec := base.Clone()
		for k, v := range row {
			if k == "directory" {
				if dir != "" {
					return &onyoerr.ConflictingKeysError{Key: "directory"}
				}
				dir = v
				continue
			}
			if k == "serial" && v == "faux" {
				v = fauxSerials[0]
				fauxSerials = fauxSerials[1:]
			}
			if err := rec.Set(k, convertScalar(v)); err != nil {
				return fmt.Errorf("onyo new: %w", err)
			}
		}
		if dir == "" {
			dir = "."
		}
		if newEdit {
			edited, cancelled, err := editRecord(repo.Config.Editor, rec)
			if err != nil {
				return fmt.Errorf("onyo new: %w", err)
			}
			if cancelled {
				continue
			}
			rec = edited
		}
		if err := tx.AddAsset(dir, rec); err != nil {
			return fmt.Errorf("onyo new: %w", err)
		}
		staged := tx.Operations()
		last := staged[len(staged)-1].Operands.(ops.NewAssetOperands)
		created = append(created, last.Path)
	}

	msg := commitmsg.Synthesize(tx, commitmsg.SubjectInput{Command: "new", Paths: created}, joinMessages(newMessages))
	return previewAndCommit(tx, msg)
}

// fauxSerialBatch pre-generates one faux serial per row whose "serial"
// column is literally "faux", disjoint from every serial already on
// disk, so a multi-row `new --tsv` never collides with itself.
func fauxSerialBatch(repo *repoconfig.Repo, rows []map[string]string) ([]string, error) {
	n := 0
	for _, row := range rows {
		if row["serial"] == "faux" {
			n++
		}
	}
	if n == 0 {
		return nil, nil
	}

	existing := map[string]bool{}
	assets, err := repo.Store.EnumerateAssets()
	if err != nil {
		return nil, err
	}
	for _, a := range assets {
		rec, err := repo.Store.ReadAsset(a)
		if err != nil {
			continue
		}
		if v, ok := rec.Get("serial"); ok {
			if s, ok := v.(string); ok {
				existing[s] = true
			}
		}
	}
	return record.FauxSerials(existing, n, fauxSerialLength)
}
