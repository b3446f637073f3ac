// Package query implements the Query Engine (C7): path/depth scoping,
// predicate filtering over content keys and pseudo-keys, natural sort,
// and key projection. Grounded on original_source/onyo/commands/get.py
// and onyo/lib/command_utils.py's get(), which evaluates pseudo-key
// filters before loading any asset file and only falls back to reading
// a record when a filter actually needs it.
package query

import (
	"context"
	"fmt"
	"path"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"unicode"

	"github.com/psyinfra/onyo-go/internal/assetstore"
	"github.com/psyinfra/onyo-go/internal/onyoerr"
	"github.com/psyinfra/onyo-go/internal/pathrules"
	"github.com/psyinfra/onyo-go/internal/record"

	"golang.org/x/sync/errgroup"
)

// loadConcurrency bounds how many asset files query.Run reads at once.
// Reads are read-only and confined to one Run call, so they never
// overlap with a transaction's single-writer assumption.
const loadConcurrency = 8

// Request is one query's parameters.
type Request struct {
	Scopes     []string // repository-relative paths: assets or inventory directories
	Depth      int      // 0 = unlimited; negative is invalid
	Keys       []string // projection; empty means the four name keys
	Filters    []string // "key=value" expressions, value may be a regex
	Ascending  bool
	Descending bool
}

// Row is one matched, projected asset.
type Row struct {
	Path   string
	Values map[string]string // keyed by projected key (Keys, or the name keys if Keys was empty)
}

type filter struct {
	key      string
	re       *regexp.Regexp
	literal  any
	isMarker bool
	isPseudo bool
}

// Run evaluates req against store's assets and returns matching rows.
// With no sort direction requested, rows are naturally sorted by path.
// With Ascending or Descending set, rows are naturally sorted by the
// first projected key's value instead (Keys if given, else the four
// name keys). nameKeys is the configured ordered list of required name
// keys, used both for the default projection and for pseudo-key
// resolution.
func Run(store *assetstore.Store, nameKeys []string, req Request) ([]Row, error) {
	if req.Ascending && req.Descending {
		return nil, onyoerr.ErrFlagConflict.With("--sort-ascending and --sort-descending are mutually exclusive")
	}
	if req.Depth < 0 {
		return nil, fmt.Errorf("query: depth must be >= 0, got %d", req.Depth)
	}
	if len(nameKeys) == 0 {
		nameKeys = pathrules.DefaultNameKeys
	}
	projection := req.Keys
	if len(projection) == 0 {
		projection = nameKeys
	}

	filters, err := parseFilters(req.Filters, nameKeys)
	if err != nil {
		return nil, err
	}
	// Pseudo-key filters are evaluated first so they can prune
	// candidates without touching the filesystem.
	sort.SliceStable(filters, func(i, j int) bool {
		return filters[i].isPseudo && !filters[j].isPseudo
	})

	candidates, err := scopedCandidates(store, req.Scopes, req.Depth)
	if err != nil {
		return nil, err
	}

	var pseudoFiltered []string
	for _, p := range candidates {
		ok, err := matchesPseudoFilters(p, filters, nameKeys)
		if err != nil {
			return nil, err
		}
		if ok {
			pseudoFiltered = append(pseudoFiltered, p)
		}
	}

	rows, err := loadAndFilter(store, pseudoFiltered, filters)
	if err != nil {
		return nil, err
	}

	if len(rows) == 0 && len(req.Filters) > 0 {
		return nil, onyoerr.ErrNoAssetsSelected.With("no assets selected")
	}

	for i := range rows {
		rows[i] = projectRow(rows[i], store, nameKeys, projection)
	}

	// A sort direction sorts by the first projected key's value, per
	// original_source/onyo/lib/commands.py's natural_sort(keys=...) —
	// only when no direction is requested does path order (the default,
	// stable scan order) stand in as the tie-break key.
	sortKey := ""
	if req.Ascending || req.Descending {
		sortKey = projection[0]
	}
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i].Path, rows[j].Path
		if sortKey != "" {
			a, b = rows[i].Values[sortKey], rows[j].Values[sortKey]
		}
		less := naturalLess(a, b)
		if req.Descending {
			return !less && a != b
		}
		return less
	})

	return rows, nil
}

// scopedCandidates resolves req's scope paths into the set of asset
// paths under them, honoring depth.
func scopedCandidates(store *assetstore.Store, scopes []string, depth int) ([]string, error) {
	all, err := store.EnumerateAssets()
	if err != nil {
		return nil, err
	}
	if len(scopes) == 0 {
		scopes = []string{"."}
	}

	seen := map[string]bool{}
	var out []string
	for _, scope := range scopes {
		class, err := store.Stat(scope)
		if err != nil {
			return nil, err
		}
		switch class {
		case pathrules.AssetFile, pathrules.AssetDir:
			if !seen[scope] {
				seen[scope] = true
				out = append(out, scope)
			}
			continue
		case pathrules.InventoryDir:
			// ok, scoped below
		default:
			if scope != "." {
				return nil, &onyoerr.InvalidQueryPathError{Path: scope}
			}
		}
		scopeDepth := 0
		if scope != "." {
			scopeDepth = len(strings.Split(scope, "/"))
		}
		for _, a := range all {
			if scope != "." && !isUnder(scope, a) {
				continue
			}
			if depth > 0 {
				assetDepth := len(strings.Split(a, "/"))
				if assetDepth-scopeDepth > depth {
					continue
				}
			}
			if !seen[a] {
				seen[a] = true
				out = append(out, a)
			}
		}
	}
	return out, nil
}

func isUnder(scope, p string) bool {
	return p == scope || strings.HasPrefix(p, scope+"/")
}

func parseFilters(exprs []string, nameKeys []string) ([]filter, error) {
	pseudoSet := map[string]bool{}
	for _, k := range pathrules.PseudoKeys {
		pseudoSet[k] = true
	}
	for _, k := range nameKeys {
		pseudoSet[k] = true
	}

	out := make([]filter, 0, len(exprs))
	for _, expr := range exprs {
		idx := strings.Index(expr, "=")
		if idx < 0 {
			return nil, fmt.Errorf("query: invalid filter expression %q, want key=value", expr)
		}
		key := expr[:idx]
		value := expr[idx+1:]
		f := filter{key: key, isPseudo: pseudoSet[key]}
		if lit, ok := record.ParseLiteralMarker(value); ok {
			f.isMarker = true
			f.literal = lit
		} else if value == record.Unset {
			f.isMarker = true
			f.literal = nil
		} else {
			re, err := regexp.Compile("^(?:" + value + ")$")
			if err != nil {
				return nil, fmt.Errorf("query: invalid regex in filter %q: %w", expr, err)
			}
			f.re = re
		}
		out = append(out, f)
	}
	return out, nil
}

// matchesPseudoFilters evaluates only this filter's pseudo-key
// predicates against values derived from the path alone.
func matchesPseudoFilters(assetPath string, filters []filter, nameKeys []string) (bool, error) {
	pseudo := pseudoValues(assetPath, nameKeys)
	for _, f := range filters {
		if !f.isPseudo {
			continue
		}
		v, present := pseudo[f.key]
		if !matchFilter(f, v, present) {
			return false, nil
		}
	}
	return true, nil
}

func pseudoValues(assetPath string, nameKeys []string) map[string]string {
	out := map[string]string{
		"onyo.path.absolute": "/" + assetPath,
		"onyo.path.parent":   path.Dir(assetPath),
	}
	if leaf, err := pathrules.ParseAssetLeaf(path.Base(assetPath)); err == nil {
		values := map[string]string{
			"type": leaf.Type, "make": leaf.Make, "model": leaf.Model, "serial": leaf.Serial,
		}
		for _, k := range nameKeys {
			if v, ok := values[k]; ok {
				out[k] = v
			}
		}
	}
	return out
}

func loadAndFilter(store *assetstore.Store, paths []string, filters []filter) ([]Row, error) {
	nonPseudo := make([]filter, 0, len(filters))
	for _, f := range filters {
		if !f.isPseudo {
			nonPseudo = append(nonPseudo, f)
		}
	}

	rows := make([]Row, len(paths))
	ok := make([]bool, len(paths))

	g, _ := errgroup.WithContext(context.Background())
	g.SetLimit(loadConcurrency)
	for i, p := range paths {
		i, p := i, p
		g.Go(func() error {
			rec, err := store.ReadAsset(p)
			if err != nil {
				return err
			}
			for _, f := range nonPseudo {
				v, present := rec.Get(f.key)
				if !matchFilter(f, v, present) {
					return nil
				}
			}
			rows[i] = Row{Path: p}
			ok[i] = true
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]Row, 0, len(paths))
	for i, keep := range ok {
		if keep {
			out = append(out, rows[i])
		}
	}
	return out, nil
}

func matchFilter(f filter, v any, present bool) bool {
	if f.isMarker {
		if f.literal == nil {
			return !present
		}
		switch f.literal.(type) {
		case map[string]any:
			return present && record.IsEmptyMapping(v)
		case []any:
			return present && record.IsEmptySequence(v)
		}
		return false
	}
	if !present {
		return false
	}
	return f.re.MatchString(record.FormatValue(v, true))
}

func projectRow(row Row, store *assetstore.Store, nameKeys []string, keys []string) Row {
	pseudo := pseudoValues(row.Path, nameKeys)
	rec, err := store.ReadAsset(row.Path)
	values := make(map[string]string, len(keys))
	for _, k := range keys {
		if v, ok := pseudo[k]; ok {
			values[k] = v
			continue
		}
		if err != nil {
			values[k] = record.Unset
			continue
		}
		v, present := rec.Get(k)
		values[k] = record.FormatValue(v, present)
	}
	return Row{Path: row.Path, Values: values}
}

// naturalLess compares two strings token-by-token, treating runs of
// digits as integers and everything else as literal text, so
// "item9" < "item10".
func naturalLess(a, b string) bool {
	at, bt := tokenize(a), tokenize(b)
	for i := 0; i < len(at) && i < len(bt); i++ {
		an, aIsNum := at[i].num, at[i].isNum
		bn, bIsNum := bt[i].num, bt[i].isNum
		if aIsNum && bIsNum {
			if an != bn {
				return an < bn
			}
			continue
		}
		if at[i].text != bt[i].text {
			return at[i].text < bt[i].text
		}
	}
	return len(at) < len(bt)
}

type token struct {
	text  string
	num   int64
	isNum bool
}

func tokenize(s string) []token {
	var out []token
	i := 0
	for i < len(s) {
		start := i
		isDigit := unicode.IsDigit(rune(s[i]))
		for i < len(s) && unicode.IsDigit(rune(s[i])) == isDigit {
			i++
		}
		run := s[start:i]
		if isDigit {
			n, _ := strconv.ParseInt(run, 10, 64)
			out = append(out, token{text: run, num: n, isNum: true})
		} else {
			out = append(out, token{text: run})
		}
	}
	return out
}
