// Package transaction implements the Inventory Transaction (C6): a
// staged sequence of operations with cross-checks, unified diff,
// preview/confirm, commit with rollback on failure, and abort. Mirrors
// the Transaction/stage/commit shape of
// original_source/onyo/lib/inventory.py, reduced to the Go operation
// dispatch tables in internal/ops.
package transaction

import (
	"fmt"
	"path"

	"github.com/psyinfra/onyo-go/internal/assetstore"
	"github.com/psyinfra/onyo-go/internal/onyoerr"
	"github.com/psyinfra/onyo-go/internal/ops"
	"github.com/psyinfra/onyo-go/internal/pathrules"
	"github.com/psyinfra/onyo-go/internal/record"
	"github.com/psyinfra/onyo-go/internal/vcs"
)

// State is a transaction's position in its lifecycle:
// Empty -> Staging -> Previewed -> {Committed | Aborted}. Only Stage
// moves a transaction back into Staging from Previewed.
type State int

const (
	Empty State = iota
	Staging
	Previewed
	Committed
	Aborted
)

func (s State) String() string {
	switch s {
	case Empty:
		return "Empty"
	case Staging:
		return "Staging"
	case Previewed:
		return "Previewed"
	case Committed:
		return "Committed"
	case Aborted:
		return "Aborted"
	default:
		return "Unknown"
	}
}

// FooterSection is one titled group of bulleted lines for the commit
// message footer (e.g. "New assets:" with its paths).
type FooterSection struct {
	Title string
	Lines []string
}

// Transaction stages operations against one repository and drives them
// to completion or rollback. Not safe for concurrent use; the engine
// assumes a single writer per spec §5.
type Transaction struct {
	ctx      ops.Context
	store    *assetstore.Store
	vcs      *vcs.Adapter
	nameKeys []string

	operations []ops.Operation
	state      State

	pendingNewLeaves     map[string]bool
	pendingRemovedLeaves map[string]bool
}

// New creates an empty transaction bound to store/vcs. nameKeys is the
// configured (or default) ordered list of required name keys.
func New(store *assetstore.Store, v *vcs.Adapter, nameKeys []string) *Transaction {
	if len(nameKeys) == 0 {
		nameKeys = pathrules.DefaultNameKeys
	}
	return &Transaction{
		ctx:                  ops.Context{Store: store, Vcs: v},
		store:                store,
		vcs:                  v,
		nameKeys:             nameKeys,
		pendingNewLeaves:     map[string]bool{},
		pendingRemovedLeaves: map[string]bool{},
	}
}

// State returns the transaction's current lifecycle state.
func (t *Transaction) State() State { return t.state }

// Operations returns the staged operations in commit order.
func (t *Transaction) Operations() []ops.Operation {
	out := make([]ops.Operation, len(t.operations))
	copy(out, t.operations)
	return out
}

// stage appends op to the transaction without further cross-checking,
// transitioning Empty/Previewed -> Staging. Higher-level methods
// (AddAsset, MoveAsset, etc.) perform the spec's cross-checks and call
// this once satisfied.
func (t *Transaction) stage(op ops.Operation) {
	t.operations = append(t.operations, op)
	if t.state != Staging {
		t.state = Staging
	}
}

func (t *Transaction) checkLeafUnique(leaf, excludePath string) error {
	assets, err := t.store.EnumerateAssets()
	if err != nil {
		return err
	}
	for _, p := range assets {
		if p == excludePath {
			continue
		}
		if path.Base(p) == leaf && !t.pendingRemovedLeaves[leaf] {
			return onyoerr.ErrDuplicateAssetName.With(fmt.Sprintf("%q already exists", leaf))
		}
	}
	if t.pendingNewLeaves[leaf] {
		return onyoerr.ErrDuplicateAssetName.With(fmt.Sprintf("%q already exists", leaf))
	}
	return nil
}

func (t *Transaction) requireInventoryDir(p string) error {
	class, err := t.store.Stat(p)
	if err != nil {
		return err
	}
	if class != pathrules.InventoryDir && p != "." {
		return onyoerr.ErrNotAnInventoryDir.With(fmt.Sprintf("%q is not an inventory directory", p))
	}
	return nil
}

// AddAsset stages the creation of a new asset under dir, computing its
// leaf name from rec's name-key values. rec must not carry reserved
// keys other than is_asset_directory, which selects an asset file vs.
// asset directory.
func (t *Transaction) AddAsset(dir string, rec *record.Record) error {
	if err := t.requireInventoryDir(dir); err != nil {
		return err
	}
	isDir := false
	clean := rec
	if v, ok := rec.Get("is_asset_directory"); ok {
		isDir = truthy(v)
		clean = rec.WithoutKeys("is_asset_directory")
	}
	if err := clean.ValidateNoReservedKeys(pathrules.IsReservedKey); err != nil {
		return err
	}
	values, err := clean.NameValues(t.nameKeys)
	if err != nil {
		return err
	}
	leaf, err := pathrules.FormatName(values, t.nameKeys)
	if err != nil {
		return err
	}
	if !pathrules.IsValidAssetLeaf(leaf) {
		return &onyoerr.InvalidAssetNameError{Name: leaf}
	}
	assetPath := path.Join(dir, leaf)
	if err := t.checkLeafUnique(leaf, ""); err != nil {
		return err
	}
	t.pendingNewLeaves[leaf] = true
	t.stage(ops.Operation{Tag: ops.NewAsset, Operands: ops.NewAssetOperands{
		Path:   assetPath,
		Record: clean,
		IsDir:  isDir,
	}})
	return nil
}

// AddDirectory stages the creation of an inventory directory at path.
func (t *Transaction) AddDirectory(p string) error {
	if pathrules.IsProtected(p) {
		return &onyoerr.ProtectedPathError{Path: p}
	}
	class, err := t.store.Stat(p)
	if err != nil {
		return err
	}
	if class != pathrules.Absent {
		return onyoerr.ErrPathExists.With(fmt.Sprintf("%q already exists", p))
	}
	t.stage(ops.Operation{Tag: ops.NewDirectory, Operands: ops.NewDirectoryOperands{Path: p}})
	return nil
}

// ModifyAsset stages an update to the record at assetPath. If the new
// record's name-key values produce a different leaf name, a rename is
// staged first; allowRename must be true or the call fails with
// RenameRequired. Setting the reserved key is_asset_directory to a
// value different from the asset's current shape stages a promotion or
// demotion instead of a plain rewrite.
func (t *Transaction) ModifyAsset(assetPath string, newRec *record.Record, allowRename bool) error {
	class, err := t.store.Stat(assetPath)
	if err != nil {
		return err
	}
	if class != pathrules.AssetFile && class != pathrules.AssetDir {
		return &onyoerr.InvalidPathError{Path: assetPath, Reason: "not an asset"}
	}
	wasDir := class == pathrules.AssetDir

	old, err := t.store.ReadAsset(assetPath)
	if err != nil {
		return err
	}

	isDir := wasDir
	clean := newRec
	if v, ok := newRec.Get("is_asset_directory"); ok {
		isDir = truthy(v)
		clean = newRec.WithoutKeys("is_asset_directory")
	}
	if err := clean.ValidateNoReservedKeys(pathrules.IsReservedKey); err != nil {
		return err
	}

	values, err := clean.NameValues(t.nameKeys)
	if err != nil {
		return err
	}
	newLeaf, err := pathrules.FormatName(values, t.nameKeys)
	if err != nil {
		return err
	}

	finalPath := assetPath
	currentLeaf := path.Base(assetPath)
	if newLeaf != currentLeaf {
		if !allowRename {
			return &onyoerr.RenameRequiredError{Asset: assetPath}
		}
		if err := t.checkLeafUnique(newLeaf, assetPath); err != nil {
			return err
		}
		dir := path.Dir(assetPath)
		finalPath = path.Join(dir, newLeaf)
		t.pendingRemovedLeaves[currentLeaf] = true
		t.pendingNewLeaves[newLeaf] = true
		t.stage(ops.Operation{Tag: ops.RenameAsset, Operands: ops.RenameOperands{
			Src: assetPath, Dst: finalPath, IsDir: wasDir,
		}})
	}

	t.stage(ops.Operation{Tag: ops.ModifyAsset, Operands: ops.ModifyAssetOperands{
		Path: finalPath, Old: old, New: clean, WasDir: wasDir, IsDir: isDir,
	}})
	return nil
}

// MoveAsset stages relocating the asset at src into the inventory
// directory dstDir.
func (t *Transaction) MoveAsset(src, dstDir string) error {
	return t.move(src, dstDir, pathrules.AssetFile, pathrules.AssetDir, ops.MoveAsset)
}

// MoveDirectory stages relocating the inventory directory at src into
// the inventory directory dstDir.
func (t *Transaction) MoveDirectory(src, dstDir string) error {
	return t.move(src, dstDir, pathrules.InventoryDir, pathrules.InventoryDir, ops.MoveDirectory)
}

func (t *Transaction) move(src, dstDir string, wantClassA, wantClassB pathrules.Class, tag ops.Tag) error {
	class, err := t.store.Stat(src)
	if err != nil {
		return err
	}
	if class != wantClassA && class != wantClassB {
		return &onyoerr.InvalidPathError{Path: src, Reason: "unexpected source type for move"}
	}
	if err := t.requireInventoryDir(dstDir); err != nil {
		return err
	}
	leaf := path.Base(src)
	dst := path.Join(dstDir, leaf)
	isDir := class == pathrules.AssetDir
	if tag == ops.MoveAsset {
		if err := t.checkLeafUnique(leaf, src); err != nil {
			return err
		}
	}
	t.stage(ops.Operation{Tag: tag, Operands: ops.MoveOperands{
		Src: src, DstDir: dstDir, Dst: dst, IsDir: isDir,
	}})
	return nil
}

// RenameAsset stages renaming the asset at src to the full destination
// path dst. dst must not already exist and its parent directory must
// exist.
func (t *Transaction) RenameAsset(src, dst string) error {
	return t.rename(src, dst, pathrules.AssetFile, pathrules.AssetDir, ops.RenameAsset)
}

// RenameDirectory stages renaming the inventory directory at src to dst.
func (t *Transaction) RenameDirectory(src, dst string) error {
	return t.rename(src, dst, pathrules.InventoryDir, pathrules.InventoryDir, ops.RenameDirectory)
}

func (t *Transaction) rename(src, dst string, wantClassA, wantClassB pathrules.Class, tag ops.Tag) error {
	class, err := t.store.Stat(src)
	if err != nil {
		return err
	}
	if class != wantClassA && class != wantClassB {
		return &onyoerr.InvalidPathError{Path: src, Reason: "unexpected source type for rename"}
	}
	dstClass, err := t.store.Stat(dst)
	if err != nil {
		return err
	}
	if dstClass != pathrules.Absent {
		return onyoerr.ErrPathExists.With(fmt.Sprintf("%q already exists", dst))
	}
	if err := t.requireInventoryDir(path.Dir(dst)); err != nil {
		return err
	}
	isDir := class == pathrules.AssetDir
	if tag == ops.RenameAsset {
		leaf := path.Base(dst)
		if !pathrules.IsValidAssetLeaf(leaf) {
			return &onyoerr.InvalidAssetNameError{Name: leaf}
		}
		if err := t.checkLeafUnique(leaf, src); err != nil {
			return err
		}
	}
	t.stage(ops.Operation{Tag: tag, Operands: ops.RenameOperands{Src: src, Dst: dst, IsDir: isDir}})
	return nil
}

// RemoveAsset stages deleting the asset at path entirely (both shapes;
// for an asset directory, sidecar/anchor and the directory itself).
func (t *Transaction) RemoveAsset(p string) error {
	class, err := t.store.Stat(p)
	if err != nil {
		return err
	}
	if class != pathrules.AssetFile && class != pathrules.AssetDir {
		return &onyoerr.InvalidPathError{Path: p, Reason: "not an asset"}
	}
	t.pendingRemovedLeaves[path.Base(p)] = true
	t.stage(ops.Operation{Tag: ops.RemoveAsset, Operands: ops.RemoveAssetOperands{
		Path: p, WasDir: class == pathrules.AssetDir,
	}})
	return nil
}

// RemoveDirectory stages deleting the inventory directory at path.
// Non-recursive removal fails unless the directory holds nothing but
// its own anchor.
func (t *Transaction) RemoveDirectory(p string, recursive bool) error {
	if err := t.requireInventoryDir(p); err != nil {
		return err
	}
	t.stage(ops.Operation{Tag: ops.RemoveDirectory, Operands: ops.RemoveDirectoryOperands{
		Path: p, Recursive: recursive,
	}})
	return nil
}

// Diff returns the concatenation of every staged operation's differ
// output, in staged order, and advances Staging -> Previewed.
func (t *Transaction) Diff() []string {
	var lines []string
	for _, op := range t.operations {
		lines = append(lines, ops.Diff(op)...)
	}
	if t.state == Staging {
		t.state = Previewed
	}
	return lines
}

// FooterSections groups every staged operation's recorder output by
// title, preserving the title's first-seen order, for the
// commit-message synthesizer.
func (t *Transaction) FooterSections() []FooterSection {
	order := []string{}
	byTitle := map[string][]string{}
	for _, op := range t.operations {
		for _, entry := range ops.Record(op) {
			if _, ok := byTitle[entry.Title]; !ok {
				order = append(order, entry.Title)
			}
			byTitle[entry.Title] = append(byTitle[entry.Title], entry.Line)
		}
	}
	sections := make([]FooterSection, 0, len(order))
	for _, title := range order {
		sections = append(sections, FooterSection{Title: title, Lines: byTitle[title]})
	}
	return sections
}

// Commit drives every staged operation's executor in order, stages or
// unstages the paths each touched, and performs a single atomic
// commit. On any failure it rolls back every path touched so far via
// the VCS adapter's restore and returns a TransactionAbortedError;
// the transaction moves to Aborted. Valid only from Staging or
// Previewed.
func (t *Transaction) Commit(message string) error {
	if t.state != Staging && t.state != Previewed {
		return fmt.Errorf("transaction: commit invalid from state %s", t.state)
	}

	var touched []string
	abort := func(first error) error {
		t.rollback(touched)
		t.state = Aborted
		return &onyoerr.TransactionAbortedError{First: first}
	}

	for _, op := range t.operations {
		res, err := ops.Execute(t.ctx, op)
		if err != nil {
			return abort(err)
		}
		touched = append(touched, res.Staged...)
		touched = append(touched, res.Removed...)
		if len(res.Staged) > 0 {
			if err := t.vcs.Stage(res.Staged...); err != nil {
				return abort(err)
			}
		}
		if len(res.Removed) > 0 {
			if err := t.vcs.StageRemove(res.Removed...); err != nil {
				return abort(err)
			}
		}
	}

	if err := t.vcs.Commit(message); err != nil {
		return abort(err)
	}
	t.store.InvalidateListings()
	t.state = Committed
	return nil
}

// rollback unstages and restores every touched path. Called twice in
// sequence per path, matching the reference implementation's
// defensive double-restore on a failed rename (set_assets /
// command_utils.py): a rename's content write and path change are two
// separate on-disk effects, and a single restore pass can leave the
// second one standing if the index was left in a partially-staged
// state by the failing operation.
func (t *Transaction) rollback(touched []string) {
	if len(touched) == 0 {
		return
	}
	seen := map[string]bool{}
	unique := make([]string, 0, len(touched))
	for _, p := range touched {
		if !seen[p] {
			seen[p] = true
			unique = append(unique, p)
		}
	}
	_ = t.vcs.UnstageAndRestore(unique...)
	_ = t.vcs.UnstageAndRestore(unique...)
	t.store.InvalidateListings()
}

// Abort discards every staged operation without touching the
// filesystem (no executor has run yet for a transaction still in
// Staging or Previewed) and moves the transaction to Aborted.
func (t *Transaction) Abort() error {
	if t.state != Staging && t.state != Previewed {
		return fmt.Errorf("transaction: abort invalid from state %s", t.state)
	}
	t.operations = nil
	t.pendingNewLeaves = map[string]bool{}
	t.pendingRemovedLeaves = map[string]bool{}
	t.state = Aborted
	return nil
}

func truthy(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case string:
		return t == "true" || t == "yes" || t == "1"
	default:
		return false
	}
}
