// Package ops implements the nine tagged inventory operations (C5): one
// executor, differ, and recorder per tag, looked up from three small
// dispatch tables rather than through any inheritance hierarchy. This
// mirrors the executors/differs/recorders module split in onyo's
// reference implementation, where each operation kind registers its own
// trio of callables under a shared tag.
package ops

import (
	"fmt"
	"os"
	"path"

	"github.com/psyinfra/onyo-go/internal/assetstore"
	"github.com/psyinfra/onyo-go/internal/onyoerr"
	"github.com/psyinfra/onyo-go/internal/pathrules"
	"github.com/psyinfra/onyo-go/internal/record"
	"github.com/psyinfra/onyo-go/internal/vcs"
)

// Tag identifies the kind of an Operation and is the dispatch key for
// the executor, differ, and recorder tables.
type Tag string

const (
	NewAsset        Tag = "new_asset"
	NewDirectory    Tag = "new_directory"
	ModifyAsset     Tag = "modify_asset"
	MoveAsset       Tag = "move_asset"
	MoveDirectory   Tag = "move_directory"
	RenameAsset     Tag = "rename_asset"
	RenameDirectory Tag = "rename_directory"
	RemoveAsset     Tag = "remove_asset"
	RemoveDirectory Tag = "remove_directory"
)

// Canonical commit-footer section titles (spec §4.5).
const (
	TitleNewAssets        = "New assets:"
	TitleNewDirectories    = "New directories:"
	TitleRemovedAssets     = "Removed assets:"
	TitleRemovedDirectories = "Removed directories:"
	TitleMovedAssets       = "Moved assets:"
	TitleMovedDirectories  = "Moved directories:"
	TitleRenamedAssets     = "Renamed assets:"
	TitleRenamedDirectories = "Renamed directories:"
	TitleModifiedAssets    = "Modified assets:"
)

// Operation is a tagged unit of change, carrying operands whose
// concrete type depends on Tag (see the Operands structs below).
type Operation struct {
	Tag      Tag
	Operands any
}

// NewAssetOperands creates an asset at Path. IsDir means the asset is
// created directly as an asset directory (sidecar + anchor) rather than
// a plain file.
type NewAssetOperands struct {
	Path   string
	Record *record.Record
	IsDir  bool
}

// NewDirectoryOperands creates an inventory directory at Path.
type NewDirectoryOperands struct {
	Path string
}

// ModifyAssetOperands overwrites an asset's record. WasDir/IsDir record
// a file<->directory transition driven by the reserved key
// is_asset_directory; when they differ the executor promotes or demotes
// the asset and the recorder emits the duality footer lines.
type ModifyAssetOperands struct {
	Path          string
	Old, New      *record.Record
	WasDir, IsDir bool
}

// MoveOperands relocates Src into DstDir, landing at Dst (computed by
// the caller as DstDir/leaf(Src)). IsDir marks an asset directory move,
// which records both an asset and a directory footer line.
type MoveOperands struct {
	Src, DstDir, Dst string
	IsDir            bool
}

// RenameOperands renames Src to the full destination path Dst.
type RenameOperands struct {
	Src, Dst string
	IsDir    bool
}

// RemoveAssetOperands removes the asset at Path. WasDir indicates it
// was an asset directory; RetainAsDir means the directory itself
// survives as a plain inventory directory (sidecar deleted, anchor
// regenerated, is_asset_directory cleared) instead of being deleted
// outright.
type RemoveAssetOperands struct {
	Path         string
	WasDir       bool
	RetainAsDir  bool
}

// RemoveDirectoryOperands removes the inventory directory at Path.
// Recursive must be true if the directory holds more than its own
// anchor.
type RemoveDirectoryOperands struct {
	Path      string
	Recursive bool
}

// Context bundles the collaborators executors need to perform their
// filesystem and VCS mutations.
type Context struct {
	Store *assetstore.Store
	Vcs   *vcs.Adapter
}

// Result reports the repository-relative paths an executor touched, so
// the transaction can stage/unstage them and roll back on failure.
type Result struct {
	Staged  []string
	Removed []string
}

// FooterEntry is one titled, bulleted line contributed to the commit
// message footer by a recorder.
type FooterEntry struct {
	Title string
	Line  string
}

type executorFunc func(Context, Operation) (Result, error)
type differFunc func(Operation) []string
type recorderFunc func(Operation) []FooterEntry

var executors = map[Tag]executorFunc{
	NewAsset:        execNewAsset,
	NewDirectory:    execNewDirectory,
	ModifyAsset:     execModifyAsset,
	MoveAsset:       execMove,
	MoveDirectory:   execMove,
	RenameAsset:     execRename,
	RenameDirectory: execRename,
	RemoveAsset:     execRemoveAsset,
	RemoveDirectory: execRemoveDirectory,
}

var differs = map[Tag]differFunc{
	NewAsset:        differNewAsset,
	NewDirectory:    differNewDirectory,
	ModifyAsset:     differModifyAsset,
	MoveAsset:       differMove,
	MoveDirectory:   differMove,
	RenameAsset:     differRename,
	RenameDirectory: differRename,
	RemoveAsset:     differRemoveAsset,
	RemoveDirectory: differRemoveDirectory,
}

var recorders = map[Tag]recorderFunc{
	NewAsset:        recordNewAsset,
	NewDirectory:    recordNewDirectory,
	ModifyAsset:     recordModifyAsset,
	MoveAsset:       recordMoveAsset,
	MoveDirectory:   recordMoveDirectory,
	RenameAsset:     recordRenameAsset,
	RenameDirectory: recordRenameDirectory,
	RemoveAsset:     recordRemoveAsset,
	RemoveDirectory: recordRemoveDirectory,
}

// Execute dispatches op to its registered executor.
func Execute(ctx Context, op Operation) (Result, error) {
	fn, ok := executors[op.Tag]
	if !ok {
		return Result{}, fmt.Errorf("ops: no executor registered for tag %q", op.Tag)
	}
	return fn(ctx, op)
}

// Diff dispatches op to its registered differ.
func Diff(op Operation) []string {
	fn, ok := differs[op.Tag]
	if !ok {
		return nil
	}
	return fn(op)
}

// Record dispatches op to its registered recorder.
func Record(op Operation) []FooterEntry {
	fn, ok := recorders[op.Tag]
	if !ok {
		return nil
	}
	return fn(op)
}

// --- executors ---

func execNewAsset(ctx Context, op Operation) (Result, error) {
	a := op.Operands.(NewAssetOperands)
	if a.IsDir {
		abs := ctx.Store.AbsPath(a.Path)
		if err := os.MkdirAll(abs, 0o755); err != nil {
			return Result{}, err
		}
		data, err := a.Record.Marshal()
		if err != nil {
			return Result{}, err
		}
		if err := os.WriteFile(path.Join(abs, pathrules.AssetDirSidecar), data, 0o644); err != nil {
			return Result{}, err
		}
		if err := os.WriteFile(path.Join(abs, pathrules.AnchorFile), nil, 0o644); err != nil {
			return Result{}, err
		}
		ctx.Store.InvalidateListings()
		return Result{Staged: []string{
			path.Join(a.Path, pathrules.AssetDirSidecar),
			path.Join(a.Path, pathrules.AnchorFile),
		}}, nil
	}
	if err := ctx.Store.WriteAsset(a.Path, a.Record); err != nil {
		return Result{}, err
	}
	return Result{Staged: []string{a.Path}}, nil
}

func execNewDirectory(ctx Context, op Operation) (Result, error) {
	a := op.Operands.(NewDirectoryOperands)
	if err := ctx.Store.CreateAnchor(a.Path); err != nil {
		return Result{}, err
	}
	return Result{Staged: []string{path.Join(a.Path, pathrules.AnchorFile)}}, nil
}

func execModifyAsset(ctx Context, op Operation) (Result, error) {
	a := op.Operands.(ModifyAssetOperands)
	switch {
	case !a.WasDir && a.IsDir:
		if err := ctx.Store.PromoteToAssetDir(a.Path, a.New); err != nil {
			return Result{}, err
		}
		return Result{Staged: []string{
			path.Join(a.Path, pathrules.AssetDirSidecar),
			path.Join(a.Path, pathrules.AnchorFile),
		}}, nil
	case a.WasDir && !a.IsDir:
		if err := ctx.Store.DemoteToAssetFile(a.Path, a.New); err != nil {
			return Result{}, err
		}
		return Result{Staged: []string{a.Path}}, nil
	default:
		if err := ctx.Store.WriteAsset(a.Path, a.New); err != nil {
			return Result{}, err
		}
		rel := a.Path
		if a.IsDir {
			rel = path.Join(a.Path, pathrules.AssetDirSidecar)
		}
		return Result{Staged: []string{rel}}, nil
	}
}

func execMove(ctx Context, op Operation) (Result, error) {
	var src, dst string
	switch a := op.Operands.(type) {
	case MoveOperands:
		src, dst = a.Src, a.Dst
	default:
		return Result{}, fmt.Errorf("ops: unexpected move operands %T", op.Operands)
	}
	if err := ctx.Vcs.Rename(ctx.Store.AbsPath(src), ctx.Store.AbsPath(dst)); err != nil {
		return Result{}, err
	}
	ctx.Store.InvalidateListings()
	return Result{Staged: []string{dst}, Removed: []string{src}}, nil
}

func execRename(ctx Context, op Operation) (Result, error) {
	a := op.Operands.(RenameOperands)
	if err := ctx.Vcs.Rename(ctx.Store.AbsPath(a.Src), ctx.Store.AbsPath(a.Dst)); err != nil {
		return Result{}, err
	}
	ctx.Store.InvalidateListings()
	return Result{Staged: []string{a.Dst}, Removed: []string{a.Src}}, nil
}

func execRemoveAsset(ctx Context, op Operation) (Result, error) {
	a := op.Operands.(RemoveAssetOperands)
	if !a.WasDir {
		if err := os.Remove(ctx.Store.AbsPath(a.Path)); err != nil {
			return Result{}, err
		}
		ctx.Store.InvalidateListings()
		return Result{Removed: []string{a.Path}}, nil
	}
	if a.RetainAsDir {
		if err := os.Remove(ctx.Store.AbsPath(path.Join(a.Path, pathrules.AssetDirSidecar))); err != nil {
			return Result{}, err
		}
		if err := ctx.Store.CreateAnchor(a.Path); err != nil {
			return Result{}, err
		}
		ctx.Store.InvalidateListings()
		return Result{
			Removed: []string{path.Join(a.Path, pathrules.AssetDirSidecar)},
			Staged:  []string{path.Join(a.Path, pathrules.AnchorFile)},
		}, nil
	}
	if err := os.RemoveAll(ctx.Store.AbsPath(a.Path)); err != nil {
		return Result{}, err
	}
	ctx.Store.InvalidateListings()
	return Result{Removed: []string{
		path.Join(a.Path, pathrules.AssetDirSidecar),
		path.Join(a.Path, pathrules.AnchorFile),
	}}, nil
}

func execRemoveDirectory(ctx Context, op Operation) (Result, error) {
	a := op.Operands.(RemoveDirectoryOperands)
	abs := ctx.Store.AbsPath(a.Path)
	entries, err := os.ReadDir(abs)
	if err != nil {
		return Result{}, err
	}
	if !a.Recursive {
		for _, e := range entries {
			if e.Name() != pathrules.AnchorFile {
				return Result{}, &onyoerr.InvalidPathError{Path: a.Path, Reason: "directory is not empty"}
			}
		}
	}
	if err := os.RemoveAll(abs); err != nil {
		return Result{}, err
	}
	ctx.Store.InvalidateListings()
	return Result{Removed: []string{a.Path}}, nil
}

// --- differs ---

func differNewAsset(op Operation) []string {
	a := op.Operands.(NewAssetOperands)
	lines := []string{"--- /dev/null", "+++ " + a.Path}
	for _, k := range a.Record.Keys() {
		v, _ := a.Record.Get(k)
		lines = append(lines, fmt.Sprintf("+%s: %v", k, record.FormatValue(v, true)))
	}
	return lines
}

func differNewDirectory(op Operation) []string {
	a := op.Operands.(NewDirectoryOperands)
	return []string{"+++ " + a.Path + "/"}
}

func differModifyAsset(op Operation) []string {
	a := op.Operands.(ModifyAssetOperands)
	var lines []string
	lines = append(lines, "--- "+a.Path, "+++ "+a.Path)
	keys := map[string]bool{}
	for _, k := range a.Old.Keys() {
		keys[k] = true
	}
	for _, k := range a.New.Keys() {
		keys[k] = true
	}
	for k := range keys {
		oldV, oldOK := a.Old.Get(k)
		newV, newOK := a.New.Get(k)
		if oldOK == newOK && fmt.Sprint(oldV) == fmt.Sprint(newV) {
			continue
		}
		if oldOK {
			lines = append(lines, fmt.Sprintf("-%s: %s", k, record.FormatValue(oldV, true)))
		}
		if newOK {
			lines = append(lines, fmt.Sprintf("+%s: %s", k, record.FormatValue(newV, true)))
		}
	}
	return lines
}

func differMove(op Operation) []string {
	a := op.Operands.(MoveOperands)
	return []string{InlinePathDiff(a.Src, a.Dst)}
}

func differRename(op Operation) []string {
	a := op.Operands.(RenameOperands)
	return []string{InlinePathDiff(a.Src, a.Dst)}
}

func differRemoveAsset(op Operation) []string {
	a := op.Operands.(RemoveAssetOperands)
	return []string{"--- " + a.Path, "+++ /dev/null"}
}

func differRemoveDirectory(op Operation) []string {
	a := op.Operands.(RemoveDirectoryOperands)
	return []string{"--- " + a.Path + "/"}
}

// --- recorders ---

func recordNewAsset(op Operation) []FooterEntry {
	a := op.Operands.(NewAssetOperands)
	out := []FooterEntry{{TitleNewAssets, a.Path}}
	if a.IsDir {
		out = append(out, FooterEntry{TitleNewDirectories, a.Path})
	}
	return out
}

func recordNewDirectory(op Operation) []FooterEntry {
	a := op.Operands.(NewDirectoryOperands)
	return []FooterEntry{{TitleNewDirectories, a.Path}}
}

func recordModifyAsset(op Operation) []FooterEntry {
	a := op.Operands.(ModifyAssetOperands)
	out := []FooterEntry{{TitleModifiedAssets, a.Path}}
	if !a.WasDir && a.IsDir {
		out = append(out, FooterEntry{TitleNewDirectories, a.Path})
	}
	if a.WasDir && !a.IsDir {
		out = append(out, FooterEntry{TitleRemovedDirectories, a.Path})
	}
	return out
}

func recordMoveAsset(op Operation) []FooterEntry {
	a := op.Operands.(MoveOperands)
	line := InlinePathDiff(a.Src, a.Dst)
	out := []FooterEntry{{TitleMovedAssets, line}}
	if a.IsDir {
		out = append(out, FooterEntry{TitleMovedDirectories, line})
	}
	return out
}

func recordMoveDirectory(op Operation) []FooterEntry {
	a := op.Operands.(MoveOperands)
	return []FooterEntry{{TitleMovedDirectories, InlinePathDiff(a.Src, a.Dst)}}
}

func recordRenameAsset(op Operation) []FooterEntry {
	a := op.Operands.(RenameOperands)
	line := InlinePathDiff(a.Src, a.Dst)
	out := []FooterEntry{{TitleRenamedAssets, line}}
	if a.IsDir {
		out = append(out, FooterEntry{TitleRenamedDirectories, line})
	}
	return out
}

func recordRenameDirectory(op Operation) []FooterEntry {
	a := op.Operands.(RenameOperands)
	return []FooterEntry{{TitleRenamedDirectories, InlinePathDiff(a.Src, a.Dst)}}
}

func recordRemoveAsset(op Operation) []FooterEntry {
	a := op.Operands.(RemoveAssetOperands)
	out := []FooterEntry{{TitleRemovedAssets, a.Path}}
	if a.WasDir && !a.RetainAsDir {
		out = append(out, FooterEntry{TitleRemovedDirectories, a.Path})
	}
	return out
}

func recordRemoveDirectory(op Operation) []FooterEntry {
	a := op.Operands.(RemoveDirectoryOperands)
	return []FooterEntry{{TitleRemovedDirectories, a.Path}}
}
