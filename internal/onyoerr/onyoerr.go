// Package onyoerr defines the error taxonomy used across the onyo engine.
//
// Every error kind from the spec carries an identifying kind plus
// contextual detail and wraps an underlying cause where one exists, so
// callers can use errors.Is/errors.As the way the rest of the codebase
// expects.
package onyoerr

import "fmt"

// Sentinel kinds for errors.Is comparisons where no extra context is needed.
var (
	ErrNotARepo         = &KindError{Kind: "NotARepo"}
	ErrPathExists        = &KindError{Kind: "PathExists"}
	ErrPathAbsent        = &KindError{Kind: "PathAbsent"}
	ErrNotAnAsset        = &KindError{Kind: "NotAnAsset"}
	ErrNotAnInventoryDir = &KindError{Kind: "NotAnInventoryDir"}
	ErrUserCancelled     = &KindError{Kind: "UserCancelled"}
	ErrFlagConflict      = &KindError{Kind: "FlagConflict"}
	ErrDuplicateAssetName = &KindError{Kind: "DuplicateAssetName"}
	ErrNoAssetsSelected  = &KindError{Kind: "NoAssetsSelected"}
)

// KindError is a simple tagged error used for conditions that need no
// structured payload beyond a human message.
type KindError struct {
	Kind string
	Msg  string
}

func (e *KindError) Error() string {
	if e.Msg != "" {
		return e.Msg
	}
	return e.Kind
}

// With returns a copy of the sentinel carrying a specific message, so
// callers can do `onyoerr.ErrPathExists.With("shelf/foo")` while still
// satisfying errors.Is(err, onyoerr.ErrPathExists).
func (e *KindError) With(msg string) *KindError {
	return &KindError{Kind: e.Kind, Msg: msg}
}

func (e *KindError) Is(target error) bool {
	t, ok := target.(*KindError)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// InvalidRepoError reports which fsck-style structural check failed.
type InvalidRepoError struct {
	Which string
	Msg   string
}

func (e *InvalidRepoError) Error() string {
	if e.Msg != "" {
		return fmt.Sprintf("invalid repository (%s): %s", e.Which, e.Msg)
	}
	return fmt.Sprintf("invalid repository: check %q failed", e.Which)
}

// ProtectedPathError reports a path whose components fall in the
// protected set ({.anchor, .git, .onyo}).
type ProtectedPathError struct {
	Path string
}

func (e *ProtectedPathError) Error() string {
	return fmt.Sprintf("%q is a protected path", e.Path)
}

// InvalidAssetNameError reports a leaf name that fails the
// `<type>_<make>_<model>.<serial>` grammar.
type InvalidAssetNameError struct {
	Name string
}

func (e *InvalidAssetNameError) Error() string {
	return fmt.Sprintf("%q must be in the format '<type>_<make>_<model>.<serial>'", e.Name)
}

// MissingNameKeyError reports a required name key absent from a record.
type MissingNameKeyError struct {
	Key string
}

func (e *MissingNameKeyError) Error() string {
	return fmt.Sprintf("missing required name key %q", e.Key)
}

// EmptyNameKeyError reports a required name key present but empty.
type EmptyNameKeyError struct {
	Key string
}

func (e *EmptyNameKeyError) Error() string {
	return fmt.Sprintf("required name key %q is empty", e.Key)
}

// RenameRequiredError reports an attempt to change a name key without
// explicit rename permission.
type RenameRequiredError struct {
	Asset string
}

func (e *RenameRequiredError) Error() string {
	return fmt.Sprintf("changing the name of %q requires --rename", e.Asset)
}

// InvalidYamlError reports a record that failed to parse.
type InvalidYamlError struct {
	Path   string
	Detail string
}

func (e *InvalidYamlError) Error() string {
	return fmt.Sprintf("%s: invalid YAML: %s", e.Path, e.Detail)
}

// ReservedKeyError reports a record carrying a reserved key on disk.
type ReservedKeyError struct {
	Key string
}

func (e *ReservedKeyError) Error() string {
	return fmt.Sprintf("%q is a reserved key and cannot be stored", e.Key)
}

// ConflictingKeysError reports an input shape that supplies the same
// value through two conflicting channels (e.g. --directory and a
// `directory` TSV column).
type ConflictingKeysError struct {
	Key string
}

func (e *ConflictingKeysError) Error() string {
	return fmt.Sprintf("conflicting values supplied for %q", e.Key)
}

// NoTemplateError reports a template name that does not resolve to a
// file under .onyo/templates/.
type NoTemplateError struct {
	Name string
}

func (e *NoTemplateError) Error() string {
	return fmt.Sprintf("no such template: %q", e.Name)
}

// TransactionAbortedError wraps the first executor failure that caused
// a transaction to roll back.
type TransactionAbortedError struct {
	First error
}

func (e *TransactionAbortedError) Error() string {
	return fmt.Sprintf("transaction aborted: %v", e.First)
}

func (e *TransactionAbortedError) Unwrap() error { return e.First }

// VcsError bubbles up a failing invocation of the version-control tool.
type VcsError struct {
	Code   int
	Stderr string
}

func (e *VcsError) Error() string {
	return fmt.Sprintf("vcs exited %d: %s", e.Code, e.Stderr)
}

// NotAMappingError reports a dotted-key traversal through a scalar.
type NotAMappingError struct {
	Prefix string
}

func (e *NotAMappingError) Error() string {
	return fmt.Sprintf("%q does not refer to a mapping", e.Prefix)
}

// InvalidQueryPathError reports a query scope path that is neither an
// asset nor an inventory directory.
type InvalidQueryPathError struct {
	Path string
}

func (e *InvalidQueryPathError) Error() string {
	return fmt.Sprintf("%q is not an asset or inventory directory", e.Path)
}

// InvalidPathError reports a path the engine cannot act on for reasons
// other than protection (outside the repo, contains "..", etc).
type InvalidPathError struct {
	Path   string
	Reason string
}

func (e *InvalidPathError) Error() string {
	return fmt.Sprintf("invalid path %q: %s", e.Path, e.Reason)
}
