// Package sync implements the conversion framework between canonical units
// and tool-native files: the adapter contract every tool implements, the
// generic per-feature processor, and the generate and import orchestrators.
package sync

import (
	"path"
	"strings"

	"github.com/jingkaihe/rulesync/pkg/types/targets"
)

// RootPath is the location of a tool's single top-level entry file.
type RootPath struct {
	RelativeDirPath  string
	RelativeFilePath string
}

// NonRootPath is a tool's per-item directory and the extension its files use.
type NonRootPath struct {
	RelativeDirPath string
	Extension       string
}

// SettablePaths declares where a tool keeps its files. Either part may be nil.
type SettablePaths struct {
	Root    *RootPath
	NonRoot *NonRootPath
}

// ToolFile is one tool-native file.
type ToolFile struct {
	Tool             targets.ToolID
	BaseDir          string
	RelativeDirPath  string
	RelativeFilePath string
	RawContent       string
	Frontmatter      map[string]any
	Body             string
}

// Path returns baseDir + relativeDirPath + relativeFilePath.
func (f *ToolFile) Path() string {
	return path.Join(f.BaseDir, f.RelativeDirPath, f.RelativeFilePath)
}

// IsRoot reports whether the file sits at the tool's root location.
func (sp SettablePaths) IsRoot(f *ToolFile) bool {
	if sp.Root == nil {
		return false
	}
	return path.Clean(f.RelativeDirPath) == path.Clean(sp.Root.RelativeDirPath) &&
		f.RelativeFilePath == sp.Root.RelativeFilePath
}

// RootFile returns a ToolFile placed at the root location.
func (sp SettablePaths) RootFile(tool targets.ToolID, baseDir string) *ToolFile {
	return &ToolFile{
		Tool:             tool,
		BaseDir:          baseDir,
		RelativeDirPath:  sp.Root.RelativeDirPath,
		RelativeFilePath: sp.Root.RelativeFilePath,
	}
}

// NonRootFile returns a ToolFile in the per-item directory named after stem.
func (sp SettablePaths) NonRootFile(tool targets.ToolID, baseDir, stem string) *ToolFile {
	return &ToolFile{
		Tool:             tool,
		BaseDir:          baseDir,
		RelativeDirPath:  sp.NonRoot.RelativeDirPath,
		RelativeFilePath: stem + sp.NonRoot.Extension,
	}
}

// TrimExt removes ext from name, falling back to the last extension when name
// does not end in ext.
func TrimExt(name, ext string) string {
	name = path.Base(name)
	if ext != "" && strings.HasSuffix(name, ext) && name != ext {
		return strings.TrimSuffix(name, ext)
	}
	if e := path.Ext(name); e != "" && e != name {
		return strings.TrimSuffix(name, e)
	}
	return name
}

// Result is the outcome of a native to canonical conversion. SIMULATED
// adapters return Unsupported instead of a value.
type Result[T any] struct {
	value       T
	unsupported bool
	reason      string
}

// Supported wraps a successfully converted value.
func Supported[T any](v T) Result[T] {
	return Result[T]{value: v}
}

// Unsupported reports that the conversion is lossy and cannot be performed.
func Unsupported[T any](reason string) Result[T] {
	return Result[T]{unsupported: true, reason: reason}
}

// Get returns the value and whether the conversion was supported.
func (r Result[T]) Get() (T, bool) {
	return r.value, !r.unsupported
}

// Unsupported reports whether the conversion was refused.
func (r Result[T]) Unsupported() bool {
	return r.unsupported
}

// Reason explains why the conversion was refused.
func (r Result[T]) Reason() string {
	return r.reason
}

// Output is one generated file, as reported to the caller.
type Output struct {
	Tool    targets.ToolID
	Feature targets.Feature
	Path    string
	Content string
}
