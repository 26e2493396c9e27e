package sync

import (
	"path"

	"github.com/jingkaihe/rulesync/pkg/schema"
	"github.com/jingkaihe/rulesync/pkg/types/targets"
)

// RootStem is the file stem of the reserved root file that tools with only a
// per-item directory keep inside it, and of the canonical file a root unit is
// imported into.
const RootStem = "overview"

// Layout is the static part of an adapter: which tool it serves, where the
// tool keeps its files, and whether conversion is one-way. Adapters embed it.
type Layout struct {
	ID          targets.ToolID
	Paths       SettablePaths
	IsSimulated bool
}

// Tool returns the tool the adapter serves.
func (l Layout) Tool() targets.ToolID { return l.ID }

// SettablePaths returns where the tool keeps its files.
func (l Layout) SettablePaths() SettablePaths { return l.Paths }

// Simulated reports whether the adapter only converts from canonical form.
func (l Layout) Simulated() bool { return l.IsSimulated }

// Place returns the file a unit maps to. A root unit goes to the root file, a
// non-root unit to stem plus extension in the per-item directory. A tool
// without a per-item directory receives every unit at its root file, and a
// tool without a root file receives root units in its directory.
func (l Layout) Place(baseDir, stem string, root bool) (*ToolFile, error) {
	switch {
	case root && l.Paths.Root != nil:
		return l.Paths.RootFile(l.ID, baseDir), nil
	case l.Paths.NonRoot == nil:
		return l.Paths.RootFile(l.ID, baseDir), nil
	}

	f := l.Paths.NonRootFile(l.ID, baseDir, stem)
	if !root && l.Paths.IsRoot(f) {
		return nil, schema.Invalid(string(l.ID), f.Path(), stem+" is reserved for the root file")
	}
	return f, nil
}

// CanonicalStem returns the canonical file stem for a native file and
// whether it is the tool's root file.
func (l Layout) CanonicalStem(f *ToolFile) (string, bool) {
	if l.Paths.IsRoot(f) {
		return RootStem, true
	}
	ext := ""
	if l.Paths.NonRoot != nil {
		ext = l.Paths.NonRoot.Extension
	}
	return TrimExt(path.Base(f.RelativeFilePath), ext), false
}
