package sync

import (
	"github.com/jingkaihe/rulesync/pkg/canonical"
	"github.com/jingkaihe/rulesync/pkg/formats"
	"github.com/jingkaihe/rulesync/pkg/types/targets"
)

// Adapter converts one canonical kind to and from one tool's native format.
type Adapter[C canonical.Unit] interface {
	Tool() targets.ToolID
	SettablePaths() SettablePaths
	// Simulated adapters only convert from canonical form.
	Simulated() bool
	Parse(raw string) (formats.Document, error)
	FromCanonical(baseDir string, unit C) ([]*ToolFile, error)
	ToCanonical(f *ToolFile) (Result[C], error)
	Validate(f *ToolFile) error
}

// Merger is implemented by adapters whose tool keeps several units in one
// file. Files are passed in canonical order and all share the same path.
type Merger interface {
	Merge(files []*ToolFile) (*ToolFile, error)
}

// ExistingMerger is implemented by adapters that write into a settings file
// shared with other configuration. The generated content is merged into what
// is already on disk, and the file is never deleted.
type ExistingMerger interface {
	MergeExisting(existing string, f *ToolFile) (string, error)
}

// OutputLocator is implemented by adapters that write outside their settable
// paths, so those locations are cleaned on delete as well.
type OutputLocator interface {
	OutputPaths(baseDir string) []string
}
