package sync

import (
	"context"

	"github.com/jingkaihe/rulesync/pkg/types/targets"
)

// Feature is the kind-independent view of a Processor the orchestrators
// work with.
type Feature interface {
	Name() targets.Feature
	SupportedTools() []targets.ToolID
	Load(ctx context.Context, baseDir string) (Batch, error)
	Write(ctx context.Context, files []*ToolFile) error
	Delete(ctx context.Context, baseDir string, tool targets.ToolID) error
	Import(ctx context.Context, baseDir string, tool targets.ToolID) (int, error)
}

// Batch is the canonical input of one feature in one base directory, loaded
// once and converted for each tool.
type Batch interface {
	Len() int
	Convert(ctx context.Context, tool targets.ToolID) ([]*ToolFile, error)
}

func supportsTool(f Feature, tool targets.ToolID) bool {
	for _, t := range f.SupportedTools() {
		if t == tool {
			return true
		}
	}
	return false
}
