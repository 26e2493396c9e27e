package sync

import (
	"context"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"

	"github.com/jingkaihe/rulesync/pkg/fsutil"
	"github.com/jingkaihe/rulesync/pkg/logger"
	"github.com/jingkaihe/rulesync/pkg/types/targets"
)

// ImportOptions is the resolved configuration of one import run.
type ImportOptions struct {
	Targets []targets.ToolID
	// Features nil means every feature.
	Features []targets.Feature
	// BaseDir defaults to the current directory.
	BaseDir string
}

// ImportResult counts the canonical units written per feature.
type ImportResult struct {
	RulesCreated     int
	IgnoreCreated    int
	McpCreated       int
	CommandsCreated  int
	SubagentsCreated int
	// Err aggregates per-file failures that did not stop the run.
	Err error
}

// Counts returns the created counts keyed by feature.
func (r *ImportResult) Counts() map[targets.Feature]int {
	return map[targets.Feature]int{
		targets.Rules:      r.RulesCreated,
		targets.Ignore:     r.IgnoreCreated,
		targets.MCPServers: r.McpCreated,
		targets.Commands:   r.CommandsCreated,
		targets.Subagents:  r.SubagentsCreated,
	}
}

// Total returns the number of canonical units written.
func (r *ImportResult) Total() int {
	return r.RulesCreated + r.IgnoreCreated + r.McpCreated + r.CommandsCreated + r.SubagentsCreated
}

func (r *ImportResult) add(f targets.Feature, n int) {
	switch f {
	case targets.Rules:
		r.RulesCreated += n
	case targets.Ignore:
		r.IgnoreCreated += n
	case targets.MCPServers:
		r.McpCreated += n
	case targets.Commands:
		r.CommandsCreated += n
	case targets.Subagents:
		r.SubagentsCreated += n
	}
}

// Importer writes canonical units from one tool's native files.
type Importer struct {
	fs       fsutil.FS
	features []Feature
}

// NewImporter creates an importer over the given features.
func NewImporter(fs fsutil.FS, features ...Feature) *Importer {
	return &Importer{fs: fs, features: features}
}

// Import converts one tool's native files into canonical units. Several tools
// could claim the same canonical unit, so exactly one tool is accepted.
func (i *Importer) Import(ctx context.Context, opts ImportOptions) (*ImportResult, error) {
	if len(opts.Targets) != 1 || opts.Targets[0] == targets.Wildcard {
		return nil, ErrSingleTarget
	}
	tool := opts.Targets[0]

	wanted := opts.Features
	if wanted == nil {
		wanted = targets.AllFeatures()
	}
	baseDir := opts.BaseDir
	if baseDir == "" {
		baseDir = "."
	}

	g := &Generator{features: i.features}
	result := &ImportResult{}
	var errs *multierror.Error
	for _, f := range g.enabled(wanted) {
		n, err := f.Import(ctx, baseDir, tool)
		if err != nil {
			errs = multierror.Append(errs, errors.Wrapf(err, "%s/%s", tool, f.Name()))
		}
		result.add(f.Name(), n)
		logger.G(ctx).
			WithField("feature", f.Name()).
			WithField("tool", tool).
			WithField("count", n).
			Debug("imported")
	}
	result.Err = errs.ErrorOrNil()
	return result, nil
}
