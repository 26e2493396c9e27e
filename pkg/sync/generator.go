package sync

import (
	"context"
	"path"
	"sync/atomic"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"

	"github.com/jingkaihe/rulesync/pkg/canonical"
	"github.com/jingkaihe/rulesync/pkg/fsutil"
	"github.com/jingkaihe/rulesync/pkg/logger"
	"github.com/jingkaihe/rulesync/pkg/types/targets"
)

var featureNoticeShown atomic.Bool

// GenerateOptions is the resolved configuration of one generate run.
type GenerateOptions struct {
	Targets []targets.ToolID
	// Features nil means every feature; an empty non-nil slice means none.
	Features []targets.Feature
	// BaseDirs defaults to the current directory.
	BaseDirs []string
	Delete   bool
}

// GenerateResult reports what a generate run produced.
type GenerateResult struct {
	Outputs []Output
	Counts  map[targets.Feature]int
	// Err aggregates per-tool and per-unit failures that did not stop the run.
	Err error
}

// Total returns the number of generated files.
func (r *GenerateResult) Total() int {
	return len(r.Outputs)
}

// Generator writes tool-native files from the canonical directory.
type Generator struct {
	fs       fsutil.FS
	features []Feature
}

// NewGenerator creates a generator over the given features.
func NewGenerator(fs fsutil.FS, features ...Feature) *Generator {
	return &Generator{fs: fs, features: features}
}

// Generate runs every enabled feature for every target tool and base
// directory. Only unusable input is returned as an error; everything else is
// collected in the result.
func (g *Generator) Generate(ctx context.Context, opts GenerateOptions) (*GenerateResult, error) {
	log := logger.G(ctx)

	wanted := opts.Features
	if wanted == nil {
		wanted = targets.AllFeatures()
		if featureNoticeShown.CompareAndSwap(false, true) {
			log.Warn("no features configured; generating all features. Set features explicitly to silence this notice")
		}
	}
	if len(opts.Targets) == 0 {
		return nil, ErrNoTargets
	}

	baseDirs := opts.BaseDirs
	if len(baseDirs) == 0 {
		baseDirs = []string{"."}
	}
	for _, baseDir := range baseDirs {
		dir := path.Join(baseDir, canonical.DirName)
		if !g.fs.IsDir(dir) {
			return nil, errors.Wrapf(ErrMissingCanonicalDir, "%s", dir)
		}
	}

	enabled := g.enabled(wanted)
	result := &GenerateResult{Counts: make(map[targets.Feature]int)}
	var errs *multierror.Error

	if opts.Delete {
		for _, baseDir := range baseDirs {
			for _, tool := range opts.Targets {
				for _, f := range enabled {
					if !supportsTool(f, tool) {
						continue
					}
					if err := f.Delete(ctx, baseDir, tool); err != nil {
						errs = multierror.Append(errs, errors.Wrapf(err, "%s/%s", tool, f.Name()))
					}
				}
			}
		}
	}

	for _, f := range enabled {
		for _, baseDir := range baseDirs {
			flog := log.WithField("feature", f.Name()).WithField("base_dir", baseDir)

			b, err := f.Load(ctx, baseDir)
			if err != nil {
				if f.Name() == targets.MCPServers {
					result.Err = errs.ErrorOrNil()
					return result, &sharedDescriptorError{err: err}
				}
				errs = multierror.Append(errs, err)
			}
			if b == nil || b.Len() == 0 {
				flog.Warn("no canonical files found")
				continue
			}

			for _, tool := range opts.Targets {
				if !supportsTool(f, tool) {
					flog.WithField("tool", tool).Debug("feature not supported by tool, skipping")
					continue
				}

				files, err := b.Convert(ctx, tool)
				if err != nil {
					flog.WithField("tool", tool).WithError(err).Warn("conversion failed")
					errs = multierror.Append(errs, errors.Wrapf(err, "%s/%s", tool, f.Name()))
				}
				if len(files) == 0 {
					continue
				}
				if err := f.Write(ctx, files); err != nil {
					flog.WithField("tool", tool).WithError(err).Warn("write failed")
					errs = multierror.Append(errs, errors.Wrapf(err, "%s/%s", tool, f.Name()))
					continue
				}

				for _, file := range files {
					result.Outputs = append(result.Outputs, Output{
						Tool:    tool,
						Feature: f.Name(),
						Path:    file.Path(),
						Content: file.RawContent,
					})
				}
				result.Counts[f.Name()] += len(files)
			}
		}
	}

	if result.Total() == 0 {
		log.Warn("no files generated")
	}
	result.Err = errs.ErrorOrNil()
	return result, nil
}

// enabled returns the registered features named in wanted, in registration
// order.
func (g *Generator) enabled(wanted []targets.Feature) []Feature {
	set := make(map[targets.Feature]bool, len(wanted))
	for _, w := range wanted {
		set[w] = true
	}
	var out []Feature
	for _, f := range g.features {
		if set[f.Name()] {
			out = append(out, f)
		}
	}
	return out
}
