package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	udiff "github.com/aymanbagabas/go-udiff"
	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/jingkaihe/rulesync/pkg/features"
	"github.com/jingkaihe/rulesync/pkg/fsutil"
	"github.com/jingkaihe/rulesync/pkg/logger"
	"github.com/jingkaihe/rulesync/pkg/presenter"
	"github.com/jingkaihe/rulesync/pkg/sync"
	"github.com/jingkaihe/rulesync/pkg/types/targets"
)

// FileDiff is the pending change of one file in a dry run.
type FileDiff struct {
	Path    string
	Unified string
}

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate tool-specific files from .rulesync",
	Long: `Generate the native configuration files of every target tool from the
canonical .rulesync directory. Per-tool failures are reported as warnings and
do not stop the run.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, _ := logger.WithRun(cmd.Context(), "generate")

		config, err := getRunConfig(true)
		if err != nil {
			return err
		}
		dryRun, _ := cmd.Flags().GetBool("dry-run")

		root, err := os.Getwd()
		if err != nil {
			return errors.Wrap(err, "failed to get working directory")
		}
		return runGenerate(ctx, fsutil.NewOS(root), root, config, dryRun)
	},
}

func init() {
	generateCmd.Flags().Bool("dry-run", false, "Print the changes as unified diffs instead of writing them")
}

// runGenerate runs one generation and reports it. Only terminal failures are
// returned; per-tool failures become warnings.
func runGenerate(ctx context.Context, fs fsutil.FS, root string, config *RunConfig, dryRun bool) error {
	if !dryRun {
		for _, baseDir := range config.BaseDirs {
			unlock, err := sync.LockCanonicalDir(filepath.Join(root, baseDir))
			if err != nil {
				return err
			}
			defer unlock()
		}
	}

	var overlay *fsutil.Overlay
	if dryRun {
		overlay = fsutil.NewOverlay(fs)
		fs = overlay
	}

	gen := sync.NewGenerator(fs, features.All(fs, config.FeatureOptions())...)
	res, err := gen.Generate(ctx, sync.GenerateOptions{
		Targets:  config.Targets,
		Features: config.Features,
		BaseDirs: config.BaseDirs,
		Delete:   config.Delete,
	})
	if err != nil {
		if res != nil && res.Total() > 0 {
			reportWarnings(res.Err)
			presenter.Summary("Written before the failure", featureCounts(res.Counts))
		}
		return err
	}

	reportWarnings(res.Err)

	if overlay != nil {
		diffs, err := pendingDiffs(overlay)
		if err != nil {
			return err
		}
		presenter.Section("Dry run")
		for i, d := range diffs {
			if i > 0 {
				presenter.Separator()
			}
			presenter.Diff(d.Path, d.Unified)
		}
	}

	if res.Total() == 0 {
		presenter.Warning("No files generated")
		return nil
	}
	title := "Generated"
	if dryRun {
		title = "Would generate"
	}
	presenter.Summary(title, featureCounts(res.Counts))
	return nil
}

// pendingDiffs compares every file written to the overlay with what is on
// disk.
func pendingDiffs(o *fsutil.Overlay) ([]FileDiff, error) {
	var out []FileDiff
	for _, p := range o.Written() {
		after, err := o.ReadFile(p)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to read pending %s", p)
		}
		before := ""
		if o.Base().Exists(p) {
			if before, err = o.Base().ReadFile(p); err != nil {
				return nil, errors.Wrapf(err, "failed to read %s", p)
			}
		}
		out = append(out, FileDiff{
			Path:    p,
			Unified: udiff.Unified("a/"+p, "b/"+p, before, after),
		})
	}
	return out, nil
}

// reportWarnings prints each aggregated non-fatal error as a warning.
func reportWarnings(err error) {
	if err == nil {
		return
	}
	var merr *multierror.Error
	if errors.As(err, &merr) {
		for _, e := range merr.Errors {
			presenter.Warning(e.Error())
		}
		return
	}
	presenter.Warning(err.Error())
}

func featureCounts(counts map[targets.Feature]int) []presenter.Count {
	out := make([]presenter.Count, 0, len(counts))
	for _, f := range targets.AllFeatures() {
		out = append(out, presenter.Count{Name: string(f), Count: counts[f]})
	}
	return out
}

// describeTargets renders a tool list for messages.
func describeTargets(tools []targets.ToolID) string {
	if len(tools) == len(targets.AllTools()) {
		return "all tools"
	}
	return fmt.Sprintf("%v", targets.Targets(tools).Strings())
}
