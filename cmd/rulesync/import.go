package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/jingkaihe/rulesync/pkg/features"
	"github.com/jingkaihe/rulesync/pkg/fsutil"
	"github.com/jingkaihe/rulesync/pkg/logger"
	"github.com/jingkaihe/rulesync/pkg/presenter"
	"github.com/jingkaihe/rulesync/pkg/sync"
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import one tool's native files into .rulesync",
	Long: `Convert the native configuration of exactly one tool (--targets) back into
canonical files under .rulesync. Tools whose output is simulated import nothing.`,
	Example: `  rulesync import --targets claudecode
  rulesync import --targets cursor --features rules,mcp`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, _ := logger.WithRun(cmd.Context(), "import")

		config, err := getRunConfig(false)
		if err != nil {
			return err
		}
		root, err := os.Getwd()
		if err != nil {
			return errors.Wrap(err, "failed to get working directory")
		}
		return runImport(ctx, fsutil.NewOS(root), root, config)
	},
}

func runImport(ctx context.Context, fs fsutil.FS, root string, config *RunConfig) error {
	baseDir := config.BaseDirs[0]
	unlock, err := sync.LockCanonicalDir(filepath.Join(root, baseDir))
	if err != nil {
		return err
	}
	defer unlock()

	imp := sync.NewImporter(fs, features.All(fs, config.FeatureOptions())...)
	res, err := imp.Import(ctx, sync.ImportOptions{
		Targets:  config.Targets,
		Features: config.Features,
		BaseDir:  baseDir,
	})
	if err != nil {
		return err
	}

	reportWarnings(res.Err)
	if res.Total() == 0 {
		presenter.Warning(fmt.Sprintf("Nothing to import from %s", config.Targets[0]))
		return nil
	}
	presenter.Summary("Imported", featureCounts(res.Counts()))
	return nil
}
