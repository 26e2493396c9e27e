package main

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/jingkaihe/rulesync/pkg/fsutil"
	"github.com/jingkaihe/rulesync/pkg/logger"
	"github.com/jingkaihe/rulesync/pkg/mcpserver"
	"github.com/jingkaihe/rulesync/pkg/sync"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the canonical directory over MCP on stdio",
	Long: `Start a Model Context Protocol server on stdin/stdout exposing the
list_rules, get_rule, list_commands and generate tools. Logs go to stderr so
they never corrupt the protocol stream.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, _ := logger.WithRun(cmd.Context(), "mcp")

		config, err := getRunConfig(true)
		if err != nil {
			return err
		}
		root, err := os.Getwd()
		if err != nil {
			return errors.Wrap(err, "failed to get working directory")
		}

		s := mcpserver.New(mcpserver.Config{
			FS:       fsutil.NewOS(root),
			BaseDir:  config.BaseDirs[0],
			Features: config.FeatureOptions(),
			Lock: func(baseDir string) (func(), error) {
				return sync.LockCanonicalDir(filepath.Join(root, baseDir))
			},
		})
		logger.G(ctx).WithField("base_dir", config.BaseDirs[0]).Info("serving MCP on stdio")
		return s.ServeStdio()
	},
}
