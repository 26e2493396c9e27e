package main

import (
	"context"
	"fmt"
	"os"
	"path"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/jingkaihe/rulesync/pkg/canonical"
	"github.com/jingkaihe/rulesync/pkg/features/ignore"
	"github.com/jingkaihe/rulesync/pkg/fsutil"
	"github.com/jingkaihe/rulesync/pkg/logger"
	"github.com/jingkaihe/rulesync/pkg/presenter"
	"github.com/jingkaihe/rulesync/pkg/types/targets"
)

const sampleRootRule = `# Project overview

Describe the project, its architecture and the conventions every AI assistant
should follow here. This rule is the root rule: it is written to the main
instruction file of each tool (CLAUDE.md, AGENTS.md, ...).
`

// projectConfig is the layout of rulesync.yaml.
type projectConfig struct {
	Targets  []string `yaml:"targets"`
	Features []string `yaml:"features"`
	BaseDirs []string `yaml:"base_dirs"`
	Delete   bool     `yaml:"delete"`
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a .rulesync directory with starter files",
	Long: `Scaffold .rulesync/ with a sample root rule, an ignore file seeded with the
default patterns for every tool, an empty MCP descriptor and a rulesync.yaml.
Existing files are kept unless --override is given.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, _ := logger.WithRun(cmd.Context(), "init")
		override, _ := cmd.Flags().GetBool("override")

		root, err := os.Getwd()
		if err != nil {
			return errors.Wrap(err, "failed to get working directory")
		}

		fs := fsutil.NewOS(root)
		presenter.Section("rulesync setup")
		override = confirmOverride(fs, override, presenter.IsQuiet(), presenter.Prompt)
		created, err := runInit(ctx, fs, override)
		if err != nil {
			return err
		}
		if len(created) == 0 {
			presenter.Info("Nothing to do. To overwrite, use the --override flag")
			return nil
		}
		presenter.Info("Edit the files under .rulesync/, then run 'rulesync generate'")
		return nil
	},
}

func init() {
	initCmd.Flags().Bool("override", false, "Overwrite existing files")
}

// confirmOverride asks before overwriting an existing canonical directory.
// Quiet runs never prompt and keep existing files.
func confirmOverride(fs fsutil.FS, override, quiet bool, ask func(question string, options ...string) string) bool {
	if override || quiet || !fs.Exists(canonical.DirName) {
		return override
	}
	answer := strings.ToLower(ask(canonical.DirName+" already exists. Overwrite the starter files?", "y", "N"))
	return answer == "y" || answer == "yes"
}

// runInit writes the starter files and returns the paths it created.
func runInit(ctx context.Context, fs fsutil.FS, override bool) ([]string, error) {
	config, err := yaml.Marshal(projectConfig{
		Targets:  []string{string(targets.Wildcard)},
		Features: []string{"*"},
		BaseDirs: []string{"."},
		Delete:   true,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode rulesync.yaml")
	}

	rule, err := canonical.NewRule(canonical.RuleParams{
		BaseDir:          ".",
		RelativeFilePath: "overview.md",
		Frontmatter: canonical.RuleFrontmatter{
			Root:        true,
			Targets:     targets.Targets{targets.Wildcard},
			Description: "Project overview and general development guidelines",
			Globs:       []string{"**/*"},
		},
		Body: sampleRootRule,
	})
	if err != nil {
		return nil, err
	}

	files := []struct {
		path    string
		content string
	}{
		{rule.Path(), rule.RawContent},
		{path.Join(canonical.DirName, canonical.IgnoreFileName), strings.Join(ignore.DefaultPatterns(targets.AllTools()), "\n") + "\n"},
		{path.Join(canonical.DirName, canonical.McpFileName), "{\n  \"mcpServers\": {}\n}\n"},
		{ConfigFileName + ".yaml", string(config)},
	}

	var created []string
	for _, f := range files {
		if fs.Exists(f.path) && !override {
			presenter.Warning(fmt.Sprintf("%s already exists, skipping", f.path))
			continue
		}
		if err := fs.WriteFile(f.path, f.content); err != nil {
			return created, errors.Wrapf(err, "failed to write %s", f.path)
		}
		logger.G(ctx).WithField("path", f.path).Debug("created")
		presenter.Success(fmt.Sprintf("Created %s", f.path))
		created = append(created, f.path)
	}
	return created, nil
}
