// Package rules converts canonical coding rules to and from the rule files of
// every supported tool.
package rules

import (
	"github.com/jingkaihe/rulesync/pkg/canonical"
	"github.com/jingkaihe/rulesync/pkg/fsutil"
	"github.com/jingkaihe/rulesync/pkg/sync"
	"github.com/jingkaihe/rulesync/pkg/types/targets"
)

// Processor is the rules feature processor.
type Processor = sync.Processor[*canonical.Rule]

// Adapter converts rules for one tool.
type Adapter = sync.Adapter[*canonical.Rule]

// Adapters returns one adapter per tool that supports rules.
func Adapters() []Adapter {
	adapters := []Adapter{
		&augmentCodeAdapter{Layout: dirOnly(targets.AugmentCode, ".augment/rules", ".md")},
		&augmentLegacyAdapter{Layout: sync.Layout{
			ID:          targets.AugmentCodeLegacy,
			Paths:       sync.SettablePaths{Root: &sync.RootPath{RelativeFilePath: ".augment-guidelines"}},
			IsSimulated: true,
		}},
		&claudeCodeAdapter{Layout: rootAndDir(targets.ClaudeCode, "", "CLAUDE.md", ".claude/rules", ".md")},
		&copilotAdapter{Layout: rootAndDir(targets.Copilot, ".github", "copilot-instructions.md", ".github/instructions", ".instructions.md")},
		&cursorAdapter{Layout: dirOnly(targets.Cursor, ".cursor/rules", ".mdc")},
		&kiroAdapter{Layout: dirOnly(targets.Kiro, ".kiro/steering", ".md")},
		&windsurfAdapter{Layout: dirOnly(targets.Windsurf, ".windsurf/rules", ".md")},
	}
	return append(adapters, plainAdapters()...)
}

// NewProcessor returns the rules processor backed by fs.
func NewProcessor(fs fsutil.FS) *Processor {
	return sync.NewProcessor(sync.ProcessorConfig[*canonical.Rule]{
		Feature:          targets.Rules,
		FS:               fs,
		Load:             sync.LoadDir[*canonical.Rule](canonical.RulesDir, canonical.MarkdownExt, canonical.ParseRule),
		Adapters:         Adapters(),
		IncludeSimulated: true,
	})
}

// rootAndDir describes a tool with a root file and a per-item directory.
func rootAndDir(tool targets.ToolID, rootDir, rootFile, dir, ext string) sync.Layout {
	return sync.Layout{
		ID: tool,
		Paths: sync.SettablePaths{
			Root:    &sync.RootPath{RelativeDirPath: rootDir, RelativeFilePath: rootFile},
			NonRoot: &sync.NonRootPath{RelativeDirPath: dir, Extension: ext},
		},
	}
}

// dirOnly describes a tool that only reads a rules directory. The root rule is
// kept in a reserved file inside it.
func dirOnly(tool targets.ToolID, dir, ext string) sync.Layout {
	return rootAndDir(tool, dir, sync.RootStem+ext, dir, ext)
}

// place returns the native file a rule maps to for the given layout.
func place(l sync.Layout, baseDir string, r *canonical.Rule) (*sync.ToolFile, error) {
	return l.Place(baseDir, r.Stem(), r.Frontmatter.Root)
}

// imported builds the canonical rule for a native file. Imported rules apply
// to every tool.
func imported(l sync.Layout, f *sync.ToolFile, fm canonical.RuleFrontmatter) (sync.Result[*canonical.Rule], error) {
	stem, root := l.CanonicalStem(f)
	fm.Root = root
	fm.Targets = targets.Targets{targets.Wildcard}
	r, err := canonical.NewRule(canonical.RuleParams{
		BaseDir:          f.BaseDir,
		RelativeFilePath: stem + canonical.MarkdownExt,
		Frontmatter:      fm,
		Body:             f.Body,
	})
	if err != nil {
		return sync.Result[*canonical.Rule]{}, err
	}
	return sync.Supported(r), nil
}

func boolPtr(b bool) *bool { return &b }
