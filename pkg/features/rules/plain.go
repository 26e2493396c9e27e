package rules

import (
	"github.com/jingkaihe/rulesync/pkg/canonical"
	"github.com/jingkaihe/rulesync/pkg/formats"
	"github.com/jingkaihe/rulesync/pkg/sync"
	"github.com/jingkaihe/rulesync/pkg/types/targets"
)

// plainAdapter serves tools whose rule files are plain markdown with no
// frontmatter. Only the body and the root flag survive the conversion.
type plainAdapter struct {
	sync.Layout
}

func plainAdapters() []Adapter {
	return []Adapter{
		&plainAdapter{Layout: rootAndDir(targets.AgentsMD, "", "AGENTS.md", ".agents/memories", ".md")},
		&plainAdapter{Layout: dirOnly(targets.AmazonQCLI, ".amazonq/rules", ".md")},
		&plainAdapter{Layout: dirOnly(targets.Cline, ".clinerules", ".md")},
		&plainAdapter{Layout: rootAndDir(targets.CodexCLI, "", "AGENTS.md", ".codex/memories", ".md")},
		&plainAdapter{Layout: rootAndDir(targets.GeminiCLI, "", "GEMINI.md", ".gemini/memories", ".md")},
		&plainAdapter{Layout: rootAndDir(targets.Junie, ".junie", "guidelines.md", ".junie/memories", ".md")},
		&plainAdapter{Layout: rootAndDir(targets.OpenCode, "", "AGENTS.md", ".opencode/memories", ".md")},
		&plainAdapter{Layout: rootAndDir(targets.QwenCode, "", "QWEN.md", ".qwen/memories", ".md")},
		&plainAdapter{Layout: dirOnly(targets.Roo, ".roo/rules", ".md")},
		&plainAdapter{Layout: rootAndDir(targets.Warp, "", "WARP.md", ".warp/memories", ".md")},
	}
}

func (a *plainAdapter) Parse(raw string) (formats.Document, error) {
	return formats.Document{Body: raw}, nil
}

func (a *plainAdapter) FromCanonical(baseDir string, r *canonical.Rule) ([]*sync.ToolFile, error) {
	f, err := place(a.Layout, baseDir, r)
	if err != nil {
		return nil, err
	}
	f.Body = r.Body
	f.RawContent = r.Body
	return []*sync.ToolFile{f}, nil
}

func (a *plainAdapter) ToCanonical(f *sync.ToolFile) (sync.Result[*canonical.Rule], error) {
	return imported(a.Layout, f, canonical.RuleFrontmatter{})
}

func (a *plainAdapter) Validate(*sync.ToolFile) error {
	return nil
}
