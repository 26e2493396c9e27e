// Package subagents converts canonical subagent definitions to and from each
// tool's agent files.
package subagents

import (
	"strings"

	"github.com/jingkaihe/rulesync/pkg/canonical"
	"github.com/jingkaihe/rulesync/pkg/formats"
	"github.com/jingkaihe/rulesync/pkg/fsutil"
	"github.com/jingkaihe/rulesync/pkg/schema"
	"github.com/jingkaihe/rulesync/pkg/sync"
	"github.com/jingkaihe/rulesync/pkg/types/targets"
)

// Processor is the subagents feature processor.
type Processor = sync.Processor[*canonical.Subagent]

// Adapter converts subagents for one tool.
type Adapter = sync.Adapter[*canonical.Subagent]

// Adapters returns one adapter per tool that supports subagents. Tools with
// no native subagent concept get a simulated directory their rules can point
// the model at.
func Adapters() []Adapter {
	return []Adapter{
		&claudeCodeAdapter{Layout: dir(targets.ClaudeCode, ".claude/agents", false)},
		&simulatedAdapter{Layout: dir(targets.CodexCLI, ".codex/subagents", true)},
		&simulatedAdapter{Layout: dir(targets.Copilot, ".github/subagents", true)},
		&simulatedAdapter{Layout: dir(targets.Cursor, ".cursor/subagents", true)},
		&simulatedAdapter{Layout: dir(targets.GeminiCLI, ".gemini/subagents", true)},
		&openCodeAdapter{Layout: dir(targets.OpenCode, ".opencode/agent", false)},
	}
}

// NewProcessor returns the subagents processor backed by fs. Simulated
// subagent directories are generated only when simulate is set.
func NewProcessor(fs fsutil.FS, simulate bool) *Processor {
	return sync.NewProcessor(sync.ProcessorConfig[*canonical.Subagent]{
		Feature:          targets.Subagents,
		FS:               fs,
		Load:             sync.LoadDir[*canonical.Subagent](canonical.SubagentsDir, canonical.MarkdownExt, canonical.ParseSubagent),
		Adapters:         Adapters(),
		IncludeSimulated: simulate,
	})
}

func dir(tool targets.ToolID, relDir string, simulated bool) sync.Layout {
	return sync.Layout{
		ID:          tool,
		Paths:       sync.SettablePaths{NonRoot: &sync.NonRootPath{RelativeDirPath: relDir, Extension: canonical.MarkdownExt}},
		IsSimulated: simulated,
	}
}

func render(l sync.Layout, baseDir string, s *canonical.Subagent, fm any) ([]*sync.ToolFile, error) {
	f, err := l.Place(baseDir, s.FileStem(), false)
	if err != nil {
		return nil, err
	}
	f.Body = s.Body
	if f.Frontmatter, err = formats.ToMap(fm); err != nil {
		return nil, err
	}
	if f.RawContent, err = formats.Stringify(fm, s.Body); err != nil {
		return nil, err
	}
	return []*sync.ToolFile{f}, nil
}

func imported(l sync.Layout, f *sync.ToolFile, fm canonical.SubagentFrontmatter) (sync.Result[*canonical.Subagent], error) {
	stem, _ := l.CanonicalStem(f)
	fm.Targets = targets.Targets{targets.Wildcard}
	s, err := canonical.NewSubagent(canonical.SubagentParams{
		BaseDir:          f.BaseDir,
		RelativeFilePath: stem + canonical.MarkdownExt,
		Frontmatter:      fm,
		Body:             f.Body,
	})
	if err != nil {
		return sync.Result[*canonical.Subagent]{}, err
	}
	return sync.Supported(s), nil
}

func requireDescription(l sync.Layout, f *sync.ToolFile) error {
	if d, _ := f.Frontmatter["description"].(string); strings.TrimSpace(d) == "" {
		return schema.Invalid(string(l.ID), f.Path(), "description is required")
	}
	return nil
}

type claudeCodeFrontmatter struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Tools       string `yaml:"tools,omitempty"`
	Model       string `yaml:"model,omitempty"`
}

// claudeCodeAdapter writes .claude/agents/*.md. Tools are a comma-separated
// list.
type claudeCodeAdapter struct {
	sync.Layout
}

func (a *claudeCodeAdapter) Parse(raw string) (formats.Document, error) {
	return formats.ParseFrontmatter(raw)
}

func (a *claudeCodeAdapter) FromCanonical(baseDir string, s *canonical.Subagent) ([]*sync.ToolFile, error) {
	fm := claudeCodeFrontmatter{Name: s.Name(), Description: s.Frontmatter.Description}
	if opts := s.Frontmatter.ClaudeCode; opts != nil {
		fm.Model = opts.Model
		fm.Tools = strings.Join(opts.Tools, ", ")
	}
	return render(a.Layout, baseDir, s, fm)
}

func (a *claudeCodeAdapter) ToCanonical(f *sync.ToolFile) (sync.Result[*canonical.Subagent], error) {
	var fm claudeCodeFrontmatter
	if err := formats.Decode(f.Frontmatter, &fm); err != nil {
		return sync.Result[*canonical.Subagent]{}, err
	}
	out := canonical.SubagentFrontmatter{Name: fm.Name, Description: fm.Description}
	if fm.Model != "" || fm.Tools != "" {
		out.ClaudeCode = &canonical.ClaudeCodeSubagentOptions{Model: fm.Model}
		for _, tool := range strings.Split(fm.Tools, ",") {
			if tool = strings.TrimSpace(tool); tool != "" {
				out.ClaudeCode.Tools = append(out.ClaudeCode.Tools, tool)
			}
		}
	}
	return imported(a.Layout, f, out)
}

func (a *claudeCodeAdapter) Validate(f *sync.ToolFile) error {
	if name, _ := f.Frontmatter["name"].(string); name == "" {
		return schema.Invalid(string(a.ID), f.Path(), "name is required")
	}
	return requireDescription(a.Layout, f)
}

type openCodeFrontmatter struct {
	Description string   `yaml:"description"`
	Mode        string   `yaml:"mode"`
	Model       string   `yaml:"model,omitempty"`
	Temperature *float64 `yaml:"temperature,omitempty"`
}

// openCodeAgentMode marks an OpenCode agent as callable by the primary agent.
const openCodeAgentMode = "subagent"

// openCodeAdapter writes .opencode/agent/*.md in subagent mode.
type openCodeAdapter struct {
	sync.Layout
}

func (a *openCodeAdapter) Parse(raw string) (formats.Document, error) {
	return formats.ParseFrontmatter(raw)
}

func (a *openCodeAdapter) FromCanonical(baseDir string, s *canonical.Subagent) ([]*sync.ToolFile, error) {
	fm := openCodeFrontmatter{Description: s.Frontmatter.Description, Mode: openCodeAgentMode}
	if opts := s.Frontmatter.OpenCode; opts != nil {
		fm.Model = opts.Model
		fm.Temperature = opts.Temperature
	}
	return render(a.Layout, baseDir, s, fm)
}

func (a *openCodeAdapter) ToCanonical(f *sync.ToolFile) (sync.Result[*canonical.Subagent], error) {
	var fm openCodeFrontmatter
	if err := formats.Decode(f.Frontmatter, &fm); err != nil {
		return sync.Result[*canonical.Subagent]{}, err
	}
	out := canonical.SubagentFrontmatter{Description: fm.Description}
	if fm.Model != "" || fm.Temperature != nil {
		out.OpenCode = &canonical.OpenCodeSubagentOptions{Model: fm.Model, Temperature: fm.Temperature}
	}
	return imported(a.Layout, f, out)
}

func (a *openCodeAdapter) Validate(f *sync.ToolFile) error {
	return requireDescription(a.Layout, f)
}

type simulatedFrontmatter struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description,omitempty"`
}

// simulatedAdapter writes a markdown file per subagent for tools without
// native support. The tool-specific options are dropped, so the files are
// not imported back.
type simulatedAdapter struct {
	sync.Layout
}

func (a *simulatedAdapter) Parse(raw string) (formats.Document, error) {
	return formats.ParseFrontmatter(raw)
}

func (a *simulatedAdapter) FromCanonical(baseDir string, s *canonical.Subagent) ([]*sync.ToolFile, error) {
	return render(a.Layout, baseDir, s, simulatedFrontmatter{Name: s.Name(), Description: s.Frontmatter.Description})
}

func (a *simulatedAdapter) ToCanonical(*sync.ToolFile) (sync.Result[*canonical.Subagent], error) {
	return sync.Unsupported[*canonical.Subagent]("simulated subagents cannot be imported"), nil
}

func (a *simulatedAdapter) Validate(*sync.ToolFile) error {
	return nil
}
