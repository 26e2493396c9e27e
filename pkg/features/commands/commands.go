// Package commands converts canonical slash-commands to and from each tool's
// command files.
package commands

import (
	"strings"

	"github.com/jingkaihe/rulesync/pkg/canonical"
	"github.com/jingkaihe/rulesync/pkg/formats"
	"github.com/jingkaihe/rulesync/pkg/fsutil"
	"github.com/jingkaihe/rulesync/pkg/schema"
	"github.com/jingkaihe/rulesync/pkg/sync"
	"github.com/jingkaihe/rulesync/pkg/types/targets"
)

// Processor is the commands feature processor.
type Processor = sync.Processor[*canonical.Command]

// Adapter converts commands for one tool.
type Adapter = sync.Adapter[*canonical.Command]

// Adapters returns one adapter per tool that supports commands.
func Adapters() []Adapter {
	return []Adapter{
		&markdownAdapter{Layout: dir(targets.ClaudeCode, ".claude/commands", ".md"), argumentHint: true},
		&markdownAdapter{Layout: simulated(dir(targets.CodexCLI, ".codex/commands", ".md"))},
		&markdownAdapter{Layout: dir(targets.Copilot, ".github/prompts", ".prompt.md")},
		&plainAdapter{Layout: dir(targets.Cursor, ".cursor/commands", ".md")},
		&tomlAdapter{Layout: dir(targets.GeminiCLI, ".gemini/commands", ".toml")},
		&markdownAdapter{Layout: dir(targets.OpenCode, ".opencode/command", ".md")},
		&tomlAdapter{Layout: dir(targets.QwenCode, ".qwen/commands", ".toml")},
		&markdownAdapter{Layout: dir(targets.Roo, ".roo/commands", ".md"), argumentHint: true},
	}
}

// NewProcessor returns the commands processor backed by fs. Simulated
// command directories are generated only when simulate is set.
func NewProcessor(fs fsutil.FS, simulate bool) *Processor {
	return sync.NewProcessor(sync.ProcessorConfig[*canonical.Command]{
		Feature:          targets.Commands,
		FS:               fs,
		Load:             sync.LoadDir[*canonical.Command](canonical.CommandsDir, canonical.MarkdownExt, canonical.ParseCommand),
		Adapters:         Adapters(),
		IncludeSimulated: simulate,
	})
}

func dir(tool targets.ToolID, relDir, ext string) sync.Layout {
	return sync.Layout{
		ID:    tool,
		Paths: sync.SettablePaths{NonRoot: &sync.NonRootPath{RelativeDirPath: relDir, Extension: ext}},
	}
}

func simulated(l sync.Layout) sync.Layout {
	l.IsSimulated = true
	return l
}

func place(l sync.Layout, baseDir string, c *canonical.Command) (*sync.ToolFile, error) {
	return l.Place(baseDir, c.FileStem(), false)
}

func imported(l sync.Layout, f *sync.ToolFile, fm canonical.CommandFrontmatter, body string) (sync.Result[*canonical.Command], error) {
	if l.IsSimulated {
		return sync.Unsupported[*canonical.Command]("simulated commands cannot be imported"), nil
	}
	stem, _ := l.CanonicalStem(f)
	fm.Targets = targets.Targets{targets.Wildcard}
	c, err := canonical.NewCommand(canonical.CommandParams{
		BaseDir:          f.BaseDir,
		RelativeFilePath: stem + canonical.MarkdownExt,
		Frontmatter:      fm,
		Body:             body,
	})
	if err != nil {
		return sync.Result[*canonical.Command]{}, err
	}
	return sync.Supported(c), nil
}

type markdownFrontmatter struct {
	Description  string `yaml:"description,omitempty"`
	ArgumentHint string `yaml:"argument-hint,omitempty"`
}

// markdownAdapter writes markdown command files with a description header,
// plus an argument hint for tools that show one.
type markdownAdapter struct {
	sync.Layout
	argumentHint bool
}

func (a *markdownAdapter) Parse(raw string) (formats.Document, error) {
	return formats.ParseFrontmatter(raw)
}

func (a *markdownAdapter) FromCanonical(baseDir string, c *canonical.Command) ([]*sync.ToolFile, error) {
	f, err := place(a.Layout, baseDir, c)
	if err != nil {
		return nil, err
	}
	fm := markdownFrontmatter{Description: c.Frontmatter.Description}
	if a.argumentHint {
		fm.ArgumentHint = c.Frontmatter.ArgumentHint
	}
	f.Body = c.Body
	if f.Frontmatter, err = formats.ToMap(fm); err != nil {
		return nil, err
	}
	if f.RawContent, err = formats.Stringify(fm, c.Body); err != nil {
		return nil, err
	}
	return []*sync.ToolFile{f}, nil
}

func (a *markdownAdapter) ToCanonical(f *sync.ToolFile) (sync.Result[*canonical.Command], error) {
	var fm markdownFrontmatter
	if err := formats.Decode(f.Frontmatter, &fm); err != nil {
		return sync.Result[*canonical.Command]{}, err
	}
	return imported(a.Layout, f, canonical.CommandFrontmatter{
		Description:  fm.Description,
		ArgumentHint: fm.ArgumentHint,
	}, f.Body)
}

func (a *markdownAdapter) Validate(*sync.ToolFile) error {
	return nil
}

// plainAdapter writes the command body with no header.
type plainAdapter struct {
	sync.Layout
}

func (a *plainAdapter) Parse(raw string) (formats.Document, error) {
	return formats.Document{Body: raw}, nil
}

func (a *plainAdapter) FromCanonical(baseDir string, c *canonical.Command) ([]*sync.ToolFile, error) {
	f, err := place(a.Layout, baseDir, c)
	if err != nil {
		return nil, err
	}
	f.Body = c.Body
	f.RawContent = c.Body
	return []*sync.ToolFile{f}, nil
}

func (a *plainAdapter) ToCanonical(f *sync.ToolFile) (sync.Result[*canonical.Command], error) {
	return imported(a.Layout, f, canonical.CommandFrontmatter{}, f.Body)
}

func (a *plainAdapter) Validate(*sync.ToolFile) error {
	return nil
}

// Placeholders for the command arguments.
const (
	canonicalArgs = "$ARGUMENTS"
	tomlArgs      = "{{args}}"
)

// tomlAdapter writes TOML command files with a multi-line prompt.
type tomlAdapter struct {
	sync.Layout
}

func (a *tomlAdapter) Parse(raw string) (formats.Document, error) {
	return formats.ParsePromptTOML(raw)
}

func (a *tomlAdapter) FromCanonical(baseDir string, c *canonical.Command) ([]*sync.ToolFile, error) {
	f, err := place(a.Layout, baseDir, c)
	if err != nil {
		return nil, err
	}
	pf := formats.PromptFile{
		Description: c.Frontmatter.Description,
		Prompt:      strings.ReplaceAll(c.Body, canonicalArgs, tomlArgs),
	}
	if f.RawContent, err = formats.StringifyPromptTOML(pf); err != nil {
		return nil, err
	}
	f.Body = pf.Prompt
	f.Frontmatter = map[string]any{}
	if pf.Description != "" {
		f.Frontmatter["description"] = pf.Description
	}
	return []*sync.ToolFile{f}, nil
}

func (a *tomlAdapter) ToCanonical(f *sync.ToolFile) (sync.Result[*canonical.Command], error) {
	description, _ := f.Frontmatter["description"].(string)
	body := strings.ReplaceAll(f.Body, tomlArgs, canonicalArgs)
	return imported(a.Layout, f, canonical.CommandFrontmatter{Description: description}, body)
}

func (a *tomlAdapter) Validate(f *sync.ToolFile) error {
	if v, ok := f.Frontmatter["description"]; ok {
		if _, isString := v.(string); !isString {
			return schema.Invalid(string(a.ID), f.Path(), "description must be a string")
		}
	}
	return nil
}
