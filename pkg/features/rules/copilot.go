package rules

import (
	"strings"

	"github.com/jingkaihe/rulesync/pkg/canonical"
	"github.com/jingkaihe/rulesync/pkg/formats"
	"github.com/jingkaihe/rulesync/pkg/schema"
	"github.com/jingkaihe/rulesync/pkg/sync"
)

// copilotAllFiles is the applyTo value for instructions without globs.
const copilotAllFiles = "**"

type copilotFrontmatter struct {
	Description string `yaml:"description,omitempty"`
	ApplyTo     string `yaml:"applyTo"`
}

// copilotAdapter writes .github/copilot-instructions.md for the root rule and
// .github/instructions/*.instructions.md for the rest. Globs are comma-joined
// into applyTo.
type copilotAdapter struct {
	sync.Layout
}

func (a *copilotAdapter) Parse(raw string) (formats.Document, error) {
	return formats.ParseFrontmatter(raw)
}

func (a *copilotAdapter) FromCanonical(baseDir string, r *canonical.Rule) ([]*sync.ToolFile, error) {
	f, err := place(a.Layout, baseDir, r)
	if err != nil {
		return nil, err
	}
	f.Body = r.Body
	if r.Frontmatter.Root {
		f.RawContent = r.Body
		return []*sync.ToolFile{f}, nil
	}

	fm := copilotFrontmatter{
		Description: r.Frontmatter.Description,
		ApplyTo:     joinGlobs(r.Frontmatter.Globs, ","),
	}
	if fm.ApplyTo == "" {
		fm.ApplyTo = copilotAllFiles
	}
	if f.Frontmatter, err = formats.ToMap(fm); err != nil {
		return nil, err
	}
	if f.RawContent, err = formats.Stringify(fm, r.Body); err != nil {
		return nil, err
	}
	return []*sync.ToolFile{f}, nil
}

func (a *copilotAdapter) ToCanonical(f *sync.ToolFile) (sync.Result[*canonical.Rule], error) {
	var fm copilotFrontmatter
	if err := formats.Decode(f.Frontmatter, &fm); err != nil {
		return sync.Result[*canonical.Rule]{}, err
	}
	var globs []string
	if strings.TrimSpace(fm.ApplyTo) != copilotAllFiles {
		globs = splitGlobs(fm.ApplyTo, ",")
	}
	return imported(a.Layout, f, canonical.RuleFrontmatter{Description: fm.Description, Globs: globs})
}

func (a *copilotAdapter) Validate(f *sync.ToolFile) error {
	if a.Paths.IsRoot(f) {
		return nil
	}
	if v, ok := f.Frontmatter["applyTo"].(string); !ok || strings.TrimSpace(v) == "" {
		return schema.Invalid(string(a.ID), f.Path(), "applyTo must be a non-empty string")
	}
	return nil
}
