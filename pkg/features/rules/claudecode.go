package rules

import (
	"github.com/bmatcuk/doublestar/v4"

	"github.com/jingkaihe/rulesync/pkg/canonical"
	"github.com/jingkaihe/rulesync/pkg/formats"
	"github.com/jingkaihe/rulesync/pkg/schema"
	"github.com/jingkaihe/rulesync/pkg/sync"
)

type claudeCodeFrontmatter struct {
	Paths []string `yaml:"paths,omitempty"`
}

// claudeCodeAdapter writes CLAUDE.md for the root rule and .claude/rules/*.md
// for the rest, scoped with a paths array.
type claudeCodeAdapter struct {
	sync.Layout
}

func (a *claudeCodeAdapter) Parse(raw string) (formats.Document, error) {
	return formats.ParseFrontmatter(raw)
}

func (a *claudeCodeAdapter) FromCanonical(baseDir string, r *canonical.Rule) ([]*sync.ToolFile, error) {
	f, err := place(a.Layout, baseDir, r)
	if err != nil {
		return nil, err
	}
	f.Body = r.Body
	if r.Frontmatter.Root {
		f.RawContent = r.Body
		return []*sync.ToolFile{f}, nil
	}

	fm := claudeCodeFrontmatter{Paths: r.Frontmatter.Globs}
	if f.Frontmatter, err = formats.ToMap(fm); err != nil {
		return nil, err
	}
	if f.RawContent, err = formats.Stringify(fm, r.Body); err != nil {
		return nil, err
	}
	return []*sync.ToolFile{f}, nil
}

func (a *claudeCodeAdapter) ToCanonical(f *sync.ToolFile) (sync.Result[*canonical.Rule], error) {
	var fm claudeCodeFrontmatter
	if err := formats.Decode(f.Frontmatter, &fm); err != nil {
		return sync.Result[*canonical.Rule]{}, err
	}
	return imported(a.Layout, f, canonical.RuleFrontmatter{Globs: fm.Paths})
}

func (a *claudeCodeAdapter) Validate(f *sync.ToolFile) error {
	var fm claudeCodeFrontmatter
	if err := formats.Decode(f.Frontmatter, &fm); err != nil {
		return schema.Invalid(string(a.ID), f.Path(), err.Error())
	}
	for _, p := range fm.Paths {
		if !doublestar.ValidatePattern(p) {
			return schema.Invalid(string(a.ID), f.Path(), "invalid path pattern "+p)
		}
	}
	return nil
}
