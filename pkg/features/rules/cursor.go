package rules

import (
	"github.com/jingkaihe/rulesync/pkg/canonical"
	"github.com/jingkaihe/rulesync/pkg/formats"
	"github.com/jingkaihe/rulesync/pkg/schema"
	"github.com/jingkaihe/rulesync/pkg/sync"
)

type cursorFrontmatter struct {
	Description string `yaml:"description,omitempty"`
	Globs       string `yaml:"globs,omitempty"`
	AlwaysApply bool   `yaml:"alwaysApply"`
}

// cursorAdapter writes .cursor/rules/*.mdc. Cursor's rule type is encoded by
// which of alwaysApply, globs and description are set.
type cursorAdapter struct {
	sync.Layout
}

func (a *cursorAdapter) Parse(raw string) (formats.Document, error) {
	return formats.ParseFrontmatter(raw)
}

// explicitMode reads the mode from the cursor section. Only alwaysApply is a
// mode switch; the other fields override the rule's own values.
func (a *cursorAdapter) explicitMode(r *canonical.Rule, globs []string, description string) Mode {
	opts := r.Frontmatter.Cursor
	if opts == nil || opts.AlwaysApply == nil {
		return ""
	}
	if *opts.AlwaysApply {
		return ModeAlways
	}
	switch {
	case len(globs) > 0:
		return ModeGlob
	case description != "":
		return ModeModel
	default:
		return ModeManual
	}
}

func (a *cursorAdapter) FromCanonical(baseDir string, r *canonical.Rule) ([]*sync.ToolFile, error) {
	f, err := place(a.Layout, baseDir, r)
	if err != nil {
		return nil, err
	}

	description := r.Frontmatter.Description
	globs := r.Frontmatter.Globs
	if opts := r.Frontmatter.Cursor; opts != nil {
		if opts.Description != "" {
			description = opts.Description
		}
		if len(opts.Globs) > 0 {
			globs = opts.Globs
		}
	}

	var fm cursorFrontmatter
	switch InferMode(r, a.explicitMode(r, globs, description)) {
	case ModeAlways:
		fm = cursorFrontmatter{Description: description, AlwaysApply: true}
	case ModeGlob:
		fm = cursorFrontmatter{Description: description, Globs: joinGlobs(globs, ",")}
	case ModeModel:
		fm = cursorFrontmatter{Description: description}
	case ModeManual:
		fm = cursorFrontmatter{}
	}

	f.Body = r.Body
	if f.Frontmatter, err = formats.ToMap(fm); err != nil {
		return nil, err
	}
	if f.RawContent, err = formats.Stringify(fm, r.Body); err != nil {
		return nil, err
	}
	return []*sync.ToolFile{f}, nil
}

func (a *cursorAdapter) ToCanonical(f *sync.ToolFile) (sync.Result[*canonical.Rule], error) {
	var fm cursorFrontmatter
	if err := formats.Decode(f.Frontmatter, &fm); err != nil {
		return sync.Result[*canonical.Rule]{}, err
	}
	rfm := canonical.RuleFrontmatter{
		Description: fm.Description,
		Globs:       splitGlobs(fm.Globs, ","),
	}
	if !a.Paths.IsRoot(f) && (fm.AlwaysApply || (fm.Description == "" && fm.Globs == "")) {
		rfm.Cursor = &canonical.CursorRuleOptions{AlwaysApply: boolPtr(fm.AlwaysApply)}
	}
	return imported(a.Layout, f, rfm)
}

func (a *cursorAdapter) Validate(f *sync.ToolFile) error {
	if v, ok := f.Frontmatter["alwaysApply"]; ok {
		if _, isBool := v.(bool); !isBool {
			return schema.Invalid(string(a.ID), f.Path(), "alwaysApply must be a boolean")
		}
	}
	if v, ok := f.Frontmatter["globs"]; ok {
		if _, isString := v.(string); !isString {
			return schema.Invalid(string(a.ID), f.Path(), "globs must be a comma-separated string")
		}
	}
	return nil
}
