package rules

import (
	"github.com/jingkaihe/rulesync/pkg/canonical"
	"github.com/jingkaihe/rulesync/pkg/formats"
	"github.com/jingkaihe/rulesync/pkg/schema"
	"github.com/jingkaihe/rulesync/pkg/sync"
)

var windsurfTriggers = map[Mode]string{
	ModeAlways: "always_on",
	ModeManual: "manual",
	ModeModel:  "model_decision",
	ModeGlob:   "glob",
}

type windsurfFrontmatter struct {
	Trigger     string `yaml:"trigger"`
	Description string `yaml:"description,omitempty"`
	Globs       string `yaml:"globs,omitempty"`
}

// windsurfAdapter writes .windsurf/rules/*.md with a trigger and pipe-joined
// globs.
type windsurfAdapter struct {
	sync.Layout
}

func (a *windsurfAdapter) Parse(raw string) (formats.Document, error) {
	return formats.ParseFrontmatter(raw)
}

func (a *windsurfAdapter) FromCanonical(baseDir string, r *canonical.Rule) ([]*sync.ToolFile, error) {
	f, err := place(a.Layout, baseDir, r)
	if err != nil {
		return nil, err
	}

	var explicit Mode
	if opts := r.Frontmatter.Windsurf; opts != nil && opts.Trigger != "" {
		explicit = modeFor(windsurfTriggers, opts.Trigger)
	}
	mode := InferMode(r, explicit)

	fm := windsurfFrontmatter{
		Trigger:     windsurfTriggers[mode],
		Description: r.Frontmatter.Description,
	}
	if mode == ModeGlob {
		fm.Globs = joinGlobs(r.Frontmatter.Globs, "|")
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

func (a *windsurfAdapter) ToCanonical(f *sync.ToolFile) (sync.Result[*canonical.Rule], error) {
	var fm windsurfFrontmatter
	if err := formats.Decode(f.Frontmatter, &fm); err != nil {
		return sync.Result[*canonical.Rule]{}, err
	}
	rfm := canonical.RuleFrontmatter{
		Description: fm.Description,
		Globs:       splitGlobs(fm.Globs, "|"),
	}
	if fm.Trigger != "" && !a.Paths.IsRoot(f) {
		rfm.Windsurf = &canonical.WindsurfRuleOptions{Trigger: fm.Trigger}
	}
	return imported(a.Layout, f, rfm)
}

func (a *windsurfAdapter) Validate(f *sync.ToolFile) error {
	trigger, _ := f.Frontmatter["trigger"].(string)
	if modeFor(windsurfTriggers, trigger) == "" {
		return schema.Invalid(string(a.ID), f.Path(), "trigger must be one of always_on, manual, model_decision, glob")
	}
	if trigger == "glob" {
		if globs, _ := f.Frontmatter["globs"].(string); globs == "" {
			return schema.Invalid(string(a.ID), f.Path(), "glob trigger requires globs")
		}
	}
	return nil
}

// modeFor looks up the mode a tool-specific value stands for.
func modeFor(table map[Mode]string, value string) Mode {
	for m, v := range table {
		if v == value {
			return m
		}
	}
	return ""
}
