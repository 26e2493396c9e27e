package rules

import (
	"github.com/jingkaihe/rulesync/pkg/canonical"
	"github.com/jingkaihe/rulesync/pkg/formats"
	"github.com/jingkaihe/rulesync/pkg/schema"
	"github.com/jingkaihe/rulesync/pkg/sync"
)

// Kiro has no model-decided steering; such rules become manual.
var kiroInclusions = map[Mode]string{
	ModeAlways: "always",
	ModeManual: "manual",
	ModeGlob:   "fileMatch",
}

type kiroFrontmatter struct {
	Inclusion        string `yaml:"inclusion"`
	FileMatchPattern string `yaml:"fileMatchPattern,omitempty"`
}

// kiroAdapter writes .kiro/steering/*.md with an inclusion mode and a
// pipe-joined fileMatchPattern.
type kiroAdapter struct {
	sync.Layout
}

func (a *kiroAdapter) Parse(raw string) (formats.Document, error) {
	return formats.ParseFrontmatter(raw)
}

func (a *kiroAdapter) FromCanonical(baseDir string, r *canonical.Rule) ([]*sync.ToolFile, error) {
	f, err := place(a.Layout, baseDir, r)
	if err != nil {
		return nil, err
	}

	var explicit Mode
	if opts := r.Frontmatter.Kiro; opts != nil && opts.Inclusion != "" {
		explicit = modeFor(kiroInclusions, opts.Inclusion)
	}
	mode := InferMode(r, explicit)
	if mode == ModeModel {
		mode = ModeManual
	}

	fm := kiroFrontmatter{Inclusion: kiroInclusions[mode]}
	if mode == ModeGlob {
		fm.FileMatchPattern = joinGlobs(r.Frontmatter.Globs, "|")
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

func (a *kiroAdapter) ToCanonical(f *sync.ToolFile) (sync.Result[*canonical.Rule], error) {
	var fm kiroFrontmatter
	if err := formats.Decode(f.Frontmatter, &fm); err != nil {
		return sync.Result[*canonical.Rule]{}, err
	}
	rfm := canonical.RuleFrontmatter{Globs: splitGlobs(fm.FileMatchPattern, "|")}
	if fm.Inclusion != "" && !a.Paths.IsRoot(f) {
		rfm.Kiro = &canonical.KiroRuleOptions{Inclusion: fm.Inclusion}
	}
	return imported(a.Layout, f, rfm)
}

func (a *kiroAdapter) Validate(f *sync.ToolFile) error {
	inclusion, _ := f.Frontmatter["inclusion"].(string)
	if modeFor(kiroInclusions, inclusion) == "" {
		return schema.Invalid(string(a.ID), f.Path(), "inclusion must be one of always, fileMatch, manual")
	}
	if inclusion == "fileMatch" {
		if pattern, _ := f.Frontmatter["fileMatchPattern"].(string); pattern == "" {
			return schema.Invalid(string(a.ID), f.Path(), "fileMatch inclusion requires fileMatchPattern")
		}
	}
	return nil
}
