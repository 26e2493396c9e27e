package rules

import (
	"sort"
	"strings"

	"github.com/jingkaihe/rulesync/pkg/canonical"
	"github.com/jingkaihe/rulesync/pkg/formats"
	"github.com/jingkaihe/rulesync/pkg/schema"
	"github.com/jingkaihe/rulesync/pkg/sync"
)

// Augment has no glob-scoped rules; those become agent requested.
var augmentTypes = map[Mode]string{
	ModeAlways: "always_apply",
	ModeManual: "manual",
	ModeModel:  "agent_requested",
}

type augmentFrontmatter struct {
	Type        string `yaml:"type"`
	Description string `yaml:"description,omitempty"`
}

// augmentCodeAdapter writes .augment/rules/*.md with a rule type.
type augmentCodeAdapter struct {
	sync.Layout
}

func (a *augmentCodeAdapter) Parse(raw string) (formats.Document, error) {
	return formats.ParseFrontmatter(raw)
}

func (a *augmentCodeAdapter) FromCanonical(baseDir string, r *canonical.Rule) ([]*sync.ToolFile, error) {
	f, err := place(a.Layout, baseDir, r)
	if err != nil {
		return nil, err
	}

	var explicit Mode
	if opts := r.Frontmatter.AugmentCode; opts != nil && opts.Type != "" {
		explicit = modeFor(augmentTypes, opts.Type)
	}
	mode := InferMode(r, explicit)

	fm := augmentFrontmatter{Description: r.Frontmatter.Description}
	if mode == ModeGlob {
		mode = ModeModel
		if fm.Description == "" {
			fm.Description = "Applies to files matching " + joinGlobs(r.Frontmatter.Globs, ", ")
		}
	}
	// agent_requested needs a description for the agent to decide on
	if mode == ModeModel && strings.TrimSpace(fm.Description) == "" {
		mode = ModeManual
	}
	fm.Type = augmentTypes[mode]

	f.Body = r.Body
	if f.Frontmatter, err = formats.ToMap(fm); err != nil {
		return nil, err
	}
	if f.RawContent, err = formats.Stringify(fm, r.Body); err != nil {
		return nil, err
	}
	return []*sync.ToolFile{f}, nil
}

func (a *augmentCodeAdapter) ToCanonical(f *sync.ToolFile) (sync.Result[*canonical.Rule], error) {
	var fm augmentFrontmatter
	if err := formats.Decode(f.Frontmatter, &fm); err != nil {
		return sync.Result[*canonical.Rule]{}, err
	}
	rfm := canonical.RuleFrontmatter{Description: fm.Description}
	if fm.Type != "" && !a.Paths.IsRoot(f) {
		rfm.AugmentCode = &canonical.AugmentCodeRuleOptions{Type: fm.Type}
	}
	return imported(a.Layout, f, rfm)
}

func (a *augmentCodeAdapter) Validate(f *sync.ToolFile) error {
	typ, _ := f.Frontmatter["type"].(string)
	if modeFor(augmentTypes, typ) == "" {
		return schema.Invalid(string(a.ID), f.Path(), "type must be one of always_apply, manual, agent_requested")
	}
	if typ == "agent_requested" {
		if d, _ := f.Frontmatter["description"].(string); strings.TrimSpace(d) == "" {
			return schema.Invalid(string(a.ID), f.Path(), "agent_requested rules need a description")
		}
	}
	return nil
}

// legacySeparator joins rules in the single legacy guidelines file.
const legacySeparator = "\n---\n"

// augmentLegacyAdapter concatenates every rule into .augment-guidelines, root
// rules first. The file cannot be split back into rules.
type augmentLegacyAdapter struct {
	sync.Layout
}

func (a *augmentLegacyAdapter) Parse(raw string) (formats.Document, error) {
	return formats.Document{Body: raw}, nil
}

func (a *augmentLegacyAdapter) FromCanonical(baseDir string, r *canonical.Rule) ([]*sync.ToolFile, error) {
	f, err := place(a.Layout, baseDir, r)
	if err != nil {
		return nil, err
	}
	f.Frontmatter = map[string]any{"root": r.Frontmatter.Root}
	f.Body = r.Body
	f.RawContent = r.Body
	return []*sync.ToolFile{f}, nil
}

// Merge joins the bodies with a separator, root rules first and otherwise in
// canonical order.
func (a *augmentLegacyAdapter) Merge(files []*sync.ToolFile) (*sync.ToolFile, error) {
	ordered := make([]*sync.ToolFile, len(files))
	copy(ordered, files)
	sort.SliceStable(ordered, func(i, j int) bool {
		return isRootFile(ordered[i]) && !isRootFile(ordered[j])
	})

	bodies := make([]string, 0, len(ordered))
	for _, f := range ordered {
		bodies = append(bodies, f.Body)
	}

	merged := *ordered[0]
	merged.Frontmatter = nil
	merged.Body = strings.Join(bodies, legacySeparator)
	merged.RawContent = merged.Body
	return &merged, nil
}

func (a *augmentLegacyAdapter) ToCanonical(*sync.ToolFile) (sync.Result[*canonical.Rule], error) {
	return sync.Unsupported[*canonical.Rule]("legacy guidelines concatenate every rule into one file"), nil
}

func (a *augmentLegacyAdapter) Validate(*sync.ToolFile) error {
	return nil
}

func isRootFile(f *sync.ToolFile) bool {
	root, _ := f.Frontmatter["root"].(bool)
	return root
}
