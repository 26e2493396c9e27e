package canonical

import (
	"github.com/pkg/errors"

	"github.com/jingkaihe/rulesync/pkg/formats"
	"github.com/jingkaihe/rulesync/pkg/schema"
	"github.com/jingkaihe/rulesync/pkg/types/targets"
)

// CursorRuleOptions are explicit activation settings for Cursor.
type CursorRuleOptions struct {
	AlwaysApply *bool    `yaml:"alwaysApply,omitempty" json:"alwaysApply,omitempty"`
	Description string   `yaml:"description,omitempty" json:"description,omitempty"`
	Globs       []string `yaml:"globs,omitempty" json:"globs,omitempty"`
}

// WindsurfRuleOptions are explicit activation settings for Windsurf.
type WindsurfRuleOptions struct {
	Trigger string `yaml:"trigger,omitempty" json:"trigger,omitempty" jsonschema:"enum=always_on,enum=manual,enum=model_decision,enum=glob"`
}

// KiroRuleOptions are explicit activation settings for Kiro steering files.
type KiroRuleOptions struct {
	Inclusion string `yaml:"inclusion,omitempty" json:"inclusion,omitempty" jsonschema:"enum=always,enum=fileMatch,enum=manual"`
}

// AugmentCodeRuleOptions are explicit activation settings for Augment rules.
type AugmentCodeRuleOptions struct {
	Type string `yaml:"type,omitempty" json:"type,omitempty" jsonschema:"enum=always_apply,enum=manual,enum=agent_requested"`
}

// RuleFrontmatter is the canonical rule header.
type RuleFrontmatter struct {
	Root        bool                    `yaml:"root" json:"root"`
	Targets     targets.Targets         `yaml:"targets,omitempty" json:"targets,omitempty"`
	Description string                  `yaml:"description,omitempty" json:"description,omitempty"`
	Globs       []string                `yaml:"globs,omitempty" json:"globs,omitempty"`
	Cursor      *CursorRuleOptions      `yaml:"cursor,omitempty" json:"cursor,omitempty"`
	Windsurf    *WindsurfRuleOptions    `yaml:"windsurf,omitempty" json:"windsurf,omitempty"`
	Kiro        *KiroRuleOptions        `yaml:"kiro,omitempty" json:"kiro,omitempty"`
	AugmentCode *AugmentCodeRuleOptions `yaml:"augmentcode,omitempty" json:"augmentcode,omitempty"`
}

var ruleValidator = schema.NewValidator("rule", &RuleFrontmatter{})

// Rule is one canonical coding rule.
type Rule struct {
	File
	Frontmatter RuleFrontmatter
}

// RuleParams describes a rule to construct.
type RuleParams struct {
	BaseDir          string
	RelativeFilePath string
	Frontmatter      RuleFrontmatter
	Body             string
}

// NewRule builds a rule, deriving its raw content from frontmatter and body.
// The rule is validated unless WithoutValidation is given.
func NewRule(p RuleParams, opts ...Option) (*Rule, error) {
	o := applyOptions(opts)

	fm := p.Frontmatter
	fm.Targets = defaultTargets(fm.Targets)

	raw, err := formats.Stringify(fm, p.Body)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to render rule %s", p.RelativeFilePath)
	}

	r := &Rule{
		File: File{
			BaseDir:          p.BaseDir,
			RelativeDirPath:  RulesDir,
			RelativeFilePath: p.RelativeFilePath,
			RawContent:       raw,
			Body:             p.Body,
		},
		Frontmatter: fm,
	}
	if !o.skipValidation {
		if err := r.Validate(); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// ParseRule parses a canonical rule file.
func ParseRule(baseDir, relativeFilePath, raw string, opts ...Option) (*Rule, error) {
	p := RuleParams{BaseDir: baseDir, RelativeFilePath: relativeFilePath}
	doc, err := formats.ParseFrontmatter(raw)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to parse rule %s", relativeFilePath)
	}
	if !applyOptions(opts).skipValidation {
		if err := ruleValidator.Validate(p.location(), doc.Frontmatter); err != nil {
			return nil, err
		}
	}
	if err := formats.Decode(doc.Frontmatter, &p.Frontmatter); err != nil {
		return nil, errors.Wrapf(err, "failed to decode rule %s", relativeFilePath)
	}
	p.Body = doc.Body
	return NewRule(p, opts...)
}

func (p RuleParams) location() string {
	f := File{BaseDir: p.BaseDir, RelativeDirPath: RulesDir, RelativeFilePath: p.RelativeFilePath}
	return f.Path()
}

// Location returns the rule's file information.
func (r *Rule) Location() *File { return &r.File }

// Targets returns the tools the rule applies to.
func (r *Rule) Targets() targets.Targets { return r.Frontmatter.Targets }

// Validate checks the rule frontmatter against its schema.
func (r *Rule) Validate() error {
	var extra []string
	extra = append(extra, validateTargets(r.Frontmatter.Targets)...)
	extra = append(extra, validateGlobs(r.Frontmatter.Globs)...)
	if r.Frontmatter.Cursor != nil {
		extra = append(extra, validateGlobs(r.Frontmatter.Cursor.Globs)...)
	}
	return validateFields(ruleValidator, "rule", r.Path(), r.Frontmatter, extra)
}
