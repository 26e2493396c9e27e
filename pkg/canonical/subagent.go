package canonical

import (
	"github.com/pkg/errors"

	"github.com/jingkaihe/rulesync/pkg/formats"
	"github.com/jingkaihe/rulesync/pkg/schema"
	"github.com/jingkaihe/rulesync/pkg/types/targets"
)

// ClaudeCodeSubagentOptions are subagent settings only Claude Code reads.
type ClaudeCodeSubagentOptions struct {
	Model string   `yaml:"model,omitempty" json:"model,omitempty" jsonschema:"enum=inherit,enum=sonnet,enum=opus,enum=haiku"`
	Tools []string `yaml:"tools,omitempty" json:"tools,omitempty"`
}

// OpenCodeSubagentOptions are subagent settings only OpenCode reads.
type OpenCodeSubagentOptions struct {
	Model       string   `yaml:"model,omitempty" json:"model,omitempty"`
	Temperature *float64 `yaml:"temperature,omitempty" json:"temperature,omitempty" jsonschema:"minimum=0,maximum=2"`
}

// SubagentFrontmatter is the canonical subagent header. The per-tool
// sections form an options bag that tools not named in it ignore.
type SubagentFrontmatter struct {
	Targets     targets.Targets            `yaml:"targets,omitempty" json:"targets,omitempty"`
	Name        string                     `yaml:"name,omitempty" json:"name,omitempty"`
	Description string                     `yaml:"description,omitempty" json:"description,omitempty"`
	ClaudeCode  *ClaudeCodeSubagentOptions `yaml:"claudecode,omitempty" json:"claudecode,omitempty"`
	OpenCode    *OpenCodeSubagentOptions   `yaml:"opencode,omitempty" json:"opencode,omitempty"`
}

var subagentValidator = schema.NewValidator("subagent", &SubagentFrontmatter{})

// Subagent is one canonical subagent definition; the body is its system
// prompt.
type Subagent struct {
	File
	Frontmatter SubagentFrontmatter
}

// SubagentParams describes a subagent to construct.
type SubagentParams struct {
	BaseDir          string
	RelativeFilePath string
	Frontmatter      SubagentFrontmatter
	Body             string
}

// NewSubagent builds a subagent and validates it unless told otherwise.
func NewSubagent(p SubagentParams, opts ...Option) (*Subagent, error) {
	fm := p.Frontmatter
	fm.Targets = defaultTargets(fm.Targets)

	raw, err := formats.Stringify(fm, p.Body)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to render subagent %s", p.RelativeFilePath)
	}

	s := &Subagent{
		File: File{
			BaseDir:          p.BaseDir,
			RelativeDirPath:  SubagentsDir,
			RelativeFilePath: p.RelativeFilePath,
			RawContent:       raw,
			Body:             p.Body,
		},
		Frontmatter: fm,
	}
	if !applyOptions(opts).skipValidation {
		if err := s.Validate(); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// ParseSubagent parses a canonical subagent file.
func ParseSubagent(baseDir, relativeFilePath, raw string, opts ...Option) (*Subagent, error) {
	doc, err := formats.ParseFrontmatter(raw)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to parse subagent %s", relativeFilePath)
	}
	loc := File{BaseDir: baseDir, RelativeDirPath: SubagentsDir, RelativeFilePath: relativeFilePath}
	if !applyOptions(opts).skipValidation {
		if err := subagentValidator.Validate(loc.Path(), doc.Frontmatter); err != nil {
			return nil, err
		}
	}

	p := SubagentParams{BaseDir: baseDir, RelativeFilePath: relativeFilePath, Body: doc.Body}
	if err := formats.Decode(doc.Frontmatter, &p.Frontmatter); err != nil {
		return nil, errors.Wrapf(err, "failed to decode subagent %s", relativeFilePath)
	}
	return NewSubagent(p, opts...)
}

// Location returns the subagent's file information.
func (s *Subagent) Location() *File { return &s.File }

// Targets returns the tools the subagent applies to.
func (s *Subagent) Targets() targets.Targets { return s.Frontmatter.Targets }

// Name returns the explicit name or, failing that, the file stem.
func (s *Subagent) Name() string {
	if s.Frontmatter.Name != "" {
		return s.Frontmatter.Name
	}
	return s.Stem()
}

// FileStem returns the stem tool files for this subagent are named after.
func (s *Subagent) FileStem() string {
	return slugOrStem(s.Frontmatter.Name, &s.File)
}

// Validate checks the subagent frontmatter against its schema.
func (s *Subagent) Validate() error {
	return validateFields(subagentValidator, "subagent", s.Path(), s.Frontmatter, validateTargets(s.Frontmatter.Targets))
}
