package canonical

import (
	"github.com/pkg/errors"

	"github.com/jingkaihe/rulesync/pkg/formats"
	"github.com/jingkaihe/rulesync/pkg/schema"
	"github.com/jingkaihe/rulesync/pkg/types/targets"
)

// CommandFrontmatter is the canonical slash-command header.
type CommandFrontmatter struct {
	Targets      targets.Targets `yaml:"targets,omitempty" json:"targets,omitempty"`
	Description  string          `yaml:"description,omitempty" json:"description,omitempty"`
	Name         string          `yaml:"name,omitempty" json:"name,omitempty"`
	ArgumentHint string          `yaml:"argumentHint,omitempty" json:"argumentHint,omitempty"`
}

var commandValidator = schema.NewValidator("command", &CommandFrontmatter{})

// Command is one canonical slash-command.
type Command struct {
	File
	Frontmatter CommandFrontmatter
}

// CommandParams describes a command to construct.
type CommandParams struct {
	BaseDir          string
	RelativeFilePath string
	Frontmatter      CommandFrontmatter
	Body             string
}

// NewCommand builds a command and validates it unless told otherwise.
func NewCommand(p CommandParams, opts ...Option) (*Command, error) {
	fm := p.Frontmatter
	fm.Targets = defaultTargets(fm.Targets)

	raw, err := formats.Stringify(fm, p.Body)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to render command %s", p.RelativeFilePath)
	}

	c := &Command{
		File: File{
			BaseDir:          p.BaseDir,
			RelativeDirPath:  CommandsDir,
			RelativeFilePath: p.RelativeFilePath,
			RawContent:       raw,
			Body:             p.Body,
		},
		Frontmatter: fm,
	}
	if !applyOptions(opts).skipValidation {
		if err := c.Validate(); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// ParseCommand parses a canonical command file.
func ParseCommand(baseDir, relativeFilePath, raw string, opts ...Option) (*Command, error) {
	doc, err := formats.ParseFrontmatter(raw)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to parse command %s", relativeFilePath)
	}
	loc := File{BaseDir: baseDir, RelativeDirPath: CommandsDir, RelativeFilePath: relativeFilePath}
	if !applyOptions(opts).skipValidation {
		if err := commandValidator.Validate(loc.Path(), doc.Frontmatter); err != nil {
			return nil, err
		}
	}

	p := CommandParams{BaseDir: baseDir, RelativeFilePath: relativeFilePath, Body: doc.Body}
	if err := formats.Decode(doc.Frontmatter, &p.Frontmatter); err != nil {
		return nil, errors.Wrapf(err, "failed to decode command %s", relativeFilePath)
	}
	return NewCommand(p, opts...)
}

// Location returns the command's file information.
func (c *Command) Location() *File { return &c.File }

// Targets returns the tools the command applies to.
func (c *Command) Targets() targets.Targets { return c.Frontmatter.Targets }

// Name returns the explicit name or, failing that, the file stem.
func (c *Command) Name() string {
	if c.Frontmatter.Name != "" {
		return c.Frontmatter.Name
	}
	return c.Stem()
}

// FileStem returns the stem tool files for this command are named after.
func (c *Command) FileStem() string {
	return slugOrStem(c.Frontmatter.Name, &c.File)
}

// Validate checks the command frontmatter against its schema.
func (c *Command) Validate() error {
	return validateFields(commandValidator, "command", c.Path(), c.Frontmatter, validateTargets(c.Frontmatter.Targets))
}
