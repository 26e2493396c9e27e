// Package canonical holds the tool-agnostic representation of every
// configuration unit rulesync manages: rules, commands, subagents, ignore
// patterns and MCP server descriptors. Units live under the .rulesync
// directory of a base directory and are re-derived from disk on every run.
package canonical

import (
	"path"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	goslug "github.com/gosimple/slug"
	"github.com/pkg/errors"

	"github.com/jingkaihe/rulesync/pkg/formats"
	"github.com/jingkaihe/rulesync/pkg/schema"
	"github.com/jingkaihe/rulesync/pkg/types/targets"
)

// Canonical layout, relative to a base directory.
const (
	DirName        = ".rulesync"
	RulesDir       = DirName + "/rules"
	CommandsDir    = DirName + "/commands"
	SubagentsDir   = DirName + "/subagents"
	IgnoreDir      = DirName + "/ignore"
	IgnoreFileName = ".aiignore"
	McpFileName    = ".mcp.json"
	MarkdownExt    = ".md"
)

// File is the location and content shared by every canonical unit.
type File struct {
	BaseDir          string
	RelativeDirPath  string
	RelativeFilePath string
	RawContent       string
	Body             string
}

// Path returns baseDir + relativeDirPath + relativeFilePath.
func (f *File) Path() string {
	return path.Join(f.BaseDir, f.RelativeDirPath, f.RelativeFilePath)
}

// Stem returns the file name without its extension.
func (f *File) Stem() string {
	return Stem(f.RelativeFilePath)
}

// Stem strips the directory and the last extension from a file name.
func Stem(name string) string {
	base := path.Base(name)
	if ext := path.Ext(base); ext != "" && ext != base {
		return strings.TrimSuffix(base, ext)
	}
	return base
}

// slugOrStem returns the slug of an explicit name, falling back to the file
// stem when there is no name or it slugs to nothing.
func slugOrStem(name string, f *File) string {
	if name != "" {
		if s := goslug.Make(name); s != "" {
			return s
		}
	}
	return f.Stem()
}

// Unit is implemented by every canonical kind.
type Unit interface {
	Location() *File
	Targets() targets.Targets
	Validate() error
}

// Option configures unit construction.
type Option func(*options)

type options struct {
	skipValidation bool
}

// WithoutValidation suppresses the schema check normally run by constructors.
func WithoutValidation() Option {
	return func(o *options) { o.skipValidation = true }
}

func applyOptions(opts []Option) options {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func defaultTargets(ts targets.Targets) targets.Targets {
	if len(ts) == 0 {
		return targets.Targets{targets.Wildcard}
	}
	return ts
}

// validateTargets rejects unknown tool names; the JSON schema only knows they
// are strings.
func validateTargets(ts targets.Targets) []string {
	var problems []string
	for _, t := range ts {
		if t == targets.Wildcard {
			continue
		}
		if _, ok := targets.ParseToolID(string(t)); !ok {
			problems = append(problems, "unknown target "+string(t))
		}
	}
	return problems
}

func validateGlobs(globs []string) []string {
	var problems []string
	for _, g := range globs {
		if strings.TrimSpace(g) == "" || !doublestar.ValidatePattern(g) {
			problems = append(problems, "invalid glob "+`"`+g+`"`)
		}
	}
	return problems
}

// validateFields runs the reflected schema check followed by the extra
// checks the schema cannot express.
func validateFields(v *schema.Validator, kind, p string, frontmatter any, extra []string) error {
	m, err := formats.ToMap(frontmatter)
	if err != nil {
		return errors.Wrapf(err, "failed to prepare %s for validation", kind)
	}
	if err := v.Validate(p, m); err != nil {
		return err
	}
	if len(extra) > 0 {
		return schema.Invalid(kind, p, extra...)
	}
	return nil
}
