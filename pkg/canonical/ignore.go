package canonical

import (
	"fmt"
	"path"
	"strings"

	"github.com/jingkaihe/rulesync/pkg/formats"
	"github.com/jingkaihe/rulesync/pkg/schema"
	"github.com/jingkaihe/rulesync/pkg/types/targets"
)

// Ignore is a canonical list of gitignore-style patterns. Comments and
// negations are kept verbatim and in order.
type Ignore struct {
	File
	Patterns []string
}

// IgnoreParams describes an ignore unit. RelativeFilePath is relative to the
// canonical directory, e.g. ".aiignore" or "ignore/secrets".
type IgnoreParams struct {
	BaseDir          string
	RelativeFilePath string
	Patterns         []string
}

// NewIgnore builds an ignore unit and validates it unless told otherwise.
func NewIgnore(p IgnoreParams, opts ...Option) (*Ignore, error) {
	relDir, relFile := DirName, p.RelativeFilePath
	if dir := path.Dir(p.RelativeFilePath); dir != "." {
		relDir = path.Join(DirName, dir)
		relFile = path.Base(p.RelativeFilePath)
	}

	raw := formats.StringifyPatterns(p.Patterns)
	ig := &Ignore{
		File: File{
			BaseDir:          p.BaseDir,
			RelativeDirPath:  relDir,
			RelativeFilePath: relFile,
			RawContent:       raw,
			Body:             raw,
		},
		Patterns: p.Patterns,
	}
	if !applyOptions(opts).skipValidation {
		if err := ig.Validate(); err != nil {
			return nil, err
		}
	}
	return ig, nil
}

// ParseIgnore parses a canonical ignore file.
func ParseIgnore(baseDir, relativeFilePath, raw string, opts ...Option) (*Ignore, error) {
	return NewIgnore(IgnoreParams{
		BaseDir:          baseDir,
		RelativeFilePath: relativeFilePath,
		Patterns:         formats.ParsePatterns(raw),
	}, opts...)
}

// Location returns the ignore file information.
func (ig *Ignore) Location() *File { return &ig.File }

// Targets returns the wildcard: ignore patterns apply to every tool.
func (ig *Ignore) Targets() targets.Targets { return targets.Targets{targets.Wildcard} }

// ActivePatterns returns only the pattern lines, without comments or blanks.
func (ig *Ignore) ActivePatterns() []string {
	var out []string
	for _, line := range ig.Patterns {
		if formats.IsPatternLine(line) {
			out = append(out, strings.TrimSpace(line))
		}
	}
	return out
}

// Validate rejects pattern lines that no tool can represent.
func (ig *Ignore) Validate() error {
	var problems []string
	for i, line := range ig.Patterns {
		if strings.ContainsRune(line, 0) {
			problems = append(problems, fmt.Sprintf("line %d contains a NUL byte", i+1))
		}
		if strings.TrimSpace(line) == "!" {
			problems = append(problems, fmt.Sprintf("line %d is an empty negation", i+1))
		}
	}
	if len(problems) > 0 {
		return schema.Invalid("ignore", ig.Path(), problems...)
	}
	return nil
}
