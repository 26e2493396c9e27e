// Package ignore converts canonical ignore patterns to each tool's ignore
// file or settings.
package ignore

import (
	"context"
	"path"

	"github.com/hashicorp/go-multierror"

	"github.com/jingkaihe/rulesync/pkg/canonical"
	"github.com/jingkaihe/rulesync/pkg/formats"
	"github.com/jingkaihe/rulesync/pkg/fsutil"
	"github.com/jingkaihe/rulesync/pkg/sync"
	"github.com/jingkaihe/rulesync/pkg/types/targets"
)

// Processor is the ignore feature processor.
type Processor = sync.Processor[*canonical.Ignore]

// Adapter converts ignore patterns for one tool.
type Adapter = sync.Adapter[*canonical.Ignore]

// Adapters returns one adapter per tool that supports ignore patterns.
func Adapters() []Adapter {
	return []Adapter{
		patternFile(targets.AmazonQCLI, ".amazonqignore"),
		patternFile(targets.AugmentCode, ".augmentignore"),
		&claudeCodeAdapter{Layout: rootFile(targets.ClaudeCode, ".claude", "settings.json")},
		patternFile(targets.Cline, ".clineignore"),
		patternFile(targets.Cursor, ".cursorignore"),
		patternFile(targets.GeminiCLI, ".geminiignore"),
		patternFile(targets.Junie, ".aiignore"),
		patternFile(targets.Kiro, ".aiignore"),
		&qwenCodeAdapter{Layout: simulated(rootFile(targets.QwenCode, ".qwen", "settings.json"))},
		patternFile(targets.Roo, ".rooignore"),
		patternFile(targets.Windsurf, ".codeiumignore"),
	}
}

// NewProcessor returns the ignore processor backed by fs.
func NewProcessor(fs fsutil.FS) *Processor {
	return sync.NewProcessor(sync.ProcessorConfig[*canonical.Ignore]{
		Feature:          targets.Ignore,
		FS:               fs,
		Load:             Load,
		Adapters:         Adapters(),
		IncludeSimulated: true,
	})
}

// Load reads the flat .rulesync/.aiignore followed by every file in
// .rulesync/ignore in name order. Adapters concatenate them in that order.
func Load(ctx context.Context, fs fsutil.FS, baseDir string) ([]*canonical.Ignore, error) {
	var (
		units []*canonical.Ignore
		errs  *multierror.Error
	)
	load := func(rel string) {
		raw, err := fs.ReadFile(path.Join(baseDir, canonical.DirName, rel))
		if err != nil {
			errs = multierror.Append(errs, err)
			return
		}
		ig, err := canonical.ParseIgnore(baseDir, rel, raw)
		if err != nil {
			errs = multierror.Append(errs, err)
			return
		}
		units = append(units, ig)
	}

	if fs.Exists(path.Join(baseDir, canonical.DirName, canonical.IgnoreFileName)) {
		load(canonical.IgnoreFileName)
	}
	names, err := fs.ListFiles(path.Join(baseDir, canonical.IgnoreDir))
	if err != nil {
		errs = multierror.Append(errs, err)
	}
	for _, name := range names {
		load(path.Join(path.Base(canonical.IgnoreDir), name))
	}
	return units, errs.ErrorOrNil()
}

func rootFile(tool targets.ToolID, dir, file string) sync.Layout {
	return sync.Layout{
		ID:    tool,
		Paths: sync.SettablePaths{Root: &sync.RootPath{RelativeDirPath: dir, RelativeFilePath: file}},
	}
}

func simulated(l sync.Layout) sync.Layout {
	l.IsSimulated = true
	return l
}

func imported(f *sync.ToolFile, patterns []string) (sync.Result[*canonical.Ignore], error) {
	ig, err := canonical.NewIgnore(canonical.IgnoreParams{
		BaseDir:          f.BaseDir,
		RelativeFilePath: canonical.IgnoreFileName,
		Patterns:         patterns,
	})
	if err != nil {
		return sync.Result[*canonical.Ignore]{}, err
	}
	return sync.Supported(ig), nil
}

// patternAdapter writes a gitignore-style file, keeping comments and
// negations as they are.
type patternAdapter struct {
	sync.Layout
}

func patternFile(tool targets.ToolID, file string) *patternAdapter {
	return &patternAdapter{Layout: rootFile(tool, "", file)}
}

func (a *patternAdapter) Parse(raw string) (formats.Document, error) {
	return formats.Document{Body: raw}, nil
}

func (a *patternAdapter) FromCanonical(baseDir string, ig *canonical.Ignore) ([]*sync.ToolFile, error) {
	f, err := a.Place(baseDir, "", true)
	if err != nil {
		return nil, err
	}
	f.Body = formats.StringifyPatterns(ig.Patterns)
	f.RawContent = f.Body
	return []*sync.ToolFile{f}, nil
}

// Merge concatenates the pattern files in canonical order.
func (a *patternAdapter) Merge(files []*sync.ToolFile) (*sync.ToolFile, error) {
	var lines []string
	for _, f := range files {
		lines = append(lines, formats.ParsePatterns(f.Body)...)
	}
	merged := *files[0]
	merged.Body = formats.StringifyPatterns(lines)
	merged.RawContent = merged.Body
	return &merged, nil
}

func (a *patternAdapter) ToCanonical(f *sync.ToolFile) (sync.Result[*canonical.Ignore], error) {
	return imported(f, formats.ParsePatterns(f.Body))
}

func (a *patternAdapter) Validate(*sync.ToolFile) error {
	return nil
}
