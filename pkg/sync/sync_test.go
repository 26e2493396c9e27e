package sync

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jingkaihe/rulesync/pkg/canonical"
	"github.com/jingkaihe/rulesync/pkg/formats"
	"github.com/jingkaihe/rulesync/pkg/fsutil"
	"github.com/jingkaihe/rulesync/pkg/schema"
	"github.com/jingkaihe/rulesync/pkg/types/targets"
)

// flatAdapter writes every rule body to NOTES.md, or to notes/<stem>.txt when
// a directory is configured.
type flatAdapter struct {
	Layout
	merge bool
}

func (a *flatAdapter) Parse(raw string) (formats.Document, error) {
	return formats.Document{Body: raw}, nil
}

func (a *flatAdapter) FromCanonical(baseDir string, r *canonical.Rule) ([]*ToolFile, error) {
	f, err := a.Place(baseDir, r.Stem(), r.Frontmatter.Root)
	if err != nil {
		return nil, err
	}
	f.Body = r.Body
	f.RawContent = r.Body
	return []*ToolFile{f}, nil
}

func (a *flatAdapter) ToCanonical(f *ToolFile) (Result[*canonical.Rule], error) {
	if a.IsSimulated {
		return Unsupported[*canonical.Rule]("simulated"), nil
	}
	stem, root := a.CanonicalStem(f)
	r, err := canonical.NewRule(canonical.RuleParams{
		BaseDir:          f.BaseDir,
		RelativeFilePath: stem + ".md",
		Frontmatter:      canonical.RuleFrontmatter{Root: root},
		Body:             f.Body,
	})
	if err != nil {
		return Result[*canonical.Rule]{}, err
	}
	return Supported(r), nil
}

func (a *flatAdapter) Validate(f *ToolFile) error {
	if strings.Contains(f.Body, "forbidden") {
		return schema.Invalid(string(a.ID), f.Path(), "forbidden content")
	}
	return nil
}

type mergingAdapter struct {
	flatAdapter
}

func (a *mergingAdapter) Merge(files []*ToolFile) (*ToolFile, error) {
	var bodies []string
	for _, f := range files {
		bodies = append(bodies, f.Body)
	}
	out := *files[0]
	out.Body = strings.Join(bodies, "\n")
	out.RawContent = out.Body
	return &out, nil
}

var (
	rootOnly = SettablePaths{Root: &RootPath{RelativeFilePath: "NOTES.md"}}
	withDir  = SettablePaths{
		Root:    &RootPath{RelativeFilePath: "NOTES.md"},
		NonRoot: &NonRootPath{RelativeDirPath: "notes", Extension: ".txt"},
	}
)

func rule(t *testing.T, name string, root bool, body string) *canonical.Rule {
	t.Helper()
	r, err := canonical.NewRule(canonical.RuleParams{
		BaseDir:          ".",
		RelativeFilePath: name,
		Frontmatter:      canonical.RuleFrontmatter{Root: root},
		Body:             body,
	})
	require.NoError(t, err)
	return r
}

func newTestProcessor(fs fsutil.FS, includeSimulated bool, adapters ...Adapter[*canonical.Rule]) *Processor[*canonical.Rule] {
	return NewProcessor(ProcessorConfig[*canonical.Rule]{
		Feature:          targets.Rules,
		FS:               fs,
		Load:             LoadDir[*canonical.Rule](canonical.RulesDir, canonical.MarkdownExt, canonical.ParseRule),
		Adapters:         adapters,
		IncludeSimulated: includeSimulated,
	})
}

func TestTrimExt(t *testing.T) {
	assert.Equal(t, "api", TrimExt("api.instructions.md", ".instructions.md"))
	assert.Equal(t, "api.instructions", TrimExt("api.instructions.md", ".txt"))
	assert.Equal(t, "api", TrimExt("dir/api.mdc", ".mdc"))
	assert.Equal(t, ".mdc", TrimExt(".mdc", ".mdc"))
	assert.Equal(t, "README", TrimExt("README", ""))
}

func TestLayoutPlace(t *testing.T) {
	l := Layout{ID: targets.ClaudeCode, Paths: withDir}

	f, err := l.Place(".", "overview", true)
	require.NoError(t, err)
	assert.Equal(t, "NOTES.md", f.Path())

	f, err = l.Place("sub", "api", false)
	require.NoError(t, err)
	assert.Equal(t, "sub/notes/api.txt", f.Path())
	stem, root := l.CanonicalStem(f)
	assert.Equal(t, "api", stem)
	assert.False(t, root)

	stem, root = l.CanonicalStem(l.Paths.RootFile(l.ID, "."))
	assert.Equal(t, RootStem, stem)
	assert.True(t, root)

	flat := Layout{ID: targets.Warp, Paths: rootOnly}
	f, err = flat.Place(".", "api", false)
	require.NoError(t, err)
	assert.Equal(t, "NOTES.md", f.Path())

	dirOnly := Layout{ID: targets.Cursor, Paths: SettablePaths{
		Root:    &RootPath{RelativeDirPath: "rules", RelativeFilePath: "overview.mdc"},
		NonRoot: &NonRootPath{RelativeDirPath: "rules", Extension: ".mdc"},
	}}
	_, err = dirOnly.Place(".", "overview", false)
	var ve *schema.ValidationError
	assert.ErrorAs(t, err, &ve)
}

func TestResult(t *testing.T) {
	r := Supported(3)
	v, ok := r.Get()
	assert.True(t, ok)
	assert.Equal(t, 3, v)
	assert.False(t, r.Unsupported())

	u := Unsupported[int]("no native format")
	_, ok = u.Get()
	assert.False(t, ok)
	assert.True(t, u.Unsupported())
	assert.Equal(t, "no native format", u.Reason())
}

func TestToNativeCombinesSharedPaths(t *testing.T) {
	ctx := context.Background()
	units := []*canonical.Rule{rule(t, "a.md", false, "A"), rule(t, "b.md", false, "B")}

	plain := newTestProcessor(fsutil.NewMemory(), false, &flatAdapter{Layout: Layout{ID: targets.Warp, Paths: rootOnly}})
	files, err := plain.ToNative(ctx, ".", units, targets.Warp)
	assert.Error(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "A", files[0].RawContent)

	merging := newTestProcessor(fsutil.NewMemory(), false, &mergingAdapter{flatAdapter{Layout: Layout{ID: targets.Warp, Paths: rootOnly}}})
	files, err = merging.ToNative(ctx, ".", units, targets.Warp)
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "A\nB", files[0].RawContent)
}

func TestToNativeSkipsInvalidFiles(t *testing.T) {
	p := newTestProcessor(fsutil.NewMemory(), false, &flatAdapter{Layout: Layout{ID: targets.Warp, Paths: withDir}})
	units := []*canonical.Rule{rule(t, "ok.md", false, "fine"), rule(t, "bad.md", false, "forbidden")}

	files, err := p.ToNative(context.Background(), ".", units, targets.Warp)
	var ve *schema.ValidationError
	assert.ErrorAs(t, err, &ve)
	require.Len(t, files, 1)
	assert.Equal(t, "notes/ok.txt", files[0].Path())
}

func TestSimulatedAdapters(t *testing.T) {
	sim := &flatAdapter{Layout: Layout{ID: targets.Warp, Paths: withDir, IsSimulated: true}}

	off := newTestProcessor(fsutil.NewMemory(), false, sim)
	assert.Empty(t, off.SupportedTools())
	_, err := off.Adapter(targets.Warp)
	var ute *UnsupportedToolError
	assert.ErrorAs(t, err, &ute)

	fs := fsutil.NewMemory()
	require.NoError(t, fs.WriteFile("notes/a.txt", "A"))
	on := newTestProcessor(fs, true, sim)
	assert.Equal(t, []targets.ToolID{targets.Warp}, on.SupportedTools())

	n, err := on.Import(context.Background(), ".", targets.Warp)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestLoadNativeSkipsRootAndOtherExtensions(t *testing.T) {
	fs := fsutil.NewMemory()
	require.NoError(t, fs.WriteFile("NOTES.md", "root"))
	require.NoError(t, fs.WriteFile("notes/a.txt", "A"))
	require.NoError(t, fs.WriteFile("notes/b.md", "ignored"))
	p := newTestProcessor(fs, false, &flatAdapter{Layout: Layout{ID: targets.Warp, Paths: withDir}})

	files, err := p.LoadNative(context.Background(), ".", targets.Warp)
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, "NOTES.md", files[0].Path())
	assert.Equal(t, "notes/a.txt", files[1].Path())

	n, err := p.Import(context.Background(), ".", targets.Warp)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.True(t, fs.Exists(".rulesync/rules/overview.md"))
	assert.True(t, fs.Exists(".rulesync/rules/a.md"))
}

func TestLoadDirReportsInvalidFiles(t *testing.T) {
	fs := fsutil.NewMemory()
	require.NoError(t, fs.WriteFile(".rulesync/rules/good.md", "Good"))
	require.NoError(t, fs.WriteFile(".rulesync/rules/bad.md", "---\ntargets: [vim]\n---\nBad"))

	units, err := newTestProcessor(fs, false).LoadCanonical(context.Background(), ".")
	assert.Error(t, err)
	require.Len(t, units, 1)
	assert.Equal(t, "Good", units[0].Body)
}

func TestDeleteRemovesOwnedLocations(t *testing.T) {
	fs := fsutil.NewMemory()
	require.NoError(t, fs.WriteFile("NOTES.md", "root"))
	require.NoError(t, fs.WriteFile("notes/a.txt", "A"))
	require.NoError(t, fs.WriteFile("keep.md", "keep"))
	p := newTestProcessor(fs, false, &flatAdapter{Layout: Layout{ID: targets.Warp, Paths: withDir}})

	require.NoError(t, p.Delete(context.Background(), ".", targets.Warp))
	assert.False(t, fs.Exists("NOTES.md"))
	assert.False(t, fs.Exists("notes/a.txt"))
	assert.True(t, fs.Exists("keep.md"))
}

func TestGeneratorAcrossBaseDirs(t *testing.T) {
	fs := fsutil.NewMemory()
	require.NoError(t, fs.WriteFile("a/.rulesync/rules/x.md", "X"))
	require.NoError(t, fs.WriteFile("b/.rulesync/rules/y.md", "Y"))
	p := newTestProcessor(fs, false, &flatAdapter{Layout: Layout{ID: targets.Warp, Paths: withDir}})

	res, err := NewGenerator(fs, p).Generate(context.Background(), GenerateOptions{
		Targets:  []targets.ToolID{targets.Warp, targets.Cursor},
		BaseDirs: []string{"a", "b"},
		Features: []targets.Feature{targets.Rules},
	})
	require.NoError(t, err)
	require.NoError(t, res.Err)
	require.Len(t, res.Outputs, 2)
	assert.Equal(t, Output{Tool: targets.Warp, Feature: targets.Rules, Path: "a/notes/x.txt", Content: "X"}, res.Outputs[0])
	assert.Equal(t, "b/notes/y.txt", res.Outputs[1].Path)
	assert.Equal(t, 2, res.Counts[targets.Rules])

	_, err = NewGenerator(fs, p).Generate(context.Background(), GenerateOptions{
		Targets:  []targets.ToolID{targets.Warp},
		BaseDirs: []string{"a", "missing"},
	})
	assert.ErrorIs(t, err, ErrMissingCanonicalDir)
}

func TestGeneratorWithNoFeaturesSelected(t *testing.T) {
	fs := fsutil.NewMemory()
	require.NoError(t, fs.WriteFile(".rulesync/rules/x.md", "X"))
	p := newTestProcessor(fs, false, &flatAdapter{Layout: Layout{ID: targets.Warp, Paths: withDir}})

	res, err := NewGenerator(fs, p).Generate(context.Background(), GenerateOptions{
		Targets:  []targets.ToolID{targets.Warp},
		Features: []targets.Feature{},
	})
	require.NoError(t, err)
	assert.Zero(t, res.Total())
}

func TestSharedDescriptorError(t *testing.T) {
	cause := &formats.ParseError{Format: "json", Err: assert.AnError}
	err := error(&sharedDescriptorError{err: cause})
	assert.ErrorIs(t, err, ErrSharedDescriptor)
	var pe *formats.ParseError
	assert.ErrorAs(t, err, &pe)
	assert.Contains(t, err.Error(), "json")
}

func TestLockCanonicalDir(t *testing.T) {
	dir := t.TempDir()

	unlock, err := LockCanonicalDir(dir)
	require.NoError(t, err)
	unlock()
	_, err = os.Stat(filepath.Join(dir, canonical.DirName))
	assert.True(t, os.IsNotExist(err))

	require.NoError(t, os.MkdirAll(filepath.Join(dir, canonical.DirName), 0o755))
	unlock, err = LockCanonicalDir(dir)
	require.NoError(t, err)
	unlock()
	assert.FileExists(t, filepath.Join(dir, canonical.DirName, LockFileName))
}

func TestOutputLocations(t *testing.T) {
	adapters := []Adapter[*canonical.Rule]{
		&flatAdapter{Layout: Layout{ID: targets.ClaudeCode, Paths: SettablePaths{
			Root:    &RootPath{RelativeFilePath: "CLAUDE.md"},
			NonRoot: &NonRootPath{RelativeDirPath: ".claude/rules", Extension: ".md"},
		}}},
		&flatAdapter{Layout: Layout{ID: targets.Cursor, Paths: SettablePaths{
			Root:    &RootPath{RelativeDirPath: ".cursor/rules", RelativeFilePath: "overview.mdc"},
			NonRoot: &NonRootPath{RelativeDirPath: ".cursor/rules", Extension: ".mdc"},
		}}},
	}
	assert.Equal(t, []string{"CLAUDE.md", ".claude/rules/", ".cursor/rules/"}, OutputLocations(adapters))
}
