package ignore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jingkaihe/rulesync/pkg/canonical"
	"github.com/jingkaihe/rulesync/pkg/formats"
	"github.com/jingkaihe/rulesync/pkg/fsutil"
	"github.com/jingkaihe/rulesync/pkg/types/targets"
)

func setup(t *testing.T, files map[string]string) fsutil.FS {
	t.Helper()
	fs := fsutil.NewMemory()
	for p, content := range files {
		require.NoError(t, fs.WriteFile(p, content))
	}
	return fs
}

func TestLoadConcatenatesInOrder(t *testing.T) {
	fs := setup(t, map[string]string{
		".rulesync/.aiignore":      "# secrets\n.env\n!.env.example\n",
		".rulesync/ignore/b-build": "dist/\n",
		".rulesync/ignore/a-deps":  "node_modules/\n",
	})
	ctx := context.Background()

	units, err := Load(ctx, fs, ".")
	require.NoError(t, err)
	require.Len(t, units, 3)
	assert.Equal(t, ".rulesync/.aiignore", units[0].Path())
	assert.Equal(t, ".rulesync/ignore/a-deps", units[1].Path())

	files, err := NewProcessor(fs).ToNative(ctx, ".", units, targets.Cursor)
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, ".cursorignore", files[0].Path())
	assert.Equal(t, "# secrets\n.env\n!.env.example\nnode_modules/\ndist/\n", files[0].RawContent)
}

func TestLoadWithoutCanonicalFiles(t *testing.T) {
	units, err := Load(context.Background(), fsutil.NewMemory(), ".")
	require.NoError(t, err)
	assert.Empty(t, units)
}

func TestPatternFilesKeepCommentsAndNegations(t *testing.T) {
	ig, err := canonical.ParseIgnore(".", ".aiignore", "# keep\n*.log\n!keep.log\n")
	require.NoError(t, err)

	for _, tool := range []targets.ToolID{targets.Cline, targets.Roo, targets.Kiro, targets.Junie, targets.Windsurf} {
		t.Run(string(tool), func(t *testing.T) {
			files, err := NewProcessor(fsutil.NewMemory()).ToNative(context.Background(), ".", []*canonical.Ignore{ig}, tool)
			require.NoError(t, err)
			require.Len(t, files, 1)
			assert.Equal(t, "# keep\n*.log\n!keep.log\n", files[0].RawContent)
		})
	}
}

func TestClaudeCodeDenyPermissions(t *testing.T) {
	fs := setup(t, map[string]string{
		".claude/settings.json": `{"model": "opus", "permissions": {"deny": ["Bash(rm:*)"]}}`,
	})
	ig, err := canonical.ParseIgnore(".", ".aiignore", "# secrets\n.env\nnode_modules/\n!public.env\n")
	require.NoError(t, err)
	ctx := context.Background()
	p := NewProcessor(fs)

	files, err := p.ToNative(ctx, ".", []*canonical.Ignore{ig}, targets.ClaudeCode)
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, ".claude/settings.json", files[0].Path())

	raw := files[0].RawContent
	assert.Equal(t, []string{"Bash(rm:*)", "Read(.env)", "Read(node_modules/**)"}, formats.JSONStrings(raw, claudeDenyPath))
	model, ok := formats.LookupJSON(raw, "model")
	require.True(t, ok)
	assert.Equal(t, `"opus"`, model)

	// A second run over the merged file adds nothing.
	require.NoError(t, p.Write(ctx, files))
	again, err := p.ToNative(ctx, ".", []*canonical.Ignore{ig}, targets.ClaudeCode)
	require.NoError(t, err)
	assert.Equal(t, raw, again[0].RawContent)

	// Settings files are shared, so delete leaves them in place.
	require.NoError(t, p.Delete(ctx, ".", targets.ClaudeCode))
	assert.True(t, fs.Exists(".claude/settings.json"))
}

func TestClaudeCodeImport(t *testing.T) {
	fs := setup(t, map[string]string{
		".claude/settings.json": `{"permissions": {"deny": ["Bash(rm:*)", "Read(.env)", "Read(secrets/**)"]}}`,
	})
	n, err := NewProcessor(fs).Import(context.Background(), ".", targets.ClaudeCode)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	raw, err := fs.ReadFile(".rulesync/.aiignore")
	require.NoError(t, err)
	assert.Equal(t, ".env\nsecrets/**\n", raw)
}

func TestQwenCodeIsSimulated(t *testing.T) {
	fs := setup(t, map[string]string{
		".qwen/settings.json": `{"theme": "dark"}`,
	})
	ig, err := canonical.ParseIgnore(".", ".aiignore", ".env\n")
	require.NoError(t, err)
	ctx := context.Background()
	p := NewProcessor(fs)

	files, err := p.ToNative(ctx, ".", []*canonical.Ignore{ig, ig}, targets.QwenCode)
	require.NoError(t, err)
	require.Len(t, files, 1)

	raw := files[0].RawContent
	v, ok := formats.LookupJSON(raw, "fileFiltering.respectGitIgnore")
	require.True(t, ok)
	assert.Equal(t, "true", v)
	v, ok = formats.LookupJSON(raw, "theme")
	require.True(t, ok)
	assert.Equal(t, `"dark"`, v)

	require.NoError(t, p.Write(ctx, files))
	n, err := p.Import(ctx, ".", targets.QwenCode)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.False(t, fs.Exists(".rulesync/.aiignore"))
}

func TestPatternFileImportAndDelete(t *testing.T) {
	fs := setup(t, map[string]string{".cursorignore": "*.log\n"})
	ctx := context.Background()
	p := NewProcessor(fs)

	n, err := p.Import(ctx, ".", targets.Cursor)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	raw, err := fs.ReadFile(".rulesync/.aiignore")
	require.NoError(t, err)
	assert.Equal(t, "*.log\n", raw)

	require.NoError(t, p.Delete(ctx, ".", targets.Cursor))
	assert.False(t, fs.Exists(".cursorignore"))
}

func TestUnsupportedToolsImportNothing(t *testing.T) {
	n, err := NewProcessor(fsutil.NewMemory()).Import(context.Background(), ".", targets.Warp)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestDefaultPatterns(t *testing.T) {
	none := DefaultPatterns(nil)
	assert.Equal(t, commonPatterns, none)
	assert.NotContains(t, none, "# Tool state")

	withTools := DefaultPatterns([]targets.ToolID{targets.Windsurf, targets.ClaudeCode, targets.Warp})
	tail := withTools[len(commonPatterns):]
	assert.Equal(t, []string{"", "# Tool state", ".claude/settings.local.json", ".windsurf/cache/"}, tail)

	ig, err := canonical.NewIgnore(canonical.IgnoreParams{BaseDir: ".", RelativeFilePath: ".aiignore", Patterns: withTools})
	require.NoError(t, err)
	assert.NotEmpty(t, ig.ActivePatterns())
}
