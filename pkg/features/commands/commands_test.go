package commands

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jingkaihe/rulesync/pkg/canonical"
	"github.com/jingkaihe/rulesync/pkg/fsutil"
	"github.com/jingkaihe/rulesync/pkg/sync"
	"github.com/jingkaihe/rulesync/pkg/types/targets"
)

func newCommand(t *testing.T, name string, fm canonical.CommandFrontmatter, body string) *canonical.Command {
	t.Helper()
	c, err := canonical.NewCommand(canonical.CommandParams{
		BaseDir:          ".",
		RelativeFilePath: name,
		Frontmatter:      fm,
		Body:             body,
	})
	require.NoError(t, err)
	return c
}

func adapterFor(t *testing.T, tool targets.ToolID) Adapter {
	t.Helper()
	for _, a := range Adapters() {
		if a.Tool() == tool {
			return a
		}
	}
	t.Fatalf("no commands adapter for %s", tool)
	return nil
}

func reparse(t *testing.T, a Adapter, f *sync.ToolFile) *sync.ToolFile {
	t.Helper()
	doc, err := a.Parse(f.RawContent)
	require.NoError(t, err)
	out := *f
	out.Frontmatter = doc.Frontmatter
	out.Body = doc.Body
	return &out
}

func TestSimulatedToolsNeedTheOption(t *testing.T) {
	assert.NotContains(t, NewProcessor(fsutil.NewMemory(), false).SupportedTools(), targets.CodexCLI)
	assert.Contains(t, NewProcessor(fsutil.NewMemory(), true).SupportedTools(), targets.CodexCLI)
}

func TestRoundTrip(t *testing.T) {
	c := newCommand(t, "review.md", canonical.CommandFrontmatter{
		Description:  "Review the current diff",
		ArgumentHint: "[focus]",
	}, "Review the diff focusing on $ARGUMENTS.\n")

	for _, a := range Adapters() {
		if a.Simulated() {
			continue
		}
		t.Run(string(a.Tool()), func(t *testing.T) {
			files, err := a.FromCanonical(".", c)
			require.NoError(t, err)
			require.Len(t, files, 1)
			require.NoError(t, a.Validate(files[0]))

			res, err := a.ToCanonical(reparse(t, a, files[0]))
			require.NoError(t, err)
			back, ok := res.Get()
			require.True(t, ok)

			assert.Equal(t, c.Body, back.Body)
			assert.Equal(t, "review", back.FileStem())
			if _, plain := a.(*plainAdapter); !plain {
				assert.Equal(t, c.Frontmatter.Description, back.Frontmatter.Description)
			}
		})
	}
}

func TestTOMLArguments(t *testing.T) {
	c := newCommand(t, "fix.md", canonical.CommandFrontmatter{Description: "Fix an issue"}, "Fix issue $ARGUMENTS.\nRun the tests.\n")
	a := adapterFor(t, targets.GeminiCLI)

	files, err := a.FromCanonical(".", c)
	require.NoError(t, err)
	assert.Equal(t, ".gemini/commands/fix.toml", files[0].Path())
	assert.Contains(t, files[0].RawContent, "{{args}}")
	assert.NotContains(t, files[0].RawContent, "$ARGUMENTS")
	assert.Contains(t, files[0].RawContent, `"""`)

	res, err := a.ToCanonical(reparse(t, a, files[0]))
	require.NoError(t, err)
	back, ok := res.Get()
	require.True(t, ok)
	assert.Equal(t, c.Body, back.Body)
}

func TestArgumentHintOnlyWhereSupported(t *testing.T) {
	c := newCommand(t, "deploy.md", canonical.CommandFrontmatter{Description: "Deploy", ArgumentHint: "<env>"}, "Deploy to $ARGUMENTS")

	files, err := adapterFor(t, targets.ClaudeCode).FromCanonical(".", c)
	require.NoError(t, err)
	assert.Equal(t, "<env>", files[0].Frontmatter["argument-hint"])

	files, err = adapterFor(t, targets.OpenCode).FromCanonical(".", c)
	require.NoError(t, err)
	assert.NotContains(t, files[0].Frontmatter, "argument-hint")

	files, err = adapterFor(t, targets.Copilot).FromCanonical(".", c)
	require.NoError(t, err)
	assert.Equal(t, ".github/prompts/deploy.prompt.md", files[0].Path())
}

func TestExplicitNameIsSlugged(t *testing.T) {
	c := newCommand(t, "x.md", canonical.CommandFrontmatter{Name: "Review PR"}, "Review")
	files, err := adapterFor(t, targets.ClaudeCode).FromCanonical(".", c)
	require.NoError(t, err)
	assert.Equal(t, ".claude/commands/review-pr.md", files[0].Path())
}

func TestSimulatedCommandsAreNotImported(t *testing.T) {
	ctx := context.Background()
	fs := fsutil.NewMemory()
	require.NoError(t, fs.WriteFile(".codex/commands/review.md", "---\ndescription: Review\n---\nReview"))

	n, err := NewProcessor(fs, true).Import(ctx, ".", targets.CodexCLI)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.False(t, fs.Exists(".rulesync/commands/review.md"))
}

func TestImportFromClaudeCode(t *testing.T) {
	ctx := context.Background()
	fs := fsutil.NewMemory()
	require.NoError(t, fs.WriteFile(".claude/commands/commit.md", "---\ndescription: Write a commit\nargument-hint: \"[scope]\"\n---\nCommit $ARGUMENTS\n"))

	n, err := NewProcessor(fs, false).Import(ctx, ".", targets.ClaudeCode)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	raw, err := fs.ReadFile(".rulesync/commands/commit.md")
	require.NoError(t, err)
	c, err := canonical.ParseCommand(".", "commit.md", raw)
	require.NoError(t, err)
	assert.Equal(t, "Write a commit", c.Frontmatter.Description)
	assert.Equal(t, "[scope]", c.Frontmatter.ArgumentHint)
	assert.Equal(t, targets.Targets{targets.Wildcard}, c.Targets())
}

func TestTargetsFilter(t *testing.T) {
	c := newCommand(t, "only.md", canonical.CommandFrontmatter{Targets: targets.Targets{targets.Cursor}}, "x")
	p := NewProcessor(fsutil.NewMemory(), false)

	files, err := p.ToNative(context.Background(), ".", []*canonical.Command{c}, targets.ClaudeCode)
	require.NoError(t, err)
	assert.Empty(t, files)

	files, err = p.ToNative(context.Background(), ".", []*canonical.Command{c}, targets.Cursor)
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "x", files[0].RawContent)
}
