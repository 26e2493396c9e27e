package canonical

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jingkaihe/rulesync/pkg/formats"
	"github.com/jingkaihe/rulesync/pkg/schema"
	"github.com/jingkaihe/rulesync/pkg/types/targets"
)

func TestParseRule(t *testing.T) {
	raw := `---
root: true
targets: ["claudecode", "cursor"]
description: Project overview
globs: ["**/*.go"]
cursor:
  alwaysApply: true
---
# Title
Body`

	r, err := ParseRule("/repo", "overview.md", raw)
	require.NoError(t, err)

	assert.True(t, r.Frontmatter.Root)
	assert.Equal(t, targets.Targets{targets.ClaudeCode, targets.Cursor}, r.Targets())
	assert.Equal(t, "Project overview", r.Frontmatter.Description)
	assert.Equal(t, []string{"**/*.go"}, r.Frontmatter.Globs)
	require.NotNil(t, r.Frontmatter.Cursor)
	require.NotNil(t, r.Frontmatter.Cursor.AlwaysApply)
	assert.True(t, *r.Frontmatter.Cursor.AlwaysApply)
	assert.Equal(t, "# Title\nBody", r.Body)
	assert.Equal(t, "/repo/.rulesync/rules/overview.md", r.Path())
	assert.Equal(t, "overview", r.Stem())
}

func TestParseRuleWithoutFrontmatter(t *testing.T) {
	r, err := ParseRule("/repo", "plain.md", "just text\n")
	require.NoError(t, err)

	assert.False(t, r.Frontmatter.Root)
	assert.Equal(t, targets.Targets{targets.Wildcard}, r.Targets())
	assert.Equal(t, "just text\n", r.Body)
}

func TestRuleRawContentIsRederivable(t *testing.T) {
	r, err := NewRule(RuleParams{
		BaseDir:          "/repo",
		RelativeFilePath: "style.md",
		Frontmatter: RuleFrontmatter{
			Description: "Style guide",
			Globs:       []string{"**/*.ts", "**/*.tsx"},
		},
		Body: "Use tabs.",
	})
	require.NoError(t, err)

	again, err := ParseRule("/repo", "style.md", r.RawContent)
	require.NoError(t, err)
	assert.Equal(t, r.Frontmatter, again.Frontmatter)
	assert.Equal(t, r.Body, again.Body)
	assert.Equal(t, r.RawContent, again.RawContent)
}

func TestRuleValidation(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{
			name: "root is not a boolean",
			raw:  "---\nroot: [1]\n---\nbody",
		},
		{
			name: "unknown target",
			raw:  "---\ntargets: [notatool]\n---\nbody",
		},
		{
			name: "bad windsurf trigger",
			raw:  "---\nwindsurf:\n  trigger: sometimes\n---\nbody",
		},
		{
			name: "bad glob",
			raw:  "---\nglobs: [\"[\"]\n---\nbody",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseRule("/repo", "bad.md", tt.raw)
			require.Error(t, err)
			var ve *schema.ValidationError
			assert.ErrorAs(t, err, &ve)
		})
	}
}

func TestRuleWithoutValidation(t *testing.T) {
	r, err := NewRule(RuleParams{
		RelativeFilePath: "x.md",
		Frontmatter:      RuleFrontmatter{Targets: targets.Targets{"nope"}},
	}, WithoutValidation())
	require.NoError(t, err)
	assert.Error(t, r.Validate())
}

func TestRuleExtraFieldsAreAllowed(t *testing.T) {
	_, err := ParseRule("/repo", "extra.md", "---\nowner: platform-team\n---\nbody")
	assert.NoError(t, err)
}

func TestParseCommand(t *testing.T) {
	raw := "---\ndescription: Review a pull request\nargumentHint: \"[pr-number]\"\n---\nReview $ARGUMENTS carefully."
	c, err := ParseCommand("/repo", "review-pr.md", raw)
	require.NoError(t, err)

	assert.Equal(t, "review-pr", c.Name())
	assert.Equal(t, "Review a pull request", c.Frontmatter.Description)
	assert.Equal(t, "[pr-number]", c.Frontmatter.ArgumentHint)
	assert.Equal(t, "Review $ARGUMENTS carefully.", c.Body)
	assert.Equal(t, "/repo/.rulesync/commands/review-pr.md", c.Path())

	named, err := ParseCommand("/repo", "x.md", "---\nname: explicit\n---\nbody")
	require.NoError(t, err)
	assert.Equal(t, "explicit", named.Name())
}

func TestParseSubagent(t *testing.T) {
	raw := `---
name: planner
description: Plans work
claudecode:
  model: opus
  tools: [Read, Grep]
opencode:
  temperature: 0.2
---
You plan things.`

	s, err := ParseSubagent("/repo", "planner.md", raw)
	require.NoError(t, err)
	assert.Equal(t, "planner", s.Name())
	require.NotNil(t, s.Frontmatter.ClaudeCode)
	assert.Equal(t, "opus", s.Frontmatter.ClaudeCode.Model)
	assert.Equal(t, []string{"Read", "Grep"}, s.Frontmatter.ClaudeCode.Tools)
	require.NotNil(t, s.Frontmatter.OpenCode)
	require.NotNil(t, s.Frontmatter.OpenCode.Temperature)
	assert.InDelta(t, 0.2, *s.Frontmatter.OpenCode.Temperature, 1e-9)

	_, err = ParseSubagent("/repo", "bad.md", "---\nclaudecode:\n  model: gpt\n---\nx")
	assert.Error(t, err)
}

func TestIgnorePreservesCommentsAndNegations(t *testing.T) {
	raw := "# secrets\n.env\n!.env.example\n\nnode_modules/\n"
	ig, err := ParseIgnore("/repo", IgnoreFileName, raw)
	require.NoError(t, err)

	assert.Equal(t, []string{"# secrets", ".env", "!.env.example", "", "node_modules/"}, ig.Patterns)
	assert.Equal(t, []string{".env", "!.env.example", "node_modules/"}, ig.ActivePatterns())
	assert.Equal(t, raw, ig.RawContent)
	assert.Equal(t, "/repo/.rulesync/.aiignore", ig.Path())

	nested, err := ParseIgnore("/repo", "ignore/build", "dist/\n")
	require.NoError(t, err)
	assert.Equal(t, "/repo/.rulesync/ignore/build", nested.Path())

	_, err = ParseIgnore("/repo", IgnoreFileName, "!\n")
	assert.Error(t, err)
}

func TestParseMcp(t *testing.T) {
	raw := `{
  "mcpServers": {
    "s1": {"command": "x", "targets": ["cursor"]},
    "remote": {"type": "http", "url": "https://example.com/mcp", "timeout": 30}
  }
}`
	m, err := ParseMcp("/repo", raw)
	require.NoError(t, err)

	assert.Equal(t, []string{"remote", "s1"}, m.Names())
	assert.True(t, m.Servers["remote"].Remote())
	assert.Equal(t, float64(30), m.Servers["remote"].Extra["timeout"])

	forClaude := m.ServersFor(targets.ClaudeCode)
	assert.NotContains(t, forClaude, "s1")
	assert.Contains(t, forClaude, "remote")

	forCursor := m.ServersFor(targets.Cursor)
	require.Contains(t, forCursor, "s1")
	assert.Nil(t, forCursor["s1"].Targets)

	again, err := ParseMcp("/repo", m.RawContent)
	require.NoError(t, err)
	assert.Equal(t, m.Servers, again.Servers)
}

func TestParseMcpErrors(t *testing.T) {
	_, err := ParseMcp("/repo", "{not json")
	var pe *formats.ParseError
	assert.ErrorAs(t, err, &pe)

	_, err = ParseMcp("/repo", `{"mcpServers": {"empty": {}}}`)
	var ve *schema.ValidationError
	assert.ErrorAs(t, err, &ve)

	m, err := ParseMcp("/repo", "")
	require.NoError(t, err)
	assert.Empty(t, m.Servers)
}

func TestStem(t *testing.T) {
	assert.Equal(t, "foo", Stem("a/b/foo.md"))
	assert.Equal(t, "foo.instructions", Stem("foo.instructions.md"))
	assert.Equal(t, ".aiignore", Stem(".aiignore"))
}
