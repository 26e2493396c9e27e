package mcp

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jingkaihe/rulesync/pkg/canonical"
	"github.com/jingkaihe/rulesync/pkg/formats"
	"github.com/jingkaihe/rulesync/pkg/fsutil"
	"github.com/jingkaihe/rulesync/pkg/sync"
	"github.com/jingkaihe/rulesync/pkg/types/targets"
)

const descriptor = `{
  "mcpServers": {
    "fs": {"command": "npx", "args": ["-y", "@modelcontextprotocol/server-filesystem", "."], "env": {"DEBUG": "1"}},
    "docs": {"type": "http", "url": "https://example.com/mcp", "headers": {"Authorization": "Bearer x"}},
    "cursor-only": {"command": "cursor-tool", "targets": ["cursor"], "timeout": 30}
  }
}`

func loadDescriptor(t *testing.T) *canonical.Mcp {
	t.Helper()
	m, err := canonical.ParseMcp(".", descriptor)
	require.NoError(t, err)
	return m
}

func convert(t *testing.T, fs fsutil.FS, tool targets.ToolID) []*sync.ToolFile {
	t.Helper()
	files, err := NewProcessor(fs).ToNative(context.Background(), ".", []*canonical.Mcp{loadDescriptor(t)}, tool)
	require.NoError(t, err)
	return files
}

func TestServersAreFilteredPerTool(t *testing.T) {
	files := convert(t, fsutil.NewMemory(), targets.Cursor)
	require.Len(t, files, 1)
	assert.Equal(t, ".cursor/mcp.json", files[0].Path())

	servers := files[0].Frontmatter[mcpServersKey].(map[string]any)
	assert.Len(t, servers, 3)
	only := servers["cursor-only"].(map[string]any)
	assert.NotContains(t, only, "targets")
	assert.Equal(t, float64(30), only["timeout"])

	files = convert(t, fsutil.NewMemory(), targets.ClaudeCode)
	require.Len(t, files, 1)
	assert.Equal(t, ".mcp.json", files[0].Path())
	servers = files[0].Frontmatter[mcpServersKey].(map[string]any)
	assert.NotContains(t, servers, "cursor-only")
}

func TestGenerationIsDeterministic(t *testing.T) {
	for _, tool := range NewProcessor(fsutil.NewMemory()).SupportedTools() {
		t.Run(string(tool), func(t *testing.T) {
			first := convert(t, fsutil.NewMemory(), tool)
			second := convert(t, fsutil.NewMemory(), tool)
			require.Equal(t, len(first), len(second))
			for i := range first {
				assert.Equal(t, first[i].RawContent, second[i].RawContent)
			}
		})
	}
}

func TestRoundTrip(t *testing.T) {
	for _, tool := range NewProcessor(fsutil.NewMemory()).SupportedTools() {
		t.Run(string(tool), func(t *testing.T) {
			ctx := context.Background()
			fs := fsutil.NewMemory()
			p := NewProcessor(fs)
			files := convert(t, fs, tool)
			require.NoError(t, p.Write(ctx, files))

			n, err := p.Import(ctx, ".", tool)
			require.NoError(t, err)
			require.Equal(t, 1, n)

			raw, err := fs.ReadFile(".rulesync/.mcp.json")
			require.NoError(t, err)
			back, err := canonical.ParseMcp(".", raw)
			require.NoError(t, err)

			assert.Subset(t, back.Names(), []string{"docs", "fs"})
			assert.Equal(t, "npx", back.Servers["fs"].Command)
			assert.Equal(t, []string{"-y", "@modelcontextprotocol/server-filesystem", "."}, back.Servers["fs"].Args)
			assert.Equal(t, map[string]string{"DEBUG": "1"}, back.Servers["fs"].Env)
			assert.Equal(t, "https://example.com/mcp", back.Servers["docs"].URL)
			assert.Equal(t, map[string]string{"Authorization": "Bearer x"}, back.Servers["docs"].Headers)
		})
	}
}

func TestSharedSettingsKeepOtherKeys(t *testing.T) {
	fs := fsutil.NewMemory()
	require.NoError(t, fs.WriteFile(".gemini/settings.json", `{"theme": "GitHub", "mcpServers": {"stale": {"command": "old"}}}`))
	ctx := context.Background()
	p := NewProcessor(fs)

	files := convert(t, fs, targets.GeminiCLI)
	require.Len(t, files, 1)
	raw := files[0].RawContent

	theme, ok := formats.LookupJSON(raw, "theme")
	require.True(t, ok)
	assert.Equal(t, `"GitHub"`, theme)
	_, ok = formats.LookupJSON(raw, "mcpServers.stale")
	assert.False(t, ok)
	url, ok := formats.LookupJSON(raw, "mcpServers.docs.httpUrl")
	require.True(t, ok)
	assert.Equal(t, `"https://example.com/mcp"`, url)

	require.NoError(t, p.Delete(ctx, ".", targets.GeminiCLI))
	assert.True(t, fs.Exists(".gemini/settings.json"))
}

func TestCodexConfigKeepsOtherTables(t *testing.T) {
	fs := fsutil.NewMemory()
	require.NoError(t, fs.WriteFile(".codex/config.toml", "model = \"o3\"\n\n[tui]\nanimations = false\n"))

	files := convert(t, fs, targets.CodexCLI)
	require.Len(t, files, 1)
	doc, err := formats.ParseTOMLDocument(files[0].RawContent)
	require.NoError(t, err)

	assert.Equal(t, "o3", doc["model"])
	assert.Equal(t, map[string]any{"animations": false}, doc["tui"])
	servers := doc[codexServersKey].(map[string]any)
	docs := servers["docs"].(map[string]any)
	assert.Equal(t, "https://example.com/mcp", docs["url"])
	assert.Contains(t, docs, "http_headers")
	assert.NotContains(t, docs, "type")
}

func TestOpenCodeCommandArray(t *testing.T) {
	files := convert(t, fsutil.NewMemory(), targets.OpenCode)
	require.Len(t, files, 1)
	assert.Equal(t, "opencode.json", files[0].Path())

	block := files[0].Frontmatter[openCodeServersKey].(map[string]any)
	fs := block["fs"].(map[string]any)
	assert.Equal(t, "local", fs["type"])
	assert.Equal(t, []any{"npx", "-y", "@modelcontextprotocol/server-filesystem", "."}, fs["command"])
	assert.Equal(t, map[string]any{"DEBUG": "1"}, fs["environment"])
	assert.Equal(t, "remote", block["docs"].(map[string]any)["type"])
}

func TestCopilotWritesEditorAndCLIConfig(t *testing.T) {
	ctx := context.Background()
	fs := fsutil.NewMemory()
	p := NewProcessor(fs)

	files := convert(t, fs, targets.Copilot)
	require.Len(t, files, 2)
	assert.Equal(t, ".vscode/mcp.json", files[0].Path())
	assert.Equal(t, ".copilot/mcp-config.json", files[1].Path())

	editor := files[0].Frontmatter[vscodeServersKey].(map[string]any)
	assert.Equal(t, "stdio", editor["fs"].(map[string]any)["type"])
	cli := files[1].Frontmatter[mcpServersKey].(map[string]any)
	assert.Equal(t, "local", cli["fs"].(map[string]any)["type"])
	assert.Equal(t, []any{"*"}, cli["fs"].(map[string]any)["tools"])

	require.NoError(t, p.Write(ctx, files))
	require.NoError(t, p.Delete(ctx, ".", targets.Copilot))
	assert.False(t, fs.Exists(".vscode/mcp.json"))
	assert.False(t, fs.Exists(".copilot/mcp-config.json"))
}

func TestLoad(t *testing.T) {
	ctx := context.Background()

	units, err := Load(ctx, fsutil.NewMemory(), ".")
	require.NoError(t, err)
	assert.Empty(t, units)

	fs := fsutil.NewMemory()
	require.NoError(t, fs.WriteFile(".rulesync/.mcp.json", "{not json"))
	_, err = Load(ctx, fs, ".")
	var pe *formats.ParseError
	assert.ErrorAs(t, err, &pe)
}

func TestUnsupportedTools(t *testing.T) {
	p := NewProcessor(fsutil.NewMemory())
	for _, tool := range []targets.ToolID{targets.Windsurf, targets.Warp, targets.AgentsMD} {
		_, err := p.Adapter(tool)
		var ute *sync.UnsupportedToolError
		assert.ErrorAs(t, err, &ute)
	}
}
