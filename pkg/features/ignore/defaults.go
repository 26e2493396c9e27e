package ignore

import (
	"github.com/jingkaihe/rulesync/pkg/types/targets"
)

// commonPatterns keep secrets and bulky generated output away from every
// assistant.
var commonPatterns = []string{
	"# Secrets",
	".env",
	".env.*",
	"!.env.example",
	"*.pem",
	"*.key",
	"",
	"# Dependencies and build output",
	"node_modules/",
	"vendor/",
	"dist/",
	"build/",
	"coverage/",
}

// toolPatterns hold each tool's own caches and state.
var toolPatterns = map[targets.ToolID][]string{
	targets.ClaudeCode: {".claude/settings.local.json"},
	targets.Cursor:     {".cursor/mcp.json"},
	targets.GeminiCLI:  {".gemini/settings.json"},
	targets.Kiro:       {".kiro/settings/"},
	targets.QwenCode:   {".qwen/settings.json"},
	targets.Windsurf:   {".windsurf/cache/"},
}

// DefaultPatterns returns the patterns `init` seeds .rulesync/.aiignore with:
// the common list followed by the tool-specific entries for tools, in tool
// order.
func DefaultPatterns(tools []targets.ToolID) []string {
	out := append([]string(nil), commonPatterns...)
	wanted := make(map[targets.ToolID]bool, len(tools))
	for _, t := range tools {
		wanted[t] = true
	}
	header := false
	for _, t := range targets.AllTools() {
		extra, ok := toolPatterns[t]
		if !ok || !wanted[t] {
			continue
		}
		if !header {
			out = append(out, "", "# Tool state")
			header = true
		}
		out = append(out, extra...)
	}
	return out
}
