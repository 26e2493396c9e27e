// Package targets defines the identifiers shared by every layer of rulesync:
// the AI coding-assistant tools that configuration can be generated for, the
// wildcard target, and the independently toggleable features.
package targets

import (
	"sort"
	"strings"

	"github.com/pkg/errors"
)

// ToolID identifies one supported AI coding-assistant tool.
type ToolID string

// Supported tools
const (
	AgentsMD          ToolID = "agentsmd"
	AmazonQCLI        ToolID = "amazonqcli"
	AugmentCode       ToolID = "augmentcode"
	AugmentCodeLegacy ToolID = "augmentcode-legacy"
	ClaudeCode        ToolID = "claudecode"
	Cline             ToolID = "cline"
	CodexCLI          ToolID = "codexcli"
	Copilot           ToolID = "copilot"
	Cursor            ToolID = "cursor"
	GeminiCLI         ToolID = "geminicli"
	Junie             ToolID = "junie"
	Kiro              ToolID = "kiro"
	OpenCode          ToolID = "opencode"
	QwenCode          ToolID = "qwencode"
	Roo               ToolID = "roo"
	Warp              ToolID = "warp"
	Windsurf          ToolID = "windsurf"
)

// Wildcard is the target that matches every tool.
const Wildcard ToolID = "*"

var allTools = []ToolID{
	AgentsMD,
	AmazonQCLI,
	AugmentCode,
	AugmentCodeLegacy,
	ClaudeCode,
	Cline,
	CodexCLI,
	Copilot,
	Cursor,
	GeminiCLI,
	Junie,
	Kiro,
	OpenCode,
	QwenCode,
	Roo,
	Warp,
	Windsurf,
}

// AllTools returns every supported tool in a stable order.
func AllTools() []ToolID {
	out := make([]ToolID, len(allTools))
	copy(out, allTools)
	return out
}

// ParseToolID converts a string to a ToolID, returning false if it is not a
// known tool. The wildcard is not a tool and is rejected here.
func ParseToolID(s string) (ToolID, bool) {
	id := ToolID(strings.TrimSpace(s))
	for _, t := range allTools {
		if t == id {
			return t, true
		}
	}
	return "", false
}

// String returns the tool identifier.
func (t ToolID) String() string { return string(t) }

// Targets is the list of tools a canonical unit applies to. It may contain
// the wildcard.
type Targets []ToolID

// Includes reports whether the targets select the given tool, either by name
// or through the wildcard. Empty targets select every tool.
func (ts Targets) Includes(tool ToolID) bool {
	if len(ts) == 0 {
		return true
	}
	for _, t := range ts {
		if t == Wildcard || t == tool {
			return true
		}
	}
	return false
}

// Strings converts the targets to plain strings.
func (ts Targets) Strings() []string {
	out := make([]string, 0, len(ts))
	for _, t := range ts {
		out = append(out, string(t))
	}
	return out
}

// ParseTargets parses tool names, accepting the wildcard. A wildcard anywhere
// in the input expands to every tool when expand is true.
func ParseTargets(values []string, expand bool) (Targets, error) {
	var out Targets
	seen := make(map[ToolID]bool)
	for _, raw := range values {
		for _, part := range strings.Split(raw, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			if ToolID(part) == Wildcard {
				if expand {
					return AllTools(), nil
				}
				if !seen[Wildcard] {
					out = append(out, Wildcard)
					seen[Wildcard] = true
				}
				continue
			}
			id, ok := ParseToolID(part)
			if !ok {
				return nil, errors.Errorf("unknown tool %q (supported: %s)", part, strings.Join(Targets(allTools).Strings(), ", "))
			}
			if !seen[id] {
				out = append(out, id)
				seen[id] = true
			}
		}
	}
	return out, nil
}

// Feature is one independently toggleable output category.
type Feature string

// Features
const (
	Rules      Feature = "rules"
	Commands   Feature = "commands"
	Subagents  Feature = "subagents"
	Ignore     Feature = "ignore"
	MCPServers Feature = "mcp"
)

var allFeatures = []Feature{Rules, Ignore, MCPServers, Commands, Subagents}

// AllFeatures returns every feature in generation order.
func AllFeatures() []Feature {
	out := make([]Feature, len(allFeatures))
	copy(out, allFeatures)
	return out
}

// ParseFeatures parses a feature list. "*" selects every feature.
func ParseFeatures(values []string) ([]Feature, error) {
	var out []Feature
	seen := make(map[Feature]bool)
	for _, raw := range values {
		for _, part := range strings.Split(raw, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			if part == "*" {
				return AllFeatures(), nil
			}
			f := Feature(part)
			if part == "mcp-servers" {
				f = MCPServers
			}
			valid := false
			for _, known := range allFeatures {
				if known == f {
					valid = true
					break
				}
			}
			if !valid {
				return nil, errors.Errorf("unknown feature %q", part)
			}
			if !seen[f] {
				out = append(out, f)
				seen[f] = true
			}
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return featureOrder(out[i]) < featureOrder(out[j])
	})
	return out, nil
}

func featureOrder(f Feature) int {
	for i, known := range allFeatures {
		if known == f {
			return i
		}
	}
	return len(allFeatures)
}
