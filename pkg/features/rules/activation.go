package rules

import (
	"strings"

	"github.com/jingkaihe/rulesync/pkg/canonical"
)

// Mode is how a modal tool decides when to load a rule.
type Mode string

// Activation modes
const (
	ModeAlways Mode = "always"
	ModeManual Mode = "manual"
	ModeModel  Mode = "model"
	ModeGlob   Mode = "glob"
)

// modeKeywords are matched case-insensitively against a rule's description
// and then its body. Entries are checked in order; the first hit wins.
var modeKeywords = []struct {
	mode  Mode
	words []string
}{
	{
		mode: ModeAlways,
		words: []string{
			"always apply",
			"always_apply",
			"always-apply",
			"alwaysapply",
			"always on",
			"always_on",
			"apply to every file",
			"apply to all files",
		},
	},
	{
		mode: ModeManual,
		words: []string{
			"manual",
			"manually",
			"on demand",
			"on-demand",
			"only when mentioned",
			"only when referenced",
			"@mention",
		},
	},
	{
		mode: ModeModel,
		words: []string{
			"model decision",
			"model_decision",
			"model-decision",
			"agent requested",
			"agent_requested",
			"agent-requested",
			"when relevant",
			"if relevant",
		},
	},
}

func detectMode(text string) (Mode, bool) {
	lower := strings.ToLower(text)
	if strings.TrimSpace(lower) == "" {
		return "", false
	}
	for _, entry := range modeKeywords {
		for _, w := range entry.words {
			if strings.Contains(lower, w) {
				return entry.mode, true
			}
		}
	}
	return "", false
}

// InferMode picks the activation mode of a rule. explicit is the mode taken
// from the tool's own section of the frontmatter, empty when absent. The
// order is: explicit mode, root flag, description keywords, body keywords,
// then a default from the rule's shape.
func InferMode(r *canonical.Rule, explicit Mode) Mode {
	if explicit != "" {
		return explicit
	}
	if r.Frontmatter.Root {
		return ModeAlways
	}
	if m, ok := detectMode(r.Frontmatter.Description); ok {
		return m
	}
	if m, ok := detectMode(r.Body); ok {
		return m
	}
	switch {
	case len(r.Frontmatter.Globs) > 0:
		return ModeGlob
	case strings.TrimSpace(r.Frontmatter.Description) != "":
		return ModeModel
	default:
		return ModeAlways
	}
}

func joinGlobs(globs []string, sep string) string {
	var parts []string
	for _, g := range globs {
		if g = strings.TrimSpace(g); g != "" {
			parts = append(parts, g)
		}
	}
	return strings.Join(parts, sep)
}

func splitGlobs(s, sep string) []string {
	var out []string
	add := func(part string) {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}

	// separators inside {} or [] belong to the glob
	depth, start := 0, 0
	for i := 0; i < len(s); i++ {
		switch {
		case s[i] == '{' || s[i] == '[':
			depth++
		case (s[i] == '}' || s[i] == ']') && depth > 0:
			depth--
		case depth == 0 && strings.HasPrefix(s[i:], sep):
			add(s[start:i])
			start = i + len(sep)
			i += len(sep) - 1
		}
	}
	add(s[start:])
	return out
}
