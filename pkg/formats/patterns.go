package formats

import "strings"

// ParsePatterns splits a gitignore-style document into lines. Comments,
// negations and blank separators are kept verbatim and in order; trailing
// blank lines and carriage returns are dropped.
func ParsePatterns(raw string) []string {
	lines := strings.Split(strings.ReplaceAll(raw, "\r\n", "\n"), "\n")
	for len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

// StringifyPatterns renders pattern lines as a newline-terminated document.
func StringifyPatterns(lines []string) string {
	if len(lines) == 0 {
		return ""
	}
	return strings.Join(lines, "\n") + "\n"
}

// IsPatternLine reports whether a line is an actual pattern rather than a
// comment or blank separator.
func IsPatternLine(line string) bool {
	trimmed := strings.TrimSpace(line)
	return trimmed != "" && !strings.HasPrefix(trimmed, "#")
}
