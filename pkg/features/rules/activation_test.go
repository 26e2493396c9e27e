package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jingkaihe/rulesync/pkg/canonical"
)

func TestInferMode(t *testing.T) {
	tests := []struct {
		name     string
		fm       canonical.RuleFrontmatter
		body     string
		explicit Mode
		want     Mode
	}{
		{
			name:     "explicit mode wins over everything",
			fm:       canonical.RuleFrontmatter{Root: true, Description: "always apply"},
			explicit: ModeManual,
			want:     ModeManual,
		},
		{
			name: "root flag wins over keywords",
			fm:   canonical.RuleFrontmatter{Root: true, Description: "only when mentioned"},
			want: ModeAlways,
		},
		{
			name: "description keyword wins over body keyword",
			fm:   canonical.RuleFrontmatter{Description: "Use on demand"},
			body: "always apply this",
			want: ModeManual,
		},
		{
			name: "body keyword used when description has none",
			fm:   canonical.RuleFrontmatter{Description: "Testing conventions"},
			body: "Load this when relevant to the task.",
			want: ModeModel,
		},
		{
			name: "always beats manual within one text",
			fm:   canonical.RuleFrontmatter{Description: "always apply, even when invoked manually"},
			want: ModeAlways,
		},
		{
			name: "globs default to glob mode",
			fm:   canonical.RuleFrontmatter{Description: "TS style", Globs: []string{"**/*.ts"}},
			want: ModeGlob,
		},
		{
			name: "description defaults to model mode",
			fm:   canonical.RuleFrontmatter{Description: "Database access patterns"},
			want: ModeModel,
		},
		{
			name: "nothing defaults to always",
			want: ModeAlways,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &canonical.Rule{Frontmatter: tt.fm}
			r.Body = tt.body
			assert.Equal(t, tt.want, InferMode(r, tt.explicit))
		})
	}
}

func TestGlobJoining(t *testing.T) {
	globs := []string{"**/*.ts", " **/*.tsx ", ""}
	assert.Equal(t, "**/*.ts,**/*.tsx", joinGlobs(globs, ","))
	assert.Equal(t, "**/*.ts|**/*.tsx", joinGlobs(globs, "|"))
	assert.Equal(t, []string{"**/*.ts", "**/*.tsx"}, splitGlobs("**/*.ts, **/*.tsx,", ","))
	assert.Nil(t, splitGlobs("", "|"))
}

func TestSplitGlobsKeepsBraceAndClassSeparators(t *testing.T) {
	tests := []struct {
		name  string
		input string
		sep   string
		want  []string
	}{
		{"brace alternatives", "**/*.{ts,tsx}", ",", []string{"**/*.{ts,tsx}"}},
		{"brace then plain", "src/**/*.{js,jsx}, **/*.md", ",", []string{"src/**/*.{js,jsx}", "**/*.md"}},
		{"character class", "**/[a,b]*.go,docs/*", ",", []string{"**/[a,b]*.go", "docs/*"}},
		{"pipe outside braces", "**/*.{ts,tsx}|**/*.css", "|", []string{"**/*.{ts,tsx}", "**/*.css"}},
		{"unbalanced closer", "a},b", ",", []string{"a}", "b"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, splitGlobs(tt.input, tt.sep))
		})
	}
}
