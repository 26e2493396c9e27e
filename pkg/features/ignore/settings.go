package ignore

import (
	"strings"

	"github.com/jingkaihe/rulesync/pkg/canonical"
	"github.com/jingkaihe/rulesync/pkg/formats"
	"github.com/jingkaihe/rulesync/pkg/schema"
	"github.com/jingkaihe/rulesync/pkg/sync"
)

const claudeDenyPath = "permissions.deny"

// claudeCodeAdapter turns patterns into Read(...) deny permissions in
// .claude/settings.json. Negations and comments have no equivalent and are
// dropped.
type claudeCodeAdapter struct {
	sync.Layout
}

func toReadPermission(pattern string) string {
	if strings.HasSuffix(pattern, "/") {
		pattern += "**"
	}
	return "Read(" + pattern + ")"
}

func fromReadPermission(entry string) (string, bool) {
	if !strings.HasPrefix(entry, "Read(") || !strings.HasSuffix(entry, ")") {
		return "", false
	}
	return strings.TrimSuffix(strings.TrimPrefix(entry, "Read("), ")"), true
}

func (a *claudeCodeAdapter) Parse(raw string) (formats.Document, error) {
	fm, err := formats.ParseJSONObject(raw)
	if err != nil {
		return formats.Document{}, err
	}
	return formats.Document{Frontmatter: fm, Body: raw}, nil
}

func (a *claudeCodeAdapter) FromCanonical(baseDir string, ig *canonical.Ignore) ([]*sync.ToolFile, error) {
	f, err := a.Place(baseDir, "", true)
	if err != nil {
		return nil, err
	}
	deny := []string{}
	for _, p := range ig.ActivePatterns() {
		if strings.HasPrefix(p, "!") {
			continue
		}
		deny = append(deny, toReadPermission(p))
	}
	out, err := settingsFile(f, claudeDenyPath, deny)
	if err != nil {
		return nil, err
	}
	return []*sync.ToolFile{out}, nil
}

// Merge unions the deny lists, keeping first-seen order.
func (a *claudeCodeAdapter) Merge(files []*sync.ToolFile) (*sync.ToolFile, error) {
	deny := []string{}
	for _, f := range files {
		deny = appendUnique(deny, formats.JSONStrings(f.RawContent, claudeDenyPath)...)
	}
	return settingsFile(files[0], claudeDenyPath, deny)
}

// MergeExisting adds the generated entries after the ones already in the
// settings file. Unrelated settings are untouched.
func (a *claudeCodeAdapter) MergeExisting(existing string, f *sync.ToolFile) (string, error) {
	deny := appendUnique(formats.JSONStrings(existing, claudeDenyPath), formats.JSONStrings(f.RawContent, claudeDenyPath)...)
	if deny == nil {
		deny = []string{}
	}
	return formats.MergeJSON(existing, claudeDenyPath, deny)
}

func (a *claudeCodeAdapter) ToCanonical(f *sync.ToolFile) (sync.Result[*canonical.Ignore], error) {
	var patterns []string
	for _, entry := range formats.JSONStrings(f.RawContent, claudeDenyPath) {
		if p, ok := fromReadPermission(entry); ok {
			patterns = append(patterns, p)
		}
	}
	if len(patterns) == 0 {
		return sync.Unsupported[*canonical.Ignore]("no Read deny permissions"), nil
	}
	return imported(f, patterns)
}

func (a *claudeCodeAdapter) Validate(f *sync.ToolFile) error {
	for _, entry := range formats.JSONStrings(f.RawContent, claudeDenyPath) {
		if p, ok := fromReadPermission(entry); !ok || p == "" {
			return schema.Invalid(string(a.ID), f.Path(), "malformed deny entry "+entry)
		}
	}
	return nil
}

// Qwen Code has no pattern list; it filters through its git-aware search
// settings instead.
var qwenFileFiltering = map[string]any{
	"respectGitIgnore":          true,
	"enableRecursiveFileSearch": true,
}

const qwenFilteringPath = "fileFiltering"

type qwenCodeAdapter struct {
	sync.Layout
}

func (a *qwenCodeAdapter) Parse(raw string) (formats.Document, error) {
	fm, err := formats.ParseJSONObject(raw)
	if err != nil {
		return formats.Document{}, err
	}
	return formats.Document{Frontmatter: fm, Body: raw}, nil
}

func (a *qwenCodeAdapter) FromCanonical(baseDir string, _ *canonical.Ignore) ([]*sync.ToolFile, error) {
	f, err := a.Place(baseDir, "", true)
	if err != nil {
		return nil, err
	}
	out, err := settingsFile(f, qwenFilteringPath, qwenFileFiltering)
	if err != nil {
		return nil, err
	}
	return []*sync.ToolFile{out}, nil
}

// Merge keeps one copy; the flags do not depend on the patterns.
func (a *qwenCodeAdapter) Merge(files []*sync.ToolFile) (*sync.ToolFile, error) {
	return files[0], nil
}

func (a *qwenCodeAdapter) MergeExisting(existing string, _ *sync.ToolFile) (string, error) {
	var err error
	for _, key := range []string{"respectGitIgnore", "enableRecursiveFileSearch"} {
		if existing, err = formats.MergeJSON(existing, qwenFilteringPath+"."+key, qwenFileFiltering[key]); err != nil {
			return "", err
		}
	}
	return existing, nil
}

func (a *qwenCodeAdapter) ToCanonical(*sync.ToolFile) (sync.Result[*canonical.Ignore], error) {
	return sync.Unsupported[*canonical.Ignore]("qwen code filtering settings carry no patterns"), nil
}

func (a *qwenCodeAdapter) Validate(f *sync.ToolFile) error {
	filtering, _ := f.Frontmatter[qwenFilteringPath].(map[string]any)
	for key, v := range filtering {
		if _, ok := v.(bool); !ok {
			return schema.Invalid(string(a.ID), f.Path(), qwenFilteringPath+"."+key+" must be a boolean")
		}
	}
	return nil
}

// settingsFile renders a settings object holding value at keyPath.
func settingsFile(f *sync.ToolFile, keyPath string, value any) (*sync.ToolFile, error) {
	raw, err := formats.MergeJSON("", keyPath, value)
	if err != nil {
		return nil, err
	}
	fm, err := formats.ParseJSONObject(raw)
	if err != nil {
		return nil, err
	}
	out := *f
	out.RawContent = raw
	out.Body = raw
	out.Frontmatter = fm
	return &out, nil
}

func appendUnique(list []string, items ...string) []string {
	seen := make(map[string]bool, len(list))
	for _, s := range list {
		seen[s] = true
	}
	for _, s := range items {
		if !seen[s] {
			seen[s] = true
			list = append(list, s)
		}
	}
	return list
}
