package mcp

import (
	"fmt"
	"sort"

	"github.com/jingkaihe/rulesync/pkg/canonical"
	"github.com/jingkaihe/rulesync/pkg/formats"
	"github.com/jingkaihe/rulesync/pkg/schema"
	"github.com/jingkaihe/rulesync/pkg/sync"
)

const codexServersKey = "mcp_servers"

// codexAdapter writes [mcp_servers.<name>] tables into .codex/config.toml.
// Headers are called http_headers there.
type codexAdapter struct {
	sync.Layout
}

func (a *codexAdapter) Parse(raw string) (formats.Document, error) {
	doc, err := formats.ParseTOMLDocument(raw)
	if err != nil {
		return formats.Document{}, err
	}
	return formats.Document{Frontmatter: doc, Body: raw}, nil
}

func encodeCodex(s canonical.McpServer) map[string]any {
	out := s.Fields()
	delete(out, "type")
	if h, ok := out["headers"]; ok {
		delete(out, "headers")
		out["http_headers"] = h
	}
	return out
}

func (a *codexAdapter) FromCanonical(baseDir string, m *canonical.Mcp) ([]*sync.ToolFile, error) {
	f, err := a.Place(baseDir, "", true)
	if err != nil {
		return nil, err
	}
	f.Frontmatter = map[string]any{codexServersKey: encodeServers(m, a.ID, encodeCodex)}
	if f.RawContent, err = formats.StringifyTOMLDocument(f.Frontmatter); err != nil {
		return nil, err
	}
	f.Body = f.RawContent
	return []*sync.ToolFile{f}, nil
}

// MergeExisting replaces the mcp_servers table and keeps the rest of the
// configuration. Comments in the existing file are not preserved.
func (a *codexAdapter) MergeExisting(existing string, f *sync.ToolFile) (string, error) {
	doc, err := formats.ParseTOMLDocument(existing)
	if err != nil {
		return "", err
	}
	doc[codexServersKey] = f.Frontmatter[codexServersKey]
	return formats.StringifyTOMLDocument(doc)
}

func (a *codexAdapter) ToCanonical(f *sync.ToolFile) (sync.Result[*canonical.Mcp], error) {
	tables, _ := f.Frontmatter[codexServersKey].(map[string]any)
	servers := make(map[string]canonical.McpServer, len(tables))
	for name, v := range tables {
		table, ok := v.(map[string]any)
		if !ok {
			continue
		}
		servers[name] = decodeCodex(table)
	}
	return imported(f, servers)
}

func decodeCodex(table map[string]any) canonical.McpServer {
	var s canonical.McpServer
	for k, v := range table {
		switch k {
		case "command":
			s.Command, _ = v.(string)
		case "url":
			s.URL, _ = v.(string)
		case "args":
			s.Args = stringList(v)
		case "env":
			s.Env = stringMap(v)
		case "http_headers":
			s.Headers = stringMap(v)
		default:
			if s.Extra == nil {
				s.Extra = map[string]any{}
			}
			s.Extra[k] = v
		}
	}
	return s
}

func (a *codexAdapter) Validate(f *sync.ToolFile) error {
	tables, _ := f.Frontmatter[codexServersKey].(map[string]any)
	names := make([]string, 0, len(tables))
	for name := range tables {
		names = append(names, name)
	}
	sort.Strings(names)

	var problems []string
	for _, name := range names {
		table, ok := tables[name].(map[string]any)
		if !ok {
			problems = append(problems, fmt.Sprintf("%s.%s must be a table", codexServersKey, name))
			continue
		}
		if table["command"] == nil && table["url"] == nil {
			problems = append(problems, fmt.Sprintf("%s.%s needs a command or a url", codexServersKey, name))
		}
	}
	if len(problems) > 0 {
		return schema.Invalid(string(a.ID), f.Path(), problems...)
	}
	return nil
}

func stringList(v any) []string {
	switch list := v.(type) {
	case []string:
		return list
	case []any:
		out := make([]string, 0, len(list))
		for _, item := range list {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

func stringMap(v any) map[string]string {
	switch m := v.(type) {
	case map[string]string:
		return m
	case map[string]any:
		out := make(map[string]string, len(m))
		for k, item := range m {
			if s, ok := item.(string); ok {
				out[k] = s
			}
		}
		return out
	}
	return nil
}
