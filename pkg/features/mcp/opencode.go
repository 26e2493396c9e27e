package mcp

import (
	"github.com/jingkaihe/rulesync/pkg/canonical"
	"github.com/jingkaihe/rulesync/pkg/formats"
	"github.com/jingkaihe/rulesync/pkg/sync"
)

const openCodeServersKey = "mcp"

// openCodeAdapter writes the "mcp" block of opencode.json. Local servers take
// the command and its arguments as one array.
type openCodeAdapter struct {
	sync.Layout
}

func (a *openCodeAdapter) Parse(raw string) (formats.Document, error) {
	return parseJSON(raw)
}

func encodeOpenCode(s canonical.McpServer) map[string]any {
	out := make(map[string]any, len(s.Extra)+4)
	for k, v := range s.Extra {
		out[k] = v
	}
	out["enabled"] = true
	if s.Remote() {
		out["type"] = "remote"
		out["url"] = s.URL
		if len(s.Headers) > 0 {
			out["headers"] = s.Headers
		}
		return out
	}
	out["type"] = "local"
	out["command"] = append([]string{s.Command}, s.Args...)
	if len(s.Env) > 0 {
		out["environment"] = s.Env
	}
	return out
}

func decodeOpenCode(fields map[string]any) canonical.McpServer {
	var s canonical.McpServer
	for k, v := range fields {
		switch k {
		case "type", "enabled":
		case "command":
			if cmd := stringList(v); len(cmd) > 0 {
				s.Command, s.Args = cmd[0], cmd[1:]
				if len(s.Args) == 0 {
					s.Args = nil
				}
			}
		case "environment":
			s.Env = stringMap(v)
		case "url":
			s.URL, _ = v.(string)
		case "headers":
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

func (a *openCodeAdapter) FromCanonical(baseDir string, m *canonical.Mcp) ([]*sync.ToolFile, error) {
	f, err := a.Place(baseDir, "", true)
	if err != nil {
		return nil, err
	}
	doc := map[string]any{openCodeServersKey: encodeServers(m, a.ID, encodeOpenCode)}
	if f.RawContent, err = formats.StringifyJSON(doc); err != nil {
		return nil, err
	}
	f.Body = f.RawContent
	f.Frontmatter, err = formats.ParseJSONObject(f.RawContent)
	return []*sync.ToolFile{f}, err
}

// MergeExisting replaces the mcp block and keeps the rest of opencode.json.
func (a *openCodeAdapter) MergeExisting(existing string, f *sync.ToolFile) (string, error) {
	return formats.MergeJSON(existing, openCodeServersKey, f.Frontmatter[openCodeServersKey])
}

func (a *openCodeAdapter) ToCanonical(f *sync.ToolFile) (sync.Result[*canonical.Mcp], error) {
	block, _ := f.Frontmatter[openCodeServersKey].(map[string]any)
	servers := make(map[string]canonical.McpServer, len(block))
	for name, v := range block {
		if fields, ok := v.(map[string]any); ok {
			servers[name] = decodeOpenCode(fields)
		}
	}
	return imported(f, servers)
}

func (a *openCodeAdapter) Validate(f *sync.ToolFile) error {
	return validateServers(a.ID, f, openCodeServersKey, "command", "url")
}
