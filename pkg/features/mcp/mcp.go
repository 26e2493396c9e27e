// Package mcp converts the shared MCP server descriptor to each tool's MCP
// configuration.
package mcp

import (
	"context"
	"encoding/json"
	"path"

	"github.com/pkg/errors"

	"github.com/jingkaihe/rulesync/pkg/canonical"
	"github.com/jingkaihe/rulesync/pkg/formats"
	"github.com/jingkaihe/rulesync/pkg/fsutil"
	"github.com/jingkaihe/rulesync/pkg/schema"
	"github.com/jingkaihe/rulesync/pkg/sync"
	"github.com/jingkaihe/rulesync/pkg/types/targets"
)

// Processor is the MCP feature processor.
type Processor = sync.Processor[*canonical.Mcp]

// Adapter converts the MCP descriptor for one tool.
type Adapter = sync.Adapter[*canonical.Mcp]

const mcpServersKey = "mcpServers"

// Adapters returns one adapter per tool with project-level MCP configuration.
func Adapters() []Adapter {
	return []Adapter{
		jsonFile(targets.AmazonQCLI, ".amazonq", "mcp.json", standardCodec),
		jsonFile(targets.ClaudeCode, "", ".mcp.json", standardCodec),
		jsonFile(targets.Cline, ".cline", "mcp.json", standardCodec),
		&codexAdapter{Layout: rootFile(targets.CodexCLI, ".codex", "config.toml")},
		&copilotAdapter{Layout: rootFile(targets.Copilot, ".vscode", "mcp.json")},
		jsonFile(targets.Cursor, ".cursor", "mcp.json", standardCodec),
		sharedJSONFile(targets.GeminiCLI, ".gemini", "settings.json", geminiCodec),
		jsonFile(targets.Junie, ".junie/mcp", "mcp.json", standardCodec),
		jsonFile(targets.Kiro, ".kiro/settings", "mcp.json", standardCodec),
		&openCodeAdapter{Layout: rootFile(targets.OpenCode, "", "opencode.json")},
		sharedJSONFile(targets.QwenCode, ".qwen", "settings.json", geminiCodec),
		jsonFile(targets.Roo, ".roo", "mcp.json", standardCodec),
	}
}

// NewProcessor returns the MCP processor backed by fs.
func NewProcessor(fs fsutil.FS) *Processor {
	return sync.NewProcessor(sync.ProcessorConfig[*canonical.Mcp]{
		Feature:  targets.MCPServers,
		FS:       fs,
		Load:     Load,
		Adapters: Adapters(),
	})
}

// Load reads .rulesync/.mcp.json. A missing descriptor yields no units; a
// malformed one is an error.
func Load(_ context.Context, fs fsutil.FS, baseDir string) ([]*canonical.Mcp, error) {
	p := path.Join(baseDir, canonical.DirName, canonical.McpFileName)
	if !fs.Exists(p) {
		return nil, nil
	}
	raw, err := fs.ReadFile(p)
	if err != nil {
		return nil, err
	}
	m, err := canonical.ParseMcp(baseDir, raw)
	if err != nil {
		return nil, err
	}
	return []*canonical.Mcp{m}, nil
}

func rootFile(tool targets.ToolID, dir, file string) sync.Layout {
	return sync.Layout{
		ID:    tool,
		Paths: sync.SettablePaths{Root: &sync.RootPath{RelativeDirPath: dir, RelativeFilePath: file}},
	}
}

func parseJSON(raw string) (formats.Document, error) {
	fm, err := formats.ParseJSONObject(raw)
	if err != nil {
		return formats.Document{}, err
	}
	return formats.Document{Frontmatter: fm, Body: raw}, nil
}

func imported(f *sync.ToolFile, servers map[string]canonical.McpServer) (sync.Result[*canonical.Mcp], error) {
	if len(servers) == 0 {
		return sync.Unsupported[*canonical.Mcp]("no mcp servers configured"), nil
	}
	m, err := canonical.NewMcp(f.BaseDir, servers)
	if err != nil {
		return sync.Result[*canonical.Mcp]{}, err
	}
	return sync.Supported(m), nil
}

// decodeServers reads the server map stored under key in a JSON document.
// Keys rulesync does not model end up in each server's Extra.
func decodeServers(raw, key string) (map[string]canonical.McpServer, error) {
	obj, ok := formats.LookupJSON(raw, key)
	if !ok {
		return nil, nil
	}
	var servers map[string]canonical.McpServer
	if err := json.Unmarshal([]byte(obj), &servers); err != nil {
		return nil, &formats.ParseError{Format: "json", Err: errors.Wrapf(err, "failed to decode %s", key)}
	}
	return servers, nil
}

// validateServers checks that every server under key can be launched or
// reached.
func validateServers(tool targets.ToolID, f *sync.ToolFile, key string, reachable ...string) error {
	servers, _ := f.Frontmatter[key].(map[string]any)
	var problems []string
	for name, v := range servers {
		server, ok := v.(map[string]any)
		if !ok {
			problems = append(problems, "server "+name+" must be an object")
			continue
		}
		found := false
		for _, k := range reachable {
			if _, ok := server[k]; ok {
				found = true
				break
			}
		}
		if !found {
			problems = append(problems, "server "+name+" needs a command or a url")
		}
	}
	if len(problems) > 0 {
		return schema.Invalid(string(tool), f.Path(), problems...)
	}
	return nil
}

// codec maps one server between the canonical shape and a tool's shape.
type codec struct {
	encode func(canonical.McpServer) map[string]any
	decode func(canonical.McpServer) canonical.McpServer
}

var standardCodec = codec{
	encode: canonical.McpServer.Fields,
	decode: func(s canonical.McpServer) canonical.McpServer { return s },
}

// Gemini CLI and Qwen Code infer the transport: url is SSE and httpUrl is
// streamable HTTP. They have no type key.
var geminiCodec = codec{
	encode: func(s canonical.McpServer) map[string]any {
		out := s.Fields()
		delete(out, "type")
		if s.Remote() && (s.Type == "http" || s.Type == "streamable-http") {
			delete(out, "url")
			out["httpUrl"] = s.URL
		}
		return out
	},
	decode: func(s canonical.McpServer) canonical.McpServer {
		if u, ok := s.Extra["httpUrl"].(string); ok && s.URL == "" {
			s.URL = u
			s.Type = "http"
			delete(s.Extra, "httpUrl")
		}
		return s
	},
}

func encodeServers(m *canonical.Mcp, tool targets.ToolID, encode func(canonical.McpServer) map[string]any) map[string]any {
	out := map[string]any{}
	for name, s := range m.ServersFor(tool) {
		out[name] = encode(s)
	}
	return out
}

// jsonAdapter owns a JSON file holding only the server map.
type jsonAdapter struct {
	sync.Layout
	codec codec
}

func jsonFile(tool targets.ToolID, dir, file string, c codec) *jsonAdapter {
	return &jsonAdapter{Layout: rootFile(tool, dir, file), codec: c}
}

func (a *jsonAdapter) Parse(raw string) (formats.Document, error) {
	return parseJSON(raw)
}

func (a *jsonAdapter) FromCanonical(baseDir string, m *canonical.Mcp) ([]*sync.ToolFile, error) {
	f, err := a.Place(baseDir, "", true)
	if err != nil {
		return nil, err
	}
	doc := map[string]any{mcpServersKey: encodeServers(m, a.ID, a.codec.encode)}
	if f.RawContent, err = formats.StringifyJSON(doc); err != nil {
		return nil, err
	}
	f.Body = f.RawContent
	f.Frontmatter, err = formats.ParseJSONObject(f.RawContent)
	return []*sync.ToolFile{f}, err
}

func (a *jsonAdapter) ToCanonical(f *sync.ToolFile) (sync.Result[*canonical.Mcp], error) {
	servers, err := decodeServers(f.RawContent, mcpServersKey)
	if err != nil {
		return sync.Result[*canonical.Mcp]{}, err
	}
	for name, s := range servers {
		servers[name] = a.codec.decode(s)
	}
	return imported(f, servers)
}

func (a *jsonAdapter) Validate(f *sync.ToolFile) error {
	return validateServers(a.ID, f, mcpServersKey, "command", "url", "httpUrl")
}

// sharedJSONAdapter writes the server map into a settings file that also
// holds unrelated configuration.
type sharedJSONAdapter struct {
	jsonAdapter
}

func sharedJSONFile(tool targets.ToolID, dir, file string, c codec) *sharedJSONAdapter {
	return &sharedJSONAdapter{jsonAdapter: *jsonFile(tool, dir, file, c)}
}

// MergeExisting replaces the server map and keeps every other setting.
func (a *sharedJSONAdapter) MergeExisting(existing string, f *sync.ToolFile) (string, error) {
	return formats.MergeJSON(existing, mcpServersKey, f.Frontmatter[mcpServersKey])
}
