package canonical

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/pkg/errors"

	"github.com/jingkaihe/rulesync/pkg/formats"
	"github.com/jingkaihe/rulesync/pkg/schema"
	"github.com/jingkaihe/rulesync/pkg/types/targets"
)

// McpServer describes one MCP server. Keys rulesync does not know about are
// kept in Extra and written back unchanged.
type McpServer struct {
	Type    string            `yaml:"type,omitempty" json:"type,omitempty" jsonschema:"enum=stdio,enum=sse,enum=http,enum=streamable-http"`
	Command string            `yaml:"command,omitempty" json:"command,omitempty"`
	Args    []string          `yaml:"args,omitempty" json:"args,omitempty"`
	Env     map[string]string `yaml:"env,omitempty" json:"env,omitempty"`
	URL     string            `yaml:"url,omitempty" json:"url,omitempty"`
	Headers map[string]string `yaml:"headers,omitempty" json:"headers,omitempty"`
	Targets targets.Targets   `yaml:"targets,omitempty" json:"targets,omitempty"`
	Extra   map[string]any    `yaml:"-" json:"-"`
}

type mcpServerAlias McpServer

var knownServerKeys = map[string]bool{
	"type": true, "command": true, "args": true, "env": true,
	"url": true, "headers": true, "targets": true,
}

// UnmarshalJSON decodes the known fields and keeps the rest in Extra.
func (s *McpServer) UnmarshalJSON(data []byte) error {
	var alias mcpServerAlias
	if err := json.Unmarshal(data, &alias); err != nil {
		return err
	}
	var all map[string]any
	if err := json.Unmarshal(data, &all); err != nil {
		return err
	}
	for k, v := range all {
		if knownServerKeys[k] {
			continue
		}
		if alias.Extra == nil {
			alias.Extra = map[string]any{}
		}
		alias.Extra[k] = v
	}
	*s = McpServer(alias)
	return nil
}

// MarshalJSON writes the known fields followed by Extra. Known fields win
// when a key appears in both.
func (s McpServer) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Fields())
}

// Fields returns the server as a plain map, Extra included.
func (s McpServer) Fields() map[string]any {
	out := make(map[string]any, len(s.Extra)+4)
	for k, v := range s.Extra {
		out[k] = v
	}
	if s.Type != "" {
		out["type"] = s.Type
	}
	if s.Command != "" {
		out["command"] = s.Command
	}
	if len(s.Args) > 0 {
		out["args"] = s.Args
	}
	if len(s.Env) > 0 {
		out["env"] = s.Env
	}
	if s.URL != "" {
		out["url"] = s.URL
	}
	if len(s.Headers) > 0 {
		out["headers"] = s.Headers
	}
	if len(s.Targets) > 0 {
		out["targets"] = s.Targets
	}
	return out
}

// Remote reports whether the server is reached over the network rather than
// spawned as a local process.
func (s McpServer) Remote() bool {
	return s.Command == "" && s.URL != ""
}

type mcpDocument struct {
	McpServers map[string]McpServer `yaml:"mcpServers" json:"mcpServers"`
}

var mcpValidator = schema.NewValidator("mcp", &mcpDocument{})

// Mcp is the single shared MCP descriptor, .rulesync/.mcp.json.
type Mcp struct {
	File
	Servers map[string]McpServer
}

// NewMcp builds the MCP unit and validates it unless told otherwise.
func NewMcp(baseDir string, servers map[string]McpServer, opts ...Option) (*Mcp, error) {
	if servers == nil {
		servers = map[string]McpServer{}
	}
	raw, err := formats.StringifyJSON(mcpDocument{McpServers: servers})
	if err != nil {
		return nil, errors.Wrap(err, "failed to render mcp servers")
	}
	m := &Mcp{
		File: File{
			BaseDir:          baseDir,
			RelativeDirPath:  DirName,
			RelativeFilePath: McpFileName,
			RawContent:       raw,
			Body:             raw,
		},
		Servers: servers,
	}
	if !applyOptions(opts).skipValidation {
		if err := m.Validate(); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// ParseMcp parses .rulesync/.mcp.json. Malformed JSON is a *formats.ParseError.
func ParseMcp(baseDir, raw string, opts ...Option) (*Mcp, error) {
	loc := File{BaseDir: baseDir, RelativeDirPath: DirName, RelativeFilePath: McpFileName}
	fields, err := formats.ParseJSONObject(raw)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to parse %s", loc.Path())
	}
	if !applyOptions(opts).skipValidation {
		if err := mcpValidator.Validate(loc.Path(), fields); err != nil {
			return nil, err
		}
	}

	var doc mcpDocument
	if len(fields) > 0 {
		if err := json.Unmarshal([]byte(raw), &doc); err != nil {
			return nil, errors.Wrapf(&formats.ParseError{Format: "json", Err: err}, "failed to decode %s", loc.Path())
		}
	}
	return NewMcp(baseDir, doc.McpServers, opts...)
}

// Location returns the descriptor's file information.
func (m *Mcp) Location() *File { return &m.File }

// Targets returns the wildcard; filtering happens per server.
func (m *Mcp) Targets() targets.Targets { return targets.Targets{targets.Wildcard} }

// Names returns the server names in sorted order.
func (m *Mcp) Names() []string {
	names := make([]string, 0, len(m.Servers))
	for name := range m.Servers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ServersFor returns the servers whose own targets include the tool. The
// targets field is stripped from the returned copies.
func (m *Mcp) ServersFor(tool targets.ToolID) map[string]McpServer {
	out := map[string]McpServer{}
	for name, s := range m.Servers {
		if !s.Targets.Includes(tool) {
			continue
		}
		s.Targets = nil
		out[name] = s
	}
	return out
}

// Validate checks that every server can be started or reached.
func (m *Mcp) Validate() error {
	var problems []string
	for _, name := range m.Names() {
		s := m.Servers[name]
		if s.Command == "" && s.URL == "" {
			problems = append(problems, fmt.Sprintf("server %s needs a command or a url", name))
		}
		for _, p := range validateTargets(s.Targets) {
			problems = append(problems, fmt.Sprintf("server %s: %s", name, p))
		}
	}
	if len(problems) > 0 {
		return schema.Invalid("mcp", m.Path(), problems...)
	}
	return nil
}
