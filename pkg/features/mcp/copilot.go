package mcp

import (
	"path"

	"github.com/jingkaihe/rulesync/pkg/canonical"
	"github.com/jingkaihe/rulesync/pkg/formats"
	"github.com/jingkaihe/rulesync/pkg/sync"
)

const (
	vscodeServersKey = "servers"
	copilotCLIDir    = ".copilot"
	copilotCLIFile   = "mcp-config.json"
)

// copilotAdapter writes .vscode/mcp.json for the editor and
// .copilot/mcp-config.json for the Copilot CLI. Only the editor file is
// imported.
type copilotAdapter struct {
	sync.Layout
}

func (a *copilotAdapter) Parse(raw string) (formats.Document, error) {
	return parseJSON(raw)
}

// VS Code requires an explicit transport type.
func encodeVSCode(s canonical.McpServer) map[string]any {
	out := s.Fields()
	if s.Type == "" {
		out["type"] = "stdio"
		if s.Remote() {
			out["type"] = "http"
		}
	}
	return out
}

func encodeCopilotCLI(s canonical.McpServer) map[string]any {
	out := s.Fields()
	switch {
	case !s.Remote():
		out["type"] = "local"
	case s.Type == "":
		out["type"] = "http"
	}
	if _, ok := out["tools"]; !ok {
		out["tools"] = []string{"*"}
	}
	return out
}

func (a *copilotAdapter) OutputPaths(baseDir string) []string {
	return []string{path.Join(baseDir, copilotCLIDir, copilotCLIFile)}
}

func (a *copilotAdapter) FromCanonical(baseDir string, m *canonical.Mcp) ([]*sync.ToolFile, error) {
	editor, err := a.Place(baseDir, "", true)
	if err != nil {
		return nil, err
	}
	cli := &sync.ToolFile{
		Tool:             a.ID,
		BaseDir:          baseDir,
		RelativeDirPath:  copilotCLIDir,
		RelativeFilePath: copilotCLIFile,
	}

	for _, out := range []struct {
		f      *sync.ToolFile
		key    string
		encode func(canonical.McpServer) map[string]any
	}{
		{editor, vscodeServersKey, encodeVSCode},
		{cli, mcpServersKey, encodeCopilotCLI},
	} {
		doc := map[string]any{out.key: encodeServers(m, a.ID, out.encode)}
		if out.f.RawContent, err = formats.StringifyJSON(doc); err != nil {
			return nil, err
		}
		out.f.Body = out.f.RawContent
		if out.f.Frontmatter, err = formats.ParseJSONObject(out.f.RawContent); err != nil {
			return nil, err
		}
	}
	return []*sync.ToolFile{editor, cli}, nil
}

func (a *copilotAdapter) ToCanonical(f *sync.ToolFile) (sync.Result[*canonical.Mcp], error) {
	if !a.Paths.IsRoot(f) {
		return sync.Unsupported[*canonical.Mcp]("only .vscode/mcp.json is imported"), nil
	}
	servers, err := decodeServers(f.RawContent, vscodeServersKey)
	if err != nil {
		return sync.Result[*canonical.Mcp]{}, err
	}
	return imported(f, servers)
}

func (a *copilotAdapter) Validate(f *sync.ToolFile) error {
	if a.Paths.IsRoot(f) {
		return validateServers(a.ID, f, vscodeServersKey, "command", "url")
	}
	return validateServers(a.ID, f, mcpServersKey, "command", "url")
}
