// Package mcpserver exposes the canonical directory over the Model Context
// Protocol so an agent can read the project rules and trigger a generate run.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"path"
	"sort"

	"github.com/gobwas/glob"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/pkg/errors"

	"github.com/jingkaihe/rulesync/pkg/canonical"
	"github.com/jingkaihe/rulesync/pkg/features"
	"github.com/jingkaihe/rulesync/pkg/features/commands"
	"github.com/jingkaihe/rulesync/pkg/features/rules"
	"github.com/jingkaihe/rulesync/pkg/fsutil"
	"github.com/jingkaihe/rulesync/pkg/logger"
	"github.com/jingkaihe/rulesync/pkg/sync"
	"github.com/jingkaihe/rulesync/pkg/types/targets"
	"github.com/jingkaihe/rulesync/pkg/version"
)

// Config configures the server.
type Config struct {
	FS       fsutil.FS
	BaseDir  string
	Features features.Options
	// Lock guards the canonical directory during generate. Nil disables
	// locking.
	Lock func(baseDir string) (func(), error)
}

// Server serves rulesync tools over MCP.
type Server struct {
	cfg Config
	mcp *server.MCPServer
}

// RuleInfo describes one canonical rule.
type RuleInfo struct {
	Path        string   `json:"path"`
	Root        bool     `json:"root"`
	Description string   `json:"description,omitempty"`
	Globs       []string `json:"globs,omitempty"`
	Targets     []string `json:"targets,omitempty"`
}

// CommandInfo describes one canonical command.
type CommandInfo struct {
	Name        string `json:"name"`
	Path        string `json:"path"`
	Description string `json:"description,omitempty"`
}

// GenerateReport is the result of the generate tool.
type GenerateReport struct {
	DryRun bool           `json:"dryRun"`
	Files  []string       `json:"files"`
	Counts map[string]int `json:"counts"`
	Errors string         `json:"errors,omitempty"`
}

// New creates the server and registers its tools.
func New(cfg Config) *Server {
	if cfg.BaseDir == "" {
		cfg.BaseDir = "."
	}
	s := &Server{cfg: cfg}
	s.mcp = server.NewMCPServer(
		"rulesync",
		version.Get().Version,
		server.WithToolCapabilities(true),
		server.WithRecovery(),
	)

	s.mcp.AddTool(mcp.NewTool("list_rules",
		mcp.WithDescription("List the canonical rules in .rulesync/rules with their activation metadata"),
		mcp.WithString("path",
			mcp.Description("Only list the root rules and the rules whose globs match this file path"),
		),
		mcp.WithReadOnlyHintAnnotation(true),
	), s.handleListRules)

	s.mcp.AddTool(mcp.NewTool("get_rule",
		mcp.WithDescription("Return the raw content of one canonical rule"),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Rule file name relative to .rulesync/rules, e.g. testing.md"),
		),
		mcp.WithReadOnlyHintAnnotation(true),
	), s.handleGetRule)

	s.mcp.AddTool(mcp.NewTool("list_commands",
		mcp.WithDescription("List the canonical slash commands in .rulesync/commands"),
		mcp.WithReadOnlyHintAnnotation(true),
	), s.handleListCommands)

	s.mcp.AddTool(mcp.NewTool("generate",
		mcp.WithDescription("Generate tool-specific files from the canonical directory"),
		mcp.WithString("targets",
			mcp.Required(),
			mcp.Description("Comma separated tool names, or * for every tool"),
		),
		mcp.WithString("features",
			mcp.Description("Comma separated features (rules, ignore, mcp, commands, subagents). Defaults to all"),
		),
		mcp.WithBoolean("delete",
			mcp.Description("Remove previously generated files first"),
		),
		mcp.WithBoolean("dry_run",
			mcp.Description("Report the files that would be written without touching the disk"),
		),
	), s.handleGenerate)

	return s
}

// MCPServer returns the underlying mcp-go server.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

// ServeStdio serves the tools over stdin/stdout until the input closes.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

func (s *Server) handleListRules(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	loaded, err := rules.NewProcessor(s.cfg.FS).LoadCanonical(ctx, s.cfg.BaseDir)
	if err != nil {
		logger.G(ctx).WithError(err).Warn("some rules failed to load")
	}
	filePath := request.GetString("path", "")

	out := make([]RuleInfo, 0, len(loaded))
	for _, r := range loaded {
		if filePath != "" && !r.Frontmatter.Root && !matchesAny(ctx, r.Frontmatter.Globs, filePath) {
			continue
		}
		out = append(out, RuleInfo{
			Path:        r.RelativeFilePath,
			Root:        r.Frontmatter.Root,
			Description: r.Frontmatter.Description,
			Globs:       r.Frontmatter.Globs,
			Targets:     r.Frontmatter.Targets.Strings(),
		})
	}
	return jsonResult(out)
}

func (s *Server) handleGetRule(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	clean := path.Clean("/" + name)[1:]
	if clean == "" || clean != name {
		return mcp.NewToolResultError("path must be a file name inside the rules directory"), nil
	}

	p := path.Join(s.cfg.BaseDir, canonical.RulesDir, clean)
	raw, err := s.cfg.FS.ReadFile(p)
	if err != nil {
		return mcp.NewToolResultError(errors.Wrapf(err, "failed to read rule %s", name).Error()), nil
	}
	return mcp.NewToolResultText(raw), nil
}

func (s *Server) handleListCommands(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	loaded, err := commands.NewProcessor(s.cfg.FS, false).LoadCanonical(ctx, s.cfg.BaseDir)
	if err != nil {
		logger.G(ctx).WithError(err).Warn("some commands failed to load")
	}

	out := make([]CommandInfo, 0, len(loaded))
	for _, c := range loaded {
		out = append(out, CommandInfo{
			Name:        c.Name(),
			Path:        c.RelativeFilePath,
			Description: c.Frontmatter.Description,
		})
	}
	return jsonResult(out)
}

func (s *Server) handleGenerate(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	rawTargets, err := request.RequireString("targets")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	tools, err := targets.ParseTargets([]string{rawTargets}, true)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	var feats []targets.Feature
	if raw := request.GetString("features", ""); raw != "" {
		if feats, err = targets.ParseFeatures([]string{raw}); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
	} else {
		feats = targets.AllFeatures()
	}
	dryRun := request.GetBool("dry_run", false)

	if s.cfg.Lock != nil && !dryRun {
		unlock, err := s.cfg.Lock(s.cfg.BaseDir)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		defer unlock()
	}

	fs := s.cfg.FS
	if dryRun {
		fs = fsutil.NewOverlay(fs)
	}
	res, err := sync.NewGenerator(fs, features.All(fs, s.cfg.Features)...).Generate(ctx, sync.GenerateOptions{
		Targets:  tools,
		Features: feats,
		BaseDirs: []string{s.cfg.BaseDir},
		Delete:   request.GetBool("delete", false),
	})
	if err != nil {
		if res != nil && res.Total() > 0 {
			return mcp.NewToolResultError(fmt.Sprintf("%s (%d files were written before the failure)", err, res.Total())), nil
		}
		return mcp.NewToolResultError(err.Error()), nil
	}

	report := GenerateReport{DryRun: dryRun, Files: []string{}, Counts: map[string]int{}}
	for _, o := range res.Outputs {
		report.Files = append(report.Files, o.Path)
	}
	sort.Strings(report.Files)
	for f, n := range res.Counts {
		report.Counts[string(f)] = n
	}
	if res.Err != nil {
		report.Errors = res.Err.Error()
	}
	return jsonResult(report)
}

// matchesAny reports whether p matches one of the globs. Invalid globs never
// match.
func matchesAny(ctx context.Context, globs []string, p string) bool {
	for _, pattern := range globs {
		g, err := glob.Compile(pattern, '/')
		if err != nil {
			logger.G(ctx).WithError(err).WithField("glob", pattern).Debug("skipping invalid glob")
			continue
		}
		if g.Match(p) {
			return true
		}
	}
	return false
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal result")
	}
	return mcp.NewToolResultText(string(b)), nil
}
