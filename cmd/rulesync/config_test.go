package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jingkaihe/rulesync/pkg/types/targets"
)

func resetViper(t *testing.T) {
	t.Helper()
	viper.Reset()
	t.Cleanup(viper.Reset)
}

func TestGetRunConfig(t *testing.T) {
	tests := []struct {
		name     string
		settings map[string]any
		expand   bool
		expected *RunConfig
	}{
		{
			name:     "features unset stays nil",
			settings: map[string]any{"targets": []string{"claudecode", "cursor"}},
			expected: &RunConfig{
				Targets:  []targets.ToolID{targets.ClaudeCode, targets.Cursor},
				BaseDirs: []string{"."},
			},
		},
		{
			name:     "empty features selects none",
			settings: map[string]any{"targets": []string{"cursor"}, "features": []string{}},
			expected: &RunConfig{
				Targets:  []targets.ToolID{targets.Cursor},
				Features: []targets.Feature{},
				BaseDirs: []string{"."},
			},
		},
		{
			name: "wildcard expands",
			settings: map[string]any{
				"targets":           []string{"*"},
				"features":          []string{"mcp", "rules"},
				"base_dirs":         []string{"a", "b"},
				"delete":            true,
				"simulate_commands": true,
			},
			expand: true,
			expected: &RunConfig{
				Targets:          targets.AllTools(),
				Features:         []targets.Feature{targets.Rules, targets.MCPServers},
				BaseDirs:         []string{"a", "b"},
				Delete:           true,
				SimulateCommands: true,
			},
		},
		{
			name:     "wildcard kept for import",
			settings: map[string]any{"targets": []string{"*"}},
			expected: &RunConfig{
				Targets:  []targets.ToolID{targets.Wildcard},
				BaseDirs: []string{"."},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resetViper(t)
			for k, v := range tt.settings {
				viper.Set(k, v)
			}

			config, err := getRunConfig(tt.expand)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, config)
		})
	}
}

func TestGetRunConfigRejectsUnknownNames(t *testing.T) {
	resetViper(t)
	viper.Set("targets", []string{"vim"})
	_, err := getRunConfig(true)
	assert.ErrorContains(t, err, "invalid targets")

	viper.Set("targets", []string{"cursor"})
	viper.Set("features", []string{"prompts"})
	_, err = getRunConfig(true)
	assert.ErrorContains(t, err, "invalid features")
}

func TestLoadConfigFile(t *testing.T) {
	resetViper(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte("targets: [copilot]\nfeatures: [rules]\ndelete: true\n"), 0o644))

	viper.Set("config", path)
	require.NoError(t, loadConfigFile())

	config, err := getRunConfig(true)
	require.NoError(t, err)
	assert.Equal(t, []targets.ToolID{targets.Copilot}, config.Targets)
	assert.Equal(t, []targets.Feature{targets.Rules}, config.Features)
	assert.True(t, config.Delete)

	resetViper(t)
	viper.Set("config", filepath.Join(dir, "missing.yaml"))
	assert.Error(t, loadConfigFile())
}
