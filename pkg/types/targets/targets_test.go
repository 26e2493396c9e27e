package targets

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseToolID(t *testing.T) {
	id, ok := ParseToolID("claudecode")
	require.True(t, ok)
	assert.Equal(t, ClaudeCode, id)

	for _, input := range []string{"", "*", "claude", "CURSOR"} {
		t.Run(input, func(t *testing.T) {
			id, ok := ParseToolID(input)
			assert.False(t, ok)
			assert.Empty(t, id)
		})
	}
}

func TestAllToolsCount(t *testing.T) {
	assert.Len(t, AllTools(), 17)
}

func TestTargetsIncludes(t *testing.T) {
	assert.True(t, Targets{Wildcard}.Includes(Cursor))
	assert.True(t, Targets{Cursor, ClaudeCode}.Includes(ClaudeCode))
	assert.False(t, Targets{Cursor}.Includes(ClaudeCode))
	assert.True(t, Targets(nil).Includes(Roo))
}

func TestParseTargets(t *testing.T) {
	t.Run("comma separated", func(t *testing.T) {
		ts, err := ParseTargets([]string{"cursor,claudecode", "cursor"}, false)
		require.NoError(t, err)
		assert.Equal(t, Targets{Cursor, ClaudeCode}, ts)
	})

	t.Run("wildcard kept", func(t *testing.T) {
		ts, err := ParseTargets([]string{"*"}, false)
		require.NoError(t, err)
		assert.Equal(t, Targets{Wildcard}, ts)
	})

	t.Run("wildcard expanded", func(t *testing.T) {
		ts, err := ParseTargets([]string{"cursor", "*"}, true)
		require.NoError(t, err)
		assert.Len(t, ts, len(AllTools()))
	})

	t.Run("unknown tool", func(t *testing.T) {
		_, err := ParseTargets([]string{"vim"}, true)
		assert.ErrorContains(t, err, `unknown tool "vim"`)
	})
}

func TestParseFeatures(t *testing.T) {
	fs, err := ParseFeatures([]string{"commands", "rules", "mcp-servers"})
	require.NoError(t, err)
	assert.Equal(t, []Feature{Rules, MCPServers, Commands}, fs)

	fs, err = ParseFeatures([]string{"*"})
	require.NoError(t, err)
	assert.Equal(t, AllFeatures(), fs)

	_, err = ParseFeatures([]string{"skills"})
	assert.Error(t, err)
}
