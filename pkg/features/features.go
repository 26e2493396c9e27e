// Package features registers the processor of every feature rulesync syncs.
package features

import (
	"sort"

	"github.com/jingkaihe/rulesync/pkg/features/commands"
	"github.com/jingkaihe/rulesync/pkg/features/ignore"
	"github.com/jingkaihe/rulesync/pkg/features/mcp"
	"github.com/jingkaihe/rulesync/pkg/features/rules"
	"github.com/jingkaihe/rulesync/pkg/features/subagents"
	"github.com/jingkaihe/rulesync/pkg/fsutil"
	"github.com/jingkaihe/rulesync/pkg/sync"
)

// Options toggles the simulated outputs for tools without native support.
type Options struct {
	SimulateCommands  bool
	SimulateSubagents bool
}

// All returns every feature in generation order.
func All(fs fsutil.FS, opts Options) []sync.Feature {
	return []sync.Feature{
		rules.NewProcessor(fs),
		ignore.NewProcessor(fs),
		mcp.NewProcessor(fs),
		commands.NewProcessor(fs, opts.SimulateCommands),
		subagents.NewProcessor(fs, opts.SimulateSubagents),
	}
}

// OutputLocations returns every location any tool's generated files live in,
// sorted and without duplicates.
func OutputLocations() []string {
	var all []string
	all = append(all, sync.OutputLocations(rules.Adapters())...)
	all = append(all, sync.OutputLocations(ignore.Adapters())...)
	all = append(all, sync.OutputLocations(mcp.Adapters())...)
	all = append(all, sync.OutputLocations(commands.Adapters())...)
	all = append(all, sync.OutputLocations(subagents.Adapters())...)

	seen := make(map[string]bool, len(all))
	out := make([]string, 0, len(all))
	for _, p := range all {
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}
	sort.Strings(out)
	return out
}
