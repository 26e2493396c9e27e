package sync

import (
	"path"

	"github.com/jingkaihe/rulesync/pkg/canonical"
)

// OutputLocations lists every file and directory the adapters generate,
// relative to a base directory. Directories end in "/". Shared settings files
// are left out since they also hold configuration rulesync does not own.
func OutputLocations[C canonical.Unit](adapters []Adapter[C]) []string {
	var out []string
	for _, a := range adapters {
		if _, shared := a.(ExistingMerger); shared {
			continue
		}
		paths := a.SettablePaths()
		if paths.Root != nil && (paths.NonRoot == nil || paths.Root.RelativeDirPath != paths.NonRoot.RelativeDirPath) {
			out = append(out, path.Join(paths.Root.RelativeDirPath, paths.Root.RelativeFilePath))
		}
		if paths.NonRoot != nil {
			out = append(out, paths.NonRoot.RelativeDirPath+"/")
		}
		if l, ok := a.(OutputLocator); ok {
			out = append(out, l.OutputPaths(".")...)
		}
	}
	return out
}
