package sync

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/rogpeppe/go-internal/lockedfile"

	"github.com/jingkaihe/rulesync/pkg/canonical"
)

// LockFileName is the lock file kept inside the canonical directory.
const LockFileName = ".lock"

// LockCanonicalDir takes an exclusive lock on baseDir's canonical directory
// for the duration of one run. A second process blocks until unlock is
// called. Without a canonical directory there is nothing to guard and the
// returned unlock is a no-op.
func LockCanonicalDir(baseDir string) (unlock func(), err error) {
	dir := filepath.Join(baseDir, canonical.DirName)
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		return func() {}, nil
	}
	mu := lockedfile.MutexAt(filepath.Join(dir, LockFileName))
	unlock, err = mu.Lock()
	if err != nil {
		return nil, errors.Wrapf(err, "failed to lock %s", dir)
	}
	return unlock, nil
}
