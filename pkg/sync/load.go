package sync

import (
	"context"
	"path"

	"github.com/hashicorp/go-multierror"

	"github.com/jingkaihe/rulesync/pkg/canonical"
	"github.com/jingkaihe/rulesync/pkg/fsutil"
	"github.com/jingkaihe/rulesync/pkg/logger"
)

// ParseFunc builds a canonical unit from a file relative to its kind's
// directory.
type ParseFunc[C canonical.Unit] func(baseDir, relativeFilePath, raw string, opts ...canonical.Option) (C, error)

// LoadDir returns a Loader that parses every file with the given extension in
// dir, which is relative to the base directory. Files that fail to parse are
// reported and skipped.
func LoadDir[C canonical.Unit](dir, ext string, parse ParseFunc[C]) Loader[C] {
	return func(ctx context.Context, fs fsutil.FS, baseDir string) ([]C, error) {
		full := path.Join(baseDir, dir)
		names, err := fs.ListFiles(full, ext)
		if err != nil {
			return nil, err
		}

		var (
			units []C
			errs  *multierror.Error
		)
		for _, name := range names {
			raw, err := fs.ReadFile(path.Join(full, name))
			if err != nil {
				errs = multierror.Append(errs, err)
				continue
			}
			unit, err := parse(baseDir, name, raw)
			if err != nil {
				logger.G(ctx).WithError(err).WithField("path", path.Join(full, name)).Warn("skipping invalid file")
				errs = multierror.Append(errs, err)
				continue
			}
			units = append(units, unit)
		}
		return units, errs.ErrorOrNil()
	}
}
