package sync

import (
	"context"
	"path"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"

	"github.com/jingkaihe/rulesync/pkg/canonical"
	"github.com/jingkaihe/rulesync/pkg/fsutil"
	"github.com/jingkaihe/rulesync/pkg/logger"
	"github.com/jingkaihe/rulesync/pkg/types/targets"
)

// Loader reads every canonical unit of one kind under baseDir. Per-unit
// failures are returned alongside the units that did load.
type Loader[C canonical.Unit] func(ctx context.Context, fs fsutil.FS, baseDir string) ([]C, error)

// ProcessorConfig wires a processor for one feature.
type ProcessorConfig[C canonical.Unit] struct {
	Feature  targets.Feature
	FS       fsutil.FS
	Load     Loader[C]
	Adapters []Adapter[C]
	// IncludeSimulated makes simulated adapters part of the allow-list.
	IncludeSimulated bool
}

// Processor drives load, convert and write for one feature.
type Processor[C canonical.Unit] struct {
	feature          targets.Feature
	fs               fsutil.FS
	load             Loader[C]
	adapters         map[targets.ToolID]Adapter[C]
	includeSimulated bool
}

// NewProcessor creates a processor from its configuration.
func NewProcessor[C canonical.Unit](cfg ProcessorConfig[C]) *Processor[C] {
	adapters := make(map[targets.ToolID]Adapter[C], len(cfg.Adapters))
	for _, a := range cfg.Adapters {
		adapters[a.Tool()] = a
	}
	return &Processor[C]{
		feature:          cfg.Feature,
		fs:               cfg.FS,
		load:             cfg.Load,
		adapters:         adapters,
		includeSimulated: cfg.IncludeSimulated,
	}
}

// Name returns the feature this processor handles.
func (p *Processor[C]) Name() targets.Feature {
	return p.feature
}

// SupportedTools returns the static allow-list in tool order.
func (p *Processor[C]) SupportedTools() []targets.ToolID {
	var out []targets.ToolID
	for _, tool := range targets.AllTools() {
		if p.supports(tool) {
			out = append(out, tool)
		}
	}
	return out
}

func (p *Processor[C]) supports(tool targets.ToolID) bool {
	a, ok := p.adapters[tool]
	if !ok {
		return false
	}
	return !a.Simulated() || p.includeSimulated
}

// Adapter returns the adapter for a supported tool.
func (p *Processor[C]) Adapter(tool targets.ToolID) (Adapter[C], error) {
	if !p.supports(tool) {
		return nil, &UnsupportedToolError{Feature: p.feature, Tool: tool}
	}
	return p.adapters[tool], nil
}

// LoadCanonical reads the canonical units under baseDir. A missing directory
// yields no units.
func (p *Processor[C]) LoadCanonical(ctx context.Context, baseDir string) ([]C, error) {
	units, err := p.load(ctx, p.fs, baseDir)
	logger.G(ctx).
		WithField("feature", p.feature).
		WithField("base_dir", baseDir).
		WithField("count", len(units)).
		Debug("loaded canonical units")
	return units, err
}

// LoadNative reads the tool's native files under baseDir: its root file and
// every file in its per-item directory.
func (p *Processor[C]) LoadNative(ctx context.Context, baseDir string, tool targets.ToolID) ([]*ToolFile, error) {
	a, err := p.Adapter(tool)
	if err != nil {
		return nil, err
	}
	sp := a.SettablePaths()

	var (
		files []*ToolFile
		errs  *multierror.Error
	)
	read := func(f *ToolFile) {
		raw, err := p.fs.ReadFile(f.Path())
		if err != nil {
			errs = multierror.Append(errs, err)
			return
		}
		doc, err := a.Parse(raw)
		if err != nil {
			errs = multierror.Append(errs, errors.Wrapf(err, "failed to parse %s", f.Path()))
			return
		}
		f.RawContent = raw
		f.Frontmatter = doc.Frontmatter
		f.Body = doc.Body
		files = append(files, f)
	}

	if sp.Root != nil {
		f := sp.RootFile(tool, baseDir)
		if p.fs.Exists(f.Path()) {
			read(f)
		}
	}
	if sp.NonRoot != nil {
		dir := path.Join(baseDir, sp.NonRoot.RelativeDirPath)
		names, err := p.fs.ListFiles(dir, sp.NonRoot.Extension)
		if err != nil {
			errs = multierror.Append(errs, err)
		}
		for _, name := range names {
			f := &ToolFile{
				Tool:             tool,
				BaseDir:          baseDir,
				RelativeDirPath:  sp.NonRoot.RelativeDirPath,
				RelativeFilePath: name,
			}
			if sp.IsRoot(f) {
				continue
			}
			read(f)
		}
	}

	logger.G(ctx).
		WithField("feature", p.feature).
		WithField("tool", tool).
		WithField("count", len(files)).
		Debug("loaded native files")
	return files, errs.ErrorOrNil()
}

// ToNative converts the units that target tool into its native files. Files
// sharing a path are merged when the adapter supports it, and files that go
// into shared settings are merged with what is already on disk.
func (p *Processor[C]) ToNative(ctx context.Context, baseDir string, units []C, tool targets.ToolID) ([]*ToolFile, error) {
	a, err := p.Adapter(tool)
	if err != nil {
		return nil, err
	}

	var (
		files []*ToolFile
		errs  *multierror.Error
	)
	for _, u := range units {
		if !u.Targets().Includes(tool) {
			continue
		}
		converted, err := a.FromCanonical(baseDir, u)
		if err != nil {
			errs = multierror.Append(errs, errors.Wrapf(err, "failed to convert %s", u.Location().Path()))
			continue
		}
		for _, f := range converted {
			if err := a.Validate(f); err != nil {
				errs = multierror.Append(errs, err)
				continue
			}
			files = append(files, f)
		}
	}

	files, err = p.combine(a, files)
	if err != nil {
		errs = multierror.Append(errs, err)
	}

	if em, ok := a.(ExistingMerger); ok {
		for _, f := range files {
			existing := ""
			if p.fs.Exists(f.Path()) {
				if existing, err = p.fs.ReadFile(f.Path()); err != nil {
					errs = multierror.Append(errs, err)
					continue
				}
			}
			merged, err := em.MergeExisting(existing, f)
			if err != nil {
				errs = multierror.Append(errs, errors.Wrapf(err, "failed to merge into %s", f.Path()))
				continue
			}
			f.RawContent = merged
		}
	}
	return files, errs.ErrorOrNil()
}

// combine groups files by path, keeping first-seen order.
func (p *Processor[C]) combine(a Adapter[C], files []*ToolFile) ([]*ToolFile, error) {
	var (
		order  []string
		groups = make(map[string][]*ToolFile)
	)
	for _, f := range files {
		key := f.Path()
		if _, ok := groups[key]; !ok {
			order = append(order, key)
		}
		groups[key] = append(groups[key], f)
	}

	merger, canMerge := a.(Merger)
	var (
		out  []*ToolFile
		errs *multierror.Error
	)
	for _, key := range order {
		group := groups[key]
		if len(group) == 1 {
			out = append(out, group[0])
			continue
		}
		if !canMerge {
			errs = multierror.Append(errs, errors.Errorf("%d units map to %s; keeping the first", len(group), key))
			out = append(out, group[0])
			continue
		}
		merged, err := merger.Merge(group)
		if err != nil {
			errs = multierror.Append(errs, errors.Wrapf(err, "failed to merge %s", key))
			continue
		}
		out = append(out, merged)
	}
	return out, errs.ErrorOrNil()
}

// ToCanonical converts native files back to canonical units. Files whose
// adapter cannot convert them are dropped.
func (p *Processor[C]) ToCanonical(ctx context.Context, files []*ToolFile) ([]C, error) {
	var (
		units []C
		errs  *multierror.Error
	)
	for _, f := range files {
		a, err := p.Adapter(f.Tool)
		if err != nil {
			return nil, err
		}
		res, err := a.ToCanonical(f)
		if err != nil {
			errs = multierror.Append(errs, errors.Wrapf(err, "failed to import %s", f.Path()))
			continue
		}
		unit, ok := res.Get()
		if !ok {
			logger.G(ctx).
				WithField("feature", p.feature).
				WithField("tool", f.Tool).
				WithField("path", f.Path()).
				Debugf("skipping: %s", res.Reason())
			continue
		}
		units = append(units, unit)
	}
	return units, errs.ErrorOrNil()
}

// Write writes the files in order.
func (p *Processor[C]) Write(ctx context.Context, files []*ToolFile) error {
	for _, f := range files {
		if err := p.fs.WriteFile(f.Path(), f.RawContent); err != nil {
			return err
		}
		logger.G(ctx).
			WithField("feature", p.feature).
			WithField("tool", f.Tool).
			WithField("path", f.Path()).
			Debug("wrote file")
	}
	return nil
}

// Delete removes the output locations this feature owns for tool. Shared
// settings files are left alone.
func (p *Processor[C]) Delete(ctx context.Context, baseDir string, tool targets.ToolID) error {
	a, err := p.Adapter(tool)
	if err != nil {
		return err
	}
	if _, ok := a.(ExistingMerger); ok {
		return nil
	}

	sp := a.SettablePaths()
	var errs *multierror.Error
	if sp.NonRoot != nil {
		dir := path.Join(baseDir, sp.NonRoot.RelativeDirPath)
		if err := p.fs.RemoveDir(dir); err != nil {
			errs = multierror.Append(errs, err)
		}
	}
	if sp.Root != nil {
		if err := p.fs.RemoveFile(sp.RootFile(tool, baseDir).Path()); err != nil {
			errs = multierror.Append(errs, err)
		}
	}
	if ol, ok := a.(OutputLocator); ok {
		for _, extra := range ol.OutputPaths(baseDir) {
			if err := p.fs.RemoveFile(extra); err != nil {
				errs = multierror.Append(errs, err)
			}
		}
	}

	logger.G(ctx).
		WithField("feature", p.feature).
		WithField("tool", tool).
		WithField("base_dir", baseDir).
		Debug("deleted previous output")
	return errs.ErrorOrNil()
}

// Load reads the canonical units once so they can be converted for many
// tools.
func (p *Processor[C]) Load(ctx context.Context, baseDir string) (Batch, error) {
	units, err := p.LoadCanonical(ctx, baseDir)
	return &batch[C]{p: p, baseDir: baseDir, units: units}, err
}

// Import reads tool's native files and writes the canonical units derived
// from them. It returns how many units were written. A tool outside the
// allow-list imports nothing.
func (p *Processor[C]) Import(ctx context.Context, baseDir string, tool targets.ToolID) (int, error) {
	if !p.supports(tool) {
		logger.G(ctx).
			WithField("feature", p.feature).
			WithField("tool", tool).
			Debug("feature not supported by tool, skipping import")
		return 0, nil
	}

	var errs *multierror.Error
	files, err := p.LoadNative(ctx, baseDir, tool)
	if err != nil {
		errs = multierror.Append(errs, err)
	}
	units, err := p.ToCanonical(ctx, files)
	if err != nil {
		errs = multierror.Append(errs, err)
	}

	created := 0
	for _, u := range units {
		loc := u.Location()
		if err := p.fs.WriteFile(loc.Path(), loc.RawContent); err != nil {
			errs = multierror.Append(errs, err)
			continue
		}
		created++
	}
	return created, errs.ErrorOrNil()
}

type batch[C canonical.Unit] struct {
	p       *Processor[C]
	baseDir string
	units   []C
}

func (b *batch[C]) Len() int {
	return len(b.units)
}

func (b *batch[C]) Convert(ctx context.Context, tool targets.ToolID) ([]*ToolFile, error) {
	return b.p.ToNative(ctx, b.baseDir, b.units, tool)
}
