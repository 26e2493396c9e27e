package fsutil

import (
	"path"
	"sort"
	"strings"

	"github.com/pkg/errors"
)

// Overlay is an FS that records writes and removals in memory and never
// touches the filesystem beneath it. Reads see the recorded changes.
type Overlay struct {
	base    FS
	written map[string]string
	removed map[string]bool
}

// NewOverlay wraps base.
func NewOverlay(base FS) *Overlay {
	return &Overlay{
		base:    base,
		written: make(map[string]string),
		removed: make(map[string]bool),
	}
}

// Base returns the wrapped filesystem.
func (o *Overlay) Base() FS {
	return o.base
}

// Written returns the recorded writes, sorted by path.
func (o *Overlay) Written() []string {
	paths := make([]string, 0, len(o.written))
	for p := range o.written {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

func (o *Overlay) Root() string {
	return o.base.Root()
}

func (o *Overlay) isRemoved(p string) bool {
	for dir := p; dir != "." && dir != "/" && dir != ""; dir = path.Dir(dir) {
		if o.removed[dir] {
			return true
		}
	}
	return false
}

func (o *Overlay) Exists(p string) bool {
	p = clean(p)
	if _, ok := o.written[p]; ok {
		return true
	}
	if o.IsDir(p) {
		return true
	}
	return !o.isRemoved(p) && o.base.Exists(p)
}

func (o *Overlay) IsDir(p string) bool {
	p = clean(p)
	prefix := p + "/"
	for w := range o.written {
		if strings.HasPrefix(w, prefix) {
			return true
		}
	}
	return !o.isRemoved(p) && o.base.IsDir(p)
}

func (o *Overlay) ReadFile(p string) (string, error) {
	p = clean(p)
	if content, ok := o.written[p]; ok {
		return content, nil
	}
	if o.isRemoved(p) {
		return "", errors.Errorf("failed to read %s: file removed", p)
	}
	return o.base.ReadFile(p)
}

func (o *Overlay) WriteFile(p, content string) error {
	o.written[clean(p)] = content
	return nil
}

func (o *Overlay) RemoveDir(p string) error {
	if err := CheckRemovable(p); err != nil {
		return err
	}
	p = clean(p)
	o.removed[p] = true
	prefix := p + "/"
	for w := range o.written {
		if strings.HasPrefix(w, prefix) {
			delete(o.written, w)
		}
	}
	return nil
}

func (o *Overlay) RemoveFile(p string) error {
	if err := CheckRemovable(p); err != nil {
		return err
	}
	p = clean(p)
	o.removed[p] = true
	delete(o.written, p)
	return nil
}

func (o *Overlay) ListFiles(dir string, suffixes ...string) ([]string, error) {
	dir = clean(dir)
	seen := make(map[string]bool)
	if !o.isRemoved(dir) {
		names, err := o.base.ListFiles(dir, suffixes...)
		if err != nil {
			return nil, err
		}
		for _, name := range names {
			if !o.isRemoved(path.Join(dir, name)) {
				seen[name] = true
			}
		}
	}
	for w := range o.written {
		if path.Dir(w) == dir && hasSuffix(path.Base(w), suffixes) {
			seen[path.Base(w)] = true
		}
	}

	var names []string
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}
