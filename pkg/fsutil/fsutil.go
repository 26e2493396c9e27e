// Package fsutil provides the small set of file-system primitives rulesync
// needs, on top of a billy filesystem so the same code runs against the real
// disk or an in-memory tree. All paths are slash-separated and relative to the
// filesystem root.
package fsutil

import (
	"io/fs"
	"os"
	"path"
	"sort"
	"strings"

	billy "github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/pkg/errors"
)

// FS is the file-system surface used by processors and orchestrators.
type FS interface {
	// Root returns the root the relative paths resolve against.
	Root() string
	Exists(p string) bool
	IsDir(p string) bool
	ReadFile(p string) (string, error)
	// WriteFile writes content, creating parent directories first.
	WriteFile(p, content string) error
	// RemoveDir removes a directory tree. It is a no-op when the directory
	// does not exist and refuses dangerous paths.
	RemoveDir(p string) error
	// RemoveFile removes a single file. Missing files are not an error.
	RemoveFile(p string) error
	// ListFiles returns the sorted names of the regular files directly under
	// dir whose name ends in one of the given suffixes (all files when no
	// suffix is given). A missing directory yields an empty list.
	ListFiles(dir string, suffixes ...string) ([]string, error)
}

// ErrDangerousPath is returned when a removal targets a path that must never
// be deleted wholesale.
var ErrDangerousPath = errors.New("refusing to remove dangerous path")

// protectedDirs are never removed, whatever the caller asks for.
var protectedDirs = map[string]bool{
	"":          true,
	".":         true,
	"/":         true,
	"..":        true,
	".git":      true,
	".rulesync": true,
}

// sourceDirs are refused when they are bare top-level directories.
var sourceDirs = map[string]bool{
	"src":      true,
	"lib":      true,
	"app":      true,
	"pkg":      true,
	"cmd":      true,
	"internal": true,
}

type billyFS struct {
	fs billy.Filesystem
}

// New wraps an existing billy filesystem.
func New(bfs billy.Filesystem) FS {
	return &billyFS{fs: bfs}
}

// NewOS returns a filesystem rooted at dir on the local disk.
func NewOS(dir string) FS {
	return New(osfs.New(dir))
}

// NewMemory returns an empty in-memory filesystem.
func NewMemory() FS {
	return New(memfs.New())
}

func (b *billyFS) Root() string {
	return b.fs.Root()
}

func (b *billyFS) Exists(p string) bool {
	_, err := b.fs.Stat(clean(p))
	return err == nil
}

func (b *billyFS) IsDir(p string) bool {
	info, err := b.fs.Stat(clean(p))
	return err == nil && info.IsDir()
}

func (b *billyFS) ReadFile(p string) (string, error) {
	data, err := util.ReadFile(b.fs, clean(p))
	if err != nil {
		return "", errors.Wrapf(err, "failed to read %s", p)
	}
	return string(data), nil
}

func (b *billyFS) WriteFile(p, content string) error {
	p = clean(p)
	if dir := path.Dir(p); dir != "." {
		if err := b.fs.MkdirAll(dir, 0o755); err != nil {
			return errors.Wrapf(err, "failed to create directory %s", dir)
		}
	}
	if err := util.WriteFile(b.fs, p, []byte(content), 0o644); err != nil {
		return errors.Wrapf(err, "failed to write %s", p)
	}
	return nil
}

func (b *billyFS) RemoveDir(p string) error {
	if err := CheckRemovable(p); err != nil {
		return err
	}
	p = clean(p)
	if !b.Exists(p) {
		return nil
	}
	if err := util.RemoveAll(b.fs, p); err != nil {
		return errors.Wrapf(err, "failed to remove directory %s", p)
	}
	return nil
}

func (b *billyFS) RemoveFile(p string) error {
	if err := CheckRemovable(p); err != nil {
		return err
	}
	err := b.fs.Remove(clean(p))
	if err != nil && !isNotExist(err) {
		return errors.Wrapf(err, "failed to remove file %s", p)
	}
	return nil
}

func (b *billyFS) ListFiles(dir string, suffixes ...string) ([]string, error) {
	infos, err := b.fs.ReadDir(clean(dir))
	if err != nil {
		if isNotExist(err) {
			return nil, nil
		}
		return nil, errors.Wrapf(err, "failed to list %s", dir)
	}

	var names []string
	for _, info := range infos {
		if info.IsDir() || !hasSuffix(info.Name(), suffixes) {
			continue
		}
		names = append(names, info.Name())
	}
	sort.Strings(names)
	return names, nil
}

// CheckRemovable returns ErrDangerousPath for paths that must not be removed.
func CheckRemovable(p string) error {
	cleaned := clean(p)
	if protectedDirs[cleaned] || strings.HasPrefix(cleaned, "../") || sourceDirs[cleaned] {
		return errors.Wrapf(ErrDangerousPath, "%q", p)
	}
	return nil
}

func clean(p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return ""
	}
	return path.Clean(strings.ReplaceAll(p, "\\", "/"))
}

func hasSuffix(name string, suffixes []string) bool {
	if len(suffixes) == 0 {
		return true
	}
	for _, s := range suffixes {
		if strings.HasSuffix(name, s) {
			return true
		}
	}
	return false
}

func isNotExist(err error) bool {
	return os.IsNotExist(err) || errors.Is(err, fs.ErrNotExist)
}
