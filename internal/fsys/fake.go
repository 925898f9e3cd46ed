package fsys

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"
)

// Fake is an in-memory [FS] for testing. It records all calls (spy) and
// simulates filesystem state (fake). Pre-populate Dirs, Files, and Errors
// before calling methods. Paths are cleaned with [filepath.Clean] before
// lookup, so "root/Device/" and "root/Device" name the same entry.
type Fake struct {
	Dirs   map[string]bool   // pre-populated directories
	Files  map[string][]byte // pre-populated files
	Errors map[string]error  // path → injected error (checked first)
	Calls  []Call            // spy log
}

// Call records a single method invocation on [Fake].
type Call struct {
	Method string // "MkdirAll", "WriteFile", "ReadFile", "Stat", "ReadDir", or "Rename"
	Path   string // path argument, cleaned
	Target string // destination path, Rename only
}

// NewFake returns a ready-to-use [Fake] with empty maps.
func NewFake() *Fake {
	return &Fake{
		Dirs:   make(map[string]bool),
		Files:  make(map[string][]byte),
		Errors: make(map[string]error),
	}
}

func (f *Fake) record(method, path string) string {
	path = filepath.Clean(path)
	f.Calls = append(f.Calls, Call{Method: method, Path: path})
	return path
}

// MkdirAll records the call and adds the directory (and parents) to Dirs.
func (f *Fake) MkdirAll(path string, _ os.FileMode) error {
	path = f.record("MkdirAll", path)
	if err, ok := f.Errors[path]; ok {
		return err
	}
	for p := path; p != "." && p != "/" && p != string(filepath.Separator); p = filepath.Dir(p) {
		f.Dirs[p] = true
	}
	return nil
}

// WriteFile records the call and stores a copy of data in Files.
func (f *Fake) WriteFile(name string, data []byte, _ os.FileMode) error {
	name = f.record("WriteFile", name)
	if err, ok := f.Errors[name]; ok {
		return err
	}
	f.Files[name] = append([]byte(nil), data...)
	return nil
}

// ReadFile records the call and returns a copy of the contents in Files.
func (f *Fake) ReadFile(name string) ([]byte, error) {
	name = f.record("ReadFile", name)
	if err, ok := f.Errors[name]; ok {
		return nil, err
	}
	if data, ok := f.Files[name]; ok {
		return append([]byte(nil), data...), nil
	}
	return nil, &os.PathError{Op: "read", Path: name, Err: os.ErrNotExist}
}

// Stat records the call and returns info based on Dirs/Files maps.
func (f *Fake) Stat(name string) (os.FileInfo, error) {
	name = f.record("Stat", name)
	if err, ok := f.Errors[name]; ok {
		return nil, err
	}
	if f.Dirs[name] {
		return fakeFileInfo{name: filepath.Base(name), dir: true}, nil
	}
	if data, ok := f.Files[name]; ok {
		return fakeFileInfo{name: filepath.Base(name), size: int64(len(data))}, nil
	}
	return nil, &os.PathError{Op: "stat", Path: name, Err: os.ErrNotExist}
}

// ReadDir records the call and returns the direct children of name,
// sorted by name. A directory with no known children reads as empty.
func (f *Fake) ReadDir(name string) ([]os.DirEntry, error) {
	name = f.record("ReadDir", name)
	if err, ok := f.Errors[name]; ok {
		return nil, err
	}

	seen := make(map[string]bool)
	var entries []os.DirEntry
	for d := range f.Dirs {
		if filepath.Dir(d) == name && d != name && !seen[filepath.Base(d)] {
			seen[filepath.Base(d)] = true
			entries = append(entries, fakeDirEntry{name: filepath.Base(d), dir: true})
		}
	}
	for p, data := range f.Files {
		if filepath.Dir(p) == name && !seen[filepath.Base(p)] {
			seen[filepath.Base(p)] = true
			entries = append(entries, fakeDirEntry{name: filepath.Base(p), size: int64(len(data))})
		}
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})
	return entries, nil
}

// Rename records the call and moves the file in the Files map.
func (f *Fake) Rename(oldpath, newpath string) error {
	oldpath, newpath = filepath.Clean(oldpath), filepath.Clean(newpath)
	f.Calls = append(f.Calls, Call{Method: "Rename", Path: oldpath, Target: newpath})
	if err, ok := f.Errors[oldpath]; ok {
		return err
	}
	if err, ok := f.Errors[newpath]; ok {
		return err
	}
	data, ok := f.Files[oldpath]
	if !ok {
		return &os.PathError{Op: "rename", Path: oldpath, Err: os.ErrNotExist}
	}
	f.Files[newpath] = data
	delete(f.Files, oldpath)
	return nil
}

// Writes returns the paths that received data, either directly through
// WriteFile or as the destination of a Rename, in call order.
func (f *Fake) Writes() []string {
	var out []string
	for _, c := range f.Calls {
		switch c.Method {
		case "WriteFile":
			out = append(out, c.Path)
		case "Rename":
			out = append(out, c.Target)
		}
	}
	return out
}

// WriteCount reports how many times path received data. Temporary files
// renamed into place count once, against their destination.
func (f *Fake) WriteCount(path string) int {
	path = filepath.Clean(path)
	n := 0
	for _, w := range f.Writes() {
		if w == path {
			n++
		}
	}
	return n
}

type fakeFileInfo struct {
	name string
	size int64
	dir  bool
}

func (fi fakeFileInfo) Name() string       { return fi.name }
func (fi fakeFileInfo) Size() int64        { return fi.size }
func (fi fakeFileInfo) Mode() os.FileMode  { return fi.mode() }
func (fi fakeFileInfo) ModTime() time.Time { return time.Time{} }
func (fi fakeFileInfo) IsDir() bool        { return fi.dir }
func (fi fakeFileInfo) Sys() any           { return nil }

func (fi fakeFileInfo) mode() os.FileMode {
	if fi.dir {
		return fs.ModeDir | 0o755
	}
	return 0o644
}

type fakeDirEntry struct {
	name string
	size int64
	dir  bool
}

func (de fakeDirEntry) Name() string { return de.name }
func (de fakeDirEntry) IsDir() bool  { return de.dir }
func (de fakeDirEntry) Type() fs.FileMode {
	if de.dir {
		return fs.ModeDir
	}
	return 0
}
func (de fakeDirEntry) Info() (fs.FileInfo, error) {
	return fakeFileInfo(de), nil
}

var (
	_ FS = (*Fake)(nil)
	_ FS = OSFS{}
	_ FS = (*Staged)(nil)

	_ os.FileInfo = fakeFileInfo{}
	_ os.DirEntry = fakeDirEntry{}
)
