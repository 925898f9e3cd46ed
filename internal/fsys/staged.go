package fsys

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
)

// Staged is an [FS] that keeps every write in memory on top of a base
// filesystem. Reads see staged content first and fall through to the base.
// Nothing reaches the base until [Staged.Commit].
//
// Staged backs the Workspace scaffold type: a whole scaffold can be built,
// inspected with [Staged.Pending], and then committed or discarded.
type Staged struct {
	base FS

	mu    sync.Mutex
	dirs  map[string]bool
	files map[string][]byte
}

// NewStaged returns an empty overlay on top of base.
func NewStaged(base FS) *Staged {
	return &Staged{
		base:  base,
		dirs:  make(map[string]bool),
		files: make(map[string][]byte),
	}
}

// MkdirAll stages the directory and its parents.
func (s *Staged) MkdirAll(path string, _ os.FileMode) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for p := filepath.Clean(path); p != "." && p != "/" && p != string(filepath.Separator); p = filepath.Dir(p) {
		s.dirs[p] = true
	}
	return nil
}

// WriteFile stages a copy of data at name.
func (s *Staged) WriteFile(name string, data []byte, _ os.FileMode) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.files[filepath.Clean(name)] = append([]byte(nil), data...)
	return nil
}

// ReadFile returns staged content for name, or the base content.
func (s *Staged) ReadFile(name string) ([]byte, error) {
	s.mu.Lock()
	data, ok := s.files[filepath.Clean(name)]
	s.mu.Unlock()
	if ok {
		return append([]byte(nil), data...), nil
	}
	return s.base.ReadFile(name)
}

// Stat reports staged files and directories before consulting the base.
func (s *Staged) Stat(name string) (os.FileInfo, error) {
	clean := filepath.Clean(name)
	s.mu.Lock()
	data, isFile := s.files[clean]
	isDir := s.dirs[clean]
	s.mu.Unlock()
	switch {
	case isFile:
		return fakeFileInfo{name: filepath.Base(clean), size: int64(len(data))}, nil
	case isDir:
		return fakeFileInfo{name: filepath.Base(clean), dir: true}, nil
	}
	return s.base.Stat(name)
}

// ReadDir merges the base listing with staged children of name. Staged
// entries shadow base entries of the same name.
func (s *Staged) ReadDir(name string) ([]os.DirEntry, error) {
	clean := filepath.Clean(name)
	byName := make(map[string]os.DirEntry)

	baseEntries, baseErr := s.base.ReadDir(name)
	for _, e := range baseEntries {
		byName[e.Name()] = e
	}

	s.mu.Lock()
	staged := s.dirs[clean]
	for d := range s.dirs {
		if d != clean && filepath.Dir(d) == clean {
			byName[filepath.Base(d)] = fakeDirEntry{name: filepath.Base(d), dir: true}
			staged = true
		}
	}
	for p, data := range s.files {
		if filepath.Dir(p) == clean {
			byName[filepath.Base(p)] = fakeDirEntry{name: filepath.Base(p), size: int64(len(data))}
			staged = true
		}
	}
	s.mu.Unlock()

	if baseErr != nil && !staged {
		return nil, baseErr
	}
	entries := make([]os.DirEntry, 0, len(byName))
	for _, e := range byName {
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})
	return entries, nil
}

// Rename moves a staged file. Only staged files can be renamed; the base
// is never modified before Commit.
func (s *Staged) Rename(oldpath, newpath string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	oldpath, newpath = filepath.Clean(oldpath), filepath.Clean(newpath)
	data, ok := s.files[oldpath]
	if !ok {
		return &os.PathError{Op: "rename", Path: oldpath, Err: os.ErrNotExist}
	}
	s.files[newpath] = data
	delete(s.files, oldpath)
	return nil
}

// Pending returns the staged file paths in sorted order.
func (s *Staged) Pending() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	paths := make([]string, 0, len(s.files))
	for p := range s.files {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// Commit writes staged directories, then staged files, to the base in
// sorted order and clears the overlay. On error the overlay is left intact
// so the caller can inspect or retry; files already written stay written.
func (s *Staged) Commit() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	dirs := make([]string, 0, len(s.dirs))
	for d := range s.dirs {
		dirs = append(dirs, d)
	}
	sort.Strings(dirs)
	for _, d := range dirs {
		if err := s.base.MkdirAll(d, 0o755); err != nil {
			return fmt.Errorf("committing directory %s: %w", d, err)
		}
	}

	files := make([]string, 0, len(s.files))
	for p := range s.files {
		files = append(files, p)
	}
	sort.Strings(files)
	for _, p := range files {
		if err := s.base.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			return fmt.Errorf("committing directory %s: %w", filepath.Dir(p), err)
		}
		if err := s.base.WriteFile(p, s.files[p], 0o644); err != nil {
			return fmt.Errorf("committing %s: %w", p, err)
		}
	}

	s.dirs = make(map[string]bool)
	s.files = make(map[string][]byte)
	return nil
}

// Discard drops everything staged.
func (s *Staged) Discard() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dirs = make(map[string]bool)
	s.files = make(map[string][]byte)
}
