package fsys

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// ScaffoldType selects which filesystem view an operation targets.
type ScaffoldType int

const (
	// Local is the on-disk view.
	Local ScaffoldType = iota
	// Workspace is the staged view, committed to disk as one unit.
	Workspace
)

// String returns the scaffold type name used in telemetry and output.
func (t ScaffoldType) String() string {
	switch t {
	case Local:
		return "local"
	case Workspace:
		return "workspace"
	default:
		return fmt.Sprintf("ScaffoldType(%d)", int(t))
	}
}

// Access routes file operations to the view chosen by each call's
// [ScaffoldType]. It never picks a view on its own.
type Access struct {
	views map[ScaffoldType]FS
}

// NewAccess binds the Local and Workspace views.
func NewAccess(local, workspace FS) *Access {
	return &Access{views: map[ScaffoldType]FS{
		Local:     local,
		Workspace: workspace,
	}}
}

// NewSingleViewAccess binds both scaffold types to the same filesystem.
// Tests use it with a [Fake] so every write lands in one spy.
func NewSingleViewAccess(fsys FS) *Access {
	return NewAccess(fsys, fsys)
}

// View returns the filesystem bound to t.
func (a *Access) View(t ScaffoldType) (FS, error) {
	v, ok := a.views[t]
	if !ok || v == nil {
		return nil, fmt.Errorf("no filesystem bound to scaffold type %s", t)
	}
	return v, nil
}

// DirectoryExists reports whether path exists and is a directory.
func (a *Access) DirectoryExists(t ScaffoldType, path string) (bool, error) {
	fi, err := a.stat(t, path)
	if err != nil || fi == nil {
		return false, err
	}
	return fi.IsDir(), nil
}

// FileExists reports whether path exists and is not a directory.
func (a *Access) FileExists(t ScaffoldType, path string) (bool, error) {
	fi, err := a.stat(t, path)
	if err != nil || fi == nil {
		return false, err
	}
	return !fi.IsDir(), nil
}

// stat returns (nil, nil) when path does not exist.
func (a *Access) stat(t ScaffoldType, path string) (os.FileInfo, error) {
	v, err := a.View(t)
	if err != nil {
		return nil, err
	}
	fi, err := v.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("checking %s: %w", path, err)
	}
	return fi, nil
}

// ReadFile reads path from the chosen view.
func (a *Access) ReadFile(t ScaffoldType, path string) ([]byte, error) {
	v, err := a.View(t)
	if err != nil {
		return nil, err
	}
	return v.ReadFile(path)
}

// ReadDir lists path in the chosen view.
func (a *Access) ReadDir(t ScaffoldType, path string) ([]os.DirEntry, error) {
	v, err := a.View(t)
	if err != nil {
		return nil, err
	}
	return v.ReadDir(path)
}

// MkdirAll creates path and its parents in the chosen view.
func (a *Access) MkdirAll(t ScaffoldType, path string) error {
	v, err := a.View(t)
	if err != nil {
		return err
	}
	return v.MkdirAll(path, 0o755)
}

// WriteFile writes data to path atomically, creating parent directories.
func (a *Access) WriteFile(t ScaffoldType, path string, data []byte) error {
	v, err := a.View(t)
	if err != nil {
		return err
	}
	return writeAtomic(v, path, data)
}

// WriteJSONFile encodes v as two-space indented JSON with a trailing
// newline and writes it to path atomically.
func (a *Access) WriteJSONFile(t ScaffoldType, path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding %s: %w", path, err)
	}
	return a.WriteFile(t, path, append(data, '\n'))
}

// writeAtomic writes to a sibling temp file and renames it over path so a
// reader never observes a partially written file.
func writeAtomic(v FS, path string, data []byte) error {
	if err := v.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating directory for %s: %w", path, err)
	}
	tmp := path + ".tmp"
	if err := v.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := v.Rename(tmp, path); err != nil {
		return fmt.Errorf("replacing %s: %w", path, err)
	}
	return nil
}
