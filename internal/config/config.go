// Package config handles the typed project configuration stored in
// iotworkbench.toml at the project root, and the per-user state paths the
// CLI keeps outside any project.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/iotworkbench/iotwb/internal/board"
	"github.com/iotworkbench/iotwb/internal/fsys"
)

// FileName is the project configuration file name, relative to the root.
const FileName = "iotworkbench.toml"

// DefaultDeviceFolder is the device subfolder used when none is configured.
const DefaultDeviceFolder = "Device"

// Environment variables that override values read from the file.
const (
	EnvDeviceFolder = "IOTWB_DEVICE_FOLDER"
	EnvBoard        = "IOTWB_BOARD"
)

// Project is the configuration of one IoT workspace project.
type Project struct {
	Workspace Workspace `toml:"workspace"`
	Device    Device    `toml:"device"`
}

// Workspace holds project-level metadata.
type Workspace struct {
	// Name is the project name; the IDE workspace file is <name>.code-workspace.
	Name string `toml:"name"`
}

// Device holds the settings of the project's device folder.
type Device struct {
	// Folder is the device subfolder relative to the project root.
	Folder string `toml:"folder,omitempty"`
	// Board is the board ID from the built-in catalog.
	Board string `toml:"board,omitempty"`
}

// Default returns the configuration of a new project named name.
func Default(name string) Project {
	return Project{
		Workspace: Workspace{Name: name},
		Device:    Device{Folder: DefaultDeviceFolder, Board: board.DefaultID},
	}
}

// DeviceFolder returns the configured device folder, or
// [DefaultDeviceFolder] when unset.
func (p Project) DeviceFolder() string {
	if p.Device.Folder == "" {
		return DefaultDeviceFolder
	}
	return p.Device.Folder
}

// BoardID returns the configured board, or [board.DefaultID] when unset.
func (p Project) BoardID() string {
	if p.Device.Board == "" {
		return board.DefaultID
	}
	return p.Device.Board
}

// ApplyEnv overrides fields from environment variables read with getenv.
// Empty values are ignored.
func (p *Project) ApplyEnv(getenv func(string) string) {
	if v := getenv(EnvDeviceFolder); v != "" {
		p.Device.Folder = v
	}
	if v := getenv(EnvBoard); v != "" {
		p.Device.Board = v
	}
}

// Validate checks that the device folder is a single relative path
// element.
func (p Project) Validate() error {
	folder := p.DeviceFolder()
	if filepath.IsAbs(folder) || filepath.Base(folder) != folder || folder == "." || folder == ".." {
		return fmt.Errorf("device folder %q must be a single folder name", folder)
	}
	return nil
}

// Marshal encodes a Project to TOML bytes.
func (p *Project) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	enc := toml.NewEncoder(&buf)
	enc.Indent = ""
	if err := enc.Encode(p); err != nil {
		return nil, fmt.Errorf("marshaling config: %w", err)
	}
	return buf.Bytes(), nil
}

// Parse decodes TOML data into a Project.
func Parse(data []byte) (*Project, error) {
	var p Project
	md, err := toml.Decode(string(data), &p)
	if err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("parsing config: unknown key %q", undecoded[0].String())
	}
	return &p, nil
}

// Load reads and parses the configuration file at path. All file I/O goes
// through files, scoped to st.
func Load(files *fsys.Access, st fsys.ScaffoldType, path string) (*Project, error) {
	data, err := files.ReadFile(st, path)
	if err != nil {
		return nil, fmt.Errorf("loading config %q: %w", path, err)
	}
	return Parse(data)
}

// LoadOrDefault loads <root>/iotworkbench.toml, or returns [Default] named
// after the root folder when the file does not exist.
func LoadOrDefault(files *fsys.Access, st fsys.ScaffoldType, root string) (*Project, error) {
	p, err := Load(files, st, filepath.Join(root, FileName))
	if errors.Is(err, fs.ErrNotExist) {
		d := Default(filepath.Base(root))
		return &d, nil
	}
	return p, err
}

// Write encodes p and writes it to path.
func (p *Project) Write(files *fsys.Access, st fsys.ScaffoldType, path string) error {
	data, err := p.Marshal()
	if err != nil {
		return err
	}
	return files.WriteFile(st, path, data)
}
