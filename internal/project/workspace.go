// Package project loads and creates IoT workspace projects: a project root
// holding an IDE workspace file, an Azure component registry, and one
// device folder marked with a host-type file.
//
// All file I/O goes through [fsys.Access] and names its scaffold type, so
// the same flow runs against the local disk or a staged view.
package project

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"path/filepath"
	"time"

	"github.com/iotworkbench/iotwb/internal/azure"
	"github.com/iotworkbench/iotwb/internal/board"
	"github.com/iotworkbench/iotwb/internal/config"
	"github.com/iotworkbench/iotwb/internal/device"
	"github.com/iotworkbench/iotwb/internal/env"
	"github.com/iotworkbench/iotwb/internal/fsys"
	"github.com/iotworkbench/iotwb/internal/telemetry"
)

// Host is the set of collaborators a [Workspace] runs against.
type Host struct {
	Files  *fsys.Access
	Config config.Project
	// Boards defaults to board.Catalog.
	Boards board.Registry
	// Env defaults to env.OS.
	Env env.Provider
	// Templates defaults to the built-in device templates.
	Templates fs.FS
	// NewDevice defaults to device.New.
	NewDevice device.Constructor
}

// Workspace controls one IoT workspace project.
type Workspace struct {
	host    Host
	channel io.Writer
	tel     *telemetry.Context
	root    string

	workspaceFile string
	device        device.Device
}

// New returns a controller for the project at rootPath. An empty rootPath
// fails with [*ArgumentEmptyOrNullError] before anything else is checked.
// New performs no I/O.
func New(host Host, channel io.Writer, tel *telemetry.Context, rootPath string) (*Workspace, error) {
	if rootPath == "" {
		return nil, &ArgumentEmptyOrNullError{
			Operation: "construct iot workspace project",
			Argument:  "project root path",
		}
	}
	if host.Files == nil {
		return nil, &ArgumentEmptyOrNullError{
			Operation: "construct iot workspace project",
			Argument:  "file access layer",
		}
	}
	if host.Boards == nil {
		host.Boards = board.Catalog{}
	}
	if host.Env == nil {
		host.Env = env.OS{}
	}
	if host.NewDevice == nil {
		host.NewDevice = device.New
	}
	if channel == nil {
		channel = io.Discard
	}
	if tel == nil {
		tel = telemetry.NewContext()
	}
	return &Workspace{host: host, channel: channel, tel: tel, root: rootPath}, nil
}

// Root returns the project root path.
func (w *Workspace) Root() string { return w.root }

// Config returns the project configuration in effect.
func (w *Workspace) Config() config.Project { return w.host.Config }

// DeviceRoot returns <root>/<device folder>.
func (w *Workspace) DeviceRoot() string {
	return filepath.Join(w.root, w.host.Config.DeviceFolder())
}

// WorkspaceFile returns the workspace file name resolved by the last
// successful Load or Create.
func (w *Workspace) WorkspaceFile() string { return w.workspaceFile }

// Device returns the device constructed by the last successful Load or
// Create, or nil.
func (w *Workspace) Device() device.Device { return w.device }

// Load initializes an existing project for the Workspace host type.
//
// The device folder must be a single folder name inside the root, and the
// device root must already exist under st; otherwise Load fails (the latter
// with [*DirectoryNotFoundError]) and touches nothing. On success Load resolves
// the workspace file, updates the host-type marker, resets the Azure
// component registry, and constructs the device. Errors from those steps
// are returned as is, and files written before a failure stay written.
func (w *Workspace) Load(ctx context.Context, st fsys.ScaffoldType, initialLoad bool) (err error) {
	start := time.Now()
	w.tel.SetProperty("scaffoldType", st.String())
	defer func() {
		ms := float64(time.Since(start).Microseconds()) / 1000
		telemetry.RecordProjectLoad(ctx, w.tel, w.root, st.String(), initialLoad, ms, err)
	}()

	if err := w.host.Config.Validate(); err != nil {
		return err
	}
	deviceRoot := w.DeviceRoot()
	exists, err := w.host.Files.DirectoryExists(st, deviceRoot)
	if err != nil {
		return err
	}
	if !exists {
		return &DirectoryNotFoundError{
			Operation:  "load iot workspace project",
			Directory:  "device root path " + deviceRoot,
			Suggestion: "Please initialize the project first.",
		}
	}
	return w.initialize(ctx, st, deviceRoot)
}

// CreateOptions controls [Workspace.Create].
type CreateOptions struct {
	// Board overrides the configured board ID.
	Board string
	// Overwrite re-initializes a folder that already has a project marker.
	Overwrite bool
}

// Create scaffolds a new project: the device folder, iotworkbench.toml, the
// same initialization as Load, and the device's starter sources.
func (w *Workspace) Create(ctx context.Context, st fsys.ScaffoldType, opts CreateOptions) (err error) {
	cfg := w.host.Config
	if opts.Board != "" {
		cfg.Device.Board = opts.Board
	}
	w.tel.SetProperty("scaffoldType", st.String())
	defer func() {
		telemetry.RecordProjectCreate(ctx, w.tel, w.root, cfg.BoardID(), st.String(), err)
	}()

	if err := cfg.Validate(); err != nil {
		return err
	}
	if _, ok := w.host.Boards.Find(cfg.BoardID()); !ok {
		return &board.NotFoundError{ID: cfg.BoardID()}
	}

	deviceRoot := filepath.Join(w.root, cfg.DeviceFolder())
	marker, err := w.host.Files.FileExists(st, MarkerPath(deviceRoot))
	if err != nil {
		return err
	}
	if marker && !opts.Overwrite {
		return fmt.Errorf("%w: %s", ErrProjectExists, w.root)
	}

	if err := w.host.Files.MkdirAll(st, deviceRoot); err != nil {
		return err
	}
	if err := cfg.Write(w.host.Files, st, filepath.Join(w.root, config.FileName)); err != nil {
		return err
	}
	w.host.Config = cfg

	if err := w.initialize(ctx, st, deviceRoot); err != nil {
		return err
	}
	return w.device.Create(ctx)
}

// initialize runs the side-effecting steps shared by Load and Create, in
// order, stopping at the first error.
func (w *Workspace) initialize(ctx context.Context, st fsys.ScaffoldType, deviceRoot string) error {
	name, err := ResolveWorkspaceFile(w.host.Files, st, w.root, w.host.Config)
	if err != nil {
		return err
	}
	w.workspaceFile = name

	if err := UpdateHostTypeConfig(w.host.Files, st, MarkerPath(deviceRoot), HostTypeWorkspace); err != nil {
		return err
	}
	w.tel.SetProperty("projectHostType", string(HostTypeWorkspace))

	if err := azure.NewFileHandler(w.host.Files, w.root).Reset(st); err != nil {
		return err
	}

	id := w.host.Config.BoardID()
	b, ok := w.host.Boards.Find(id)
	if !ok {
		return &board.NotFoundError{ID: id}
	}

	dev, err := w.host.NewDevice(ctx, device.Params{
		Files:        w.host.Files,
		ScaffoldType: st,
		Env:          w.host.Env,
		Templates:    w.host.Templates,
		Channel:      w.channel,
		Telemetry:    w.tel,
		RootPath:     deviceRoot,
		Board:        b,
	})
	if err != nil {
		return err
	}
	w.device = dev
	return nil
}
