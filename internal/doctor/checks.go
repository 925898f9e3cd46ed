package doctor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"github.com/iotworkbench/iotwb/internal/azure"
	"github.com/iotworkbench/iotwb/internal/board"
	"github.com/iotworkbench/iotwb/internal/config"
	"github.com/iotworkbench/iotwb/internal/device"
	"github.com/iotworkbench/iotwb/internal/fsys"
	"github.com/iotworkbench/iotwb/internal/project"
	"github.com/iotworkbench/iotwb/internal/telemetry"
)

// RegisterProjectChecks adds the standard project checks in dependency order.
func RegisterProjectChecks(d *Doctor) {
	d.Register(&ConfigCheck{})
	d.Register(&BoardCheck{})
	d.Register(&DeviceRootCheck{})
	d.Register(&MarkerCheck{})
	d.Register(&WorkspaceFileCheck{})
	d.Register(&AzureConfigCheck{})
	d.Register(&CppPropertiesCheck{})
}

func deviceRoot(ctx *CheckContext) string {
	return filepath.Join(ctx.ProjectRoot, ctx.Config.DeviceFolder())
}

// ConfigCheck verifies iotworkbench.toml parses and validates.
type ConfigCheck struct{}

// Name returns the check identifier.
func (c *ConfigCheck) Name() string { return "project-config" }

// Run loads and validates the project configuration file.
func (c *ConfigCheck) Run(ctx *CheckContext) *CheckResult {
	r := &CheckResult{Name: c.Name()}
	path := filepath.Join(ctx.ProjectRoot, config.FileName)
	exists, err := ctx.Files.FileExists(fsys.Local, path)
	if err != nil {
		r.Status = StatusError
		r.Message = err.Error()
		return r
	}
	if !exists {
		r.Status = StatusWarning
		r.Message = config.FileName + " missing, defaults in use"
		return r
	}
	cfg, err := config.Load(ctx.Files, fsys.Local, path)
	if err != nil {
		r.Status = StatusError
		r.Message = err.Error()
		r.FixHint = "edit " + config.FileName + " by hand"
		return r
	}
	if err := cfg.Validate(); err != nil {
		r.Status = StatusError
		r.Message = err.Error()
		return r
	}
	r.Status = StatusOK
	r.Message = fmt.Sprintf("device folder %q, board %q", cfg.DeviceFolder(), cfg.BoardID())
	return r
}

// CanFix returns true; a missing file is written from the current config.
func (c *ConfigCheck) CanFix() bool { return true }

// Fix writes the effective configuration when the file is missing.
func (c *ConfigCheck) Fix(ctx *CheckContext) error {
	path := filepath.Join(ctx.ProjectRoot, config.FileName)
	exists, err := ctx.Files.FileExists(fsys.Local, path)
	if err != nil {
		return err
	}
	if exists {
		return errors.New("refusing to overwrite an existing " + config.FileName)
	}
	cfg := ctx.Config
	return cfg.Write(ctx.Files, fsys.Local, path)
}

// BoardCheck verifies the configured board is in the catalog.
type BoardCheck struct{}

// Name returns the check identifier.
func (c *BoardCheck) Name() string { return "board" }

// Run looks up the configured board.
func (c *BoardCheck) Run(ctx *CheckContext) *CheckResult {
	r := &CheckResult{Name: c.Name()}
	b, ok := board.Catalog{}.Find(ctx.Config.BoardID())
	if !ok {
		r.Status = StatusError
		r.Message = (&board.NotFoundError{ID: ctx.Config.BoardID()}).Error()
		r.FixHint = "run iotwb boards to list supported boards"
		return r
	}
	r.Status = StatusOK
	r.Message = b.Name
	r.Details = []string{"fqbn: " + b.FQBN}
	return r
}

// CanFix returns false.
func (c *BoardCheck) CanFix() bool { return false }

// Fix is a no-op.
func (c *BoardCheck) Fix(_ *CheckContext) error { return nil }

// DeviceRootCheck verifies the device folder exists.
type DeviceRootCheck struct{}

// Name returns the check identifier.
func (c *DeviceRootCheck) Name() string { return "device-root" }

// Run checks for the device folder.
func (c *DeviceRootCheck) Run(ctx *CheckContext) *CheckResult {
	r := &CheckResult{Name: c.Name()}
	dir := deviceRoot(ctx)
	ok, err := ctx.Files.DirectoryExists(fsys.Local, dir)
	switch {
	case err != nil:
		r.Status = StatusError
		r.Message = err.Error()
	case !ok:
		r.Status = StatusError
		r.Message = dir + " does not exist"
		r.FixHint = "run iotwb init"
	default:
		r.Status = StatusOK
		r.Message = dir
	}
	return r
}

// CanFix returns false; the device folder comes from iotwb init.
func (c *DeviceRootCheck) CanFix() bool { return false }

// Fix is a no-op.
func (c *DeviceRootCheck) Fix(_ *CheckContext) error { return nil }

// MarkerCheck verifies the host-type marker records a Workspace project.
type MarkerCheck struct{}

// Name returns the check identifier.
func (c *MarkerCheck) Name() string { return "project-marker" }

// Run reads the marker in the device folder.
func (c *MarkerCheck) Run(ctx *CheckContext) *CheckResult {
	r := &CheckResult{Name: c.Name()}
	ht, err := project.DetectHostType(ctx.Files, fsys.Local, deviceRoot(ctx))
	switch {
	case err != nil:
		r.Status = StatusError
		r.Message = err.Error()
	case ht != project.HostTypeWorkspace:
		r.Status = StatusError
		r.Message = fmt.Sprintf("host type %s, want %s", ht, project.HostTypeWorkspace)
	default:
		r.Status = StatusOK
		r.Message = "host type " + string(ht)
	}
	return r
}

// CanFix returns true.
func (c *MarkerCheck) CanFix() bool { return true }

// Fix records the Workspace host type, keeping other marker fields.
func (c *MarkerCheck) Fix(ctx *CheckContext) error {
	dir := deviceRoot(ctx)
	if err := requireDir(ctx, dir); err != nil {
		return err
	}
	return project.UpdateHostTypeConfig(ctx.Files, fsys.Local, project.MarkerPath(dir), project.HostTypeWorkspace)
}

// WorkspaceFileCheck verifies the project root has a workspace file.
type WorkspaceFileCheck struct{}

// Name returns the check identifier.
func (c *WorkspaceFileCheck) Name() string { return "workspace-file" }

// Run looks for a *.code-workspace file in the project root.
func (c *WorkspaceFileCheck) Run(ctx *CheckContext) *CheckResult {
	r := &CheckResult{Name: c.Name()}
	entries, err := ctx.Files.ReadDir(fsys.Local, ctx.ProjectRoot)
	if err != nil {
		r.Status = StatusError
		r.Message = err.Error()
		return r
	}
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == project.WorkspaceExtension {
			r.Status = StatusOK
			r.Message = e.Name()
			return r
		}
	}
	r.Status = StatusWarning
	r.Message = "no " + project.WorkspaceExtension + " file"
	return r
}

// CanFix returns true.
func (c *WorkspaceFileCheck) CanFix() bool { return true }

// Fix creates the workspace file from the project configuration.
func (c *WorkspaceFileCheck) Fix(ctx *CheckContext) error {
	_, err := project.ResolveWorkspaceFile(ctx.Files, fsys.Local, ctx.ProjectRoot, ctx.Config)
	return err
}

// AzureConfigCheck verifies the Azure component registry parses.
type AzureConfigCheck struct{}

// Name returns the check identifier.
func (c *AzureConfigCheck) Name() string { return "azure-config" }

// Run loads the registry.
func (c *AzureConfigCheck) Run(ctx *CheckContext) *CheckResult {
	r := &CheckResult{Name: c.Name()}
	h := azure.NewFileHandler(ctx.Files, ctx.ProjectRoot)
	exists, err := ctx.Files.FileExists(fsys.Local, h.Path())
	if err != nil {
		r.Status = StatusError
		r.Message = err.Error()
		return r
	}
	if !exists {
		r.Status = StatusWarning
		r.Message = "registry missing"
		return r
	}
	cfgs, err := h.Load(fsys.Local)
	if err != nil {
		r.Status = StatusError
		r.Message = err.Error()
		r.FixHint = "iotwb load resets the registry"
		return r
	}
	r.Status = StatusOK
	r.Message = fmt.Sprintf("%d components", len(cfgs.ComponentConfigs))
	for _, cc := range cfgs.ComponentConfigs {
		r.Details = append(r.Details, fmt.Sprintf("%s %s (%s)", cc.Type, cc.Name, cc.ID))
	}
	return r
}

// CanFix returns true; only a missing registry is fixed.
func (c *AzureConfigCheck) CanFix() bool { return true }

// Fix writes an empty registry when none exists.
func (c *AzureConfigCheck) Fix(ctx *CheckContext) error {
	h := azure.NewFileHandler(ctx.Files, ctx.ProjectRoot)
	exists, err := ctx.Files.FileExists(fsys.Local, h.Path())
	if err != nil {
		return err
	}
	if exists {
		return errors.New("refusing to reset an existing registry")
	}
	return h.Reset(fsys.Local)
}

// CppPropertiesCheck verifies IntelliSense metadata was generated.
type CppPropertiesCheck struct{}

// Name returns the check identifier.
func (c *CppPropertiesCheck) Name() string { return "cpp-properties" }

func (c *CppPropertiesCheck) path(ctx *CheckContext) string {
	return filepath.Join(deviceRoot(ctx), device.VSCodeFolderName, device.CppPropertiesFileName)
}

// Run checks for c_cpp_properties.json in the device folder.
func (c *CppPropertiesCheck) Run(ctx *CheckContext) *CheckResult {
	r := &CheckResult{Name: c.Name()}
	ok, err := ctx.Files.FileExists(fsys.Local, c.path(ctx))
	switch {
	case err != nil:
		r.Status = StatusError
		r.Message = err.Error()
	case !ok:
		r.Status = StatusWarning
		r.Message = device.CppPropertiesFileName + " not generated"
		r.FixHint = "install the board package with the Arduino IDE, then run iotwb doctor --fix"
		if dir, err := device.ArduinoDataDir(ctx.Env); err == nil {
			r.Details = []string{"arduino data dir: " + dir}
		}
	default:
		r.Status = StatusOK
		r.Message = c.path(ctx)
	}
	return r
}

// CanFix returns true; generation succeeds once the board package exists.
func (c *CppPropertiesCheck) CanFix() bool { return true }

// Fix regenerates the device metadata.
func (c *CppPropertiesCheck) Fix(ctx *CheckContext) error {
	dir := deviceRoot(ctx)
	if err := requireDir(ctx, dir); err != nil {
		return err
	}
	b, ok := board.Catalog{}.Find(ctx.Config.BoardID())
	if !ok {
		return &board.NotFoundError{ID: ctx.Config.BoardID()}
	}
	_, err := device.New(context.Background(), device.Params{
		Files:        ctx.Files,
		ScaffoldType: fsys.Local,
		Env:          ctx.Env,
		Channel:      io.Discard,
		Telemetry:    telemetry.NewContext(),
		RootPath:     dir,
		Board:        b,
	})
	return err
}

func requireDir(ctx *CheckContext, dir string) error {
	ok, err := ctx.Files.DirectoryExists(fsys.Local, dir)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%s does not exist", dir)
	}
	return nil
}
