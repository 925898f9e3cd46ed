package device

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"path/filepath"
	"strings"

	"github.com/iotworkbench/iotwb/internal/board"
	"github.com/iotworkbench/iotwb/internal/env"
	"github.com/iotworkbench/iotwb/internal/fsys"
	"github.com/iotworkbench/iotwb/internal/telemetry"
	"github.com/Masterminds/semver/v3"
	"github.com/tidwall/jsonc"
)

// ArduinoDevice is a device built with the Arduino toolchain.
type ArduinoDevice struct {
	p Params
}

func newArduinoDevice(ctx context.Context, p Params) (*ArduinoDevice, error) {
	d := &ArduinoDevice{p: p}
	if err := d.generateCppProperties(ctx); err != nil {
		return nil, err
	}
	return d, nil
}

// Board returns the target board.
func (d *ArduinoDevice) Board() board.Board { return d.p.Board }

// RootPath returns the device folder.
func (d *ArduinoDevice) RootPath() string { return d.p.RootPath }

// CppPropertiesPath returns the generated IntelliSense file path.
func (d *ArduinoDevice) CppPropertiesPath() string {
	return filepath.Join(d.p.RootPath, VSCodeFolderName, CppPropertiesFileName)
}

// Create writes the starter sketch, unless one exists, and the Arduino
// board settings.
func (d *ArduinoDevice) Create(_ context.Context) error {
	sketch := filepath.Join(d.p.RootPath, SketchFileName)
	exists, err := d.p.Files.FileExists(d.p.ScaffoldType, sketch)
	if err != nil {
		return err
	}
	if !exists {
		src, err := fs.ReadFile(d.p.Templates, path.Join(d.p.Board.ID, SketchFileName))
		if err != nil {
			return fmt.Errorf("reading sketch template for %s: %w", d.p.Board.ID, err)
		}
		if err := d.p.Files.WriteFile(d.p.ScaffoldType, sketch, src); err != nil {
			return err
		}
	}

	settings := struct {
		Board  string `json:"board"`
		Sketch string `json:"sketch"`
		Output string `json:"output"`
	}{d.p.Board.FQBN, SketchFileName, "./.build"}
	return d.p.Files.WriteJSONFile(d.p.ScaffoldType,
		filepath.Join(d.p.RootPath, VSCodeFolderName, ArduinoFileName), settings)
}

// generateCppProperties renders the board's c_cpp_properties.json template
// against the locally installed board package. Hosts without the package
// get a warning on the channel instead of a file.
func (d *ArduinoDevice) generateCppProperties(ctx context.Context) (err error) {
	skipped := false
	defer func() {
		telemetry.RecordDeviceGenerate(ctx, d.p.Telemetry, d.p.Board.ID, CppPropertiesFileName, skipped, err)
	}()

	dataDir, err := ArduinoDataDir(d.p.Env)
	if err != nil {
		return err
	}
	hwDir := filepath.Join(dataDir, "packages", d.p.Board.Package, "hardware", d.p.Board.Architecture)
	version, err := LatestPackageVersion(d.p.Files, hwDir)
	if err != nil {
		return err
	}
	if version == "" {
		skipped = true
		fmt.Fprintf(d.p.Channel, "warning: %s board package not found under %s; skipping %s\n", //nolint:errcheck // best-effort output
			d.p.Board.Package, hwDir, CppPropertiesFileName)
		return nil
	}

	tmpl, err := fs.ReadFile(d.p.Templates, path.Join(d.p.Board.ID, CppPropertiesFileName))
	if err != nil {
		return fmt.Errorf("reading %s template for %s: %w", CppPropertiesFileName, d.p.Board.ID, err)
	}
	doc, err := renderTemplate(tmpl, strings.NewReplacer(
		"{ROOTPATH}", filepath.ToSlash(dataDir),
		"{VERSION}", version,
	))
	if err != nil {
		return fmt.Errorf("parsing %s template for %s: %w", CppPropertiesFileName, d.p.Board.ID, err)
	}
	return d.p.Files.WriteJSONFile(d.p.ScaffoldType, d.CppPropertiesPath(), doc)
}

// ArduinoDataDir returns the Arduino IDE data directory for the host.
func ArduinoDataDir(e env.Provider) (string, error) {
	home, err := e.HomeDir()
	if err != nil {
		return "", err
	}
	switch e.Platform() {
	case env.Darwin:
		return filepath.Join(home, "Library", "Arduino15"), nil
	case env.Windows:
		return filepath.Join(home, "AppData", "Local", "Arduino15"), nil
	default:
		return filepath.Join(home, ".arduino15"), nil
	}
}

// LatestPackageVersion returns the highest version directory under hwDir
// on the local disk, or "" when hwDir does not exist or holds no directory
// named like a version. Prereleases rank below their release.
func LatestPackageVersion(files *fsys.Access, hwDir string) (string, error) {
	entries, err := files.ReadDir(fsys.Local, hwDir)
	if errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("listing board packages in %s: %w", hwDir, err)
	}
	var (
		latest     string
		latestVers *semver.Version
	)
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		v, err := semver.NewVersion(e.Name())
		if err != nil {
			continue
		}
		if latestVers == nil || v.GreaterThan(latestVers) {
			latest, latestVers = e.Name(), v
		}
	}
	return latest, nil
}

// renderTemplate decodes a JSONC template and replaces each placeholder
// inside its string values.
func renderTemplate(tmpl []byte, r *strings.Replacer) (any, error) {
	var doc any
	if err := json.Unmarshal(jsonc.ToJSON(tmpl), &doc); err != nil {
		return nil, err
	}
	return substitute(doc, r), nil
}

func substitute(v any, r *strings.Replacer) any {
	switch v := v.(type) {
	case string:
		return r.Replace(v)
	case []any:
		for i := range v {
			v[i] = substitute(v[i], r)
		}
	case map[string]any:
		for k := range v {
			v[k] = substitute(v[k], r)
		}
	}
	return v
}
