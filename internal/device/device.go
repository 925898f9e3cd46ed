// Package device generates and maintains the per-device folder of an IoT
// workspace project: IntelliSense metadata on construction, and starter
// sources when a project is created.
//
// Boards form a closed set ([board.Kind]); [New] selects the generator for
// a board and every generator shares the [Params] contract.
package device

import (
	"context"
	"embed"
	"fmt"
	"io"
	"io/fs"

	"github.com/iotworkbench/iotwb/internal/board"
	"github.com/iotworkbench/iotwb/internal/env"
	"github.com/iotworkbench/iotwb/internal/fsys"
	"github.com/iotworkbench/iotwb/internal/telemetry"
)

// Files written under the device root.
const (
	VSCodeFolderName      = ".vscode"
	CppPropertiesFileName = "c_cpp_properties.json"
	ArduinoFileName       = "arduino.json"
	SketchFileName        = "device.ino"
)

//go:embed templates
var templateFS embed.FS

// DefaultTemplates returns the built-in templates, laid out as
// <board-id>/<file>.
func DefaultTemplates() fs.FS {
	sub, err := fs.Sub(templateFS, "templates")
	if err != nil {
		panic(err) // embedded path is fixed at build time
	}
	return sub
}

// Device is one physical device folder inside a project.
type Device interface {
	// Board returns the board the device targets.
	Board() board.Board
	// RootPath returns the device folder.
	RootPath() string
	// Create writes the starter sources of a new device folder.
	Create(ctx context.Context) error
}

// Params carries everything a device generator needs.
type Params struct {
	Files        *fsys.Access
	ScaffoldType fsys.ScaffoldType
	Env          env.Provider
	// Templates defaults to DefaultTemplates when nil.
	Templates fs.FS
	Channel   io.Writer
	Telemetry *telemetry.Context
	RootPath  string
	Board     board.Board
}

// Constructor builds a Device, performing any board-specific generation.
type Constructor func(ctx context.Context, p Params) (Device, error)

// New is the production [Constructor].
func New(ctx context.Context, p Params) (Device, error) {
	if p.Templates == nil {
		p.Templates = DefaultTemplates()
	}
	if p.Channel == nil {
		p.Channel = io.Discard
	}
	if p.Env == nil {
		p.Env = env.OS{}
	}
	p.Telemetry.SetProperty("boardId", p.Board.ID)

	switch p.Board.Kind {
	case board.KindAZ3166, board.KindESP32:
		d, err := newArduinoDevice(ctx, p)
		if err != nil {
			return nil, err
		}
		return d, nil
	default:
		return nil, fmt.Errorf("no device generator for board %q (%s)", p.Board.ID, p.Board.Kind)
	}
}

var _ Constructor = New
