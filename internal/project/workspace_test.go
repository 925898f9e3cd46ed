package project

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"path/filepath"
	"strings"
	"testing"

	"github.com/iotworkbench/iotwb/internal/azure"
	"github.com/iotworkbench/iotwb/internal/board"
	"github.com/iotworkbench/iotwb/internal/config"
	"github.com/iotworkbench/iotwb/internal/device"
	"github.com/iotworkbench/iotwb/internal/env"
	"github.com/iotworkbench/iotwb/internal/fsys"
	"github.com/iotworkbench/iotwb/internal/telemetry"
)

const (
	projectRoot = "project-root-path"
	deviceDir   = "Device"
)

var deviceRoot = filepath.Join(projectRoot, deviceDir)

const (
	wantMarker = "{\n  \"ProjectHostType\": \"Workspace\",\n  \"version\": \"1.0.0\"\n}\n"
	wantAzure  = "{\n  \"componentConfigs\": []\n}\n"
)

type spyDevice struct {
	p       device.Params
	created int
}

func (d *spyDevice) Board() board.Board { return d.p.Board }
func (d *spyDevice) RootPath() string   { return d.p.RootPath }
func (d *spyDevice) Create(context.Context) error {
	d.created++
	return nil
}

// deviceSpy returns a constructor that records every device it builds.
func deviceSpy() (device.Constructor, *[]*spyDevice) {
	var built []*spyDevice
	return func(_ context.Context, p device.Params) (device.Device, error) {
		d := &spyDevice{p: p}
		built = append(built, d)
		return d, nil
	}, &built
}

func testHost(f *fsys.Fake, newDevice device.Constructor) Host {
	return Host{
		Files:     fsys.NewSingleViewAccess(f),
		Config:    config.Project{Workspace: config.Workspace{Name: "test"}, Device: config.Device{Folder: deviceDir, Board: board.DevKitID}},
		Env:       env.Fixed{OS: env.Linux, Home: "root"},
		NewDevice: newDevice,
	}
}

func TestNewEmptyRootPath(t *testing.T) {
	f := fsys.NewFake()
	ctor, built := deviceSpy()
	hosts := map[string]Host{
		"zero host": {},
		"full host": testHost(f, ctor),
	}
	channels := map[string]io.Writer{"nil channel": nil, "buffer": &bytes.Buffer{}}
	tels := map[string]*telemetry.Context{"nil telemetry": nil, "context": telemetry.NewContext()}

	for hn, h := range hosts {
		for cn, ch := range channels {
			for tn, tc := range tels {
				t.Run(hn+"/"+cn+"/"+tn, func(t *testing.T) {
					w, err := New(h, ch, tc, "")
					if w != nil {
						t.Error("New returned a controller")
					}
					var argErr *ArgumentEmptyOrNullError
					if !errors.As(err, &argErr) {
						t.Fatalf("err = %v, want *ArgumentEmptyOrNullError", err)
					}
					if argErr.Argument != "project root path" {
						t.Errorf("Argument = %q", argErr.Argument)
					}
				})
			}
		}
	}
	if len(f.Calls) != 0 || len(*built) != 0 {
		t.Errorf("construction did I/O: calls=%v devices=%d", f.Calls, len(*built))
	}
}

func TestNewRequiresFileAccess(t *testing.T) {
	_, err := New(Host{}, nil, nil, projectRoot)
	var argErr *ArgumentEmptyOrNullError
	if !errors.As(err, &argErr) || argErr.Argument != "file access layer" {
		t.Fatalf("err = %v, want missing file access layer", err)
	}
}

func TestLoadMissingDeviceRoot(t *testing.T) {
	f := fsys.NewFake()
	f.Dirs[projectRoot] = true
	ctor, built := deviceSpy()
	w, err := New(testHost(f, ctor), nil, nil, projectRoot)
	if err != nil {
		t.Fatal(err)
	}

	err = w.Load(context.Background(), fsys.Local, false)
	var dnf *DirectoryNotFoundError
	if !errors.As(err, &dnf) {
		t.Fatalf("err = %v, want *DirectoryNotFoundError", err)
	}
	if dnf.Directory != "device root path "+deviceRoot {
		t.Errorf("Directory = %q", dnf.Directory)
	}
	want := "Failed to load iot workspace project: Directory device root path " + deviceRoot +
		" does not exist. Please initialize the project first."
	if err.Error() != want {
		t.Errorf("Error() = %q\nwant      %q", err.Error(), want)
	}
	if w := f.Writes(); len(w) != 0 {
		t.Errorf("writes = %v, want none", w)
	}
	if len(*built) != 0 {
		t.Errorf("device constructed %d times", len(*built))
	}
	if len(f.Calls) != 1 || f.Calls[0].Method != "Stat" || f.Calls[0].Path != deviceRoot {
		t.Errorf("calls = %v, want a single Stat of the device root", f.Calls)
	}
}

func TestLoadRejectsDeviceFolderOutsideRoot(t *testing.T) {
	for _, folder := range []string{"../outside", "a/b", "/abs", ".."} {
		t.Run(folder, func(t *testing.T) {
			f := fsys.NewFake()
			f.Dirs["outside"] = true
			f.Dirs[projectRoot] = true
			ctor, built := deviceSpy()
			h := testHost(f, ctor)
			h.Config.Device.Folder = folder
			w, err := New(h, nil, nil, projectRoot)
			if err != nil {
				t.Fatal(err)
			}

			err = w.Load(context.Background(), fsys.Local, false)
			if err == nil || !strings.Contains(err.Error(), "must be a single folder name") {
				t.Fatalf("err = %v, want a device folder error", err)
			}
			if len(f.Calls) != 0 {
				t.Errorf("calls = %v, want none", f.Calls)
			}
			if len(*built) != 0 {
				t.Errorf("device constructed %d times", len(*built))
			}
		})
	}
}

func loadedFake(t *testing.T) (*fsys.Fake, *Workspace, *[]*spyDevice) {
	t.Helper()
	f := fsys.NewFake()
	f.Dirs[deviceRoot] = true
	ctor, built := deviceSpy()
	w, err := New(testHost(f, ctor), nil, nil, projectRoot)
	if err != nil {
		t.Fatal(err)
	}
	return f, w, built
}

func TestLoadWritesMarkerOnce(t *testing.T) {
	f, w, _ := loadedFake(t)
	if err := w.Load(context.Background(), fsys.Local, false); err != nil {
		t.Fatalf("Load: %v", err)
	}
	marker := filepath.Join(deviceRoot, ProjectFileName)
	if n := f.WriteCount(marker); n != 1 {
		t.Errorf("marker written %d times, want 1", n)
	}
	if got := string(f.Files[marker]); got != wantMarker {
		t.Errorf("marker = %q, want %q", got, wantMarker)
	}
}

func TestLoadResetsAzureConfigOnce(t *testing.T) {
	f, w, _ := loadedFake(t)
	path := azure.ConfigPath(projectRoot)
	f.Files[path] = []byte(`{"componentConfigs":[{"id":"x","folder":"f","name":"hub","dependencies":[],"type":"IoTHub"}]}`)

	if err := w.Load(context.Background(), fsys.Local, false); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if n := f.WriteCount(path); n != 1 {
		t.Errorf("azure config written %d times, want 1", n)
	}
	if got := string(f.Files[path]); got != wantAzure {
		t.Errorf("azure config = %q, want %q", got, wantAzure)
	}
}

func TestLoadConstructsDeviceAtDeviceRoot(t *testing.T) {
	_, w, built := loadedFake(t)
	if err := w.Load(context.Background(), fsys.Workspace, true); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(*built) != 1 {
		t.Fatalf("device constructed %d times, want 1", len(*built))
	}
	p := (*built)[0].p
	if p.RootPath != deviceRoot {
		t.Errorf("RootPath = %q, want %q", p.RootPath, deviceRoot)
	}
	if p.Board.ID != board.DevKitID {
		t.Errorf("Board = %q, want devkit", p.Board.ID)
	}
	if p.ScaffoldType != fsys.Workspace {
		t.Errorf("ScaffoldType = %s, want workspace", p.ScaffoldType)
	}
	if (*built)[0].created != 0 {
		t.Error("Load called Device.Create")
	}
	if w.Device() != (*built)[0] {
		t.Error("Device() does not return the constructed device")
	}
}

func TestLoadStepOrder(t *testing.T) {
	f, w, _ := loadedFake(t)
	if err := w.Load(context.Background(), fsys.Local, false); err != nil {
		t.Fatalf("Load: %v", err)
	}
	want := []string{
		filepath.Join(projectRoot, "test"+WorkspaceExtension),
		filepath.Join(deviceRoot, ProjectFileName),
		azure.ConfigPath(projectRoot),
	}
	got := f.Writes()
	// Each atomic write shows up as the temp file then its destination.
	var dests []string
	for _, p := range got {
		if !strings.HasSuffix(p, ".tmp") {
			dests = append(dests, p)
		}
	}
	if strings.Join(dests, "\n") != strings.Join(want, "\n") {
		t.Errorf("write order = %v, want %v", dests, want)
	}
}

func TestLoadPropagatesErrors(t *testing.T) {
	boom := errors.New("boom")

	t.Run("azure write", func(t *testing.T) {
		f, w, built := loadedFake(t)
		f.Errors[azure.ConfigPath(projectRoot)+".tmp"] = boom
		err := w.Load(context.Background(), fsys.Local, false)
		if !errors.Is(err, boom) {
			t.Fatalf("err = %v, want boom", err)
		}
		if len(*built) != 0 {
			t.Error("device constructed after failed step")
		}
		// No rollback: the marker written before the failure stays.
		if _, ok := f.Files[filepath.Join(deviceRoot, ProjectFileName)]; !ok {
			t.Error("marker missing after failed load")
		}
	})

	t.Run("device constructor", func(t *testing.T) {
		f := fsys.NewFake()
		f.Dirs[deviceRoot] = true
		ctor := func(context.Context, device.Params) (device.Device, error) { return nil, boom }
		w, err := New(testHost(f, ctor), nil, nil, projectRoot)
		if err != nil {
			t.Fatal(err)
		}
		if err := w.Load(context.Background(), fsys.Local, false); err != boom { //nolint:errorlint // identity check
			t.Fatalf("err = %v, want boom unchanged", err)
		}
	})

	t.Run("unknown board", func(t *testing.T) {
		f, w, built := loadedFake(t)
		w.host.Config.Device.Board = "nope"
		err := w.Load(context.Background(), fsys.Local, false)
		var nf *board.NotFoundError
		if !errors.As(err, &nf) || nf.ID != "nope" {
			t.Fatalf("err = %v, want board not found", err)
		}
		if len(*built) != 0 {
			t.Error("device constructed for unknown board")
		}
		if f.WriteCount(azure.ConfigPath(projectRoot)) != 1 {
			t.Error("azure config not reset before board lookup")
		}
	})

	t.Run("stat", func(t *testing.T) {
		f, w, _ := loadedFake(t)
		f.Errors[deviceRoot] = boom
		if err := w.Load(context.Background(), fsys.Local, false); !errors.Is(err, boom) {
			t.Fatalf("err = %v, want boom", err)
		}
		if len(f.Writes()) != 0 {
			t.Errorf("writes = %v, want none", f.Writes())
		}
	})
}

func TestLoadRecordsTelemetryProperties(t *testing.T) {
	f := fsys.NewFake()
	f.Dirs[deviceRoot] = true
	ctor, _ := deviceSpy()
	tel := telemetry.NewContext()
	w, err := New(testHost(f, ctor), nil, tel, projectRoot)
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Load(context.Background(), fsys.Local, false); err != nil {
		t.Fatal(err)
	}
	if tel.Properties["projectHostType"] != "Workspace" || tel.Properties["scaffoldType"] != "local" {
		t.Errorf("properties = %v", tel.Properties)
	}
}

// TestLoadEndToEnd runs Load with the real device generator against an
// in-memory disk that has the AZ3166 board package installed.
func TestLoadEndToEnd(t *testing.T) {
	f := fsys.NewFake()
	f.Dirs[deviceRoot] = true
	f.Dirs["root/.arduino15/packages/AZ3166/hardware/stm32f4/9.9.9"] = true

	var channel bytes.Buffer
	h := testHost(f, nil)
	w, err := New(h, &channel, telemetry.NewContext(), projectRoot)
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Load(context.Background(), fsys.Local, false); err != nil {
		t.Fatalf("Load: %v", err)
	}

	if got := string(f.Files[filepath.Join(deviceRoot, ProjectFileName)]); got != wantMarker {
		t.Errorf("marker = %q", got)
	}
	if got := string(f.Files[filepath.Join(projectRoot, ".azurecomponent", "azureconfig.json")]); got != wantAzure {
		t.Errorf("azure config = %q", got)
	}
	d := w.Device()
	if d == nil || d.RootPath() != deviceRoot || d.Board().ID != "devkit" {
		t.Fatalf("device = %+v", d)
	}

	cpp := f.Files[filepath.Join(deviceRoot, ".vscode", "c_cpp_properties.json")]
	if !bytes.Contains(cpp, []byte("root/.arduino15/packages/AZ3166/hardware/stm32f4/9.9.9/**")) {
		t.Errorf("c_cpp_properties.json missing versioned include path:\n%s", cpp)
	}
	if channel.Len() != 0 {
		t.Errorf("channel = %q", channel.String())
	}
	if w.WorkspaceFile() != "test.code-workspace" {
		t.Errorf("WorkspaceFile = %q", w.WorkspaceFile())
	}
}

func TestCreate(t *testing.T) {
	f := fsys.NewFake()
	ctor, built := deviceSpy()
	w, err := New(testHost(f, ctor), nil, nil, projectRoot)
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Create(context.Background(), fsys.Local, CreateOptions{Board: board.ESP32ID}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	if !f.Dirs[deviceRoot] {
		t.Error("device root not created")
	}
	cfg, err := config.Parse(f.Files[filepath.Join(projectRoot, config.FileName)])
	if err != nil {
		t.Fatalf("config: %v", err)
	}
	if cfg.BoardID() != board.ESP32ID {
		t.Errorf("config board = %q, want esp32", cfg.BoardID())
	}
	if got := string(f.Files[filepath.Join(deviceRoot, ProjectFileName)]); got != wantMarker {
		t.Errorf("marker = %q", got)
	}
	if len(*built) != 1 || (*built)[0].created != 1 {
		t.Fatalf("devices = %d, want one created device", len(*built))
	}
	if (*built)[0].p.Board.ID != board.ESP32ID {
		t.Errorf("device board = %q", (*built)[0].p.Board.ID)
	}
	if w.Config().BoardID() != board.ESP32ID {
		t.Errorf("Config().BoardID() = %q", w.Config().BoardID())
	}
}

func TestCreateRefusesExistingProject(t *testing.T) {
	f := fsys.NewFake()
	f.Dirs[deviceRoot] = true
	f.Files[filepath.Join(deviceRoot, ProjectFileName)] = []byte(wantMarker)
	ctor, _ := deviceSpy()
	w, err := New(testHost(f, ctor), nil, nil, projectRoot)
	if err != nil {
		t.Fatal(err)
	}

	err = w.Create(context.Background(), fsys.Local, CreateOptions{})
	if !errors.Is(err, ErrProjectExists) {
		t.Fatalf("err = %v, want ErrProjectExists", err)
	}
	if len(f.Writes()) != 0 {
		t.Errorf("writes = %v, want none", f.Writes())
	}

	if err := w.Create(context.Background(), fsys.Local, CreateOptions{Overwrite: true}); err != nil {
		t.Fatalf("Create with Overwrite: %v", err)
	}
}

func TestCreateUnknownBoard(t *testing.T) {
	f := fsys.NewFake()
	ctor, _ := deviceSpy()
	w, err := New(testHost(f, ctor), nil, nil, projectRoot)
	if err != nil {
		t.Fatal(err)
	}
	err = w.Create(context.Background(), fsys.Local, CreateOptions{Board: "nope"})
	var nf *board.NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("err = %v, want board not found", err)
	}
	if len(f.Calls) != 0 {
		t.Errorf("calls = %v, want none", f.Calls)
	}
}

func TestCreateStagedCommitsAsUnit(t *testing.T) {
	base := fsys.NewFake()
	staged := fsys.NewStaged(base)
	ctor, _ := deviceSpy()
	h := testHost(base, ctor)
	h.Files = fsys.NewAccess(base, staged)
	w, err := New(h, nil, nil, projectRoot)
	if err != nil {
		t.Fatal(err)
	}

	if err := w.Create(context.Background(), fsys.Workspace, CreateOptions{}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if len(base.Writes()) != 0 {
		t.Fatalf("base written before commit: %v", base.Writes())
	}
	pending := staged.Pending()
	want := []string{
		azure.ConfigPath(projectRoot),
		filepath.Join(deviceRoot, ProjectFileName),
		filepath.Join(projectRoot, config.FileName),
		filepath.Join(projectRoot, "test"+WorkspaceExtension),
	}
	if strings.Join(pending, "\n") != strings.Join(want, "\n") {
		t.Errorf("pending = %v, want %v", pending, want)
	}

	if err := staged.Commit(); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if got := string(base.Files[filepath.Join(deviceRoot, ProjectFileName)]); got != wantMarker {
		t.Errorf("committed marker = %q", got)
	}
}

func TestWorkspaceFileSettings(t *testing.T) {
	f, w, _ := loadedFake(t)
	if err := w.Load(context.Background(), fsys.Local, false); err != nil {
		t.Fatal(err)
	}
	var doc struct {
		Folders  []struct{ Path string } `json:"folders"`
		Settings map[string]string      `json:"settings"`
	}
	if err := json.Unmarshal(f.Files[filepath.Join(projectRoot, "test.code-workspace")], &doc); err != nil {
		t.Fatal(err)
	}
	if len(doc.Folders) != 1 || doc.Folders[0].Path != deviceDir {
		t.Errorf("folders = %+v", doc.Folders)
	}
	if doc.Settings[SettingDevicePath] != deviceDir || doc.Settings[SettingBoardID] != board.DevKitID {
		t.Errorf("settings = %v", doc.Settings)
	}
}
