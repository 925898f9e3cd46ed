package project

import (
	"path/filepath"
	"strings"

	"github.com/iotworkbench/iotwb/internal/config"
	"github.com/iotworkbench/iotwb/internal/fsys"
)

// WorkspaceExtension is the file extension of IDE workspace files.
const WorkspaceExtension = ".code-workspace"

// Workspace file settings keys.
const (
	SettingDevicePath = "IoTWorkbench.DevicePath"
	SettingBoardID    = "IoTWorkbench.BoardId"
)

type workspaceFolder struct {
	Path string `json:"path"`
}

type workspaceFile struct {
	Folders  []workspaceFolder `json:"folders"`
	Settings map[string]string `json:"settings"`
}

// ResolveWorkspaceFile returns the name of the workspace file in root. The
// first *.code-workspace file in name order wins; when there is none,
// <name>.code-workspace is created from cfg.
func ResolveWorkspaceFile(files *fsys.Access, st fsys.ScaffoldType, root string, cfg config.Project) (string, error) {
	entries, err := files.ReadDir(st, root)
	if err != nil {
		return "", err
	}
	for _, e := range entries {
		if !e.IsDir() && hasWorkspaceExt(e.Name()) {
			return e.Name(), nil
		}
	}

	name := cfg.Workspace.Name
	if name == "" {
		name = filepath.Base(root)
	}
	name += WorkspaceExtension
	doc := workspaceFile{
		Folders: []workspaceFolder{{Path: cfg.DeviceFolder()}},
		Settings: map[string]string{
			SettingDevicePath: cfg.DeviceFolder(),
			SettingBoardID:    cfg.BoardID(),
		},
	}
	if err := files.WriteJSONFile(st, filepath.Join(root, name), doc); err != nil {
		return "", err
	}
	return name, nil
}

func hasWorkspaceExt(name string) bool {
	return strings.HasSuffix(name, WorkspaceExtension) && name != WorkspaceExtension
}
