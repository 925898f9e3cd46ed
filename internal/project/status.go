package project

import (
	"github.com/iotworkbench/iotwb/internal/azure"
	"github.com/iotworkbench/iotwb/internal/fsys"
)

// Status is a read-only snapshot of a project on disk.
type Status struct {
	Root             string
	DeviceRoot       string
	DeviceRootExists bool
	HostType         HostType
	WorkspaceFile    string // empty when none exists
	Board            string
	AzureComponents  int // -1 when the registry is missing or unreadable
}

// Inspect reports the state of the project without writing anything.
func (w *Workspace) Inspect(st fsys.ScaffoldType) (*Status, error) {
	s := &Status{
		Root:            w.root,
		DeviceRoot:      w.DeviceRoot(),
		HostType:        HostTypeUnknown,
		Board:           w.host.Config.BoardID(),
		AzureComponents: -1,
	}
	var err error
	s.DeviceRootExists, err = w.host.Files.DirectoryExists(st, s.DeviceRoot)
	if err != nil {
		return nil, err
	}
	if s.DeviceRootExists {
		if s.HostType, err = DetectHostType(w.host.Files, st, s.DeviceRoot); err != nil {
			return nil, err
		}
	}

	if entries, err := w.host.Files.ReadDir(st, w.root); err == nil {
		for _, e := range entries {
			if !e.IsDir() && hasWorkspaceExt(e.Name()) {
				s.WorkspaceFile = e.Name()
				break
			}
		}
	}
	if c, err := azure.NewFileHandler(w.host.Files, w.root).Load(st); err == nil {
		s.AzureComponents = len(c.ComponentConfigs)
	}
	return s, nil
}
