package project

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/iotworkbench/iotwb/internal/fsys"
	"github.com/tidwall/jsonc"
)

// HostType records the structural shape of a project.
type HostType string

const (
	// HostTypeUnknown is reported for folders without a readable marker.
	HostTypeUnknown HostType = "Unknown"
	// HostTypeWorkspace is a multi-folder IDE workspace with a device folder.
	HostTypeWorkspace HostType = "Workspace"
	// HostTypeContainer is a project developed inside a container.
	HostTypeContainer HostType = "Container"
)

// ParseHostType maps a marker value to a HostType. Unrecognized values map
// to [HostTypeUnknown].
func ParseHostType(s string) HostType {
	switch HostType(s) {
	case HostTypeWorkspace, HostTypeContainer:
		return HostType(s)
	default:
		return HostTypeUnknown
	}
}

// Marker file constants.
const (
	ProjectFileName    = ".iotworkbenchproject"
	ProjectFileVersion = "1.0.0"
)

// ProjectFile is the marker document kept in the device folder.
type ProjectFile struct {
	ProjectHostType HostType `json:"ProjectHostType" jsonschema:"enum=Unknown,enum=Workspace,enum=Container"`
	Version         string   `json:"version" jsonschema:"default=1.0.0"`
}

// MarkerPath returns the marker path inside deviceRoot.
func MarkerPath(deviceRoot string) string {
	return filepath.Join(deviceRoot, ProjectFileName)
}

// UpdateHostTypeConfig records hostType in the marker file at path.
//
// A missing marker is created with the current version. An existing marker
// is merged: ProjectHostType is replaced, version and any other fields are
// kept, and a missing version is filled in. Comments in an existing marker
// are tolerated but not preserved. Each successful call writes the file
// exactly once; a failed existence check or parse writes nothing.
func UpdateHostTypeConfig(files *fsys.Access, st fsys.ScaffoldType, path string, hostType HostType) error {
	exists, err := files.FileExists(st, path)
	if err != nil {
		return err
	}
	if !exists {
		return files.WriteJSONFile(st, path, ProjectFile{
			ProjectHostType: hostType,
			Version:         ProjectFileVersion,
		})
	}

	doc, err := readMarker(files, st, path)
	if err != nil {
		return err
	}
	doc["ProjectHostType"] = string(hostType)
	if v, ok := doc["version"].(string); !ok || v == "" {
		doc["version"] = ProjectFileVersion
	}
	return files.WriteJSONFile(st, path, doc)
}

// DetectHostType reads the marker in deviceRoot. A missing marker reports
// [HostTypeUnknown] without error.
func DetectHostType(files *fsys.Access, st fsys.ScaffoldType, deviceRoot string) (HostType, error) {
	path := MarkerPath(deviceRoot)
	exists, err := files.FileExists(st, path)
	if err != nil || !exists {
		return HostTypeUnknown, err
	}
	doc, err := readMarker(files, st, path)
	if err != nil {
		return HostTypeUnknown, err
	}
	s, _ := doc["ProjectHostType"].(string)
	return ParseHostType(s), nil
}

// readMarker decodes the marker at path into a generic document so unknown
// fields survive a rewrite. An empty file reads as an empty document.
func readMarker(files *fsys.Access, st fsys.ScaffoldType, path string) (map[string]any, error) {
	data, err := files.ReadFile(st, path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	doc := make(map[string]any)
	if len(bytes.TrimSpace(data)) == 0 {
		return doc, nil
	}
	if err := json.Unmarshal(jsonc.ToJSON(data), &doc); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if doc == nil {
		doc = make(map[string]any)
	}
	return doc, nil
}
