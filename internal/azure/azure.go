// Package azure maintains a project's Azure component registry, the
// JSON file under .azurecomponent/ listing the cloud components the device
// code talks to.
package azure

import (
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/iotworkbench/iotwb/internal/fsys"
)

// Registry location, relative to the project root.
const (
	FolderName = ".azurecomponent"
	FileName   = "azureconfig.json"
)

// ComponentType is the kind of Azure resource a component provisions.
type ComponentType string

// Known component types.
const (
	IoTHub             ComponentType = "IoTHub"
	IoTHubDevice       ComponentType = "IoTHubDevice"
	AzureFunctions     ComponentType = "AzureFunctions"
	StreamAnalyticsJob ComponentType = "StreamAnalyticsJob"
	CosmosDB           ComponentType = "CosmosDB"
)

// ParseComponentType matches s against the known types, case-sensitively.
func ParseComponentType(s string) (ComponentType, error) {
	switch t := ComponentType(s); t {
	case IoTHub, IoTHubDevice, AzureFunctions, StreamAnalyticsJob, CosmosDB:
		return t, nil
	}
	return "", fmt.Errorf("unknown component type %q", s)
}

// DependencyType describes how a component uses another.
type DependencyType string

// Dependency types.
const (
	Input  DependencyType = "Input"
	Output DependencyType = "Output"
	Other  DependencyType = "Other"
)

// DependencyConfig links a component to another component by ID.
type DependencyConfig struct {
	ID   string         `json:"id"`
	Type DependencyType `json:"type"`
}

// ComponentConfig is one registered Azure component.
type ComponentConfig struct {
	ID            string             `json:"id"`
	Folder        string             `json:"folder"`
	Name          string             `json:"name"`
	Dependencies  []DependencyConfig `json:"dependencies"`
	Type          ComponentType      `json:"type"`
	ComponentInfo map[string]string  `json:"componentInfo,omitempty"`
}

// Configs is the registry document.
type Configs struct {
	ComponentConfigs []ComponentConfig `json:"componentConfigs"`
}

// Empty returns a registry with no components. It encodes as
// {"componentConfigs": []}, never null.
func Empty() Configs {
	return Configs{ComponentConfigs: []ComponentConfig{}}
}

// ConfigPath returns the registry path under projectRoot.
func ConfigPath(projectRoot string) string {
	return filepath.Join(projectRoot, FolderName, FileName)
}

// FileHandler reads and writes one project's registry.
type FileHandler struct {
	files *fsys.Access
	path  string
}

// NewFileHandler returns a handler for the registry of projectRoot.
func NewFileHandler(files *fsys.Access, projectRoot string) *FileHandler {
	return &FileHandler{files: files, path: ConfigPath(projectRoot)}
}

// Path returns the registry file path.
func (h *FileHandler) Path() string { return h.path }

// Reset overwrites the registry with [Empty], whatever it held before.
func (h *FileHandler) Reset(st fsys.ScaffoldType) error {
	return h.files.WriteJSONFile(st, h.path, Empty())
}

// Load reads the registry.
func (h *FileHandler) Load(st fsys.ScaffoldType) (*Configs, error) {
	data, err := h.files.ReadFile(st, h.path)
	if err != nil {
		return nil, fmt.Errorf("reading azure config: %w", err)
	}
	var c Configs
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parsing azure config %s: %w", h.path, err)
	}
	if c.ComponentConfigs == nil {
		c.ComponentConfigs = []ComponentConfig{}
	}
	return &c, nil
}

// Component returns the component with the given ID.
func (h *FileHandler) Component(st fsys.ScaffoldType, id string) (ComponentConfig, bool, error) {
	c, err := h.Load(st)
	if err != nil {
		return ComponentConfig{}, false, err
	}
	for _, cc := range c.ComponentConfigs {
		if cc.ID == id {
			return cc, true, nil
		}
	}
	return ComponentConfig{}, false, nil
}

// Append adds cc to the registry and returns it with its ID filled in.
// A random UUID is assigned when cc.ID is empty; an ID already present is
// rejected.
func (h *FileHandler) Append(st fsys.ScaffoldType, cc ComponentConfig) (ComponentConfig, error) {
	c, err := h.Load(st)
	if err != nil {
		return ComponentConfig{}, err
	}
	if cc.ID == "" {
		cc.ID = uuid.NewString()
	}
	if cc.Dependencies == nil {
		cc.Dependencies = []DependencyConfig{}
	}
	for _, existing := range c.ComponentConfigs {
		if existing.ID == cc.ID {
			return ComponentConfig{}, fmt.Errorf("azure component %s already registered", cc.ID)
		}
	}
	for _, dep := range cc.Dependencies {
		if !containsID(c.ComponentConfigs, dep.ID) {
			return ComponentConfig{}, fmt.Errorf("azure component %s depends on unknown component %s", cc.ID, dep.ID)
		}
	}
	c.ComponentConfigs = append(c.ComponentConfigs, cc)
	if err := h.files.WriteJSONFile(st, h.path, c); err != nil {
		return ComponentConfig{}, err
	}
	return cc, nil
}

// Update replaces the component with ID id, keeping its ID.
func (h *FileHandler) Update(st fsys.ScaffoldType, id string, cc ComponentConfig) error {
	c, err := h.Load(st)
	if err != nil {
		return err
	}
	for i := range c.ComponentConfigs {
		if c.ComponentConfigs[i].ID == id {
			cc.ID = id
			if cc.Dependencies == nil {
				cc.Dependencies = []DependencyConfig{}
			}
			c.ComponentConfigs[i] = cc
			return h.files.WriteJSONFile(st, h.path, c)
		}
	}
	return fmt.Errorf("azure component %s not found", id)
}

func containsID(ccs []ComponentConfig, id string) bool {
	for _, cc := range ccs {
		if cc.ID == id {
			return true
		}
	}
	return false
}
