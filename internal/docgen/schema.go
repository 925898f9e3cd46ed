// Package docgen generates JSON Schema and markdown reference documents for
// the files iotwb reads and writes, and for its command tree.
package docgen

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/invopop/jsonschema"
	"github.com/iotworkbench/iotwb/internal/azure"
	"github.com/iotworkbench/iotwb/internal/config"
	"github.com/iotworkbench/iotwb/internal/project"
)

const modulePath = "github.com/iotworkbench/iotwb"

// ModuleRoot walks up from the working directory to the directory holding
// go.mod.
func ModuleRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("getting working directory: %w", err)
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("go.mod not found in any parent of %s", dir)
		}
		dir = parent
	}
}

// newReflector returns a reflector naming fields by tag ("toml", or "" for
// json) with doc comments read from the given package directories.
//
// AddGoComments derives import paths from the walked paths, so it runs with
// the working directory at the module root and package-relative dirs.
func newReflector(tag string, pkgDirs ...string) (*jsonschema.Reflector, error) {
	root, err := ModuleRoot()
	if err != nil {
		return nil, err
	}
	orig, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("getting working directory: %w", err)
	}
	if err := os.Chdir(root); err != nil {
		return nil, fmt.Errorf("chdir to module root: %w", err)
	}
	defer func() { _ = os.Chdir(orig) }()

	r := &jsonschema.Reflector{FieldNameTag: tag}
	for _, dir := range pkgDirs {
		if err := r.AddGoComments(modulePath, dir); err != nil {
			return nil, fmt.Errorf("extracting Go comments from %s: %w", dir, err)
		}
	}
	return r, nil
}

// GenerateProjectConfigSchema reflects iotworkbench.toml.
func GenerateProjectConfigSchema() (*jsonschema.Schema, error) {
	r, err := newReflector("toml", "internal/config")
	if err != nil {
		return nil, err
	}
	s := r.Reflect(&config.Project{})
	s.Title = "IoT Workbench Project Configuration"
	s.Description = "Schema for " + config.FileName + ", stored at the project root."
	return s, nil
}

// GenerateMarkerSchema reflects the device folder's host-type marker.
func GenerateMarkerSchema() (*jsonschema.Schema, error) {
	r, err := newReflector("", "internal/project")
	if err != nil {
		return nil, err
	}
	s := r.Reflect(&project.ProjectFile{})
	s.Title = "IoT Workbench Project Marker"
	s.Description = "Schema for " + project.ProjectFileName + ", stored in the device folder."
	return s, nil
}

// GenerateAzureSchema reflects the Azure component registry.
func GenerateAzureSchema() (*jsonschema.Schema, error) {
	r, err := newReflector("", "internal/azure")
	if err != nil {
		return nil, err
	}
	s := r.Reflect(&azure.Configs{})
	s.Title = "Azure Component Registry"
	s.Description = "Schema for " + filepath.ToSlash(filepath.Join(azure.FolderName, azure.FileName)) + "."
	return s, nil
}

// Document is one generated schema with its output names.
type Document struct {
	Name   string // base name for docs/schema/<Name>.json and docs/reference/<Name>.md
	Schema *jsonschema.Schema
}

// Documents generates every file schema.
func Documents() ([]Document, error) {
	gens := []struct {
		name string
		gen  func() (*jsonschema.Schema, error)
	}{
		{"iotworkbench", GenerateProjectConfigSchema},
		{"project-marker", GenerateMarkerSchema},
		{"azureconfig", GenerateAzureSchema},
	}
	docs := make([]Document, 0, len(gens))
	for _, g := range gens {
		s, err := g.gen()
		if err != nil {
			return nil, fmt.Errorf("generating %s schema: %w", g.name, err)
		}
		docs = append(docs, Document{Name: g.name, Schema: s})
	}
	return docs, nil
}
