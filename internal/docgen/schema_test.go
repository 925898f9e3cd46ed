package docgen

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/invopop/jsonschema"
)

// defProperties extracts the properties map for a named $defs entry.
func defProperties(t *testing.T, s *jsonschema.Schema, defName string) map[string]any {
	t.Helper()
	data, err := json.Marshal(s)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	defs, ok := raw["$defs"].(map[string]any)
	if !ok {
		t.Fatal("no $defs")
	}
	def, ok := defs[defName].(map[string]any)
	if !ok {
		t.Fatalf("no %s definition in $defs", defName)
	}
	props, ok := def["properties"].(map[string]any)
	if !ok {
		t.Fatalf("%s has no properties", defName)
	}
	return props
}

func TestGenerateProjectConfigSchema(t *testing.T) {
	s, err := GenerateProjectConfigSchema()
	if err != nil {
		t.Fatal(err)
	}
	for def, fields := range map[string][]string{
		"Project":   {"workspace", "device"},
		"Device":    {"folder", "board"},
		"Workspace": {"name"},
	} {
		props := defProperties(t, s, def)
		for _, f := range fields {
			if _, ok := props[f]; !ok {
				t.Errorf("%s missing TOML property %q", def, f)
			}
		}
	}
	if _, ok := defProperties(t, s, "Device")["Folder"]; ok {
		t.Error("Go field name leaked into schema")
	}
}

func TestProjectConfigSchemaDescriptions(t *testing.T) {
	s, err := GenerateProjectConfigSchema()
	if err != nil {
		t.Fatal(err)
	}
	name, _ := defProperties(t, s, "Workspace")["name"].(map[string]any)
	desc, _ := name["description"].(string)
	if !strings.Contains(desc, "project name") {
		t.Errorf("workspace.name description = %q, want doc comment", desc)
	}
}

func TestGenerateMarkerSchema(t *testing.T) {
	s, err := GenerateMarkerSchema()
	if err != nil {
		t.Fatal(err)
	}
	props := defProperties(t, s, "ProjectFile")
	ht, ok := props["ProjectHostType"].(map[string]any)
	if !ok {
		t.Fatalf("missing ProjectHostType: %v", props)
	}
	if enum, _ := ht["enum"].([]any); len(enum) != 3 {
		t.Errorf("ProjectHostType enum = %v, want 3 values", ht["enum"])
	}
	if _, ok := props["version"]; !ok {
		t.Error("missing version")
	}
}

func TestGenerateAzureSchema(t *testing.T) {
	s, err := GenerateAzureSchema()
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := defProperties(t, s, "Configs")["componentConfigs"]; !ok {
		t.Error("Configs missing componentConfigs")
	}
	props := defProperties(t, s, "ComponentConfig")
	for _, f := range []string{"id", "folder", "name", "dependencies", "type", "componentInfo"} {
		if _, ok := props[f]; !ok {
			t.Errorf("ComponentConfig missing %q", f)
		}
	}
}

func TestDocuments(t *testing.T) {
	docs, err := Documents()
	if err != nil {
		t.Fatal(err)
	}
	var names []string
	for _, d := range docs {
		if d.Schema == nil || d.Schema.Title == "" {
			t.Errorf("%s: schema missing or untitled", d.Name)
		}
		names = append(names, d.Name)
	}
	if got := strings.Join(names, ","); got != "iotworkbench,project-marker,azureconfig" {
		t.Errorf("names = %s", got)
	}
}
