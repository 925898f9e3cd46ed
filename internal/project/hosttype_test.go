package project

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/iotworkbench/iotwb/internal/fsys"
)

const markerPath = "root/Device/.iotworkbenchproject"

func readJSON(t *testing.T, f *fsys.Fake, path string) map[string]any {
	t.Helper()
	var doc map[string]any
	if err := json.Unmarshal(f.Files[path], &doc); err != nil {
		t.Fatalf("decoding %s: %v\n%s", path, err, f.Files[path])
	}
	return doc
}

func TestUpdateHostTypeConfigCreates(t *testing.T) {
	f := fsys.NewFake()
	files := fsys.NewSingleViewAccess(f)
	if err := UpdateHostTypeConfig(files, fsys.Local, markerPath, HostTypeWorkspace); err != nil {
		t.Fatal(err)
	}
	if n := f.WriteCount(markerPath); n != 1 {
		t.Errorf("WriteCount = %d, want 1", n)
	}
	if got := string(f.Files[markerPath]); got != wantMarker {
		t.Errorf("marker = %q, want %q", got, wantMarker)
	}
}

func TestUpdateHostTypeConfigTwiceKeepsFields(t *testing.T) {
	f := fsys.NewFake()
	files := fsys.NewSingleViewAccess(f)
	if err := UpdateHostTypeConfig(files, fsys.Local, markerPath, HostTypeWorkspace); err != nil {
		t.Fatal(err)
	}
	if _, ok := f.Files[markerPath]; !ok {
		t.Fatal("first call did not create the marker")
	}

	// Something else adds a field between the two calls.
	doc := readJSON(t, f, markerPath)
	doc["owner"] = "firmware-team"
	data, _ := json.Marshal(doc)
	f.Files[markerPath] = data

	if err := UpdateHostTypeConfig(files, fsys.Local, markerPath, HostTypeContainer); err != nil {
		t.Fatal(err)
	}
	got := readJSON(t, f, markerPath)
	if got["owner"] != "firmware-team" {
		t.Errorf("unrelated field lost: %v", got)
	}
	if got["ProjectHostType"] != "Container" {
		t.Errorf("ProjectHostType = %v, want Container", got["ProjectHostType"])
	}
	if got["version"] != ProjectFileVersion {
		t.Errorf("version = %v", got["version"])
	}
	if n := f.WriteCount(markerPath); n != 2 {
		t.Errorf("WriteCount = %d, want one per call", n)
	}
}

func TestUpdateHostTypeConfigMerge(t *testing.T) {
	tests := []struct {
		name        string
		existing    string
		wantVersion string
	}{
		{"keeps version", `{"ProjectHostType":"Container","version":"0.9.0"}`, "0.9.0"},
		{"fills missing version", `{"ProjectHostType":"Container"}`, ProjectFileVersion},
		{"tolerates comments", "{\n  // shape\n  \"ProjectHostType\": \"Container\",\n  \"version\": \"1.0.0\",\n}", "1.0.0"},
		{"empty file", "", ProjectFileVersion},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := fsys.NewFake()
			f.Files[markerPath] = []byte(tt.existing)
			if err := UpdateHostTypeConfig(fsys.NewSingleViewAccess(f), fsys.Local, markerPath, HostTypeWorkspace); err != nil {
				t.Fatal(err)
			}
			got := readJSON(t, f, markerPath)
			if got["ProjectHostType"] != "Workspace" || got["version"] != tt.wantVersion {
				t.Errorf("marker = %v", got)
			}
			if n := f.WriteCount(markerPath); n != 1 {
				t.Errorf("WriteCount = %d, want 1", n)
			}
		})
	}
}

func TestUpdateHostTypeConfigFailuresDoNotWrite(t *testing.T) {
	boom := errors.New("boom")

	t.Run("check fails", func(t *testing.T) {
		f := fsys.NewFake()
		f.Errors[markerPath] = boom
		err := UpdateHostTypeConfig(fsys.NewSingleViewAccess(f), fsys.Local, markerPath, HostTypeWorkspace)
		if !errors.Is(err, boom) {
			t.Fatalf("err = %v, want boom", err)
		}
		if len(f.Writes()) != 0 {
			t.Errorf("writes = %v", f.Writes())
		}
	})

	t.Run("parse fails", func(t *testing.T) {
		f := fsys.NewFake()
		f.Files[markerPath] = []byte("not json")
		err := UpdateHostTypeConfig(fsys.NewSingleViewAccess(f), fsys.Local, markerPath, HostTypeWorkspace)
		var syntaxErr *json.SyntaxError
		if !errors.As(err, &syntaxErr) {
			t.Fatalf("err = %v, want a JSON syntax error", err)
		}
		if len(f.Writes()) != 0 {
			t.Errorf("writes = %v", f.Writes())
		}
	})
}

func TestDetectHostType(t *testing.T) {
	tests := []struct {
		name    string
		content *string
		want    HostType
	}{
		{"missing", nil, HostTypeUnknown},
		{"workspace", ptr(`{"ProjectHostType":"Workspace","version":"1.0.0"}`), HostTypeWorkspace},
		{"container", ptr(`{"ProjectHostType":"Container"}`), HostTypeContainer},
		{"unrecognized", ptr(`{"ProjectHostType":"Cloud"}`), HostTypeUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := fsys.NewFake()
			if tt.content != nil {
				f.Files[markerPath] = []byte(*tt.content)
			}
			got, err := DetectHostType(fsys.NewSingleViewAccess(f), fsys.Local, "root/Device")
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.want {
				t.Errorf("DetectHostType = %s, want %s", got, tt.want)
			}
		})
	}
}

func ptr(s string) *string { return &s }
