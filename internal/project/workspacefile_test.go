package project

import (
	"path/filepath"
	"testing"

	"github.com/iotworkbench/iotwb/internal/config"
	"github.com/iotworkbench/iotwb/internal/fsys"
)

func TestResolveWorkspaceFileExisting(t *testing.T) {
	f := fsys.NewFake()
	f.Files["root/b.code-workspace"] = []byte("{}")
	f.Files["root/a.code-workspace"] = []byte("{}")
	f.Dirs["root/x.code-workspace"] = true

	got, err := ResolveWorkspaceFile(fsys.NewSingleViewAccess(f), fsys.Local, "root", config.Default("proj"))
	if err != nil {
		t.Fatal(err)
	}
	if got != "a.code-workspace" {
		t.Errorf("got %q, want a.code-workspace", got)
	}
	if len(f.Writes()) != 0 {
		t.Errorf("writes = %v", f.Writes())
	}
}

func TestResolveWorkspaceFileCreates(t *testing.T) {
	tests := []struct {
		name    string
		project string
		want    string
	}{
		{"configured name", "proj", "proj.code-workspace"},
		{"root folder name", "", "root.code-workspace"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := fsys.NewFake()
			got, err := ResolveWorkspaceFile(fsys.NewSingleViewAccess(f), fsys.Local, "root", config.Default(tt.project))
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
			if n := f.WriteCount(filepath.Join("root", tt.want)); n != 1 {
				t.Errorf("WriteCount = %d, want 1", n)
			}
		})
	}
}
