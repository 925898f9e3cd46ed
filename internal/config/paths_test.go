package config

import (
	"errors"
	"path/filepath"
	"testing"
)

func TestDefaultPathsOverride(t *testing.T) {
	getenv := func(k string) string {
		if k == EnvHome {
			return "/state"
		}
		return ""
	}
	home := func() (string, error) { return "", errors.New("should not be called") }

	p, err := DefaultPaths(getenv, home)
	if err != nil {
		t.Fatalf("DefaultPaths: %v", err)
	}
	if p.Root != "/state" {
		t.Errorf("Root = %q, want /state", p.Root)
	}
	if p.Events != filepath.Join("/state", "events.jsonl") {
		t.Errorf("Events = %q", p.Events)
	}
}

func TestDefaultPathsHome(t *testing.T) {
	p, err := DefaultPaths(func(string) string { return "" }, func() (string, error) { return "/home/u", nil })
	if err != nil {
		t.Fatalf("DefaultPaths: %v", err)
	}
	if p.Root != filepath.Join("/home/u", ".iotwb") {
		t.Errorf("Root = %q", p.Root)
	}
}

func TestDefaultPathsHomeError(t *testing.T) {
	_, err := DefaultPaths(func(string) string { return "" }, func() (string, error) { return "", errors.New("no home") })
	if err == nil {
		t.Error("expected error when home is unavailable")
	}
}

func TestLockFile(t *testing.T) {
	p := &Paths{Locks: "/state/locks"}
	a := p.LockFile("/work/a")
	if a != p.LockFile("/work/a/") {
		t.Errorf("LockFile not stable under trailing slash")
	}
	if a == p.LockFile("/work/b") {
		t.Errorf("distinct roots share lock file %q", a)
	}
	if filepath.Dir(a) != "/state/locks" || filepath.Ext(a) != ".lock" {
		t.Errorf("LockFile = %q", a)
	}
}
