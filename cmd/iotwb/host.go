package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
	"github.com/joho/godotenv"

	"github.com/iotworkbench/iotwb/internal/config"
	"github.com/iotworkbench/iotwb/internal/events"
	"github.com/iotworkbench/iotwb/internal/fsys"
	"github.com/iotworkbench/iotwb/internal/project"
	"github.com/iotworkbench/iotwb/internal/telemetry"
)

// projectEnv is what a command needs to act on one project root.
type projectEnv struct {
	root   string
	files  *fsys.Access
	staged *fsys.Staged
	cfg    config.Project
	tel    *telemetry.Context
}

// openProject loads <root>/.env, then the project config with environment
// overrides applied. A missing config yields defaults; a broken one is an
// error.
func openProject(root string) (*projectEnv, error) {
	_ = godotenv.Load(filepath.Join(root, ".env"))

	staged := fsys.NewStaged(fsys.OSFS{})
	files := fsys.NewAccess(fsys.OSFS{}, staged)
	cfg, err := config.LoadOrDefault(files, fsys.Local, root)
	if err != nil {
		return nil, err
	}
	cfg.ApplyEnv(os.Getenv)
	return &projectEnv{
		root:   root,
		files:  files,
		staged: staged,
		cfg:    *cfg,
		tel:    telemetry.NewContext(),
	}, nil
}

// workspace returns a controller for the project writing device warnings
// to channel.
func (p *projectEnv) workspace(channel io.Writer) (*project.Workspace, error) {
	return project.New(project.Host{Files: p.files, Config: p.cfg}, channel, p.tel, p.root)
}

// statePaths returns the per-user state locations.
func statePaths() (*config.Paths, error) {
	return config.DefaultPaths(os.Getenv, os.UserHomeDir)
}

// openRecorder returns a Provider appending to the user event log.
func openRecorder(stderr io.Writer) (*events.FileRecorder, error) {
	paths, err := statePaths()
	if err != nil {
		return nil, err
	}
	return events.NewFileRecorder(paths.Events, eventActor(), stderr)
}

// openEventRecorder is openRecorder for commands that only record. It
// returns events.Discard on any error; commands always get a valid recorder.
func openEventRecorder(stderr io.Writer) (events.Recorder, func()) {
	rec, err := openRecorder(stderr)
	if err != nil {
		return events.Discard, func() {}
	}
	return rec, func() { rec.Close() } //nolint:errcheck // best-effort close
}

// lockProject takes the per-user lock for root so two iotwb commands never
// scaffold the same project at once. The caller must Unlock.
func lockProject(root string) (*flock.Flock, error) {
	paths, err := statePaths()
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(paths.Locks, 0o755); err != nil {
		return nil, fmt.Errorf("creating lock directory: %w", err)
	}
	lk := flock.New(paths.LockFile(root))
	ok, err := lk.TryLock()
	if err != nil {
		return nil, fmt.Errorf("locking project: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("another iotwb command is working on %s", root)
	}
	return lk, nil
}
