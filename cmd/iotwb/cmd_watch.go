package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/iotworkbench/iotwb/internal/config"
	"github.com/iotworkbench/iotwb/internal/events"
	"github.com/iotworkbench/iotwb/internal/fsys"
	"github.com/iotworkbench/iotwb/internal/project"
	"github.com/iotworkbench/iotwb/internal/telemetry"
)

func newWatchCmd(stdout, stderr io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "watch [path]",
		Short: "Reload the project whenever its config or marker changes",
		Long: `Watch iotworkbench.toml and the device folder's host-type marker and
reload the project each time either changes. Runs until interrupted.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			if doWatch(ctx, args, stdout, stderr) != 0 {
				return errExit
			}
			return nil
		},
	}
}

// doWatch watches the project until ctx ends. Returns the exit code.
func doWatch(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	root, err := resolveProject(args)
	if err != nil {
		fmt.Fprintf(stderr, "iotwb watch: %v\n", err) //nolint:errcheck // best-effort stderr
		return 1
	}
	rec, done := openEventRecorder(stderr)
	defer done()

	pw := &projectWatcher{
		root:   root,
		rec:    rec,
		stdout: stdout,
		stderr: stderr,
	}
	if err := pw.run(ctx); err != nil {
		fmt.Fprintf(stderr, "iotwb watch: %v\n", err) //nolint:errcheck // best-effort stderr
		return 1
	}
	return 0
}

// projectWatcher reloads one project on config or marker changes.
type projectWatcher struct {
	root   string
	rec    events.Recorder
	stdout io.Writer
	stderr io.Writer

	// onReady and onReload, when set, are called once watching has started
	// and after every reload attempt.
	onReady  func()
	onReload func(changed string, err error)

	// last content seen for each watched file, so the marker rewrite done
	// by a reload does not trigger another one.
	seen map[string][]byte
}

// watched returns the config and marker paths for the current config.
func (pw *projectWatcher) watched() ([]string, error) {
	p, err := openProject(pw.root)
	if err != nil {
		return nil, err
	}
	deviceRoot := filepath.Join(pw.root, p.cfg.DeviceFolder())
	return []string{
		filepath.Join(pw.root, config.FileName),
		project.MarkerPath(deviceRoot),
	}, nil
}

// snapshot records the current content of every watched file.
func (pw *projectWatcher) snapshot(paths []string) {
	pw.seen = make(map[string][]byte, len(paths))
	for _, p := range paths {
		data, _ := os.ReadFile(p)
		pw.seen[p] = data
	}
}

func (pw *projectWatcher) run(ctx context.Context) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("starting watcher: %w", err)
	}
	defer w.Close() //nolint:errcheck // best-effort close

	paths, err := pw.watched()
	if err != nil {
		return err
	}
	// Files are replaced by rename, so watch their directories.
	for _, dir := range dirsOf(paths) {
		if err := w.Add(dir); err != nil {
			return fmt.Errorf("watching %s: %w", dir, err)
		}
	}
	pw.snapshot(paths)
	printSuccess(pw.stdout, "Watching %s", pw.root)
	if pw.onReady != nil {
		pw.onReady()
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			fmt.Fprintf(pw.stderr, "iotwb watch: %v\n", err) //nolint:errcheck // best-effort stderr
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			name := filepath.Clean(ev.Name)
			prev, tracked := pw.seen[name]
			if !tracked {
				continue
			}
			data, _ := os.ReadFile(name)
			if bytes.Equal(prev, data) {
				continue
			}
			pw.reload(ctx, name)
			if next, err := pw.watched(); err == nil {
				for _, dir := range dirsOf(next) {
					_ = w.Add(dir)
				}
				paths = next
			}
			pw.snapshot(paths)
		}
	}
}

// reload re-reads the config and loads the project on the local disk.
func (pw *projectWatcher) reload(ctx context.Context, changed string) {
	err := pw.load(ctx)
	rel, rerr := filepath.Rel(pw.root, changed)
	if rerr != nil {
		rel = changed
	}
	telemetry.RecordConfigReload(ctx, pw.root, rel, err)
	if err != nil {
		fmt.Fprintf(pw.stderr, "iotwb watch: reload after %s changed: %v\n", rel, err) //nolint:errcheck // best-effort stderr
	} else {
		pw.rec.Record(events.Event{Type: events.ProjectReloaded, Subject: pw.root, Message: rel + " changed"})
		printSuccess(pw.stdout, "Reloaded (%s changed)", filepath.ToSlash(rel))
	}
	if pw.onReload != nil {
		pw.onReload(rel, err)
	}
}

func (pw *projectWatcher) load(ctx context.Context) error {
	p, err := openProject(pw.root)
	if err != nil {
		return err
	}
	lk, err := lockProject(pw.root)
	if err != nil {
		return err
	}
	defer lk.Unlock() //nolint:errcheck // best-effort unlock

	w, err := p.workspace(pw.stderr)
	if err != nil {
		return err
	}
	return w.Load(ctx, fsys.Local, false)
}

// dirsOf returns the distinct existing parent directories of paths.
func dirsOf(paths []string) []string {
	seen := make(map[string]bool)
	var dirs []string
	for _, p := range paths {
		d := filepath.Dir(p)
		if seen[d] {
			continue
		}
		seen[d] = true
		if fi, err := os.Stat(d); err == nil && fi.IsDir() {
			dirs = append(dirs, d)
		}
	}
	return dirs
}
