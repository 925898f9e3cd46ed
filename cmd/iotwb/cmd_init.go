package main

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/iotworkbench/iotwb/internal/events"
	"github.com/iotworkbench/iotwb/internal/fsys"
	"github.com/iotworkbench/iotwb/internal/project"
	"github.com/iotworkbench/iotwb/internal/telemetry"
)

type initOptions struct {
	board  string
	force  bool
	dryRun bool
}

func newInitCmd(stdout, stderr io.Writer) *cobra.Command {
	var opts initOptions
	cmd := &cobra.Command{
		Use:   "init [path]",
		Short: "Create a new IoT workspace project",
		Long: `Create a new IoT workspace project in path (default: current directory).

Writes iotworkbench.toml, the IDE workspace file, the Azure component
registry, and a device folder with its host-type marker, starter sketch and
IntelliSense configuration. With --dry-run nothing is written; the files
that would be created are listed instead.`,
		Example: `  iotwb init
  iotwb init ./thermostat --board esp32
  iotwb init --dry-run`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if doInit(cmd, args, opts, stdout, stderr) != 0 {
				return errExit
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&opts.board, "board", "", "board ID (see iotwb boards)")
	cmd.Flags().BoolVar(&opts.force, "force", false, "re-initialize an existing project")
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "list the files that would be written")
	return cmd
}

// doInit creates the project. Returns the exit code.
func doInit(cmd *cobra.Command, args []string, opts initOptions, stdout, stderr io.Writer) int {
	ctx := cmd.Context()
	root, err := resolveProject(args)
	if err != nil {
		fmt.Fprintf(stderr, "iotwb init: %v\n", err) //nolint:errcheck // best-effort stderr
		return 1
	}
	p, err := openProject(root)
	if err != nil {
		fmt.Fprintf(stderr, "iotwb init: %v\n", err) //nolint:errcheck // best-effort stderr
		return 1
	}
	defer func() { telemetry.RecordCommand(ctx, p.tel, "init", err) }()

	st := fsys.Local
	if opts.dryRun {
		st = fsys.Workspace
	} else {
		lk, lerr := lockProject(root)
		if lerr != nil {
			err = lerr
			fmt.Fprintf(stderr, "iotwb init: %v\n", err) //nolint:errcheck // best-effort stderr
			return 1
		}
		defer lk.Unlock() //nolint:errcheck // best-effort unlock
	}

	w, err := p.workspace(stderr)
	if err != nil {
		fmt.Fprintf(stderr, "iotwb init: %v\n", err) //nolint:errcheck // best-effort stderr
		return 1
	}
	err = w.Create(ctx, st, project.CreateOptions{Board: opts.board, Overwrite: opts.force})
	if errors.Is(err, project.ErrProjectExists) {
		fmt.Fprintf(stderr, "iotwb init: %v (use --force to re-initialize)\n", err) //nolint:errcheck // best-effort stderr
		return 1
	}
	if err != nil {
		fmt.Fprintf(stderr, "iotwb init: %v\n", err) //nolint:errcheck // best-effort stderr
		return 1
	}

	if opts.dryRun {
		fmt.Fprintln(stdout, "Would write:") //nolint:errcheck // best-effort stdout
		for _, path := range p.staged.Pending() {
			if rel, rerr := filepath.Rel(root, path); rerr == nil {
				path = rel
			}
			fmt.Fprintf(stdout, "  %s\n", filepath.ToSlash(path)) //nolint:errcheck // best-effort stdout
		}
		p.staged.Discard()
		printWarning(stdout, "dry run: nothing was written")
		return 0
	}

	rec, done := openEventRecorder(stderr)
	defer done()
	rec.Record(events.Event{
		Type:    events.ProjectCreated,
		Subject: root,
		Message: "board " + w.Config().BoardID(),
	})

	printSuccess(stdout, "Created project %s", root)
	printInfo(stdout, "board: %s", w.Config().BoardID())
	printInfo(stdout, "workspace: %s", w.WorkspaceFile())
	printInfo(stdout, "device: %s", w.DeviceRoot())
	return 0
}
