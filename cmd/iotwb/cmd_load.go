package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/iotworkbench/iotwb/internal/events"
	"github.com/iotworkbench/iotwb/internal/fsys"
	"github.com/iotworkbench/iotwb/internal/project"
	"github.com/iotworkbench/iotwb/internal/telemetry"
)

func newLoadCmd(stdout, stderr io.Writer) *cobra.Command {
	var initial bool
	cmd := &cobra.Command{
		Use:   "load [path]",
		Short: "Load an existing project and refresh its generated files",
		Long: `Load an existing IoT workspace project.

The device folder must already exist. Loading resolves the IDE workspace
file (creating one if none exists), marks the device folder as a workspace
project, resets the Azure component registry, and regenerates the device's
IntelliSense configuration.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if doLoad(cmd, args, initial, stdout, stderr) != 0 {
				return errExit
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&initial, "initial", false, "mark this as the first load after opening the project")
	return cmd
}

// doLoad loads the project on the local disk. Returns the exit code.
func doLoad(cmd *cobra.Command, args []string, initial bool, stdout, stderr io.Writer) int {
	ctx := cmd.Context()
	root, err := resolveProject(args)
	if err != nil {
		fmt.Fprintf(stderr, "iotwb load: %v\n", err) //nolint:errcheck // best-effort stderr
		return 1
	}
	p, err := openProject(root)
	if err != nil {
		fmt.Fprintf(stderr, "iotwb load: %v\n", err) //nolint:errcheck // best-effort stderr
		return 1
	}
	defer func() { telemetry.RecordCommand(ctx, p.tel, "load", err) }()

	lk, err := lockProject(root)
	if err != nil {
		fmt.Fprintf(stderr, "iotwb load: %v\n", err) //nolint:errcheck // best-effort stderr
		return 1
	}
	defer lk.Unlock() //nolint:errcheck // best-effort unlock

	rec, done := openEventRecorder(stderr)
	defer done()

	w, err := p.workspace(stderr)
	if err != nil {
		fmt.Fprintf(stderr, "iotwb load: %v\n", err) //nolint:errcheck // best-effort stderr
		return 1
	}
	if err = w.Load(ctx, fsys.Local, initial); err != nil {
		rec.Record(events.Event{Type: events.ProjectLoadFailed, Subject: root, Message: err.Error()})
		fmt.Fprintf(stderr, "iotwb load: %v\n", err) //nolint:errcheck // best-effort stderr
		var notFound *project.DirectoryNotFoundError
		if errors.As(err, &notFound) {
			fmt.Fprintln(stderr, "hint: run iotwb init") //nolint:errcheck // best-effort stderr
		}
		return 1
	}
	rec.Record(events.Event{Type: events.ProjectLoaded, Subject: root, Message: "board " + w.Config().BoardID()})

	printSuccess(stdout, "Loaded project %s", root)
	printInfo(stdout, "workspace: %s", w.WorkspaceFile())
	printInfo(stdout, "device: %s (%s)", w.DeviceRoot(), w.Device().Board().Name)
	return 0
}
