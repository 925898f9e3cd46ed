package main

import (
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/iotworkbench/iotwb/internal/fsys"
	"github.com/iotworkbench/iotwb/internal/project"
)

func newStatusCmd(stdout, stderr io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "status [path]",
		Short: "Show what is on disk for a project",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			if doStatus(args, stdout, stderr) != 0 {
				return errExit
			}
			return nil
		},
	}
}

// doStatus prints a read-only snapshot of the project. Returns the exit code.
func doStatus(args []string, stdout, stderr io.Writer) int {
	root, err := resolveProject(args)
	if err != nil {
		fmt.Fprintf(stderr, "iotwb status: %v\n", err) //nolint:errcheck // best-effort stderr
		return 1
	}
	p, err := openProject(root)
	if err != nil {
		fmt.Fprintf(stderr, "iotwb status: %v\n", err) //nolint:errcheck // best-effort stderr
		return 1
	}
	w, err := p.workspace(io.Discard)
	if err != nil {
		fmt.Fprintf(stderr, "iotwb status: %v\n", err) //nolint:errcheck // best-effort stderr
		return 1
	}
	s, err := w.Inspect(fsys.Local)
	if err != nil {
		fmt.Fprintf(stderr, "iotwb status: %v\n", err) //nolint:errcheck // best-effort stderr
		return 1
	}
	writeStatus(stdout, s)
	return 0
}

func writeStatus(w io.Writer, s *project.Status) {
	device := s.DeviceRoot
	if !s.DeviceRootExists {
		device += " (missing)"
	}
	workspaceFile := s.WorkspaceFile
	if workspaceFile == "" {
		workspaceFile = "(none)"
	}
	azure := "(missing)"
	if s.AzureComponents >= 0 {
		azure = strconv.Itoa(s.AzureComponents)
	}

	rows := [][2]string{
		{"Project", s.Root},
		{"Board", s.Board},
		{"Device folder", device},
		{"Host type", string(s.HostType)},
		{"Workspace file", workspaceFile},
		{"Azure components", azure},
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, r := range rows {
		fmt.Fprintf(tw, "%s:\t%s\n", r[0], r[1]) //nolint:errcheck // best-effort stdout
	}
	tw.Flush() //nolint:errcheck // best-effort stdout
}
