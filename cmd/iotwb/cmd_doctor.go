package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/iotworkbench/iotwb/internal/config"
	"github.com/iotworkbench/iotwb/internal/doctor"
	"github.com/iotworkbench/iotwb/internal/env"
	"github.com/iotworkbench/iotwb/internal/events"
	"github.com/iotworkbench/iotwb/internal/fsys"
)

func newDoctorCmd(stdout, stderr io.Writer) *cobra.Command {
	var fix, verbose bool
	cmd := &cobra.Command{
		Use:   "doctor [path]",
		Short: "Check project health",
		Long: `Run diagnostic health checks on an IoT workspace project.

Checks the project config, board, device folder, host-type marker, IDE
workspace file, Azure component registry, and the device's IntelliSense
configuration. Use --fix to attempt automatic repairs.`,
		Example: `  iotwb doctor
  iotwb doctor --fix
  iotwb doctor --verbose`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			if doDoctor(args, fix, verbose, stdout, stderr) != 0 {
				return errExit
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&fix, "fix", false, "attempt to fix issues automatically")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "show extra diagnostic details")
	return cmd
}

// doDoctor runs all health checks and prints results. A config file that
// does not parse is reported by its check; the remaining checks run with
// defaults.
func doDoctor(args []string, fix, verbose bool, stdout, stderr io.Writer) int {
	root, err := resolveProject(args)
	if err != nil {
		fmt.Fprintf(stderr, "iotwb doctor: %v\n", err) //nolint:errcheck // best-effort stderr
		return 1
	}
	files := fsys.NewSingleViewAccess(fsys.OSFS{})
	cfg := config.Default(filepath.Base(root))
	if loaded, err := config.LoadOrDefault(files, fsys.Local, root); err == nil {
		cfg = *loaded
	}
	cfg.ApplyEnv(os.Getenv)

	ctx := &doctor.CheckContext{
		ProjectRoot: root,
		Files:       files,
		Config:      cfg,
		Env:         env.OS{},
		Verbose:     verbose,
	}
	if fix {
		lk, err := lockProject(root)
		if err != nil {
			fmt.Fprintf(stderr, "iotwb doctor: %v\n", err) //nolint:errcheck // best-effort stderr
			return 1
		}
		defer lk.Unlock() //nolint:errcheck // best-effort unlock
	}

	d := &doctor.Doctor{}
	doctor.RegisterProjectChecks(d)
	report := d.Run(ctx, stdout, fix)
	doctor.PrintSummary(stdout, report)

	if len(report.Fixed) > 0 {
		rec, done := openEventRecorder(stderr)
		for _, check := range report.Fixed {
			rec.Record(events.Event{Type: events.DoctorFixApplied, Subject: root, Message: check})
		}
		done()
	}
	if !report.Healthy() {
		return 1
	}
	return 0
}
