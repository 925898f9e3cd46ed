// iotwb creates, loads and checks IoT workspace projects.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/iotworkbench/iotwb/internal/telemetry"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// errExit is a sentinel error returned by cobra RunE functions to signal
// non-zero exit. The command has already written its own error to stderr.
var errExit = errors.New("exit")

// projectFlag holds the value of the --project persistent flag.
// Empty means "use the current directory."
var projectFlag string

// run executes the iotwb CLI with the given args, writing output to stdout
// and errors to stderr. Returns the exit code.
func run(args []string, stdout, stderr io.Writer) int {
	ctx := context.Background()
	shutdown, err := telemetry.Init(ctx, telemetry.ConfigFromEnv(os.Getenv, version))
	if err != nil {
		fmt.Fprintf(stderr, "iotwb: telemetry: %v\n", err) //nolint:errcheck // best-effort stderr
	}
	if shutdown != nil {
		defer shutdown(ctx) //nolint:errcheck // best-effort flush
	}

	root := newRootCmd(stdout, stderr)
	if args == nil {
		args = []string{}
	}
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	if err := root.ExecuteContext(ctx); err != nil {
		// Flag and argument errors come from cobra, which is silenced.
		if !errors.Is(err, errExit) {
			fmt.Fprintf(stderr, "iotwb: %v\n", err) //nolint:errcheck // best-effort stderr
		}
		return 1
	}
	return 0
}

// newRootCmd creates the root cobra command with all subcommands.
func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	root := &cobra.Command{
		Use:           "iotwb",
		Short:         "Scaffold and maintain IoT workspace projects",
		SilenceErrors: true,
		SilenceUsage:  true,
		Args:          cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return cmd.Help()
			}
			fmt.Fprintf(stderr, "iotwb: unknown command %q\n", args[0]) //nolint:errcheck // best-effort stderr
			return errExit
		},
	}
	root.PersistentFlags().StringVar(&projectFlag, "project", "",
		"path to the project root (default: current directory)")
	root.CompletionOptions.DisableDefaultCmd = true
	root.AddCommand(
		newInitCmd(stdout, stderr),
		newLoadCmd(stdout, stderr),
		newStatusCmd(stdout, stderr),
		newBoardsCmd(stdout),
		newAzureCmd(stdout, stderr),
		newDoctorCmd(stdout, stderr),
		newEventsCmd(stdout, stderr),
		newWatchCmd(stdout, stderr),
		newVersionCmd(stdout),
	)
	root.AddCommand(newGenDocCmd(stdout, stderr, root))
	return root
}

// resolveProject returns the absolute project root. A positional path
// wins over --project, which wins over the current directory.
func resolveProject(args []string) (string, error) {
	dir := projectFlag
	if len(args) > 0 && args[0] != "" {
		dir = args[0]
	}
	if dir == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return "", err
		}
		dir = cwd
	}
	return filepath.Abs(dir)
}

// eventActor returns the actor identity for events. IOTWB_ACTOR names an
// automation; otherwise "human".
func eventActor() string {
	if a := os.Getenv("IOTWB_ACTOR"); a != "" {
		return a
	}
	return "human"
}
