package main

import (
	"bytes"
	"fmt"
	"io"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/iotworkbench/iotwb/internal/docgen"
	"github.com/iotworkbench/iotwb/internal/fsys"
)

// newGenDocCmd creates the hidden "iotwb gen-doc" subcommand. It writes
// docs/reference/cli.md by walking the real command tree. Must be called
// from the repository root (go.mod must exist).
func newGenDocCmd(stdout, stderr io.Writer, root *cobra.Command) *cobra.Command {
	return &cobra.Command{
		Use:    "gen-doc",
		Short:  "Generate CLI reference documentation",
		Hidden: true,
		Args:   cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			files := fsys.NewSingleViewAccess(fsys.OSFS{})
			outPath, err := writeCLIReference(files, ".", root)
			if err != nil {
				fmt.Fprintf(stderr, "gen-doc: %v\n", err) //nolint:errcheck // best-effort stderr
				return errExit
			}
			fmt.Fprintf(stdout, "Generated: %s\n", outPath) //nolint:errcheck // best-effort stdout
			return nil
		},
	}
}

// writeCLIReference renders the command tree to <repo>/docs/reference/cli.md.
func writeCLIReference(files *fsys.Access, repo string, root *cobra.Command) (string, error) {
	if ok, err := files.FileExists(fsys.Local, filepath.Join(repo, "go.mod")); err != nil || !ok {
		return "", fmt.Errorf("must run from repository root (go.mod not found)")
	}
	var buf bytes.Buffer
	if err := docgen.RenderCLIMarkdown(&buf, root); err != nil {
		return "", err
	}
	outPath := filepath.Join(repo, "docs", "reference", "cli.md")
	if err := files.WriteFile(fsys.Local, outPath, buf.Bytes()); err != nil {
		return "", err
	}
	return outPath, nil
}
