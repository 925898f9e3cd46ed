package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/iotworkbench/iotwb/internal/board"
)

func newBoardsCmd(stdout io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "boards",
		Short: "List supported boards",
		Args:  cobra.NoArgs,
		Run: func(_ *cobra.Command, _ []string) {
			doBoards(board.Catalog{}.List(), stdout)
		},
	}
}

func doBoards(boards []board.Board, stdout io.Writer) {
	tw := tabwriter.NewWriter(stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tFQBN") //nolint:errcheck // best-effort stdout
	for _, b := range boards {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", b.ID, b.Name, b.FQBN) //nolint:errcheck // best-effort stdout
	}
	tw.Flush() //nolint:errcheck // best-effort stdout
}
