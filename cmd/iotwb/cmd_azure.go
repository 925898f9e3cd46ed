package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/iotworkbench/iotwb/internal/azure"
	"github.com/iotworkbench/iotwb/internal/events"
	"github.com/iotworkbench/iotwb/internal/fsys"
	"github.com/iotworkbench/iotwb/internal/telemetry"
)

func newAzureCmd(stdout, stderr io.Writer) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "azure",
		Short: "Manage the project's Azure component registry",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}
	cmd.AddCommand(
		newAzureListCmd(stdout, stderr),
		newAzureAddCmd(stdout, stderr),
	)
	return cmd
}

func newAzureListCmd(stdout, stderr io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List registered Azure components",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			if doAzureList(stdout, stderr) != 0 {
				return errExit
			}
			return nil
		},
	}
}

func doAzureList(stdout, stderr io.Writer) int {
	root, err := resolveProject(nil)
	if err != nil {
		fmt.Fprintf(stderr, "iotwb azure list: %v\n", err) //nolint:errcheck // best-effort stderr
		return 1
	}
	files := fsys.NewSingleViewAccess(fsys.OSFS{})
	c, err := azure.NewFileHandler(files, root).Load(fsys.Local)
	if err != nil {
		fmt.Fprintf(stderr, "iotwb azure list: %v\n", err) //nolint:errcheck // best-effort stderr
		return 1
	}
	if len(c.ComponentConfigs) == 0 {
		fmt.Fprintln(stdout, "No Azure components.") //nolint:errcheck // best-effort stdout
		return 0
	}
	tw := tabwriter.NewWriter(stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTYPE\tNAME\tFOLDER") //nolint:errcheck // best-effort stdout
	for _, cc := range c.ComponentConfigs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", cc.ID, cc.Type, cc.Name, cc.Folder) //nolint:errcheck // best-effort stdout
	}
	tw.Flush() //nolint:errcheck // best-effort stdout
	return 0
}

type azureAddOptions struct {
	kind   string
	name   string
	folder string
	id     string
}

func newAzureAddCmd(stdout, stderr io.Writer) *cobra.Command {
	var opts azureAddOptions
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Register an Azure component",
		Example: `  iotwb azure add --type IoTHub --name hub
  iotwb azure add --type AzureFunctions --name ingest --folder functions`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if doAzureAdd(cmd, opts, stdout, stderr) != 0 {
				return errExit
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&opts.kind, "type", "", "component type (IoTHub, IoTHubDevice, AzureFunctions, StreamAnalyticsJob, CosmosDB)")
	cmd.Flags().StringVar(&opts.name, "name", "", "component name")
	cmd.Flags().StringVar(&opts.folder, "folder", "", "folder holding the component's sources")
	cmd.Flags().StringVar(&opts.id, "id", "", "component ID (default: random UUID)")
	_ = cmd.MarkFlagRequired("type")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func doAzureAdd(cmd *cobra.Command, opts azureAddOptions, stdout, stderr io.Writer) int {
	ctx := cmd.Context()
	tel := telemetry.NewContext()
	var err error
	defer func() { telemetry.RecordCommand(ctx, tel, "azure add", err) }()

	kind, err := azure.ParseComponentType(opts.kind)
	if err != nil {
		fmt.Fprintf(stderr, "iotwb azure add: %v\n", err) //nolint:errcheck // best-effort stderr
		return 1
	}
	root, err := resolveProject(nil)
	if err != nil {
		fmt.Fprintf(stderr, "iotwb azure add: %v\n", err) //nolint:errcheck // best-effort stderr
		return 1
	}
	lk, err := lockProject(root)
	if err != nil {
		fmt.Fprintf(stderr, "iotwb azure add: %v\n", err) //nolint:errcheck // best-effort stderr
		return 1
	}
	defer lk.Unlock() //nolint:errcheck // best-effort unlock

	files := fsys.NewSingleViewAccess(fsys.OSFS{})
	cc, err := azure.NewFileHandler(files, root).Append(fsys.Local, azure.ComponentConfig{
		ID:     opts.id,
		Folder: opts.folder,
		Name:   opts.name,
		Type:   kind,
	})
	if err != nil {
		fmt.Fprintf(stderr, "iotwb azure add: %v\n", err) //nolint:errcheck // best-effort stderr
		return 1
	}
	tel.SetProperty("componentType", string(kind))

	rec, done := openEventRecorder(stderr)
	defer done()
	rec.Record(events.Event{
		Type:    events.AzureComponentAdded,
		Subject: root,
		Message: fmt.Sprintf("%s %s (%s)", cc.Type, cc.Name, cc.ID),
	})
	printSuccess(stdout, "Added %s component %q", cc.Type, cc.Name)
	printInfo(stdout, "id: %s", cc.ID)
	return 0
}
