package docgen

import (
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// RenderCLIMarkdown writes a reference for every visible command under
// root: heading, description, synopsis, example, flags and subcommands.
func RenderCLIMarkdown(w io.Writer, root *cobra.Command) error {
	m := &mdWriter{w: w}
	m.printf("# CLI Reference\n\n")
	m.printf(generatedNote)
	if rows := flagRows(root.PersistentFlags()); len(rows) > 0 {
		m.printf("## Global Flags\n\n")
		writeFlagTable(m, rows)
	}
	renderCommand(m, root)
	return m.err
}

func renderCommand(m *mdWriter, cmd *cobra.Command) {
	m.printf("## %s\n\n", cmd.CommandPath())
	desc := cmd.Long
	if desc == "" {
		desc = cmd.Short
	}
	if desc != "" {
		m.printf("%s\n\n", strings.TrimSpace(desc))
	}
	m.printf("```\n%s\n```\n\n", cmd.UseLine())
	if cmd.Example != "" {
		m.printf("**Example:**\n\n```\n%s\n```\n\n", strings.TrimSpace(cmd.Example))
	}
	if rows := flagRows(cmd.LocalNonPersistentFlags()); len(rows) > 0 {
		writeFlagTable(m, rows)
	}

	var children []*cobra.Command
	for _, c := range cmd.Commands() {
		if !c.Hidden {
			children = append(children, c)
		}
	}
	if len(children) > 0 {
		m.printf("| Subcommand | Description |\n")
		m.printf("|------------|-------------|\n")
		for _, c := range children {
			anchor := strings.ToLower(strings.ReplaceAll(c.CommandPath(), " ", "-"))
			m.printf("| [%s](#%s) | %s |\n", c.CommandPath(), anchor, c.Short)
		}
		m.printf("\n")
	}
	for _, c := range children {
		renderCommand(m, c)
	}
}

type flagRow struct {
	name, typ, def, usage string
}

// flagRows collects the visible flags of fs in pflag's sorted order.
func flagRows(fs *pflag.FlagSet) []flagRow {
	var rows []flagRow
	fs.VisitAll(func(f *pflag.Flag) {
		if f.Hidden {
			return
		}
		name := "`--" + f.Name + "`"
		if f.Shorthand != "" {
			name = "`-" + f.Shorthand + "`, " + name
		}
		def := ""
		if !zeroDefault(f.DefValue, f.Value.Type()) {
			def = "`" + f.DefValue + "`"
		}
		rows = append(rows, flagRow{name, f.Value.Type(), def, strings.ReplaceAll(f.Usage, "|", "\\|")})
	})
	return rows
}

func zeroDefault(val, typ string) bool {
	switch typ {
	case "bool":
		return val == "false"
	case "int", "int64", "uint", "uint64", "float64", "duration":
		return val == "0" || val == "0s"
	case "stringSlice", "stringArray":
		return val == "[]"
	default:
		return val == ""
	}
}

func writeFlagTable(m *mdWriter, rows []flagRow) {
	m.printf("| Flag | Type | Default | Description |\n")
	m.printf("|------|------|---------|-------------|\n")
	for _, r := range rows {
		m.printf("| %s | %s | %s | %s |\n", r.name, r.typ, r.def, r.usage)
	}
	m.printf("\n")
}
