package docgen

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/invopop/jsonschema"
)

const generatedNote = "> **Auto-generated**, do not edit. Run `go run ./cmd/genschema` to regenerate.\n\n"

// mdWriter remembers the first write error so rendering code can print
// unconditionally and check once.
type mdWriter struct {
	w   io.Writer
	err error
}

func (m *mdWriter) printf(format string, args ...any) {
	if m.err == nil {
		_, m.err = fmt.Fprintf(m.w, format, args...)
	}
}

// RenderMarkdown writes a reference document for s: one section per
// definition, root type first, each with a field table.
func RenderMarkdown(w io.Writer, s *jsonschema.Schema) error {
	m := &mdWriter{w: w}
	title := s.Title
	if title == "" {
		title = "Configuration Reference"
	}
	m.printf("# %s\n\n", title)
	if s.Description != "" {
		m.printf("%s\n\n", s.Description)
	}
	m.printf(generatedNote)

	rootName := refName(s.Ref)
	names := make([]string, 0, len(s.Definitions))
	for name := range s.Definitions {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if (names[i] == rootName) != (names[j] == rootName) {
			return names[i] == rootName
		}
		return names[i] < names[j]
	})

	for _, name := range names {
		def := s.Definitions[name]
		if def == nil || def.Properties == nil {
			continue
		}
		m.printf("## %s\n\n", name)
		if def.Description != "" {
			m.printf("%s\n\n", def.Description)
		}
		required := make(map[string]bool, len(def.Required))
		for _, r := range def.Required {
			required[r] = true
		}
		m.printf("| Field | Type | Required | Default | Description |\n")
		m.printf("|-------|------|----------|---------|-------------|\n")
		for pair := def.Properties.Oldest(); pair != nil; pair = pair.Next() {
			req := ""
			if required[pair.Key] {
				req = "**yes**"
			}
			dflt := ""
			if pair.Value.Default != nil {
				dflt = fmt.Sprintf("`%v`", pair.Value.Default)
			}
			m.printf("| `%s` | %s | %s | %s | %s |\n",
				pair.Key, typeString(pair.Value), req, dflt, cellText(pair.Value))
		}
		m.printf("\n")
	}
	return m.err
}

// typeString renders a property type, e.g. "string", "[]Board",
// "map[string]string".
func typeString(p *jsonschema.Schema) string {
	if p.Ref != "" {
		return refName(p.Ref)
	}
	switch p.Type {
	case "array":
		if p.Items == nil {
			return "array"
		}
		return "[]" + typeString(p.Items)
	case "object":
		if p.AdditionalProperties == nil {
			return "object"
		}
		return "map[string]" + typeString(p.AdditionalProperties)
	case "":
		return "any"
	default:
		return p.Type
	}
}

// refName returns the last element of a $ref such as "#/$defs/Device".
func refName(ref string) string {
	return ref[strings.LastIndex(ref, "/")+1:]
}

// cellText returns a description safe for a table cell, with enum values
// appended.
func cellText(p *jsonschema.Schema) string {
	desc := p.Description
	if len(p.Enum) > 0 {
		vals := make([]string, len(p.Enum))
		for i, v := range p.Enum {
			vals[i] = fmt.Sprintf("`%v`", v)
		}
		desc = strings.TrimSpace(desc + " Enum: " + strings.Join(vals, ", "))
	}
	desc = strings.ReplaceAll(desc, "\n", " ")
	return strings.ReplaceAll(desc, "|", "\\|")
}
