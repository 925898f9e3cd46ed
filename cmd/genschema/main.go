// Command genschema generates JSON Schema and markdown reference docs for
// the files iotwb manages. Run from the repository root:
//
//	go run ./cmd/genschema
//
// Output:
//
//	docs/schema/{iotworkbench,project-marker,azureconfig}.json
//	docs/reference/{iotworkbench,project-marker,azureconfig}.md
//	docs/reference/cli.md
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/iotworkbench/iotwb/internal/docgen"
	"github.com/iotworkbench/iotwb/internal/fsys"
)

func main() {
	if err := run(fsys.NewSingleViewAccess(fsys.OSFS{})); err != nil {
		fmt.Fprintf(os.Stderr, "genschema: %v\n", err) //nolint:errcheck // best-effort stderr
		os.Exit(1)
	}
}

func run(files *fsys.Access) error {
	if ok, err := files.FileExists(fsys.Local, "go.mod"); err != nil || !ok {
		return fmt.Errorf("must run from repository root (go.mod not found)")
	}

	docs, err := docgen.Documents()
	if err != nil {
		return err
	}
	written, err := writeDocuments(files, ".", docs)
	if err != nil {
		return err
	}

	// The CLI reference needs the real command tree, which lives in main.
	genDoc := exec.Command("go", "run", "./cmd/iotwb", "gen-doc")
	genDoc.Stdout = os.Stdout
	genDoc.Stderr = os.Stderr
	if err := genDoc.Run(); err != nil {
		return fmt.Errorf("generating CLI docs: %w", err)
	}
	written = append(written, filepath.Join("docs", "reference", "cli.md"))

	fmt.Println("Generated:")
	for _, f := range written {
		fmt.Printf("  %s\n", f)
	}
	return nil
}

// writeDocuments writes each schema and its markdown reference under root
// and returns the written paths.
func writeDocuments(files *fsys.Access, root string, docs []docgen.Document) ([]string, error) {
	var written []string
	for _, d := range docs {
		schemaPath := filepath.Join(root, "docs", "schema", d.Name+".json")
		data, err := json.MarshalIndent(d.Schema, "", "  ")
		if err != nil {
			return written, fmt.Errorf("marshaling %s: %w", schemaPath, err)
		}
		if err := files.WriteFile(fsys.Local, schemaPath, append(data, '\n')); err != nil {
			return written, err
		}
		written = append(written, schemaPath)

		mdPath := filepath.Join(root, "docs", "reference", d.Name+".md")
		var buf bytes.Buffer
		if err := docgen.RenderMarkdown(&buf, d.Schema); err != nil {
			return written, fmt.Errorf("rendering %s: %w", mdPath, err)
		}
		if err := files.WriteFile(fsys.Local, mdPath, buf.Bytes()); err != nil {
			return written, err
		}
		written = append(written, mdPath)
	}
	return written, nil
}
