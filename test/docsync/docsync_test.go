// Package docsync verifies that tutorial prose and testscript txtar files
// cover the same set of iotwb commands. Every `$ iotwb <verb>` in a tutorial
// markdown must have a corresponding `exec iotwb <verb>` in the txtar.
package docsync

import (
	"bufio"
	"bytes"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"testing"
)

func repoRoot() string {
	_, filename, _, _ := runtime.Caller(0)
	return filepath.Join(filepath.Dir(filename), "..", "..")
}

// verbsFromMarkdown extracts unique iotwb subcommands from code blocks.
func verbsFromMarkdown(path string) (map[string]bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	verbs := make(map[string]bool)
	inCodeBlock := false
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, "```") {
			inCodeBlock = !inCodeBlock
			continue
		}
		if !inCodeBlock {
			continue
		}
		after, ok := strings.CutPrefix(line, "$ iotwb ")
		if !ok {
			continue
		}
		if verb := extractVerb(after); verb != "" {
			verbs[verb] = true
		}
	}
	return verbs, scanner.Err()
}

// verbsFromTxtar extracts unique iotwb subcommands from exec lines,
// including expected failures ("! exec iotwb ...").
func verbsFromTxtar(path string) (map[string]bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	verbs := make(map[string]bool)
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		line = strings.TrimPrefix(line, "! ")
		after, ok := strings.CutPrefix(line, "exec iotwb ")
		if !ok {
			continue
		}
		if verb := extractVerb(after); verb != "" {
			verbs[verb] = true
		}
	}
	return verbs, scanner.Err()
}

// extractVerb pulls the subcommand (up to 2 lowercase words) from args.
// "azure add --type IoTHub" → "azure add", "init --board esp32" → "init".
func extractVerb(args string) string {
	words := strings.Fields(args)
	var parts []string
	for i, w := range words {
		if i >= 2 || !isLowerAlpha(w) {
			break
		}
		parts = append(parts, w)
	}
	return strings.Join(parts, " ")
}

func isLowerAlpha(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if c < 'a' || c > 'z' {
			return false
		}
	}
	return true
}

func diff(have, want map[string]bool) []string {
	var out []string
	for v := range have {
		if !want[v] {
			out = append(out, v)
		}
	}
	sort.Strings(out)
	return out
}

func TestExtractVerb(t *testing.T) {
	tests := []struct {
		args string
		want string
	}{
		{"init --board esp32", "init"},
		{"azure add --type IoTHub", "azure add"},
		{"load $WORK/blinky", "load"},
		{"doctor proj --fix", "doctor proj"},
		{"--project x status", ""},
	}
	for _, tt := range tests {
		if got := extractVerb(tt.args); got != tt.want {
			t.Errorf("extractVerb(%q) = %q, want %q", tt.args, got, tt.want)
		}
	}
}

func TestTutorial01CommandSync(t *testing.T) {
	root := repoRoot()
	tutorial := filepath.Join(root, "docs", "tutorials", "01-first-project.md")
	txtar := filepath.Join(root, "cmd", "iotwb", "testdata", "tutorial01.txtar")

	mdVerbs, err := verbsFromMarkdown(tutorial)
	if err != nil {
		t.Fatalf("parsing tutorial: %v", err)
	}
	txtarVerbs, err := verbsFromTxtar(txtar)
	if err != nil {
		t.Fatalf("parsing txtar: %v", err)
	}
	if len(mdVerbs) == 0 {
		t.Fatal("tutorial has no iotwb commands")
	}

	for _, v := range diff(mdVerbs, txtarVerbs) {
		t.Errorf("iotwb %s is in the tutorial but not in the txtar", v)
	}
	for _, v := range diff(txtarVerbs, mdVerbs) {
		t.Errorf("iotwb %s is in the txtar but not in the tutorial", v)
	}
}
