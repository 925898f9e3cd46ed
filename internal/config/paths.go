package config

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"path/filepath"
)

// EnvHome overrides the per-user state directory.
const EnvHome = "IOTWB_HOME"

// Paths contains the per-user state locations used by the CLI.
type Paths struct {
	// Root is the state directory (default: ~/.iotwb).
	Root string
	// Events is the JSONL project event log.
	Events string
	// Locks holds one lock file per project root.
	Locks string
}

// DefaultPaths returns the state paths, honoring IOTWB_HOME. home is
// consulted only when the override is empty.
func DefaultPaths(getenv func(string) string, home func() (string, error)) (*Paths, error) {
	root := getenv(EnvHome)
	if root == "" {
		h, err := home()
		if err != nil {
			return nil, err
		}
		root = filepath.Join(h, ".iotwb")
	}
	return &Paths{
		Root:   root,
		Events: filepath.Join(root, "events.jsonl"),
		Locks:  filepath.Join(root, "locks"),
	}, nil
}

// LockFile returns the lock file path for a project root. Distinct roots
// map to distinct files.
func (p *Paths) LockFile(projectRoot string) string {
	sum := sha256.Sum256([]byte(filepath.Clean(projectRoot)))
	return filepath.Join(p.Locks, fmt.Sprintf("%s.lock", hex.EncodeToString(sum[:8])))
}
