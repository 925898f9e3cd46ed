// Package env provides the host environment facts project scaffolding
// depends on, the operating system and the user's home directory, behind
// an injectable [Provider] so callers never read process-wide state.
package env

import (
	"fmt"
	"os"
	"runtime"
)

// Platform identifies the host operating system.
type Platform string

// Known platforms. Values match runtime.GOOS.
const (
	Linux   Platform = "linux"
	Darwin  Platform = "darwin"
	Windows Platform = "windows"
)

// Provider reports host environment facts.
type Provider interface {
	// Platform returns the host operating system.
	Platform() Platform
	// HomeDir returns the current user's home directory.
	HomeDir() (string, error)
}

// OS implements [Provider] using the running process.
type OS struct{}

// Platform returns runtime.GOOS.
func (OS) Platform() Platform {
	return Platform(runtime.GOOS)
}

// HomeDir delegates to [os.UserHomeDir].
func (OS) HomeDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting user home directory: %w", err)
	}
	return home, nil
}

// Fixed implements [Provider] with constant values for tests.
type Fixed struct {
	OS   Platform
	Home string
}

// Platform returns f.OS.
func (f Fixed) Platform() Platform {
	return f.OS
}

// HomeDir returns f.Home, or an error when it is empty.
func (f Fixed) HomeDir() (string, error) {
	if f.Home == "" {
		return "", fmt.Errorf("home directory not set")
	}
	return f.Home, nil
}

var (
	_ Provider = OS{}
	_ Provider = Fixed{}
)
