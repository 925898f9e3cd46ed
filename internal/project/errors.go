package project

import (
	"errors"
	"fmt"
)

// ErrProjectExists is returned by [Workspace.Create] when the device folder
// already carries a project marker and overwriting was not requested.
var ErrProjectExists = errors.New("project already exists")

// ArgumentEmptyOrNullError reports a required argument that was empty.
type ArgumentEmptyOrNullError struct {
	Operation string
	Argument  string
}

func (e *ArgumentEmptyOrNullError) Error() string {
	return fmt.Sprintf("Failed to %s: Argument %s is empty or null.", e.Operation, e.Argument)
}

// DirectoryNotFoundError reports a required directory that does not exist.
// Directory describes the directory, e.g. "device root path <path>".
type DirectoryNotFoundError struct {
	Operation  string
	Directory  string
	Suggestion string
}

func (e *DirectoryNotFoundError) Error() string {
	msg := fmt.Sprintf("Failed to %s: Directory %s does not exist.", e.Operation, e.Directory)
	if e.Suggestion != "" {
		msg += " " + e.Suggestion
	}
	return msg
}
