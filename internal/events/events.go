// Package events keeps the per-user log of project lifecycle events.
//
// Events are appended as JSON lines to <state>/events.jsonl by the CLI
// after each command that creates, loads, or changes a project, and read
// back by `iotwb events`. Recording is best-effort: failures go to stderr
// and never fail the command that produced the event.
package events

import (
	"context"
	"time"
)

// Event types.
const (
	ProjectCreated      = "project.created"
	ProjectLoaded       = "project.loaded"
	ProjectLoadFailed   = "project.load_failed"
	ProjectReloaded     = "project.reloaded"
	AzureComponentAdded = "azure.component_added"
	DoctorFixApplied    = "doctor.fix_applied"
)

// Event is a single recorded occurrence.
type Event struct {
	Seq     uint64    `json:"seq"`
	Type    string    `json:"type"`
	Ts      time.Time `json:"ts"`
	Actor   string    `json:"actor"`
	Subject string    `json:"subject,omitempty"` // project root
	Message string    `json:"message,omitempty"`
}

// Recorder records events. Safe for concurrent use. Best-effort.
type Recorder interface {
	Record(e Event)
}

// Provider records and reads back events.
type Provider interface {
	Recorder
	List(filter Filter) ([]Event, error)
	LatestSeq() (uint64, error)
}

// Watcher yields events as they are appended.
type Watcher interface {
	// Next blocks until an event arrives or the watch context ends.
	Next() (Event, error)
	Close() error
}

// Watchable is a Provider that can follow the log.
type Watchable interface {
	Provider
	Watch(ctx context.Context, afterSeq uint64) (Watcher, error)
}

// Discard silently drops all events.
var Discard Recorder = discardRecorder{}

type discardRecorder struct{}

func (discardRecorder) Record(Event) {}
