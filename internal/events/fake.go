package events

import "sync"

// Fake is an in-memory [Provider] for testing. It captures all recorded
// events in the Events slice and numbers them like [FileRecorder].
// Safe for concurrent use.
type Fake struct {
	mu     sync.Mutex
	Events []Event
}

// NewFake returns a ready-to-use [Fake] recorder.
func NewFake() *Fake {
	return &Fake{}
}

// Record assigns the next Seq and appends the event.
func (f *Fake) Record(e Event) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e.Seq = uint64(len(f.Events)) + 1
	f.Events = append(f.Events, e)
}

// List returns the recorded events matching filter.
func (f *Fake) List(filter Filter) ([]Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return filter.apply(f.Events), nil
}

// LatestSeq returns the Seq of the last recorded event.
func (f *Fake) LatestSeq() (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return uint64(len(f.Events)), nil
}

// Types returns the recorded event types in order.
func (f *Fake) Types() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.Events))
	for i, e := range f.Events {
		out[i] = e.Type
	}
	return out
}

var (
	_ Provider  = (*Fake)(nil)
	_ Watchable = (*FileRecorder)(nil)
)
