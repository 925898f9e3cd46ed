package events

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// FileRecorder appends events to a JSONL file. O_APPEND keeps concurrent
// iotwb processes from interleaving lines; a mutex serializes callers in
// one process. Recording errors go to stderr and are never returned.
type FileRecorder struct {
	mu     sync.Mutex
	path   string
	file   *os.File
	seq    uint64
	actor  string
	stderr io.Writer
}

// NewFileRecorder opens (or creates) the log at path, continuing from the
// highest Seq already in it. Events recorded without an Actor get actor.
func NewFileRecorder(path, actor string, stderr io.Writer) (*FileRecorder, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating event log directory: %w", err)
	}
	maxSeq, err := ReadLatestSeq(path)
	if err != nil {
		return nil, fmt.Errorf("scanning event log: %w", err)
	}
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening event log: %w", err)
	}
	return &FileRecorder{
		path:   path,
		file:   file,
		seq:    maxSeq,
		actor:  actor,
		stderr: stderr,
	}, nil
}

// Record appends e, filling Seq, and Ts and Actor when zero.
func (r *FileRecorder) Record(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.seq++
	e.Seq = r.seq
	if e.Ts.IsZero() {
		e.Ts = time.Now()
	}
	if e.Actor == "" {
		e.Actor = r.actor
	}

	data, err := json.Marshal(e)
	if err != nil {
		fmt.Fprintf(r.stderr, "events: marshal: %v\n", err) //nolint:errcheck // best-effort stderr
		return
	}
	if _, err := r.file.Write(append(data, '\n')); err != nil {
		fmt.Fprintf(r.stderr, "events: write: %v\n", err) //nolint:errcheck // best-effort stderr
	}
}

// List returns events matching filter.
func (r *FileRecorder) List(filter Filter) ([]Event, error) {
	return ReadFiltered(r.path, filter)
}

// LatestSeq returns the highest Seq in the log.
func (r *FileRecorder) LatestSeq() (uint64, error) {
	return ReadLatestSeq(r.path)
}

// Watch follows the log, yielding events with Seq > afterSeq until ctx ends.
func (r *FileRecorder) Watch(ctx context.Context, afterSeq uint64) (Watcher, error) {
	return &fileWatcher{
		path:     r.path,
		afterSeq: afterSeq,
		ctx:      ctx,
		poll:     250 * time.Millisecond,
	}, nil
}

// Close closes the log file.
func (r *FileRecorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.file.Close()
}

// fileWatcher polls the log for appended lines.
type fileWatcher struct {
	path     string
	afterSeq uint64
	ctx      context.Context
	poll     time.Duration
	offset   int64
	buf      []Event
}

func (w *fileWatcher) Next() (Event, error) {
	for {
		if len(w.buf) > 0 {
			e := w.buf[0]
			w.buf = w.buf[1:]
			return e, nil
		}
		if err := w.ctx.Err(); err != nil {
			return Event{}, err
		}

		evts, offset, err := ReadFrom(w.path, w.offset)
		if err != nil {
			return Event{}, err
		}
		w.offset = offset
		for _, e := range evts {
			if e.Seq > w.afterSeq {
				w.afterSeq = e.Seq
				w.buf = append(w.buf, e)
			}
		}
		if len(w.buf) > 0 {
			continue
		}

		select {
		case <-w.ctx.Done():
			return Event{}, w.ctx.Err()
		case <-time.After(w.poll):
		}
	}
}

func (w *fileWatcher) Close() error { return nil }
