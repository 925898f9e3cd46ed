package events

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"time"
)

// Filter selects events. Zero fields match everything.
type Filter struct {
	Type     string
	Subject  string    // project root
	Since    time.Time // at or after
	AfterSeq uint64    // Seq > AfterSeq
	Limit    int       // keep only the last Limit matches
}

func (f Filter) match(e Event) bool {
	switch {
	case f.AfterSeq > 0 && e.Seq <= f.AfterSeq:
		return false
	case f.Type != "" && e.Type != f.Type:
		return false
	case f.Subject != "" && e.Subject != f.Subject:
		return false
	case !f.Since.IsZero() && e.Ts.Before(f.Since):
		return false
	}
	return true
}

func (f Filter) apply(all []Event) []Event {
	var out []Event
	for _, e := range all {
		if f.match(e) {
			out = append(out, e)
		}
	}
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[len(out)-f.Limit:]
	}
	return out
}

// ReadFiltered reads the log at path and returns the events matching
// filter. A missing log reads as empty. Malformed lines are skipped.
func ReadFiltered(path string, filter Filter) ([]Event, error) {
	all, _, err := ReadFrom(path, 0)
	if err != nil {
		return nil, err
	}
	return filter.apply(all), nil
}

// ReadLatestSeq returns the highest Seq in the log at path, or 0.
func ReadLatestSeq(path string) (uint64, error) {
	all, _, err := ReadFrom(path, 0)
	var maxSeq uint64
	for _, e := range all {
		maxSeq = max(maxSeq, e.Seq)
	}
	return maxSeq, err
}

// ReadFrom reads events starting at byte offset and returns them with the
// offset just past the last complete line. A missing file yields no
// events and the same offset.
func ReadFrom(path string, offset int64) ([]Event, int64, error) {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, offset, nil
	}
	if err != nil {
		return nil, offset, fmt.Errorf("reading events: %w", err)
	}
	defer f.Close() //nolint:errcheck // read-only file

	if _, err := f.Seek(offset, io.SeekStart); err != nil {
		return nil, offset, fmt.Errorf("seeking events: %w", err)
	}

	var result []Event
	r := bufio.NewReader(f)
	for {
		line, err := r.ReadBytes('\n')
		if err == io.EOF {
			// A trailing line without newline is still being written.
			break
		}
		if err != nil {
			return result, offset, fmt.Errorf("scanning events: %w", err)
		}
		offset += int64(len(line))
		var e Event
		if json.Unmarshal(line, &e) != nil {
			continue // partial or foreign line
		}
		result = append(result, e)
	}
	return result, offset, nil
}
