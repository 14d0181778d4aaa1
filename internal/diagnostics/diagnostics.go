// Package diagnostics keeps a small in-process window of recent failures and
// exposes health probes for the admin surface.
package diagnostics

import (
	"sync"
	"time"
)

// ringSize bounds the error window.
const ringSize = 20

// Entry is one recorded failure.
type Entry struct {
	At      time.Time `json:"at"`
	Source  string    `json:"source"`
	Message string    `json:"message"`
}

// Recorder is a bounded ring of the most recent errors. Safe for concurrent
// use.
type Recorder struct {
	mu      sync.Mutex
	entries []Entry
	next    int
	full    bool
}

// NewRecorder creates an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{
		entries: make([]Entry, ringSize),
	}
}

// RecordError appends a failure, evicting the oldest once the window fills.
func (r *Recorder) RecordError(source, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.entries[r.next] = Entry{
		At:      time.Now(),
		Source:  source,
		Message: message,
	}
	r.next = (r.next + 1) % ringSize
	if r.next == 0 {
		r.full = true
	}
}

// Recent returns the recorded errors, newest first.
func (r *Recorder) Recent() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()

	count := r.next
	if r.full {
		count = ringSize
	}

	out := make([]Entry, 0, count)
	for i := 1; i <= count; i++ {
		idx := (r.next - i + ringSize) % ringSize
		out = append(out, r.entries[idx])
	}
	return out
}
