package events

import (
	"context"
	"sync"
)

const defaultRecorderSize = 100

// QueryOptions filters a Recorder query.
type QueryOptions struct {
	Name  Name
	Type  Type
	Limit int
}

// Recorder keeps the most recent events in a ring buffer.
type Recorder struct {
	mu     sync.Mutex
	events []Event
	next   int
	full   bool
}

// NewRecorder creates a recorder holding at most size events.
func NewRecorder(size int) *Recorder {
	if size <= 0 {
		size = defaultRecorderSize
	}
	return &Recorder{events: make([]Event, size)}
}

// Record is a Listener; register it with Dispatcher.ListenAll.
func (r *Recorder) Record(_ context.Context, e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.events[r.next] = e
	r.next = (r.next + 1) % len(r.events)
	if r.next == 0 {
		r.full = true
	}
}

// Query returns matching events, newest first.
func (r *Recorder) Query(opts QueryOptions) []Event {
	r.mu.Lock()
	defer r.mu.Unlock()

	count := r.next
	if r.full {
		count = len(r.events)
	}

	out := make([]Event, 0, count)
	for i := 1; i <= count; i++ {
		e := r.events[(r.next-i+len(r.events))%len(r.events)]
		if opts.Name != "" && e.Name != opts.Name {
			continue
		}
		if opts.Type != "" && e.Type != opts.Type {
			continue
		}
		out = append(out, e)
		if opts.Limit > 0 && len(out) >= opts.Limit {
			break
		}
	}
	return out
}
