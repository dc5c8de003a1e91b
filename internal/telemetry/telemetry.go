// Package telemetry gives the call handler a structured log line and a
// bounded in-memory trail for the intercepted calls it records, for post-mortem
// diagnosis of a host crash without needing the host process itself.
package telemetry

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Event is one recorded OSCallHandler call.
type Event struct {
	TraceID   uuid.UUID
	Timestamp time.Time
	Call      string
	Dir       string
	Name      string
	Handle    int64
	Outcome   string
	Bytes     int
	Err       error
}

// Recorder logs every event through zerolog and keeps the last capacity
// events in a ring buffer for post-mortem inspection in-process via Recent.
type Recorder struct {
	log      zerolog.Logger
	mu       sync.Mutex
	buf      []Event
	capacity int
	next     int
	filled   bool
}

// NewRecorder creates a Recorder backed by log, keeping up to capacity
// recent events. capacity <= 0 disables the ring buffer (log-only mode).
func NewRecorder(log zerolog.Logger, capacity int) *Recorder {
	r := &Recorder{log: log, capacity: capacity}
	if capacity > 0 {
		r.buf = make([]Event, capacity)
	}
	return r
}

// Record logs ev and appends it to the ring buffer.
func (r *Recorder) Record(ev Event) {
	entry := r.log.Info()
	if ev.Err != nil {
		entry = r.log.Warn().Err(ev.Err)
	}
	entry.
		Str("trace_id", ev.TraceID.String()).
		Str("call", ev.Call).
		Str("dir", ev.Dir).
		Str("name", ev.Name).
		Int64("handle", ev.Handle).
		Str("outcome", ev.Outcome).
		Int("bytes", ev.Bytes).
		Msg("call")

	if r.capacity <= 0 {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.buf[r.next] = ev
	r.next = (r.next + 1) % r.capacity
	if r.next == 0 {
		r.filled = true
	}
}

// Recent returns the recorded events, oldest first, up to capacity of them.
func (r *Recorder) Recent() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.capacity <= 0 {
		return nil
	}
	if !r.filled {
		out := make([]Event, r.next)
		copy(out, r.buf[:r.next])
		return out
	}
	out := make([]Event, r.capacity)
	copy(out, r.buf[r.next:])
	copy(out[r.capacity-r.next:], r.buf[:r.next])
	return out
}

// NewTraceID is a thin wrapper so call sites don't import uuid directly.
func NewTraceID() uuid.UUID {
	return uuid.New()
}
