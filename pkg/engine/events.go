// Package engine implements the scheduler, event bus, and job lifecycle:
// one goroutine per compiled node, a shared cancellation signal per job, and
// an ordered ExecutionEvent stream subscribers can follow through a
// Job/EventBus pair.
package engine

import (
	"encoding/json"
	"sync"
	"sync/atomic"

	"github.com/wehubfusion/rustflow/pkg/spill"
	"github.com/wehubfusion/rustflow/pkg/value"
)

// EventKind tags an ExecutionEvent's variant.
type EventKind string

const (
	EventNodeStart  EventKind = "NodeStart"
	EventNodeFinish EventKind = "NodeFinish"
	EventEdgeData   EventKind = "EdgeData"
	EventNodeError  EventKind = "NodeError"
	// EventDiagnostic rides the same bus for nodes (e.g. sinks) that want
	// to surface a human-readable result without it being mistaken for a
	// failure.
	EventDiagnostic EventKind = "Diagnostic"
)

// ExecutionEvent is one entry in a job's ordered event stream. Seq is a
// monotonically increasing per-job sequence number assigned by the
// EventBus; every event, not just EdgeData, carries one.
type ExecutionEvent struct {
	Seq       uint64    `json:"seq"`
	Kind      EventKind `json:"kind"`
	JobID     string    `json:"job_id"`
	NodeID    string    `json:"node_id,omitempty"`
	From      string    `json:"from,omitempty"`
	To        string    `json:"to,omitempty"`
	Value     *value.Value `json:"value,omitempty"`
	Ref       *spill.Reference `json:"ref,omitempty"`
	Error     string    `json:"error,omitempty"`
	Cancelled bool      `json:"cancelled,omitempty"`
}

// MarshalEvent renders an event to its wire JSON form.
func MarshalEvent(e ExecutionEvent) ([]byte, error) { return json.Marshal(e) }

// EventBus is a multi-producer, single-sequence-number broadcast: every
// node goroutine in a job publishes to it, and the bus assigns sequence
// numbers and fans events out to subscribers. It never blocks a publisher
// on a slow subscriber — each subscriber gets its own buffered channel and
// slow ones drop events rather than stalling the job, since the event
// stream is a debugging/observation feature, not part of the data path.
type EventBus struct {
	jobID string
	seq   atomic.Uint64

	mu          sync.Mutex
	subscribers []chan ExecutionEvent
	bufferSize  int
	history     []ExecutionEvent
	recordAll   bool
	closed      bool
	forward     func(ExecutionEvent)
}

// NewEventBus creates an EventBus for one job. bufferSize sizes each
// subscriber's channel; recordAll, when true, retains every event so late
// subscribers (or status polling) can replay what already happened.
func NewEventBus(jobID string, bufferSize int, recordAll bool) *EventBus {
	return &EventBus{jobID: jobID, bufferSize: bufferSize, recordAll: recordAll}
}

// SetForward installs a callback invoked, outside the bus's lock, once per
// published event — the hook the optional NATS publisher attaches through
// to republish the stream externally without the core engine depending on
// a live broker.
func (b *EventBus) SetForward(fn func(ExecutionEvent)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.forward = fn
}

// Subscribe registers a new channel that receives every event published
// from this point forward (plus history, if recordAll was set).
func (b *EventBus) Subscribe() <-chan ExecutionEvent {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan ExecutionEvent, b.bufferSize+len(b.history))
	for _, e := range b.history {
		ch <- e
	}
	if b.closed {
		close(ch)
		return ch
	}
	b.subscribers = append(b.subscribers, ch)
	return ch
}

// Publish assigns the next sequence number and fans e out to every
// subscriber, without blocking on a full subscriber channel.
func (b *EventBus) Publish(e ExecutionEvent) ExecutionEvent {
	e.JobID = b.jobID
	e.Seq = b.seq.Add(1)

	b.mu.Lock()
	if b.recordAll {
		b.history = append(b.history, e)
	}
	for _, sub := range b.subscribers {
		select {
		case sub <- e:
		default:
		}
	}
	forward := b.forward
	b.mu.Unlock()

	if forward != nil {
		forward(e)
	}
	return e
}

// CloseSubscribers closes every subscriber channel, signalling end of
// stream once the job has reached a terminal status.
func (b *EventBus) CloseSubscribers() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, sub := range b.subscribers {
		close(sub)
	}
	b.subscribers = nil
	b.closed = true
}

// History returns every event published so far, if recordAll was set.
func (b *EventBus) History() []ExecutionEvent {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.history
}
