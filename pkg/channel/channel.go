// Package channel implements the edge fabric that connects compiled node
// ports: bounded point-to-point pipes and broadcast fan-out adapters, built
// from a buffered channel with a single guarded close and a fan-out that
// sends each value to its branches one after another, in wiring order.
package channel

import "sync"

// Envelope is the unit carried on every Pipe: a value tagged with the edge
// endpoints it traveled, so a consumer or event subscriber can label an
// EdgeData event without the node itself knowing its own wiring.
type Envelope struct {
	FromNode string
	FromPort string
	Value    interface{}
}

// Pipe is a bounded, single-producer, single-consumer (per branch) channel.
// It is closed at most once regardless of how many times Close is called.
type Pipe struct {
	ch   chan Envelope
	once sync.Once
}

// DefaultCapacity is the buffer size new Pipes use when the caller doesn't
// pick one explicitly.
const DefaultCapacity = 16

// NewPipe creates a Pipe with the given buffer capacity.
func NewPipe(capacity int) *Pipe {
	if capacity < 0 {
		capacity = 0
	}
	return &Pipe{ch: make(chan Envelope, capacity)}
}

// Send enqueues an Envelope, blocking until there's room or ctxDone fires.
// It returns false if ctxDone fired before the send could complete.
func (p *Pipe) Send(env Envelope, ctxDone <-chan struct{}) bool {
	select {
	case p.ch <- env:
		return true
	case <-ctxDone:
		return false
	}
}

// Recv exposes the receive side for select statements in node run loops.
func (p *Pipe) Recv() <-chan Envelope { return p.ch }

// Close closes the underlying channel. Safe to call more than once or
// concurrently; only the first call has effect.
func (p *Pipe) Close() {
	p.once.Do(func() { close(p.ch) })
}

// ClosedPipe returns a Pipe that is already closed and carries nothing. The
// compiler binds this to any declared input port with no inbound edge, so
// every node can unconditionally select on every declared input.
func ClosedPipe() *Pipe {
	p := NewPipe(0)
	p.Close()
	return p
}

// FanOut clones every Envelope sent to it across N receiver Pipes,
// preserving per-branch order. A send to FanOut blocks until every branch
// has accepted the value — a
// slow branch stalls the whole fan-out (intentional head-of-line
// blocking, since it keeps join/aggregation correctness downstream).
type FanOut struct {
	branches []*Pipe
}

// NewFanOut creates a FanOut with n branch Pipes, each with the given
// per-branch buffer capacity.
func NewFanOut(n, capacity int) *FanOut {
	branches := make([]*Pipe, n)
	for i := range branches {
		branches[i] = NewPipe(capacity)
	}
	return &FanOut{branches: branches}
}

// Branches returns the fan-out's receiver Pipes, in declaration order.
func (f *FanOut) Branches() []*Pipe { return f.branches }

// Send clones env's Value across all branches and sends one copy to each,
// in order. It returns false if ctxDone fired before every branch could be
// reached; branches already sent to keep their copy.
func (f *FanOut) Send(env Envelope, clone func(interface{}) interface{}, ctxDone <-chan struct{}) bool {
	for _, branch := range f.branches {
		copyEnv := env
		copyEnv.Value = clone(env.Value)
		if !branch.Send(copyEnv, ctxDone) {
			return false
		}
	}
	return true
}

// Close closes every branch Pipe.
func (f *FanOut) Close() {
	for _, branch := range f.branches {
		branch.Close()
	}
}
