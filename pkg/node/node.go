// Package node defines the contract every workflow node implements, and
// the small set of runtime helpers (BaseNode, RunContext) nodes embed to
// get config access, logging, and event emission for free. Nodes declare
// an arity-aware, multi-port streaming contract rather than a fixed
// single-input single-output processing step.
package node

import (
	"context"

	"github.com/wehubfusion/rustflow/pkg/channel"
	"github.com/wehubfusion/rustflow/pkg/logging"
	"github.com/wehubfusion/rustflow/pkg/value"
)

// PortDescriptor names one input or output port. Role carries an optional
// semantic tag (e.g. "success", "error", "true", "false") that lets edges
// address the port by name instead of index.
type PortDescriptor struct {
	Name string
	Role string
}

// Arity is the static shape of a node type: how many input and output
// ports it declares, and the output ports' names for from_port resolution.
type Arity struct {
	Inputs  []PortDescriptor
	Outputs []PortDescriptor
}

// InCount and OutCount are conveniences over the descriptor slices.
func (a Arity) InCount() int  { return len(a.Inputs) }
func (a Arity) OutCount() int { return len(a.Outputs) }

// OutputIndex resolves a from_port name to its numeric index. Ok is false
// if name isn't declared.
func (a Arity) OutputIndex(name string) (int, bool) {
	for i, p := range a.Outputs {
		if p.Name == name || p.Role == name {
			return i, true
		}
	}
	return 0, false
}

// InputIndex resolves a to_port name to its numeric index.
func (a Arity) InputIndex(name string) (int, bool) {
	for i, p := range a.Inputs {
		if p.Name == name || p.Role == name {
			return i, true
		}
	}
	return 0, false
}

// CredentialResolver looks up a stored credential by opaque identifier.
// Implementations must be safe for concurrent use; nodes never mutate
// credentials, only read them.
type CredentialResolver interface {
	Resolve(id string) (map[string]interface{}, bool)
}

// NoCredentials is a CredentialResolver that never finds anything, used
// when a workflow declares no credential store.
type NoCredentials struct{}

func (NoCredentials) Resolve(string) (map[string]interface{}, bool) { return nil, false }

// EventEmitter lets a node voluntarily publish a diagnostic or EdgeData-like
// event on its own behalf, independent of the fabric's automatic
// instrumentation. The built-in console sink reports through Logger
// instead.
type EventEmitter interface {
	EmitDiagnostic(nodeID, message string, fields map[string]interface{})
}

// RunContext is threaded through every node's Run call. It carries the
// job's shared cancellation signal, a logger, an event emitter, and a
// credential resolver. The engine's scheduler sets Credential to
// NoCredentials, so run-time lookups find nothing; credentials reach a node
// only through Configure at compile time.
type RunContext struct {
	Context    context.Context
	NodeID     string
	Logger     logging.Logger
	Events     EventEmitter
	Credential CredentialResolver
}

// Done returns the cancellation channel nodes select on alongside their own
// input/output operations.
func (rc RunContext) Done() <-chan struct{} {
	if rc.Context == nil {
		return nil
	}
	return rc.Context.Done()
}

// Input is the receive side of a node's bound input port.
type Input = *channel.Pipe

// PortTarget names the downstream node/port an output branch feeds, used
// only to label EdgeData instrumentation — the channel wiring itself
// doesn't need it.
type PortTarget struct {
	NodeID string
	Port   string
}

// EmitHook is called once per delivered value, once per fan-out branch,
// before the value reaches its receiver — this is the fabric's automatic
// EdgeData instrumentation, not something a node calls itself.
type EmitHook func(fromNode, fromPort, toNode, toPort string, v value.Value)

// Output is the send side of a node's bound output port. A node sends a
// value.Value; the fabric wraps it into a channel.Envelope tagged with the
// node's own ID and the port it came from.
type Output struct {
	pipe     *channel.Pipe
	fanOut   *channel.FanOut
	nodeID   string
	portName string
	targets  []PortTarget
	emit     EmitHook
}

// NewSinglePortOutput binds an output port to exactly one downstream pipe.
// target is the zero value when the port has no outbound edge.
func NewSinglePortOutput(nodeID, portName string, pipe *channel.Pipe, target PortTarget) *Output {
	var targets []PortTarget
	if pipe != nil {
		targets = []PortTarget{target}
	}
	return &Output{pipe: pipe, nodeID: nodeID, portName: portName, targets: targets}
}

// NewFanOutOutput binds an output port to a fan-out adapter serving
// multiple downstream branches, one target per branch in branch order.
func NewFanOutOutput(nodeID, portName string, fanOut *channel.FanOut, targets []PortTarget) *Output {
	return &Output{fanOut: fanOut, nodeID: nodeID, portName: portName, targets: targets}
}

// SetEmitHook installs the fabric's EdgeData instrumentation callback. The
// scheduler calls this once per output after compilation, before any node
// task starts running.
func (o *Output) SetEmitHook(hook EmitHook) { o.emit = hook }

// Send delivers v downstream, blocking for backpressure until ctx is done.
// It returns false if ctx fired before delivery completed.
func (o *Output) Send(ctx context.Context, v value.Value) bool {
	done := ctx.Done()
	env := channel.Envelope{FromNode: o.nodeID, FromPort: o.portName, Value: v}

	if o.emit != nil {
		for _, t := range o.targets {
			o.emit(o.nodeID, o.portName, t.NodeID, t.Port, v)
		}
	}

	if o.fanOut != nil {
		return o.fanOut.Send(env, func(raw interface{}) interface{} {
			return raw.(value.Value).Clone()
		}, done)
	}
	if o.pipe == nil {
		return true
	}
	return o.pipe.Send(env, done)
}

// Close closes the underlying pipe or fan-out. Safe to call even if the
// port has no downstream edges.
func (o *Output) Close() {
	if o.fanOut != nil {
		o.fanOut.Close()
		return
	}
	if o.pipe != nil {
		o.pipe.Close()
	}
}

// Node is the contract every node type implements. Arity is static;
// Configure runs once at compile time; Run executes once per job.
type Node interface {
	Arity() Arity
	Configure(config map[string]interface{}, credentials CredentialResolver) error
	Run(inputs []Input, outputs []*Output, ctx RunContext) error
}

// Factory builds a fresh Node instance for one compiled graph slot. Node
// instances are never reused across jobs.
type Factory func(id string) Node

// BaseNode is the embeddable config-access helper nodes use to avoid
// hand-rolling map lookups with defaults.
type BaseNode struct {
	id     string
	typ    string
	config map[string]interface{}
}

// NewBaseNode constructs a BaseNode bound to a node ID, type tag, and its
// resolved configuration map.
func NewBaseNode(id, typ string, config map[string]interface{}) BaseNode {
	if config == nil {
		config = map[string]interface{}{}
	}
	return BaseNode{id: id, typ: typ, config: config}
}

func (b BaseNode) ID() string                     { return b.id }
func (b BaseNode) Type() string                   { return b.typ }
func (b BaseNode) Config() map[string]interface{} { return b.config }

// HasConfig reports whether key is present in the node's configuration.
func (b BaseNode) HasConfig(key string) bool {
	_, ok := b.config[key]
	return ok
}

// GetConfigString returns the string config value at key, or def if absent
// or not a string.
func (b BaseNode) GetConfigString(key, def string) string {
	if v, ok := b.config[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return def
}

// GetConfigBool returns the bool config value at key, or def if absent or
// not a bool.
func (b BaseNode) GetConfigBool(key string, def bool) bool {
	if v, ok := b.config[key]; ok {
		if bv, ok := v.(bool); ok {
			return bv
		}
	}
	return def
}

// GetConfigFloat returns the numeric config value at key, or def if absent
// or not a number.
func (b BaseNode) GetConfigFloat(key string, def float64) float64 {
	if v, ok := b.config[key]; ok {
		switch n := v.(type) {
		case float64:
			return n
		case int:
			return float64(n)
		}
	}
	return def
}

// GetConfigInt returns GetConfigFloat truncated to int.
func (b BaseNode) GetConfigInt(key string, def int) int {
	return int(b.GetConfigFloat(key, float64(def)))
}

// GetConfigMap returns the map config value at key, or nil if absent or
// not a map.
func (b BaseNode) GetConfigMap(key string) map[string]interface{} {
	if v, ok := b.config[key]; ok {
		if m, ok := v.(map[string]interface{}); ok {
			return m
		}
	}
	return nil
}

// GetConfigSlice returns the slice config value at key, or nil if absent or
// not a slice.
func (b BaseNode) GetConfigSlice(key string) []interface{} {
	if v, ok := b.config[key]; ok {
		if s, ok := v.([]interface{}); ok {
			return s
		}
	}
	return nil
}
