// Package compiler turns a parsed graph.WorkflowDef into a sealed
// CompiledGraph: it validates node references and port arities, detects
// cycles with Kahn's algorithm, and wires the channel fabric between nodes
// via a type_tag -> node.Factory registry.
package compiler

import (
	"fmt"

	"github.com/wehubfusion/rustflow/pkg/channel"
	"github.com/wehubfusion/rustflow/pkg/config"
	"github.com/wehubfusion/rustflow/pkg/engineerrors"
	"github.com/wehubfusion/rustflow/pkg/graph"
	"github.com/wehubfusion/rustflow/pkg/node"
)

// Registry maps a workflow document's type_tag to the factory that builds
// that node type. Register is called at startup, Lookup at compile time.
type Registry struct {
	factories map[string]node.Factory
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{factories: map[string]node.Factory{}}
}

// Register binds typeTag to factory. Registering the same tag twice
// overwrites the previous binding.
func (r *Registry) Register(typeTag string, factory node.Factory) {
	r.factories[typeTag] = factory
}

// Lookup returns the factory bound to typeTag, if any.
func (r *Registry) Lookup(typeTag string) (node.Factory, bool) {
	f, ok := r.factories[typeTag]
	return f, ok
}

// RegisteredTypes lists every bound type_tag, for the node-registry
// metadata endpoint.
func (r *Registry) RegisteredTypes() []string {
	out := make([]string, 0, len(r.factories))
	for t := range r.factories {
		out = append(out, t)
	}
	return out
}

// compiledNode bundles one node instance with its bound input pipes and
// output ports, ready for the scheduler to run.
type compiledNode struct {
	id      string
	typ     string
	n       node.Node
	inputs  []node.Input
	outputs []*node.Output
}

// CompiledGraph is the sealed, ready-to-run result of Compile. Callers
// never mutate it; the engine's scheduler spawns one task per entry in
// NodeIDs.
type CompiledGraph struct {
	nodes []compiledNode
	byID  map[string]int
}

// NodeIDs returns every node's ID, in declaration order.
func (g *CompiledGraph) NodeIDs() []string {
	out := make([]string, len(g.nodes))
	for i, n := range g.nodes {
		out[i] = n.id
	}
	return out
}

// Node returns the compiledNode fields needed by the scheduler for a given
// node ID.
func (g *CompiledGraph) Node(id string) (typ string, n node.Node, inputs []node.Input, outputs []*node.Output, ok bool) {
	idx, found := g.byID[id]
	if !found {
		return "", nil, nil, nil, false
	}
	cn := g.nodes[idx]
	return cn.typ, cn.n, cn.inputs, cn.outputs, true
}

// Compile validates def against reg and wires the channel fabric. Parsing
// is assumed already done (def is the normalized WorkflowDef), so this
// starts at duplicate-ID/reference validation, instantiation, cycle
// detection, and channel wiring.
func Compile(def *graph.WorkflowDef, reg *Registry, credentials node.CredentialResolver, cfg config.Config) (*CompiledGraph, error) {
	if credentials == nil {
		credentials = node.NoCredentials{}
	}

	byID := make(map[string]int, len(def.Nodes))
	for i, spec := range def.Nodes {
		if spec.ID == "" {
			return nil, engineerrors.NewCompileError(engineerrors.KindDuplicateID, "node with empty id", nil)
		}
		if _, dup := byID[spec.ID]; dup {
			return nil, engineerrors.NewCompileError(engineerrors.KindDuplicateID, fmt.Sprintf("duplicate node id %q", spec.ID), nil)
		}
		byID[spec.ID] = i
	}

	instances := make([]node.Node, len(def.Nodes))
	arities := make([]node.Arity, len(def.Nodes))
	for i, spec := range def.Nodes {
		factory, ok := reg.Lookup(spec.Type)
		if !ok {
			return nil, engineerrors.NewCompileError(engineerrors.KindUnknownNodeType, fmt.Sprintf("node %q has unregistered type %q", spec.ID, spec.Type), nil)
		}
		n := factory(spec.ID)
		if err := n.Configure(spec.Config, credentials); err != nil {
			kind := engineerrors.KindConfigError
			if _, isCred := err.(credentialError); isCred {
				kind = engineerrors.KindCredentialError
			}
			return nil, engineerrors.NewCompileError(kind, fmt.Sprintf("node %q failed to configure", spec.ID), err)
		}
		instances[i] = n
		arities[i] = n.Arity()
	}

	resolvedEdges := make([]resolvedEdge, 0, len(def.Edges))
	for _, e := range def.Edges {
		fromIdx, ok := byID[e.From.NodeID]
		if !ok {
			return nil, engineerrors.NewCompileError(engineerrors.KindBadEdge, fmt.Sprintf("edge references unknown source node %q", e.From.NodeID), nil)
		}
		toIdx, ok := byID[e.To.NodeID]
		if !ok {
			return nil, engineerrors.NewCompileError(engineerrors.KindBadEdge, fmt.Sprintf("edge references unknown target node %q", e.To.NodeID), nil)
		}

		fromPort, err := resolvePort(e.From, arities[fromIdx].Outputs)
		if err != nil {
			return nil, err
		}
		toPort, err := resolvePort(e.To, arities[toIdx].Inputs)
		if err != nil {
			return nil, err
		}
		if toPort < 0 || fromPort < 0 || toPort >= arities[toIdx].InCount() || fromPort >= arities[fromIdx].OutCount() {
			return nil, engineerrors.NewCompileError(engineerrors.KindMissingPort, fmt.Sprintf("edge %s -> %s references a port out of range", e.From, e.To), nil)
		}

		resolvedEdges = append(resolvedEdges, resolvedEdge{
			fromIdx: fromIdx, fromPort: fromPort,
			toIdx: toIdx, toPort: toPort,
		})
	}

	// Each input port may have at most one inbound edge.
	inboundCount := make(map[[2]int]int)
	for _, e := range resolvedEdges {
		key := [2]int{e.toIdx, e.toPort}
		inboundCount[key]++
		if inboundCount[key] > 1 {
			return nil, engineerrors.NewCompileError(engineerrors.KindBadEdge,
				fmt.Sprintf("node %q input port %d has more than one inbound edge", def.Nodes[e.toIdx].ID, e.toPort), nil)
		}
	}

	if err := detectCycle(len(def.Nodes), resolvedEdges); err != nil {
		return nil, err
	}

	outboundByPort := make(map[[2]int][]resolvedEdge)
	for _, e := range resolvedEdges {
		key := [2]int{e.fromIdx, e.fromPort}
		outboundByPort[key] = append(outboundByPort[key], e)
	}

	capacity := cfg.ChannelCapacity
	nodeOutputs := make([][]*node.Output, len(def.Nodes))
	nodeInputs := make([][]node.Input, len(def.Nodes))
	pipeByTarget := make(map[[2]int]*channel.Pipe)

	for i, spec := range def.Nodes {
		outputs := make([]*node.Output, arities[i].OutCount())
		for p, desc := range arities[i].Outputs {
			targets := outboundByPort[[2]int{i, p}]
			switch len(targets) {
			case 0:
				outputs[p] = node.NewSinglePortOutput(spec.ID, desc.Name, nil, node.PortTarget{})
			case 1:
				pipe := channel.NewPipe(capacity)
				pipeByTarget[[2]int{targets[0].toIdx, targets[0].toPort}] = pipe
				outputs[p] = node.NewSinglePortOutput(spec.ID, desc.Name, pipe, portTargetFor(def, arities, targets[0]))
			default:
				fanOut := channel.NewFanOut(len(targets), capacity)
				portTargets := make([]node.PortTarget, len(targets))
				for branchIdx, t := range targets {
					pipeByTarget[[2]int{t.toIdx, t.toPort}] = fanOut.Branches()[branchIdx]
					portTargets[branchIdx] = portTargetFor(def, arities, t)
				}
				outputs[p] = node.NewFanOutOutput(spec.ID, desc.Name, fanOut, portTargets)
			}
		}
		nodeOutputs[i] = outputs
	}

	for i := range def.Nodes {
		inputs := make([]node.Input, arities[i].InCount())
		for p := range arities[i].Inputs {
			if pipe, ok := pipeByTarget[[2]int{i, p}]; ok {
				inputs[p] = pipe
			} else {
				inputs[p] = channel.ClosedPipe()
			}
		}
		nodeInputs[i] = inputs
	}

	cg := &CompiledGraph{byID: map[string]int{}}
	for i, spec := range def.Nodes {
		cg.byID[spec.ID] = len(cg.nodes)
		cg.nodes = append(cg.nodes, compiledNode{
			id:      spec.ID,
			typ:     spec.Type,
			n:       instances[i],
			inputs:  nodeInputs[i],
			outputs: nodeOutputs[i],
		})
	}

	return cg, nil
}

type resolvedEdge struct {
	fromIdx, fromPort int
	toIdx, toPort     int
}

func portTargetFor(def *graph.WorkflowDef, arities []node.Arity, e resolvedEdge) node.PortTarget {
	return node.PortTarget{
		NodeID: def.Nodes[e.toIdx].ID,
		Port:   arities[e.toIdx].Inputs[e.toPort].Name,
	}
}

// Outputs returns every node's output ports, flattened, so the scheduler
// can install the EdgeData instrumentation hook on each before any node
// task starts running.
func (g *CompiledGraph) Outputs() []*node.Output {
	var all []*node.Output
	for _, n := range g.nodes {
		all = append(all, n.outputs...)
	}
	return all
}

func resolvePort(ref graph.PortRef, descriptors []node.PortDescriptor) (int, error) {
	if !ref.IsName {
		return ref.Index, nil
	}
	for i, d := range descriptors {
		if d.Name == ref.Name || d.Role == ref.Name {
			return i, nil
		}
	}
	return 0, engineerrors.NewCompileError(engineerrors.KindMissingPort,
		fmt.Sprintf("port name %q not declared on node %q", ref.Name, ref.NodeID), nil)
}

// detectCycle runs Kahn's algorithm over the resolved node-level edge set
// (ignoring port identity, since a cycle exists if any port-level path
// loops back to its origin node).
func detectCycle(n int, edges []resolvedEdge) error {
	adj := make([][]int, n)
	indeg := make([]int, n)
	seen := make(map[[2]int]bool)
	for _, e := range edges {
		key := [2]int{e.fromIdx, e.toIdx}
		if seen[key] {
			continue
		}
		seen[key] = true
		adj[e.fromIdx] = append(adj[e.fromIdx], e.toIdx)
		indeg[e.toIdx]++
	}

	queue := make([]int, 0, n)
	for i := 0; i < n; i++ {
		if indeg[i] == 0 {
			queue = append(queue, i)
		}
	}

	visited := 0
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		visited++
		for _, next := range adj[cur] {
			indeg[next]--
			if indeg[next] == 0 {
				queue = append(queue, next)
			}
		}
	}

	if visited != n {
		return engineerrors.NewCompileError(engineerrors.KindCycle, "workflow graph contains a cycle", nil)
	}
	return nil
}

// credentialError marks a Configure failure as a missing/invalid credential
// rather than a generic config error, so Compile can report the right
// CompileErrorKind. Node implementations return this type from Configure
// when credential resolution fails.
type credentialError struct{ err error }

func (c credentialError) Error() string { return c.err.Error() }
func (c credentialError) Unwrap() error { return c.err }

// NewCredentialError wraps err so Compile reports KindCredentialError.
func NewCredentialError(err error) error { return credentialError{err: err} }
