package compiler

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wehubfusion/rustflow/pkg/config"
	"github.com/wehubfusion/rustflow/pkg/graph"
	"github.com/wehubfusion/rustflow/pkg/node"
	"github.com/wehubfusion/rustflow/pkg/value"
)

// stubNode is a minimal single-in/single-out node used only to exercise
// the compiler's wiring logic.
type stubNode struct {
	node.BaseNode
}

func newStubFactory() node.Factory {
	return func(id string) node.Node {
		return &stubNode{BaseNode: node.NewBaseNode(id, "stub", nil)}
	}
}

func (s *stubNode) Arity() node.Arity {
	return node.Arity{
		Inputs:  []node.PortDescriptor{{Name: "0"}},
		Outputs: []node.PortDescriptor{{Name: "0"}},
	}
}

func (s *stubNode) Configure(map[string]interface{}, node.CredentialResolver) error { return nil }

func (s *stubNode) Run([]node.Input, []*node.Output, node.RunContext) error { return nil }

func newReg() *Registry {
	r := NewRegistry()
	r.Register("stub", newStubFactory())
	return r
}

func TestCompileLinearGraph(t *testing.T) {
	def := &graph.WorkflowDef{
		Nodes: []graph.NodeSpec{
			{ID: "a", Type: "stub"},
			{ID: "b", Type: "stub"},
		},
		Edges: []graph.Edge{
			{From: graph.PortRef{NodeID: "a", Index: 0}, To: graph.PortRef{NodeID: "b", Index: 0}},
		},
	}

	cg, err := Compile(def, newReg(), nil, config.Default())
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"a", "b"}, cg.NodeIDs())

	_, _, _, outputsA, ok := cg.Node("a")
	require.True(t, ok)
	require.Len(t, outputsA, 1)

	ok2 := outputsA[0].Send(context.Background(), value.Number(1))
	require.True(t, ok2)
}

func TestCompileRejectsUnknownType(t *testing.T) {
	def := &graph.WorkflowDef{Nodes: []graph.NodeSpec{{ID: "a", Type: "mystery"}}}
	_, err := Compile(def, newReg(), nil, config.Default())
	require.Error(t, err)
}

func TestCompileRejectsDuplicateID(t *testing.T) {
	def := &graph.WorkflowDef{
		Nodes: []graph.NodeSpec{
			{ID: "a", Type: "stub"},
			{ID: "a", Type: "stub"},
		},
	}
	_, err := Compile(def, newReg(), nil, config.Default())
	require.Error(t, err)
}

func TestCompileRejectsCycle(t *testing.T) {
	def := &graph.WorkflowDef{
		Nodes: []graph.NodeSpec{
			{ID: "a", Type: "stub"},
			{ID: "b", Type: "stub"},
		},
		Edges: []graph.Edge{
			{From: graph.PortRef{NodeID: "a", Index: 0}, To: graph.PortRef{NodeID: "b", Index: 0}},
			{From: graph.PortRef{NodeID: "b", Index: 0}, To: graph.PortRef{NodeID: "a", Index: 0}},
		},
	}
	_, err := Compile(def, newReg(), nil, config.Default())
	require.Error(t, err)
}

func TestCompileRejectsDoubleInboundEdge(t *testing.T) {
	def := &graph.WorkflowDef{
		Nodes: []graph.NodeSpec{
			{ID: "a", Type: "stub"},
			{ID: "b", Type: "stub"},
			{ID: "c", Type: "stub"},
		},
		Edges: []graph.Edge{
			{From: graph.PortRef{NodeID: "a", Index: 0}, To: graph.PortRef{NodeID: "c", Index: 0}},
			{From: graph.PortRef{NodeID: "b", Index: 0}, To: graph.PortRef{NodeID: "c", Index: 0}},
		},
	}
	_, err := Compile(def, newReg(), nil, config.Default())
	require.Error(t, err)
}

func TestCompileUnwiredInputGetsClosedPipe(t *testing.T) {
	def := &graph.WorkflowDef{Nodes: []graph.NodeSpec{{ID: "a", Type: "stub"}}}
	cg, err := Compile(def, newReg(), nil, config.Default())
	require.NoError(t, err)

	_, _, inputs, _, ok := cg.Node("a")
	require.True(t, ok)
	_, stillOpen := <-inputs[0].Recv()
	require.False(t, stillOpen)
}
