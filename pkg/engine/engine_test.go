package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/wehubfusion/rustflow/pkg/compiler"
	"github.com/wehubfusion/rustflow/pkg/config"
	"github.com/wehubfusion/rustflow/pkg/graph"
	"github.com/wehubfusion/rustflow/pkg/node"
	"github.com/wehubfusion/rustflow/pkg/spill"
	"github.com/wehubfusion/rustflow/pkg/value"
)

// sourceNode emits two numbers on its single output then terminates.
type sourceNode struct{ node.BaseNode }

func (s *sourceNode) Arity() node.Arity {
	return node.Arity{Outputs: []node.PortDescriptor{{Name: "0"}}}
}
func (s *sourceNode) Configure(map[string]interface{}, node.CredentialResolver) error { return nil }
func (s *sourceNode) Run(_ []node.Input, outputs []*node.Output, rc node.RunContext) error {
	for _, v := range []float64{1, 2} {
		if !outputs[0].Send(rc.Context, value.Number(v)) {
			return nil
		}
	}
	return nil
}

// sinkNode drains its single input until closed.
type sinkNode struct {
	node.BaseNode
	received *[]float64
}

func (s *sinkNode) Arity() node.Arity {
	return node.Arity{Inputs: []node.PortDescriptor{{Name: "0"}}}
}
func (s *sinkNode) Configure(map[string]interface{}, node.CredentialResolver) error { return nil }
func (s *sinkNode) Run(inputs []node.Input, _ []*node.Output, rc node.RunContext) error {
	for {
		select {
		case env, ok := <-inputs[0].Recv():
			if !ok {
				return nil
			}
			n, _ := env.Value.(value.Value).Number()
			*s.received = append(*s.received, n)
		case <-rc.Done():
			return nil
		}
	}
}

// failingNode always errors.
type failingNode struct{ node.BaseNode }

func (f *failingNode) Arity() node.Arity                                            { return node.Arity{} }
func (f *failingNode) Configure(map[string]interface{}, node.CredentialResolver) error { return nil }
func (f *failingNode) Run([]node.Input, []*node.Output, node.RunContext) error {
	return assertError{}
}

type assertError struct{}

func (assertError) Error() string { return "boom" }

func buildRegistry(received *[]float64) *compiler.Registry {
	reg := compiler.NewRegistry()
	reg.Register("source", func(id string) node.Node { return &sourceNode{BaseNode: node.NewBaseNode(id, "source", nil)} })
	reg.Register("sink", func(id string) node.Node {
		return &sinkNode{BaseNode: node.NewBaseNode(id, "sink", nil), received: received}
	})
	reg.Register("failing", func(id string) node.Node { return &failingNode{BaseNode: node.NewBaseNode(id, "failing", nil)} })
	return reg
}

func TestEngineRunsLinearGraphToCompletion(t *testing.T) {
	var received []float64
	reg := buildRegistry(&received)

	def := &graph.WorkflowDef{
		Nodes: []graph.NodeSpec{
			{ID: "src", Type: "source"},
			{ID: "snk", Type: "sink"},
		},
		Edges: []graph.Edge{
			{From: graph.PortRef{NodeID: "src"}, To: graph.PortRef{NodeID: "snk"}},
		},
	}

	cg, err := compiler.Compile(def, reg, nil, config.Default())
	require.NoError(t, err)

	eng := New(reg, config.Default(), nil)
	job := eng.Submit(cg)

	require.Eventually(t, func() bool {
		return job.Status().Terminal()
	}, 2*time.Second, 10*time.Millisecond)

	require.Equal(t, JobCompleted, job.Status())
	require.ElementsMatch(t, []float64{1, 2}, received)
}

func TestEngineFailsJobOnNodeError(t *testing.T) {
	reg := compiler.NewRegistry()
	reg.Register("failing", func(id string) node.Node { return &failingNode{BaseNode: node.NewBaseNode(id, "failing", nil)} })

	def := &graph.WorkflowDef{Nodes: []graph.NodeSpec{{ID: "f", Type: "failing"}}}
	cg, err := compiler.Compile(def, reg, nil, config.Default())
	require.NoError(t, err)

	eng := New(reg, config.Default(), nil)
	job := eng.Submit(cg)

	require.Eventually(t, func() bool {
		return job.Status().Terminal()
	}, 2*time.Second, 10*time.Millisecond)

	require.Equal(t, JobFailed, job.Status())
	require.Error(t, job.Err())
}

func TestEngineStatusAndSubscribeUnknownJob(t *testing.T) {
	eng := New(compiler.NewRegistry(), config.Default(), nil)
	_, err := eng.Status("nope")
	require.Error(t, err)
	_, err = eng.Subscribe("nope")
	require.Error(t, err)
}

// alwaysSpillStore spills every value regardless of size, letting tests
// assert on the EdgeData event carrying a Ref instead of an inline Value.
type alwaysSpillStore struct{}

func (alwaysSpillStore) Spill(_ context.Context, jobID, nodeID string, seq uint64, v value.Value) (spill.Reference, bool, error) {
	return spill.Reference{BlobPath: jobID + "/" + nodeID, SizeBytes: 1}, true, nil
}
func (alwaysSpillStore) Fetch(context.Context, spill.Reference) (value.Value, error) {
	return value.Null(), nil
}

func TestEngineSpillsEdgeDataAboveThreshold(t *testing.T) {
	var received []float64
	reg := buildRegistry(&received)

	def := &graph.WorkflowDef{
		Nodes: []graph.NodeSpec{
			{ID: "src", Type: "source"},
			{ID: "snk", Type: "sink"},
		},
		Edges: []graph.Edge{
			{From: graph.PortRef{NodeID: "src"}, To: graph.PortRef{NodeID: "snk"}},
		},
	}

	cg, err := compiler.Compile(def, reg, nil, config.Default())
	require.NoError(t, err)

	eng := New(reg, config.Default(), nil).WithSpillStore(alwaysSpillStore{})
	job := eng.Submit(cg)
	sub := job.Subscribe()

	var sawRef bool
	for ev := range sub {
		if ev.Kind == EventEdgeData {
			require.Nil(t, ev.Value)
			require.NotNil(t, ev.Ref)
			sawRef = true
		}
	}
	require.True(t, sawRef)
}

func TestEmptyWorkflowCompletesImmediately(t *testing.T) {
	reg := compiler.NewRegistry()
	def := &graph.WorkflowDef{}
	cg, err := compiler.Compile(def, reg, nil, config.Default())
	require.NoError(t, err)

	eng := New(reg, config.Default(), nil)
	job := eng.Submit(cg)

	require.Eventually(t, func() bool {
		return job.Status().Terminal()
	}, time.Second, 5*time.Millisecond)
	require.Equal(t, JobCompleted, job.Status())
}
