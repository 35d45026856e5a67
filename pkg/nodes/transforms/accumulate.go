package transforms

import (
	"github.com/wehubfusion/rustflow/pkg/node"
	"github.com/wehubfusion/rustflow/pkg/value"
)

// AccumulateNode buffers input values and emits one array per batch_size
// items, plus a final short batch of whatever remains when the input
// closes (input 1..13, batch_size 5 -> [5],[5],[3]) — the inverse of
// split. With no batch_size configured it buffers everything and emits a
// single array on close.
type AccumulateNode struct {
	node.BaseNode
	batchSize int
}

// NewAccumulateFactory returns the factory the compiler registers under
// "accumulate".
func NewAccumulateFactory() node.Factory {
	return func(id string) node.Node {
		return &AccumulateNode{BaseNode: node.NewBaseNode(id, "accumulate", nil)}
	}
}

func (a *AccumulateNode) Arity() node.Arity {
	return node.Arity{
		Inputs:  []node.PortDescriptor{{Name: "0"}},
		Outputs: []node.PortDescriptor{{Name: "0"}},
	}
}

func (a *AccumulateNode) Configure(config map[string]interface{}, _ node.CredentialResolver) error {
	a.BaseNode = node.NewBaseNode(a.ID(), "accumulate", config)
	a.batchSize = a.GetConfigInt("batch_size", 0)
	return nil
}

func (a *AccumulateNode) Run(inputs []node.Input, outputs []*node.Output, rc node.RunContext) error {
	var buf []value.Value

	flush := func() bool {
		if len(buf) == 0 {
			return true
		}
		sent := outputs[0].Send(rc.Context, value.Array(buf))
		buf = nil
		return sent
	}

	for {
		select {
		case env, ok := <-inputs[0].Recv():
			if !ok {
				flush()
				return nil
			}
			buf = append(buf, env.Value.(value.Value))
			if a.batchSize > 0 && len(buf) >= a.batchSize {
				if !flush() {
					return nil
				}
			}
		case <-rc.Done():
			return nil
		}
	}
}
