// Package transforms implements the engine's single- and multi-input
// processing nodes: set_data, code, http_request, template, router, join,
// union, file_source, agent, plus the supplemental split/accumulate/delay
// nodes.
package transforms

import (
	"github.com/wehubfusion/rustflow/pkg/node"
	"github.com/wehubfusion/rustflow/pkg/value"
)

// SetDataNode ignores whatever arrives on its single input and emits its
// configured json payload once per received pulse. If its input closes
// before any pulse arrives, as it does with zero inbound edges, it emits
// the payload once and finishes, behaving as a pure source.
type SetDataNode struct {
	node.BaseNode
	data value.Value
}

// NewSetDataFactory returns the factory the compiler registers under
// "set_data".
func NewSetDataFactory() node.Factory {
	return func(id string) node.Node {
		return &SetDataNode{BaseNode: node.NewBaseNode(id, "set_data", nil)}
	}
}

func (s *SetDataNode) Arity() node.Arity {
	return node.Arity{
		Inputs:  []node.PortDescriptor{{Name: "0"}},
		Outputs: []node.PortDescriptor{{Name: "0"}},
	}
}

func (s *SetDataNode) Configure(config map[string]interface{}, _ node.CredentialResolver) error {
	s.BaseNode = node.NewBaseNode(s.ID(), "set_data", config)
	if raw, ok := config["json"]; ok {
		s.data = value.FromAny(raw)
	} else {
		s.data = value.Object(nil)
	}
	return nil
}

func (s *SetDataNode) Run(inputs []node.Input, outputs []*node.Output, rc node.RunContext) error {
	received := false
	for {
		select {
		case _, ok := <-inputs[0].Recv():
			if !ok {
				if !received {
					outputs[0].Send(rc.Context, s.data)
				}
				return nil
			}
			received = true
			if !outputs[0].Send(rc.Context, s.data) {
				return nil
			}
		case <-rc.Done():
			return nil
		}
	}
}
