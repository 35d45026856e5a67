// Package triggers implements the engine's zero-input source nodes:
// manual, time-scheduled, and externally-injected (webhook) triggers. Each
// emits a finite or cancellable sequence of pulses and then terminates.
package triggers

import (
	"github.com/wehubfusion/rustflow/pkg/node"
	"github.com/wehubfusion/rustflow/pkg/value"
)

// ManualNode fires exactly once, emitting null (or its configured payload)
// on its single output, then terminates.
type ManualNode struct {
	node.BaseNode
	payload value.Value
}

// NewManualFactory returns the factory the compiler registers under
// "manual_trigger".
func NewManualFactory() node.Factory {
	return func(id string) node.Node {
		return &ManualNode{BaseNode: node.NewBaseNode(id, "manual_trigger", nil)}
	}
}

func (m *ManualNode) Arity() node.Arity {
	return node.Arity{
		Outputs: []node.PortDescriptor{{Name: "0"}},
	}
}

func (m *ManualNode) Configure(config map[string]interface{}, _ node.CredentialResolver) error {
	m.BaseNode = node.NewBaseNode(m.ID(), "manual_trigger", config)
	if raw, ok := config["payload"]; ok {
		m.payload = value.FromAny(raw)
	} else {
		m.payload = value.Null()
	}
	return nil
}

func (m *ManualNode) Run(_ []node.Input, outputs []*node.Output, rc node.RunContext) error {
	outputs[0].Send(rc.Context, m.payload)
	return nil
}
