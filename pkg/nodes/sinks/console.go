// Package sinks implements the engine's terminal nodes: those that consume
// input until it closes and never emit.
package sinks

import (
	"encoding/json"

	"github.com/wehubfusion/rustflow/pkg/logging"
	"github.com/wehubfusion/rustflow/pkg/node"
	"github.com/wehubfusion/rustflow/pkg/value"
)

// ConsoleNode logs every value it receives and produces no output — the
// "console_output" terminal step used to observe a pipeline's results.
type ConsoleNode struct {
	node.BaseNode
	label string
}

// NewConsoleFactory returns the factory the compiler registers under
// "console_output".
func NewConsoleFactory() node.Factory {
	return func(id string) node.Node {
		return &ConsoleNode{BaseNode: node.NewBaseNode(id, "console_output", nil)}
	}
}

func (c *ConsoleNode) Arity() node.Arity {
	return node.Arity{Inputs: []node.PortDescriptor{{Name: "0"}}}
}

func (c *ConsoleNode) Configure(config map[string]interface{}, _ node.CredentialResolver) error {
	c.BaseNode = node.NewBaseNode(c.ID(), "console_output", config)
	c.label = c.GetConfigString("label", c.ID())
	return nil
}

func (c *ConsoleNode) Run(inputs []node.Input, _ []*node.Output, rc node.RunContext) error {
	for {
		select {
		case env, ok := <-inputs[0].Recv():
			if !ok {
				return nil
			}
			v, _ := env.Value.(value.Value)
			raw, _ := json.Marshal(v)
			rc.Logger.Info("console_output", logging.String("node_id", c.label), logging.Any("value", json.RawMessage(raw)))
		case <-rc.Done():
			return nil
		}
	}
}
