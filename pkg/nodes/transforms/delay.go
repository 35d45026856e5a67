package transforms

import (
	"time"

	"github.com/wehubfusion/rustflow/pkg/node"
	"github.com/wehubfusion/rustflow/pkg/value"
)

// DelayNode passes each input value through unchanged after waiting a
// fixed duration (config: delay_ms). The wait is cancellable: a cancelled
// run drops the pending value and returns without error rather than
// emitting late.
type DelayNode struct {
	node.BaseNode
	delay time.Duration
}

// NewDelayFactory returns the factory the compiler registers under
// "delay".
func NewDelayFactory() node.Factory {
	return func(id string) node.Node {
		return &DelayNode{BaseNode: node.NewBaseNode(id, "delay", nil)}
	}
}

func (d *DelayNode) Arity() node.Arity {
	return node.Arity{
		Inputs:  []node.PortDescriptor{{Name: "0"}},
		Outputs: []node.PortDescriptor{{Name: "0"}},
	}
}

func (d *DelayNode) Configure(config map[string]interface{}, _ node.CredentialResolver) error {
	d.BaseNode = node.NewBaseNode(d.ID(), "delay", config)
	d.delay = time.Duration(d.GetConfigFloat("delay_ms", 0)) * time.Millisecond
	return nil
}

func (d *DelayNode) Run(inputs []node.Input, outputs []*node.Output, rc node.RunContext) error {
	for {
		select {
		case env, ok := <-inputs[0].Recv():
			if !ok {
				return nil
			}
			v := env.Value.(value.Value)
			timer := time.NewTimer(d.delay)
			select {
			case <-timer.C:
			case <-rc.Done():
				timer.Stop()
				return nil
			}
			if !outputs[0].Send(rc.Context, v) {
				return nil
			}
		case <-rc.Done():
			return nil
		}
	}
}
