package transforms

import (
	"fmt"

	"github.com/wehubfusion/rustflow/pkg/node"
	"github.com/wehubfusion/rustflow/pkg/value"
)

// RouterNode evaluates a configured predicate against each input value and
// forwards it to the "true" or "false" output, never both.
type RouterNode struct {
	node.BaseNode
	key      string
	operator ComparisonOperator
	expected value.Value
}

// NewRouterFactory returns the factory the compiler registers under
// "router".
func NewRouterFactory() node.Factory {
	return func(id string) node.Node {
		return &RouterNode{BaseNode: node.NewBaseNode(id, "router", nil)}
	}
}

func (r *RouterNode) Arity() node.Arity {
	return node.Arity{
		Inputs: []node.PortDescriptor{{Name: "0"}},
		Outputs: []node.PortDescriptor{
			{Name: "true", Role: "true"},
			{Name: "false", Role: "false"},
		},
	}
}

func (r *RouterNode) Configure(config map[string]interface{}, _ node.CredentialResolver) error {
	r.BaseNode = node.NewBaseNode(r.ID(), "router", config)
	r.key = r.GetConfigString("key", "")
	op := r.GetConfigString("operator", string(OpEquals))
	r.operator = ComparisonOperator(op)
	if raw, ok := config["value"]; ok {
		r.expected = value.FromAny(raw)
	} else {
		r.expected = value.Null()
	}
	if r.key == "" {
		return fmt.Errorf("router node %q requires a non-empty key", r.ID())
	}
	return nil
}

func (r *RouterNode) Run(inputs []node.Input, outputs []*node.Output, rc node.RunContext) error {
	trueOut, falseOut := outputs[0], outputs[1]
	for {
		select {
		case env, ok := <-inputs[0].Recv():
			if !ok {
				return nil
			}
			v := env.Value.(value.Value)
			actual, found := navigate(v, r.key)
			if !found {
				actual = value.Null()
			}
			if compareValues(r.operator, actual, r.expected) {
				if !trueOut.Send(rc.Context, v) {
					return nil
				}
			} else {
				if !falseOut.Send(rc.Context, v) {
					return nil
				}
			}
		case <-rc.Done():
			return nil
		}
	}
}
