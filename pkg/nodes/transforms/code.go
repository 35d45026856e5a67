package transforms

import (
	"fmt"

	"github.com/dop251/goja"

	"github.com/wehubfusion/rustflow/pkg/node"
	"github.com/wehubfusion/rustflow/pkg/value"
)

// CodeNode runs a user-supplied JavaScript snippet against each input
// value via goja. The snippet is a function body; it receives the input
// as `input` and must return the value to emit.
type CodeNode struct {
	node.BaseNode
	source string
}

// NewCodeFactory returns the factory the compiler registers under "code".
func NewCodeFactory() node.Factory {
	return func(id string) node.Node {
		return &CodeNode{BaseNode: node.NewBaseNode(id, "code", nil)}
	}
}

func (c *CodeNode) Arity() node.Arity {
	return node.Arity{
		Inputs:  []node.PortDescriptor{{Name: "0"}},
		Outputs: []node.PortDescriptor{{Name: "0"}, {Name: "error", Role: "error"}},
	}
}

func (c *CodeNode) Configure(config map[string]interface{}, _ node.CredentialResolver) error {
	c.BaseNode = node.NewBaseNode(c.ID(), "code", config)
	c.source = c.GetConfigString("code", "")
	if c.source == "" {
		return fmt.Errorf("code node %q requires non-empty code", c.ID())
	}
	return nil
}

func (c *CodeNode) Run(inputs []node.Input, outputs []*node.Output, rc node.RunContext) error {
	successOut, errorOut := outputs[0], outputs[1]

	for {
		select {
		case env, ok := <-inputs[0].Recv():
			if !ok {
				return nil
			}
			result, err := c.evaluate(env.Value.(value.Value))
			if err != nil {
				errObj := value.Object(map[string]value.Value{"error": value.String(err.Error())})
				if !errorOut.Send(rc.Context, errObj) {
					return nil
				}
				continue
			}
			if !successOut.Send(rc.Context, result) {
				return nil
			}
		case <-rc.Done():
			return nil
		}
	}
}

func (c *CodeNode) evaluate(input value.Value) (value.Value, error) {
	vm := goja.New()
	if err := vm.Set("input", value.ToAny(input)); err != nil {
		return value.Null(), err
	}

	script := fmt.Sprintf("(function(input) {\n%s\n})(input)", c.source)
	result, err := vm.RunString(script)
	if err != nil {
		return value.Null(), err
	}
	return value.FromAny(result.Export()), nil
}
