package transforms

import (
	"github.com/wehubfusion/rustflow/pkg/node"
	"github.com/wehubfusion/rustflow/pkg/value"
)

// SplitNode unpacks the array found at a configured path on each input
// value, emitting one output value per array element — the inverse of
// accumulate (config: path).
type SplitNode struct {
	node.BaseNode
	path string
}

// NewSplitFactory returns the factory the compiler registers under
// "split".
func NewSplitFactory() node.Factory {
	return func(id string) node.Node {
		return &SplitNode{BaseNode: node.NewBaseNode(id, "split", nil)}
	}
}

func (s *SplitNode) Arity() node.Arity {
	return node.Arity{
		Inputs:  []node.PortDescriptor{{Name: "0"}},
		Outputs: []node.PortDescriptor{{Name: "0"}},
	}
}

func (s *SplitNode) Configure(config map[string]interface{}, _ node.CredentialResolver) error {
	s.BaseNode = node.NewBaseNode(s.ID(), "split", config)
	s.path = s.GetConfigString("path", "")
	return nil
}

func (s *SplitNode) Run(inputs []node.Input, outputs []*node.Output, rc node.RunContext) error {
	for {
		select {
		case env, ok := <-inputs[0].Recv():
			if !ok {
				return nil
			}
			v := env.Value.(value.Value)
			target := v
			if s.path != "" {
				resolved, found := navigate(v, s.path)
				if !found {
					continue
				}
				target = resolved
			}
			items, isArray := target.Array()
			if !isArray {
				if !outputs[0].Send(rc.Context, target) {
					return nil
				}
				continue
			}
			for _, item := range items {
				if !outputs[0].Send(rc.Context, item) {
					return nil
				}
			}
		case <-rc.Done():
			return nil
		}
	}
}
