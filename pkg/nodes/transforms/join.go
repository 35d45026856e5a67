package transforms

import (
	"fmt"

	"github.com/wehubfusion/rustflow/pkg/node"
	"github.com/wehubfusion/rustflow/pkg/value"
)

// JoinMode controls what happens when one side runs out of entries to
// match against the other, shared by both join Type variants.
type JoinMode string

const (
	JoinInner JoinMode = "inner"
	JoinLeft  JoinMode = "left"
	JoinRight JoinMode = "right"
	JoinOuter JoinMode = "outer"
)

// JoinType selects key-path matching vs positional pairing, join's two
// modes.
type JoinType string

const (
	JoinTypeKey   JoinType = "key"
	JoinTypeIndex JoinType = "index"
)

// JoinNode merges two input streams into one, grounded on the original
// implementation's join node (type: index/key, key, right_key).
type JoinNode struct {
	node.BaseNode
	joinType JoinType
	mode     JoinMode
	leftKey  string
	rightKey string
}

// NewJoinFactory returns the factory the compiler registers under "join".
func NewJoinFactory() node.Factory {
	return func(id string) node.Node {
		return &JoinNode{BaseNode: node.NewBaseNode(id, "join", nil)}
	}
}

func (j *JoinNode) Arity() node.Arity {
	return node.Arity{
		Inputs:  []node.PortDescriptor{{Name: "left"}, {Name: "right"}},
		Outputs: []node.PortDescriptor{{Name: "0"}},
	}
}

func (j *JoinNode) Configure(config map[string]interface{}, _ node.CredentialResolver) error {
	j.BaseNode = node.NewBaseNode(j.ID(), "join", config)
	j.joinType = JoinType(j.GetConfigString("type", string(JoinTypeIndex)))
	j.mode = JoinMode(j.GetConfigString("mode", string(JoinInner)))
	j.leftKey = j.GetConfigString("key", "")
	j.rightKey = j.GetConfigString("right_key", j.leftKey)

	if j.joinType == JoinTypeKey && j.leftKey == "" {
		return fmt.Errorf("join node %q in key mode requires a non-empty key", j.ID())
	}
	switch j.joinType {
	case JoinTypeKey, JoinTypeIndex:
	default:
		return fmt.Errorf("join node %q has unknown type %q", j.ID(), j.joinType)
	}
	switch j.mode {
	case JoinInner, JoinLeft, JoinRight, JoinOuter:
	default:
		return fmt.Errorf("join node %q has unknown mode %q", j.ID(), j.mode)
	}
	return nil
}

func merged(left, right value.Value, hasLeft, hasRight bool) value.Value {
	fields := map[string]value.Value{}
	if hasLeft {
		fields["left"] = left
	} else {
		fields["left"] = value.Null()
	}
	if hasRight {
		fields["right"] = right
	} else {
		fields["right"] = value.Null()
	}
	return value.Object(fields)
}

func (j *JoinNode) Run(inputs []node.Input, outputs []*node.Output, rc node.RunContext) error {
	if j.joinType == JoinTypeKey {
		return j.runKeyMode(inputs, outputs, rc)
	}
	return j.runIndexMode(inputs, outputs, rc)
}

func (j *JoinNode) runKeyMode(inputs []node.Input, outputs []*node.Output, rc node.RunContext) error {
	leftBuf := map[string][]value.Value{}
	rightBuf := map[string][]value.Value{}
	leftCh, rightCh := inputs[0].Recv(), inputs[1].Recv()
	leftClosed, rightClosed := false, false

	emit := func(v value.Value) bool { return outputs[0].Send(rc.Context, v) }

	for !leftClosed || !rightClosed {
		select {
		case env, ok := <-leftCh:
			if !ok {
				leftClosed = true
				leftCh = nil
				continue
			}
			v := env.Value.(value.Value)
			k := keyFor(v, j.leftKey)
			if queue := rightBuf[k]; len(queue) > 0 {
				partner := queue[0]
				rightBuf[k] = queue[1:]
				if !emit(merged(v, partner, true, true)) {
					return nil
				}
			} else {
				leftBuf[k] = append(leftBuf[k], v)
			}
		case env, ok := <-rightCh:
			if !ok {
				rightClosed = true
				rightCh = nil
				continue
			}
			v := env.Value.(value.Value)
			k := keyFor(v, j.rightKey)
			if queue := leftBuf[k]; len(queue) > 0 {
				partner := queue[0]
				leftBuf[k] = queue[1:]
				if !emit(merged(partner, v, true, true)) {
					return nil
				}
			} else {
				rightBuf[k] = append(rightBuf[k], v)
			}
		case <-rc.Done():
			return nil
		}
	}

	if j.mode == JoinLeft || j.mode == JoinOuter {
		for _, queue := range leftBuf {
			for _, v := range queue {
				if !emit(merged(v, value.Null(), true, false)) {
					return nil
				}
			}
		}
	}
	if j.mode == JoinRight || j.mode == JoinOuter {
		for _, queue := range rightBuf {
			for _, v := range queue {
				if !emit(merged(value.Null(), v, false, true)) {
					return nil
				}
			}
		}
	}
	return nil
}

func keyFor(v value.Value, path string) string {
	resolved, ok := navigate(v, path)
	if !ok {
		return ""
	}
	if s, isStr := resolved.String(); isStr {
		return s
	}
	if n, isNum := resolved.Number(); isNum {
		return fmt.Sprintf("%g", n)
	}
	return ""
}

func (j *JoinNode) runIndexMode(inputs []node.Input, outputs []*node.Output, rc node.RunContext) error {
	var left, right []value.Value
	leftCh, rightCh := inputs[0].Recv(), inputs[1].Recv()
	leftClosed, rightClosed := false, false

	for !leftClosed || !rightClosed {
		select {
		case env, ok := <-leftCh:
			if !ok {
				leftClosed = true
				leftCh = nil
				continue
			}
			left = append(left, env.Value.(value.Value))
		case env, ok := <-rightCh:
			if !ok {
				rightClosed = true
				rightCh = nil
				continue
			}
			right = append(right, env.Value.(value.Value))
		case <-rc.Done():
			return nil
		}
	}

	n := len(left)
	if len(right) < n {
		n = len(right)
	}
	for i := 0; i < n; i++ {
		if !outputs[0].Send(rc.Context, merged(left[i], right[i], true, true)) {
			return nil
		}
	}

	switch j.mode {
	case JoinLeft, JoinOuter:
		for i := n; i < len(left); i++ {
			if !outputs[0].Send(rc.Context, merged(left[i], value.Null(), true, false)) {
				return nil
			}
		}
	}
	switch j.mode {
	case JoinRight, JoinOuter:
		for i := n; i < len(right); i++ {
			if !outputs[0].Send(rc.Context, merged(value.Null(), right[i], false, true)) {
				return nil
			}
		}
	}
	return nil
}
