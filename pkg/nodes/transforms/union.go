package transforms

import (
	"fmt"
	"reflect"

	"github.com/wehubfusion/rustflow/pkg/channel"
	"github.com/wehubfusion/rustflow/pkg/node"
	"github.com/wehubfusion/rustflow/pkg/value"
)

// UnionMode selects how UnionNode drains its inputs.
type UnionMode string

const (
	UnionInterleaved UnionMode = "interleaved"
	UnionSequential  UnionMode = "sequential"
)

// UnionNode combines N input streams into one output stream. Its input
// count is fixed at compile time by the "inputs" config field, since the
// engine's node contract declares arity statically rather than inferring
// it from the edge set.
type UnionNode struct {
	node.BaseNode
	mode      UnionMode
	numInputs int
}

// NewUnionFactory returns the factory the compiler registers under
// "union".
func NewUnionFactory() node.Factory {
	return func(id string) node.Node {
		return &UnionNode{BaseNode: node.NewBaseNode(id, "union", nil)}
	}
}

func (u *UnionNode) Arity() node.Arity {
	n := u.numInputs
	if n <= 0 {
		n = 2
	}
	inputs := make([]node.PortDescriptor, n)
	for i := range inputs {
		inputs[i] = node.PortDescriptor{Name: fmt.Sprintf("%d", i)}
	}
	return node.Arity{Inputs: inputs, Outputs: []node.PortDescriptor{{Name: "0"}}}
}

func (u *UnionNode) Configure(config map[string]interface{}, _ node.CredentialResolver) error {
	u.BaseNode = node.NewBaseNode(u.ID(), "union", config)
	u.mode = UnionMode(u.GetConfigString("mode", string(UnionInterleaved)))
	u.numInputs = u.GetConfigInt("inputs", 2)
	if u.numInputs < 1 {
		return fmt.Errorf("union node %q requires at least 1 input", u.ID())
	}
	switch u.mode {
	case UnionInterleaved, UnionSequential:
	default:
		return fmt.Errorf("union node %q has unknown mode %q", u.ID(), u.mode)
	}
	return nil
}

func (u *UnionNode) Run(inputs []node.Input, outputs []*node.Output, rc node.RunContext) error {
	if u.mode == UnionSequential {
		return u.runSequential(inputs, outputs, rc)
	}
	return u.runInterleaved(inputs, outputs, rc)
}

func (u *UnionNode) runSequential(inputs []node.Input, outputs []*node.Output, rc node.RunContext) error {
	for _, in := range inputs {
		if cancelled := u.drainOne(in, outputs, rc); cancelled {
			return nil
		}
	}
	return nil
}

// drainOne forwards everything from in to outputs[0] until in closes, and
// reports whether the job was cancelled first (not itself an error).
func (u *UnionNode) drainOne(in node.Input, outputs []*node.Output, rc node.RunContext) bool {
	for {
		select {
		case env, ok := <-in.Recv():
			if !ok {
				return false
			}
			if !outputs[0].Send(rc.Context, env.Value.(value.Value)) {
				return true
			}
		case <-rc.Done():
			return true
		}
	}
}

func (u *UnionNode) runInterleaved(inputs []node.Input, outputs []*node.Output, rc node.RunContext) error {
	open := make([]bool, len(inputs))
	for i := range open {
		open[i] = true
	}
	remaining := len(inputs)

	for remaining > 0 {
		select {
		case <-rc.Done():
			return nil
		default:
		}

		selected := false
		for i, in := range inputs {
			if !open[i] {
				continue
			}
			select {
			case env, ok := <-in.Recv():
				if !ok {
					open[i] = false
					remaining--
					selected = true
					continue
				}
				if !outputs[0].Send(rc.Context, env.Value.(value.Value)) {
					return nil
				}
				selected = true
			default:
			}
		}
		if !selected && remaining > 0 {
			// Nothing was ready on any open input this sweep; block on
			// whichever fires first instead of busy-looping.
			cases, indexMap := buildSelectCases(inputs, open, rc.Done())
			idx, v, ok := awaitAny(cases, indexMap)
			if idx < 0 {
				return nil // cancellation
			}
			if !ok {
				open[idx] = false
				remaining--
				continue
			}
			if !outputs[0].Send(rc.Context, v) {
				return nil
			}
		}
	}
	return nil
}

// buildSelectCases constructs a reflect.SelectCase per still-open input
// plus the cancellation channel, since the number of input ports a union
// node has is only known at compile time, not at Go compile time. It also
// returns the case-index -> original-input-index mapping, since the case
// slice omits already-closed inputs.
func buildSelectCases(inputs []node.Input, open []bool, done <-chan struct{}) ([]reflect.SelectCase, []int) {
	cases := make([]reflect.SelectCase, 0, len(inputs)+1)
	indexMap := make([]int, 0, len(inputs))
	for i, in := range inputs {
		if !open[i] {
			continue
		}
		cases = append(cases, reflect.SelectCase{Dir: reflect.SelectRecv, Chan: reflect.ValueOf(in.Recv())})
		indexMap = append(indexMap, i)
	}
	cases = append(cases, reflect.SelectCase{Dir: reflect.SelectRecv, Chan: reflect.ValueOf(done)})
	return cases, indexMap
}

// awaitAny blocks on every case built by buildSelectCases, returning the
// *original* input index that fired, the received value if the channel
// was still open, and whether it was open. idx is -1 if the cancellation
// channel fired.
func awaitAny(cases []reflect.SelectCase, indexMap []int) (idx int, v value.Value, ok bool) {
	chosen, recv, recvOK := reflect.Select(cases)
	if chosen == len(cases)-1 {
		return -1, value.Null(), false
	}
	origIdx := indexMap[chosen]
	if !recvOK {
		return origIdx, value.Null(), false
	}
	env := recv.Interface().(channel.Envelope)
	return origIdx, env.Value.(value.Value), true
}
