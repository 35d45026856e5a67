package transforms

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wehubfusion/rustflow/pkg/channel"
	"github.com/wehubfusion/rustflow/pkg/node"
	"github.com/wehubfusion/rustflow/pkg/value"
)

func TestAccumulateEmitsOneArrayOnClose(t *testing.T) {
	a := NewAccumulateFactory()("a1")
	require.NoError(t, a.Configure(nil, nil))

	in := channel.NewPipe(8)
	out := channel.NewPipe(1)

	sendAllAndClose(in, value.Number(1), value.Number(2), value.Number(3))

	outs := []*node.Output{node.NewSinglePortOutput("a1", "0", out, node.PortTarget{})}
	require.NoError(t, a.Run([]node.Input{in}, outs, node.RunContext{Context: context.Background()}))

	env := <-out.Recv()
	items, isArray := env.Value.(value.Value).Array()
	require.True(t, isArray)
	require.Len(t, items, 3)
}

func TestAccumulateEmitsOneArrayPerBatchPlusShortTail(t *testing.T) {
	a := NewAccumulateFactory()("a2")
	require.NoError(t, a.Configure(map[string]interface{}{"batch_size": 5}, nil))

	in := channel.NewPipe(16)
	out := channel.NewPipe(16)

	var inputs []value.Value
	for i := 1; i <= 13; i++ {
		inputs = append(inputs, value.Number(float64(i)))
	}
	sendAllAndClose(in, inputs...)

	outs := []*node.Output{node.NewSinglePortOutput("a2", "0", out, node.PortTarget{})}
	require.NoError(t, a.Run([]node.Input{in}, outs, node.RunContext{Context: context.Background()}))

	outs[0].Close()
	var results [][]value.Value
	for env := range out.Recv() {
		items, isArray := env.Value.(value.Value).Array()
		require.True(t, isArray)
		results = append(results, items)
	}

	require.Len(t, results, 3)
	require.Len(t, results[0], 5)
	require.Len(t, results[1], 5)
	require.Len(t, results[2], 3)
}
