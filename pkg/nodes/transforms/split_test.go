package transforms

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wehubfusion/rustflow/pkg/channel"
	"github.com/wehubfusion/rustflow/pkg/node"
	"github.com/wehubfusion/rustflow/pkg/value"
)

func TestSplitEmitsOnePerArrayElement(t *testing.T) {
	s := NewSplitFactory()("s1")
	require.NoError(t, s.Configure(map[string]interface{}{"path": "items"}, nil))

	in := channel.NewPipe(1)
	out := channel.NewPipe(8)

	in.Send(channel.Envelope{Value: value.Object(map[string]value.Value{
		"items": value.Array([]value.Value{value.Number(1), value.Number(2), value.Number(3)}),
	})}, nil)
	in.Close()

	outs := []*node.Output{node.NewSinglePortOutput("s1", "0", out, node.PortTarget{})}
	require.NoError(t, s.Run([]node.Input{in}, outs, node.RunContext{Context: context.Background()}))

	outs[0].Close()
	var results []value.Value
	for env := range out.Recv() {
		results = append(results, env.Value.(value.Value))
	}
	require.Len(t, results, 3)
}

func TestSplitPassesThroughNonArray(t *testing.T) {
	s := NewSplitFactory()("s2")
	require.NoError(t, s.Configure(nil, nil))

	in := channel.NewPipe(1)
	out := channel.NewPipe(1)

	in.Send(channel.Envelope{Value: value.Number(42)}, nil)
	in.Close()

	outs := []*node.Output{node.NewSinglePortOutput("s2", "0", out, node.PortTarget{})}
	require.NoError(t, s.Run([]node.Input{in}, outs, node.RunContext{Context: context.Background()}))

	env := <-out.Recv()
	n, _ := env.Value.(value.Value).Number()
	require.Equal(t, float64(42), n)
}
