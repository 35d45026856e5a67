package transforms

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wehubfusion/rustflow/pkg/channel"
	"github.com/wehubfusion/rustflow/pkg/node"
	"github.com/wehubfusion/rustflow/pkg/value"
)

func TestUnionSequentialDrainsInOrder(t *testing.T) {
	u := NewUnionFactory()("u1")
	require.NoError(t, u.Configure(map[string]interface{}{"mode": "sequential", "inputs": float64(2)}, nil))

	a := channel.NewPipe(4)
	b := channel.NewPipe(4)
	out := channel.NewPipe(8)

	sendAllAndClose(a, value.String("a1"), value.String("a2"))
	sendAllAndClose(b, value.String("b1"))

	outs := []*node.Output{node.NewSinglePortOutput("u1", "0", out, node.PortTarget{})}
	require.NoError(t, u.Run([]node.Input{a, b}, outs, node.RunContext{Context: context.Background()}))

	outs[0].Close()
	var got []string
	for env := range out.Recv() {
		s, _ := env.Value.(value.Value).String()
		got = append(got, s)
	}
	require.Equal(t, []string{"a1", "a2", "b1"}, got)
}

func TestUnionInterleavedDeliversEverything(t *testing.T) {
	u := NewUnionFactory()("u2")
	require.NoError(t, u.Configure(map[string]interface{}{"mode": "interleaved", "inputs": float64(2)}, nil))

	a := channel.NewPipe(4)
	b := channel.NewPipe(4)
	out := channel.NewPipe(8)

	sendAllAndClose(a, value.String("a1"))
	sendAllAndClose(b, value.String("b1"))

	outs := []*node.Output{node.NewSinglePortOutput("u2", "0", out, node.PortTarget{})}
	require.NoError(t, u.Run([]node.Input{a, b}, outs, node.RunContext{Context: context.Background()}))

	outs[0].Close()
	var got []string
	for env := range out.Recv() {
		s, _ := env.Value.(value.Value).String()
		got = append(got, s)
	}
	require.ElementsMatch(t, []string{"a1", "b1"}, got)
}
